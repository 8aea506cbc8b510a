package claim

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/niranjanbala/remoteinbound-claims/internal/model"
	"github.com/niranjanbala/remoteinbound-claims/internal/queue"
)

func newTestService(g *fakeGateway) *Service {
	s := NewService(g, g, g, g, testEventStart)
	s.now = func() time.Time { return g.clock }
	return s
}

func seedSession(g *fakeGateway, id string) {
	start := testEventStart.Add(10 * time.Hour)
	g.addSession(id, 2025, start, nil)
}

// assertConsistent checks that the claim row, the holder reference and
// the denormalized session flag agree.
func assertConsistent(t *testing.T, g *fakeGateway, sessionID string) {
	t.Helper()
	g.mu.Lock()
	defer g.mu.Unlock()
	c := g.claims[sessionID]
	require.NotNil(t, c)
	claimed := c.Status != model.ClaimAvailable
	assert.Equal(t, claimed, c.NewSpeakerID != nil, "holder set iff not available")
	assert.Equal(t, claimed, g.flags[sessionID], "is_claimed flag tracks claim row")
}

func TestClaimHappyPath(t *testing.T) {
	g := newFakeGateway()
	g.addSpeaker(model.Speaker{ID: "sp-1", Name: "Dana", Company: "Acme"})
	seedSession(g, "s-1")
	svc := newTestService(g)

	notes := "covering for the original speaker"
	detail, err := svc.Claim(context.Background(), "s-1", "sp-1", &notes)
	require.NoError(t, err)

	assert.Equal(t, model.ClaimClaimed, detail.Status)
	require.NotNil(t, detail.NewSpeakerID)
	assert.Equal(t, "sp-1", *detail.NewSpeakerID)
	require.NotNil(t, detail.ClaimedAt)
	require.NotNil(t, detail.Speaker)
	assert.Equal(t, "Dana", detail.Speaker.Name)
	require.NotNil(t, detail.Notes)
	assert.Equal(t, notes, *detail.Notes)

	assertConsistent(t, g, "s-1")
	assert.Equal(t, []string{queue.ActionClaimed}, g.publishedActions())
}

func TestClaimUnknownSpeaker(t *testing.T) {
	g := newFakeGateway()
	seedSession(g, "s-1")
	svc := newTestService(g)

	_, err := svc.Claim(context.Background(), "s-1", "ghost", nil)
	assert.ErrorIs(t, err, ErrSpeakerNotFound)
}

func TestClaimUnknownSession(t *testing.T) {
	g := newFakeGateway()
	g.addSpeaker(model.Speaker{ID: "sp-1", Name: "Dana"})
	svc := newTestService(g)

	_, err := svc.Claim(context.Background(), "missing", "sp-1", nil)
	assert.ErrorIs(t, err, ErrClaimNotFound)
}

func TestClaimConflictNamesHolder(t *testing.T) {
	g := newFakeGateway()
	g.addSpeaker(model.Speaker{ID: "sp-1", Name: "Dana"})
	g.addSpeaker(model.Speaker{ID: "sp-2", Name: "Riley"})
	seedSession(g, "s-1")
	svc := newTestService(g)

	_, err := svc.Claim(context.Background(), "s-1", "sp-1", nil)
	require.NoError(t, err)

	_, err = svc.Claim(context.Background(), "s-1", "sp-2", nil)
	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, model.ClaimClaimed, conflict.Status)
	require.NotNil(t, conflict.ClaimedBy)
	assert.Equal(t, "Dana", conflict.ClaimedBy.Name)

	// The winner's claim is untouched by the losing attempt.
	detail, err := svc.Get(context.Background(), "s-1")
	require.NoError(t, err)
	assert.Equal(t, "sp-1", *detail.NewSpeakerID)
}

func TestClaimConcurrentAttemptsSingleWinner(t *testing.T) {
	g := newFakeGateway()
	seedSession(g, "s-1")
	const attempts = 16
	for i := 0; i < attempts; i++ {
		g.addSpeaker(model.Speaker{ID: speakerID(i), Name: "Speaker"})
	}
	svc := newTestService(g)

	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Claim(context.Background(), "s-1", speakerID(i), nil)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		var conflict *ConflictError
		require.True(t, errors.As(err, &conflict), "loser gets a conflict, got %v", err)
	}
	assert.Equal(t, 1, wins, "exactly one concurrent attempt may win")
	assertConsistent(t, g, "s-1")
}

func speakerID(i int) string {
	return "sp-" + string(rune('a'+i))
}

func TestClaimDeadlinePassed(t *testing.T) {
	g := newFakeGateway()
	g.addSpeaker(model.Speaker{ID: "sp-1", Name: "Dana"})
	deadline := g.clock.Add(-time.Hour)
	g.addSession("s-1", 2025, testEventStart.Add(10*time.Hour), &deadline)
	svc := newTestService(g)

	_, err := svc.Claim(context.Background(), "s-1", "sp-1", nil)
	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, model.ClaimAvailable, conflict.Status)
	assert.Contains(t, conflict.Reason, "deadline")
}

func TestReleaseResetsAllClaimFields(t *testing.T) {
	g := newFakeGateway()
	g.addSpeaker(model.Speaker{ID: "sp-1", Name: "Dana"})
	seedSession(g, "s-1")
	svc := newTestService(g)

	_, err := svc.Claim(context.Background(), "s-1", "sp-1", nil)
	require.NoError(t, err)
	url := "https://youtube.com/live/abc"
	_, err = svc.Update(context.Background(), "s-1", Patch{YoutubeStreamURL: &url})
	require.NoError(t, err)

	require.NoError(t, svc.Release(context.Background(), "s-1"))

	detail, err := svc.Get(context.Background(), "s-1")
	require.NoError(t, err)
	assert.Equal(t, model.ClaimAvailable, detail.Status)
	assert.Nil(t, detail.NewSpeakerID)
	assert.Nil(t, detail.ClaimedAt)
	assert.Nil(t, detail.YoutubeStreamURL)
	assert.Nil(t, detail.Notes)
	assertConsistent(t, g, "s-1")
	assert.Contains(t, g.publishedActions(), queue.ActionReleased)
}

func TestReleaseIdempotent(t *testing.T) {
	g := newFakeGateway()
	seedSession(g, "s-1")
	svc := newTestService(g)

	before, err := svc.Get(context.Background(), "s-1")
	require.NoError(t, err)

	require.NoError(t, svc.Release(context.Background(), "s-1"))
	require.NoError(t, svc.Release(context.Background(), "s-1"))

	after, err := svc.Get(context.Background(), "s-1")
	require.NoError(t, err)
	assert.Equal(t, before.UpdatedAt, after.UpdatedAt, "releasing an available claim writes nothing")
	assert.Empty(t, g.publishedActions())
}

func TestReleaseUnknownSession(t *testing.T) {
	g := newFakeGateway()
	svc := newTestService(g)
	assert.ErrorIs(t, svc.Release(context.Background(), "missing"), ErrClaimNotFound)
}

func TestUpdateRejectsEmptyPatch(t *testing.T) {
	g := newFakeGateway()
	seedSession(g, "s-1")
	svc := newTestService(g)

	_, err := svc.Update(context.Background(), "s-1", Patch{})
	assert.ErrorIs(t, err, ErrNoUpdatableFields)
}

func TestUpdateFieldsWithoutStatus(t *testing.T) {
	g := newFakeGateway()
	g.addSpeaker(model.Speaker{ID: "sp-1", Name: "Dana"})
	seedSession(g, "s-1")
	svc := newTestService(g)

	_, err := svc.Claim(context.Background(), "s-1", "sp-1", nil)
	require.NoError(t, err)
	g.events = nil

	vid := "dQw4w9WgXcQ"
	detail, err := svc.Update(context.Background(), "s-1", Patch{YoutubeVideoID: &vid})
	require.NoError(t, err)
	require.NotNil(t, detail.YoutubeVideoID)
	assert.Equal(t, vid, *detail.YoutubeVideoID)
	assert.Equal(t, model.ClaimClaimed, detail.Status, "field update leaves status alone")
	assert.Empty(t, g.publishedActions(), "no lifecycle event without a status change")
}

func TestUpdateStatusAdvances(t *testing.T) {
	g := newFakeGateway()
	g.addSpeaker(model.Speaker{ID: "sp-1", Name: "Dana"})
	seedSession(g, "s-1")
	svc := newTestService(g)

	_, err := svc.Claim(context.Background(), "s-1", "sp-1", nil)
	require.NoError(t, err)

	confirmed := model.ClaimConfirmed
	detail, err := svc.Update(context.Background(), "s-1", Patch{Status: &confirmed})
	require.NoError(t, err)
	assert.Equal(t, model.ClaimConfirmed, detail.Status)
	require.NotNil(t, detail.ConfirmedAt)

	completed := model.ClaimCompleted
	detail, err = svc.Update(context.Background(), "s-1", Patch{Status: &completed})
	require.NoError(t, err)
	assert.Equal(t, model.ClaimCompleted, detail.Status)
	require.NotNil(t, detail.CompletedAt)

	assert.Equal(t, []string{queue.ActionClaimed, queue.ActionConfirmed, queue.ActionCompleted}, g.publishedActions())
}

func TestUpdateStatusRejectsIllegalTransition(t *testing.T) {
	g := newFakeGateway()
	g.addSpeaker(model.Speaker{ID: "sp-1", Name: "Dana"})
	seedSession(g, "s-1")
	svc := newTestService(g)

	// available -> confirmed skips claimed.
	confirmed := model.ClaimConfirmed
	_, err := svc.Update(context.Background(), "s-1", Patch{Status: &confirmed})
	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, model.ClaimAvailable, conflict.Status)

	// claimed -> completed skips confirmed.
	_, err = svc.Claim(context.Background(), "s-1", "sp-1", nil)
	require.NoError(t, err)
	completed := model.ClaimCompleted
	_, err = svc.Update(context.Background(), "s-1", Patch{Status: &completed})
	require.True(t, errors.As(err, &conflict))

	bogus := model.ClaimStatus("archived")
	_, err = svc.Update(context.Background(), "s-1", Patch{Status: &bogus})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestUpdateCannotAcquireClaim(t *testing.T) {
	g := newFakeGateway()
	g.addSpeaker(model.Speaker{ID: "sp-1", Name: "Dana"})
	seedSession(g, "s-1")
	svc := newTestService(g)
	ctx := context.Background()

	// Requesting claimed through update would write a claim with no
	// speaker, no claimed_at and a stale session flag. It must be
	// rejected and leave the row untouched.
	claimed := model.ClaimClaimed
	_, err := svc.Update(ctx, "s-1", Patch{Status: &claimed})
	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))

	detail, err := svc.Get(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, model.ClaimAvailable, detail.Status)
	assert.Nil(t, detail.NewSpeakerID)
	assert.Nil(t, detail.ClaimedAt)
	assertConsistent(t, g, "s-1")
	assert.Empty(t, g.publishedActions())

	// Nor may an existing claim be re-entered through update.
	_, err = svc.Claim(ctx, "s-1", "sp-1", nil)
	require.NoError(t, err)
	_, err = svc.Update(ctx, "s-1", Patch{Status: &claimed})
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "sp-1", *g.claims["s-1"].NewSpeakerID)
}

func TestLifecycleTimestampsMonotonic(t *testing.T) {
	g := newFakeGateway()
	g.addSpeaker(model.Speaker{ID: "sp-1", Name: "Dana"})
	seedSession(g, "s-1")
	svc := newTestService(g)
	ctx := context.Background()

	_, err := svc.Claim(ctx, "s-1", "sp-1", nil)
	require.NoError(t, err)
	confirmed := model.ClaimConfirmed
	_, err = svc.Update(ctx, "s-1", Patch{Status: &confirmed})
	require.NoError(t, err)
	completed := model.ClaimCompleted
	detail, err := svc.Update(ctx, "s-1", Patch{Status: &completed})
	require.NoError(t, err)

	require.NotNil(t, detail.ClaimedAt)
	require.NotNil(t, detail.ConfirmedAt)
	require.NotNil(t, detail.CompletedAt)
	assert.True(t, detail.ClaimedAt.Before(*detail.ConfirmedAt))
	assert.True(t, detail.ConfirmedAt.Before(*detail.CompletedAt))

	firstClaimedAt := *detail.ClaimedAt
	require.NoError(t, svc.Release(ctx, "s-1"))
	detail, err = svc.Claim(ctx, "s-1", "sp-1", nil)
	require.NoError(t, err)
	assert.True(t, detail.ClaimedAt.After(firstClaimedAt), "a fresh claim stamps a later claimed_at")
	assert.Nil(t, detail.ConfirmedAt)
	assert.Nil(t, detail.CompletedAt)
}

func TestClaimSurvivesFlagWriteFailure(t *testing.T) {
	g := newFakeGateway()
	g.addSpeaker(model.Speaker{ID: "sp-1", Name: "Dana"})
	seedSession(g, "s-1")
	g.flagErr = errors.New("sessions table unavailable")
	svc := newTestService(g)

	detail, err := svc.Claim(context.Background(), "s-1", "sp-1", nil)
	require.NoError(t, err, "the claim row is authoritative; the flag write is best effort")
	assert.Equal(t, model.ClaimClaimed, detail.Status)
	assert.False(t, g.flags["s-1"], "flag stays stale until the next successful write")
}

func TestBulkConfirmOnlyTouchesClaimed(t *testing.T) {
	g := newFakeGateway()
	g.addSpeaker(model.Speaker{ID: "sp-1", Name: "Dana"})
	for _, id := range []string{"s-1", "s-2", "s-3", "s-4"} {
		seedSession(g, id)
	}
	svc := newTestService(g)
	ctx := context.Background()

	_, err := svc.Claim(ctx, "s-1", "sp-1", nil)
	require.NoError(t, err)
	_, err = svc.Claim(ctx, "s-3", "sp-1", nil)
	require.NoError(t, err)
	confirmed := model.ClaimConfirmed
	_, err = svc.Update(ctx, "s-3", Patch{Status: &confirmed})
	require.NoError(t, err)
	firstConfirmedAt := g.claims["s-3"].ConfirmedAt

	n, err := svc.BulkConfirm(ctx, []string{"s-1", "s-2", "s-3", "s-4", "s-1", ""})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "only the claimed session advances")

	assert.Equal(t, model.ClaimConfirmed, g.claims["s-1"].Status)
	assert.Equal(t, model.ClaimAvailable, g.claims["s-2"].Status)
	assert.Equal(t, firstConfirmedAt, g.claims["s-3"].ConfirmedAt, "already-confirmed claim untouched")
	assert.Equal(t, model.ClaimAvailable, g.claims["s-4"].Status)
	assert.Contains(t, g.publishedActions(), queue.ActionBulkConfirm)
}

func TestBulkConfirmNoEffectPublishesNothing(t *testing.T) {
	g := newFakeGateway()
	seedSession(g, "s-1")
	svc := newTestService(g)

	n, err := svc.BulkConfirm(context.Background(), []string{"s-1"})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, g.publishedActions())
}

func TestBulkResetReleasesEverything(t *testing.T) {
	g := newFakeGateway()
	g.addSpeaker(model.Speaker{ID: "sp-1", Name: "Dana"})
	for _, id := range []string{"s-1", "s-2", "s-3"} {
		seedSession(g, id)
	}
	svc := newTestService(g)
	ctx := context.Background()

	_, err := svc.Claim(ctx, "s-1", "sp-1", nil)
	require.NoError(t, err)
	_, err = svc.Claim(ctx, "s-2", "sp-1", nil)
	require.NoError(t, err)
	confirmed := model.ClaimConfirmed
	_, err = svc.Update(ctx, "s-2", Patch{Status: &confirmed})
	require.NoError(t, err)

	n, err := svc.BulkReset(ctx, []string{"s-1", "s-2", "s-3"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	for _, id := range []string{"s-1", "s-2", "s-3"} {
		assert.Equal(t, model.ClaimAvailable, g.claims[id].Status, id)
		assertConsistent(t, g, id)
	}
	assert.Contains(t, g.publishedActions(), queue.ActionBulkReset)
}

func TestBulkEmptyInput(t *testing.T) {
	g := newFakeGateway()
	svc := newTestService(g)

	n, err := svc.BulkConfirm(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = svc.BulkReset(context.Background(), []string{"", ""})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestListFiltersAndSummary(t *testing.T) {
	g := newFakeGateway()
	g.addSpeaker(model.Speaker{ID: "sp-1", Name: "Dana"})
	g.addSpeaker(model.Speaker{ID: "sp-2", Name: "Riley"})
	g.addSession("s-1", 2025, testEventStart.Add(9*time.Hour), nil)
	g.addSession("s-2", 2025, testEventStart.Add(11*time.Hour), nil)
	g.addSession("s-3", 2025, testEventStart.AddDate(0, 0, 1).Add(9*time.Hour), nil)
	g.addSession("s-old", 2024, testEventStart.AddDate(-1, 0, 0), nil)
	svc := newTestService(g)
	ctx := context.Background()

	_, err := svc.Claim(ctx, "s-1", "sp-1", nil)
	require.NoError(t, err)
	_, err = svc.Claim(ctx, "s-3", "sp-2", nil)
	require.NoError(t, err)

	// Year scope only.
	res, err := svc.List(ctx, 2025, nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, model.ClaimSummary{Available: 1, Claimed: 2}, res.Summary)

	// Status filter narrows items but not the summary.
	avail := model.ClaimAvailable
	res, err = svc.List(ctx, 2025, &avail, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	assert.Equal(t, "s-2", res.Items[0].SessionID)
	assert.Equal(t, model.ClaimSummary{Available: 1, Claimed: 2}, res.Summary)

	// Holder filter.
	sp := "sp-2"
	res, err = svc.List(ctx, 2025, nil, &sp, nil)
	require.NoError(t, err)
	require.Equal(t, 1, res.Total)
	assert.Equal(t, "s-3", res.Items[0].SessionID)

	// Day filter: day1 excludes the day-2 session.
	day := "day1"
	res, err = svc.List(ctx, 2025, nil, nil, &day)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)

	day = "2025-09-03"
	res, err = svc.List(ctx, 2025, nil, nil, &day)
	require.NoError(t, err)
	require.Equal(t, 1, res.Total)
	assert.Equal(t, "s-3", res.Items[0].SessionID)
}

func TestListRejectsUnknownDay(t *testing.T) {
	g := newFakeGateway()
	svc := newTestService(g)

	day := "whenever"
	_, err := svc.List(context.Background(), 2025, nil, nil, &day)
	var dfe *DayFilterError
	require.True(t, errors.As(err, &dfe))
}
