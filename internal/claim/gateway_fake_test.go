package claim

import (
	"context"
	"sync"
	"time"

	"github.com/niranjanbala/remoteinbound-claims/internal/model"
	"github.com/niranjanbala/remoteinbound-claims/internal/queue"
)

// fakeGateway is an in-memory stand-in for the MySQL-backed stores. Its
// Acquire holds a mutex around the status check and write, matching the
// atomicity of the conditional UPDATE in the real repository. The clock
// advances one second per stamped timestamp so ordering assertions are
// deterministic.
type fakeGateway struct {
	mu       sync.Mutex
	claims   map[string]*model.ClaimDetail
	flags    map[string]bool
	speakers map[string]model.Speaker
	events   []queue.ClaimEvent
	clock    time.Time
	flagErr  error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		claims:   make(map[string]*model.ClaimDetail),
		flags:    make(map[string]bool),
		speakers: make(map[string]model.Speaker),
		clock:    time.Date(2025, time.September, 2, 9, 0, 0, 0, time.UTC),
	}
}

func (g *fakeGateway) addSpeaker(sp model.Speaker) {
	g.speakers[sp.ID] = sp
}

func (g *fakeGateway) addSession(id string, year int, start time.Time, deadline *time.Time) {
	st := start
	g.claims[id] = &model.ClaimDetail{
		SessionClaim: model.SessionClaim{
			SessionID: id,
			Status:    model.ClaimAvailable,
			CreatedAt: g.clock,
			UpdatedAt: g.clock,
		},
		SessionTitle:  "session " + id,
		StartTime:     &st,
		EventYear:     year,
		ClaimDeadline: deadline,
	}
}

// tick advances the fake clock. Callers must hold mu.
func (g *fakeGateway) tick() time.Time {
	g.clock = g.clock.Add(time.Second)
	return g.clock
}

// snapshot copies a claim row and resolves the holder profile, the way
// the repository join does. Callers must hold mu.
func (g *fakeGateway) snapshot(c *model.ClaimDetail) *model.ClaimDetail {
	out := *c
	out.Speaker = nil
	if c.NewSpeakerID != nil {
		if sp, ok := g.speakers[*c.NewSpeakerID]; ok {
			out.Speaker = &sp
		}
	}
	return &out
}

func (g *fakeGateway) Get(_ context.Context, sessionID string) (*model.ClaimDetail, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	c, ok := g.claims[sessionID]
	if !ok {
		return nil, ErrClaimNotFound
	}
	return g.snapshot(c), nil
}

func (g *fakeGateway) List(_ context.Context, f ListFilter) ([]model.ClaimDetail, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []model.ClaimDetail
	for _, c := range g.claims {
		if c.EventYear != f.EventYear {
			continue
		}
		if f.SpeakerID != nil && (c.NewSpeakerID == nil || *c.NewSpeakerID != *f.SpeakerID) {
			continue
		}
		if f.DayStart != nil && (c.StartTime == nil || c.StartTime.Before(*f.DayStart) || !c.StartTime.Before(*f.DayEnd)) {
			continue
		}
		out = append(out, *g.snapshot(c))
	}
	return out, nil
}

func (g *fakeGateway) Acquire(_ context.Context, sessionID, speakerID string, notes *string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	c, ok := g.claims[sessionID]
	if !ok || c.Status != model.ClaimAvailable {
		return ErrLostRace
	}
	now := g.tick()
	c.Status = model.ClaimClaimed
	c.NewSpeakerID = &speakerID
	c.ClaimedAt = &now
	c.Notes = notes
	c.UpdatedAt = now
	return nil
}

func (g *fakeGateway) Update(_ context.Context, sessionID string, p Patch) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	c, ok := g.claims[sessionID]
	if !ok {
		return ErrClaimNotFound
	}
	now := g.tick()
	if p.YoutubeStreamURL != nil {
		c.YoutubeStreamURL = p.YoutubeStreamURL
	}
	if p.YoutubeVideoID != nil {
		c.YoutubeVideoID = p.YoutubeVideoID
	}
	if p.Notes != nil {
		c.Notes = p.Notes
	}
	if p.Status != nil {
		c.Status = *p.Status
		switch *p.Status {
		case model.ClaimConfirmed:
			c.ConfirmedAt = &now
		case model.ClaimCompleted:
			c.CompletedAt = &now
		}
	}
	c.UpdatedAt = now
	return nil
}

func (g *fakeGateway) Release(_ context.Context, sessionID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	c, ok := g.claims[sessionID]
	if !ok {
		return ErrClaimNotFound
	}
	g.reset(c)
	return nil
}

func (g *fakeGateway) reset(c *model.ClaimDetail) {
	c.Status = model.ClaimAvailable
	c.NewSpeakerID = nil
	c.ClaimedAt = nil
	c.ConfirmedAt = nil
	c.CompletedAt = nil
	c.YoutubeStreamURL = nil
	c.YoutubeVideoID = nil
	c.Notes = nil
	c.UpdatedAt = g.tick()
}

func (g *fakeGateway) ConfirmClaimed(_ context.Context, sessionIDs []string) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	var n int64
	for _, id := range sessionIDs {
		c, ok := g.claims[id]
		if !ok || c.Status != model.ClaimClaimed {
			continue
		}
		now := g.tick()
		c.Status = model.ClaimConfirmed
		c.ConfirmedAt = &now
		c.UpdatedAt = now
		n++
	}
	return n, nil
}

func (g *fakeGateway) ResetAll(_ context.Context, sessionIDs []string) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	var n int64
	for _, id := range sessionIDs {
		c, ok := g.claims[id]
		if !ok || c.Status == model.ClaimAvailable {
			continue
		}
		g.reset(c)
		n++
	}
	return n, nil
}

func (g *fakeGateway) SetClaimed(_ context.Context, sessionID string, claimed bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.flagErr != nil {
		return g.flagErr
	}
	g.flags[sessionID] = claimed
	return nil
}

func (g *fakeGateway) ClearClaimed(_ context.Context, sessionIDs []string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.flagErr != nil {
		return g.flagErr
	}
	for _, id := range sessionIDs {
		g.flags[id] = false
	}
	return nil
}

func (g *fakeGateway) GetByID(_ context.Context, id string) (model.Speaker, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	sp, ok := g.speakers[id]
	if !ok {
		return model.Speaker{}, ErrSpeakerNotFound
	}
	return sp, nil
}

func (g *fakeGateway) PublishClaimEvent(_ context.Context, ev queue.ClaimEvent) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.events = append(g.events, ev)
	return nil
}

func (g *fakeGateway) publishedActions() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, 0, len(g.events))
	for _, ev := range g.events {
		out = append(out, ev.Action)
	}
	return out
}
