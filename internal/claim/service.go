package claim

import (
    "context"
    "errors"
    "log"
    "time"

    "github.com/google/uuid"

    "github.com/niranjanbala/remoteinbound-claims/internal/model"
    "github.com/niranjanbala/remoteinbound-claims/internal/queue"
)

// ClaimStore is the persistence gateway for session_claims rows. The
// implementation must express Acquire as a conditional write keyed on
// session_id that only succeeds while the row is still available, so
// two simultaneous claim attempts cannot both succeed.
type ClaimStore interface {
    // Get returns the claim for a session joined with the claiming
    // speaker's public profile, or ErrClaimNotFound.
    Get(ctx context.Context, sessionID string) (*model.ClaimDetail, error)
    // List returns claims matching the filter (event year, optional
    // speaker, optional UTC day bounds on the session start time).
    List(ctx context.Context, f ListFilter) ([]model.ClaimDetail, error)
    // Acquire transitions an available claim to claimed for speakerID
    // and stamps claimed_at. It returns ErrLostRace when the
    // conditional write affected zero rows.
    Acquire(ctx context.Context, sessionID, speakerID string, notes *string) error
    // Update applies the allow-listed patch; a status in the patch
    // stamps its timestamp as part of the same write.
    Update(ctx context.Context, sessionID string, p Patch) error
    // Release resets a claim to available, clearing the speaker, all
    // timestamps, youtube fields and notes.
    Release(ctx context.Context, sessionID string) error
    // ConfirmClaimed transitions every listed claim currently in
    // claimed to confirmed and reports how many rows changed.
    ConfirmClaimed(ctx context.Context, sessionIDs []string) (int64, error)
    // ResetAll releases every listed claim regardless of status and
    // reports how many rows changed.
    ResetAll(ctx context.Context, sessionIDs []string) (int64, error)
}

// SessionStore writes the denormalized is_claimed flag on sessions.
// The claim row is the source of truth; these writes are a read
// optimization and their failure is non-fatal.
type SessionStore interface {
    SetClaimed(ctx context.Context, sessionID string, claimed bool) error
    ClearClaimed(ctx context.Context, sessionIDs []string) error
}

// SpeakerStore resolves speaker public profiles.
type SpeakerStore interface {
    // GetByID returns the speaker or ErrSpeakerNotFound.
    GetByID(ctx context.Context, id string) (model.Speaker, error)
}

// EventPublisher pushes claim lifecycle events to the message broker.
// Publish failures are logged by the implementation and ignored here.
type EventPublisher interface {
    PublishClaimEvent(ctx context.Context, ev queue.ClaimEvent) error
}

// ListFilter narrows a claim listing. DayStart/DayEnd are resolved from
// the caller's day vocabulary before reaching the gateway.
type ListFilter struct {
    EventYear int
    SpeakerID *string
    DayStart  *time.Time
    DayEnd    *time.Time
}

// ListResult is a claim listing plus the per-status tallies dashboards
// rely on. The summary covers the year/day/speaker scope before any
// status filter narrows the items.
type ListResult struct {
    Items   []model.ClaimDetail
    Total   int
    Summary model.ClaimSummary
}

// Service orchestrates the claim state machine against the persistence
// gateway. It is the only writer of claim_status and is_claimed; the
// claim row is written first and the session flag second, so a failure
// of the second write leaves the claim authoritative and the flag stale
// (logged, repaired by the next release/reset touching the row).
type Service struct {
    claims     ClaimStore
    sessions   SessionStore
    speakers   SpeakerStore
    events     EventPublisher
    eventStart time.Time
    now        func() time.Time
}

// NewService builds a claim service. events may be nil to disable
// broker publishing. eventStart anchors the day-filter vocabulary
// (day1 is the event's first day).
func NewService(claims ClaimStore, sessions SessionStore, speakers SpeakerStore, events EventPublisher, eventStart time.Time) *Service {
    if claims == nil || sessions == nil || speakers == nil {
        panic("nil store passed to claim.NewService")
    }
    return &Service{
        claims:     claims,
        sessions:   sessions,
        speakers:   speakers,
        events:     events,
        eventStart: eventStart,
        now:        func() time.Time { return time.Now().UTC() },
    }
}

// Get returns the claim for a session, or ErrClaimNotFound.
func (s *Service) Get(ctx context.Context, sessionID string) (*model.ClaimDetail, error) {
    return s.claims.Get(ctx, sessionID)
}

// List returns claims for an event year, optionally narrowed by status,
// holder and calendar day, together with per-status summary counts.
func (s *Service) List(ctx context.Context, eventYear int, status *model.ClaimStatus, speakerID *string, day *string) (*ListResult, error) {
    f := ListFilter{EventYear: eventYear, SpeakerID: speakerID}
    if day != nil && *day != "" {
        start, end, err := DayBounds(*day, s.eventStart)
        if err != nil {
            return nil, err
        }
        f.DayStart, f.DayEnd = &start, &end
    }
    rows, err := s.claims.List(ctx, f)
    if err != nil {
        return nil, err
    }
    res := &ListResult{Items: make([]model.ClaimDetail, 0, len(rows))}
    for _, row := range rows {
        res.Summary.Add(row.Status)
        if status != nil && row.Status != *status {
            continue
        }
        res.Items = append(res.Items, row)
    }
    res.Total = len(res.Items)
    return res, nil
}

// Claim acquires a session slot for a speaker. The write is conditional
// on the claim still being available, so exactly one of two concurrent
// attempts succeeds; the loser receives a ConflictError naming the
// current status and holder.
func (s *Service) Claim(ctx context.Context, sessionID, speakerID string, notes *string) (*model.ClaimDetail, error) {
    speaker, err := s.speakers.GetByID(ctx, speakerID)
    if err != nil {
        return nil, err
    }
    current, err := s.claims.Get(ctx, sessionID)
    if err != nil {
        return nil, err
    }
    if current.Status != model.ClaimAvailable {
        return nil, &ConflictError{Status: current.Status, ClaimedBy: current.Speaker, Reason: "session is already claimed"}
    }
    if current.ClaimDeadline != nil && s.now().After(*current.ClaimDeadline) {
        return nil, &ConflictError{Status: current.Status, Reason: "claim deadline has passed"}
    }
    if err := s.claims.Acquire(ctx, sessionID, speakerID, notes); err != nil {
        if errors.Is(err, ErrLostRace) {
            return s.reportLostRace(ctx, sessionID)
        }
        return nil, err
    }
    // The claim row is authoritative; a failed flag write is logged, not
    // rolled back.
    if err := s.sessions.SetClaimed(ctx, sessionID, true); err != nil {
        log.Printf("claim-service: is_claimed flag update failed for session %s: %v", sessionID, err)
    }
    detail, err := s.claims.Get(ctx, sessionID)
    if err != nil {
        return nil, err
    }
    s.publish(ctx, queue.ActionClaimed, detail, &speaker)
    return detail, nil
}

// reportLostRace re-reads the claim a losing writer raced against so
// the conflict response can name the winner.
func (s *Service) reportLostRace(ctx context.Context, sessionID string) (*model.ClaimDetail, error) {
    current, err := s.claims.Get(ctx, sessionID)
    if err != nil {
        return nil, err
    }
    return nil, &ConflictError{Status: current.Status, ClaimedBy: current.Speaker, Reason: "session is already claimed"}
}

// Update applies an allow-listed partial update to a claim. A status in
// the patch must be a legal forward transition from the current state,
// and claimed is never reachable this way: acquisition goes through
// Claim, which assigns the speaker.
func (s *Service) Update(ctx context.Context, sessionID string, p Patch) (*model.ClaimDetail, error) {
    if p.Empty() {
        return nil, ErrNoUpdatableFields
    }
    current, err := s.claims.Get(ctx, sessionID)
    if err != nil {
        return nil, err
    }
    if p.Status != nil {
        if !p.Status.Valid() {
            return nil, ErrInvalidStatus
        }
        if !CanAdvanceByUpdate(current.Status, *p.Status) {
            return nil, &ConflictError{Status: current.Status, ClaimedBy: current.Speaker, Reason: "illegal status transition"}
        }
    }
    if err := s.claims.Update(ctx, sessionID, p); err != nil {
        return nil, err
    }
    detail, err := s.claims.Get(ctx, sessionID)
    if err != nil {
        return nil, err
    }
    if p.Status != nil {
        action := queue.ActionConfirmed
        if *p.Status == model.ClaimCompleted {
            action = queue.ActionCompleted
        }
        s.publish(ctx, action, detail, detail.Speaker)
    }
    return detail, nil
}

// Release resets a claim to available. Releasing an already-available
// claim is a no-op success.
func (s *Service) Release(ctx context.Context, sessionID string) error {
    current, err := s.claims.Get(ctx, sessionID)
    if err != nil {
        return err
    }
    if !CanRelease(current.Status) {
        return nil
    }
    if err := s.claims.Release(ctx, sessionID); err != nil {
        return err
    }
    if err := s.sessions.SetClaimed(ctx, sessionID, false); err != nil {
        log.Printf("claim-service: is_claimed flag clear failed for session %s: %v", sessionID, err)
    }
    s.publish(ctx, queue.ActionReleased, current, current.Speaker)
    return nil
}

// BulkConfirm transitions every listed claim currently in claimed to
// confirmed; other statuses are silently skipped. It returns the number
// of claims affected.
func (s *Service) BulkConfirm(ctx context.Context, sessionIDs []string) (int64, error) {
    ids := dedupe(sessionIDs)
    if len(ids) == 0 {
        return 0, nil
    }
    n, err := s.claims.ConfirmClaimed(ctx, ids)
    if err != nil {
        return 0, err
    }
    if n > 0 && s.events != nil {
        ev := queue.ClaimEvent{
            EventID:    uuid.NewString(),
            Action:     queue.ActionBulkConfirm,
            Status:     string(model.ClaimConfirmed),
            OccurredAt: s.now().Format(time.RFC3339),
        }
        if err := s.events.PublishClaimEvent(ctx, ev); err != nil {
            log.Printf("claim-service: publish bulk confirm event failed: %v", err)
        }
    }
    return n, nil
}

// BulkReset unconditionally releases every listed claim and clears the
// corresponding is_claimed flags. Used for administrative rollback.
func (s *Service) BulkReset(ctx context.Context, sessionIDs []string) (int64, error) {
    ids := dedupe(sessionIDs)
    if len(ids) == 0 {
        return 0, nil
    }
    n, err := s.claims.ResetAll(ctx, ids)
    if err != nil {
        return 0, err
    }
    if err := s.sessions.ClearClaimed(ctx, ids); err != nil {
        log.Printf("claim-service: is_claimed bulk clear failed: %v", err)
    }
    if s.events != nil {
        ev := queue.ClaimEvent{
            EventID:    uuid.NewString(),
            Action:     queue.ActionBulkReset,
            Status:     string(model.ClaimAvailable),
            OccurredAt: s.now().Format(time.RFC3339),
        }
        if err := s.events.PublishClaimEvent(ctx, ev); err != nil {
            log.Printf("claim-service: publish bulk reset event failed: %v", err)
        }
    }
    return n, nil
}

func (s *Service) publish(ctx context.Context, action string, detail *model.ClaimDetail, speaker *model.Speaker) {
    if s.events == nil || detail == nil {
        return
    }
    ev := queue.ClaimEvent{
        EventID:      uuid.NewString(),
        Action:       action,
        SessionID:    detail.SessionID,
        SessionTitle: detail.SessionTitle,
        EventYear:    detail.EventYear,
        Status:       string(detail.Status),
        OccurredAt:   s.now().Format(time.RFC3339),
    }
    if speaker != nil {
        ev.SpeakerID = speaker.ID
        ev.SpeakerName = speaker.Name
    }
    if err := s.events.PublishClaimEvent(ctx, ev); err != nil {
        log.Printf("claim-service: publish %s event failed: %v", action, err)
    }
}

func dedupe(ids []string) []string {
    out := make([]string, 0, len(ids))
    seen := make(map[string]struct{}, len(ids))
    for _, id := range ids {
        if id == "" {
            continue
        }
        if _, ok := seen[id]; ok {
            continue
        }
        seen[id] = struct{}{}
        out = append(out, id)
    }
    return out
}
