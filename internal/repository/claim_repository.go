package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"
    "time"

    "github.com/niranjanbala/remoteinbound-claims/internal/claim"
    "github.com/niranjanbala/remoteinbound-claims/internal/model"
)

// ClaimRepo is the MySQL persistence gateway for session_claims. The
// claim-acquisition write is a conditional UPDATE keyed on session_id
// that only succeeds while the row is still available; the losing side
// of a race sees zero affected rows, never a silent overwrite.
type ClaimRepo struct {
    db *sql.DB
}

// NewClaimRepo returns a new ClaimRepo bound to the given database.
func NewClaimRepo(db *sql.DB) *ClaimRepo { return &ClaimRepo{db: db} }

const claimDetailSelect = `SELECT c.session_id, c.original_speaker_ids, c.claim_status,
              c.new_speaker_id, c.claimed_at, c.confirmed_at, c.completed_at,
              c.youtube_stream_url, c.youtube_video_id, c.notes,
              c.created_at, c.updated_at,
              sp.id, sp.name, sp.company,
              s.title, s.start_time, s.room, s.event_year, s.claim_deadline
       FROM session_claims c
       JOIN sessions s ON s.id = c.session_id
       LEFT JOIN speakers sp ON sp.id = c.new_speaker_id`

// Get returns the claim for a session joined with the claiming speaker
// and session display fields. It returns claim.ErrClaimNotFound when no
// claim row exists.
func (r *ClaimRepo) Get(ctx context.Context, sessionID string) (*model.ClaimDetail, error) {
    row := r.db.QueryRowContext(ctx, claimDetailSelect+` WHERE c.session_id = ?`, sessionID)
    det, err := scanClaimDetail(row)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, claim.ErrClaimNotFound
        }
        return nil, err
    }
    return det, nil
}

// List returns claims for an event year, optionally narrowed to one
// holder and to session start times within a UTC day window. Rows are
// ordered by session start time for deterministic output.
func (r *ClaimRepo) List(ctx context.Context, f claim.ListFilter) ([]model.ClaimDetail, error) {
    query := claimDetailSelect + ` WHERE s.event_year = ?`
    args := []interface{}{f.EventYear}
    if f.SpeakerID != nil {
        query += ` AND c.new_speaker_id = ?`
        args = append(args, *f.SpeakerID)
    }
    if f.DayStart != nil && f.DayEnd != nil {
        query += ` AND s.start_time >= ? AND s.start_time < ?`
        args = append(args, f.DayStart.UTC().Format("2006-01-02 15:04:05"), f.DayEnd.UTC().Format("2006-01-02 15:04:05"))
    }
    query += ` ORDER BY s.start_time, c.session_id`
    rows, err := r.db.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    details := make([]model.ClaimDetail, 0)
    for rows.Next() {
        det, err := scanClaimDetail(rows)
        if err != nil {
            return nil, err
        }
        details = append(details, *det)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return details, nil
}

// Acquire claims an available session for speakerID. The WHERE clause
// carries the availability precondition, so a concurrent competing
// claim cannot clobber the winner; the loser affects zero rows and
// receives claim.ErrLostRace.
func (r *ClaimRepo) Acquire(ctx context.Context, sessionID, speakerID string, notes *string) error {
    const q = `UPDATE session_claims
               SET claim_status = 'claimed', new_speaker_id = ?, claimed_at = UTC_TIMESTAMP(), notes = ?
               WHERE session_id = ? AND claim_status = 'available'`
    res, err := r.db.ExecContext(ctx, q, speakerID, notes, sessionID)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return claim.ErrLostRace
    }
    return nil
}

// Update applies an allow-listed patch. When the patch advances the
// status, the matching timestamp is stamped in the same statement so a
// partial update can never leave a status without its timestamp.
func (r *ClaimRepo) Update(ctx context.Context, sessionID string, p claim.Patch) error {
    sets := make([]string, 0, 5)
    args := make([]interface{}, 0, 6)
    if p.YoutubeStreamURL != nil {
        sets = append(sets, "youtube_stream_url = ?")
        args = append(args, *p.YoutubeStreamURL)
    }
    if p.YoutubeVideoID != nil {
        sets = append(sets, "youtube_video_id = ?")
        args = append(args, *p.YoutubeVideoID)
    }
    if p.Notes != nil {
        sets = append(sets, "notes = ?")
        args = append(args, *p.Notes)
    }
    if p.Status != nil {
        sets = append(sets, "claim_status = ?")
        args = append(args, string(*p.Status))
        switch *p.Status {
        case model.ClaimConfirmed:
            sets = append(sets, "confirmed_at = UTC_TIMESTAMP()")
        case model.ClaimCompleted:
            sets = append(sets, "completed_at = UTC_TIMESTAMP()")
        }
    }
    if len(sets) == 0 {
        return claim.ErrNoUpdatableFields
    }
    query := `UPDATE session_claims SET ` + strings.Join(sets, ", ") + ` WHERE session_id = ?`
    args = append(args, sessionID)
    _, err := r.db.ExecContext(ctx, query, args...)
    return err
}

// releaseSet clears every claim-specific field back to the available
// baseline. Shared between single release and bulk reset.
const releaseSet = `SET claim_status = 'available', new_speaker_id = NULL,
                    claimed_at = NULL, confirmed_at = NULL, completed_at = NULL,
                    youtube_stream_url = NULL, youtube_video_id = NULL, notes = NULL`

// Release resets one claim to available.
func (r *ClaimRepo) Release(ctx context.Context, sessionID string) error {
    _, err := r.db.ExecContext(ctx, `UPDATE session_claims `+releaseSet+` WHERE session_id = ?`, sessionID)
    return err
}

// ConfirmClaimed moves every listed claim currently in claimed to
// confirmed, stamping confirmed_at. The status predicate makes the
// operation selective: ids in any other state are untouched and
// excluded from the affected count.
func (r *ClaimRepo) ConfirmClaimed(ctx context.Context, sessionIDs []string) (int64, error) {
    if len(sessionIDs) == 0 {
        return 0, nil
    }
    placeholders, args := inArgs(sessionIDs)
    query := `UPDATE session_claims
              SET claim_status = 'confirmed', confirmed_at = UTC_TIMESTAMP()
              WHERE session_id IN (` + placeholders + `) AND claim_status = 'claimed'`
    res, err := r.db.ExecContext(ctx, query, args...)
    if err != nil {
        return 0, err
    }
    return res.RowsAffected()
}

// ResetAll releases every listed claim regardless of current status.
func (r *ClaimRepo) ResetAll(ctx context.Context, sessionIDs []string) (int64, error) {
    if len(sessionIDs) == 0 {
        return 0, nil
    }
    placeholders, args := inArgs(sessionIDs)
    query := `UPDATE session_claims ` + releaseSet + ` WHERE session_id IN (` + placeholders + `)`
    res, err := r.db.ExecContext(ctx, query, args...)
    if err != nil {
        return 0, err
    }
    return res.RowsAffected()
}

// ClaimSeed is one row for SeedAvailable: a session and the snapshot of
// its original speaker list taken at initialization time.
type ClaimSeed struct {
    SessionID          string
    OriginalSpeakerIDs []string
}

// SeedAvailable inserts one available claim row per seed using
// insert-if-absent semantics (INSERT IGNORE against the session_id
// primary key), so re-running the migration never duplicates rows or
// clobbers a claim that has progressed past available. It returns the
// number of rows actually inserted.
func (r *ClaimRepo) SeedAvailable(ctx context.Context, seeds []ClaimSeed) (int64, error) {
    if len(seeds) == 0 {
        return 0, nil
    }
    query := `INSERT IGNORE INTO session_claims (session_id, original_speaker_ids, claim_status) VALUES `
    args := make([]interface{}, 0, len(seeds)*3)
    for i, s := range seeds {
        if i > 0 {
            query += ","
        }
        query += "(?, ?, 'available')"
        args = append(args, s.SessionID, strings.Join(s.OriginalSpeakerIDs, ","))
    }
    res, err := r.db.ExecContext(ctx, query, args...)
    if err != nil {
        return 0, err
    }
    return res.RowsAffected()
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
    Scan(dest ...interface{}) error
}

func scanClaimDetail(rs rowScanner) (*model.ClaimDetail, error) {
    var det model.ClaimDetail
    var originalIDs string
    var status string
    var newSpeakerID, ytURL, ytVideo, notes sql.NullString
    var claimedAt, confirmedAt, completedAt, startTime, deadline sql.NullTime
    var spID, spName, spCompany sql.NullString
    if err := rs.Scan(
        &det.SessionID, &originalIDs, &status,
        &newSpeakerID, &claimedAt, &confirmedAt, &completedAt,
        &ytURL, &ytVideo, &notes,
        &det.CreatedAt, &det.UpdatedAt,
        &spID, &spName, &spCompany,
        &det.SessionTitle, &startTime, &det.Room, &det.EventYear, &deadline,
    ); err != nil {
        return nil, err
    }
    det.OriginalSpeakerIDs = splitIDs(originalIDs)
    det.Status = model.ClaimStatus(status)
    det.NewSpeakerID = nullStr(newSpeakerID)
    det.ClaimedAt = nullTime(claimedAt)
    det.ConfirmedAt = nullTime(confirmedAt)
    det.CompletedAt = nullTime(completedAt)
    det.YoutubeStreamURL = nullStr(ytURL)
    det.YoutubeVideoID = nullStr(ytVideo)
    det.Notes = nullStr(notes)
    det.StartTime = nullTime(startTime)
    det.ClaimDeadline = nullTime(deadline)
    if spID.Valid {
        det.Speaker = &model.Speaker{ID: spID.String, Name: spName.String, Company: spCompany.String}
    }
    return &det, nil
}

// inArgs builds an IN-clause placeholder list and its argument slice.
func inArgs(ids []string) (string, []interface{}) {
    placeholders := make([]string, 0, len(ids))
    args := make([]interface{}, 0, len(ids))
    for _, id := range ids {
        placeholders = append(placeholders, "?")
        args = append(args, id)
    }
    return strings.Join(placeholders, ","), args
}

// splitIDs decodes a comma-separated id column into a slice. Empty
// columns decode to an empty slice, not [""].
func splitIDs(s string) []string {
    s = strings.TrimSpace(s)
    if s == "" {
        return []string{}
    }
    parts := strings.Split(s, ",")
    out := make([]string, 0, len(parts))
    for _, p := range parts {
        if p = strings.TrimSpace(p); p != "" {
            out = append(out, p)
        }
    }
    return out
}

func nullStr(v sql.NullString) *string {
    if !v.Valid {
        return nil
    }
    s := v.String
    return &s
}

func nullTime(v sql.NullTime) *time.Time {
    if !v.Valid {
        return nil
    }
    t := v.Time.UTC()
    return &t
}
