package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/niranjanbala/remoteinbound-claims/internal/model"
)

// SessionRepo writes the denormalized is_claimed flag and the
// claim-window fields on sessions. The claim row owns the lifecycle;
// these columns are a read-optimization cache of it.
type SessionRepo struct{ db *sql.DB }

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{db: db} }

// SetClaimed sets the is_claimed flag for one session.
func (r *SessionRepo) SetClaimed(ctx context.Context, sessionID string, claimed bool) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE sessions SET is_claimed = ? WHERE id = ?", claimed, sessionID)
	return err
}

// ClearClaimed resets the is_claimed flag for all listed sessions.
func (r *SessionRepo) ClearClaimed(ctx context.Context, sessionIDs []string) error {
	if len(sessionIDs) == 0 {
		return nil
	}
	placeholders, args := inArgs(sessionIDs)
	_, err := r.db.ExecContext(ctx,
		"UPDATE sessions SET is_claimed = 0 WHERE id IN ("+placeholders+")", args...)
	return err
}

// ListForSeeding returns every session with its id and original speaker
// list populated, ordered by id so the initialization utility can chunk
// deterministically. Only the columns the seeding needs are selected.
func (r *SessionRepo) ListForSeeding(ctx context.Context) ([]model.Session, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, speaker_ids FROM sessions ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Session, 0)
	for rows.Next() {
		var src model.Session
		var ids sql.NullString
		if err := rows.Scan(&src.ID, &ids); err != nil {
			return nil, err
		}
		src.SpeakerIDs = splitIDs(ids.String)
		out = append(out, src)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// StampClaimWindow stamps event_year, youtube_enabled and the claim
// deadline on the listed sessions, and resets is_claimed only where the
// claim row is still available, so a re-run of the migration can never
// undo a live claim.
func (r *SessionRepo) StampClaimWindow(ctx context.Context, sessionIDs []string, eventYear int, deadline time.Time) error {
	if len(sessionIDs) == 0 {
		return nil
	}
	placeholders, args := inArgs(sessionIDs)
	query := `UPDATE sessions s
	          JOIN session_claims c ON c.session_id = s.id
	          SET s.event_year = ?, s.youtube_enabled = 1, s.claim_deadline = ?,
	              s.is_claimed = IF(c.claim_status = 'available', 0, s.is_claimed)
	          WHERE s.id IN (` + placeholders + `)`
	all := make([]interface{}, 0, len(args)+2)
	all = append(all, eventYear, deadline.UTC().Format("2006-01-02 15:04:05"))
	all = append(all, args...)
	_, err := r.db.ExecContext(ctx, query, all...)
	return err
}
