package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/niranjanbala/remoteinbound-claims/internal/claim"
	"github.com/niranjanbala/remoteinbound-claims/internal/model"
)

// SpeakerRepo reads speaker public profiles. Speakers are owned by an
// external directory; claims only reference them by id.
type SpeakerRepo struct{ db *sql.DB }

func NewSpeakerRepo(db *sql.DB) *SpeakerRepo { return &SpeakerRepo{db: db} }

// GetByID fetches a speaker's public profile. It returns
// claim.ErrSpeakerNotFound when the id is unknown.
func (r *SpeakerRepo) GetByID(ctx context.Context, id string) (model.Speaker, error) {
	var sp model.Speaker
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, company FROM speakers WHERE id = ? LIMIT 1",
		id).Scan(&sp.ID, &sp.Name, &sp.Company)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Speaker{}, claim.ErrSpeakerNotFound
		}
		return model.Speaker{}, err
	}
	return sp, nil
}
