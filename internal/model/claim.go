package model

import "time"

// ClaimStatus enumerates the lifecycle states of a session claim.
// The forward order is available -> claimed -> confirmed -> completed;
// release returns any non-available claim to available.
type ClaimStatus string

const (
    ClaimAvailable ClaimStatus = "available"
    ClaimClaimed   ClaimStatus = "claimed"
    ClaimConfirmed ClaimStatus = "confirmed"
    ClaimCompleted ClaimStatus = "completed"
)

// Valid reports whether s is one of the known claim statuses.
func (s ClaimStatus) Valid() bool {
    switch s {
    case ClaimAvailable, ClaimClaimed, ClaimConfirmed, ClaimCompleted:
        return true
    }
    return false
}

// SessionClaim is the sole owner of claim lifecycle state for a session.
// There is exactly one row per session (unique key on session_id); the
// denormalized sessions.is_claimed flag is a cache of Status != available.
//
// Fields:
//  SessionID          – unique reference to the session being claimed.
//  OriginalSpeakerIDs – speaker list snapshot taken at initialization;
//                       immutable thereafter.
//  Status             – current lifecycle state.
//  NewSpeakerID       – claiming speaker; non-nil exactly when Status is
//                       not available.
//  ClaimedAt/ConfirmedAt/CompletedAt – set once when the corresponding
//                       state is entered, cleared only by release.
//  YoutubeStreamURL   – stream URL supplied by the claiming speaker.
//  YoutubeVideoID     – recording reference supplied after the talk.
//  Notes              – free text from the claiming speaker.
type SessionClaim struct {
    SessionID          string       `json:"session_id"`
    OriginalSpeakerIDs []string     `json:"original_speaker_ids"`
    Status             ClaimStatus  `json:"claim_status"`
    NewSpeakerID       *string      `json:"new_speaker_id"`
    ClaimedAt          *time.Time   `json:"claimed_at"`
    ConfirmedAt        *time.Time   `json:"confirmed_at"`
    CompletedAt        *time.Time   `json:"completed_at"`
    YoutubeStreamURL   *string      `json:"youtube_stream_url"`
    YoutubeVideoID     *string      `json:"youtube_video_id"`
    Notes              *string      `json:"notes"`
    CreatedAt          time.Time    `json:"created_at"`
    UpdatedAt          time.Time    `json:"updated_at"`
}

// ClaimDetail joins a claim with the claiming speaker's public profile
// and enough session fields for listings and dashboards.
type ClaimDetail struct {
    SessionClaim
    Speaker       *Speaker   `json:"speaker,omitempty"`
    SessionTitle  string     `json:"session_title"`
    StartTime     *time.Time `json:"start_time"`
    Room          string     `json:"room"`
    EventYear     int        `json:"event_year"`
    ClaimDeadline *time.Time `json:"claim_deadline,omitempty"`
}

// ClaimSummary carries per-status counts for dashboard tallies.
type ClaimSummary struct {
    Available int `json:"available"`
    Claimed   int `json:"claimed"`
    Confirmed int `json:"confirmed"`
    Completed int `json:"completed"`
}

// Add increments the counter for status s.
func (cs *ClaimSummary) Add(s ClaimStatus) {
    switch s {
    case ClaimAvailable:
        cs.Available++
    case ClaimClaimed:
        cs.Claimed++
    case ClaimConfirmed:
        cs.Confirmed++
    case ClaimCompleted:
        cs.Completed++
    }
}
