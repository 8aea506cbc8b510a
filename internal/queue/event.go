// Package queue defines message payloads exchanged over the message broker
// and the background consumer that turns them into audit records.
package queue

// Claim lifecycle actions carried in ClaimEvent.Action.
const (
    ActionClaimed     = "claimed"
    ActionConfirmed   = "confirmed"
    ActionCompleted   = "completed"
    ActionReleased    = "released"
    ActionBulkConfirm = "bulk_confirm"
    ActionBulkReset   = "bulk_reset"
)

// ClaimEvent is published whenever a session claim changes state. It
// contains enough information for downstream consumers to log, notify
// or feed dashboards without querying the primary database.
type ClaimEvent struct {
    EventID      string `json:"event_id"`
    Action       string `json:"action"`
    SessionID    string `json:"session_id"`
    SessionTitle string `json:"session_title,omitempty"`
    SpeakerID    string `json:"speaker_id,omitempty"`
    SpeakerName  string `json:"speaker_name,omitempty"`
    EventYear    int    `json:"event_year,omitempty"`
    Status       string `json:"claim_status"`
    OccurredAt   string `json:"occurred_at"`
}
