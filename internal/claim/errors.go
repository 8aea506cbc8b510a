package claim

import (
    "errors"
    "fmt"

    "github.com/niranjanbala/remoteinbound-claims/internal/model"
)

// Sentinel errors shared between the service and the persistence
// gateway. Handlers translate these into structured HTTP responses;
// anything else coming out of the gateway is a persistence failure and
// surfaces as a generic 500.

// ErrClaimNotFound is returned when no claim row exists for a session.
// Under the initialization invariant every session has one, but the
// service handles the absence defensively.
var ErrClaimNotFound = errors.New("session claim not found")

// ErrSpeakerNotFound is returned when the referenced speaker does not
// exist in the speaker directory.
var ErrSpeakerNotFound = errors.New("speaker not found")

// ErrLostRace is returned by the gateway when a conditional claim write
// affected zero rows: another request claimed the session between this
// caller's read and write. The service re-reads and reports a conflict.
var ErrLostRace = errors.New("claim write affected no rows")

// ErrNoUpdatableFields is returned when an update payload contains none
// of the allow-listed claim fields.
var ErrNoUpdatableFields = errors.New("no updatable fields in payload")

// ErrInvalidStatus is returned when an update names a claim status
// outside the closed enumeration.
var ErrInvalidStatus = errors.New("invalid claim status")

// ConflictError reports a claim operation rejected because of the
// session's current state. It carries enough detail for the UI to
// explain why the action failed rather than a bare error code.
type ConflictError struct {
    Status    model.ClaimStatus // current claim status
    ClaimedBy *model.Speaker    // current holder, when one exists
    Reason    string            // short human-readable cause
}

func (e *ConflictError) Error() string {
    if e.ClaimedBy != nil {
        return fmt.Sprintf("%s (status=%s, claimed by %s)", e.Reason, e.Status, e.ClaimedBy.Name)
    }
    return fmt.Sprintf("%s (status=%s)", e.Reason, e.Status)
}
