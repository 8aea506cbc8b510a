// Package claim holds the session-claim domain logic: the lifecycle
// state machine, the day-filter vocabulary and the claim service that
// orchestrates both against the persistence gateway.
package claim

import "github.com/niranjanbala/remoteinbound-claims/internal/model"

// transition is a single allowed forward edge in the claim lifecycle.
// Release is not part of this table: it is always permitted from any
// non-available state and is modeled by CanRelease.
type transition struct {
    From model.ClaimStatus
    To   model.ClaimStatus
}

var forwardTransitions = []transition{
    {From: model.ClaimAvailable, To: model.ClaimClaimed},
    {From: model.ClaimClaimed, To: model.ClaimConfirmed},
    {From: model.ClaimConfirmed, To: model.ClaimCompleted},
}

// CanAdvance reports whether the forward transition from -> to is legal.
func CanAdvance(from, to model.ClaimStatus) bool {
    for _, tr := range forwardTransitions {
        if tr.From == from && tr.To == to {
            return true
        }
    }
    return false
}

// CanAdvanceByUpdate reports whether the transition may be requested
// through the update operation. Entering claimed is excluded: it
// assigns a speaker and stamps claimed_at, so it is only reachable
// through the claim operation's conditional write.
func CanAdvanceByUpdate(from, to model.ClaimStatus) bool {
    return to != model.ClaimClaimed && CanAdvance(from, to)
}

// CanRelease reports whether a claim in the given state may be released
// back to available. Releasing an already-available claim is a no-op
// handled by the caller, not a forbidden transition.
func CanRelease(from model.ClaimStatus) bool {
    return from != model.ClaimAvailable
}

// Patch is the closed set of claim fields a caller may change through
// the update operation: anything else in an update payload is ignored,
// never written. Adding a column to SessionClaim does not make it
// caller-updatable unless it is added here too. Nil pointers mean
// "leave unchanged". Status transitions requested via Status trigger
// the matching timestamp as part of the same write.
type Patch struct {
    YoutubeStreamURL *string
    YoutubeVideoID   *string
    Notes            *string
    Status           *model.ClaimStatus
}

// Empty reports whether the patch contains no recognized field at all.
func (p Patch) Empty() bool {
    return p.YoutubeStreamURL == nil && p.YoutubeVideoID == nil && p.Notes == nil && p.Status == nil
}
