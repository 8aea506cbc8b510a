package claim

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/niranjanbala/remoteinbound-claims/internal/model"
)

func TestCanAdvance(t *testing.T) {
	cases := []struct {
		name string
		from model.ClaimStatus
		to   model.ClaimStatus
		want bool
	}{
		{"available to claimed", model.ClaimAvailable, model.ClaimClaimed, true},
		{"claimed to confirmed", model.ClaimClaimed, model.ClaimConfirmed, true},
		{"confirmed to completed", model.ClaimConfirmed, model.ClaimCompleted, true},
		{"available to confirmed skips claimed", model.ClaimAvailable, model.ClaimConfirmed, false},
		{"claimed to completed skips confirmed", model.ClaimClaimed, model.ClaimCompleted, false},
		{"completed is terminal", model.ClaimCompleted, model.ClaimClaimed, false},
		{"no backwards confirm", model.ClaimConfirmed, model.ClaimClaimed, false},
		{"no self transition", model.ClaimClaimed, model.ClaimClaimed, false},
		{"release is not a forward edge", model.ClaimClaimed, model.ClaimAvailable, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanAdvance(tc.from, tc.to))
		})
	}
}

func TestCanAdvanceByUpdate(t *testing.T) {
	// Entering claimed assigns a speaker, so the update operation may
	// never request it; only the two later forward edges are reachable.
	assert.False(t, CanAdvanceByUpdate(model.ClaimAvailable, model.ClaimClaimed))
	assert.True(t, CanAdvanceByUpdate(model.ClaimClaimed, model.ClaimConfirmed))
	assert.True(t, CanAdvanceByUpdate(model.ClaimConfirmed, model.ClaimCompleted))
	assert.False(t, CanAdvanceByUpdate(model.ClaimAvailable, model.ClaimConfirmed))
	assert.False(t, CanAdvanceByUpdate(model.ClaimClaimed, model.ClaimCompleted))
}

func TestCanRelease(t *testing.T) {
	assert.False(t, CanRelease(model.ClaimAvailable))
	assert.True(t, CanRelease(model.ClaimClaimed))
	assert.True(t, CanRelease(model.ClaimConfirmed))
	assert.True(t, CanRelease(model.ClaimCompleted))
}

func TestPatchEmpty(t *testing.T) {
	assert.True(t, Patch{}.Empty())

	notes := "bring adapters"
	assert.False(t, Patch{Notes: &notes}.Empty())

	st := model.ClaimConfirmed
	assert.False(t, Patch{Status: &st}.Empty())
}
