package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusID(t *testing.T) {
	assert.Equal(t, "u1_fund-your-wallet", StatusID("u1", "fund-your-wallet"))
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(MissionStateAvailable, MissionStateInProgress))
	assert.True(t, CanTransition(MissionStateInProgress, MissionStateCompleted))

	// completed is terminal, and nothing skips in-progress
	assert.False(t, CanTransition(MissionStateAvailable, MissionStateCompleted))
	assert.False(t, CanTransition(MissionStateCompleted, MissionStateAvailable))
	assert.False(t, CanTransition(MissionStateCompleted, MissionStateInProgress))
	assert.False(t, CanTransition(MissionStateLocked, MissionStateInProgress))
	assert.False(t, CanTransition(MissionStateInProgress, MissionStateAvailable))
}
