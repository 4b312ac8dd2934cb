package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRole_IsValid(t *testing.T) {
	assert.True(t, RoleSystem.IsValid())
	assert.True(t, RoleUser.IsValid())
	assert.True(t, RoleAssistant.IsValid())
	assert.False(t, Role("tool").IsValid())
	assert.False(t, Role("").IsValid())
}

func TestIngestState_IsTerminal(t *testing.T) {
	tests := []struct {
		state    IngestState
		terminal bool
	}{
		{IngestStatePending, false},
		{IngestStateFetched, false},
		{IngestStateChunked, false},
		{IngestStateEmbedded, false},
		{IngestStateUpserted, false},
		{IngestStateDone, true},
		{IngestStateFailed, true},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			assert.Equal(t, tt.terminal, tt.state.IsTerminal())
		})
	}
}

func TestIngestStatus_Ready(t *testing.T) {
	assert.True(t, IngestStatus{State: IngestStateDone}.Ready())
	assert.False(t, IngestStatus{State: IngestStateUpserted}.Ready())
}
