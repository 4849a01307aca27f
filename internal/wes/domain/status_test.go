package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaskStatus_Guards(t *testing.T) {
	tests := []struct {
		status    TaskStatus
		terminal  bool
		canSubmit bool
		canUpdate bool
		canCancel bool
	}{
		{TaskPending, false, true, false, true},
		{TaskSubmitted, false, false, true, true},
		{TaskInProgress, false, false, true, true},
		{TaskCompleted, true, false, false, false},
		{TaskFailed, true, false, false, false},
		{TaskCanceled, true, false, false, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.True(t, tt.status.IsValid())
			assert.Equal(t, tt.terminal, tt.status.IsTerminal())
			assert.Equal(t, tt.canSubmit, tt.status.CanSubmit())
			assert.Equal(t, tt.canUpdate, tt.status.CanUpdateFromWes())
			assert.Equal(t, tt.canCancel, tt.status.CanCancel())
		})
	}
	assert.False(t, TaskStatus("LOST").IsValid())
}

func TestParseWesStatus(t *testing.T) {
	assert.Equal(t, TaskInProgress, ParseWesStatus("in_progress"))
	assert.Equal(t, TaskCompleted, ParseWesStatus(" COMPLETED "))
	assert.Equal(t, TaskFailed, ParseWesStatus("Failed"))
	assert.Equal(t, TaskCanceled, ParseWesStatus("CANCELLED"))
	assert.Equal(t, TaskCanceled, ParseWesStatus("canceled"))
	assert.Equal(t, TaskSubmitted, ParseWesStatus("PENDING"))
	assert.Equal(t, TaskSubmitted, ParseWesStatus("whatever"))
}
