package pipeline

import (
	"testing"
	"time"

	apperrors "github.com/Liad-hossain/test-voice-export/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_CanTransition(t *testing.T) {
	tests := []struct {
		from State
		to   State
		want bool
	}{
		{StateInit, StateStagingDirReady, true},
		{StateInit, StateJobSelected, false},
		{StateStagingDirReady, StateDone, true},
		{StateStagingDirReady, StateJobSelected, true},
		{StateJobSelected, StateArchiveFetched, true},
		{StateJobSelected, StateDone, false},
		{StateArchiveFetched, StateArchiveExtracted, true},
		{StateArchiveFetched, StateJobSelected, false},
		{StateArchiveExtracted, StateDone, true},
		{StateArchiveExtracted, StateMemberNamed, true},
		{StateMemberNamed, StateMemberPublished, true},
		{StateMemberNamed, StateMemberNamed, false},
		{StateMemberPublished, StateMemberNamed, true},
		{StateMemberPublished, StateDone, true},
		{StateMemberPublished, StateArchiveFetched, false},
		{StateArchiveFetched, StateFailed, true},
		{StateDone, StateFailed, false},
		{StateFailed, StateInit, false},
		{StateDone, StateInit, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.from.CanTransition(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestState_EveryNonTerminalStateCanFail(t *testing.T) {
	for s := range transitions {
		assert.True(t, s.CanTransition(StateFailed), "%s -> FAILED", s)
	}
}

func TestMachine_AdvanceRecordsHistoryAndDurations(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := base
	now := func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}

	type step struct {
		from, to State
		spent    time.Duration
	}
	var steps []step
	m := newMachine(now, func(from, to State, spent time.Duration) {
		steps = append(steps, step{from, to, spent})
	})

	require.NoError(t, m.advance(StateStagingDirReady))
	require.NoError(t, m.advance(StateDone))
	assert.Equal(t, StateDone, m.current())
	assert.Equal(t, []State{StateInit, StateStagingDirReady, StateDone}, m.trail())
	assert.Equal(t, []step{
		{StateInit, StateStagingDirReady, time.Second},
		{StateStagingDirReady, StateDone, time.Second},
	}, steps)

	err := m.advance(StateFailed)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInternal, apperrors.GetCode(err))
	assert.Equal(t, StateDone, m.current())
}
