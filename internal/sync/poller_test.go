package sync

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoller_TriggerDeliversManualPoll(t *testing.T) {
	p := New(time.Hour)
	cmd := p.Start()
	require.NotNil(t, cmd)
	t.Cleanup(p.Stop)

	assert.Nil(t, p.Start(), "second start is a no-op")

	p.Trigger()
	msg := cmd()
	poll, ok := msg.(PollMsg)
	require.True(t, ok)
	assert.True(t, poll.Manual)
}

func TestPoller_TicksOnInterval(t *testing.T) {
	p := New(10 * time.Millisecond)
	cmd := p.Start()
	t.Cleanup(p.Stop)

	poll, ok := cmd().(PollMsg)
	require.True(t, ok)
	assert.False(t, poll.Manual)
}

func TestPoller_StopReleasesWaiters(t *testing.T) {
	p := New(time.Hour)
	cmd := p.Start()
	p.Stop()
	p.Stop()

	assert.Nil(t, cmd())
}

func TestPoller_RestartAfterStop(t *testing.T) {
	p := New(time.Hour)
	first := p.Start()
	p.Stop()
	assert.Nil(t, first())

	cmd := p.Start()
	require.NotNil(t, cmd)
	p.Trigger()
	poll, ok := cmd().(PollMsg)
	require.True(t, ok, "restarted loop still delivers")
	assert.True(t, poll.Manual)

	assert.NotPanics(t, func() {
		p.Stop()
		p.Stop()
	})
}

func TestPoller_Status(t *testing.T) {
	p := New(0)
	fixed := time.Date(2025, 6, 11, 15, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	p.Begin()
	assert.Equal(t, SyncRunning, p.Status().State)

	p.Done(errors.New("down"))
	assert.Equal(t, SyncError, p.Status().State)
	assert.True(t, p.Status().LastSync.IsZero())

	p.Done(nil)
	assert.Equal(t, SyncIdle, p.Status().State)
	assert.Equal(t, fixed, p.Status().LastSync)
}
