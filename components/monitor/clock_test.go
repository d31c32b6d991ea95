package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClockTickPublishesDisplayTime(t *testing.T) {
	hook := &recordingHook{}
	fixed := time.Date(2025, 6, 21, 14, 5, 9, 0, time.UTC)
	clock := NewClock(hook, WithClockLocation(time.UTC), WithClockSource(func() time.Time { return fixed }))

	clock.tick()

	events := hook.snapshot()
	require.Len(t, events, 1)
	assert.Equal(t, EventClockTick, events[0].Type)
	assert.Equal(t, "2025-06-21 14:05:09", events[0].Payload["time"])
	assert.Empty(t, events[0].SessionID)
	assert.Equal(t, "2025-06-21 14:05:09", clock.Display())
}

func TestClockStartStopIdempotent(t *testing.T) {
	clock := NewClock(nil)
	assert.False(t, clock.Running())

	clock.Start()
	clock.Start()
	assert.True(t, clock.Running())

	clock.Stop()
	clock.Stop()
	assert.False(t, clock.Running())
}
