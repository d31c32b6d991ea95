package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

const clockLayout = "2006-01-02 15:04:05"

// ClockOption customizes a Clock.
type ClockOption func(*Clock)

// WithClockLocation renders ticks in loc.
func WithClockLocation(loc *time.Location) ClockOption {
	return func(c *Clock) {
		if loc != nil {
			c.loc = loc
		}
	}
}

// WithClockSource replaces time.Now.
func WithClockSource(now func() time.Time) ClockOption {
	return func(c *Clock) {
		if now != nil {
			c.now = now
		}
	}
}

// Clock publishes the display time once per second. It never triggers fetches.
type Clock struct {
	hook EventHook
	now  func() time.Time
	loc  *time.Location

	mu      sync.Mutex
	cron    *cron.Cron
	current time.Time
}

// NewClock builds a stopped clock that publishes to hook.
func NewClock(hook EventHook, opts ...ClockOption) *Clock {
	c := &Clock{
		hook: normalizeEventHook(hook),
		now:  time.Now,
		loc:  time.Local,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.current = c.now().In(c.loc)
	return c
}

// Start schedules the one-second tick. Calling Start twice is a no-op.
func (c *Clock) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cron != nil {
		return
	}
	c.cron = cron.New()
	c.cron.Schedule(cron.Every(time.Second), cron.FuncJob(c.tick))
	c.cron.Start()
}

// Stop halts the tick and waits for a running tick to finish.
func (c *Clock) Stop() {
	c.mu.Lock()
	scheduler := c.cron
	c.cron = nil
	c.mu.Unlock()
	if scheduler == nil {
		return
	}
	<-scheduler.Stop().Done()
}

// Running reports whether the tick is scheduled.
func (c *Clock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cron != nil
}

// Now returns the last ticked time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Display formats the last ticked time.
func (c *Clock) Display() string {
	return c.Now().Format(clockLayout)
}

func (c *Clock) tick() {
	now := c.now().In(c.loc)
	c.mu.Lock()
	c.current = now
	c.mu.Unlock()
	_ = c.hook.Publish(context.Background(), Event{
		Type:    EventClockTick,
		Payload: map[string]any{"time": now.Format(clockLayout)},
		At:      now,
	})
}
