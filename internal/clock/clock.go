package clock

import (
	"sync"
	"time"
)

// Clock is injected wherever tickets are stamped (purchase_date, used_at,
// local ids) so tests can pin the time.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func Real() Clock { return realClock{} }

// Now is truncated to milliseconds and in UTC so stamps survive a JSON round trip.
func (realClock) Now() time.Time { return time.Now().UTC().Truncate(time.Millisecond) }

type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func Fake(initial time.Time) *FakeClock {
	return &FakeClock{now: initial}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
