package clock

import (
	"sync"
	"time"

	"github.com/riskibarqy/contested-territory/internal/domain/accrual"
)

// Clock returns the current engine time. Successive reads never decrease.
type Clock interface {
	Now() accrual.Timestamp
}

// System reads the wall clock in whole seconds and holds its last reading if
// the wall clock steps backwards.
type System struct {
	mu   sync.Mutex
	last accrual.Timestamp
	now  func() time.Time
}

func NewSystem() *System {
	return &System{now: time.Now}
}

func (c *System) Now() accrual.Timestamp {
	c.mu.Lock()
	defer c.mu.Unlock()

	nowFn := c.now
	if nowFn == nil {
		nowFn = time.Now
	}

	var current accrual.Timestamp
	if unix := nowFn().Unix(); unix > 0 {
		current = accrual.Timestamp(unix)
	}
	if current > c.last {
		c.last = current
	}
	return c.last
}

// Manual is a settable clock for tests and replays.
type Manual struct {
	mu  sync.Mutex
	now accrual.Timestamp
}

func NewManual(start accrual.Timestamp) *Manual {
	return &Manual{now: start}
}

func (c *Manual) Now() accrual.Timestamp {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to ts. Earlier values are ignored so the clock stays monotonic.
func (c *Manual) Set(ts accrual.Timestamp) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ts > c.now {
		c.now = ts
	}
}

func (c *Manual) Advance(d accrual.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += accrual.Timestamp(d)
}
