package player

import (
	"sync"
	"time"
)

// Clock abstracts wall-clock time so tests can simulate advancement
// deterministically.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the production clock.
var SystemClock Clock = systemClock{}

// DefaultTickInterval matches the ~100ms progress polling cadence.
const DefaultTickInterval = 100 * time.Millisecond

// Ticker drives a periodic task, normally a Player's Tick. Stop is
// idempotent.
type Ticker struct {
	interval time.Duration
	clock    Clock

	mu      sync.Mutex
	stop    chan struct{}
	stopped bool
}

// NewTicker creates a ticker. Zero interval defaults to DefaultTickInterval;
// a nil clock defaults to SystemClock.
func NewTicker(interval time.Duration, clock Clock) *Ticker {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	if clock == nil {
		clock = SystemClock
	}
	return &Ticker{
		interval: interval,
		clock:    clock,
		stop:     make(chan struct{}),
	}
}

// Start runs fn on the tick interval until Stop is called. The task runs on
// its own goroutine; fn receives the clock's current time.
func (t *Ticker) Start(fn func(now time.Time)) {
	go func() {
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()
		for {
			select {
			case <-t.stop:
				return
			case <-ticker.C:
				fn(t.clock.Now())
			}
		}
	}()
}

// Stop ends the periodic task. Safe to call more than once.
func (t *Ticker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	t.stopped = true
	close(t.stop)
}
