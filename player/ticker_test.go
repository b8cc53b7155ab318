package player

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTicker_StartAndStop(t *testing.T) {
	ticker := NewTicker(time.Millisecond, nil)

	var ticks int64
	ticker.Start(func(now time.Time) {
		atomic.AddInt64(&ticks, 1)
	})

	assert.Eventually(t, func() bool {
		return atomic.LoadInt64(&ticks) > 0
	}, time.Second, time.Millisecond)

	ticker.Stop()
	ticker.Stop() // idempotent

	stopped := atomic.LoadInt64(&ticks)
	time.Sleep(20 * time.Millisecond)
	assert.LessOrEqual(t, atomic.LoadInt64(&ticks)-stopped, int64(1))
}

func TestTicker_Defaults(t *testing.T) {
	ticker := NewTicker(0, nil)
	assert.Equal(t, DefaultTickInterval, ticker.interval)
	assert.Equal(t, SystemClock, ticker.clock)
	ticker.Stop()
}
