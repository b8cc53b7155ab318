package player

import (
	"sync"

	"cliplink/logger"
)

// VisibilityThreshold is the viewport ratio at which a feed item starts
// playing. Below it the item pauses.
const VisibilityThreshold = 0.6

// Feed drives visibility-based autoplay for a vertical list of playable
// items: crossing the threshold plays an item, leaving the viewport pauses
// it. At most one item tends to be visible past the threshold at a time,
// but the feed does not enforce mutual exclusion beyond that.
type Feed struct {
	mu      sync.Mutex
	items   []Element
	playing []bool
	closed  bool
}

// NewFeed creates a feed over the given items.
func NewFeed(items []Element) *Feed {
	return &Feed{
		items:   items,
		playing: make([]bool, len(items)),
	}
}

// SetVisibility reports item i's current viewport visibility ratio in
// [0, 1]. Crossing the threshold toggles playback.
func (f *Feed) SetVisibility(i int, ratio float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed || i < 0 || i >= len(f.items) || f.items[i] == nil {
		return
	}

	visible := ratio >= VisibilityThreshold
	if visible == f.playing[i] {
		return
	}
	f.playing[i] = visible

	if visible {
		if err := f.items[i].Play(); err != nil {
			// Autoplay refusal; the item stays paused until a gesture.
			logger.Debug("feed autoplay refused",
				logger.Int("item", i),
				logger.ErrorField(err))
			f.playing[i] = false
		}
	} else {
		f.items[i].Pause()
	}
}

// Playing reports whether item i is currently feed-played.
func (f *Feed) Playing(i int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return i >= 0 && i < len(f.playing) && f.playing[i]
}

// Close pauses every playing item. Idempotent.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	for i, el := range f.items {
		if el != nil && f.playing[i] {
			el.Pause()
			f.playing[i] = false
		}
	}
}
