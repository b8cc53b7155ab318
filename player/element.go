package player

// Element is one underlying media handle (a video element, an audio element,
// or a multi-track engine exposed through the same surface). The engine only
// ever drives elements through this interface, so hosts can wire in whatever
// their platform provides.
//
// Play may fail when the host environment refuses unsolicited playback
// (autoplay policy). The engine treats that as "blocked pending user
// gesture", never as a fatal error.
type Element interface {
	Play() error
	Pause()
	Seek(seconds float64)
	CurrentTime() float64
	// Duration returns the media duration in seconds. Non-finite or
	// non-positive values mean "not loaded yet".
	Duration() float64
	SetVolume(volume float64)
	Paused() bool
}

// Waveform is a visual waveform renderer bound to a media element. Decode or
// render failures degrade to a "waveform unavailable" state; they never
// interrupt audio playback. Destroy must be idempotent.
type Waveform interface {
	Attach(el Element) error
	Destroy()
}
