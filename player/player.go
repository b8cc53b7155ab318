package player

import (
	"math"
	"sync"
	"time"

	"cliplink/logger"
	"cliplink/model"
)

// Status is the three-state playback status. Blocked covers the case where
// play was requested but the host environment refused to start without a
// user gesture.
type Status int

const (
	StatusStopped Status = iota
	StatusPlaying
	StatusBlocked
)

const (
	// defaultLoopEpsilon is how close to the end of the stream the loop
	// latch treats as "reached the boundary".
	defaultLoopEpsilon = 0.1
	// loopRearmThreshold: once time falls back below this after a loop
	// reset, the latch re-arms for the next pass.
	loopRearmThreshold = 0.25
	// driftTolerance is the secondary-track resync threshold. Smaller
	// values fight the host's own buffering adjustments.
	driftTolerance = 0.2
	// defaultBlockedGrace is how long after a play request the primary may
	// stay paused before the engine reports StatusBlocked.
	defaultBlockedGrace = 500 * time.Millisecond
)

// Config wires a Player to its tracks and media handles. TrackElements and
// Waveforms are aligned with Tracks; entries may be nil.
type Config struct {
	Tracks []model.Track

	// Primary is the timing authority: the video element for single-video
	// sessions, the mixdown audio element when a server-rendered mix
	// exists, or the multi-track engine's clock otherwise.
	Primary Element

	// Secondary is an optional visual track kept in lockstep with the
	// primary clock (e.g. a muted video accompanying an audio mix).
	Secondary Element

	TrackElements []Element
	Waveforms     []Waveform

	LoopEnabled  bool
	LoopEpsilon  float64
	BlockedGrace time.Duration
}

// Player coordinates one primary clock source against zero or more auxiliary
// media elements, waveforms, and a progress indicator. All mutations are
// applied in the order issued; there is no cross-track atomicity.
type Player struct {
	mu sync.Mutex

	tracks    []model.Track
	primary   Element
	secondary Element
	elements  []Element
	waveforms []Waveform

	// waveformDown marks tracks whose waveform failed to attach; the UI
	// shows "waveform unavailable" for them while audio keeps playing.
	waveformDown []bool

	globalVolume float64
	globalMuted  bool

	status     Status
	playIntent bool
	intentAt   time.Time

	loopEnabled bool
	loopEpsilon float64
	loopArmed   bool

	blockedGrace time.Duration
	closed       bool
}

// New creates a player and attaches waveforms for audio-classified tracks.
func New(cfg Config) *Player {
	p := &Player{
		tracks:       cfg.Tracks,
		primary:      cfg.Primary,
		secondary:    cfg.Secondary,
		elements:     cfg.TrackElements,
		waveforms:    cfg.Waveforms,
		waveformDown: make([]bool, len(cfg.Tracks)),
		globalVolume: 1,
		loopEnabled:  cfg.LoopEnabled,
		loopEpsilon:  cfg.LoopEpsilon,
		blockedGrace: cfg.BlockedGrace,
	}
	if p.loopEpsilon <= 0 {
		p.loopEpsilon = defaultLoopEpsilon
	}
	if p.blockedGrace <= 0 {
		p.blockedGrace = defaultBlockedGrace
	}

	p.attachWaveforms()
	p.applyGains()
	return p
}

// attachWaveforms binds each audio track's waveform to its media element.
// Attach failure degrades that track to "waveform unavailable".
func (p *Player) attachWaveforms() {
	for i := range p.tracks {
		if i >= len(p.waveforms) || p.waveforms[i] == nil {
			continue
		}
		if model.ClassifyMedia(p.tracks[i]) != model.MediaAudio {
			continue
		}
		el := p.elementAt(i)
		if el == nil {
			continue
		}
		if err := p.waveforms[i].Attach(el); err != nil {
			p.waveformDown[i] = true
			logger.Warn("waveform attach failed",
				logger.Int("track", i),
				logger.ErrorField(err))
		}
	}
}

func (p *Player) elementAt(i int) Element {
	if i < len(p.elements) {
		return p.elements[i]
	}
	return nil
}

// WaveformAvailable reports whether track i has a working waveform.
func (p *Player) WaveformAvailable(i int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return i < len(p.waveformDown) && !p.waveformDown[i]
}

// Status returns the current playback status.
func (p *Player) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// duration returns the primary clock's duration, or 0 when unknown.
func (p *Player) duration() float64 {
	d := p.primary.Duration()
	if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
		return 0
	}
	return d
}

// SeekTo clamps the target to [0, duration] and applies it to the clock
// source, dragging the secondary visual track along when it drifted.
func (p *Player) SeekTo(seconds float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}

	if seconds < 0 {
		seconds = 0
	}
	if d := p.duration(); d > 0 && seconds > d {
		seconds = d
	}

	p.primary.Seek(seconds)
	p.resyncSecondary(seconds)
}

// SeekBy moves the clock relative to the current position.
func (p *Player) SeekBy(delta float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}

	target := p.primary.CurrentTime() + delta
	if target < 0 {
		target = 0
	}
	if d := p.duration(); d > 0 && target > d {
		target = d
	}
	p.primary.Seek(target)
	p.resyncSecondary(target)
}

// resyncSecondary realigns the visual track only when drift exceeds the
// tolerance, to avoid fighting the host's own buffering adjustments.
// Caller holds the lock.
func (p *Player) resyncSecondary(primaryTime float64) {
	if p.secondary == nil {
		return
	}
	if math.Abs(p.secondary.CurrentTime()-primaryTime) > driftTolerance {
		p.secondary.Seek(primaryTime)
	}
}

// TogglePlayback flips between playing and paused. From StatusBlocked it
// retries the play request, which succeeds once a user gesture authorized
// playback.
func (p *Player) TogglePlayback() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}

	if p.status == StatusPlaying {
		p.pauseAll()
		p.status = StatusStopped
		p.playIntent = false
		return
	}

	p.requestPlay(time.Now())
}

// requestPlay issues play to the primary and all secondaries and records the
// play intent. The intent is distinct from actual playing state: a host may
// silently refuse, which Tick detects after the grace window. Caller holds
// the lock.
func (p *Player) requestPlay(now time.Time) {
	p.playIntent = true
	p.intentAt = now
	p.status = StatusPlaying

	if err := p.primary.Play(); err != nil {
		// Refusal is not fatal; Tick confirms and flips to StatusBlocked.
		logger.Debug("primary play refused", logger.ErrorField(err))
	}
	if p.secondary != nil {
		if err := p.secondary.Play(); err != nil {
			logger.Debug("secondary play refused", logger.ErrorField(err))
		}
	}
	for _, el := range p.elements {
		if el != nil && el != p.primary {
			if err := el.Play(); err != nil {
				logger.Debug("track play refused", logger.ErrorField(err))
			}
		}
	}
}

// pauseAll propagates pause to every element. Caller holds the lock.
func (p *Player) pauseAll() {
	p.primary.Pause()
	if p.secondary != nil {
		p.secondary.Pause()
	}
	for _, el := range p.elements {
		if el != nil && el != p.primary {
			el.Pause()
		}
	}
}

// SetLoop enables or disables loop-at-boundary playback.
func (p *Player) SetLoop(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loopEnabled = enabled
	p.loopArmed = false
}

// SetVolume sets the global gain and reapplies every track's effective gain.
func (p *Player) SetVolume(volume float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.globalVolume = clamp01(volume)
	p.applyGains()
}

// SetMuted sets the global mute and reapplies every track's effective gain.
func (p *Player) SetMuted(muted bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.globalMuted = muted
	p.applyGains()
}

// SetTrackVolume sets one track's gain. Setting a volume unmutes the track,
// matching the studio mixer controls.
func (p *Player) SetTrackVolume(i int, volume float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if i < 0 || i >= len(p.tracks) {
		return
	}
	p.tracks[i].Volume = clamp01(volume)
	p.tracks[i].Muted = false
	p.applyGains()
}

// ToggleTrackMute flips one track's mute flag.
func (p *Player) ToggleTrackMute(i int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if i < 0 || i >= len(p.tracks) {
		return
	}
	p.tracks[i].Muted = !p.tracks[i].Muted
	p.applyGains()
}

// EffectiveGain returns track i's gain after mute flags and the global
// volume are applied.
func (p *Player) EffectiveGain(i int) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if i < 0 || i >= len(p.tracks) {
		return 0
	}
	return p.effectiveGain(i)
}

func (p *Player) effectiveGain(i int) float64 {
	t := p.tracks[i]
	if p.globalMuted || t.Muted {
		return 0
	}
	return t.Volume * p.globalVolume
}

// applyGains pushes every track's effective gain to its element, in track
// order. Caller holds the lock.
func (p *Player) applyGains() {
	for i := range p.tracks {
		if el := p.elementAt(i); el != nil {
			el.SetVolume(p.effectiveGain(i))
		}
	}
}

// Progress returns the playback position as a percentage in [0, 100].
// An unknown duration reads as 0.
func (p *Player) Progress() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	d := p.duration()
	if d <= 0 {
		return 0
	}
	pct := (p.primary.CurrentTime() / d) * 100
	if math.IsNaN(pct) || pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// Tick advances the engine's periodic work: blocked-autoplay detection,
// loop-at-boundary handling, and secondary resync. It is driven by a Ticker
// in production and called directly with simulated times in tests.
func (p *Player) Tick(now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}

	// Play intent vs. reality: intent set, grace window elapsed, but the
	// primary never started. Surface "needs user interaction" instead of
	// silently staying stopped.
	if p.playIntent && p.status == StatusPlaying && p.primary.Paused() {
		if now.Sub(p.intentAt) >= p.blockedGrace {
			p.status = StatusBlocked
		}
	}
	if p.status == StatusBlocked && !p.primary.Paused() {
		// A user gesture started playback after all.
		p.status = StatusPlaying
	}

	if p.status == StatusPlaying && !p.primary.Paused() {
		p.tickLoop(now)
		p.resyncSecondary(p.primary.CurrentTime())
	}
}

// tickLoop implements the armed/disarmed loop latch: reset exactly once per
// boundary crossing, regardless of polling granularity. Caller holds the lock.
func (p *Player) tickLoop(now time.Time) {
	if !p.loopEnabled {
		return
	}
	d := p.duration()
	if d <= 0 {
		return
	}

	t := p.primary.CurrentTime()
	if !p.loopArmed && t >= d-p.loopEpsilon {
		p.loopArmed = true
		p.primary.Seek(0)
		if p.secondary != nil {
			p.secondary.Seek(0)
		}
		p.requestPlay(now)
		return
	}
	if p.loopArmed && t < loopRearmThreshold {
		p.loopArmed = false
	}
}

// Close stops playback and destroys waveform handles. Idempotent: closing
// an already-closed player is a no-op.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true

	p.pauseAll()
	for _, wf := range p.waveforms {
		if wf != nil {
			wf.Destroy()
		}
	}
	p.status = StatusStopped
	p.playIntent = false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
