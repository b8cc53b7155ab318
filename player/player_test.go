package player

import (
	"errors"
	"math"
	"testing"
	"time"

	"cliplink/model"

	"github.com/stretchr/testify/assert"
)

// fakeElement is an in-memory media handle for engine tests.
type fakeElement struct {
	playing  bool
	time     float64
	duration float64
	volume   float64

	// refusePlay simulates an autoplay policy: Play reports success but the
	// element silently stays paused.
	refusePlay bool
	playErr    error

	seeks  []float64
	plays  int
	pauses int
}

func (f *fakeElement) Play() error {
	f.plays++
	if f.playErr != nil {
		return f.playErr
	}
	if !f.refusePlay {
		f.playing = true
	}
	return nil
}

func (f *fakeElement) Pause() {
	f.pauses++
	f.playing = false
}

func (f *fakeElement) Seek(seconds float64) {
	f.seeks = append(f.seeks, seconds)
	f.time = seconds
}

func (f *fakeElement) CurrentTime() float64 { return f.time }
func (f *fakeElement) Duration() float64    { return f.duration }
func (f *fakeElement) SetVolume(v float64)  { f.volume = v }
func (f *fakeElement) Paused() bool         { return !f.playing }

type fakeWaveform struct {
	attachErr error
	attached  bool
	destroys  int
}

func (f *fakeWaveform) Attach(el Element) error {
	if f.attachErr != nil {
		return f.attachErr
	}
	f.attached = true
	return nil
}

func (f *fakeWaveform) Destroy() { f.destroys++ }

func audioTrack(volume float64) model.Track {
	return model.Track{SourceURL: "https://a/t.mp3", Volume: volume, Type: "audio"}
}

func TestPlayer_TogglePlayback(t *testing.T) {
	primary := &fakeElement{duration: 10}
	aux := &fakeElement{duration: 10}
	p := New(Config{
		Tracks:        []model.Track{audioTrack(1), audioTrack(1)},
		Primary:       primary,
		TrackElements: []Element{primary, aux},
	})

	assert.Equal(t, StatusStopped, p.Status())

	p.TogglePlayback()
	assert.Equal(t, StatusPlaying, p.Status())
	assert.True(t, primary.playing)
	assert.True(t, aux.playing)

	p.TogglePlayback()
	assert.Equal(t, StatusStopped, p.Status())
	assert.False(t, primary.playing)
	assert.False(t, aux.playing)
}

func TestPlayer_AutoplayBlockedSurfacesAfterGrace(t *testing.T) {
	primary := &fakeElement{duration: 10, refusePlay: true}
	p := New(Config{
		Tracks:        []model.Track{audioTrack(1)},
		Primary:       primary,
		TrackElements: []Element{primary},
		BlockedGrace:  500 * time.Millisecond,
	})

	p.TogglePlayback()
	assert.Equal(t, StatusPlaying, p.Status())

	// Within the grace window the divergence is tolerated.
	p.Tick(time.Now().Add(100 * time.Millisecond))
	assert.Equal(t, StatusPlaying, p.Status())

	// Past the window: intent says playing, element says paused.
	p.Tick(time.Now().Add(time.Second))
	assert.Equal(t, StatusBlocked, p.Status())

	// A user gesture starts the element; the next tick recovers.
	primary.playing = true
	p.Tick(time.Now().Add(2 * time.Second))
	assert.Equal(t, StatusPlaying, p.Status())
}

func TestPlayer_PlayErrorIsNotFatal(t *testing.T) {
	primary := &fakeElement{duration: 10, playErr: errors.New("NotAllowedError")}
	p := New(Config{
		Tracks:        []model.Track{audioTrack(1)},
		Primary:       primary,
		TrackElements: []Element{primary},
	})

	p.TogglePlayback()
	assert.Equal(t, StatusPlaying, p.Status())

	p.Tick(time.Now().Add(time.Second))
	assert.Equal(t, StatusBlocked, p.Status())
}

func TestPlayer_SeekClampsToDuration(t *testing.T) {
	primary := &fakeElement{duration: 10}
	p := New(Config{
		Tracks:        []model.Track{audioTrack(1)},
		Primary:       primary,
		TrackElements: []Element{primary},
	})

	p.SeekTo(-5)
	assert.Equal(t, 0.0, primary.time)

	p.SeekTo(25)
	assert.Equal(t, 10.0, primary.time)

	p.SeekTo(4)
	p.SeekBy(3)
	assert.Equal(t, 7.0, primary.time)
	p.SeekBy(-20)
	assert.Equal(t, 0.0, primary.time)
}

func TestPlayer_SecondaryResyncOnlyPastDriftTolerance(t *testing.T) {
	primary := &fakeElement{duration: 10, playing: true}
	secondary := &fakeElement{duration: 10, playing: true}
	p := New(Config{
		Tracks:        []model.Track{audioTrack(1)},
		Primary:       primary,
		Secondary:     secondary,
		TrackElements: []Element{&fakeElement{}},
	})
	p.TogglePlayback()

	// Small drift is left alone.
	primary.time = 5.0
	secondary.time = 5.1
	p.Tick(time.Now())
	assert.Empty(t, secondary.seeks)

	// Past the tolerance the visual track snaps back.
	secondary.time = 5.6
	p.Tick(time.Now())
	assert.Equal(t, []float64{5.0}, secondary.seeks)
}

func TestPlayer_LoopLatchFiresOncePerBoundary(t *testing.T) {
	primary := &fakeElement{duration: 10}
	p := New(Config{
		Tracks:        []model.Track{audioTrack(1)},
		Primary:       primary,
		TrackElements: []Element{primary},
		LoopEnabled:   true,
	})
	p.TogglePlayback()

	countResets := func() int {
		n := 0
		for _, s := range primary.seeks {
			if s == 0 {
				n++
			}
		}
		return n
	}

	// Clock advances through the boundary with coarse polling; several
	// ticks land inside the epsilon window.
	now := time.Now()
	for _, tm := range []float64{9.5, 9.91, 9.95, 9.99} {
		primary.time = tm
		p.Tick(now)
		now = now.Add(100 * time.Millisecond)
	}
	assert.Equal(t, 1, countResets())

	// The reset pulled time back to 0; ticks near 0 disarm the latch.
	for _, tm := range []float64{0.05, 0.3, 5.0} {
		primary.time = tm
		p.Tick(now)
		now = now.Add(100 * time.Millisecond)
	}
	assert.Equal(t, 1, countResets())

	// Second full pass fires exactly once more.
	for _, tm := range []float64{9.93, 9.97} {
		primary.time = tm
		p.Tick(now)
		now = now.Add(100 * time.Millisecond)
	}
	assert.Equal(t, 2, countResets())
}

func TestPlayer_LoopDisabledNeverResets(t *testing.T) {
	primary := &fakeElement{duration: 10}
	p := New(Config{
		Tracks:        []model.Track{audioTrack(1)},
		Primary:       primary,
		TrackElements: []Element{primary},
	})
	p.TogglePlayback()

	primary.time = 9.99
	p.Tick(time.Now())
	assert.Empty(t, primary.seeks)
}

func TestPlayer_EffectiveGain(t *testing.T) {
	a := &fakeElement{duration: 10}
	b := &fakeElement{duration: 10}
	p := New(Config{
		Tracks:        []model.Track{audioTrack(0.8), audioTrack(0.5)},
		Primary:       a,
		TrackElements: []Element{a, b},
	})

	assert.Equal(t, 0.8, a.volume)
	assert.Equal(t, 0.5, b.volume)

	p.SetVolume(0.5)
	assert.Equal(t, 0.4, a.volume)
	assert.Equal(t, 0.25, b.volume)

	p.ToggleTrackMute(0)
	assert.Equal(t, 0.0, a.volume)
	assert.Equal(t, 0.25, b.volume)

	p.SetMuted(true)
	assert.Equal(t, 0.0, a.volume)
	assert.Equal(t, 0.0, b.volume)

	p.SetMuted(false)
	p.ToggleTrackMute(0)
	assert.Equal(t, 0.4, a.volume)

	// Setting a volume unmutes.
	p.ToggleTrackMute(1)
	assert.Equal(t, 0.0, b.volume)
	p.SetTrackVolume(1, 1)
	assert.Equal(t, 0.5, b.volume)
}

func TestPlayer_Progress(t *testing.T) {
	primary := &fakeElement{duration: 10}
	p := New(Config{
		Tracks:        []model.Track{audioTrack(1)},
		Primary:       primary,
		TrackElements: []Element{primary},
	})

	primary.time = 5
	assert.Equal(t, 50.0, p.Progress())

	primary.time = 15
	assert.Equal(t, 100.0, p.Progress())

	// Duration not loaded yet reads as 0%.
	primary.duration = 0
	assert.Equal(t, 0.0, p.Progress())
	primary.duration = math.NaN()
	assert.Equal(t, 0.0, p.Progress())
}

func TestPlayer_WaveformFailureDegrades(t *testing.T) {
	primary := &fakeElement{duration: 10}
	good := &fakeWaveform{}
	bad := &fakeWaveform{attachErr: errors.New("decode failed")}
	p := New(Config{
		Tracks:        []model.Track{audioTrack(1), audioTrack(1)},
		Primary:       primary,
		TrackElements: []Element{primary, &fakeElement{}},
		Waveforms:     []Waveform{good, bad},
	})

	assert.True(t, good.attached)
	assert.True(t, p.WaveformAvailable(0))
	assert.False(t, p.WaveformAvailable(1))

	// Playback still works with a broken waveform.
	p.TogglePlayback()
	assert.Equal(t, StatusPlaying, p.Status())
}

func TestPlayer_CloseIsIdempotent(t *testing.T) {
	primary := &fakeElement{duration: 10, playing: true}
	wf := &fakeWaveform{}
	p := New(Config{
		Tracks:        []model.Track{audioTrack(1)},
		Primary:       primary,
		TrackElements: []Element{primary},
		Waveforms:     []Waveform{wf},
	})
	p.TogglePlayback()

	p.Close()
	p.Close()

	assert.Equal(t, StatusStopped, p.Status())
	assert.False(t, primary.playing)
	assert.Equal(t, 1, wf.destroys)

	// Operations on a closed player are no-ops.
	p.TogglePlayback()
	assert.Equal(t, StatusStopped, p.Status())
	p.SeekTo(5)
	assert.NotContains(t, primary.seeks, 5.0)
}
