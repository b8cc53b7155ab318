package mixdown

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
)

// DefaultSampleRate is the render rate when the caller does not pick one.
const DefaultSampleRate = 44100

// ErrNoActiveTracks means every track was filtered out by its gain; there is
// nothing to render and no output file is produced.
var ErrNoActiveTracks = errors.New("no active tracks to render")

// Track is one input to the offline render: a decodable source plus the mix
// parameters the studio had for it.
type Track struct {
	Source      Source
	Volume      float64 // per-track gain in [0, 1]
	Muted       bool
	StartOffset float64 // seconds relative to mix time zero
}

// Gain returns the track's effective render gain: 0 when muted, otherwise
// its volume.
func (t Track) Gain() float64 {
	if t.Muted {
		return 0
	}
	if t.Volume < 0 {
		return 0
	}
	if t.Volume > 1 {
		return 1
	}
	return t.Volume
}

// Render decodes every track with a non-zero gain and additively mixes them
// into a single stereo buffer at the union duration. Muted and zero-gain
// tracks are never fetched. Decoding runs concurrently; the final mix pass
// is sequential in track order, so identical inputs always produce identical
// output.
func Render(ctx context.Context, tracks []Track, sampleRate int) (*Buffer, error) {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}

	type active struct {
		track Track
		index int
	}
	var actives []active
	for i, t := range tracks {
		if t.Gain() > 0 {
			actives = append(actives, active{track: t, index: i})
		}
	}
	if len(actives) == 0 {
		return nil, ErrNoActiveTracks
	}

	buffers := make([]*Buffer, len(actives))
	errs := make([]error, len(actives))

	var wg sync.WaitGroup
	for i, a := range actives {
		wg.Add(1)
		go func(i int, a active) {
			defer wg.Done()
			buf, err := a.track.Source.Decode(ctx)
			if err != nil {
				errs[i] = fmt.Errorf("decode track %d: %w", a.index, err)
				return
			}
			if buf.SampleRate != sampleRate {
				errs[i] = fmt.Errorf("decode track %d: sample rate %d does not match render rate %d",
					a.index, buf.SampleRate, sampleRate)
				return
			}
			buffers[i] = buf
		}(i, a)
	}
	wg.Wait()

	// Any decode failure fails the whole render; a partial mix is worse
	// than no mix.
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	var totalDuration float64
	for i, a := range actives {
		end := a.track.StartOffset + buffers[i].Duration()
		if end > totalDuration {
			totalDuration = end
		}
	}

	out := &Buffer{
		SampleRate: sampleRate,
		Frames:     make([][2]float64, int(math.Ceil(totalDuration*float64(sampleRate)))),
	}

	for i, a := range actives {
		gain := a.track.Gain()
		offset := int(math.Round(a.track.StartOffset * float64(sampleRate)))
		for f, frame := range buffers[i].Frames {
			at := offset + f
			if at < 0 || at >= len(out.Frames) {
				continue
			}
			out.Frames[at][0] += frame[0] * gain
			out.Frames[at][1] += frame[1] * gain
		}
	}

	return out, nil
}
