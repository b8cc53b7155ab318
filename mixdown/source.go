package mixdown

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Buffer holds decoded stereo audio. Samples are interleaved as frames of
// [left, right] in the [-1, 1] range.
type Buffer struct {
	SampleRate int
	Frames     [][2]float64
}

// Duration returns the buffer's length in seconds.
func (b *Buffer) Duration() float64 {
	if b == nil || b.SampleRate <= 0 {
		return 0
	}
	return float64(len(b.Frames)) / float64(b.SampleRate)
}

// Source decodes one track's audio into a raw sample buffer. Implementations
// must honor ctx cancellation on any network fetch.
type Source interface {
	Decode(ctx context.Context) (*Buffer, error)
}

// HTTPWAVSource fetches a PCM WAV file over HTTP and decodes it. Other
// codecs come in through caller-supplied Source implementations.
type HTTPWAVSource struct {
	URL    string
	Client *http.Client
}

// Decode fetches and decodes the WAV payload.
func (s *HTTPWAVSource) Decode(ctx context.Context) (*Buffer, error) {
	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build audio request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch audio: upstream status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}

	return DecodeWAV(data)
}

// BufferSource wraps an already-decoded buffer; used where samples come from
// an in-process engine rather than a fetch.
type BufferSource struct {
	Buffer *Buffer
}

func (s *BufferSource) Decode(ctx context.Context) (*Buffer, error) {
	if s.Buffer == nil {
		return nil, fmt.Errorf("buffer source has no data")
	}
	return s.Buffer, nil
}
