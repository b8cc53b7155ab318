package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SessionKind discriminates the three session shapes: a single clip, a flat
// list played one after another, and a multi-track studio mix.
type SessionKind string

const (
	KindSingle SessionKind = "single"
	KindMulti  SessionKind = "multi"
	KindStudio SessionKind = "studio"
)

// Track is one playable media source within a session.
type Track struct {
	SourceURL     string  `json:"sourceUrl"`
	ResolvedURL   string  `json:"resolvedUrl,omitempty"`
	StartPosition float64 `json:"startPosition"` // seconds relative to session time zero
	Volume        float64 `json:"volume"`
	Muted         bool    `json:"muted"`
	Title         string  `json:"title,omitempty"`
	Description   string  `json:"description,omitempty"`
	Type          string  `json:"type,omitempty"` // explicit media type tag, e.g. "audio" or "video"
}

// Session is the persisted unit of sharing, stored as one JSON document per id.
type Session struct {
	ID          string      `json:"id"`
	Kind        SessionKind `json:"kind"`
	Tracks      []Track     `json:"tracks"`
	Title       string      `json:"title,omitempty"`
	Author      string      `json:"author,omitempty"`
	Description string      `json:"description,omitempty"`
	MixURL      string      `json:"mixUrl,omitempty"`   // studio: pre-rendered mixdown file
	VideoURL    string      `json:"videoUrl,omitempty"` // studio: visual track outside the audio mix
	LoopEnabled bool        `json:"loopEnabled,omitempty"`
	Zoom        float64     `json:"zoom,omitempty"` // pixels-per-second UI state
}

// wireSession covers both the current document shape and the legacy shapes
// older documents were saved in (a top-level url, or a videos array).
type wireSession struct {
	ID          string      `json:"id"`
	Kind        SessionKind `json:"kind"`
	Tracks      []Track     `json:"tracks"`
	Title       string      `json:"title"`
	Author      string      `json:"author"`
	Description string      `json:"description"`
	MixURL      string      `json:"mixUrl"`
	VideoURL    string      `json:"videoUrl"`
	LoopEnabled bool        `json:"loopEnabled"`
	Zoom        float64     `json:"zoom"`

	// Legacy fields.
	URL      string   `json:"url"`
	Filename string   `json:"filename"`
	Volume   *float64 `json:"volume"`
	Loop     bool     `json:"loop"`
	Videos   []struct {
		URL         string `json:"url"`
		Filename    string `json:"filename"`
		Description string `json:"description"`
	} `json:"videos"`
}

// ParseSession validates a wire JSON document into a Session. Loose legacy
// shapes are normalized into the tagged form; unrecognized shapes are rejected.
func ParseSession(data []byte) (*Session, error) {
	var wire wireSession
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("malformed session document: %w", err)
	}

	s := &Session{
		ID:          wire.ID,
		Kind:        wire.Kind,
		Tracks:      wire.Tracks,
		Title:       wire.Title,
		Author:      wire.Author,
		Description: wire.Description,
		MixURL:      wire.MixURL,
		VideoURL:    wire.VideoURL,
		LoopEnabled: wire.LoopEnabled,
		Zoom:        wire.Zoom,
	}

	// Legacy single document: {id, url, filename, description, volume, loop}.
	if s.Kind == "" && len(s.Tracks) == 0 && wire.URL != "" {
		volume := 1.0
		if wire.Volume != nil {
			volume = *wire.Volume
		}
		s.Kind = KindSingle
		s.Title = wire.Filename
		s.LoopEnabled = wire.Loop
		s.Tracks = []Track{{
			SourceURL:   wire.URL,
			Volume:      volume,
			Description: wire.Description,
		}}
	}

	// Legacy multi document: {id, videos: [{url, filename, description}], ...}.
	if s.Kind == "" && len(s.Tracks) == 0 && len(wire.Videos) > 0 {
		volume := 1.0
		if wire.Volume != nil {
			volume = *wire.Volume
		}
		s.Kind = KindMulti
		s.LoopEnabled = wire.Loop
		for _, v := range wire.Videos {
			s.Tracks = append(s.Tracks, Track{
				SourceURL:   v.URL,
				Volume:      volume,
				Title:       v.Filename,
				Description: v.Description,
			})
		}
	}

	return s, s.Validate()
}

// Validate checks session invariants: a known kind, a non-empty track list
// after dropping tracks with an empty source, and volumes within [0,1].
func (s *Session) Validate() error {
	switch s.Kind {
	case KindSingle, KindMulti, KindStudio:
	default:
		return fmt.Errorf("unknown session kind: %q", s.Kind)
	}

	kept := s.Tracks[:0]
	for _, t := range s.Tracks {
		if strings.TrimSpace(t.SourceURL) == "" {
			continue
		}
		if t.Volume < 0 {
			t.Volume = 0
		}
		if t.Volume > 1 {
			t.Volume = 1
		}
		if t.StartPosition < 0 {
			t.StartPosition = 0
		}
		kept = append(kept, t)
	}
	s.Tracks = kept

	if len(s.Tracks) == 0 {
		return fmt.Errorf("session has no tracks")
	}
	if s.Kind == KindSingle && len(s.Tracks) != 1 {
		return fmt.Errorf("single session must hold exactly one track, got %d", len(s.Tracks))
	}
	return nil
}

// Marshal serializes the session to its wire JSON form.
func (s *Session) Marshal() ([]byte, error) {
	return json.Marshal(s)
}
