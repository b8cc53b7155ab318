package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type classifyTestCase struct {
	track    Track
	expected MediaClass
}

func TestClassifyMedia(t *testing.T) {
	tests := []classifyTestCase{
		// Explicit tag wins over extension.
		{Track{Type: "audio", SourceURL: "https://a/clip.mp4"}, MediaAudio},
		{Track{Type: "video", SourceURL: "https://a/clip.mp3"}, MediaVideo},
		{Track{Type: "AUDIO", SourceURL: "https://a/clip.mp4"}, MediaAudio},

		// Extension heuristic for untagged tracks.
		{Track{SourceURL: "https://a/song.mp3"}, MediaAudio},
		{Track{SourceURL: "https://a/song.M4A"}, MediaAudio},
		{Track{SourceURL: "https://a/song.aac"}, MediaAudio},
		{Track{SourceURL: "https://a/song.wav?sig=abc"}, MediaAudio},
		{Track{SourceURL: "https://a/song.ogg"}, MediaAudio},
		{Track{SourceURL: "https://a/song.flac"}, MediaAudio},
		{Track{SourceURL: "https://a/clip.mp4"}, MediaVideo},
		{Track{SourceURL: "https://a/clip.webm"}, MediaVideo},
		{Track{SourceURL: "https://a/stream"}, MediaVideo},
		{Track{SourceURL: "song.mp3"}, MediaAudio},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ClassifyMedia(tt.track), "url=%s type=%s", tt.track.SourceURL, tt.track.Type)
	}
}
