package player

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolver_Resolve(t *testing.T) {
	r := Resolver{
		Origin:      "https://app.example",
		ExemptHosts: []string{"public.blob.example.net"},
	}

	tests := []struct {
		raw      string
		expected string
	}{
		// Pass through unchanged.
		{"", ""},
		{"/media/local.mp3", "/media/local.mp3"},
		{"blob:https://app.example/abc", "blob:https://app.example/abc"},
		{"data:audio/wav;base64,AAAA", "data:audio/wav;base64,AAAA"},
		{"https://app.example/clip.mp4", "https://app.example/clip.mp4"},
		{"/proxy?url=https%3A%2F%2Fcdn.other%2Fa.mp3", "/proxy?url=https%3A%2F%2Fcdn.other%2Fa.mp3"},
		{"https://public.blob.example.net/mixes/x.wav", "https://public.blob.example.net/mixes/x.wav"},

		// Cross-origin media routes through the proxy.
		{"https://cdn.other/a.mp3", "/proxy?url=https%3A%2F%2Fcdn.other%2Fa.mp3"},
		{"http://cdn.other/a b.mp3", "/proxy?url=http%3A%2F%2Fcdn.other%2Fa+b.mp3"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, r.Resolve(tt.raw), "raw=%s", tt.raw)
	}
}

func TestResolver_CustomProxyPath(t *testing.T) {
	r := Resolver{ProxyPath: "/api/proxy"}

	assert.Equal(t, "/api/proxy?url=https%3A%2F%2Fcdn.other%2Fa.mp3", r.Resolve("https://cdn.other/a.mp3"))
	assert.Equal(t, "/api/proxy?url=x", r.Resolve("/api/proxy?url=x"))
}
