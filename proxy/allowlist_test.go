package proxy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type allowlistTestCase struct {
	host     string
	hostname string
	expected bool
}

func TestAllowlist_ExactAndWildcard(t *testing.T) {
	list := NewAllowlist([]string{"cdn.example.com", "media.example.org:8443", "*.blob.example.net"}, EmptyDenyAll)

	tests := []allowlistTestCase{
		{"cdn.example.com", "cdn.example.com", true},
		{"CDN.EXAMPLE.COM", "CDN.EXAMPLE.COM", true},
		{"media.example.org:8443", "media.example.org", true},
		{"store1.blob.example.net", "store1.blob.example.net", true},
		{"deep.store1.blob.example.net", "deep.store1.blob.example.net", true},
		{"blob.example.net", "blob.example.net", false}, // suffix match needs the leading dot
		{"evil.com", "evil.com", false},
		{"cdn.example.com.evil.com", "cdn.example.com.evil.com", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, list.Allowed(tt.host, tt.hostname), "host=%s", tt.host)
	}
}

func TestAllowlist_FullURLEntriesKeepHost(t *testing.T) {
	list := NewAllowlist([]string{"https://cdn.example.com/some/path"}, EmptyDenyAll)

	assert.True(t, list.Allowed("cdn.example.com", "cdn.example.com"))
	assert.False(t, list.Allowed("example.com", "example.com"))
}

func TestAllowlist_EmptyListModes(t *testing.T) {
	dev := NewAllowlist(nil, EmptyAllowAll)
	prod := NewAllowlist(nil, EmptyDenyAll)

	assert.True(t, dev.Empty())
	assert.True(t, dev.Allowed("anything.example", "anything.example"))
	assert.False(t, prod.Allowed("anything.example", "anything.example"))
}

func TestAllowlist_WildcardWins(t *testing.T) {
	list := NewAllowlist([]string{"*.example.com"}, EmptyDenyAll)

	assert.True(t, list.Allowed("a.example.com", "a.example.com"))
	assert.True(t, list.Allowed("a.b.example.com:9000", "a.b.example.com"))
	assert.False(t, list.Allowed("example.com", "example.com"))
}
