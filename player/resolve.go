package player

import (
	"net/url"
	"strings"
)

// DefaultProxyPath is where the streaming proxy is mounted.
const DefaultProxyPath = "/proxy"

// Resolver decides whether a media URL can be handed to an element as-is or
// must be rewritten through the streaming proxy.
type Resolver struct {
	// Origin is the page origin, e.g. "https://app.example"; URLs under it
	// are same-origin and pass through.
	Origin string
	// ProxyPath is the proxy mount point (DefaultProxyPath when empty).
	ProxyPath string
	// ExemptHosts are storage-provider hosts that are already public and
	// CORS-enabled, so proxying them is wasted bandwidth.
	ExemptHosts []string
}

// Resolve returns the URL a media element should load. Same-origin URLs,
// data:/blob: URIs, already-proxied URLs, and exempt hosts pass through
// unchanged; everything else routes through the proxy with the original URL
// percent-encoded as the url query parameter.
func (r Resolver) Resolve(raw string) string {
	if raw == "" {
		return raw
	}

	proxyPath := r.ProxyPath
	if proxyPath == "" {
		proxyPath = DefaultProxyPath
	}

	if strings.HasPrefix(raw, proxyPath+"?url=") {
		return raw
	}
	if strings.HasPrefix(raw, "blob:") || strings.HasPrefix(raw, "data:") {
		return raw
	}

	lower := strings.ToLower(raw)
	if !strings.HasPrefix(lower, "http:") && !strings.HasPrefix(lower, "https:") {
		// Relative URLs are same-origin already.
		return raw
	}

	if r.Origin != "" && strings.HasPrefix(raw, r.Origin) {
		return raw
	}

	if len(r.ExemptHosts) > 0 {
		if u, err := url.Parse(raw); err == nil {
			host := strings.ToLower(u.Host)
			hostname := strings.ToLower(u.Hostname())
			for _, exempt := range r.ExemptHosts {
				exempt = strings.ToLower(exempt)
				if host == exempt || hostname == exempt {
					return raw
				}
			}
		}
	}

	return proxyPath + "?url=" + url.QueryEscape(raw)
}
