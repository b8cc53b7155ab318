package proxy

import (
	"net/url"
	"strings"
)

// EmptyListMode names the behavior of an allow-list with no configured
// entries. Development deployments fail open so local testing works against
// arbitrary hosts; production deployments fail closed.
type EmptyListMode int

const (
	EmptyAllowAll EmptyListMode = iota
	EmptyDenyAll
)

// Allowlist decides which upstream hosts the streaming proxy may fetch from.
// Built once at startup and read-only afterwards, so it is safe for
// concurrent use by any number of proxy requests.
type Allowlist struct {
	exact     map[string]bool // lower-cased host or hostname entries
	suffixes  []string        // lower-cased ".example.com" wildcard suffixes
	emptyMode EmptyListMode
}

// NewAllowlist builds an allow-list from configured entries. An entry may be
// an exact host (optionally with port), a "*.example.com" wildcard, or a full
// URL whose host component is kept. Unparsable URL entries are kept as
// literal strings.
func NewAllowlist(entries []string, emptyMode EmptyListMode) *Allowlist {
	a := &Allowlist{
		exact:     make(map[string]bool),
		emptyMode: emptyMode,
	}

	for _, entry := range entries {
		entry = strings.ToLower(strings.TrimSpace(entry))
		if entry == "" {
			continue
		}

		if suffix, ok := strings.CutPrefix(entry, "*"); ok {
			if !strings.HasPrefix(suffix, ".") {
				suffix = "." + suffix
			}
			a.suffixes = append(a.suffixes, suffix)
			continue
		}

		if strings.Contains(entry, "://") {
			if u, err := url.Parse(entry); err == nil && u.Host != "" {
				a.exact[strings.ToLower(u.Host)] = true
				continue
			}
			// Fall through: keep the unparsable entry as a literal.
		}

		a.exact[entry] = true
	}

	return a
}

// Empty reports whether no entries are configured.
func (a *Allowlist) Empty() bool {
	return len(a.exact) == 0 && len(a.suffixes) == 0
}

// Allowed reports whether a target with the given host (may include port)
// and hostname may be proxied. Matching is exact-host or wildcard-suffix
// only; no regex, no prefix matching.
func (a *Allowlist) Allowed(host, hostname string) bool {
	if a.Empty() {
		return a.emptyMode == EmptyAllowAll
	}

	host = strings.ToLower(host)
	hostname = strings.ToLower(hostname)

	if a.exact[host] || a.exact[hostname] {
		return true
	}
	for _, suffix := range a.suffixes {
		if strings.HasSuffix(hostname, suffix) {
			return true
		}
	}
	return false
}

// AllowedURL applies Allowed to an already-parsed target URL.
func (a *Allowlist) AllowedURL(u *url.URL) bool {
	return a.Allowed(u.Host, u.Hostname())
}
