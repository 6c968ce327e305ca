// internal/visibility/domain.go
package visibility

import (
	"net/url"
	"strings"
)

// NormalizeDomain derives the registrable domain from a raw URL or domain
// string. Both aggregators must use it so the same physical source always
// collapses onto the same key. It is a total function: malformed input falls
// back to the substring before the first slash, and the worst case returns
// the input unchanged.
func NormalizeDomain(raw string) string {
	if raw == "" {
		return ""
	}

	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		if u, err := url.Parse(raw); err == nil && u.Host != "" {
			return strings.TrimPrefix(u.Host, "www.")
		}
	}

	host := raw
	if i := strings.Index(host, "/"); i >= 0 {
		host = host[:i]
	}
	return strings.TrimPrefix(host, "www.")
}
