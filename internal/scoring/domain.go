package scoring

import (
	"net/url"
	"strings"
)

// ExtractDomain resolves a citation URL to its registrable domain:
// lowercase hostname with a leading "www." stripped. A malformed URL
// yields "" and the caller must treat the citation as non-scorable.
func ExtractDomain(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}
