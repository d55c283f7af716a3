package outreach

import (
	"net/url"
	"strings"
)

// RecipientFor derives the generic contact address for a business website,
// e.g. "https://www.rosewood.com/about" becomes "info@rosewood.com". It
// reports false when no domain can be extracted.
func RecipientFor(website string) (string, bool) {
	raw := strings.TrimSpace(website)
	if raw == "" {
		return "", false
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	host = strings.Trim(host, ".")

	if host == "" || !strings.Contains(host, ".") {
		return "", false
	}
	return "info@" + host, true
}
