package middleware

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	hostnameRe = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9\-]{0,61}[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9\-]{0,61}[a-zA-Z0-9])?)*$`)
	schemeRe   = regexp.MustCompile(`^https?://`)
	uuidRe     = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
)

var blockedHostnames = map[string]struct{}{
	"localhost":                {},
	"metadata.google.internal": {},
}

var blockedHostnameSuffixes = []string{".localhost", ".internal"}

// ExtractHostname pulls a bare hostname out of user input, tolerating a
// pasted URL. Returns "" when no valid hostname can be extracted.
func ExtractHostname(input string) string {
	raw := input
	if !schemeRe.MatchString(raw) {
		raw = "https://" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	host := parsed.Hostname()
	if !hostnameRe.MatchString(host) {
		return ""
	}
	return host
}

// IsBlockedHostname rejects internal and cloud-metadata names so the
// scanner pool is never pointed at its own infrastructure.
func IsBlockedHostname(hostname string) bool {
	lower := strings.ToLower(hostname)
	if _, ok := blockedHostnames[lower]; ok {
		return true
	}
	for _, suffix := range blockedHostnameSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

// IsValidUUID reports whether s looks like a canonical UUID.
func IsValidUUID(s string) bool {
	return uuidRe.MatchString(s)
}
