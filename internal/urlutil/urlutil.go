// Package urlutil provides URL validation and normalization for the audit
// engine. All URLs that cross package boundaries are normalized to
// scheme://host[:port]/path?query form with fragment and userinfo removed.
package urlutil

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// InvalidURLError reports a seed URL that failed validation.
type InvalidURLError struct {
	Reason string
}

func (e *InvalidURLError) Error() string {
	return e.Reason
}

// Validate normalizes a user-supplied URL. A missing scheme defaults to
// https. The host must be localhost, an IP literal, or contain at least
// one dot.
func Validate(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", &InvalidURLError{Reason: "url is required"}
	}

	parsed, err := url.Parse(value)
	if err != nil || parsed.Scheme == "" {
		parsed, err = url.Parse("https://" + value)
		if err != nil {
			return "", &InvalidURLError{Reason: "invalid url"}
		}
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", &InvalidURLError{Reason: "url must start with http:// or https://"}
	}
	if parsed.Host == "" {
		return "", &InvalidURLError{Reason: "invalid url"}
	}

	hostname := parsed.Hostname()
	if hostname != "localhost" && net.ParseIP(hostname) == nil && !strings.Contains(hostname, ".") {
		return "", &InvalidURLError{Reason: "invalid url host"}
	}

	return Normalize(parsed), nil
}

// NormalizeLink normalizes an already-absolute URL string. Malformed input
// is returned unchanged; callers only pass URLs produced by url.Parse.
func NormalizeLink(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return Normalize(parsed)
}

// Normalize renders a parsed URL as scheme://host/path?query, defaulting
// an empty path to "/" and dropping fragment and userinfo.
func Normalize(u *url.URL) string {
	clean := *u
	clean.User = nil
	clean.Fragment = ""
	clean.RawFragment = ""
	if clean.Path == "" {
		clean.Path = "/"
	}
	return clean.String()
}

// Origin returns the scheme://host[:port] prefix of a URL.
func Origin(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%s://%s", u.Scheme, u.Host)
}

// SameOrigin reports whether two URLs share scheme and network authority.
func SameOrigin(a, b string) bool {
	ua, errA := url.Parse(a)
	ub, errB := url.Parse(b)
	if errA != nil || errB != nil {
		return false
	}
	return ua.Scheme == ub.Scheme && ua.Host == ub.Host
}

// IsHTTPURL reports whether a URL string uses an http or https scheme.
func IsHTTPURL(raw string) bool {
	return strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://")
}

// Resolve joins a possibly relative reference against a base URL.
func Resolve(base, ref string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	return baseURL.ResolveReference(refURL).String(), nil
}
