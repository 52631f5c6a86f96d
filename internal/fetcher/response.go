// Package fetcher performs HTTP requests with redirect tracking, a per-page
// deadline and typed transport-error strings.
package fetcher

import (
	"fmt"
	"strings"
	"time"
)

// Response represents the result of fetching a URL.
type Response struct {
	// Original requested URL
	RequestURL string

	// Final URL after redirects
	FinalURL string

	// HTTP status code (0 on transport failure)
	StatusCode int

	// Content-Type header value, lowercased
	ContentType string

	// Number of redirects followed
	RedirectHops int

	// Response body
	Body []byte

	// Time to first response headers
	TTFB time.Duration

	// Error if the request failed at the transport level
	Err error

	// Classified kind of Err, e.g. "Timeout"
	ErrKind string
}

// IsHTML reports whether the response carries an HTML document.
func (r *Response) IsHTML() bool {
	return strings.Contains(r.ContentType, "text/html")
}

// ErrorString renders the transport failure as "<ErrorKind>: <message>".
func (r *Response) ErrorString() string {
	if r.Err == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", r.ErrKind, r.Err.Error())
}
