package fetcher

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	maxRedirects = 10
	maxBodySize  = 10 * 1024 * 1024
)

// Fetcher is the HTTP client for one audit. Cookies never persist across
// requests and every request carries the audit User-Agent.
type Fetcher struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
}

// New creates a fetcher with the given per-request deadline.
func New(userAgent string, timeout time.Duration) *Fetcher {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &Fetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Redirects are followed manually to count hops.
				return http.ErrUseLastResponse
			},
		},
		userAgent: userAgent,
		timeout:   timeout,
	}
}

// Get fetches a URL following redirects, recording hops, TTFB and the
// final URL. Transport failures are reported in the Response, not returned.
func (f *Fetcher) Get(ctx context.Context, rawURL string) *Response {
	response := &Response{RequestURL: rawURL, FinalURL: rawURL}

	currentURL := rawURL
	start := time.Now()

	for hop := 0; hop <= maxRedirects; hop++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, currentURL, nil)
		if err != nil {
			response.Err = err
			response.ErrKind = "RequestError"
			return response
		}
		f.setRequestHeaders(req)

		resp, err := f.client.Do(req)
		if err != nil {
			response.FinalURL = currentURL
			response.Err = err
			response.ErrKind = categorizeError(err)
			return response
		}

		if resp.StatusCode >= 300 && resp.StatusCode < 400 {
			location := resp.Header.Get("Location")
			io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
			resp.Body.Close()

			if location == "" {
				// TTFB spans the whole redirect chain up to the last
				// response headers.
				response.TTFB = time.Since(start)
				response.FinalURL = currentURL
				response.StatusCode = resp.StatusCode
				response.ContentType = strings.ToLower(resp.Header.Get("Content-Type"))
				return response
			}

			redirectURL, err := resolveRedirect(currentURL, location)
			if err != nil {
				response.FinalURL = currentURL
				response.StatusCode = resp.StatusCode
				response.Err = err
				response.ErrKind = "RedirectError"
				return response
			}
			response.RedirectHops++
			currentURL = redirectURL
			continue
		}

		response.TTFB = time.Since(start)
		response.FinalURL = currentURL
		response.StatusCode = resp.StatusCode
		response.ContentType = strings.ToLower(resp.Header.Get("Content-Type"))

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		resp.Body.Close()
		if err != nil {
			response.Err = err
			response.ErrKind = categorizeError(err)
			return response
		}
		response.Body = body
		return response
	}

	response.FinalURL = currentURL
	response.Err = errors.New("too many redirects")
	response.ErrKind = "RedirectError"
	return response
}

// CheckLink verifies an internal link with HEAD, falling back to GET when
// the target rejects HEAD (405/501). Returns 0 on transport failure.
func (f *Fetcher) CheckLink(ctx context.Context, rawURL string) int {
	status := f.do(ctx, http.MethodHead, rawURL)
	if status == http.StatusMethodNotAllowed || status == http.StatusNotImplemented {
		status = f.do(ctx, http.MethodGet, rawURL)
	}
	return status
}

// do issues a single follow-redirects request and returns the final status.
func (f *Fetcher) do(ctx context.Context, method, rawURL string) int {
	currentURL := rawURL
	for hop := 0; hop <= maxRedirects; hop++ {
		req, err := http.NewRequestWithContext(ctx, method, currentURL, nil)
		if err != nil {
			return 0
		}
		f.setRequestHeaders(req)

		resp, err := f.client.Do(req)
		if err != nil {
			return 0
		}
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()

		if resp.StatusCode >= 300 && resp.StatusCode < 400 {
			location := resp.Header.Get("Location")
			if location == "" {
				return resp.StatusCode
			}
			redirectURL, err := resolveRedirect(currentURL, location)
			if err != nil {
				return 0
			}
			currentURL = redirectURL
			continue
		}
		return resp.StatusCode
	}
	return 0
}

// Close releases idle connections.
func (f *Fetcher) Close() {
	if transport, ok := f.client.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}

func (f *Fetcher) setRequestHeaders(req *http.Request) {
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "pt-BR,pt;q=0.8,en;q=0.5")
}

// categorizeError maps a transport error to its kind label.
func categorizeError(err error) string {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "Timeout"
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return "DNSError"
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return "ConnectionError"
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "Timeout"
	}
	msg := err.Error()
	if strings.Contains(msg, "tls:") || strings.Contains(msg, "certificate") {
		return "TLSError"
	}
	return "TransportError"
}

func resolveRedirect(baseURL, location string) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	loc, err := url.Parse(location)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(loc).String(), nil
}
