package audit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/site-audit/auditor/internal/narrator"
	"github.com/site-audit/auditor/internal/urlutil"
)

func newTestSite() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html lang="pt"><head><title>Pagina inicial do site</title></head>`+
			`<body><h1>Oi</h1></body></html>`)
	}))
}

func TestFullDetailedCaches(t *testing.T) {
	site := newTestSite()
	defer site.Close()

	service := NewService(nil)

	first, fromCache, err := service.FullDetailed(context.Background(), site.URL)
	if err != nil {
		t.Fatalf("FullDetailed: %v", err)
	}
	if fromCache {
		t.Fatal("first run reported as cached")
	}
	if first.Crawl.PagesScannedHTML != 1 {
		t.Fatalf("pages = %d, want 1", first.Crawl.PagesScannedHTML)
	}

	second, fromCache, err := service.FullDetailed(context.Background(), site.URL)
	if err != nil {
		t.Fatalf("FullDetailed: %v", err)
	}
	if !fromCache {
		t.Fatal("second run not served from cache")
	}
	if second != first {
		t.Error("cached run returned a different audit")
	}
}

func TestSetRequestsPerSecond(t *testing.T) {
	service := NewService(nil)
	if service.fullProfile.RequestsPerSecond != 0 {
		t.Fatalf("default rps = %v, want 0", service.fullProfile.RequestsPerSecond)
	}

	service.SetRequestsPerSecond(2.5)
	if service.fullProfile.RequestsPerSecond != 2.5 {
		t.Errorf("full profile rps = %v, want 2.5", service.fullProfile.RequestsPerSecond)
	}
	if service.summaryProfile.RequestsPerSecond != 2.5 {
		t.Errorf("summary profile rps = %v, want 2.5", service.summaryProfile.RequestsPerSecond)
	}
}

func TestFullDetailedValidation(t *testing.T) {
	service := NewService(nil)
	_, _, err := service.FullDetailed(context.Background(), "ftp://example.com")

	var invalid *urlutil.InvalidURLError
	if !errors.As(err, &invalid) {
		t.Fatalf("err = %v, want InvalidURLError", err)
	}
}

func TestRunSummaryWithoutNarrator(t *testing.T) {
	site := newTestSite()
	defer site.Close()

	service := NewService(nil)
	_, err := service.RunSummary(context.Background(), site.URL)
	if !errors.Is(err, narrator.ErrLLMUnavailable) {
		t.Fatalf("err = %v, want ErrLLMUnavailable", err)
	}
}

func TestRunSummaryReusesFullAudit(t *testing.T) {
	var requests atomic.Int64
	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html lang="pt"><head><title>Pagina inicial do site</title></head>`+
			`<body><h1>Oi</h1></body></html>`)
	}))
	defer site.Close()

	service := NewService(nil)
	if _, _, err := service.FullDetailed(context.Background(), site.URL); err != nil {
		t.Fatalf("FullDetailed: %v", err)
	}
	seen := requests.Load()

	// The summary path must reach the narrator with the cached full
	// audit instead of crawling again.
	_, err := service.RunSummary(context.Background(), site.URL)
	if !errors.Is(err, narrator.ErrLLMUnavailable) {
		t.Fatalf("err = %v, want ErrLLMUnavailable", err)
	}
	if requests.Load() != seen {
		t.Errorf("summary triggered %d extra requests", requests.Load()-seen)
	}
}
