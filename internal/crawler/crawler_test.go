package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/site-audit/auditor/internal/config"
)

func testProfile() config.Profile {
	return config.Profile{
		Name:                 "test",
		MaxPages:             10,
		MaxDepth:             2,
		MaxRuntime:           30 * time.Second,
		MaxLinkChecks:        10,
		PerPageTimeout:       5 * time.Second,
		IncludeLimitFindings: true,
	}
}

// newTestSite serves a root page linking to /a, /b and /missing. /b fails
// with 500, everything unknown with 404; both failures are HTML.
func newTestSite(robotsBody string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/robots.txt":
			if robotsBody == "" {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			w.Header().Set("Content-Type", "text/plain")
			fmt.Fprint(w, robotsBody)
		case "/":
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, `<html><body>
				<a href="/a">A</a>
				<a href="/b">B</a>
				<a href="/missing">M</a>
			</body></html>`)
		case "/a":
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, `<html><head><title>Pagina A com titulo</title></head><body><h1>A</h1></body></html>`)
		case "/b":
			w.Header().Set("Content-Type", "text/html")
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, "<html><body>erro</body></html>")
		default:
			w.Header().Set("Content-Type", "text/html")
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, "<html><body>404</body></html>")
		}
	}))
}

func TestRunCrawlsBreadthFirst(t *testing.T) {
	srv := newTestSite("")
	defer srv.Close()

	result := New(testProfile()).Run(context.Background(), srv.URL+"/")

	if len(result.Pages) != 4 {
		t.Fatalf("pages = %d, want 4", len(result.Pages))
	}
	if result.Pages[0].URL != srv.URL+"/" || result.Pages[0].Depth != 0 {
		t.Errorf("seed page = %q depth %d", result.Pages[0].URL, result.Pages[0].Depth)
	}
	wantOrder := []string{srv.URL + "/a", srv.URL + "/b", srv.URL + "/missing"}
	for i, want := range wantOrder {
		page := result.Pages[i+1]
		if page.URL != want || page.Depth != 1 {
			t.Errorf("pages[%d] = %q depth %d, want %q depth 1", i+1, page.URL, page.Depth, want)
		}
	}

	if result.Pages[2].Status != 500 {
		t.Errorf("/b status = %d, want 500", result.Pages[2].Status)
	}

	if result.AllInternalLinkCount != 3 {
		t.Errorf("AllInternalLinkCount = %d, want 3", result.AllInternalLinkCount)
	}
	if result.LinksChecked != 3 {
		t.Errorf("LinksChecked = %d, want 3", result.LinksChecked)
	}
	if len(result.BrokenInternalLinks) != 2 {
		t.Fatalf("broken links = %v, want 2 entries", result.BrokenInternalLinks)
	}
	// Verification runs in lexicographic order, so /b precedes /missing.
	if result.BrokenInternalLinks[0].URL != srv.URL+"/b" || result.BrokenInternalLinks[0].Status != 500 {
		t.Errorf("broken[0] = %+v", result.BrokenInternalLinks[0])
	}
	if result.BrokenInternalLinks[1].URL != srv.URL+"/missing" || result.BrokenInternalLinks[1].Status != 404 {
		t.Errorf("broken[1] = %+v", result.BrokenInternalLinks[1])
	}

	if len(result.LimitNotes) != 0 {
		t.Errorf("LimitNotes = %v, want none", result.LimitNotes)
	}
	if result.Robots.RobotsPresent {
		t.Error("robots reported present without robots.txt")
	}
	if result.GeneratedAt == "" {
		t.Error("GeneratedAt is empty")
	}
}

func TestRunStopsAtMaxPages(t *testing.T) {
	srv := newTestSite("")
	defer srv.Close()

	profile := testProfile()
	profile.MaxPages = 1
	result := New(profile).Run(context.Background(), srv.URL+"/")

	if len(result.Pages) != 1 {
		t.Fatalf("pages = %d, want 1", len(result.Pages))
	}
	if len(result.LimitNotes) != 1 || result.LimitNotes[0] != NoteMaxPages {
		t.Fatalf("LimitNotes = %v, want [%q]", result.LimitNotes, NoteMaxPages)
	}
}

func TestRunDepthZeroStillVerifiesLinks(t *testing.T) {
	srv := newTestSite("")
	defer srv.Close()

	profile := testProfile()
	profile.MaxDepth = 0
	result := New(profile).Run(context.Background(), srv.URL+"/")

	if len(result.Pages) != 1 {
		t.Fatalf("pages = %d, want 1", len(result.Pages))
	}
	// Links were never fetched during the crawl, so the verification pass
	// has to check them itself.
	if result.LinksChecked != 3 {
		t.Errorf("LinksChecked = %d, want 3", result.LinksChecked)
	}
	if len(result.BrokenInternalLinks) != 2 {
		t.Errorf("broken links = %v, want 2 entries", result.BrokenInternalLinks)
	}
}

func TestRunSkipsDisallowedPaths(t *testing.T) {
	srv := newTestSite("User-agent: *\nDisallow: /b\n")
	defer srv.Close()

	result := New(testProfile()).Run(context.Background(), srv.URL+"/")

	if result.SkippedByRobots != 1 {
		t.Fatalf("SkippedByRobots = %d, want 1", result.SkippedByRobots)
	}
	for _, page := range result.Pages {
		if page.URL == srv.URL+"/b" {
			t.Fatal("disallowed path was fetched")
		}
	}
	// Disallowed links are not verified either.
	if result.LinksChecked != 2 {
		t.Errorf("LinksChecked = %d, want 2", result.LinksChecked)
	}
	if !result.Robots.RobotsPresent {
		t.Error("robots.txt not detected")
	}
	if result.Robots.SitemapPresent {
		t.Error("sitemap reported present")
	}
}

func TestNewConfiguresLimiter(t *testing.T) {
	if c := New(testProfile()); c.limiter != nil {
		t.Error("limiter configured with RequestsPerSecond = 0")
	}

	profile := testProfile()
	profile.RequestsPerSecond = 2
	if c := New(profile); c.limiter == nil {
		t.Error("limiter not configured with RequestsPerSecond > 0")
	}
}

func TestRunThrottlesRequests(t *testing.T) {
	srv := newTestSite("")
	defer srv.Close()

	profile := testProfile()
	profile.RequestsPerSecond = 100
	profile.MaxLinkChecks = 0

	started := time.Now()
	result := New(profile).Run(context.Background(), srv.URL+"/")
	elapsed := time.Since(started)

	if len(result.Pages) != 4 {
		t.Fatalf("pages = %d, want 4", len(result.Pages))
	}
	// Four throttled fetches at 100 rps leave at least three 10ms gaps.
	if elapsed < 30*time.Millisecond {
		t.Errorf("crawl finished in %v, want >= 30ms under throttling", elapsed)
	}
}

func TestRunRecordsFetchErrors(t *testing.T) {
	srv := newTestSite("")
	seed := srv.URL + "/"
	srv.Close()

	result := New(testProfile()).Run(context.Background(), seed)

	if len(result.Pages) != 0 {
		t.Fatalf("pages = %d, want 0", len(result.Pages))
	}
	if len(result.FetchErrors) != 1 {
		t.Fatalf("FetchErrors = %v, want one entry", result.FetchErrors)
	}
	if result.FetchErrors[0].URL != seed || result.FetchErrors[0].Error == "" {
		t.Errorf("FetchErrors[0] = %+v", result.FetchErrors[0])
	}
	if status := result.StatusCache[seed]; status != 0 {
		t.Errorf("StatusCache[%q] = %d, want 0", seed, status)
	}
	if result.NonHTMLURLs != 1 {
		t.Errorf("NonHTMLURLs = %d, want 1", result.NonHTMLURLs)
	}
}
