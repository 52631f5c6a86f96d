// Package crawler implements the bounded breadth-first site crawl and the
// internal-link verification pass that follows it.
package crawler

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/site-audit/auditor/internal/config"
	"github.com/site-audit/auditor/internal/extractor"
	"github.com/site-audit/auditor/internal/fetcher"
	"github.com/site-audit/auditor/internal/model"
	"github.com/site-audit/auditor/internal/robots"
	"github.com/site-audit/auditor/internal/urlutil"
)

// Limit notes appended when a budget trips. Each appears at most once.
const (
	NoteMaxRuntimeCrawl = "MAX_RUNTIME_SECONDS reached during crawl."
	NoteMaxPages        = "MAX_PAGES reached."
	NoteMaxLinkChecks   = "MAX_LINK_CHECKS reached while checking internal links."
	NoteMaxRuntimeLinks = "MAX_RUNTIME_SECONDS reached while checking internal links."
)

// queueItem is one frontier entry.
type queueItem struct {
	url   string
	depth int
}

// Crawler runs budgeted site crawls for a single profile.
type Crawler struct {
	profile config.Profile
	limiter *rate.Limiter
	log     *logrus.Entry
}

// New creates a crawler for the given profile.
func New(profile config.Profile) *Crawler {
	c := &Crawler{
		profile: profile,
		log:     logrus.WithField("component", "crawler"),
	}
	if profile.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(profile.RequestsPerSecond), 1)
	}
	return c
}

// Run crawls breadth-first from the seed under the profile budgets, then
// verifies internal-link reachability. The seed must already be validated
// and normalized. Transport failures become per-page records; Run itself
// never fails.
func (c *Crawler) Run(ctx context.Context, startURL string) *model.CrawlResult {
	started := time.Now()

	f := fetcher.New(config.UserAgent, c.profile.PerPageTimeout)
	defer f.Close()

	probe := robots.Fetch(ctx, f, startURL, config.UserAgent)

	queue := []queueItem{{url: startURL, depth: 0}}
	queued := map[string]struct{}{startURL: {}}
	visited := make(map[string]struct{})
	allInternalLinks := make(map[string]struct{})

	result := &model.CrawlResult{
		URL:                 startURL,
		Pages:               []model.PageRecord{},
		StatusCache:         make(map[string]int),
		BrokenInternalLinks: []model.BrokenLink{},
		FetchErrors:         []model.FetchError{},
		Robots:              probe.Info,
		LimitNotes:          []string{},
	}

	c.log.WithFields(logrus.Fields{
		"url":     startURL,
		"profile": c.profile.Name,
	}).Info("starting crawl")

	for len(queue) > 0 {
		if time.Since(started) >= c.profile.MaxRuntime {
			c.addNote(result, NoteMaxRuntimeCrawl)
			break
		}
		if len(result.Pages) >= c.profile.MaxPages {
			c.addNote(result, NoteMaxPages)
			break
		}

		item := queue[0]
		queue = queue[1:]
		delete(queued, item.url)

		if _, seen := visited[item.url]; seen {
			continue
		}
		visited[item.url] = struct{}{}
		if item.depth > c.profile.MaxDepth {
			continue
		}
		if !probe.Allowed(item.url) {
			result.SkippedByRobots++
			continue
		}

		c.wait(ctx)
		resp := f.Get(ctx, item.url)

		var page model.PageRecord
		if resp.Err != nil {
			page = failureRecord(item.url, item.depth, resp.ErrorString())
			result.FetchErrors = append(result.FetchErrors, model.FetchError{
				URL:   item.url,
				Error: page.Error,
			})
		} else {
			page = extractor.Extract(item.url, resp, startURL)
			page.Depth = item.depth
		}

		result.StatusCache[page.URL] = page.Status
		result.StatusCache[page.FinalURL] = page.Status

		if page.IsHTML {
			result.Pages = append(result.Pages, page)
			for _, link := range page.InternalLinks {
				allInternalLinks[link] = struct{}{}
				if item.depth >= c.profile.MaxDepth {
					continue
				}
				if _, seen := visited[link]; seen {
					continue
				}
				if _, pending := queued[link]; pending {
					continue
				}
				queued[link] = struct{}{}
				queue = append(queue, queueItem{url: link, depth: item.depth + 1})
			}
		} else {
			result.NonHTMLURLs++
		}
	}

	result.AllInternalLinkCount = len(allInternalLinks)
	c.verifyLinks(ctx, f, probe, result, allInternalLinks, started)

	result.GeneratedAt = time.Now().UTC().Truncate(time.Second).Format(time.RFC3339)
	result.RuntimeSeconds = math.Round(time.Since(started).Seconds()*100) / 100

	c.log.WithFields(logrus.Fields{
		"pages":         len(result.Pages),
		"links_checked": result.LinksChecked,
		"broken_links":  len(result.BrokenInternalLinks),
		"runtime_s":     result.RuntimeSeconds,
	}).Info("crawl finished")

	return result
}

// verifyLinks checks every discovered internal link in lexicographic order,
// reusing statuses seen during the crawl. Skipped entirely when the
// profile's link-check budget is zero.
func (c *Crawler) verifyLinks(
	ctx context.Context,
	f *fetcher.Fetcher,
	probe *robots.Probe,
	result *model.CrawlResult,
	allInternalLinks map[string]struct{},
	started time.Time,
) {
	if c.profile.MaxLinkChecks <= 0 {
		return
	}

	links := make([]string, 0, len(allInternalLinks))
	for link := range allInternalLinks {
		links = append(links, link)
	}
	sort.Strings(links)

	for _, link := range links {
		if result.LinksChecked >= c.profile.MaxLinkChecks {
			c.addNote(result, NoteMaxLinkChecks)
			break
		}
		if time.Since(started) >= c.profile.MaxRuntime {
			c.addNote(result, NoteMaxRuntimeLinks)
			break
		}
		if !probe.Allowed(link) {
			continue
		}

		result.LinksChecked++
		status, cached := result.StatusCache[link]
		if !cached {
			c.wait(ctx)
			status = f.CheckLink(ctx, link)
			result.StatusCache[link] = status
		}

		if status >= 400 || status == 0 {
			result.BrokenInternalLinks = append(result.BrokenInternalLinks, model.BrokenLink{
				URL:    link,
				Status: status,
			})
		}
	}
}

// addNote appends a limit note once.
func (c *Crawler) addNote(result *model.CrawlResult, note string) {
	for _, existing := range result.LimitNotes {
		if existing == note {
			return
		}
	}
	result.LimitNotes = append(result.LimitNotes, note)
	c.log.WithField("note", note).Warn("crawl budget reached")
}

// wait applies the politeness limiter when one is configured.
func (c *Crawler) wait(ctx context.Context) {
	if c.limiter != nil {
		c.limiter.Wait(ctx)
	}
}

// failureRecord synthesizes the record for a URL whose fetch failed at the
// transport level.
func failureRecord(rawURL string, depth int, errString string) model.PageRecord {
	normalized := urlutil.NormalizeLink(rawURL)
	return model.PageRecord{
		URL:           normalized,
		FinalURL:      normalized,
		Depth:         depth,
		Status:        0,
		InternalLinks: []string{},
		Error:         errString,
	}
}
