// Package robots probes a site's robots.txt and sitemap.xml once per audit
// and compiles an RFC 9309 matcher for the audit User-Agent.
package robots

import (
	"context"
	"net/url"
	"strings"

	"github.com/temoto/robotstxt"
	"golang.org/x/sync/errgroup"

	"github.com/site-audit/auditor/internal/fetcher"
	"github.com/site-audit/auditor/internal/model"
	"github.com/site-audit/auditor/internal/urlutil"
)

// Probe holds the result of the one-shot robots/sitemap check.
type Probe struct {
	Info  model.RobotsInfo
	group *robotstxt.Group
}

// Fetch retrieves robots.txt and sitemap.xml from the seed's origin. Both
// requests run concurrently; the sitemap response only matters when the
// robots body does not declare a sitemap itself.
func Fetch(ctx context.Context, f *fetcher.Fetcher, startURL, userAgent string) *Probe {
	origin := urlutil.Origin(startURL)
	probe := &Probe{
		Info: model.RobotsInfo{
			RobotsURL:  origin + "/robots.txt",
			SitemapURL: origin + "/sitemap.xml",
		},
	}

	var robotsResp, sitemapResp *fetcher.Response
	var group errgroup.Group
	group.Go(func() error {
		robotsResp = f.Get(ctx, probe.Info.RobotsURL)
		return nil
	})
	group.Go(func() error {
		sitemapResp = f.Get(ctx, probe.Info.SitemapURL)
		return nil
	})
	group.Wait()

	robotsBody := ""
	if robotsResp.Err == nil {
		probe.Info.RobotsStatus = robotsResp.StatusCode
		robotsBody = string(robotsResp.Body)
		if robotsResp.StatusCode == 200 {
			probe.Info.RobotsPresent = true
			if data, err := robotstxt.FromBytes(robotsResp.Body); err == nil {
				probe.group = data.FindGroup(userAgent)
			}
		}
	}

	probe.Info.SitemapPresent = strings.Contains(strings.ToLower(robotsBody), "sitemap:")
	if !probe.Info.SitemapPresent && sitemapResp.Err == nil && sitemapResp.StatusCode == 200 {
		probe.Info.SitemapPresent = true
	}

	return probe
}

// Allowed reports whether the compiled rules permit fetching the URL.
// With no parseable robots.txt everything is allowed.
func (p *Probe) Allowed(rawURL string) bool {
	if p == nil || p.group == nil {
		return true
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return true
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return p.group.Test(path)
}
