// Package extractor turns a fetched HTML document into a typed PageRecord.
// Extraction is a pure function of the response: same bytes, same record.
package extractor

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/site-audit/auditor/internal/fetcher"
	"github.com/site-audit/auditor/internal/model"
	"github.com/site-audit/auditor/internal/urlutil"
)

// Input types that are not expected to carry a visible label.
var unlabeledInputTypes = map[string]struct{}{
	"hidden": {},
	"submit": {},
	"button": {},
	"image":  {},
	"reset":  {},
}

// Extract builds the PageRecord for one fetched URL. Non-HTML responses
// keep their transport metadata and zeroed HTML fields.
func Extract(pageURL string, resp *fetcher.Response, origin string) model.PageRecord {
	record := model.PageRecord{
		URL:           urlutil.NormalizeLink(pageURL),
		FinalURL:      urlutil.NormalizeLink(resp.FinalURL),
		Status:        resp.StatusCode,
		IsHTML:        resp.IsHTML(),
		ContentType:   resp.ContentType,
		TTFBMs:        int(resp.TTFB.Milliseconds()),
		HTMLSizeBytes: len(resp.Body),
		RedirectHops:  resp.RedirectHops,
		InternalLinks: []string{},
	}
	if !record.IsHTML {
		return record
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return record
	}

	record.Title = collapseWhitespace(doc.Find("title").First().Text())
	record.MetaDescription = metaContent(doc, "description")
	record.Canonical = canonicalURL(doc, record.FinalURL)
	record.RobotsMeta = strings.ToLower(strings.TrimSpace(rawMetaContent(doc, "robots")))
	record.H1Count = doc.Find("h1").Length()
	record.Lang = strings.ToLower(strings.TrimSpace(doc.Find("html").First().AttrOr("lang", "")))

	images := doc.Find("img")
	record.ImagesTotal = images.Length()
	images.Each(func(_ int, img *goquery.Selection) {
		if strings.TrimSpace(img.AttrOr("alt", "")) == "" {
			record.ImagesMissingAlt++
		}
	})

	record.InputsTotal = doc.Find("input").Length()
	record.InputsMissingLabel = countInputsWithoutLabels(doc)

	resources := collectResourceURLs(doc, record.FinalURL)
	record.ResourceCount = len(resources)
	record.RenderBlockingCount = countRenderBlocking(doc)

	if strings.HasPrefix(record.FinalURL, "https://") {
		for _, ref := range resources {
			if strings.HasPrefix(strings.ToLower(ref), "http://") {
				record.MixedContentCount++
			}
		}
	}

	record.InternalLinks = extractInternalLinks(doc, record.FinalURL, origin)

	doc.Find("script, style, noscript").Remove()
	record.WordCount = len(strings.Fields(doc.Text()))

	return record
}

// metaContent returns the collapsed content of the first meta tag whose
// name matches (case-insensitive).
func metaContent(doc *goquery.Document, name string) string {
	return collapseWhitespace(rawMetaContent(doc, name))
}

func rawMetaContent(doc *goquery.Document, name string) string {
	var content string
	doc.Find("meta").EachWithBreak(func(_ int, meta *goquery.Selection) bool {
		if strings.EqualFold(strings.TrimSpace(meta.AttrOr("name", "")), name) {
			content = meta.AttrOr("content", "")
			return false
		}
		return true
	})
	return content
}

// canonicalURL finds the first <link> whose rel tokens contain "canonical"
// and returns its href joined absolutely and normalized.
func canonicalURL(doc *goquery.Document, pageURL string) string {
	var canonical string
	doc.Find("link[href]").EachWithBreak(func(_ int, link *goquery.Selection) bool {
		for _, token := range strings.Fields(strings.ToLower(link.AttrOr("rel", ""))) {
			if token == "canonical" {
				if absolute, err := urlutil.Resolve(pageURL, link.AttrOr("href", "")); err == nil {
					canonical = urlutil.NormalizeLink(absolute)
				}
				return false
			}
		}
		return true
	})
	return canonical
}

// countInputsWithoutLabels counts inputs that have no accessible label via
// aria attributes, a <label for=...> reference, or a wrapping <label>.
func countInputsWithoutLabels(doc *goquery.Document) int {
	labelsFor := make(map[string]struct{})
	doc.Find("label[for]").Each(func(_ int, label *goquery.Selection) {
		if target := strings.TrimSpace(label.AttrOr("for", "")); target != "" {
			labelsFor[target] = struct{}{}
		}
	})

	missing := 0
	doc.Find("input").Each(func(_ int, input *goquery.Selection) {
		inputType := strings.ToLower(strings.TrimSpace(input.AttrOr("type", "text")))
		if inputType == "" {
			inputType = "text"
		}
		if _, skip := unlabeledInputTypes[inputType]; skip {
			return
		}
		if strings.TrimSpace(input.AttrOr("aria-label", "")) != "" ||
			strings.TrimSpace(input.AttrOr("aria-labelledby", "")) != "" {
			return
		}
		if id := strings.TrimSpace(input.AttrOr("id", "")); id != "" {
			if _, ok := labelsFor[id]; ok {
				return
			}
		}
		if input.ParentsFiltered("label").Length() > 0 {
			return
		}
		missing++
	})
	return missing
}

// countRenderBlocking counts head-level scripts without async/defer plus
// head-level stylesheets.
func countRenderBlocking(doc *goquery.Document) int {
	head := doc.Find("head").First()
	if head.Length() == 0 {
		return 0
	}

	count := 0
	head.Find("script[src]").Each(func(_ int, script *goquery.Selection) {
		_, hasAsync := script.Attr("async")
		_, hasDefer := script.Attr("defer")
		if !hasAsync && !hasDefer {
			count++
		}
	})
	head.Find("link[href]").Each(func(_ int, link *goquery.Selection) {
		for _, token := range strings.Fields(strings.ToLower(link.AttrOr("rel", ""))) {
			if token == "stylesheet" {
				count++
				return
			}
		}
	})
	return count
}

// collectResourceURLs gathers every referenced sub-resource as an
// absolute URL.
func collectResourceURLs(doc *goquery.Document, pageURL string) []string {
	var urls []string
	doc.Find("script, img, iframe, source").Each(func(_ int, tag *goquery.Selection) {
		src := strings.TrimSpace(tag.AttrOr("src", ""))
		if src == "" {
			src = strings.TrimSpace(tag.AttrOr("data-src", ""))
		}
		if src == "" {
			return
		}
		if absolute, err := urlutil.Resolve(pageURL, src); err == nil {
			urls = append(urls, absolute)
		}
	})
	doc.Find("link[href]").Each(func(_ int, link *goquery.Selection) {
		href := strings.TrimSpace(link.AttrOr("href", ""))
		if href == "" {
			return
		}
		if absolute, err := urlutil.Resolve(pageURL, href); err == nil {
			urls = append(urls, absolute)
		}
	})
	return urls
}

// extractInternalLinks resolves every anchor href and keeps same-origin
// HTTP(S) URLs, normalized and deduped in first-seen order.
func extractInternalLinks(doc *goquery.Document, baseURL, origin string) []string {
	found := []string{}
	seen := make(map[string]struct{})

	doc.Find("a[href]").Each(func(_ int, anchor *goquery.Selection) {
		href := strings.TrimSpace(anchor.AttrOr("href", ""))
		if href == "" ||
			strings.HasPrefix(href, "#") ||
			strings.HasPrefix(href, "mailto:") ||
			strings.HasPrefix(href, "tel:") ||
			strings.HasPrefix(href, "javascript:") {
			return
		}
		absolute, err := urlutil.Resolve(baseURL, href)
		if err != nil {
			return
		}
		if idx := strings.Index(absolute, "#"); idx >= 0 {
			absolute = absolute[:idx]
		}
		if !urlutil.IsHTTPURL(absolute) || !urlutil.SameOrigin(absolute, origin) {
			return
		}
		normalized := urlutil.NormalizeLink(absolute)
		if _, dup := seen[normalized]; dup {
			return
		}
		seen[normalized] = struct{}{}
		found = append(found, normalized)
	})
	return found
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
