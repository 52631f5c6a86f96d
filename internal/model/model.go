// Package model defines the value types shared across the audit engine.
package model

// Severity levels for findings.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
)

// Section status labels.
const (
	StatusOK        = "ok"
	StatusAttention = "attention"
	StatusCritical  = "critical"
)

// SeverityOrder ranks severities for sorting (higher = more severe).
var SeverityOrder = map[string]int{
	SeverityCritical: 4,
	SeverityHigh:     3,
	SeverityMedium:   2,
	SeverityLow:      1,
}

// SeverityPenalty is the score deduction per retained finding.
var SeverityPenalty = map[string]int{
	SeverityCritical: 35,
	SeverityHigh:     20,
	SeverityMedium:   10,
	SeverityLow:      4,
}

// SectionKeys lists the report sections in canonical order.
var SectionKeys = []string{
	"overall",
	"seo",
	"a11y",
	"content",
	"performance",
	"indexacao",
	"erros_criticos",
}

// CategoryKeys lists the six scored categories (SectionKeys minus overall).
var CategoryKeys = []string{
	"seo",
	"a11y",
	"content",
	"performance",
	"indexacao",
	"erros_criticos",
}

// PageRecord holds everything extracted from one crawled URL.
// Non-HTML responses carry transport metadata with the HTML-derived
// fields left zero.
type PageRecord struct {
	URL      string `json:"url"`
	FinalURL string `json:"final_url"`
	Depth    int    `json:"depth"`

	Status        int    `json:"status"`
	IsHTML        bool   `json:"is_html"`
	ContentType   string `json:"content_type"`
	RedirectHops  int    `json:"redirect_hops"`
	HTMLSizeBytes int    `json:"html_size_bytes"`
	TTFBMs        int    `json:"ttfb_ms"`

	Title           string `json:"title"`
	MetaDescription string `json:"meta_description"`
	Canonical       string `json:"canonical"`
	RobotsMeta      string `json:"robots_meta"`

	H1Count       int      `json:"h1_count"`
	Lang          string   `json:"lang"`
	WordCount     int      `json:"word_count"`
	InternalLinks []string `json:"internal_links"`

	ImagesTotal        int `json:"images_total"`
	ImagesMissingAlt   int `json:"images_missing_alt"`
	InputsTotal        int `json:"inputs_total"`
	InputsMissingLabel int `json:"inputs_missing_label"`

	ResourceCount       int `json:"resource_count"`
	RenderBlockingCount int `json:"render_blocking_count"`
	MixedContentCount   int `json:"mixed_content_count"`

	Error string `json:"error,omitempty"`
}

// FetchError records a transport failure for one URL.
type FetchError struct {
	URL   string `json:"url"`
	Error string `json:"error"`
}

// BrokenLink is an internal link that answered 4xx/5xx or failed outright.
type BrokenLink struct {
	URL    string `json:"url"`
	Status int    `json:"status"`
}

// RobotsInfo summarizes the robots.txt and sitemap probe.
type RobotsInfo struct {
	RobotsURL      string `json:"robots_url"`
	RobotsPresent  bool   `json:"robots_present"`
	RobotsStatus   int    `json:"robots_status"`
	SitemapURL     string `json:"sitemap_url"`
	SitemapPresent bool   `json:"sitemap_present"`
}

// CrawlResult is the complete outcome of one bounded crawl.
type CrawlResult struct {
	URL                  string         `json:"url"`
	GeneratedAt          string         `json:"generated_at"`
	Pages                []PageRecord   `json:"pages"`
	StatusCache          map[string]int `json:"status_cache"`
	BrokenInternalLinks  []BrokenLink   `json:"broken_internal_links"`
	LinksChecked         int            `json:"links_checked"`
	AllInternalLinkCount int            `json:"all_internal_links_count"`
	SkippedByRobots      int            `json:"skipped_by_robots"`
	NonHTMLURLs          int            `json:"non_html_urls"`
	FetchErrors          []FetchError   `json:"fetch_errors"`
	Robots               RobotsInfo     `json:"robots"`
	LimitNotes           []string       `json:"limit_notes"`
	RuntimeSeconds       float64        `json:"runtime_seconds"`
}

// Evidence points at one concrete occurrence of a finding.
type Evidence struct {
	URL      string `json:"url"`
	Selector string `json:"selector,omitempty"`
	Value    any    `json:"value,omitempty"`
	Metric   any    `json:"metric,omitempty"`
}

// Finding is a single testable issue with severity and a recommended fix.
type Finding struct {
	ID           string     `json:"id"`
	Severity     string     `json:"severity"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Impact       string     `json:"impact"`
	HowToFix     string     `json:"how_to_fix"`
	Evidence     []Evidence `json:"evidence"`
	AffectedURLs []string   `json:"affected_urls"`
}

// Section is one category view of the report.
type Section struct {
	Score       int       `json:"score"`
	Status      string    `json:"status"`
	Summary     string    `json:"summary"`
	Findings    []Finding `json:"findings"`
	NextActions []string  `json:"next_actions"`
	Measured    []string  `json:"measured"`
}

// WorstPage ranks a page by how many category checks it fails.
type WorstPage struct {
	URL             string `json:"url"`
	Status          int    `json:"status"`
	TotalIssues     int    `json:"total_issues"`
	SEOIssues       int    `json:"seo_issues"`
	A11yIssues      int    `json:"a11y_issues"`
	ContentIssues   int    `json:"content_issues"`
	PerfIssues      int    `json:"performance_issues"`
	IndexacaoIssues int    `json:"indexacao_issues"`
	CriticalIssues  int    `json:"critical_issues"`
}

// Appendix is the numeric summary attached to every report.
type Appendix struct {
	PagesScannedHTML         int  `json:"pages_scanned_html"`
	BrokenInternalLinksCount int  `json:"broken_internal_links_count"`
	HTTPErrorPagesCount      int  `json:"http_4xx_5xx_pages_count"`
	NoindexPagesCount        int  `json:"noindex_pages_count"`
	MissingMetaDescCount     int  `json:"missing_meta_description_count"`
	MissingTitleCount        int  `json:"missing_title_count"`
	MissingLangCount         int  `json:"missing_lang_count"`
	ImagesMissingAltTotal    int  `json:"images_missing_alt_total"`
	InputsMissingLabelTotal  int  `json:"inputs_missing_label_total"`
	MixedContentPagesCount   int  `json:"mixed_content_pages_count"`
	RedirectChainPagesCount  int  `json:"redirect_chain_pages_count"`
	RobotsPresent            bool `json:"robots_present"`
	SitemapPresent           bool `json:"sitemap_present"`
	LinksCheckedInternal     int  `json:"links_checked_internal"`
	PartialCrawl             bool `json:"partial_crawl"`
}

// CrawlMeta echoes the budgets and counters of one crawl back into the
// detailed audit.
type CrawlMeta struct {
	PagesScannedHTML      int          `json:"pages_scanned_html"`
	RuntimeSeconds        float64      `json:"runtime_seconds"`
	MaxPages              int          `json:"max_pages"`
	MaxDepth              int          `json:"max_depth"`
	MaxRuntimeSeconds     int          `json:"max_runtime_seconds"`
	PerPageTimeoutSeconds int          `json:"per_page_timeout_seconds"`
	MaxLinkChecks         int          `json:"max_link_checks"`
	SkippedByRobots       int          `json:"skipped_by_robots"`
	NonHTMLURLsFound      int          `json:"non_html_urls_found"`
	LimitNotes            []string     `json:"limit_notes"`
	FetchErrors           []FetchError `json:"fetch_errors"`
}

// DetailedAudit is the profile-agnostic audit result cached by the
// orchestrator and rendered by the report package.
type DetailedAudit struct {
	URL         string              `json:"url"`
	GeneratedAt string              `json:"generated_at"`
	Crawl       CrawlMeta           `json:"crawl"`
	Sections    map[string]*Section `json:"sections"`
	WorstPages  []WorstPage         `json:"worst_pages"`
	Appendix    Appendix            `json:"appendix"`
}
