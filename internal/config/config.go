// Package config defines audit budgets, profiles and environment-derived
// settings.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// UserAgent identifies all outbound HTTP requests.
const UserAgent = "SimpleSiteAuditBot/1.0"

// Cache lifetimes for the process-wide stores.
const (
	AuditCacheTTL   = 900 * time.Second
	SummaryCacheTTL = 600 * time.Second
)

// LLMTimeout bounds the narrator's chat-completion call.
const LLMTimeout = 30 * time.Second

// Profile is a named budget preset for one crawl.
type Profile struct {
	// Profile name: "summary" or "full"
	Name string

	// === Budgets ===

	// Maximum HTML pages to fetch
	MaxPages int

	// Maximum BFS depth from the seed
	MaxDepth int

	// Wall-clock limit for the whole crawl
	MaxRuntime time.Duration

	// Maximum internal links verified in phase 2 (0 = skip)
	MaxLinkChecks int

	// Per-request deadline
	PerPageTimeout time.Duration

	// === Behavior ===

	// Emit critical_partial_crawl when a budget trips
	IncludeLimitFindings bool

	// Politeness limit for outbound requests (0 = unlimited)
	RequestsPerSecond float64
}

// Presets for the two execution profiles.
var (
	// FullProfile backs POST /report.
	FullProfile = Profile{
		Name:                 "full",
		MaxPages:             150,
		MaxDepth:             6,
		MaxRuntime:           120 * time.Second,
		MaxLinkChecks:        400,
		PerPageTimeout:       20 * time.Second,
		IncludeLimitFindings: true,
	}

	// SummaryProfile backs the fast crawl behind /analyze_summary.
	SummaryProfile = Profile{
		Name:                 "summary",
		MaxPages:             12,
		MaxDepth:             1,
		MaxRuntime:           8 * time.Second,
		MaxLinkChecks:        0,
		PerPageTimeout:       5 * time.Second,
		IncludeLimitFindings: false,
	}
)

// App holds the environment-derived process configuration.
type App struct {
	// APIToken authenticates the HTTP API (required to serve)
	APIToken string

	// LLMAPIKey enables the executive narrator when set
	LLMAPIKey string

	// LLMModel overrides the per-provider default model
	LLMModel string

	// Addr is the listen address for the HTTP server
	Addr string

	// CrawlRPS throttles outbound crawl requests (0 = unlimited)
	CrawlRPS float64
}

// FromEnv reads the process configuration from the environment.
func FromEnv() App {
	addr := strings.TrimSpace(os.Getenv("PORT"))
	if addr == "" {
		addr = "8000"
	}
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	var crawlRPS float64
	if raw := strings.TrimSpace(os.Getenv("CRAWL_RPS")); raw != "" {
		if parsed, err := strconv.ParseFloat(raw, 64); err == nil && parsed > 0 {
			crawlRPS = parsed
		}
	}

	return App{
		APIToken:  strings.TrimSpace(os.Getenv("API_TOKEN")),
		LLMAPIKey: strings.TrimSpace(os.Getenv("LLM_API_KEY")),
		LLMModel:  strings.TrimSpace(os.Getenv("LLM_MODEL")),
		Addr:      addr,
		CrawlRPS:  crawlRPS,
	}
}
