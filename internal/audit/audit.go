// Package audit orchestrates crawl, rule evaluation, caching and the
// executive narrator behind the two public operations.
package audit

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/site-audit/auditor/internal/cache"
	"github.com/site-audit/auditor/internal/config"
	"github.com/site-audit/auditor/internal/crawler"
	"github.com/site-audit/auditor/internal/model"
	"github.com/site-audit/auditor/internal/narrator"
	"github.com/site-audit/auditor/internal/report"
	"github.com/site-audit/auditor/internal/urlutil"
)

// Service runs audits and owns the process-wide caches.
type Service struct {
	fullProfile    config.Profile
	summaryProfile config.Profile
	auditCache     *cache.Store[*model.DetailedAudit]
	summaryCache   *cache.Store[map[string]string]
	narrator       *narrator.Narrator
	log            *logrus.Entry
}

// NewService creates the orchestrator. The narrator may be nil; summaries
// then fail with ErrLLMUnavailable.
func NewService(n *narrator.Narrator) *Service {
	return &Service{
		fullProfile:    config.FullProfile,
		summaryProfile: config.SummaryProfile,
		auditCache:     cache.New[*model.DetailedAudit](config.AuditCacheTTL),
		summaryCache:   cache.New[map[string]string](config.SummaryCacheTTL),
		narrator:       n,
		log:            logrus.WithField("component", "audit"),
	}
}

// SetRequestsPerSecond throttles outbound crawl requests for both profiles.
// Zero leaves them unlimited.
func (s *Service) SetRequestsPerSecond(rps float64) {
	s.fullProfile.RequestsPerSecond = rps
	s.summaryProfile.RequestsPerSecond = rps
}

// RunFullReport validates the URL and returns the Portuguese report,
// reusing a fresh full audit when cached.
func (s *Service) RunFullReport(ctx context.Context, rawURL string) (*report.Relatorio, error) {
	detailed, fromCache, err := s.FullDetailed(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return report.Render(detailed, fromCache), nil
}

// FullDetailed returns the full-profile detailed audit and whether it came
// from the cache.
func (s *Service) FullDetailed(ctx context.Context, rawURL string) (*model.DetailedAudit, bool, error) {
	normalized, err := urlutil.Validate(rawURL)
	if err != nil {
		return nil, false, err
	}
	detailed, fromCache := s.detailedAudit(ctx, normalized, s.fullProfile, config.AuditCacheTTL)
	return detailed, fromCache, nil
}

// RunSummary produces the seven-sentence executive summary. It reuses a
// fresh summary, then a fresh full audit, before falling back to a fast
// summary-profile crawl.
func (s *Service) RunSummary(ctx context.Context, rawURL string) (map[string]string, error) {
	normalized, err := urlutil.Validate(rawURL)
	if err != nil {
		return nil, err
	}

	if cached, ok := s.summaryCache.Get(normalized); ok {
		return copySummary(cached), nil
	}

	fullKey := auditCacheKey(normalized, s.fullProfile.Name)
	detailed, ok := s.auditCache.Get(fullKey)
	if !ok {
		detailed, _ = s.detailedAudit(ctx, normalized, s.summaryProfile, config.SummaryCacheTTL)
	}

	summary, err := s.narrator.Summarize(ctx, detailed.Sections)
	if err != nil {
		return nil, err
	}

	s.summaryCache.Set(normalized, summary)
	return copySummary(summary), nil
}

// detailedAudit serves one profile's audit through the cache, crawling on
// a miss.
func (s *Service) detailedAudit(
	ctx context.Context,
	normalized string,
	profile config.Profile,
	maxAge time.Duration,
) (*model.DetailedAudit, bool) {
	key := auditCacheKey(normalized, profile.Name)
	if cached, ok := s.auditCache.GetWithin(key, maxAge); ok {
		return cached, true
	}

	crawl := crawler.New(profile).Run(ctx, normalized)
	detailed := report.BuildDetailed(crawl, profile)
	s.auditCache.Set(key, detailed)

	s.log.WithFields(logrus.Fields{
		"url":     normalized,
		"profile": profile.Name,
		"pages":   detailed.Crawl.PagesScannedHTML,
	}).Info("audit completed")

	return detailed, false
}

func auditCacheKey(normalized, profile string) string {
	return profile + "|" + normalized
}

func copySummary(summary map[string]string) map[string]string {
	out := make(map[string]string, len(summary))
	for key, value := range summary {
		out[key] = value
	}
	return out
}
