// Package report assembles the detailed audit from a crawl: scored
// sections, the worst-page ranking, the numeric appendix and the
// Portuguese client-facing rendering.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/site-audit/auditor/internal/config"
	"github.com/site-audit/auditor/internal/findings"
	"github.com/site-audit/auditor/internal/model"
)

const (
	maxFindingsPerSection = 10
	maxNextActions        = 5
	maxWorstPages         = 20
	maxFetchErrors        = 20
)

// defaultNextAction fills next_actions when a section has no findings.
const defaultNextAction = "Manter monitoramento recorrente e validar regressao semanal."

// measuredChecklists describes what each section inspects.
var measuredChecklists = map[string][]string{
	"overall": {
		"Cobertura do crawl HTML",
		"Consolidacao de achados por severidade",
		"Status geral por score medio das categorias",
	},
	"seo": {
		"title e meta description",
		"canonical e h1",
		"links internos quebrados",
		"sitemap e robots como suporte de descoberta",
	},
	"a11y": {
		"img sem alt",
		"input sem label",
		"lang na tag html",
		"presenca de title de documento",
	},
	"content": {
		"palavras por pagina",
		"presenca de heading principal",
	},
	"performance": {
		"TTFB aproximado",
		"tamanho do HTML",
		"numero de recursos referenciados",
		"recursos potencialmente bloqueantes de renderizacao",
	},
	"indexacao": {
		"robots.txt e sitemap.xml",
		"paginas noindex",
		"conflitos de canonical",
	},
	"erros_criticos": {
		"status 4xx/5xx",
		"redirect chains",
		"mixed content",
		"limites de crawl atingidos",
	},
}

// BuildDetailed turns a crawl result into the cached detailed audit.
func BuildDetailed(crawl *model.CrawlResult, profile config.Profile) *model.DetailedAudit {
	sections, appendix, worstPages := BuildSections(crawl, profile.IncludeLimitFindings)

	fetchErrors := crawl.FetchErrors
	if len(fetchErrors) > maxFetchErrors {
		fetchErrors = fetchErrors[:maxFetchErrors]
	}

	return &model.DetailedAudit{
		URL:         crawl.URL,
		GeneratedAt: crawl.GeneratedAt,
		Crawl: model.CrawlMeta{
			PagesScannedHTML:      len(crawl.Pages),
			RuntimeSeconds:        crawl.RuntimeSeconds,
			MaxPages:              profile.MaxPages,
			MaxDepth:              profile.MaxDepth,
			MaxRuntimeSeconds:     int(profile.MaxRuntime.Seconds()),
			PerPageTimeoutSeconds: int(profile.PerPageTimeout.Seconds()),
			MaxLinkChecks:         profile.MaxLinkChecks,
			SkippedByRobots:       crawl.SkippedByRobots,
			NonHTMLURLsFound:      crawl.NonHTMLURLs,
			LimitNotes:            crawl.LimitNotes,
			FetchErrors:           fetchErrors,
		},
		Sections:   sections,
		WorstPages: worstPages,
		Appendix:   appendix,
	}
}

// BuildSections evaluates the rule catalogue and derives the seven report
// sections, the appendix and the worst-page ranking.
func BuildSections(
	crawl *model.CrawlResult,
	includeLimitFindings bool,
) (map[string]*model.Section, model.Appendix, []model.WorstPage) {
	pages := crawl.Pages
	eval := findings.Evaluate(crawl, includeLimitFindings)

	seoSummary := "Nenhuma pagina HTML analisada para SEO."
	a11ySummary := "Nenhuma pagina HTML analisada para acessibilidade."
	contentSummary := "Nenhuma pagina HTML analisada para conteudo."
	performanceSummary := "Nenhuma pagina HTML analisada para performance."
	indexacaoSummary := "Nenhuma pagina HTML analisada para indexacao."
	if len(pages) > 0 {
		seoSummary = fmt.Sprintf(
			"%d achados SEO em %d paginas HTML analisadas.",
			len(eval.Categories["seo"]), len(pages),
		)
		a11ySummary = fmt.Sprintf(
			"%d achados de acessibilidade em verificacoes basicas.",
			len(eval.Categories["a11y"]),
		)
		contentSummary = fmt.Sprintf(
			"%d achados de conteudo com foco em cobertura e estrutura.",
			len(eval.Categories["content"]),
		)
		performanceSummary = fmt.Sprintf(
			"%d achados de performance por proxies leves (TTFB, tamanho HTML e recursos).",
			len(eval.Categories["performance"]),
		)
		indexacaoSummary = fmt.Sprintf(
			"%d achados de indexacao com base em robots, sitemap, noindex e canonical.",
			len(eval.Categories["indexacao"]),
		)
	}

	sections := map[string]*model.Section{
		"seo":         buildSection(seoSummary, eval.Categories["seo"]),
		"a11y":        buildSection(a11ySummary, eval.Categories["a11y"]),
		"content":     buildSection(contentSummary, eval.Categories["content"]),
		"performance": buildSection(performanceSummary, eval.Categories["performance"]),
		"indexacao":   buildSection(indexacaoSummary, eval.Categories["indexacao"]),
	}

	criticalFindings := eval.Categories["erros_criticos"]
	criticalSummary := "Nenhum erro critico identificado."
	if len(pages) > 0 || len(criticalFindings) > 0 {
		criticalSummary = fmt.Sprintf(
			"%d achados criticos relacionados a erro HTTP, redirect chain, mixed content e limites.",
			len(criticalFindings),
		)
	}
	sections["erros_criticos"] = buildSection(criticalSummary, criticalFindings)

	var allFindings []model.Finding
	for _, key := range model.CategoryKeys {
		allFindings = append(allFindings, sections[key].Findings...)
	}

	overallSummary := "Nenhuma pagina HTML rastreada. Verifique disponibilidade e robots."
	if len(pages) > 0 {
		overallSummary = fmt.Sprintf("Crawl em %d paginas HTML; %d achados relevantes.", len(pages), len(allFindings))
	}
	overall := buildSection(overallSummary, allFindings)

	// With crawled pages, the overall score is the category mean rather
	// than the penalty walk over the merged findings.
	if len(pages) > 0 {
		sum := 0
		for _, key := range model.CategoryKeys {
			sum += sections[key].Score
		}
		overall.Score = sum / 6

		hasCritical := false
		for _, finding := range overall.Findings {
			if finding.Severity == model.SeverityCritical {
				hasCritical = true
				break
			}
		}
		switch {
		case overall.Score < 60 || hasCritical:
			overall.Status = model.StatusCritical
		case overall.Score < 85:
			overall.Status = model.StatusAttention
		default:
			overall.Status = model.StatusOK
		}
	}
	sections["overall"] = overall

	for key, measured := range measuredChecklists {
		sections[key].Measured = measured
	}

	appendix := buildAppendix(crawl, eval)
	worstPages := rankWorstPages(pages)

	return sections, appendix, worstPages
}

// buildSection orders and truncates the findings, walks the score down by
// severity penalty and derives status and next actions.
func buildSection(summary string, all []model.Finding) *model.Section {
	ordered := sortFindings(all)
	if len(ordered) > maxFindingsPerSection {
		ordered = ordered[:maxFindingsPerSection]
	}

	score := 100
	for _, finding := range ordered {
		score -= model.SeverityPenalty[finding.Severity]
	}
	if score < 0 {
		score = 0
	}

	hasCritical := false
	for _, finding := range ordered {
		if finding.Severity == model.SeverityCritical {
			hasCritical = true
			break
		}
	}

	status := model.StatusOK
	switch {
	case hasCritical || score < 60:
		status = model.StatusCritical
	case score < 85:
		status = model.StatusAttention
	}

	nextActions := []string{}
	for _, finding := range ordered {
		action := strings.TrimSpace(finding.HowToFix)
		if action == "" || contains(nextActions, action) {
			continue
		}
		nextActions = append(nextActions, action)
		if len(nextActions) >= maxNextActions {
			break
		}
	}
	if len(nextActions) == 0 {
		nextActions = []string{defaultNextAction}
	}

	return &model.Section{
		Score:       score,
		Status:      status,
		Summary:     summary,
		Findings:    ordered,
		NextActions: nextActions,
	}
}

// sortFindings orders by severity descending, then title ascending
// (case-insensitive).
func sortFindings(all []model.Finding) []model.Finding {
	ordered := make([]model.Finding, len(all))
	copy(ordered, all)
	sort.SliceStable(ordered, func(i, j int) bool {
		si := model.SeverityOrder[ordered[i].Severity]
		sj := model.SeverityOrder[ordered[j].Severity]
		if si != sj {
			return si > sj
		}
		return strings.ToLower(ordered[i].Title) < strings.ToLower(ordered[j].Title)
	})
	return ordered
}

func buildAppendix(crawl *model.CrawlResult, eval *findings.Evaluation) model.Appendix {
	imagesMissingAlt := 0
	inputsMissingLabel := 0
	for _, page := range crawl.Pages {
		imagesMissingAlt += page.ImagesMissingAlt
		inputsMissingLabel += page.InputsMissingLabel
	}

	return model.Appendix{
		PagesScannedHTML:         len(crawl.Pages),
		BrokenInternalLinksCount: len(crawl.BrokenInternalLinks),
		HTTPErrorPagesCount:      eval.Counts.HTTPErrorPages,
		NoindexPagesCount:        eval.Counts.NoindexPages,
		MissingMetaDescCount:     eval.Counts.MetaDescriptionMissing,
		MissingTitleCount:        eval.Counts.TitleMissing,
		MissingLangCount:         eval.Counts.MissingLang,
		ImagesMissingAltTotal:    imagesMissingAlt,
		InputsMissingLabelTotal:  inputsMissingLabel,
		MixedContentPagesCount:   eval.Counts.MixedContentPages,
		RedirectChainPagesCount:  eval.Counts.RedirectChainPages,
		RobotsPresent:            crawl.Robots.RobotsPresent,
		SitemapPresent:           crawl.Robots.SitemapPresent,
		LinksCheckedInternal:     crawl.LinksChecked,
		PartialCrawl:             len(crawl.LimitNotes) > 0,
	}
}

// rankWorstPages counts failed category checks per page (one point per
// category) and keeps the worst offenders.
func rankWorstPages(pages []model.PageRecord) []model.WorstPage {
	worst := []model.WorstPage{}
	for _, page := range pages {
		entry := model.WorstPage{URL: page.URL, Status: page.Status}

		if page.Title == "" || page.MetaDescription == "" || page.H1Count != 1 {
			entry.SEOIssues = 1
		}
		if page.ImagesMissingAlt > 0 || page.InputsMissingLabel > 0 || page.Lang == "" {
			entry.A11yIssues = 1
		}
		if page.WordCount < 120 {
			entry.ContentIssues = 1
		}
		if page.TTFBMs > 1200 || page.HTMLSizeBytes > 512_000 || page.RenderBlockingCount > 5 {
			entry.PerfIssues = 1
		}
		if strings.Contains(page.RobotsMeta, "noindex") {
			entry.IndexacaoIssues = 1
		}
		if page.Status >= 400 || page.RedirectHops >= 3 || page.MixedContentCount > 0 {
			entry.CriticalIssues = 1
		}

		entry.TotalIssues = entry.SEOIssues + entry.A11yIssues + entry.ContentIssues +
			entry.PerfIssues + entry.IndexacaoIssues + entry.CriticalIssues
		if entry.TotalIssues == 0 {
			continue
		}
		worst = append(worst, entry)
	}

	sort.SliceStable(worst, func(i, j int) bool {
		return worst[i].TotalIssues > worst[j].TotalIssues
	})
	if len(worst) > maxWorstPages {
		worst = worst[:maxWorstPages]
	}
	return worst
}

func contains(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}
