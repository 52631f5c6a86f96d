package report

import (
	"fmt"
	"testing"

	"github.com/site-audit/auditor/internal/config"
	"github.com/site-audit/auditor/internal/model"
)

func mkFinding(id, severity, title, fix string) model.Finding {
	return model.Finding{
		ID:       id,
		Severity: severity,
		Title:    title,
		HowToFix: fix,
		Evidence: []model.Evidence{},
	}
}

func TestBuildSectionScoring(t *testing.T) {
	tests := []struct {
		name       string
		severities []string
		wantScore  int
		wantStatus string
	}{
		{"no findings", nil, 100, model.StatusOK},
		{"one medium", []string{model.SeverityMedium}, 90, model.StatusOK},
		{"two mediums", []string{model.SeverityMedium, model.SeverityMedium}, 80, model.StatusAttention},
		{"high and medium", []string{model.SeverityHigh, model.SeverityMedium}, 70, model.StatusAttention},
		{"critical forces status", []string{model.SeverityCritical}, 65, model.StatusCritical},
		{"low score forces status", []string{model.SeverityHigh, model.SeverityHigh, model.SeverityLow}, 56, model.StatusCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var items []model.Finding
			for i, severity := range tt.severities {
				items = append(items, mkFinding(fmt.Sprintf("f%d", i), severity, "t", "corrigir"))
			}
			section := buildSection("resumo", items)

			if section.Score != tt.wantScore {
				t.Errorf("score = %d, want %d", section.Score, tt.wantScore)
			}
			if section.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", section.Status, tt.wantStatus)
			}
		})
	}
}

func TestBuildSectionScoreFloorsAtZero(t *testing.T) {
	var items []model.Finding
	for i := 0; i < 4; i++ {
		items = append(items, mkFinding(fmt.Sprintf("c%d", i), model.SeverityCritical, fmt.Sprintf("t%d", i), "fix"))
	}
	section := buildSection("resumo", items)

	if section.Score != 0 {
		t.Errorf("score = %d, want 0", section.Score)
	}
}

func TestBuildSectionTruncatesFindings(t *testing.T) {
	var items []model.Finding
	for i := 0; i < 12; i++ {
		items = append(items, mkFinding(fmt.Sprintf("l%02d", i), model.SeverityLow, fmt.Sprintf("t%02d", i), fmt.Sprintf("fix %d", i)))
	}
	section := buildSection("resumo", items)

	if len(section.Findings) != 10 {
		t.Fatalf("findings = %d, want 10", len(section.Findings))
	}
	// Penalty only applies to retained findings.
	if section.Score != 60 {
		t.Errorf("score = %d, want 60", section.Score)
	}
	if len(section.NextActions) != 5 {
		t.Errorf("next actions = %d, want 5", len(section.NextActions))
	}
}

func TestBuildSectionNextActionsDedup(t *testing.T) {
	items := []model.Finding{
		mkFinding("a", model.SeverityMedium, "a", "mesma acao"),
		mkFinding("b", model.SeverityMedium, "b", "mesma acao"),
		mkFinding("c", model.SeverityMedium, "c", "outra acao"),
	}
	section := buildSection("resumo", items)

	want := []string{"mesma acao", "outra acao"}
	if len(section.NextActions) != len(want) {
		t.Fatalf("next actions = %v, want %v", section.NextActions, want)
	}
	for i := range want {
		if section.NextActions[i] != want[i] {
			t.Errorf("next actions = %v, want %v", section.NextActions, want)
		}
	}
}

func TestBuildSectionDefaultNextAction(t *testing.T) {
	section := buildSection("resumo", nil)
	if len(section.NextActions) != 1 || section.NextActions[0] != defaultNextAction {
		t.Fatalf("next actions = %v", section.NextActions)
	}
}

func TestSortFindings(t *testing.T) {
	items := []model.Finding{
		mkFinding("1", model.SeverityMedium, "Zebra", ""),
		mkFinding("2", model.SeverityCritical, "beta", ""),
		mkFinding("3", model.SeverityMedium, "alfa", ""),
		mkFinding("4", model.SeverityHigh, "Gama", ""),
	}
	ordered := sortFindings(items)

	wantIDs := []string{"2", "4", "3", "1"}
	for i, want := range wantIDs {
		if ordered[i].ID != want {
			t.Fatalf("order = %v, want IDs %v", ordered, wantIDs)
		}
	}
}

func errorPage(url string, status int) model.PageRecord {
	return model.PageRecord{
		URL:      url,
		FinalURL: url,
		Status:   status,
		IsHTML:   true,
	}
}

func TestBuildSectionsOverallIsCategoryMean(t *testing.T) {
	crawl := &model.CrawlResult{
		URL: "https://site.test/",
		Pages: []model.PageRecord{{
			URL:             "https://site.test/",
			FinalURL:        "https://site.test/",
			Status:          200,
			IsHTML:          true,
			Title:           "Pagina saudavel de teste",
			MetaDescription: "Uma meta description adequada para os limites de tamanho definidos aqui.",
			Canonical:       "https://site.test/",
			H1Count:         1,
			Lang:            "pt",
			WordCount:       300,
			TTFBMs:          100,
		}},
		Robots: model.RobotsInfo{RobotsPresent: true, SitemapPresent: true},
	}

	sections, appendix, worst := BuildSections(crawl, true)

	for _, key := range model.CategoryKeys {
		if sections[key].Score != 100 {
			t.Errorf("section %s score = %d, want 100", key, sections[key].Score)
		}
	}
	overall := sections["overall"]
	if overall.Score != 100 || overall.Status != model.StatusOK {
		t.Errorf("overall = %d/%s, want 100/ok", overall.Score, overall.Status)
	}
	if overall.Summary != "Crawl em 1 paginas HTML; 0 achados relevantes." {
		t.Errorf("overall summary = %q", overall.Summary)
	}
	if appendix.PagesScannedHTML != 1 || !appendix.RobotsPresent {
		t.Errorf("appendix = %+v", appendix)
	}
	if len(worst) != 0 {
		t.Errorf("worst pages = %v, want none", worst)
	}
}

func TestBuildSectionsNoPages(t *testing.T) {
	crawl := &model.CrawlResult{URL: "https://site.test/"}
	sections, _, _ := BuildSections(crawl, true)

	overall := sections["overall"]
	if overall.Summary != "Nenhuma pagina HTML rastreada. Verifique disponibilidade e robots." {
		t.Errorf("overall summary = %q", overall.Summary)
	}
	if sections["seo"].Summary != "Nenhuma pagina HTML analisada para SEO." {
		t.Errorf("seo summary = %q", sections["seo"].Summary)
	}
	// robots/sitemap absent still produce indexacao findings.
	if len(sections["indexacao"].Findings) != 2 {
		t.Errorf("indexacao findings = %d, want 2", len(sections["indexacao"].Findings))
	}
	if sections["erros_criticos"].Summary != "Nenhum erro critico identificado." {
		t.Errorf("critical summary = %q", sections["erros_criticos"].Summary)
	}
}

func TestRankWorstPages(t *testing.T) {
	bad := model.PageRecord{
		URL:       "https://site.test/ruim",
		FinalURL:  "https://site.test/ruim",
		Status:    500,
		IsHTML:    true,
		WordCount: 10,
	}
	mild := model.PageRecord{
		URL:             "https://site.test/ok",
		FinalURL:        "https://site.test/ok",
		Status:          200,
		IsHTML:          true,
		Title:           "Titulo presente aqui",
		MetaDescription: "meta",
		H1Count:         1,
		Lang:            "pt",
		WordCount:       50,
	}

	ranked := rankWorstPages([]model.PageRecord{mild, bad})

	if len(ranked) != 2 {
		t.Fatalf("ranked = %v", ranked)
	}
	if ranked[0].URL != bad.URL {
		t.Errorf("worst first = %q, want %q", ranked[0].URL, bad.URL)
	}
	// bad: seo (sem title/meta/h1), a11y (sem lang), content, criticos.
	if ranked[0].TotalIssues != 4 || ranked[0].CriticalIssues != 1 {
		t.Errorf("bad issues = %+v", ranked[0])
	}
	// mild: only thin content.
	if ranked[1].TotalIssues != 1 || ranked[1].ContentIssues != 1 {
		t.Errorf("mild issues = %+v", ranked[1])
	}
}

func TestRankWorstPagesCap(t *testing.T) {
	var pages []model.PageRecord
	for i := 0; i < 30; i++ {
		pages = append(pages, model.PageRecord{
			URL:    fmt.Sprintf("https://site.test/%d", i),
			Status: 200,
			IsHTML: true,
		})
	}
	if got := len(rankWorstPages(pages)); got != maxWorstPages {
		t.Fatalf("ranked = %d, want %d", got, maxWorstPages)
	}
}

func TestBuildDetailedEchoesBudgets(t *testing.T) {
	crawl := &model.CrawlResult{
		URL:            "https://site.test/",
		GeneratedAt:    "2026-08-25T10:00:00Z",
		RuntimeSeconds: 1.23,
		LimitNotes:     []string{"MAX_PAGES reached."},
	}
	for i := 0; i < 25; i++ {
		crawl.FetchErrors = append(crawl.FetchErrors, model.FetchError{
			URL:   fmt.Sprintf("https://site.test/%d", i),
			Error: "Timeout: deadline exceeded",
		})
	}

	detailed := BuildDetailed(crawl, config.FullProfile)

	if detailed.Crawl.MaxPages != 150 || detailed.Crawl.MaxDepth != 6 {
		t.Errorf("crawl meta = %+v", detailed.Crawl)
	}
	if detailed.Crawl.MaxRuntimeSeconds != 120 || detailed.Crawl.PerPageTimeoutSeconds != 20 {
		t.Errorf("crawl meta = %+v", detailed.Crawl)
	}
	if len(detailed.Crawl.FetchErrors) != maxFetchErrors {
		t.Errorf("fetch errors = %d, want %d", len(detailed.Crawl.FetchErrors), maxFetchErrors)
	}
	if !detailed.Appendix.PartialCrawl {
		t.Error("PartialCrawl = false with limit notes")
	}
}

func TestRenderTranslation(t *testing.T) {
	crawl := &model.CrawlResult{
		URL:         "https://site.test/",
		GeneratedAt: "2026-08-25T10:00:00Z",
		Pages:       []model.PageRecord{errorPage("https://site.test/", 500)},
	}
	detailed := BuildDetailed(crawl, config.FullProfile)
	relatorio := Render(detailed, true)

	if relatorio.OrigemDados != "cache" {
		t.Errorf("origem_dados = %q", relatorio.OrigemDados)
	}
	if relatorio.ResumoExecutivo.StatusGeral != "critico" {
		t.Errorf("status_geral = %q", relatorio.ResumoExecutivo.StatusGeral)
	}
	if len(relatorio.Secoes) != 6 {
		t.Fatalf("secoes = %d, want 6", len(relatorio.Secoes))
	}
	if relatorio.Secoes[0].Categoria != "seo" || relatorio.Secoes[5].Categoria != "erros_criticos" {
		t.Errorf("section order = %v", relatorio.Secoes)
	}
	if _, ok := relatorio.ResumoExecutivo.Pontuacoes["acessibilidade"]; !ok {
		t.Error("pontuacoes missing acessibilidade key")
	}

	var criticos *Secao
	for i := range relatorio.Secoes {
		if relatorio.Secoes[i].Categoria == "erros_criticos" {
			criticos = &relatorio.Secoes[i]
		}
	}
	if criticos == nil || len(criticos.PrincipaisAchados) == 0 {
		t.Fatal("erros_criticos has no findings")
	}
	achado := criticos.PrincipaisAchados[0]
	if achado.ID != "critical_http_errors" || achado.Severidade != "critica" {
		t.Errorf("achado = %+v", achado)
	}

	fresh := Render(detailed, false)
	if fresh.OrigemDados != "processamento_novo" {
		t.Errorf("origem_dados = %q", fresh.OrigemDados)
	}
}
