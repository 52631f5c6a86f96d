package report

import (
	"strings"

	"github.com/site-audit/auditor/internal/model"
)

// Relatorio is the Portuguese client-facing report served by POST /report.
type Relatorio struct {
	URL             string          `json:"url"`
	GeradoEm        string          `json:"gerado_em"`
	OrigemDados     string          `json:"origem_dados"`
	ResumoExecutivo ResumoExecutivo `json:"resumo_executivo"`
	Secoes          []Secao         `json:"secoes"`
	PioresPaginas   []PiorPagina    `json:"piores_paginas"`
	Apendice        Apendice        `json:"apendice"`
}

// ResumoExecutivo heads the report with the overall verdict.
type ResumoExecutivo struct {
	ScoreGeral    int                  `json:"score_geral"`
	StatusGeral   string               `json:"status_geral"`
	MensagemGeral string               `json:"mensagem_geral"`
	Pontuacoes    map[string]Pontuacao `json:"pontuacoes"`
}

// Pontuacao is one category's score and status.
type Pontuacao struct {
	Score  int    `json:"score"`
	Status string `json:"status"`
}

// Secao is one translated category section.
type Secao struct {
	Categoria         string   `json:"categoria"`
	Score             int      `json:"score"`
	Status            string   `json:"status"`
	Resumo            string   `json:"resumo"`
	OQueFoiMedido     []string `json:"o_que_foi_medido"`
	PrincipaisAchados []Achado `json:"principais_achados"`
	ProximasAcoes     []string `json:"proximas_acoes"`
}

// Achado is a translated finding.
type Achado struct {
	ID           string      `json:"id"`
	Severidade   string      `json:"severidade"`
	Titulo       string      `json:"titulo"`
	Descricao    string      `json:"descricao"`
	Impacto      string      `json:"impacto"`
	ComoCorrigir string      `json:"como_corrigir"`
	Evidencias   []Evidencia `json:"evidencias"`
	URLsAfetadas []string    `json:"urls_afetadas"`
}

// Evidencia keeps null for absent fields like the upstream payload.
type Evidencia struct {
	URL     string `json:"url"`
	Seletor any    `json:"seletor"`
	Valor   any    `json:"valor"`
	Metrica any    `json:"metrica"`
}

// PiorPagina is one worst-page row.
type PiorPagina struct {
	URL                   string `json:"url"`
	StatusHTTP            int    `json:"status_http"`
	TotalAchados          int    `json:"total_achados"`
	AchadosSEO            int    `json:"achados_seo"`
	AchadosAcessibilidade int    `json:"achados_acessibilidade"`
	AchadosConteudo       int    `json:"achados_conteudo"`
	AchadosPerformance    int    `json:"achados_performance"`
	AchadosIndexacao      int    `json:"achados_indexacao"`
	AchadosCriticos       int    `json:"achados_criticos"`
}

// Apendice is the translated numeric appendix.
type Apendice struct {
	PaginasHTMLAnalisadas     int  `json:"paginas_html_analisadas"`
	LinksInternosQuebrados    int  `json:"links_internos_quebrados"`
	PaginasComErroHTTP        int  `json:"paginas_com_erro_http"`
	PaginasNoindex            int  `json:"paginas_noindex"`
	PaginasSemMetaDescription int  `json:"paginas_sem_meta_description"`
	PaginasSemTitle           int  `json:"paginas_sem_title"`
	PaginasSemLang            int  `json:"paginas_sem_lang"`
	ImagensSemAlt             int  `json:"imagens_sem_alt"`
	InputsSemLabel            int  `json:"inputs_sem_label"`
	PaginasComMixedContent    int  `json:"paginas_com_mixed_content"`
	PaginasComRedirectChain   int  `json:"paginas_com_redirect_chain"`
	RobotsEncontrado          bool `json:"robots_encontrado"`
	SitemapEncontrado         bool `json:"sitemap_encontrado"`
	LinksInternosVerificados  int  `json:"links_internos_verificados"`
	CrawlParcial              bool `json:"crawl_parcial"`
}

var statusPT = map[string]string{
	model.StatusOK:        "ok",
	model.StatusAttention: "atencao",
	model.StatusCritical:  "critico",
}

var severidadePT = map[string]string{
	model.SeverityCritical: "critica",
	model.SeverityHigh:     "alta",
	model.SeverityMedium:   "media",
	model.SeverityLow:      "baixa",
}

var categoriaPT = map[string]string{
	"overall":        "visao_geral",
	"seo":            "seo",
	"a11y":           "acessibilidade",
	"content":        "conteudo",
	"performance":    "performance",
	"indexacao":      "indexacao",
	"erros_criticos": "erros_criticos",
}

// StatusPT translates a section status, defaulting to "atencao".
func StatusPT(status string) string {
	if translated, ok := statusPT[strings.ToLower(status)]; ok {
		return translated
	}
	return "atencao"
}

// CategoriaPT translates a section key, passing unknown keys through.
func CategoriaPT(key string) string {
	if translated, ok := categoriaPT[key]; ok {
		return translated
	}
	return key
}

func severidade(severity string) string {
	if translated, ok := severidadePT[strings.ToLower(severity)]; ok {
		return translated
	}
	return "media"
}

// Render produces the Portuguese report from a detailed audit.
func Render(detailed *model.DetailedAudit, fromCache bool) *Relatorio {
	overall := detailed.Sections["overall"]

	pontuacoes := make(map[string]Pontuacao, len(model.CategoryKeys))
	for _, key := range model.CategoryKeys {
		section := detailed.Sections[key]
		pontuacoes[CategoriaPT(key)] = Pontuacao{
			Score:  section.Score,
			Status: StatusPT(section.Status),
		}
	}

	secoes := make([]Secao, 0, len(model.CategoryKeys))
	for _, key := range model.CategoryKeys {
		section := detailed.Sections[key]

		achados := make([]Achado, 0, len(section.Findings))
		for _, finding := range section.Findings {
			achados = append(achados, traduzirAchado(finding))
		}

		acoes := section.NextActions
		if len(acoes) > maxNextActions {
			acoes = acoes[:maxNextActions]
		}

		secoes = append(secoes, Secao{
			Categoria:         CategoriaPT(key),
			Score:             section.Score,
			Status:            StatusPT(section.Status),
			Resumo:            section.Summary,
			OQueFoiMedido:     section.Measured,
			PrincipaisAchados: achados,
			ProximasAcoes:     acoes,
		})
	}

	piores := make([]PiorPagina, 0, len(detailed.WorstPages))
	for _, page := range detailed.WorstPages {
		piores = append(piores, PiorPagina{
			URL:                   page.URL,
			StatusHTTP:            page.Status,
			TotalAchados:          page.TotalIssues,
			AchadosSEO:            page.SEOIssues,
			AchadosAcessibilidade: page.A11yIssues,
			AchadosConteudo:       page.ContentIssues,
			AchadosPerformance:    page.PerfIssues,
			AchadosIndexacao:      page.IndexacaoIssues,
			AchadosCriticos:       page.CriticalIssues,
		})
	}

	origem := "processamento_novo"
	if fromCache {
		origem = "cache"
	}

	appendix := detailed.Appendix
	return &Relatorio{
		URL:         detailed.URL,
		GeradoEm:    detailed.GeneratedAt,
		OrigemDados: origem,
		ResumoExecutivo: ResumoExecutivo{
			ScoreGeral:    overall.Score,
			StatusGeral:   StatusPT(overall.Status),
			MensagemGeral: overall.Summary,
			Pontuacoes:    pontuacoes,
		},
		Secoes:        secoes,
		PioresPaginas: piores,
		Apendice: Apendice{
			PaginasHTMLAnalisadas:     appendix.PagesScannedHTML,
			LinksInternosQuebrados:    appendix.BrokenInternalLinksCount,
			PaginasComErroHTTP:        appendix.HTTPErrorPagesCount,
			PaginasNoindex:            appendix.NoindexPagesCount,
			PaginasSemMetaDescription: appendix.MissingMetaDescCount,
			PaginasSemTitle:           appendix.MissingTitleCount,
			PaginasSemLang:            appendix.MissingLangCount,
			ImagensSemAlt:             appendix.ImagesMissingAltTotal,
			InputsSemLabel:            appendix.InputsMissingLabelTotal,
			PaginasComMixedContent:    appendix.MixedContentPagesCount,
			PaginasComRedirectChain:   appendix.RedirectChainPagesCount,
			RobotsEncontrado:          appendix.RobotsPresent,
			SitemapEncontrado:         appendix.SitemapPresent,
			LinksInternosVerificados:  appendix.LinksCheckedInternal,
			CrawlParcial:              appendix.PartialCrawl,
		},
	}
}

func traduzirAchado(finding model.Finding) Achado {
	evidencias := make([]Evidencia, 0, len(finding.Evidence))
	for _, item := range finding.Evidence {
		evidencia := Evidencia{URL: item.URL, Valor: item.Value, Metrica: item.Metric}
		if item.Selector != "" {
			evidencia.Seletor = item.Selector
		}
		evidencias = append(evidencias, evidencia)
	}

	urls := finding.AffectedURLs
	if urls == nil {
		urls = []string{}
	}

	return Achado{
		ID:           finding.ID,
		Severidade:   severidade(finding.Severity),
		Titulo:       finding.Title,
		Descricao:    finding.Description,
		Impacto:      finding.Impact,
		ComoCorrigir: finding.HowToFix,
		Evidencias:   evidencias,
		URLsAfetadas: urls,
	}
}
