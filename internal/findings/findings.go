// Package findings evaluates the rule catalogue over a crawl result and
// groups the produced findings by report category.
package findings

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/site-audit/auditor/internal/model"
	"github.com/site-audit/auditor/internal/urlutil"
)

// Thresholds used by the catalogue.
const (
	titleMinLen        = 15
	titleMaxLen        = 60
	metaDescMinLen     = 70
	metaDescMaxLen     = 160
	thinContentWords   = 120
	slowTTFBMs         = 1200
	heavyHTMLBytes     = 512_000
	manyResources      = 80
	manyRenderBlocking = 5
	brokenLinksCrit    = 10
	missingAltHigh     = 20
	redirectChainHops  = 3
	affectedURLsCap    = 25
)

// Counts carries the page-predicate tallies the report appendix needs
// beyond the findings themselves.
type Counts struct {
	TitleMissing           int
	MetaDescriptionMissing int
	MissingLang            int
	NoindexPages           int
	HTTPErrorPages         int
	RedirectChainPages     int
	MixedContentPages      int
}

// Evaluation is the full catalogue output for one crawl.
type Evaluation struct {
	Categories map[string][]model.Finding
	Counts     Counts
}

// Evaluate runs every rule against the crawl. Limit findings are only
// produced when includeLimitFindings is set and a budget note exists.
func Evaluate(crawl *model.CrawlResult, includeLimitFindings bool) *Evaluation {
	pages := crawl.Pages
	robots := crawl.Robots

	titleMissing := filterPages(pages, func(p *model.PageRecord) bool { return p.Title == "" })
	titleLenBad := filterPages(pages, func(p *model.PageRecord) bool {
		n := utf8.RuneCountInString(p.Title)
		return p.Title != "" && (n < titleMinLen || n > titleMaxLen)
	})
	metaMissing := filterPages(pages, func(p *model.PageRecord) bool { return p.MetaDescription == "" })
	metaLenBad := filterPages(pages, func(p *model.PageRecord) bool {
		n := utf8.RuneCountInString(p.MetaDescription)
		return p.MetaDescription != "" && (n < metaDescMinLen || n > metaDescMaxLen)
	})
	canonicalMissing := filterPages(pages, func(p *model.PageRecord) bool { return p.Canonical == "" })
	h1Bad := filterPages(pages, func(p *model.PageRecord) bool { return p.H1Count != 1 })

	noindexPages := filterPages(pages, func(p *model.PageRecord) bool {
		return strings.Contains(strings.ToLower(p.RobotsMeta), "noindex")
	})
	canonicalConflicts := filterPages(pages, func(p *model.PageRecord) bool {
		return p.Canonical != "" && !urlutil.SameOrigin(p.Canonical, crawl.URL)
	})

	missingLang := filterPages(pages, func(p *model.PageRecord) bool { return p.Lang == "" })
	missingAltPages := filterPages(pages, func(p *model.PageRecord) bool { return p.ImagesMissingAlt > 0 })
	missingLabelPages := filterPages(pages, func(p *model.PageRecord) bool { return p.InputsMissingLabel > 0 })

	thinContent := filterPages(pages, func(p *model.PageRecord) bool { return p.WordCount < thinContentWords })
	lowHeadingStructure := filterPages(pages, func(p *model.PageRecord) bool { return p.H1Count == 0 })

	slowPages := filterPages(pages, func(p *model.PageRecord) bool { return p.TTFBMs > slowTTFBMs })
	heavyHTML := filterPages(pages, func(p *model.PageRecord) bool { return p.HTMLSizeBytes > heavyHTMLBytes })
	highRequestPages := filterPages(pages, func(p *model.PageRecord) bool { return p.ResourceCount > manyResources })
	renderBlocking := filterPages(pages, func(p *model.PageRecord) bool { return p.RenderBlockingCount > manyRenderBlocking })

	httpErrorPages := filterPages(pages, func(p *model.PageRecord) bool { return p.Status >= 400 || p.Status == 0 })
	redirectChainPages := filterPages(pages, func(p *model.PageRecord) bool { return p.RedirectHops >= redirectChainHops })
	mixedContentPages := filterPages(pages, func(p *model.PageRecord) bool { return p.MixedContentCount > 0 })

	var seo, a11y, content, performance, indexacao, critical []model.Finding

	if len(titleMissing) > 0 {
		seo = append(seo, makeFinding(
			"seo_title_missing",
			model.SeverityHigh,
			"Paginas sem title",
			fmt.Sprintf("%d paginas HTML sem tag <title>.", len(titleMissing)),
			"Prejudica relevancia organica e CTR.",
			"Definir um title unico e descritivo por pagina.",
			[]model.Evidence{{
				URL:      titleMissing[0].URL,
				Selector: "title",
				Value:    "",
				Metric:   len(titleMissing),
			}},
			topURLs(titleMissing),
		))
	}

	if len(titleLenBad) > 0 {
		seo = append(seo, makeFinding(
			"seo_title_length",
			model.SeverityMedium,
			"Titles fora do tamanho recomendado",
			fmt.Sprintf("%d paginas com title curto ou longo demais.", len(titleLenBad)),
			"Pode reduzir clareza do snippet no buscador.",
			"Manter titles entre 15 e 60 caracteres.",
			[]model.Evidence{{URL: titleLenBad[0].URL, Selector: "title", Metric: len(titleLenBad)}},
			topURLs(titleLenBad),
		))
	}

	if len(metaMissing) > 0 {
		seo = append(seo, makeFinding(
			"seo_meta_description_missing",
			model.SeverityMedium,
			"Meta description ausente",
			fmt.Sprintf("%d paginas sem meta description.", len(metaMissing)),
			"Diminui controle sobre texto exibido no resultado de busca.",
			"Adicionar meta description unica e objetiva em cada pagina.",
			[]model.Evidence{{
				URL:      metaMissing[0].URL,
				Selector: `meta[name="description"]`,
				Value:    "",
				Metric:   len(metaMissing),
			}},
			topURLs(metaMissing),
		))
	}

	if len(metaLenBad) > 0 {
		seo = append(seo, makeFinding(
			"seo_meta_description_length",
			model.SeverityLow,
			"Meta descriptions fora do tamanho recomendado",
			fmt.Sprintf("%d paginas com meta description curta ou longa demais.", len(metaLenBad)),
			"Pode afetar compreensao do snippet.",
			"Ajustar meta descriptions para faixa entre 70 e 160 caracteres.",
			[]model.Evidence{{URL: metaLenBad[0].URL, Selector: `meta[name="description"]`}},
			topURLs(metaLenBad),
		))
	}

	if len(canonicalMissing) > 0 {
		seo = append(seo, makeFinding(
			"seo_canonical_missing",
			model.SeverityMedium,
			"Canonical ausente",
			fmt.Sprintf("%d paginas sem link canonical.", len(canonicalMissing)),
			"Pode dificultar consolidacao de sinais para URLs similares.",
			"Adicionar <link rel='canonical'> em paginas indexaveis.",
			[]model.Evidence{{URL: canonicalMissing[0].URL, Selector: "link[rel=canonical]"}},
			topURLs(canonicalMissing),
		))
	}

	if len(h1Bad) > 0 {
		seo = append(seo, makeFinding(
			"seo_h1_count",
			model.SeverityMedium,
			"Estrutura de H1 inconsistente",
			fmt.Sprintf("%d paginas com quantidade de H1 diferente de 1.", len(h1Bad)),
			"Pode reduzir clareza semantica da pagina.",
			"Garantir exatamente um H1 principal por pagina.",
			[]model.Evidence{{URL: h1Bad[0].URL, Selector: "h1", Metric: len(h1Bad)}},
			topURLs(h1Bad),
		))
	}

	if len(crawl.BrokenInternalLinks) > 0 {
		severity := model.SeverityHigh
		if len(crawl.BrokenInternalLinks) >= brokenLinksCrit {
			severity = model.SeverityCritical
		}
		affected := make([]string, 0, affectedURLsCap)
		for _, link := range crawl.BrokenInternalLinks {
			if len(affected) >= affectedURLsCap {
				break
			}
			affected = append(affected, link.URL)
		}
		seo = append(seo, makeFinding(
			"seo_broken_internal_links",
			severity,
			"Links internos quebrados",
			fmt.Sprintf("%d links internos retornando erro (4xx/5xx/timeout).", len(crawl.BrokenInternalLinks)),
			"Impacta rastreabilidade, UX e distribuicao de autoridade interna.",
			"Corrigir URLs quebradas e atualizar links de navegacao.",
			[]model.Evidence{{
				URL:    crawl.BrokenInternalLinks[0].URL,
				Metric: crawl.BrokenInternalLinks[0].Status,
			}},
			affected,
		))
	}

	if len(missingAltPages) > 0 {
		totalMissingAlt := 0
		for _, page := range missingAltPages {
			totalMissingAlt += page.ImagesMissingAlt
		}
		severity := model.SeverityMedium
		if totalMissingAlt >= missingAltHigh {
			severity = model.SeverityHigh
		}
		a11y = append(a11y, makeFinding(
			"a11y_img_alt_missing",
			severity,
			"Imagens sem texto alternativo",
			fmt.Sprintf("%d imagens sem alt em %d paginas.", totalMissingAlt, len(missingAltPages)),
			"Prejudica acessibilidade para leitores de tela.",
			"Definir atributo alt descritivo em todas as imagens relevantes.",
			[]model.Evidence{{
				URL:      missingAltPages[0].URL,
				Selector: "img[alt]",
				Metric:   totalMissingAlt,
			}},
			topURLs(missingAltPages),
		))
	}

	if len(missingLabelPages) > 0 {
		totalMissingLabel := 0
		for _, page := range missingLabelPages {
			totalMissingLabel += page.InputsMissingLabel
		}
		a11y = append(a11y, makeFinding(
			"a11y_input_label_missing",
			model.SeverityHigh,
			"Campos de formulario sem label",
			fmt.Sprintf("%d inputs sem label associada.", totalMissingLabel),
			"Dificulta navegacao com tecnologia assistiva.",
			"Associar labels via for/id ou usar aria-label/aria-labelledby.",
			[]model.Evidence{{
				URL:      missingLabelPages[0].URL,
				Selector: "input",
				Metric:   totalMissingLabel,
			}},
			topURLs(missingLabelPages),
		))
	}

	if len(missingLang) > 0 {
		a11y = append(a11y, makeFinding(
			"a11y_lang_missing",
			model.SeverityMedium,
			"Atributo lang ausente",
			fmt.Sprintf("%d paginas sem atributo lang na tag html.", len(missingLang)),
			"Pode reduzir compatibilidade com leitores de tela.",
			"Definir lang apropriado no elemento <html>.",
			[]model.Evidence{{URL: missingLang[0].URL, Selector: "html[lang]"}},
			topURLs(missingLang),
		))
	}

	if len(titleMissing) > 0 {
		a11y = append(a11y, makeFinding(
			"a11y_title_missing",
			model.SeverityMedium,
			"Titulo da pagina ausente",
			fmt.Sprintf("%d paginas sem titulo de documento.", len(titleMissing)),
			"Compromete contexto de navegacao para usuarios assistivos.",
			"Adicionar tag <title> descritiva em todas as paginas.",
			[]model.Evidence{{URL: titleMissing[0].URL, Selector: "title"}},
			topURLs(titleMissing),
		))
	}

	if len(thinContent) > 0 {
		content = append(content, makeFinding(
			"content_thin_pages",
			model.SeverityMedium,
			"Conteudo muito curto",
			fmt.Sprintf("%d paginas com menos de 120 palavras.", len(thinContent)),
			"Pode reduzir capacidade de ranqueamento e conversao.",
			"Expandir conteudo util com contexto, prova e CTA claros.",
			[]model.Evidence{{URL: thinContent[0].URL, Metric: thinContent[0].WordCount}},
			topURLs(thinContent),
		))
	}

	if len(lowHeadingStructure) > 0 {
		content = append(content, makeFinding(
			"content_missing_h1",
			model.SeverityMedium,
			"Estrutura sem heading principal",
			fmt.Sprintf("%d paginas sem H1.", len(lowHeadingStructure)),
			"Reduz clareza da proposta principal para usuarios e buscadores.",
			"Incluir heading principal alinhado com o objetivo da pagina.",
			[]model.Evidence{{URL: lowHeadingStructure[0].URL, Selector: "h1"}},
			topURLs(lowHeadingStructure),
		))
	}

	if len(slowPages) > 0 {
		performance = append(performance, makeFinding(
			"perf_slow_ttfb",
			model.SeverityHigh,
			"TTFB elevado",
			fmt.Sprintf("%d paginas com TTFB acima de 1200ms.", len(slowPages)),
			"Aumenta tempo de carregamento percebido.",
			"Revisar backend, cache e latencia de servidor.",
			[]model.Evidence{{URL: slowPages[0].URL, Metric: slowPages[0].TTFBMs}},
			topURLs(slowPages),
		))
	}

	if len(heavyHTML) > 0 {
		performance = append(performance, makeFinding(
			"perf_heavy_html",
			model.SeverityMedium,
			"HTML muito pesado",
			fmt.Sprintf("%d paginas com HTML acima de 500KB.", len(heavyHTML)),
			"Pode aumentar tempo de download e parse.",
			"Reduzir markup redundante e componentes inline excessivos.",
			[]model.Evidence{{URL: heavyHTML[0].URL, Metric: heavyHTML[0].HTMLSizeBytes}},
			topURLs(heavyHTML),
		))
	}

	if len(highRequestPages) > 0 {
		performance = append(performance, makeFinding(
			"perf_many_requests",
			model.SeverityMedium,
			"Muitos recursos na pagina",
			fmt.Sprintf("%d paginas com mais de 80 recursos referenciados.", len(highRequestPages)),
			"Aumenta custo de renderizacao e transferencias.",
			"Consolidar e otimizar scripts, CSS e imagens.",
			[]model.Evidence{{URL: highRequestPages[0].URL, Metric: highRequestPages[0].ResourceCount}},
			topURLs(highRequestPages),
		))
	}

	if len(renderBlocking) > 0 {
		performance = append(performance, makeFinding(
			"perf_render_blocking",
			model.SeverityMedium,
			"Recursos bloqueando renderizacao",
			fmt.Sprintf("%d paginas com mais de 5 recursos bloqueantes no head.", len(renderBlocking)),
			"Pode atrasar exibicao de conteudo acima da dobra.",
			"Aplicar defer/async em scripts e otimizar CSS critico.",
			[]model.Evidence{{
				URL:    renderBlocking[0].URL,
				Metric: renderBlocking[0].RenderBlockingCount,
			}},
			topURLs(renderBlocking),
		))
	}

	if !robots.RobotsPresent {
		indexacao = append(indexacao, makeFinding(
			"indexacao_robots_missing",
			model.SeverityHigh,
			"robots.txt ausente",
			"Arquivo robots.txt nao encontrado com status 200.",
			"Bots podem rastrear caminhos sem orientacao.",
			"Publicar robots.txt com regras claras de rastreamento.",
			[]model.Evidence{{URL: robots.RobotsURL, Metric: robots.RobotsStatus}},
			[]string{robots.RobotsURL},
		))
	}

	if !robots.SitemapPresent {
		indexacao = append(indexacao, makeFinding(
			"indexacao_sitemap_missing",
			model.SeverityMedium,
			"Sitemap nao encontrado",
			"Sitemap nao encontrado em robots.txt nem em /sitemap.xml.",
			"Pode dificultar descoberta de URLs relevantes.",
			"Gerar sitemap.xml atualizado e referenciar no robots.txt.",
			[]model.Evidence{{URL: robots.SitemapURL}},
			[]string{robots.SitemapURL},
		))
	}

	if len(noindexPages) > 0 {
		indexacao = append(indexacao, makeFinding(
			"indexacao_noindex_pages",
			model.SeverityMedium,
			"Paginas com noindex",
			fmt.Sprintf("%d paginas HTML com meta robots noindex.", len(noindexPages)),
			"Pode remover paginas da indexacao organica.",
			"Revisar noindex e manter apenas em paginas que realmente devem ficar fora do indice.",
			[]model.Evidence{{URL: noindexPages[0].URL, Selector: `meta[name="robots"]`}},
			topURLs(noindexPages),
		))
	}

	if len(canonicalConflicts) > 0 {
		indexacao = append(indexacao, makeFinding(
			"indexacao_canonical_conflict",
			model.SeverityHigh,
			"Canonical apontando para outra origem",
			fmt.Sprintf("%d paginas com canonical em dominio diferente.", len(canonicalConflicts)),
			"Pode transferir sinais de relevancia para outro host.",
			"Ajustar canonical para URL canonica correta do mesmo site.",
			[]model.Evidence{{URL: canonicalConflicts[0].URL, Value: canonicalConflicts[0].Canonical}},
			topURLs(canonicalConflicts),
		))
	}

	if len(httpErrorPages) > 0 {
		severity := model.SeverityHigh
		for _, page := range httpErrorPages {
			if page.Status >= 500 {
				severity = model.SeverityCritical
				break
			}
		}
		critical = append(critical, makeFinding(
			"critical_http_errors",
			severity,
			"Paginas com erro HTTP",
			fmt.Sprintf("%d paginas HTML com status 4xx/5xx ou timeout.", len(httpErrorPages)),
			"Interrompe jornada do usuario e rastreio.",
			"Corrigir rotas quebradas e falhas de servidor prioritariamente.",
			[]model.Evidence{{URL: httpErrorPages[0].URL, Metric: httpErrorPages[0].Status}},
			topURLs(httpErrorPages),
		))
	}

	if len(redirectChainPages) > 0 {
		critical = append(critical, makeFinding(
			"critical_redirect_chains",
			model.SeverityHigh,
			"Cadeias de redirecionamento longas",
			fmt.Sprintf("%d paginas com cadeia de 3+ redirecionamentos.", len(redirectChainPages)),
			"Aumenta latencia e pode causar perda de sinal SEO.",
			"Reduzir para no maximo um redirecionamento por URL.",
			[]model.Evidence{{
				URL:    redirectChainPages[0].URL,
				Metric: redirectChainPages[0].RedirectHops,
			}},
			topURLs(redirectChainPages),
		))
	}

	if len(mixedContentPages) > 0 {
		critical = append(critical, makeFinding(
			"critical_mixed_content",
			model.SeverityHigh,
			"Mixed content em paginas HTTPS",
			fmt.Sprintf("%d paginas carregando recursos HTTP em contexto HTTPS.", len(mixedContentPages)),
			"Pode causar bloqueio de recursos e alertas de seguranca.",
			"Migrar todos os recursos para HTTPS.",
			[]model.Evidence{{
				URL:    mixedContentPages[0].URL,
				Metric: mixedContentPages[0].MixedContentCount,
			}},
			topURLs(mixedContentPages),
		))
	}

	if includeLimitFindings && len(crawl.LimitNotes) > 0 {
		noteText := strings.Join(crawl.LimitNotes, "; ")
		critical = append(critical, makeFinding(
			"critical_partial_crawl",
			model.SeverityCritical,
			"Crawl parcial por limite de seguranca",
			fmt.Sprintf("A varredura foi interrompida antes de cobrir todo o site: %s", noteText),
			"Resultados representam amostra parcial do site.",
			"Reexecutar auditoria apos reduzir complexidade de rastreamento ou revisar arquitetura.",
			[]model.Evidence{{URL: crawl.URL, Metric: noteText}},
			[]string{crawl.URL},
		))
	}

	return &Evaluation{
		Categories: map[string][]model.Finding{
			"seo":            seo,
			"a11y":           a11y,
			"content":        content,
			"performance":    performance,
			"indexacao":      indexacao,
			"erros_criticos": critical,
		},
		Counts: Counts{
			TitleMissing:           len(titleMissing),
			MetaDescriptionMissing: len(metaMissing),
			MissingLang:            len(missingLang),
			NoindexPages:           len(noindexPages),
			HTTPErrorPages:         len(httpErrorPages),
			RedirectChainPages:     len(redirectChainPages),
			MixedContentPages:      len(mixedContentPages),
		},
	}
}

func makeFinding(
	id, severity, title, description, impact, howToFix string,
	evidence []model.Evidence,
	affectedURLs []string,
) model.Finding {
	if evidence == nil {
		evidence = []model.Evidence{}
	}
	if affectedURLs == nil {
		affectedURLs = []string{}
	}
	return model.Finding{
		ID:           id,
		Severity:     severity,
		Title:        title,
		Description:  description,
		Impact:       impact,
		HowToFix:     howToFix,
		Evidence:     evidence,
		AffectedURLs: affectedURLs,
	}
}

func filterPages(pages []model.PageRecord, pred func(*model.PageRecord) bool) []model.PageRecord {
	var matched []model.PageRecord
	for i := range pages {
		if pred(&pages[i]) {
			matched = append(matched, pages[i])
		}
	}
	return matched
}

// topURLs lists the first matching page URLs, capped.
func topURLs(pages []model.PageRecord) []string {
	urls := make([]string, 0, affectedURLsCap)
	for _, page := range pages {
		if len(urls) >= affectedURLsCap {
			break
		}
		urls = append(urls, page.URL)
	}
	return urls
}
