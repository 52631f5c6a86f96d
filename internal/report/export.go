package report

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/site-audit/auditor/internal/model"
)

// ExportXLSX writes the detailed audit as an Excel workbook with one sheet
// per view: sections, findings, worst pages and the appendix.
func ExportXLSX(detailed *model.DetailedAudit, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"1565C0"}},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	if err := writeSectionsSheet(f, detailed, headerStyle); err != nil {
		return err
	}
	if err := writeFindingsSheet(f, detailed, headerStyle); err != nil {
		return err
	}
	if err := writeWorstPagesSheet(f, detailed, headerStyle); err != nil {
		return err
	}
	if err := writeAppendixSheet(f, detailed, headerStyle); err != nil {
		return err
	}

	f.DeleteSheet("Sheet1")
	return f.SaveAs(path)
}

func writeSectionsSheet(f *excelize.File, detailed *model.DetailedAudit, headerStyle int) error {
	sheet := "Secoes"
	columns := []string{"Categoria", "Score", "Status", "Resumo", "Achados", "Proximas Acoes"}
	if err := newSheet(f, sheet, columns, headerStyle); err != nil {
		return err
	}

	row := 2
	for _, key := range model.SectionKeys {
		section := detailed.Sections[key]
		writeRow(f, sheet, row, []any{
			CategoriaPT(key),
			section.Score,
			StatusPT(section.Status),
			section.Summary,
			len(section.Findings),
			strings.Join(section.NextActions, " | "),
		})
		row++
	}
	return nil
}

func writeFindingsSheet(f *excelize.File, detailed *model.DetailedAudit, headerStyle int) error {
	sheet := "Achados"
	columns := []string{
		"Categoria", "ID", "Severidade", "Titulo", "Descricao",
		"Impacto", "Como Corrigir", "URLs Afetadas",
	}
	if err := newSheet(f, sheet, columns, headerStyle); err != nil {
		return err
	}

	row := 2
	for _, key := range model.CategoryKeys {
		section := detailed.Sections[key]
		for _, finding := range section.Findings {
			writeRow(f, sheet, row, []any{
				CategoriaPT(key),
				finding.ID,
				severidade(finding.Severity),
				finding.Title,
				finding.Description,
				finding.Impact,
				finding.HowToFix,
				strings.Join(finding.AffectedURLs, "\n"),
			})
			row++
		}
	}
	return nil
}

func writeWorstPagesSheet(f *excelize.File, detailed *model.DetailedAudit, headerStyle int) error {
	sheet := "Piores Paginas"
	columns := []string{
		"URL", "Status HTTP", "Total", "SEO", "Acessibilidade",
		"Conteudo", "Performance", "Indexacao", "Criticos",
	}
	if err := newSheet(f, sheet, columns, headerStyle); err != nil {
		return err
	}

	for i, page := range detailed.WorstPages {
		writeRow(f, sheet, i+2, []any{
			page.URL,
			page.Status,
			page.TotalIssues,
			page.SEOIssues,
			page.A11yIssues,
			page.ContentIssues,
			page.PerfIssues,
			page.IndexacaoIssues,
			page.CriticalIssues,
		})
	}
	return nil
}

func writeAppendixSheet(f *excelize.File, detailed *model.DetailedAudit, headerStyle int) error {
	sheet := "Apendice"
	columns := []string{"Metrica", "Valor"}
	if err := newSheet(f, sheet, columns, headerStyle); err != nil {
		return err
	}

	appendix := detailed.Appendix
	rows := []struct {
		label string
		value any
	}{
		{"paginas_html_analisadas", appendix.PagesScannedHTML},
		{"links_internos_quebrados", appendix.BrokenInternalLinksCount},
		{"paginas_com_erro_http", appendix.HTTPErrorPagesCount},
		{"paginas_noindex", appendix.NoindexPagesCount},
		{"paginas_sem_meta_description", appendix.MissingMetaDescCount},
		{"paginas_sem_title", appendix.MissingTitleCount},
		{"paginas_sem_lang", appendix.MissingLangCount},
		{"imagens_sem_alt", appendix.ImagesMissingAltTotal},
		{"inputs_sem_label", appendix.InputsMissingLabelTotal},
		{"paginas_com_mixed_content", appendix.MixedContentPagesCount},
		{"paginas_com_redirect_chain", appendix.RedirectChainPagesCount},
		{"robots_encontrado", appendix.RobotsPresent},
		{"sitemap_encontrado", appendix.SitemapPresent},
		{"links_internos_verificados", appendix.LinksCheckedInternal},
		{"crawl_parcial", appendix.PartialCrawl},
		{"runtime_segundos", detailed.Crawl.RuntimeSeconds},
		{"gerado_em", detailed.GeneratedAt},
	}
	for i, item := range rows {
		writeRow(f, sheet, i+2, []any{item.label, item.value})
	}
	return nil
}

func newSheet(f *excelize.File, name string, columns []string, headerStyle int) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", name, err)
	}

	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(name, cell, col)
		f.SetCellStyle(name, cell, cell, headerStyle)

		colName, _ := excelize.ColumnNumberToName(i + 1)
		width := float64(len(col) + 5)
		if width < 15 {
			width = 15
		}
		if width > 50 {
			width = 50
		}
		f.SetColWidth(name, colName, colName, width)
	}

	f.SetPanes(name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) {
	for i, value := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		f.SetCellValue(sheet, cell, value)
	}
}
