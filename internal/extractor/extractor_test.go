package extractor

import (
	"reflect"
	"testing"

	"github.com/site-audit/auditor/internal/fetcher"
)

const samplePage = `<!DOCTYPE html>
<html lang="pt-BR">
<head>
<title>  Minha   Pagina  </title>
<meta name="Description" content="Uma descricao objetiva da pagina para testes.">
<link rel="canonical" href="/canonico">
<meta name="robots" content="INDEX, FOLLOW">
<script src="/app.js"></script>
<script src="/late.js" defer></script>
<link rel="stylesheet" href="/main.css">
</head>
<body>
<h1>Primeiro</h1>
<h1>Segundo</h1>
<img src="http://cdn.example.com/logo.png">
<img src="/foto.png" alt="Foto">
<input type="text" id="nome">
<label for="nome">Nome</label>
<input type="text">
<input type="hidden" name="tok">
<input type="search" aria-label="Busca">
<a href="/interna">Interna</a>
<a href="https://site.test/interna#sec">Dup</a>
<a href="https://externo.test/x">Externa</a>
<a href="mailto:a@b.c">Mail</a>
<a href="#top">Top</a>
<p>um dois tres quatro cinco</p>
</body>
</html>`

func sampleResponse(body string) *fetcher.Response {
	return &fetcher.Response{
		RequestURL:  "https://site.test/page",
		FinalURL:    "https://site.test/page",
		StatusCode:  200,
		ContentType: "text/html; charset=utf-8",
		Body:        []byte(body),
	}
}

func TestExtractSignals(t *testing.T) {
	record := Extract("https://site.test/page", sampleResponse(samplePage), "https://site.test/")

	if !record.IsHTML {
		t.Fatal("record.IsHTML = false")
	}
	if record.Title != "Minha Pagina" {
		t.Errorf("Title = %q", record.Title)
	}
	if record.MetaDescription != "Uma descricao objetiva da pagina para testes." {
		t.Errorf("MetaDescription = %q", record.MetaDescription)
	}
	if record.Canonical != "https://site.test/canonico" {
		t.Errorf("Canonical = %q", record.Canonical)
	}
	if record.RobotsMeta != "index, follow" {
		t.Errorf("RobotsMeta = %q", record.RobotsMeta)
	}
	if record.H1Count != 2 {
		t.Errorf("H1Count = %d, want 2", record.H1Count)
	}
	if record.Lang != "pt-br" {
		t.Errorf("Lang = %q", record.Lang)
	}
	if record.ImagesTotal != 2 || record.ImagesMissingAlt != 1 {
		t.Errorf("images = %d/%d missing, want 2/1", record.ImagesTotal, record.ImagesMissingAlt)
	}
	if record.InputsTotal != 4 {
		t.Errorf("InputsTotal = %d, want 4", record.InputsTotal)
	}
	if record.InputsMissingLabel != 1 {
		t.Errorf("InputsMissingLabel = %d, want 1", record.InputsMissingLabel)
	}
	if record.ResourceCount != 6 {
		t.Errorf("ResourceCount = %d, want 6", record.ResourceCount)
	}
	if record.RenderBlockingCount != 2 {
		t.Errorf("RenderBlockingCount = %d, want 2", record.RenderBlockingCount)
	}
	if record.MixedContentCount != 1 {
		t.Errorf("MixedContentCount = %d, want 1", record.MixedContentCount)
	}
	wantLinks := []string{"https://site.test/interna"}
	if !reflect.DeepEqual(record.InternalLinks, wantLinks) {
		t.Errorf("InternalLinks = %v, want %v", record.InternalLinks, wantLinks)
	}
	if record.WordCount != 15 {
		t.Errorf("WordCount = %d, want 15", record.WordCount)
	}
}

func TestExtractNonHTML(t *testing.T) {
	resp := &fetcher.Response{
		RequestURL:  "https://site.test/file.pdf",
		FinalURL:    "https://site.test/file.pdf",
		StatusCode:  200,
		ContentType: "application/pdf",
		Body:        []byte("%PDF-1.4"),
	}
	record := Extract("https://site.test/file.pdf", resp, "https://site.test/")

	if record.IsHTML {
		t.Fatal("pdf marked as HTML")
	}
	if record.Title != "" || record.H1Count != 0 {
		t.Error("HTML fields populated for non-HTML response")
	}
	if record.HTMLSizeBytes != len("%PDF-1.4") {
		t.Errorf("HTMLSizeBytes = %d", record.HTMLSizeBytes)
	}
	if len(record.InternalLinks) != 0 {
		t.Errorf("InternalLinks = %v, want empty", record.InternalLinks)
	}
}

func TestExtractMixedContentOnlyOnHTTPS(t *testing.T) {
	resp := sampleResponse(samplePage)
	resp.FinalURL = "http://site.test/page"
	record := Extract("http://site.test/page", resp, "http://site.test/")

	if record.MixedContentCount != 0 {
		t.Errorf("MixedContentCount = %d on plain-http page, want 0", record.MixedContentCount)
	}
}

func TestExtractLabelAssociations(t *testing.T) {
	page := `<html><body>
<label>Nome <input type="text"></label>
<input type="submit" value="Enviar">
<input aria-labelledby="lbl">
<input type="text" id="solto">
</body></html>`
	record := Extract("https://site.test/f", sampleResponse(page), "https://site.test/")

	if record.InputsTotal != 4 {
		t.Fatalf("InputsTotal = %d, want 4", record.InputsTotal)
	}
	// Wrapped label, submit type and aria-labelledby all count as labeled.
	if record.InputsMissingLabel != 1 {
		t.Errorf("InputsMissingLabel = %d, want 1", record.InputsMissingLabel)
	}
}
