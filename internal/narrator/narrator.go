// Package narrator turns the report sections into one executive sentence
// per section, in Brazilian Portuguese, via a chat-completion provider.
package narrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"regexp"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"github.com/site-audit/auditor/internal/config"
	"github.com/site-audit/auditor/internal/model"
)

// ErrLLMUnavailable reports that no executive summary could be produced.
// The HTTP layer maps it to 503.
var ErrLLMUnavailable = errors.New("llm unavailable")

const groqBaseURL = "https://api.groq.com/openai/v1"

const (
	groqDefaultModel   = "llama-3.1-8b-instant"
	openaiDefaultModel = "gpt-4o-mini"
)

const systemPrompt = "Write one executive sentence per section in Brazilian Portuguese. " +
	"Return JSON with exactly these keys: overall, seo, a11y, content, performance, indexacao, erros_criticos. " +
	"Rules: one sentence only per key; no URLs; no numeric metrics; no bullet/list formatting; " +
	"be actionable and grounded only on provided findings; use a consultative commercial tone that highlights " +
	"risk or opportunity; do not mention the phrase analise completa."

// Narrator holds the configured chat-completion client.
type Narrator struct {
	client *openai.Client
	model  string
	log    *logrus.Entry
}

// New builds a narrator for the given API key. Keys prefixed "gsk_" talk
// to Groq, everything else to OpenAI. Returns nil when the key is empty;
// Summarize on a nil narrator fails with ErrLLMUnavailable.
func New(apiKey, modelOverride string) *Narrator {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil
	}

	cfg := openai.DefaultConfig(apiKey)
	model := openaiDefaultModel
	if strings.HasPrefix(apiKey, "gsk_") {
		cfg.BaseURL = groqBaseURL
		model = groqDefaultModel
	}
	if override := strings.TrimSpace(modelOverride); override != "" {
		model = override
	}
	cfg.HTTPClient = &http.Client{Timeout: config.LLMTimeout}

	return &Narrator{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		log:    logrus.WithField("component", "narrator"),
	}
}

type payloadFinding struct {
	Severity string `json:"severity"`
	Title    string `json:"title"`
	HowToFix string `json:"how_to_fix"`
}

type payloadSection struct {
	Status      string           `json:"status"`
	Summary     string           `json:"summary"`
	Findings    []payloadFinding `json:"findings"`
	NextActions []string         `json:"next_actions"`
}

// Summarize produces the seven-key executive summary. Any provider or
// parse failure wraps ErrLLMUnavailable.
func (n *Narrator) Summarize(ctx context.Context, sections map[string]*model.Section) (map[string]string, error) {
	if n == nil {
		return nil, fmt.Errorf("%w: LLM_API_KEY is missing", ErrLLMUnavailable)
	}

	payload := make(map[string]payloadSection, len(model.SectionKeys))
	for _, key := range model.SectionKeys {
		section := sections[key]
		if section == nil {
			section = &model.Section{}
		}

		findings := make([]payloadFinding, 0, 3)
		for _, finding := range section.Findings {
			if len(findings) >= 3 {
				break
			}
			findings = append(findings, payloadFinding{
				Severity: finding.Severity,
				Title:    finding.Title,
				HowToFix: finding.HowToFix,
			})
		}

		actions := section.NextActions
		if len(actions) > 3 {
			actions = actions[:3]
		}

		payload[key] = payloadSection{
			Status:      section.Status,
			Summary:     section.Summary,
			Findings:    findings,
			NextActions: actions,
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: payload encoding failed", ErrLLMUnavailable)
	}

	resp, err := n.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: n.model,
		// A literal 0 is dropped by the client's omitempty tag; the
		// smallest positive float is its convention for temperature 0.
		Temperature: math.SmallestNonzeroFloat32,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: string(body)},
		},
	})
	if err != nil {
		n.log.WithError(err).Warn("chat completion failed")
		return nil, fmt.Errorf("%w: LLM request failed", ErrLLMUnavailable)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: LLM response parsing failed", ErrLLMUnavailable)
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &parsed); err != nil {
		return nil, fmt.Errorf("%w: LLM response parsing failed", ErrLLMUnavailable)
	}

	summary := make(map[string]string, len(model.SectionKeys))
	for _, key := range model.SectionKeys {
		value, ok := parsed[key].(string)
		if !ok {
			return nil, fmt.Errorf("%w: LLM response is missing key: %s", ErrLLMUnavailable, key)
		}
		summary[key] = SentenceOrFallback(key, sections[key], value)
	}
	return summary, nil
}

var (
	urlRe         = regexp.MustCompile(`(?i)https?://\S+|www\.\S+`)
	tagRe         = regexp.MustCompile(`<[^>]+>`)
	numberRe      = regexp.MustCompile(`\b\d+(?:[.,]\d+)?%?\b`)
	controlWSRe   = regexp.MustCompile(`[\r\n\t]+`)
	multiWSRe     = regexp.MustCompile(`\s+`)
	analiseRe     = regexp.MustCompile(`(?i)\ban[áa]lise completa\b`)
	sentenceEndRe = regexp.MustCompile(`[.!?]\s+`)
	trailingRe    = regexp.MustCompile(`[.!?]+$`)
)

// glossary swaps English audit jargon for Portuguese, in order.
var glossary = []struct{ from, to string }{
	{"mixed content", "conteudo misto"},
	{"render blocking", "bloqueio de renderizacao"},
	{"title", "titulo"},
	{"heading", "cabecalho"},
}

// stripURLsAndMetrics removes URLs, markup, numeric tokens and dots, then
// collapses whitespace.
func stripURLsAndMetrics(text string) string {
	cleaned := urlRe.ReplaceAllString(text, "")
	cleaned = tagRe.ReplaceAllString(cleaned, "")
	cleaned = numberRe.ReplaceAllString(cleaned, "")
	cleaned = strings.ReplaceAll(cleaned, ".", " ")
	cleaned = controlWSRe.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(multiWSRe.ReplaceAllString(cleaned, " "))
}

func translateGlossary(text string) string {
	for _, swap := range glossary {
		re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(swap.from))
		text = re.ReplaceAllString(text, swap.to)
	}
	return text
}

// sanitizeSentence runs the full chain and keeps only the first sentence,
// without its terminal punctuation. Returns "" when nothing survives.
func sanitizeSentence(text string) string {
	cleaned := translateGlossary(stripURLsAndMetrics(text))
	cleaned = analiseRe.ReplaceAllString(cleaned, "aprofundamento estrategico")
	if cleaned == "" {
		return ""
	}

	sentence := ""
	rest := cleaned
	for {
		loc := sentenceEndRe.FindStringIndex(rest)
		if loc == nil {
			sentence = strings.TrimSpace(rest)
			break
		}
		candidate := strings.TrimSpace(rest[:loc[0]+1])
		if candidate != "" {
			sentence = candidate
			break
		}
		rest = rest[loc[1]:]
	}
	if sentence == "" {
		sentence = strings.TrimSpace(cleaned)
	}
	return strings.TrimSpace(trailingRe.ReplaceAllString(sentence, ""))
}

// SentenceOrFallback sanitizes one LLM sentence; when nothing survives it
// falls back to the rule-based sentence for the section.
func SentenceOrFallback(key string, section *model.Section, raw string) string {
	if sentence := sanitizeSentence(raw); sentence != "" {
		return sentence + "."
	}
	return RulesBasedSentence(key, section)
}

const genericFallback = "O proximo passo e aplicar melhorias objetivas nesta frente para elevar resultado comercial"

// fallbackFocus names what each section is about, for fallback sentences.
var fallbackFocus = map[string]string{
	"overall":        "desempenho digital e potencial de crescimento",
	"seo":            "visibilidade organica e geracao de demanda",
	"a11y":           "experiencia de navegacao e confianca da marca",
	"content":        "clareza da proposta e capacidade de conversao",
	"performance":    "fluidez da jornada e tempo de resposta percebido",
	"indexacao":      "presenca organica e cobertura de paginas",
	"erros_criticos": "riscos tecnicos com impacto direto em resultados",
}

// RulesBasedSentence builds the executive sentence without an LLM, from
// the section's status and first finding.
func RulesBasedSentence(key string, section *model.Section) string {
	focus, ok := fallbackFocus[key]
	if !ok {
		focus = "performance digital"
	}

	status := model.StatusAttention
	var findings []model.Finding
	if section != nil {
		status = strings.ToLower(section.Status)
		findings = section.Findings
	}

	if len(findings) > 0 {
		if candidate := strings.ToLower(stripURLsAndMetrics(findings[0].Title)); candidate != "" {
			focus = candidate
		}
	}

	var base string
	switch {
	case len(findings) == 0:
		base = fmt.Sprintf(
			"Nesta leitura inicial, %s aparece estavel e o proximo passo e refinar essa frente para ampliar resultados com previsibilidade",
			focus,
		)
	case status == model.StatusCritical:
		base = fmt.Sprintf(
			"Foram identificados riscos relevantes em %s e o proximo passo e priorizar correcoes de maior impacto para proteger conversao e receita",
			focus,
		)
	case status == model.StatusAttention:
		base = fmt.Sprintf(
			"Ha oportunidades claras em %s e o proximo passo e executar melhorias priorizadas para transformar potencial em ganho comercial",
			focus,
		)
	default:
		base = fmt.Sprintf(
			"Existem oportunidades pontuais em %s e o proximo passo e capturar ganhos adicionais com ajustes de alto retorno",
			focus,
		)
	}

	if sentence := sanitizeSentence(base); sentence != "" {
		return sentence + "."
	}
	return genericFallback + "."
}
