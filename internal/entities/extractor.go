// Package entities pulls named entities (people, organizations, dates, money,
// places, legal references) out of document pages. Extraction is best effort:
// failures yield empty categories, never errors.
package entities

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/openai/openai-go"

	"github.com/bull/legal-rag/internal/domain"
)

// DefaultMaxBatchChars bounds the text sent in one extraction request.
const DefaultMaxBatchChars = 12000

// Extractor returns the entities found in a document's pages.
type Extractor interface {
	Extract(ctx context.Context, pages []domain.Page) domain.EntitySet
}

// Unavailable is the extractor used when no model is configured or reachable.
type Unavailable struct{}

// Extract returns an empty set for every category.
func (Unavailable) Extract(context.Context, []domain.Page) domain.EntitySet {
	return domain.NewEntitySet()
}

// LLMExtractor asks a chat model, in JSON mode, to list entities per batch of pages.
type LLMExtractor struct {
	client        *openai.Client
	model         string
	maxBatchChars int
	logger        *slog.Logger
}

// NewLLMExtractor creates an extractor. A non-positive maxBatchChars selects
// DefaultMaxBatchChars.
func NewLLMExtractor(client *openai.Client, model string, maxBatchChars int, logger *slog.Logger) *LLMExtractor {
	if maxBatchChars <= 0 {
		maxBatchChars = DefaultMaxBatchChars
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LLMExtractor{
		client:        client,
		model:         model,
		maxBatchChars: maxBatchChars,
		logger:        logger,
	}
}

// New returns an LLMExtractor when model is set and reachable, otherwise Unavailable.
func New(ctx context.Context, client *openai.Client, model string, logger *slog.Logger) Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if model == "" || client == nil {
		logger.Info("Entity extraction disabled")
		return Unavailable{}
	}
	if _, err := client.Models.Get(ctx, model); err != nil {
		logger.Warn("Entity model unavailable, extraction disabled", "model", model, "error", err)
		return Unavailable{}
	}
	return NewLLMExtractor(client, model, 0, logger)
}

// Extract runs one request per batch of pages. A failed batch is logged and
// contributes nothing.
func (x *LLMExtractor) Extract(ctx context.Context, pages []domain.Page) domain.EntitySet {
	found := make(map[domain.EntityLabel]map[string]struct{}, len(domain.EntityLabels))
	for _, label := range domain.EntityLabels {
		found[label] = make(map[string]struct{})
	}

	for _, batch := range x.batches(pages) {
		raw, err := x.extractBatch(ctx, batch)
		if err != nil {
			x.logger.Warn("Entity extraction failed", "document_id", pages[0].DocumentID, "error", err)
			continue
		}
		for label, values := range raw {
			if !domain.IsEntityLabel(label) {
				continue
			}
			for _, v := range values {
				if v, ok := domain.NormalizeEntity(v); ok {
					found[domain.EntityLabel(label)][v] = struct{}{}
				}
			}
		}
	}

	set := domain.NewEntitySet()
	for label, values := range found {
		for v := range values {
			set[label] = append(set[label], v)
		}
		sort.Strings(set[label])
	}
	return set
}

// batches groups page texts so each batch stays under maxBatchChars.
// A single oversized page is truncated.
func (x *LLMExtractor) batches(pages []domain.Page) []string {
	var out []string
	var cur strings.Builder

	for _, p := range pages {
		text := strings.TrimSpace(p.Text)
		if text == "" {
			continue
		}
		text = x.truncate(text)

		if cur.Len() > 0 && cur.Len()+len(text)+2 > x.maxBatchChars {
			out = append(out, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteString("\n\n")
		}
		cur.WriteString(text)
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

func (x *LLMExtractor) truncate(text string) string {
	if len(text) <= x.maxBatchChars {
		return text
	}
	x.logger.Debug("Truncating page for entity extraction", "chars", len(text), "max", x.maxBatchChars)
	// back off to a rune boundary
	cut := x.maxBatchChars
	for cut > 0 && !isRuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }

const promptTemplate = `Extract named entities from this legal document text.

Categories:
- PERSON: people
- ORG: companies, agencies, institutions
- DATE: dates and periods
- MONEY: monetary amounts
- GPE: countries, cities, states
- LAW: statutes, acts, regulations, articles

Copy each entity exactly as written. Omit categories with no entities.

Text:
%s

Respond in JSON format:
{"PERSON": ["..."], "ORG": ["..."], "DATE": ["..."], "MONEY": ["..."], "GPE": ["..."], "LAW": ["..."]}`

func (x *LLMExtractor) extractBatch(ctx context.Context, text string) (map[string][]string, error) {
	resp, err := x.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(fmt.Sprintf(promptTemplate, text)),
		},
		Model:       openai.ChatModel(x.model),
		Temperature: openai.Float(0),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{
				Type: "json_object",
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	return parseEntities(resp.Choices[0].Message.Content)
}

// parseEntities decodes the model's JSON answer. Non-list values are ignored.
func parseEntities(content string) (map[string][]string, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	out := make(map[string][]string, len(raw))
	for label, msg := range raw {
		var values []string
		if err := json.Unmarshal(msg, &values); err != nil {
			continue
		}
		key := strings.ToUpper(strings.TrimSpace(label))
		out[key] = append(out[key], values...)
	}
	return out, nil
}
