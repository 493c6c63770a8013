package rag

import (
	"fmt"
	"strings"

	"github.com/bull/legal-rag/internal/domain"
)

// RefusalText is the exact answer the model must give when the excerpts do
// not contain the answer.
const RefusalText = "Not found in the provided documents."

const (
	// MaxExcerptChars bounds each excerpt placed in the prompt.
	MaxExcerptChars = 1200
	// MaxPreviewChars bounds the source text returned to callers.
	MaxPreviewChars = 600
)

const promptTemplate = `You are a legal document analyzer. Answer the user's question using ONLY the document excerpts below.

Rules:
- Use only information stated in the excerpts. Do not use outside knowledge.
- If the excerpts do not contain the answer, reply with exactly: %s
- After every factual claim, cite its source with the tag shown before the excerpt, in the form [document_id | page:N] or [document_id | page:N-M].
- Be accurate and concise.

Document Excerpts:
%s

User Question: %s

Answer:`

// BuildPrompt renders the grounding prompt for a question and its candidates.
func BuildPrompt(question string, candidates []domain.Candidate) string {
	return fmt.Sprintf(promptTemplate, RefusalText, BuildContext(candidates), strings.TrimSpace(question))
}

// BuildContext renders one tagged excerpt per candidate, separated by blank lines.
func BuildContext(candidates []domain.Candidate) string {
	if len(candidates) == 0 {
		return "(no excerpts)"
	}
	parts := make([]string, len(candidates))
	for i, c := range candidates {
		excerpt := c.Chunk.Text
		if truncated, ok := truncateRunes(excerpt, MaxExcerptChars); ok {
			excerpt = strings.TrimRight(truncated, " \t\r\n") + "..."
		}
		parts[i] = citationTag(c.Chunk) + " " + excerpt
	}
	return strings.Join(parts, "\n\n")
}

// citationTag formats "[document_id | page:N]".
func citationTag(c domain.Chunk) string {
	source := c.DocumentID
	if source == "" {
		source = "unknown_source"
	}
	page := "?"
	if c.PageNumber > 0 {
		page = fmt.Sprint(c.PageNumber)
	}
	return fmt.Sprintf("[%s | page:%s]", source, page)
}

// preview shortens text for returned sources.
func preview(text string) string {
	if truncated, ok := truncateRunes(text, MaxPreviewChars); ok {
		return truncated + "..."
	}
	return text
}

// truncateRunes cuts s to max characters and reports whether it did.
func truncateRunes(s string, max int) (string, bool) {
	if len(s) <= max {
		return s, false
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i], true
		}
		n++
	}
	return s, false
}
