package rag

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/bull/legal-rag/internal/domain"
)

var citationPattern = regexp.MustCompile(`\[([^\[\]|]+?)\s*\|\s*page:\s*(\d+)(?:\s*-\s*(\d+))?\s*\]`)

// UnverifiedCitations returns the citation tags in answer that point at no
// candidate placed in the prompt, in order of first appearance. A page range
// is accepted when any cited candidate page of that document falls inside it.
func UnverifiedCitations(answer string, candidates []domain.Candidate) []string {
	pages := make(map[string][]int)
	for _, c := range candidates {
		pages[c.Chunk.DocumentID] = append(pages[c.Chunk.DocumentID], c.Chunk.PageNumber)
	}

	unverified := []string{}
	seen := make(map[string]bool)
	for _, m := range citationPattern.FindAllStringSubmatch(answer, -1) {
		tag := m[0]
		if seen[tag] {
			continue
		}
		seen[tag] = true

		docID := strings.TrimSpace(m[1])
		from, _ := strconv.Atoi(m[2])
		to := from
		if m[3] != "" {
			to, _ = strconv.Atoi(m[3])
		}
		if from > to {
			from, to = to, from
		}

		if !coversPage(pages[docID], from, to) {
			unverified = append(unverified, tag)
		}
	}
	return unverified
}

func coversPage(pages []int, from, to int) bool {
	for _, p := range pages {
		if p >= from && p <= to {
			return true
		}
	}
	return false
}
