// Package parser turns a raw free-text query into the ordered list of
// normalised terms the engine looks up.
package parser

import (
	"strings"
	"unicode/utf8"

	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/internal/indexer/tokenizer"
)

// DefaultMinMatchLength is the shortest query worth matching.
const DefaultMinMatchLength = 2

type QueryPlan struct {
	Terms    []string
	RawQuery string
}

// Empty reports whether the plan has nothing to look up.
func (p *QueryPlan) Empty() bool {
	return len(p.Terms) == 0
}

// Parse tokenizes query. A query shorter than minMatchLength characters
// (after trimming) yields an empty plan.
func Parse(query string, minMatchLength int) *QueryPlan {
	plan := &QueryPlan{
		Terms:    make([]string, 0),
		RawQuery: query,
	}
	trimmed := strings.TrimSpace(query)
	if trimmed == "" || utf8.RuneCountInString(trimmed) < minMatchLength {
		return plan
	}
	for _, tok := range tokenizer.Tokenize(trimmed) {
		plan.Terms = append(plan.Terms, tok.Term)
	}
	return plan
}
