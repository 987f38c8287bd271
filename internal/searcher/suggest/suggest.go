// Package suggest proposes completion terms for a partial query from the
// indexed vocabulary.
package suggest

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/internal/searcher/fuzzy"
)

const (
	// DefaultLimit is the number of suggestions returned when none is asked for.
	DefaultLimit = 8
	// MinQueryLength is the shortest query that gets suggestions.
	MinQueryLength = 2
	// FuzzyWeight down-weights fuzzy suggestions against prefix matches.
	FuzzyWeight = 0.8
)

// Vocabulary is the index surface suggestions are drawn from.
type Vocabulary interface {
	fuzzy.NGramIndex
	TermsWithPrefix(prefix string) []string
	Entries(term string) index.EntryList
}

type weighted struct {
	term   string
	weight float64
}

// Terms returns up to limit vocabulary terms for query. Terms starting
// with the query are weighted by their entry count; fuzzy candidates not
// already found by prefix get entry count × FuzzyWeight.
func Terms(v Vocabulary, query string, threshold float64, limit int) []string {
	if utf8.RuneCountInString(query) < MinQueryLength {
		return []string{}
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	q := strings.ToLower(query)

	seen := make(map[string]struct{})
	found := make([]weighted, 0)
	for _, term := range v.TermsWithPrefix(q) {
		seen[term] = struct{}{}
		found = append(found, weighted{term: term, weight: float64(len(v.Entries(term)))})
	}
	for _, term := range fuzzy.Candidates(v, q, threshold, fuzzy.DefaultCandidateLimit) {
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}
		found = append(found, weighted{term: term, weight: float64(len(v.Entries(term))) * FuzzyWeight})
	}

	sort.SliceStable(found, func(i, j int) bool {
		if found[i].weight != found[j].weight {
			return found[i].weight > found[j].weight
		}
		return found[i].term < found[j].term
	})
	if len(found) > limit {
		found = found[:limit]
	}
	out := make([]string, len(found))
	for i, w := range found {
		out[i] = w.term
	}
	return out
}
