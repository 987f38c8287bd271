package fuzzy

import (
	"sort"

	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/internal/indexer/tokenizer"
)

const (
	// DefaultThreshold is the minimum similarity for a fuzzy match.
	DefaultThreshold = 0.7
	// DefaultCandidateLimit caps the number of fuzzy substitutes per term.
	DefaultCandidateLimit = 5
)

// NGramIndex is the part of the index the candidate finder needs.
type NGramIndex interface {
	TokensWithNGram(gram string) []string
	NGramSize() int
}

type candidate struct {
	term  string
	votes int
}

// Candidates returns indexed terms that look like typos or variants of
// term. Terms sharing at least one n-gram with term are tallied by the
// number of shared n-grams; only those whose similarity reaches threshold
// survive. Survivors are ordered by votes, highest first, ties broken
// alphabetically, and at most limit are returned.
func Candidates(idx NGramIndex, term string, threshold float64, limit int) []string {
	if limit <= 0 {
		limit = DefaultCandidateLimit
	}
	votes := make(map[string]int)
	for _, gram := range tokenizer.NGrams(term, idx.NGramSize()) {
		for _, tok := range idx.TokensWithNGram(gram) {
			votes[tok]++
		}
	}
	if len(votes) == 0 {
		return nil
	}

	matches := make([]candidate, 0, len(votes))
	for tok, n := range votes {
		if SimilarAtLeast(term, tok, threshold) {
			matches = append(matches, candidate{term: tok, votes: n})
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].votes != matches[j].votes {
			return matches[i].votes > matches[j].votes
		}
		return matches[i].term < matches[j].term
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.term
	}
	return out
}
