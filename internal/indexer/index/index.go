// Package index builds the immutable inverted index used by the search
// engine: term → entries, n-gram → terms, and term → IDF.
package index

import (
	"math"
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/internal/catalog"
	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/internal/indexer/tokenizer"
)

// Index is built once by Build and never mutated afterwards, so it can be
// shared between goroutines without locking.
type Index struct {
	postings  map[string]EntryList
	ngrams    map[string][]string
	idf       map[string]float64
	terms     []string
	docCount  int
	ngramSize int
}

// Build indexes the given fields of every item. Only string field values
// are indexed; a missing or non-string field is skipped for that item.
func Build(items []catalog.Item, fields []string) *Index {
	idx := &Index{
		postings:  make(map[string]EntryList),
		ngrams:    make(map[string][]string),
		idf:       make(map[string]float64),
		docCount:  len(items),
		ngramSize: tokenizer.DefaultNGramSize,
	}
	docFreq := make(map[string]map[string]struct{})
	ngramSets := make(map[string]map[string]struct{})

	for _, item := range items {
		for _, field := range fields {
			value, ok := item.StringField(field)
			if !ok {
				continue
			}
			tokens := tokenizer.Tokenize(value)
			if len(tokens) == 0 {
				continue
			}

			positions := make(map[string][]int)
			order := make([]string, 0, len(tokens))
			for _, tok := range tokens {
				if _, seen := positions[tok.Term]; !seen {
					order = append(order, tok.Term)
				}
				positions[tok.Term] = append(positions[tok.Term], tok.Position)

				docs, ok := docFreq[tok.Term]
				if !ok {
					docs = make(map[string]struct{})
					docFreq[tok.Term] = docs
				}
				docs[item.ID] = struct{}{}

				for _, gram := range tokenizer.NGrams(tok.Term, idx.ngramSize) {
					set, ok := ngramSets[gram]
					if !ok {
						set = make(map[string]struct{})
						ngramSets[gram] = set
					}
					set[tok.Term] = struct{}{}
				}
			}

			total := float64(len(tokens))
			for _, term := range order {
				pos := positions[term]
				idx.postings[term] = append(idx.postings[term], Entry{
					DocID:         item.ID,
					Field:         field,
					Positions:     pos,
					TermFrequency: float64(len(pos)) / total,
				})
			}
		}
	}

	for term, docs := range docFreq {
		idx.idf[term] = math.Log(float64(idx.docCount) / float64(len(docs)))
	}
	for gram, set := range ngramSets {
		terms := make([]string, 0, len(set))
		for term := range set {
			terms = append(terms, term)
		}
		sort.Strings(terms)
		idx.ngrams[gram] = terms
	}
	idx.terms = make([]string, 0, len(idx.postings))
	for term := range idx.postings {
		idx.terms = append(idx.terms, term)
	}
	sort.Strings(idx.terms)
	return idx
}

// Entries returns the entries stored for term, or nil.
func (idx *Index) Entries(term string) EntryList {
	return idx.postings[term]
}

// Contains reports whether term is in the vocabulary.
func (idx *Index) Contains(term string) bool {
	_, ok := idx.postings[term]
	return ok
}

// IDF returns ln(totalDocs / docsContainingTerm), or 0 for unknown terms.
func (idx *Index) IDF(term string) float64 {
	return idx.idf[term]
}

// TokensWithNGram returns the sorted terms containing gram.
func (idx *Index) TokensWithNGram(gram string) []string {
	return idx.ngrams[gram]
}

// NGramSize is the n-gram length the index was built with.
func (idx *Index) NGramSize() int {
	return idx.ngramSize
}

// Terms returns the sorted vocabulary. Callers must not modify it.
func (idx *Index) Terms() []string {
	return idx.terms
}

// TermsWithPrefix returns the vocabulary terms starting with prefix, sorted.
func (idx *Index) TermsWithPrefix(prefix string) []string {
	start := sort.SearchStrings(idx.terms, prefix)
	end := start
	for end < len(idx.terms) && strings.HasPrefix(idx.terms[end], prefix) {
		end++
	}
	return idx.terms[start:end]
}

// DocCount is the number of items the index was built from.
func (idx *Index) DocCount() int {
	return idx.docCount
}

// Stats reports the size of the index.
func (idx *Index) Stats() Stats {
	entries := 0
	for _, list := range idx.postings {
		entries += len(list)
	}
	return Stats{
		Documents: idx.docCount,
		Terms:     len(idx.postings),
		NGrams:    len(idx.ngrams),
		Entries:   entries,
	}
}
