// Package ranker scores index entries with field-weighted TF-IDF and
// orders the matching documents.
package ranker

import (
	"sort"

	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/internal/indexer/index"
)

const (
	// ExactBoost multiplies entries matched by the query term itself
	// rather than a fuzzy substitute.
	ExactBoost = 1.5
	// RepeatBoost multiplies entries whose term occurs more than once in
	// the field.
	RepeatBoost = 1.2
	// DefaultFieldWeight applies to fields without a configured weight.
	DefaultFieldWeight = 1.0
)

// TermMatch pairs a query term with one index term that answers it.
type TermMatch struct {
	QueryTerm string
	IndexTerm string
}

// Exact reports whether the index term is the query term verbatim.
func (m TermMatch) Exact() bool {
	return m.QueryTerm == m.IndexTerm
}

// Range is a half-open [Start, End) highlight span.
//
// Start is a token position, not a character offset, so spans are only an
// approximation of where the term sits in the original field text.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// FieldMatch describes where a document matched.
type FieldMatch struct {
	Field   string  `json:"field"`
	Value   string  `json:"value"`
	Indices []Range `json:"indices"`
}

type ScoredDoc struct {
	DocID   string       `json:"doc_id"`
	Score   float64      `json:"score"`
	Matches []FieldMatch `json:"matches"`
}

// Source is what Rank reads from the index.
type Source interface {
	Entries(term string) index.EntryList
	IDF(term string) float64
}

// FieldValue resolves the original string value of a document field.
type FieldValue func(docID, field string) string

// Rank accumulates a score per document over all matches:
// tf × idf × fieldWeight, ×ExactBoost for exact matches and ×RepeatBoost
// when the term repeats within the field. Results are ordered by score
// descending (ties by DocID) and truncated to limit when limit > 0.
func Rank(src Source, matches []TermMatch, weights map[string]float64, value FieldValue, limit int) []ScoredDoc {
	scores := make(map[string]*ScoredDoc)
	order := make([]string, 0)
	for _, m := range matches {
		idf := src.IDF(m.IndexTerm)
		for _, entry := range src.Entries(m.IndexTerm) {
			weight, ok := weights[entry.Field]
			if !ok {
				weight = DefaultFieldWeight
			}
			score := entry.TermFrequency * idf * weight
			if m.Exact() {
				score *= ExactBoost
			}
			if len(entry.Positions) > 1 {
				score *= RepeatBoost
			}

			doc, ok := scores[entry.DocID]
			if !ok {
				doc = &ScoredDoc{DocID: entry.DocID}
				scores[entry.DocID] = doc
				order = append(order, entry.DocID)
			}
			doc.Score += score
			doc.Matches = append(doc.Matches, fieldMatch(entry, m.IndexTerm, value))
		}
	}

	result := make([]ScoredDoc, 0, len(order))
	for _, id := range order {
		result = append(result, *scores[id])
	}
	if limit > 0 && len(result) > limit {
		return TopK(result, limit)
	}
	sort.Slice(result, func(i, j int) bool {
		return less(result[j], result[i])
	})
	return result
}

func fieldMatch(entry index.Entry, term string, value FieldValue) FieldMatch {
	ranges := make([]Range, len(entry.Positions))
	for i, pos := range entry.Positions {
		ranges[i] = Range{Start: pos, End: pos + len(term)}
	}
	fm := FieldMatch{Field: entry.Field, Indices: ranges}
	if value != nil {
		fm.Value = value(entry.DocID, entry.Field)
	}
	return fm
}

// less orders a below b: lower score, or equal score and larger DocID.
func less(a, b ScoredDoc) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	return a.DocID > b.DocID
}
