// Package searcher hosts the catalog search engine: an in-memory inverted
// index with field-weighted TF-IDF ranking, n-gram backed fuzzy matching
// and autocomplete suggestions.
package searcher

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/internal/catalog"
	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/internal/searcher/fuzzy"
	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/internal/searcher/suggest"
	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/pkg/errors"
)

// Result is one ranked item.
type Result struct {
	Item    catalog.Item        `json:"item"`
	Score   float64             `json:"score"`
	Matches []ranker.FieldMatch `json:"matches"`
}

// IndexStats describes the currently published index.
type IndexStats struct {
	index.Stats
	Version       uint64        `json:"version"`
	LoadedAt      time.Time     `json:"loaded_at"`
	BuiltAt       time.Time     `json:"built_at"`
	BuildDuration time.Duration `json:"build_duration_ns"`
}

// snapshot is everything one BuildIndex call produces. It is never
// mutated after being published.
type snapshot struct {
	idx      *index.Index
	items    []catalog.Item
	byID     map[string]int
	version  uint64
	loadedAt time.Time
	builtAt  time.Time
	took     time.Duration
}

// Engine serves searches against the most recently built snapshot.
// BuildIndex swaps in a complete new snapshot, so concurrent readers see
// either the old index or the new one, never a mix.
type Engine struct {
	cfg     config.SearchConfig
	fields  []string
	weights map[string]float64
	current atomic.Pointer[snapshot]
	builds  atomic.Uint64
	logger  *slog.Logger
}

// NewEngine creates an empty engine. Zero values in cfg fall back to the
// defaults from config.DefaultSearchConfig.
func NewEngine(cfg config.SearchConfig) *Engine {
	cfg = cfg.WithDefaults()
	e := &Engine{
		cfg:     cfg,
		fields:  make([]string, 0, len(cfg.Fields)),
		weights: make(map[string]float64, len(cfg.Fields)),
		logger:  slog.Default().With("component", "search-engine"),
	}
	for _, f := range cfg.Fields {
		e.fields = append(e.fields, f.Name)
		e.weights[f.Name] = f.Weight
	}
	return e
}

// Config returns the effective configuration.
func (e *Engine) Config() config.SearchConfig {
	return e.cfg
}

// BuildIndex replaces the whole index with one built from items. The
// engine keeps a reference to items until the next rebuild.
func (e *Engine) BuildIndex(items []catalog.Item) {
	e.BuildIndexAt(items, time.Now())
}

// BuildIndexAt is BuildIndex for items read from a source starting at
// loadedAt. Changes committed after loadedAt may be missing from items.
func (e *Engine) BuildIndexAt(items []catalog.Item, loadedAt time.Time) {
	start := time.Now()
	idx := index.Build(items, e.fields)
	snap := &snapshot{
		idx:      idx,
		items:    items,
		byID:     make(map[string]int, len(items)),
		version:  e.builds.Add(1),
		loadedAt: loadedAt.UTC(),
		builtAt:  time.Now().UTC(),
	}
	for i, it := range items {
		if _, dup := snap.byID[it.ID]; !dup {
			snap.byID[it.ID] = i
		}
	}
	snap.took = time.Since(start)
	e.current.Store(snap)

	stats := idx.Stats()
	e.logger.Info("search index built",
		"version", snap.version,
		"documents", stats.Documents,
		"terms", stats.Terms,
		"ngrams", stats.NGrams,
		"entries", stats.Entries,
		"duration", snap.took,
	)
}

// Ready reports whether an index has been built.
func (e *Engine) Ready() bool {
	return e.current.Load() != nil
}

// Version is the build counter of the published index, 0 before the
// first build.
func (e *Engine) Version() uint64 {
	if snap := e.current.Load(); snap != nil {
		return snap.version
	}
	return 0
}

// Stats describes the published index.
func (e *Engine) Stats() IndexStats {
	snap := e.current.Load()
	if snap == nil {
		return IndexStats{}
	}
	return IndexStats{
		Stats:         snap.idx.Stats(),
		Version:       snap.version,
		LoadedAt:      snap.loadedAt,
		BuiltAt:       snap.builtAt,
		BuildDuration: snap.took,
	}
}

// Search returns up to MaxResults items ranked for query.
func (e *Engine) Search(query string) []Result {
	return e.SearchN(query, 0)
}

// SearchN is Search with a caller limit; limit <= 0 or above MaxResults
// means MaxResults.
func (e *Engine) SearchN(query string, limit int) []Result {
	return e.Execute(query, limit).Results
}

// Response is a page of results plus the number of items that matched
// before the limit was applied.
type Response struct {
	Query     string   `json:"query"`
	TotalHits int      `json:"total_hits"`
	Results   []Result `json:"results"`
	Version   uint64   `json:"index_version"`
}

// Execute runs query against the published index. Query terms present in
// the vocabulary match exactly; others are replaced by their fuzzy
// candidates.
func (e *Engine) Execute(query string, limit int) Response {
	resp := Response{Query: query, Results: []Result{}}
	snap := e.current.Load()
	if snap == nil {
		return resp
	}
	resp.Version = snap.version
	plan := parser.Parse(query, e.cfg.MinMatchLength)
	if plan.Empty() {
		return resp
	}
	if limit <= 0 || limit > e.cfg.MaxResults {
		limit = e.cfg.MaxResults
	}

	matches := make([]ranker.TermMatch, 0, len(plan.Terms))
	for _, term := range plan.Terms {
		if snap.idx.Contains(term) {
			matches = append(matches, ranker.TermMatch{QueryTerm: term, IndexTerm: term})
			continue
		}
		for _, cand := range fuzzy.Candidates(snap.idx, term, e.cfg.FuzzyThreshold, fuzzy.DefaultCandidateLimit) {
			matches = append(matches, ranker.TermMatch{QueryTerm: term, IndexTerm: cand})
		}
	}

	ranked := ranker.Rank(snap.idx, matches, e.weights, snap.fieldValue, 0)
	resp.Results = make([]Result, 0, min(len(ranked), limit))
	for _, doc := range ranked {
		item, ok := snap.item(doc.DocID)
		if !ok {
			continue
		}
		resp.TotalHits++
		if len(resp.Results) < limit {
			resp.Results = append(resp.Results, Result{Item: item, Score: doc.Score, Matches: doc.Matches})
		}
	}
	e.logger.Debug("search executed",
		"query", query,
		"terms", plan.Terms,
		"matched_terms", len(matches),
		"total_hits", resp.TotalHits,
		"results", len(resp.Results),
	)
	return resp
}

// Suggestions returns up to limit completion terms for a partial query;
// limit <= 0 means the configured suggestion limit.
func (e *Engine) Suggestions(query string, limit int) []string {
	snap := e.current.Load()
	if snap == nil {
		return []string{}
	}
	if limit <= 0 {
		limit = e.cfg.SuggestionLimit
	}
	return suggest.Terms(snap.idx, query, e.cfg.FuzzyThreshold, limit)
}

// ProductSuggestions returns the top limit items for query; limit <= 0
// means the configured product suggestion limit.
func (e *Engine) ProductSuggestions(query string, limit int) []catalog.Item {
	if limit <= 0 {
		limit = e.cfg.ProductSuggestionLimit
	}
	results := e.SearchN(query, limit)
	items := make([]catalog.Item, len(results))
	for i, r := range results {
		items[i] = r.Item
	}
	return items
}

// Item looks up one indexed item by id.
func (e *Engine) Item(id string) (catalog.Item, error) {
	snap := e.current.Load()
	if snap == nil {
		return catalog.Item{}, apperrors.ErrIndexNotReady
	}
	item, ok := snap.item(id)
	if !ok {
		return catalog.Item{}, fmt.Errorf("%w: %s", apperrors.ErrItemNotFound, id)
	}
	return item, nil
}

func (s *snapshot) item(id string) (catalog.Item, bool) {
	i, ok := s.byID[id]
	if !ok {
		return catalog.Item{}, false
	}
	return s.items[i], true
}

func (s *snapshot) fieldValue(docID, field string) string {
	item, ok := s.item(docID)
	if !ok {
		return ""
	}
	v, _ := item.StringField(field)
	return v
}
