package analytics

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/pkg/kafka"
)

// DefaultLatencySamples bounds the latency window used for percentiles.
const DefaultLatencySamples = 10000

// AggregatedStats is the dashboard view of the analytics stream.
type AggregatedStats struct {
	Searches           int64        `json:"searches"`
	ZeroResults        int64        `json:"zero_results"`
	Suggestions        int64        `json:"suggestions"`
	ProductSuggestions int64        `json:"product_suggestions"`
	CacheHits          int64        `json:"cache_hits"`
	CacheMisses        int64        `json:"cache_misses"`
	ZeroResultRate     float64      `json:"zero_result_rate"`
	CacheHitRate       float64      `json:"cache_hit_rate"`
	AvgLatencyMs       float64      `json:"avg_latency_ms"`
	P50LatencyMs       float64      `json:"p50_latency_ms"`
	P95LatencyMs       float64      `json:"p95_latency_ms"`
	P99LatencyMs       float64      `json:"p99_latency_ms"`
	QueriesPerMinute   float64      `json:"queries_per_minute"`
	TopQueries         []QueryCount `json:"top_queries"`
	ZeroResultQueries  []QueryCount `json:"zero_result_queries"`
	IndexBuilds        int64        `json:"index_builds"`
	IndexBuildFailures int64        `json:"index_build_failures"`
	IndexVersion       uint64       `json:"index_version"`
	IndexedDocuments   int          `json:"indexed_documents"`
	LastIndexBuild     time.Time    `json:"last_index_build,omitempty"`
	Since              time.Time    `json:"since"`
}

type QueryCount struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

// Aggregator folds search and index events into running totals. Latency
// percentiles cover the most recent DefaultLatencySamples searches.
type Aggregator struct {
	mu                 sync.RWMutex
	searches           int64
	zeroResults        int64
	suggestions        int64
	productSuggestions int64
	cacheHits          int64
	cacheMisses        int64
	indexBuilds        int64
	indexFailures      int64
	indexVersion       uint64
	indexedDocuments   int
	lastIndexBuild     time.Time

	latencies []float64
	next      int
	filled    bool

	queryCounts       map[string]int64
	zeroResultQueries map[string]int64
	topN              int
	startTime         time.Time
	now               func() time.Time
	logger            *slog.Logger
}

// NewAggregator creates an empty aggregator reporting the topN most
// frequent queries; topN <= 0 means 10.
func NewAggregator(topN int) *Aggregator {
	if topN <= 0 {
		topN = 10
	}
	return &Aggregator{
		latencies:         make([]float64, DefaultLatencySamples),
		queryCounts:       make(map[string]int64),
		zeroResultQueries: make(map[string]int64),
		topN:              topN,
		startTime:         time.Now().UTC(),
		now:               time.Now,
		logger:            slog.Default().With("component", "analytics-aggregator"),
	}
}

// Record folds one event into the totals.
func (a *Aggregator) Record(event Event) {
	switch ev := event.(type) {
	case SearchEvent:
		a.recordSearch(ev)
	case IndexEvent:
		a.recordIndex(ev)
	}
}

// HandleEvent returns a MessageHandler that feeds the analytics topic into
// agg. Undecodable messages are logged and committed.
func HandleEvent(agg *Aggregator) kafka.MessageHandler {
	return func(ctx context.Context, key []byte, value []byte) error {
		var envelope struct {
			Type EventType `json:"type"`
		}
		if err := json.Unmarshal(value, &envelope); err != nil {
			agg.logger.Error("failed to decode analytics event", "error", err, "key", string(key))
			return nil
		}
		switch envelope.Type {
		case EventSearch, EventZeroResult, EventSuggest, EventProductSuggest:
			ev, err := kafka.DecodeJSON[SearchEvent](value)
			if err != nil {
				agg.logger.Error("failed to decode search event", "error", err)
				return nil
			}
			agg.recordSearch(ev)
		case EventIndexBuild, EventIndexBuildFailure:
			ev, err := kafka.DecodeJSON[IndexEvent](value)
			if err != nil {
				agg.logger.Error("failed to decode index event", "error", err)
				return nil
			}
			agg.recordIndex(ev)
		default:
			agg.logger.Warn("ignoring unknown analytics event", "type", envelope.Type)
		}
		return nil
	}
}

func (a *Aggregator) recordSearch(ev SearchEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch ev.Type {
	case EventSuggest:
		a.suggestions++
	case EventProductSuggest:
		a.productSuggestions++
	case EventSearch, EventZeroResult:
		a.searches++
		query := normalizeQuery(ev.Query)
		a.queryCounts[query]++
		if ev.Type == EventZeroResult || ev.Returned == 0 {
			a.zeroResults++
			a.zeroResultQueries[query]++
		}
	default:
		return
	}

	if ev.CacheHit {
		a.cacheHits++
	} else {
		a.cacheMisses++
	}
	a.latencies[a.next] = ev.LatencyMs
	a.next++
	if a.next == len(a.latencies) {
		a.next = 0
		a.filled = true
	}
}

func (a *Aggregator) recordIndex(ev IndexEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if ev.Type == EventIndexBuildFailure {
		a.indexFailures++
		return
	}
	a.indexBuilds++
	if ev.Version >= a.indexVersion {
		a.indexVersion = ev.Version
		a.indexedDocuments = ev.Documents
		a.lastIndexBuild = ev.Timestamp
	}
}

// Stats returns a point-in-time snapshot.
func (a *Aggregator) Stats() AggregatedStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := AggregatedStats{
		Searches:           a.searches,
		ZeroResults:        a.zeroResults,
		Suggestions:        a.suggestions,
		ProductSuggestions: a.productSuggestions,
		CacheHits:          a.cacheHits,
		CacheMisses:        a.cacheMisses,
		IndexBuilds:        a.indexBuilds,
		IndexBuildFailures: a.indexFailures,
		IndexVersion:       a.indexVersion,
		IndexedDocuments:   a.indexedDocuments,
		LastIndexBuild:     a.lastIndexBuild,
		Since:              a.startTime,
	}
	if a.searches > 0 {
		stats.ZeroResultRate = float64(a.zeroResults) / float64(a.searches)
	}
	if lookups := a.cacheHits + a.cacheMisses; lookups > 0 {
		stats.CacheHitRate = float64(a.cacheHits) / float64(lookups)
	}

	n := a.next
	if a.filled {
		n = len(a.latencies)
	}
	if n > 0 {
		sorted := make([]float64, n)
		copy(sorted, a.latencies[:n])
		sort.Float64s(sorted)
		var sum float64
		for _, l := range sorted {
			sum += l
		}
		stats.AvgLatencyMs = sum / float64(n)
		stats.P50LatencyMs = percentile(sorted, 50)
		stats.P95LatencyMs = percentile(sorted, 95)
		stats.P99LatencyMs = percentile(sorted, 99)
	}
	stats.TopQueries = topN(a.queryCounts, a.topN)
	stats.ZeroResultQueries = topN(a.zeroResultQueries, a.topN)
	if elapsed := a.now().Sub(a.startTime).Minutes(); elapsed > 0 {
		stats.QueriesPerMinute = float64(a.searches) / elapsed
	}
	return stats
}

// Restore seeds the counters from a persisted snapshot so totals survive
// restarts. Only the reported top queries are carried over; latency
// samples start empty.
func (a *Aggregator) Restore(s AggregatedStats) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.searches += s.Searches
	a.zeroResults += s.ZeroResults
	a.suggestions += s.Suggestions
	a.productSuggestions += s.ProductSuggestions
	a.cacheHits += s.CacheHits
	a.cacheMisses += s.CacheMisses
	a.indexBuilds += s.IndexBuilds
	a.indexFailures += s.IndexBuildFailures
	if s.IndexVersion > a.indexVersion {
		a.indexVersion = s.IndexVersion
		a.indexedDocuments = s.IndexedDocuments
		a.lastIndexBuild = s.LastIndexBuild
	}
	for _, q := range s.TopQueries {
		a.queryCounts[q.Query] += q.Count
	}
	for _, q := range s.ZeroResultQueries {
		a.zeroResultQueries[q.Query] += q.Count
	}
	if !s.Since.IsZero() && s.Since.Before(a.startTime) {
		a.startTime = s.Since
	}
	a.logger.Info("analytics restored from snapshot", "searches", s.Searches, "since", s.Since)
}

func normalizeQuery(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}

func percentile(sorted []float64, pct int) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func topN(counts map[string]int64, n int) []QueryCount {
	result := make([]QueryCount, 0, len(counts))
	for query, count := range counts {
		result = append(result, QueryCount{Query: query, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Query < result[j].Query
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}
