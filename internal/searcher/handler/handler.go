// Package handler exposes the catalog search engine over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/internal/catalog"
	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/internal/indexer/refresh"
	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/internal/searcher"
	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/pkg/tracing"
)

// Engine is the search surface the handler serves. *searcher.Engine
// satisfies it.
type Engine interface {
	Ready() bool
	Version() uint64
	Config() config.SearchConfig
	Execute(query string, limit int) searcher.Response
	Suggestions(query string, limit int) []string
	ProductSuggestions(query string, limit int) []catalog.Item
	Item(id string) (catalog.Item, error)
	Stats() searcher.IndexStats
}

// Refresher rebuilds the index on demand.
type Refresher interface {
	Refresh(ctx context.Context, trigger string) (searcher.IndexStats, error)
}

// SuggestResponse is the body of GET /api/v1/suggest.
type SuggestResponse struct {
	Query       string   `json:"query"`
	Suggestions []string `json:"suggestions"`
}

// ProductsResponse is the body of GET /api/v1/suggest/products.
type ProductsResponse struct {
	Query string         `json:"query"`
	Items []catalog.Item `json:"items"`
}

// Options holds the optional collaborators. Nil fields are skipped.
type Options struct {
	Refresher Refresher
	Cache     *cache.QueryCache
	Collector *analytics.Collector
	Metrics   *metrics.Metrics
}

type Handler struct {
	engine Engine
	opts   Options
	cfg    config.SearchConfig
	logger *slog.Logger
}

func New(engine Engine, opts Options) *Handler {
	return &Handler{
		engine: engine,
		opts:   opts,
		cfg:    engine.Config(),
		logger: slog.Default().With("component", "search-handler"),
	}
}

// Register mounts every route on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/suggest", h.Suggest)
	mux.HandleFunc("GET /api/v1/suggest/products", h.ProductSuggest)
	mux.HandleFunc("GET /api/v1/items/{id}", h.Item)
	mux.HandleFunc("GET /api/v1/index/stats", h.IndexStats)
	mux.HandleFunc("POST /api/v1/index/refresh", h.Refresh)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	query, limit, ok := h.parseQuery(w, r, h.cfg.DefaultLimit, h.cfg.MaxResults)
	if !ok {
		return
	}
	ctx, span := tracing.Start(r.Context(), "search")
	defer span.End()
	span.SetAttr("query", query)

	resp, hit, err := lookup(ctx, h, cache.KindSearch, query, limit, func() (searcher.Response, error) {
		_, s := tracing.Start(ctx, "engine.execute")
		defer s.End()
		return h.engine.Execute(query, limit), nil
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	resp.Query = query
	span.SetAttr("total_hits", resp.TotalHits)
	span.SetAttr("cache_hit", hit)

	elapsed := time.Since(start)
	eventType := analytics.EventSearch
	resultType := "hit"
	if len(resp.Results) == 0 {
		eventType = analytics.EventZeroResult
		resultType = "zero"
	}
	if m := h.opts.Metrics; m != nil {
		m.SearchQueriesTotal.WithLabelValues(resultType).Inc()
		m.SearchLatency.WithLabelValues(cacheStatus(h.opts.Cache, hit)).Observe(elapsed.Seconds())
		m.SearchResultsCount.Observe(float64(len(resp.Results)))
	}
	h.track(ctx, eventType, query, len(resp.Results), elapsed, hit)
	logger.FromContext(ctx).Info("search completed",
		"query", query,
		"total_hits", resp.TotalHits,
		"returned", len(resp.Results),
		"cache_hit", hit,
		"latency_ms", elapsed.Milliseconds(),
	)
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Suggest(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	query, limit, ok := h.parseQuery(w, r, h.cfg.SuggestionLimit, h.cfg.MaxResults)
	if !ok {
		return
	}
	terms, hit, err := lookup(r.Context(), h, cache.KindSuggest, query, limit, func() ([]string, error) {
		return h.engine.Suggestions(query, limit), nil
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if m := h.opts.Metrics; m != nil {
		m.SuggestionsTotal.WithLabelValues("terms").Inc()
	}
	h.track(r.Context(), analytics.EventSuggest, query, len(terms), time.Since(start), hit)
	h.writeJSON(w, http.StatusOK, SuggestResponse{Query: query, Suggestions: terms})
}

func (h *Handler) ProductSuggest(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	query, limit, ok := h.parseQuery(w, r, h.cfg.ProductSuggestionLimit, h.cfg.MaxResults)
	if !ok {
		return
	}
	items, hit, err := lookup(r.Context(), h, cache.KindProducts, query, limit, func() ([]catalog.Item, error) {
		return h.engine.ProductSuggestions(query, limit), nil
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if m := h.opts.Metrics; m != nil {
		m.SuggestionsTotal.WithLabelValues("products").Inc()
	}
	h.track(r.Context(), analytics.EventProductSuggest, query, len(items), time.Since(start), hit)
	h.writeJSON(w, http.StatusOK, ProductsResponse{Query: query, Items: items})
}

func (h *Handler) Item(w http.ResponseWriter, r *http.Request) {
	item, err := h.engine.Item(r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, item)
}

func (h *Handler) IndexStats(w http.ResponseWriter, r *http.Request) {
	if !h.engine.Ready() {
		h.writeError(w, r, apperrors.ErrIndexNotReady)
		return
	}
	h.writeJSON(w, http.StatusOK, h.engine.Stats())
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	if h.opts.Refresher == nil {
		h.writeError(w, r, apperrors.New(apperrors.ErrDisabled, http.StatusServiceUnavailable, "refresh is not configured"))
		return
	}
	stats, err := h.opts.Refresher.Refresh(r.Context(), refresh.TriggerManual)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.opts.Cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	h.writeJSON(w, http.StatusOK, h.opts.Cache.Stats())
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.opts.Cache == nil {
		h.writeError(w, r, apperrors.New(apperrors.ErrDisabled, http.StatusServiceUnavailable, "caching is disabled"))
		return
	}
	deleted, err := h.opts.Cache.Invalidate(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"status": "invalidated", "keys_deleted": deleted})
}

// lookup answers through the query cache when one is configured. It
// returns ErrIndexNotReady before the first build.
func lookup[T any](ctx context.Context, h *Handler, kind cache.Kind, query string, limit int, compute func() (T, error)) (T, bool, error) {
	if !h.engine.Ready() {
		var zero T
		return zero, false, apperrors.ErrIndexNotReady
	}
	if h.opts.Cache == nil {
		v, err := compute()
		return v, false, err
	}
	key := cache.Key{Kind: kind, Query: query, Limit: limit, Version: h.engine.Version()}
	v, hit, err := cache.GetOrCompute(ctx, h.opts.Cache, key, compute)
	if hit && h.opts.Metrics != nil {
		h.opts.Metrics.CacheHitsTotal.Inc()
	} else if h.opts.Metrics != nil {
		h.opts.Metrics.CacheMissesTotal.Inc()
	}
	return v, hit, err
}

// parseQuery reads q and limit. A missing q is a 400; a limit above max is
// clamped.
func (h *Handler) parseQuery(w http.ResponseWriter, r *http.Request, defaultLimit, maxLimit int) (string, int, bool) {
	query := r.URL.Query().Get("q")
	if strings.TrimSpace(query) == "" {
		h.writeError(w, r, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "query parameter 'q' is required"))
		return "", 0, false
	}
	limit := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			h.writeError(w, r, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "limit must be a positive integer"))
			return "", 0, false
		}
		limit = parsed
	}
	return query, min(limit, maxLimit), true
}

func (h *Handler) track(ctx context.Context, typ analytics.EventType, query string, returned int, elapsed time.Duration, hit bool) {
	h.opts.Collector.Track(analytics.SearchEvent{
		Type:      typ,
		Query:     query,
		Terms:     tokenizer.Terms(query),
		Returned:  returned,
		LatencyMs: float64(elapsed.Microseconds()) / 1000,
		CacheHit:  hit,
		Version:   h.engine.Version(),
		Timestamp: time.Now().UTC(),
		RequestID: logger.RequestID(ctx),
	})
}

func cacheStatus(c *cache.QueryCache, hit bool) string {
	switch {
	case c == nil:
		return "disabled"
	case hit:
		return "hit"
	default:
		return "miss"
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatusCode(err)
	msg := err.Error()
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		msg = appErr.Message
	}
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		logger.FromContext(r.Context()).Error("request failed", "path", r.URL.Path, "error", err)
		msg = "internal error"
	}
	h.writeJSON(w, status, map[string]string{"error": msg})
}
