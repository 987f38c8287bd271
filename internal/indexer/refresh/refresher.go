// Package refresh reloads the catalog from its source and rebuilds the
// search index, either on demand or on a fixed interval.
package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/internal/catalog"
	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/internal/searcher"
	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/pkg/resilience"
)

// Triggers recorded on index events.
const (
	TriggerStartup  = "startup"
	TriggerPeriodic = "periodic"
	TriggerManual   = "manual"
	TriggerEvent    = "catalog_event"
)

// Builder is the engine surface a refresh drives.
type Builder interface {
	BuildIndexAt(items []catalog.Item, loadedAt time.Time)
	Stats() searcher.IndexStats
}

// Invalidator drops cached responses after a rebuild.
type Invalidator interface {
	Invalidate(ctx context.Context) (int64, error)
}

// Options holds the optional collaborators. Nil fields are skipped.
type Options struct {
	Cache     Invalidator
	Collector *analytics.Collector
	Metrics   *metrics.Metrics
}

// Refresher serialises catalog reloads. Only one refresh runs at a time;
// concurrent callers wait for the running one and then start their own.
type Refresher struct {
	source      catalog.Source
	engine      Builder
	opts        Options
	breaker     *resilience.CircuitBreaker
	retry       resilience.RetryConfig
	loadTimeout time.Duration
	logger      *slog.Logger

	mu sync.Mutex
}

// New creates a Refresher. Retries and the load timeout come from cfg.
func New(source catalog.Source, engine Builder, cfg config.CatalogConfig, opts Options) *Refresher {
	r := &Refresher{
		source:      source,
		engine:      engine,
		opts:        opts,
		retry:       resilience.RetryConfig{MaxAttempts: cfg.RetryAttempts, InitialDelay: 500 * time.Millisecond},
		loadTimeout: cfg.LoadTimeout,
		logger:      slog.Default().With("component", "catalog-refresher"),
	}
	r.breaker = resilience.NewCircuitBreaker("catalog-source", resilience.CircuitBreakerConfig{
		FailureThreshold: 3,
		ResetTimeout:     time.Minute,
		OnStateChange:    r.recordBreakerState,
	})
	r.recordBreakerState(r.breaker.Name(), resilience.StateClosed)
	return r
}

// Refresh loads the catalog and publishes a new index. On failure the
// previously published index keeps serving and the returned error wraps
// ErrCatalogUnavailable.
func (r *Refresher) Refresh(ctx context.Context, trigger string) (searcher.IndexStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	var (
		items    []catalog.Item
		loadedAt time.Time
	)
	// Each attempt owns its result; a timed-out Load may still be running.
	attempt := func() error {
		var loaded []catalog.Item
		attemptStart := time.Now()
		err := resilience.WithTimeout(ctx, r.loadTimeout, "catalog-load", func(ctx context.Context) error {
			var err error
			loaded, err = r.source.Load(ctx)
			return err
		})
		if err == nil {
			items = loaded
			loadedAt = attemptStart
		}
		return err
	}
	err := r.breaker.Execute(func() error {
		return resilience.Retry(ctx, "catalog-load", r.retry, attempt)
	})
	if err != nil {
		r.fail(trigger, start, err)
		return searcher.IndexStats{}, fmt.Errorf("%w: %w", apperrors.ErrCatalogUnavailable, err)
	}

	r.engine.BuildIndexAt(items, loadedAt)
	stats := r.engine.Stats()
	took := time.Since(start)

	if r.opts.Cache != nil {
		if _, err := r.opts.Cache.Invalidate(ctx); err != nil {
			r.logger.Warn("cache invalidation after refresh failed", "error", err)
		}
	}
	if m := r.opts.Metrics; m != nil {
		m.IndexBuildsTotal.WithLabelValues("success").Inc()
		m.IndexBuildDuration.Observe(took.Seconds())
		m.IndexedDocuments.Set(float64(stats.Documents))
		m.IndexVocabularySize.Set(float64(stats.Terms))
	}
	r.opts.Collector.Track(analytics.IndexEvent{
		Type:      analytics.EventIndexBuild,
		Trigger:   trigger,
		Version:   stats.Version,
		Documents: stats.Documents,
		Terms:     stats.Terms,
		LatencyMs: float64(took.Microseconds()) / 1000,
		Timestamp: time.Now().UTC(),
	})
	r.logger.Info("catalog refreshed",
		"trigger", trigger,
		"version", stats.Version,
		"documents", stats.Documents,
		"duration", took,
	)
	return stats, nil
}

func (r *Refresher) fail(trigger string, start time.Time, err error) {
	if m := r.opts.Metrics; m != nil {
		m.IndexBuildsTotal.WithLabelValues("failure").Inc()
	}
	r.opts.Collector.Track(analytics.IndexEvent{
		Type:      analytics.EventIndexBuildFailure,
		Trigger:   trigger,
		LatencyMs: float64(time.Since(start).Microseconds()) / 1000,
		Error:     err.Error(),
		Timestamp: time.Now().UTC(),
	})
	r.logger.Error("catalog refresh failed", "trigger", trigger, "error", err)
}

func (r *Refresher) recordBreakerState(name string, to resilience.State) {
	if r.opts.Metrics != nil {
		r.opts.Metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
	}
}

// StartPeriodic refreshes every interval until ctx is cancelled. It
// returns immediately; a non-positive interval disables it.
func (r *Refresher) StartPeriodic(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		r.logger.Info("periodic refresh disabled")
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_, _ = r.Refresh(ctx, TriggerPeriodic)
			}
		}
	}()
	r.logger.Info("periodic refresh started", "interval", interval)
}
