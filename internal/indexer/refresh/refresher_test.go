package refresh

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/internal/catalog"
	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/internal/searcher"
	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type stubSource struct {
	items    []catalog.Item
	failures int32
	calls    atomic.Int32
}

func (s *stubSource) Load(ctx context.Context) ([]catalog.Item, error) {
	n := s.calls.Add(1)
	if n <= s.failures {
		return nil, errors.New("database is restarting")
	}
	return s.items, nil
}

type countingCache struct{ n atomic.Int32 }

func (c *countingCache) Invalidate(context.Context) (int64, error) {
	c.n.Add(1)
	return 0, nil
}

func testItems() []catalog.Item {
	return []catalog.Item{
		{ID: "1", Slug: "apple-iphone-15", Name: "Apple iPhone 15", Brand: "Apple", Category: "Phones"},
		{ID: "2", Slug: "iphone-case", Name: "iPhone Case", Brand: "Generic", Category: "Accessories"},
	}
}

func catalogConfig(attempts int) config.CatalogConfig {
	return config.CatalogConfig{RetryAttempts: attempts, LoadTimeout: time.Second}
}

func TestRefreshBuildsIndex(t *testing.T) {
	engine := searcher.NewEngine(config.SearchConfig{})
	cache := &countingCache{}
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	r := New(&stubSource{items: testItems()}, engine, catalogConfig(1), Options{Cache: cache, Metrics: m})

	stats, err := r.Refresh(context.Background(), TriggerManual)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if stats.Documents != 2 || stats.Version != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if !engine.Ready() {
		t.Error("engine should be ready after refresh")
	}
	if cache.n.Load() != 1 {
		t.Errorf("expected cache invalidated once, got %d", cache.n.Load())
	}
	if got := testutil.ToFloat64(m.IndexedDocuments); got != 2 {
		t.Errorf("expected indexed documents gauge 2, got %v", got)
	}
	if got := testutil.ToFloat64(m.IndexBuildsTotal.WithLabelValues("success")); got != 1 {
		t.Errorf("expected 1 successful build, got %v", got)
	}
}

func TestRefreshRetriesTransientFailure(t *testing.T) {
	engine := searcher.NewEngine(config.SearchConfig{})
	src := &stubSource{items: testItems(), failures: 1}
	r := New(src, engine, catalogConfig(3), Options{})
	r.retry.InitialDelay = time.Millisecond

	if _, err := r.Refresh(context.Background(), TriggerStartup); err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	if src.calls.Load() != 2 {
		t.Errorf("expected 2 load calls, got %d", src.calls.Load())
	}
}

func TestRefreshFailureKeepsPreviousIndex(t *testing.T) {
	engine := searcher.NewEngine(config.SearchConfig{})
	engine.BuildIndex(testItems())
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	r := New(&stubSource{failures: 100}, engine, catalogConfig(1), Options{Metrics: m})

	_, err := r.Refresh(context.Background(), TriggerManual)
	if !errors.Is(err, apperrors.ErrCatalogUnavailable) {
		t.Fatalf("expected ErrCatalogUnavailable, got %v", err)
	}
	if engine.Version() != 1 {
		t.Errorf("previous index should keep serving, version=%d", engine.Version())
	}
	if len(engine.Search("iphone")) != 2 {
		t.Error("previous index should still answer searches")
	}
	if got := testutil.ToFloat64(m.IndexBuildsTotal.WithLabelValues("failure")); got != 1 {
		t.Errorf("expected 1 failed build, got %v", got)
	}
}

func TestRefreshCircuitOpens(t *testing.T) {
	engine := searcher.NewEngine(config.SearchConfig{})
	src := &stubSource{failures: 100}
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	r := New(src, engine, catalogConfig(1), Options{Metrics: m})

	for i := 0; i < 4; i++ {
		_, _ = r.Refresh(context.Background(), TriggerPeriodic)
	}
	if src.calls.Load() != 3 {
		t.Errorf("expected the breaker to stop loads after 3 failures, got %d calls", src.calls.Load())
	}
	if got := testutil.ToFloat64(m.CircuitBreakerState.WithLabelValues("catalog-source")); got != 1 {
		t.Errorf("expected breaker gauge open (1), got %v", got)
	}
}

func TestStartPeriodic(t *testing.T) {
	engine := searcher.NewEngine(config.SearchConfig{})
	src := &stubSource{items: testItems()}
	r := New(src, engine, catalogConfig(1), Options{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r.StartPeriodic(ctx, 5*time.Millisecond)

	deadline := time.Now().Add(time.Second)
	for engine.Version() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if engine.Version() < 2 {
		t.Errorf("expected at least 2 periodic builds, got version %d", engine.Version())
	}
}
