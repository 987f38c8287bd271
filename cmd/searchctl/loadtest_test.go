package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestTypeaheadRequests(t *testing.T) {
	reqs := typeaheadRequests("http://svc", "tv set")
	// prefixes "tv".."tv set" (5) × 2 suggestion routes + 1 search
	if len(reqs) != 11 {
		t.Fatalf("expected 11 requests, got %d", len(reqs))
	}
	if reqs[0].url != "http://svc/api/v1/suggest?q=tv" {
		t.Errorf("unexpected first request %q", reqs[0].url)
	}
	last := reqs[len(reqs)-1]
	if last.route != "search" || !strings.HasSuffix(last.url, "q=tv+set") {
		t.Errorf("unexpected final request %+v", last)
	}
}

func TestRunLoadTest(t *testing.T) {
	var mu sync.Mutex
	paths := map[string]int{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths[r.URL.Path]++
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	stats := runLoadTest(context.Background(), loadConfig{
		BaseURL:     srv.URL,
		Concurrency: 2,
		Duration:    200 * time.Millisecond,
		Queries:     []string{"ipad"},
	})
	if stats.total.Load() == 0 || stats.success.Load() == 0 {
		t.Fatalf("expected completed requests, got total=%d", stats.total.Load())
	}
	mu.Lock()
	defer mu.Unlock()
	if paths["/api/v1/suggest"] == 0 {
		t.Errorf("expected suggestion traffic, got %v", paths)
	}

	var out strings.Builder
	printLoadReport(&out, stats, time.Second)
	if !strings.Contains(out.String(), "200:") {
		t.Errorf("report should list status codes:\n%s", out.String())
	}
}

func TestPercentile(t *testing.T) {
	sorted := []time.Duration{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	if got := percentile(sorted, 50); got != 5 {
		t.Errorf("p50 = %v, want 5", got)
	}
	if got := percentile(sorted, 99); got != 10 {
		t.Errorf("p99 = %v, want 10", got)
	}
	if got := percentile(nil, 50); got != 0 {
		t.Errorf("empty percentile = %v", got)
	}
}
