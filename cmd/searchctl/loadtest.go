package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
)

type loadConfig struct {
	BaseURL     string
	Concurrency int
	Duration    time.Duration
	Queries     []string
}

// loadStats is shared by all workers.
type loadStats struct {
	total   atomic.Int64
	success atomic.Int64
	errors  atomic.Int64

	mu          sync.Mutex
	latencies   map[string][]time.Duration
	statusCodes map[int]int64
}

func newLoadStats() *loadStats {
	return &loadStats{
		latencies:   make(map[string][]time.Duration),
		statusCodes: make(map[int]int64),
	}
}

func (s *loadStats) record(route string, d time.Duration, status int, err error) {
	s.total.Add(1)
	if err != nil {
		s.errors.Add(1)
		return
	}
	if status >= 200 && status < 300 {
		s.success.Add(1)
	} else {
		s.errors.Add(1)
	}
	s.mu.Lock()
	s.latencies[route] = append(s.latencies[route], d)
	s.statusCodes[status]++
	s.mu.Unlock()
}

var defaultLoadQueries = []string{
	"iphone",
	"iphone case",
	"samsung galaxy",
	"wireless headphones",
	"macbook air",
	"thinkpad",
	"4k monitor",
	"ipad",
	"usb charging cable",
	"apple watch",
	"headphnoes",
	"samsnug",
}

func newLoadTestCmd() *cobra.Command {
	cfg := loadConfig{}
	cmd := &cobra.Command{
		Use:   "loadtest",
		Short: "Replay type-ahead traffic against a running search service",
		Long: "Each worker types a query one character at a time, calling the suggestion\n" +
			"routes for every prefix and the search route for the full query.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(cfg.Queries) == 0 {
				cfg.Queries = defaultLoadQueries
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "=== Catalog Search Load Test ===")
			fmt.Fprintf(out, "Target:      %s\n", cfg.BaseURL)
			fmt.Fprintf(out, "Concurrency: %d\n", cfg.Concurrency)
			fmt.Fprintf(out, "Duration:    %s\n", cfg.Duration)
			fmt.Fprintf(out, "Queries:     %d unique\n\n", len(cfg.Queries))

			stats := runLoadTest(cmd.Context(), cfg)
			printLoadReport(out, stats, cfg.Duration)
			if stats.total.Load() == 0 {
				return fmt.Errorf("no requests completed; is the service running at %s?", cfg.BaseURL)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&cfg.BaseURL, "url", "http://localhost:8080", "base URL of the search service")
	cmd.Flags().IntVar(&cfg.Concurrency, "concurrency", 10, "number of concurrent workers")
	cmd.Flags().DurationVar(&cfg.Duration, "duration", 30*time.Second, "test duration")
	cmd.Flags().StringSliceVar(&cfg.Queries, "query", nil, "query to replay (repeatable); defaults to a built-in set")
	return cmd
}

// typeaheadRequests lists the calls a user typing query would trigger.
func typeaheadRequests(baseURL, query string) []struct{ route, url string } {
	var reqs []struct{ route, url string }
	runes := []rune(query)
	for i := 2; i <= len(runes); i++ {
		prefix := url.QueryEscape(string(runes[:i]))
		reqs = append(reqs,
			struct{ route, url string }{"suggest", baseURL + "/api/v1/suggest?q=" + prefix},
			struct{ route, url string }{"suggest_products", baseURL + "/api/v1/suggest/products?q=" + prefix},
		)
	}
	reqs = append(reqs, struct{ route, url string }{"search", baseURL + "/api/v1/search?limit=10&q=" + url.QueryEscape(query)})
	return reqs
}

func runLoadTest(parent context.Context, cfg loadConfig) *loadStats {
	stats := newLoadStats()
	client := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        cfg.Concurrency * 2,
			MaxIdleConnsPerHost: cfg.Concurrency * 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")

	ctx, cancel := context.WithTimeout(parent, cfg.Duration)
	defer cancel()

	var wg sync.WaitGroup
	for w := 0; w < cfg.Concurrency; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for i := workerID; ; i++ {
				for _, r := range typeaheadRequests(baseURL, cfg.Queries[i%len(cfg.Queries)]) {
					if ctx.Err() != nil {
						return
					}
					req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
					if err != nil {
						stats.record(r.route, 0, 0, err)
						continue
					}
					start := time.Now()
					resp, err := client.Do(req)
					elapsed := time.Since(start)
					if err != nil {
						if ctx.Err() != nil {
							return
						}
						stats.record(r.route, elapsed, 0, err)
						continue
					}
					_, _ = io.Copy(io.Discard, resp.Body)
					resp.Body.Close()
					stats.record(r.route, elapsed, resp.StatusCode, nil)
				}
			}
		}(w)
	}
	wg.Wait()
	return stats
}

func printLoadReport(out io.Writer, stats *loadStats, duration time.Duration) {
	total := stats.total.Load()
	errs := stats.errors.Load()

	fmt.Fprintln(out, "=== Results ===")
	fmt.Fprintf(out, "Total Requests:  %d\n", total)
	fmt.Fprintf(out, "Successful:      %d\n", stats.success.Load())
	fmt.Fprintf(out, "Errors:          %d\n", errs)
	if total > 0 {
		fmt.Fprintf(out, "Error Rate:      %.2f%%\n", float64(errs)/float64(total)*100)
		fmt.Fprintf(out, "Requests/sec:    %.2f\n", float64(total)/duration.Seconds())
	}

	stats.mu.Lock()
	defer stats.mu.Unlock()

	routes := make([]string, 0, len(stats.latencies))
	for route := range stats.latencies {
		routes = append(routes, route)
	}
	sort.Strings(routes)
	for _, route := range routes {
		latencies := append([]time.Duration(nil), stats.latencies[route]...)
		sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
		fmt.Fprintf(out, "\n=== Latency: %s (%d) ===\n", route, len(latencies))
		fmt.Fprintf(out, "P50:    %s\n", percentile(latencies, 50))
		fmt.Fprintf(out, "P95:    %s\n", percentile(latencies, 95))
		fmt.Fprintf(out, "P99:    %s\n", percentile(latencies, 99))
		fmt.Fprintf(out, "Max:    %s\n", latencies[len(latencies)-1])
	}

	fmt.Fprintln(out, "\n=== Status Codes ===")
	codes := make([]int, 0, len(stats.statusCodes))
	for code := range stats.statusCodes {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	for _, code := range codes {
		fmt.Fprintf(out, "  %d: %d\n", code, stats.statusCodes[code])
	}
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
