// Package cache stores search and suggestion responses in Redis, keyed by
// the normalised query and the index version that produced them.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	pkgredis "github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/pkg/redis"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "catalog-search:"

// Kind separates the response types sharing the cache.
type Kind string

const (
	KindSearch   Kind = "search"
	KindSuggest  Kind = "suggest"
	KindProducts Kind = "products"
)

// Key identifies one cached response. Responses from an older index
// version are never served because the version is part of the key.
type Key struct {
	Kind    Kind
	Query   string
	Limit   int
	Version uint64
}

// Store is the byte-level backend. *pkgredis.Client satisfies it.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeleteByPrefix(ctx context.Context, prefix string) (int64, error)
}

// Stats reports cache effectiveness since start-up.
type Stats struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

// QueryCache is a read-through cache with per-key request coalescing.
type QueryCache struct {
	store  Store
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a QueryCache writing entries with the given TTL.
func New(store Store, ttl time.Duration) *QueryCache {
	return &QueryCache{
		store:  store,
		ttl:    ttl,
		logger: slog.Default().With("component", "query-cache"),
	}
}

// GetOrCompute returns the cached value for key or computes, stores and
// returns it. Concurrent misses on the same key share one computation.
// The boolean reports a cache hit. Backend failures degrade to computing.
func GetOrCompute[T any](ctx context.Context, c *QueryCache, key Key, compute func() (T, error)) (T, bool, error) {
	k := buildKey(key)
	var v T
	if c.get(ctx, k, &v, true) {
		return v, true, nil
	}
	res, err, _ := c.group.Do(k, func() (any, error) {
		var cached T
		if c.get(ctx, k, &cached, false) {
			return cached, nil
		}
		computed, err := compute()
		if err != nil {
			return computed, err
		}
		c.set(ctx, k, computed)
		return computed, nil
	})
	if err != nil {
		var zero T
		return zero, false, err
	}
	return res.(T), false, nil
}

// get decodes the entry at key into dst. Only lookups with count set
// feed the hit and miss counters.
func (c *QueryCache) get(ctx context.Context, key string, dst any, count bool) bool {
	ok := c.load(ctx, key, dst)
	if count {
		if ok {
			c.hits.Add(1)
		} else {
			c.misses.Add(1)
		}
	}
	return ok
}

func (c *QueryCache) load(ctx context.Context, key string, dst any) bool {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, pkgredis.ErrMiss) {
			c.logger.Warn("cache get failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		c.logger.Warn("cache entry unreadable", "key", key, "error", err)
		return false
	}
	return true
}

func (c *QueryCache) set(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("cache set failed", "key", key, "error", err)
	}
}

// Invalidate drops every cached response and returns how many were removed.
func (c *QueryCache) Invalidate(ctx context.Context) (int64, error) {
	deleted, err := c.store.DeleteByPrefix(ctx, keyPrefix)
	if err != nil {
		return deleted, fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return deleted, nil
}

// Stats returns hit and miss counters.
func (c *QueryCache) Stats() Stats {
	s := Stats{Hits: c.hits.Load(), Misses: c.misses.Load()}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}
	return s
}

func buildKey(k Key) string {
	raw := fmt.Sprintf("%s|%d|%d|%s", k.Kind, k.Version, k.Limit, normalizeQuery(k.Kind, k.Query))
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%s:%x", keyPrefix, k.Kind, hash[:16])
}

// normalizeQuery maps queries that always produce the same response to the
// same string. Search and product lookups apply the minimum match length to
// the trimmed query, so only surrounding whitespace may be dropped.
// Suggestions lowercase the prefix before matching.
func normalizeQuery(kind Kind, query string) string {
	if kind == KindSuggest {
		return strings.ToLower(query)
	}
	return strings.TrimSpace(query)
}
