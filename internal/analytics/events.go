package analytics

import "time"

type EventType string

const (
	EventSearch            EventType = "search"
	EventZeroResult        EventType = "zero_result"
	EventSuggest           EventType = "suggest"
	EventProductSuggest    EventType = "product_suggest"
	EventIndexBuild        EventType = "index_build"
	EventIndexBuildFailure EventType = "index_build_failed"
)

// SearchEvent describes one served query. A search that returns nothing is
// tracked as EventZeroResult so merchandisers can find catalog gaps.
type SearchEvent struct {
	Type      EventType `json:"type"`
	Query     string    `json:"query"`
	Terms     []string  `json:"terms,omitempty"`
	Returned  int       `json:"returned"`
	LatencyMs float64   `json:"latency_ms"`
	CacheHit  bool      `json:"cache_hit"`
	Version   uint64    `json:"index_version"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// IndexEvent describes one catalog refresh.
type IndexEvent struct {
	Type      EventType `json:"type"`
	Trigger   string    `json:"trigger"`
	Version   uint64    `json:"index_version,omitempty"`
	Documents int       `json:"documents"`
	Terms     int       `json:"terms"`
	LatencyMs float64   `json:"latency_ms"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (e SearchEvent) key() string { return string(e.Type) }
func (e IndexEvent) key() string  { return string(e.Type) }
