// Package tracing records in-process span trees for a request and writes
// them to slog when the root span ends.
package tracing

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/pkg/logger"
	"github.com/google/uuid"
)

type contextKey struct{}

// Span is a timed operation. Children are appended by Start.
type Span struct {
	Name     string
	TraceID  string
	Start    time.Time
	Duration time.Duration
	parent   *Span

	mu       sync.Mutex
	children []*Span
	attrs    []any
}

// Start opens a span under the span in ctx, or a new root span if there is
// none. Root spans reuse the request id as trace id when one is present.
func Start(ctx context.Context, name string) (context.Context, *Span) {
	parent := FromContext(ctx)
	s := &Span{Name: name, Start: time.Now(), parent: parent}
	if parent != nil {
		s.TraceID = parent.TraceID
		parent.mu.Lock()
		parent.children = append(parent.children, s)
		parent.mu.Unlock()
	} else {
		s.TraceID = logger.RequestID(ctx)
		if s.TraceID == "" {
			s.TraceID = uuid.NewString()
		}
	}
	return context.WithValue(ctx, contextKey{}, s), s
}

// FromContext returns the active span, or nil.
func FromContext(ctx context.Context) *Span {
	s, _ := ctx.Value(contextKey{}).(*Span)
	return s
}

// SetAttr attaches a key-value pair.
func (s *Span) SetAttr(key string, value any) {
	s.mu.Lock()
	s.attrs = append(s.attrs, key, value)
	s.mu.Unlock()
}

// End stops the clock. Ending a root span logs the whole tree at debug
// level.
func (s *Span) End() {
	s.Duration = time.Since(s.Start)
	if s.parent == nil {
		s.log(slog.Default(), 0)
	}
}

// Children returns a copy of the direct children.
func (s *Span) Children() []*Span {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Span, len(s.children))
	copy(out, s.children)
	return out
}

func (s *Span) log(l *slog.Logger, depth int) {
	s.mu.Lock()
	attrs := append([]any{
		"trace_id", s.TraceID,
		"span", s.Name,
		"duration_ms", float64(s.Duration.Microseconds()) / 1000,
		"depth", depth,
	}, s.attrs...)
	children := s.children
	s.mu.Unlock()

	l.Debug("span", attrs...)
	for _, c := range children {
		c.log(l, depth+1)
	}
}
