package analytics

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/pkg/kafka"
)

type recordingPublisher struct {
	mu      sync.Mutex
	batches [][]kafka.Event
}

func (p *recordingPublisher) PublishBatch(_ context.Context, events []kafka.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	cp := make([]kafka.Event, len(events))
	copy(cp, events)
	p.batches = append(p.batches, cp)
	return nil
}

func (p *recordingPublisher) total() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, b := range p.batches {
		n += len(b)
	}
	return n
}

func TestCollectorFlushesOnBatchSize(t *testing.T) {
	pub := &recordingPublisher{}
	c := NewCollector(pub, 100, 2, time.Hour)
	c.Start(context.Background())

	c.Track(SearchEvent{Type: EventSearch, Query: "iphone"})
	c.Track(SearchEvent{Type: EventZeroResult, Query: "xyz123"})

	deadline := time.Now().Add(time.Second)
	for pub.total() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if pub.total() != 2 {
		t.Fatalf("expected 2 events published, got %d", pub.total())
	}
	c.Close()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if got := pub.batches[0][1].Key; got != string(EventZeroResult) {
		t.Errorf("expected key %q, got %q", EventZeroResult, got)
	}
}

func TestCollectorFlushesOnClose(t *testing.T) {
	pub := &recordingPublisher{}
	c := NewCollector(pub, 100, 50, time.Hour)
	c.Start(context.Background())

	c.Track(IndexEvent{Type: EventIndexBuild, Trigger: "startup", Documents: 3})
	c.Close()

	if pub.total() != 1 {
		t.Errorf("expected pending event flushed on close, got %d", pub.total())
	}
}

func TestCollectorFlushesOnCancel(t *testing.T) {
	pub := &recordingPublisher{}
	c := NewCollector(pub, 100, 50, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx)

	c.Track(SearchEvent{Type: EventSuggest, Query: "ip"})
	time.Sleep(10 * time.Millisecond)
	cancel()
	<-c.done

	if pub.total() != 1 {
		t.Errorf("expected 1 event flushed on cancel, got %d", pub.total())
	}
}

func TestTrackDropsWhenFull(t *testing.T) {
	c := NewCollector(&recordingPublisher{}, 1, 10, time.Hour)
	c.Track(SearchEvent{Type: EventSearch})
	c.Track(SearchEvent{Type: EventSearch})
	if len(c.eventCh) != 1 {
		t.Errorf("expected buffer to hold 1 event, got %d", len(c.eventCh))
	}
}

func TestNilCollectorTrack(t *testing.T) {
	var c *Collector
	c.Track(SearchEvent{Type: EventSearch})
}

func TestTrackAfterClose(t *testing.T) {
	pub := &recordingPublisher{}
	c := NewCollector(pub, 100, 50, time.Hour)
	c.Start(context.Background())

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					c.Track(SearchEvent{Type: EventSearch, Query: "iphone"})
				}
			}
		}()
	}
	time.Sleep(5 * time.Millisecond)
	c.Close()
	close(stop)
	wg.Wait()

	published := pub.total()
	c.Track(IndexEvent{Type: EventIndexBuild, Trigger: "periodic"})
	c.Close()
	if pub.total() != published {
		t.Errorf("events tracked after close must be ignored, published %d then %d", published, pub.total())
	}
}
