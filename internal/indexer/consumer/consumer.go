// Package consumer listens for catalog change notifications on Kafka and
// triggers an index refresh for each one.
package consumer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/internal/indexer/refresh"
	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/internal/searcher"
	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/pkg/kafka"
)

// Catalog change types published by the catalog service.
const (
	EventProductsUpserted = "products.upserted"
	EventProductsDeleted  = "products.deleted"
	EventCatalogReplaced  = "catalog.replaced"
)

// CatalogEvent announces that products changed. The index is rebuilt from
// the full catalog regardless of ProductIDs.
type CatalogEvent struct {
	Type       string    `json:"type"`
	ProductIDs []string  `json:"productIds,omitempty"`
	At         time.Time `json:"at"`
}

// Refresher is satisfied by *refresh.Refresher.
type Refresher interface {
	Refresh(ctx context.Context, trigger string) (searcher.IndexStats, error)
}

// RefreshConsumer wraps a Kafka consumer on the catalog-updates topic.
type RefreshConsumer struct {
	consumer *kafka.Consumer
	logger   *slog.Logger
}

// New creates a RefreshConsumer backed by the given Kafka consumer.
func New(kafkaConsumer *kafka.Consumer) *RefreshConsumer {
	return &RefreshConsumer{
		consumer: kafkaConsumer,
		logger:   slog.Default().With("component", "refresh-consumer"),
	}
}

// Start blocks until ctx is cancelled.
func (rc *RefreshConsumer) Start(ctx context.Context) error {
	rc.logger.Info("refresh consumer starting")
	return rc.consumer.Start(ctx)
}

// HandleMessage returns a MessageHandler that refreshes the index for each
// catalog event. loadedAt reports when the published index started reading
// the catalog; events committed before then are already reflected and
// skipped.
// Malformed messages are logged and committed; a failed refresh is
// returned so the message is retried.
func HandleMessage(r Refresher, loadedAt func() time.Time) kafka.MessageHandler {
	logger := slog.Default().With("component", "refresh-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[CatalogEvent](value)
		if err != nil {
			logger.Error("failed to decode catalog event", "error", err, "key", string(key))
			return nil
		}
		switch event.Type {
		case EventProductsUpserted, EventProductsDeleted, EventCatalogReplaced:
		default:
			logger.Warn("ignoring unknown catalog event", "type", event.Type)
			return nil
		}
		if loadedAt != nil && !event.At.IsZero() && event.At.Before(loadedAt()) {
			logger.Debug("catalog event already reflected in index", "type", event.Type, "at", event.At)
			return nil
		}

		stats, err := r.Refresh(ctx, refresh.TriggerEvent)
		if err != nil {
			return fmt.Errorf("refreshing after %s: %w", event.Type, err)
		}
		logger.Info("index refreshed from catalog event",
			"type", event.Type,
			"products", len(event.ProductIDs),
			"version", stats.Version,
		)
		return nil
	}
}
