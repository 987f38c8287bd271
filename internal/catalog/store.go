package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/pkg/postgres"
)

// Store reads the product catalog from PostgreSQL.
//
// It expects a `products` table:
//
//	CREATE TABLE products (
//	    id          TEXT PRIMARY KEY,
//	    slug        TEXT NOT NULL,
//	    name        TEXT NOT NULL,
//	    brand       TEXT NOT NULL DEFAULT '',
//	    category    TEXT NOT NULL DEFAULT '',
//	    description TEXT,
//	    min_price   NUMERIC(12,2),
//	    offer_count INTEGER NOT NULL DEFAULT 0,
//	    active      BOOLEAN NOT NULL DEFAULT TRUE
//	);
type Store struct {
	db     *postgres.Client
	logger *slog.Logger
}

// NewStore creates a catalog store on top of the given client.
func NewStore(db *postgres.Client) *Store {
	return &Store{
		db:     db,
		logger: slog.Default().With("component", "catalog-store"),
	}
}

const listItemsQuery = `SELECT id, slug, name, brand, category, description, min_price, offer_count
FROM products WHERE active ORDER BY id`

// Load implements Source.
func (s *Store) Load(ctx context.Context) ([]Item, error) {
	return s.ListItems(ctx)
}

// ListItems returns every active product as a searchable item. Rows are read
// in a read-only repeatable-read transaction so a concurrent import cannot
// produce a half-updated catalog.
func (s *Store) ListItems(ctx context.Context) ([]Item, error) {
	items := make([]Item, 0, 256)
	opts := &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	err := s.db.InTx(ctx, opts, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, listItemsQuery)
		if err != nil {
			return fmt.Errorf("listing products: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var (
				it          Item
				description sql.NullString
				minPrice    sql.NullFloat64
				offerCount  int64
			)
			if err := rows.Scan(&it.ID, &it.Slug, &it.Name, &it.Brand, &it.Category,
				&description, &minPrice, &offerCount); err != nil {
				return fmt.Errorf("scanning product row: %w", err)
			}
			it.Attrs = rowAttrs(description, minPrice, offerCount)
			items = append(items, it)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterating product rows: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("catalog loaded from postgres", "items", len(items))
	return Sanitize(items), nil
}

func rowAttrs(description sql.NullString, minPrice sql.NullFloat64, offerCount int64) map[string]any {
	attrs := map[string]any{
		"offerCount": float64(offerCount),
	}
	if description.Valid {
		attrs["description"] = description.String
	}
	if minPrice.Valid {
		attrs["minPrice"] = minPrice.Float64
	}
	return attrs
}
