//go:build integration

// Run with:
//
//	go test -v -tags=integration ./internal/catalog/...
package catalog

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/pkg/postgres"
)

const productsDDL = `CREATE TABLE IF NOT EXISTS products (
    id          TEXT PRIMARY KEY,
    slug        TEXT NOT NULL,
    name        TEXT NOT NULL,
    brand       TEXT NOT NULL DEFAULT '',
    category    TEXT NOT NULL DEFAULT '',
    description TEXT,
    min_price   NUMERIC(12,2),
    offer_count INTEGER NOT NULL DEFAULT 0,
    active      BOOLEAN NOT NULL DEFAULT TRUE
)`

// skipIfNoPostgres skips the test when PostgreSQL is unavailable.
func skipIfNoPostgres(t *testing.T) *postgres.Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	db, err := postgres.New(ctx, testPostgresConfig())
	if err != nil {
		t.Skipf("skipping integration test: postgres unavailable: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testPostgresConfig() config.PostgresConfig {
	return config.PostgresConfig{
		Host:            envOrDefault("TEST_POSTGRES_HOST", "localhost"),
		Port:            envOrDefaultInt("TEST_POSTGRES_PORT", 5432),
		Database:        envOrDefault("TEST_POSTGRES_DB", "catalog_test"),
		User:            envOrDefault("TEST_POSTGRES_USER", "catalog"),
		Password:        envOrDefault("TEST_POSTGRES_PASSWORD", "localdev"),
		SSLMode:         "disable",
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

func TestStoreListItems(t *testing.T) {
	db := skipIfNoPostgres(t)
	ctx := context.Background()

	for _, stmt := range []string{
		productsDDL,
		`TRUNCATE products`,
		`INSERT INTO products (id, slug, name, brand, category, description, min_price, offer_count, active) VALUES
			('2', 'iphone-case', 'iPhone Case', 'Generic', 'Accessories', NULL, 19.99, 4, TRUE),
			('1', 'apple-iphone-15', 'Apple iPhone 15', 'Apple', 'Phones', 'Latest iPhone', 799, 12, TRUE),
			('3', 'old-phone', 'Old Phone', 'Nokia', 'Phones', NULL, NULL, 0, FALSE)`,
	} {
		if _, err := db.DB.ExecContext(ctx, stmt); err != nil {
			t.Fatalf("preparing products table: %v", err)
		}
	}
	t.Cleanup(func() { _, _ = db.DB.Exec(`TRUNCATE products`) })

	items, err := NewStore(db).ListItems(ctx)
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 active items, got %d", len(items))
	}
	if items[0].ID != "1" || items[1].ID != "2" {
		t.Errorf("expected items ordered by id, got %s, %s", items[0].ID, items[1].ID)
	}
	if items[0].Attrs["description"] != "Latest iPhone" || items[0].Attrs["minPrice"] != 799.0 {
		t.Errorf("unexpected attrs %v", items[0].Attrs)
	}
	if _, ok := items[1].Attrs["description"]; ok {
		t.Errorf("NULL description should be omitted, got %v", items[1].Attrs)
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
