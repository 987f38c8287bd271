package searcher

import (
	"fmt"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/internal/catalog"
	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/pkg/config"
)

func benchItems(n int) []catalog.Item {
	brands := []string{"Apple", "Samsung", "Sony", "Lenovo", "Bose", "Dell", "Asus", "Xiaomi"}
	kinds := []string{"Phone", "Laptop", "Headphones", "Monitor", "Tablet", "Watch"}
	items := make([]catalog.Item, n)
	for i := range items {
		brand := brands[i%len(brands)]
		kind := kinds[i%len(kinds)]
		items[i] = catalog.Item{
			ID:       fmt.Sprintf("sku-%d", i),
			Slug:     fmt.Sprintf("%s-%s-%d", brand, kind, i),
			Name:     fmt.Sprintf("%s %s Model %d", brand, kind, i%97),
			Brand:    brand,
			Category: kind,
		}
	}
	return items
}

func BenchmarkSearch(b *testing.B) {
	e := NewEngine(config.SearchConfig{})
	e.BuildIndex(benchItems(10000))
	queries := map[string]string{
		"exact":     "samsung laptop",
		"fuzzy":     "samsnug laptpo",
		"multiterm": "sony headphones model",
	}
	for name, q := range queries {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = e.Search(q)
			}
		})
	}
}

func BenchmarkSuggestionsParallel(b *testing.B) {
	e := NewEngine(config.SearchConfig{})
	e.BuildIndex(benchItems(10000))
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = e.Suggestions("hea", 8)
		}
	})
}
