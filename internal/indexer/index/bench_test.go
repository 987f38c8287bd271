package index

import (
	"fmt"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/internal/catalog"
)

func generateItems(n int) []catalog.Item {
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

func BenchmarkBuild(b *testing.B) {
	for _, n := range []int{100, 1000, 10000} {
		items := generateItems(n)
		b.Run(fmt.Sprintf("items_%d", n), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = Build(items, fields)
			}
		})
	}
}

func BenchmarkEntriesParallel(b *testing.B) {
	idx := Build(generateItems(10000), fields)
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = idx.Entries("laptop")
		}
	})
}
