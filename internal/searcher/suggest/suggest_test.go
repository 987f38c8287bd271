package suggest

import (
	"reflect"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/internal/catalog"
	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/internal/searcher/fuzzy"
)

func vocabulary() *index.Index {
	items := []catalog.Item{
		{ID: "1", Slug: "iphone-15", Name: "Apple iPhone 15"},
		{ID: "2", Slug: "iphone-case", Name: "iPhone Case"},
		{ID: "3", Slug: "ipad-air", Name: "iPad Air"},
		{ID: "4", Slug: "phone-stand", Name: "Phone Stand"},
	}
	return index.Build(items, []string{"name", "slug"})
}

func TestTermsPrefixRankedByEntryCount(t *testing.T) {
	got := Terms(vocabulary(), "ip", fuzzy.DefaultThreshold, 5)
	// iphone: 4 entries, ipad: 2 entries
	want := []string{"iphone", "ipad"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Terms(ip) = %v, want %v", got, want)
	}
}

func TestTermsCaseInsensitive(t *testing.T) {
	got := Terms(vocabulary(), "IPH", fuzzy.DefaultThreshold, 5)
	if len(got) == 0 || got[0] != "iphone" {
		t.Errorf("expected iphone first, got %v", got)
	}
}

func TestTermsIncludesFuzzy(t *testing.T) {
	got := Terms(vocabulary(), "phome", fuzzy.DefaultThreshold, 5)
	want := []string{"phone"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Terms(phome) = %v, want %v", got, want)
	}
}

func TestTermsShortQuery(t *testing.T) {
	for _, q := range []string{"", "i"} {
		got := Terms(vocabulary(), q, fuzzy.DefaultThreshold, 5)
		if got == nil || len(got) != 0 {
			t.Errorf("Terms(%q) = %v, want empty non-nil", q, got)
		}
	}
}

func TestTermsLimit(t *testing.T) {
	got := Terms(vocabulary(), "ip", fuzzy.DefaultThreshold, 1)
	if len(got) != 1 || got[0] != "iphone" {
		t.Errorf("expected [iphone], got %v", got)
	}
}

func TestTermsNoDuplicates(t *testing.T) {
	got := Terms(vocabulary(), "phone", fuzzy.DefaultThreshold, 10)
	seen := map[string]bool{}
	for _, term := range got {
		if seen[term] {
			t.Errorf("duplicate suggestion %q in %v", term, got)
		}
		seen[term] = true
	}
	// iphone: 4 entries × FuzzyWeight = 3.2 outranks phone's 2 entries.
	want := []string{"iphone", "phone"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Terms(phone) = %v, want %v", got, want)
	}
}
