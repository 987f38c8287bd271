package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testCatalog = `[
  {"id": "1", "slug": "apple-iphone-15", "name": "Apple iPhone 15", "brand": "Apple", "category": "Phones", "minPrice": 799},
  {"id": "2", "slug": "iphone-case", "name": "iPhone Case", "brand": "Generic", "category": "Accessories"},
  {"id": "3", "slug": "samsung-galaxy", "name": "Samsung Galaxy", "brand": "Samsung", "category": "Phones"}
]`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.json")
	if err := os.WriteFile(path, []byte(testCatalog), 0o644); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--catalog", path}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestSearchCommand(t *testing.T) {
	out, err := run(t, "search", "iphone")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if !strings.Contains(out, "2 of 2 matching items") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if strings.Index(out, "iPhone Case") > strings.Index(out, "Apple iPhone 15") {
		t.Errorf("expected the case to rank first:\n%s", out)
	}
	if !strings.Contains(out, "minPrice") {
		t.Errorf("expected attribute names in output:\n%s", out)
	}
}

func TestSearchCommandJSON(t *testing.T) {
	out, err := run(t, "--json", "-n", "1", "search", "iphone")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	var resp struct {
		TotalHits int `json:"total_hits"`
		Results   []struct {
			Item struct {
				ID string `json:"id"`
			} `json:"item"`
		} `json:"results"`
	}
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if resp.TotalHits != 2 || len(resp.Results) != 1 || resp.Results[0].Item.ID != "2" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestSuggestCommand(t *testing.T) {
	out, err := run(t, "suggest", "ip")
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if !strings.Contains(out, "iphone") {
		t.Errorf("expected iphone suggestion, got:\n%s", out)
	}
}

func TestProductsCommand(t *testing.T) {
	out, err := run(t, "products", "galaxy")
	if err != nil {
		t.Fatalf("products: %v", err)
	}
	if !strings.Contains(out, "Samsung Galaxy") {
		t.Errorf("expected Samsung Galaxy, got:\n%s", out)
	}
}

func TestStatsCommand(t *testing.T) {
	out, err := run(t, "stats")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if !strings.Contains(out, "documents:  3") {
		t.Errorf("unexpected stats output:\n%s", out)
	}
}

func TestMissingCatalog(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--catalog", filepath.Join(t.TempDir(), "missing.json"), "stats"})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected an error for a missing catalog file")
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	if _, err := run(t, "search"); err == nil {
		t.Fatal("expected an argument error")
	}
}
