package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

const sampleJSON = `[
  {"id": "1", "slug": "apple-iphone-15", "name": "Apple iPhone 15", "brand": "Apple", "category": "Phones", "minPrice": 799, "inStock": true, "tags": ["new"]},
  {"id": "", "slug": "orphan", "name": "No Id"},
  {"id": "2", "slug": "iphone-case", "name": "iPhone Case", "color": "Black", "brand": null}
]`

func TestDecode(t *testing.T) {
	items, err := Decode([]byte(sampleJSON))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items (blank id dropped), got %d", len(items))
	}
	first := items[0]
	if first.Name != "Apple iPhone 15" || first.Brand != "Apple" {
		t.Errorf("unexpected first item: %+v", first)
	}
	if got := first.AttrNames(); !reflect.DeepEqual(got, []string{"inStock", "minPrice"}) {
		t.Errorf("AttrNames() = %v, want [inStock minPrice] (non-scalar tags dropped)", got)
	}
	if items[1].Brand != "" {
		t.Errorf("null brand should decode as empty, got %q", items[1].Brand)
	}
}

func TestDecodeRejectsNonStringRequiredField(t *testing.T) {
	if _, err := Decode([]byte(`[{"id": 7, "name": "x"}]`)); err == nil {
		t.Fatal("expected error for numeric id")
	}
}

func TestField(t *testing.T) {
	it := Item{ID: "1", Name: "Desk Lamp", Attrs: map[string]any{"color": "Brass", "watts": 40.0}}
	tests := []struct {
		field   string
		want    string
		wantStr bool
	}{
		{FieldName, "Desk Lamp", true},
		{FieldSlug, "", true},
		{"color", "Brass", true},
		{"watts", "", false},
		{"missing", "", false},
	}
	for _, tt := range tests {
		got, ok := it.StringField(tt.field)
		if got != tt.want || ok != tt.wantStr {
			t.Errorf("StringField(%q) = %q, %v; want %q, %v", tt.field, got, ok, tt.want, tt.wantStr)
		}
	}
	if v, ok := it.Field("watts"); !ok || v != 40.0 {
		t.Errorf("Field(watts) = %v, %v", v, ok)
	}
}

func TestMarshalJSONIsFlat(t *testing.T) {
	it := Item{ID: "1", Slug: "s", Name: "N", Brand: "B", Category: "C", Attrs: map[string]any{"color": "red"}}
	data, err := json.Marshal(it)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var flat map[string]any
	if err := json.Unmarshal(data, &flat); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if flat["color"] != "red" || flat["name"] != "N" || len(flat) != 6 {
		t.Errorf("unexpected flat object: %v", flat)
	}

	var back Item
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal item: %v", err)
	}
	if !reflect.DeepEqual(back, it) {
		t.Errorf("decoded %+v, want %+v", back, it)
	}
}

func TestAttrsCannotShadowRequiredFields(t *testing.T) {
	it := Item{ID: "1", Name: "Real", Attrs: map[string]any{"name": "Fake"}}
	data, _ := json.Marshal(it)
	var flat map[string]any
	_ = json.Unmarshal(data, &flat)
	if flat["name"] != "Real" {
		t.Errorf("attrs must not override required fields, got %v", flat["name"])
	}
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	if err := os.WriteFile(path, []byte(sampleJSON), 0o600); err != nil {
		t.Fatal(err)
	}
	items, err := NewFileSource(path).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("expected 2 items, got %d", len(items))
	}
}

func TestFileSourceErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := NewFileSource(filepath.Join(dir, "missing.json")).Load(context.Background()); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.json")
	_ = os.WriteFile(bad, []byte(`{"not": "an array"}`), 0o600)
	if _, err := NewFileSource(bad).Load(context.Background()); err == nil {
		t.Error("expected error for malformed catalog")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewFileSource(bad).Load(ctx); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestRowAttrs(t *testing.T) {
	attrs := rowAttrs(sql.NullString{String: "Great phone", Valid: true}, sql.NullFloat64{}, 3)
	want := map[string]any{"description": "Great phone", "offerCount": 3.0}
	if !reflect.DeepEqual(attrs, want) {
		t.Errorf("rowAttrs() = %v, want %v", attrs, want)
	}
}
