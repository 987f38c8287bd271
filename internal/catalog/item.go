// Package catalog defines the searchable product item and the sources that
// supply the catalog to the search engine (JSON files and PostgreSQL).
package catalog

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Well-known field names. Every item carries these; anything else lives in
// Attrs.
const (
	FieldID       = "id"
	FieldSlug     = "slug"
	FieldName     = "name"
	FieldBrand    = "brand"
	FieldCategory = "category"
)

// Item is one searchable catalog entry. ID is the document key; uniqueness
// is assumed by the engine, not enforced.
type Item struct {
	ID       string
	Slug     string
	Name     string
	Brand    string
	Category string
	// Attrs holds additional scalar fields (string, float64 or bool).
	Attrs map[string]any
}

// Field returns the value of the named field. Required fields are always
// present; extra fields are looked up in Attrs.
func (it Item) Field(name string) (any, bool) {
	switch name {
	case FieldID:
		return it.ID, true
	case FieldSlug:
		return it.Slug, true
	case FieldName:
		return it.Name, true
	case FieldBrand:
		return it.Brand, true
	case FieldCategory:
		return it.Category, true
	}
	v, ok := it.Attrs[name]
	return v, ok
}

// StringField returns the named field only when it holds a string.
func (it Item) StringField(name string) (string, bool) {
	v, ok := it.Field(name)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// MarshalJSON writes the item as a single flat object.
func (it Item) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(it.Attrs)+5)
	for k, v := range it.Attrs {
		out[k] = v
	}
	out[FieldID] = it.ID
	out[FieldSlug] = it.Slug
	out[FieldName] = it.Name
	out[FieldBrand] = it.Brand
	out[FieldCategory] = it.Category
	return json.Marshal(out)
}

// UnmarshalJSON reads a flat object. Required fields must be strings when
// present; extra fields must be scalars and anything else is dropped.
func (it *Item) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*it = Item{}
	for _, f := range []struct {
		name string
		dst  *string
	}{
		{FieldID, &it.ID},
		{FieldSlug, &it.Slug},
		{FieldName, &it.Name},
		{FieldBrand, &it.Brand},
		{FieldCategory, &it.Category},
	} {
		v, ok := raw[f.name]
		if !ok || v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("field %q must be a string, got %T", f.name, v)
		}
		*f.dst = s
		delete(raw, f.name)
	}
	for k, v := range raw {
		switch v.(type) {
		case string, float64, bool:
			if it.Attrs == nil {
				it.Attrs = make(map[string]any)
			}
			it.Attrs[k] = v
		}
	}
	return nil
}

// AttrNames returns the extra field names in sorted order.
func (it Item) AttrNames() []string {
	names := make([]string, 0, len(it.Attrs))
	for k := range it.Attrs {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
