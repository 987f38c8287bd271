package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Source supplies a full catalog snapshot.
type Source interface {
	Load(ctx context.Context) ([]Item, error)
}

// FileSource reads a JSON array of flat item objects from disk.
type FileSource struct {
	Path   string
	logger *slog.Logger
}

// NewFileSource creates a FileSource for the given path.
func NewFileSource(path string) *FileSource {
	return &FileSource{
		Path:   path,
		logger: slog.Default().With("component", "catalog-file"),
	}
}

// Load reads and decodes the file.
func (s *FileSource) Load(ctx context.Context) ([]Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file %s: %w", s.Path, err)
	}
	items, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding catalog file %s: %w", s.Path, err)
	}
	s.logger.Debug("catalog file loaded", "path", s.Path, "items", len(items))
	return items, nil
}

// Decode parses a JSON array of items and drops entries without an id.
func Decode(data []byte) ([]Item, error) {
	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	return Sanitize(items), nil
}

// Sanitize removes items that cannot be addressed (blank id). The input
// slice is filtered in place.
func Sanitize(items []Item) []Item {
	kept := items[:0]
	for _, it := range items {
		if strings.TrimSpace(it.ID) == "" {
			slog.Warn("skipping catalog item without id", "slug", it.Slug, "name", it.Name)
			continue
		}
		kept = append(kept, it)
	}
	return kept
}
