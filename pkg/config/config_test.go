package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Server.Port)
	}
	want := DefaultSearchConfig()
	if cfg.Search.FuzzyThreshold != want.FuzzyThreshold {
		t.Errorf("expected threshold %v, got %v", want.FuzzyThreshold, cfg.Search.FuzzyThreshold)
	}
	if len(cfg.Search.Fields) != 4 || cfg.Search.Fields[0].Name != "name" {
		t.Errorf("unexpected default fields: %+v", cfg.Search.Fields)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
search:
  maxResults: 10
  fields:
    - name: name
      weight: 2
    - name: color
      weight: 1
catalog:
  source: postgres
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	if cfg.Search.MaxResults != 10 || cfg.Search.DefaultLimit != 10 {
		t.Errorf("expected maxResults=10 defaultLimit=10, got %d/%d", cfg.Search.MaxResults, cfg.Search.DefaultLimit)
	}
	if len(cfg.Search.Fields) != 2 || cfg.Search.Fields[1].Name != "color" {
		t.Errorf("unexpected fields: %+v", cfg.Search.Fields)
	}
	if cfg.Search.SuggestionLimit != 8 {
		t.Errorf("expected default suggestion limit, got %d", cfg.Search.SuggestionLimit)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CS_SERVER_PORT", "7070")
	t.Setenv("CS_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("CS_SEARCH_FUZZY_THRESHOLD", "0.8")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("expected port 7070, got %d", cfg.Server.Port)
	}
	if len(cfg.Kafka.Brokers) != 2 {
		t.Errorf("expected 2 brokers, got %v", cfg.Kafka.Brokers)
	}
	if cfg.Search.FuzzyThreshold != 0.8 {
		t.Errorf("expected threshold 0.8, got %v", cfg.Search.FuzzyThreshold)
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := defaultConfig()
	cfg.Search = DefaultSearchConfig()
	cfg.Server.Port = 0
	cfg.Search.FuzzyThreshold = 1.5
	cfg.Search.Fields = append(cfg.Search.Fields, FieldWeight{Name: "name", Weight: -1})
	cfg.Catalog.Source = "ftp"
	cfg.Analytics.Persist = true
	cfg.Analytics.SnapshotInterval = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{"server.port", "fuzzyThreshold", "weight must be positive", "duplicate field", "catalog.source", "snapshotInterval"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected %q in %q", want, msg)
		}
	}
}

func TestWithDefaultsKeepsExplicitValues(t *testing.T) {
	s := SearchConfig{FuzzyThreshold: 0.9, MaxResults: 5}.WithDefaults()
	if s.FuzzyThreshold != 0.9 {
		t.Errorf("threshold overwritten: %v", s.FuzzyThreshold)
	}
	if s.DefaultLimit != 5 {
		t.Errorf("default limit should be clamped to maxResults, got %d", s.DefaultLimit)
	}
	if s.MinMatchLength != 2 {
		t.Errorf("expected min match length 2, got %d", s.MinMatchLength)
	}
}

func TestFuzzyThresholdBounds(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		want    float64
		wantErr bool
	}{
		{"unset", "search:\n  maxResults: 10\n", 0.7, false},
		{"zero selects default", "search:\n  fuzzyThreshold: 0\n", 0.7, false},
		{"explicit", "search:\n  fuzzyThreshold: 0.85\n", 0.85, false},
		{"one", "search:\n  fuzzyThreshold: 1\n", 1, false},
		{"negative", "search:\n  fuzzyThreshold: -0.2\n", 0, true},
		{"above one", "search:\n  fuzzyThreshold: 1.2\n", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, tt.yaml))
			if tt.wantErr {
				if err == nil || !strings.Contains(err.Error(), "fuzzyThreshold") {
					t.Fatalf("expected fuzzyThreshold error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if cfg.Search.FuzzyThreshold != tt.want {
				t.Errorf("expected threshold %v, got %v", tt.want, cfg.Search.FuzzyThreshold)
			}
		})
	}
}

func TestValidateRejectsUnsetThreshold(t *testing.T) {
	cfg := defaultConfig()
	cfg.Search = DefaultSearchConfig()
	cfg.Search.FuzzyThreshold = 0
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "fuzzyThreshold") {
		t.Errorf("expected fuzzyThreshold error for an unset threshold, got %v", err)
	}
}

func TestRateLimitTrustProxy(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RateLimit.TrustProxy {
		t.Error("trustProxy must default to false")
	}

	t.Setenv("CS_RATE_LIMIT_TRUST_PROXY", "true")
	cfg, err = Load(writeConfig(t, "rateLimit:\n  enabled: true\n  requestsPerWindow: 10\n  window: 1s\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.RateLimit.TrustProxy {
		t.Error("expected CS_RATE_LIMIT_TRUST_PROXY to enable trustProxy")
	}
}
