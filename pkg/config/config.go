// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Server, Postgres, Kafka, Redis, Search, Catalog, etc.).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Redis     RedisConfig     `yaml:"redis"`
	Search    SearchConfig    `yaml:"search"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
	CORS      CORSConfig      `yaml:"cors"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds Kafka broker and topic settings. An empty broker list
// disables both the refresh consumer and the analytics collector.
type KafkaConfig struct {
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	CatalogUpdates  string `yaml:"catalogUpdates"`
	AnalyticsEvents string `yaml:"analyticsEvents"`
}

// RedisConfig holds Redis connection and caching parameters.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// FieldWeight makes a catalog field searchable with a relative weight.
type FieldWeight struct {
	Name   string  `yaml:"name"`
	Weight float64 `yaml:"weight"`
}

// SearchConfig configures the search engine. The engine treats it as
// immutable once constructed. FuzzyThreshold is the minimum similarity in
// (0, 1] for a fuzzy match; zero means unset and selects the default.
type SearchConfig struct {
	Fields                 []FieldWeight `yaml:"fields"`
	FuzzyThreshold         float64       `yaml:"fuzzyThreshold"`
	MinMatchLength         int           `yaml:"minMatchLength"`
	MaxResults             int           `yaml:"maxResults"`
	DefaultLimit           int           `yaml:"defaultLimit"`
	SuggestionLimit        int           `yaml:"suggestionLimit"`
	ProductSuggestionLimit int           `yaml:"productSuggestionLimit"`
}

// DefaultSearchConfig returns the engine defaults.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		Fields: []FieldWeight{
			{Name: "name", Weight: 3},
			{Name: "brand", Weight: 2},
			{Name: "category", Weight: 1.5},
			{Name: "slug", Weight: 1},
		},
		FuzzyThreshold:         0.7,
		MinMatchLength:         2,
		MaxResults:             50,
		DefaultLimit:           20,
		SuggestionLimit:        8,
		ProductSuggestionLimit: 5,
	}
}

// WithDefaults fills zero values from DefaultSearchConfig. A negative
// threshold is kept so Validate can reject it.
func (s SearchConfig) WithDefaults() SearchConfig {
	d := DefaultSearchConfig()
	if len(s.Fields) == 0 {
		s.Fields = d.Fields
	}
	if s.FuzzyThreshold == 0 {
		s.FuzzyThreshold = d.FuzzyThreshold
	}
	if s.MinMatchLength <= 0 {
		s.MinMatchLength = d.MinMatchLength
	}
	if s.MaxResults <= 0 {
		s.MaxResults = d.MaxResults
	}
	if s.DefaultLimit <= 0 {
		s.DefaultLimit = min(d.DefaultLimit, s.MaxResults)
	}
	if s.SuggestionLimit <= 0 {
		s.SuggestionLimit = d.SuggestionLimit
	}
	if s.ProductSuggestionLimit <= 0 {
		s.ProductSuggestionLimit = d.ProductSuggestionLimit
	}
	return s
}

// CatalogConfig selects where the catalog comes from and how often it is
// reloaded.
type CatalogConfig struct {
	// Source is "file" or "postgres".
	Source          string        `yaml:"source"`
	Path            string        `yaml:"path"`
	RefreshInterval time.Duration `yaml:"refreshInterval"`
	LoadTimeout     time.Duration `yaml:"loadTimeout"`
	RetryAttempts   int           `yaml:"retryAttempts"`
}

// RateLimitConfig bounds per-client request rates on autocomplete routes.
type RateLimitConfig struct {
	Enabled           bool          `yaml:"enabled"`
	RequestsPerWindow int           `yaml:"requestsPerWindow"`
	Window            time.Duration `yaml:"window"`
	// TrustProxy keys clients by X-Forwarded-For. Leave it off unless a
	// proxy in front of the service overwrites that header.
	TrustProxy bool `yaml:"trustProxy"`
}

// CORSConfig lists the browser origins allowed to call the API.
type CORSConfig struct {
	AllowOrigins []string `yaml:"allowOrigins"`
}

// AnalyticsConfig configures the standalone analytics aggregation service.
// Snapshots are persisted to Postgres only when Persist is set.
type AnalyticsConfig struct {
	Port              int           `yaml:"port"`
	TopQueries        int           `yaml:"topQueries"`
	Persist           bool          `yaml:"persist"`
	SnapshotInterval  time.Duration `yaml:"snapshotInterval"`
	SnapshotRetention time.Duration `yaml:"snapshotRetention"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. Search settings left unset fall back to DefaultSearchConfig.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	cfg.Search = cfg.Search.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var result *multierror.Error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		result = multierror.Append(result, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Search.FuzzyThreshold <= 0 || c.Search.FuzzyThreshold > 1 {
		result = multierror.Append(result, fmt.Errorf("search.fuzzyThreshold %v must be within (0, 1]", c.Search.FuzzyThreshold))
	}
	if c.Search.DefaultLimit > c.Search.MaxResults {
		result = multierror.Append(result, fmt.Errorf("search.defaultLimit %d exceeds search.maxResults %d", c.Search.DefaultLimit, c.Search.MaxResults))
	}
	seen := make(map[string]bool, len(c.Search.Fields))
	for i, f := range c.Search.Fields {
		if strings.TrimSpace(f.Name) == "" {
			result = multierror.Append(result, fmt.Errorf("search.fields[%d]: name is required", i))
		}
		if f.Weight <= 0 {
			result = multierror.Append(result, fmt.Errorf("search.fields[%d] (%s): weight must be positive", i, f.Name))
		}
		if seen[f.Name] {
			result = multierror.Append(result, fmt.Errorf("search.fields[%d]: duplicate field %q", i, f.Name))
		}
		seen[f.Name] = true
	}
	switch c.Catalog.Source {
	case "file":
		if c.Catalog.Path == "" {
			result = multierror.Append(result, fmt.Errorf("catalog.path is required for the file source"))
		}
	case "postgres":
	default:
		result = multierror.Append(result, fmt.Errorf("catalog.source %q must be \"file\" or \"postgres\"", c.Catalog.Source))
	}
	if c.Analytics.Persist && c.Analytics.SnapshotInterval <= 0 {
		result = multierror.Append(result, fmt.Errorf("analytics.snapshotInterval must be positive when persist is enabled"))
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerWindow <= 0 || c.RateLimit.Window <= 0) {
		result = multierror.Append(result, fmt.Errorf("rateLimit requires positive requestsPerWindow and window"))
	}
	return result.ErrorOrNil()
}

// defaultConfig returns a Config with production-ready defaults for local
// development.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "catalog",
			User:            "catalog",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			ConsumerGroup: "catalog-search",
			Topics: KafkaTopics{
				CatalogUpdates:  "catalog-updates",
				AnalyticsEvents: "search-analytics",
			},
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
			PoolSize: 10,
			CacheTTL: 60 * time.Second,
		},
		Catalog: CatalogConfig{
			Source:          "file",
			Path:            "data/catalog.json",
			RefreshInterval: 15 * time.Minute,
			LoadTimeout:     30 * time.Second,
			RetryAttempts:   3,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerWindow: 120,
			Window:            time.Minute,
		},
		CORS: CORSConfig{
			AllowOrigins: []string{"*"},
		},
		Analytics: AnalyticsConfig{
			Port:              8081,
			TopQueries:        10,
			SnapshotInterval:  time.Minute,
			SnapshotRetention: 7 * 24 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// applyEnvOverrides reads CS_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CS_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("CS_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("CS_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("CS_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("CS_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("CS_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("CS_POSTGRES_SSLMODE"); v != "" {
		cfg.Postgres.SSLMode = v
	}
	if v := os.Getenv("CS_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("CS_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("CS_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("CS_CATALOG_SOURCE"); v != "" {
		cfg.Catalog.Source = v
	}
	if v := os.Getenv("CS_CATALOG_PATH"); v != "" {
		cfg.Catalog.Path = v
	}
	if v := os.Getenv("CS_CATALOG_REFRESH_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Catalog.RefreshInterval = d
		}
	}
	if v := os.Getenv("CS_SEARCH_FUZZY_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Search.FuzzyThreshold = f
		}
	}
	if v := os.Getenv("CS_SEARCH_MAX_RESULTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Search.MaxResults = n
		}
	}
	if v := os.Getenv("CS_RATE_LIMIT_TRUST_PROXY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.RateLimit.TrustProxy = b
		}
	}
	if v := os.Getenv("CS_CORS_ALLOW_ORIGINS"); v != "" {
		cfg.CORS.AllowOrigins = strings.Split(v, ",")
	}
	if v := os.Getenv("CS_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CS_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
