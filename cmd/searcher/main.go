package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/internal/catalog"
	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/internal/indexer/consumer"
	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/internal/indexer/refresh"
	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/internal/searcher"
	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/pkg/ratelimit"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/pkg/redis"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting catalog search service",
		"port", cfg.Server.Port,
		"catalog_source", cfg.Catalog.Source,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownMetrics(shutdownCtx)
		}()
	}

	checker := health.NewChecker()

	var source catalog.Source
	switch cfg.Catalog.Source {
	case "postgres":
		db, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			slog.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		checker.Register("postgres", health.PingCheck(db.Ping, false))
		source = catalog.NewStore(db)
		slog.Info("catalog source: postgres", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
	default:
		source = catalog.NewFileSource(cfg.Catalog.Path)
		slog.Info("catalog source: file", "path", cfg.Catalog.Path)
	}

	engine := searcher.NewEngine(cfg.Search)
	checker.Register("search_index", func(ctx context.Context) health.ComponentHealth {
		if !engine.Ready() {
			return health.ComponentHealth{Status: health.StatusDown, Message: "index not built"}
		}
		s := engine.Stats()
		return health.ComponentHealth{
			Status:  health.StatusUp,
			Message: fmt.Sprintf("version %d, %d documents", s.Version, s.Documents),
		}
	})

	var queryCache *cache.QueryCache
	redisClient, err := pkgredis.NewClient(ctx, cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, search caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		queryCache = cache.New(redisClient, cfg.Redis.CacheTTL)
		checker.Register("redis", health.PingCheck(redisClient.Ping, true))
		slog.Info("search cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
	}

	var collector *analytics.Collector
	if len(cfg.Kafka.Brokers) > 0 {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents)
		defer producer.Close()
		collector = analytics.NewCollector(producer, 10000, 100, 5*time.Second)
		collector.Start(ctx)
		defer collector.Close()
		slog.Info("analytics collector started", "topic", cfg.Kafka.Topics.AnalyticsEvents)
	}

	refreshOpts := refresh.Options{Collector: collector, Metrics: m}
	if queryCache != nil {
		refreshOpts.Cache = queryCache
	}
	refresher := refresh.New(source, engine, cfg.Catalog, refreshOpts)
	if _, err := refresher.Refresh(ctx, refresh.TriggerStartup); err != nil {
		slog.Error("initial catalog load failed, serving empty index until the next refresh", "error", err)
	}
	refresher.StartPeriodic(ctx, cfg.Catalog.RefreshInterval)

	if len(cfg.Kafka.Brokers) > 0 {
		loadedAt := func() time.Time { return engine.Stats().LoadedAt }
		kc := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.CatalogUpdates, consumer.HandleMessage(refresher, loadedAt))
		rc := consumer.New(kc)
		go func() {
			if err := rc.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("refresh consumer stopped", "error", err)
			}
		}()
		slog.Info("refresh consumer started", "topic", cfg.Kafka.Topics.CatalogUpdates)
	}

	h := handler.New(engine, handler.Options{
		Refresher: refresher,
		Cache:     queryCache,
		Collector: collector,
		Metrics:   m,
	})

	api := http.NewServeMux()
	h.Register(api)
	var apiChain http.Handler = api
	if cfg.RateLimit.Enabled {
		limiter := ratelimit.New(cfg.RateLimit.RequestsPerWindow, cfg.RateLimit.Window)
		defer limiter.Stop()
		apiChain = middleware.RateLimit(limiter, cfg.RateLimit.TrustProxy)(apiChain)
		slog.Info("rate limiting enabled",
			"requests_per_window", cfg.RateLimit.RequestsPerWindow,
			"window", cfg.RateLimit.Window,
			"trust_proxy", cfg.RateLimit.TrustProxy,
		)
	}

	mux := http.NewServeMux()
	mux.Handle("/api/", apiChain)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.CORS.AllowOrigins

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	chain = middleware.CORS(corsCfg)(chain)
	chain = middleware.Metrics(m)(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("search service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	// Shutdown returns once in-flight handlers finish; the deferred
	// collector and client closes must not run before that.
	<-shutdownDone

	slog.Info("search service stopped")
}
