// Command analytics starts the search analytics service.
//
// It consumes the events published by the search service (queries,
// suggestions, index builds), aggregates them in memory and serves
// GET /api/v1/analytics for dashboards. With analytics.persist set, totals
// are snapshotted to Postgres and restored on start.
//
// Usage:
//
//	go run ./cmd/analytics [-config configs/development.yaml]
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

	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/internal/analytics/snapshot"
	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/Catalog-Search-Platform/pkg/postgres"
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
	slog.Info("starting analytics service", "port", cfg.Analytics.Port)

	if len(cfg.Kafka.Brokers) == 0 {
		slog.Error("kafka.brokers is empty; the analytics service has nothing to consume")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	aggregator := analytics.NewAggregator(cfg.Analytics.TopQueries)
	checker := health.NewChecker()

	if cfg.Analytics.Persist {
		db, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			slog.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		checker.Register("postgres", health.PingCheck(db.Ping, true))

		store := snapshot.NewStore(db)
		latest, err := store.Latest(ctx)
		if err != nil {
			slog.Warn("could not load latest analytics snapshot", "error", err)
		} else if latest != nil {
			aggregator.Restore(*latest)
		}
		store.StartPeriodicSave(ctx, aggregator, cfg.Analytics.SnapshotInterval, cfg.Analytics.SnapshotRetention)
	}

	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents, analytics.HandleEvent(aggregator))
	go func() {
		if err := consumer.Start(ctx); err != nil {
			slog.Error("analytics consumer error", "error", err)
		}
	}()
	slog.Info("analytics consumer started", "topic", cfg.Kafka.Topics.AnalyticsEvents)

	checker.Register("kafka", func(ctx context.Context) health.ComponentHealth {
		s := consumer.Stats()
		if s.Errors > 0 && s.Messages == 0 {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: fmt.Sprintf("%d fetch errors", s.Errors)}
		}
		return health.ComponentHealth{Status: health.StatusUp, Message: fmt.Sprintf("%d messages, lag %d", s.Messages, s.Lag)}
	})

	m := metrics.New()
	mux := http.NewServeMux()
	analytics.NewHandler(aggregator).Register(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())
	mux.Handle("GET /metrics", metrics.Handler())

	var chain http.Handler = mux
	chain = middleware.CORS(middleware.CORSConfig{
		AllowOrigins: cfg.CORS.AllowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodOptions},
		AllowHeaders: []string{"Content-Type", middleware.RequestIDHeader},
		MaxAge:       86400,
	})(chain)
	chain = middleware.Metrics(m)(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Analytics.Port),
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

	slog.Info("analytics service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	<-shutdownDone

	slog.Info("analytics service stopped")
}
