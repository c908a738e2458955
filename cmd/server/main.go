// Package main provides the entry point for the conference catalog HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/helixir/conference-catalog-service/internal/classifier"
	"github.com/helixir/conference-catalog-service/internal/config"
	"github.com/helixir/conference-catalog-service/internal/database"
	"github.com/helixir/conference-catalog-service/internal/enrichment"
	"github.com/helixir/conference-catalog-service/internal/events"
	"github.com/helixir/conference-catalog-service/internal/observability"
	"github.com/helixir/conference-catalog-service/internal/papersources"
	"github.com/helixir/conference-catalog-service/internal/papersources/core"
	"github.com/helixir/conference-catalog-service/internal/papersources/semanticscholar"
	"github.com/helixir/conference-catalog-service/internal/ranking"
	httpserver "github.com/helixir/conference-catalog-service/internal/server/http"
	"github.com/helixir/conference-catalog-service/internal/submission"
)

const metricsNamespace = "conference_catalog"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Set up structured logging.
	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	logger = logger.With().Str("component", "server").Logger()
	logger.Info().Msg("conference-catalog-service starting")

	// Set up context with graceful shutdown via OS signals.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to PostgreSQL.
	db, err := database.New(ctx, &cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()
	logger.Info().Msg("database connection established")

	// Run migrations if configured. An empty path uses the embedded set.
	if cfg.Database.MigrationAutoRun {
		migrator, err := database.NewMigrator(db, cfg.Database.MigrationPath, logger)
		if err != nil {
			return fmt.Errorf("create migrator: %w", err)
		}
		defer func() {
			if closeErr := migrator.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close migrator")
			}
		}()

		if err := migrator.Up(); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	metrics := observability.NewMetrics(metricsNamespace)

	// External lookups.
	scholar := semanticscholar.NewClient(semanticscholar.Config{
		BaseURL:        cfg.SemanticScholar.BaseURL,
		APIKey:         cfg.SemanticScholar.APIKey,
		Timeout:        cfg.SemanticScholar.Timeout,
		RateLimit:      cfg.SemanticScholar.RateLimit,
		CandidateLimit: cfg.SemanticScholar.CandidateLimit,
		MaxAttempts:    cfg.SemanticScholar.MaxAttempts,
		BackoffBase:    cfg.SemanticScholar.BackoffBase,
		BackoffMax:     cfg.SemanticScholar.BackoffMax,
	}, nil, logger, metrics)
	caches := []submission.CacheClearer{scholar}

	var rankingSource papersources.RankingSource
	if cfg.Core.Enabled {
		coreClient := core.NewClient(core.Config{
			BaseURL:         cfg.Core.BaseURL,
			APIKey:          cfg.Core.APIKey,
			Timeout:         cfg.Core.Timeout,
			MinInterval:     cfg.Core.MinInterval,
			CacheTTL:        cfg.Core.CacheTTL,
			BreakerFailures: cfg.Core.BreakerFailures,
			BreakerCooldown: cfg.Core.BreakerCooldown,
		}, nil, logger, metrics)
		rankingSource = coreClient
		caches = append(caches, coreClient)
		logger.Info().Str("base_url", cfg.Core.BaseURL).Msg("CORE ranking lookups enabled")
	}

	// Enrichment pipeline.
	fieldClassifier := classifier.New(nil, logger, metrics)
	ranker := ranking.New(rankingSource, logger, metrics)
	enricher := enrichment.New(scholar, fieldClassifier, ranker, enrichment.Config{
		RankAtSubmission: cfg.Enrichment.RankAtSubmission,
	}, logger, metrics)

	// Lifecycle event publisher.
	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.Kafka.Enabled {
		publisher = events.NewKafkaPublisher(events.Config{
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.Topic,
			BatchSize:    cfg.Kafka.BatchSize,
			BatchTimeout: cfg.Kafka.BatchTimeout,
			WriteTimeout: cfg.Kafka.WriteTimeout,
		}, logger, metrics)
		logger.Info().
			Strs("brokers", cfg.Kafka.Brokers).
			Str("topic", cfg.Kafka.Topic).
			Msg("kafka event publisher enabled")
	}
	defer func() {
		if closeErr := publisher.Close(); closeErr != nil {
			logger.Error().Err(closeErr).Msg("failed to close event publisher")
		}
	}()

	svc := submission.NewService(submission.Deps{
		DB:        db,
		Pool:      db,
		Enricher:  enricher,
		Ranker:    ranker,
		Authors:   scholar,
		Caches:    caches,
		Publisher: publisher,
		Logger:    logger,
		Metrics:   metrics,
	})

	httpCfg := httpserver.Config{
		Address:             cfg.Server.HTTPAddress(),
		ReadTimeout:         cfg.Server.ReadTimeout,
		WriteTimeout:        cfg.Server.WriteTimeout,
		IdleTimeout:         2 * time.Minute,
		ShutdownTimeout:     cfg.Server.ShutdownTimeout,
		CORSAllowedOrigins:  cfg.HTTP.CORSAllowedOrigins,
		SubmissionRateLimit: cfg.HTTP.SubmissionRateLimit,
		MaxBodyBytes:        cfg.HTTP.MaxBodyBytes,
		AdminToken:          cfg.Admin.Token,
	}
	if cfg.Admin.Token == "" {
		logger.Warn().Msg("admin token not configured; admin routes are unauthenticated")
	}

	httpSrv := httpserver.NewServer(httpCfg, svc, scholar, fieldClassifier, ranker, db, logger)

	// Set up Prometheus metrics handler on a separate port if configured.
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle(cfg.Metrics.Path, promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress(),
			Handler:      metricsMux,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		}
	}

	// Channel to collect server errors.
	errCh := make(chan error, 2)

	go func() {
		logger.Info().
			Str("address", httpCfg.Address).
			Msg("HTTP API server starting")
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	if metricsServer != nil {
		go func() {
			logger.Info().
				Str("address", metricsServer.Addr).
				Msg("metrics server starting")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server error: %w", err)
			}
		}()
	}

	readyLog := logger.Info().Str("http_address", httpCfg.Address)
	if metricsServer != nil {
		readyLog = readyLog.Str("metrics_address", metricsServer.Addr)
	}
	readyLog.Msg("conference-catalog-service is ready")

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
		logger.Info().Msg("received shutdown signal")
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	}

	logger.Info().Msg("shutting down conference-catalog-service")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("metrics server shutdown error")
		}
	}

	logger.Info().Msg("conference-catalog-service shutdown complete")
	return nil
}
