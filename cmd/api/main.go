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

	"github.com/rs/zerolog/log"

	"github.com/feyti/medreport/internal/adapters/cache"
	"github.com/feyti/medreport/internal/adapters/database"
	"github.com/feyti/medreport/internal/adapters/documents"
	"github.com/feyti/medreport/internal/adapters/events"
	"github.com/feyti/medreport/internal/adapters/search"
	"github.com/feyti/medreport/internal/api/handlers"
	"github.com/feyti/medreport/internal/api/routes"
	"github.com/feyti/medreport/internal/application/services"
	"github.com/feyti/medreport/internal/domain/providers"
	"github.com/feyti/medreport/internal/domain/repositories"
	"github.com/feyti/medreport/internal/extraction"
	"github.com/feyti/medreport/internal/infrastructure/clients"
	"github.com/feyti/medreport/internal/infrastructure/clients/postgres"
	"github.com/feyti/medreport/internal/infrastructure/clients/redis"
	"github.com/feyti/medreport/internal/infrastructure/clients/typesense"
	"github.com/feyti/medreport/internal/infrastructure/observability"
	"github.com/feyti/medreport/internal/translation"
	"github.com/feyti/medreport/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Server.Env, cfg.Server.LogLevel)

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()

	reportAdapter := database.NewReportAdapter(pgClient, metrics)
	if err := reportAdapter.EnsureSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure reports schema")
	}

	healthChecks := map[string]handlers.HealthCheck{
		"postgres": pgClient.Ping,
	}

	// Redis backs the cache and the event bus; the API works without it
	var (
		cacheProvider providers.CacheProvider
		eventBus      providers.EventBus
	)
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable; running without cache and event stream")
		} else {
			defer redisClient.Close()
			cacheProvider = cache.NewRedisAdapter(redisClient)
			eventBus = events.NewRedisEventBus(redisClient)
			healthChecks["redis"] = redisClient.Ping
		}
	}

	var reportRepo repositories.ReportRepository = reportAdapter
	if cacheProvider != nil {
		reportRepo = database.NewCachedReportAdapter(reportAdapter, cacheProvider, metrics)
		log.Info().Msg("Report repository wrapped with caching layer")
	}

	var searchRepo repositories.ReportSearchRepository
	if cfg.Typesense.Enabled {
		typesenseClient, err := typesense.NewClient(ctx, &cfg.Typesense)
		if err != nil {
			log.Warn().Err(err).Msg("Typesense unavailable; report search disabled")
		} else if err := typesenseClient.InitSchema(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to init Typesense schema; report search disabled")
		} else {
			searchRepo = search.NewTypesenseAdapter(typesenseClient)
		}
	}

	translationProvider, err := clients.NewTranslationProvider(ctx, cfg)
	if err != nil {
		log.Warn().Err(err).Msg("Translation provider unavailable; serving fallback translations only")
	}
	translator := translation.NewFacade(translationProvider, translation.Config{
		Timeout:         cfg.Translation.Timeout,
		BreakerFailures: cfg.Translation.BreakerFailures,
		BreakerCooldown: cfg.Translation.BreakerCooldown,
	}, metrics)
	log.Info().Str("translator", translator.String()).Msg("Translation configured")

	decoder, err := documents.NewDecoder(cfg.Upload.PDFLicenseKey, documents.WithMaxTextBytes(5*cfg.Upload.MaxUploadBytes()))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize document decoder")
	}

	reportService := services.NewReportService(
		extraction.NewAssembler(),
		reportRepo,
		decoder,
		translator,
		cacheProvider,
		eventBus,
		searchRepo,
		metrics,
	)

	if cacheProvider != nil {
		go func() {
			if err := services.NewCacheWarmingService(reportRepo).WarmCache(ctx); err != nil {
				log.Warn().Err(err).Msg("Cache warming failed")
			}
		}()
	}

	var sseHandler *handlers.SSEHandler
	if eventBus != nil {
		sseHandler = handlers.NewSSEHandler(eventBus)
	}

	router := routes.NewRouter(
		handlers.NewReportHandler(reportService, cfg.Upload.MaxUploadBytes()),
		handlers.NewTranslationHandler(reportService),
		handlers.NewHealthHandler(cfg.OTEL.ServiceVersion, healthChecks),
		sseHandler,
		cfg.Server.AllowedOrigins,
		metrics,
	)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:        serverAddr,
		Handler:     router.SetupRoutes(),
		ReadTimeout: 30 * time.Second,
		// WriteTimeout stays unset: /reports/stream holds responses open.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", serverAddr).
			Bool("search", reportService.SearchEnabled()).
			Bool("stream", sseHandler != nil).
			Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if eventBus != nil {
		// Closing the bus ends open event streams so Shutdown can drain them.
		if err := eventBus.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing event bus")
		}
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}

	log.Info().Msg("Server stopped")
}
