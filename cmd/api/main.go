package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/runtime"

	"github.com/openvaers/analyzer-backend/internal/adapters/cache"
	"github.com/openvaers/analyzer-backend/internal/adapters/database"
	"github.com/openvaers/analyzer-backend/internal/adapters/events"
	"github.com/openvaers/analyzer-backend/internal/adapters/search"
	"github.com/openvaers/analyzer-backend/internal/api/handlers"
	"github.com/openvaers/analyzer-backend/internal/api/middleware"
	"github.com/openvaers/analyzer-backend/internal/api/routes"
	"github.com/openvaers/analyzer-backend/internal/application/services"
	"github.com/openvaers/analyzer-backend/internal/domain/providers"
	"github.com/openvaers/analyzer-backend/internal/domain/repositories"
	"github.com/openvaers/analyzer-backend/internal/infrastructure/clients/anthropic"
	"github.com/openvaers/analyzer-backend/internal/infrastructure/clients/fdatools"
	"github.com/openvaers/analyzer-backend/internal/infrastructure/clients/postgres"
	"github.com/openvaers/analyzer-backend/internal/infrastructure/clients/redis"
	"github.com/openvaers/analyzer-backend/internal/infrastructure/clients/typesense"
	"github.com/openvaers/analyzer-backend/internal/infrastructure/observability"
	"github.com/openvaers/analyzer-backend/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize structured logging
	env := os.Getenv("ENV")
	if env == "" {
		env = "production"
	}
	observability.InitLogger(cfg.OTEL.ServiceName, env)

	log.Info().
		Str("service", cfg.OTEL.ServiceName).
		Str("version", cfg.OTEL.ServiceVersion).
		Str("env", env).
		Msg("Starting API server")

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	var shutdown func(context.Context) error
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err = observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
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
			if err := runtime.Start(); err != nil {
				log.Warn().Err(err).Msg("Failed to start runtime instrumentation")
			}
			log.Info().Msg("OpenTelemetry initialized successfully")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()
	log.Info().Msg("PostgreSQL client initialized successfully")

	// Initialize Redis client
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Redis client")
		// Continue without Redis - the application can work without caching
		redisClient = nil
	} else {
		defer redisClient.Close()
		log.Info().Msg("Redis client initialized successfully")
	}

	var cacheProvider providers.CacheProvider
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
	}

	// Initialize event bus for real-time updates
	var eventBus providers.EventBus
	if redisClient != nil {
		eventBus = events.NewRedisEventBus(redisClient)
		log.Info().Msg("Event bus initialized successfully")
	} else {
		log.Info().Msg("Event bus disabled (Redis not available)")
	}

	// Initialize report adapter, wrapped with caching when Redis is available
	baseReportAdapter := database.NewReportAdapter(pgClient)
	var reportRepo repositories.ReportRepository
	if cacheProvider != nil {
		reportRepo = database.NewCachedReportAdapter(baseReportAdapter, cacheProvider)
		log.Info().Msg("Report adapter wrapped with caching layer")
	} else {
		reportRepo = baseReportAdapter
		log.Info().Msg("Report adapter running without cache (Redis unavailable)")
	}

	// Symptom search backend: Typesense when enabled, Postgres ILIKE otherwise
	var symptomSearch repositories.SymptomSearchRepository
	var symptomIndexer repositories.SymptomIndexRepository
	if cfg.Typesense.Enabled {
		typesenseClient, err := typesense.NewClient(&cfg.Typesense)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize Typesense client")
		} else {
			adapter := search.NewTypesenseAdapter(typesenseClient)
			if err := typesenseClient.InitSchema(ctx); err != nil {
				log.Warn().Err(err).Msg("Failed to init Typesense schema")
			}
			symptomSearch = adapter
			symptomIndexer = adapter
			log.Info().Msg("Typesense symptom search initialized successfully")
		}
	}
	if symptomSearch == nil {
		symptomSearch = database.NewSymptomAdapter(pgClient)
		log.Info().Msg("Symptom search using PostgreSQL")
	}

	// Initialize the model provider and tool client
	llmProvider, err := anthropic.NewClient(&cfg.Anthropic)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Anthropic client")
	}
	toolClient := fdatools.NewClient(&cfg.FDATools)

	// Initialize services
	reportService := services.NewReportService(reportRepo, symptomIndexer, eventBus)
	pipeline := services.NewAnalysisPipeline(llmProvider, toolClient, reportRepo, symptomSearch)
	generator := services.NewReportGenerator()

	// Initialize handlers
	reportHandler := handlers.NewReportHandler(reportService)
	analyzeHandler := handlers.NewAnalyzeHandler(pipeline, generator, reportRepo)
	streamHandler := handlers.NewStreamHandler(eventBus)
	fdaProxy := handlers.NewFDAProxyHandler(&cfg.FDATools)

	// Initialize cache middleware
	var cacheMiddleware *middleware.CacheMiddleware
	if cacheProvider != nil {
		cacheMiddleware = middleware.NewCacheMiddleware(cacheProvider)
		log.Info().Msg("Cache middleware initialized successfully")
	}

	// Set up router
	router := routes.NewRouter(
		reportHandler,
		analyzeHandler,
		streamHandler,
		fdaProxy,
		cacheMiddleware,
		metrics,
	)
	handler := router.SetupRoutes()

	// Create HTTP server. WriteTimeout stays unset: analysis and event
	// streams hold their connections open far longer than any fixed deadline.
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:        serverAddr,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", serverAddr).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}

	// Close event bus
	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing event bus")
		}
	}

	log.Info().Msg("Server stopped")
}
