package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"mlbpicks/pipeline/internal/aggregator"
	"mlbpicks/pipeline/internal/cache"
	"mlbpicks/pipeline/internal/client"
	"mlbpicks/pipeline/internal/config"
	"mlbpicks/pipeline/internal/identity"
	"mlbpicks/pipeline/internal/metrics"
	"mlbpicks/pipeline/internal/pipeline"
	"mlbpicks/pipeline/internal/repository"
	"mlbpicks/pipeline/internal/schedule"
)

func main() {
	// Setup logger
	setupLogger()

	log.Info().Msg("Starting MLB Daily Picks Worker")

	// Load configuration
	cfg := config.MustLoad()
	log.Info().
		Str("env", cfg.AppEnv).
		Str("log_level", cfg.LogLevel).
		Str("timezone", cfg.BusinessTimezone).
		Msg("Configuration loaded")

	// Create context that listens for cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("Received shutdown signal, gracefully shutting down...")
		cancel()
	}()

	// Initialize database connection
	db, err := repository.NewDatabase(ctx, repository.Config{
		Host:                cfg.DatabaseHost,
		Port:                strconv.Itoa(cfg.DatabasePort),
		User:                cfg.DatabaseUser,
		Password:            cfg.DatabasePassword,
		Database:            cfg.DatabaseName,
		SSLMode:             cfg.DatabaseSSLMode,
		Location:            cfg.Location(),
		ConfidenceThreshold: cfg.ConfidenceThreshold,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()
	log.Info().Msg("Database connection established")

	// Initialize Redis-backed generation marker store
	markerStore, err := schedule.NewRedisMarkerStore(ctx, schedule.RedisConfig{
		Addr:     cfg.RedisAddr(),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer markerStore.Close()

	runner := buildRunner(cfg, db, markerStore)

	// Start metrics HTTP server
	if cfg.EnableMetrics {
		go startMetricsServer(strconv.Itoa(cfg.MetricsPort))
	}

	// Update system uptime metric
	startTime := time.Now()
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				metrics.SystemUptime.Set(time.Since(startTime).Seconds())
			case <-ctx.Done():
				return
			}
		}
	}()

	// Check the gate on startup, then on the cron schedule
	if err := runner.RunIfDue(ctx); err != nil {
		log.Error().Err(err).Msg("Startup gate check failed, continuing anyway...")
	}

	c := cron.New()
	_, err = c.AddFunc(cfg.GateCheckCron, func() {
		if err := runner.RunIfDue(ctx); err != nil {
			log.Error().Err(err).Msg("Generation cycle failed")
		}
	})
	if err != nil {
		log.Fatal().Err(err).Str("cron", cfg.GateCheckCron).Msg("Failed to schedule gate check")
	}
	c.Start()
	log.Info().Str("cron", cfg.GateCheckCron).Msg("Gate check scheduled")

	// Keep running until context is cancelled
	<-ctx.Done()

	// Graceful shutdown
	log.Info().Msg("Stopping gate check schedule...")
	<-c.Stop().Done()

	log.Info().Msg("Worker shutdown complete")
}

// buildRunner wires the source clients, resolver, aggregator, and
// store into a cycle runner
func buildRunner(cfg *config.Config, db *repository.Database, markerStore schedule.MarkerStore) *pipeline.Runner {
	responseCache := cache.New(cfg.CacheCapacity, cfg.CacheTTL)

	oddsClient := client.NewOddsClient(cfg.OddsBaseURL, cfg.OddsAPIKey, cfg.OddsTimeout)
	statsClient := client.NewStatsClient(cfg.StatsBaseURL, cfg.StatsTimeout, responseCache)
	contextClient := client.NewContextClient(cfg.ContextBaseURL, cfg.ContextAPIKey, cfg.ContextTimeout)

	season := time.Now().In(cfg.Location()).Year()
	resolver := identity.New(statsClient, responseCache, season)

	agg := aggregator.New(resolver, oddsClient, statsClient, contextClient, cfg.SportKey)

	rawOverrides, _ := cfg.ParseTriggerOverrides()
	gate := schedule.NewGate(
		cfg.Location(),
		schedule.TriggerTime{Hour: cfg.TriggerHour, Minute: cfg.TriggerMinute},
		schedule.ParseOverrides(rawOverrides),
	)

	return pipeline.NewRunner(pipeline.Options{
		Gate:                gate,
		Marker:              markerStore,
		Games:               statsClient,
		Builder:             agg,
		Recommender:         pipeline.FavoriteRecommender{},
		Store:               db.Picks,
		ConfidenceThreshold: cfg.ConfidenceThreshold,
		InterGameDelay:      cfg.InterGameDelay,
		Location:            cfg.Location(),
	})
}

// setupLogger configures the zerolog logger
func setupLogger() {
	// Pretty console logging in development
	if os.Getenv("APP_ENV") == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}

	// Set log level
	level := zerolog.InfoLevel
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		parsedLevel, err := zerolog.ParseLevel(lvl)
		if err == nil {
			level = parsedLevel
		}
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("level", level.String()).
		Msg("Logger initialized")
}

// startMetricsServer starts the Prometheus metrics HTTP server
func startMetricsServer(port string) {
	http.Handle("/metrics", promhttp.Handler())

	// Health check endpoint
	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	addr := fmt.Sprintf(":%s", port)
	log.Info().Str("addr", addr).Msg("Starting metrics server")

	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Error().Err(err).Msg("Metrics server failed")
	}
}
