// Command regen deletes today's pick batch and runs one generation
// cycle immediately, bypassing the daily gate. Administrative tool for
// regenerating a bad batch.
package main

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"mlbpicks/pipeline/internal/aggregator"
	"mlbpicks/pipeline/internal/cache"
	"mlbpicks/pipeline/internal/client"
	"mlbpicks/pipeline/internal/config"
	"mlbpicks/pipeline/internal/identity"
	"mlbpicks/pipeline/internal/pipeline"
	"mlbpicks/pipeline/internal/repository"
	"mlbpicks/pipeline/internal/schedule"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	})

	cfg := config.MustLoad()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

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

	markerStore, err := schedule.NewRedisMarkerStore(ctx, schedule.RedisConfig{
		Addr:     cfg.RedisAddr(),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer markerStore.Close()

	date := schedule.BusinessDate(time.Now(), cfg.Location())
	log.Info().Str("date", date).Msg("Forcing pick regeneration")

	if err := db.Picks.DeleteBatch(ctx, date); err != nil {
		log.Fatal().Err(err).Str("date", date).Msg("Failed to delete existing batch")
	}

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

	runner := pipeline.NewRunner(pipeline.Options{
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

	if err := runner.RunCycle(ctx); err != nil {
		log.Fatal().Err(err).Msg("Regeneration cycle failed")
	}

	log.Info().Str("date", date).Msg("Regeneration complete")
}
