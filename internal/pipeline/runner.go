// Package pipeline orchestrates a full generation cycle: gate check,
// game enumeration, profile building, recommendation, confidence
// filtering, and the idempotent batch write.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"mlbpicks/pipeline/internal/client"
	"mlbpicks/pipeline/internal/metrics"
	"mlbpicks/pipeline/internal/models"
	"mlbpicks/pipeline/internal/picks"
	"mlbpicks/pipeline/internal/repository"
	"mlbpicks/pipeline/internal/schedule"
)

// Recommender produces at most one candidate pick per game profile.
// A nil candidate means no opinion on the game; an error skips the
// game without failing the cycle.
type Recommender interface {
	Recommend(ctx context.Context, profile *models.GameProfile) (*models.Candidate, error)
}

// ProfileBuilder is the slice of the aggregator the runner uses
type ProfileBuilder interface {
	BuildProfile(ctx context.Context, homeTeamName, awayTeamName, date string) (*models.GameProfile, error)
}

// GameLister enumerates the day's scheduled games
type GameLister interface {
	GamesOnDate(ctx context.Context, date string) ([]client.ScheduledGame, error)
}

// BatchStore is the persistence slice the runner writes through
type BatchStore interface {
	StoreBatchForDate(ctx context.Context, date string, allPicks []models.Pick) (repository.StoreResult, error)
}

// Runner drives generation cycles
type Runner struct {
	gate        *schedule.Gate
	marker      schedule.MarkerStore
	games       GameLister
	builder     ProfileBuilder
	recommender Recommender
	store       BatchStore

	threshold      float64
	interGameDelay time.Duration
	loc            *time.Location
	now            func() time.Time
}

// Options configures a Runner
type Options struct {
	Gate        *schedule.Gate
	Marker      schedule.MarkerStore
	Games       GameLister
	Builder     ProfileBuilder
	Recommender Recommender
	Store       BatchStore

	ConfidenceThreshold float64
	InterGameDelay      time.Duration
	Location            *time.Location
}

// NewRunner creates a runner from its collaborators
func NewRunner(opts Options) *Runner {
	if opts.ConfidenceThreshold <= 0 {
		opts.ConfidenceThreshold = picks.DefaultThreshold
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Runner{
		gate:           opts.Gate,
		marker:         opts.Marker,
		games:          opts.Games,
		builder:        opts.Builder,
		recommender:    opts.Recommender,
		store:          opts.Store,
		threshold:      opts.ConfidenceThreshold,
		interGameDelay: opts.InterGameDelay,
		loc:            opts.Location,
		now:            time.Now,
	}
}

// RunIfDue consults the gate and runs a cycle only when one is due.
// Called from the cron schedule; a not-due check is silent at info
// level to keep the logs readable at a five-minute cadence.
func (r *Runner) RunIfDue(ctx context.Context) error {
	marker, err := r.marker.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load generation marker: %w", err)
	}

	now := r.now()
	if !r.gate.ShouldGenerate(marker.LastGeneration, now) {
		log.Debug().
			Time("last_generation", marker.LastGeneration).
			Msg("Generation not due")
		return nil
	}

	log.Info().
		Time("last_generation", marker.LastGeneration).
		Str("business_date", schedule.BusinessDate(now, r.loc)).
		Msg("Generation due, starting cycle")

	return r.RunCycle(ctx)
}

// RunCycle executes one full generation cycle for today's business
// date. The marker advances only after the batch write succeeds or is
// cleanly skipped; a persistence failure leaves the marker untouched so
// the next gate check retries.
func (r *Runner) RunCycle(ctx context.Context) error {
	start := r.now()
	date := schedule.BusinessDate(start, r.loc)

	candidates, err := r.collectCandidates(ctx, date)
	if err != nil {
		metrics.RecordCycle("error", time.Since(start).Seconds())
		return err
	}

	formatted := picks.FilterAndFormat(date, candidates, r.threshold)

	result, err := r.store.StoreBatchForDate(ctx, date, formatted)
	if err != nil {
		metrics.RecordCycle("error", time.Since(start).Seconds())
		return fmt.Errorf("failed to persist pick batch: %w", err)
	}

	marker := models.GenerationMarker{LastGeneration: r.now()}
	if err := r.marker.Save(ctx, marker); err != nil {
		metrics.RecordCycle("error", time.Since(start).Seconds())
		return fmt.Errorf("failed to save generation marker: %w", err)
	}

	log.Info().
		Str("date", date).
		Int("candidates", len(candidates)).
		Int("written", result.Written).
		Bool("skipped", result.Skipped).
		Str("skip_reason", result.Reason).
		Dur("duration", time.Since(start)).
		Msg("Generation cycle complete")
	metrics.RecordCycle("success", time.Since(start).Seconds())

	return nil
}

// collectCandidates walks the day's schedule sequentially, building a
// profile and asking the recommender for each game. Per-game failures
// are logged and skipped; only a schedule enumeration failure aborts
// the cycle.
func (r *Runner) collectCandidates(ctx context.Context, date string) ([]*models.Candidate, error) {
	games, err := r.games.GamesOnDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list games for %s: %w", date, err)
	}
	log.Info().Str("date", date).Int("games", len(games)).Msg("Enumerated schedule")

	var candidates []*models.Candidate
	for i, game := range games {
		if i > 0 && r.interGameDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(r.interGameDelay):
			}
		}

		profile, err := r.builder.BuildProfile(ctx, game.HomeTeamName, game.AwayTeamName, date)
		if err != nil {
			log.Warn().Err(err).
				Str("home", game.HomeTeamName).
				Str("away", game.AwayTeamName).
				Msg("Skipping game, profile build failed")
			continue
		}

		if profile.OddsMissing() {
			log.Warn().Str("matchup", profile.Matchup()).Msg("Skipping game, no usable odds")
			continue
		}

		candidate, err := r.recommender.Recommend(ctx, profile)
		if err != nil {
			log.Warn().Err(err).Str("matchup", profile.Matchup()).Msg("Skipping game, recommendation failed")
			continue
		}
		if candidate == nil {
			log.Debug().Str("matchup", profile.Matchup()).Msg("No recommendation for game")
			continue
		}

		candidates = append(candidates, candidate)
	}

	return candidates, nil
}
