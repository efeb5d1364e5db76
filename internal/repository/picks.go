package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"

	"mlbpicks/pipeline/internal/metrics"
	"mlbpicks/pipeline/internal/models"
	"mlbpicks/pipeline/internal/schedule"
)

// Skip reasons returned by StoreBatch
const (
	ReasonAlreadyExists     = "already exists"
	ReasonNoQualifyingPicks = "no qualifying picks"
)

// StoreResult is the outcome of a batch write attempt
type StoreResult struct {
	Written int
	Skipped bool
	Reason  string
}

// PickRepository owns the daily pick batches. It guarantees at most
// one successful batch write per business-timezone calendar date via
// an existence check before insert; the unique index on pick_date
// makes a lost race fail cleanly rather than double-write.
type PickRepository struct {
	db        *Database
	loc       *time.Location
	threshold float64
	now       func() time.Time

	// insertPrimary overrides the structured insert when non-nil
	insertPrimary func(ctx context.Context, date string, payload []byte) error
}

// StoreBatch persists a batch of picks for today. The target date is
// computed from the current time in the business timezone, independent
// of any date carried by individual picks.
//
// The primary write stores picks as native JSONB; if the store rejects
// that shape, one retry serializes the picks to an opaque string. Only
// the failure of both paths is an error.
func (r *PickRepository) StoreBatch(ctx context.Context, allPicks []models.Pick) (StoreResult, error) {
	date := schedule.BusinessDate(r.now(), r.loc)
	return r.StoreBatchForDate(ctx, date, allPicks)
}

// StoreBatchForDate is StoreBatch with an explicit target date
func (r *PickRepository) StoreBatchForDate(ctx context.Context, date string, allPicks []models.Pick) (StoreResult, error) {
	exists, err := r.Exists(ctx, date)
	if err != nil {
		return StoreResult{}, fmt.Errorf("failed to check for existing batch: %w", err)
	}
	if exists {
		log.Info().Str("date", date).Msg("Batch already exists for date, skipping write")
		metrics.RecordBatchSkip(ReasonAlreadyExists)
		return StoreResult{Skipped: true, Reason: ReasonAlreadyExists}, nil
	}

	// Guard against unfiltered callers; an existing batch row always
	// holds at least one qualifying pick
	qualifying := make([]models.Pick, 0, len(allPicks))
	for _, p := range allPicks {
		if p.Confidence >= r.threshold {
			qualifying = append(qualifying, p)
		}
	}
	if len(qualifying) == 0 {
		log.Info().Str("date", date).Msg("No qualifying picks, nothing to write")
		metrics.RecordBatchSkip(ReasonNoQualifyingPicks)
		return StoreResult{Skipped: true, Reason: ReasonNoQualifyingPicks}, nil
	}

	payload, err := json.Marshal(qualifying)
	if err != nil {
		return StoreResult{}, fmt.Errorf("failed to marshal picks: %w", err)
	}

	primary := r.insertPrimary
	if primary == nil {
		primary = r.insertStructured
	}
	primaryErr := primary(ctx, date, payload)
	if isUniqueViolation(primaryErr) {
		// Another writer won the check-then-insert race; the date
		// already has its batch
		log.Info().Str("date", date).Msg("Batch inserted concurrently, skipping write")
		metrics.RecordBatchSkip(ReasonAlreadyExists)
		return StoreResult{Skipped: true, Reason: ReasonAlreadyExists}, nil
	}
	if primaryErr == nil {
		log.Info().Str("date", date).Int("count", len(qualifying)).Msg("Pick batch written")
		metrics.RecordBatchWrite(len(qualifying))
		return StoreResult{Written: len(qualifying)}, nil
	}

	log.Warn().Err(primaryErr).Str("date", date).Msg("Structured batch write rejected, retrying with serialized payload")

	if fallbackErr := r.insertSerialized(ctx, date, string(payload)); fallbackErr != nil {
		return StoreResult{}, fmt.Errorf(
			"both write paths failed for %s: structured: %v; serialized: %w",
			date, primaryErr, fallbackErr,
		)
	}

	log.Info().Str("date", date).Int("count", len(qualifying)).Msg("Pick batch written via serialized fallback")
	metrics.RecordBatchWrite(len(qualifying))
	return StoreResult{Written: len(qualifying)}, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *PickRepository) insertStructured(ctx context.Context, date string, payload []byte) error {
	query := `
		INSERT INTO daily_picks (pick_date, picks, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
	`
	_, err := r.db.Pool.Exec(ctx, query, date, payload)
	if err != nil {
		return fmt.Errorf("failed to insert structured batch: %w", err)
	}
	return nil
}

func (r *PickRepository) insertSerialized(ctx context.Context, date string, payload string) error {
	query := `
		INSERT INTO daily_picks (pick_date, picks_text, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
	`
	_, err := r.db.Pool.Exec(ctx, query, date, payload)
	if err != nil {
		return fmt.Errorf("failed to insert serialized batch: %w", err)
	}
	return nil
}

// Exists reports whether a batch row is already present for a date
func (r *PickRepository) Exists(ctx context.Context, date string) (bool, error) {
	query := `SELECT 1 FROM daily_picks WHERE pick_date = $1`

	var one int
	err := r.db.Pool.QueryRow(ctx, query, date).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query daily_picks: %w", err)
	}

	return true, nil
}

// GetBatch retrieves the batch for a date, decoding whichever payload
// column the write path used. Returns (nil, nil) when no batch exists.
func (r *PickRepository) GetBatch(ctx context.Context, date string) (*models.DailyPickBatch, error) {
	query := `
		SELECT pick_date, picks, picks_text, created_at, updated_at
		FROM daily_picks
		WHERE pick_date = $1
	`

	var (
		pickDate  time.Time
		structure []byte
		text      *string
		createdAt time.Time
		updatedAt time.Time
	)
	err := r.db.Pool.QueryRow(ctx, query, date).Scan(&pickDate, &structure, &text, &createdAt, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get batch: %w", err)
	}

	batch := &models.DailyPickBatch{
		Date:      pickDate.Format("2006-01-02"),
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}

	payload := structure
	if len(payload) == 0 && text != nil {
		payload = []byte(*text)
	}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &batch.Picks); err != nil {
			return nil, fmt.Errorf("failed to decode batch payload for %s: %w", date, err)
		}
	}

	return batch, nil
}

// DeleteBatch removes the batch for a date. Used only by the
// administrative force-regeneration path; a missing row is not an
// error.
func (r *PickRepository) DeleteBatch(ctx context.Context, date string) error {
	query := `DELETE FROM daily_picks WHERE pick_date = $1`

	result, err := r.db.Pool.Exec(ctx, query, date)
	if err != nil {
		return fmt.Errorf("failed to delete batch: %w", err)
	}

	log.Warn().Str("date", date).Int64("rows_affected", result.RowsAffected()).Msg("Pick batch deleted")
	return nil
}
