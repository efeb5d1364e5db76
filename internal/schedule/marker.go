package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"mlbpicks/pipeline/internal/models"
)

// MarkerStore persists the generation marker outside the process so
// the gate survives restarts
type MarkerStore interface {
	Load(ctx context.Context) (models.GenerationMarker, error)
	Save(ctx context.Context, marker models.GenerationMarker) error
}

const markerKey = "pickgen:last_generation"

// RedisMarkerStore keeps the generation marker in Redis. A missing key
// loads as the zero marker, which simply re-arms the gate; that is safe
// because batch writes are idempotent.
type RedisMarkerStore struct {
	client *redis.Client
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisMarkerStore connects to Redis and verifies the connection
func NewRedisMarkerStore(ctx context.Context, cfg RedisConfig) (*RedisMarkerStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	log.Info().Str("addr", cfg.Addr).Msg("Connected to Redis marker store")
	return &RedisMarkerStore{client: client}, nil
}

// Load reads the marker; a missing key is the zero marker
func (s *RedisMarkerStore) Load(ctx context.Context) (models.GenerationMarker, error) {
	val, err := s.client.Get(ctx, markerKey).Result()
	if err == redis.Nil {
		return models.GenerationMarker{}, nil
	}
	if err != nil {
		return models.GenerationMarker{}, fmt.Errorf("failed to load generation marker: %w", err)
	}

	ts, err := time.Parse(time.RFC3339, val)
	if err != nil {
		log.Warn().Str("value", val).Msg("Malformed generation marker, treating as unset")
		return models.GenerationMarker{}, nil
	}

	return models.GenerationMarker{LastGeneration: ts}, nil
}

// Save writes the marker with no expiry
func (s *RedisMarkerStore) Save(ctx context.Context, marker models.GenerationMarker) error {
	val := marker.LastGeneration.UTC().Format(time.RFC3339)
	if err := s.client.Set(ctx, markerKey, val, 0).Err(); err != nil {
		return fmt.Errorf("failed to save generation marker: %w", err)
	}
	return nil
}

// Close releases the Redis connection
func (s *RedisMarkerStore) Close() error {
	return s.client.Close()
}
