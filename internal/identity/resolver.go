// Package identity maps free-text team and player names, as they appear
// in one source system, to canonical entity identities in another.
package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"mlbpicks/pipeline/internal/cache"
	"mlbpicks/pipeline/internal/models"
)

// Source lists the entities known to the statistics provider for a
// season. Implemented by the statistics client.
type Source interface {
	Teams(ctx context.Context, season int) ([]models.TeamRef, error)
	Players(ctx context.Context, season int) ([]models.PlayerRef, error)
}

// Resolver resolves free-text names against a season's team and roster
// lists. Matching is exact first, then substring in either direction,
// then the prior season's lists. No fuzzy matching is performed; when
// several candidates satisfy the substring step, the first in list
// order wins.
type Resolver struct {
	source Source
	cache  *cache.Cache
	season int
}

// New creates a resolver for the given season
func New(source Source, c *cache.Cache, season int) *Resolver {
	return &Resolver{source: source, cache: c, season: season}
}

// ResolveTeam resolves a free-text team name to a canonical TeamRef.
// Returns (nil, nil) when no candidate matches; callers treat that as a
// soft miss, not an error. A non-nil error means the team lists
// themselves could not be fetched.
func (r *Resolver) ResolveTeam(ctx context.Context, name string) (*models.TeamRef, error) {
	needle := normalizeName(name)
	if needle == "" {
		return nil, nil
	}

	for _, season := range []int{r.season, r.season - 1} {
		teams, err := r.teamsForSeason(ctx, season)
		if err != nil {
			return nil, fmt.Errorf("failed to list teams for season %d: %w", season, err)
		}

		if ref := matchTeam(teams, needle); ref != nil {
			resolved := *ref
			resolved.Abbreviation = Abbreviate(resolved.CanonicalName)
			return &resolved, nil
		}
	}

	log.Info().Str("name", name).Msg("Team name did not resolve")
	return nil, nil
}

// ResolvePlayer resolves a free-text player name to a canonical
// PlayerRef, with the same soft-miss contract as ResolveTeam
func (r *Resolver) ResolvePlayer(ctx context.Context, name string) (*models.PlayerRef, error) {
	needle := normalizeName(name)
	if needle == "" {
		return nil, nil
	}

	for _, season := range []int{r.season, r.season - 1} {
		players, err := r.playersForSeason(ctx, season)
		if err != nil {
			return nil, fmt.Errorf("failed to list players for season %d: %w", season, err)
		}

		if ref := matchPlayer(players, needle); ref != nil {
			resolved := *ref
			return &resolved, nil
		}
	}

	log.Info().Str("name", name).Msg("Player name did not resolve")
	return nil, nil
}

func (r *Resolver) teamsForSeason(ctx context.Context, season int) ([]models.TeamRef, error) {
	key := fmt.Sprintf("teams:%d", season)
	if cached, ok := r.cache.Get(key); ok {
		if teams, ok := cached.([]models.TeamRef); ok {
			return teams, nil
		}
	}

	teams, err := r.source.Teams(ctx, season)
	if err != nil {
		return nil, err
	}

	r.cache.Set(key, teams)
	return teams, nil
}

func (r *Resolver) playersForSeason(ctx context.Context, season int) ([]models.PlayerRef, error) {
	key := fmt.Sprintf("players:%d", season)
	if cached, ok := r.cache.Get(key); ok {
		if players, ok := cached.([]models.PlayerRef); ok {
			return players, nil
		}
	}

	players, err := r.source.Players(ctx, season)
	if err != nil {
		return nil, err
	}

	r.cache.Set(key, players)
	return players, nil
}

// matchTeam applies exact-then-substring matching over the candidate
// list, preserving list order
func matchTeam(teams []models.TeamRef, needle string) *models.TeamRef {
	for i := range teams {
		if normalizeName(teams[i].CanonicalName) == needle {
			return &teams[i]
		}
	}

	for i := range teams {
		candidate := normalizeName(teams[i].CanonicalName)
		if strings.Contains(candidate, needle) || strings.Contains(needle, candidate) {
			return &teams[i]
		}
	}

	return nil
}

func matchPlayer(players []models.PlayerRef, needle string) *models.PlayerRef {
	for i := range players {
		if normalizeName(players[i].CanonicalName) == needle {
			return &players[i]
		}
	}

	for i := range players {
		candidate := normalizeName(players[i].CanonicalName)
		if strings.Contains(candidate, needle) || strings.Contains(needle, candidate) {
			return &players[i]
		}
	}

	return nil
}

func normalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), " ")
}
