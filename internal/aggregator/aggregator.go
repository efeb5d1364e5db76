// Package aggregator merges the odds, statistics, and narrative context
// sources into one normalized per-game profile.
package aggregator

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"mlbpicks/pipeline/internal/client"
	"mlbpicks/pipeline/internal/metrics"
	"mlbpicks/pipeline/internal/models"
)

// TeamResolver resolves free-text team names to canonical identities
type TeamResolver interface {
	ResolveTeam(ctx context.Context, name string) (*models.TeamRef, error)
}

// OddsSource is the slice of the odds client the aggregator uses
type OddsSource interface {
	ListUpcomingGames(ctx context.Context, sportKey string) ([]client.RawGame, error)
}

// StatsSource is the slice of the statistics client the aggregator uses
type StatsSource interface {
	GamesOnDate(ctx context.Context, date string) ([]client.ScheduledGame, error)
	StartingPitchers(ctx context.Context, gamePk int) (*client.ProbableStarters, error)
	SeasonStats(ctx context.Context, playerID int, group string) (models.StatBlock, error)
	TeamOffenseStats(ctx context.Context, teamID int, teamName string, season int) (models.StatBlock, error)
}

// ContextSource is the slice of the context client the aggregator uses
type ContextSource interface {
	NarrativeSearch(ctx context.Context, structuredPrompt string) (string, error)
}

// Aggregator builds game profiles. The three sources are fetched
// concurrently and each failure is recovered locally: a failed source
// records itself in the profile's SourceFailures and contributes its
// empty value, so one provider outage never starves the others.
type Aggregator struct {
	resolver TeamResolver
	odds     OddsSource
	stats    StatsSource
	search   ContextSource
	sportKey string
}

// New creates an aggregator over the three source clients
func New(resolver TeamResolver, odds OddsSource, stats StatsSource, search ContextSource, sportKey string) *Aggregator {
	return &Aggregator{
		resolver: resolver,
		odds:     odds,
		stats:    stats,
		search:   search,
		sportKey: sportKey,
	}
}

type statsResult struct {
	gameID    string
	venue     string
	startTime time.Time
	pitchers  models.PitcherPair
	roster    models.TeamStatsPair
}

// BuildProfile builds the merged profile for one (home, away, date)
// triple. Team identity is foundational: if either name fails to
// resolve, the build fails. Everything else degrades per source.
func (a *Aggregator) BuildProfile(ctx context.Context, homeTeamName, awayTeamName, date string) (*models.GameProfile, error) {
	home, err := a.resolver.ResolveTeam(ctx, homeTeamName)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve home team %q: %w", homeTeamName, err)
	}
	away, err := a.resolver.ResolveTeam(ctx, awayTeamName)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve away team %q: %w", awayTeamName, err)
	}
	if home == nil || away == nil {
		return nil, fmt.Errorf("team identity unresolved for %q vs %q", homeTeamName, awayTeamName)
	}

	profile := &models.GameProfile{
		Date:           date,
		HomeTeam:       *home,
		AwayTeam:       *away,
		SourceFailures: models.SourceFailures{},
	}

	var (
		wg         sync.WaitGroup
		stats      *statsResult
		statsErr   error
		odds       *models.OddsSnapshot
		oddsErr    error
		narrative  *models.ContextBlock
		contextErr error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		stats, statsErr = a.fetchStatistics(ctx, *home, *away, date)
	}()
	go func() {
		defer wg.Done()
		odds, oddsErr = a.fetchOdds(ctx, *home, *away)
	}()
	go func() {
		defer wg.Done()
		narrative, contextErr = a.fetchContext(ctx, *home, *away, date)
	}()
	wg.Wait()

	if statsErr != nil {
		profile.SourceFailures[models.SourceStatistics] = statsErr.Error()
		metrics.RecordSourceFailure(string(models.SourceStatistics))
		log.Warn().Err(statsErr).Str("matchup", profile.Matchup()).Msg("Statistics source failed for game")
	} else if stats != nil {
		profile.GameID = stats.gameID
		profile.Venue = stats.venue
		profile.StartTime = stats.startTime
		profile.StartingPitchers = stats.pitchers
		profile.RosterStats = stats.roster
	}

	if oddsErr != nil {
		profile.SourceFailures[models.SourceOdds] = oddsErr.Error()
		metrics.RecordSourceFailure(string(models.SourceOdds))
		log.Warn().Err(oddsErr).Str("matchup", profile.Matchup()).Msg("Odds source failed for game")
	} else {
		profile.Odds = odds
	}

	if contextErr != nil {
		profile.SourceFailures[models.SourceContext] = contextErr.Error()
		metrics.RecordSourceFailure(string(models.SourceContext))
		log.Warn().Err(contextErr).Str("matchup", profile.Matchup()).Msg("Context source failed for game")
	} else {
		profile.NarrativeContext = narrative
	}

	if profile.GameID == "" {
		profile.GameID = fmt.Sprintf("%s:%s@%s", date, profile.AwayTeam.Abbreviation, profile.HomeTeam.Abbreviation)
	}

	if profile.OddsMissing() {
		metrics.RecordProfile("odds_missing")
	} else {
		metrics.RecordProfile("ok")
	}

	return profile, nil
}

// fetchStatistics resolves the scheduled game and enriches it with
// probable pitchers, their season stats, and team offense stats.
// Lookup misses inside (no pitcher announced, no splits yet) degrade to
// nil sub-fields without failing the source.
func (a *Aggregator) fetchStatistics(ctx context.Context, home, away models.TeamRef, date string) (*statsResult, error) {
	games, err := a.stats.GamesOnDate(ctx, date)
	if err != nil {
		return nil, err
	}

	homeID, _ := strconv.Atoi(home.SourceID)
	var match *client.ScheduledGame
	for i := range games {
		if games[i].HomeTeamID == homeID {
			match = &games[i]
			break
		}
	}
	if match == nil {
		return nil, fmt.Errorf("game not on schedule for %s", date)
	}

	season := match.StartTime.Year()
	if season == 1 {
		season = time.Now().Year()
	}

	result := &statsResult{
		gameID:    strconv.Itoa(match.GamePk),
		venue:     match.Venue,
		startTime: match.StartTime,
	}

	starters, err := a.stats.StartingPitchers(ctx, match.GamePk)
	if err != nil {
		return nil, err
	}
	if starters != nil {
		result.pitchers.Home = a.pitcherProfile(ctx, starters.Home, home)
		result.pitchers.Away = a.pitcherProfile(ctx, starters.Away, away)
	}

	if block, err := a.teamOffense(ctx, home, season); err == nil {
		result.roster.Home = block
	} else {
		return nil, err
	}
	if block, err := a.teamOffense(ctx, away, season); err == nil {
		result.roster.Away = block
	} else {
		return nil, err
	}

	return result, nil
}

func (a *Aggregator) teamOffense(ctx context.Context, team models.TeamRef, season int) (models.StatBlock, error) {
	teamID, _ := strconv.Atoi(team.SourceID)
	block, err := a.stats.TeamOffenseStats(ctx, teamID, team.CanonicalName, season)
	if err != nil {
		return nil, err
	}
	return block, nil
}

// pitcherProfile fetches season stats for an announced starter. A nil
// announcement or a stats miss yields a nil or sentinel-backed profile,
// never an error.
func (a *Aggregator) pitcherProfile(ctx context.Context, starter *client.ProbablePitcher, team models.TeamRef) *models.PitcherProfile {
	if starter == nil {
		log.Debug().Str("team", team.CanonicalName).Msg("No probable pitcher announced")
		return nil
	}

	stats, err := a.stats.SeasonStats(ctx, starter.ID, "pitching")
	if err != nil {
		log.Warn().Err(err).Str("pitcher", starter.FullName).Msg("Failed to fetch pitcher season stats")
		stats = nil
	}
	if stats == nil {
		stats = models.StatBlock{"era": models.StatUnavailable}
	} else {
		stats = stats.Clone()
		stats["era"] = models.FormatERA(stats.Get("era"))
	}

	return &models.PitcherProfile{
		ID:          strconv.Itoa(starter.ID),
		FullName:    starter.FullName,
		Team:        team,
		SeasonStats: stats,
	}
}

// fetchOdds locates the game on the odds board and normalizes its
// markets. A game with no board presence or no priced markets is an
// odds failure: odds are mandatory downstream.
func (a *Aggregator) fetchOdds(ctx context.Context, home, away models.TeamRef) (*models.OddsSnapshot, error) {
	games, err := a.odds.ListUpcomingGames(ctx, a.sportKey)
	if err != nil {
		return nil, err
	}

	raw := client.FindGame(games, home.CanonicalName, away.CanonicalName)
	if raw == nil {
		return nil, fmt.Errorf("game not listed on odds board")
	}

	snap := raw.Snapshot()
	if snap == nil {
		return nil, fmt.Errorf("no priced markets for game")
	}

	return snap, nil
}

// fetchContext runs a narrative search for the matchup. A JSON object
// embedded in the response is parsed; parse failure falls back to the
// raw text as an unstructured note.
func (a *Aggregator) fetchContext(ctx context.Context, home, away models.TeamRef, date string) (*models.ContextBlock, error) {
	prompt := fmt.Sprintf(
		"Summarize storylines, injuries, and momentum for the %s at %s game on %s. "+
			"Respond with a JSON object with keys: headline, injuries, momentum.",
		away.CanonicalName, home.CanonicalName, date,
	)

	text, err := a.search.NarrativeSearch(ctx, prompt)
	if err != nil {
		return nil, err
	}
	if text == "" {
		log.Debug().Str("home", home.CanonicalName).Msg("Narrative search returned no content")
		return nil, nil
	}

	block := &models.ContextBlock{RawText: text}
	if obj, ok := client.ExtractJSONObject(text); ok {
		block.Structured = obj
	}

	return block, nil
}
