package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"mlbpicks/pipeline/internal/cache"
	"mlbpicks/pipeline/internal/models"
)

// StatsClient wraps the sports statistics provider API. Lookup misses
// (no probable pitcher yet, empty roster) return nil results, not
// errors; errors are reserved for transport failures.
type StatsClient struct {
	t     *transport
	cache *cache.Cache
}

// NewStatsClient creates a statistics provider client. The cache is
// optional; when present, season stats and team stats are memoized
// under deterministic keys.
func NewStatsClient(baseURL string, timeout time.Duration, c *cache.Cache) *StatsClient {
	return &StatsClient{
		t:     newTransport("statistics", baseURL, timeout),
		cache: c,
	}
}

// ScheduledGame is one game on a date's schedule
type ScheduledGame struct {
	GamePk       int
	Date         string
	StartTime    time.Time
	Venue        string
	HomeTeamID   int
	HomeTeamName string
	AwayTeamID   int
	AwayTeamName string
	Status       string
}

// ProbableStarters holds the announced probable pitchers for a game.
// Either side may be nil before an announcement.
type ProbableStarters struct {
	Home *ProbablePitcher
	Away *ProbablePitcher
}

// ProbablePitcher identifies an announced starter
type ProbablePitcher struct {
	ID       int
	FullName string
}

// InjuryTransaction is one roster move from the transactions feed
type InjuryTransaction struct {
	PlayerID    int       `json:"player_id"`
	PlayerName  string    `json:"player_name"`
	TeamName    string    `json:"team_name"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
}

// LeagueLeader is one entry from a statistical leaderboard
type LeagueLeader struct {
	Rank       int
	PlayerID   int
	PlayerName string
	TeamName   string
	Value      string
}

// schedule response shapes

type scheduleResponse struct {
	Dates []struct {
		Date  string `json:"date"`
		Games []struct {
			GamePk   int       `json:"gamePk"`
			GameDate time.Time `json:"gameDate"`
			Teams    struct {
				Home scheduleSide `json:"home"`
				Away scheduleSide `json:"away"`
			} `json:"teams"`
			Venue struct {
				Name string `json:"name"`
			} `json:"venue"`
			Status struct {
				DetailedState string `json:"detailedState"`
			} `json:"status"`
		} `json:"games"`
	} `json:"dates"`
}

type scheduleSide struct {
	Team struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"team"`
	ProbablePitcher *struct {
		ID       int    `json:"id"`
		FullName string `json:"fullName"`
	} `json:"probablePitcher"`
}

// GamesOnDate returns the schedule for a calendar date (YYYY-MM-DD).
// A day without games returns an empty slice.
func (c *StatsClient) GamesOnDate(ctx context.Context, date string) ([]ScheduledGame, error) {
	body, err := c.t.get(ctx, "schedule", "schedule", map[string]string{
		"sportId": "1",
		"date":    date,
	})
	if err != nil {
		log.Error().Err(err).Str("date", date).Msg("Failed to fetch schedule")
		return nil, err
	}

	var resp scheduleResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		log.Error().Err(err).Str("date", date).Msg("Failed to unmarshal schedule")
		return nil, err
	}

	var games []ScheduledGame
	for _, d := range resp.Dates {
		for _, g := range d.Games {
			games = append(games, ScheduledGame{
				GamePk:       g.GamePk,
				Date:         d.Date,
				StartTime:    g.GameDate,
				Venue:        g.Venue.Name,
				HomeTeamID:   g.Teams.Home.Team.ID,
				HomeTeamName: g.Teams.Home.Team.Name,
				AwayTeamID:   g.Teams.Away.Team.ID,
				AwayTeamName: g.Teams.Away.Team.Name,
				Status:       g.Status.DetailedState,
			})
		}
	}

	return games, nil
}

// StartingPitchers returns the announced probable starters for a game.
// Returns (nil, nil) when the game is unknown; either side of the
// result is nil until a starter is announced.
func (c *StatsClient) StartingPitchers(ctx context.Context, gamePk int) (*ProbableStarters, error) {
	body, err := c.t.get(ctx, "probable-pitchers", "schedule", map[string]string{
		"sportId": "1",
		"gamePk":  strconv.Itoa(gamePk),
		"hydrate": "probablePitcher",
	})
	if err != nil {
		log.Error().Err(err).Int("game_pk", gamePk).Msg("Failed to fetch probable pitchers")
		return nil, err
	}

	var resp scheduleResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		log.Error().Err(err).Int("game_pk", gamePk).Msg("Failed to unmarshal probable pitchers")
		return nil, err
	}

	for _, d := range resp.Dates {
		for _, g := range d.Games {
			if g.GamePk != gamePk {
				continue
			}
			starters := &ProbableStarters{}
			if pp := g.Teams.Home.ProbablePitcher; pp != nil {
				starters.Home = &ProbablePitcher{ID: pp.ID, FullName: pp.FullName}
			}
			if pp := g.Teams.Away.ProbablePitcher; pp != nil {
				starters.Away = &ProbablePitcher{ID: pp.ID, FullName: pp.FullName}
			}
			return starters, nil
		}
	}

	log.Debug().Int("game_pk", gamePk).Msg("Game not found on schedule")
	return nil, nil
}

type seasonStatsResponse struct {
	Stats []struct {
		Splits []struct {
			Stat map[string]interface{} `json:"stat"`
		} `json:"splits"`
	} `json:"stats"`
}

// SeasonStats returns a player's season stat block for a group
// ("pitching" or "hitting"). A player with no splits this season
// returns (nil, nil).
func (c *StatsClient) SeasonStats(ctx context.Context, playerID int, group string) (models.StatBlock, error) {
	key := fmt.Sprintf("season-stats:%d:%s", playerID, group)
	if c.cache != nil {
		if cached, ok := c.cache.Get(key); ok {
			if block, ok := cached.(models.StatBlock); ok {
				return block, nil
			}
		}
	}

	path := fmt.Sprintf("people/%d/stats", playerID)
	body, err := c.t.get(ctx, "season-stats", path, map[string]string{
		"stats": "season",
		"group": group,
	})
	if err != nil {
		log.Error().Err(err).Int("player_id", playerID).Str("group", group).Msg("Failed to fetch season stats")
		return nil, err
	}

	var resp seasonStatsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		log.Error().Err(err).Int("player_id", playerID).Msg("Failed to unmarshal season stats")
		return nil, err
	}

	var raw map[string]interface{}
	for _, s := range resp.Stats {
		for _, split := range s.Splits {
			raw = split.Stat
			break
		}
	}
	if raw == nil {
		log.Debug().Int("player_id", playerID).Str("group", group).Msg("No season stats recorded")
		return nil, nil
	}

	var block models.StatBlock
	switch group {
	case "pitching":
		block = newPitchingStats(raw)
	default:
		block = newHittingStats(raw)
	}

	if c.cache != nil {
		c.cache.Set(key, block)
	}
	return block, nil
}

type teamStatsResponse struct {
	Stats []struct {
		Splits []struct {
			Stat map[string]interface{} `json:"stat"`
		} `json:"splits"`
	} `json:"stats"`
}

// TeamOffenseStats returns a team's aggregate season hitting stats.
// Returns (nil, nil) when the team has no recorded splits.
func (c *StatsClient) TeamOffenseStats(ctx context.Context, teamID int, teamName string, season int) (models.StatBlock, error) {
	key := fmt.Sprintf("offensive-stats:%s:%d", teamName, season)
	if c.cache != nil {
		if cached, ok := c.cache.Get(key); ok {
			if block, ok := cached.(models.StatBlock); ok {
				return block, nil
			}
		}
	}

	path := fmt.Sprintf("teams/%d/stats", teamID)
	body, err := c.t.get(ctx, "team-stats", path, map[string]string{
		"stats":  "season",
		"group":  "hitting",
		"season": strconv.Itoa(season),
	})
	if err != nil {
		log.Error().Err(err).Int("team_id", teamID).Msg("Failed to fetch team stats")
		return nil, err
	}

	var resp teamStatsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		log.Error().Err(err).Int("team_id", teamID).Msg("Failed to unmarshal team stats")
		return nil, err
	}

	for _, s := range resp.Stats {
		for _, split := range s.Splits {
			block := newHittingStats(split.Stat)
			if c.cache != nil {
				c.cache.Set(key, block)
			}
			return block, nil
		}
	}

	log.Debug().Int("team_id", teamID).Msg("No team stats recorded")
	return nil, nil
}

type rosterResponse struct {
	Roster []struct {
		Person struct {
			ID       int    `json:"id"`
			FullName string `json:"fullName"`
		} `json:"person"`
		Position struct {
			Abbreviation string `json:"abbreviation"`
		} `json:"position"`
	} `json:"roster"`
}

// RosterWithStats returns the active roster for a team. Season stats
// are attached per player where available; players without recorded
// stats carry sentinel-defaulted blocks.
func (c *StatsClient) RosterWithStats(ctx context.Context, teamID int, team models.TeamRef) ([]models.PlayerProfile, error) {
	path := fmt.Sprintf("teams/%d/roster", teamID)
	body, err := c.t.get(ctx, "roster", path, map[string]string{"rosterType": "active"})
	if err != nil {
		log.Error().Err(err).Int("team_id", teamID).Msg("Failed to fetch roster")
		return nil, err
	}

	var resp rosterResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		log.Error().Err(err).Int("team_id", teamID).Msg("Failed to unmarshal roster")
		return nil, err
	}

	var players []models.PlayerProfile
	for _, entry := range resp.Roster {
		players = append(players, models.PlayerProfile{
			ID:          strconv.Itoa(entry.Person.ID),
			FullName:    entry.Person.FullName,
			Position:    entry.Position.Abbreviation,
			Team:        team,
			SeasonStats: newHittingStats(nil),
		})
	}

	return players, nil
}

type transactionsResponse struct {
	Transactions []struct {
		Person *struct {
			ID       int    `json:"id"`
			FullName string `json:"fullName"`
		} `json:"person"`
		ToTeam *struct {
			Name string `json:"name"`
		} `json:"toTeam"`
		Description string `json:"description"`
		Date        string `json:"date"`
	} `json:"transactions"`
}

// RecentInjuryTransactions returns roster transactions over the last
// daysBack days. A quiet window returns an empty slice.
func (c *StatsClient) RecentInjuryTransactions(ctx context.Context, daysBack int) ([]InjuryTransaction, error) {
	end := time.Now()
	start := end.AddDate(0, 0, -daysBack)

	body, err := c.t.get(ctx, "transactions", "transactions", map[string]string{
		"startDate": start.Format("2006-01-02"),
		"endDate":   end.Format("2006-01-02"),
	})
	if err != nil {
		log.Error().Err(err).Int("days_back", daysBack).Msg("Failed to fetch transactions")
		return nil, err
	}

	var resp transactionsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		log.Error().Err(err).Msg("Failed to unmarshal transactions")
		return nil, err
	}

	var transactions []InjuryTransaction
	for _, t := range resp.Transactions {
		if t.Person == nil {
			continue
		}
		tx := InjuryTransaction{
			PlayerID:    t.Person.ID,
			PlayerName:  t.Person.FullName,
			Description: t.Description,
		}
		if t.ToTeam != nil {
			tx.TeamName = t.ToTeam.Name
		}
		if parsed, err := time.Parse("2006-01-02", t.Date); err == nil {
			tx.Date = parsed
		}
		transactions = append(transactions, tx)
	}

	return transactions, nil
}

type leadersResponse struct {
	LeagueLeaders []struct {
		Leaders []struct {
			Rank   int    `json:"rank"`
			Value  string `json:"value"`
			Person struct {
				ID       int    `json:"id"`
				FullName string `json:"fullName"`
			} `json:"person"`
			Team struct {
				Name string `json:"name"`
			} `json:"team"`
		} `json:"leaders"`
	} `json:"leagueLeaders"`
}

// LeagueLeaders returns the top players for a stat category
func (c *StatsClient) LeagueLeaders(ctx context.Context, category, group string, limit int) ([]LeagueLeader, error) {
	body, err := c.t.get(ctx, "league-leaders", "stats/leaders", map[string]string{
		"leaderCategories": category,
		"statGroup":        group,
		"limit":            strconv.Itoa(limit),
	})
	if err != nil {
		log.Error().Err(err).Str("category", category).Msg("Failed to fetch league leaders")
		return nil, err
	}

	var resp leadersResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		log.Error().Err(err).Str("category", category).Msg("Failed to unmarshal league leaders")
		return nil, err
	}

	var leaders []LeagueLeader
	for _, ll := range resp.LeagueLeaders {
		for _, l := range ll.Leaders {
			leaders = append(leaders, LeagueLeader{
				Rank:       l.Rank,
				PlayerID:   l.Person.ID,
				PlayerName: l.Person.FullName,
				TeamName:   l.Team.Name,
				Value:      l.Value,
			})
			if len(leaders) >= limit {
				return leaders, nil
			}
		}
	}

	return leaders, nil
}

type teamsResponse struct {
	Teams []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"teams"`
}

// Teams lists the league's teams for a season as canonical refs.
// Implements the identity resolver's source contract.
func (c *StatsClient) Teams(ctx context.Context, season int) ([]models.TeamRef, error) {
	body, err := c.t.get(ctx, "teams", "teams", map[string]string{
		"sportId": "1",
		"season":  strconv.Itoa(season),
	})
	if err != nil {
		log.Error().Err(err).Int("season", season).Msg("Failed to fetch teams")
		return nil, err
	}

	var resp teamsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		log.Error().Err(err).Int("season", season).Msg("Failed to unmarshal teams")
		return nil, err
	}

	var teams []models.TeamRef
	for _, t := range resp.Teams {
		teams = append(teams, models.TeamRef{
			SourceSystem:  models.SourceStatistics,
			SourceID:      strconv.Itoa(t.ID),
			CanonicalName: t.Name,
		})
	}

	return teams, nil
}

type playersResponse struct {
	People []struct {
		ID          int    `json:"id"`
		FullName    string `json:"fullName"`
		CurrentTeam struct {
			ID int `json:"id"`
		} `json:"currentTeam"`
	} `json:"people"`
}

// Players lists the league's players for a season as canonical refs.
// Implements the identity resolver's source contract.
func (c *StatsClient) Players(ctx context.Context, season int) ([]models.PlayerRef, error) {
	body, err := c.t.get(ctx, "players", "sports/1/players", map[string]string{
		"season": strconv.Itoa(season),
	})
	if err != nil {
		log.Error().Err(err).Int("season", season).Msg("Failed to fetch players")
		return nil, err
	}

	var resp playersResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		log.Error().Err(err).Int("season", season).Msg("Failed to unmarshal players")
		return nil, err
	}

	var players []models.PlayerRef
	for _, p := range resp.People {
		players = append(players, models.PlayerRef{
			SourceSystem:  models.SourceStatistics,
			SourceID:      strconv.Itoa(p.ID),
			CanonicalName: p.FullName,
			TeamID:        strconv.Itoa(p.CurrentTeam.ID),
		})
	}

	return players, nil
}

// newPitchingStats builds a pitching stat block from a raw split,
// filling every expected field with its sentinel when absent
func newPitchingStats(raw map[string]interface{}) models.StatBlock {
	block := models.StatBlock{}
	block["wins"] = statString(raw, "wins", models.StatZero)
	block["losses"] = statString(raw, "losses", models.StatZero)
	block["era"] = models.FormatERA(statString(raw, "era", ""))
	block["inningsPitched"] = statString(raw, "inningsPitched", models.StatZeroDecimal)
	block["strikeOuts"] = statString(raw, "strikeOuts", models.StatZero)
	block["baseOnBalls"] = statString(raw, "baseOnBalls", models.StatZero)
	block["whip"] = statString(raw, "whip", models.StatUnavailable)
	return block
}

// newHittingStats builds a hitting stat block with the same
// sentinel-defaulting rule
func newHittingStats(raw map[string]interface{}) models.StatBlock {
	block := models.StatBlock{}
	block["avg"] = models.FormatAverage(statString(raw, "avg", ""))
	block["runs"] = statString(raw, "runs", models.StatZero)
	block["homeRuns"] = statString(raw, "homeRuns", models.StatZero)
	block["rbi"] = statString(raw, "rbi", models.StatZero)
	block["ops"] = statString(raw, "ops", models.StatUnavailable)
	block["stolenBases"] = statString(raw, "stolenBases", models.StatZero)
	return block
}

// statString renders a raw stat value (string or number) as a string,
// or the sentinel when missing
func statString(raw map[string]interface{}, key, sentinel string) string {
	if raw == nil {
		return sentinel
	}
	v, ok := raw[key]
	if !ok || v == nil {
		return sentinel
	}
	switch val := v.(type) {
	case string:
		if val == "" {
			return sentinel
		}
		return val
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	default:
		return sentinel
	}
}
