package client

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"mlbpicks/pipeline/internal/models"
)

// OddsClient wraps the betting-odds provider API
type OddsClient struct {
	t *transport
}

// NewOddsClient creates an odds provider client. The API key travels as
// a query parameter on every request.
func NewOddsClient(baseURL, apiKey string, timeout time.Duration) *OddsClient {
	t := newTransport("odds", baseURL, timeout)
	t.queryParams["apiKey"] = apiKey
	return &OddsClient{t: t}
}

// RawGame is one upcoming game with its bookmaker markets, verbatim
// from the provider
type RawGame struct {
	ID           string      `json:"id"`
	SportKey     string      `json:"sport_key"`
	CommenceTime time.Time   `json:"commence_time"`
	HomeTeam     string      `json:"home_team"`
	AwayTeam     string      `json:"away_team"`
	Bookmakers   []Bookmaker `json:"bookmakers"`
}

// Bookmaker is one book's markets for a game
type Bookmaker struct {
	Key     string   `json:"key"`
	Title   string   `json:"title"`
	Markets []Market `json:"markets"`
}

// Market is one priced market (h2h, spreads, totals)
type Market struct {
	Key      string    `json:"key"`
	Outcomes []Outcome `json:"outcomes"`
}

// Outcome is one priced side of a market
type Outcome struct {
	Name  string   `json:"name"`
	Price int      `json:"price"`
	Point *float64 `json:"point"`
}

// ListUpcomingGames returns upcoming games with bookmaker lines for a
// sport. An empty schedule is an empty slice, not an error; errors are
// transport-level only.
func (c *OddsClient) ListUpcomingGames(ctx context.Context, sportKey string) ([]RawGame, error) {
	path := "sports/" + sportKey + "/odds"
	body, err := c.t.get(ctx, "upcoming-games", path, map[string]string{
		"regions":    "us",
		"markets":    "h2h,spreads,totals",
		"oddsFormat": "american",
	})
	if err != nil {
		log.Error().Err(err).Str("sport", sportKey).Msg("Failed to fetch upcoming games")
		return nil, err
	}

	var games []RawGame
	if err := json.Unmarshal(body, &games); err != nil {
		log.Error().Err(err).Str("sport", sportKey).Msg("Failed to unmarshal games response")
		return nil, err
	}

	return games, nil
}

// FindGame locates the game matching a home/away team pair by name.
// Matching tolerates short forms in either direction ("LA Dodgers" vs
// "Los Angeles Dodgers"). Returns nil when no game matches.
func FindGame(games []RawGame, homeName, awayName string) *RawGame {
	for i := range games {
		if teamNamesMatch(games[i].HomeTeam, homeName) && teamNamesMatch(games[i].AwayTeam, awayName) {
			return &games[i]
		}
	}
	return nil
}

func teamNamesMatch(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return false
	}
	return a == b || strings.Contains(a, b) || strings.Contains(b, a)
}

// Snapshot normalizes a raw game's markets into an OddsSnapshot, taking
// each market from the first bookmaker that carries it. Returns nil
// when no bookmaker priced any market.
func (g *RawGame) Snapshot() *models.OddsSnapshot {
	snap := &models.OddsSnapshot{FetchedAt: time.Now()}
	found := false

	for _, book := range g.Bookmakers {
		for _, market := range book.Markets {
			switch market.Key {
			case "h2h":
				if snap.Moneyline.Home != nil {
					continue
				}
				home, away := g.splitOutcomes(market.Outcomes)
				if home != nil && away != nil {
					snap.Moneyline = models.MarketPair{
						Home: &models.OddsQuote{Price: home.Price},
						Away: &models.OddsQuote{Price: away.Price},
					}
					snap.Bookmaker = book.Title
					found = true
				}
			case "spreads":
				if snap.Spread.Home != nil {
					continue
				}
				home, away := g.splitOutcomes(market.Outcomes)
				if home != nil && away != nil {
					snap.Spread = models.MarketPair{
						Home: &models.OddsQuote{Line: home.Point, Price: home.Price},
						Away: &models.OddsQuote{Line: away.Point, Price: away.Price},
					}
					found = true
				}
			case "totals":
				if snap.Total.Over != nil {
					continue
				}
				over, under := splitTotals(market.Outcomes)
				if over != nil && under != nil {
					snap.Total = models.TotalMarket{
						Line:  over.Point,
						Over:  &models.OddsQuote{Line: over.Point, Price: over.Price},
						Under: &models.OddsQuote{Line: under.Point, Price: under.Price},
					}
					found = true
				}
			}
		}
	}

	if !found {
		return nil
	}
	return snap
}

func (g *RawGame) splitOutcomes(outcomes []Outcome) (home, away *Outcome) {
	for i := range outcomes {
		switch {
		case teamNamesMatch(outcomes[i].Name, g.HomeTeam):
			home = &outcomes[i]
		case teamNamesMatch(outcomes[i].Name, g.AwayTeam):
			away = &outcomes[i]
		}
	}
	return home, away
}

func splitTotals(outcomes []Outcome) (over, under *Outcome) {
	for i := range outcomes {
		switch strings.ToLower(outcomes[i].Name) {
		case "over":
			over = &outcomes[i]
		case "under":
			under = &outcomes[i]
		}
	}
	return over, under
}
