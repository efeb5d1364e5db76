package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func float64Ptr(f float64) *float64 { return &f }

func TestOddsClient_ListUpcomingGames(t *testing.T) {
	var gotPath, gotAPIKey, gotMarkets string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAPIKey = r.URL.Query().Get("apiKey")
		gotMarkets = r.URL.Query().Get("markets")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{
				"id": "abc123",
				"sport_key": "baseball_mlb",
				"home_team": "Boston Red Sox",
				"away_team": "New York Yankees",
				"bookmakers": [
					{
						"key": "draftkings",
						"title": "DraftKings",
						"markets": [
							{
								"key": "h2h",
								"outcomes": [
									{"name": "Boston Red Sox", "price": -150},
									{"name": "New York Yankees", "price": 130}
								]
							}
						]
					}
				]
			}
		]`))
	}))
	defer server.Close()

	c := NewOddsClient(server.URL, "test-key", 5*time.Second)
	games, err := c.ListUpcomingGames(context.Background(), "baseball_mlb")
	require.NoError(t, err)

	assert.Equal(t, "/sports/baseball_mlb/odds", gotPath)
	assert.Equal(t, "test-key", gotAPIKey, "API key should travel as a query parameter")
	assert.Equal(t, "h2h,spreads,totals", gotMarkets)

	require.Len(t, games, 1)
	assert.Equal(t, "Boston Red Sox", games[0].HomeTeam)
	require.Len(t, games[0].Bookmakers, 1)
}

func TestOddsClient_AuthFailureNotRetried(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	c := NewOddsClient(server.URL, "bad-key", 5*time.Second)
	_, err := c.ListUpcomingGames(context.Background(), "baseball_mlb")
	assert.Error(t, err)
	assert.Equal(t, 1, calls, "401 should fail without retries")
}

func TestFindGame(t *testing.T) {
	games := []RawGame{
		{HomeTeam: "Boston Red Sox", AwayTeam: "New York Yankees"},
		{HomeTeam: "Los Angeles Dodgers", AwayTeam: "San Diego Padres"},
	}

	found := FindGame(games, "Boston Red Sox", "New York Yankees")
	require.NotNil(t, found)
	assert.Equal(t, "Boston Red Sox", found.HomeTeam)

	// Short forms tolerated in either direction
	found = FindGame(games, "LA Dodgers", "Padres")
	require.NotNil(t, found)
	assert.Equal(t, "Los Angeles Dodgers", found.HomeTeam)

	assert.Nil(t, FindGame(games, "Boston Red Sox", "San Diego Padres"), "Both sides must match")
	assert.Nil(t, FindGame(games, "", "New York Yankees"), "Empty names never match")
}

func TestSnapshot_FirstBookmakerPerMarket(t *testing.T) {
	g := &RawGame{
		HomeTeam: "Boston Red Sox",
		AwayTeam: "New York Yankees",
		Bookmakers: []Bookmaker{
			{
				Title: "DraftKings",
				Markets: []Market{
					{Key: "h2h", Outcomes: []Outcome{
						{Name: "Boston Red Sox", Price: -150},
						{Name: "New York Yankees", Price: 130},
					}},
				},
			},
			{
				Title: "FanDuel",
				Markets: []Market{
					{Key: "h2h", Outcomes: []Outcome{
						{Name: "Boston Red Sox", Price: -160},
						{Name: "New York Yankees", Price: 140},
					}},
					{Key: "totals", Outcomes: []Outcome{
						{Name: "Over", Price: -110, Point: float64Ptr(8.5)},
						{Name: "Under", Price: -110, Point: float64Ptr(8.5)},
					}},
				},
			},
		},
	}

	snap := g.Snapshot()
	require.NotNil(t, snap)

	// Moneyline from the first book carrying it
	require.NotNil(t, snap.Moneyline.Home)
	assert.Equal(t, -150, snap.Moneyline.Home.Price)
	assert.Equal(t, 130, snap.Moneyline.Away.Price)
	assert.Equal(t, "DraftKings", snap.Bookmaker)

	// Totals only priced by the second book
	require.NotNil(t, snap.Total.Over)
	assert.Equal(t, 8.5, *snap.Total.Line)

	// No spread priced anywhere
	assert.Nil(t, snap.Spread.Home)
}

func TestSnapshot_NoPricedMarkets(t *testing.T) {
	empty := &RawGame{HomeTeam: "Boston Red Sox", AwayTeam: "New York Yankees"}
	assert.Nil(t, empty.Snapshot())

	oneSided := &RawGame{
		HomeTeam: "Boston Red Sox",
		AwayTeam: "New York Yankees",
		Bookmakers: []Bookmaker{
			{Markets: []Market{
				{Key: "h2h", Outcomes: []Outcome{
					{Name: "Boston Red Sox", Price: -150},
				}},
			}},
		},
	}
	assert.Nil(t, oneSided.Snapshot(), "A market missing one side does not count as priced")
}

func TestSnapshot_Spread(t *testing.T) {
	g := &RawGame{
		HomeTeam: "Boston Red Sox",
		AwayTeam: "New York Yankees",
		Bookmakers: []Bookmaker{
			{Markets: []Market{
				{Key: "spreads", Outcomes: []Outcome{
					{Name: "Boston Red Sox", Price: 110, Point: float64Ptr(-1.5)},
					{Name: "New York Yankees", Price: -130, Point: float64Ptr(1.5)},
				}},
			}},
		},
	}

	snap := g.Snapshot()
	require.NotNil(t, snap)
	require.NotNil(t, snap.Spread.Home)
	assert.Equal(t, -1.5, *snap.Spread.Home.Line)
	assert.Equal(t, 1.5, *snap.Spread.Away.Line)
	assert.Nil(t, snap.Moneyline.Home)
}
