package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mlbpicks/pipeline/internal/cache"
	"mlbpicks/pipeline/internal/metrics"
	"mlbpicks/pipeline/internal/models"
)

func TestStatsClient_GamesOnDate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/schedule", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("sportId"))
		assert.Equal(t, "2026-08-31", r.URL.Query().Get("date"))
		w.Write([]byte(`{
			"dates": [
				{
					"date": "2026-08-31",
					"games": [
						{
							"gamePk": 777001,
							"gameDate": "2026-08-31T23:10:00Z",
							"teams": {
								"home": {"team": {"id": 111, "name": "Boston Red Sox"}},
								"away": {"team": {"id": 147, "name": "New York Yankees"}}
							},
							"venue": {"name": "Fenway Park"},
							"status": {"detailedState": "Scheduled"}
						}
					]
				}
			]
		}`))
	}))
	defer server.Close()

	c := NewStatsClient(server.URL, 5*time.Second, nil)
	games, err := c.GamesOnDate(context.Background(), "2026-08-31")
	require.NoError(t, err)

	require.Len(t, games, 1)
	g := games[0]
	assert.Equal(t, 777001, g.GamePk)
	assert.Equal(t, 111, g.HomeTeamID)
	assert.Equal(t, "Boston Red Sox", g.HomeTeamName)
	assert.Equal(t, "New York Yankees", g.AwayTeamName)
	assert.Equal(t, "Fenway Park", g.Venue)
	assert.Equal(t, "Scheduled", g.Status)
}

func TestStatsClient_GamesOnDate_EmptyDay(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"dates": []}`))
	}))
	defer server.Close()

	c := NewStatsClient(server.URL, 5*time.Second, nil)
	games, err := c.GamesOnDate(context.Background(), "2026-12-25")
	require.NoError(t, err)
	assert.Empty(t, games)
}

func TestStatsClient_StartingPitchers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "probablePitcher", r.URL.Query().Get("hydrate"))
		w.Write([]byte(`{
			"dates": [
				{
					"date": "2026-08-31",
					"games": [
						{
							"gamePk": 777001,
							"teams": {
								"home": {
									"team": {"id": 111, "name": "Boston Red Sox"},
									"probablePitcher": {"id": 1001, "fullName": "Home Ace"}
								},
								"away": {"team": {"id": 147, "name": "New York Yankees"}}
							}
						}
					]
				}
			]
		}`))
	}))
	defer server.Close()

	c := NewStatsClient(server.URL, 5*time.Second, nil)
	starters, err := c.StartingPitchers(context.Background(), 777001)
	require.NoError(t, err)
	require.NotNil(t, starters)

	require.NotNil(t, starters.Home)
	assert.Equal(t, "Home Ace", starters.Home.FullName)
	assert.Nil(t, starters.Away, "Unannounced side stays nil")
}

func TestStatsClient_StartingPitchers_UnknownGame(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"dates": []}`))
	}))
	defer server.Close()

	c := NewStatsClient(server.URL, 5*time.Second, nil)
	starters, err := c.StartingPitchers(context.Background(), 999999)
	require.NoError(t, err, "An unknown game is a soft miss, not an error")
	assert.Nil(t, starters)
}

func TestStatsClient_SeasonStats_Pitching(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/people/1001/stats", r.URL.Path)
		assert.Equal(t, "pitching", r.URL.Query().Get("group"))
		w.Write([]byte(`{
			"stats": [
				{
					"splits": [
						{"stat": {"wins": 14, "losses": 6, "era": "2.954", "inningsPitched": "180.1", "strikeOuts": 201}}
					]
				}
			]
		}`))
	}))
	defer server.Close()

	c := NewStatsClient(server.URL, 5*time.Second, nil)
	block, err := c.SeasonStats(context.Background(), 1001, "pitching")
	require.NoError(t, err)
	require.NotNil(t, block)

	assert.Equal(t, "14", block.Get("wins"))
	assert.Equal(t, "2.95", block.Get("era"), "ERA is normalized to two decimals")
	assert.Equal(t, "180.1", block.Get("inningsPitched"))
	assert.Equal(t, "201", block.Get("strikeOuts"))
	assert.Equal(t, models.StatUnavailable, block.Get("whip"), "Absent stat carries its sentinel")
	assert.Equal(t, models.StatZero, block.Get("baseOnBalls"))
}

func TestStatsClient_SeasonStats_NoSplits(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"stats": [{"splits": []}]}`))
	}))
	defer server.Close()

	c := NewStatsClient(server.URL, 5*time.Second, nil)
	block, err := c.SeasonStats(context.Background(), 9999, "pitching")
	require.NoError(t, err)
	assert.Nil(t, block, "No recorded splits is a soft miss")
}

func TestStatsClient_SeasonStats_Cached(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"stats": [{"splits": [{"stat": {"era": "3.50"}}]}]}`))
	}))
	defer server.Close()

	c := NewStatsClient(server.URL, 5*time.Second, cache.New(10, time.Minute))
	for i := 0; i < 3; i++ {
		_, err := c.SeasonStats(context.Background(), 1001, "pitching")
		require.NoError(t, err)
	}

	assert.Equal(t, 1, calls, "Repeated lookups should come from the cache")
}

func TestStatsClient_MetricsUseFixedOperationLabel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"stats": [{"splits": [{"stat": {"era": "3.50"}}]}]}`))
	}))
	defer server.Close()

	counter := metrics.ProviderCallsTotal.WithLabelValues("statistics", "season-stats", "ok")
	before := testutil.ToFloat64(counter)

	c := NewStatsClient(server.URL, 5*time.Second, nil)
	for _, playerID := range []int{660271, 592450, 543037} {
		_, err := c.SeasonStats(context.Background(), playerID, "pitching")
		require.NoError(t, err)
	}

	// Per-player paths collapse onto one fixed operation label; the
	// series count must not grow with entity IDs
	assert.Equal(t, before+3, testutil.ToFloat64(counter))
}

func TestStatsClient_TeamOffenseStats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/teams/111/stats", r.URL.Path)
		assert.Equal(t, "hitting", r.URL.Query().Get("group"))
		assert.Equal(t, "2026", r.URL.Query().Get("season"))
		w.Write([]byte(`{
			"stats": [
				{"splits": [{"stat": {"avg": "0.261", "homeRuns": 182, "runs": 701, "ops": ".782"}}]}
			]
		}`))
	}))
	defer server.Close()

	c := NewStatsClient(server.URL, 5*time.Second, nil)
	block, err := c.TeamOffenseStats(context.Background(), 111, "Boston Red Sox", 2026)
	require.NoError(t, err)
	require.NotNil(t, block)

	assert.Equal(t, ".261", block.Get("avg"), "Average drops the leading zero")
	assert.Equal(t, "182", block.Get("homeRuns"))
	assert.Equal(t, "701", block.Get("runs"))
	assert.Equal(t, ".782", block.Get("ops"))
	assert.Equal(t, models.StatZero, block.Get("stolenBases"))
}

func TestStatsClient_Teams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/teams", r.URL.Path)
		assert.Equal(t, "2026", r.URL.Query().Get("season"))
		w.Write([]byte(`{
			"teams": [
				{"id": 147, "name": "New York Yankees"},
				{"id": 111, "name": "Boston Red Sox"}
			]
		}`))
	}))
	defer server.Close()

	c := NewStatsClient(server.URL, 5*time.Second, nil)
	teams, err := c.Teams(context.Background(), 2026)
	require.NoError(t, err)

	require.Len(t, teams, 2)
	assert.Equal(t, models.SourceStatistics, teams[0].SourceSystem)
	assert.Equal(t, "147", teams[0].SourceID)
	assert.Equal(t, "New York Yankees", teams[0].CanonicalName)
}

func TestStatsClient_RecentInjuryTransactions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transactions", r.URL.Path)
		assert.NotEmpty(t, r.URL.Query().Get("startDate"))
		w.Write([]byte(`{
			"transactions": [
				{
					"person": {"id": 1001, "fullName": "Home Ace"},
					"toTeam": {"name": "Boston Red Sox"},
					"description": "Placed on the 15-day injured list",
					"date": "2026-08-29"
				},
				{"description": "Team-level transaction without a person"}
			]
		}`))
	}))
	defer server.Close()

	c := NewStatsClient(server.URL, 5*time.Second, nil)
	transactions, err := c.RecentInjuryTransactions(context.Background(), 7)
	require.NoError(t, err)

	require.Len(t, transactions, 1, "Transactions without a person are skipped")
	tx := transactions[0]
	assert.Equal(t, 1001, tx.PlayerID)
	assert.Equal(t, "Boston Red Sox", tx.TeamName)
	assert.Equal(t, 2026, tx.Date.Year())
}

func TestStatsClient_LeagueLeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stats/leaders", r.URL.Path)
		w.Write([]byte(`{
			"leagueLeaders": [
				{
					"leaders": [
						{"rank": 1, "value": "48", "person": {"id": 592450, "fullName": "Aaron Judge"}, "team": {"name": "New York Yankees"}},
						{"rank": 2, "value": "41", "person": {"id": 660271, "fullName": "Shohei Ohtani"}, "team": {"name": "Los Angeles Dodgers"}},
						{"rank": 3, "value": "39", "person": {"id": 1, "fullName": "Third Player"}, "team": {"name": "Somewhere"}}
					]
				}
			]
		}`))
	}))
	defer server.Close()

	c := NewStatsClient(server.URL, 5*time.Second, nil)
	leaders, err := c.LeagueLeaders(context.Background(), "homeRuns", "hitting", 2)
	require.NoError(t, err)

	require.Len(t, leaders, 2, "Limit should be honored")
	assert.Equal(t, 1, leaders[0].Rank)
	assert.Equal(t, "Aaron Judge", leaders[0].PlayerName)
	assert.Equal(t, "48", leaders[0].Value)
}
