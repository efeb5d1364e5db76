package models

import "time"

// OddsQuote is a single priced side of a market. Line is nil for markets
// without a handicap (moneylines). Price is an American-odds integer.
type OddsQuote struct {
	Line  *float64
	Price int
}

// MarketPair holds the two team sides of a market
type MarketPair struct {
	Home *OddsQuote
	Away *OddsQuote
}

// TotalMarket holds an over/under market
type TotalMarket struct {
	Line  *float64
	Over  *OddsQuote
	Under *OddsQuote
}

// OddsSnapshot is the normalized betting-market view of one game
type OddsSnapshot struct {
	Bookmaker string
	Spread    MarketPair
	Moneyline MarketPair
	Total     TotalMarket
	FetchedAt time.Time
}

// ContextBlock holds narrative context for a game. Structured is the
// embedded JSON object when the provider response contained one; RawText
// is always populated and is the fallback when parsing fails.
type ContextBlock struct {
	Structured map[string]interface{}
	RawText    string
}

// SourceFailures records which providers failed for one profile build,
// keyed by source with a short reason. Soft lookup misses are not
// failures and are never recorded here.
type SourceFailures map[SourceSystem]string

// Has reports whether the given source failed
func (f SourceFailures) Has(source SourceSystem) bool {
	_, ok := f[source]
	return ok
}

// PitcherPair holds the probable starters for one game
type PitcherPair struct {
	Home *PitcherProfile
	Away *PitcherProfile
}

// TeamStatsPair holds aggregate roster stats for both sides
type TeamStatsPair struct {
	Home StatBlock
	Away StatBlock
}

// GameProfile is the merged per-game record the aggregator produces.
// It is owned by a single aggregator invocation and discarded after a
// pick (or no pick) results.
//
// A profile with statistics or context missing is still usable; a
// profile with odds missing is discarded by the cycle.
type GameProfile struct {
	GameID           string
	Date             string
	HomeTeam         TeamRef
	AwayTeam         TeamRef
	Venue            string
	StartTime        time.Time
	StartingPitchers PitcherPair
	RosterStats      TeamStatsPair
	Odds             *OddsSnapshot
	NarrativeContext *ContextBlock
	SourceFailures   SourceFailures
}

// OddsMissing reports whether the mandatory odds slice of the profile
// is unusable
func (p *GameProfile) OddsMissing() bool {
	return p.Odds == nil || p.SourceFailures.Has(SourceOdds)
}

// Matchup returns the "Away @ Home" display label for the game
func (p *GameProfile) Matchup() string {
	return p.AwayTeam.CanonicalName + " @ " + p.HomeTeam.CanonicalName
}
