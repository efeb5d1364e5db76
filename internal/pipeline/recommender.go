package pipeline

import (
	"context"
	"fmt"
	"math"

	"mlbpicks/pipeline/internal/models"
	"mlbpicks/pipeline/internal/picks"
)

// FavoriteRecommender backs the game's moneyline favorite. Confidence
// scales with how heavily the market prices the favorite, so only
// clear favorites survive the downstream filter.
type FavoriteRecommender struct{}

// Recommend returns a moneyline candidate on the priced favorite, or
// nil when the game has no two-sided moneyline
func (FavoriteRecommender) Recommend(_ context.Context, profile *models.GameProfile) (*models.Candidate, error) {
	if profile.Odds == nil || profile.Odds.Moneyline.Home == nil || profile.Odds.Moneyline.Away == nil {
		return nil, nil
	}

	homePrice := profile.Odds.Moneyline.Home.Price
	awayPrice := profile.Odds.Moneyline.Away.Price

	team := &profile.HomeTeam
	price := homePrice
	opponent := profile.AwayTeam.CanonicalName
	if awayPrice < homePrice {
		team = &profile.AwayTeam
		price = awayPrice
		opponent = profile.HomeTeam.CanonicalName
	}

	return &models.Candidate{
		Game:      profile.Matchup(),
		League:    picks.LeagueMLB,
		BetType:   models.BetMoneyline,
		Team:      team,
		OddsPrice: &price,
		Rationale: fmt.Sprintf("%s priced as the moneyline favorite over %s", team.CanonicalName, opponent),
		Raw: map[string]interface{}{
			"confidence": moneylineConfidence(price),
		},
	}, nil
}

// moneylineConfidence maps an American moneyline price to the implied
// win probability of that side. Favorites land above 0.5; the filter
// threshold then keeps only heavy favorites.
func moneylineConfidence(price int) float64 {
	p := math.Abs(float64(price))
	if price < 0 {
		return p / (p + 100)
	}
	return 100 / (p + 100)
}
