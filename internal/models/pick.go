package models

import "time"

// BetType enumerates the market a pick is on
type BetType string

const (
	BetSpread    BetType = "spread"
	BetMoneyline BetType = "moneyline"
	BetTotal     BetType = "total"
	BetParlay    BetType = "parlay"
)

// TotalSide enumerates the side of a totals market
type TotalSide string

const (
	SideOver  TotalSide = "OVER"
	SideUnder TotalSide = "UNDER"
)

// Candidate is a recommender output before confidence filtering.
// The structured fields drive deterministic display formatting; Raw is
// the recommender payload in whatever of its historical shapes it
// arrived, and is the only place confidence is read from.
type Candidate struct {
	Game      string
	League    string
	BetType   BetType
	Team      *TeamRef
	TotalSide TotalSide
	Line      *float64
	OddsPrice *int
	Rationale string

	// Raw carries confidence: a flat map, a nested map one or two
	// levels down, or a JSON-encoded string of either.
	Raw interface{}
}

// Pick is a confidence-filtered, display-formatted pick
type Pick struct {
	ID               string  `json:"id"`
	Date             string  `json:"date"`
	League           string  `json:"league"`
	Game             string  `json:"game"`
	BetType          BetType `json:"bet_type"`
	Selection        string  `json:"selection"`
	OddsPrice        int     `json:"odds_price"`
	Confidence       float64 `json:"confidence"`
	Rationale        string  `json:"rationale"`
	ShortDisplayText string  `json:"short_display_text"`
}

// DailyPickBatch is the set of picks persisted together for one
// calendar day in the business timezone. At most one batch may ever be
// written per date.
type DailyPickBatch struct {
	Date      string
	Picks     []Pick
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GenerationMarker records the last successful generation cycle. It is
// persisted outside the process and only ever moves forward.
type GenerationMarker struct {
	LastGeneration time.Time
}

// IsSet reports whether a generation has ever completed
func (m GenerationMarker) IsSet() bool {
	return !m.LastGeneration.IsZero()
}
