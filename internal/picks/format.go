package picks

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"mlbpicks/pipeline/internal/metrics"
	"mlbpicks/pipeline/internal/models"
)

// DefaultThreshold is the confidence below which candidates are dropped
const DefaultThreshold = 0.75

// LeagueMLB is the league whose moneyline display omits the "ML" suffix
const LeagueMLB = "MLB"

// ParlayFallbackText is displayed for a parlay with unknown odds
const ParlayFallbackText = "PARLAY OF THE DAY"

// FormatSigned renders an American-odds integer with an explicit sign.
// Zero renders as "+0".
func FormatSigned(n int) string {
	if n < 0 {
		return strconv.Itoa(n)
	}
	return "+" + strconv.Itoa(n)
}

// ParseSigned parses a signed odds string back to its integer value.
// A bare number without a sign is assumed positive.
func ParseSigned(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty odds value")
	}
	s = strings.TrimPrefix(s, "+")
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid odds value %q: %w", s, err)
	}
	return n, nil
}

// FormatSignedLine renders a handicap line with an explicit sign,
// trimming trailing zeros ("-1.5", "+7")
func FormatSignedLine(line float64) string {
	s := strconv.FormatFloat(line, 'f', -1, 64)
	if line >= 0 {
		return "+" + s
	}
	return s
}

// FormatLine renders a totals line without a sign ("8.5")
func FormatLine(line float64) string {
	return strconv.FormatFloat(line, 'f', -1, 64)
}

// DisplayText derives the short display text for a candidate from its
// structured fields. Never derived from free text.
func DisplayText(c *models.Candidate) string {
	switch c.BetType {
	case models.BetSpread:
		if c.Team == nil || c.Line == nil {
			return ""
		}
		return fmt.Sprintf("%s %s", c.Team.Abbreviation, FormatSignedLine(*c.Line))

	case models.BetMoneyline:
		if c.Team == nil || c.OddsPrice == nil {
			return ""
		}
		text := fmt.Sprintf("%s %s", c.Team.Abbreviation, FormatSigned(*c.OddsPrice))
		// Product rule: baseball moneylines drop the "ML" suffix,
		// other leagues keep it
		if c.League != LeagueMLB {
			text += " ML"
		}
		return text

	case models.BetTotal:
		if c.Line == nil {
			return ""
		}
		side := c.TotalSide
		if side == "" {
			side = models.SideOver
		}
		return fmt.Sprintf("%s %s", side, FormatLine(*c.Line))

	case models.BetParlay:
		if c.OddsPrice == nil {
			return ParlayFallbackText
		}
		return fmt.Sprintf("PARLAY %s", FormatSigned(*c.OddsPrice))

	default:
		return ""
	}
}

// FilterAndFormat drops candidates below the confidence threshold and
// formats the survivors into persistable picks
func FilterAndFormat(date string, candidates []*models.Candidate, threshold float64) []models.Pick {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	var formatted []models.Pick
	for _, c := range candidates {
		if c == nil {
			continue
		}

		confidence := ExtractConfidence(c.Raw)
		if confidence < threshold {
			metrics.RecordCandidate("dropped")
			log.Info().
				Str("game", c.Game).
				Float64("confidence", confidence).
				Float64("threshold", threshold).
				Msg("Candidate below confidence threshold, dropped")
			continue
		}

		pick := models.Pick{
			ID:               uuid.NewString(),
			Date:             date,
			League:           c.League,
			Game:             c.Game,
			BetType:          c.BetType,
			Selection:        selection(c),
			Confidence:       confidence,
			Rationale:        c.Rationale,
			ShortDisplayText: DisplayText(c),
		}
		if c.OddsPrice != nil {
			pick.OddsPrice = *c.OddsPrice
		}

		metrics.RecordCandidate("kept")
		formatted = append(formatted, pick)
	}

	return formatted
}

func selection(c *models.Candidate) string {
	switch c.BetType {
	case models.BetTotal:
		return string(c.TotalSide)
	case models.BetParlay:
		return "parlay"
	default:
		if c.Team != nil {
			return c.Team.CanonicalName
		}
		return ""
	}
}
