package identity

import "strings"

type teamCode struct {
	name string
	code string
}

// teamCodes maps full team names to their short display codes.
// Kept as an ordered list so substring fallback always takes the first
// qualifying entry; lookups are case-insensitive.
var teamCodes = []teamCode{
	{"arizona diamondbacks", "ARI"},
	{"atlanta braves", "ATL"},
	{"baltimore orioles", "BAL"},
	{"boston red sox", "BOS"},
	{"chicago cubs", "CHC"},
	{"chicago white sox", "CWS"},
	{"cincinnati reds", "CIN"},
	{"cleveland guardians", "CLE"},
	{"colorado rockies", "COL"},
	{"detroit tigers", "DET"},
	{"houston astros", "HOU"},
	{"kansas city royals", "KC"},
	{"los angeles angels", "LAA"},
	{"los angeles dodgers", "LAD"},
	{"miami marlins", "MIA"},
	{"milwaukee brewers", "MIL"},
	{"minnesota twins", "MIN"},
	{"new york mets", "NYM"},
	{"new york yankees", "NYY"},
	{"oakland athletics", "OAK"},
	{"philadelphia phillies", "PHI"},
	{"pittsburgh pirates", "PIT"},
	{"san diego padres", "SD"},
	{"san francisco giants", "SF"},
	{"seattle mariners", "SEA"},
	{"st. louis cardinals", "STL"},
	{"tampa bay rays", "TB"},
	{"texas rangers", "TEX"},
	{"toronto blue jays", "TOR"},
	{"washington nationals", "WSH"},
}

// Abbreviate returns the short display code for a team name.
// Exact match first, then substring match in either direction; names
// absent from the table abbreviate to their first three characters,
// uppercased. Pure function, stable across calls.
func Abbreviate(name string) string {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return ""
	}

	for _, tc := range teamCodes {
		if tc.name == needle {
			return tc.code
		}
	}

	// Substring fallback handles short forms like "LA Dodgers" or
	// "Yankees". First qualifying entry wins.
	for _, tc := range teamCodes {
		if strings.Contains(tc.name, needle) || strings.Contains(needle, tc.name) {
			return tc.code
		}
	}

	runes := []rune(needle)
	if len(runes) > 3 {
		runes = runes[:3]
	}
	return strings.ToUpper(string(runes))
}
