package models

// SourceSystem identifies one of the three external data providers
type SourceSystem string

const (
	SourceOdds       SourceSystem = "odds"
	SourceStatistics SourceSystem = "statistics"
	SourceContext    SourceSystem = "context"
)

// TeamRef is a canonical team identity resolved against one source system.
// Immutable once resolved.
type TeamRef struct {
	SourceSystem  SourceSystem
	SourceID      string
	CanonicalName string
	Abbreviation  string
}

// PlayerRef is a canonical player identity resolved against one source system
type PlayerRef struct {
	SourceSystem  SourceSystem
	SourceID      string
	CanonicalName string
	TeamID        string
}
