// Package schedule decides when a generation cycle should run and
// persists the last-generation marker across restarts.
package schedule

import (
	"time"
)

// TriggerTime is a daily wall-clock trigger in the business timezone
type TriggerTime struct {
	Hour   int
	Minute int
}

// Gate is a pure admission check for generation cycles. One-off
// trigger-time changes for specific dates live in Overrides, keyed by
// business-date string; the table is data, not code branches.
type Gate struct {
	Location  *time.Location
	Trigger   TriggerTime
	Overrides map[string]TriggerTime
}

// NewGate creates a gate with the baseline daily trigger
func NewGate(loc *time.Location, trigger TriggerTime, overrides map[string]TriggerTime) *Gate {
	if overrides == nil {
		overrides = map[string]TriggerTime{}
	}
	return &Gate{Location: loc, Trigger: trigger, Overrides: overrides}
}

// ShouldGenerate reports whether a new generation cycle is due.
// Generate when no cycle has ever completed, or when now is on a later
// business-timezone calendar day than the last cycle and at or past
// that day's trigger time.
func (g *Gate) ShouldGenerate(lastGeneration, now time.Time) bool {
	if lastGeneration.IsZero() {
		return true
	}

	nowLocal := now.In(g.Location)
	lastLocal := lastGeneration.In(g.Location)

	if sameCalendarDay(nowLocal, lastLocal) {
		return false
	}

	trigger := g.triggerFor(nowLocal)
	triggerAt := time.Date(
		nowLocal.Year(), nowLocal.Month(), nowLocal.Day(),
		trigger.Hour, trigger.Minute, 0, 0, g.Location,
	)

	return !nowLocal.Before(triggerAt)
}

// triggerFor returns the trigger time for a business-timezone day,
// consulting the override table first
func (g *Gate) triggerFor(nowLocal time.Time) TriggerTime {
	if override, ok := g.Overrides[nowLocal.Format("2006-01-02")]; ok {
		return override
	}
	return g.Trigger
}

func sameCalendarDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// BusinessDate returns the canonical calendar date string (YYYY-MM-DD)
// for an instant, in the business timezone
func BusinessDate(now time.Time, loc *time.Location) string {
	return now.In(loc).Format("2006-01-02")
}

// ParseOverrides converts a date -> "HH:MM" map (as produced by the
// config layer) into a trigger override table
func ParseOverrides(raw map[string]string) map[string]TriggerTime {
	overrides := make(map[string]TriggerTime, len(raw))
	for date, clock := range raw {
		t, err := time.Parse("15:04", clock)
		if err != nil {
			continue
		}
		overrides[date] = TriggerTime{Hour: t.Hour(), Minute: t.Minute()}
	}
	return overrides
}
