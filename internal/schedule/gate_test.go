package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newYorkGate(t *testing.T) *Gate {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	return NewGate(loc, TriggerTime{Hour: 10, Minute: 0}, nil)
}

func eastern(t *testing.T, value string) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	ts, err := time.ParseInLocation("2006-01-02 15:04", value, loc)
	require.NoError(t, err)
	return ts
}

func TestGate_FirstEverRun(t *testing.T) {
	g := newYorkGate(t)

	// A zero marker generates regardless of the clock
	assert.True(t, g.ShouldGenerate(time.Time{}, eastern(t, "2026-08-31 03:00")))
	assert.True(t, g.ShouldGenerate(time.Time{}, eastern(t, "2026-08-31 23:59")))
}

func TestGate_SameDayNeverRegenerates(t *testing.T) {
	g := newYorkGate(t)
	last := eastern(t, "2026-08-31 10:05")

	assert.False(t, g.ShouldGenerate(last, eastern(t, "2026-08-31 10:06")))
	assert.False(t, g.ShouldGenerate(last, eastern(t, "2026-08-31 23:59")))
}

func TestGate_NextDayBeforeTrigger(t *testing.T) {
	g := newYorkGate(t)
	last := eastern(t, "2026-08-30 10:05")

	assert.False(t, g.ShouldGenerate(last, eastern(t, "2026-08-31 09:59")))
}

func TestGate_NextDayAtAndAfterTrigger(t *testing.T) {
	g := newYorkGate(t)
	last := eastern(t, "2026-08-30 10:05")

	assert.True(t, g.ShouldGenerate(last, eastern(t, "2026-08-31 10:00")), "Exactly the trigger time is due")
	assert.True(t, g.ShouldGenerate(last, eastern(t, "2026-08-31 10:01")))
	assert.True(t, g.ShouldGenerate(last, eastern(t, "2026-08-31 22:00")))
}

func TestGate_MultiDayGap(t *testing.T) {
	g := newYorkGate(t)

	// A worker down for a week generates on the next trigger
	last := eastern(t, "2026-08-24 10:05")
	assert.True(t, g.ShouldGenerate(last, eastern(t, "2026-08-31 10:00")))
	assert.False(t, g.ShouldGenerate(last, eastern(t, "2026-08-31 09:00")))
}

func TestGate_BusinessTimezoneBoundary(t *testing.T) {
	g := newYorkGate(t)

	// 2026-08-31 02:00 UTC is still 2026-08-30 22:00 in New York, so
	// a cycle from the 30th Eastern counts as the same business day
	last := eastern(t, "2026-08-30 10:05")
	utcLateEvening := time.Date(2026, 8, 31, 2, 0, 0, 0, time.UTC)
	assert.False(t, g.ShouldGenerate(last, utcLateEvening))
}

func TestGate_OverrideMovesTriggerEarlier(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	g := NewGate(loc, TriggerTime{Hour: 10, Minute: 0}, map[string]TriggerTime{
		"2026-08-31": {Hour: 7, Minute: 30},
	})

	last := eastern(t, "2026-08-30 10:05")
	assert.True(t, g.ShouldGenerate(last, eastern(t, "2026-08-31 07:30")))
	assert.False(t, g.ShouldGenerate(last, eastern(t, "2026-08-31 07:29")))

	// A day without an override keeps the baseline
	lastPrev := eastern(t, "2026-08-31 08:00")
	assert.False(t, g.ShouldGenerate(lastPrev, eastern(t, "2026-09-01 07:30")))
	assert.True(t, g.ShouldGenerate(lastPrev, eastern(t, "2026-09-01 10:00")))
}

func TestGate_OverrideMovesTriggerLater(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	g := NewGate(loc, TriggerTime{Hour: 10, Minute: 0}, map[string]TriggerTime{
		"2026-08-31": {Hour: 14, Minute: 0},
	})

	last := eastern(t, "2026-08-30 10:05")
	assert.False(t, g.ShouldGenerate(last, eastern(t, "2026-08-31 10:00")))
	assert.True(t, g.ShouldGenerate(last, eastern(t, "2026-08-31 14:00")))
}

func TestGate_PureFunction(t *testing.T) {
	g := newYorkGate(t)
	last := eastern(t, "2026-08-30 10:05")
	now := eastern(t, "2026-08-31 10:00")

	// Same inputs, same answer, no hidden state
	for i := 0; i < 10; i++ {
		assert.True(t, g.ShouldGenerate(last, now))
	}
}

func TestBusinessDate(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 03:00 UTC is 23:00 the prior day in New York
	utc := time.Date(2026, 8, 31, 3, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-08-30", BusinessDate(utc, loc))
	assert.Equal(t, "2026-08-31", BusinessDate(utc, time.UTC))
}

func TestParseOverrides(t *testing.T) {
	overrides := ParseOverrides(map[string]string{
		"2026-08-31": "07:30",
		"2026-09-01": "14:00",
		"2026-09-02": "bogus",
	})

	assert.Equal(t, TriggerTime{Hour: 7, Minute: 30}, overrides["2026-08-31"])
	assert.Equal(t, TriggerTime{Hour: 14, Minute: 0}, overrides["2026-09-01"])
	_, ok := overrides["2026-09-02"]
	assert.False(t, ok, "Malformed clock values are skipped")
}
