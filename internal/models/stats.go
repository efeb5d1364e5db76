package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Stat value sentinels. Downstream formatting never sees an absent field;
// unknown values render as one of these.
const (
	StatZero        = "0"
	StatZeroDecimal = "0.0"
	StatUnavailable = "N/A"
)

// StatBlock is a flat mapping of stat name to a formatted value.
// Every key placed in a block is guaranteed non-empty; missing upstream
// values are stored as the appropriate sentinel.
type StatBlock map[string]string

// Get returns the value for a stat name, or the N/A sentinel when the
// block never recorded it
func (s StatBlock) Get(name string) string {
	if s == nil {
		return StatUnavailable
	}
	if v, ok := s[name]; ok && v != "" {
		return v
	}
	return StatUnavailable
}

// Clone returns an independent copy of the block. Callers that reformat
// values in place must clone first; shared blocks (cached responses)
// stay read-only.
func (s StatBlock) Clone() StatBlock {
	if s == nil {
		return nil
	}
	out := make(StatBlock, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// SetDefault stores the sentinel for name unless a value is already present
func (s StatBlock) SetDefault(name, sentinel string) {
	if _, ok := s[name]; !ok {
		s[name] = sentinel
	}
}

// FormatERA normalizes an upstream ERA value to a two-decimal string.
// Placeholder values the statistics provider emits before a pitcher has
// recorded an out ("-.--", "-", "") become N/A, never NaN.
func FormatERA(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "-" || raw == "-.--" || raw == "--" {
		return StatUnavailable
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return StatUnavailable
	}
	return fmt.Sprintf("%.2f", f)
}

// FormatAverage normalizes a batting average to the conventional
// three-decimal, no-leading-zero form (".302")
func FormatAverage(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "-" || raw == ".---" {
		return StatUnavailable
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return StatUnavailable
	}
	formatted := fmt.Sprintf("%.3f", f)
	return strings.TrimPrefix(formatted, "0")
}

// PitcherProfile carries a starting pitcher's identity and season stats
type PitcherProfile struct {
	ID          string
	FullName    string
	Team        TeamRef
	SeasonStats StatBlock
}

// PlayerProfile carries a position player's identity and season stats
type PlayerProfile struct {
	ID          string
	FullName    string
	Position    string
	Team        TeamRef
	SeasonStats StatBlock
}
