package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		OddsAPIKey:          "test-key",
		DatabasePassword:    "secret",
		BusinessTimezone:    "America/New_York",
		ConfidenceThreshold: 0.75,
		TriggerHour:         10,
		TriggerMinute:       0,
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("ODDS_API_KEY", "env-key")
	t.Setenv("DATABASE_PASSWORD", "env-pass")
	t.Setenv("TRIGGER_HOUR", "7")
	t.Setenv("CONFIDENCE_THRESHOLD", "0.8")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.OddsAPIKey)
	assert.Equal(t, 7, cfg.TriggerHour)
	assert.Equal(t, 0.8, cfg.ConfidenceThreshold)

	// Defaults
	assert.Equal(t, "baseball_mlb", cfg.SportKey)
	assert.Equal(t, "America/New_York", cfg.BusinessTimezone)
	assert.Equal(t, 0, cfg.TriggerMinute)
	assert.Equal(t, 100, cfg.CacheCapacity)
	assert.Equal(t, 600*time.Second, cfg.CacheTTL)
	assert.Equal(t, 2*time.Second, cfg.InterGameDelay)
	assert.Equal(t, "*/5 * * * *", cfg.GateCheckCron)
}

func TestValidate_ThresholdBounds(t *testing.T) {
	cfg := validConfig()
	cfg.ConfidenceThreshold = 1.5
	assert.Error(t, cfg.Validate())

	cfg.ConfidenceThreshold = -0.1
	assert.Error(t, cfg.Validate())

	cfg.ConfidenceThreshold = 1.0
	assert.NoError(t, cfg.Validate())
}

func TestValidate_TriggerTime(t *testing.T) {
	cfg := validConfig()
	cfg.TriggerHour = 24
	assert.Error(t, cfg.Validate())

	cfg.TriggerHour = 23
	cfg.TriggerMinute = 60
	assert.Error(t, cfg.Validate())

	cfg.TriggerMinute = 59
	assert.NoError(t, cfg.Validate())
}

func TestValidate_Timezone(t *testing.T) {
	cfg := validConfig()
	cfg.BusinessTimezone = "Nowhere/Specific"
	assert.Error(t, cfg.Validate())
}

func TestLocation(t *testing.T) {
	cfg := validConfig()
	loc := cfg.Location()
	require.NotNil(t, loc)
	assert.Equal(t, "America/New_York", loc.String())
}

func TestParseTriggerOverrides(t *testing.T) {
	cfg := validConfig()
	cfg.TriggerOverrides = "2026-07-04=09:00, 2026-10-01=14:30"

	overrides, err := cfg.ParseTriggerOverrides()
	require.NoError(t, err)

	assert.Equal(t, "09:00", overrides["2026-07-04"])
	assert.Equal(t, "14:30", overrides["2026-10-01"])
}

func TestParseTriggerOverrides_Empty(t *testing.T) {
	cfg := validConfig()

	overrides, err := cfg.ParseTriggerOverrides()
	require.NoError(t, err)
	assert.Empty(t, overrides)

	cfg.TriggerOverrides = "  ,  "
	overrides, err = cfg.ParseTriggerOverrides()
	require.NoError(t, err)
	assert.Empty(t, overrides)
}

func TestParseTriggerOverrides_Malformed(t *testing.T) {
	cases := []string{
		"not-a-pair",
		"2026-07-04=25:00",
		"2026-07-04=nine",
		"July 4=09:00",
	}

	for _, raw := range cases {
		cfg := validConfig()
		cfg.TriggerOverrides = raw
		_, err := cfg.ParseTriggerOverrides()
		assert.Error(t, err, "ParseTriggerOverrides(%q)", raw)
	}
}

func TestRedisAddr(t *testing.T) {
	cfg := validConfig()
	cfg.RedisHost = "redis.internal"
	cfg.RedisPort = 6380
	assert.Equal(t, "redis.internal:6380", cfg.RedisAddr())
}
