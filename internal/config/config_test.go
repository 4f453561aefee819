package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "THINK_MIN_DELAY", "THINK_MAX_DELAY", "NATS_URL", "REDIS_ADDR", "REDIS_DB", "LOG_LEVEL", "HEARTBEAT_INTERVAL"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 15*time.Second, cfg.Server.HeartbeatInterval)
	assert.Equal(t, time.Second, cfg.Assistant.MinDelay)
	assert.Equal(t, 3*time.Second, cfg.Assistant.MaxDelay)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Feed.NATSEnabled())
	assert.False(t, cfg.Feed.RedisEnabled())
	assert.Equal(t, "threatdesk.alerts", cfg.Feed.NATSSubject)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "127.0.0.1:9000")
	t.Setenv("THINK_MIN_DELAY", "0s")
	t.Setenv("THINK_MAX_DELAY", "250ms")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("THREAT_SEED_FILE", " threats.yaml ")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, time.Duration(0), cfg.Assistant.MinDelay)
	assert.Equal(t, 250*time.Millisecond, cfg.Assistant.MaxDelay)
	assert.True(t, cfg.Feed.RedisEnabled())
	assert.Equal(t, 2, cfg.Feed.RedisDB)
	assert.Equal(t, "threats.yaml", cfg.Feed.SeedFile)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"PORT":            "80 80",
		"THINK_MIN_DELAY": "soon",
		"REDIS_DB":        "zero",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadRejectsInvertedDelayRange(t *testing.T) {
	t.Setenv("THINK_MIN_DELAY", "5s")
	t.Setenv("THINK_MAX_DELAY", "1s")

	_, err := Load()
	assert.Error(t, err)
}
