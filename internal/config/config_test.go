package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("LOCK_TIMEOUT", "")
	t.Setenv("REQUEST_TRANSITIONS", "")
	t.Setenv("KAFKA_BROKERS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.LockTimeout)
	assert.Equal(t, TransitionsStrict, cfg.RequestTransitions)
	assert.Equal(t, 10, cfg.DefaultThreshold)
	assert.Contains(t, cfg.DatabaseURL, "sslmode=disable")
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LOCK_TIMEOUT", "250ms")
	t.Setenv("REQUEST_TRANSITIONS", "LEGACY")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("APP_ENV", "production")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, cfg.LockTimeout)
	assert.Equal(t, TransitionsLegacy, cfg.RequestTransitions)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.IsProduction())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"LOCK_TIMEOUT":        "soon",
		"REQUEST_TRANSITIONS": "loose",
		"DB_MAX_OPEN_CONNS":   "many",
		"DEFAULT_THRESHOLD":   "-1",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}
