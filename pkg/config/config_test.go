package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"GEMINI_API_KEY", "DATABASE_URL", "AI_TIMEOUT", "LEDGER_TIMEZONE",
		"POSTGRES_HOST", "POSTGRES_PORT", "POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DB", "POSTGRES_SSLMODE",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.AIEnabled())
	assert.Equal(t, 10*time.Second, cfg.Categorization.AITimeout)
	assert.Equal(t, "Asia/Singapore", cfg.Location.String())
	assert.Equal(t, "host=localhost port=5432 user=postgres password=postgres dbname=ledger sslmode=disable", cfg.Database.DSN())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("DATABASE_URL", "postgres://ledger@db:5432/ledger")
	t.Setenv("AI_TIMEOUT", "2s")
	t.Setenv("AI_REQUESTS_PER_SECOND", "0.5")
	t.Setenv("CURRENCY", "usd")
	t.Setenv("METRICS_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.AIEnabled())
	assert.Equal(t, "postgres://ledger@db:5432/ledger", cfg.Database.DSN())
	assert.Equal(t, 2*time.Second, cfg.Categorization.AITimeout)
	assert.Equal(t, 0.5, cfg.Categorization.AIRequestsPerSecond)
	assert.Equal(t, "USD", cfg.Alerts.Currency)
	assert.False(t, cfg.Observability.MetricsEnabled)
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("timezone", func(t *testing.T) {
		t.Setenv("LEDGER_TIMEZONE", "Mars/Olympus")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("timeout", func(t *testing.T) {
		t.Setenv("AI_TIMEOUT", "-1s")
		_, err := Load()
		assert.Error(t, err)
	})
}
