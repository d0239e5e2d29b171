package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "file::memory:")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("EMAIL_RATE_PER_SECOND", "2.5")
	t.Setenv("SMARTLINK_BASE_URL", "https://lnk.example.com/")
	t.Setenv("SENDINBLUE_API_KEY", "legacy-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 2.5, cfg.EmailRatePerSecond)
	assert.Equal(t, "https://lnk.example.com", cfg.SmartLinkBaseURL)
	assert.Equal(t, "legacy-key", cfg.BrevoAPIKey)
	assert.False(t, cfg.IsProduction())
}

func TestValidate(t *testing.T) {
	cfg := &Config{DBDriver: "postgres"}
	assert.Error(t, cfg.Validate())

	cfg.DatabaseURL = "postgres://x"
	assert.NoError(t, cfg.Validate())

	cfg.Env = "production"
	cfg.SessionSecret = "short"
	assert.Error(t, cfg.Validate())

	cfg.SessionSecret = "0123456789abcdef0123456789abcdef"
	assert.NoError(t, cfg.Validate())

	cfg.DBDriver = "oracle"
	assert.Error(t, cfg.Validate())
}
