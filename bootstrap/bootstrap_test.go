package bootstrap

import (
	"testing"

	"rightsdesk-backend/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestConfigureLogging(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	ConfigureLogging(&config.Config{Env: "production", LogLevel: "DEBUG"})
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())

	ConfigureLogging(&config.Config{Env: "production", LogLevel: "loud"})
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
