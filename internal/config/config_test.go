package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("FRONTEND_URL", "https://claims.example.com")
	t.Setenv("INTRO_ORIGIN", "https://claims.example.com")

	cfg := Load()
	assert.Equal(t, "https://claims.example.com", cfg.App.CorsAllowedOrigins)
	assert.True(t, cfg.Intro.AllowAnyOriginFallback)
	assert.Equal(t, time.Hour, cfg.Conversation.SessionTTL)
	assert.Equal(t, "uploads", cfg.App.UploadDir)
	assert.False(t, cfg.IsProduction())
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("X_DURATION", "90s")
	t.Setenv("X_SECONDS", "45")
	t.Setenv("X_BAD", "soon")
	t.Setenv("X_BOOL", "false")
	t.Setenv("X_LIST", " https://a.example, ,https://b.example ")

	assert.Equal(t, 90*time.Second, getEnvAsDuration("X_DURATION", time.Second))
	assert.Equal(t, 45*time.Second, getEnvAsDuration("X_SECONDS", time.Second))
	assert.Equal(t, time.Second, getEnvAsDuration("X_BAD", time.Second))
	assert.False(t, getEnvAsBool("X_BOOL", true))
	assert.True(t, getEnvAsBool("X_MISSING", true))
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, getEnvAsList("X_LIST", nil))
	assert.Nil(t, getEnvAsList("X_MISSING", nil))
}
