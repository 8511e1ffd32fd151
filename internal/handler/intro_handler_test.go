package handler

import (
	"net/http/httptest"
	"testing"

	"e261-voice-be/internal/config"
	"e261-voice-be/internal/pkg/logger"
	internalWS "e261-voice-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntroRoutes(t *testing.T) {
	log := logger.NewNopLogger()
	h := NewIntroHandler(internalWS.NewHub(nil, log), config.IntroConfig{Origin: "https://claims.example.com", NextURL: "/claim"}, "secret", log)
	app := fiber.New()
	h.RegisterRoutes(app)

	resp, err := app.Test(httptest.NewRequest("GET", "/ws/intro", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("POST", "/admin/intro/skip-all", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
