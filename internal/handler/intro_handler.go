package handler

import (
	"strings"

	"e261-voice-be/internal/config"
	"e261-voice-be/internal/pkg/logger"
	"e261-voice-be/internal/pkg/serverutils"
	internalWS "e261-voice-be/internal/websocket"
	"e261-voice-be/pkg/intro"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type IntroHandler struct {
	hub       *internalWS.Hub
	cfg       config.IntroConfig
	jwtSecret string
	logger    logger.ILogger
}

func NewIntroHandler(hub *internalWS.Hub, cfg config.IntroConfig, jwtSecret string, log logger.ILogger) *IntroHandler {
	return &IntroHandler{
		hub:       hub,
		cfg:       cfg,
		jwtSecret: jwtSecret,
		logger:    log,
	}
}

func (h *IntroHandler) controllerConfig() intro.Config {
	return intro.Config{
		Origin:                 h.cfg.Origin,
		AllowAnyOriginFallback: h.cfg.AllowAnyOriginFallback,
		Policy:                 intro.TrustOrigins(h.cfg.Origin, h.cfg.TrustedOrigins...),
	}
}

// ServeWs upgrades the connection and runs one intro player on it. The
// peer's Origin header is the origin restricted posts are checked against.
func (h *IntroHandler) ServeWs(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	origin := strings.Clone(c.Get(fiber.HeaderOrigin))

	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("IntroHandler", "Starting intro session", map[string]interface{}{"origin": origin})
		internalWS.ServeIntro(h.hub, conn, origin, h.controllerConfig(), h.cfg.NextURL, h.logger)
		h.logger.Info("IntroHandler", "Intro session ended", map[string]interface{}{"origin": origin})
	})(c)
}

// SkipAll moves every connected player past the intro.
func (h *IntroHandler) SkipAll(c *fiber.Ctx) error {
	n := h.hub.SkipAll(c.UserContext())
	h.logger.Info("IntroHandler", "Skipped all intro players", map[string]interface{}{"local": n})
	return c.JSON(serverutils.SuccessResponse("Intro skipped", fiber.Map{"skipped": n}))
}

func (h *IntroHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/ws/intro", h.ServeWs)

	admin := router.Group("/admin/intro")
	admin.Use(serverutils.JwtMiddleware(h.jwtSecret))
	admin.Post("/skip-all", h.SkipAll)
}
