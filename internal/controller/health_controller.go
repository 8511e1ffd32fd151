package controller

import (
	"e261-voice-be/internal/pkg/serverutils"
	"e261-voice-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IHealthController interface {
	RegisterRoutes(r fiber.Router)
	Health(ctx *fiber.Ctx) error
}

type healthController struct {
	systemService service.ISystemService
}

func NewHealthController(systemService service.ISystemService) IHealthController {
	return &healthController{systemService: systemService}
}

func (c *healthController) RegisterRoutes(r fiber.Router) {
	r.Get("/health", c.Health)
}

func (c *healthController) Health(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("ok", c.systemService.Health()))
}
