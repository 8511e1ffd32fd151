package controller

import (
	"time"

	"e261-voice-be/internal/dto"
	"e261-voice-be/internal/pkg/serverutils"
	"e261-voice-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAdminController interface {
	RegisterRoutes(r fiber.Router)
	DebugEnv(ctx *fiber.Ctx) error
	TriggerFirstPrompt(ctx *fiber.Ctx) error
	GetClaims(ctx *fiber.Ctx) error
	GetLogs(ctx *fiber.Ctx) error
	GetLogDetail(ctx *fiber.Ctx) error
}

type adminController struct {
	systemService service.ISystemService
	claimService  service.IClaimService
	voiceService  service.IVoiceService
	jwtSecret     string
}

func NewAdminController(systemService service.ISystemService, claimService service.IClaimService, voiceService service.IVoiceService, jwtSecret string) IAdminController {
	return &adminController{
		systemService: systemService,
		claimService:  claimService,
		voiceService:  voiceService,
		jwtSecret:     jwtSecret,
	}
}

func (c *adminController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/admin")
	h.Use(serverutils.JwtMiddleware(c.jwtSecret))

	h.Get("/debug-env", c.DebugEnv)
	h.Post("/trigger-first", c.TriggerFirstPrompt)

	// Claims
	h.Get("/claims", c.GetClaims)

	// Logs
	h.Get("/logs", c.GetLogs)
	h.Get("/logs/:id", c.GetLogDetail)
}

func (c *adminController) DebugEnv(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Success get environment", c.systemService.DebugEnv()))
}

// TriggerFirstPrompt regenerates the cached greeting audio.
func (c *adminController) TriggerFirstPrompt(ctx *fiber.Ctx) error {
	audio := c.voiceService.RegenerateFirstPrompt(ctx.UserContext())
	return ctx.JSON(serverutils.SuccessResponse("First prompt regenerated", fiber.Map{
		"bytes":      len(audio.Bytes),
		"media_type": audio.MediaType,
	}))
}

func (c *adminController) GetClaims(ctx *fiber.Ctx) error {
	var q dto.ClaimListQuery
	if err := ctx.QueryParser(&q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if raw := ctx.Query("since"); raw != "" {
		since, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "since must be YYYY-MM-DD")
		}
		q.Since = since
	}
	res, err := c.claimService.ListSubmissions(ctx.UserContext(), q)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get claims", res))
}

func (c *adminController) GetLogs(ctx *fiber.Ctx) error {
	res, err := c.systemService.Logs(ctx.Query("level"), ctx.QueryInt("limit", 100), ctx.QueryInt("offset", 0))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get logs", res))
}

func (c *adminController) GetLogDetail(ctx *fiber.Ctx) error {
	res, err := c.systemService.LogById(ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get log detail", res))
}
