package controller

import (
	"e261-voice-be/internal/dto"
	"e261-voice-be/internal/pkg/serverutils"
	"e261-voice-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IClaimController interface {
	RegisterRoutes(r fiber.Router)
	Review(ctx *fiber.Ctx) error
	Submit(ctx *fiber.Ctx) error
	Estimate(ctx *fiber.Ctx) error
}

type claimController struct {
	claimService service.IClaimService
}

func NewClaimController(claimService service.IClaimService) IClaimController {
	return &claimController{
		claimService: claimService,
	}
}

func (c *claimController) RegisterRoutes(r fiber.Router) {
	r.Get("/claim-review/:session_id", c.Review)
	r.Post("/submit-claim", c.Submit)
	r.Post("/claim-submit-final", c.Submit)
	r.Post("/estimate-compensation", c.Estimate)
}

func (c *claimController) Review(ctx *fiber.Ctx) error {
	res, err := c.claimService.Review(ctx.UserContext(), ctx.Params("session_id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Claim ready for review", res))
}

func (c *claimController) Submit(ctx *fiber.Ctx) error {
	var req dto.SubmitClaimRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.claimService.Submit(ctx.UserContext(), req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse(res.Message, res))
}

func (c *claimController) Estimate(ctx *fiber.Ctx) error {
	var req dto.EstimateCompensationRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.claimService.Estimate(ctx.UserContext(), req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success estimate compensation", res))
}
