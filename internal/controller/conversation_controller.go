package controller

import (
	"io"
	"strings"

	"e261-voice-be/internal/dto"
	"e261-voice-be/internal/pkg/serverutils"
	"e261-voice-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IConversationController interface {
	RegisterRoutes(r fiber.Router)
	Start(ctx *fiber.Ctx) error
	Respond(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
}

type conversationController struct {
	conversationService service.IConversationService
}

func NewConversationController(conversationService service.IConversationService) IConversationController {
	return &conversationController{
		conversationService: conversationService,
	}
}

func (c *conversationController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/conversation")
	h.Post("/start", c.Start)
	h.Post("/respond", c.Respond)
	h.Get("/:session_id", c.Show)
}

func (c *conversationController) Start(ctx *fiber.Ctx) error {
	res, err := c.conversationService.Start(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Conversation started", res))
}

// Respond accepts either a JSON body with text or a multipart recording in
// the "audio" field. The session id may be given as a query parameter.
func (c *conversationController) Respond(ctx *fiber.Ctx) error {
	sessionID := ctx.Query("session_id")

	if strings.HasPrefix(string(ctx.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		if sessionID == "" {
			sessionID = ctx.FormValue("session_id")
		}
		if sessionID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "missing session_id")
		}
		audio, filename, err := readFormFile(ctx, "audio", 0)
		if err != nil {
			return err
		}
		res, err := c.conversationService.RespondAudio(ctx.UserContext(), sessionID, audio, filename)
		if err != nil {
			return err
		}
		return ctx.JSON(serverutils.SuccessResponse("Response processed", res))
	}

	var req dto.RespondRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if sessionID != "" {
		req.SessionId = sessionID
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.conversationService.Respond(ctx.UserContext(), req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Response processed", res))
}

func (c *conversationController) Show(ctx *fiber.Ctx) error {
	res, err := c.conversationService.Get(ctx.UserContext(), ctx.Params("session_id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show conversation", res))
}

// readFormFile returns the content and name of an uploaded file. A positive
// maxSize rejects larger files before they are read.
func readFormFile(ctx *fiber.Ctx, field string, maxSize int64) ([]byte, string, error) {
	fh, err := ctx.FormFile(field)
	if err != nil {
		return nil, "", fiber.NewError(fiber.StatusBadRequest, "missing "+field+" file")
	}
	if maxSize > 0 && fh.Size > maxSize {
		return nil, "", fiber.NewError(fiber.StatusBadRequest, "File too large. Maximum size: 10MB")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, "", err
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	return content, fh.Filename, err
}
