package controller

import (
	"e261-voice-be/internal/pkg/serverutils"
	"e261-voice-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IDocumentController interface {
	RegisterRoutes(r fiber.Router)
	Upload(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type documentController struct {
	documentService service.IDocumentService
}

func NewDocumentController(documentService service.IDocumentService) IDocumentController {
	return &documentController{
		documentService: documentService,
	}
}

func (c *documentController) RegisterRoutes(r fiber.Router) {
	r.Post("/upload-document/:session_id", c.Upload)
	r.Get("/documents/:session_id", c.List)
	r.Delete("/document/:session_id/:filename", c.Delete)
}

func (c *documentController) Upload(ctx *fiber.Ctx) error {
	content, filename, err := readFormFile(ctx, "file", service.MaxDocumentSize)
	if err != nil {
		return err
	}

	res, err := c.documentService.Upload(ctx.UserContext(), ctx.Params("session_id"), ctx.FormValue("document_type"), filename, content)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse(res.Message, res))
}

func (c *documentController) List(ctx *fiber.Ctx) error {
	res, err := c.documentService.List(ctx.UserContext(), ctx.Params("session_id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list documents", res))
}

func (c *documentController) Delete(ctx *fiber.Ctx) error {
	if err := c.documentService.Delete(ctx.UserContext(), ctx.Params("session_id"), ctx.Params("filename")); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Document deleted", nil))
}
