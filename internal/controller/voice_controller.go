package controller

import (
	"e261-voice-be/internal/dto"
	"e261-voice-be/internal/pkg/serverutils"
	"e261-voice-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IVoiceController interface {
	RegisterRoutes(r fiber.Router)
	SpeechToText(ctx *fiber.Ctx) error
	TextToSpeech(ctx *fiber.Ctx) error
	PromptAudio(ctx *fiber.Ctx) error
	FirstPrompt(ctx *fiber.Ctx) error
}

type voiceController struct {
	voiceService service.IVoiceService
}

func NewVoiceController(voiceService service.IVoiceService) IVoiceController {
	return &voiceController{
		voiceService: voiceService,
	}
}

func (c *voiceController) RegisterRoutes(r fiber.Router) {
	r.Post("/stt", c.SpeechToText)
	r.Post("/tts", c.TextToSpeech)
	r.Get("/tts-prompt/:field", c.PromptAudio)
	r.Get("/first-prompt", c.FirstPrompt)
}

func sendAudio(ctx *fiber.Ctx, audio *dto.Audio) error {
	ctx.Set(fiber.HeaderContentType, audio.MediaType)
	ctx.Set(fiber.HeaderCacheControl, "no-store")
	return ctx.Send(audio.Bytes)
}

func (c *voiceController) SpeechToText(ctx *fiber.Ctx) error {
	audio, filename, err := readFormFile(ctx, "audio", 0)
	if err != nil {
		return err
	}

	text, err := c.voiceService.Transcribe(ctx.UserContext(), audio, filename)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success transcribe audio", dto.TranscriptionResponse{Text: text}))
}

func (c *voiceController) TextToSpeech(ctx *fiber.Ctx) error {
	var req dto.TTSRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if req.Field != "" {
		audio, err := c.voiceService.PromptAudio(ctx.UserContext(), req.Field)
		if err != nil {
			return err
		}
		return sendAudio(ctx, audio)
	}
	if req.Text == "" {
		return fiber.NewError(fiber.StatusBadRequest, "text or field is required")
	}
	return sendAudio(ctx, c.voiceService.Synthesize(ctx.UserContext(), req.Text))
}

func (c *voiceController) PromptAudio(ctx *fiber.Ctx) error {
	audio, err := c.voiceService.PromptAudio(ctx.UserContext(), ctx.Params("field"))
	if err != nil {
		return err
	}
	return sendAudio(ctx, audio)
}

func (c *voiceController) FirstPrompt(ctx *fiber.Ctx) error {
	return sendAudio(ctx, c.voiceService.FirstPrompt(ctx.UserContext()))
}
