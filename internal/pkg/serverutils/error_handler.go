package serverutils

import (
	"errors"
	"fmt"
	"strconv"

	"e261-voice-be/internal/pkg/logger"
	"e261-voice-be/pkg/conversation"

	"github.com/gofiber/fiber/v2"
)

// RetryAfterSeconds is sent with 503 answers caused by the conversational
// backend or the voice provider.
const RetryAfterSeconds = 2

// ErrorHandler maps domain errors to HTTP answers. Install it as
// fiber.Config.ErrorHandler.
func ErrorHandler(log logger.ILogger) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		message := err.Error()

		var fe *fiber.Error
		var ve *ValidationError
		switch {
		case errors.As(err, &ve):
			status = fiber.StatusBadRequest
		case errors.Is(err, conversation.ErrNotFound):
			status = fiber.StatusNotFound
		case errors.Is(err, conversation.ErrInvalidState):
			status = fiber.StatusConflict
		case errors.Is(err, conversation.ErrUpstreamUnavailable):
			status = fiber.StatusServiceUnavailable
			ctx.Set(fiber.HeaderRetryAfter, strconv.Itoa(RetryAfterSeconds))
		case errors.As(err, &fe):
			status = fe.Code
		}

		if status >= fiber.StatusInternalServerError {
			log.Error("HTTP", "Request failed", map[string]interface{}{
				"method": ctx.Method(),
				"path":   ctx.Path(),
				"status": status,
				"error":  err.Error(),
			})
			if status == fiber.StatusInternalServerError {
				message = "internal server error"
			}
		}

		resp := ErrorResponse(status, message)
		if ve != nil {
			resp.Data = ve.Fields
		}
		return ctx.Status(status).JSON(resp)
	}
}

// ErrorHandlerMiddleware turns a panicking handler into a 500 answer.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return ctx.Next()
	}
}
