package service

import (
	"context"
	"fmt"
	"net/url"

	"e261-voice-be/internal/dto"
	"e261-voice-be/internal/pkg/logger"
	"e261-voice-be/pkg/conversation"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("e261-voice-be/internal/service")

type IConversationService interface {
	Start(ctx context.Context) (*dto.StartConversationResponse, error)
	Respond(ctx context.Context, req dto.RespondRequest) (*dto.RespondResponse, error)
	RespondAudio(ctx context.Context, sessionID string, audio []byte, filename string) (*dto.RespondResponse, error)
	Get(ctx context.Context, sessionID string) (*dto.SessionResponse, error)
}

type conversationService struct {
	manager     *conversation.Manager
	voice       IVoiceService
	frontendURL string
	logger      logger.ILogger
}

func NewConversationService(manager *conversation.Manager, voice IVoiceService, frontendURL string, log logger.ILogger) IConversationService {
	return &conversationService{
		manager:     manager,
		voice:       voice,
		frontendURL: frontendURL,
		logger:      log,
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *conversationService) Start(ctx context.Context) (res *dto.StartConversationResponse, err error) {
	ctx, span := tracer.Start(ctx, "conversation.start")
	defer func() { endSpan(span, err) }()

	session, reply, err := s.manager.Start(ctx)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("session.id", session.ID))

	return &dto.StartConversationResponse{
		SessionId:      session.ID,
		Prompt:         reply.Text,
		SilenceTimeout: reply.SilenceTimeout.Milliseconds(),
	}, nil
}

func (s *conversationService) Respond(ctx context.Context, req dto.RespondRequest) (res *dto.RespondResponse, err error) {
	ctx, span := tracer.Start(ctx, "conversation.respond", trace.WithAttributes(attribute.String("session.id", req.SessionId)))
	defer func() { endSpan(span, err) }()

	if req.SessionId == "" {
		return nil, fiber.NewError(fiber.StatusBadRequest, "missing session_id")
	}

	out, err := s.manager.Respond(ctx, req.SessionId, req.Text)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("session.status", string(out.Status)))

	res = &dto.RespondResponse{
		SessionId:      out.SessionID,
		NextPrompt:     out.Reply,
		Collected:      out.Fields,
		Status:         string(out.Status),
		Pending:        out.Pending,
		Done:           out.Status == conversation.StatusComplete,
		SilenceTimeout: out.SilenceTimeout.Milliseconds(),
	}
	if res.Done && s.frontendURL != "" {
		res.RedirectUrl = fmt.Sprintf("%s/claim-review.html?session_id=%s", s.frontendURL, url.QueryEscape(out.SessionID))
	}
	return res, nil
}

// RespondAudio transcribes a recording and feeds the text into the
// conversation. A failed transcription leaves the session untouched.
func (s *conversationService) RespondAudio(ctx context.Context, sessionID string, audio []byte, filename string) (*dto.RespondResponse, error) {
	text, err := s.voice.Transcribe(ctx, audio, filename)
	if err != nil {
		return nil, err
	}
	res, err := s.Respond(ctx, dto.RespondRequest{SessionId: sessionID, Text: text})
	if err != nil {
		return nil, err
	}
	res.Transcript = text
	return res, nil
}

func (s *conversationService) Get(ctx context.Context, sessionID string) (*dto.SessionResponse, error) {
	session, err := s.manager.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &dto.SessionResponse{
		SessionId: session.ID,
		Status:    string(session.Status),
		Collected: session.Fields,
		Turns:     len(session.Turns),
	}, nil
}
