package service

import (
	"runtime"

	"e261-voice-be/internal/config"
	"e261-voice-be/internal/dto"
	"e261-voice-be/internal/pkg/logger"
	"e261-voice-be/pkg/intake"

	"github.com/gofiber/fiber/v2"
)

// SystemProbes are the runtime facts the health endpoint reports.
type SystemProbes struct {
	NatsConnected func() bool
	LiveSessions  func() int
	LLMEnabled    bool
}

type ISystemService interface {
	Health() *dto.HealthResponse
	DebugEnv() *dto.DebugEnvResponse
	Logs(level string, limit, offset int) (*dto.LogListResponse, error)
	LogById(id string) (*logger.LogEntry, error)
}

type systemService struct {
	cfg     *config.Config
	claims  IClaimService
	voice   IVoiceService
	scripts *intake.ScriptHolder
	probes  SystemProbes
	logs    logger.LogReader
}

func NewSystemService(cfg *config.Config, claims IClaimService, voice IVoiceService, scripts *intake.ScriptHolder, probes SystemProbes, logs logger.LogReader) ISystemService {
	if probes.NatsConnected == nil {
		probes.NatsConnected = func() bool { return false }
	}
	if probes.LiveSessions == nil {
		probes.LiveSessions = func() int { return 0 }
	}
	return &systemService{
		cfg:     cfg,
		claims:  claims,
		voice:   voice,
		scripts: scripts,
		probes:  probes,
		logs:    logs,
	}
}

func (s *systemService) Health() *dto.HealthResponse {
	v := s.cfg.Voice
	return &dto.HealthResponse{
		Status:    "ok",
		Version:   config.Version,
		GoVersion: runtime.Version(),
		Environment: dto.HealthEnvironment{
			ElevenApiConfigured:   v.ElevenLabsAPIKey != "",
			ElevenVoiceConfigured: v.ElevenLabsVoiceID != "",
			ElevenApiKeyLength:    len(v.ElevenLabsAPIKey),
			ElevenVoiceIdLength:   len(v.ElevenLabsVoiceID),
			ZohoEnabled:           s.claims.CRMEnabled(),
			LlmEnabled:            s.probes.LLMEnabled,
			DatabaseConfigured:    s.cfg.Database.Connection != "",
			NatsConnected:         s.probes.NatsConnected(),
			RedisConfigured:       s.cfg.App.RedisURL != "",
			FfmpegAvailable:       s.voice.TranscodeAvailable(),
			FrontendUrl:           s.cfg.App.FrontendURL,
			BackendUrl:            s.cfg.App.BaseURL,
		},
	}
}

func (s *systemService) DebugEnv() *dto.DebugEnvResponse {
	v := s.cfg.Voice
	voiceID := v.ElevenLabsVoiceID
	if voiceID == "" {
		voiceID = "None"
	}
	set := func(val string) string {
		if val != "" {
			return "SET"
		}
		return "NOT_SET"
	}
	return &dto.DebugEnvResponse{
		ElevenApiKeyPresent:  v.ElevenLabsAPIKey != "",
		ElevenApiKeyLength:   len(v.ElevenLabsAPIKey),
		ElevenVoiceIdPresent: v.ElevenLabsVoiceID != "",
		ElevenVoiceIdValue:   voiceID,
		EnvironmentVars: map[string]string{
			"ELEVENLABS_API_KEY":   set(v.ElevenLabsAPIKey),
			"ELEVENLABS_VOICE_ID":  set(v.ElevenLabsVoiceID),
			"ZOHO_REFRESH_TOKEN":   set(s.cfg.Zoho.RefreshToken),
			"DB_CONNECTION_STRING": set(s.cfg.Database.Connection),
			"NATS_URL":             set(s.cfg.App.NatsURL),
			"REDIS_URL":            set(s.cfg.App.RedisURL),
			"SMTP_HOST":            set(s.cfg.SMTP.Host),
			"LLM_PROVIDER":         set(s.cfg.Ai.LLMProvider),
		},
		LiveSessions:   s.probes.LiveSessions(),
		RequiredFields: s.scripts.Load().Required,
	}
}

func (s *systemService) Logs(level string, limit, offset int) (*dto.LogListResponse, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	items, err := s.logs.GetLogs(level, limit, offset)
	if err != nil {
		return nil, err
	}
	return &dto.LogListResponse{Items: items, Limit: limit, Offset: offset}, nil
}

func (s *systemService) LogById(id string) (*logger.LogEntry, error) {
	entry, err := s.logs.GetLogById(id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "log entry not found")
	}
	return entry, nil
}
