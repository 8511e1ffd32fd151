package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"e261-voice-be/internal/dto"
	"e261-voice-be/internal/pkg/logger"
	"e261-voice-be/pkg/audiocache"
	"e261-voice-be/pkg/conversation"
	"e261-voice-be/pkg/intake"
	"e261-voice-be/pkg/voice"

	"github.com/gofiber/fiber/v2"
)

const firstPromptKey = "__first_prompt__"

var ErrPromptNotFound = fiber.NewError(fiber.StatusNotFound, "prompt not found")

// SpeechProvider is the hosted speech backend.
type SpeechProvider interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
	Synthesize(ctx context.Context, text string) ([]byte, string, error)
}

type IVoiceService interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
	// Synthesize never fails: when the backend is unavailable a short
	// silence is returned so the client can carry on with text.
	Synthesize(ctx context.Context, text string) *dto.Audio
	PromptAudio(ctx context.Context, field string) (*dto.Audio, error)
	FirstPrompt(ctx context.Context) *dto.Audio
	RegenerateFirstPrompt(ctx context.Context) *dto.Audio
	TranscodeAvailable() bool
}

type voiceService struct {
	speech     SpeechProvider
	transcoder *voice.Transcoder
	cache      audiocache.Cache
	scripts    *intake.ScriptHolder
	logger     logger.ILogger
}

func NewVoiceService(speech SpeechProvider, transcoder *voice.Transcoder, cache audiocache.Cache, scripts *intake.ScriptHolder, log logger.ILogger) IVoiceService {
	return &voiceService{
		speech:     speech,
		transcoder: transcoder,
		cache:      cache,
		scripts:    scripts,
		logger:     log,
	}
}

func (s *voiceService) TranscodeAvailable() bool {
	return s.transcoder != nil
}

func (s *voiceService) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	if len(audio) == 0 {
		return "", fiber.NewError(fiber.StatusBadRequest, "empty audio file")
	}
	if filename == "" {
		filename = "audio.wav"
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext != ".wav" && ext != ".pcm" && s.transcoder != nil {
		wav, err := s.transcoder.ToWAV(ctx, audio, ext)
		if err != nil {
			s.logger.Warn("VOICE", "Transcode failed, sending original audio", map[string]interface{}{"ext": ext, "error": err.Error()})
		} else {
			audio = wav
			filename = strings.TrimSuffix(filename, filepath.Ext(filename)) + ".wav"
		}
	}

	text, err := s.speech.Transcribe(ctx, audio, filename)
	if err != nil {
		s.logger.Error("VOICE", "Speech to text failed", map[string]interface{}{"error": err.Error()})
		return "", fmt.Errorf("%w: speech to text: %v", conversation.ErrUpstreamUnavailable, err)
	}
	return strings.TrimSpace(text), nil
}

func (s *voiceService) Synthesize(ctx context.Context, text string) *dto.Audio {
	audio, _ := s.synthesize(ctx, text)
	return audio
}

// synthesize reports false when the silent fallback was returned.
func (s *voiceService) synthesize(ctx context.Context, text string) (*dto.Audio, bool) {
	key := voice.CacheKey(text)
	if e, ok := s.cache.Get(ctx, key); ok {
		return &dto.Audio{Bytes: e.Audio, MediaType: e.MediaType}, true
	}

	audio, mediaType, err := s.speech.Synthesize(ctx, text)
	if err != nil || len(audio) == 0 {
		if err == nil {
			err = errors.New("empty audio")
		}
		s.logger.Warn("VOICE", "Text to speech failed, returning silence", map[string]interface{}{"chars": len(text), "error": err.Error()})
		return &dto.Audio{Bytes: voice.DefaultSilence(), MediaType: voice.MediaWAV}, false
	}

	s.cache.Set(ctx, key, audiocache.Entry{Audio: audio, MediaType: mediaType})
	return &dto.Audio{Bytes: audio, MediaType: mediaType}, true
}

// PromptAudio speaks the question for a claim field. Both the field key and
// its label ("Passenger Name", "Passenger_Name") are accepted.
func (s *voiceService) PromptAudio(ctx context.Context, field string) (*dto.Audio, error) {
	key, ok := resolveField(field)
	if !ok {
		return nil, ErrPromptNotFound
	}
	return s.Synthesize(ctx, s.scripts.Load().Prompt(key)), nil
}

func (s *voiceService) FirstPrompt(ctx context.Context) *dto.Audio {
	if e, ok := s.cache.Get(ctx, firstPromptKey); ok {
		return &dto.Audio{Bytes: e.Audio, MediaType: e.MediaType}
	}
	return s.RegenerateFirstPrompt(ctx)
}

func (s *voiceService) RegenerateFirstPrompt(ctx context.Context) *dto.Audio {
	audio, ok := s.synthesize(ctx, s.scripts.Load().Intro)
	if ok {
		s.cache.Set(ctx, firstPromptKey, audiocache.Entry{Audio: audio.Bytes, MediaType: audio.MediaType})
	}
	return audio
}

func resolveField(field string) (string, bool) {
	if intake.KnownField(field) {
		return field, true
	}
	name := strings.ReplaceAll(field, "_", " ")
	for key, label := range intake.Labels {
		if strings.EqualFold(label, name) {
			return key, true
		}
	}
	return "", false
}
