// Package elevenlabs is a small client for the ElevenLabs speech-to-text
// and text-to-speech endpoints.
package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"e261-voice-be/pkg/voice"
)

const (
	DefaultBaseURL  = "https://api.elevenlabs.io"
	DefaultSTTModel = "scribe_v1"
)

var ErrNotConfigured = errors.New("elevenlabs: api key or voice not configured")

// APIError is a non-2xx answer.
type APIError struct {
	Op     string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("elevenlabs %s: status %d: %s", e.Op, e.Status, e.Body)
}

type Config struct {
	APIKey   string
	VoiceID  string
	STTModel string
	BaseURL  string
	Timeout  time.Duration
}

type VoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

type Client struct {
	cfg  Config
	http *http.Client
}

func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.STTModel == "" {
		cfg.STTModel = DefaultSTTModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}}
}

func (c *Client) KeyConfigured() bool   { return c.cfg.APIKey != "" }
func (c *Client) VoiceConfigured() bool { return c.cfg.VoiceID != "" }

// Transcribe sends one recording to speech-to-text and returns the text.
func (c *Client) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	if !c.KeyConfigured() {
		return "", ErrNotConfigured
	}
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(audio); err != nil {
		return "", err
	}
	if err := w.WriteField("model_id", c.cfg.STTModel); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/speech-to-text", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("xi-api-key", c.cfg.APIKey)
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("elevenlabs stt: %w", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return "", &APIError{Op: "stt", Status: resp.StatusCode, Body: string(raw)}
	}

	var parsed map[string]any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("elevenlabs stt: decode: %w", err)
	}
	for _, k := range []string{"text", "transcript", "transcription"} {
		if s, ok := parsed[k].(string); ok {
			return strings.TrimSpace(s), nil
		}
	}
	return "", nil
}

type ttsRequest struct {
	Text          string        `json:"text"`
	VoiceSettings VoiceSettings `json:"voice_settings"`
}

// Synthesize streams speech for text and returns the audio with its sniffed
// media type.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, string, error) {
	if !c.KeyConfigured() || !c.VoiceConfigured() {
		return nil, "", ErrNotConfigured
	}
	payload, err := json.Marshal(ttsRequest{
		Text:          text,
		VoiceSettings: VoiceSettings{Stability: 0.5, SimilarityBoost: 0.75},
	})
	if err != nil {
		return nil, "", err
	}

	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s/stream", c.cfg.BaseURL, url.PathEscape(c.cfg.VoiceID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("xi-api-key", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/wav, audio/mpeg;q=0.9, */*")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("elevenlabs tts: %w", err)
	}
	defer resp.Body.Close()
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("elevenlabs tts: read: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return nil, "", &APIError{Op: "tts", Status: resp.StatusCode, Body: string(audio)}
	}
	if len(audio) == 0 {
		return nil, "", fmt.Errorf("elevenlabs tts: empty audio")
	}

	fallback := resp.Header.Get("Content-Type")
	if fallback == "" {
		fallback = voice.MediaMPEG
	}
	return audio, voice.DetectMediaType(audio, fallback), nil
}
