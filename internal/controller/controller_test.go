package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"e261-voice-be/internal/config"
	"e261-voice-be/internal/pkg/logger"
	"e261-voice-be/internal/pkg/serverutils"
	"e261-voice-be/internal/repository/memory"
	"e261-voice-be/internal/service"
	"e261-voice-be/pkg/audiocache"
	"e261-voice-be/pkg/compensation"
	"e261-voice-be/pkg/conversation"
	"e261-voice-be/pkg/intake"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

// oneShot completes the conversation on the first utterance.
type oneShot struct{}

func (oneShot) Open(ctx context.Context) (conversation.Opening, error) {
	return conversation.Opening{Prompt: "Tell me about your flight.", SilenceTimeout: 10 * time.Second}, nil
}

func (oneShot) Interpret(ctx context.Context, view conversation.View, utterance string) (conversation.Interpretation, error) {
	return conversation.Interpretation{
		Reply:  "Thanks.",
		Fields: map[string]string{intake.FieldFlightNumber: "BA430", intake.FieldContactEmail: "jane@example.com"},
		Done:   true,
	}, nil
}

type stubSpeech struct{ sttErr error }

func (s stubSpeech) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	return "flight BA430", s.sttErr
}

func (s stubSpeech) Synthesize(ctx context.Context, text string) ([]byte, string, error) {
	return []byte("ID3" + text), "audio/mpeg", nil
}

type nopPublisher struct{}

func (nopPublisher) Publish(ctx context.Context, payload any) error { return nil }

func newApp(t *testing.T, speech stubSpeech) *fiber.App {
	log := logger.NewNopLogger()
	scripts := intake.NewScriptHolder(intake.DefaultScript())
	manager := conversation.NewManager(memory.NewSessionRepository(time.Hour), oneShot{})

	voice := service.NewVoiceService(speech, nil, audiocache.NewMemory(time.Hour), scripts, log)
	documents := service.NewDocumentService(t.TempDir(), manager, log)
	claims := service.NewClaimService(manager, documents, nil, nopPublisher{}, nil, compensation.DefaultDirectory(), log)
	cfg := &config.Config{App: config.AppConfig{FrontendURL: "https://claims.example.com"}}
	system := service.NewSystemService(cfg, claims, voice, scripts, service.SystemProbes{}, log)

	app := fiber.New(fiber.Config{ErrorHandler: serverutils.ErrorHandler(log)})
	NewConversationController(service.NewConversationService(manager, voice, cfg.App.FrontendURL, log)).RegisterRoutes(app)
	NewClaimController(claims).RegisterRoutes(app)
	NewVoiceController(voice).RegisterRoutes(app)
	NewDocumentController(documents).RegisterRoutes(app)
	NewHealthController(system).RegisterRoutes(app)
	NewAdminController(system, claims, voice, testSecret).RegisterRoutes(app)
	return app
}

type envelope struct {
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func do(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, envelope) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var env envelope
	if strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(raw, &env))
	} else {
		env.Data = raw
	}
	return resp, env
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return req
}

func multipartRequest(t *testing.T, path, field, filename string, content []byte, values map[string]string) *http.Request {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range values {
		require.NoError(t, w.WriteField(k, v))
	}
	part, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	return req
}

func startSession(t *testing.T, app *fiber.App) string {
	_, env := do(t, app, httptest.NewRequest(http.MethodPost, "/conversation/start", nil))
	require.True(t, env.Success)
	var start struct {
		SessionId string `json:"session_id"`
		Prompt    string `json:"prompt"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &start))
	require.NotEmpty(t, start.SessionId)
	return start.SessionId
}

func TestConversationEndpoints(t *testing.T) {
	app := newApp(t, stubSpeech{})
	id := startSession(t, app)

	resp, env := do(t, app, jsonRequest(http.MethodPost, "/conversation/respond?session_id="+id, `{"text":"BA430 was late"}`))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var res struct {
		Done        bool   `json:"done"`
		Status      string `json:"status"`
		RedirectUrl string `json:"redirect_url"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.True(t, res.Done)
	assert.Equal(t, "COMPLETE", res.Status)
	assert.Equal(t, "https://claims.example.com/claim-review.html?session_id="+id, res.RedirectUrl)

	resp, env = do(t, app, jsonRequest(http.MethodPost, "/conversation/respond", `{"session_id":"`+id+`","text":"more"}`))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not_found", env.Error)

	resp, _ = do(t, app, jsonRequest(http.MethodPost, "/conversation/respond", `{"text":"hi"}`))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, app, httptest.NewRequest(http.MethodGet, "/conversation/"+id, nil))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRespondWithAudio(t *testing.T) {
	app := newApp(t, stubSpeech{})
	id := startSession(t, app)

	resp, env := do(t, app, multipartRequest(t, "/conversation/respond", "audio", "clip.wav", []byte("RIFF"), map[string]string{"session_id": id}))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var res struct {
		Transcript string `json:"transcript"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, "flight BA430", res.Transcript)

	failing := newApp(t, stubSpeech{sttErr: errors.New("timeout")})
	id = startSession(t, failing)
	resp, env = do(t, failing, multipartRequest(t, "/conversation/respond?session_id="+id, "audio", "clip.webm", []byte("webm"), nil))
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "2", resp.Header.Get(fiber.HeaderRetryAfter))
	assert.Equal(t, "upstream_unavailable", env.Error)
}

func TestClaimEndpoints(t *testing.T) {
	app := newApp(t, stubSpeech{})
	id := startSession(t, app)

	resp, _ := do(t, app, jsonRequest(http.MethodPost, "/submit-claim", `{"session_id":"`+id+`"}`))
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	do(t, app, jsonRequest(http.MethodPost, "/conversation/respond?session_id="+id, `{"text":"done"}`))

	resp, env := do(t, app, httptest.NewRequest(http.MethodGet, "/claim-review/"+id, nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(env.Data), `"status":"ready_for_review"`)

	resp, env = do(t, app, multipartRequest(t, "/upload-document/"+id, "file", "passport.pdf", []byte("%PDF"), map[string]string{"document_type": "passport"}))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "File uploaded successfully", env.Message)

	resp, env = do(t, app, httptest.NewRequest(http.MethodGet, "/documents/"+id, nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(env.Data), `"document_type":"passport"`)

	resp, env = do(t, app, jsonRequest(http.MethodPost, "/claim-submit-final", `{"session_id":"`+id+`","claim_data":{"airline":"British Airways"}}`))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var res struct {
		ClaimId        string `json:"claim_id"`
		DocumentsCount int    `json:"documents_count"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, "TEST_"+id[:8], res.ClaimId)
	assert.Equal(t, 1, res.DocumentsCount)

	resp, _ = do(t, app, jsonRequest(http.MethodPost, "/submit-claim", `{"session_id":"`+id+`"}`))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, env = do(t, app, jsonRequest(http.MethodPost, "/submit-claim", `{}`))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "bad_request", env.Error)
}

func TestEstimateEndpoint(t *testing.T) {
	app := newApp(t, stubSpeech{})

	resp, env := do(t, app, jsonRequest(http.MethodPost, "/estimate-compensation", `{"origin_iata":"LHR","dest_iata":"JFK","delay_hours":5}`))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(env.Data), `"amount_eur":600`)

	resp, _ = do(t, app, jsonRequest(http.MethodPost, "/estimate-compensation", `{"origin_iata":"LONDON","dest_iata":"JFK","delay_hours":5}`))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestVoiceEndpoints(t *testing.T) {
	app := newApp(t, stubSpeech{})

	resp, env := do(t, app, jsonRequest(http.MethodPost, "/tts", `{"text":"hello"}`))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "audio/mpeg", resp.Header.Get(fiber.HeaderContentType))
	assert.Equal(t, "ID3hello", string(env.Data))

	resp, _ = do(t, app, jsonRequest(http.MethodPost, "/tts", `{}`))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, app, httptest.NewRequest(http.MethodGet, "/tts-prompt/Flight_Number", nil))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = do(t, app, httptest.NewRequest(http.MethodGet, "/tts-prompt/shoe_size", nil))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, env = do(t, app, httptest.NewRequest(http.MethodGet, "/first-prompt", nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "ID3"+intake.DefaultScript().Intro, string(env.Data))

	resp, env = do(t, app, multipartRequest(t, "/stt", "audio", "a.wav", []byte("RIFF"), nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"text":"flight BA430"}`, string(env.Data))
}

func TestAdminEndpoints(t *testing.T) {
	app := newApp(t, stubSpeech{})

	resp, _ := do(t, app, httptest.NewRequest(http.MethodGet, "/admin/debug-env", nil))
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "ops"}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	authed := func(method, path string) *http.Request {
		req := httptest.NewRequest(method, path, nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
		return req
	}

	resp, env := do(t, app, authed(http.MethodGet, "/admin/debug-env"))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(env.Data), `"ELEVENLABS_API_KEY":"NOT_SET"`)

	resp, env = do(t, app, authed(http.MethodPost, "/admin/trigger-first"))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(env.Data), `"media_type":"audio/mpeg"`)

	// no archive database in this setup
	resp, _ = do(t, app, authed(http.MethodGet, "/admin/claims"))
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestHealthEndpoint(t *testing.T) {
	resp, env := do(t, newApp(t, stubSpeech{}), httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var h struct {
		Status      string `json:"status"`
		Environment struct {
			ZohoEnabled bool   `json:"zoho_enabled"`
			FrontendUrl string `json:"frontend_url"`
		} `json:"environment"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &h))
	assert.Equal(t, "ok", h.Status)
	assert.False(t, h.Environment.ZohoEnabled)
	assert.Equal(t, "https://claims.example.com", h.Environment.FrontendUrl)
}
