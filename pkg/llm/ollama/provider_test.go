package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"e261-voice-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChat(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"{\"airline\":\"KLM\"}"},"done":true}`))
	}))
	defer srv.Close()

	p := New(srv.URL+"/", "llama3", WithKeepAlive("5m"))
	reply, err := p.Chat(context.Background(), []llm.Message{
		{Role: "system", Content: "extract"},
		{Role: "model", Content: "ok"},
	}, llm.WithJSON(), llm.WithTemperature(0))
	require.NoError(t, err)
	assert.Equal(t, `{"airline":"KLM"}`, reply)

	assert.Equal(t, "llama3", got["model"])
	assert.Equal(t, "json", got["format"])
	assert.Equal(t, "5m", got["keep_alive"])
	assert.Equal(t, false, got["stream"])
	assert.Equal(t, map[string]any{"temperature": float64(0)}, got["options"])
	msgs := got["messages"].([]any)
	assert.Equal(t, "assistant", msgs[1].(map[string]any)["role"])
}

func TestChatErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		temporary bool
	}{
		{"overloaded", http.StatusServiceUnavailable, "busy", true},
		{"missing model", http.StatusNotFound, `{"error":"model not found"}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := New(srv.URL, "llama3").Generate(context.Background(), "hi")
			var se *llm.StatusError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.status, se.Code)
			assert.Equal(t, tt.temporary, se.Temporary())
		})
	}
}

func TestChatInBandError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"context length exceeded"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, "llama3").Generate(context.Background(), "hi")
	assert.EqualError(t, err, "ollama: context length exceeded")
}
