// Package ollama is a client for a local Ollama server's chat endpoint.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"e261-voice-be/pkg/llm"
)

const (
	DefaultBaseURL = "http://localhost:11434"
	maxErrorBody   = 4 << 10
)

type Provider struct {
	baseURL   string
	model     string
	keepAlive string
	client    *http.Client
}

var _ llm.LLMProvider = (*Provider)(nil)

type Option func(*Provider)

// WithKeepAlive sets how long the server keeps the model loaded after a
// call, e.g. "10m". Empty uses the server default.
func WithKeepAlive(d string) Option { return func(p *Provider) { p.keepAlive = d } }

func New(baseURL, model string, opts ...Option) *Provider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	p := &Provider{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []llm.Message `json:"messages"`
	Stream    bool          `json:"stream"`
	Format    string        `json:"format,omitempty"`
	KeepAlive string        `json:"keep_alive,omitempty"`
	Options   modelOptions  `json:"options"`
}

type modelOptions struct {
	Temperature *float64 `json:"temperature,omitempty"`
	NumPredict  int      `json:"num_predict,omitempty"`
}

type chatResponse struct {
	Message    llm.Message `json:"message"`
	Done       bool        `json:"done"`
	DoneReason string      `json:"done_reason"`
	Error      string      `json:"error"`
}

func (p *Provider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	opts := llm.Options{Model: p.model}
	for _, o := range options {
		o(&opts)
	}

	body := chatRequest{
		Model:     opts.Model,
		Messages:  make([]llm.Message, len(history)),
		KeepAlive: p.keepAlive,
		Options:   modelOptions{Temperature: opts.Temperature, NumPredict: opts.MaxTokens},
	}
	for i, m := range history {
		// Gemini style history uses "model" for the assistant turn.
		if m.Role == "model" {
			m.Role = "assistant"
		}
		body.Messages[i] = m
	}
	if opts.JSON {
		body.Format = "json"
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("ollama: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("ollama: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &llm.StatusError{Provider: "ollama", Code: resp.StatusCode, Body: string(raw)}
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("ollama: decode response: %w", err)
	}
	if out.Error != "" {
		return "", errors.New("ollama: " + out.Error)
	}
	return out.Message.Content, nil
}

func (p *Provider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, options...)
}
