package factory

import (
	"fmt"

	"e261-voice-be/pkg/llm"
	"e261-voice-be/pkg/llm/ollama"
	"e261-voice-be/pkg/llm/openai"
)

// NewLLMProvider builds the configured backend. apiKey is ignored by ollama.
func NewLLMProvider(providerType, modelName, baseURL, apiKey string) (llm.LLMProvider, error) {
	switch providerType {
	case "ollama":
		return ollama.New(baseURL, modelName, ollama.WithKeepAlive("10m")), nil
	case "openai", "huggingface":
		return openai.NewProvider(apiKey, baseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
