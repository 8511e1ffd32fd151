package intake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"e261-voice-be/internal/pkg/logger"
	"e261-voice-be/pkg/conversation"
	"e261-voice-be/pkg/llm"
)

const extractionPrompt = `You extract facts from a passenger describing a delayed flight.
Return one JSON object. Only use these keys, and only when the passenger clearly stated the value:
%s
Dates use YYYY-MM-DD. delayHours is a number of hours. Omit anything you are unsure about.`

// LLMExtractor asks a language model for fields the rules could not find.
type LLMExtractor struct {
	provider llm.LLMProvider
	logger   logger.ILogger
}

func NewLLMExtractor(provider llm.LLMProvider, log logger.ILogger) *LLMExtractor {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &LLMExtractor{provider: provider, logger: log}
}

// Extract returns values for a subset of wanted. Transport failures and
// 5xx/429 answers are transient; other backend rejections are permanent.
// A reply that is not usable JSON yields no fields.
func (x *LLMExtractor) Extract(ctx context.Context, utterance string, wanted []string) (map[string]string, error) {
	var keys strings.Builder
	for _, k := range wanted {
		fmt.Fprintf(&keys, "- %s (%s)\n", k, label(k))
	}
	raw, err := x.provider.Chat(ctx, []llm.Message{
		{Role: "system", Content: fmt.Sprintf(extractionPrompt, keys.String())},
		{Role: "user", Content: utterance},
	}, llm.WithJSON(), llm.WithTemperature(0), llm.WithMaxTokens(256))
	if err != nil {
		var se *llm.StatusError
		if errors.As(err, &se) && !se.Temporary() {
			return nil, conversation.Permanent(fmt.Errorf("llm extraction: %w", err))
		}
		return nil, fmt.Errorf("llm extraction: %w", err)
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(jsonObject(raw)), &parsed); err != nil {
		x.logger.Warn("INTAKE", "LLM returned unusable JSON", map[string]interface{}{"error": err.Error()})
		return nil, nil
	}

	allowed := make(map[string]bool, len(wanted))
	for _, k := range wanted {
		allowed[k] = true
	}
	out := map[string]string{}
	for k, v := range parsed {
		if !allowed[k] || v == nil {
			continue
		}
		val := strings.TrimSpace(fmt.Sprint(v))
		if val == "" {
			continue
		}
		if val, ok := checkLLMValue(k, val); ok {
			out[k] = val
		}
	}
	return out, nil
}

func checkLLMValue(key, v string) (string, bool) {
	switch key {
	case FieldContactEmail:
		v = strings.ToLower(v)
		return v, reEmailStrict.MatchString(v)
	case FieldDelayDate:
		d, ok := mkDate(atoiOr(safeSlice(v, 0, 4), 0), atoiOr(safeSlice(v, 5, 7), 0), atoiOr(safeSlice(v, 8, 10), 0))
		return d, ok && len(v) == 10
	case FieldDelayHours:
		h := extractDelayHours(v, true)
		return h, h != ""
	case FieldFlightNumber:
		f := extractFlightNumber(strings.ReplaceAll(v, " ", ""), true)
		return f, f != ""
	case FieldClaimStatus:
		return "", false
	}
	return v, true
}

func safeSlice(s string, from, to int) string {
	if to > len(s) {
		return ""
	}
	return s[from:to]
}

// jsonObject trims anything around the outermost braces.
func jsonObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return s
	}
	return s[start : end+1]
}
