package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"e261-voice-be/pkg/audiocache"
	"e261-voice-be/pkg/conversation"
	"e261-voice-be/pkg/intake"
	"e261-voice-be/pkg/voice"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSpeech struct {
	mu         sync.Mutex
	transcript string
	sttErr     error
	ttsErr     error
	spoken     []string
	files      []string
}

func (f *fakeSpeech) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files = append(f.files, filename)
	return f.transcript, f.sttErr
}

func (f *fakeSpeech) Synthesize(ctx context.Context, text string) ([]byte, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ttsErr != nil {
		return nil, "", f.ttsErr
	}
	f.spoken = append(f.spoken, text)
	return []byte("ID3" + text), voice.MediaMPEG, nil
}

func (f *fakeSpeech) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.spoken)
}

func newVoice(speech *fakeSpeech) IVoiceService {
	return NewVoiceService(speech, nil, audiocache.NewMemory(time.Hour), intake.NewScriptHolder(intake.DefaultScript()), nopLog)
}

func TestSynthesizeCachesAudio(t *testing.T) {
	speech := &fakeSpeech{}
	svc := newVoice(speech)
	ctx := context.Background()

	a := svc.Synthesize(ctx, "hello")
	b := svc.Synthesize(ctx, "hello")
	assert.Equal(t, voice.MediaMPEG, a.MediaType)
	assert.Equal(t, a.Bytes, b.Bytes)
	assert.Equal(t, 1, speech.calls())
}

func TestSynthesizeFallsBackToSilence(t *testing.T) {
	speech := &fakeSpeech{ttsErr: errors.New("quota exceeded")}
	svc := newVoice(speech)
	ctx := context.Background()

	got := svc.Synthesize(ctx, "hello")
	assert.Equal(t, voice.MediaWAV, got.MediaType)
	assert.Equal(t, voice.DefaultSilence(), got.Bytes)

	// the silence is not cached, so the backend is asked again once it recovers
	speech.ttsErr = nil
	got = svc.Synthesize(ctx, "hello")
	assert.Equal(t, voice.MediaMPEG, got.MediaType)
}

func TestPromptAudio(t *testing.T) {
	speech := &fakeSpeech{}
	svc := newVoice(speech)
	ctx := context.Background()
	script := intake.DefaultScript()

	for _, field := range []string{intake.FieldFlightNumber, "Flight Number", "flight_number"} {
		t.Run(field, func(t *testing.T) {
			got, err := svc.PromptAudio(ctx, field)
			require.NoError(t, err)
			assert.Equal(t, []byte("ID3"+script.Prompt(intake.FieldFlightNumber)), got.Bytes)
		})
	}

	_, err := svc.PromptAudio(ctx, "favouriteColour")
	assert.ErrorIs(t, err, ErrPromptNotFound)
}

func TestFirstPrompt(t *testing.T) {
	speech := &fakeSpeech{ttsErr: errors.New("down")}
	svc := newVoice(speech)
	ctx := context.Background()

	assert.Equal(t, voice.MediaWAV, svc.FirstPrompt(ctx).MediaType)

	speech.ttsErr = nil
	got := svc.FirstPrompt(ctx)
	assert.Equal(t, voice.MediaMPEG, got.MediaType)
	assert.Equal(t, []byte("ID3"+intake.DefaultScript().Intro), got.Bytes)

	svc.FirstPrompt(ctx)
	assert.Equal(t, 1, speech.calls())
}

func TestTranscribe(t *testing.T) {
	ctx := context.Background()

	speech := &fakeSpeech{transcript: "  my flight was late \n"}
	text, err := newVoice(speech).Transcribe(ctx, []byte("RIFF"), "")
	require.NoError(t, err)
	assert.Equal(t, "my flight was late", text)
	assert.Equal(t, []string{"audio.wav"}, speech.files)

	_, err = newVoice(speech).Transcribe(ctx, nil, "a.wav")
	var fe *fiber.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, fiber.StatusBadRequest, fe.Code)

	_, err = newVoice(&fakeSpeech{sttErr: errors.New("timeout")}).Transcribe(ctx, []byte("RIFF"), "a.webm")
	assert.ErrorIs(t, err, conversation.ErrUpstreamUnavailable)
}
