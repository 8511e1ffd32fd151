// Package intro implements the intro player's control logic: forward
// navigation fires exactly once however the intro ends, and lifecycle
// signals are posted to the embedding page.
package intro

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"e261-voice-be/internal/pkg/logger"
)

const module = "INTRO"

type Navigator interface {
	Navigate() error
}

type AudioContext interface {
	Resume() error
}

type MediaElement interface {
	// ToggleMute flips the mute state and returns the new one.
	ToggleMute() bool
}

type Config struct {
	// Origin is the page's own origin; restricted posts target it.
	Origin string
	// AllowAnyOriginFallback retries a failed restricted post with AnyOrigin.
	// This weakens origin isolation and exists for cross-origin embedding.
	AllowAnyOriginFallback bool
	Policy                 OriginPolicy
	PostTimeout            time.Duration
}

type Controller struct {
	cfg       Config
	bus       Bus
	navigator Navigator
	audio     AudioContext
	media     MediaElement
	logger    logger.ILogger

	navigated atomic.Bool
	audioOnce sync.Once
}

func NewController(cfg Config, bus Bus, navigator Navigator, audio AudioContext, media MediaElement, log logger.ILogger) *Controller {
	if cfg.Policy == nil {
		cfg.Policy = TrustOrigins(cfg.Origin)
	}
	if cfg.PostTimeout <= 0 {
		cfg.PostTimeout = 2 * time.Second
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Controller{
		cfg:       cfg,
		bus:       bus,
		navigator: navigator,
		audio:     audio,
		media:     media,
		logger:    log,
	}
}

func (c *Controller) OnMediaEnded() {
	c.transition(SignalEnded)
}

func (c *Controller) OnSkipRequested() {
	c.transition(SignalSkip)
}

// OnExternalMessage handles a signal relayed from the embedding page.
// Malformed or untrusted messages are ignored.
func (c *Controller) OnExternalMessage(env Envelope) {
	if !c.cfg.Policy(env.Origin) {
		c.logger.Debug(module, "Dropped message from untrusted origin", map[string]interface{}{"origin": env.Origin})
		return
	}
	if _, err := ParseSignal(env.Data); err != nil {
		c.logger.Debug(module, "Dropped malformed message", map[string]interface{}{"error": err.Error()})
		return
	}
	c.transition(SignalTransition)
}

func (c *Controller) transition(t SignalType) {
	if !c.navigated.CompareAndSwap(false, true) {
		return
	}
	c.Emit(t)
	if err := c.navigator.Navigate(); err != nil {
		c.logger.Warn(module, "Navigation failed", map[string]interface{}{"error": err.Error()})
	}
}

// Navigated reports whether forward navigation already fired.
func (c *Controller) Navigated() bool {
	return c.navigated.Load()
}

// Emit posts a signal to the parent, same-origin first. Delivery is best
// effort and errors are never returned.
func (c *Controller) Emit(t SignalType) {
	sig := Signal{Type: t}
	err := c.post(sig, c.cfg.Origin)
	if err == nil {
		return
	}
	c.logger.Debug(module, "Same-origin post failed", map[string]interface{}{"type": string(t), "error": err.Error()})
	if !c.cfg.AllowAnyOriginFallback {
		return
	}
	if err := c.post(sig, AnyOrigin); err != nil {
		c.logger.Debug(module, "Unrestricted post failed", map[string]interface{}{"type": string(t), "error": err.Error()})
	}
}

func (c *Controller) post(sig Signal, target string) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.PostTimeout)
	defer cancel()
	return c.bus.Post(ctx, sig, target)
}

// OnUserInteraction resumes audio on the first interaction only.
func (c *Controller) OnUserInteraction() {
	c.audioOnce.Do(c.resumeAudio)
}

// OnMediaClicked toggles mute and nudges the audio context. It does not
// touch the navigation latch.
func (c *Controller) OnMediaClicked() bool {
	muted := c.media.ToggleMute()
	c.resumeAudio()
	return muted
}

func (c *Controller) resumeAudio() {
	if err := c.audio.Resume(); err != nil {
		c.logger.Debug(module, "Audio resume failed", map[string]interface{}{"error": err.Error()})
	}
}
