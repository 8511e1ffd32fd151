package intro

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type post struct {
	sig    Signal
	target string
}

type fakeBus struct {
	mu       sync.Mutex
	receiver string
	posts    []post
	failAll  bool
}

func (b *fakeBus) Post(_ context.Context, sig Signal, target string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.posts = append(b.posts, post{sig, target})
	if b.failAll {
		return errors.New("detached window")
	}
	if target != AnyOrigin && target != b.receiver {
		return ErrOriginMismatch
	}
	return nil
}

type counter struct{ n atomic.Int32 }

func (c *counter) Navigate() error { c.n.Add(1); return nil }
func (c *counter) Resume() error   { c.n.Add(1); return nil }

type muteSwitch struct{ muted bool }

func (m *muteSwitch) ToggleMute() bool { m.muted = !m.muted; return m.muted }

const self = "https://intro.example"

func newController(bus *fakeBus, fallback bool) (*Controller, *counter, *counter) {
	nav, audio := &counter{}, &counter{}
	c := NewController(Config{Origin: self, AllowAnyOriginFallback: fallback}, bus, nav, audio, &muteSwitch{}, nil)
	return c, nav, audio
}

func TestNavigatesExactlyOnce(t *testing.T) {
	bus := &fakeBus{receiver: self}
	c, nav, _ := newController(bus, true)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(3)
		go func() { defer wg.Done(); c.OnMediaEnded() }()
		go func() { defer wg.Done(); c.OnSkipRequested() }()
		go func() {
			defer wg.Done()
			c.OnExternalMessage(Envelope{Origin: self, Data: []byte(`{"type":"intro-skip"}`)})
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), nav.n.Load())
	assert.True(t, c.Navigated())
	assert.Len(t, bus.posts, 1)
}

func TestEmitTypes(t *testing.T) {
	tests := []struct {
		name string
		act  func(c *Controller)
		want SignalType
	}{
		{"media ended", (*Controller).OnMediaEnded, SignalEnded},
		{"skip", (*Controller).OnSkipRequested, SignalSkip},
		{"external", func(c *Controller) {
			c.OnExternalMessage(Envelope{Origin: self, Data: []byte(`{"type":"intro-ended"}`)})
		}, SignalTransition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := &fakeBus{receiver: self}
			c, nav, _ := newController(bus, true)
			tt.act(c)
			require.Len(t, bus.posts, 1)
			assert.Equal(t, tt.want, bus.posts[0].sig.Type)
			assert.Equal(t, self, bus.posts[0].target)
			assert.Equal(t, int32(1), nav.n.Load())
		})
	}
}

func TestUnrecognizedMessagesIgnored(t *testing.T) {
	bus := &fakeBus{receiver: self}
	c, nav, _ := newController(bus, true)

	for _, raw := range []string{`{"type":"play"}`, `{}`, `not json`, `{"type":42}`, ``} {
		assert.NotPanics(t, func() { c.OnExternalMessage(Envelope{Origin: self, Data: []byte(raw)}) })
	}
	c.OnExternalMessage(Envelope{Origin: "https://evil.example", Data: []byte(`{"type":"intro-skip"}`)})

	assert.Equal(t, int32(0), nav.n.Load())
	assert.False(t, c.Navigated())
	assert.Empty(t, bus.posts)
}

func TestEmitFallsBackToAnyOrigin(t *testing.T) {
	bus := &fakeBus{receiver: "https://parent.example"}
	c, _, _ := newController(bus, true)

	c.Emit(SignalEnded)
	require.Len(t, bus.posts, 2)
	assert.Equal(t, self, bus.posts[0].target)
	assert.Equal(t, AnyOrigin, bus.posts[1].target)
}

func TestEmitWithoutFallback(t *testing.T) {
	bus := &fakeBus{receiver: "https://parent.example"}
	c, _, _ := newController(bus, false)

	c.Emit(SignalEnded)
	assert.Len(t, bus.posts, 1)
}

func TestEmitSwallowsFailures(t *testing.T) {
	bus := &fakeBus{failAll: true}
	c, nav, _ := newController(bus, true)

	assert.NotPanics(t, c.OnMediaEnded)
	assert.Len(t, bus.posts, 2)
	assert.Equal(t, int32(1), nav.n.Load())
}

func TestAudioResumesOnFirstInteractionOnly(t *testing.T) {
	c, nav, audio := newController(&fakeBus{receiver: self}, true)
	c.OnUserInteraction()
	c.OnUserInteraction()
	c.OnUserInteraction()
	assert.Equal(t, int32(1), audio.n.Load())

	assert.True(t, c.OnMediaClicked())
	assert.False(t, c.OnMediaClicked())
	assert.Equal(t, int32(3), audio.n.Load())
	assert.Equal(t, int32(0), nav.n.Load())
}

func TestTrustOrigins(t *testing.T) {
	p := TrustOrigins(self, "https://parent.example")
	assert.True(t, p(self))
	assert.True(t, p("https://parent.example"))
	assert.False(t, p("https://other.example"))
	assert.True(t, TrustOrigins(self, AnyOrigin)("https://other.example"))
}
