package audiocache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Minute)

	_, ok := m.Get(ctx, "k")
	assert.False(t, ok)

	m.Set(ctx, "k", Entry{Audio: []byte{1, 2}, MediaType: "audio/wav"})
	e, ok := m.Get(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, "audio/wav", e.MediaType)
	assert.Equal(t, []byte{1, 2}, e.Audio)
}

func TestEncoding(t *testing.T) {
	in := Entry{Audio: []byte{0, 0xFF, 0}, MediaType: "audio/mpeg"}
	out, ok := decode(encode(in))
	assert.True(t, ok)
	assert.Equal(t, in, out)

	_, ok = decode([]byte("garbage"))
	assert.False(t, ok)
}

func TestLayeredPromotesSharedHits(t *testing.T) {
	ctx := context.Background()
	local, shared := NewMemory(time.Minute), NewMemory(time.Minute)
	l := Layered{Local: local, Shared: shared}

	shared.Set(ctx, "k", Entry{Audio: []byte("a"), MediaType: "audio/wav"})
	_, ok := l.Get(ctx, "k")
	assert.True(t, ok)
	_, ok = local.Get(ctx, "k")
	assert.True(t, ok)

	l.Set(ctx, "x", Entry{Audio: []byte("b")})
	_, ok = shared.Get(ctx, "x")
	assert.True(t, ok)
}
