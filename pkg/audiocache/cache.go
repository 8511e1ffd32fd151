// Package audiocache keeps synthesized prompts so repeated phrases are not
// sent to the speech backend twice.
package audiocache

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

type Entry struct {
	Audio     []byte
	MediaType string
}

type Cache interface {
	Get(ctx context.Context, key string) (Entry, bool)
	Set(ctx context.Context, key string, e Entry)
}

// Memory is a process local cache.
type Memory struct {
	c *cache.Cache
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{c: cache.New(ttl, 10*time.Minute)}
}

func (m *Memory) Get(_ context.Context, key string) (Entry, bool) {
	if x, found := m.c.Get(key); found {
		return x.(Entry), true
	}
	return Entry{}, false
}

func (m *Memory) Set(_ context.Context, key string, e Entry) {
	m.c.Set(key, e, cache.DefaultExpiration)
}

// Redis shares the cache between instances. Values are stored as
// "<media type>\x00<audio>".
type Redis struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
	// OnError is called for backend failures; the cache then behaves as a miss.
	OnError func(op string, err error)
}

func NewRedis(rdb *redis.Client, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, prefix: "tts:", ttl: ttl, OnError: func(string, error) {}}
}

func (r *Redis) Get(ctx context.Context, key string) (Entry, bool) {
	raw, err := r.rdb.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.OnError("get", err)
		}
		return Entry{}, false
	}
	return decode(raw)
}

func (r *Redis) Set(ctx context.Context, key string, e Entry) {
	if err := r.rdb.Set(ctx, r.prefix+key, encode(e), r.ttl).Err(); err != nil {
		r.OnError("set", err)
	}
}

func encode(e Entry) []byte {
	out := make([]byte, 0, len(e.MediaType)+1+len(e.Audio))
	out = append(out, e.MediaType...)
	out = append(out, 0)
	return append(out, e.Audio...)
}

func decode(raw []byte) (Entry, bool) {
	i := bytes.IndexByte(raw, 0)
	if i < 0 {
		return Entry{}, false
	}
	return Entry{MediaType: string(raw[:i]), Audio: raw[i+1:]}, true
}

// Layered reads the local cache first and falls back to the shared one.
type Layered struct {
	Local  Cache
	Shared Cache
}

func (l Layered) Get(ctx context.Context, key string) (Entry, bool) {
	if e, ok := l.Local.Get(ctx, key); ok {
		return e, true
	}
	if l.Shared == nil {
		return Entry{}, false
	}
	e, ok := l.Shared.Get(ctx, key)
	if ok {
		l.Local.Set(ctx, key, e)
	}
	return e, ok
}

func (l Layered) Set(ctx context.Context, key string, e Entry) {
	l.Local.Set(ctx, key, e)
	if l.Shared != nil {
		l.Shared.Set(ctx, key, e)
	}
}
