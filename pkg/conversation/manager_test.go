package conversation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func newMapStore() *mapStore {
	return &mapStore{sessions: map[string]*Session{}}
}

func (s *mapStore) Save(session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
}

func (s *mapStore) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.sessions[id]
	return v, ok
}

func (s *mapStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// scripted answers each utterance with a canned interpretation.
type scripted struct {
	openErr error
	answers map[string]Interpretation
	errs    map[string]error
	gate    map[string]chan struct{}
	entered chan string
}

func (s *scripted) Open(context.Context) (Opening, error) {
	if s.openErr != nil {
		return Opening{}, s.openErr
	}
	return Opening{Prompt: "hello", SilenceTimeout: 10 * time.Second}, nil
}

func (s *scripted) Interpret(_ context.Context, _ View, utterance string) (Interpretation, error) {
	if s.entered != nil {
		s.entered <- utterance
	}
	if g, ok := s.gate[utterance]; ok {
		<-g
	}
	if err, ok := s.errs[utterance]; ok {
		return Interpretation{}, err
	}
	return s.answers[utterance], nil
}

func TestStart(t *testing.T) {
	m := NewManager(newMapStore(), &scripted{})

	s, reply, err := m.Start(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, StatusActive, s.Status)
	assert.Empty(t, s.Turns)
	assert.Empty(t, s.Fields)
	assert.Equal(t, "hello", reply.Text)

	other, _, err := m.Start(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, s.ID, other.ID)
}

func TestStartUpstreamUnavailable(t *testing.T) {
	store := newMapStore()
	m := NewManager(store, &scripted{openErr: errors.New("dial tcp: refused")})

	_, _, err := m.Start(context.Background())
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.Empty(t, store.sessions)
}

func TestRespondUnknownSession(t *testing.T) {
	m := NewManager(newMapStore(), &scripted{})
	_, err := m.Respond(context.Background(), "never-issued", "hi")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRespondMergesAndTransitions(t *testing.T) {
	it := &scripted{answers: map[string]Interpretation{
		"My flight AB123 was delayed 6 hours": {
			Reply:   "When was your flight?",
			Fields:  map[string]string{"flightNumber": "AB123", "delayHours": "6"},
			Pending: "delayDate",
		},
		"It was yesterday": {
			Reply:  "Thank you.",
			Fields: map[string]string{"delayDate": "2026-10-15"},
			Done:   true,
		},
	}}
	m := NewManager(newMapStore(), it)
	ctx := context.Background()

	s, _, err := m.Start(ctx)
	require.NoError(t, err)

	out, err := m.Respond(ctx, s.ID, "My flight AB123 was delayed 6 hours")
	require.NoError(t, err)
	assert.Equal(t, StatusAwaitingUser, out.Status)
	assert.Equal(t, "AB123", out.Fields["flightNumber"])

	_, err = m.Complete(ctx, s.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	out, err = m.Respond(ctx, s.ID, "It was yesterday")
	require.NoError(t, err)
	assert.Equal(t, StatusComplete, out.Status)

	rec, err := m.Complete(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "AB123", rec.Field("flightNumber"))
	assert.Equal(t, "2026-10-15", rec.Field("delayDate"))
	assert.Len(t, rec.Turns, 4)

	// the record is a snapshot
	rec.Fields["flightNumber"] = "XX1"
	again, err := m.Complete(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "AB123", again.Field("flightNumber"))

	_, err = m.Respond(ctx, s.ID, "anything else")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRespondClearsFields(t *testing.T) {
	it := &scripted{answers: map[string]Interpretation{
		"a": {Fields: map[string]string{"contactEmail": "bad@"}},
		"b": {Cleared: []string{"contactEmail"}, Pending: "contactEmail"},
	}}
	m := NewManager(newMapStore(), it)
	ctx := context.Background()
	s, _, _ := m.Start(ctx)

	_, err := m.Respond(ctx, s.ID, "a")
	require.NoError(t, err)
	out, err := m.Respond(ctx, s.ID, "b")
	require.NoError(t, err)
	assert.NotContains(t, out.Fields, "contactEmail")
	assert.Equal(t, StatusAwaitingUser, out.Status)
}

func TestRespondTransientErrorLeavesSession(t *testing.T) {
	it := &scripted{errs: map[string]error{"x": ErrUpstreamUnavailable}}
	m := NewManager(newMapStore(), it)
	ctx := context.Background()
	s, _, _ := m.Start(ctx)

	_, err := m.Respond(ctx, s.ID, "x")
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)

	got, err := m.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, got.Status)
	assert.Empty(t, got.Turns)
}

func TestRespondPermanentErrorFails(t *testing.T) {
	it := &scripted{errs: map[string]error{"x": Permanent(errors.New("model rejected request"))}}
	m := NewManager(newMapStore(), it)
	ctx := context.Background()
	s, _, _ := m.Start(ctx)

	_, err := m.Respond(ctx, s.ID, "x")
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)

	got, err := m.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)

	_, err = m.Respond(ctx, s.ID, "y")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.Complete(ctx, s.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestConcurrentRespondAppliesInOrder(t *testing.T) {
	first := make(chan struct{})
	it := &scripted{
		answers: map[string]Interpretation{
			"one": {Fields: map[string]string{"flightNumber": "AB1", "note": "first"}},
			"two": {Fields: map[string]string{"delayReason": "weather", "note": "second"}},
		},
		gate:    map[string]chan struct{}{"one": first},
		entered: make(chan string, 2),
	}
	m := NewManager(newMapStore(), it)
	ctx := context.Background()
	s, _, _ := m.Start(ctx)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := m.Respond(ctx, s.ID, "one")
		assert.NoError(t, err)
	}()
	require.Equal(t, "one", <-it.entered)

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := m.Respond(ctx, s.ID, "two")
		assert.NoError(t, err)
	}()

	// "two" must still be queued behind "one"
	select {
	case u := <-it.entered:
		t.Fatalf("%q admitted while another call was in flight", u)
	case <-time.After(50 * time.Millisecond):
	}
	close(first)
	wg.Wait()

	got, err := m.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "AB1", got.Fields["flightNumber"])
	assert.Equal(t, "weather", got.Fields["delayReason"])
	assert.Equal(t, "second", got.Fields["note"])
	require.Len(t, got.Turns, 4)
	assert.Equal(t, "one", got.Turns[0].Utterance)
	assert.Equal(t, "two", got.Turns[2].Utterance)
}

func TestDifferentSessionsDoNotBlock(t *testing.T) {
	gate := make(chan struct{})
	it := &scripted{
		answers: map[string]Interpretation{"slow": {}, "fast": {Reply: "ok"}},
		gate:    map[string]chan struct{}{"slow": gate},
	}
	m := NewManager(newMapStore(), it)
	ctx := context.Background()
	a, _, _ := m.Start(ctx)
	b, _, _ := m.Start(ctx)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = m.Respond(ctx, a.ID, "slow")
	}()

	out, err := m.Respond(ctx, b.ID, "fast")
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Reply)

	close(gate)
	<-done
}

func TestRelease(t *testing.T) {
	it := &scripted{answers: map[string]Interpretation{"done": {Done: true}}}
	store := newMapStore()
	m := NewManager(store, it)
	ctx := context.Background()
	s, _, _ := m.Start(ctx)

	assert.ErrorIs(t, m.Release(ctx, s.ID), ErrInvalidState)

	_, err := m.Respond(ctx, s.ID, "done")
	require.NoError(t, err)
	require.NoError(t, m.Release(ctx, s.ID))

	_, err = m.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, m.locks.size())
}

func TestKeyLockQueuedCallerGivesUp(t *testing.T) {
	k := newKeyLock()
	unlock, err := k.Lock(context.Background(), "a")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = k.Lock(ctx, "a")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	assert.Equal(t, 0, k.size())

	unlock, err = k.Lock(context.Background(), "a")
	require.NoError(t, err)
	unlock()
}

func TestQueuedRespondGivesUpAsUpstreamUnavailable(t *testing.T) {
	gate := make(chan struct{})
	it := &scripted{
		answers: map[string]Interpretation{"one": {Fields: map[string]string{"flightNumber": "AB1"}}},
		gate:    map[string]chan struct{}{"one": gate},
		entered: make(chan string, 2),
	}
	m := NewManager(newMapStore(), it)
	s, _, err := m.Start(context.Background())
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := m.Respond(context.Background(), s.ID, "one")
		assert.NoError(t, err)
	}()
	require.Equal(t, "one", <-it.entered)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = m.Respond(ctx, s.ID, "two")
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, IsPermanent(err))

	close(gate)
	<-done

	got, err := m.Get(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Len(t, got.Turns, 2)
	assert.Equal(t, StatusActive, got.Status)
}
