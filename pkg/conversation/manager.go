// Package conversation drives claim intake conversations turn by turn.
//
// A Manager owns the session state machine:
//
//	ACTIVE -> (respond) -> ACTIVE | AWAITING_USER -> ... -> COMPLETE
//	any state -> (permanent upstream error) -> FAILED
//
// COMPLETE and FAILED are terminal. Interpretation of what the user said is
// delegated to an Interpreter; the Manager only guarantees ordering, merging
// and status bookkeeping.
package conversation

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"e261-voice-be/internal/pkg/logger"

	"github.com/google/uuid"
)

const module = "CONVERSATION"

type Manager struct {
	store       Store
	interpreter Interpreter
	locks       *keyLock
	logger      logger.ILogger
	timeout     time.Duration
	now         func() time.Time
}

type Option func(*Manager)

// WithUpstreamTimeout bounds every interpreter call. Zero disables the bound.
func WithUpstreamTimeout(d time.Duration) Option {
	return func(m *Manager) { m.timeout = d }
}

func WithLogger(l logger.ILogger) Option {
	return func(m *Manager) { m.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func NewManager(store Store, interpreter Interpreter, opts ...Option) *Manager {
	m := &Manager{
		store:       store,
		interpreter: interpreter,
		locks:       newKeyLock(),
		logger:      logger.NewNopLogger(),
		timeout:     30 * time.Second,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// upstreamContext detaches the interpreter call from the caller: once a call
// is admitted it runs to completion or to the upstream timeout.
func (m *Manager) upstreamContext(ctx context.Context) (context.Context, context.CancelFunc) {
	detached := context.WithoutCancel(ctx)
	if m.timeout <= 0 {
		return context.WithCancel(detached)
	}
	return context.WithTimeout(detached, m.timeout)
}

// Start opens a new session. Nothing is stored when the backend cannot be
// reached.
func (m *Manager) Start(ctx context.Context) (*Session, *Reply, error) {
	uctx, cancel := m.upstreamContext(ctx)
	opening, err := m.interpreter.Open(uctx)
	cancel()
	if err != nil {
		m.logger.Warn(module, "Conversation backend failed to open session", map[string]interface{}{"error": err.Error()})
		return nil, nil, upstream("start", err)
	}

	now := m.now()
	s := &Session{
		ID:        uuid.NewString(),
		Turns:     []Turn{},
		Fields:    map[string]string{},
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.store.Save(s)
	m.logger.Info(module, "Session started", map[string]interface{}{"session_id": s.ID})

	return s.clone(), &Reply{Text: opening.Prompt, SilenceTimeout: opening.SilenceTimeout}, nil
}

// admit waits for the session's turn. A caller that gives up while queued
// gets a retryable ErrUpstreamUnavailable that still wraps ctx.Err().
func (m *Manager) admit(ctx context.Context, op, sessionID string) (func(), error) {
	unlock, err := m.locks.Lock(ctx, sessionID)
	if err != nil {
		return nil, upstream(op+" "+sessionID, err)
	}
	return unlock, nil
}

// Respond processes one user utterance. Calls for the same session run one
// at a time in arrival order.
func (m *Manager) Respond(ctx context.Context, sessionID, utterance string) (*Outcome, error) {
	unlock, err := m.admit(ctx, "respond", sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	s, ok := m.store.Get(sessionID)
	if !ok || s.Status.Terminal() {
		return nil, fmt.Errorf("respond %s: %w", sessionID, ErrNotFound)
	}

	userTurn := Turn{Speaker: SpeakerUser, Utterance: utterance, At: m.now()}
	view := View{
		SessionID: s.ID,
		Turns:     append(slices.Clone(s.Turns), userTurn),
		Fields:    maps.Clone(s.Fields),
		Cursor:    s.Cursor,
	}

	uctx, cancel := m.upstreamContext(ctx)
	result, err := m.interpreter.Interpret(uctx, view, utterance)
	cancel()
	if err != nil {
		if IsPermanent(err) {
			s.Turns = append(s.Turns, userTurn)
			s.Status = StatusFailed
			s.UpdatedAt = m.now()
			m.store.Save(s)
			m.logger.Error(module, "Session failed on upstream error", map[string]interface{}{
				"session_id": s.ID,
				"error":      err.Error(),
			})
		} else {
			m.logger.Warn(module, "Upstream error, session left unchanged", map[string]interface{}{
				"session_id": s.ID,
				"error":      err.Error(),
			})
		}
		return nil, upstream("respond", err)
	}

	s.Turns = append(s.Turns, userTurn, Turn{Speaker: SpeakerAssistant, Utterance: result.Reply, At: m.now()})
	if s.Fields == nil {
		s.Fields = map[string]string{}
	}
	for k, v := range result.Fields {
		if v != "" {
			s.Fields[k] = v
		}
	}
	for _, k := range result.Cleared {
		delete(s.Fields, k)
	}
	s.Cursor = result.Cursor

	switch {
	case result.Done:
		s.Status = StatusComplete
	case result.Pending != "":
		s.Status = StatusAwaitingUser
	default:
		s.Status = StatusActive
	}
	s.UpdatedAt = m.now()
	m.store.Save(s)

	if s.Status == StatusComplete {
		m.logger.Info(module, "Session complete", map[string]interface{}{
			"session_id": s.ID,
			"turns":      len(s.Turns),
			"fields":     len(s.Fields),
		})
	}

	return &Outcome{
		SessionID:      s.ID,
		Reply:          result.Reply,
		Status:         s.Status,
		Fields:         maps.Clone(s.Fields),
		Pending:        result.Pending,
		SilenceTimeout: result.SilenceTimeout,
	}, nil
}

// Complete snapshots a finished session for claim submission. It does not
// submit anything.
func (m *Manager) Complete(ctx context.Context, sessionID string) (*ClaimRecord, error) {
	unlock, err := m.admit(ctx, "complete", sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	s, ok := m.store.Get(sessionID)
	if !ok {
		return nil, fmt.Errorf("complete %s: %w", sessionID, ErrNotFound)
	}
	if s.Status != StatusComplete {
		return nil, fmt.Errorf("complete %s in status %s: %w", sessionID, s.Status, ErrInvalidState)
	}

	return &ClaimRecord{
		SessionID:   s.ID,
		Fields:      maps.Clone(s.Fields),
		Turns:       slices.Clone(s.Turns),
		CompletedAt: s.UpdatedAt,
	}, nil
}

// Get returns a copy of the session, terminal or not.
func (m *Manager) Get(ctx context.Context, sessionID string) (*Session, error) {
	unlock, err := m.admit(ctx, "get", sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	s, ok := m.store.Get(sessionID)
	if !ok {
		return nil, fmt.Errorf("get %s: %w", sessionID, ErrNotFound)
	}
	return s.clone(), nil
}

// Release forgets a terminal session once its claim submission was attempted.
func (m *Manager) Release(ctx context.Context, sessionID string) error {
	unlock, err := m.admit(ctx, "release", sessionID)
	if err != nil {
		return err
	}
	defer unlock()

	s, ok := m.store.Get(sessionID)
	if !ok {
		return fmt.Errorf("release %s: %w", sessionID, ErrNotFound)
	}
	if !s.Status.Terminal() {
		return fmt.Errorf("release %s in status %s: %w", sessionID, s.Status, ErrInvalidState)
	}
	m.store.Delete(sessionID)
	m.logger.Info(module, "Session released", map[string]interface{}{"session_id": sessionID, "status": string(s.Status)})
	return nil
}
