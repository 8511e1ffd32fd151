package conversation

import (
	"context"
	"maps"
	"slices"
	"time"
)

type Status string

const (
	StatusActive       Status = "ACTIVE"
	StatusAwaitingUser Status = "AWAITING_USER"
	StatusComplete     Status = "COMPLETE"
	StatusFailed       Status = "FAILED"
)

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusFailed
}

type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

type Turn struct {
	Speaker   Speaker   `json:"speaker"`
	Utterance string    `json:"utterance"`
	At        time.Time `json:"at"`
}

// Session is one claim intake conversation. Turns are append-only and
// Fields only ever change through Manager.Respond.
type Session struct {
	ID        string            `json:"sessionId"`
	Turns     []Turn            `json:"turns"`
	Fields    map[string]string `json:"collectedFields"`
	Status    Status            `json:"status"`
	Cursor    string            `json:"-"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

func (s *Session) clone() *Session {
	c := *s
	c.Turns = slices.Clone(s.Turns)
	c.Fields = maps.Clone(s.Fields)
	if c.Fields == nil {
		c.Fields = map[string]string{}
	}
	return &c
}

// ClaimRecord is the frozen result of a completed session, handed to
// claim submission.
type ClaimRecord struct {
	SessionID   string            `json:"sessionId"`
	Fields      map[string]string `json:"collectedFields"`
	Turns       []Turn            `json:"turns"`
	CompletedAt time.Time         `json:"completedAt"`
}

// Field returns the value for key, or "" when it was never collected.
func (r *ClaimRecord) Field(key string) string {
	return r.Fields[key]
}

// View is the read-only slice of a session an Interpreter gets to see.
type View struct {
	SessionID string
	Turns     []Turn
	Fields    map[string]string
	Cursor    string
}

// Opening is what the conversational backend says first.
type Opening struct {
	Prompt         string
	SilenceTimeout time.Duration
}

// Interpretation is the backend's answer to one user utterance.
type Interpretation struct {
	Reply string
	// Fields are merged last-write-wins into the session.
	Fields map[string]string
	// Cleared keys are removed after the merge, e.g. a rejected e-mail.
	Cleared []string
	// Pending names the field the reply asks for, if any.
	Pending        string
	Done           bool
	Cursor         string
	SilenceTimeout time.Duration
}

// Interpreter is the external conversational backend.
type Interpreter interface {
	Open(ctx context.Context) (Opening, error)
	Interpret(ctx context.Context, view View, utterance string) (Interpretation, error)
}

// Store keeps live sessions. Implementations must be safe for concurrent use;
// the manager serializes access per session id.
type Store interface {
	Save(session *Session)
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
}

type Reply struct {
	Text           string
	SilenceTimeout time.Duration
}

// Outcome is the result of a single Respond call.
type Outcome struct {
	SessionID      string
	Reply          string
	Status         Status
	Fields         map[string]string
	Pending        string
	SilenceTimeout time.Duration
}
