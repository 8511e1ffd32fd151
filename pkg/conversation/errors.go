package conversation

import (
	"errors"
	"fmt"
)

var (
	// ErrUpstreamUnavailable means the conversational backend could not be
	// reached or answered with an error. Retryable.
	ErrUpstreamUnavailable = errors.New("conversation: upstream unavailable")
	// ErrNotFound covers unknown ids and sessions that already reached a
	// terminal status.
	ErrNotFound = errors.New("conversation: session not found")
	// ErrInvalidState is returned when the session status does not allow the
	// operation.
	ErrInvalidState = errors.New("conversation: invalid session state")
)

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks an interpreter error as unrecoverable. The session that
// produced it moves to FAILED.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was wrapped with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

func upstream(op string, err error) error {
	if errors.Is(err, ErrUpstreamUnavailable) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrUpstreamUnavailable, err)
}
