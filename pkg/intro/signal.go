package intro

import (
	"encoding/json"
	"errors"
	"fmt"
)

type SignalType string

const (
	SignalSkip       SignalType = "intro-skip"
	SignalEnded      SignalType = "intro-ended"
	SignalTransition SignalType = "intro-transition"
)

// ErrMalformedMessage is returned for cross-context messages without a
// recognized type. Controllers drop such messages silently.
var ErrMalformedMessage = errors.New("intro: malformed message")

func (t SignalType) Valid() bool {
	switch t {
	case SignalSkip, SignalEnded, SignalTransition:
		return true
	}
	return false
}

// Signal is the only payload exchanged across the embedding boundary.
type Signal struct {
	Type SignalType `json:"type"`
}

// ParseSignal decodes raw as a Signal and rejects anything else.
func ParseSignal(raw []byte) (Signal, error) {
	var s Signal
	if err := json.Unmarshal(raw, &s); err != nil {
		return Signal{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if !s.Type.Valid() {
		return Signal{}, fmt.Errorf("%w: type %q", ErrMalformedMessage, s.Type)
	}
	return s, nil
}

// Envelope is an inbound message with the origin of whoever sent it.
type Envelope struct {
	Origin string
	Data   []byte
}
