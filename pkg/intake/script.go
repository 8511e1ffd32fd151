package intake

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v3"
)

// Script holds everything the assistant says. It can be overridden from a
// YAML file; keys missing from the file keep their defaults.
type Script struct {
	Intro               string            `yaml:"intro"`
	OpenEnded           string            `yaml:"open_ended"`
	Completion          string            `yaml:"completion"`
	InvalidEmail        string            `yaml:"invalid_email"`
	ClarificationPrefix string            `yaml:"clarification_prefix"`
	NoInput             string            `yaml:"no_input"`
	Required            []string          `yaml:"required"`
	Prompts             map[string]string `yaml:"prompts"`
	Examples            map[string]string `yaml:"examples"`
	ClaimStatus         ClaimStatusScript `yaml:"claim_status"`
	Timeouts            Timeouts          `yaml:"timeouts"`
}

type ClaimStatusScript struct {
	AskSubmitted       string `yaml:"ask_submitted"`
	AskCompensated     string `yaml:"ask_compensated"`
	ClarifySubmitted   string `yaml:"clarify_submitted"`
	ClarifyCompensated string `yaml:"clarify_compensated"`
	Done               string `yaml:"done"`
}

// Timeouts are silence timeouts in milliseconds.
type Timeouts struct {
	OpenEnded  int `yaml:"open_ended"`
	Standard   int `yaml:"standard"`
	Completion int `yaml:"completion"`
}

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }

func DefaultScript() *Script {
	return &Script{
		Intro: "Hi, welcome to 261 Claims. I understand how frustrating flight delays can be, " +
			"and I'm here to help you resolve it. Let's get started.",
		OpenEnded: "Can you explain what really happened? You can include as many details as you want, " +
			"such as your name, flight number, airline, and the delay duration.",
		Completion:          "Thank you. I have all the details. Please wait while I prepare your claim review...",
		InvalidEmail:        "That doesn't look like a valid email address. Please provide a valid email (for example: name@example.com).",
		ClarificationPrefix: "Sorry, I didn't catch that.",
		NoInput:             "I didn't catch that. Could you repeat your response? You also can use the text bar.",
		Required:            append([]string(nil), DefaultRequired...),
		Prompts: map[string]string{
			FieldPassengerName:    "What's your full name as it appears on your ticket?",
			FieldContactEmail:     "It's quite unfair you had to go through all of that. Please type your email address into the text bar, we'll use it to contact you about your claim.",
			FieldBookingReference: "Please tell me your booking reference or reservation code.",
			FieldFlightNumber:     "What's your flight number? For example, BA123.",
			FieldDelayDate:        "When was your flight? Please give the date.",
			FieldAirline:          "Which airline were you flying with?",
			FieldDepartureAirport: "Which airport did you depart from (name or IATA code)?",
			FieldArrivalAirport:   "Which airport were you supposed to arrive at (name or IATA code)?",
			FieldDelayHours:       "Roughly how many hours was your flight delayed?",
			FieldDelayReason:      "Did the airline tell you why the flight was delayed?",
			FieldAirlineResponse:  "Finally, what did the airline say about your claim? Please describe their response.",
		},
		Examples: map[string]string{
			FieldPassengerName:    "Please provide your full name as it appears on your ticket (e.g., John Doe).",
			FieldContactEmail:     "Please provide your email address (for example: name@example.com).",
			FieldFlightNumber:     "Please provide your flight number (for example: BA123).",
			FieldDelayDate:        "Please provide the date of the flight (for example: 15th July 2023).",
			FieldAirline:          "Please provide the airline name (for example: British Airways).",
			FieldDepartureAirport: "Please provide the departure airport (for example: London Heathrow).",
			FieldArrivalAirport:   "Please provide the arrival airport (for example: Amsterdam Schiphol).",
			FieldDelayHours:       "Please tell me the delay duration in hours (for example: 3).",
			FieldAirlineResponse:  "Please describe how the airline responded (for example: they offered meal vouchers).",
		},
		ClaimStatus: ClaimStatusScript{
			AskSubmitted:       "Have you submitted a claim before?",
			AskCompensated:     "Have you received compensation?",
			ClarifySubmitted:   "Please answer yes or no. Have you submitted a claim before?",
			ClarifyCompensated: "Please answer yes or no. Have you received compensation?",
			Done:               "Thank you. I have all the details.",
		},
		Timeouts: Timeouts{OpenEnded: 10000, Standard: 2500, Completion: 2500},
	}
}

// Opening is the first thing said in a session.
func (s *Script) Opening() string {
	return strings.TrimSpace(s.Intro + " " + s.OpenEnded)
}

// Prompt asks for field after progress was made.
func (s *Script) Prompt(field string) string {
	if p, ok := s.Prompts[field]; ok && p != "" {
		return p
	}
	return fmt.Sprintf("Could you tell me your %s?", strings.ToLower(label(field)))
}

// Clarify asks for field again after an utterance yielded nothing.
func (s *Script) Clarify(field string) string {
	if ex, ok := s.Examples[field]; ok && ex != "" {
		return fmt.Sprintf("%s %s You also can use the text bar.", s.ClarificationPrefix, ex)
	}
	return fmt.Sprintf("Could you please provide your %s?", strings.ToLower(label(field)))
}

func label(field string) string {
	if l, ok := Labels[field]; ok {
		return l
	}
	return field
}

func (s *Script) Validate() error {
	if len(s.Required) == 0 {
		return fmt.Errorf("script: no required fields")
	}
	for _, f := range s.Required {
		if !KnownField(f) {
			return fmt.Errorf("script: unknown required field %q", f)
		}
		if f == FieldCompensationAmount {
			return fmt.Errorf("script: %s is derived and cannot be required", f)
		}
	}
	if s.Timeouts.Standard <= 0 || s.Timeouts.OpenEnded <= 0 || s.Timeouts.Completion <= 0 {
		return fmt.Errorf("script: timeouts must be positive")
	}
	return nil
}

// ParseScript overlays YAML onto the default script.
func ParseScript(data []byte) (*Script, error) {
	s := DefaultScript()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("script: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("script: %w", err)
	}
	return ParseScript(data)
}

// ScriptHolder lets the script be swapped while sessions are running.
type ScriptHolder struct {
	p atomic.Pointer[Script]
}

func NewScriptHolder(s *Script) *ScriptHolder {
	h := &ScriptHolder{}
	h.p.Store(s)
	return h
}

func (h *ScriptHolder) Load() *Script   { return h.p.Load() }
func (h *ScriptHolder) Store(s *Script) { h.p.Store(s) }
