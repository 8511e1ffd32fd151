// Package intake is the rule based dialogue for flight delay claims. It
// extracts claim fields from each utterance, picks the next question and
// derives the compensation amount once the route and delay are known.
package intake

import (
	"context"
	"fmt"
	"strings"
	"time"

	"e261-voice-be/internal/pkg/logger"
	"e261-voice-be/pkg/compensation"
	"e261-voice-be/pkg/conversation"
)

const (
	cursorAskedSubmitted   = "claim-status:submitted"
	cursorAskedCompensated = "claim-status:compensated"
)

type Interpreter struct {
	scripts  *ScriptHolder
	airports *compensation.Directory
	llm      *LLMExtractor
	now      func() time.Time
	logger   logger.ILogger
}

type Option func(*Interpreter)

// WithLLM lets a language model fill fields the rules missed.
func WithLLM(x *LLMExtractor) Option { return func(i *Interpreter) { i.llm = x } }

func WithClock(now func() time.Time) Option { return func(i *Interpreter) { i.now = now } }

func WithLogger(l logger.ILogger) Option { return func(i *Interpreter) { i.logger = l } }

func WithAirports(d *compensation.Directory) Option { return func(i *Interpreter) { i.airports = d } }

func NewInterpreter(scripts *ScriptHolder, opts ...Option) *Interpreter {
	i := &Interpreter{
		scripts:  scripts,
		airports: compensation.DefaultDirectory(),
		now:      time.Now,
		logger:   logger.NewNopLogger(),
	}
	for _, o := range opts {
		o(i)
	}
	return i
}

var _ conversation.Interpreter = (*Interpreter)(nil)

func (i *Interpreter) Open(ctx context.Context) (conversation.Opening, error) {
	s := i.scripts.Load()
	return conversation.Opening{Prompt: s.Opening(), SilenceTimeout: ms(s.Timeouts.OpenEnded)}, nil
}

func (i *Interpreter) Interpret(ctx context.Context, view conversation.View, utterance string) (conversation.Interpretation, error) {
	s := i.scripts.Load()
	text := Normalize(utterance)
	asking := nextMissing(s.Required, view.Fields)

	if text == "" {
		reply := s.NoInput
		if asking != "" {
			reply = fmt.Sprintf("%s (I'm asking for: %s)", reply, label(asking))
		}
		return conversation.Interpretation{
			Reply:          reply,
			Pending:        asking,
			Cursor:         view.Cursor,
			SilenceTimeout: ms(s.Timeouts.Standard),
		}, nil
	}

	if asking == FieldClaimStatus && strings.HasPrefix(view.Cursor, "claim-status:") {
		return i.claimStatusAnswer(s, view, text), nil
	}

	ex := extractor{airports: i.airports, now: i.now()}.extract(text, view.Fields, asking)
	found := ex.fields

	if i.llm != nil {
		merged := mergeFields(view.Fields, found)
		if missing := missingFields(s.Required, merged); len(missing) > 0 {
			extra, err := i.llm.Extract(ctx, utterance, missing)
			if err != nil {
				return conversation.Interpretation{}, err
			}
			for k, v := range extra {
				if found[k] == "" && view.Fields[k] == "" {
					found[k] = v
				}
			}
		}
	}

	merged := mergeFields(view.Fields, found)
	if ex.invalidEmail {
		delete(merged, FieldContactEmail)
	}
	if merged[FieldCompensationAmount] == "" {
		if amount, ok := i.airports.AmountFor(merged[FieldDepartureAirport], merged[FieldArrivalAirport], merged[FieldDelayHours]); ok {
			found[FieldCompensationAmount] = amount
			merged[FieldCompensationAmount] = amount
		}
	}

	if len(found) > 0 {
		i.logger.Debug("INTAKE", "Fields extracted", map[string]interface{}{"fields": keys(found), "asking": asking})
	}

	out := conversation.Interpretation{Fields: found, Cursor: view.Cursor}
	if ex.invalidEmail {
		out.Cleared = []string{FieldContactEmail}
	}

	next := nextMissing(s.Required, merged)
	switch {
	case next == "":
		return i.finish(s, out, s.Completion), nil
	case next == FieldClaimStatus:
		out.Reply = s.ClaimStatus.AskSubmitted
		out.Cursor = cursorAskedSubmitted
	case ex.invalidEmail && next == FieldContactEmail:
		out.Reply = s.InvalidEmail
	case len(found) > 0:
		out.Reply = s.Prompt(next)
	default:
		out.Reply = s.Clarify(next)
	}
	out.Pending = next
	out.SilenceTimeout = ms(s.Timeouts.Standard)
	return out, nil
}

// claimStatusAnswer runs the two yes/no questions that settle the claim
// status: submitted before, then compensated.
func (i *Interpreter) claimStatusAnswer(s *Script, view conversation.View, text string) conversation.Interpretation {
	out := conversation.Interpretation{
		Pending:        FieldClaimStatus,
		Cursor:         view.Cursor,
		SilenceTimeout: ms(s.Timeouts.Standard),
	}
	answer := yesNo(text)
	status := ""
	switch view.Cursor {
	case cursorAskedSubmitted:
		switch answer {
		case 1:
			out.Reply = s.ClaimStatus.AskCompensated
			out.Cursor = cursorAskedCompensated
			return out
		case -1:
			status = ClaimStatusNew
		default:
			out.Reply = s.ClaimStatus.ClarifySubmitted
			return out
		}
	default:
		switch answer {
		case 1:
			status = ClaimStatusResolved
		case -1:
			status = ClaimStatusPending
		default:
			out.Reply = s.ClaimStatus.ClarifyCompensated
			return out
		}
	}

	out.Fields = map[string]string{FieldClaimStatus: status}
	out.Cursor = ""
	merged := mergeFields(view.Fields, out.Fields)
	if next := nextMissing(s.Required, merged); next != "" {
		out.Reply = s.Prompt(next)
		out.Pending = next
		return out
	}
	return i.finish(s, out, s.ClaimStatus.Done)
}

func (i *Interpreter) finish(s *Script, out conversation.Interpretation, reply string) conversation.Interpretation {
	out.Reply = reply
	out.Done = true
	out.Pending = ""
	out.Cursor = ""
	out.SilenceTimeout = ms(s.Timeouts.Completion)
	return out
}

func mergeFields(a, b map[string]string) map[string]string {
	out := make(map[string]string, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}

func missingFields(required []string, fields map[string]string) []string {
	var out []string
	for _, k := range required {
		if fields[k] == "" {
			out = append(out, k)
		}
	}
	return out
}

func keys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
