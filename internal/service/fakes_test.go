package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"

	"e261-voice-be/internal/dto"
	"e261-voice-be/internal/entity"
	"e261-voice-be/internal/pkg/logger"
	"e261-voice-be/internal/repository/memory"
	"e261-voice-be/internal/repository/specification"
	"e261-voice-be/pkg/conversation"
	"e261-voice-be/pkg/crm/zoho"

	"github.com/google/uuid"
)

var nopLog = logger.NewNopLogger()

// scriptedInterpreter completes a session on the first utterance with the
// given fields.
type scriptedInterpreter struct {
	fields map[string]string
	err    error
}

func (s scriptedInterpreter) Open(ctx context.Context) (conversation.Opening, error) {
	return conversation.Opening{Prompt: "Hi, tell me what happened."}, nil
}

func (s scriptedInterpreter) Interpret(ctx context.Context, view conversation.View, utterance string) (conversation.Interpretation, error) {
	if s.err != nil {
		return conversation.Interpretation{}, s.err
	}
	if utterance == "wait" {
		return conversation.Interpretation{Reply: "Go on.", Pending: "flightNumber"}, nil
	}
	return conversation.Interpretation{Reply: "Thanks, all done.", Fields: s.fields, Done: true}, nil
}

func newManager(fields map[string]string) *conversation.Manager {
	return conversation.NewManager(memory.NewSessionRepository(0), scriptedInterpreter{fields: fields})
}

// completedSession starts a session and drives it to COMPLETE.
func completedSession(m *conversation.Manager) string {
	s, _, err := m.Start(context.Background())
	if err != nil {
		panic(err)
	}
	if _, err := m.Respond(context.Background(), s.ID, "here you go"); err != nil {
		panic(err)
	}
	return s.ID
}

type capturePublisher struct {
	mu   sync.Mutex
	msgs []dto.ClaimSubmittedMessage
}

func (p *capturePublisher) Publish(ctx context.Context, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	var msg dto.ClaimSubmittedMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return nil
}

type fakeCRM struct {
	mu          sync.Mutex
	existing    string
	createErr   error
	created     []zoho.Lead
	updated     []string
	attachments []string
	failAttach  string
}

func (f *fakeCRM) CreateLead(ctx context.Context, lead zoho.Lead) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created = append(f.created, lead)
	return "lead-1", nil
}

func (f *fakeCRM) UpdateLead(ctx context.Context, id string, lead zoho.Lead) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated = append(f.updated, id)
	return nil
}

func (f *fakeCRM) FindLead(ctx context.Context, email, flightNumber string) (string, bool, error) {
	return f.existing, f.existing != "", nil
}

func (f *fakeCRM) UploadAttachment(ctx context.Context, leadID, filename string, content io.Reader) error {
	if filename == f.failAttach {
		return errors.New("attachment rejected")
	}
	if _, err := io.ReadAll(content); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attachments = append(f.attachments, filename)
	return nil
}

type memoryClaimRepo struct {
	mu         sync.Mutex
	items      []*entity.ClaimSubmission
	failures   int
	countSpecs []specification.Specification
	findSpecs  []specification.Specification
}

func (r *memoryClaimRepo) Create(ctx context.Context, s *entity.ClaimSubmission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failures > 0 {
		r.failures--
		return errors.New("connection reset")
	}
	if s.Id == uuid.Nil {
		s.Id = uuid.New()
	}
	r.items = append(r.items, s)
	return nil
}

func (r *memoryClaimRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ClaimSubmission, error) {
	return nil, nil
}

func (r *memoryClaimRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ClaimSubmission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findSpecs = specs
	return append([]*entity.ClaimSubmission(nil), r.items...), nil
}

func (r *memoryClaimRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.countSpecs = specs
	return int64(len(r.items)), nil
}

func (r *memoryClaimRepo) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}
