package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"strings"
	"sync"
	"time"

	"e261-voice-be/internal/dto"
	"e261-voice-be/internal/entity"
	"e261-voice-be/internal/mapper"
	"e261-voice-be/internal/pkg/logger"
	"e261-voice-be/internal/repository/contract"
	"e261-voice-be/internal/repository/specification"
	"e261-voice-be/pkg/compensation"
	"e261-voice-be/pkg/conversation"
	"e261-voice-be/pkg/crm/zoho"
	"e261-voice-be/pkg/intake"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const ReviewStatusReady = "ready_for_review"

// LeadClient is the CRM surface used for submission.
type LeadClient interface {
	CreateLead(ctx context.Context, lead zoho.Lead) (string, error)
	UpdateLead(ctx context.Context, id string, lead zoho.Lead) error
	FindLead(ctx context.Context, email, flightNumber string) (string, bool, error)
	UploadAttachment(ctx context.Context, leadID, filename string, content io.Reader) error
}

type IClaimService interface {
	Review(ctx context.Context, sessionID string) (*dto.ClaimReviewResponse, error)
	Submit(ctx context.Context, req dto.SubmitClaimRequest) (*dto.SubmitClaimResponse, error)
	Estimate(ctx context.Context, req dto.EstimateCompensationRequest) (*compensation.Estimate, error)
	ListSubmissions(ctx context.Context, q dto.ClaimListQuery) (*dto.ClaimListResponse, error)
	CRMEnabled() bool
}

type claimService struct {
	manager    *conversation.Manager
	documents  IDocumentService
	crm        LeadClient
	publisher  IPublisherService
	repository contract.ClaimSubmissionRepository
	airports   *compensation.Directory
	leads      *mapper.LeadMapper
	logger     logger.ILogger
	now        func() time.Time

	inflight sync.Map
}

// NewClaimService wires submission. A nil crm means test mode; a nil
// repository disables the submission listing.
func NewClaimService(
	manager *conversation.Manager,
	documents IDocumentService,
	crm LeadClient,
	publisher IPublisherService,
	repository contract.ClaimSubmissionRepository,
	airports *compensation.Directory,
	log logger.ILogger,
) IClaimService {
	return &claimService{
		manager:    manager,
		documents:  documents,
		crm:        crm,
		publisher:  publisher,
		repository: repository,
		airports:   airports,
		leads:      mapper.NewLeadMapper(),
		logger:     log,
		now:        time.Now,
	}
}

func (s *claimService) CRMEnabled() bool {
	return s.crm != nil
}

// withDefaults fills the claim status and the compensation amount when the
// conversation did not produce them.
func (s *claimService) withDefaults(fields map[string]string) map[string]string {
	out := maps.Clone(fields)
	if out == nil {
		out = map[string]string{}
	}
	if out[intake.FieldCompensationAmount] == "" {
		if amount, ok := s.airports.AmountFor(out[intake.FieldDepartureAirport], out[intake.FieldArrivalAirport], out[intake.FieldDelayHours]); ok {
			out[intake.FieldCompensationAmount] = amount
		}
	}
	if out[intake.FieldClaimStatus] == "" {
		out[intake.FieldClaimStatus] = intake.ClaimStatusNew
	}
	return out
}

func (s *claimService) Review(ctx context.Context, sessionID string) (*dto.ClaimReviewResponse, error) {
	session, err := s.manager.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &dto.ClaimReviewResponse{
		SessionId:     session.ID,
		CollectedData: s.withDefaults(session.Fields),
		Status:        ReviewStatusReady,
	}, nil
}

func (s *claimService) Submit(ctx context.Context, req dto.SubmitClaimRequest) (res *dto.SubmitClaimResponse, err error) {
	ctx, span := tracer.Start(ctx, "claim.submit", trace.WithAttributes(
		attribute.String("session.id", req.SessionId),
		attribute.Bool("crm.enabled", s.crm != nil),
	))
	defer func() { endSpan(span, err) }()

	if _, busy := s.inflight.LoadOrStore(req.SessionId, struct{}{}); busy {
		return nil, fmt.Errorf("submit %s already in progress: %w", req.SessionId, conversation.ErrInvalidState)
	}
	defer s.inflight.Delete(req.SessionId)

	record, err := s.manager.Complete(ctx, req.SessionId)
	if err != nil {
		return nil, err
	}

	fields := maps.Clone(record.Fields)
	for k, v := range req.ClaimData {
		if !intake.KnownField(k) {
			s.logger.Debug("CLAIM", "Ignoring unknown claim override", map[string]interface{}{"field": k})
			continue
		}
		fields[k] = strings.TrimSpace(v)
	}
	fields = s.withDefaults(fields)

	docs, err := s.documents.Stored(ctx, req.SessionId)
	if err != nil {
		return nil, err
	}

	submission := &entity.ClaimSubmission{
		SessionId:      record.SessionID,
		ClaimStatus:    fields[intake.FieldClaimStatus],
		Fields:         fields,
		Turns:          toClaimTurns(record.Turns),
		DocumentsTotal: len(docs),
		SubmittedAt:    s.now().UTC(),
	}

	if s.crm == nil {
		submission.TestMode = true
		submission.ClaimId = "TEST_" + shortID(record.SessionID)
		count := len(docs)
		res = &dto.SubmitClaimResponse{
			Success:        true,
			Message:        "Claim submitted (test mode)",
			ClaimId:        submission.ClaimId,
			DocumentsCount: &count,
		}
		s.logger.Info("CLAIM", "CRM disabled, claim accepted in test mode", map[string]interface{}{"session_id": record.SessionID, "claim_id": submission.ClaimId})
	} else {
		leadID, err := s.upsertLead(ctx, fields)
		if err != nil {
			return nil, err
		}
		submission.ClaimId = leadID
		submission.CrmLeadId = leadID
		submission.DocumentsUploaded = s.attachDocuments(ctx, leadID, docs)

		uploaded, total := submission.DocumentsUploaded, submission.DocumentsTotal
		res = &dto.SubmitClaimResponse{
			Success:           true,
			Message:           "Claim submitted successfully",
			ClaimId:           leadID,
			DocumentsUploaded: &uploaded,
			DocumentsTotal:    &total,
		}
	}
	span.SetAttributes(attribute.String("claim.id", submission.ClaimId))

	if err := s.publisher.Publish(ctx, toSubmittedMessage(submission)); err != nil {
		s.logger.Error("CLAIM", "Failed to publish claim submitted event", map[string]interface{}{"claim_id": submission.ClaimId, "error": err.Error()})
	}

	if err := s.manager.Release(ctx, req.SessionId); err != nil {
		s.logger.Warn("CLAIM", "Failed to release session", map[string]interface{}{"session_id": req.SessionId, "error": err.Error()})
	}
	return res, nil
}

// upsertLead reuses the lead of an earlier submission for the same
// passenger and flight instead of creating a duplicate.
func (s *claimService) upsertLead(ctx context.Context, fields map[string]string) (string, error) {
	lead := s.leads.ClaimToLead(fields)

	var (
		existing string
		found    bool
	)
	if lead.Email != "" && lead.FlightNumber != "" {
		var err error
		existing, found, err = s.crm.FindLead(ctx, lead.Email, lead.FlightNumber)
		if err != nil {
			s.logger.Warn("CLAIM", "Lead search failed, creating a new lead", map[string]interface{}{"error": err.Error()})
		}
	}
	if found {
		if err := s.crm.UpdateLead(ctx, existing, lead); err != nil {
			return "", fmt.Errorf("%w: update lead: %v", conversation.ErrUpstreamUnavailable, err)
		}
		s.logger.Info("CLAIM", "Existing lead updated", map[string]interface{}{"lead_id": existing})
		return existing, nil
	}

	id, err := s.crm.CreateLead(ctx, lead)
	if err != nil {
		s.logger.Error("CLAIM", "Failed to create lead", map[string]interface{}{"error": err.Error()})
		return "", fmt.Errorf("%w: create lead: %v", conversation.ErrUpstreamUnavailable, err)
	}
	s.logger.Info("CLAIM", "Lead created", map[string]interface{}{"lead_id": id})
	return id, nil
}

func (s *claimService) attachDocuments(ctx context.Context, leadID string, docs []StoredDocument) int {
	uploaded := 0
	for _, doc := range docs {
		err := func() error {
			f, err := os.Open(doc.Path)
			if err != nil {
				return err
			}
			defer f.Close()
			return s.crm.UploadAttachment(ctx, leadID, doc.Filename, f)
		}()
		if err != nil {
			s.logger.Warn("CLAIM", "Failed to attach document", map[string]interface{}{"lead_id": leadID, "filename": doc.Filename, "error": err.Error()})
			continue
		}
		uploaded++
	}
	return uploaded
}

func (s *claimService) Estimate(ctx context.Context, req dto.EstimateCompensationRequest) (*compensation.Estimate, error) {
	est, err := s.airports.EstimateByIATA(strings.ToUpper(req.OriginIata), strings.ToUpper(req.DestIata), req.DelayHours)
	if errors.Is(err, compensation.ErrUnknownAirport) {
		return nil, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return est, err
}

func (s *claimService) ListSubmissions(ctx context.Context, q dto.ClaimListQuery) (*dto.ClaimListResponse, error) {
	if s.repository == nil {
		return nil, fiber.NewError(fiber.StatusServiceUnavailable, "claim archive is not configured")
	}
	if q.Limit <= 0 || q.Limit > 100 {
		q.Limit = 20
	}
	if q.Offset < 0 {
		q.Offset = 0
	}

	filters := claimFilters(q)
	total, err := s.repository.Count(ctx, filters...)
	if err != nil {
		return nil, err
	}
	items, err := s.repository.FindAll(ctx, append(filters,
		specification.OrderBy{Field: "submitted_at", Desc: true},
		specification.Pagination{Limit: q.Limit, Offset: q.Offset},
	)...)
	if err != nil {
		return nil, err
	}

	out := &dto.ClaimListResponse{Total: total, Items: make([]*dto.ClaimSubmissionResponse, 0, len(items))}
	for _, it := range items {
		out.Items = append(out.Items, &dto.ClaimSubmissionResponse{
			Id:                it.Id.String(),
			SessionId:         it.SessionId,
			ClaimId:           it.ClaimId,
			CrmLeadId:         it.CrmLeadId,
			TestMode:          it.TestMode,
			ClaimStatus:       it.ClaimStatus,
			Fields:            it.Fields,
			DocumentsUploaded: it.DocumentsUploaded,
			DocumentsTotal:    it.DocumentsTotal,
			SubmittedAt:       it.SubmittedAt,
		})
	}
	return out, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func toClaimTurns(turns []conversation.Turn) []entity.ClaimTurn {
	out := make([]entity.ClaimTurn, len(turns))
	for i, t := range turns {
		out[i] = entity.ClaimTurn{Speaker: string(t.Speaker), Utterance: t.Utterance, At: t.At}
	}
	return out
}

func toSubmittedMessage(s *entity.ClaimSubmission) dto.ClaimSubmittedMessage {
	turns := make([]dto.ClaimTurnMessage, len(s.Turns))
	for i, t := range s.Turns {
		turns[i] = dto.ClaimTurnMessage{Speaker: t.Speaker, Utterance: t.Utterance, At: t.At}
	}
	return dto.ClaimSubmittedMessage{
		SessionId:         s.SessionId,
		ClaimId:           s.ClaimId,
		CrmLeadId:         s.CrmLeadId,
		TestMode:          s.TestMode,
		ClaimStatus:       s.ClaimStatus,
		Fields:            s.Fields,
		Turns:             turns,
		DocumentsUploaded: s.DocumentsUploaded,
		DocumentsTotal:    s.DocumentsTotal,
		SubmittedAt:       s.SubmittedAt,
	}
}

func claimFilters(q dto.ClaimListQuery) []specification.Specification {
	var out []specification.Specification
	if q.Status != "" {
		out = append(out, specification.ByClaimStatus{Status: q.Status})
	}
	if !q.Since.IsZero() {
		out = append(out, specification.SubmittedSince{Since: q.Since})
	}
	if q.ExcludeTest {
		out = append(out, specification.ExcludeTestMode{})
	}
	return out
}
