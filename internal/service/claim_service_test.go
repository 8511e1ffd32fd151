package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"e261-voice-be/internal/dto"
	"e261-voice-be/internal/entity"
	"e261-voice-be/internal/repository/specification"
	"e261-voice-be/pkg/compensation"
	"e261-voice-be/pkg/conversation"
	"e261-voice-be/pkg/intake"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var claimFields = map[string]string{
	intake.FieldPassengerName:    "Jane Doe",
	intake.FieldContactEmail:     "jane@example.com",
	intake.FieldFlightNumber:     "BA430",
	intake.FieldDelayDate:        "2025-05-01",
	intake.FieldDepartureAirport: "London Heathrow (LHR)",
	intake.FieldArrivalAirport:   "Amsterdam Schiphol (AMS)",
	intake.FieldDelayHours:       "6",
}

type claimFixture struct {
	manager   *conversation.Manager
	docs      IDocumentService
	publisher *capturePublisher
}

func newClaimFixture(t *testing.T) claimFixture {
	m := newManager(claimFields)
	return claimFixture{
		manager:   m,
		docs:      NewDocumentService(t.TempDir(), m, nopLog),
		publisher: &capturePublisher{},
	}
}

func (f claimFixture) service(crm LeadClient) IClaimService {
	if crm == nil {
		return NewClaimService(f.manager, f.docs, nil, f.publisher, nil, compensation.DefaultDirectory(), nopLog)
	}
	return NewClaimService(f.manager, f.docs, crm, f.publisher, nil, compensation.DefaultDirectory(), nopLog)
}

func TestClaimReviewFillsDefaults(t *testing.T) {
	f := newClaimFixture(t)
	id := completedSession(f.manager)

	res, err := f.service(nil).Review(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, ReviewStatusReady, res.Status)
	assert.Equal(t, intake.ClaimStatusNew, res.CollectedData[intake.FieldClaimStatus])
	assert.Equal(t, "€250.00", res.CollectedData[intake.FieldCompensationAmount])

	_, err = f.service(nil).Review(context.Background(), "missing")
	assert.ErrorIs(t, err, conversation.ErrNotFound)
}

func TestSubmitTestMode(t *testing.T) {
	f := newClaimFixture(t)
	ctx := context.Background()
	id := completedSession(f.manager)
	_, err := f.docs.Upload(ctx, id, "passport", "scan.pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)

	res, err := f.service(nil).Submit(ctx, dto.SubmitClaimRequest{
		SessionId: id,
		ClaimData: map[string]string{intake.FieldAirline: " British Airways ", "shoeSize": "44"},
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "Claim submitted (test mode)", res.Message)
	assert.Equal(t, "TEST_"+id[:8], res.ClaimId)
	require.NotNil(t, res.DocumentsCount)
	assert.Equal(t, 1, *res.DocumentsCount)

	require.Len(t, f.publisher.msgs, 1)
	msg := f.publisher.msgs[0]
	assert.True(t, msg.TestMode)
	assert.Equal(t, "British Airways", msg.Fields[intake.FieldAirline])
	assert.NotContains(t, msg.Fields, "shoeSize")
	assert.Len(t, msg.Turns, 2)

	_, err = f.manager.Get(ctx, id)
	assert.ErrorIs(t, err, conversation.ErrNotFound)
}

func TestSubmitRequiresCompleteSession(t *testing.T) {
	f := newClaimFixture(t)
	ctx := context.Background()
	s, _, err := f.manager.Start(ctx)
	require.NoError(t, err)
	_, err = f.manager.Respond(ctx, s.ID, "wait")
	require.NoError(t, err)

	_, err = f.service(nil).Submit(ctx, dto.SubmitClaimRequest{SessionId: s.ID})
	assert.ErrorIs(t, err, conversation.ErrInvalidState)

	_, err = f.service(nil).Submit(ctx, dto.SubmitClaimRequest{SessionId: "missing"})
	assert.ErrorIs(t, err, conversation.ErrNotFound)
	assert.Empty(t, f.publisher.msgs)
}

func TestSubmitToCRM(t *testing.T) {
	ctx := context.Background()

	t.Run("creates lead and attaches documents", func(t *testing.T) {
		f := newClaimFixture(t)
		id := completedSession(f.manager)
		_, err := f.docs.Upload(ctx, id, "passport", "a.pdf", []byte("a"))
		require.NoError(t, err)
		_, err = f.docs.Upload(ctx, id, "boarding_pass", "b.png", []byte("b"))
		require.NoError(t, err)

		list, err := f.docs.List(ctx, id)
		require.NoError(t, err)
		crm := &fakeCRM{failAttach: list.Documents[0].Filename}

		res, err := f.service(crm).Submit(ctx, dto.SubmitClaimRequest{SessionId: id})
		require.NoError(t, err)
		assert.Equal(t, "lead-1", res.ClaimId)
		assert.Equal(t, 1, *res.DocumentsUploaded)
		assert.Equal(t, 2, *res.DocumentsTotal)
		require.Len(t, crm.created, 1)
		assert.Equal(t, "Doe", crm.created[0].LastName)
		assert.Equal(t, "€250.00", crm.created[0].CompensationAmount)
		assert.Equal(t, "lead-1", f.publisher.msgs[0].CrmLeadId)
	})

	t.Run("reuses existing lead", func(t *testing.T) {
		f := newClaimFixture(t)
		id := completedSession(f.manager)
		crm := &fakeCRM{existing: "lead-9"}

		res, err := f.service(crm).Submit(ctx, dto.SubmitClaimRequest{SessionId: id})
		require.NoError(t, err)
		assert.Equal(t, "lead-9", res.ClaimId)
		assert.Equal(t, []string{"lead-9"}, crm.updated)
		assert.Empty(t, crm.created)
	})

	t.Run("crm failure keeps the session for a retry", func(t *testing.T) {
		f := newClaimFixture(t)
		id := completedSession(f.manager)
		crm := &fakeCRM{createErr: errors.New("503 from crm")}

		_, err := f.service(crm).Submit(ctx, dto.SubmitClaimRequest{SessionId: id})
		assert.ErrorIs(t, err, conversation.ErrUpstreamUnavailable)
		assert.Empty(t, f.publisher.msgs)

		s, err := f.manager.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, conversation.StatusComplete, s.Status)
	})
}

func TestEstimate(t *testing.T) {
	svc := newClaimFixture(t).service(nil)

	est, err := svc.Estimate(context.Background(), dto.EstimateCompensationRequest{OriginIata: "lhr", DestIata: "AMS", DelayHours: 4})
	require.NoError(t, err)
	assert.Equal(t, 250, est.Compensation.AmountEUR)

	_, err = svc.Estimate(context.Background(), dto.EstimateCompensationRequest{OriginIata: "XXX", DestIata: "AMS", DelayHours: 4})
	var fe *fiber.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, fiber.StatusBadRequest, fe.Code)
}

func TestListSubmissionsWithoutArchive(t *testing.T) {
	_, err := newClaimFixture(t).service(nil).ListSubmissions(context.Background(), dto.ClaimListQuery{Limit: 10})
	var fe *fiber.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, fiber.StatusServiceUnavailable, fe.Code)
}

func TestClaimFilters(t *testing.T) {
	assert.Empty(t, claimFilters(dto.ClaimListQuery{}))

	since := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	got := claimFilters(dto.ClaimListQuery{Status: "Pending", Since: since, ExcludeTest: true})
	assert.Equal(t, []specification.Specification{
		specification.ByClaimStatus{Status: "Pending"},
		specification.SubmittedSince{Since: since},
		specification.ExcludeTestMode{},
	}, got)
}

func TestListSubmissionsAppliesFilters(t *testing.T) {
	f := newClaimFixture(t)
	repo := &memoryClaimRepo{}
	require.NoError(t, repo.Create(context.Background(), &entity.ClaimSubmission{
		SessionId:   "s-1",
		ClaimId:     "TEST_s-1",
		ClaimStatus: intake.ClaimStatusPending,
		Fields:      map[string]string{intake.FieldFlightNumber: "BA430"},
	}))
	svc := NewClaimService(f.manager, f.docs, nil, f.publisher, repo, compensation.DefaultDirectory(), nopLog)
	since := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		query  dto.ClaimListQuery
		filter []specification.Specification
		page   specification.Pagination
	}{
		{
			name:  "filters and page",
			query: dto.ClaimListQuery{Limit: 5, Offset: 10, Status: intake.ClaimStatusPending, Since: since, ExcludeTest: true},
			filter: []specification.Specification{
				specification.ByClaimStatus{Status: intake.ClaimStatusPending},
				specification.SubmittedSince{Since: since},
				specification.ExcludeTestMode{},
			},
			page: specification.Pagination{Limit: 5, Offset: 10},
		},
		{
			name:  "limit too large and negative offset are clamped",
			query: dto.ClaimListQuery{Limit: 500, Offset: -3},
			page:  specification.Pagination{Limit: 20, Offset: 0},
		},
		{
			name:  "missing limit uses default",
			query: dto.ClaimListQuery{Status: intake.ClaimStatusNew},
			filter: []specification.Specification{
				specification.ByClaimStatus{Status: intake.ClaimStatusNew},
			},
			page: specification.Pagination{Limit: 20},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.ListSubmissions(context.Background(), tt.query)
			require.NoError(t, err)
			assert.Equal(t, int64(1), res.Total)
			require.Len(t, res.Items, 1)
			assert.Equal(t, "TEST_s-1", res.Items[0].ClaimId)

			assert.Equal(t, tt.filter, repo.countSpecs)
			want := append(append([]specification.Specification{}, tt.filter...),
				specification.OrderBy{Field: "submitted_at", Desc: true},
				tt.page,
			)
			assert.Equal(t, want, repo.findSpecs)
		})
	}
}
