package mapper

import (
	"testing"
	"time"

	"e261-voice-be/internal/entity"
	"e261-voice-be/pkg/intake"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestClaimToLead(t *testing.T) {
	m := NewLeadMapper()
	lead := m.ClaimToLead(map[string]string{
		intake.FieldPassengerName:      "Jane van der Berg",
		intake.FieldContactEmail:       "jane@example.com",
		intake.FieldFlightNumber:       "KL1002",
		intake.FieldDelayDate:          "2025-05-01",
		intake.FieldDepartureAirport:   "London Heathrow (LHR)",
		intake.FieldArrivalAirport:     "Amsterdam Schiphol (AMS)",
		intake.FieldDelayHours:         "4",
		intake.FieldCompensationAmount: "€250.00",
		intake.FieldClaimStatus:        intake.ClaimStatusPending,
	})

	assert.Equal(t, "Jane", lead.FirstName)
	assert.Equal(t, "van der Berg", lead.LastName)
	assert.Equal(t, "Flight Delay Claim", lead.Company)
	assert.Equal(t, LeadSource, lead.LeadSource)
	assert.Equal(t, intake.ClaimStatusPending, lead.LeadStatus)
	assert.Contains(t, lead.Description, "Route: London Heathrow (LHR) → Amsterdam Schiphol (AMS)")
	assert.Contains(t, lead.Description, "Delay: 4 hours")

	lead = m.ClaimToLead(map[string]string{intake.FieldPassengerName: "Cher", intake.FieldAirline: "KLM"})
	assert.Equal(t, "Cher", lead.FirstName)
	assert.Equal(t, "Cher", lead.LastName)
	assert.Equal(t, "KLM", lead.Company)
	assert.Equal(t, "New", lead.LeadStatus)
	assert.Equal(t, "Flight Delay Claim Details:", lead.Description)

	assert.Equal(t, "Unknown", m.ClaimToLead(nil).LastName)
}

func TestClaimSubmissionModelRoundTrip(t *testing.T) {
	m := NewClaimMapper()
	at := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	in := &entity.ClaimSubmission{
		Id:          uuid.New(),
		SessionId:   "s-1",
		ClaimId:     "TEST_s-1",
		TestMode:    true,
		ClaimStatus: "New Claim",
		Fields:      map[string]string{intake.FieldFlightNumber: "BA430"},
		Turns:       []entity.ClaimTurn{{Speaker: "user", Utterance: "hi", At: at}},
		SubmittedAt: at,
	}

	dbModel := m.ClaimSubmissionToModel(in)
	assert.Nil(t, dbModel.CrmLeadId)
	assert.Equal(t, "BA430", dbModel.Fields[intake.FieldFlightNumber])

	out := m.ClaimSubmissionToEntity(dbModel)
	assert.Equal(t, in, out)
}
