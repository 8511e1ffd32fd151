package mailer

import (
	"testing"

	"e261-voice-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
)

func TestConfirmationBody(t *testing.T) {
	body := confirmationBody(ClaimConfirmation{
		PassengerName: "Jane <Doe>",
		ClaimID:       "TEST_1a2b3c4d",
		FlightNumber:  "BA430",
		DelayDate:     "2025-05-01",
		Compensation:  "€250.00",
	})
	assert.Contains(t, body, "Jane &lt;Doe&gt;")
	assert.Contains(t, body, "TEST_1a2b3c4d")
	assert.Contains(t, body, "€250.00")

	assert.Contains(t, confirmationBody(ClaimConfirmation{ClaimID: "x"}), "Hi there,")
	assert.NotContains(t, confirmationBody(ClaimConfirmation{ClaimID: "x"}), "estimated compensation")
}

func TestDisabledMailerIsNoop(t *testing.T) {
	svc := NewEmailService("", 587, "", "", "claims@example.com", "261 Claims", logger.NewNopLogger())
	assert.False(t, svc.Enabled())
	assert.NoError(t, svc.SendClaimConfirmation(ClaimConfirmation{To: "jane@example.com"}))
}
