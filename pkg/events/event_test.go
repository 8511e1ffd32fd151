package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRoundTripKeepsTimestamp(t *testing.T) {
	e := New("CLAIM_SUBMITTED", map[string]interface{}{"claim_id": "TEST_1234"})
	back := FromPayload("CLAIM_SUBMITTED", e.Payload())

	assert.Equal(t, "CLAIM_SUBMITTED", back.EventType())
	assert.Equal(t, "TEST_1234", back.Payload()["claim_id"])
	assert.WithinDuration(t, e.Timestamp(), back.Timestamp(), time.Microsecond)
}
