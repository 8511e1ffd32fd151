package events

import (
	"context"

	"e261-voice-be/internal/dto"
	"e261-voice-be/internal/pkg/logger"
	pkgEvents "e261-voice-be/pkg/events"
	pktNats "e261-voice-be/pkg/nats"
)

const (
	ClaimSubmitted = "CLAIM_SUBMITTED"
	ClaimArchived  = "CLAIM_ARCHIVED"
)

// Publisher abstracts cross-service claim events
type Publisher interface {
	PublishClaimSubmitted(ctx context.Context, msg dto.ClaimSubmittedMessage) bool
	PublishClaimArchived(ctx context.Context, sessionID, claimID, archiveID string)
}

// NatsPublisher implements Publisher using NATS
type NatsPublisher struct {
	publisher *pktNats.Publisher
	logger    logger.ILogger
}

// NewNatsPublisher accepts a nil publisher; events are then dropped.
func NewNatsPublisher(publisher *pktNats.Publisher, logger logger.ILogger) *NatsPublisher {
	return &NatsPublisher{
		publisher: publisher,
		logger:    logger,
	}
}

// PublishClaimSubmitted reports whether the event reached the bus.
func (p *NatsPublisher) PublishClaimSubmitted(ctx context.Context, msg dto.ClaimSubmittedMessage) bool {
	if !p.publisher.Connected() {
		return false
	}

	evt := pkgEvents.New(ClaimSubmitted, map[string]interface{}{
		"session_id":         msg.SessionId,
		"claim_id":           msg.ClaimId,
		"crm_lead_id":        msg.CrmLeadId,
		"test_mode":          msg.TestMode,
		"claim_status":       msg.ClaimStatus,
		"fields":             msg.Fields,
		"documents_uploaded": msg.DocumentsUploaded,
		"documents_total":    msg.DocumentsTotal,
		"entity_type":        "claim",
		"entity_id":          msg.ClaimId,
	})

	if err := p.publisher.Publish(ctx, evt); err != nil {
		p.logger.Error("EVENTS", "Failed to publish CLAIM_SUBMITTED event", map[string]interface{}{"error": err.Error()})
		return false
	}
	return true
}

func (p *NatsPublisher) PublishClaimArchived(ctx context.Context, sessionID, claimID, archiveID string) {
	if !p.publisher.Connected() {
		return
	}

	evt := pkgEvents.New(ClaimArchived, map[string]interface{}{
		"session_id":  sessionID,
		"claim_id":    claimID,
		"archive_id":  archiveID,
		"entity_type": "claim",
		"entity_id":   claimID,
	})

	if err := p.publisher.Publish(ctx, evt); err != nil {
		p.logger.Error("EVENTS", "Failed to publish CLAIM_ARCHIVED event", map[string]interface{}{"error": err.Error()})
	}
}
