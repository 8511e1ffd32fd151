package service

import (
	"context"
	"encoding/json"
	"time"

	"e261-voice-be/internal/dto"
	"e261-voice-be/internal/entity"
	"e261-voice-be/internal/events"
	"e261-voice-be/internal/pkg/logger"
	"e261-voice-be/internal/repository/contract"

	"github.com/ThreeDotsLabs/watermill/message"
)

const archiveAttempts = 3

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService handles claim submitted messages: it archives the claim,
// forwards the event to NATS and, when the bus is unreachable, sends the
// confirmation mail itself.
type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	repository contract.ClaimSubmissionRepository
	events     events.Publisher
	notifier   IClaimNotifier
	logger     logger.ILogger
	backoff    time.Duration
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	repository contract.ClaimSubmissionRepository,
	eventPublisher events.Publisher,
	notifier IClaimNotifier,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		repository: repository,
		events:     eventPublisher,
		notifier:   notifier,
		logger:     log,
		backoff:    500 * time.Millisecond,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.ClaimSubmittedMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("CONSUMER", "Failed to unmarshal message", map[string]interface{}{"error": err.Error()})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	archiveID := ""
	if cs.repository != nil {
		sub := toSubmissionEntity(payload)
		if err := cs.archive(ctx, sub); err != nil {
			cs.logger.Error("CONSUMER", "Failed to archive claim", map[string]interface{}{
				"claim_id": payload.ClaimId,
				"error":    err.Error(),
			})
		} else {
			archiveID = sub.Id.String()
		}
	}

	delivered := cs.events.PublishClaimSubmitted(ctx, payload)
	if archiveID != "" {
		cs.events.PublishClaimArchived(ctx, payload.SessionId, payload.ClaimId, archiveID)
	}
	if !delivered {
		cs.notifier.NotifyClaimSubmitted(payload.ClaimId, payload.Fields)
	}

	cs.logger.Info("CONSUMER", "Claim processed", map[string]interface{}{
		"claim_id":  payload.ClaimId,
		"archived":  archiveID != "",
		"forwarded": delivered,
	})
	msg.Ack()
}

// archive retries transient database failures a few times; an undeliverable
// archive must not block the queue behind it.
func (cs *consumerService) archive(ctx context.Context, sub *entity.ClaimSubmission) error {
	var err error
	for attempt := 1; attempt <= archiveAttempts; attempt++ {
		if err = cs.repository.Create(ctx, sub); err == nil {
			return nil
		}
		cs.logger.Warn("CONSUMER", "Archive attempt failed", map[string]interface{}{"attempt": attempt, "error": err.Error()})
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(cs.backoff * time.Duration(attempt)):
		}
	}
	return err
}

func toSubmissionEntity(m dto.ClaimSubmittedMessage) *entity.ClaimSubmission {
	turns := make([]entity.ClaimTurn, len(m.Turns))
	for i, t := range m.Turns {
		turns[i] = entity.ClaimTurn{Speaker: t.Speaker, Utterance: t.Utterance, At: t.At}
	}
	return &entity.ClaimSubmission{
		SessionId:         m.SessionId,
		ClaimId:           m.ClaimId,
		CrmLeadId:         m.CrmLeadId,
		TestMode:          m.TestMode,
		ClaimStatus:       m.ClaimStatus,
		Fields:            m.Fields,
		Turns:             turns,
		DocumentsUploaded: m.DocumentsUploaded,
		DocumentsTotal:    m.DocumentsTotal,
		SubmittedAt:       m.SubmittedAt,
	}
}
