package service

import (
	"context"

	"e261-voice-be/internal/events"
	"e261-voice-be/internal/pkg/logger"
	"e261-voice-be/internal/pkg/mailer"
	pkgEvents "e261-voice-be/pkg/events"
	"e261-voice-be/pkg/intake"
	pktNats "e261-voice-be/pkg/nats"
)

// IClaimNotifier tells the claimant their claim was received.
type IClaimNotifier interface {
	NotifyClaimSubmitted(claimID string, fields map[string]string)
}

type NotificationService struct {
	subscriber *pktNats.Subscriber
	mailer     mailer.IEmailService
	logger     logger.ILogger
}

func NewNotificationService(sub *pktNats.Subscriber, mail mailer.IEmailService, log logger.ILogger) *NotificationService {
	return &NotificationService{
		subscriber: sub,
		mailer:     mail,
		logger:     log,
	}
}

// Start listens for submitted claims on the bus. Without a subscriber the
// archive consumer calls NotifyClaimSubmitted directly.
func (s *NotificationService) Start(ctx context.Context) {
	if s.subscriber == nil {
		return
	}
	err := s.subscriber.Subscribe(ctx, pktNats.Subject(events.ClaimSubmitted), "claim-mailer", s.handleEvent)
	if err != nil {
		s.logger.Error("NOTIFICATION", "Failed to start claim subscriber", map[string]interface{}{"error": err.Error()})
		return
	}
	s.logger.Info("NOTIFICATION", "Listening for submitted claims", nil)
}

func (s *NotificationService) handleEvent(ctx context.Context, event pkgEvents.Event) error {
	payload := event.Payload()
	claimID, _ := payload["claim_id"].(string)

	fields := map[string]string{}
	if raw, ok := payload["fields"].(map[string]interface{}); ok {
		for k, v := range raw {
			if str, ok := v.(string); ok {
				fields[k] = str
			}
		}
	}
	return s.send(claimID, fields)
}

func (s *NotificationService) NotifyClaimSubmitted(claimID string, fields map[string]string) {
	_ = s.send(claimID, fields)
}

func (s *NotificationService) send(claimID string, fields map[string]string) error {
	to := fields[intake.FieldContactEmail]
	if !s.mailer.Enabled() || to == "" {
		return nil
	}
	return s.mailer.SendClaimConfirmation(mailer.ClaimConfirmation{
		To:            to,
		PassengerName: fields[intake.FieldPassengerName],
		ClaimID:       claimID,
		FlightNumber:  fields[intake.FieldFlightNumber],
		DelayDate:     fields[intake.FieldDelayDate],
		Compensation:  fields[intake.FieldCompensationAmount],
	})
}
