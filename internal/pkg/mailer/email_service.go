package mailer

import (
	"fmt"
	"html"

	"e261-voice-be/internal/pkg/logger"

	"gopkg.in/gomail.v2"
)

type ClaimConfirmation struct {
	To            string
	PassengerName string
	ClaimID       string
	FlightNumber  string
	DelayDate     string
	Compensation  string
}

type IEmailService interface {
	SendClaimConfirmation(c ClaimConfirmation) error
	Enabled() bool
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
	senderName  string
	logger      logger.ILogger
}

func NewEmailService(host string, port int, username, password, senderEmail, senderName string, log logger.ILogger) IEmailService {
	var d *gomail.Dialer
	if host != "" {
		d = gomail.NewDialer(host, port, username, password)
	}
	return &emailService{
		dialer:      d,
		senderEmail: senderEmail,
		senderName:  senderName,
		logger:      log,
	}
}

func (s *emailService) Enabled() bool {
	return s.dialer != nil
}

func (s *emailService) SendClaimConfirmation(c ClaimConfirmation) error {
	if s.dialer == nil {
		return nil
	}
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.senderEmail, s.senderName)
	m.SetHeader("To", c.To)
	m.SetHeader("Subject", fmt.Sprintf("Your flight delay claim %s", c.ClaimID))
	m.SetBody("text/html", confirmationBody(c))

	if err := s.dialer.DialAndSend(m); err != nil {
		s.logger.Error("MAILER", "Failed to send claim confirmation", map[string]interface{}{"claim_id": c.ClaimID, "error": err.Error()})
		return err
	}

	s.logger.Info("MAILER", "Claim confirmation sent", map[string]interface{}{"claim_id": c.ClaimID})
	return nil
}

func confirmationBody(c ClaimConfirmation) string {
	name := c.PassengerName
	if name == "" {
		name = "there"
	}
	compensation := ""
	if c.Compensation != "" {
		compensation = fmt.Sprintf(`<p>Based on your route and delay, the estimated compensation is <strong>%s</strong>.</p>`, html.EscapeString(c.Compensation))
	}
	return fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Hi %s,</h2>
			<p>We received your claim for flight <strong>%s</strong> on %s.</p>
			<p>Your claim reference is:</p>
			<h1 style="color: #1565C0; letter-spacing: 2px;">%s</h1>
			%s
			<p>Our team will review it and get back to you.</p>
			<p>261 Claims</p>
		</div>
	`, html.EscapeString(name), html.EscapeString(c.FlightNumber), html.EscapeString(c.DelayDate), html.EscapeString(c.ClaimID), compensation)
}
