package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

// EmailSender delivers alerts over SMTP with STARTTLS. Recipients is a
// comma-separated list; each gets an individual message.
type EmailSender struct {
	host     string
	port     int
	username string
	password string
	from     string
	to       []string
	logger   *zap.Logger

	// sendMail is swapped out in tests.
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewEmailSender builds the SMTP channel.
func NewEmailSender(host string, port int, username, password, from, to string, logger *zap.Logger) *EmailSender {
	var recipients []string
	for _, addr := range strings.Split(to, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			recipients = append(recipients, addr)
		}
	}
	return &EmailSender{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		to:       recipients,
		logger:   logger,
		sendMail: smtp.SendMail,
	}
}

// Name implements Sender.
func (s *EmailSender) Name() string { return "email" }

// NewSMSGatewaySender delivers SMS through a carrier email-to-SMS gateway
// address, reusing the SMTP channel.
func NewSMSGatewaySender(host string, port int, username, password, from, gateway string, logger *zap.Logger) Sender {
	return &smsGateway{NewEmailSender(host, port, username, password, from, gateway, logger)}
}

type smsGateway struct{ *EmailSender }

func (s *smsGateway) Name() string { return "sms" }

// Send implements Sender.
func (s *EmailSender) Send(_ context.Context, subject, body string) error {
	if len(s.to) == 0 {
		return fmt.Errorf("email: no recipients configured")
	}

	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	auth := smtp.PlainAuth("", s.username, s.password, s.host)

	var firstErr error
	for _, rcpt := range s.to {
		msg := buildMessage(s.from, rcpt, subject, body)
		if err := s.sendMail(addr, auth, s.from, []string{rcpt}, msg); err != nil {
			s.logger.Warn("email delivery failed", zap.String("to", rcpt), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		s.logger.Debug("email delivered", zap.String("to", rcpt))
	}
	return firstErr
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
