package notify

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"
)

type sentMail struct {
	to  []string
	msg []byte
}

func captureSendMail(mails *[]sentMail, mu *sync.Mutex, err error) func(string, smtp.Auth, string, []string, []byte) error {
	return func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			return err
		}
		*mails = append(*mails, sentMail{to: to, msg: msg})
		return nil
	}
}

func TestEmailSenderSplitsRecipients(t *testing.T) {
	s := NewEmailSender("smtp.example.com", 587, "user", "pass", "monitor@example.com",
		"a@example.com, b@example.com,", zap.NewNop())

	var mu sync.Mutex
	var mails []sentMail
	s.sendMail = captureSendMail(&mails, &mu, nil)

	if err := s.Send(context.Background(), "50% - Alert", "body"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(mails) != 2 {
		t.Fatalf("expected one message per recipient, got %d", len(mails))
	}
	if mails[0].to[0] != "a@example.com" || mails[1].to[0] != "b@example.com" {
		t.Errorf("recipients = %v, %v", mails[0].to, mails[1].to)
	}
}

func TestEmailSenderBuildsHeaders(t *testing.T) {
	s := NewEmailSender("smtp.example.com", 587, "user", "pass", "monitor@example.com",
		"a@example.com", zap.NewNop())

	var mu sync.Mutex
	var mails []sentMail
	s.sendMail = captureSendMail(&mails, &mu, nil)

	if err := s.Send(context.Background(), "10% - Alert", "battery is low"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	msg := string(mails[0].msg)
	for _, want := range []string{
		"From: monitor@example.com\r\n",
		"To: a@example.com\r\n",
		"Subject: 10% - Alert\r\n",
		"\r\n\r\nbattery is low",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestEmailSenderNoRecipients(t *testing.T) {
	s := NewEmailSender("smtp.example.com", 587, "user", "pass", "monitor@example.com", " ", zap.NewNop())
	if err := s.Send(context.Background(), "subject", "body"); err == nil {
		t.Error("expected error with no recipients")
	}
}

func TestEmailSenderReportsDeliveryError(t *testing.T) {
	s := NewEmailSender("smtp.example.com", 587, "user", "pass", "monitor@example.com",
		"a@example.com", zap.NewNop())

	var mu sync.Mutex
	var mails []sentMail
	s.sendMail = captureSendMail(&mails, &mu, errors.New("connection refused"))

	if err := s.Send(context.Background(), "subject", "body"); err == nil {
		t.Error("expected delivery error to surface")
	}
}

func TestSMSGatewayName(t *testing.T) {
	s := NewSMSGatewaySender("smtp.example.com", 587, "user", "pass", "monitor@example.com",
		"5551234567@txt.example.com", zap.NewNop())
	if s.Name() != "sms" {
		t.Errorf("Name() = %q, want sms", s.Name())
	}
}
