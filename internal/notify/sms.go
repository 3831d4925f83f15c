package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const smsMaxLength = 160

// TwilioSender delivers alerts as SMS through Twilio's REST API.
type TwilioSender struct {
	accountSID string
	authToken  string
	from       string
	to         string
	client     *http.Client
	logger     *zap.Logger
}

// NewTwilioSender builds the SMS channel.
func NewTwilioSender(accountSID, authToken, from, to string, logger *zap.Logger) *TwilioSender {
	return &TwilioSender{
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		to:         to,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Name implements Sender.
func (s *TwilioSender) Name() string { return "sms" }

// Send implements Sender. The subject is folded into the body since SMS has
// no subject line.
func (s *TwilioSender) Send(ctx context.Context, subject, body string) error {
	text := subject + "\n" + body
	if len(text) > smsMaxLength {
		text = text[:smsMaxLength]
	}

	form := url.Values{}
	form.Set("From", s.from)
	form.Set("To", s.to)
	form.Set("Body", text)

	endpoint := fmt.Sprintf("https://api.twilio.com/2010-04-01/Accounts/%s/Messages.json", s.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.SetBasicAuth(s.accountSID, s.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		s.logger.Warn("twilio returned non-success", zap.Int("status", resp.StatusCode))
		return fmt.Errorf("sms: twilio status %d", resp.StatusCode)
	}
	return nil
}
