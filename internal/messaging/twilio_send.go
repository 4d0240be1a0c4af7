package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/devdanielvaldez/autoclinic-bot/pkg/logging"
)

var twilioSendTracer = otel.Tracer("autoclinic.internal.messaging.twilio_send")

const (
	twilioAPIBase     = "https://api.twilio.com"
	twilioSendRetries = 3
)

// TwilioSender posts proactive WhatsApp or SMS messages through Twilio's
// REST API. Inline webhook replies do not use it.
type TwilioSender struct {
	accountSID string
	authToken  string
	from       string
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewTwilioSender builds a sender. from keeps its channel prefix, for example
// "whatsapp:+18095550000".
func NewTwilioSender(accountSID, authToken, from string, logger *logging.Logger) *TwilioSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &TwilioSender{
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		baseURL:    twilioAPIBase,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// Send delivers one message, retrying transient failures.
func (s *TwilioSender) Send(ctx context.Context, msg Reply) error {
	if s.accountSID == "" || s.authToken == "" {
		return errors.New("messaging: twilio credentials missing")
	}
	if s.from == "" {
		return errors.New("messaging: from required")
	}
	if msg.RecipientID == "" {
		return errors.New("messaging: recipient required")
	}
	if strings.TrimSpace(msg.Text) == "" {
		return errors.New("messaging: body required")
	}

	ctx, span := twilioSendTracer.Start(ctx, "messaging.twilio.send")
	defer span.End()
	span.SetAttributes(attribute.String("autoclinic.to", msg.RecipientID))

	payload := url.Values{}
	payload.Set("To", recipientAddress(msg.RecipientID, s.from))
	payload.Set("From", s.from)
	payload.Set("Body", msg.Text)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.baseURL, s.accountSID)

	var lastErr error
	for attempt := 1; attempt <= twilioSendRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(payload.Encode()))
		if err != nil {
			lastErr = err
			break
		}
		req.SetBasicAuth(s.accountSID, s.authToken)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			lastErr = err
		} else {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				s.logger.Info("twilio message sent", "to", msg.RecipientID)
				return nil
			}
			lastErr = fmt.Errorf("messaging: twilio send failed: %s", formatTwilioError(resp.StatusCode, body))
			// 4xx other than 429 will not succeed on retry.
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				break
			}
		}

		if attempt < twilioSendRetries {
			select {
			case <-time.After(time.Duration(200+rand.Intn(300)) * time.Millisecond):
			case <-ctx.Done():
				lastErr = ctx.Err()
				attempt = twilioSendRetries
			}
		}
	}

	span.RecordError(lastErr)
	return lastErr
}

// recipientAddress gives a bare number the same channel prefix as from. Ten
// digit national numbers are assumed to be in the +1 plan.
func recipientAddress(recipient, from string) string {
	if strings.Contains(recipient, ":") {
		return recipient
	}
	to := NormalizeE164(recipient)
	if CountDigits(recipient) == 10 {
		to = "+1" + NormalizePhone(recipient)
	}
	if prefix, _, ok := strings.Cut(from, ":"); ok {
		return prefix + ":" + to
	}
	return to
}

type twilioAPIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func formatTwilioError(status int, body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return fmt.Sprintf("status %d", status)
	}
	var parsed twilioAPIError
	if err := json.Unmarshal([]byte(trimmed), &parsed); err == nil && parsed.Message != "" {
		if parsed.Code != 0 {
			return fmt.Sprintf("status %d code %d: %s", status, parsed.Code, parsed.Message)
		}
		return fmt.Sprintf("status %d: %s", status, parsed.Message)
	}
	return fmt.Sprintf("status %d: %s", status, trimmed)
}
