package messaging

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// ValidateTwilioSignature checks X-Twilio-Signature against the form body.
func ValidateTwilioSignature(r *http.Request, authToken, webhookURL string) bool {
	signature := r.Header.Get("X-Twilio-Signature")
	if signature == "" {
		return false
	}
	if err := r.ParseForm(); err != nil {
		return false
	}
	expected := computeSignature(buildSignaturePayload(webhookURL, r.PostForm), authToken)
	return hmac.Equal([]byte(signature), []byte(expected))
}

// buildSignaturePayload is the URL followed by every key/value pair in key order.
func buildSignaturePayload(url string, params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var payload strings.Builder
	payload.WriteString(url)
	for _, key := range keys {
		for _, value := range params[key] {
			payload.WriteString(key)
			payload.WriteString(value)
		}
	}
	return payload.String()
}

func computeSignature(data, key string) string {
	h := hmac.New(sha1.New, []byte(key))
	h.Write([]byte(data))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// TwilioWebhookRequest is an inbound WhatsApp or SMS message from Twilio.
type TwilioWebhookRequest struct {
	MessageSid  string
	AccountSid  string
	From        string
	To          string
	Body        string
	ProfileName string
	NumMedia    int
}

// ParseTwilioWebhook reads the form fields of a Twilio message webhook.
func ParseTwilioWebhook(r *http.Request) (*TwilioWebhookRequest, error) {
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("messaging: failed to parse form: %w", err)
	}
	req := &TwilioWebhookRequest{
		MessageSid:  r.FormValue("MessageSid"),
		AccountSid:  r.FormValue("AccountSid"),
		From:        r.FormValue("From"),
		To:          r.FormValue("To"),
		Body:        r.FormValue("Body"),
		ProfileName: r.FormValue("ProfileName"),
	}
	if raw := strings.TrimSpace(r.FormValue("NumMedia")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("messaging: invalid NumMedia %q: %w", raw, err)
		}
		req.NumMedia = n
	}
	return req, nil
}

// Inbound converts the webhook into the channel-neutral message.
func (t *TwilioWebhookRequest) Inbound() InboundMessage {
	channel := ChannelSMS
	if strings.HasPrefix(strings.ToLower(t.From), "whatsapp:") {
		channel = ChannelWhatsApp
	}
	return InboundMessage{
		Channel:     channel,
		MessageID:   t.MessageSid,
		SenderID:    t.From,
		DisplayName: t.ProfileName,
		Text:        t.Body,
		HasMedia:    t.NumMedia > 0,
	}
}

type twimlMessage struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message,omitempty"`
}

// TwiML renders a messaging response. An empty text acknowledges without
// replying.
func TwiML(text string) ([]byte, error) {
	body, err := xml.Marshal(twimlMessage{Message: text})
	if err != nil {
		return nil, fmt.Errorf("messaging: failed to render twiml: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}
