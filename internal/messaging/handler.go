package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/devdanielvaldez/autoclinic-bot/pkg/logging"
)

var twilioTracer = otel.Tracer("autoclinic.internal.messaging.twilio")

const maxAPIBody = 64 << 10

// WebhookObserver records webhook latency and reply outcomes.
type WebhookObserver interface {
	ObserveWebhookLatency(channel string, elapsed time.Duration)
	ObserveOutbound(channel, status string)
}

// Handler exposes the message processor over HTTP.
type Handler struct {
	webhookSecret string
	processor     Processor
	logger        *logging.Logger
	observer      WebhookObserver
	timeout       time.Duration
}

// NewHandler creates a messaging handler. An empty webhookSecret disables
// Twilio signature checks.
func NewHandler(webhookSecret string, processor Processor, logger *logging.Logger) *Handler {
	if processor == nil {
		panic("messaging: processor cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		webhookSecret: webhookSecret,
		processor:     processor,
		logger:        logger,
		timeout:       45 * time.Second,
	}
}

// WithObserver attaches webhook metrics.
func (h *Handler) WithObserver(o WebhookObserver) *Handler {
	h.observer = o
	return h
}

// TwilioWebhook handles POST /webhooks/twilio and answers inline with TwiML.
func (h *Handler) TwilioWebhook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, span := twilioTracer.Start(r.Context(), "messaging.twilio.webhook")
	defer span.End()

	if h.webhookSecret != "" && !ValidateTwilioSignature(r, h.webhookSecret, buildAbsoluteURL(r)) {
		h.logger.Warn("invalid twilio signature")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		span.RecordError(errors.New("invalid twilio signature"))
		return
	}

	webhook, err := ParseTwilioWebhook(r)
	if err != nil {
		h.logger.Error("failed to parse twilio webhook", "error", err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		span.RecordError(err)
		return
	}
	if webhook.MessageSid == "" || webhook.From == "" {
		err := errors.New("missing required twilio fields")
		h.logger.Error("invalid twilio payload", "error", err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		span.RecordError(err)
		return
	}

	msg := webhook.Inbound()
	span.SetAttributes(
		attribute.String("autoclinic.twilio.message_sid", webhook.MessageSid),
		attribute.String("autoclinic.channel", msg.Channel),
	)

	reply, ok := h.process(ctx, msg)
	body, err := TwiML(reply.Text)
	if err != nil {
		h.logger.Error("failed to render twiml", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		span.RecordError(err)
		return
	}

	h.observeLatency(msg.Channel, time.Since(start))
	h.logger.Info("twilio webhook handled",
		"message_sid", webhook.MessageSid,
		"channel", msg.Channel,
		"replied", ok,
	)
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

type apiMessageRequest struct {
	SenderID    string `json:"sender_id"`
	DisplayName string `json:"display_name"`
	Text        string `json:"text"`
	HasMedia    bool   `json:"has_media"`
}

type apiMessageResponse struct {
	Replied bool   `json:"replied"`
	Reply   *Reply `json:"reply,omitempty"`
}

// MessagesAPI handles POST /api/messages for web and test clients.
func (h *Handler) MessagesAPI(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req apiMessageRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAPIBody)).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.SenderID) == "" {
		writeJSONError(w, http.StatusBadRequest, "sender_id is required")
		return
	}

	msg := InboundMessage{
		Channel:     ChannelAPI,
		SenderID:    req.SenderID,
		DisplayName: req.DisplayName,
		Text:        req.Text,
		HasMedia:    req.HasMedia,
	}
	reply, ok := h.process(r.Context(), msg)
	h.observeLatency(ChannelAPI, time.Since(start))

	resp := apiMessageResponse{Replied: ok}
	if ok {
		resp.Reply = &reply
	}
	writeJSON(w, http.StatusOK, resp)
}

// HealthCheck returns a simple health check response.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) process(ctx context.Context, msg InboundMessage) (Reply, bool) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	reply, ok := h.processor.Handle(ctx, msg)
	if h.observer != nil {
		status := "sent"
		if !ok {
			status = "silent"
		}
		h.observer.ObserveOutbound(msg.Channel, status)
	}
	return reply, ok
}

func (h *Handler) observeLatency(channel string, elapsed time.Duration) {
	if h.observer != nil {
		h.observer.ObserveWebhookLatency(channel, elapsed)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func buildAbsoluteURL(r *http.Request) string {
	if r.URL == nil {
		return ""
	}
	if r.URL.Scheme != "" {
		return r.URL.String()
	}
	scheme := r.Header.Get("X-Forwarded-Proto")
	if scheme == "" {
		scheme = "https"
		if r.TLS == nil {
			scheme = "http"
		}
	}
	host := r.Header.Get("X-Forwarded-Host")
	if host == "" {
		host = r.Host
	}
	return fmt.Sprintf("%s://%s%s", scheme, host, r.URL.RequestURI())
}
