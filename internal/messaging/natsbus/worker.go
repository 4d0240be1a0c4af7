// Package natsbus serves the message processor over NATS request/reply, for
// channel gateways that live outside this service.
package natsbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/devdanielvaldez/autoclinic-bot/internal/messaging"
	"github.com/devdanielvaldez/autoclinic-bot/pkg/logging"
)

// Config holds the bus connection settings.
type Config struct {
	URL        string
	Name       string
	Subject    string
	QueueGroup string
	Timeout    time.Duration
}

// Response is the reply payload for one request.
type Response struct {
	Replied bool             `json:"replied"`
	Reply   *messaging.Reply `json:"reply,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// Worker subscribes to inbound messages and answers each request.
type Worker struct {
	conn      *nats.Conn
	sub       *nats.Subscription
	cfg       Config
	processor messaging.Processor
	logger    *logging.Logger
}

// Connect dials NATS with unlimited reconnects.
func Connect(cfg Config, processor messaging.Processor, logger *logging.Logger) (*Worker, error) {
	if processor == nil {
		panic("natsbus: processor cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	conn, err := nats.Connect(cfg.URL,
		nats.Name(cfg.Name),
		nats.Timeout(5*time.Second),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err.Error())
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("natsbus: failed to connect to %s: %w", cfg.URL, err)
	}
	logger.Info("connected to nats", "url", cfg.URL)
	return &Worker{conn: conn, cfg: cfg, processor: processor, logger: logger}, nil
}

// Start subscribes in the configured queue group so replicas share the load.
func (w *Worker) Start() error {
	sub, err := w.conn.QueueSubscribe(w.cfg.Subject, w.cfg.QueueGroup, w.handleMsg)
	if err != nil {
		return fmt.Errorf("natsbus: failed to subscribe to %s: %w", w.cfg.Subject, err)
	}
	w.sub = sub
	w.logger.Info("subscribed to inbound messages", "subject", w.cfg.Subject, "queue", w.cfg.QueueGroup)
	return nil
}

// Close drains the subscription and the connection.
func (w *Worker) Close() error {
	if w.conn == nil {
		return nil
	}
	if err := w.conn.Drain(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
		return fmt.Errorf("natsbus: drain failed: %w", err)
	}
	w.logger.Info("nats connection closed")
	return nil
}

func (w *Worker) handleMsg(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), w.cfg.Timeout)
	defer cancel()

	payload := w.process(ctx, msg.Data)
	if msg.Reply == "" {
		return
	}
	if err := msg.Respond(payload); err != nil {
		w.logger.Error("failed to respond on bus", "subject", msg.Subject, "error", err.Error())
	}
}

// process decodes one request, runs it and encodes the response.
func (w *Worker) process(ctx context.Context, data []byte) []byte {
	var resp Response
	var in messaging.InboundMessage
	if err := json.Unmarshal(data, &in); err != nil {
		w.logger.Warn("invalid bus payload", "error", err.Error())
		resp.Error = "invalid request format"
	} else if in.SenderID == "" {
		resp.Error = "sender_id is required"
	} else {
		if in.Channel == "" {
			in.Channel = messaging.ChannelBus
		}
		if reply, ok := w.processor.Handle(ctx, in); ok {
			resp.Replied = true
			resp.Reply = &reply
		}
	}
	out, err := json.Marshal(resp)
	if err != nil {
		w.logger.Error("failed to encode bus response", "error", err.Error())
		return []byte(`{"replied":false,"error":"internal error"}`)
	}
	return out
}
