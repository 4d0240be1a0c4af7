// Package notify alerts staff when a customer asks to talk to a person.
package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/devdanielvaldez/autoclinic-bot/internal/messaging"
	"github.com/devdanielvaldez/autoclinic-bot/pkg/logging"
)

// ChatSender delivers a proactive chat message to a staff number.
type ChatSender interface {
	Send(ctx context.Context, msg messaging.Reply) error
}

// HandoffConfig lists who hears about a hand-off. Either channel may be empty.
type HandoffConfig struct {
	Emails       []string
	StaffNumbers []string
	UnpauseToken string
}

// HandoffNotifier fans a hand-off out to e-mail and staff chat numbers.
type HandoffNotifier struct {
	email  EmailSender
	chat   ChatSender
	cfg    HandoffConfig
	logger *logging.Logger
	now    func() time.Time
}

// NewHandoffNotifier accepts nil senders; the matching channel is skipped.
func NewHandoffNotifier(email EmailSender, chat ChatSender, cfg HandoffConfig, logger *logging.Logger) *HandoffNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.UnpauseToken == "" {
		cfg.UnpauseToken = "**"
	}
	return &HandoffNotifier{email: email, chat: chat, cfg: cfg, logger: logger, now: time.Now}
}

// NotifyHandoff reports the customer to every configured channel. All
// channels are attempted; failures are joined.
func (n *HandoffNotifier) NotifyHandoff(ctx context.Context, userID, displayName string) error {
	name := strings.TrimSpace(displayName)
	if name == "" {
		name = "Cliente"
	}
	var errs []error

	if n.email != nil && len(n.cfg.Emails) > 0 {
		msg := EmailMessage{
			To:       n.cfg.Emails,
			Subject:  fmt.Sprintf("Cliente solicita agente humano: %s", userID),
			Text:     n.textBody(userID, name),
			HTML:     n.htmlBody(userID, name),
			Category: CategoryHandoff,
		}
		if err := n.email.Send(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}

	if n.chat != nil {
		text := n.textBody(userID, name)
		for _, staff := range n.cfg.StaffNumbers {
			if err := n.chat.Send(ctx, messaging.Reply{RecipientID: staff, Text: text}); err != nil {
				errs = append(errs, fmt.Errorf("notify: chat to %s: %w", staff, err))
			}
		}
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	n.logger.Info("handoff notification sent", "user_id", userID)
	return nil
}

func (n *HandoffNotifier) textBody(userID, name string) string {
	return "🔴 *Solicitud de agente humano*\n\n" +
		"Cliente: " + name + "\n" +
		"Teléfono: " + userID + "\n" +
		"Hora: " + n.now().Format("02/01/2006 15:04") + "\n\n" +
		"El bot está desactivado para este cliente. Se reactiva cuando el cliente escribe " + n.cfg.UnpauseToken +
		" o con !!resume " + userID
}

func (n *HandoffNotifier) htmlBody(userID, name string) string {
	return "<h2>Solicitud de agente humano</h2>" +
		"<p><strong>Cliente:</strong> " + html.EscapeString(name) + "<br>" +
		"<strong>Teléfono:</strong> " + html.EscapeString(userID) + "<br>" +
		"<strong>Hora:</strong> " + n.now().Format("02/01/2006 15:04") + "</p>" +
		"<p>El bot está desactivado para este cliente hasta que escriba " + html.EscapeString(n.cfg.UnpauseToken) + ".</p>"
}
