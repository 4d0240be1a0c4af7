// Package operator lets staff force the human hand-off flag of any customer,
// either from a privileged chat number or through the admin API.
package operator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/devdanielvaldez/autoclinic-bot/internal/messaging"
	"github.com/devdanielvaldez/autoclinic-bot/internal/session"
	"github.com/devdanielvaldez/autoclinic-bot/pkg/logging"
)

// CommandPrefix marks an operator command.
const CommandPrefix = "!!"

// ErrInvalidPhone is returned when a command names no usable number.
var ErrInvalidPhone = errors.New("operator: invalid phone number")

const helpText = "🛠️ *Comandos de operador*\n\n" +
	"!!pause <teléfono> - Desactiva el bot para ese cliente\n" +
	"!!resume <teléfono> - Reactiva el bot para ese cliente\n" +
	"!!list - Clientes con el bot desactivado\n" +
	"!!help - Muestra esta ayuda"

// Gate recognizes operator commands and flips the pause flag.
type Gate struct {
	store     session.Store
	operators map[string]struct{}
	logger    *logging.Logger
}

// NewGate allows the given numbers to issue commands. Numbers are normalized
// the same way sender ids are.
func NewGate(store session.Store, operatorNumbers []string, logger *logging.Logger) *Gate {
	if store == nil {
		panic("operator: session store cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	ops := make(map[string]struct{}, len(operatorNumbers))
	for _, n := range operatorNumbers {
		if id := messaging.NormalizePhone(n); id != "" {
			ops[id] = struct{}{}
		}
	}
	return &Gate{store: store, operators: ops, logger: logger}
}

// IsOperator reports whether userID may issue commands.
func (g *Gate) IsOperator(userID string) bool {
	_, ok := g.operators[userID]
	return ok
}

// Handle executes a command from an operator. handled is false for any
// message that should go through normal routing instead.
func (g *Gate) Handle(ctx context.Context, senderID, text string) (reply string, handled bool, err error) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, CommandPrefix) || !g.IsOperator(senderID) {
		return "", false, nil
	}

	fields := strings.Fields(strings.TrimPrefix(text, CommandPrefix))
	if len(fields) == 0 {
		return helpText, true, nil
	}

	switch strings.ToLower(fields[0]) {
	case "pause", "resume":
		if len(fields) < 2 {
			return "❌ Indica el teléfono: !!" + strings.ToLower(fields[0]) + " <teléfono>", true, nil
		}
		paused := strings.EqualFold(fields[0], "pause")
		target, err := g.SetPaused(ctx, strings.Join(fields[1:], ""), paused)
		if errors.Is(err, ErrInvalidPhone) {
			return "❌ Número no válido: " + strings.Join(fields[1:], " "), true, nil
		}
		if err != nil {
			return "", true, err
		}
		if paused {
			return "🔴 Bot desactivado para " + target, true, nil
		}
		return "✅ Bot reactivado para " + target, true, nil

	case "list":
		ids, err := g.store.ListPaused(ctx)
		if err != nil {
			return "", true, fmt.Errorf("operator: failed to list paused sessions: %w", err)
		}
		if len(ids) == 0 {
			return "📭 No hay clientes con el bot desactivado.", true, nil
		}
		return "🔴 *Bot desactivado para:*\n" + strings.Join(ids, "\n"), true, nil

	default:
		return helpText, true, nil
	}
}

// SetPaused forces the hand-off flag of one customer and returns the
// normalized id that was written.
func (g *Gate) SetPaused(ctx context.Context, phone string, paused bool) (string, error) {
	target := messaging.NormalizePhone(phone)
	if len(target) < 10 {
		return "", ErrInvalidPhone
	}
	if err := g.store.Save(ctx, target, session.Patch{PausedForHuman: session.Ptr(paused)}); err != nil {
		return "", fmt.Errorf("operator: failed to update pause flag: %w", err)
	}
	g.logger.Info("operator changed pause flag", "user_id", target, "paused", paused)
	return target, nil
}

// ListPaused returns the customers currently handed off to a human.
func (g *Gate) ListPaused(ctx context.Context) ([]string, error) {
	return g.store.ListPaused(ctx)
}
