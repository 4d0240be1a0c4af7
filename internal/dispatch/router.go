// Package dispatch routes each inbound message to the menu, the reservation
// wizard, the assistant or the human hand-off, based on the sender's session.
package dispatch

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/devdanielvaldez/autoclinic-bot/internal/bookings"
	"github.com/devdanielvaldez/autoclinic-bot/internal/catalog"
	"github.com/devdanielvaldez/autoclinic-bot/internal/conversation"
	"github.com/devdanielvaldez/autoclinic-bot/internal/messaging"
	"github.com/devdanielvaldez/autoclinic-bot/internal/operator"
	"github.com/devdanielvaldez/autoclinic-bot/internal/replies"
	"github.com/devdanielvaldez/autoclinic-bot/internal/session"
	"github.com/devdanielvaldez/autoclinic-bot/pkg/logging"
)

var routerTracer = otel.Tracer("autoclinic.internal.dispatch")

const recentBookingsLimit = 10

// Route labels reported to the observer.
const (
	RouteMedia    = "media"
	RouteEmpty    = "empty"
	RouteOperator = "operator"
	RoutePaused   = "paused"
	RouteUnpause  = "unpause"
	RouteWizard   = "wizard"
	RouteAIExit   = "ai_exit"
	RouteAI       = "ai"
	RouteMenu     = "menu"
	RouteHandoff  = "handoff"
	RouteFallback = "ai_fallback"
	RouteFailure  = "backend_failure"
)

var bookingTriggers = []string{"reservar", "reservación", "reservacion", "agendar", "cita", "quiero lavar"}

var aiExitWords = map[string]struct{}{
	"salir": {}, "volver": {}, "0": {}, "menu": {},
}

// WizardDriver runs the reservation dialog.
type WizardDriver interface {
	Start(ctx context.Context, userID, displayName string) (string, error)
	Handle(ctx context.Context, st *session.State, input, displayName string, snap *catalog.Snapshot) (string, error)
}

// Responder is the AI conversation bridge.
type Responder interface {
	Respond(ctx context.Context, req conversation.Request) conversation.Result
}

// BookingReader resolves confirmation codes and lists a customer's bookings.
type BookingReader interface {
	Lookup(ctx context.Context, code string) (*bookings.Booking, error)
	Recent(ctx context.Context, phone string, limit int) ([]bookings.Booking, error)
}

// HandoffNotifier tells staff that a customer asked for a person.
type HandoffNotifier interface {
	NotifyHandoff(ctx context.Context, userID, displayName string) error
}

// RouteObserver counts handled messages by route.
type RouteObserver interface {
	ObserveInbound(channel, route string)
}

// Options wires a Router. Notifier is optional.
type Options struct {
	Store        session.Store
	Window       conversation.Window
	Wizard       WizardDriver
	Assistant    Responder
	Bookings     BookingReader
	Gate         *operator.Gate
	Catalog      *catalog.Snapshot
	Notifier     HandoffNotifier
	UnpauseToken string
	ContactPhone string
	Logger       *logging.Logger
}

// Router is the session state machine in front of every reply.
type Router struct {
	store        session.Store
	window       conversation.Window
	wizard       WizardDriver
	assistant    Responder
	bookings     BookingReader
	gate         *operator.Gate
	catalog      *catalog.Snapshot
	notifier     HandoffNotifier
	observer     RouteObserver
	unpauseToken string
	contactPhone string
	logger       *logging.Logger
}

// NewRouter validates opts and returns a router.
func NewRouter(opts Options) *Router {
	switch {
	case opts.Store == nil:
		panic("dispatch: session store cannot be nil")
	case opts.Window == nil:
		panic("dispatch: context window cannot be nil")
	case opts.Wizard == nil:
		panic("dispatch: wizard cannot be nil")
	case opts.Assistant == nil:
		panic("dispatch: assistant cannot be nil")
	case opts.Bookings == nil:
		panic("dispatch: booking reader cannot be nil")
	case opts.Gate == nil:
		panic("dispatch: operator gate cannot be nil")
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	if strings.TrimSpace(opts.UnpauseToken) == "" {
		opts.UnpauseToken = "**"
	}
	company := catalog.DefaultCompany
	if opts.Catalog != nil {
		company = opts.Catalog.Company.WithDefaults()
	}
	if strings.TrimSpace(opts.ContactPhone) == "" {
		opts.ContactPhone = company.Contact.Phone
	}
	return &Router{
		store:        opts.Store,
		window:       opts.Window,
		wizard:       opts.Wizard,
		assistant:    opts.Assistant,
		bookings:     opts.Bookings,
		gate:         opts.Gate,
		catalog:      opts.Catalog,
		notifier:     opts.Notifier,
		unpauseToken: opts.UnpauseToken,
		contactPhone: opts.ContactPhone,
		logger:       opts.Logger,
	}
}

// WithObserver attaches a route observer, typically the chat metrics.
func (r *Router) WithObserver(o RouteObserver) *Router {
	r.observer = o
	return r
}

// Handle routes one message. ok is false for media, empty messages and
// paused senders; every other message gets a reply.
func (r *Router) Handle(ctx context.Context, in messaging.InboundMessage) (messaging.Reply, bool) {
	ctx, span := routerTracer.Start(ctx, "dispatch.handle")
	defer span.End()

	if in.HasMedia {
		r.observe(in.Channel, RouteMedia)
		return messaging.Reply{}, false
	}
	userID := messaging.SessionKey(in.SenderID)
	text := strings.TrimSpace(in.Text)
	if userID == "" || text == "" {
		r.observe(in.Channel, RouteEmpty)
		return messaging.Reply{}, false
	}
	span.SetAttributes(attribute.String("autoclinic.user_id", userID))

	if turn, ok := conversation.UserTurn(text); ok {
		if err := r.window.Append(ctx, userID, turn); err != nil {
			r.logger.Warn("failed to append user turn", "user_id", userID, "error", err.Error())
		}
	}

	text, route := r.route(ctx, userID, text, in.Text == r.unpauseToken, strings.TrimSpace(in.DisplayName))
	span.SetAttributes(attribute.String("autoclinic.route", route))
	r.observe(in.Channel, route)
	if text == "" {
		return messaging.Reply{}, false
	}
	return messaging.Reply{RecipientID: in.SenderID, Text: text}, true
}

// route picks the reply for one trimmed message. unpause is true only when
// the untrimmed text is exactly the unpause token.
func (r *Router) route(ctx context.Context, userID, text string, unpause bool, name string) (string, string) {
	if reply, handled, err := r.gate.Handle(ctx, userID, text); handled {
		if err != nil {
			r.logger.Error("operator command failed", "user_id", userID, "error", err.Error())
			return replies.Apology(r.contactPhone), RouteFailure
		}
		return reply, RouteOperator
	}

	st, err := r.store.Get(ctx, userID)
	if err != nil {
		r.logger.Error("failed to load session", "user_id", userID, "error", err.Error())
		return replies.Apology(r.contactPhone), RouteFailure
	}
	if st == nil {
		st = &session.State{UserID: userID, Mode: session.ModeMenu}
		if err := r.store.Save(ctx, userID, session.Patch{Mode: session.Ptr(session.ModeMenu)}); err != nil {
			r.logger.Warn("failed to create session", "user_id", userID, "error", err.Error())
		}
	}

	if unpause {
		if err := r.store.Save(ctx, userID, session.Patch{PausedForHuman: session.Ptr(false)}); err != nil {
			r.logger.Error("failed to clear pause flag", "user_id", userID, "error", err.Error())
			return replies.Apology(r.contactPhone), RouteFailure
		}
		r.logger.Info("bot reactivated by customer", "user_id", userID)
		return replies.Reactivated(name), RouteUnpause
	}
	if st.PausedForHuman {
		return "", RoutePaused
	}

	lower := strings.ToLower(text)

	if st.InWizard() || matchesBookingTrigger(lower) {
		reply, err := r.wizard.Handle(ctx, st, text, name, r.catalog)
		if err != nil {
			r.logger.Error("reservation step failed", "user_id", userID, "error", err.Error())
			return replies.Apology(r.contactPhone), RouteFailure
		}
		return reply, RouteWizard
	}

	if st.InAIMode() {
		if _, ok := aiExitWords[lower]; ok {
			r.clear(ctx, userID)
			return replies.MainMenu(name), RouteAIExit
		}
		topic := ""
		if st.Mode == session.ModeAITopic {
			topic = st.Topic
			if topic == "" {
				topic = session.TopicServices
			}
		}
		return r.converse(ctx, st, text, name, topic) + replies.AIExitHint, RouteAI
	}

	if st.Mode == session.ModeAfterPackages {
		switch lower {
		case "1":
			return r.startWizard(ctx, userID, name)
		case "2":
			r.clear(ctx, userID)
			return replies.MainMenu(name), RouteMenu
		}
		if err := r.store.Save(ctx, userID, session.Patch{Mode: session.Ptr(session.ModeMenu)}); err != nil {
			r.logger.Warn("failed to leave package listing", "user_id", userID, "error", err.Error())
		}
	}

	if reply, route, ok := r.menu(ctx, userID, lower, name); ok {
		return reply, route
	}

	return r.converse(ctx, st, text, name, ""), RouteFallback
}

func (r *Router) menu(ctx context.Context, userID, lower, name string) (string, string, bool) {
	switch lower {
	case "1", "reservar":
		reply, route := r.startWizard(ctx, userID, name)
		return reply, route, true

	case "2", "mis reservaciones":
		list, err := r.bookings.Recent(ctx, userID, recentBookingsLimit)
		if err != nil {
			r.logger.Error("failed to list bookings", "user_id", userID, "error", err.Error())
			return replies.BookingsUnavailable(name), RouteMenu, true
		}
		return replies.MyBookings(list, name), RouteMenu, true

	case "3", "servicios":
		return r.enterAI(ctx, userID, session.ModeAITopic, session.TopicServices, replies.ServicesIntro(name)), RouteMenu, true

	case "4", "combos":
		if err := r.store.Save(ctx, userID, session.Patch{Mode: session.Ptr(session.ModeAfterPackages)}); err != nil {
			r.logger.Warn("failed to save package listing mode", "user_id", userID, "error", err.Error())
		}
		return replies.Packages(r.catalog, name), RouteMenu, true

	case "5", "bar":
		return replies.BarMenu(r.catalog, name), RouteMenu, true

	case "6", "ubicación", "ubicacion", "horarios":
		company := catalog.DefaultCompany
		if r.catalog != nil {
			company = r.catalog.Company
		}
		return replies.Location(company, name), RouteMenu, true

	case "7", "alexa":
		return r.enterAI(ctx, userID, session.ModeAIFreeform, "", replies.AlexaIntro(name)), RouteMenu, true

	case "8", "humano", "agente humano":
		return r.handoff(ctx, userID, name), RouteHandoff, true

	case "menu", "menú", "hola", "inicio", "salir", "volver":
		return replies.MainMenu(name), RouteMenu, true
	}
	return "", "", false
}

func (r *Router) startWizard(ctx context.Context, userID, name string) (string, string) {
	reply, err := r.wizard.Start(ctx, userID, name)
	if err != nil {
		r.logger.Error("failed to start reservation", "user_id", userID, "error", err.Error())
		return replies.Apology(r.contactPhone), RouteFailure
	}
	return reply, RouteWizard
}

func (r *Router) enterAI(ctx context.Context, userID string, mode session.Mode, topic, intro string) string {
	patch := session.Patch{Mode: session.Ptr(mode), Topic: session.Ptr(topic), AwaitingCode: session.Ptr(false)}
	if err := r.store.Save(ctx, userID, patch); err != nil {
		r.logger.Error("failed to enter ai mode", "user_id", userID, "mode", string(mode), "error", err.Error())
		return replies.Apology(r.contactPhone)
	}
	return intro
}

func (r *Router) handoff(ctx context.Context, userID, name string) string {
	if err := r.store.Save(ctx, userID, session.Patch{PausedForHuman: session.Ptr(true)}); err != nil {
		r.logger.Error("failed to pause for handoff", "user_id", userID, "error", err.Error())
		return replies.Apology(r.contactPhone)
	}
	r.logger.Info("customer handed off to staff", "user_id", userID)
	if r.notifier != nil {
		if err := r.notifier.NotifyHandoff(ctx, userID, name); err != nil {
			r.logger.Warn("failed to notify staff of handoff", "user_id", userID, "error", err.Error())
		}
	}
	return replies.Handoff(r.unpauseToken)
}

// converse asks the assistant and resolves code lookups. topic is empty for
// the general mode, which also sees the customer's bookings.
func (r *Router) converse(ctx context.Context, st *session.State, text, name, topic string) string {
	req := conversation.Request{
		UserID:       st.UserID,
		Message:      text,
		DisplayName:  name,
		Topic:        topic,
		AwaitingCode: st.AwaitingCode,
		Catalog:      r.catalog,
	}
	if topic == "" {
		list, err := r.bookings.Recent(ctx, st.UserID, recentBookingsLimit)
		if err != nil {
			r.logger.Warn("bookings unavailable for prompt", "user_id", st.UserID, "error", err.Error())
		}
		req.Bookings = list
	}

	res := r.assistant.Respond(ctx, req)
	if res.Kind != conversation.KindLookup {
		return res.Text
	}
	return r.lookup(ctx, st.UserID, res.Code)
}

func (r *Router) lookup(ctx context.Context, userID, code string) string {
	b, err := r.bookings.Lookup(ctx, code)
	switch {
	case err == nil && b != nil:
		return replies.StatusCard(b)
	case err == nil || errors.Is(err, bookings.ErrNotFound):
		if err := r.store.Save(ctx, userID, session.Patch{AwaitingCode: session.Ptr(true)}); err != nil {
			r.logger.Warn("failed to save awaiting-code flag", "user_id", userID, "error", err.Error())
		}
		return replies.LookupMiss(code)
	default:
		r.logger.Error("booking lookup failed", "user_id", userID, "code", code, "error", err.Error())
		return replies.Apology(r.contactPhone)
	}
}

func (r *Router) clear(ctx context.Context, userID string) {
	if err := r.store.Clear(ctx, userID); err != nil {
		r.logger.Warn("failed to reset session", "user_id", userID, "error", err.Error())
	}
}

func (r *Router) observe(channel, route string) {
	if r.observer != nil {
		r.observer.ObserveInbound(channel, route)
	}
}

// ForcePause sets or clears the hand-off flag for a customer. It returns the
// normalized id that was written.
func (r *Router) ForcePause(ctx context.Context, phone string, paused bool) (string, error) {
	return r.gate.SetPaused(ctx, phone, paused)
}

// ListPaused returns the customers currently handed off to staff.
func (r *Router) ListPaused(ctx context.Context) ([]string, error) {
	return r.gate.ListPaused(ctx)
}

func matchesBookingTrigger(lower string) bool {
	for _, kw := range bookingTriggers {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
