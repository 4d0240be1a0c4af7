package conversation

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/devdanielvaldez/autoclinic-bot/internal/bookings"
	"github.com/devdanielvaldez/autoclinic-bot/internal/catalog"
	"github.com/devdanielvaldez/autoclinic-bot/internal/confirmation"
	"github.com/devdanielvaldez/autoclinic-bot/internal/replies"
	"github.com/devdanielvaldez/autoclinic-bot/internal/session"
	"github.com/devdanielvaldez/autoclinic-bot/pkg/logging"
)

var assistantTracer = otel.Tracer("autoclinic.internal.conversation")

// ResultKind tags what the router must do with an assistant result.
type ResultKind int

const (
	// KindReply carries literal text for the customer.
	KindReply ResultKind = iota
	// KindLookup asks the router to look up Code and render its status.
	KindLookup
)

// Result is the tagged outcome of one assistant turn.
type Result struct {
	Kind ResultKind
	Text string
	Code string
}

func replyResult(text string) Result { return Result{Kind: KindReply, Text: text} }

func lookupResult(code string) Result { return Result{Kind: KindLookup, Code: code} }

// Request is one inbound message handed to the assistant. Topic is empty for
// the general mode.
type Request struct {
	UserID       string
	Message      string
	DisplayName  string
	Topic        string
	AwaitingCode bool
	Catalog      *catalog.Snapshot
	Bookings     []bookings.Booking
}

// FlagSaver persists the awaiting-code flag.
type FlagSaver interface {
	Save(ctx context.Context, userID string, patch session.Patch) error
}

// GeneratorObserver receives one observation per generator call.
type GeneratorObserver interface {
	ObserveGenerator(backend, outcome string, elapsed time.Duration)
}

// AssistantConfig tunes the generator call.
type AssistantConfig struct {
	Timeout      time.Duration
	MaxTokens    int
	WindowSize   int
	ContactPhone string
}

const (
	CodeRequestText = "🔍 *Consulta de Estado de Lavado*\n\n" +
		"Para verificar el estado de lavado de tu vehículo, necesito tu *código de confirmación*.\n\n" +
		"Este código lo recibiste cuando agendaste tu cita y tiene el formato: *AC40686909Z3HM*\n\n" +
		"*Por favor, escribe tu código de confirmación:*"
	InvalidCodeText = "❌ El formato no parece ser un código de confirmación válido. " +
		"Los códigos tienen el formato: *AC40686909Z3HM* (12 caracteres después de AC)\n\n" +
		"*Por favor, escribe tu código de confirmación nuevamente:*"
	EmptyReplyText = "Entiendo tu pregunta. ¿En qué más puedo ayudarte?"

	defaultGeneratorTimeout = 30 * time.Second
	generatorTemperature    = 0.7
	generatorTopP           = 0.9
)

var statusKeywords = []string{
	"proceso", "lavado", "vehículo", "carro", "auto", "terminaron", "listo",
	"cuándo", "cuando", "pasar a buscar", "recoger", "estado", "cómo va",
	"como va", "avance", "progress", "terminado", "finalizado", "listo mi carro",
	"listo mi auto", "listo el vehículo", "puedo buscar", "está listo",
	"esta listo", "ya terminaron", "cuando lo tengo", "mi vehiculo", "mi carro",
	"mi auto", "está mi carro", "esta mi carro",
}

var (
	thinkBlock    = regexp.MustCompile(`(?is)<think>.*?</think>`)
	danglingThink = regexp.MustCompile(`(?is)<think>.*$`)
)

// Assistant is the bridge between the router and the text generator. It never
// reads bookings itself; code lookups come back as KindLookup.
type Assistant struct {
	client   LLMClient
	window   Window
	flags    FlagSaver
	logger   *logging.Logger
	cfg      AssistantConfig
	observer GeneratorObserver
}

// NewAssistant wires the generator, the context window and the flag store.
func NewAssistant(client LLMClient, window Window, flags FlagSaver, cfg AssistantConfig, logger *logging.Logger) *Assistant {
	if client == nil {
		panic("conversation: llm client cannot be nil")
	}
	if window == nil {
		panic("conversation: context window cannot be nil")
	}
	if flags == nil {
		panic("conversation: flag saver cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultGeneratorTimeout
	}
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = DefaultWindowSize
	}
	if strings.TrimSpace(cfg.ContactPhone) == "" {
		cfg.ContactPhone = catalog.DefaultCompany.Contact.Phone
	}
	return &Assistant{client: client, window: window, flags: flags, logger: logger, cfg: cfg}
}

// WithObserver attaches a generator observer, typically the chat metrics.
func (a *Assistant) WithObserver(o GeneratorObserver) *Assistant {
	a.observer = o
	return a
}

// Respond runs one message through the code-request shortcuts and, failing
// those, the generator. Errors never escape; they become an apology.
func (a *Assistant) Respond(ctx context.Context, req Request) Result {
	ctx, span := assistantTracer.Start(ctx, "conversation.respond")
	defer span.End()
	span.SetAttributes(
		attribute.String("autoclinic.user_id", req.UserID),
		attribute.Bool("autoclinic.topic_mode", req.Topic != ""),
	)

	message := strings.TrimSpace(req.Message)

	if req.AwaitingCode {
		if confirmation.LooksLikeCode(message) {
			a.saveAwaiting(ctx, req.UserID, false)
			return lookupResult(confirmation.Normalize(message))
		}
		// The flag is cleared and set again in one write.
		a.saveAwaiting(ctx, req.UserID, true)
		return replyResult(InvalidCodeText)
	}

	if matchesStatusInquiry(message) {
		a.saveAwaiting(ctx, req.UserID, true)
		return replyResult(CodeRequestText)
	}

	if confirmation.LooksLikeCode(message) {
		return lookupResult(confirmation.Normalize(message))
	}

	guard := ScanForPromptInjection(message)
	if guard.Blocked {
		a.logger.Warn("inbound message blocked by prompt guard",
			"user_id", req.UserID,
			"score", guard.Score,
			"reasons", strings.Join(guard.Reasons, ","),
		)
		return replyResult(BlockedReplyText)
	}
	message = guard.Sanitized

	text, err := a.generate(ctx, req, message)
	if err != nil {
		span.RecordError(err)
		a.logger.Error("generator call failed",
			"user_id", req.UserID,
			"backend", clientName(a.client),
			"error", err.Error(),
		)
		return replyResult(a.apology(req.Catalog))
	}

	if confirmation.LooksLikeCode(text) {
		return lookupResult(confirmation.Normalize(text))
	}

	if err := a.window.Append(ctx, req.UserID, Turn{Role: ChatRoleAssistant, Text: text}); err != nil {
		a.logger.Warn("failed to append assistant turn", "user_id", req.UserID, "error", err.Error())
	}
	return replyResult(text)
}

func (a *Assistant) generate(ctx context.Context, req Request, message string) (string, error) {
	recent, err := a.window.Recent(ctx, req.UserID, a.cfg.WindowSize)
	if err != nil {
		a.logger.Warn("context window unavailable", "user_id", req.UserID, "error", err.Error())
		recent = nil
	}

	llmReq := LLMRequest{
		System:      buildSystemPrompt(req),
		Messages:    buildMessages(recent, message),
		MaxTokens:   int32(a.cfg.MaxTokens),
		Temperature: generatorTemperature,
		TopP:        generatorTopP,
	}

	callCtx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := a.client.Complete(callCtx, llmReq)
	elapsed := time.Since(start)
	if err != nil {
		outcome := "error"
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			outcome = "timeout"
			err = fmt.Errorf("conversation: generator timed out after %s: %w", a.cfg.Timeout, err)
		}
		a.observe(outcome, elapsed)
		return "", err
	}

	text, leaked := cleanReply(resp.Text)
	if leaked {
		a.logger.Warn("generator reply withheld by output guard", "user_id", req.UserID)
	}
	a.logger.Debug("generator replied",
		"user_id", req.UserID,
		"backend", clientName(a.client),
		"elapsed_ms", elapsed.Milliseconds(),
		"output_tokens", resp.Usage.OutputTokens,
	)
	if text == EmptyReplyText {
		a.observe("empty", elapsed)
	} else {
		a.observe("ok", elapsed)
	}
	return text, nil
}

func (a *Assistant) saveAwaiting(ctx context.Context, userID string, awaiting bool) {
	if err := a.flags.Save(ctx, userID, session.Patch{AwaitingCode: session.Ptr(awaiting)}); err != nil {
		a.logger.Error("failed to save awaiting-code flag", "user_id", userID, "awaiting", awaiting, "error", err.Error())
	}
}

func (a *Assistant) apology(snap *catalog.Snapshot) string {
	phone := a.cfg.ContactPhone
	if snap != nil && strings.TrimSpace(snap.Company.Contact.Phone) != "" {
		phone = snap.Company.Contact.Phone
	}
	return replies.Apology(phone)
}

func (a *Assistant) observe(outcome string, elapsed time.Duration) {
	if a.observer != nil {
		a.observer.ObserveGenerator(clientName(a.client), outcome, elapsed)
	}
}

// StripReasoning removes <think> segments, including one left open by a
// truncated completion.
func StripReasoning(text string) string {
	text = thinkBlock.ReplaceAllString(text, "")
	text = danglingThink.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// cleanReply strips reasoning and withholds leaking replies. It never
// returns an empty string.
func cleanReply(raw string) (string, bool) {
	text := StripReasoning(raw)
	if text == "" {
		return EmptyReplyText, false
	}
	guard := ScanOutputForLeaks(text)
	if !guard.Leaked {
		return text, false
	}
	if strings.TrimSpace(guard.Sanitized) == "" {
		return EmptyReplyText, true
	}
	return strings.TrimSpace(guard.Sanitized), true
}

func matchesStatusInquiry(message string) bool {
	lower := strings.ToLower(message)
	for _, kw := range statusKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
