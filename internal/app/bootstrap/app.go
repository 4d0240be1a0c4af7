package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/devdanielvaldez/autoclinic-bot/internal/bookings"
	"github.com/devdanielvaldez/autoclinic-bot/internal/catalog"
	appconfig "github.com/devdanielvaldez/autoclinic-bot/internal/config"
	"github.com/devdanielvaldez/autoclinic-bot/internal/conversation"
	"github.com/devdanielvaldez/autoclinic-bot/internal/dispatch"
	"github.com/devdanielvaldez/autoclinic-bot/internal/http/handlers"
	"github.com/devdanielvaldez/autoclinic-bot/internal/messaging"
	"github.com/devdanielvaldez/autoclinic-bot/internal/observability/metrics"
	"github.com/devdanielvaldez/autoclinic-bot/internal/operator"
	"github.com/devdanielvaldez/autoclinic-bot/internal/reservation"
	"github.com/devdanielvaldez/autoclinic-bot/internal/session"
	"github.com/devdanielvaldez/autoclinic-bot/pkg/logging"
)

// Clients carries the external connections opened by a binary. Nil fields
// are fine as long as the configured backends do not need them.
type Clients struct {
	Redis     *redis.Client
	Dynamo    *dynamodb.Client
	Postgres  *pgxpool.Pool
	Firestore *firestore.Client
	Bedrock   *bedrockruntime.Client
	SES       *sesv2.Client

	// Generator replaces the provider named by LLM_PROVIDER when set.
	Generator conversation.LLMClient
}

// App is the fully wired message pipeline shared by the HTTP and bus binaries.
type App struct {
	Dispatcher *dispatch.Router
	Messaging  *messaging.Handler
	Admin      *handlers.AdminHandler
	Metrics    *metrics.ChatMetrics
	Catalog    *catalog.Snapshot
	Sessions   session.Store
}

// Build assembles stores, generator, wizard, operator gate and router.
func Build(ctx context.Context, cfg *appconfig.Config, clients Clients, reg prometheus.Registerer, logger *logging.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	chatMetrics := metrics.NewChatMetrics(reg)

	store, err := BuildSessionStore(cfg, clients.Redis, clients.Dynamo, logger)
	if err != nil {
		return nil, err
	}
	window := BuildWindow(cfg, clients.Redis)

	repo, err := BuildBookingsRepository(cfg, clients.Postgres, clients.Firestore, logger)
	if err != nil {
		return nil, err
	}
	bookingSvc := bookings.NewService(repo, logger.Component("bookings"))

	snap := LoadCatalog(ctx, cfg, clients.Firestore, logger)
	contactPhone := strings.TrimSpace(snap.Company.Contact.Phone)
	if contactPhone == "" {
		contactPhone = cfg.ContactPhoneFallback
	}

	generator := clients.Generator
	if generator == nil {
		generator, err = BuildGenerator(ctx, cfg, clients.Bedrock, logger)
		if err != nil {
			return nil, err
		}
	}
	assistant := conversation.NewAssistant(generator, window, store, conversation.AssistantConfig{
		Timeout:      cfg.GeneratorTimeout,
		MaxTokens:    cfg.GeneratorMaxTokens,
		WindowSize:   cfg.ContextWindowSize,
		ContactPhone: contactPhone,
	}, logger.Component("assistant")).WithObserver(chatMetrics)

	wizard := reservation.NewWizard(store, bookingSvc, contactPhone, logger.Component("reservation")).WithObserver(chatMetrics)

	dispatcher := dispatch.NewRouter(dispatch.Options{
		Store:        store,
		Window:       window,
		Wizard:       wizard,
		Assistant:    assistant,
		Bookings:     bookingSvc,
		Gate:         operator.NewGate(store, cfg.OperatorNumbers, logger.Component("operator")),
		Catalog:      snap,
		Notifier:     BuildHandoffNotifier(cfg, clients.SES, logger.Component("notify")),
		UnpauseToken: cfg.UnpauseToken,
		ContactPhone: contactPhone,
		Logger:       logger.Component("dispatch"),
	}).WithObserver(chatMetrics)

	webhookSecret := cfg.TwilioAuthToken
	if cfg.TwilioSkipSignature {
		logger.Warn("twilio signature validation disabled")
		webhookSecret = ""
	}

	return &App{
		Dispatcher: dispatcher,
		Messaging:  messaging.NewHandler(webhookSecret, dispatcher, logger.Component("messaging")).WithObserver(chatMetrics),
		Admin:      handlers.NewAdminHandler(dispatcher, bookingSvc, logger.Component("admin")),
		Metrics:    chatMetrics,
		Catalog:    snap,
		Sessions:   store,
	}, nil
}
