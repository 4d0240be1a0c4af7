package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"github.com/jackc/pgx/v5/pgxpool"
	"google.golang.org/api/option"

	"github.com/devdanielvaldez/autoclinic-bot/internal/bookings"
	"github.com/devdanielvaldez/autoclinic-bot/internal/catalog"
	appconfig "github.com/devdanielvaldez/autoclinic-bot/internal/config"
	"github.com/devdanielvaldez/autoclinic-bot/pkg/logging"
)

// NeedsFirestore reports whether any configured backend reads Firestore.
func NeedsFirestore(cfg *appconfig.Config) bool {
	return cfg != nil && (cfg.BookingsBackend == "firestore" || cfg.CatalogSource == "firestore")
}

// BuildFirestoreClient initializes the Firebase app and returns its Firestore
// client. A credentials file is optional; application default credentials
// are used otherwise.
func BuildFirestoreClient(ctx context.Context, cfg *appconfig.Config) (*firestore.Client, error) {
	var opts []option.ClientOption
	if path := strings.TrimSpace(cfg.FirebaseCredentialsFile); path != "" {
		opts = append(opts, option.WithCredentialsFile(path))
	}
	var fbCfg *firebase.Config
	if cfg.FirebaseProjectID != "" {
		fbCfg = &firebase.Config{ProjectID: cfg.FirebaseProjectID}
	}
	app, err := firebase.NewApp(ctx, fbCfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: firebase app: %w", err)
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: firestore client: %w", err)
	}
	return client, nil
}

// BuildPostgresPool opens the bookings database when the postgres backend is
// selected. It returns nil otherwise.
func BuildPostgresPool(ctx context.Context, cfg *appconfig.Config) (*pgxpool.Pool, error) {
	if cfg == nil || cfg.BookingsBackend != "postgres" {
		return nil, nil
	}
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, fmt.Errorf("bootstrap: postgres bookings backend requires DATABASE_URL")
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: connect postgres: %w", err)
	}
	return pool, nil
}

// BuildBookingsRepository picks the booking store named by BOOKINGS_BACKEND.
func BuildBookingsRepository(cfg *appconfig.Config, pool *pgxpool.Pool, fs *firestore.Client, logger *logging.Logger) (bookings.Repository, error) {
	if logger == nil {
		logger = logging.Default()
	}
	switch cfg.BookingsBackend {
	case "postgres", "":
		if pool == nil {
			return nil, fmt.Errorf("bootstrap: postgres bookings backend requires a pool")
		}
		return bookings.NewPostgresRepository(pool), nil
	case "firestore":
		if fs == nil {
			return nil, fmt.Errorf("bootstrap: firestore bookings backend requires a client")
		}
		return bookings.NewFirestoreRepository(fs), nil
	case "memory":
		logger.Warn("using in-memory bookings; reservations are lost on restart")
		return bookings.NewMemoryRepository(), nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown bookings backend %q", cfg.BookingsBackend)
	}
}

// LoadCatalog reads the reference data once at startup. A failed load falls
// back to an empty snapshot with the default company profile so the menu
// keeps working.
func LoadCatalog(ctx context.Context, cfg *appconfig.Config, fs *firestore.Client, logger *logging.Logger) *catalog.Snapshot {
	if logger == nil {
		logger = logging.Default()
	}
	var loader catalog.Loader
	switch cfg.CatalogSource {
	case "firestore":
		if fs == nil {
			logger.Error("firestore catalog selected without a client; using defaults")
			return &catalog.Snapshot{Company: catalog.DefaultCompany}
		}
		loader = catalog.NewFirestoreLoader(fs)
	default:
		loader = catalog.NewFileLoader(cfg.CatalogFile)
	}

	snap, err := loader.Load(ctx)
	if err != nil {
		logger.Error("failed to load catalog; using defaults", "source", cfg.CatalogSource, "error", err)
		return &catalog.Snapshot{Company: catalog.DefaultCompany}
	}
	logger.Info("catalog loaded",
		"source", cfg.CatalogSource,
		"packages", len(snap.Packages),
		"menu_items", len(snap.Items),
	)
	return snap
}
