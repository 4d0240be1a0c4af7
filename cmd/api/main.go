package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/devdanielvaldez/autoclinic-bot/cmd/mainconfig"
	"github.com/devdanielvaldez/autoclinic-bot/internal/api/router"
	"github.com/devdanielvaldez/autoclinic-bot/internal/app/bootstrap"
	appconfig "github.com/devdanielvaldez/autoclinic-bot/internal/config"
	"github.com/devdanielvaldez/autoclinic-bot/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting autoclinic-bot API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clients, cleanup, err := mainconfig.OpenClients(ctx, cfg, logger)
	defer cleanup()
	if err != nil {
		logger.Error("failed to open backends", "error", err)
		os.Exit(1)
	}

	reg, metricsHandler := setupMetrics()
	app, err := bootstrap.Build(ctx, cfg, clients, reg, logger)
	if err != nil {
		logger.Error("failed to build app", "error", err)
		os.Exit(1)
	}

	srv := newServer(cfg, app, metricsHandler, logger)

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// setupMetrics returns a dedicated registry with the process collectors and
// the handler that exposes it.
func setupMetrics() (*prometheus.Registry, http.Handler) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg, promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func newServer(cfg *appconfig.Config, app *bootstrap.App, metricsHandler http.Handler, logger *logging.Logger) *http.Server {
	handler := router.New(&router.Config{
		Logger:             logger,
		MessagingHandler:   app.Messaging,
		AdminHandler:       app.Admin,
		MetricsHandler:     metricsHandler,
		AdminJWTSecret:     cfg.AdminJWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		APIRateLimit:       cfg.APIRateLimit,
		APIRateBurst:       cfg.APIRateBurst,
	})
	// The webhook waits on the generator, so writes get more room than reads.
	return &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
