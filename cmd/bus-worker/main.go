package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/devdanielvaldez/autoclinic-bot/cmd/mainconfig"
	"github.com/devdanielvaldez/autoclinic-bot/internal/app/bootstrap"
	appconfig "github.com/devdanielvaldez/autoclinic-bot/internal/config"
	"github.com/devdanielvaldez/autoclinic-bot/internal/messaging/natsbus"
	"github.com/devdanielvaldez/autoclinic-bot/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clients, cleanup, err := mainconfig.OpenClients(ctx, cfg, logger)
	defer cleanup()
	if err != nil {
		logger.Error("failed to open backends", "error", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	app, err := bootstrap.Build(ctx, cfg, clients, reg, logger)
	if err != nil {
		logger.Error("failed to build app", "error", err)
		os.Exit(1)
	}

	worker, err := natsbus.Connect(natsbus.Config{
		URL:        cfg.NatsURL,
		Name:       "autoclinic-bus-worker",
		Subject:    cfg.NatsSubject,
		QueueGroup: cfg.NatsQueueGroup,
		Timeout:    cfg.NatsTimeout,
	}, app.Dispatcher, logger)
	if err != nil {
		logger.Error("failed to connect nats", "error", err)
		os.Exit(1)
	}
	if err := worker.Start(); err != nil {
		logger.Error("failed to subscribe", "error", err)
		os.Exit(1)
	}

	// Metrics only; inbound traffic arrives over the bus.
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("bus worker shutting down")

	if err := worker.Close(); err != nil {
		logger.Warn("failed to drain nats connection", "error", err)
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
