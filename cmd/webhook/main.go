package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookhook/internal/api"
	"bookhook/internal/config"
	"bookhook/internal/events"
	"bookhook/internal/logging"
	"bookhook/internal/metrics"
	"bookhook/internal/service"
	"bookhook/internal/sheets"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, baseLogger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	// Components tag their own child loggers; only main's lines carry component=main.
	logger := logging.Component(baseLogger, "main")
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sink, err := sheets.New(ctx, cfg.Sheet)
	if err != nil {
		logger.Error().Err(err).Str("mode", cfg.Sheet.Mode).Msg("init sheet sink")
		return err
	}
	if cfg.Sheet.Mode == config.SheetModeAppsScript && cfg.Sheet.URL == "" {
		logger.Warn().Msg("APPS_SCRIPT_URL not set; bookings will be answered with an error reply")
	}

	eventBus := events.NewEventBus()
	subscribeAudit(eventBus, baseLogger)

	webhook := service.NewWebhookService(service.NewClassifier(nil, nil), sink, eventBus, baseLogger)
	httpServer := api.NewHTTPServer(cfg.HTTP, webhook, baseLogger)

	startMetrics(ctx, cfg, &logger)

	return serve(ctx, httpServer, &logger)
}

func loadConfigAndLogger() (*config.Config, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		if _, err := os.Stat("configs/config.yaml"); err == nil {
			configPath = "configs/config.yaml"
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, baseLogger, closer, nil
}

// subscribeAudit writes one line per record that reached the sheet store.
func subscribeAudit(bus *events.EventBus, logger *zerolog.Logger) {
	audit := logging.Component(logger, "audit")
	handler := func(event *events.Event) error {
		var payload events.ForwardedPayload
		if err := event.Decode(&payload); err != nil {
			return err
		}
		audit.Info().
			Str("event", event.Type).
			Str("booking_id", payload.BookingID).
			Str("domain", payload.Domain).
			Str("intent", payload.Intent).
			Msg("record stored")
		return nil
	}
	bus.Subscribe(events.EventBookingForwarded, handler)
	bus.Subscribe(events.EventCancellationForwarded, handler)
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	metrics.Register()
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}
	go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
}

func serve(ctx context.Context, httpServer *api.HTTPServer, logger *zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
		return err
	case <-ctx.Done():
	}
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http shutdown")
	}

	logger.Info().Msg("webhook stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	logger.Info().Int("port", port).Msg("metrics listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
