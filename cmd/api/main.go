package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/braidbook/cmd/mainconfig"
	"github.com/wolfman30/braidbook/internal/api/router"
	"github.com/wolfman30/braidbook/internal/app/bootstrap"
	"github.com/wolfman30/braidbook/internal/appointments"
	"github.com/wolfman30/braidbook/internal/availability"
	"github.com/wolfman30/braidbook/internal/calendar"
	"github.com/wolfman30/braidbook/internal/catalog"
	appconfig "github.com/wolfman30/braidbook/internal/config"
	"github.com/wolfman30/braidbook/internal/events"
	httpmiddleware "github.com/wolfman30/braidbook/internal/http/middleware"
	"github.com/wolfman30/braidbook/internal/observability/metrics"
	"github.com/wolfman30/braidbook/internal/settings"
	"github.com/wolfman30/braidbook/pkg/logging"
)

func main() {
	// Local runs read .env; deployed environments set real variables.
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting braidbook API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"timezone", cfg.BusinessTimezone,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, err := bootstrap.BuildStores(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build stores", "error", err)
		os.Exit(1)
	}
	defer stores.Close()

	metricsHandler, bookingMetrics := setupMetrics()
	loc := cfg.Location()

	slots := availability.NewService(
		stores.Calendar,
		availability.JoinLedger(stores.Appointments, stores.Calendar),
		stores.Settings,
		loc,
		logger,
	).WithMetrics(bookingMetrics)
	lifecycle := appointments.NewService(stores.Appointments, stores.Catalog, stores.Clients, stores.Settings, logger).
		WithMetrics(bookingMetrics)

	delivery, err := setupEventDelivery(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to set up event delivery", "error", err)
		os.Exit(1)
	}
	deliverer := events.NewDeliverer(stores.Outbox, delivery, logger).WithInterval(cfg.OutboxPollInterval)
	go deliverer.Start(ctx)

	limiter := httpmiddleware.NewRateLimiter(cfg.PublicRateLimitRPS, cfg.PublicRateLimitBurst)
	go limiter.Run(ctx)

	r := router.New(&router.Config{
		Logger:             logger,
		Availability:       availability.NewHandler(slots, logger),
		Appointments:       appointments.NewHandler(lifecycle, loc, logger),
		Calendar:           calendar.NewHandler(stores.Calendar, logger),
		Catalog:            catalog.NewHandler(stores.Catalog, logger),
		Settings:           settings.NewHandler(stores.Settings, logger),
		AdminAuthSecret:    cfg.AdminJWTSecret,
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		PublicLimiter:      limiter,
	})
	if cfg.AdminJWTSecret == "" {
		logger.Warn("ADMIN_JWT_SECRET is empty; admin endpoints will reject every request")
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	// Flush whatever committed after the last poll.
	deliverer.Drain(shutdownCtx)

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

func setupMetrics() (http.Handler, *metrics.BookingMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), metrics.NewBookingMetrics(reg)
}

// setupEventDelivery publishes to SQS when EVENTS_QUEUE_URL is set and logs
// events otherwise.
func setupEventDelivery(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (events.DeliveryHandler, error) {
	if cfg.EventsQueueURL == "" {
		logger.Info("EVENTS_QUEUE_URL not set; appointment events will be logged only")
		return events.NewLogDelivery(logger), nil
	}
	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return events.NewSQSDelivery(mainconfig.NewSQSClient(awsCfg, cfg), cfg.EventsQueueURL), nil
}
