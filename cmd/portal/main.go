package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vitalcare/clinic-portal/internal/app/bootstrap"
	"github.com/vitalcare/clinic-portal/internal/appointments"
	"github.com/vitalcare/clinic-portal/internal/clinicapi"
	appconfig "github.com/vitalcare/clinic-portal/internal/config"
	"github.com/vitalcare/clinic-portal/internal/notifications"
	"github.com/vitalcare/clinic-portal/internal/observability/metrics"
	"github.com/vitalcare/clinic-portal/internal/session"
	"github.com/vitalcare/clinic-portal/internal/web"
	"github.com/vitalcare/clinic-portal/pkg/logging"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting clinic portal",
		"env", cfg.Env,
		"port", cfg.Port,
		"clinic_api", cfg.ClinicAPIBaseURL,
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	portalMetrics := metrics.NewPortalMetrics(registry)

	queue := notifications.NewQueue(cfg.NotificationTTL)
	queue.SetObserver(portalMetrics)

	apiClient := clinicapi.NewClient(cfg.ClinicAPIBaseURL, logger,
		clinicapi.WithTimeout(cfg.ClinicAPITimeout),
		clinicapi.WithObserver(portalMetrics),
	)
	repo := appointments.NewRepository(apiClient, queue, logger)

	var persister session.Persister
	if redisClient := bootstrap.BuildRedisClient(context.Background(), cfg, logger, true); redisClient != nil {
		persister = session.NewRedisPersister(redisClient)
	}
	store := session.NewStore(apiClient, persister, bootstrap.SessionSecret(cfg, logger), queue, logger)
	store.OnLogout(repo.Reset)
	store.OnLogout(queue.Reset)

	restoreCtx, cancelRestore := context.WithTimeout(context.Background(), 5*time.Second)
	store.Restore(restoreCtx)
	cancelRestore()

	handler := web.New(&web.Config{
		Logger:         logger,
		Session:        store,
		Repo:           repo,
		Notifications:  queue,
		Doctors:        apiClient,
		Metrics:        portalMetrics,
		Gatherer:       registry,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
