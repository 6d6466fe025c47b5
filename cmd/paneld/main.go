package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"patientpanel/internal/notify"
	"patientpanel/internal/panel"
	panelhandler "patientpanel/internal/panel/handler"
	"patientpanel/internal/panel/modal"
	"patientpanel/internal/patient/cache"
	"patientpanel/internal/patient/client"
	"patientpanel/internal/patient/mutation"
	"patientpanel/internal/patient/validate"
	"patientpanel/internal/platform/config"
	"patientpanel/internal/platform/httpserver"
	"patientpanel/internal/platform/logger"
	"patientpanel/internal/platform/metrics"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Orchestration logic lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	transport := client.New(cfg.RecordStoreURL, cfg.RequestTimeout,
		client.WithLogger(log),
		client.WithMetrics(m),
	)

	cacheOpts := []cache.Option{
		cache.WithLogger(log),
		cache.WithMetrics(m),
		cache.WithStaleAfter(cfg.StaleAfter),
		cache.WithRetry(cfg.RetryAttempts, cfg.RetryBaseDelay, cfg.RetryMaxDelay),
	}
	if cfg.RedisURL != "" {
		store, err := cache.NewRedisStore(cfg.RedisURL, cfg.StaleAfter)
		if err != nil {
			log.Error("redis snapshot store disabled", "error", err)
		} else {
			defer store.Close()
			cacheOpts = append(cacheOpts, cache.WithStore(store))
		}
	}
	listCache := cache.New(transport, cacheOpts...)
	defer listCache.Close()

	notifier := notify.New(
		notify.WithLogger(log),
		notify.WithMetrics(m),
		notify.WithDurations(cfg.NotificationDisplay, cfg.NotificationExit),
	)
	defer notifier.Close()

	mutator := mutation.New(transport, listCache, notifier,
		mutation.WithLogger(log),
		mutation.WithMetrics(m),
	)

	// The dialog's focusable ring mirrors the form: four fields and submit.
	surface := modal.NewMemorySurface(
		"field-name", "field-avatar", "field-description", "field-website", "submit-button",
	)
	panelService := panel.New(modal.New(surface), listCache, mutator, validate.New(),
		panel.WithLogger(log),
	)

	router := chi.NewRouter()
	panelhandler.New(panelService, listCache, notifier, log).Register(router)
	router.Handle("/metrics", promhttp.Handler())

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting patient panel", "addr", cfg.Addr, "record_store", cfg.RecordStoreURL)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}
