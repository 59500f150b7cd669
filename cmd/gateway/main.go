package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/h1-hospital/telemetry-gateway/internal/alert"
	"github.com/h1-hospital/telemetry-gateway/internal/fhir"
	"github.com/h1-hospital/telemetry-gateway/internal/gateway"
	"github.com/h1-hospital/telemetry-gateway/internal/monitor"
	"github.com/h1-hospital/telemetry-gateway/internal/risk"
	"github.com/h1-hospital/telemetry-gateway/internal/shared/config"
	"github.com/h1-hospital/telemetry-gateway/internal/shared/logging"
	"github.com/h1-hospital/telemetry-gateway/internal/shared/metrics"
	secmiddleware "github.com/h1-hospital/telemetry-gateway/internal/shared/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Server.LogLevel, cfg.Server.Env)

	builder := fhir.NewBuilder(cfg.Org)
	classifier := risk.NewThresholdClassifier(cfg.Risk)
	store := gateway.NewClient(cfg.FHIR, logger)
	dispatcher := alert.NewDispatcher()
	svc := monitor.NewService(builder, classifier, store, dispatcher, logger)

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(secmiddleware.SecurityHeaders)
	r.Use(metrics.Middleware)

	r.Get("/health", healthHandler)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(secmiddleware.RateLimiter(cfg.Ingest.RateLimitPerSecond, cfg.Ingest.RateLimitBurst))
		r.Mount("/", monitor.NewHandler(svc).Routes())
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().
			Int("port", cfg.Server.Port).
			Str("fhir_store", cfg.FHIR.BaseURL).
			Msg("telemetry gateway listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, `{"status":"ok"}`)
}
