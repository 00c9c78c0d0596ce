// Command fakegateway serves the in-memory fake of the gateway API over HTTP
// for local development against the client or btctl.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"braintree/internal/platform/config"
	"braintree/internal/platform/health"
	"braintree/internal/platform/logger"
	"braintree/internal/platform/metrics"
	"braintree/internal/platform/middleware"
	"braintree/pkg/braintree"
	"braintree/pkg/gatewaytest"
)

func main() {
	cfg, err := config.FakeGatewayFromEnv()
	if err != nil {
		logger.New(config.DefaultLogLevel).Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	opts := []gatewaytest.Option{gatewaytest.WithLogger(log)}
	if cfg.SigningKey != "" {
		opts = append(opts, gatewaytest.WithSigningKey([]byte(cfg.SigningKey)))
	}
	fake, err := gatewaytest.New(cfg.MerchantID, cfg.PublicKey, cfg.PrivateKey, opts...)
	if err != nil {
		log.Error("invalid merchant credentials", "error", err)
		os.Exit(1)
	}

	var draining atomic.Bool
	checks := health.New("sandbox", braintree.Version)
	checks.RegisterCheck("accepting", func(context.Context) error {
		if draining.Load() {
			return errors.New("shutting down")
		}
		return nil
	})
	checks.RegisterCheck("store", fake.Ready)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	r := chi.NewRouter()
	r.Use(middleware.Recovery(log), middleware.RequestID, middleware.Logger(log), m.Instrument,
		middleware.BodyLimit(cfg.MaxBodyBytes))
	checks.Register(r)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	fake.Register(r)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	go func() {
		log.Info("starting fake gateway",
			"addr", cfg.Addr,
			"merchant_id", cfg.MerchantID,
			"public_key", cfg.PublicKey,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	draining.Store(true)
	log.Info("shutting down fake gateway", "requests", fake.Requests())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
