package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/complyops/compliance-gateway/internal/billing"
	"github.com/complyops/compliance-gateway/internal/config"
	"github.com/complyops/compliance-gateway/internal/evidence"
	"github.com/complyops/compliance-gateway/internal/gateway"
	"github.com/complyops/compliance-gateway/internal/monitoring"
	"github.com/complyops/compliance-gateway/internal/session"
	"github.com/complyops/compliance-gateway/internal/store"
	"github.com/complyops/compliance-gateway/internal/utils"
)

const shutdownGrace = 10 * time.Second

// run wires the gateway together and serves until SIGINT/SIGTERM.
func run(configPath string, log zerolog.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	db, err := store.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer db.Close()

	sessions := session.NewResolver(cfg.Auth.ProviderURL, cfg.Auth.PublicKey, cfg.Auth.SessionCookie, cfg.Auth.Timeout)
	billingSvc := billing.NewService(db, cfg.Billing)
	metrics := monitoring.NewMetrics()

	opts := []gateway.Option{gateway.WithMetrics(metrics)}
	if cfg.Evidence.Bucket != "" {
		presigner, err := evidence.New(context.Background(), cfg.Evidence)
		if err != nil {
			return fmt.Errorf("initializing evidence presigner: %w", err)
		}
		opts = append(opts, gateway.WithPresigner(presigner))
		log.Info().Str("bucket", cfg.Evidence.Bucket).Msg("evidence presigner enabled")
	}

	gw := gateway.New(cfg, sessions, billingSvc, log, opts...)

	mux := http.NewServeMux()
	mux.Handle("/", gw.Handler())
	mux.Handle("GET /metrics", monitoring.LoopbackOnly(metrics.Handler()))

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	log.Info().
		Str("addr", cfg.Server.Addr).
		Bool("upstream_configured", cfg.UpstreamConfigured()).
		Bool("auth_configured", sessions.Configured()).
		Bool("billing_configured", billingSvc.Configured()).
		Str("stripe_key", utils.MaskKey(cfg.Billing.StripeSecretKey)).
		Msg("gateway starting")
	if cfg.Debug.AuthCheck {
		log.Warn().Msg("debug auth-check endpoint is enabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
