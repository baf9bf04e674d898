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

	"github.com/desertthunder/zenithx/internal/repositories"
	"github.com/desertthunder/zenithx/internal/server"
	"github.com/desertthunder/zenithx/internal/services"
	"github.com/desertthunder/zenithx/internal/shared"
	"github.com/urfave/cli/v3"
)

const shutdownTimeout = 10 * time.Second

// gateway assembles the HTTP handler and returns a cleanup func for the resources it opened.
func (r *Runner) gateway(ctx context.Context) (http.Handler, func(), error) {
	cfg := r.config
	if cfg.Auth.JWTSecret == "" {
		return nil, nil, fmt.Errorf("%w: auth.jwt_secret or ZENITHX_JWT_SECRET is required", shared.ErrMissingCredentials)
	}

	store, err := repositories.Open(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	closers := []func() error{store.Close}

	provider := r.provider
	if cfg.Cache.RedisURL != "" {
		cache, err := services.NewRedisCacheFromURL(ctx, cfg.Cache.RedisURL, cfg.Cache.TTL())
		if err != nil {
			r.logger.Warn("search cache disabled", "error", err)
		} else {
			closers = append(closers, cache.Close)
			provider = services.NewCachedProvider(provider, cache, r.logger)
		}
	}
	if !services.IsConfigured(provider) {
		r.logger.Warn("search provider has no API key; /api/search will answer 500", "provider", provider.Name())
	}

	handler, err := server.NewGateway(server.GatewayOpts{
		Provider:       provider,
		PageSize:       cfg.Search.PageSize,
		Store:          store,
		Auth:           server.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL()),
		Logger:         r.logger,
		CORSOrigin:     cfg.Server.CORSOrigin,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		RequestTimeout: cfg.Server.RequestTimeout(),
	})
	cleanup := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				r.logger.Warn("failed to close resource", "error", err)
			}
		}
	}
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return handler, cleanup, nil
}

// Serve runs the search and document gateway until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	addr := r.config.Server.Addr()
	if a := cmd.String("addr"); a != "" {
		addr = a
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler, cleanup, err := r.gateway(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	r.logger.Info("gateway listening", "addr", addr, "driver", r.config.Database.Driver)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	case <-ctx.Done():
	}

	r.logger.Info("shutting down gateway")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
