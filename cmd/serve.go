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

	"github.com/desertthunder/kidsbox/internal/server"
	"github.com/desertthunder/kidsbox/internal/shared"
	"github.com/desertthunder/kidsbox/internal/web"
	"github.com/urfave/cli/v3"
	"golang.org/x/time/rate"
)

const shutdownTimeout = 5 * time.Second

// Serve runs the web app until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if err := r.init(ctx); err != nil {
		return err
	}

	cfg := r.config.Server
	if host := cmd.String("host"); host != "" {
		cfg.Host = host
	}
	if port := cmd.Int("port"); port > 0 {
		cfg.Port = port
	}

	handler, err := r.handler()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Info("starting kidsbox", "addr", cfg.Addr(), "authenticated", r.tokens.IsAuthenticated())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
		close(serverErrors)
	}()

	select {
	case err := <-serverErrors:
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
		}
		return nil
	case <-ctx.Done():
	}

	r.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}

	return nil
}

// handler assembles the router with the web routes and middleware.
func (r *Runner) handler() (http.Handler, error) {
	var limiter *rate.Limiter
	if r.config.Server.PlayRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(r.config.Server.PlayRate), max(r.config.Server.PlayBurst, 1))
	}

	h, err := web.New(web.Opts{
		Auth:        r.tokens,
		Player:      r.spotify,
		PlayLimiter: limiter,
		Logger:      r.logger,
	})
	if err != nil {
		return nil, err
	}

	router := server.NewBasicRouter()
	router.Use(server.RequestID(), server.Logging(r.logger))
	h.Register(router)

	r.logger.Debug("registered routes", "routes", router.Routes())

	return router, nil
}
