package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/desertthunder/kidsbox/internal/server"
	"github.com/desertthunder/kidsbox/internal/shared"
	"github.com/urfave/cli/v3"
)

const loginTimeout = 2 * time.Minute

// AuthURL prints the Spotify authorize URL.
func (r *Runner) AuthURL(ctx context.Context, cmd *cli.Command) error {
	if err := r.init(ctx); err != nil {
		return err
	}
	return r.writePlain("%s\n", r.tokens.AuthorizeURL())
}

// AuthOpen opens the authorize URL in the default browser.
//
// The redirect lands on the running web app's /callback.
func (r *Runner) AuthOpen(ctx context.Context, cmd *cli.Command) error {
	if err := r.init(ctx); err != nil {
		return err
	}

	authURL := r.tokens.AuthorizeURL()
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warn("failed to open browser automatically", "error", err)
		return r.writePlain("Open this URL in your browser:\n%s\n", authURL)
	}

	return r.writePlain("→ Opened Spotify authorization in your browser\n")
}

// AuthStatus reports whether a refresh token is stored. With --check it also refreshes once.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.init(ctx); err != nil {
		return err
	}

	if !r.tokens.IsAuthenticated() {
		r.writePlain("Authentication: ✗ Not authenticated\n")
		return r.writePlain("Run 'kidsbox auth login' or visit /auth in the web app\n")
	}

	r.writePlain("Authentication: ✓ Refresh token stored (%s)\n", r.config.Storage.Driver)

	if cmd.Bool("check") {
		if err := r.tokens.Refresh(ctx); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrNotAuthenticated, err)
		}
		r.writePlain("Spotify: ✓ Access token refreshed\n")
	}

	return nil
}

// AuthLogin performs the authorization code flow without the web app.
//
// Starts a one-shot callback server on the redirect URI's address, opens the browser and waits for the code.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if err := r.init(ctx); err != nil {
		return err
	}

	addr, path, err := callbackAddr(r.config.Credentials.Spotify.RedirectURI)
	if err != nil {
		return err
	}

	state, err := shared.GenerateState()
	if err != nil {
		return fmt.Errorf("failed to generate state token: %w", err)
	}

	oauthHandler := server.NewOAuthHandler(r.tokens, state, path).WithLogger(r.logger)
	router := server.NewBasicRouter()
	router.Use(server.Logging(r.logger))
	router.Handler(oauthHandler)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("%w: callback server: %v", shared.ErrServiceUnavailable, err)
	}

	timeout := cmd.Duration("timeout")
	if timeout <= 0 {
		timeout = loginTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpServer := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}
	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Info("starting OAuth callback server", "addr", listener.Addr().String(), "path", path)
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
			cancel()
		}
	}()

	defer func() {
		shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
		defer stop()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()

	authURL := r.tokens.AuthorizeURLWithState(state)

	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warn("failed to open browser automatically", "error", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (%s timeout)...\n", timeout)

	if _, err := oauthHandler.Wait(ctx); err != nil {
		select {
		case serveErr := <-serverErrors:
			return fmt.Errorf("server error: %w", serveErr)
		default:
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: authorization not completed after %s", shared.ErrTimeout, timeout)
		}
		return fmt.Errorf("authorization failed: %w", err)
	}

	r.writePlainln("✓ Authorization successful")
	return r.writePlain("✓ Refresh token saved (%s %s)\n", r.config.Storage.Driver, r.config.Storage.Path)
}

// callbackAddr splits the redirect URI into the host:port to listen on and the callback path.
func callbackAddr(redirectURI string) (string, string, error) {
	u, err := url.Parse(redirectURI)
	if err != nil || u.Host == "" {
		return "", "", fmt.Errorf("%w: redirect_uri %q", shared.ErrInvalidConfig, redirectURI)
	}

	port := u.Port()
	if port == "" {
		port = "80"
		if u.Scheme == "https" {
			port = "443"
		}
	}

	return net.JoinHostPort(u.Hostname(), port), u.Path, nil
}
