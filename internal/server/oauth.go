package server

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/kidsbox/internal/shared"
	"github.com/desertthunder/kidsbox/internal/tokens"
)

// DefaultCallbackPath is used when no callback path is given to [NewOAuthHandler].
const DefaultCallbackPath = "/callback"

// CodeExchanger trades an authorization code for tokens. Implemented by [tokens.Manager].
type CodeExchanger interface {
	Exchange(ctx context.Context, code string) (*tokens.Pair, error)
}

// OAuthResult is the outcome of the single callback an [OAuthHandler] accepts.
type OAuthResult struct {
	Pair *tokens.Pair
	err  error
}

func (o *OAuthResult) Error() error {
	return o.err
}

var donePage = template.Must(template.New("done").Parse(`<!DOCTYPE html>
<html>
<head><title>kidsbox</title></head>
<body style="font-family: sans-serif; text-align: center; margin-top: 4rem;">
    <h1 style="color: {{if .OK}}#1DB954{{else}}#E22134{{end}};">{{.Title}}</h1>
    <p>{{.Message}}</p>
</body>
</html>
`))

// OAuthHandler accepts exactly one authorization code callback for the CLI login flow.
// Implements the [Handler] interface for registration with a [Router].
type OAuthHandler struct {
	exchanger CodeExchanger
	state     string
	path      string
	logger    *log.Logger
	hit       atomic.Bool
	results   chan OAuthResult
}

// NewOAuthHandler creates a handler that serves path (default [DefaultCallbackPath]) and only accepts a
// callback carrying state.
func NewOAuthHandler(exchanger CodeExchanger, state, path string) *OAuthHandler {
	if path == "" {
		path = DefaultCallbackPath
	}
	return &OAuthHandler{
		exchanger: exchanger,
		state:     state,
		path:      path,
		logger:    shared.NewLogger(nil),
		results:   make(chan OAuthResult, 1),
	}
}

// WithLogger sets the logger used for page rendering failures.
func (h *OAuthHandler) WithLogger(logger *log.Logger) *OAuthHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// Routes returns the callback path.
func (h *OAuthHandler) Routes() []string {
	return []string{h.path}
}

// ServeHTTP handles the callback. Any request after the first is rejected with 409.
func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.hit.CompareAndSwap(false, true) {
		http.Error(w, "Callback already processed", http.StatusConflict)
		return
	}

	query := r.URL.Query()

	if query.Get("state") != h.state {
		h.finish(w, http.StatusBadRequest, OAuthResult{err: fmt.Errorf("%w: state mismatch", shared.ErrAuthFailed)})
		return
	}

	code := query.Get("code")
	if code == "" {
		h.finish(w, http.StatusBadRequest, OAuthResult{err: fmt.Errorf("%w: %s", shared.ErrAuthFailed, query.Get("error"))})
		return
	}

	pair, err := h.exchanger.Exchange(r.Context(), code)
	if err != nil {
		h.finish(w, http.StatusBadGateway, OAuthResult{err: fmt.Errorf("token exchange failed: %w", err)})
		return
	}

	h.finish(w, http.StatusOK, OAuthResult{Pair: pair})
}

// Wait blocks until the callback has been handled or ctx is done.
func (h *OAuthHandler) Wait(ctx context.Context) (*tokens.Pair, error) {
	select {
	case result := <-h.results:
		return result.Pair, result.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (h *OAuthHandler) finish(w http.ResponseWriter, status int, result OAuthResult) {
	h.results <- result

	page := struct {
		OK      bool
		Title   string
		Message string
	}{OK: true, Title: "✓ Spotify connected", Message: "You can close this window and return to the terminal."}
	if result.err != nil {
		page.OK = false
		page.Title = "✗ Authorization failed"
		page.Message = result.err.Error()
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := donePage.Execute(w, page); err != nil {
		h.logger.Error("failed to render callback page", "error", err)
	}
}
