// Package web implements the browser-facing kidsbox application.
//
// # Routes
//
//	GET  /         → home view, or 307 to /auth when no refresh token is stored
//	GET  /auth     → link to the Spotify authorize URL
//	GET  /callback → exchanges ?code= for tokens, then redirects to /
//	GET  /devices  → Spotify Connect devices, one play button each
//	POST /play     → form field device; starts the hardcoded track
//
// # Error Responses
//
// /callback answers with a redirect to / carrying an error status: 500 when the code is missing and
// 502 when Spotify rejects the exchange. /play always answers 200 with a plain text message,
// "Started!" or "Could not start <error>", so the page can show it in place.
//
// # Dependencies
//
// [Handler] depends on an [Authenticator] (tokens.Manager) and a [services.Player]
// (services.SpotifyService), both injected through [Opts].
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/kidsbox/internal/server"
	"github.com/desertthunder/kidsbox/internal/services"
	"github.com/desertthunder/kidsbox/internal/shared"
	"github.com/desertthunder/kidsbox/internal/tokens"
	"golang.org/x/time/rate"
)

//go:embed templates/*.html
var templateFiles embed.FS

// Authenticator is the token lifecycle surface the handlers need.
type Authenticator interface {
	AuthorizeURL() string
	Exchange(ctx context.Context, code string) (*tokens.Pair, error)
	IsAuthenticated() bool
}

// Opts contains the dependencies of a [Handler].
type Opts struct {
	Auth        Authenticator
	Player      services.Player
	TrackURI    string        // defaults to [services.KidsTrackURI]
	PlayLimiter *rate.Limiter // nil disables rate limiting on /play
	Logger      *log.Logger
}

// Handler serves the kidsbox pages.
type Handler struct {
	auth        Authenticator
	player      services.Player
	trackURI    string
	playLimiter *rate.Limiter
	templates   *template.Template
	logger      *log.Logger
}

type deviceView struct {
	ID   string
	Name string
}

// New creates a [Handler] and parses the embedded templates.
func New(opts Opts) (*Handler, error) {
	if opts.Auth == nil || opts.Player == nil {
		return nil, fmt.Errorf("%w: authenticator and player are required", shared.ErrInvalidArgument)
	}
	if opts.TrackURI == "" {
		opts.TrackURI = services.KidsTrackURI
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	tmpl, err := template.ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &Handler{
		auth:        opts.Auth,
		player:      opts.Player,
		trackURI:    opts.TrackURI,
		playLimiter: opts.PlayLimiter,
		templates:   tmpl,
		logger:      shared.WithLogger(opts.Logger, "component", "web"),
	}, nil
}

// Register adds every kidsbox route to router.
func (h *Handler) Register(router server.Router) {
	var play http.Handler = http.HandlerFunc(h.Play)
	if h.playLimiter != nil {
		play = server.RateLimit(h.playLimiter)(play)
	}

	router.Handle(http.MethodGet, "/{$}", http.HandlerFunc(h.Home))
	router.Handle(http.MethodGet, "/auth", http.HandlerFunc(h.Auth))
	router.Handle(http.MethodGet, "/callback", http.HandlerFunc(h.Callback))
	router.Handle(http.MethodGet, "/devices", http.HandlerFunc(h.Devices))
	router.Handle(http.MethodPost, "/play", play)
}

// Home renders the home view, sending unauthenticated visitors to /auth.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	if !h.auth.IsAuthenticated() {
		http.Redirect(w, r, "/auth", http.StatusTemporaryRedirect)
		return
	}
	h.render(w, "index.html", nil)
}

// Auth renders a link to the Spotify authorize URL.
func (h *Handler) Auth(w http.ResponseWriter, r *http.Request) {
	h.render(w, "auth.html", map[string]string{"AuthorizeURL": h.auth.AuthorizeURL()})
}

// Callback completes the authorization code flow.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		h.logger.Warn("callback without code", "error", r.URL.Query().Get("error"))
		http.Redirect(w, r, "/", http.StatusInternalServerError)
		return
	}

	if _, err := h.auth.Exchange(r.Context(), code); err != nil {
		h.logger.Error("token exchange failed", "error", err)
		http.Redirect(w, r, "/", http.StatusBadGateway)
		return
	}

	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

// Devices renders the available Spotify Connect devices.
func (h *Handler) Devices(w http.ResponseWriter, r *http.Request) {
	devices, err := h.player.ListDevices(r.Context())
	if errors.Is(err, shared.ErrNoRefreshToken) {
		http.Redirect(w, r, "/auth", http.StatusTemporaryRedirect)
		return
	}
	if err != nil {
		h.logger.Error("failed to list devices", "error", err)
		http.Error(w, fmt.Sprintf("Could not list devices: %v", err), http.StatusBadGateway)
		return
	}

	views := make([]deviceView, 0, len(devices))
	for _, d := range devices {
		views = append(views, deviceView{ID: d.ID, Name: d.Name})
	}

	h.render(w, "devices.html", map[string]any{"Devices": views})
}

// Play starts the song on the posted device.
func (h *Handler) Play(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	device := r.PostFormValue("device")
	if device == "" {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, "Could not start missing device")
		return
	}

	if err := h.player.StartPlayback(r.Context(), device, h.trackURI); err != nil {
		h.logger.Error("failed to start playback", "device", device, "error", err)
		fmt.Fprintf(w, "Could not start %v", err)
		return
	}

	fmt.Fprint(w, "Started!")
}

func (h *Handler) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		h.logger.Error("failed to render template", "template", name, "error", err)
	}
}
