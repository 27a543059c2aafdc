package tokens

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/kidsbox/internal/shared"
	"golang.org/x/oauth2"
)

const (
	SpotifyAuthURL  = "https://accounts.spotify.com/authorize"
	SpotifyTokenURL = "https://accounts.spotify.com/api/token"
)

// Scopes requested during authorization: read what is playing and start playback.
var Scopes = []string{
	"user-read-currently-playing",
	"user-read-playback-state",
	"user-modify-playback-state",
}

// Pair is the result of a successful authorization code exchange.
type Pair struct {
	AccessToken  string
	RefreshToken string
}

// Options configures a [Manager].
type Options struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	AuthURL      string // defaults to [SpotifyAuthURL]
	TokenURL     string // defaults to [SpotifyTokenURL]
	Store        Store
	HTTPClient   *http.Client
	Logger       *log.Logger
}

// Manager owns the token state and mediates every token acquisition and refresh.
//
// The mutex only guards the fields; token endpoint calls run unlocked, so two requests that both find
// no access token may both refresh. The last write wins, which is harmless for the same refresh token.
type Manager struct {
	config     *oauth2.Config
	store      Store
	httpClient *http.Client
	logger     *log.Logger

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
}

// NewManager creates a [Manager] and loads any refresh token already persisted in opts.Store.
func NewManager(ctx context.Context, opts Options) (*Manager, error) {
	if opts.ClientID == "" || opts.ClientSecret == "" {
		return nil, fmt.Errorf("%w: client id and client secret are required", shared.ErrMissingCredentials)
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("%w: token store is required", shared.ErrInvalidArgument)
	}
	if opts.AuthURL == "" {
		opts.AuthURL = SpotifyAuthURL
	}
	if opts.TokenURL == "" {
		opts.TokenURL = SpotifyTokenURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	refreshToken, err := opts.Store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load refresh token: %w", err)
	}

	m := &Manager{
		config: &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			RedirectURL:  opts.RedirectURI,
			Scopes:       Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   opts.AuthURL,
				TokenURL:  opts.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		store:        opts.Store,
		httpClient:   tokenClient(opts.HTTPClient),
		logger:       shared.WithLogger(opts.Logger, "component", "tokens"),
		refreshToken: refreshToken,
	}

	if refreshToken != "" {
		m.logger.Info("loaded persisted refresh token", "token", shared.Redact(refreshToken))
	}

	return m, nil
}

// AuthorizeURL returns the Spotify authorization link for the configured client and redirect URI.
func (m *Manager) AuthorizeURL() string {
	return m.config.AuthCodeURL("")
}

// AuthorizeURLWithState is [Manager.AuthorizeURL] with a state parameter for one-shot callback servers.
func (m *Manager) AuthorizeURLWithState(state string) string {
	return m.config.AuthCodeURL(state)
}

// Exchange trades an authorization code for a token pair.
//
// The refresh token is persisted before the pair is kept in memory; any failure leaves both untouched.
func (m *Manager) Exchange(ctx context.Context, code string) (*Pair, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: authorization code", shared.ErrMissingArgument)
	}

	tok, err := m.config.Exchange(m.clientContext(ctx), code)
	if err != nil {
		return nil, classify(err, func(status int, body string) error {
			return &shared.AuthExchangeError{Status: status, Body: body}
		})
	}

	if tok.AccessToken == "" {
		return nil, &shared.AuthParseError{Field: "access_token"}
	}
	if tok.RefreshToken == "" {
		return nil, &shared.AuthParseError{Field: "refresh_token"}
	}

	if err := m.store.Save(ctx, tok.RefreshToken); err != nil {
		return nil, fmt.Errorf("failed to persist refresh token: %w", err)
	}

	m.mu.Lock()
	m.accessToken = tok.AccessToken
	m.refreshToken = tok.RefreshToken
	m.mu.Unlock()

	m.logger.Info("exchanged authorization code", "refresh_token", shared.Redact(tok.RefreshToken))

	return &Pair{AccessToken: tok.AccessToken, RefreshToken: tok.RefreshToken}, nil
}

// Refresh mints a new access token from the stored refresh token.
func (m *Manager) Refresh(ctx context.Context) error {
	m.mu.RLock()
	refreshToken := m.refreshToken
	m.mu.RUnlock()

	if refreshToken == "" {
		return shared.ErrNoRefreshToken
	}

	src := m.config.TokenSource(m.clientContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return classify(err, func(status int, body string) error {
			return &shared.AuthRefreshError{Status: status, Body: body}
		})
	}

	if tok.AccessToken == "" {
		return &shared.AuthParseError{Field: "access_token"}
	}

	m.mu.Lock()
	m.accessToken = tok.AccessToken
	m.mu.Unlock()

	m.logger.Debug("refreshed access token")

	return nil
}

// IsAuthenticated reports whether a refresh token is present. Validity is not checked with Spotify.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.refreshToken != ""
}

// EnsureAccessToken returns the cached access token, refreshing first when none is cached.
func (m *Manager) EnsureAccessToken(ctx context.Context) (string, error) {
	m.mu.RLock()
	token := m.accessToken
	m.mu.RUnlock()

	if token != "" {
		return token, nil
	}

	if err := m.Refresh(ctx); err != nil {
		return "", err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.accessToken, nil
}

// Invalidate drops the cached access token if it is still token.
//
// A token refreshed concurrently by another request is kept.
func (m *Manager) Invalidate(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.accessToken == token {
		m.accessToken = ""
		m.logger.Debug("invalidated access token")
	}
}

// clientContext attaches the manager's HTTP client for use by [oauth2].
func (m *Manager) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)
}

// classify maps an [oauth2] token endpoint error onto the shared error taxonomy.
//
// Non-200 responses go through onStatus. Transport failures wrap [shared.ErrServiceUnavailable];
// anything else is a response the client could not read a token from.
func classify(err error, onStatus func(status int, body string) error) error {
	var statusErr *statusError
	if errors.As(err, &statusErr) {
		return onStatus(statusErr.status, statusErr.body)
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		status := 0
		if retrieveErr.Response != nil {
			status = retrieveErr.Response.StatusCode
		}
		return onStatus(status, strings.TrimSpace(string(retrieveErr.Body)))
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%w: token endpoint: %v", shared.ErrServiceUnavailable, err)
	}

	return &shared.AuthParseError{Field: "access_token", Err: err}
}
