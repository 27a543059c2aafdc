package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/kidsbox/internal/shared"
	tu "github.com/desertthunder/kidsbox/internal/testing"
	"github.com/desertthunder/kidsbox/internal/tokens"
)

// stubTokens is a [TokenProvider] with a fixed token.
type stubTokens struct {
	token       string
	err         error
	invalidated []string
}

func (s *stubTokens) EnsureAccessToken(ctx context.Context) (string, error) {
	return s.token, s.err
}

func (s *stubTokens) Invalidate(token string) {
	s.invalidated = append(s.invalidated, token)
}

func newTestService(t *testing.T, fake *tu.FakeSpotify, provider TokenProvider) *SpotifyService {
	t.Helper()

	srv, err := NewSpotifyService(SpotifyOpts{
		Tokens:  provider,
		BaseURL: fake.APIURL(),
		Logger:  log.New(io.Discard),
	})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return srv
}

// newManager wires a real token manager to the fake with refreshToken already persisted.
func newManager(t *testing.T, fake *tu.FakeSpotify, refreshToken string) *tokens.Manager {
	t.Helper()

	m, err := tokens.NewManager(context.Background(), tokens.Options{
		ClientID:     "test_client_id",
		ClientSecret: "test_client_secret",
		RedirectURI:  "http://127.0.0.1:8000/callback",
		TokenURL:     fake.TokenURL(),
		Store:        tu.NewMemoryStore(refreshToken),
		Logger:       log.New(io.Discard),
	})
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}
	return m
}

func TestSpotifyService(t *testing.T) {
	t.Run("NewSpotifyService", func(t *testing.T) {
		t.Run("Missing Token Provider", func(t *testing.T) {
			if _, err := NewSpotifyService(SpotifyOpts{}); !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})

		t.Run("Defaults", func(t *testing.T) {
			srv, err := NewSpotifyService(SpotifyOpts{Tokens: &stubTokens{}})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if srv.baseURL != spotifyBaseURL {
				t.Errorf("expected default base url, got %s", srv.baseURL)
			}
			if srv.httpClient != http.DefaultClient {
				t.Error("expected default http client")
			}
		})

		t.Run("Service Interface", func(t *testing.T) {
			var _ Player = &SpotifyService{}
		})
	})

	t.Run("ListDevices", func(t *testing.T) {
		t.Run("Success", func(t *testing.T) {
			fake := tu.NewFakeSpotify(t)
			srv := newTestService(t, fake, &stubTokens{token: "A"})

			devices, err := srv.ListDevices(context.Background())
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if len(devices) != 2 {
				t.Fatalf("expected 2 devices, got %d", len(devices))
			}
			if devices[0].ID != "dev-1" || devices[0].Name != "Kitchen Speaker" {
				t.Errorf("unexpected first device %+v", devices[0])
			}
			if devices[1].Type != "Tablet" || devices[1].VolumePercent == nil || *devices[1].VolumePercent != 70 {
				t.Errorf("expected extra fields to be decoded, got %+v", devices[1])
			}

			if auth := fake.Authorizations(); len(auth) != 1 || auth[0] != "Bearer A" {
				t.Errorf("expected bearer auth, got %v", auth)
			}
		})

		t.Run("Empty List", func(t *testing.T) {
			fake := tu.NewFakeSpotify(t)
			fake.SetDevices(http.StatusOK, `{"devices":[]}`)
			srv := newTestService(t, fake, &stubTokens{token: "A"})

			devices, err := srv.ListDevices(context.Background())
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(devices) != 0 {
				t.Errorf("expected no devices, got %d", len(devices))
			}
		})

		t.Run("Error Status", func(t *testing.T) {
			fake := tu.NewFakeSpotify(t)
			fake.SetDevices(http.StatusTooManyRequests, `{"error":{"status":429,"message":"API rate limit exceeded"}}`)
			srv := newTestService(t, fake, &stubTokens{token: "A"})

			_, err := srv.ListDevices(context.Background())

			var apiErr *shared.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %v", err)
			}
			if apiErr.Status != http.StatusTooManyRequests {
				t.Errorf("expected status 429, got %d", apiErr.Status)
			}
		})

		t.Run("Missing Devices Field", func(t *testing.T) {
			tc := []struct {
				name string
				body string
			}{
				{name: "no field", body: `{"items":[]}`},
				{name: "null field", body: `{"devices":null}`},
				{name: "not json", body: `<html>oops</html>`},
			}

			for _, tt := range tc {
				t.Run(tt.name, func(t *testing.T) {
					fake := tu.NewFakeSpotify(t)
					fake.SetDevices(http.StatusOK, tt.body)
					srv := newTestService(t, fake, &stubTokens{token: "A"})

					_, err := srv.ListDevices(context.Background())

					var shapeErr *shared.APIShapeError
					if !errors.As(err, &shapeErr) || shapeErr.Field != "devices" {
						t.Errorf("expected APIShapeError for devices, got %v", err)
					}
				})
			}
		})

		t.Run("Refreshes Once Before Listing", func(t *testing.T) {
			fake := tu.NewFakeSpotify(t)
			srv := newTestService(t, fake, newManager(t, fake, "R"))

			if _, err := srv.ListDevices(context.Background()); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if fake.Calls("refresh_token") != 1 || fake.Calls("devices") != 1 {
				t.Errorf("expected one refresh then one devices call, got %d and %d",
					fake.Calls("refresh_token"), fake.Calls("devices"))
			}
			if auth := fake.Authorizations(); auth[0] != "Bearer A2" {
				t.Errorf("expected refreshed token, got %v", auth)
			}
		})

		t.Run("Refresh Failure Skips Devices Call", func(t *testing.T) {
			fake := tu.NewFakeSpotify(t)
			fake.SetRefresh(http.StatusBadRequest, `{"error":"invalid_grant"}`)
			srv := newTestService(t, fake, newManager(t, fake, "R"))

			_, err := srv.ListDevices(context.Background())

			var refreshErr *shared.AuthRefreshError
			if !errors.As(err, &refreshErr) {
				t.Fatalf("expected AuthRefreshError, got %v", err)
			}
			if fake.Calls("devices") != 0 {
				t.Error("expected devices endpoint not to be called")
			}
		})

		t.Run("Unauthenticated", func(t *testing.T) {
			fake := tu.NewFakeSpotify(t)
			srv := newTestService(t, fake, newManager(t, fake, ""))

			if _, err := srv.ListDevices(context.Background()); !errors.Is(err, shared.ErrNoRefreshToken) {
				t.Errorf("expected ErrNoRefreshToken, got %v", err)
			}
			if fake.Calls("devices") != 0 {
				t.Error("expected devices endpoint not to be called")
			}
		})

		t.Run("Transport Failure", func(t *testing.T) {
			srv, err := NewSpotifyService(SpotifyOpts{
				Tokens:     &stubTokens{token: "A"},
				HTTPClient: &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("no route to host"))},
				Logger:     log.New(io.Discard),
			})
			if err != nil {
				t.Fatalf("failed to create service: %v", err)
			}

			if _, err := srv.ListDevices(context.Background()); !errors.Is(err, shared.ErrServiceUnavailable) {
				t.Errorf("expected ErrServiceUnavailable, got %v", err)
			}
		})
	})

	t.Run("StartPlayback", func(t *testing.T) {
		t.Run("Success On 204", func(t *testing.T) {
			fake := tu.NewFakeSpotify(t)
			srv := newTestService(t, fake, &stubTokens{token: "A"})

			if err := srv.StartPlayback(context.Background(), "dev 1&x", KidsTrackURI); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			plays := fake.Plays()
			if len(plays) != 1 {
				t.Fatalf("expected one play request, got %d", len(plays))
			}
			if plays[0].DeviceID != "dev 1&x" {
				t.Errorf("expected escaped device id to round trip, got %q", plays[0].DeviceID)
			}
			if len(plays[0].URIs) != 1 || plays[0].URIs[0] != KidsTrackURI {
				t.Errorf("expected uris [%s], got %v", KidsTrackURI, plays[0].URIs)
			}
			if plays[0].Authorization != "Bearer A" {
				t.Errorf("expected bearer auth, got %q", plays[0].Authorization)
			}
		})

		t.Run("Non 204 Statuses Fail", func(t *testing.T) {
			tc := []struct {
				name   string
				status int
				body   string
			}{
				{name: "200", status: http.StatusOK, body: `{}`},
				{name: "202", status: http.StatusAccepted, body: ``},
				{name: "404", status: http.StatusNotFound, body: `{"error":{"status":404,"message":"Device not found"}}`},
				{name: "403", status: http.StatusForbidden, body: `{"error":{"status":403,"message":"Player command failed: Premium required"}}`},
			}

			for _, tt := range tc {
				t.Run(tt.name, func(t *testing.T) {
					fake := tu.NewFakeSpotify(t)
					fake.SetPlay(tt.status, tt.body)
					srv := newTestService(t, fake, &stubTokens{token: "A"})

					err := srv.StartPlayback(context.Background(), "dev-1", KidsTrackURI)

					var apiErr *shared.APIError
					if !errors.As(err, &apiErr) {
						t.Fatalf("expected APIError, got %v", err)
					}
					if apiErr.Status != tt.status {
						t.Errorf("expected status %d, got %d", tt.status, apiErr.Status)
					}
					if apiErr.Body != tt.body {
						t.Errorf("expected body %q, got %q", tt.body, apiErr.Body)
					}
				})
			}
		})

		t.Run("Missing Device", func(t *testing.T) {
			fake := tu.NewFakeSpotify(t)
			srv := newTestService(t, fake, &stubTokens{token: "A"})

			if err := srv.StartPlayback(context.Background(), "", KidsTrackURI); !errors.Is(err, shared.ErrMissingArgument) {
				t.Errorf("expected ErrMissingArgument, got %v", err)
			}
			if fake.Calls("play") != 0 {
				t.Error("expected play endpoint not to be called")
			}
		})

		t.Run("Token Failure Propagates", func(t *testing.T) {
			fake := tu.NewFakeSpotify(t)
			srv := newTestService(t, fake, &stubTokens{err: shared.ErrNoRefreshToken})

			if err := srv.StartPlayback(context.Background(), "dev-1", KidsTrackURI); !errors.Is(err, shared.ErrNoRefreshToken) {
				t.Errorf("expected ErrNoRefreshToken, got %v", err)
			}
			if fake.Calls("play") != 0 {
				t.Error("expected play endpoint not to be called")
			}
		})

		t.Run("401 Invalidates Without Retry", func(t *testing.T) {
			fake := tu.NewFakeSpotify(t)
			fake.SetPlay(http.StatusUnauthorized, `{"error":{"status":401,"message":"The access token expired"}}`)
			provider := &stubTokens{token: "stale"}
			srv := newTestService(t, fake, provider)

			err := srv.StartPlayback(context.Background(), "dev-1", KidsTrackURI)

			var apiErr *shared.APIError
			if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
				t.Fatalf("expected APIError 401, got %v", err)
			}
			if fake.Calls("play") != 1 {
				t.Errorf("expected no retry, got %d play calls", fake.Calls("play"))
			}
			if len(provider.invalidated) != 1 || provider.invalidated[0] != "stale" {
				t.Errorf("expected stale token to be invalidated, got %v", provider.invalidated)
			}
		})

		t.Run("Next Call After 401 Refreshes", func(t *testing.T) {
			fake := tu.NewFakeSpotify(t)
			manager := newManager(t, fake, "R")
			srv := newTestService(t, fake, manager)

			fake.SetPlay(http.StatusUnauthorized, `{"error":{"status":401,"message":"The access token expired"}}`)
			if err := srv.StartPlayback(context.Background(), "dev-1", KidsTrackURI); err == nil {
				t.Fatal("expected first call to fail")
			}

			fake.SetPlay(http.StatusNoContent, "")
			if err := srv.StartPlayback(context.Background(), "dev-1", KidsTrackURI); err != nil {
				t.Fatalf("expected second call to succeed, got %v", err)
			}

			if fake.Calls("refresh_token") != 2 {
				t.Errorf("expected a refresh per call, got %d", fake.Calls("refresh_token"))
			}
		})
	})
}
