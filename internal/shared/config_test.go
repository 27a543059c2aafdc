package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Storage.Driver != "file" {
			t.Errorf("expected storage driver file, got %s", config.Storage.Driver)
		}

		if config.Storage.Path != "tokens.txt" {
			t.Errorf("expected storage path tokens.txt, got %s", config.Storage.Path)
		}

		if config.Server.Port != 8000 {
			t.Errorf("expected server port 8000, got %d", config.Server.Port)
		}

		if config.Spotify.TokenURL != "https://accounts.spotify.com/api/token" {
			t.Errorf("unexpected token url %s", config.Spotify.TokenURL)
		}

		if config.Spotify.Timeout != 0 {
			t.Errorf("expected no client timeout by default, got %v", config.Spotify.Timeout)
		}

		if config.Credentials.Spotify.ClientID != "your_spotify_client_id" {
			t.Errorf("expected spotify client_id your_spotify_client_id, got %s", config.Credentials.Spotify.ClientID)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Server.Addr() != DefaultConfig().Server.Addr() {
			t.Errorf("created config server address doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[credentials.spotify]
client_id = "test_client_id"
client_secret = "test_secret"
redirect_uri = "http://localhost:3000/callback"

[spotify]
timeout = "5s"

[storage]
driver = "sqlite"
path = "/custom/kidsbox.db"

[log]
level = "debug"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Storage.Driver != "sqlite" || config.Storage.Path != "/custom/kidsbox.db" {
			t.Errorf("unexpected storage config %+v", config.Storage)
		}

		if config.Spotify.Timeout != 5*time.Second {
			t.Errorf("expected timeout 5s, got %v", config.Spotify.Timeout)
		}

		if config.Spotify.APIURL != "https://api.spotify.com/v1" {
			t.Errorf("expected api url to keep its default, got %s", config.Spotify.APIURL)
		}

		if config.Server.Port != 8000 {
			t.Errorf("expected server port to keep its default, got %d", config.Server.Port)
		}

		if config.LogLevel() != log.DebugLevel {
			t.Errorf("expected debug level, got %v", config.LogLevel())
		}
	})

	t.Run("LoadConfig Missing File", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); !errors.Is(err, ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		config := DefaultConfig()
		if err := config.Validate(); err != nil {
			t.Errorf("expected default config to validate, got %v", err)
		}

		config.Credentials.Spotify.ClientSecret = ""
		if err := config.Validate(); !errors.Is(err, ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}

		config = DefaultConfig()
		config.Storage.Driver = "redis"
		if err := config.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("LogLevel Fallback", func(t *testing.T) {
		config := DefaultConfig()
		config.Log.Level = "chatty"
		if config.LogLevel() != log.InfoLevel {
			t.Errorf("expected info fallback, got %v", config.LogLevel())
		}
	})
}

func TestEnv(t *testing.T) {
	t.Run("ApplyEnv overrides credentials", func(t *testing.T) {
		t.Setenv(EnvClientID, "env_id")
		t.Setenv(EnvClientSecret, "env_secret")
		t.Setenv(EnvRedirectURI, "http://kids.local/callback")

		config := DefaultConfig()
		ApplyEnv(config)

		if config.Credentials.Spotify.ClientID != "env_id" {
			t.Errorf("expected env client id, got %s", config.Credentials.Spotify.ClientID)
		}
		if config.Credentials.Spotify.ClientSecret != "env_secret" {
			t.Errorf("expected env client secret, got %s", config.Credentials.Spotify.ClientSecret)
		}
		if config.Credentials.Spotify.RedirectURI != "http://kids.local/callback" {
			t.Errorf("expected env redirect uri, got %s", config.Credentials.Spotify.RedirectURI)
		}
	})

	t.Run("ApplyEnv keeps file values when unset", func(t *testing.T) {
		t.Setenv(EnvClientID, "")

		config := DefaultConfig()
		ApplyEnv(config)

		if config.Credentials.Spotify.ClientID != "your_spotify_client_id" {
			t.Errorf("expected file client id, got %s", config.Credentials.Spotify.ClientID)
		}
	})

	t.Run("LoadEnv reads dotenv file", func(t *testing.T) {
		t.Setenv(EnvClientID, "")
		os.Unsetenv(EnvClientID)

		path := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(path, []byte("SPOTIFY_CLIENT_ID=from_dotenv\n"), 0600); err != nil {
			t.Fatalf("failed to write .env: %v", err)
		}

		if err := LoadEnv(path); err != nil {
			t.Fatalf("LoadEnv() error = %v", err)
		}

		if got := os.Getenv(EnvClientID); got != "from_dotenv" {
			t.Errorf("expected from_dotenv, got %q", got)
		}
	})

	t.Run("LoadEnv ignores missing file", func(t *testing.T) {
		if err := LoadEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
			t.Errorf("expected nil for missing file, got %v", err)
		}
	})
}

func TestErrors(t *testing.T) {
	tc := []struct {
		name     string
		err      error
		sentinel error
	}{
		{name: "exchange", err: &AuthExchangeError{Status: 400, Body: "bad"}, sentinel: ErrAuthFailed},
		{name: "parse", err: &AuthParseError{Field: "refresh_token"}, sentinel: ErrInvalidResponse},
		{name: "refresh", err: &AuthRefreshError{Status: 400, Body: "bad"}, sentinel: ErrRefreshFailed},
		{name: "api", err: &APIError{Status: 404, Body: "nope"}, sentinel: ErrAPIRequest},
		{name: "shape", err: &APIShapeError{Field: "devices"}, sentinel: ErrInvalidResponse},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("expected %v to wrap %v", tt.err, tt.sentinel)
			}
			if tt.err.Error() == "" {
				t.Error("expected non-empty message")
			}
		})
	}

	t.Run("APIError via errors.As", func(t *testing.T) {
		var err error = &APIError{Status: 404, Body: "Device not found"}
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.Status != 404 {
			t.Errorf("expected APIError with status 404, got %v", err)
		}
	})
}
