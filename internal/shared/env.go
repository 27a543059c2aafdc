package shared

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

const (
	EnvClientID     = "SPOTIFY_CLIENT_ID"
	EnvClientSecret = "SPOTIFY_CLIENT_SECRET"
	EnvRedirectURI  = "SPOTIFY_REDIRECT_URI"
)

// LoadEnv reads KEY=value pairs from the dotenv file at path into the process environment.
//
// A missing file is not an error. Variables already set in the environment are left untouched.
func LoadEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides Spotify credentials in config with the SPOTIFY_* environment variables that are set.
func ApplyEnv(config *Config) {
	if val := os.Getenv(EnvClientID); val != "" {
		config.Credentials.Spotify.ClientID = val
	}
	if val := os.Getenv(EnvClientSecret); val != "" {
		config.Credentials.Spotify.ClientSecret = val
	}
	if val := os.Getenv(EnvRedirectURI); val != "" {
		config.Credentials.Spotify.RedirectURI = val
	}
}
