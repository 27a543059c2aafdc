package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrRefreshFailed    = fmt.Errorf("token refresh failed")
	ErrNoRefreshToken   = fmt.Errorf("no refresh token available")
	ErrInvalidResponse  = fmt.Errorf("invalid response")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrTimeout            = fmt.Errorf("operation timed out")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// AuthExchangeError is returned when the token endpoint rejects an authorization code.
type AuthExchangeError struct {
	Status int
	Body   string
}

func (e *AuthExchangeError) Error() string {
	return fmt.Sprintf("failed to exchange code for tokens: status %d: %s", e.Status, e.Body)
}

func (e *AuthExchangeError) Unwrap() error { return ErrAuthFailed }

// AuthParseError is returned when a token response is missing a required field.
type AuthParseError struct {
	Field string
	Err   error
}

func (e *AuthParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to parse token response: missing %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("failed to parse token response: missing %s", e.Field)
}

func (e *AuthParseError) Unwrap() error { return ErrInvalidResponse }

// AuthRefreshError is returned when the token endpoint rejects a refresh token.
type AuthRefreshError struct {
	Status int
	Body   string
}

func (e *AuthRefreshError) Error() string {
	return fmt.Sprintf("failed to refresh access token: status %d: %s", e.Status, e.Body)
}

func (e *AuthRefreshError) Unwrap() error { return ErrRefreshFailed }

// APIError is returned when the Spotify Web API answers with an unexpected status.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("spotify API error: status %d: %s", e.Status, e.Body)
}

func (e *APIError) Unwrap() error { return ErrAPIRequest }

// APIShapeError is returned when a Spotify Web API response lacks an expected field.
type APIShapeError struct {
	Field string
}

func (e *APIShapeError) Error() string {
	return fmt.Sprintf("spotify API response missing %q", e.Field)
}

func (e *APIShapeError) Unwrap() error { return ErrInvalidResponse }
