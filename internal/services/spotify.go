// Spotify Web API implementation of [Player]
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/get-a-users-available-devices
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/kidsbox/internal/shared"
)

const spotifyBaseURL = "https://api.spotify.com/v1"

// KidsTrackURI is the one song kidsbox plays.
const KidsTrackURI = "spotify:track:5ZrDlcxIDZyjOzHdYW1ydr"

type devicesResponse struct {
	Devices *[]Device `json:"devices"`
}

type playRequest struct {
	URIs []string `json:"uris"`
}

// SpotifyService implements [Player] against the Spotify Web API.
type SpotifyService struct {
	tokens     TokenProvider
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
}

// SpotifyOpts contains configuration options for creating a [SpotifyService].
type SpotifyOpts struct {
	Tokens     TokenProvider
	BaseURL    string // defaults to https://api.spotify.com/v1
	HTTPClient *http.Client
	Logger     *log.Logger
}

// NewSpotifyService creates a new Spotify Web API client.
func NewSpotifyService(opts SpotifyOpts) (*SpotifyService, error) {
	if opts.Tokens == nil {
		return nil, fmt.Errorf("%w: token provider is required", shared.ErrInvalidArgument)
	}
	if opts.BaseURL == "" {
		opts.BaseURL = spotifyBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &SpotifyService{
		tokens:     opts.Tokens,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: opts.HTTPClient,
		logger:     shared.WithLogger(opts.Logger, "component", "spotify"),
	}, nil
}

// ListDevices retrieves the user's available Spotify Connect devices.
func (s *SpotifyService) ListDevices(ctx context.Context) ([]Device, error) {
	status, body, err := s.doRequest(ctx, http.MethodGet, "/me/player/devices", nil)
	if err != nil {
		return nil, err
	}

	if status != http.StatusOK {
		return nil, &shared.APIError{Status: status, Body: string(body)}
	}

	var response devicesResponse
	if err := json.Unmarshal(body, &response); err != nil || response.Devices == nil {
		return nil, &shared.APIShapeError{Field: "devices"}
	}

	s.logger.Debug("listed devices", "count", len(*response.Devices))

	return *response.Devices, nil
}

// StartPlayback starts trackURI on the given device. Only 204 No Content counts as success.
func (s *SpotifyService) StartPlayback(ctx context.Context, deviceID, trackURI string) error {
	if deviceID == "" {
		return fmt.Errorf("%w: device id", shared.ErrMissingArgument)
	}

	endpoint := "/me/player/play?device_id=" + url.QueryEscape(deviceID)
	status, body, err := s.doRequest(ctx, http.MethodPut, endpoint, playRequest{URIs: []string{trackURI}})
	if err != nil {
		return err
	}

	if status != http.StatusNoContent {
		return &shared.APIError{Status: status, Body: string(body)}
	}

	s.logger.Info("started playback", "device", deviceID, "track", trackURI)

	return nil
}

// doRequest performs an authenticated request to the Web API and returns the raw status and body.
//
// A 401 invalidates the access token that was sent.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, payload any) (int, []byte, error) {
	token, err := s.tokens.EnsureAccessToken(ctx)
	if err != nil {
		return 0, nil, err
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		s.logger.Warn("access token rejected", "endpoint", endpoint)
		s.tokens.Invalidate(token)
	}

	return resp.StatusCode, body, nil
}
