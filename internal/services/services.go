// package services defines the Spotify Web API client used to list devices and start playback
package services

import (
	"context"
)

// TokenProvider hands out bearer tokens for the Web API.
//
// Implemented by tokens.Manager.
type TokenProvider interface {
	// EnsureAccessToken returns a usable access token, refreshing when none is cached.
	EnsureAccessToken(ctx context.Context) (string, error)
	// Invalidate drops token if it is still the cached one.
	Invalidate(token string)
}

// Player is the playback surface the web layer and CLI depend on.
type Player interface {
	// ListDevices returns the user's Spotify Connect devices, fetched fresh on every call.
	ListDevices(ctx context.Context) ([]Device, error)

	// StartPlayback starts trackURI on the device with deviceID.
	StartPlayback(ctx context.Context, deviceID, trackURI string) error
}

// Device is a Spotify Connect playback target as returned by GET /me/player/devices.
//
// ID may be empty for restricted devices.
type Device struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Type             string `json:"type"`
	IsActive         bool   `json:"is_active"`
	IsPrivateSession bool   `json:"is_private_session"`
	IsRestricted     bool   `json:"is_restricted"`
	VolumePercent    *int   `json:"volume_percent"`
	SupportsVolume   bool   `json:"supports_volume"`
}
