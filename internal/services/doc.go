// Package services implements the two authenticated Spotify Web API calls kidsbox needs.
//
// # Spotify Implementation
//
// [SpotifyService] lists Spotify Connect devices and starts playback of a track on one of them.
// It does not own any token state: every call first asks its [TokenProvider] for an access token,
// which refreshes lazily when nothing is cached.
//
// # Failure Policy
//
// Calls are never retried. A 401 from the Web API invalidates the access token that was used, so the
// next call refreshes it, but the failing call itself is reported to the caller as-is.
//
// # Error Handling
//
// Services use typed errors from the shared package:
//   - [shared.APIError] : unexpected status, carries the status code and response body
//   - [shared.APIShapeError] : response lacked an expected field
//   - [shared.ErrServiceUnavailable] : request could not be sent
//
// Token failures from the provider propagate unchanged, before any Web API request is made.
package services
