// Package tokens owns the Spotify OAuth2 token lifecycle: authorize, exchange, refresh, use.
//
// # Token State
//
// A [Manager] holds one refresh token and one access token. The refresh token is durable and lives in
// a [Store]; the access token only lives in memory and is minted from the refresh token on demand.
//
// [Manager.IsAuthenticated] reports whether a refresh token is present. It never contacts Spotify.
//
// # Lifecycle
//
//  1. [Manager.AuthorizeURL] builds the accounts.spotify.com link the browser follows.
//  2. Spotify redirects back with a code, which [Manager.Exchange] trades for a token pair.
//     The refresh token is saved to the store before either token is kept in memory.
//  3. [Manager.EnsureAccessToken] runs before every Web API call and calls [Manager.Refresh] when no
//     access token is cached. Refresh tokens are never rotated or re-persisted.
//  4. A call rejected with 401 hands its token to [Manager.Invalidate] so the next call refreshes.
//
// Exchange and refresh go through [oauth2.Config] with client credentials sent as form parameters,
// so each grant is exactly one POST to the token endpoint.
//
// # Stores
//
//   - [FileStore]: a single text file holding the refresh token, replaced through a temp file and rename.
//   - [SQLiteStore]: a single-row tokens table in a SQLite database managed by shared migrations.
//
// # Errors
//
// Failures surface as the typed errors in the shared package:
//   - [shared.AuthExchangeError] : token endpoint rejected the code
//   - [shared.AuthRefreshError] : token endpoint rejected the refresh token
//   - [shared.AuthParseError] : token response lacked access_token or refresh_token
//   - [shared.ErrNoRefreshToken] : refresh attempted before any exchange
package tokens
