// Package server provides HTTP routing, middleware, and OAuth callback handling for the web app and CLI.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Middleware
//
//   - [RequestID] tags every request with an X-Request-ID
//   - [Logging] writes one line per request with status and duration
//   - [RateLimit] answers 429 once a [rate.Limiter] runs dry; kidsbox puts it in front of POST /play
//
// # OAuth Callback Handler
//
// [OAuthHandler] serves a single callback for the CLI login flow on the redirect URI's path. It validates
// the state parameter, exchanges the code through a [CodeExchanger], and hands the outcome to
// [OAuthHandler.Wait]. Later requests get 409, so a code is never exchanged twice.
//
// The long-running web app handles its own /callback route in the web package.
package server
