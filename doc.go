// Package pihole6api provides an HTTP client for the Pi-hole v6
// management API.
//
// The client wraps [github.com/go-resty/resty/v2] with session-token
// authentication, transparent re-authentication on expiry, automatic
// retries with exponential backoff, and pluggable logging.
//
// # Basic Usage
//
//	c, err := pihole6api.New("https://pi.hole", "password",
//	    pihole6api.WithRetryCount(5),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer c.CloseSession(ctx)
//
//	var summary map[string]any
//	if err := c.Get(ctx, "stats/summary", nil, &summary); err != nil {
//	    log.Fatal(err)
//	}
//
// # Configuration
//
// All configuration is supplied as [Option] functions passed to [New].
// Invalid values are silently ignored and the default is retained;
// all configuration is validated when [New] is called.
//
// # Authentication
//
// The client exchanges the password (or an application password) for a
// session token on the first request, or when [Client.Authenticate] is
// called explicitly. The token and its CSRF companion are attached to
// every subsequent request. When the server rejects a session mid-flight
// with HTTP 401, the client re-authenticates exactly once and retries
// the original request; a second rejection surfaces an
// [AuthenticationError]. Re-authentication is serialized, so concurrent
// requests against an expired session trigger a single login exchange.
//
// # Retry Behaviour
//
// [DefaultRetryPolicy] retries on HTTP 429 (rate limit) and the
// transient server errors 500, 502, 503 and 504, and on transient
// connection errors. Context cancellation, deadline exceeded, and DNS
// resolution errors are never retried. Supply a custom function via
// [WithRetryPolicy] to override this behaviour. Mutating verbs are
// retried by default because Pi-hole's mutating endpoints are idempotent
// by resource identity; pass WithRetryOnMutating(false) to restrict
// transport-level retries to GET and HEAD.
//
// # Errors
//
// Failures are reported through three types: [AuthenticationError] when
// the credential is rejected or the login budget is exhausted,
// [APIError] for non-transient remote error statuses, and
// [TransportError] when connection-level failures outlive the retry
// budget. All three work with errors.As.
//
// # Logging
//
// Implement [RequestLogger] and supply it via [WithRequestLogger] to
// integrate with your logging library, or use [NewZapLogger] for a
// ready-made zap adapter. The default [NoopLogger] discards all log
// output. Ensure your implementation redacts passwords and session
// tokens from request and response bodies before persisting logs.
package pihole6api
