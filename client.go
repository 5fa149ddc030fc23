package pihole6api

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

// Session headers expected by Pi-hole's FTL engine.
const (
	headerSessionID = "X-FTL-SID"
	headerCSRFToken = "X-FTL-CSRF"
)

// Client is the single point of outbound communication with a Pi-hole
// instance. It owns the session lifecycle and applies authentication,
// retry and error-translation policy uniformly; resource wrappers built
// on top of it must not retry or authenticate themselves.
//
// A Client is safe for use from multiple goroutines. Each instance holds
// its own session; two clients never share token state.
type Client struct {
	baseURL  string
	password string
	options  *Options
	http     *resty.Client
	limiter  *rate.Limiter

	// authMu serializes login exchanges so that concurrent requests
	// against an expired session collapse into a single POST auth.
	// Ordinary token reads go through sessionState's read lock and are
	// not serialized against each other.
	authMu  sync.Mutex
	session sessionState
}

// fileUpload describes a multipart upload (teleporter import).
type fileUpload struct {
	filename string
	contents []byte
}

// authResponse is the body of a login exchange.
type authResponse struct {
	Session struct {
		Valid    bool   `json:"valid"`
		SID      string `json:"sid"`
		CSRF     string `json:"csrf"`
		Validity int    `json:"validity"`
		Message  string `json:"message"`
	} `json:"session"`
}

// New creates a client for the Pi-hole instance at baseURL, e.g.
// "https://pi.hole". The versioned "/api" segment is appended
// automatically; request paths are given relative to it. The password
// (or application password) is held for the client's lifetime and
// exchanged for a session token on the first request.
//
// No network traffic happens here; authentication is performed lazily,
// or eagerly via [Client.Authenticate].
func New(baseURL, password string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("base URL must be set")
	}

	options := newClientOptions()
	for _, opt := range opts {
		opt(options)
	}

	if err := options.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid options")
	}

	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/") + "/api",
		password: password,
		options:  options,
	}

	rc := resty.New().
		SetBaseURL(c.baseURL).
		SetTimeout(options.timeout).
		SetHeaders(options.requestHeaders).
		SetRetryCount(options.retryCount).
		SetRetryWaitTime(options.retryWaitTime).
		SetRetryMaxWaitTime(options.retryMaxWaitTime).
		SetLogger(options.requestLogger).
		AddRetryCondition(c.retryCondition)

	if options.disablePooling {
		rc.SetTransport(&http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			DisableKeepAlives:   true,
			MaxIdleConns:        1,
			MaxIdleConnsPerHost: 1,
		})
	}

	if options.insecureTLS {
		rc.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true}) //nolint:gosec // opt-in for self-signed appliances
	}

	if options.rateLimitPerMin > 0 {
		burst := options.rateLimitPerMin / 60
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(float64(options.rateLimitPerMin)/60.0), burst)
		rc.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			if err := c.limiter.Wait(req.Context()); err != nil {
				return errors.Wrap(err, "rate limiter wait")
			}
			return nil
		})
	}

	c.http = rc

	return c, nil
}

// retryCondition applies the configured retry policy, optionally gating
// mutating verbs. Login POSTs are always eligible: repeating one only
// issues a fresh session.
func (c *Client) retryCondition(r *resty.Response, err error) bool {
	if !c.options.retryMutating && r != nil && r.Request != nil {
		switch r.Request.Method {
		case http.MethodGet, http.MethodHead:
		default:
			if !strings.HasSuffix(r.Request.URL, "/api/auth") {
				return false
			}
		}
	}

	return c.options.retryPolicy(r, err)
}

// Authenticate performs the login exchange now instead of on the first
// request. It is a no-op when a session is already held.
func (c *Client) Authenticate(ctx context.Context) error {
	_, _, err := c.ensureSession(ctx)
	return err
}

// ensureSession returns the active sid/csrf pair, logging in first when
// no session is held.
func (c *Client) ensureSession(ctx context.Context) (sid, csrf string, err error) {
	if sid, csrf, ok := c.session.current(); ok {
		return sid, csrf, nil
	}

	return c.refreshSession(ctx, "")
}

// refreshSession replaces the session the caller observed failing.
// staleSID is the token that was rejected (empty when no session
// existed). If another goroutine already replaced it while we waited for
// the lock, its session is adopted without a second login exchange.
func (c *Client) refreshSession(ctx context.Context, staleSID string) (string, string, error) {
	c.authMu.Lock()
	defer c.authMu.Unlock()

	if sid, csrf, ok := c.session.current(); ok && sid != staleSID {
		return sid, csrf, nil
	}

	c.session.invalidate(staleSID)

	if err := c.login(ctx); err != nil {
		return "", "", err
	}

	sid, csrf, _ := c.session.current()
	return sid, csrf, nil
}

// login exchanges the password for a session token. Transient failures
// are absorbed by the transport retry budget; a rejected credential is
// surfaced immediately as *AuthenticationError.
func (c *Client) login(ctx context.Context) error {
	c.options.requestLogger.Debugf("authenticating against %s", c.baseURL)

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"password": c.password}).
		Post("auth")
	if err != nil {
		return &AuthenticationError{Err: errors.Wrap(err, "login exchange failed")}
	}

	if resp.StatusCode() == http.StatusOK {
		var ar authResponse
		if err := json.Unmarshal(resp.Body(), &ar); err != nil {
			return &AuthenticationError{
				StatusCode: resp.StatusCode(),
				Err:        errors.Wrap(err, "decoding session response"),
			}
		}

		if ar.Session.Valid && ar.Session.Validity > 0 {
			c.session.store(ar.Session.SID, ar.Session.CSRF, ar.Session.Validity)
			c.options.requestLogger.Debugf("authentication successful, session valid for %ds", ar.Session.Validity)
			return nil
		}
	}

	authErr := &AuthenticationError{
		StatusCode: resp.StatusCode(),
		Message:    extractMessage(resp.Body()),
	}
	c.options.requestLogger.Errorf("authentication failed: %v", authErr)
	return authErr
}

// Request sends an authenticated request and decodes the JSON response
// into result (which may be nil to discard the body). method must be one
// of GET, POST, PUT, PATCH or DELETE; path is relative to the /api base,
// e.g. "stats/summary".
func (c *Client) Request(ctx context.Context, method, path string, params url.Values, body, result any) error {
	resp, err := c.do(ctx, method, path, params, body, nil)
	if err != nil {
		return err
	}

	return decodeResult(resp.Body(), result)
}

// RequestBinary sends an authenticated request and returns the raw
// response bytes. Used for non-JSON endpoints such as the teleporter
// settings export, which answers with a compressed archive.
func (c *Client) RequestBinary(ctx context.Context, method, path string, params url.Values) ([]byte, error) {
	resp, err := c.do(ctx, method, path, params, nil, nil)
	if err != nil {
		return nil, err
	}

	return resp.Body(), nil
}

// Get sends an authenticated GET request.
func (c *Client) Get(ctx context.Context, path string, params url.Values, result any) error {
	return c.Request(ctx, http.MethodGet, path, params, nil, result)
}

// Post sends an authenticated POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, result any) error {
	return c.Request(ctx, http.MethodPost, path, nil, body, result)
}

// Put sends an authenticated PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, result any) error {
	return c.Request(ctx, http.MethodPut, path, nil, body, result)
}

// Patch sends an authenticated PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body, result any) error {
	return c.Request(ctx, http.MethodPatch, path, nil, body, result)
}

// Delete sends an authenticated DELETE request.
func (c *Client) Delete(ctx context.Context, path string, params url.Values, result any) error {
	return c.Request(ctx, http.MethodDelete, path, params, nil, result)
}

// PostFile uploads contents as a multipart file field, as required by
// the teleporter settings import endpoint.
func (c *Client) PostFile(ctx context.Context, path, filename string, contents []byte, result any) error {
	resp, err := c.do(ctx, http.MethodPost, path, nil, nil, &fileUpload{
		filename: filename,
		contents: contents,
	})
	if err != nil {
		return err
	}

	return decodeResult(resp.Body(), result)
}

// CloseSession revokes the session with DELETE auth and invalidates the
// local copy. Invalidation happens regardless of the revoke outcome, so
// the next request re-authenticates either way; the returned error only
// reports whether the remote revoke went through.
func (c *Client) CloseSession(ctx context.Context) error {
	sid, csrf, ok := c.session.current()
	if !ok {
		return nil
	}

	// Only the session being revoked is cleared; a replacement installed
	// by a concurrent re-authentication stays active.
	defer c.session.invalidate(sid)

	resp, err := c.send(ctx, http.MethodDelete, "auth", nil, nil, nil, sid, csrf)
	if err != nil {
		c.options.requestLogger.Warnf("session revoke failed: %v", err)
		return err
	}

	// 401 means the server already forgot the session; that is the goal.
	if resp.StatusCode() >= 400 && resp.StatusCode() != http.StatusUnauthorized {
		return &APIError{
			StatusCode: resp.StatusCode(),
			Message:    extractMessage(resp.Body()),
			Body:       resp.Body(),
		}
	}

	return nil
}

// Close releases idle transport connections. The client remains usable;
// call it when discarding the client entirely.
func (c *Client) Close() {
	c.http.GetClient().CloseIdleConnections()
}

// do runs one logical request: ensure a session, send, and on a 401
// re-authenticate exactly once and resend. A second 401 surfaces as
// *AuthenticationError rather than looping.
func (c *Client) do(ctx context.Context, method, path string, params url.Values, body any, upload *fileUpload) (*resty.Response, error) {
	method = strings.ToUpper(method)

	sid, csrf, err := c.ensureSession(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, method, path, params, body, upload, sid, csrf)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode() == http.StatusUnauthorized {
		c.options.requestLogger.Warnf("session rejected on %s %s, re-authenticating", method, path)

		sid, csrf, err = c.refreshSession(ctx, sid)
		if err != nil {
			return nil, err
		}

		resp, err = c.send(ctx, method, path, params, body, upload, sid, csrf)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode() == http.StatusUnauthorized {
			c.session.invalidate(sid)
			return nil, &AuthenticationError{
				StatusCode: resp.StatusCode(),
				Message:    "session rejected immediately after re-authentication",
			}
		}
	}

	if resp.StatusCode() >= 400 {
		return nil, &APIError{
			StatusCode: resp.StatusCode(),
			Message:    extractMessage(resp.Body()),
			Body:       resp.Body(),
		}
	}

	return resp, nil
}

// send performs a single retry-extended transport attempt sequence with
// the given session attached. Connection-level failures that outlive the
// retry budget come back as *TransportError.
func (c *Client) send(ctx context.Context, method, path string, params url.Values, body any, upload *fileUpload, sid, csrf string) (*resty.Response, error) {
	req := c.http.R().
		SetContext(ctx).
		SetHeader(headerSessionID, sid).
		SetHeader(headerCSRFToken, csrf)

	if params != nil {
		req.SetQueryParamsFromValues(params)
	}

	switch {
	case upload != nil:
		// The multipart body is pre-encoded into a byte slice so every
		// retry attempt resends the same bytes; a streaming reader would
		// already be drained when the second attempt runs.
		contentType, encoded, err := encodeMultipart(upload)
		if err != nil {
			return nil, err
		}
		req.SetHeader("Content-Type", contentType)
		req.SetBody(encoded)
	case body != nil:
		req.SetBody(body)
	}

	resp, err := req.Execute(method, strings.TrimPrefix(path, "/"))
	if err != nil {
		// The caller abandoning the request is not a transport failure;
		// surface the context error directly. Client-side timeouts keep
		// their own context untouched and still translate below.
		if ctx.Err() != nil {
			return nil, errors.Wrapf(err, "%s %s", method, path)
		}
		return nil, &TransportError{Err: errors.Wrapf(err, "%s %s failed", method, path)}
	}

	return resp, nil
}

// encodeMultipart renders upload as a single multipart/form-data file
// field and returns the content type carrying the boundary.
func encodeMultipart(upload *fileUpload) (string, []byte, error) {
	var buf bytes.Buffer

	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", upload.filename)
	if err != nil {
		return "", nil, errors.Wrap(err, "encoding multipart body")
	}

	if _, err := part.Write(upload.contents); err != nil {
		return "", nil, errors.Wrap(err, "encoding multipart body")
	}

	if err := w.Close(); err != nil {
		return "", nil, errors.Wrap(err, "encoding multipart body")
	}

	return w.FormDataContentType(), buf.Bytes(), nil
}

// decodeResult unmarshals a JSON body into result. Empty bodies (204
// responses, action endpoints) decode to nothing.
func decodeResult(body []byte, result any) error {
	if result == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	if err := json.Unmarshal(body, result); err != nil {
		return errors.Wrap(err, "decoding response body")
	}

	return nil
}
