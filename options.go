package pihole6api

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-resty/resty/v2"
)

type Option func(*Options)

type Options struct {
	retryCount       int
	retryWaitTime    time.Duration
	retryMaxWaitTime time.Duration
	timeout          time.Duration
	insecureTLS      bool
	disablePooling   bool
	retryMutating    bool
	rateLimitPerMin  int
	requestLogger    RequestLogger
	retryPolicy      func(*resty.Response, error) bool
	requestHeaders   map[string]string
}

func newClientOptions() *Options {
	return &Options{
		retryCount:       3,
		retryWaitTime:    1 * time.Second,
		retryMaxWaitTime: 30 * time.Second,
		timeout:          10 * time.Second,
		retryMutating:    true,
		requestLogger:    &NoopLogger{},
		retryPolicy:      DefaultRetryPolicy,
		requestHeaders: map[string]string{
			"Content-Type": "application/json",
			"Accept":       "application/json",
		},
	}
}

// Validate reports the first invalid option value. It is called by [New]
// before any network state is built.
func (o *Options) Validate() error {
	if o.retryCount < 0 {
		return errors.New("retryCount must be non-negative")
	}

	if o.retryCount > 100 {
		return errors.New("retryCount must not exceed 100")
	}

	if o.retryWaitTime < 100*time.Millisecond {
		return errors.New("retryWaitTime must be at least 100ms")
	}

	if o.retryWaitTime > time.Minute {
		return errors.Newf("retryWaitTime must not exceed %s", time.Minute)
	}

	if o.retryMaxWaitTime < 100*time.Millisecond {
		return errors.New("retryMaxWaitTime must be at least 100ms")
	}

	if o.retryMaxWaitTime > 5*time.Minute {
		return errors.Newf("retryMaxWaitTime must not exceed %s", 5*time.Minute)
	}

	if o.retryMaxWaitTime < o.retryWaitTime {
		return errors.Newf("retryMaxWaitTime (%s) must be greater than or equal to retryWaitTime (%s)",
			o.retryMaxWaitTime, o.retryWaitTime)
	}

	if o.timeout <= 0 {
		return errors.New("timeout must be positive")
	}

	if o.rateLimitPerMin < 0 {
		return errors.New("rateLimitPerMinute must be non-negative")
	}

	if o.requestLogger == nil {
		return errors.New("requestLogger must not be nil")
	}

	if o.retryPolicy == nil {
		return errors.New("retryPolicy must not be nil")
	}

	return nil
}

// WithRetryCount sets how many times a failed request is retried after
// the initial attempt. Zero disables retries.
func WithRetryCount(count int) Option {
	return func(o *Options) {
		if count >= 0 {
			o.retryCount = count
		}
	}
}

// WithRetryWaitTime sets the base delay before the first retry. Each
// subsequent retry doubles the delay up to the maximum wait time.
func WithRetryWaitTime(waitTime time.Duration) Option {
	return func(o *Options) {
		if waitTime >= 100*time.Millisecond {
			o.retryWaitTime = waitTime
		}
	}
}

// WithRetryMaxWaitTime caps the exponential backoff delay between retries.
func WithRetryMaxWaitTime(maxWaitTime time.Duration) Option {
	return func(o *Options) {
		if maxWaitTime >= 100*time.Millisecond {
			o.retryMaxWaitTime = maxWaitTime
		}
	}
}

// WithTimeout sets the per-request timeout, covering connection
// establishment and the full response. No request hangs longer than this.
func WithTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithInsecureTLS disables TLS certificate verification. Pi-hole
// deployments commonly serve the API with a self-signed certificate;
// verification stays enabled unless this option is supplied.
func WithInsecureTLS() Option {
	return func(o *Options) {
		o.insecureTLS = true
	}
}

// WithoutConnectionPooling disables keep-alive connection reuse. Useful
// against appliances that mishandle pooled connections.
func WithoutConnectionPooling() Option {
	return func(o *Options) {
		o.disablePooling = true
	}
}

// WithRetryOnMutating controls whether POST, PUT, PATCH and DELETE
// requests are retried on transient failures. Enabled by default:
// Pi-hole's mutating endpoints are idempotent by resource identity, so
// repeating them changes nothing beyond the first application. Pass
// false if a failed mutation of unknown outcome must not be resent.
func WithRetryOnMutating(retry bool) Option {
	return func(o *Options) {
		o.retryMutating = retry
	}
}

// WithRateLimit caps outbound requests at the given number per minute.
// Zero (the default) disables client-side rate limiting.
func WithRateLimit(perMinute int) Option {
	return func(o *Options) {
		if perMinute > 0 {
			o.rateLimitPerMin = perMinute
		}
	}
}

func WithRequestLogger(logger RequestLogger) Option {
	return func(o *Options) {
		if logger != nil {
			o.requestLogger = logger
		}
	}
}

func WithRetryPolicy(policy func(*resty.Response, error) bool) Option {
	return func(o *Options) {
		if policy != nil {
			o.retryPolicy = policy
		}
	}
}

func WithRequestHeader(header, value string) Option {
	return func(o *Options) {
		header = strings.TrimSpace(header)

		if header == "" || strings.EqualFold(header, "Content-Type") || strings.EqualFold(header, "Accept") {
			return
		}

		o.requestHeaders[header] = value
	}
}
