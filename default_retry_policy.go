package pihole6api

import (
	"context"
	"errors"
	"net"

	"github.com/go-resty/resty/v2"
)

// Transient statuses, matching Pi-hole's recommended force-list. 401 is
// deliberately absent: session expiry is handled by re-authentication,
// not by the retry loop.
var transientStatuses = map[int]bool{
	429: true,
	500: true,
	502: true,
	503: true,
	504: true,
}

// DefaultRetryPolicy is the default retry condition used by [Client]. It
// retries on HTTP 429 (rate limit) and the transient server errors 500,
// 502, 503 and 504, and on transient connection errors. It does not retry
// on context cancellation, deadline exceeded, or DNS resolution failures.
//
// Supply a custom function via [WithRetryPolicy] to override this behaviour.
func DefaultRetryPolicy(r *resty.Response, err error) bool {
	if err != nil {
		// Don't retry on context cancellation or deadline exceeded
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return false
		}

		// Don't retry on DNS resolution errors
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) {
			return false
		}

		// Retry on other connection errors
		return true
	}

	return transientStatuses[r.StatusCode()]
}
