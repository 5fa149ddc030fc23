package pihole6api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/go-resty/resty/v2"
)

func responseWithStatus(code int) *resty.Response {
	return &resty.Response{
		RawResponse: &http.Response{StatusCode: code},
	}
}

func TestDefaultRetryPolicy_Statuses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status int
		retry  bool
	}{
		{http.StatusOK, false},
		{http.StatusNoContent, false},
		{http.StatusBadRequest, false},
		{http.StatusUnauthorized, false}, // session expiry is re-auth, not retry
		{http.StatusNotFound, false},
		{http.StatusTooManyRequests, true},
		{http.StatusInternalServerError, true},
		{http.StatusNotImplemented, false}, // 501 is not transient
		{http.StatusBadGateway, true},
		{http.StatusServiceUnavailable, true},
		{http.StatusGatewayTimeout, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(fmt.Sprintf("status %d", tt.status), func(t *testing.T) {
			t.Parallel()

			if got := DefaultRetryPolicy(responseWithStatus(tt.status), nil); got != tt.retry {
				t.Errorf("status %d: expected retry=%v, got %v", tt.status, tt.retry, got)
			}
		})
	}
}

func TestDefaultRetryPolicy_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		err   error
		retry bool
	}{
		{"context canceled", context.Canceled, false},
		{"wrapped context canceled", errors.Wrap(context.Canceled, "request"), false},
		{"deadline exceeded", context.DeadlineExceeded, false},
		{"dns error", &net.DNSError{Err: "no such host", Name: "pi.hole"}, false},
		{"connection refused", errors.New("dial tcp 127.0.0.1:80: connect: connection refused"), true},
		{"reset by peer", errors.New("read: connection reset by peer"), true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := DefaultRetryPolicy(nil, tt.err); got != tt.retry {
				t.Errorf("expected retry=%v, got %v", tt.retry, got)
			}
		})
	}
}
