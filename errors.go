package pihole6api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// AuthenticationError indicates the credential was rejected, the login
// exchange exhausted its retry budget, or the server rejected a freshly
// issued session. It is surfaced immediately and never retried further.
type AuthenticationError struct {
	// StatusCode is the HTTP status of the failing login exchange, or 0
	// when the exchange failed at the connection level.
	StatusCode int

	// Message is the remote-provided failure reason, when present.
	Message string

	// Err is the underlying cause for connection-level failures.
	Err error
}

func (e *AuthenticationError) Error() string {
	switch {
	case e.Message != "":
		return "authentication failed: " + e.Message
	case e.Err != nil:
		return "authentication failed: " + e.Err.Error()
	default:
		return "authentication failed"
	}
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// APIError carries a non-transient remote error status together with the
// message the server provided. The raw response body is preserved for
// callers that need more than the extracted message.
type APIError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("pi-hole API error: HTTP %d %s: %s",
		e.StatusCode, http.StatusText(e.StatusCode), e.Message)
}

// TransportError indicates a connection-level failure (DNS, refused
// connection, timeout) that outlived the retry budget.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "transport error: " + e.Err.Error() }

func (e *TransportError) Unwrap() error { return e.Err }

// extractMessage pulls a human-readable message out of a Pi-hole error
// body. The API reports errors as {"error":{"message":...}} on resource
// endpoints and {"session":{"message":...}} on the auth endpoint; plain
// string error fields and non-JSON bodies fall back to the raw text.
func extractMessage(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return "(empty error body)"
	}

	var envelope struct {
		Error   json.RawMessage `json:"error"`
		Session struct {
			Message string `json:"message"`
		} `json:"session"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if len(envelope.Error) > 0 {
			var s string
			if json.Unmarshal(envelope.Error, &s) == nil && s != "" {
				return s
			}

			var obj struct {
				Message string `json:"message"`
			}
			if json.Unmarshal(envelope.Error, &obj) == nil && obj.Message != "" {
				return obj.Message
			}
		}

		if envelope.Session.Message != "" {
			return envelope.Session.Message
		}
	}

	return trimmed
}
