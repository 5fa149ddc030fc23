package pihole6api

import (
	"context"
	"net/url"
)

// Requester is the surface resource wrappers are written against: the
// generic authenticated verbs and nothing else. Wrappers shape their
// parameters into a path/params/body triple, call through, and reshape
// the JSON result; session handling and retries stay the Client's job,
// and wrappers hold no state across calls.
//
// Depending on this interface instead of *Client keeps wrappers testable
// with a fake that returns scripted responses.
type Requester interface {
	Request(ctx context.Context, method, path string, params url.Values, body, result any) error
	RequestBinary(ctx context.Context, method, path string, params url.Values) ([]byte, error)
	Get(ctx context.Context, path string, params url.Values, result any) error
	Post(ctx context.Context, path string, body, result any) error
	Put(ctx context.Context, path string, body, result any) error
	Patch(ctx context.Context, path string, body, result any) error
	Delete(ctx context.Context, path string, params url.Values, result any) error
	PostFile(ctx context.Context, path, filename string, contents []byte, result any) error
}

var _ Requester = (*Client)(nil)
