package gateway

import (
	"errors"
	"fmt"

	"github.com/bluesky-social/indigo/xrpc"

	"skyframe/internal/atproto/session"
)

var (
	// ErrUpstream wraps any Bluesky API failure that is not one of the
	// more specific sentinels below. The core never retries these.
	ErrUpstream = errors.New("upstream request failed")

	// ErrNotFound indicates the referenced record/actor does not exist
	ErrNotFound = errors.New("not found")

	// ErrRateLimited indicates the API rejected the call with a 429
	ErrRateLimited = errors.New("rate limited")
)

// wrapXRPCError maps indigo xrpc errors to typed sentinels so callers can
// use errors.Is. Auth failures surface as session.ErrAuthenticationRequired
// to force re-login.
func wrapXRPCError(err error, operation string) error {
	if err == nil {
		return nil
	}

	var xrpcErr *xrpc.Error
	if errors.As(err, &xrpcErr) {
		switch xrpcErr.StatusCode {
		case 401, 403:
			return fmt.Errorf("%s: %w: %s", operation, session.ErrAuthenticationRequired, err)
		case 404:
			return fmt.Errorf("%s: %w: %s", operation, ErrNotFound, err)
		case 429:
			return fmt.Errorf("%s: %w: %s", operation, ErrRateLimited, err)
		}
	}

	return fmt.Errorf("%s: %w: %s", operation, ErrUpstream, err)
}
