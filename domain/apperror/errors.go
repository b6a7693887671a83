// Package apperror defines the typed failures the core distinguishes between.
// Callers match them with errors.As; every type unwraps to its cause where one exists.
package apperror

import (
	"fmt"
	"time"
)

// AuthError means the access credential is invalid or expired. It is fatal to
// an extraction run and is never retried automatically.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// RateLimitError means the external API quota is exhausted. Callers should
// back off and retry with bounded attempts.
type RateLimitError struct {
	RetryAfter time.Duration
	Err        error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded: %v", e.Err)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// TransientNetworkError covers connectivity blips and timed-out calls.
// Retried with bounded attempts and backoff.
type TransientNetworkError struct {
	Err error
}

func (e *TransientNetworkError) Error() string {
	return fmt.Sprintf("transient network failure: %v", e.Err)
}

func (e *TransientNetworkError) Unwrap() error { return e.Err }

// BackendUnavailableError means a storage backend cannot be reached. The
// operation aborts; there is no fallback to the other backend.
type BackendUnavailableError struct {
	Backend string
	Err     error
}

func (e *BackendUnavailableError) Error() string {
	return fmt.Sprintf("storage backend %q unavailable: %v", e.Backend, e.Err)
}

func (e *BackendUnavailableError) Unwrap() error { return e.Err }

// BackendRequestError means a storage backend received the operation and
// rejected it, such as a Solr schema mismatch. The backend is reachable;
// retrying the same request will not help.
type BackendRequestError struct {
	Backend string
	Err     error
}

func (e *BackendRequestError) Error() string {
	return fmt.Sprintf("storage backend %q rejected the request: %v", e.Backend, e.Err)
}

func (e *BackendRequestError) Unwrap() error { return e.Err }

// InvalidQueryError rejects an empty or whitespace-only search query.
type InvalidQueryError struct {
	Reason string
}

func (e *InvalidQueryError) Error() string {
	return fmt.Sprintf("invalid query: %s", e.Reason)
}

// InvalidSourceError rejects an unrecognized storage source identifier.
type InvalidSourceError struct {
	Source string
}

func (e *InvalidSourceError) Error() string {
	return fmt.Sprintf("invalid source %q: expected \"json\" or \"solr\"", e.Source)
}
