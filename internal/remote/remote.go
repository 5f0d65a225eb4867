// Package remote defines the contract of the authoritative notification
// store and its two implementations: an HTTP client for the fleet server
// and an in-process adapter over the local SQLite store.
package remote

import (
	"context"
	"errors"
	"fmt"

	"github.com/nhle/fleet-notify/internal/model"
)

// BatchResult reports how many records a batch call touched. A count lower
// than the batch size means some ids no longer existed server-side.
type BatchResult struct {
	Count int
}

// Store is the remote notification-store contract consumed by the engine.
// Every batch method carries the full id batch in exactly one request.
type Store interface {
	MarkRead(ctx context.Context, ids []string) (BatchResult, error)
	MarkUnread(ctx context.Context, ids []string) (BatchResult, error)
	Delete(ctx context.Context, ids []string) (BatchResult, error)
	MarkAllRead(ctx context.Context) error
	FetchSummary(ctx context.Context) (*model.Summary, error)
}

// NetworkError is a transport failure: the request never produced a
// usable response.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError is a response with success=false. Message is the server's
// own text and may be empty.
type ServerError struct {
	Op      string
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: server reported failure (status %d)", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// IsNetworkError reports whether err (or any error in its chain) is a
// NetworkError.
func IsNetworkError(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// IsServerError reports whether err (or any error in its chain) is a
// ServerError.
func IsServerError(err error) bool {
	var srvErr *ServerError
	return errors.As(err, &srvErr)
}
