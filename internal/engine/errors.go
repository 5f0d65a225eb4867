package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/nhle/fleet-notify/internal/remote"
)

// Kind classifies an engine error for display and control flow.
type Kind string

const (
	KindValidation  Kind = "validation"
	KindNetwork     Kind = "network"
	KindServer      Kind = "server"
	KindStaleTarget Kind = "stale_target"
	KindBusy        Kind = "busy"
)

// Fallback messages shown when an error carries no text of its own.
const (
	msgNetwork = "Network error, check your connection and try again."
	msgServer  = "The server could not complete the request."
	msgBusy    = "An action on this notification is already in progress."
	msgStale   = "This notification no longer exists."
)

// Error is returned by every engine operation that fails. None of them
// leave the engine unusable.
type Error struct {
	Kind    Kind
	Message string
	IDs     []string
	cause   error
}

func newError(kind Kind, message string, ids []string) *Error {
	return &Error{Kind: kind, Message: message, IDs: ids}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// KindOf returns the Kind of err, or "" when err is not an engine error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsNetwork reports whether err is a transport failure.
func IsNetwork(err error) bool { return KindOf(err) == KindNetwork }

// IsServer reports whether err is a success=false answer.
func IsServer(err error) bool { return KindOf(err) == KindServer }

// IsBusy reports whether err rejected an action on an in-flight id.
func IsBusy(err error) bool { return KindOf(err) == KindBusy }

// DisplayMessage returns the user-facing text for err.
func DisplayMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if !errors.As(err, &e) {
		return msgServer
	}
	if e.Message != "" {
		return e.Message
	}
	switch e.Kind {
	case KindNetwork:
		return msgNetwork
	case KindBusy:
		return msgBusy
	case KindStaleTarget:
		return msgStale
	default:
		return msgServer
	}
}

// classify turns a remote failure into an engine error. Server text is
// kept verbatim; anything that is not a ServerError counts as transport.
func classify(err error, ids []string) *Error {
	var srvErr *remote.ServerError
	if errors.As(err, &srvErr) {
		e := newError(KindServer, srvErr.Message, ids)
		e.cause = err
		return e
	}

	e := newError(KindNetwork, "", ids)
	if errors.Is(err, context.DeadlineExceeded) {
		e.Message = "The server took too long to answer."
	}
	e.cause = err
	return e
}

// Classify wraps a failed remote call made outside a mutation, such as
// a summary fetch, in an engine Error.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	return classify(err, nil)
}
