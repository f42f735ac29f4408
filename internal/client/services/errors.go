// Package services contains the application services of the Kenala client:
// the journal sync repository, the notification inbox and authentication.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/kenala/internal/client/client"
)

// Kind classifies a remote failure.
type Kind int

const (
	KindRemoteUnavailable Kind = iota + 1
	KindRemoteRejected
	KindEmptyResponse
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindRemoteUnavailable:
		return "remote unavailable"
	case KindRemoteRejected:
		return "remote rejected"
	case KindEmptyResponse:
		return "empty response"
	case KindConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

var (
	// ErrLocalStorage wraps every failure of the local store. Such failures
	// are never recovered by the services.
	ErrLocalStorage = errors.New("local storage fault")
	ErrNotFound     = errors.New("journal not found")
)

// Error is a failed remote interaction. Message is always set and safe to
// show to the user.
type Error struct {
	Kind    Kind
	Code    int
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}

// remoteError converts a client error. Context errors pass through
// unchanged so callers can tell cancellation from failure.
func remoteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var se *client.StatusError
	switch {
	case errors.Is(err, client.ErrUnavailable):
		return &Error{Kind: KindRemoteUnavailable, Message: "server is unreachable, check your connection", Err: err}
	case errors.Is(err, client.ErrEmptyResponse):
		return &Error{Kind: KindEmptyResponse, Message: "server returned an empty response", Err: err}
	case errors.As(err, &se):
		kind := KindRemoteRejected
		if se.Code == http.StatusConflict {
			kind = KindConflict
		}
		return &Error{Kind: kind, Code: se.Code, Message: fmt.Sprintf("server rejected the request (%d): %s", se.Code, se.Message), Err: err}
	default:
		return &Error{Kind: KindEmptyResponse, Message: "server response could not be used", Err: err}
	}
}

func storageError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrLocalStorage, err)
}
