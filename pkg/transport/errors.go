package transport

import (
	"errors"
	"fmt"
)

// Kind classifies a failed exchange.
type Kind string

const (
	KindCancelled   Kind = "cancelled"
	KindTimedOut    Kind = "timed_out"
	KindCircuitOpen Kind = "circuit_open"
	KindStatus      Kind = "status"
	KindNetwork     Kind = "network"
)

var (
	// ErrCancelled matches failures caused by the caller cancelling the context.
	ErrCancelled = errors.New("request cancelled")
	// ErrTimedOut matches failures caused by a deadline, never by cancellation.
	ErrTimedOut = errors.New("request timed out")
	// ErrCircuitOpen matches requests rejected without being sent.
	ErrCircuitOpen = errors.New("circuit open")
)

// Error is a failed exchange with a Google endpoint. Err keeps the cause.
type Error struct {
	Kind Kind
	API  string

	// StatusCode and Body are set for KindStatus.
	StatusCode int
	Body       []byte

	Err error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindStatus:
		return fmt.Sprintf("%s: upstream returned status %d", e.API, e.StatusCode)
	case KindCircuitOpen:
		return fmt.Sprintf("%s: circuit open", e.API)
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.API, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.API, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	switch target {
	case ErrCancelled:
		return e.Kind == KindCancelled
	case ErrTimedOut:
		return e.Kind == KindTimedOut
	case ErrCircuitOpen:
		return e.Kind == KindCircuitOpen
	}
	return false
}

// KindOf returns the Kind of a transport error, or "" for any other error.
func KindOf(err error) Kind {
	var tErr *Error
	if errors.As(err, &tErr) {
		return tErr.Kind
	}
	return ""
}
