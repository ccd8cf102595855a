// Package fetch models the lifecycle of a single remote resource as a tagged
// variant, replacing ad-hoc loading/error flags.
package fetch

import (
	"github.com/go-faster/errors"

	"github.com/xenking/shopeasy/internal/domain/catalog"
)

// Status enumerates the phases of a fetch.
type Status uint8

const (
	// StatusIdle means nothing was requested yet.
	StatusIdle Status = iota
	// StatusLoading means a request is in flight.
	StatusLoading
	// StatusSuccess means the latest request returned data.
	StatusSuccess
	// StatusFailure means the latest request failed.
	StatusFailure
	// StatusNotFound means the requested resource does not exist.
	StatusNotFound
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	case StatusNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// State is the current state of one resource. Data is only meaningful when
// Status is StatusSuccess, Err only for StatusFailure and StatusNotFound.
type State[T any] struct {
	Status Status
	Data   T
	Err    error
}

// Idle returns the initial state.
func Idle[T any]() State[T] {
	return State[T]{Status: StatusIdle}
}

// Loading returns an in-flight state.
func Loading[T any]() State[T] {
	return State[T]{Status: StatusLoading}
}

// Success wraps fetched data.
func Success[T any](data T) State[T] {
	return State[T]{Status: StatusSuccess, Data: data}
}

// Failure wraps a fetch error.
func Failure[T any](err error) State[T] {
	return State[T]{Status: StatusFailure, Err: err}
}

// NotFound marks a missing resource.
func NotFound[T any](err error) State[T] {
	return State[T]{Status: StatusNotFound, Err: err}
}

// Resolve converts a repository result into a terminal state.
// catalog.ErrNotFound maps to NotFound, any other error to Failure.
func Resolve[T any](data T, err error) State[T] {
	switch {
	case err == nil:
		return Success(data)
	case errors.Is(err, catalog.ErrNotFound):
		return NotFound[T](err)
	default:
		return Failure[T](err)
	}
}

// Pending reports whether the state is still waiting for a result.
func (s State[T]) Pending() bool {
	return s.Status == StatusIdle || s.Status == StatusLoading
}
