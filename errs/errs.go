// Package errs defines the error kinds raised by the grid pipeline.
//
// Every error produced by a lifecycle method wraps exactly one of the
// sentinel kinds, so callers can branch with errors.Is:
//
//	if errors.Is(err, errs.ErrLifecycle) { ... }
//
// and recover the operation details with errors.As on *Error.
package errs

import (
	"errors"
	"fmt"
)

// Error kinds.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrLifecycle     = errors.New("lifecycle error")
	ErrDataSource    = errors.New("datasource error")
	ErrCacheWrite    = errors.New("cache write error")
	ErrState         = errors.New("state error")
)

// Error carries the kind, the failing operation and an optional cause.
type Error struct {
	Kind error
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	s := e.Op
	if e.Msg != "" {
		if s != "" {
			s += ": "
		}
		s += e.Msg
	}
	if e.Err != nil {
		if s != "" {
			s += ": "
		}
		s += e.Err.Error()
	}
	if s == "" {
		return e.Kind.Error()
	}
	return s
}

// Is reports a match on the error kind.
func (e *Error) Is(target error) bool {
	return e.Kind == target
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Configuration reports bad setup: unresolvable column types, missing
// datasource companions, unregistered renderers.
func Configuration(op, format string, args ...any) error {
	return &Error{Kind: ErrConfiguration, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Lifecycle reports an operation invoked out of order.
func Lifecycle(op, format string, args ...any) error {
	return &Error{Kind: ErrLifecycle, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// DataSource wraps a backend execution or result-shape failure.
func DataSource(op string, err error) error {
	return &Error{Kind: ErrDataSource, Op: op, Err: err}
}

// DataSourcef reports a backend failure without an underlying cause.
func DataSourcef(op, format string, args ...any) error {
	return &Error{Kind: ErrDataSource, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// CacheWrite wraps a failed view state write.
func CacheWrite(op, cacheID string, err error) error {
	return &Error{Kind: ErrCacheWrite, Op: op, Msg: fmt.Sprintf("could not save view state %q", cacheID), Err: err}
}

// State reports a replay request without prior cached state.
func State(op, format string, args ...any) error {
	return &Error{Kind: ErrState, Op: op, Msg: fmt.Sprintf(format, args...)}
}
