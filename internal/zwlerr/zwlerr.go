// Package zwlerr defines the closed set of fatal error kinds the
// prediction engine can raise, per spec section 7. Errors are a tagged
// variant (Kind), not an open exception hierarchy: callers switch on
// Kind rather than on concrete Go types.
package zwlerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind is the closed set of fatal error categories the engine raises.
type Kind int

const (
	// DegenerateTimetable: empty timetable, or a train stopping fewer
	// than twice while a ride is expected.
	DegenerateTimetable Kind = iota
	// Protocol: a Response was inconsistent with the Action that
	// produced it (e.g. NotFree after a historical event).
	Protocol
	// OutOfRange: time arithmetic exceeded the 8h window, or a
	// difference a - b was requested with a < b.
	OutOfRange
	// NoDefault: the minimum-stop-time table has no global fallback
	// rule at setup time.
	NoDefault
)

func (k Kind) String() string {
	switch k {
	case DegenerateTimetable:
		return "DegenerateTimetable"
	case Protocol:
		return "Protocol"
	case OutOfRange:
		return "OutOfRange"
	case NoDefault:
		return "NoDefault"
	default:
		return "Unknown"
	}
}

// Error is a fatal engine error carrying its Kind plus a stack trace
// captured at the raise site (via github.com/pkg/errors), so a Manager
// run aborted deep inside a Journey still reports where it went wrong.
type Error struct {
	Kind Kind
	msg  string
	// cause carries the pkg/errors-wrapped stack trace.
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.msg)
}

// Unwrap exposes the stack-annotated cause for errors.As/errors.Is and
// for %+v formatting via github.com/pkg/errors.
func (e *Error) Unwrap() error { return e.cause }

// New creates a new *Error of the given kind, capturing a stack trace.
func New(kind Kind, format string, args ...interface{}) *Error {
	msg := fmt.Sprintf(format, args...)
	return &Error{Kind: kind, msg: msg, cause: errors.New(msg)}
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// MidnightAdvisory is the non-fatal signal timeutil.Add returns
// (as a second, non-error value) when a sum crosses midnight. It is
// deliberately not an `error` implementation: it is advisory, never
// aborts a run.
type MidnightAdvisory struct {
	// Wrapped is the time-of-day the addition wrapped to.
	Wrapped string
}

func (m *MidnightAdvisory) String() string {
	if m == nil {
		return ""
	}
	return fmt.Sprintf("result wrapped past midnight to %s", m.Wrapped)
}
