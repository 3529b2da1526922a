// Package timeutil implements the signed time-of-day arithmetic used
// throughout the prediction engine (spec component C1). All values are
// confined to a single day; day-wrap is out of scope except for the
// advisory surfaced by Add.
package timeutil

import (
	"fmt"
	"time"

	"github.com/railvorhersage/predictengine/internal/zwlerr"
)

// day is the modulus every TimeOfDay is reduced against.
const day = 24 * time.Hour

// limit is the maximum span any single timediff/timeadd call may span.
const limit = 8 * time.Hour

// TimeOfDay is an offset since midnight, confined to [0, 24h).
type TimeOfDay struct {
	d time.Duration
}

// Zero is the TimeOfDay value used to mean "not set" for fields that
// are conceptually optional but represented without a pointer (use
// *TimeOfDay at call sites where nullability matters instead).
var Zero = TimeOfDay{}

// New builds a TimeOfDay from hour/minute/second components.
func New(h, m, s int) TimeOfDay {
	return TimeOfDay{d: time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second}
}

// FromDuration wraps a duration-since-midnight as a TimeOfDay, reducing
// it modulo 24h.
func FromDuration(d time.Duration) TimeOfDay {
	d %= day
	if d < 0 {
		d += day
	}
	return TimeOfDay{d: d}
}

// Duration returns the offset since midnight.
func (t TimeOfDay) Duration() time.Duration { return t.d }

// Before reports whether t is strictly earlier than u.
func (t TimeOfDay) Before(u TimeOfDay) bool { return t.d < u.d }

// After reports whether t is strictly later than u.
func (t TimeOfDay) After(u TimeOfDay) bool { return t.d > u.d }

// Equal reports value equality.
func (t TimeOfDay) Equal(u TimeOfDay) bool { return t.d == u.d }

// Max returns the later of two times-of-day.
func Max(a, b TimeOfDay) TimeOfDay {
	if a.After(b) {
		return a
	}
	return b
}

// String renders HH:MM:SS.
func (t TimeOfDay) String() string {
	total := int(t.d / time.Second)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// Diff computes a - b as a duration (spec §4.1 timediff).
//
// Requires a >= b and a-b <= 8h; otherwise fails with OutOfRange. Day
// wrap is not supported: callers that need midnight-crossing subtraction
// must handle it themselves (spec.md explicitly defers this).
func Diff(a, b TimeOfDay) (time.Duration, error) {
	if a.d < b.d {
		return 0, zwlerr.New(zwlerr.OutOfRange, "%s < %s", a, b)
	}
	diff := a.d - b.d
	if diff > limit {
		return 0, zwlerr.New(zwlerr.OutOfRange, "%s and %s are more than 8h apart", a, b)
	}
	return diff, nil
}

// Add computes t + delta, wrapped to a time-of-day (spec §4.1 timeadd).
//
// Requires |delta| <= 8h; otherwise fails with OutOfRange. If the sum
// crosses midnight, a non-nil *zwlerr.MidnightAdvisory is returned
// alongside the wrapped result — this is advisory only, never an error.
func Add(t TimeOfDay, delta time.Duration) (TimeOfDay, *zwlerr.MidnightAdvisory, error) {
	abs := delta
	if abs < 0 {
		abs = -abs
	}
	if abs > limit {
		return TimeOfDay{}, nil, zwlerr.New(zwlerr.OutOfRange, "delta %s exceeds 8h", delta)
	}
	sum := t.d + delta
	if sum >= 0 && sum < day {
		return TimeOfDay{d: sum}, nil, nil
	}
	wrapped := FromDuration(sum)
	return wrapped, &zwlerr.MidnightAdvisory{Wrapped: wrapped.String()}, nil
}
