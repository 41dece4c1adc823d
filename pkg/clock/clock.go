// Package clock injects wall-clock time so the state machine's slot and
// reminder checks stay pure functions of (release|cron job, clock()),
// per the "ad hoc time checks" redesign note in spec.md §9.
package clock

import "time"

// Clock returns the current time. Production code uses Real; tests inject
// a fixed or steppable implementation.
type Clock interface {
	Now() time.Time
}

// Real is the production Clock backed by time.Now.
type Real struct{}

// Now returns the current wall-clock time.
func (Real) Now() time.Time { return time.Now() }

// Fixed is a Clock that always returns the same instant, for deterministic
// tests of slot-window matching.
type Fixed struct {
	At time.Time
}

// Now returns the fixed instant.
func (f Fixed) Now() time.Time { return f.At }
