// Package clock abstracts wall-clock time so window boundaries and
// billing-period math are deterministic under test.
package clock

import "time"

type Clock interface {
	Now() time.Time
}

// System reads the real wall clock.
type System struct{}

func (System) Now() time.Time { return time.Now() }

// Fixed always returns the same instant. Test use.
type Fixed struct{ T time.Time }

func (f Fixed) Now() time.Time { return f.T }
