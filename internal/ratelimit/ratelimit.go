// Package ratelimit implements fixed-window admission control keyed by an
// opaque identity string (in practice "apikey:<id>").
package ratelimit

import (
	"context"
	"time"
)

// Decision is the outcome of one admission check.
type Decision struct {
	Allowed   bool
	Remaining int
	// ResetAt is the current window's boundary. It is stable across
	// repeated denials within the same window.
	ResetAt time.Time
}

// Limiter atomically counts a request against the identity's current
// window and decides admission.
type Limiter interface {
	Allow(ctx context.Context, identity string) (Decision, error)
}

// windowStart floors now to a multiple of the window length, so every
// caller computes the same boundary for the same instant regardless of
// arrival order.
func windowStart(now time.Time, window time.Duration) time.Time {
	return now.Truncate(window)
}
