// Package quota answers how many events a project has ingested in the
// current billing period.
package quota

import (
	"context"
	"time"

	"github.com/logify-sh/logify/internal/clock"
)

// LogCounter is the count path the oracle needs from the log store. It
// must be index-backed; the oracle runs on every ingestion request.
type LogCounter interface {
	CountSince(ctx context.Context, projectID string, since time.Time) (int64, error)
}

// Oracle is a stateless read over the log store. Counts are recomputed per
// request, never cached.
type Oracle struct {
	store LogCounter
	clock clock.Clock
}

func NewOracle(store LogCounter, clk clock.Clock) *Oracle {
	if clk == nil {
		clk = clock.System{}
	}
	return &Oracle{store: store, clock: clk}
}

// MonthlyCount counts events persisted for the project since the first
// instant of the current UTC calendar month. Billing periods are fixed to
// UTC; there is no per-tenant timezone.
func (o *Oracle) MonthlyCount(ctx context.Context, projectID string) (int64, error) {
	return o.store.CountSince(ctx, projectID, monthStart(o.clock.Now()))
}

func monthStart(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
}
