package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/logify-sh/logify/internal/clock"
)

// allowQuery is the whole admission decision in one round trip: open a
// fresh window when the stored one differs from the computed current
// window, else increment. The returned count is authoritative under
// concurrent callers across instances because the upsert takes a row lock.
const allowQuery = `
	INSERT INTO rate_limit_windows (identity, window_start, count, updated_at)
	VALUES ($1, $2, 1, now())
	ON CONFLICT (identity) DO UPDATE SET
		count = CASE
			WHEN rate_limit_windows.window_start <> EXCLUDED.window_start THEN 1
			ELSE rate_limit_windows.count + 1
		END,
		window_start = EXCLUDED.window_start,
		updated_at = now()
	RETURNING count`

const purgeQuery = `
	DELETE FROM rate_limit_windows
	WHERE window_start < $1`

// querier is the slice of pgxpool.Pool the limiter needs.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresLimiter centralizes window counters in the shared store so the
// aggregate count holds across independently scaled instances.
type PostgresLimiter struct {
	pool   querier
	limit  int
	window time.Duration
	clock  clock.Clock
}

func NewPostgresLimiter(pool querier, limit int, window time.Duration, clk clock.Clock) *PostgresLimiter {
	if clk == nil {
		clk = clock.System{}
	}
	return &PostgresLimiter{pool: pool, limit: limit, window: window, clock: clk}
}

func (l *PostgresLimiter) Allow(ctx context.Context, identity string) (Decision, error) {
	now := l.clock.Now()
	start := windowStart(now, l.window)
	resetAt := start.Add(l.window)

	var count int64
	if err := l.pool.QueryRow(ctx, allowQuery, identity, start).Scan(&count); err != nil {
		return Decision{}, fmt.Errorf("rate limit upsert: %w", err)
	}

	remaining := l.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   count <= int64(l.limit),
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}

// Purge deletes window rows whose window expired before the grace cutoff.
// Decisions never depend on stale rows (a stale window is reset in the
// upsert), so this only bounds table growth.
func (l *PostgresLimiter) Purge(ctx context.Context) error {
	cutoff := windowStart(l.clock.Now(), l.window).Add(-purgeGrace)
	if _, err := l.pool.Exec(ctx, purgeQuery, cutoff); err != nil {
		return fmt.Errorf("rate limit purge: %w", err)
	}
	return nil
}
