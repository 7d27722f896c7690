package quota

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logify-sh/logify/internal/clock"
)

type recordingCounter struct {
	gotProject string
	gotSince   time.Time
	count      int64
}

func (c *recordingCounter) CountSince(_ context.Context, projectID string, since time.Time) (int64, error) {
	c.gotProject = projectID
	c.gotSince = since
	return c.count, nil
}

func TestOracle_CountsFromStartOfUTCMonth(t *testing.T) {
	counter := &recordingCounter{count: 42}
	clk := clock.Fixed{T: time.Date(2025, 7, 19, 23, 59, 59, 0, time.FixedZone("JST", 9*3600))}
	o := NewOracle(counter, clk)

	n, err := o.MonthlyCount(context.Background(), "proj-1")
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
	assert.Equal(t, "proj-1", counter.gotProject)
	assert.Equal(t, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), counter.gotSince,
		"boundary is the first instant of the UTC month, not the local one")
}

func TestMonthStart_FirstOfMonth(t *testing.T) {
	got := monthStart(time.Date(2025, 12, 1, 0, 0, 0, 1, time.UTC))
	assert.Equal(t, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), got)
}
