package sweep

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	testutil "github.com/visadesk-io/visadesk/internal/database/testutil"
)

func TestComputeStats(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	now := time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC)

	seedEmployee(t, db, "stats-expired", dateAt(now, -2), true)
	seedEmployee(t, db, "stats-today", dateAt(now, 0), true)
	seedEmployee(t, db, "stats-soon", dateAt(now, 14), true)
	seedEmployee(t, db, "stats-boundary", dateAt(now, 30), true)
	seedEmployee(t, db, "stats-far", dateAt(now, 120), true)
	seedEmployee(t, db, "stats-inactive", dateAt(now, 5), false)
	seedEmployee(t, db, "stats-undated", nil, true)

	stats, err := ComputeStats(context.Background(), db, now)
	require.NoError(t, err)
	require.Equal(t, 5, stats.TotalTracked)
	require.Equal(t, 2, stats.Expired)
	require.Equal(t, 2, stats.ExpiringSoon)
	require.Equal(t, now.UTC(), stats.LastUpdated)
}

// A visa expiring today sits in the expired bucket; the buckets are pure date
// ranges and ignore whether the 1-day reminder has fired for it.
func TestComputeStatsDayZeroIsExpired(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	now := time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC)

	seedEmployee(t, db, "stats-zero", dateAt(now, 0), true)

	stats, err := ComputeStats(context.Background(), db, now)
	require.NoError(t, err)
	require.Equal(t, 1, stats.TotalTracked)
	require.Equal(t, 1, stats.Expired)
	require.Equal(t, 0, stats.ExpiringSoon)
}

func TestComputeStatsEmpty(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	stats, err := ComputeStats(context.Background(), db, time.Now())
	require.NoError(t, err)
	require.Equal(t, 0, stats.TotalTracked)
	require.Equal(t, 0, stats.Expired)
	require.Equal(t, 0, stats.ExpiringSoon)
}
