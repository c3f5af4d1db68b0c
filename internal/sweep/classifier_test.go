package sweep

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/visadesk-io/visadesk/internal/models"
)

func TestDaysRemaining(t *testing.T) {
	now := time.Date(2024, 3, 10, 23, 45, 0, 0, time.UTC)

	cases := []struct {
		name   string
		expiry time.Time
		want   int
	}{
		{"same day", time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), 0},
		{"next day late evening", time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), 1},
		{"thirty days out", time.Date(2024, 4, 9, 8, 0, 0, 0, time.UTC), 30},
		{"yesterday", time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC), -1},
		{"non-utc zone normalised", time.Date(2024, 3, 11, 1, 0, 0, 0, time.FixedZone("plus3", 3*3600)), 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, DaysRemaining(now, tc.expiry))
		})
	}
}

func TestClassifyExactBoundary(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	expiry := now.AddDate(0, 0, 30)

	result := Classify(now, expiry, nil)
	require.True(t, result.Notify)
	require.Equal(t, 30, result.Threshold)
	require.Equal(t, []int{60}, result.Skipped)
	require.Equal(t, 30, result.DaysRemaining)
}

func TestClassifyOutsideAllThresholds(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	expiry := now.AddDate(0, 0, 90)

	result := Classify(now, expiry, nil)
	require.False(t, result.Notify)
	require.Empty(t, result.Skipped)
}

func TestClassifyAlreadyHandled(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	expiry := now.AddDate(0, 0, 28)

	handled := map[int]bool{60: true, 30: true}
	result := Classify(now, expiry, handled)
	require.False(t, result.Notify)
	require.Empty(t, result.Skipped)
}

func TestClassifyLateAdditionNotifiesNearestOnly(t *testing.T) {
	// Employee first seen with 6 days remaining: the 7-day reminder fires,
	// the 60, 30, and 15 day boundaries are recorded as skipped.
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	expiry := now.AddDate(0, 0, 6)

	result := Classify(now, expiry, nil)
	require.True(t, result.Notify)
	require.Equal(t, 7, result.Threshold)
	require.Equal(t, []int{60, 30, 15}, result.Skipped)
}

func TestClassifyExpiresToday(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	result := Classify(now, now, map[int]bool{60: true, 30: true, 15: true, 7: true})
	require.True(t, result.Notify)
	require.Equal(t, 1, result.Threshold)
	require.Equal(t, 0, result.DaysRemaining)
}

func TestClassifyExpired(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	expiry := now.AddDate(0, 0, -3)

	result := Classify(now, expiry, map[int]bool{60: true, 30: true})
	require.True(t, result.Notify)
	require.Equal(t, models.ThresholdExpired, result.Threshold)
	require.Equal(t, []int{15, 7, 1}, result.Skipped)
}

func TestClassifyExpiredNotifiesOnce(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	expiry := now.AddDate(0, 0, -3)

	handled := map[int]bool{60: true, 30: true, 15: true, 7: true, 1: true, models.ThresholdExpired: true}
	result := Classify(now, expiry, handled)
	require.False(t, result.Notify)
	require.Empty(t, result.Skipped)
}

func TestClassifyProgressionFiresEachThresholdOnce(t *testing.T) {
	// Walk one employee from 65 days out to past expiry, feeding each run's
	// outcome back into the handled set like the engine does.
	expiry := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	handled := map[int]bool{}

	var fired []int
	for offset := 65; offset >= -2; offset-- {
		now := expiry.AddDate(0, 0, -offset)
		result := Classify(now, expiry, handled)
		if result.Notify {
			fired = append(fired, result.Threshold)
			handled[result.Threshold] = true
		}
		for _, skipped := range result.Skipped {
			handled[skipped] = true
		}
	}

	require.Equal(t, []int{60, 30, 15, 7, 1, models.ThresholdExpired}, fired)
}
