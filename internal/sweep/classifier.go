package sweep

import (
	"time"

	"github.com/visadesk-io/visadesk/internal/models"
)

// Thresholds lists the reminder day-counts in descending order. Each fires at
// most once per employee per visa cycle.
var Thresholds = []int{60, 30, 15, 7, 1}

// Classification is the outcome of evaluating one employee against the
// threshold set. It is a pure function of (now, expiry, handled state); the
// engine turns it into dispatches and reminder rows.
type Classification struct {
	// DaysRemaining is floor((expiry date - today) / 24h) on UTC calendar days.
	DaysRemaining int

	// Notify reports whether a reminder should be dispatched.
	Notify bool

	// Threshold is the bucket to notify for: a value from Thresholds, or
	// models.ThresholdExpired once the visa has lapsed. Valid only when
	// Notify is true.
	Threshold int

	// Skipped lists unhandled thresholds that were already in the past when
	// this evaluation ran. They are recorded without dispatch so a missed
	// boundary can never fire late.
	Skipped []int
}

// DaysRemaining computes whole calendar days between now and the expiry date,
// both truncated to UTC midnight. Negative once the date has passed.
func DaysRemaining(now, expiry time.Time) int {
	nowDate := truncateToDay(now)
	expiryDate := truncateToDay(expiry)
	return int(expiryDate.Sub(nowDate) / (24 * time.Hour))
}

// Classify evaluates one employee. The handled set contains threshold day
// values (including models.ThresholdExpired) that already have reminder rows.
//
// Policy for late additions: when several thresholds are already reached only
// the nearest one notifies; larger ones land in Skipped. An employee added
// with 25 days remaining therefore gets the 30-day reminder and a skipped
// 60-day record, never two messages.
func Classify(now, expiry time.Time, handled map[int]bool) Classification {
	days := DaysRemaining(now, expiry)
	result := Classification{DaysRemaining: days}

	if days < 0 {
		for _, t := range Thresholds {
			if !handled[t] {
				result.Skipped = append(result.Skipped, t)
			}
		}
		if !handled[models.ThresholdExpired] {
			result.Notify = true
			result.Threshold = models.ThresholdExpired
		}
		return result
	}

	nearest := 0
	for _, t := range Thresholds { // descending, so the last match is the smallest
		if days <= t {
			nearest = t
		}
	}
	if nearest == 0 {
		return result
	}

	for _, t := range Thresholds {
		if days > t || handled[t] {
			continue
		}
		if t == nearest {
			result.Notify = true
			result.Threshold = t
		} else {
			result.Skipped = append(result.Skipped, t)
		}
	}
	return result
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
