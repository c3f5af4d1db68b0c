package sweep

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/visadesk-io/visadesk/internal/models"
	"github.com/visadesk-io/visadesk/pkg/metrics"
)

// Stats is the read-side view of visa expiry for dashboards. It uses the same
// day arithmetic as the classifier but never consults or mutates reminder
// state, so it may disagree with what has actually been dispatched.
type Stats struct {
	ExpiringSoon int       `json:"expiring_soon"`
	Expired      int       `json:"expired"`
	TotalTracked int       `json:"total_tracked"`
	LastUpdated  time.Time `json:"last_updated"`
}

// ComputeStats rescans active, dated employees and bucket-counts them.
// expired covers days remaining <= 0; expiring_soon covers (0, 30]. The
// buckets are independent of reminder state, so a visa expiring today is
// counted as expired here even though the 1-day reminder still fires for it.
func ComputeStats(ctx context.Context, db *gorm.DB, now time.Time) (Stats, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	stats := Stats{LastUpdated: now.UTC()}

	var expiries []time.Time
	err := db.WithContext(ctx).
		Model(&models.Employee{}).
		Where("is_active = ? AND visa_expiry_date IS NOT NULL", true).
		Pluck("visa_expiry_date", &expiries).Error
	if err != nil {
		return stats, fmt.Errorf("sweep: load expiry dates: %w", err)
	}

	for _, expiry := range expiries {
		stats.TotalTracked++
		days := DaysRemaining(now, expiry)
		switch {
		case days <= 0:
			stats.Expired++
		case days <= 30:
			stats.ExpiringSoon++
		}
	}

	metrics.EmployeesTracked.Set(float64(stats.TotalTracked))
	return stats, nil
}
