package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SweepRuns counts executed visa sweeps by trigger (cron|http|manual) and result (ok|error).
	SweepRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "visadesk_sweep_runs_total",
			Help: "Total number of visa expiry sweep executions",
		},
		[]string{"trigger", "result"},
	)

	// ReminderDispatches counts reminder deliveries by channel and result (ok|error).
	ReminderDispatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "visadesk_reminder_dispatches_total",
			Help: "Total number of visa reminder channel dispatches",
		},
		[]string{"channel", "result"},
	)

	// EmployeesTracked reports active employees with a visa expiry date on record.
	EmployeesTracked = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "visadesk_employees_tracked",
			Help: "Active employees with a visa expiry date",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "visadesk_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
