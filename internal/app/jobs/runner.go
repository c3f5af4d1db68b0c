package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/visadesk-io/visadesk/internal/services"
	"github.com/visadesk-io/visadesk/internal/sweep"
	"github.com/visadesk-io/visadesk/pkg/logger"
)

const (
	defaultSweepSpec             = "0 8 * * *"
	defaultRetentionSpec         = "@daily"
	defaultNotificationRetention = 90
)

// Runner coordinates background jobs: the scheduled visa expiry sweep and
// pruning of old read notifications.
type Runner struct {
	engine        *sweep.Engine
	notifications *services.NotificationService
	cron          *cron.Cron
	now           func() time.Time
	log           *zap.Logger
	enabled       bool
	retention     int

	sweepSchedule     string
	retentionSchedule string
}

// Option customises the Runner.
type Option func(*Runner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(r *Runner) {
		if c != nil {
			r.cron = c
		}
	}
}

// WithNow overrides the clock used for retention comparisons.
func WithNow(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// WithSweepSchedule overrides the cron specification for the expiry sweep.
func WithSweepSchedule(spec string) Option {
	return func(r *Runner) {
		if spec != "" {
			r.sweepSchedule = spec
		}
	}
}

// WithRetentionSchedule overrides the cron specification for notification cleanup.
func WithRetentionSchedule(spec string) Option {
	return func(r *Runner) {
		if spec != "" {
			r.retentionSchedule = spec
		}
	}
}

// WithNotificationRetentionDays adjusts how long read notifications are kept.
func WithNotificationRetentionDays(days int) Option {
	return func(r *Runner) {
		if days > 0 {
			r.retention = days
		}
	}
}

// NewRunner constructs a Runner with sensible defaults. A nil dependency
// results in the corresponding job being skipped.
func NewRunner(engine *sweep.Engine, notifications *services.NotificationService, opts ...Option) *Runner {
	runner := &Runner{
		engine:            engine,
		notifications:     notifications,
		now:               time.Now,
		retention:         defaultNotificationRetention,
		sweepSchedule:     defaultSweepSpec,
		retentionSchedule: defaultRetentionSpec,
		log:               logger.WithModule("jobs"),
	}

	for _, opt := range opts {
		opt(runner)
	}

	if runner.cron == nil {
		runner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	runner.enabled = runner.engine != nil || runner.notifications != nil

	return runner
}

// Start registers jobs with the cron scheduler and launches it if at least one job is enabled.
func (r *Runner) Start() error {
	if !r.enabled {
		return nil
	}

	if r.engine != nil {
		if _, err := r.cron.AddFunc(r.sweepSchedule, func() {
			ctx := context.Background()
			summary, err := r.engine.Run(ctx, sweep.TriggerCron)
			if err != nil {
				r.log.Warn("scheduled sweep failed", zap.Error(err))
				return
			}
			r.log.Info("scheduled sweep complete",
				zap.Int("checked", summary.Checked),
				zap.Int("dispatched", summary.Dispatched),
				zap.Int("skipped", summary.Skipped),
				zap.Int("failed", summary.Failed))
		}); err != nil {
			return err
		}
	}

	if r.notifications != nil && r.retention > 0 {
		if _, err := r.cron.AddFunc(r.retentionSchedule, func() {
			ctx := context.Background()
			cutoff := r.now().AddDate(0, 0, -r.retention)
			if _, err := r.notifications.CleanupRead(ctx, cutoff); err != nil {
				r.log.Warn("notification cleanup failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	r.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (r *Runner) Stop() context.Context {
	if r.cron == nil {
		return context.Background()
	}
	return r.cron.Stop()
}

// RunOnce executes all configured jobs sequentially. Primarily used in tests
// and during graceful shutdown.
func (r *Runner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error

	if r.engine != nil {
		if _, err := r.engine.Run(ctx, sweep.TriggerCron); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	if r.notifications != nil && r.retention > 0 {
		cutoff := r.now().AddDate(0, 0, -r.retention)
		if _, err := r.notifications.CleanupRead(ctx, cutoff); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	return errs
}
