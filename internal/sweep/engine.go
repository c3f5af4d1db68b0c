package sweep

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/visadesk-io/visadesk/internal/channels"
	"github.com/visadesk-io/visadesk/internal/models"
	"github.com/visadesk-io/visadesk/pkg/logger"
	"github.com/visadesk-io/visadesk/pkg/metrics"
)

// Trigger labels for sweep runs, used in metrics and logs.
const (
	TriggerCron   = "cron"
	TriggerHTTP   = "http"
	TriggerManual = "manual"
)

// Summary reports the outcome of one sweep execution.
type Summary struct {
	Checked    int       `json:"checked"`
	Dispatched int       `json:"dispatched"`
	Skipped    int       `json:"skipped"`
	Failed     int       `json:"failed"`
	Timestamp  time.Time `json:"timestamp"`
}

// Engine executes the visa expiry sweep: it classifies every active, dated
// employee, dispatches one reminder per newly-reached threshold, and records
// reminder rows so repeated runs stay idempotent.
//
// Two overlapping runs can race on the read-then-insert of a reminder row;
// the unique index keeps the state table consistent, so the worst case is a
// single duplicate message.
type Engine struct {
	db       *gorm.DB
	channels []channels.Channel
	now      func() time.Time
	log      *zap.Logger
}

// Option customises the Engine.
type Option func(*Engine)

// WithNow overrides the clock used for day arithmetic, primarily for tests.
func WithNow(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine constructs a sweep Engine over the supplied dispatch channels.
func NewEngine(db *gorm.DB, chs []channels.Channel, opts ...Option) (*Engine, error) {
	if db == nil {
		return nil, errors.New("sweep: db is required")
	}

	engine := &Engine{
		db:       db,
		channels: chs,
		now:      time.Now,
		log:      logger.WithModule("sweep"),
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine, nil
}

// Run executes one sweep. The trigger label (cron|http|manual) feeds metrics.
// A load failure aborts before any write; per-employee dispatch or record
// failures are logged and counted but never stop the batch.
func (e *Engine) Run(ctx context.Context, trigger string) (Summary, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	now := e.now().UTC()
	summary := Summary{Timestamp: now}

	var employees []models.Employee
	err := e.db.WithContext(ctx).
		Where("is_active = ? AND visa_expiry_date IS NOT NULL", true).
		Find(&employees).Error
	if err != nil {
		metrics.SweepRuns.WithLabelValues(trigger, "error").Inc()
		return summary, fmt.Errorf("sweep: load employees: %w", err)
	}

	handled, err := e.loadHandled(ctx, employees)
	if err != nil {
		metrics.SweepRuns.WithLabelValues(trigger, "error").Inc()
		return summary, fmt.Errorf("sweep: load reminder state: %w", err)
	}

	for i := range employees {
		employee := &employees[i]
		summary.Checked++

		result := Classify(now, *employee.VisaExpiryDate, handled[employee.ID])

		for _, t := range result.Skipped {
			if err := e.record(ctx, employee.ID, t, models.ReminderStatusSkipped, nil); err != nil {
				e.log.Warn("record skipped threshold failed",
					zap.String("employee_id", employee.ID),
					zap.Int("threshold", t),
					zap.Error(err))
				continue
			}
			summary.Skipped++
		}

		if !result.Notify {
			continue
		}

		sent, failed := e.dispatch(ctx, employee, result)
		if failed {
			summary.Failed++
			continue
		}
		summary.Dispatched++

		if err := e.record(ctx, employee.ID, result.Threshold, models.ReminderStatusSent, sent); err != nil {
			// Dispatch already happened; without this row the next run
			// may send a duplicate.
			e.log.Warn("record sent reminder failed",
				zap.String("employee_id", employee.ID),
				zap.Int("threshold", result.Threshold),
				zap.Error(err))
		}
	}

	metrics.SweepRuns.WithLabelValues(trigger, "ok").Inc()
	e.log.Info("sweep completed",
		zap.String("trigger", trigger),
		zap.Int("checked", summary.Checked),
		zap.Int("dispatched", summary.Dispatched),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed))

	return summary, nil
}

// dispatch delivers the reminder on every channel, isolating failures per
// channel. It returns the names of channels that accepted the message and
// whether the dispatch as a whole failed (every routable channel errored).
func (e *Engine) dispatch(ctx context.Context, employee *models.Employee, result Classification) ([]string, bool) {
	msg := buildMessage(employee, result)

	var (
		sent     []string
		attempts int
		errs     error
	)

	for _, ch := range e.channels {
		err := ch.Send(ctx, msg)
		switch {
		case err == nil:
			sent = append(sent, ch.Name())
			metrics.ReminderDispatches.WithLabelValues(ch.Name(), "ok").Inc()
		case errors.Is(err, channels.ErrNotRoutable):
			// No address for this channel; not a delivery failure.
		default:
			attempts++
			errs = multierr.Append(errs, err)
			metrics.ReminderDispatches.WithLabelValues(ch.Name(), "error").Inc()
		}
	}

	if errs != nil {
		e.log.Warn("reminder dispatch errors",
			zap.String("employee_id", employee.ID),
			zap.Int("threshold", result.Threshold),
			zap.Error(errs))
	}

	// Failed only when something was attempted and nothing got through;
	// leaving no reminder row makes the next run retry.
	return sent, len(sent) == 0 && attempts > 0
}

func (e *Engine) record(ctx context.Context, employeeID string, threshold int, status string, sentVia []string) error {
	reminder := models.VisaReminder{
		EmployeeID:    employeeID,
		ThresholdDays: threshold,
		Status:        status,
		SentAt:        e.now().UTC(),
		Channels:      strings.Join(sentVia, ","),
	}
	return e.db.WithContext(ctx).Create(&reminder).Error
}

func (e *Engine) loadHandled(ctx context.Context, employees []models.Employee) (map[string]map[int]bool, error) {
	handled := make(map[string]map[int]bool, len(employees))
	if len(employees) == 0 {
		return handled, nil
	}

	ids := make([]string, 0, len(employees))
	for _, employee := range employees {
		ids = append(ids, employee.ID)
	}

	var reminders []models.VisaReminder
	if err := e.db.WithContext(ctx).
		Where("employee_id IN ?", ids).
		Find(&reminders).Error; err != nil {
		return nil, err
	}

	for _, reminder := range reminders {
		if handled[reminder.EmployeeID] == nil {
			handled[reminder.EmployeeID] = make(map[int]bool)
		}
		handled[reminder.EmployeeID][reminder.ThresholdDays] = true
	}
	return handled, nil
}

func buildMessage(employee *models.Employee, result Classification) channels.Message {
	company := employee.CompanyName
	if company == "" {
		company = "no company on record"
	}
	expiry := employee.VisaExpiryDate.Format("2006-01-02")

	var subject, body, severity string
	if result.Threshold == models.ThresholdExpired {
		severity = "error"
		subject = fmt.Sprintf("Visa expired: %s", employee.Name)
		body = fmt.Sprintf("The visa for %s (%s) expired on %s. Immediate action is required.",
			employee.Name, company, expiry)
	} else {
		severity = "warning"
		subject = fmt.Sprintf("Visa expiring in %d days: %s", result.DaysRemaining, employee.Name)
		body = fmt.Sprintf("The visa for %s (%s) expires on %s, %d day(s) remaining. Please start the renewal process.",
			employee.Name, company, expiry, result.DaysRemaining)
	}

	return channels.Message{
		EmployeeID:     employee.ID,
		EmployeeName:   employee.Name,
		CompanyName:    employee.CompanyName,
		Email:          employee.Email,
		TelegramChatID: employee.TelegramChatID,
		Subject:        subject,
		Body:           body,
		Severity:       severity,
	}
}
