package sweep

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/visadesk-io/visadesk/internal/channels"
	testutil "github.com/visadesk-io/visadesk/internal/database/testutil"
	"github.com/visadesk-io/visadesk/internal/models"
)

type stubChannel struct {
	name string
	err  error
	sent []channels.Message
}

func (s *stubChannel) Name() string { return s.name }

func (s *stubChannel) Send(_ context.Context, msg channels.Message) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func seedEmployee(t *testing.T, db *gorm.DB, name string, expiry *time.Time, active bool) *models.Employee {
	t.Helper()

	employee := &models.Employee{
		Name:           name,
		Email:          name + "@example.com",
		CompanyName:    "Acme Logistics",
		VisaExpiryDate: expiry,
		IsActive:       active,
	}
	require.NoError(t, db.Create(employee).Error)
	return employee
}

func dateAt(now time.Time, days int) *time.Time {
	d := now.AddDate(0, 0, days)
	return &d
}

func TestEngineRunIsIdempotent(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	now := time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC)

	employee := seedEmployee(t, db, "idempotent-run", dateAt(now, 30), true)

	stub := &stubChannel{name: "email"}
	engine, err := NewEngine(db, []channels.Channel{stub}, WithNow(func() time.Time { return now }))
	require.NoError(t, err)

	summary, err := engine.Run(context.Background(), TriggerManual)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Checked)
	require.Equal(t, 1, summary.Dispatched)
	require.Len(t, stub.sent, 1)

	var reminder models.VisaReminder
	require.NoError(t, db.First(&reminder, "employee_id = ? AND threshold_days = ?", employee.ID, 30).Error)
	require.Equal(t, models.ReminderStatusSent, reminder.Status)
	require.Equal(t, "email", reminder.Channels)

	// A second run on the same day must not send again.
	summary, err = engine.Run(context.Background(), TriggerManual)
	require.NoError(t, err)
	require.Equal(t, 0, summary.Dispatched)
	require.Len(t, stub.sent, 1)

	var count int64
	require.NoError(t, db.Model(&models.VisaReminder{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestEngineRunExcludesInactiveAndUndated(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	now := time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC)

	seedEmployee(t, db, "inactive", dateAt(now, 7), false)
	seedEmployee(t, db, "undated", nil, true)

	stub := &stubChannel{name: "email"}
	engine, err := NewEngine(db, []channels.Channel{stub}, WithNow(func() time.Time { return now }))
	require.NoError(t, err)

	summary, err := engine.Run(context.Background(), TriggerManual)
	require.NoError(t, err)
	require.Equal(t, 0, summary.Checked)
	require.Empty(t, stub.sent)
}

func TestEngineRunRecordsSkippedThresholds(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	now := time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC)

	// First seen with 10 days remaining: only the 15-day reminder fires.
	employee := seedEmployee(t, db, "late-addition", dateAt(now, 10), true)

	stub := &stubChannel{name: "email"}
	engine, err := NewEngine(db, []channels.Channel{stub}, WithNow(func() time.Time { return now }))
	require.NoError(t, err)

	summary, err := engine.Run(context.Background(), TriggerManual)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Dispatched)
	require.Equal(t, 2, summary.Skipped)
	require.Len(t, stub.sent, 1)

	var reminders []models.VisaReminder
	require.NoError(t, db.Order("threshold_days desc").Find(&reminders, "employee_id = ?", employee.ID).Error)
	require.Len(t, reminders, 3)
	require.Equal(t, 60, reminders[0].ThresholdDays)
	require.Equal(t, models.ReminderStatusSkipped, reminders[0].Status)
	require.Equal(t, 30, reminders[1].ThresholdDays)
	require.Equal(t, models.ReminderStatusSkipped, reminders[1].Status)
	require.Equal(t, 15, reminders[2].ThresholdDays)
	require.Equal(t, models.ReminderStatusSent, reminders[2].Status)
}

func TestEngineRunChannelFailureIsolation(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	now := time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC)

	seedEmployee(t, db, "partial-failure", dateAt(now, 7), true)

	broken := &stubChannel{name: "telegram", err: errors.New("telegram: gateway timeout")}
	working := &stubChannel{name: "email"}
	engine, err := NewEngine(db, []channels.Channel{broken, working}, WithNow(func() time.Time { return now }))
	require.NoError(t, err)

	summary, err := engine.Run(context.Background(), TriggerManual)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Dispatched)
	require.Equal(t, 0, summary.Failed)
	require.Len(t, working.sent, 1)

	var reminder models.VisaReminder
	require.NoError(t, db.First(&reminder, "threshold_days = ?", 7).Error)
	require.Equal(t, models.ReminderStatusSent, reminder.Status)
	require.Equal(t, "email", reminder.Channels)
}

func TestEngineRunAllChannelsFailedRetriesNextRun(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	now := time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC)

	seedEmployee(t, db, "total-failure", dateAt(now, 7), true)

	broken := &stubChannel{name: "email", err: errors.New("smtp: connection refused")}
	engine, err := NewEngine(db, []channels.Channel{broken}, WithNow(func() time.Time { return now }))
	require.NoError(t, err)

	summary, err := engine.Run(context.Background(), TriggerManual)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Failed)
	require.Equal(t, 0, summary.Dispatched)

	// No reminder row was written, so the next run retries the dispatch.
	var count int64
	require.NoError(t, db.Model(&models.VisaReminder{}).Count(&count).Error)
	require.Equal(t, int64(0), count)

	broken.err = nil
	summary, err = engine.Run(context.Background(), TriggerManual)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Dispatched)
	require.Len(t, broken.sent, 1)
}

func TestEngineRunNotRoutableIsNotFailure(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	now := time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC)

	seedEmployee(t, db, "no-address", dateAt(now, 1), true)

	unroutable := &stubChannel{name: "telegram", err: channels.ErrNotRoutable}
	engine, err := NewEngine(db, []channels.Channel{unroutable}, WithNow(func() time.Time { return now }))
	require.NoError(t, err)

	summary, err := engine.Run(context.Background(), TriggerManual)
	require.NoError(t, err)
	require.Equal(t, 0, summary.Failed)
	require.Equal(t, 1, summary.Dispatched)

	// The threshold is recorded so it does not fire again once an address exists.
	var reminder models.VisaReminder
	require.NoError(t, db.First(&reminder, "threshold_days = ?", 1).Error)
	require.Equal(t, models.ReminderStatusSent, reminder.Status)
	require.Empty(t, reminder.Channels)
}

func TestEngineRunExpiredEmployee(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	now := time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC)

	employee := seedEmployee(t, db, "lapsed", dateAt(now, -5), true)

	stub := &stubChannel{name: "email"}
	engine, err := NewEngine(db, []channels.Channel{stub}, WithNow(func() time.Time { return now }))
	require.NoError(t, err)

	summary, err := engine.Run(context.Background(), TriggerManual)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Dispatched)
	require.Equal(t, len(Thresholds), summary.Skipped)
	require.Len(t, stub.sent, 1)
	require.Equal(t, "error", stub.sent[0].Severity)

	var reminder models.VisaReminder
	require.NoError(t, db.First(&reminder, "employee_id = ? AND threshold_days = ?", employee.ID, models.ThresholdExpired).Error)
	require.Equal(t, models.ReminderStatusSent, reminder.Status)

	// The expired alert must not repeat on subsequent runs.
	summary, err = engine.Run(context.Background(), TriggerManual)
	require.NoError(t, err)
	require.Equal(t, 0, summary.Dispatched)
	require.Len(t, stub.sent, 1)
}

func TestBuildMessageSubjects(t *testing.T) {
	expiry := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	employee := &models.Employee{
		Name:           "Dana Osei",
		CompanyName:    "Acme Logistics",
		VisaExpiryDate: &expiry,
	}

	msg := buildMessage(employee, Classification{DaysRemaining: 7, Notify: true, Threshold: 7})
	require.Equal(t, "Visa expiring in 7 days: Dana Osei", msg.Subject)
	require.Equal(t, "warning", msg.Severity)
	require.Contains(t, msg.Body, "2024-05-01")

	msg = buildMessage(employee, Classification{DaysRemaining: -2, Notify: true, Threshold: models.ThresholdExpired})
	require.Equal(t, "Visa expired: Dana Osei", msg.Subject)
	require.Equal(t, "error", msg.Severity)
}
