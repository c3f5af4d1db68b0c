package models

import "time"

// Reminder statuses. A sent reminder was dispatched to at least one channel;
// a skipped reminder records a threshold that was already in the past when the
// sweep first saw the employee, so it can never fire late.
const (
	ReminderStatusSent    = "sent"
	ReminderStatusSkipped = "skipped"
)

// ThresholdExpired marks the terminal bucket for visas that have lapsed.
// Regular reminder thresholds use their day count (60, 30, 15, 7, 1).
const ThresholdExpired = 0

// VisaReminder records that a reminder threshold has been handled for an
// employee. One row per (employee, threshold); rows are only ever inserted,
// and deleted wholesale when the employee's visa is renewed.
type VisaReminder struct {
	BaseModel

	EmployeeID    string    `gorm:"type:uuid;not null;uniqueIndex:idx_reminder_employee_threshold" json:"employee_id"`
	ThresholdDays int       `gorm:"not null;uniqueIndex:idx_reminder_employee_threshold" json:"threshold_days"`
	Status        string    `gorm:"type:varchar(16);not null" json:"status"`
	SentAt        time.Time `gorm:"not null" json:"sent_at"`
	Channels      string    `gorm:"type:varchar(255)" json:"channels"`
}
