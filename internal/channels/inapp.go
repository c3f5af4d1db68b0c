package channels

import (
	"context"
	"errors"
	"fmt"

	"github.com/visadesk-io/visadesk/internal/services"
)

// InAppChannel writes reminders into the notification log as broadcast rows,
// making them visible to every signed-in user.
type InAppChannel struct {
	notifications *services.NotificationService
}

// NewInApp constructs an in-app notification channel.
func NewInApp(notifications *services.NotificationService) (*InAppChannel, error) {
	if notifications == nil {
		return nil, errors.New("inapp channel: notification service is required")
	}
	return &InAppChannel{notifications: notifications}, nil
}

// Name implements Channel.
func (c *InAppChannel) Name() string { return "inapp" }

// Send appends a broadcast notification row.
func (c *InAppChannel) Send(ctx context.Context, msg Message) error {
	_, err := c.notifications.Create(ctx, services.CreateNotificationInput{
		Type:    severityToType(msg.Severity),
		Title:   msg.Subject,
		Message: msg.Body,
		Metadata: map[string]any{
			"employee_id":   msg.EmployeeID,
			"employee_name": msg.EmployeeName,
		},
	})
	if err != nil {
		return fmt.Errorf("inapp channel: create notification: %w", err)
	}
	return nil
}

func severityToType(severity string) string {
	switch severity {
	case "info", "warning", "success", "error":
		return severity
	default:
		return "warning"
	}
}
