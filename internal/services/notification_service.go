package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/visadesk-io/visadesk/internal/models"
	apperrors "github.com/visadesk-io/visadesk/pkg/errors"
)

// NotificationDTO represents the API-friendly notification payload.
type NotificationDTO struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id,omitempty"`
	Type      string         `json:"type"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	IsRead    bool           `json:"is_read"`
	CreatedAt time.Time      `json:"created_at"`
	ReadAt    *time.Time     `json:"read_at,omitempty"`
}

// CreateNotificationInput defines attributes required to persist a notification.
// An empty UserID produces a broadcast row visible to every user.
type CreateNotificationInput struct {
	UserID   string
	Type     string
	Title    string
	Message  string
	Metadata map[string]any
}

// ListNotificationsInput defines filters for querying notifications.
type ListNotificationsInput struct {
	UserID     string
	UnreadOnly bool
	Limit      int
	Offset     int
}

// NotificationService manages the append-only in-app notification log.
type NotificationService struct {
	db *gorm.DB
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(db *gorm.DB) (*NotificationService, error) {
	if db == nil {
		return nil, errors.New("notification service: db is required")
	}
	return &NotificationService{db: db}, nil
}

// Create registers a new notification row.
func (s *NotificationService) Create(ctx context.Context, input CreateNotificationInput) (*NotificationDTO, error) {
	ctx = ensureContext(ctx)

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewBadRequest("title is required")
	}

	notificationType := strings.TrimSpace(input.Type)
	if notificationType == "" {
		notificationType = "info"
	}
	switch notificationType {
	case "info", "warning", "success", "error":
	default:
		return nil, apperrors.NewBadRequest("type must be one of info, warning, success, error")
	}

	notification := models.Notification{
		UserID:  strings.TrimSpace(input.UserID),
		Type:    notificationType,
		Title:   title,
		Message: strings.TrimSpace(input.Message),
	}

	if input.Metadata != nil {
		data, err := json.Marshal(input.Metadata)
		if err != nil {
			return nil, fmt.Errorf("notification service: marshal metadata: %w", err)
		}
		notification.Metadata = datatypes.JSON(data)
	}

	if err := s.db.WithContext(ctx).Create(&notification).Error; err != nil {
		return nil, fmt.Errorf("notification service: create notification: %w", err)
	}

	dto := mapNotification(notification)
	return &dto, nil
}

// ListForUser returns the user's notifications plus broadcast rows, newest first.
func (s *NotificationService) ListForUser(ctx context.Context, input ListNotificationsInput) ([]NotificationDTO, error) {
	ctx = ensureContext(ctx)
	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return nil, errors.New("notification service: user id is required")
	}

	limit := input.Limit
	if limit <= 0 || limit > 100 {
		limit = 25
	}

	query := s.db.WithContext(ctx).
		Where("user_id = ? OR user_id = ''", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(max(0, input.Offset))
	if input.UnreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var rows []models.Notification
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("notification service: list notifications: %w", err)
	}

	items := make([]NotificationDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapNotification(row))
	}
	return items, nil
}

// UnreadCount returns how many unread notifications the user can see.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	ctx = ensureContext(ctx)

	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("(user_id = ? OR user_id = '') AND is_read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("notification service: unread count: %w", err)
	}
	return count, nil
}

// MarkRead sets the notification read flag.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID string) (*NotificationDTO, error) {
	ctx = ensureContext(ctx)

	var notification models.Notification
	if err := s.db.WithContext(ctx).
		Where("id = ? AND (user_id = ? OR user_id = '')", notificationID, userID).
		First(&notification).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("notification service: load notification: %w", err)
	}

	now := time.Now().UTC()
	if err := s.db.WithContext(ctx).Model(&notification).
		Updates(map[string]any{
			"is_read": true,
			"read_at": now,
		}).Error; err != nil {
		return nil, fmt.Errorf("notification service: mark read: %w", err)
	}

	notification.IsRead = true
	notification.ReadAt = &now
	dto := mapNotification(notification)
	return &dto, nil
}

// MarkAllRead marks every notification visible to the user as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	ctx = ensureContext(ctx)

	now := time.Now().UTC()
	err := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("(user_id = ? OR user_id = '') AND is_read = ?", userID, false).
		Updates(map[string]any{
			"is_read": true,
			"read_at": now,
		}).Error
	if err != nil {
		return fmt.Errorf("notification service: mark all read: %w", err)
	}
	return nil
}

// Delete removes a notification visible to the supplied user.
func (s *NotificationService) Delete(ctx context.Context, userID, notificationID string) error {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).
		Where("id = ? AND (user_id = ? OR user_id = '')", notificationID, userID).
		Delete(&models.Notification{})
	if result.Error != nil {
		return fmt.Errorf("notification service: delete notification: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// CleanupRead deletes read notifications older than the retention window and
// returns how many rows were removed.
func (s *NotificationService) CleanupRead(ctx context.Context, olderThan time.Time) (int64, error) {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).
		Where("is_read = ? AND created_at < ?", true, olderThan).
		Delete(&models.Notification{})
	if result.Error != nil {
		return 0, fmt.Errorf("notification service: cleanup read: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func mapNotification(row models.Notification) NotificationDTO {
	return NotificationDTO{
		ID:        row.ID,
		UserID:    row.UserID,
		Type:      row.Type,
		Title:     row.Title,
		Message:   row.Message,
		Metadata:  decodeJSON(row.Metadata),
		IsRead:    row.IsRead,
		CreatedAt: row.CreatedAt,
		ReadAt:    row.ReadAt,
	}
}

func decodeJSON(data datatypes.JSON) map[string]any {
	if len(data) == 0 {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}
