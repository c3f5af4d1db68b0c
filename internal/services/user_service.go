package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/visadesk-io/visadesk/internal/models"
	"github.com/visadesk-io/visadesk/pkg/crypto"
	apperrors "github.com/visadesk-io/visadesk/pkg/errors"
)

var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = apperrors.New("USER_NOT_FOUND", "User not found", http.StatusNotFound)
	// ErrUsernameTaken indicates the username or email is already registered.
	ErrUsernameTaken = apperrors.New("USER_EXISTS", "Username or email already registered", http.StatusConflict)
)

// RegisterUserInput describes self-registration fields. Accounts start
// unapproved and cannot log in until an administrator approves them.
type RegisterUserInput struct {
	Username string
	Email    string
	Password string
	FullName string
}

// UserService manages accounts and the approval workflow.
type UserService struct {
	db            *gorm.DB
	notifications *NotificationService
}

// NewUserService constructs a UserService instance. The notification service
// is optional; when present, registration and approval produce in-app events.
func NewUserService(db *gorm.DB, notifications *NotificationService) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}
	return &UserService{db: db, notifications: notifications}, nil
}

// Register creates an unapproved account with a hashed password.
func (s *UserService) Register(ctx context.Context, input RegisterUserInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	username := strings.TrimSpace(input.Username)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if username == "" {
		return nil, apperrors.NewBadRequest("username is required")
	}
	if email == "" {
		return nil, apperrors.NewBadRequest("email is required")
	}
	if len(input.Password) < 8 {
		return nil, apperrors.NewBadRequest("password must be at least 8 characters")
	}

	hashed, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("user service: hash password: %w", err)
	}

	user := &models.User{
		Username: username,
		Email:    email,
		Password: hashed,
		FullName: strings.TrimSpace(input.FullName),
		IsActive: true,
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("user service: create user: %w", err)
	}

	s.notifyAdmins(ctx, "New account pending approval",
		fmt.Sprintf("%s (%s) registered and is waiting for approval.", username, email))

	return user, nil
}

// Authenticate verifies credentials and gate-keeps approval and active state.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	ctx = ensureContext(ctx)

	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apperrors.ErrInvalidCredentials
	}

	var user models.User
	err := s.db.WithContext(ctx).
		Where("username = ? OR email = ?", username, strings.ToLower(username)).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("user service: load user: %w", err)
	}

	if !crypto.VerifyPassword(user.Password, password) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.IsApproved {
		return nil, apperrors.ErrAccountPending
	}

	now := time.Now().UTC()
	if err := s.db.WithContext(ctx).Model(&user).Update("last_login_at", now).Error; err != nil {
		return nil, fmt.Errorf("user service: record login: %w", err)
	}
	user.LastLoginAt = &now

	return &user, nil
}

// Get loads a single user by id.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user service: load user: %w", err)
	}
	return &user, nil
}

// ListPending returns accounts waiting for approval, oldest first.
func (s *UserService) ListPending(ctx context.Context) ([]models.User, error) {
	ctx = ensureContext(ctx)

	var users []models.User
	err := s.db.WithContext(ctx).
		Where("is_approved = ? AND is_active = ?", false, true).
		Order("created_at ASC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("user service: list pending: %w", err)
	}
	return users, nil
}

// Approve marks the account approved and records the approving admin.
func (s *UserService) Approve(ctx context.Context, userID, approvedBy string) (*models.User, error) {
	ctx = ensureContext(ctx)

	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.IsApproved {
		return user, nil
	}

	now := time.Now().UTC()
	err = s.db.WithContext(ctx).Model(user).Updates(map[string]any{
		"is_approved": true,
		"approved_at": now,
		"approved_by": approvedBy,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("user service: approve user: %w", err)
	}

	user.IsApproved = true
	user.ApprovedAt = &now
	user.ApprovedBy = approvedBy

	if s.notifications != nil {
		_, _ = s.notifications.Create(ctx, CreateNotificationInput{
			UserID:  user.ID,
			Type:    "success",
			Title:   "Account approved",
			Message: "Your account has been approved. You can now log in.",
		})
	}

	return user, nil
}

// Reject removes an unapproved account.
func (s *UserService) Reject(ctx context.Context, userID string) error {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).
		Where("id = ? AND is_approved = ?", userID, false).
		Delete(&models.User{})
	if result.Error != nil {
		return fmt.Errorf("user service: reject user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *UserService) notifyAdmins(ctx context.Context, title, message string) {
	if s.notifications == nil {
		return
	}

	var admins []models.User
	if err := s.db.WithContext(ctx).
		Where("is_admin = ? AND is_active = ?", true, true).
		Find(&admins).Error; err != nil {
		return
	}
	for _, admin := range admins {
		_, _ = s.notifications.Create(ctx, CreateNotificationInput{
			UserID:  admin.ID,
			Type:    "info",
			Title:   title,
			Message: message,
		})
	}
}
