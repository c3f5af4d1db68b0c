package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	testutil "github.com/visadesk-io/visadesk/internal/database/testutil"
	"github.com/visadesk-io/visadesk/internal/models"
	"github.com/visadesk-io/visadesk/pkg/crypto"
	apperrors "github.com/visadesk-io/visadesk/pkg/errors"
)

func newUserService(t *testing.T) (*UserService, *gorm.DB) {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	notifications, err := NewNotificationService(db)
	require.NoError(t, err)
	svc, err := NewUserService(db, notifications)
	require.NoError(t, err)
	return svc, db
}

func seedAdmin(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	hash, err := crypto.HashPassword("Password123!")
	require.NoError(t, err)

	admin := &models.User{
		Username:   username,
		Email:      username + "@example.com",
		Password:   hash,
		IsAdmin:    true,
		IsApproved: true,
		IsActive:   true,
	}
	require.NoError(t, db.Create(admin).Error)
	return admin
}

func TestRegisterStartsUnapprovedAndNotifiesAdmins(t *testing.T) {
	svc, db := newUserService(t)
	ctx := context.Background()

	admin := seedAdmin(t, db, "root-admin")

	user, err := svc.Register(ctx, RegisterUserInput{
		Username: "newcomer",
		Email:    "Newcomer@Example.com",
		Password: "Password123!",
		FullName: "New Comer",
	})
	require.NoError(t, err)
	require.False(t, user.IsApproved)
	require.True(t, user.IsActive)
	require.Equal(t, "newcomer@example.com", user.Email)
	require.NotEqual(t, "Password123!", user.Password)

	var count int64
	require.NoError(t, db.Model(&models.Notification{}).Where("user_id = ?", admin.ID).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterUserInput{Email: "x@example.com", Password: "Password123!"})
	require.Error(t, err)

	_, err = svc.Register(ctx, RegisterUserInput{Username: "shortpass", Email: "short@example.com", Password: "1234567"})
	require.Error(t, err)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterUserInput{Username: "taken", Email: "taken@example.com", Password: "Password123!"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterUserInput{Username: "taken", Email: "other@example.com", Password: "Password123!"})
	require.ErrorIs(t, err, ErrUsernameTaken)
}

func TestAuthenticateGatesApproval(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterUserInput{
		Username: "pending-user",
		Email:    "pending@example.com",
		Password: "Password123!",
	})
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, "pending-user", "Password123!")
	require.ErrorIs(t, err, apperrors.ErrAccountPending)

	_, err = svc.Authenticate(ctx, "pending-user", "wrong-password")
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody", "Password123!")
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestApproveEnablesLogin(t *testing.T) {
	svc, db := newUserService(t)
	ctx := context.Background()

	admin := seedAdmin(t, db, "approver")

	user, err := svc.Register(ctx, RegisterUserInput{
		Username: "await-approval",
		Email:    "await@example.com",
		Password: "Password123!",
	})
	require.NoError(t, err)

	approved, err := svc.Approve(ctx, user.ID, admin.ID)
	require.NoError(t, err)
	require.True(t, approved.IsApproved)
	require.Equal(t, admin.ID, approved.ApprovedBy)
	require.NotNil(t, approved.ApprovedAt)

	// Approval is idempotent.
	_, err = svc.Approve(ctx, user.ID, admin.ID)
	require.NoError(t, err)

	logged, err := svc.Authenticate(ctx, "await-approval", "Password123!")
	require.NoError(t, err)
	require.NotNil(t, logged.LastLoginAt)

	// The approved user received an in-app notification.
	var count int64
	require.NoError(t, db.Model(&models.Notification{}).Where("user_id = ?", user.ID).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestRejectOnlyRemovesUnapproved(t *testing.T) {
	svc, db := newUserService(t)
	ctx := context.Background()

	admin := seedAdmin(t, db, "guard")

	user, err := svc.Register(ctx, RegisterUserInput{
		Username: "reject-me",
		Email:    "reject@example.com",
		Password: "Password123!",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Reject(ctx, user.ID))
	require.ErrorIs(t, svc.Reject(ctx, user.ID), ErrUserNotFound)

	// An approved account cannot be rejected away.
	require.ErrorIs(t, svc.Reject(ctx, admin.ID), ErrUserNotFound)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestListPendingOrdersOldestFirst(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()

	first, err := svc.Register(ctx, RegisterUserInput{Username: "first", Email: "first@example.com", Password: "Password123!"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, RegisterUserInput{Username: "second", Email: "second@example.com", Password: "Password123!"})
	require.NoError(t, err)

	pending, err := svc.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	require.Equal(t, first.ID, pending[0].ID)
}
