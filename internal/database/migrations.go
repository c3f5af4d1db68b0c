package database

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gorm.io/gorm"

	"github.com/visadesk-io/visadesk/internal/models"
	"github.com/visadesk-io/visadesk/pkg/crypto"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Employee{},
		&models.VisaReminder{},
		&models.Document{},
		&models.Notification{},
	)
}

// SeedData provisions the initial administrator account when the users table is
// empty. Credentials come from VISADESK_ADMIN_USERNAME / VISADESK_ADMIN_PASSWORD;
// without them seeding is skipped so a fresh install stays locked down.
func SeedData(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	username := strings.TrimSpace(os.Getenv("VISADESK_ADMIN_USERNAME"))
	password := os.Getenv("VISADESK_ADMIN_PASSWORD")
	if username == "" || password == "" {
		return nil
	}

	hashed, err := crypto.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	admin := models.User{
		Username:   username,
		Email:      username + "@localhost",
		Password:   hashed,
		FullName:   "Administrator",
		IsAdmin:    true,
		IsApproved: true,
		IsActive:   true,
	}

	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("seed admin user: %w", err)
	}
	return nil
}

// Healthcheck verifies the underlying connection is alive.
func Healthcheck(db *gorm.DB) error {
	if db == nil {
		return errors.New("nil database handle")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
