package models

import "time"

// User describes an application account. Accounts start unapproved and must be
// approved by an administrator before they can log in.
type User struct {
	BaseModel

	Username string `gorm:"uniqueIndex;not null" json:"username"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`

	FullName string `json:"full_name"`

	IsAdmin    bool `gorm:"default:false" json:"is_admin"`
	IsApproved bool `gorm:"default:false;index" json:"is_approved"`
	IsActive   bool `gorm:"default:true" json:"is_active"`

	ApprovedAt  *time.Time `json:"approved_at"`
	ApprovedBy  string     `gorm:"type:uuid" json:"approved_by,omitempty"`
	LastLoginAt *time.Time `json:"last_login_at"`
}
