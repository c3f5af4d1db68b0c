package models

import "time"

// Employee describes a tracked employee record. VisaExpiryDate is nil for
// employees whose visa status is not tracked; those rows never enter the sweep.
type Employee struct {
	BaseModel

	Name        string `gorm:"type:varchar(255);not null" json:"name"`
	Email       string `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	CompanyName string `gorm:"type:varchar(255)" json:"company_name"`
	Nationality string `gorm:"type:varchar(64)" json:"nationality"`
	Position    string `gorm:"type:varchar(128)" json:"position"`

	VisaExpiryDate *time.Time `gorm:"type:date;index" json:"visa_expiry_date"`
	IsActive       bool       `gorm:"default:true;index" json:"is_active"`

	TelegramChatID int64 `json:"telegram_chat_id,omitempty"`

	Reminders []VisaReminder `gorm:"foreignKey:EmployeeID;constraint:OnDelete:CASCADE" json:"-"`
	Documents []Document     `gorm:"foreignKey:EmployeeID;constraint:OnDelete:CASCADE" json:"-"`
}
