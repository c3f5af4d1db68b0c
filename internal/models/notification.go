package models

import (
	"time"

	"gorm.io/datatypes"
)

// Notification represents an in-app notification row. The visa sweep is one
// producer among several; approval and document events write here too.
type Notification struct {
	BaseModel

	UserID   string         `gorm:"type:uuid;index" json:"user_id"`
	Type     string         `gorm:"type:varchar(32);default:'info'" json:"type"`
	Title    string         `gorm:"type:varchar(255);not null" json:"title"`
	Message  string         `gorm:"type:text" json:"message"`
	Metadata datatypes.JSON `json:"metadata"`

	IsRead bool       `gorm:"default:false;index" json:"is_read"`
	ReadAt *time.Time `json:"read_at"`
}
