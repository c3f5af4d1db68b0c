package models

import "time"

// Document holds metadata for an uploaded employee document. The file content
// itself lives in the blob store under StorageKey.
type Document struct {
	BaseModel

	EmployeeID string `gorm:"type:uuid;not null;index" json:"employee_id"`

	Title       string `gorm:"type:varchar(255);not null" json:"title"`
	Kind        string `gorm:"type:varchar(64)" json:"kind"`
	FileName    string `gorm:"type:varchar(255);not null" json:"file_name"`
	ContentType string `gorm:"type:varchar(128)" json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
	StorageKey  string `gorm:"type:varchar(255);uniqueIndex;not null" json:"-"`

	ExpiryDate *time.Time `gorm:"type:date" json:"expiry_date"`

	UploadedBy string `gorm:"type:uuid" json:"uploaded_by,omitempty"`
}
