package domain

import "time"

// Attachment Model
type Attachment struct {
	ID           uint      `gorm:"primaryKey"`        // Primary key
	ExpenseID    uint      `gorm:"index;not null"`    // Foreign key to the parent Expense
	StoragePath  string    `gorm:"size:255;not null"` // Path of the stored file, relative to the uploads root
	OriginalName string    `gorm:"size:255"`          // Filename as uploaded, kept separate from the storage path
	UploadedAt   time.Time `gorm:"autoCreateTime"`    // Timestamp of upload
}
