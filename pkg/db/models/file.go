package models

import "time"

// File represents metadata for one uploaded binary held by the upload store
type File struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"type:text;not null;index:idx_file_name"`

	// Timestamps
	CreatedAt time.Time
	UpdatedAt time.Time
}
