package models

import "time"

// Song references exactly one uploaded File. A File is attached to at most one
// Song; the unique index on FileID keeps the relation one-to-one.
type Song struct {
	ID     uint `gorm:"primaryKey"`
	FileID uint `gorm:"not null;uniqueIndex:idx_song_file"`

	CreatedAt time.Time
	UpdatedAt time.Time

	// Relationships
	File File `gorm:"foreignKey:FileID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}
