package store

import (
	"context"
	"errors"

	"github.com/mwantia/tuneful/pkg/db/models"
	"gorm.io/gorm"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrDuplicate  = errors.New("duplicate record")
	ErrForeignKey = errors.New("foreign key violation")
)

// Repository defines the record operations available both on the store and
// inside a transaction.
type Repository interface {
	// Transaction runs fn against a transaction-bound repository. The
	// transaction commits when fn returns nil and rolls back otherwise.
	Transaction(ctx context.Context, fn func(tx Repository) error) error

	// File operations
	CreateFile(ctx context.Context, file *models.File) error
	GetFile(ctx context.Context, id uint) (*models.File, error)
	ListFiles(ctx context.Context) ([]models.File, error)
	CountFilesByName(ctx context.Context, name string) (int64, error)
	DeleteFile(ctx context.Context, id uint) error

	// Song operations
	CreateSong(ctx context.Context, song *models.Song) error
	GetSong(ctx context.Context, id uint) (*models.Song, error)
	GetSongByFile(ctx context.Context, fileID uint) (*models.Song, error)
	ListSongs(ctx context.Context) ([]models.Song, error)
	UpdateSong(ctx context.Context, song *models.Song) error
	// DeleteSong removes the song and the file it owns.
	DeleteSong(ctx context.Context, id uint) error
}

// MetadataStore defines the interface for database operations
type MetadataStore interface {
	Repository

	// Lifecycle
	Connect(ctx context.Context) error
	Close() error
	Migrate(ctx context.Context) error
	Health(ctx context.Context) error

	DB() *gorm.DB
}
