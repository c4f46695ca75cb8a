package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/mwantia/tuneful/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// gormStore implements Repository on top of any gorm dialector.
type gormStore struct {
	db *gorm.DB
}

// DB returns the underlying GORM database instance
func (s *gormStore) DB() *gorm.DB {
	return s.db
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: %v", ErrForeignKey, err)
	default:
		return err
	}
}

func (s *gormStore) Transaction(ctx context.Context, fn func(tx Repository) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

// File operations

func (s *gormStore) CreateFile(ctx context.Context, file *models.File) error {
	return translate(s.db.WithContext(ctx).Create(file).Error)
}

func (s *gormStore) GetFile(ctx context.Context, id uint) (*models.File, error) {
	var file models.File
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&file).Error; err != nil {
		return nil, translate(err)
	}
	return &file, nil
}

func (s *gormStore) ListFiles(ctx context.Context) ([]models.File, error) {
	var files []models.File
	err := s.db.WithContext(ctx).Order("id ASC").Find(&files).Error
	return files, translate(err)
}

func (s *gormStore) CountFilesByName(ctx context.Context, name string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.File{}).Where("name = ?", name).Count(&count).Error
	return count, translate(err)
}

func (s *gormStore) DeleteFile(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&models.File{}, id)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Song operations

func (s *gormStore) CreateSong(ctx context.Context, song *models.Song) error {
	return translate(s.db.WithContext(ctx).Omit(clause.Associations).Create(song).Error)
}

func (s *gormStore) GetSong(ctx context.Context, id uint) (*models.Song, error) {
	var song models.Song
	if err := s.db.WithContext(ctx).Preload("File").Where("id = ?", id).First(&song).Error; err != nil {
		return nil, translate(err)
	}
	return &song, nil
}

func (s *gormStore) GetSongByFile(ctx context.Context, fileID uint) (*models.Song, error) {
	var song models.Song
	if err := s.db.WithContext(ctx).Preload("File").Where("file_id = ?", fileID).First(&song).Error; err != nil {
		return nil, translate(err)
	}
	return &song, nil
}

func (s *gormStore) ListSongs(ctx context.Context) ([]models.Song, error) {
	var songs []models.Song
	err := s.db.WithContext(ctx).Preload("File").Order("id ASC").Find(&songs).Error
	return songs, translate(err)
}

func (s *gormStore) UpdateSong(ctx context.Context, song *models.Song) error {
	return translate(s.db.WithContext(ctx).Omit(clause.Associations).Save(song).Error)
}

func (s *gormStore) DeleteSong(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := &gormStore{db: tx}

		song, err := repo.GetSong(ctx, id)
		if err != nil {
			return err
		}

		// The song row goes first; the foreign key refuses to drop a referenced file.
		if err := tx.Delete(&models.Song{}, song.ID).Error; err != nil {
			return translate(err)
		}

		if err := repo.DeleteFile(ctx, song.FileID); err != nil {
			return fmt.Errorf("failed to delete file %d of song %d: %w", song.FileID, song.ID, err)
		}
		return nil
	})
}
