package library

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/mwantia/tuneful/internal/uploads"
	"github.com/mwantia/tuneful/pkg/db/models"
	"github.com/mwantia/tuneful/pkg/db/store"
	"github.com/mwantia/tuneful/pkg/log"
	"github.com/spf13/afero"
)

// UploadStore holds the raw bytes behind File records.
type UploadStore interface {
	Write(name string, r io.Reader) (int64, error)
	Create(name string, r io.Reader) (int64, error)
	Open(name string) (afero.File, error)
	Remove(name string) error
}

// SongInput mirrors the request payload `{"file": {"id": <int>}}`.
type SongInput struct {
	File *FileRef `json:"file"`
}

type FileRef struct {
	ID *uint `json:"id"`
}

func (in SongInput) fileID() (uint, error) {
	if in.File == nil {
		return 0, ValidationError("'file' is a required property")
	}
	if in.File.ID == nil {
		return 0, ValidationError("'id' is a required property of 'file'")
	}
	return *in.File.ID, nil
}

// Upload is an opened upload ready to be streamed to a client.
type Upload struct {
	Name        string
	ContentType string
	ModTime     time.Time
	Content     afero.File
}

type Options struct {
	// Overwrite replaces stored content when an upload reuses an existing
	// name. When false such uploads fail with a conflict.
	Overwrite bool
}

// Service implements the business rules around songs and their files. Every
// operation runs inside a single store transaction.
type Service struct {
	repo    store.Repository
	uploads UploadStore
	log     log.LoggerService
	opts    Options
}

func NewService(repo store.Repository, uploads UploadStore, logger log.LoggerService, opts Options) *Service {
	return &Service{
		repo:    repo,
		uploads: uploads,
		log:     logger,
		opts:    opts,
	}
}

func (s *Service) ListSongs(ctx context.Context) ([]models.Song, error) {
	var songs []models.Song
	err := s.repo.Transaction(ctx, func(tx store.Repository) error {
		var err error
		songs, err = tx.ListSongs(ctx)
		return err
	})
	if err != nil {
		return nil, s.classify(err, "failed to list songs")
	}
	return songs, nil
}

func (s *Service) GetSong(ctx context.Context, id uint) (*models.Song, error) {
	var song *models.Song
	err := s.repo.Transaction(ctx, func(tx store.Repository) error {
		var err error
		song, err = s.lookupSong(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, s.classify(err, "failed to get song %d", id)
	}
	return song, nil
}

func (s *Service) CreateSong(ctx context.Context, in SongInput) (*models.Song, error) {
	fileID, err := in.fileID()
	if err != nil {
		return nil, err
	}

	var song *models.Song
	err = s.repo.Transaction(ctx, func(tx store.Repository) error {
		file, err := s.lookupFile(ctx, tx, fileID)
		if err != nil {
			return err
		}
		if err := s.ensureUnowned(ctx, tx, file.ID, 0); err != nil {
			return err
		}

		created := &models.Song{FileID: file.ID}
		if err := tx.CreateSong(ctx, created); err != nil {
			return err
		}

		created.File = *file
		song = created
		return nil
	})
	if err != nil {
		return nil, s.classify(err, "failed to create song for file %d", fileID)
	}

	s.log.Info("Created song %d for file %d", song.ID, song.FileID)
	return song, nil
}

// UpdateSong points an existing song at another file. The previously linked
// file is kept.
func (s *Service) UpdateSong(ctx context.Context, id uint, in SongInput) (*models.Song, error) {
	var song *models.Song
	err := s.repo.Transaction(ctx, func(tx store.Repository) error {
		existing, err := s.lookupSong(ctx, tx, id)
		if err != nil {
			return err
		}

		fileID, err := in.fileID()
		if err != nil {
			return err
		}

		file, err := s.lookupFile(ctx, tx, fileID)
		if err != nil {
			return err
		}
		if err := s.ensureUnowned(ctx, tx, file.ID, existing.ID); err != nil {
			return err
		}

		previous := existing.FileID
		existing.FileID = file.ID
		existing.File = *file
		if err := tx.UpdateSong(ctx, existing); err != nil {
			return err
		}

		if previous != file.ID {
			s.log.Debug("Song %d moved from file %d to file %d", existing.ID, previous, file.ID)
		}
		song = existing
		return nil
	})
	if err != nil {
		return nil, s.classify(err, "failed to update song %d", id)
	}
	return song, nil
}

// DeleteSong removes the song together with the file it owns and returns the
// deleted song.
func (s *Service) DeleteSong(ctx context.Context, id uint) (*models.Song, error) {
	var song *models.Song
	err := s.repo.Transaction(ctx, func(tx store.Repository) error {
		existing, err := s.lookupSong(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := tx.DeleteSong(ctx, existing.ID); err != nil {
			return err
		}

		song = existing
		return nil
	})
	if err != nil {
		return nil, s.classify(err, "failed to delete song %d", id)
	}

	s.log.Info("Deleted song %d and file %d", song.ID, song.FileID)
	s.removeUnusedUpload(ctx, song.File.Name)
	return song, nil
}

// RegisterFile stores content under the sanitized filename and records it.
// The bytes are written before the record is committed, so a failure between
// both steps leaves at most an unreferenced upload behind.
func (s *Service) RegisterFile(ctx context.Context, filename string, content io.Reader) (*models.File, error) {
	if content == nil {
		return nil, ValidationError("Request must contain a 'file' part")
	}

	name := uploads.Sanitize(filename)

	var file *models.File
	err := s.repo.Transaction(ctx, func(tx store.Repository) error {
		if !s.opts.Overwrite {
			if err := s.ensureNameAvailable(ctx, tx, name); err != nil {
				return err
			}
		}

		size, err := s.storeUpload(name, content)
		if err != nil {
			return err
		}

		created := &models.File{Name: name}
		if err := tx.CreateFile(ctx, created); err != nil {
			return err
		}

		s.log.Debug("Stored %d bytes for file '%s'", size, name)
		file = created
		return nil
	})
	if err != nil {
		return nil, s.classify(err, "failed to register file '%s'", name)
	}

	s.log.Info("Registered file %d as '%s'", file.ID, file.Name)
	return file, nil
}

func (s *Service) ListFiles(ctx context.Context) ([]models.File, error) {
	var files []models.File
	err := s.repo.Transaction(ctx, func(tx store.Repository) error {
		var err error
		files, err = tx.ListFiles(ctx)
		return err
	})
	if err != nil {
		return nil, s.classify(err, "failed to list files")
	}
	return files, nil
}

// OpenUpload opens the stored content of name. The caller closes Content.
func (s *Service) OpenUpload(ctx context.Context, name string) (*Upload, error) {
	f, err := s.uploads.Open(name)
	if err != nil {
		if errors.Is(err, uploads.ErrNotFound) {
			return nil, NotFoundError("Could not find upload %s", name)
		}
		return nil, s.classify(err, "failed to open upload '%s'", name)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, s.classify(err, "failed to stat upload '%s'", name)
	}

	contentType, err := uploads.ContentType(name, f)
	if err != nil {
		f.Close()
		return nil, s.classify(err, "failed to detect content type of '%s'", name)
	}

	return &Upload{
		Name:        name,
		ContentType: contentType,
		ModTime:     info.ModTime(),
		Content:     f,
	}, nil
}

func (s *Service) lookupSong(ctx context.Context, tx store.Repository, id uint) (*models.Song, error) {
	song, err := tx.GetSong(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, NotFoundError("Could not find song with id %d", id)
	}
	return song, err
}

func (s *Service) lookupFile(ctx context.Context, tx store.Repository, id uint) (*models.File, error) {
	file, err := tx.GetFile(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, NotFoundError("Could not find file with id %d", id)
	}
	return file, err
}

// ensureUnowned fails when fileID already belongs to a song other than songID.
func (s *Service) ensureUnowned(ctx context.Context, tx store.Repository, fileID, songID uint) error {
	owner, err := tx.GetSongByFile(ctx, fileID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil
	case err != nil:
		return err
	case owner.ID != songID:
		return ConflictError("File with id %d already belongs to song %d", fileID, owner.ID)
	default:
		return nil
	}
}

// storeUpload writes the bytes for name. Without overwrite the name is
// claimed exclusively in the upload store, which also covers concurrent
// uploads that have not committed their record yet.
func (s *Service) storeUpload(name string, content io.Reader) (int64, error) {
	if s.opts.Overwrite {
		size, err := s.uploads.Write(name, content)
		if err != nil {
			return 0, fmt.Errorf("failed to store upload: %w", err)
		}
		return size, nil
	}

	size, err := s.uploads.Create(name, content)
	if errors.Is(err, uploads.ErrExists) {
		return 0, ConflictError("File with name %s already exists", name)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to store upload: %w", err)
	}
	return size, nil
}

func (s *Service) ensureNameAvailable(ctx context.Context, tx store.Repository, name string) error {
	count, err := tx.CountFilesByName(ctx, name)
	if err != nil {
		return err
	}
	if count > 0 {
		return ConflictError("File with name %s already exists", name)
	}
	return nil
}

// removeUnusedUpload deletes stored bytes once no record refers to them.
// Failures are only logged; the records are already gone.
func (s *Service) removeUnusedUpload(ctx context.Context, name string) {
	if name == "" {
		return
	}

	count, err := s.repo.CountFilesByName(ctx, name)
	if err != nil {
		s.log.Warn("Unable to check remaining references to upload '%s': %v", name, err)
		return
	}
	if count > 0 {
		return
	}

	if err := s.uploads.Remove(name); err != nil {
		s.log.Warn("Unable to remove upload '%s': %v", name, err)
	}
}

func (s *Service) classify(err error, format string, args ...any) error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}

	if errors.Is(err, store.ErrDuplicate) {
		return ConflictError("Resource already exists")
	}

	wrapped := StorageError(err, format, args...)
	s.log.Error("%v", wrapped)
	return wrapped
}
