package uploads

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/spf13/afero"
)

var (
	ErrNotFound    = errors.New("upload not found")
	ErrInvalidName = errors.New("invalid upload name")
	ErrExists      = errors.New("upload already exists")
)

// Store keeps uploaded bytes below a fixed root directory. Every access goes
// through a base path filesystem so names cannot escape the root.
type Store struct {
	fs afero.Fs
}

// NewStore creates the root directory if necessary and returns a store on
// top of the operating system filesystem.
func NewStore(root string) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("upload root is required")
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve upload root '%s': %w", root, err)
	}

	osFs := afero.NewOsFs()
	if err := osFs.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload root '%s': %w", abs, err)
	}

	return NewStoreFs(afero.NewBasePathFs(osFs, abs)), nil
}

// NewStoreFs wraps an existing filesystem, mostly useful with afero.NewMemMapFs.
func NewStoreFs(fs afero.Fs) *Store {
	return &Store{fs: fs}
}

// Write stores the content of r under name. The bytes land in a temporary
// sibling first and are renamed into place after a successful sync, so the
// target is either fully written or left untouched. Existing content under
// the same name is replaced.
func (s *Store) Write(name string, r io.Reader) (int64, error) {
	if !IsCanonical(name) {
		return 0, fmt.Errorf("%w: '%s'", ErrInvalidName, name)
	}
	return s.store(name, r)
}

// Create is like Write but fails with ErrExists when name is already taken.
// The name is reserved with O_EXCL before any bytes are written, so of two
// concurrent calls for the same name exactly one succeeds.
func (s *Store) Create(name string, r io.Reader) (int64, error) {
	if !IsCanonical(name) {
		return 0, fmt.Errorf("%w: '%s'", ErrInvalidName, name)
	}

	placeholder, err := s.fs.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return 0, fmt.Errorf("%w: '%s'", ErrExists, name)
		}
		return 0, fmt.Errorf("failed to reserve upload '%s': %w", name, err)
	}
	if err := placeholder.Close(); err != nil {
		_ = s.fs.Remove(name)
		return 0, fmt.Errorf("failed to reserve upload '%s': %w", name, err)
	}

	n, err := s.store(name, r)
	if err != nil {
		_ = s.fs.Remove(name)
		return 0, err
	}
	return n, nil
}

func (s *Store) store(name string, r io.Reader) (int64, error) {
	tmp := "." + uuid.NewString() + ".tmp"
	f, err := s.fs.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return 0, fmt.Errorf("failed to create temporary upload: %w", err)
	}

	n, err := io.Copy(f, r)
	if err == nil {
		err = f.Sync()
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = s.fs.Remove(tmp)
		return 0, fmt.Errorf("failed to write upload '%s': %w", name, err)
	}

	if err := s.fs.Rename(tmp, name); err != nil {
		_ = s.fs.Remove(tmp)
		return 0, fmt.Errorf("failed to move upload '%s' into place: %w", name, err)
	}

	return n, nil
}

// Open returns a handle on the stored content of name.
func (s *Store) Open(name string) (afero.File, error) {
	if !IsCanonical(name) {
		return nil, ErrNotFound
	}

	f, err := s.fs.Open(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to open upload '%s': %w", name, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat upload '%s': %w", name, err)
	}
	if info.IsDir() {
		f.Close()
		return nil, ErrNotFound
	}

	return f, nil
}

func (s *Store) Exists(name string) (bool, error) {
	if !IsCanonical(name) {
		return false, nil
	}
	return afero.Exists(s.fs, name)
}

// Remove deletes the content stored under name. Missing content is not an error.
func (s *Store) Remove(name string) error {
	if !IsCanonical(name) {
		return fmt.Errorf("%w: '%s'", ErrInvalidName, name)
	}

	if err := s.fs.Remove(name); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove upload '%s': %w", name, err)
	}
	return nil
}

// ContentType infers the media type of an upload, first from its extension
// and then by sniffing the content of r. The reader is rewound afterwards.
func ContentType(name string, r io.ReadSeeker) (string, error) {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct, nil
	}

	mt, err := mimetype.DetectReader(r)
	if err != nil {
		return "", fmt.Errorf("failed to detect content type of '%s': %w", name, err)
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to rewind upload '%s': %w", name, err)
	}

	return mt.String(), nil
}
