package uploads

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_RoundTrip(t *testing.T) {
	s := NewStoreFs(afero.NewMemMapFs())

	n, err := s.Write("file_A.mp3", strings.NewReader("abc"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	f, err := s.Open("file_A.mp3")
	require.NoError(t, err)
	defer f.Close()

	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), data)
}

func TestStore_WriteRejectsNonCanonicalNames(t *testing.T) {
	s := NewStoreFs(afero.NewMemMapFs())

	for _, name := range []string{"", "../escape.mp3", "dir/file.mp3", ".hidden"} {
		_, err := s.Write(name, strings.NewReader("x"))
		assert.ErrorIs(t, err, ErrInvalidName, name)
	}
}

func TestStore_OpenMissing(t *testing.T) {
	s := NewStoreFs(afero.NewMemMapFs())

	_, err := s.Open("missing.mp3")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Open("../../etc/passwd")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_OnDiskOverwriteAndConfinement(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "uploads")

	secret := filepath.Join(parent, "secret.txt")
	require.NoError(t, os.WriteFile(secret, []byte("secret"), 0o600))

	s, err := NewStore(root)
	require.NoError(t, err)

	_, err = s.Write("track.mp3", strings.NewReader("first"))
	require.NoError(t, err)
	_, err = s.Write("track.mp3", strings.NewReader("second"))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(root, "track.mp3"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")

	_, err = s.Open("../secret.txt")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ExistsAndRemove(t *testing.T) {
	s := NewStoreFs(afero.NewMemMapFs())

	_, err := s.Write("file_B.wav", bytes.NewReader([]byte{1, 2, 3}))
	require.NoError(t, err)

	ok, err := s.Exists("file_B.wav")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.Remove("file_B.wav"))
	require.NoError(t, s.Remove("file_B.wav"))

	ok, err = s.Exists("file_B.wav")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_CreateIsExclusive(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	const workers = 8
	var (
		wg      sync.WaitGroup
		created atomic.Int32
		exists  atomic.Int32
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Create("track.mp3", strings.NewReader(fmt.Sprintf("writer %d", i)))
			switch {
			case err == nil:
				created.Add(1)
			case errors.Is(err, ErrExists):
				exists.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), created.Load())
	assert.Equal(t, int32(workers-1), exists.Load())

	f, err := s.Open("track.mp3")
	require.NoError(t, err)
	defer f.Close()

	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "writer "))
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestStore_CreateReleasesNameOnFailure(t *testing.T) {
	s := NewStoreFs(afero.NewMemMapFs())

	_, err := s.Create("track.mp3", failingReader{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrExists)

	ok, err := s.Exists("track.mp3")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Create("track.mp3", strings.NewReader("retry"))
	require.NoError(t, err)

	_, err = s.Create("track.mp3", strings.NewReader("again"))
	assert.ErrorIs(t, err, ErrExists)
}

func TestContentType(t *testing.T) {
	ct, err := ContentType("test.txt", strings.NewReader("File contents"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ct, "text/plain"), ct)

	r := strings.NewReader("ID3\x03\x00\x00\x00\x00\x00\x00")
	ct, err = ContentType("noext", r)
	require.NoError(t, err)
	assert.Equal(t, "audio/mpeg", ct)

	rest, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(rest), "ID3"), "reader must be rewound")
}
