package library

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	config "github.com/mwantia/tuneful/internal/config/server"
	"github.com/mwantia/tuneful/internal/uploads"
	"github.com/mwantia/tuneful/pkg/db/store"
	"github.com/mwantia/tuneful/pkg/log"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc     *Service
	store   *store.SQLiteStore
	uploads *uploads.Store
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	ctx := context.Background()

	s, err := store.NewSQLiteStore(store.SQLiteConfig{Path: filepath.Join(t.TempDir(), "library.db")})
	require.NoError(t, err)
	require.NoError(t, s.Connect(ctx))
	require.NoError(t, s.Migrate(ctx))
	t.Cleanup(func() { _ = s.Close() })

	up := uploads.NewStoreFs(afero.NewMemMapFs())
	logger := log.NewLoggerService("test", config.LogServerConfig{Level: "debug", NoColor: true}, log.WithOutput(io.Discard))

	return &fixture{
		svc:     NewService(s, up, logger, opts),
		store:   s,
		uploads: up,
	}
}

func (f *fixture) upload(t *testing.T, name, content string) uint {
	t.Helper()
	file, err := f.svc.RegisterFile(context.Background(), name, strings.NewReader(content))
	require.NoError(t, err)
	return file.ID
}

func songInput(id uint) SongInput {
	return SongInput{File: &FileRef{ID: &id}}
}

func requireKind(t *testing.T, err error, kind Kind) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, KindOf(err), "unexpected error: %v", err)
}

func TestRegisterFile_RoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{Overwrite: true})

	file, err := f.svc.RegisterFile(ctx, "file_A.mp3", strings.NewReader("abc"))
	require.NoError(t, err)
	assert.Equal(t, uint(1), file.ID)
	assert.Equal(t, "file_A.mp3", file.Name)

	upload, err := f.svc.OpenUpload(ctx, file.Name)
	require.NoError(t, err)
	defer upload.Content.Close()

	data, err := io.ReadAll(upload.Content)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), data)
}

func TestRegisterFile_SanitizesName(t *testing.T) {
	f := newFixture(t, Options{Overwrite: true})

	file, err := f.svc.RegisterFile(context.Background(), "../../etc/passwd", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, "etc_passwd", file.Name)

	ok, err := f.uploads.Exists("etc_passwd")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRegisterFile_RequiresContent(t *testing.T) {
	f := newFixture(t, Options{Overwrite: true})

	_, err := f.svc.RegisterFile(context.Background(), "empty.mp3", nil)
	requireKind(t, err, KindValidation)

	files, err := f.svc.ListFiles(context.Background())
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestRegisterFile_CollisionPolicy(t *testing.T) {
	ctx := context.Background()

	t.Run("overwrite", func(t *testing.T) {
		f := newFixture(t, Options{Overwrite: true})
		f.upload(t, "track.mp3", "first")
		f.upload(t, "track.mp3", "second")

		upload, err := f.svc.OpenUpload(ctx, "track.mp3")
		require.NoError(t, err)
		defer upload.Content.Close()

		data, err := io.ReadAll(upload.Content)
		require.NoError(t, err)
		assert.Equal(t, "second", string(data))
	})

	t.Run("reject", func(t *testing.T) {
		f := newFixture(t, Options{Overwrite: false})
		f.upload(t, "track.mp3", "first")

		_, err := f.svc.RegisterFile(ctx, "track.mp3", strings.NewReader("second"))
		requireKind(t, err, KindConflict)

		files, err := f.svc.ListFiles(ctx)
		require.NoError(t, err)
		assert.Len(t, files, 1)
	})

	t.Run("reject uncommitted upload", func(t *testing.T) {
		f := newFixture(t, Options{Overwrite: false})

		// bytes of an upload whose record is not committed yet
		_, err := f.uploads.Write("track.mp3", strings.NewReader("pending"))
		require.NoError(t, err)

		_, err = f.svc.RegisterFile(ctx, "track.mp3", strings.NewReader("second"))
		requireKind(t, err, KindConflict)

		upload, err := f.svc.OpenUpload(ctx, "track.mp3")
		require.NoError(t, err)
		defer upload.Content.Close()

		data, err := io.ReadAll(upload.Content)
		require.NoError(t, err)
		assert.Equal(t, "pending", string(data))

		files, err := f.svc.ListFiles(ctx)
		require.NoError(t, err)
		assert.Empty(t, files)
	})
}

func TestCreateSong(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{Overwrite: true})
	fileID := f.upload(t, "file_A.mp3", "abc")

	song, err := f.svc.CreateSong(ctx, songInput(fileID))
	require.NoError(t, err)
	assert.Equal(t, uint(1), song.ID)
	assert.Equal(t, fileID, song.File.ID)
	assert.Equal(t, "file_A.mp3", song.File.Name)
}

func TestCreateSong_MissingFileLeavesNoSong(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{Overwrite: true})

	_, err := f.svc.CreateSong(ctx, songInput(999))
	requireKind(t, err, KindNotFound)
	assert.Equal(t, "Could not find file with id 999", err.Error())

	songs, err := f.svc.ListSongs(ctx)
	require.NoError(t, err)
	assert.Empty(t, songs)
}

func TestCreateSong_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{Overwrite: true})

	_, err := f.svc.CreateSong(ctx, SongInput{})
	requireKind(t, err, KindValidation)

	_, err = f.svc.CreateSong(ctx, SongInput{File: &FileRef{}})
	requireKind(t, err, KindValidation)
}

func TestCreateSong_FileAlreadyOwned(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{Overwrite: true})
	fileID := f.upload(t, "file_A.mp3", "abc")

	_, err := f.svc.CreateSong(ctx, songInput(fileID))
	require.NoError(t, err)

	_, err = f.svc.CreateSong(ctx, songInput(fileID))
	requireKind(t, err, KindConflict)
}

func TestGetSong_NotFound(t *testing.T) {
	f := newFixture(t, Options{Overwrite: true})

	_, err := f.svc.GetSong(context.Background(), 42)
	requireKind(t, err, KindNotFound)
	assert.Equal(t, "Could not find song with id 42", err.Error())
}

func TestUpdateSong(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{Overwrite: true})
	first := f.upload(t, "file_A.mp3", "a")
	second := f.upload(t, "file_B.mp3", "b")

	song, err := f.svc.CreateSong(ctx, songInput(first))
	require.NoError(t, err)

	updated, err := f.svc.UpdateSong(ctx, song.ID, songInput(second))
	require.NoError(t, err)
	assert.Equal(t, second, updated.File.ID)
	assert.Equal(t, "file_B.mp3", updated.File.Name)

	// The previous file is retained.
	_, err = f.store.GetFile(ctx, first)
	assert.NoError(t, err)

	// Pointing the song at its own file again is allowed.
	_, err = f.svc.UpdateSong(ctx, song.ID, songInput(second))
	assert.NoError(t, err)
}

func TestUpdateSong_Failures(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{Overwrite: true})
	first := f.upload(t, "file_A.mp3", "a")
	second := f.upload(t, "file_B.mp3", "b")

	song, err := f.svc.CreateSong(ctx, songInput(first))
	require.NoError(t, err)
	_, err = f.svc.CreateSong(ctx, songInput(second))
	require.NoError(t, err)

	_, err = f.svc.UpdateSong(ctx, 42, songInput(first))
	requireKind(t, err, KindNotFound)

	_, err = f.svc.UpdateSong(ctx, song.ID, SongInput{})
	requireKind(t, err, KindValidation)

	_, err = f.svc.UpdateSong(ctx, song.ID, songInput(999))
	requireKind(t, err, KindNotFound)

	_, err = f.svc.UpdateSong(ctx, song.ID, songInput(second))
	requireKind(t, err, KindConflict)

	got, err := f.svc.GetSong(ctx, song.ID)
	require.NoError(t, err)
	assert.Equal(t, first, got.FileID)
}

func TestDeleteSong_Cascades(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{Overwrite: true})
	fileID := f.upload(t, "file_A.mp3", "abc")

	song, err := f.svc.CreateSong(ctx, songInput(fileID))
	require.NoError(t, err)

	deleted, err := f.svc.DeleteSong(ctx, song.ID)
	require.NoError(t, err)
	assert.Equal(t, song.ID, deleted.ID)
	assert.Equal(t, "file_A.mp3", deleted.File.Name)

	_, err = f.store.GetFile(ctx, fileID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	ok, err := f.uploads.Exists("file_A.mp3")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = f.svc.DeleteSong(ctx, song.ID)
	requireKind(t, err, KindNotFound)
}

func TestDeleteSong_KeepsSharedUpload(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{Overwrite: true})
	first := f.upload(t, "shared.mp3", "one")
	f.upload(t, "shared.mp3", "two")

	song, err := f.svc.CreateSong(ctx, songInput(first))
	require.NoError(t, err)

	_, err = f.svc.DeleteSong(ctx, song.ID)
	require.NoError(t, err)

	ok, err := f.uploads.Exists("shared.mp3")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestListSongs_OrderedUnderConcurrentCreates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{Overwrite: true})

	const n = 8
	ids := make([]uint, n)
	for i := range ids {
		ids[i] = f.upload(t, "track.mp3", "x")
	}

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for _, id := range ids {
		wg.Add(1)
		go func(id uint) {
			defer wg.Done()
			_, err := f.svc.CreateSong(ctx, songInput(id))
			errs <- err
		}(id)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	songs, err := f.svc.ListSongs(ctx)
	require.NoError(t, err)
	require.Len(t, songs, n)
	for i := 1; i < len(songs); i++ {
		assert.Less(t, songs[i-1].ID, songs[i].ID)
	}
}

func TestOpenUpload_NotFound(t *testing.T) {
	f := newFixture(t, Options{Overwrite: true})

	_, err := f.svc.OpenUpload(context.Background(), "missing.mp3")
	requireKind(t, err, KindNotFound)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindStorage, KindOf(io.EOF))
	assert.Equal(t, KindConflict, KindOf(ConflictError("x")))
	assert.Equal(t, "read failed: EOF", StorageError(io.EOF, "read failed").Error())
}
