package agent

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	config "github.com/mwantia/tuneful/internal/config/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.BaseServerConfig {
	t.Helper()
	dir := t.TempDir()

	cfg := config.GetServerDefault()
	cfg.ShutdownTimeout = "5s"
	cfg.Log.Level = "error"
	cfg.Log.NoColor = true
	cfg.HTTP.Address = "127.0.0.1:0"
	cfg.Metadata.SQLite.Path = filepath.Join(dir, "tuneful.db")
	cfg.Uploads.Path = filepath.Join(dir, "uploads")
	return &cfg
}

func TestServe_ShutdownClosesStore(t *testing.T) {
	ta := NewAgent(testConfig(t))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- ta.Serve(ctx) }()

	require.Eventually(t, func() bool {
		ta.mutex.RLock()
		defer ta.mutex.RUnlock()
		return ta.server != nil
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, ta.store.Health(context.Background()))

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("agent did not shut down")
	}

	assert.Error(t, ta.store.Health(context.Background()), "store must be closed after shutdown")
}

func TestServe_SetupFailure(t *testing.T) {
	cfg := testConfig(t)

	// a regular file where the upload directory is expected
	cfg.Uploads.Path = filepath.Join(t.TempDir(), "uploads")
	require.NoError(t, os.WriteFile(cfg.Uploads.Path, []byte("x"), 0o644))

	ta := NewAgent(cfg)
	err := ta.Serve(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upload root")
	assert.Nil(t, ta.server)
	assert.Nil(t, ta.store)
}
