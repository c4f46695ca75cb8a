package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	config "github.com/mwantia/tuneful/internal/config/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(level string, json bool) (LoggerService, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	cfg := config.LogServerConfig{
		Level:      level,
		TimeFormat: "15:04:05",
		NoColor:    true,
		JSON:       json,
	}
	return NewLoggerService("tuneful", cfg, WithOutput(buf)), buf
}

func TestParse(t *testing.T) {
	assert.Equal(t, Debug, Parse("debug"))
	assert.Equal(t, Info, Parse(""))
	assert.Equal(t, Warn, Parse("warning"))
	assert.Equal(t, Error, Parse("ERROR"))
	assert.Equal(t, Info, Parse("verbose"))
}

func TestLoggerService_FiltersBelowLevel(t *testing.T) {
	logger, buf := newTestLogger("warn", false)

	logger.Debug("hidden")
	logger.Info("hidden")
	logger.Warn("shown %d", 1)
	logger.Error("shown %d", 2)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "WARN  [tuneful] shown 1")
	assert.Contains(t, out, "ERROR [tuneful] shown 2")
}

func TestLoggerService_Named(t *testing.T) {
	logger, buf := newTestLogger("debug", false)

	logger.Named("api").Named("songs").Info("listed")

	assert.Contains(t, buf.String(), "[tuneful/api/songs] listed")
}

func TestLoggerService_JSON(t *testing.T) {
	logger, buf := newTestLogger("info", true)

	logger.Named("store").Info("migrated %d tables", 2)

	var entry logEntry
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry))
	assert.Equal(t, "INFO", entry.Level)
	assert.Equal(t, "tuneful/store", entry.Service)
	assert.Equal(t, "migrated 2 tables", entry.Message)
}

func TestLoggerService_PrintfLogsAtDebug(t *testing.T) {
	logger, buf := newTestLogger("info", false)
	logger.Printf("select 1")
	assert.Empty(t, buf.String())

	logger, buf = newTestLogger("debug", false)
	logger.Printf("select %d", 1)
	assert.Contains(t, buf.String(), "DEBUG [tuneful] select 1")
}
