package store

import (
	"fmt"

	config "github.com/mwantia/tuneful/internal/config/server"
	"github.com/mwantia/tuneful/pkg/log"
)

// Open creates the metadata store selected by cfg.Type. The connection is not
// established until Connect is called.
func Open(cfg config.MetadataServerConfig, logger log.LoggerService) (MetadataStore, error) {
	gormLogger := NewLogger(logger, cfg.LogLevel)

	switch cfg.Type {
	case config.MetadataTypeSQLite:
		return NewSQLiteStore(SQLiteConfig{
			Path:   cfg.SQLite.Path,
			Logger: gormLogger,
		})
	case config.MetadataTypePostgres:
		return NewPostgresStore(PostgresConfig{
			DSN:          cfg.Postgres.DSN,
			MaxOpenConns: cfg.Postgres.MaxOpenConns,
			Logger:       gormLogger,
		})
	default:
		return nil, fmt.Errorf("unsupported metadata type '%s'", cfg.Type)
	}
}
