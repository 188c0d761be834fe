// internal/storage/factory.go
package storage

import (
	"fmt"
	"log/slog"

	"github.com/rs/zerolog"

	"github.com/roadsim/roadsim/internal/config"
	"github.com/roadsim/roadsim/internal/database"
	gormstorage "github.com/roadsim/roadsim/internal/storage/gorm"
	"github.com/roadsim/roadsim/internal/storage/memory"
	sqlitestorage "github.com/roadsim/roadsim/internal/storage/sqlite"
)

// NewBackend creates a storage backend based on configuration. The database layer
// logs through dbLog; backends log through logger.
func NewBackend(cfg config.StorageConfig, logger *slog.Logger, dbLog zerolog.Logger) (Backend, error) {
	switch cfg.Type {
	case "postgres":
		m := database.NewManager(dbLog)
		if err := m.ConnectPostgres(cfg.Postgres); err != nil {
			return nil, err
		}
		return gormstorage.New(gormstorage.Dependencies{
			DB:        m,
			Logger:    logger,
			BatchSize: cfg.BatchSize,
		}), nil
	case "sqlite":
		return sqlitestorage.New(cfg.SQLite, cfg.BatchSize, logger, dbLog)
	case "memory":
		return memory.New(cfg.Memory), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
