package database

import (
	"fmt"
	"os"
	"path/filepath"

	"eventmeet/internal/config"
	"eventmeet/internal/meet"
)

// NewStoreFromConfig opens the store selected by the database config type.
// A sqlite database lives at <data_dir>/<deviceID>.db.
func NewStoreFromConfig(cfg config.DatabaseConfig, deviceID string, clock meet.Clock) (*SQLiteStore, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		if deviceID == "" {
			return nil, fmt.Errorf("device_id required for sqlite database")
		}
		if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		return NewSQLiteStore(filepath.Join(cfg.DataDir, deviceID+".db"), clock)
	case "memory":
		return NewSQLiteStore(":memory:", clock)
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}
