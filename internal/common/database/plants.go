// internal/common/database/plants.go
package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"garden-planner/internal/common/config"
	"garden-planner/internal/garden/store"
)

// OpenPlantStore opens the plant store selected by cfg: Postgres when
// database.postgres.enabled is set, otherwise the SQLite file at
// store.sqlite_path. The schema is created if missing.
func OpenPlantStore(ctx context.Context, cfg *config.Config) (store.Backend, error) {
	var backend store.Backend

	if cfg.Database.Postgres.Enabled {
		pg, err := NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return nil, err
		}
		if err := pg.Ping(ctx); err != nil {
			_ = pg.Close()
			return nil, fmt.Errorf("postgres ping failed: %w", err)
		}
		backend = store.NewPostgres(pg.GetDB())
	} else {
		path := cfg.Store.SQLitePath
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create store directory: %w", err)
			}
		}
		lite, err := store.OpenSQLite(path)
		if err != nil {
			return nil, err
		}
		backend = lite
	}

	if err := backend.EnsureSchema(ctx); err != nil {
		_ = backend.Close()
		return nil, fmt.Errorf("ensure plant schema: %w", err)
	}
	return backend, nil
}
