package store

import (
	"database/sql"

	"arxitex/internal/store/migrations"
)

// runMigrations applies every migration in order. Each migration must be
// idempotent since it runs on every Open, not just on first creation.
func runMigrations(db *sql.DB) error {
	steps := []func(*sql.DB) error{
		migrations.EnsureLLMUsageContextColumn,
	}
	for _, step := range steps {
		if err := step(db); err != nil {
			return err
		}
	}
	return nil
}
