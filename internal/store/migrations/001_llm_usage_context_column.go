package migrations

import (
	"database/sql"
	"errors"
	"fmt"
)

// EnsureLLMUsageContextColumn adds the context column to llm_usage for
// databases created before usage records carried a free-text context tag.
// Fresh databases already have the column from schema.go; this only fires
// against an older file.
func EnsureLLMUsageContextColumn(db *sql.DB) (retErr error) {
	var columnExists bool
	rows, err := db.Query("PRAGMA table_info(llm_usage)")
	if err != nil {
		return fmt.Errorf("check llm_usage schema: %w", err)
	}
	defer func() {
		if rows != nil {
			if closeErr := rows.Close(); closeErr != nil {
				retErr = errors.Join(retErr, fmt.Errorf("close schema rows: %w", closeErr))
			}
		}
	}()

	for rows.Next() {
		var cid int
		var name, typ string
		var notnull, pk int
		var dflt *string
		if err := rows.Scan(&cid, &name, &typ, &notnull, &dflt, &pk); err != nil {
			return fmt.Errorf("scan column info: %w", err)
		}
		if name == "context" {
			columnExists = true
			break
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("read column info: %w", err)
	}

	// Close before executing further statements: MaxOpenConns(1) means a
	// second statement on the same *sql.DB would deadlock against open rows.
	if err := rows.Close(); err != nil {
		return fmt.Errorf("close schema rows: %w", err)
	}
	rows = nil

	if !columnExists {
		if _, err := db.Exec(`ALTER TABLE llm_usage ADD COLUMN context TEXT NOT NULL DEFAULT ''`); err != nil {
			return fmt.Errorf("add context column: %w", err)
		}
	}

	return nil
}
