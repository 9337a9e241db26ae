package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"arxitex/internal/types"
)

// UpsertPaper inserts or replaces one paper's metadata row.
func UpsertPaper(ctx context.Context, ex execer, p types.Paper) error {
	categories, err := json.Marshal(p.AllCategories)
	if err != nil {
		return err
	}
	authors, err := json.Marshal(p.Authors)
	if err != nil {
		return err
	}

	_, err = ex.ExecContext(ctx, `
		INSERT INTO papers (paper_id, title, abstract, comment, primary_category, all_categories_json, authors_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (paper_id) DO UPDATE SET
			title = excluded.title,
			abstract = excluded.abstract,
			comment = excluded.comment,
			primary_category = excluded.primary_category,
			all_categories_json = excluded.all_categories_json,
			authors_json = excluded.authors_json
	`, p.ArxivID, p.Title, p.Abstract, p.Comment, p.PrimaryCategory, string(categories), string(authors))
	return wrapDBError("upsert paper", err)
}

// GetPaper loads one paper's metadata, returning ErrNotFound if absent.
func (s *Store) GetPaper(ctx context.Context, paperID string) (*types.Paper, error) {
	var p types.Paper
	var categoriesJSON, authorsJSON string
	err := s.db.QueryRowContext(ctx, `
		SELECT paper_id, title, abstract, comment, primary_category, all_categories_json, authors_json
		FROM papers WHERE paper_id = ?
	`, paperID).Scan(&p.ArxivID, &p.Title, &p.Abstract, &p.Comment, &p.PrimaryCategory, &categoriesJSON, &authorsJSON)
	if err != nil {
		return nil, wrapDBErrorf(err, "get paper %s", paperID)
	}
	if err := json.Unmarshal([]byte(categoriesJSON), &p.AllCategories); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(authorsJSON), &p.Authors); err != nil {
		return nil, err
	}
	return &p, nil
}

// execer is satisfied by both *sql.DB and *sql.Tx so write helpers can run
// standalone or as part of a caller-managed transaction.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}
