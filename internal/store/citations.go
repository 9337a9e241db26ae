package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"arxitex/internal/types"
)

// UpsertCitationRecord stores the total-citations backfill result for a
// paper, replacing any prior record.
func (s *Store) UpsertCitationRecord(ctx context.Context, rec types.CitationRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO paper_citations (paper_id, source, source_work_id, citation_count, last_fetched_at_utc)
		VALUES (?, ?, ?, ?, strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
		ON CONFLICT (paper_id) DO UPDATE SET
			source = excluded.source,
			source_work_id = excluded.source_work_id,
			citation_count = excluded.citation_count,
			last_fetched_at_utc = excluded.last_fetched_at_utc
	`, rec.PaperID, rec.Source, rec.SourceWorkID, rec.CitationCount)
	return wrapDBErrorf(err, "upsert citation record %s", rec.PaperID)
}

// GetCitationRecord loads the stored citation backfill result, or
// ErrNotFound if the paper has never been fetched.
func (s *Store) GetCitationRecord(ctx context.Context, paperID string) (*types.CitationRecord, error) {
	var rec types.CitationRecord
	err := s.db.QueryRowContext(ctx, `
		SELECT paper_id, source, source_work_id, citation_count, last_fetched_at_utc
		FROM paper_citations WHERE paper_id = ?
	`, paperID).Scan(&rec.PaperID, &rec.Source, &rec.SourceWorkID, &rec.CitationCount, &rec.LastFetchedAtUTC)
	if err != nil {
		return nil, wrapDBErrorf(err, "get citation record %s", paperID)
	}
	return &rec, nil
}

// StaleCitationPaperIDs returns paper ids whose last_fetched_at_utc is
// older than cutoffUTC (RFC3339-ish sortable string), or that have never
// been fetched at all, for the citation resolver's TTL-gated refetch.
func (s *Store) StaleCitationPaperIDs(ctx context.Context, cutoffUTC string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.paper_id FROM papers p
		LEFT JOIN paper_citations c ON c.paper_id = p.paper_id
		WHERE c.paper_id IS NULL OR c.last_fetched_at_utc < ?
		ORDER BY p.paper_id
	`, cutoffUTC)
	if err != nil {
		return nil, wrapDBError("list stale citation papers", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, wrapDBError("scan stale citation row", err)
		}
		ids = append(ids, id)
	}
	return ids, wrapDBError("iterate stale citation rows", rows.Err())
}

// UpsertExternalReferenceMatch persists the outcome of matching one
// external-reference artifact to the arXiv index, including a miss
// (MatchedArxivID empty, MatchMethod none).
func (s *Store) UpsertExternalReferenceMatch(ctx context.Context, m types.ExternalReferenceMatch) error {
	extractedAuthors, err := json.Marshal(m.ExtractedAuthors)
	if err != nil {
		return err
	}
	matchedAuthors, err := json.Marshal(m.MatchedAuthors)
	if err != nil {
		return err
	}

	var matchedArxivID *string
	if m.MatchedArxivID != "" {
		matchedArxivID = &m.MatchedArxivID
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO external_reference_arxiv_matches
			(paper_id, external_artifact_id, matched_arxiv_id, match_method, extracted_title, extracted_authors_json,
			 matched_title, matched_authors_json, title_score, author_overlap, arxiv_query, last_matched_at_utc)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
		ON CONFLICT (paper_id, external_artifact_id) DO UPDATE SET
			matched_arxiv_id = excluded.matched_arxiv_id,
			match_method = excluded.match_method,
			extracted_title = excluded.extracted_title,
			extracted_authors_json = excluded.extracted_authors_json,
			matched_title = excluded.matched_title,
			matched_authors_json = excluded.matched_authors_json,
			title_score = excluded.title_score,
			author_overlap = excluded.author_overlap,
			arxiv_query = excluded.arxiv_query,
			last_matched_at_utc = excluded.last_matched_at_utc
	`, m.PaperID, m.ExternalArtifactID, matchedArxivID, string(m.MatchMethod), m.ExtractedTitle, string(extractedAuthors),
		m.MatchedTitle, string(matchedAuthors), m.TitleScore, m.AuthorOverlap, m.ArxivQuery)
	return wrapDBErrorf(err, "upsert external reference match %s/%s", m.PaperID, m.ExternalArtifactID)
}

// ExternalReferenceSearchCacheEntry is one cached arXiv-search lookup,
// keyed by a canonical hash of (title, authors) so repeated references to
// the same external work across papers reuse one query.
type ExternalReferenceSearchCacheEntry struct {
	CacheKey         string
	MatchedArxivID   string
	MatchedTitle     string
	MatchedAuthors   []string
	TitleScore       float64
	AuthorOverlap    float64
	ArxivQuery       string
	LastFetchedAtUTC string
}

func (s *Store) GetExternalReferenceSearchCache(ctx context.Context, cacheKey string) (*ExternalReferenceSearchCacheEntry, error) {
	var e ExternalReferenceSearchCacheEntry
	var matchedArxivID sql.NullString
	var authorsJSON string
	err := s.db.QueryRowContext(ctx, `
		SELECT cache_key, matched_arxiv_id, matched_title, matched_authors_json, title_score, author_overlap, arxiv_query, last_fetched_at_utc
		FROM external_reference_arxiv_search_cache WHERE cache_key = ?
	`, cacheKey).Scan(&e.CacheKey, &matchedArxivID, &e.MatchedTitle, &authorsJSON, &e.TitleScore, &e.AuthorOverlap, &e.ArxivQuery, &e.LastFetchedAtUTC)
	if err != nil {
		return nil, wrapDBErrorf(err, "get search cache %s", cacheKey)
	}
	e.MatchedArxivID = matchedArxivID.String
	if err := json.Unmarshal([]byte(authorsJSON), &e.MatchedAuthors); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Store) PutExternalReferenceSearchCache(ctx context.Context, e ExternalReferenceSearchCacheEntry) error {
	authors, err := json.Marshal(e.MatchedAuthors)
	if err != nil {
		return err
	}
	var matchedArxivID *string
	if e.MatchedArxivID != "" {
		matchedArxivID = &e.MatchedArxivID
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO external_reference_arxiv_search_cache
			(cache_key, matched_arxiv_id, matched_title, matched_authors_json, title_score, author_overlap, arxiv_query, last_fetched_at_utc)
		VALUES (?, ?, ?, ?, ?, ?, ?, strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
		ON CONFLICT (cache_key) DO UPDATE SET
			matched_arxiv_id = excluded.matched_arxiv_id,
			matched_title = excluded.matched_title,
			matched_authors_json = excluded.matched_authors_json,
			title_score = excluded.title_score,
			author_overlap = excluded.author_overlap,
			arxiv_query = excluded.arxiv_query,
			last_fetched_at_utc = excluded.last_fetched_at_utc
	`, e.CacheKey, matchedArxivID, e.MatchedTitle, string(authors), e.TitleScore, e.AuthorOverlap, e.ArxivQuery)
	return wrapDBErrorf(err, "put search cache %s", e.CacheKey)
}
