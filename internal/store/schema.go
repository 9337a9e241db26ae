package store

// schemaVersion is recorded in arxitex_schema_version when the schema is
// first applied to an empty database; later opens and migrations leave the
// recorded value unchanged.
const schemaVersion = 1

// schema defines the full SQLite schema for the document store. Every
// statement is idempotent so opening an existing database is a no-op.
const schema = `
CREATE TABLE IF NOT EXISTS arxitex_schema_version (
    version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS papers (
    paper_id TEXT PRIMARY KEY,
    title TEXT NOT NULL DEFAULT '',
    abstract TEXT NOT NULL DEFAULT '',
    comment TEXT NOT NULL DEFAULT '',
    primary_category TEXT NOT NULL DEFAULT '',
    all_categories_json TEXT NOT NULL DEFAULT '[]',
    authors_json TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS paper_ingestion_state (
    paper_id TEXT NOT NULL,
    mode TEXT NOT NULL,
    stage TEXT NOT NULL,
    attempt_count INTEGER NOT NULL DEFAULT 0,
    last_error TEXT,
    updated_at_utc TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now')),
    PRIMARY KEY (paper_id, mode),
    FOREIGN KEY (paper_id) REFERENCES papers(paper_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_state_by_stage ON paper_ingestion_state(stage);

CREATE TABLE IF NOT EXISTS artifacts (
    paper_id TEXT NOT NULL,
    artifact_id TEXT NOT NULL,
    artifact_type TEXT NOT NULL,
    label TEXT NOT NULL DEFAULT '',
    content_tex TEXT NOT NULL DEFAULT '',
    proof_tex TEXT NOT NULL DEFAULT '',
    line_start INTEGER,
    line_end INTEGER,
    col_start INTEGER,
    col_end INTEGER,
    PRIMARY KEY (paper_id, artifact_id),
    FOREIGN KEY (paper_id) REFERENCES papers(paper_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_artifacts_by_paper ON artifacts(paper_id);

-- Edges are not FK'd to artifacts: targets may be external references that
-- never get an artifacts row of their own.
CREATE TABLE IF NOT EXISTS artifact_edges (
    paper_id TEXT NOT NULL,
    edge_kind TEXT NOT NULL,
    source_artifact_id TEXT NOT NULL,
    target_artifact_id TEXT NOT NULL,
    reference_type TEXT,
    dependency_type TEXT,
    context TEXT,
    justification TEXT,
    PRIMARY KEY (paper_id, edge_kind, source_artifact_id, target_artifact_id),
    FOREIGN KEY (paper_id) REFERENCES papers(paper_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_edges_by_paper_source ON artifact_edges(paper_id, source_artifact_id);
CREATE INDEX IF NOT EXISTS idx_edges_by_paper_target ON artifact_edges(paper_id, target_artifact_id);

CREATE TABLE IF NOT EXISTS definitions (
    paper_id TEXT NOT NULL,
    term_canonical TEXT NOT NULL,
    term_original TEXT NOT NULL DEFAULT '',
    definition_text TEXT NOT NULL DEFAULT '',
    is_synthesized INTEGER NOT NULL DEFAULT 0,
    source_artifact_id TEXT,
    PRIMARY KEY (paper_id, term_canonical),
    FOREIGN KEY (paper_id) REFERENCES papers(paper_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_defs_by_paper ON definitions(paper_id);

CREATE TABLE IF NOT EXISTS definition_aliases (
    paper_id TEXT NOT NULL,
    term_canonical TEXT NOT NULL,
    alias TEXT NOT NULL,
    PRIMARY KEY (paper_id, term_canonical, alias),
    FOREIGN KEY (paper_id, term_canonical) REFERENCES definitions(paper_id, term_canonical) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS definition_dependencies (
    paper_id TEXT NOT NULL,
    term_canonical TEXT NOT NULL,
    depends_on_term_canonical TEXT NOT NULL,
    PRIMARY KEY (paper_id, term_canonical, depends_on_term_canonical),
    FOREIGN KEY (paper_id, term_canonical) REFERENCES definitions(paper_id, term_canonical) ON DELETE CASCADE,
    FOREIGN KEY (paper_id, depends_on_term_canonical) REFERENCES definitions(paper_id, term_canonical) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS artifact_terms (
    paper_id TEXT NOT NULL,
    artifact_id TEXT NOT NULL,
    term_canonical TEXT NOT NULL,
    term_raw TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (paper_id, artifact_id, term_canonical),
    FOREIGN KEY (paper_id, artifact_id) REFERENCES artifacts(paper_id, artifact_id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS artifact_definition_requirements (
    paper_id TEXT NOT NULL,
    artifact_id TEXT NOT NULL,
    term_canonical TEXT NOT NULL,
    PRIMARY KEY (paper_id, artifact_id, term_canonical),
    FOREIGN KEY (paper_id, artifact_id) REFERENCES artifacts(paper_id, artifact_id) ON DELETE CASCADE,
    FOREIGN KEY (paper_id, term_canonical) REFERENCES definitions(paper_id, term_canonical) ON DELETE CASCADE
);

-- Append-only token accounting for every oracle call made while ingesting
-- a paper. Not named by the distilled persistence contract but present in
-- the original database layer; kept so usage is auditable per paper/model.
CREATE TABLE IF NOT EXISTS llm_usage (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    created_at_utc TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now')),
    paper_id TEXT,
    mode TEXT NOT NULL DEFAULT '',
    stage TEXT NOT NULL DEFAULT '',
    provider TEXT NOT NULL DEFAULT '',
    model TEXT NOT NULL DEFAULT '',
    prompt_id TEXT NOT NULL DEFAULT '',
    context TEXT NOT NULL DEFAULT '',
    cached INTEGER NOT NULL DEFAULT 0,
    prompt_tokens INTEGER NOT NULL DEFAULT 0,
    completion_tokens INTEGER NOT NULL DEFAULT 0,
    total_tokens INTEGER NOT NULL DEFAULT 0,
    FOREIGN KEY (paper_id) REFERENCES papers(paper_id) ON DELETE SET NULL
);

CREATE INDEX IF NOT EXISTS idx_llm_usage_paper ON llm_usage(paper_id);
CREATE INDEX IF NOT EXISTS idx_llm_usage_model ON llm_usage(model);
CREATE INDEX IF NOT EXISTS idx_llm_usage_created ON llm_usage(created_at_utc);

CREATE TABLE IF NOT EXISTS paper_citations (
    paper_id TEXT PRIMARY KEY,
    source TEXT NOT NULL,
    source_work_id TEXT NOT NULL DEFAULT '',
    citation_count INTEGER NOT NULL DEFAULT 0,
    last_fetched_at_utc TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now')),
    FOREIGN KEY (paper_id) REFERENCES papers(paper_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_paper_citations_count ON paper_citations(citation_count);
CREATE INDEX IF NOT EXISTS idx_paper_citations_fetched ON paper_citations(last_fetched_at_utc);

CREATE TABLE IF NOT EXISTS external_reference_arxiv_matches (
    paper_id TEXT NOT NULL,
    external_artifact_id TEXT NOT NULL,
    matched_arxiv_id TEXT,
    match_method TEXT NOT NULL,
    extracted_title TEXT NOT NULL DEFAULT '',
    extracted_authors_json TEXT NOT NULL DEFAULT '[]',
    matched_title TEXT NOT NULL DEFAULT '',
    matched_authors_json TEXT NOT NULL DEFAULT '[]',
    title_score REAL NOT NULL DEFAULT 0,
    author_overlap REAL NOT NULL DEFAULT 0,
    arxiv_query TEXT NOT NULL DEFAULT '',
    last_matched_at_utc TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now')),
    PRIMARY KEY (paper_id, external_artifact_id),
    FOREIGN KEY (paper_id, external_artifact_id) REFERENCES artifacts(paper_id, artifact_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_extref_matches_arxiv_id ON external_reference_arxiv_matches(matched_arxiv_id);

CREATE TABLE IF NOT EXISTS external_reference_arxiv_search_cache (
    cache_key TEXT PRIMARY KEY,
    matched_arxiv_id TEXT,
    matched_title TEXT NOT NULL DEFAULT '',
    matched_authors_json TEXT NOT NULL DEFAULT '[]',
    title_score REAL NOT NULL DEFAULT 0,
    author_overlap REAL NOT NULL DEFAULT 0,
    arxiv_query TEXT NOT NULL DEFAULT '',
    last_fetched_at_utc TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
);

-- Discovery queue: arXiv ids found by a search query, pending processing.
-- Ported from the discovery index's "insert-or-ignore" dedup idiom.
CREATE TABLE IF NOT EXISTS discovered_papers (
    arxiv_id TEXT PRIMARY KEY,
    metadata_json TEXT NOT NULL,
    discovered_at_utc TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
);

-- Per-query discovery cursor: the (year, month) backfill bucket currently
-- being searched plus the oldest "published" timestamp seen so far, used
-- to build the next submittedDate upper bound.
CREATE TABLE IF NOT EXISTS discovery_query_cursors (
    query_key TEXT PRIMARY KEY,
    backfill_year INTEGER,
    backfill_month INTEGER,
    oldest_published_utc TEXT,
    updated_at_utc TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
);

-- Papers rejected by pre-download heuristics (page count, title keywords)
-- before ever reaching the pipeline.
CREATE TABLE IF NOT EXISTS skipped_papers (
    arxiv_id TEXT PRIMARY KEY,
    reason TEXT NOT NULL,
    skipped_at_utc TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
);
`
