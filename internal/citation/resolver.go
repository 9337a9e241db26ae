// Package citation implements C10, the citation resolver: backfilling total
// citation counts for ingested papers and matching external-reference
// artifacts (bibliography entries that are not themselves arXiv papers in
// the graph) against the arXiv index.
package citation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/semaphore"

	"arxitex/internal/arxivapi"
	"arxitex/internal/arxivid"
	"arxitex/internal/store"
	"arxitex/internal/throttle"
	"arxitex/internal/types"
)

const (
	openAlexSource = "openalex"

	defaultRefreshDays    = 30
	defaultMaxConcurrency = 4
)

// Resolver orchestrates both citation-resolver backfill operations,
// sharing one process-wide throttle across both, per §5.
type Resolver struct {
	store      *store.Store
	arxiv      *arxivapi.Client
	index      *ScholarlyIndexClient
	throttle   *throttle.Limiter
	refreshDays int
	concurrency int64
}

// Option configures a Resolver.
type Option func(*Resolver)

func WithRefreshDays(days int) Option {
	return func(r *Resolver) { r.refreshDays = days }
}

func WithConcurrency(n int) Option {
	return func(r *Resolver) { r.concurrency = int64(n) }
}

// New builds a Resolver. qps is the shared rate limit (requests/second)
// applied to both the arXiv API and the scholarly index.
func New(st *store.Store, arxiv *arxivapi.Client, index *ScholarlyIndexClient, qps float64, opts ...Option) *Resolver {
	r := &Resolver{
		store:       st,
		arxiv:       arxiv,
		index:       index,
		throttle:    throttle.New(qps),
		refreshDays: defaultRefreshDays,
		concurrency: defaultMaxConcurrency,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CitationBackfillStats summarizes one backfill run, mirroring the
// counters tracked by the original tool so operators can see whether a run
// is making progress.
type CitationBackfillStats struct {
	Considered int
	Fetched    int
	Upgraded   int // went from zero citations to a positive count
	Failed     int
}

// BackfillCitations refetches total-citation counts for papers whose
// record is missing or older than refreshDays, up to maxPapers (0 means
// unbounded).
func (r *Resolver) BackfillCitations(ctx context.Context, maxPapers int) (CitationBackfillStats, error) {
	var stats CitationBackfillStats

	cutoff := time.Now().UTC().AddDate(0, 0, -r.refreshDays).Format(time.RFC3339)
	paperIDs, err := r.store.StaleCitationPaperIDs(ctx, cutoff)
	if err != nil {
		return stats, fmt.Errorf("list stale citation papers: %w", err)
	}
	if maxPapers > 0 && len(paperIDs) > maxPapers {
		paperIDs = paperIDs[:maxPapers]
	}
	stats.Considered = len(paperIDs)

	sem := semaphore.NewWeighted(r.concurrency)
	type result struct {
		upgraded bool
		failed   bool
	}
	results := make(chan result, len(paperIDs))

	for _, paperID := range paperIDs {
		if err := sem.Acquire(ctx, 1); err != nil {
			return stats, err
		}
		go func(paperID string) {
			defer sem.Release(1)
			upgraded, err := r.backfillOnePaperCitations(ctx, paperID)
			results <- result{upgraded: upgraded, failed: err != nil}
		}(paperID)
	}

	for range paperIDs {
		res := <-results
		if res.failed {
			stats.Failed++
			continue
		}
		stats.Fetched++
		if res.upgraded {
			stats.Upgraded++
		}
	}

	return stats, nil
}

func (r *Resolver) backfillOnePaperCitations(ctx context.Context, paperID string) (upgraded bool, err error) {
	paper, err := r.store.GetPaper(ctx, paperID)
	if err != nil {
		return false, err
	}

	prior, err := r.store.GetCitationRecord(ctx, paperID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return false, err
	}
	priorCount := 0
	if prior != nil {
		priorCount = prior.CitationCount
	}

	if err := r.throttle.Wait(ctx); err != nil {
		return false, err
	}

	works, err := r.index.Search(ctx, paper.Title)
	if err != nil {
		return false, err
	}

	best, ok := bestOpenAlexWork(paper.Title, paper.Authors, works)
	rec := types.CitationRecord{PaperID: paperID, Source: openAlexSource}
	if ok {
		rec.SourceWorkID = best.ID
		rec.CitationCount = best.CitedByCount
	}

	if err := r.store.UpsertCitationRecord(ctx, rec); err != nil {
		return false, err
	}

	return priorCount == 0 && rec.CitationCount > 0, nil
}

// bestOpenAlexWork implements the OpenAlex backfill's own candidate
// selection: filter by title/author confidence when a title is known, then
// pick the highest citation count among survivors. If no title is given at
// all, fall back to the unfiltered candidate list.
func bestOpenAlexWork(wantedTitle string, wantedAuthors []string, candidates []Work) (Work, bool) {
	if wantedTitle == "" {
		return maxByCitations(candidates)
	}

	haveAuthors := len(wantedAuthors) > 0
	var filtered []Work
	for _, w := range candidates {
		ts := titleSimilarity(wantedTitle, w.Title)
		ao := fullNameAuthorOverlap(wantedAuthors, w.AuthorNames)
		if !isHighConfidenceMatch(ts, ao, haveAuthors) {
			continue
		}
		filtered = append(filtered, w)
	}
	return maxByCitations(filtered)
}

func maxByCitations(candidates []Work) (Work, bool) {
	if len(candidates) == 0 {
		return Work{}, false
	}
	best := candidates[0]
	for _, w := range candidates[1:] {
		if w.CitedByCount > best.CitedByCount {
			best = w
		}
	}
	return best, true
}

// fullNameAuthorOverlap compares by full normalized name, which is how the
// OpenAlex total-citations backfill scores author overlap (distinct from
// the external-reference matcher below, which compares by last name only
// because bibliographies abbreviate given names).
func fullNameAuthorOverlap(wanted, got []string) float64 {
	if len(wanted) == 0 || len(got) == 0 {
		return 0
	}
	w := normalizedNameSet(wanted)
	g := normalizedNameSet(got)
	matches := 0
	for n := range w {
		if g[n] {
			matches++
		}
	}
	return float64(matches) / float64(len(w))
}

func normalizedNameSet(authors []string) map[string]bool {
	set := make(map[string]bool, len(authors))
	for _, a := range authors {
		if n := normalizeAuthor(a); n != "" {
			set[n] = true
		}
	}
	return set
}

// ExternalReferenceInput is one bibliography entry to resolve.
type ExternalReferenceInput struct {
	PaperID            string
	ExternalArtifactID string
	RawText            string
}

// BackfillExternalReferenceMatches resolves a batch of external-reference
// artifacts against the arXiv index, writing one ExternalReferenceMatch
// per input (including misses) and reusing cached search results across
// papers that cite the same external work.
func (r *Resolver) BackfillExternalReferenceMatches(ctx context.Context, refs []ExternalReferenceInput) (CitationBackfillStats, error) {
	var stats CitationBackfillStats
	stats.Considered = len(refs)

	sem := semaphore.NewWeighted(r.concurrency)
	errc := make(chan error, len(refs))

	for _, ref := range refs {
		if err := sem.Acquire(ctx, 1); err != nil {
			return stats, err
		}
		go func(ref ExternalReferenceInput) {
			defer sem.Release(1)
			errc <- r.matchOneExternalReference(ctx, ref)
		}(ref)
	}

	for range refs {
		if err := <-errc; err != nil {
			stats.Failed++
			continue
		}
		stats.Fetched++
	}

	return stats, nil
}

func (r *Resolver) matchOneExternalReference(ctx context.Context, ref ExternalReferenceInput) error {
	match := types.ExternalReferenceMatch{
		PaperID:            ref.PaperID,
		ExternalArtifactID: ref.ExternalArtifactID,
		MatchMethod:        types.MatchNone,
	}

	if id := tryExtractArxivIDFromText(ref.RawText); id != "" {
		match.MatchedArxivID = arxivid.BaseID(id)
		match.MatchMethod = types.MatchDirectRegex
		return r.store.UpsertExternalReferenceMatch(ctx, match)
	}

	title, authors := extractTitleAndAuthors(ref.RawText)
	match.ExtractedTitle = title
	match.ExtractedAuthors = authors
	if title == "" {
		return r.store.UpsertExternalReferenceMatch(ctx, match)
	}

	cacheKey := referenceCacheKey(title, authors)
	if cached, err := r.store.GetExternalReferenceSearchCache(ctx, cacheKey); err == nil {
		if !searchCacheStale(cached.LastFetchedAtUTC, r.refreshDays) {
			match.MatchedArxivID = cached.MatchedArxivID
			match.MatchedTitle = cached.MatchedTitle
			match.MatchedAuthors = cached.MatchedAuthors
			match.TitleScore = cached.TitleScore
			match.AuthorOverlap = cached.AuthorOverlap
			match.ArxivQuery = cached.ArxivQuery
			if cached.MatchedArxivID != "" {
				match.MatchMethod = types.MatchSearch
			}
			return r.store.UpsertExternalReferenceMatch(ctx, match)
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	query := buildArxivQuery(title, authors)
	match.ArxivQuery = query

	if err := r.throttle.Wait(ctx); err != nil {
		return err
	}

	result, err := r.arxiv.Search(ctx, query, 0, 10)
	if err != nil {
		return err
	}

	haveAuthors := len(authors) > 0
	var bestEntry arxivapi.Entry
	bestTS, bestAO := -1.0, 0.0
	found := false
	for _, e := range result.Entries {
		ts := titleSimilarity(title, e.Title)
		ao := authorOverlap(authors, e.Authors)
		score := ts + 0.1*ao
		bestScore := bestTS + 0.1*bestAO
		if !found || score > bestScore {
			bestEntry, bestTS, bestAO, found = e, ts, ao, true
		}
	}

	cacheEntry := store.ExternalReferenceSearchCacheEntry{CacheKey: cacheKey, ArxivQuery: query}

	if found && isHighConfidenceMatch(bestTS, bestAO, haveAuthors) {
		match.MatchedArxivID = arxivid.BaseID(bestEntry.ArxivID)
		match.MatchedTitle = bestEntry.Title
		match.MatchedAuthors = bestEntry.Authors
		match.TitleScore = bestTS
		match.AuthorOverlap = bestAO
		match.MatchMethod = types.MatchSearch

		cacheEntry.MatchedArxivID = match.MatchedArxivID
		cacheEntry.MatchedTitle = match.MatchedTitle
		cacheEntry.MatchedAuthors = match.MatchedAuthors
		cacheEntry.TitleScore = bestTS
		cacheEntry.AuthorOverlap = bestAO
	} else if found {
		// Record the attempted match even though it failed the
		// confidence gate, so the cache reflects a deliberate miss.
		match.TitleScore = bestTS
		match.AuthorOverlap = bestAO
		cacheEntry.TitleScore = bestTS
		cacheEntry.AuthorOverlap = bestAO
	}

	if err := r.store.PutExternalReferenceSearchCache(ctx, cacheEntry); err != nil {
		return err
	}

	return r.store.UpsertExternalReferenceMatch(ctx, match)
}

func buildArxivQuery(title string, authors []string) string {
	query := fmt.Sprintf(`ti:"%s"`, title)
	if len(authors) > 0 {
		if ln := lastName(authors[0]); ln != "" {
			query += " AND au:" + ln
		}
	}
	return query
}

func searchCacheStale(lastFetchedAtUTC string, refreshDays int) bool {
	t, err := time.Parse(time.RFC3339, lastFetchedAtUTC)
	if err != nil {
		return true
	}
	return time.Since(t) > time.Duration(refreshDays)*24*time.Hour
}

// referenceCacheKey mirrors the original tool's cache key: a SHA-256 hash
// of the normalized title plus sorted normalized author names, so that two
// differently-formatted citations to the same work share one cache entry.
func referenceCacheKey(title string, authors []string) string {
	normAuthors := make([]string, 0, len(authors))
	for _, a := range authors {
		if n := normalizeAuthor(a); n != "" {
			normAuthors = append(normAuthors, n)
		}
	}
	sort.Strings(normAuthors)

	payload := struct {
		Title   string   `json:"title"`
		Authors []string `json:"authors"`
	}{
		Title:   normalizeTitle(title),
		Authors: normAuthors,
	}
	b, err := json.Marshal(payload)
	if err != nil {
		// json.Marshal on this struct cannot fail; fall back defensively.
		b = []byte(payload.Title)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
