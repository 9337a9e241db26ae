package workflow

import (
	"context"
	"fmt"
	"time"

	"arxitex/internal/arxivapi"
	"arxitex/internal/store"
)

const discoveryPageSize = 50

// DiscoveryStats summarizes one discovery run.
type DiscoveryStats struct {
	Considered int
	Added      int
}

// RunDiscovery queries the arXiv search API for query, paginating until
// targetCount new papers have been queued or the feed is exhausted, and
// inserts matches into the discovery queue. The query's backfill cursor
// (the oldest "published" timestamp seen so far, and the (year, month)
// bucket it falls in) is persisted so the next run picks up strictly
// older papers instead of re-walking ones already queued.
func RunDiscovery(ctx context.Context, arxiv *arxivapi.Client, st *store.Store, queryKey, searchQuery string, targetCount int) (DiscoveryStats, error) {
	var stats DiscoveryStats

	cursor, err := st.GetDiscoveryCursor(ctx, queryKey)
	if err != nil {
		return stats, fmt.Errorf("load discovery cursor: %w", err)
	}
	if cursor == nil {
		now := time.Now().UTC()
		cursor = &store.DiscoveryCursor{QueryKey: queryKey, BackfillYear: now.Year(), BackfillMonth: int(now.Month())}
	}

	effectiveQuery := searchQuery
	if cursor.OldestPublishedUTC != "" {
		effectiveQuery = fmt.Sprintf("%s AND submittedDate:[000000000000 TO %s]", searchQuery, arxivTimestamp(cursor.OldestPublishedUTC))
	}

	start := 0
	oldestSeen := cursor.OldestPublishedUTC

	for stats.Added < targetCount {
		result, err := arxiv.Search(ctx, effectiveQuery, start, discoveryPageSize)
		if err != nil {
			return stats, err
		}
		if len(result.Entries) == 0 {
			break
		}
		stats.Considered += len(result.Entries)

		var batch []store.DiscoveredPaper
		for _, e := range result.Entries {
			if oldestSeen == "" || e.Published < oldestSeen {
				oldestSeen = e.Published
			}
			batch = append(batch, store.DiscoveredPaper{
				ArxivID: e.ArxivID,
				Metadata: map[string]any{
					"title":            e.Title,
					"abstract":         e.Abstract,
					"authors":          e.Authors,
					"comment":          e.Comment,
					"primary_category": e.PrimaryCategory,
					"categories":       e.Categories,
					"published":        e.Published,
				},
			})
		}

		added, err := st.AddDiscoveredPapers(ctx, batch)
		if err != nil {
			return stats, fmt.Errorf("add discovered papers: %w", err)
		}
		stats.Added += added

		if len(result.Entries) < discoveryPageSize {
			// Exhausted this bucket: step the backfill marker back one
			// month, per the (year, month) backfill contract.
			cursor.BackfillMonth--
			if cursor.BackfillMonth < 1 {
				cursor.BackfillMonth = 12
				cursor.BackfillYear--
			}
			break
		}
		start += discoveryPageSize
	}

	cursor.OldestPublishedUTC = oldestSeen
	if err := st.PutDiscoveryCursor(ctx, *cursor); err != nil {
		return stats, fmt.Errorf("save discovery cursor: %w", err)
	}

	return stats, nil
}

// arxivTimestamp converts an Atom "published" RFC3339 timestamp into the
// YYYYMMDDHHMM form the arXiv submittedDate range filter expects.
func arxivTimestamp(published string) string {
	t, err := time.Parse(time.RFC3339, published)
	if err != nil {
		return "999912312359"
	}
	return t.UTC().Format("200601021504")
}
