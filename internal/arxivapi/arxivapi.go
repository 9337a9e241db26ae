// Package arxivapi queries the arXiv search API and parses its Atom/
// OpenSearch XML response into paper metadata.
package arxivapi

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"arxitex/internal/arxivid"
	"arxitex/internal/classify"
	"arxitex/internal/types"
)

const defaultBaseURL = "http://export.arxiv.org/api/query"

// Client talks to the arXiv search API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	maxRetries int
}

// New creates a client with a connect/read timeout, matching §5's
// requirement that every outbound call carries one.
func New() *Client {
	return &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		userAgent:  "arxitex/1.0 (academic research)",
		maxRetries: 3,
	}
}

// Entry is one parsed Atom feed entry.
type Entry struct {
	ArxivID         string
	Title           string
	Abstract        string
	Authors         []string
	Published       string
	PrimaryCategory string
	Comment         string
	Categories      []string
}

// SearchResult is one page of a search query.
type SearchResult struct {
	TotalResults int
	Entries      []Entry
}

// Search queries search_query with pagination (start, maxResults) sorted
// by submittedDate descending, the order the discovery workflow relies on
// for its cursor to make sense.
func (c *Client) Search(ctx context.Context, searchQuery string, start, maxResults int) (*SearchResult, error) {
	params := url.Values{
		"search_query": {searchQuery},
		"start":        {strconv.Itoa(start)},
		"max_results":  {strconv.Itoa(maxResults)},
		"sortBy":       {"submittedDate"},
		"sortOrder":    {"descending"},
	}

	body, err := c.getWithRetry(ctx, params)
	if err != nil {
		return nil, classify.Wrap(classify.SourceDownloadFailed, types.StageDownload, "arxiv search request failed", err)
	}

	return parseFeed(body)
}

func (c *Client) getWithRetry(ctx context.Context, params url.Values) ([]byte, error) {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = time.Duration(c.maxRetries) * 10 * time.Second

	var body []byte
	attempts := 0
	err := backoff.Retry(func() error {
		attempts++
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", c.userAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if attempts >= c.maxRetries {
				return backoff.Permanent(err)
			}
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 && attempts < c.maxRetries {
			return fmt.Errorf("arxiv api returned %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("arxiv api returned %d", resp.StatusCode))
		}

		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return backoff.Permanent(err)
		}
		body = b
		return nil
	}, backoff.WithContext(bo, ctx))

	return body, err
}

// Atom/OpenSearch XML shapes, unexported: callers only ever see Entry/SearchResult.

type atomFeed struct {
	XMLName      xml.Name    `xml:"feed"`
	TotalResults int         `xml:"http://a9.com/-/spec/opensearch/1.1/ totalResults"`
	Entries      []atomEntry `xml:"http://www.w3.org/2005/Atom entry"`
}

type atomEntry struct {
	ID              string         `xml:"http://www.w3.org/2005/Atom id"`
	Title           string         `xml:"http://www.w3.org/2005/Atom title"`
	Summary         string         `xml:"http://www.w3.org/2005/Atom summary"`
	Published       string         `xml:"http://www.w3.org/2005/Atom published"`
	Authors         []atomAuthor   `xml:"http://www.w3.org/2005/Atom author"`
	Categories      []atomCategory `xml:"http://www.w3.org/2005/Atom category"`
	PrimaryCategory atomCategory   `xml:"http://arxiv.org/schemas/atom primary_category"`
	Comment         string         `xml:"http://arxiv.org/schemas/atom comment"`
}

type atomAuthor struct {
	Name string `xml:"http://www.w3.org/2005/Atom name"`
}

type atomCategory struct {
	Term string `xml:"term,attr"`
}

func parseFeed(body []byte) (*SearchResult, error) {
	var feed atomFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, classify.Wrap(classify.SourceDownloadFailed, types.StageDownload, "arxiv feed xml parse failed", err)
	}

	result := &SearchResult{TotalResults: feed.TotalResults}
	for _, e := range feed.Entries {
		entry := Entry{
			ArxivID:         arxivid.FromEntryID(strings.TrimSpace(e.ID)),
			Title:           normalizeWhitespace(e.Title),
			Abstract:        normalizeWhitespace(e.Summary),
			Published:       strings.TrimSpace(e.Published),
			PrimaryCategory: e.PrimaryCategory.Term,
			Comment:         normalizeWhitespace(e.Comment),
		}
		for _, a := range e.Authors {
			name := strings.TrimSpace(a.Name)
			if name != "" {
				entry.Authors = append(entry.Authors, name)
			}
		}
		for _, c := range e.Categories {
			if c.Term != "" {
				entry.Categories = append(entry.Categories, c.Term)
			}
		}
		if entry.ArxivID == "" {
			continue
		}
		result.Entries = append(result.Entries, entry)
	}

	return result, nil
}

func normalizeWhitespace(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
}
