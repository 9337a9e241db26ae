package citation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"arxitex/internal/classify"
	"arxitex/internal/types"
)

// Work is one candidate result from the external scholarly index.
type Work struct {
	ID            string
	Title         string
	CitedByCount  int
	AuthorNames   []string
}

// ScholarlyIndexClient searches the external scholarly index (OpenAlex's
// works search) by title.
type ScholarlyIndexClient struct {
	baseURL    string
	httpClient *http.Client
	mailto     string
}

// NewScholarlyIndexClient creates a client. mailto, if set, is included on
// every request per the index's "polite pool" convention.
func NewScholarlyIndexClient(mailto string) *ScholarlyIndexClient {
	return &ScholarlyIndexClient{
		baseURL:    "https://api.openalex.org/works",
		httpClient: &http.Client{Timeout: 30 * time.Second},
		mailto:     mailto,
	}
}

// Search queries the index by title, returning up to 25 candidates.
// HTTP 429 is retried with exponential backoff capped at 120s; 400 and
// other client errors are not retried.
func (c *ScholarlyIndexClient) Search(ctx context.Context, title string) ([]Work, error) {
	params := url.Values{"search": {title}, "per-page": {"25"}}
	if c.mailto != "" {
		params.Set("mailto", c.mailto)
	}
	reqURL := c.baseURL + "?" + params.Encode()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 5 * time.Second
	bo.MaxInterval = 120 * time.Second
	bo.MaxElapsedTime = 5 * time.Minute

	var body []byte
	err := backoff.Retry(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return fmt.Errorf("scholarly index rate limited")
		case resp.StatusCode == http.StatusBadRequest:
			return backoff.Permanent(fmt.Errorf("scholarly index rejected query: %s", title))
		case resp.StatusCode >= 500:
			return fmt.Errorf("scholarly index returned %d", resp.StatusCode)
		case resp.StatusCode != http.StatusOK:
			return backoff.Permanent(fmt.Errorf("scholarly index returned %d", resp.StatusCode))
		}

		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		body = b
		return nil
	}, backoff.WithContext(bo, ctx))

	if err != nil {
		return nil, classify.Wrap(classify.UnexpectedError, types.StageUnknown, "scholarly index search failed", err)
	}

	return parseWorksResponse(body)
}

type worksResponse struct {
	Results []workJSON `json:"results"`
}

type workJSON struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	CitedByCount   int             `json:"cited_by_count"`
	Authorships    []authorshipJSON `json:"authorships"`
}

type authorshipJSON struct {
	Author authorJSON `json:"author"`
}

type authorJSON struct {
	DisplayName string `json:"display_name"`
}

func parseWorksResponse(body []byte) ([]Work, error) {
	var resp worksResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse scholarly index response: %w", err)
	}

	works := make([]Work, 0, len(resp.Results))
	for _, r := range resp.Results {
		w := Work{ID: r.ID, Title: r.Title, CitedByCount: r.CitedByCount}
		for _, a := range r.Authorships {
			if name := strings.TrimSpace(a.Author.DisplayName); name != "" {
				w.AuthorNames = append(w.AuthorNames, name)
			}
		}
		works = append(works, w)
	}
	return works, nil
}
