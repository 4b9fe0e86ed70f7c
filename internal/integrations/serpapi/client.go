// Package serpapi fetches web evidence for search-augmented answers via the
// SerpAPI Google engine.
package serpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// NoResultsSummary is the sentinel evidence summary used when a search
// succeeds but returns zero organic results. Zero results is not an error.
const NoResultsSummary = "No relevant search results found."

// EvidenceBundle is the reduced result set used to ground a response.
type EvidenceBundle struct {
	Summary string
	Sources []string
}

// Client issues search requests. Safe for concurrent use.
type Client struct {
	apiKey      string
	baseURL     string
	resultCount int
	httpClient  *http.Client
}

func NewClient(apiKey, baseURL string, resultCount int) *Client {
	return &Client{
		apiKey:      apiKey,
		baseURL:     baseURL,
		resultCount: resultCount,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

type searchResponse struct {
	OrganicResults []struct {
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
		Link    string `json:"link"`
	} `json:"organic_results"`
}

// Search runs one search capped at the configured result count and reduces
// the results to an evidence bundle. Network failure or a non-2xx status is a
// hard error; no retry is attempted here.
func (c *Client) Search(ctx context.Context, query string) (*EvidenceBundle, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("api_key", c.apiKey)
	params.Set("engine", "google")
	params.Set("num", strconv.Itoa(c.resultCount))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("search error: status %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	if len(parsed.OrganicResults) == 0 {
		return &EvidenceBundle{Summary: NoResultsSummary, Sources: []string{}}, nil
	}

	snippets := make([]string, 0, len(parsed.OrganicResults))
	links := make([]string, 0, len(parsed.OrganicResults))
	for _, item := range parsed.OrganicResults {
		links = append(links, item.Link)
		snippets = append(snippets, fmt.Sprintf("%s: %s\n%s", item.Title, item.Snippet, item.Link))
	}

	return &EvidenceBundle{
		Summary: strings.Join(snippets, "\n\n"),
		Sources: links,
	}, nil
}
