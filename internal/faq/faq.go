// Package faq queries the semantic document search service for
// knowledge-base snippets. Results are injected into reasoning context
// only; they are never a control signal.
package faq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/calyx-systems/deskagent/internal/httpkit"
)

// Snippet is one ranked search result. Distance is a similarity
// distance; smaller is closer.
type Snippet struct {
	Text     string  `json:"text"`
	Distance float64 `json:"distance"`
}

// Client talks to the document search service.
type Client struct {
	baseURL    string
	collection string
	httpClient *http.Client
}

// NewClient creates a search client for the given service and
// collection.
func NewClient(baseURL, collection string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		httpClient: httpkit.NewClient(),
	}
}

// queryRequest is the search request payload.
type queryRequest struct {
	Collection string `json:"collection"`
	Query      string `json:"query"`
	NResults   int    `json:"n_results"`
}

// queryResponse is the search response payload.
type queryResponse struct {
	Documents []string  `json:"documents"`
	Distances []float64 `json:"distances"`
}

// Search runs a free-text query and returns up to n ranked snippets.
func (c *Client) Search(ctx context.Context, query string, n int) ([]Snippet, error) {
	if n <= 0 {
		n = 5
	}

	body, err := json.Marshal(queryRequest{
		Collection: c.collection,
		Query:      query,
		NResults:   n,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/query", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search error %d: %s", resp.StatusCode, httpkit.ReadErrorBody(resp.Body, 2048))
	}

	var qr queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&qr); err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}

	snippets := make([]Snippet, 0, len(qr.Documents))
	for i, doc := range qr.Documents {
		sn := Snippet{Text: doc}
		if i < len(qr.Distances) {
			sn.Distance = qr.Distances[i]
		}
		snippets = append(snippets, sn)
	}
	return snippets, nil
}

// FormatSnippets renders snippets as a numbered, relevance-labeled
// block for prompt injection and FAQ replies. Returns a fallback line
// when there are no results.
func FormatSnippets(snippets []Snippet) string {
	if len(snippets) == 0 {
		return "No relevant documentation found."
	}

	var b strings.Builder
	for i, sn := range snippets {
		fmt.Fprintf(&b, "%d. [Relevance: %s]\n%s\n\n", i+1, relevance(sn.Distance), strings.TrimSpace(sn.Text))
	}
	return strings.TrimRight(b.String(), "\n")
}

// relevance buckets a similarity distance into a coarse label.
func relevance(distance float64) string {
	switch {
	case distance < 0.5:
		return "High"
	case distance < 1.0:
		return "Medium"
	default:
		return "Low"
	}
}
