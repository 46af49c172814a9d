package faq

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/query" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req queryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req.Collection != "faq_collection" || req.Query != "refund policy" || req.NResults != 2 {
			t.Errorf("request = %+v", req)
		}
		json.NewEncoder(w).Encode(queryResponse{
			Documents: []string{"Refunds are issued within 5-7 business days.", "Orders over the limit need manual review."},
			Distances: []float64{0.12, 0.34},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "faq_collection")
	snippets, err := c.Search(context.Background(), "refund policy", 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(snippets) != 2 {
		t.Fatalf("got %d snippets", len(snippets))
	}
	if snippets[0].Distance != 0.12 {
		t.Errorf("distance = %v", snippets[0].Distance)
	}
}

func TestSearchServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "collection missing", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "faq_collection")
	if _, err := c.Search(context.Background(), "anything", 3); err == nil {
		t.Error("expected error for non-200 response")
	}
}

func TestFormatSnippets(t *testing.T) {
	out := FormatSnippets([]Snippet{
		{Text: "First answer.", Distance: 0.2},
		{Text: "  Second answer.  ", Distance: 0.8},
		{Text: "Third answer.", Distance: 1.4},
	})
	if !strings.Contains(out, "1. [Relevance: High]\nFirst answer.") {
		t.Errorf("formatted = %q", out)
	}
	if !strings.Contains(out, "2. [Relevance: Medium]\nSecond answer.") {
		t.Errorf("whitespace not trimmed or relevance wrong: %q", out)
	}
	if !strings.Contains(out, "3. [Relevance: Low]\nThird answer.") {
		t.Errorf("formatted = %q", out)
	}
	if strings.HasSuffix(out, "\n") {
		t.Errorf("trailing newline: %q", out)
	}

	if got := FormatSnippets(nil); got != "No relevant documentation found." {
		t.Errorf("empty format = %q", got)
	}
}
