package actions

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/calyx-systems/deskagent/internal/faq"
)

// faqServer records the requested result count and returns one document.
func faqServer(t *testing.T, gotN *int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			NResults int `json:"n_results"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode query: %v", err)
		}
		*gotN = req.NResults
		json.NewEncoder(w).Encode(map[string]any{
			"documents": []string{"Refunds are issued within 5-7 business days."},
			"distances": []float64{0.2},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFAQSearchUsesConfiguredResultCount(t *testing.T) {
	var gotN int
	srv := faqServer(t, &gotN)

	r := NewRegistry()
	registerFAQActions(r, Deps{FAQ: faq.NewClient(srv.URL, "faq"), FAQResults: 5})

	res := r.Invoke(context.Background(), "semantic_search_faq", "refund policy")
	if res.Err {
		t.Fatalf("search failed: %s", res.Text)
	}
	if gotN != 5 {
		t.Errorf("n_results = %d, want 5", gotN)
	}
	if !strings.Contains(res.Text, "[Relevance: High]") {
		t.Errorf("reply = %q", res.Text)
	}
}

func TestFAQSearchDefaultResultCount(t *testing.T) {
	var gotN int
	srv := faqServer(t, &gotN)

	r := NewRegistry()
	registerFAQActions(r, Deps{FAQ: faq.NewClient(srv.URL, "faq")})

	if res := r.Invoke(context.Background(), "semantic_search_faq", "refund policy"); res.Err {
		t.Fatalf("search failed: %s", res.Text)
	}
	if gotN != 3 {
		t.Errorf("n_results = %d, want 3", gotN)
	}
}
