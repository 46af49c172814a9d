package actions

import (
	"context"
	"fmt"

	"github.com/calyx-systems/deskagent/internal/faq"
)

func registerFAQActions(r *Registry, deps Deps) {
	nResults := deps.FAQResults
	if nResults <= 0 {
		nResults = 3
	}
	r.Register(Action{
		Name:        "semantic_search_faq",
		Description: "Search the FAQ knowledge base for policy and product answers.",
		Params:      []string{"query"},
		Handler: func(ctx context.Context, args map[string]string) (string, error) {
			snippets, err := deps.FAQ.Search(ctx, args["query"], nResults)
			if err != nil {
				return fmt.Sprintf("Error searching FAQ: %v.", err), err
			}
			if len(snippets) == 0 {
				return "No relevant FAQ entries found. Please contact support for assistance.", nil
			}
			return faq.FormatSnippets(snippets), nil
		},
	})
}
