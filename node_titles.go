package tradegraph

import (
	"context"
	"fmt"

	"github.com/wkumagai/TradeGraph-sub001/openalex"
	"github.com/wkumagai/TradeGraph-sub001/papers"
)

// FetchTitlesNode loads the static paper indexes, keeps poster papers
// matching the generated queries, and records their titles.
//
// Prerequisites: state["queries"]
// Updates: state["paper_titles"]
func FetchTitlesNode(fetcher *papers.Fetcher, indexURLs []string) NodeFunc {
	return func(ctx context.Context, state State) (State, error) {
		queries, ok := state.Strings("queries")
		if !ok {
			return nil, fmt.Errorf("fetch titles: %w: queries", ErrMissingStateKey)
		}

		titles, err := fetcher.TitlesFromIndexes(ctx, indexURLs, queries)
		if err != nil {
			return nil, fmt.Errorf("fetch titles: %w", err)
		}

		state["paper_titles"] = titles
		return state, nil
	}
}

// OpenAlexTitlesNode searches OpenAlex once per generated query and
// appends the hits to the collected titles, preserving query order and
// skipping titles already present.
//
// Prerequisites: state["queries"]
// Updates: state["paper_titles"]
func OpenAlexTitlesNode(client *openalex.Client, year string, perQuery int) NodeFunc {
	return func(ctx context.Context, state State) (State, error) {
		queries, ok := state.Strings("queries")
		if !ok {
			return nil, fmt.Errorf("openalex titles: %w: queries", ErrMissingStateKey)
		}

		titles, _ := state.Strings("paper_titles")
		seen := make(map[string]bool, len(titles))
		for _, t := range titles {
			seen[t] = true
		}

		for _, q := range queries {
			found, err := client.SearchTitles(ctx, openalex.SearchOptions{Query: q, Year: year}, perQuery)
			if err != nil {
				return nil, fmt.Errorf("openalex titles: query %q: %w", q, err)
			}
			for _, t := range found {
				if !seen[t] {
					seen[t] = true
					titles = append(titles, t)
				}
			}
		}

		state["paper_titles"] = titles
		return state, nil
	}
}
