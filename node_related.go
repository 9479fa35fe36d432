package tradegraph

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/wkumagai/TradeGraph-sub001/arxiv"
	"github.com/wkumagai/TradeGraph-sub001/prompt"
	"github.com/wkumagai/TradeGraph-sub001/scholar"
)

// Searcher produces web-search grounded answers. *llm.Facade satisfies
// it.
type Searcher interface {
	WebSearch(ctx context.Context, message string) (string, float64, error)
}

// WebSearchTitlesNode asks the search-capable model for paper titles
// matching each generated query and appends the new ones to the
// collected titles. A query whose response cannot be parsed is logged
// and skipped.
//
// Prerequisites: state["queries"]
// Updates: state["paper_titles"], state["total_cost"]
func WebSearchTitlesNode(searcher Searcher, loader *prompt.Loader, venues []string, maxResults int) NodeFunc {
	if maxResults <= 0 {
		maxResults = 5
	}
	return func(ctx context.Context, state State) (State, error) {
		queries, ok := state.Strings("queries")
		if !ok {
			return nil, fmt.Errorf("web search titles: %w: queries", ErrMissingStateKey)
		}

		titles, _ := state.Strings("paper_titles")
		seen := make(map[string]bool, len(titles))
		for _, t := range titles {
			seen[t] = true
		}

		for _, q := range queries {
			message, err := loader.LoadWithVars("websearch-titles", map[string]any{
				"Query":      q,
				"Venues":     venues,
				"MaxResults": maxResults,
			})
			if err != nil {
				return nil, fmt.Errorf("web search titles: %w", err)
			}

			raw, cost, err := searcher.WebSearch(ctx, message)
			if err != nil {
				if ctx.Err() != nil {
					return nil, fmt.Errorf("web search titles: %w", err)
				}
				slog.Warn("web search failed, skipping query",
					slog.String("query", q),
					slog.String("error", err.Error()))
				continue
			}
			addCost(state, cost)

			found, err := parseItemTitles(raw, maxResults)
			if err != nil {
				slog.Warn("unparseable web search response, skipping query",
					slog.String("query", q),
					slog.String("error", err.Error()))
				continue
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

// parseItemTitles reads item_1..item_n from a model response, repairing
// malformed JSON once. Absent or blank items are dropped.
func parseItemTitles(raw string, n int) ([]string, error) {
	data := []byte(raw)
	if !json.Valid(data) {
		repaired, err := jsonrepair.JSONRepair(raw)
		if err != nil {
			return nil, fmt.Errorf("repair search response: %w", err)
		}
		data = []byte(repaired)
	}
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("parse search response: %w", err)
	}

	var titles []string
	for i := 1; i <= n; i++ {
		v, _ := obj[fmt.Sprintf("item_%d", i)].(string)
		if t := strings.TrimSpace(v); t != "" {
			titles = append(titles, t)
		}
	}
	return titles, nil
}

// RelatedPaper is one summarized paper fed into novelty verification.
type RelatedPaper struct {
	Title   string
	Summary string
}

// RelatedPapersNode resolves collected titles against arXiv, prefers
// the Semantic Scholar abstract when one exists, and summarizes each
// paper for downstream method generation. Titles that resolve to
// nothing are logged and skipped.
//
// Prerequisites: state["paper_titles"]
// Updates: state["related_papers"], state["total_cost"]
func RelatedPapersNode(ax *arxiv.Client, sc *scholar.Client, gen TextGenerator, loader *prompt.Loader, maxPapers int) NodeFunc {
	if maxPapers <= 0 {
		maxPapers = 5
	}
	return func(ctx context.Context, state State) (State, error) {
		titles, ok := state.Strings("paper_titles")
		if !ok {
			return nil, fmt.Errorf("related papers: %w: paper_titles", ErrMissingStateKey)
		}

		var related []RelatedPaper
		for _, title := range titles {
			if len(related) >= maxPapers {
				break
			}

			entries, err := ax.Search(ctx, arxiv.SearchOptions{Title: title, MaxResults: 1})
			if err != nil {
				if ctx.Err() != nil {
					return nil, fmt.Errorf("related papers: %w", err)
				}
				slog.Warn("arxiv lookup failed, skipping title",
					slog.String("title", title),
					slog.String("error", err.Error()))
				continue
			}
			if len(entries) == 0 {
				slog.Info("no arxiv match for title", slog.String("title", title))
				continue
			}
			entry := entries[0]

			text := entry.Summary
			if sc != nil {
				if p, err := sc.GetByArxivID(ctx, entry.ArxivID()); err == nil && p.Abstract != "" {
					text = p.Abstract
				}
			}

			message, err := loader.LoadWithVars("summarize-paper", map[string]any{
				"Title": entry.Title,
				"Text":  text,
			})
			if err != nil {
				return nil, fmt.Errorf("related papers: %w", err)
			}

			summary, cost, err := gen.Generate(ctx, message)
			if err != nil {
				return nil, fmt.Errorf("related papers: %w", err)
			}
			addCost(state, cost)

			related = append(related, RelatedPaper{Title: entry.Title, Summary: summary})
		}

		state["related_papers"] = related
		return state, nil
	}
}
