// Package papers fetches static paper-index documents (conference
// accepted-paper JSON dumps) and filters them by search queries. The
// fetch fans out concurrently across sources; a degraded source is
// logged and skipped, never fatal.
package papers

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	devhttp "github.com/wkumagai/TradeGraph-sub001/http"
)

const fetchTimeout = 30 * time.Second

// Paper is one entry in a paper index.
type Paper struct {
	Name      string `json:"name"`
	EventType string `json:"eventtype"`
}

type indexResponse struct {
	Results []Paper `json:"results"`
}

// Fetcher loads paper indexes over HTTP.
type Fetcher struct {
	http *devhttp.Client
}

// NewFetcher creates a fetcher. Index URLs are absolute, so the client
// carries no base URL.
func NewFetcher() *Fetcher {
	return &Fetcher{
		http: devhttp.NewClient(devhttp.Config{
			ServiceName: "paper_index",
			Timeout:     fetchTimeout,
		}),
	}
}

// FetchAll loads every index URL concurrently and returns the combined
// papers in input URL order. A source that fails to fetch or parse is
// logged and contributes nothing; only a canceled context aborts the
// whole batch.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string) ([]Paper, error) {
	perURL := make([][]Paper, len(urls))

	g, ctx := errgroup.WithContext(ctx)
	for i, u := range urls {
		i, u := i, u
		g.Go(func() error {
			papers, err := f.fetchOne(ctx, u)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				slog.Warn("skipping paper index", "url", u, "error", err)
				return nil
			}
			perURL[i] = papers
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var combined []Paper
	for _, papers := range perURL {
		combined = append(combined, papers...)
	}
	return combined, nil
}

func (f *Fetcher) fetchOne(ctx context.Context, url string) ([]Paper, error) {
	resp, err := f.http.Get(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	if err := devhttp.CheckStatus("paper_index", url, resp); err != nil {
		return nil, err
	}
	var ir indexResponse
	if err := devhttp.DecodeJSON(resp, &ir); err != nil {
		return nil, err
	}
	return ir.Results, nil
}

// Posters returns only poster-session papers.
func Posters(papers []Paper) []Paper {
	var out []Paper
	for _, p := range papers {
		if p.EventType == "Poster" {
			out = append(out, p)
		}
	}
	return out
}

// FilterByQueries keeps papers whose name contains every non-blank
// query, case-insensitively. With no active queries all papers pass.
func FilterByQueries(papers []Paper, queries []string) []Paper {
	var active []string
	for _, q := range queries {
		if q = strings.ToLower(strings.TrimSpace(q)); q != "" {
			active = append(active, q)
		}
	}
	if len(active) == 0 {
		return papers
	}

	var out []Paper
	for _, p := range papers {
		name := strings.ToLower(p.Name)
		matched := true
		for _, q := range active {
			if !strings.Contains(name, q) {
				matched = false
				break
			}
		}
		if matched {
			out = append(out, p)
		}
	}
	return out
}

// Titles extracts the paper names, substituting a placeholder for
// unnamed entries.
func Titles(papers []Paper) []string {
	out := make([]string, 0, len(papers))
	for _, p := range papers {
		name := p.Name
		if name == "" {
			name = "No Title Found"
		}
		out = append(out, name)
	}
	return out
}

// TitlesFromIndexes is the full retrieval path: fetch all indexes,
// keep posters, filter by queries, and return titles.
func (f *Fetcher) TitlesFromIndexes(ctx context.Context, urls, queries []string) ([]string, error) {
	all, err := f.FetchAll(ctx, urls)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, nil
	}
	return Titles(FilterByQueries(Posters(all), queries)), nil
}
