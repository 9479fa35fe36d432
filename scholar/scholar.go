// Package scholar queries the Semantic Scholar Graph API for paper
// metadata and citation context.
package scholar

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	devhttp "github.com/wkumagai/TradeGraph-sub001/http"
	"github.com/wkumagai/TradeGraph-sub001/retry"
)

// DefaultBaseURL is the public Semantic Scholar Graph endpoint.
const DefaultBaseURL = "https://api.semanticscholar.org/graph/v1"

const requestTimeout = 30 * time.Second

var defaultSearchFields = []string{
	"paperId", "title", "abstract", "year", "authors", "venue",
	"citationCount", "referenceCount", "externalIds",
}

var defaultPaperFields = []string{
	"paperId", "title", "abstract", "year", "authors", "venue",
	"externalIds", "openAccessPdf",
}

// Client queries the Semantic Scholar API. The API key is optional;
// unauthenticated requests get a lower rate limit.
type Client struct {
	http   *devhttp.Client
	policy retry.Policy
}

// NewClient creates a client against the public endpoint.
func NewClient(apiKey string) *Client {
	return NewClientURL(apiKey, DefaultBaseURL)
}

// NewClientURL creates a client against a custom endpoint.
func NewClientURL(apiKey, baseURL string) *Client {
	var headers map[string]string
	if apiKey != "" {
		headers = map[string]string{"x-api-key": apiKey}
	}
	return &Client{
		http: devhttp.NewClient(devhttp.Config{
			BaseURL:        baseURL,
			ServiceName:    "semantic_scholar",
			DefaultHeaders: headers,
			Timeout:        requestTimeout,
		}),
	}
}

// Author is a paper author.
type Author struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}

// Paper is the subset of paper fields the pipeline consumes.
type Paper struct {
	PaperID       string            `json:"paperId"`
	Title         string            `json:"title"`
	Abstract      string            `json:"abstract"`
	Year          int               `json:"year"`
	Venue         string            `json:"venue"`
	CitationCount int               `json:"citationCount"`
	Authors       []Author          `json:"authors"`
	ExternalIDs   map[string]any    `json:"externalIds"`
	OpenAccessPDF map[string]string `json:"openAccessPdf"`
}

// ArxivID returns the paper's arXiv identifier, or "" when absent.
func (p Paper) ArxivID() string {
	id, _ := p.ExternalIDs["ArXiv"].(string)
	return id
}

type searchResponse struct {
	Total int     `json:"total"`
	Data  []Paper `json:"data"`
}

// SearchOptions refine a paper search. Title and Author take precedence
// over Query when set.
type SearchOptions struct {
	Query  string
	Title  string
	Author string
	Year   string // "2020" or "2020-2023"
	Venue  string
	Limit  int
	Offset int
}

// Search queries papers matching the options.
func (c *Client) Search(ctx context.Context, opts SearchOptions) ([]Paper, error) {
	var parts []string
	switch {
	case strings.TrimSpace(opts.Title) != "" || strings.TrimSpace(opts.Author) != "":
		if t := strings.TrimSpace(opts.Title); t != "" {
			parts = append(parts, "title:"+t)
		}
		if a := strings.TrimSpace(opts.Author); a != "" {
			parts = append(parts, "author:"+a)
		}
	case strings.TrimSpace(opts.Query) != "":
		parts = append(parts, strings.TrimSpace(opts.Query))
	default:
		return nil, fmt.Errorf("scholar search: either query or title must be provided")
	}
	if opts.Year != "" {
		parts = append(parts, "year:"+opts.Year)
	}
	if opts.Venue != "" {
		parts = append(parts, "venue:"+opts.Venue)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	q := url.Values{
		"query":  {strings.Join(parts, " ")},
		"limit":  {strconv.Itoa(limit)},
		"offset": {strconv.Itoa(opts.Offset)},
		"fields": {strings.Join(defaultSearchFields, ",")},
	}

	return retry.Value(ctx, c.policy, "scholar.search", func() ([]Paper, error) {
		resp, err := c.http.Get(ctx, "/paper/search", &devhttp.RequestOptions{Query: q})
		if err != nil {
			return nil, err
		}
		if err := devhttp.CheckStatus("semantic_scholar", "/paper/search", resp); err != nil {
			return nil, err
		}
		var sr searchResponse
		if err := devhttp.DecodeJSON(resp, &sr); err != nil {
			return nil, err
		}
		return sr.Data, nil
	})
}

// GetByArxivID fetches a paper by its arXiv identifier. A version
// suffix on the id is ignored.
func (c *Client) GetByArxivID(ctx context.Context, arxivID string) (*Paper, error) {
	id := strings.TrimSpace(arxivID)
	if id == "" {
		return nil, fmt.Errorf("scholar get: arxiv id must be provided")
	}
	if i := strings.LastIndex(id, "v"); i > 0 {
		if _, err := strconv.Atoi(id[i+1:]); err == nil {
			id = id[:i]
		}
	}

	path := "/paper/ARXIV:" + id
	q := url.Values{"fields": {strings.Join(defaultPaperFields, ",")}}

	return retry.Value(ctx, c.policy, "scholar.get_by_arxiv_id", func() (*Paper, error) {
		resp, err := c.http.Get(ctx, path, &devhttp.RequestOptions{Query: q})
		if err != nil {
			return nil, err
		}
		if err := devhttp.CheckStatus("semantic_scholar", path, resp); err != nil {
			return nil, err
		}
		var p Paper
		if err := devhttp.DecodeJSON(resp, &p); err != nil {
			return nil, err
		}
		return &p, nil
	})
}
