// Package arxiv queries the arXiv Atom API for paper metadata.
package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	devhttp "github.com/wkumagai/TradeGraph-sub001/http"
	"github.com/wkumagai/TradeGraph-sub001/retry"
)

// DefaultBaseURL is the public arXiv API endpoint.
const DefaultBaseURL = "https://export.arxiv.org/api"

const requestTimeout = 15 * time.Second

// Client queries the arXiv API.
type Client struct {
	http   *devhttp.Client
	policy retry.Policy
}

// NewClient creates an arXiv client against the public endpoint.
func NewClient() *Client {
	return NewClientURL(DefaultBaseURL)
}

// NewClientURL creates an arXiv client against a custom endpoint.
func NewClientURL(baseURL string) *Client {
	return &Client{
		http: devhttp.NewClient(devhttp.Config{
			BaseURL:     baseURL,
			ServiceName: "arxiv",
			Timeout:     requestTimeout,
		}),
	}
}

// Entry is one paper in an Atom feed response.
type Entry struct {
	ID        string   `xml:"id"`
	Title     string   `xml:"title"`
	Summary   string   `xml:"summary"`
	Published string   `xml:"published"`
	Authors   []Author `xml:"author"`
	Links     []Link   `xml:"link"`
}

// Author is a paper author.
type Author struct {
	Name string `xml:"name"`
}

// Link is an alternate or PDF link on an entry.
type Link struct {
	Href  string `xml:"href,attr"`
	Rel   string `xml:"rel,attr"`
	Title string `xml:"title,attr"`
}

type feed struct {
	Entries []Entry `xml:"entry"`
}

// ArxivID extracts the bare arXiv identifier from the entry's ID URL,
// stripping any version suffix.
func (e Entry) ArxivID() string {
	id := e.ID
	if i := strings.LastIndex(id, "/abs/"); i >= 0 {
		id = id[i+len("/abs/"):]
	}
	if i := strings.LastIndex(id, "v"); i > 0 {
		if _, err := strconv.Atoi(id[i+1:]); err == nil {
			id = id[:i]
		}
	}
	return id
}

// PDFURL returns the entry's PDF link, or "" when absent.
func (e Entry) PDFURL() string {
	for _, l := range e.Links {
		if l.Title == "pdf" {
			return l.Href
		}
	}
	return ""
}

// SearchOptions refine a paper search. Title and Author take precedence
// over Query when set.
type SearchOptions struct {
	Query      string
	Title      string
	Author     string
	Start      int
	MaxResults int
	FromDate   string // YYYY-MM-DD
	ToDate     string // YYYY-MM-DD
}

// Search queries papers matching the options. Either Query or
// Title/Author must be set.
func (c *Client) Search(ctx context.Context, opts SearchOptions) ([]Entry, error) {
	var parts []string
	switch {
	case strings.TrimSpace(opts.Title) != "" || strings.TrimSpace(opts.Author) != "":
		if t := strings.TrimSpace(opts.Title); t != "" {
			parts = append(parts, fmt.Sprintf("ti:%q", t))
		}
		if a := strings.TrimSpace(opts.Author); a != "" {
			parts = append(parts, "au:"+strings.ReplaceAll(a, ":", ""))
		}
	case strings.TrimSpace(opts.Query) != "":
		parts = append(parts, "all:"+strings.ReplaceAll(strings.TrimSpace(opts.Query), ":", ""))
	default:
		return nil, fmt.Errorf("arxiv search: either query or title/author must be provided")
	}

	searchQuery := strings.Join(parts, " AND ")
	if opts.FromDate != "" && opts.ToDate != "" {
		searchQuery = fmt.Sprintf("(%s) AND submittedDate:[%s TO %s]", searchQuery, opts.FromDate, opts.ToDate)
	}

	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = 10
	}

	q := url.Values{
		"search_query": {searchQuery},
		"start":        {strconv.Itoa(opts.Start)},
		"max_results":  {strconv.Itoa(maxResults)},
		"sortBy":       {"relevance"},
		"sortOrder":    {"descending"},
	}
	return c.fetch(ctx, "arxiv.search", q)
}

// GetByID fetches a single paper by its arXiv identifier. A version
// suffix on the id is ignored.
func (c *Client) GetByID(ctx context.Context, arxivID string) (*Entry, error) {
	id := strings.TrimSpace(arxivID)
	if id == "" {
		return nil, fmt.Errorf("arxiv get: id must be provided")
	}
	if i := strings.LastIndex(id, "v"); i > 0 {
		if _, err := strconv.Atoi(id[i+1:]); err == nil {
			id = id[:i]
		}
	}

	q := url.Values{
		"id_list":     {id},
		"max_results": {"1"},
	}
	entries, err := c.fetch(ctx, "arxiv.get_by_id", q)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("arxiv get: no entry for id %q", arxivID)
	}
	return &entries[0], nil
}

func (c *Client) fetch(ctx context.Context, op string, q url.Values) ([]Entry, error) {
	return retry.Value(ctx, c.policy, op, func() ([]Entry, error) {
		resp, err := c.http.Get(ctx, "/query", &devhttp.RequestOptions{Query: q})
		if err != nil {
			return nil, err
		}
		if err := devhttp.CheckStatus("arxiv", "/query", resp); err != nil {
			return nil, err
		}
		raw, err := devhttp.ParseBytes(resp)
		if err != nil {
			return nil, err
		}

		var f feed
		if err := xml.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("parse atom feed: %w", err)
		}
		for i := range f.Entries {
			f.Entries[i].Title = strings.Join(strings.Fields(f.Entries[i].Title), " ")
			f.Entries[i].Summary = strings.TrimSpace(f.Entries[i].Summary)
		}
		return f.Entries, nil
	})
}
