// Package openalex queries the OpenAlex works API for paper titles and
// metadata.
package openalex

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

// DefaultBaseURL is the public OpenAlex endpoint.
const DefaultBaseURL = "https://api.openalex.org"

const requestTimeout = 30 * time.Second

var defaultFields = []string{
	"id", "doi", "display_name", "publication_year", "publication_date",
	"authorships", "primary_location",
}

// Client queries the OpenAlex API. The API key is optional.
type Client struct {
	http   *devhttp.Client
	apiKey string
	policy retry.Policy
}

// NewClient creates a client against the public endpoint.
func NewClient(apiKey string) *Client {
	return NewClientURL(apiKey, DefaultBaseURL)
}

// NewClientURL creates a client against a custom endpoint.
func NewClientURL(apiKey, baseURL string) *Client {
	return &Client{
		http: devhttp.NewClient(devhttp.Config{
			BaseURL:     baseURL,
			ServiceName: "openalex",
			Timeout:     requestTimeout,
		}),
		apiKey: apiKey,
	}
}

// Work is one OpenAlex work record.
type Work struct {
	ID              string       `json:"id"`
	DOI             string       `json:"doi"`
	DisplayName     string       `json:"display_name"`
	PublicationYear int          `json:"publication_year"`
	PublicationDate string       `json:"publication_date"`
	Authorships     []Authorship `json:"authorships"`
}

// Authorship links a work to one author.
type Authorship struct {
	Author struct {
		DisplayName string `json:"display_name"`
	} `json:"author"`
}

type worksResponse struct {
	Meta struct {
		Count   int `json:"count"`
		Page    int `json:"page"`
		PerPage int `json:"per_page"`
	} `json:"meta"`
	Results []Work `json:"results"`
}

// SearchOptions refine a works search. Title and Author take precedence
// over Query when set.
type SearchOptions struct {
	Query   string
	Title   string
	Author  string
	Year    string // "2020" or "2020-2023"
	PerPage int
}

func (opts SearchOptions) filter() (string, error) {
	var filters []string
	switch {
	case strings.TrimSpace(opts.Title) != "" || strings.TrimSpace(opts.Author) != "":
		if t := strings.TrimSpace(opts.Title); t != "" {
			filters = append(filters, "display_name.search:"+t)
		}
		if a := strings.TrimSpace(opts.Author); a != "" {
			filters = append(filters, "raw_author_name.search:"+a)
		}
	case strings.TrimSpace(opts.Query) != "":
		filters = append(filters, "default.search:"+strings.TrimSpace(opts.Query))
	default:
		return "", fmt.Errorf("openalex search: either query or title must be provided")
	}

	if y := opts.Year; y != "" {
		if from, to, ok := strings.Cut(y, "-"); ok {
			filters = append(filters,
				"from_publication_date:"+from+"-01-01",
				"to_publication_date:"+to+"-12-31")
		} else {
			filters = append(filters, "publication_year:"+y)
		}
	}
	return strings.Join(filters, ","), nil
}

// Search returns an iterator over works matching the options, ordered
// by relevance.
func (c *Client) Search(ctx context.Context, opts SearchOptions) (*devhttp.PageIterator[Work], error) {
	filter, err := opts.filter()
	if err != nil {
		return nil, err
	}

	perPage := opts.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	if perPage > 200 {
		perPage = 200
	}

	fetch := func(ctx context.Context, page int) ([]Work, bool, error) {
		q := url.Values{
			"page":     {strconv.Itoa(page)},
			"per-page": {strconv.Itoa(perPage)},
			"select":   {strings.Join(defaultFields, ",")},
			"filter":   {filter},
			"sort":     {"relevance_score:desc"},
		}
		if c.apiKey != "" {
			q.Set("api_key", c.apiKey)
		}

		wr, err := retry.Value(ctx, c.policy, "openalex.search", func() (worksResponse, error) {
			var wr worksResponse
			resp, err := c.http.Get(ctx, "/works", &devhttp.RequestOptions{Query: q})
			if err != nil {
				return wr, err
			}
			if err := devhttp.CheckStatus("openalex", "/works", resp); err != nil {
				return wr, err
			}
			if err := devhttp.DecodeJSON(resp, &wr); err != nil {
				return wr, err
			}
			return wr, nil
		})
		if err != nil {
			return nil, false, err
		}
		hasMore := page*perPage < wr.Meta.Count
		return wr.Results, hasMore, nil
	}

	return devhttp.NewPageIterator(fetch), nil
}

// SearchTitles collects up to max work titles matching the options.
func (c *Client) SearchTitles(ctx context.Context, opts SearchOptions, max int) ([]string, error) {
	it, err := c.Search(ctx, opts)
	if err != nil {
		return nil, err
	}
	works, err := it.Collect(ctx, max)
	if err != nil {
		return nil, err
	}
	titles := make([]string, 0, len(works))
	for _, w := range works {
		if w.DisplayName != "" {
			titles = append(titles, w.DisplayName)
		}
	}
	return titles, nil
}
