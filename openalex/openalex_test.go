package openalex

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClientURL("", srv.URL)
}

func worksPage(count, page, perPage int, titles ...string) map[string]any {
	results := make([]map[string]any, 0, len(titles))
	for i, title := range titles {
		results = append(results, map[string]any{
			"id":               "W" + strconv.Itoa((page-1)*perPage+i+1),
			"display_name":     title,
			"publication_year": 2023,
		})
	}
	return map[string]any{
		"meta":    map[string]any{"count": count, "page": page, "per_page": perPage},
		"results": results,
	}
}

func TestSearch_Paginates(t *testing.T) {
	var filters []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		filters = append(filters, r.URL.Query().Get("filter"))
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		w.Header().Set("Content-Type", "application/json")
		switch page {
		case 1:
			json.NewEncoder(w).Encode(worksPage(3, 1, 2, "Paper A", "Paper B"))
		case 2:
			json.NewEncoder(w).Encode(worksPage(3, 2, 2, "Paper C"))
		default:
			t.Errorf("unexpected page %d", page)
		}
	})

	it, err := c.Search(context.Background(), SearchOptions{Query: "momentum", PerPage: 2})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	works, err := it.Collect(context.Background(), 0)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	if len(works) != 3 {
		t.Fatalf("works = %d, want 3", len(works))
	}
	if works[2].DisplayName != "Paper C" {
		t.Errorf("works[2] = %q", works[2].DisplayName)
	}
	if filters[0] != "default.search:momentum" {
		t.Errorf("filter = %q", filters[0])
	}
}

func TestSearch_YearRangeFilter(t *testing.T) {
	opts := SearchOptions{Title: "BERT", Author: "Devlin", Year: "2018-2020"}
	got, err := opts.filter()
	if err != nil {
		t.Fatalf("filter() error = %v", err)
	}
	want := "display_name.search:BERT,raw_author_name.search:Devlin," +
		"from_publication_date:2018-01-01,to_publication_date:2020-12-31"
	if got != want {
		t.Errorf("filter() = %q, want %q", got, want)
	}
}

func TestSearch_SingleYearFilter(t *testing.T) {
	opts := SearchOptions{Query: "cnn", Year: "2021"}
	got, err := opts.filter()
	if err != nil {
		t.Fatalf("filter() error = %v", err)
	}
	if got != "default.search:cnn,publication_year:2021" {
		t.Errorf("filter() = %q", got)
	}
}

func TestSearch_RequiresQuery(t *testing.T) {
	c := NewClientURL("", "http://unused")
	if _, err := c.Search(context.Background(), SearchOptions{}); err == nil {
		t.Error("Search() with no query should fail")
	}
}

func TestSearchTitles_Max(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(worksPage(10, 1, 20, "A", "B", "C", "D"))
	})

	titles, err := c.SearchTitles(context.Background(), SearchOptions{Query: "x"}, 2)
	if err != nil {
		t.Fatalf("SearchTitles() error = %v", err)
	}
	if len(titles) != 2 || titles[0] != "A" || titles[1] != "B" {
		t.Errorf("titles = %v", titles)
	}
}
