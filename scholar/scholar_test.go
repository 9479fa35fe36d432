package scholar

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	devhttp "github.com/wkumagai/TradeGraph-sub001/http"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClientURL("test-key", srv.URL)
}

func TestSearch(t *testing.T) {
	var gotQuery, gotKey string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		gotKey = r.Header.Get("x-api-key")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"total": 1,
			"data": []map[string]any{{
				"paperId":     "p1",
				"title":       "Attention Is All You Need",
				"year":        2017,
				"externalIds": map[string]any{"ArXiv": "1706.03762"},
			}},
		})
	})

	papers, err := c.Search(context.Background(), SearchOptions{
		Title:  "Attention Is All You Need",
		Author: "Vaswani",
		Year:   "2017",
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if gotQuery != "title:Attention Is All You Need author:Vaswani year:2017" {
		t.Errorf("query = %q", gotQuery)
	}
	if gotKey != "test-key" {
		t.Errorf("x-api-key = %q", gotKey)
	}
	if len(papers) != 1 || papers[0].ArxivID() != "1706.03762" {
		t.Errorf("papers = %v", papers)
	}
}

func TestSearch_RequiresQuery(t *testing.T) {
	c := NewClientURL("", "http://unused")
	if _, err := c.Search(context.Background(), SearchOptions{}); err == nil {
		t.Error("Search() with no query should fail")
	}
}

func TestGetByArxivID(t *testing.T) {
	var gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"paperId":  "p1",
			"title":    "Attention Is All You Need",
			"abstract": "The dominant sequence transduction models...",
		})
	})

	p, err := c.GetByArxivID(context.Background(), "1706.03762v7")
	if err != nil {
		t.Fatalf("GetByArxivID() error = %v", err)
	}
	if gotPath != "/paper/ARXIV:1706.03762" {
		t.Errorf("path = %q, want version stripped", gotPath)
	}
	if p.Title != "Attention Is All You Need" {
		t.Errorf("Title = %q", p.Title)
	}
}

func TestGetByArxivID_NotFoundIsFatal(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"paper not found"}`, http.StatusNotFound)
	})

	_, err := c.GetByArxivID(context.Background(), "0000.00000")
	if !errors.Is(err, devhttp.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}
