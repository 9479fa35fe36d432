package papers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func indexServer(t *testing.T, papers ...Paper) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"results": papers})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchAll_InputOrder(t *testing.T) {
	srvA := indexServer(t, Paper{Name: "Paper A", EventType: "Poster"})
	srvB := indexServer(t, Paper{Name: "Paper B", EventType: "Poster"})

	f := NewFetcher()
	got, err := f.FetchAll(context.Background(), []string{srvA.URL, srvB.URL})
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}
	if len(got) != 2 || got[0].Name != "Paper A" || got[1].Name != "Paper B" {
		t.Errorf("papers = %v, want input-order reassembly", got)
	}
}

func TestFetchAll_DegradedSourceSkipped(t *testing.T) {
	srvOK := indexServer(t, Paper{Name: "Survivor", EventType: "Poster"})
	srvBad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	t.Cleanup(srvBad.Close)

	f := NewFetcher()
	got, err := f.FetchAll(context.Background(), []string{srvBad.URL, srvOK.URL})
	if err != nil {
		t.Fatalf("FetchAll() error = %v, want degraded source dropped", err)
	}
	if len(got) != 1 || got[0].Name != "Survivor" {
		t.Errorf("papers = %v", got)
	}
}

func TestPosters(t *testing.T) {
	in := []Paper{
		{Name: "A", EventType: "Poster"},
		{Name: "B", EventType: "Oral"},
		{Name: "C", EventType: "Poster"},
	}
	got := Posters(in)
	if len(got) != 2 || got[0].Name != "A" || got[1].Name != "C" {
		t.Errorf("Posters() = %v", got)
	}
}

func TestFilterByQueries(t *testing.T) {
	in := []Paper{
		{Name: "Diffusion Models for Vision"},
		{Name: "Graph Neural Networks"},
		{Name: "Latent Diffusion for Video Models"},
	}

	tests := []struct {
		name    string
		queries []string
		want    []string
	}{
		{
			name:    "single query",
			queries: []string{"diffusion"},
			want:    []string{"Diffusion Models for Vision", "Latent Diffusion for Video Models"},
		},
		{
			name:    "all queries must match",
			queries: []string{"diffusion", "video"},
			want:    []string{"Latent Diffusion for Video Models"},
		},
		{
			name:    "blank queries pass everything",
			queries: []string{"", "   "},
			want:    []string{"Diffusion Models for Vision", "Graph Neural Networks", "Latent Diffusion for Video Models"},
		},
		{
			name:    "no match",
			queries: []string{"reinforcement"},
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Titles(FilterByQueries(in, tt.queries))
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestTitles_Placeholder(t *testing.T) {
	got := Titles([]Paper{{Name: ""}})
	if len(got) != 1 || got[0] != "No Title Found" {
		t.Errorf("Titles() = %v", got)
	}
}

func TestTitlesFromIndexes(t *testing.T) {
	srv := indexServer(t,
		Paper{Name: "Diffusion Transformers", EventType: "Poster"},
		Paper{Name: "Diffusion Orals Only", EventType: "Oral"},
		Paper{Name: "Unrelated Poster", EventType: "Poster"},
	)

	f := NewFetcher()
	got, err := f.TitlesFromIndexes(context.Background(), []string{srv.URL}, []string{"diffusion"})
	if err != nil {
		t.Fatalf("TitlesFromIndexes() error = %v", err)
	}
	if len(got) != 1 || got[0] != "Diffusion Transformers" {
		t.Errorf("titles = %v", got)
	}
}
