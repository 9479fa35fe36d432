package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

func TestClient_JoinsPathAndQuery(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL + "/", ServiceName: "test"})

	q := url.Values{}
	q.Set("page", "2")
	resp, err := c.Get(context.Background(), "v1/items", &RequestOptions{Query: q})
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	resp.Body.Close()

	if gotPath != "/v1/items" {
		t.Errorf("path = %q, want %q", gotPath, "/v1/items")
	}
	if gotQuery != "page=2" {
		t.Errorf("query = %q, want %q", gotQuery, "page=2")
	}
}

func TestClient_MergesHeadersOverDefaults(t *testing.T) {
	var gotAuth, gotExtra string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotExtra = r.Header.Get("X-Extra")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(Config{
		BaseURL:        srv.URL,
		ServiceName:    "test",
		DefaultHeaders: map[string]string{"Authorization": "Bearer default", "X-Extra": "default"},
	})

	resp, err := c.Get(context.Background(), "/x", &RequestOptions{
		Headers: map[string]string{"X-Extra": "override"},
	})
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	resp.Body.Close()

	if gotAuth != "Bearer default" {
		t.Errorf("Authorization = %q, want default header", gotAuth)
	}
	if gotExtra != "override" {
		t.Errorf("X-Extra = %q, want per-call override", gotExtra)
	}
}

func TestClient_EncodesJSONBody(t *testing.T) {
	var gotBody map[string]any
	var gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, ServiceName: "test"})

	resp, err := c.Post(context.Background(), "/create", &RequestOptions{
		Body: map[string]any{"name": "collection"},
	})
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	resp.Body.Close()

	if gotContentType != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", gotContentType)
	}
	if gotBody["name"] != "collection" {
		t.Errorf("body name = %v, want %q", gotBody["name"], "collection")
	}
}

func TestClient_TransportErrorIsReturned(t *testing.T) {
	// Point at a server that is already closed.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, ServiceName: "test"})

	_, err := c.Get(context.Background(), "/x", nil)
	if err == nil {
		t.Fatal("Get() should fail against a closed server")
	}
}

func TestCheckStatus(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantErr  bool
		sentinel error
	}{
		{name: "success", status: 200, wantErr: false},
		{name: "created", status: 201, wantErr: false},
		{name: "not found", status: 404, wantErr: true, sentinel: ErrNotFound},
		{name: "rate limited", status: 429, wantErr: true, sentinel: ErrRateLimited},
		{name: "server error", status: 503, wantErr: true, sentinel: ErrServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte("detail"))
			}))
			defer srv.Close()

			c := NewClient(Config{BaseURL: srv.URL, ServiceName: "svc"})
			resp, err := c.Get(context.Background(), "/x", nil)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}

			err = CheckStatus("svc", "/x", resp)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CheckStatus() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				resp.Body.Close()
				return
			}

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("error %v is not an *APIError", err)
			}
			if apiErr.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, tt.status)
			}
			if tt.sentinel != nil && !errors.Is(err, tt.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false", err, tt.sentinel)
			}
		})
	}
}
