package testutil

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/wkumagai/TradeGraph-sub001/github"
	"github.com/wkumagai/TradeGraph-sub001/llm"
)

// ScriptedBackend is an llm.Backend returning canned responses. The
// zero value returns empty payloads with zero cost.
type ScriptedBackend struct {
	Response   string
	Structured map[string]any
	Embedding  []float64
	Search     string
	Cost       float64
	Err        error

	mu    sync.Mutex
	calls int
}

// Calls reports how many backend methods have been invoked.
func (b *ScriptedBackend) Calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

func (b *ScriptedBackend) record() {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
}

func (b *ScriptedBackend) Generate(ctx context.Context, model, message string) (string, float64, error) {
	b.record()
	return b.Response, b.Cost, b.Err
}

func (b *ScriptedBackend) StructuredOutputs(ctx context.Context, model, message string, schema llm.Schema) (map[string]any, float64, error) {
	b.record()
	return b.Structured, b.Cost, b.Err
}

func (b *ScriptedBackend) TextEmbedding(ctx context.Context, message, embeddingModel string) ([]float64, error) {
	b.record()
	return b.Embedding, b.Err
}

func (b *ScriptedBackend) WebSearch(ctx context.Context, model, message string) (string, float64, error) {
	b.record()
	return b.Search, b.Cost, b.Err
}

// MemoryHistory is an in-memory research-history store.
type MemoryHistory struct {
	mu        sync.Mutex
	History   github.History
	Subgraphs []string // subgraph markers in commit order
}

func (m *MemoryHistory) LoadHistory(ctx context.Context, branch string) (github.History, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return github.MergeHistory(nil, m.History), nil
}

func (m *MemoryHistory) UpdateHistory(ctx context.Context, branch, subgraph string, updates github.History) (github.History, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.History = github.MergeHistory(m.History, updates)
	m.Subgraphs = append(m.Subgraphs, subgraph)
	return m.History, nil
}

// JSONServer starts an httptest server answering every request with the
// given status and JSON body. The server is closed when the test ends.
func JSONServer(t *testing.T, status int, body any) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if body != nil {
			_ = json.NewEncoder(w).Encode(body)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}
