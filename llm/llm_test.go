package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestResolveProvider(t *testing.T) {
	tests := []struct {
		model   string
		want    Provider
		wantErr bool
	}{
		{model: "o3-mini-2025-01-31", want: ProviderOpenAI},
		{model: "gpt-4o-mini-2024-07-18", want: ProviderOpenAI},
		{model: "gemini-2.5-pro", want: ProviderGemini},
		{model: "gemini-embedding-001", want: ProviderGemini},
		{model: "unknown-model-v9", wantErr: true},
		{model: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			got, err := ResolveProvider(tt.model)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedModel) {
					t.Fatalf("ResolveProvider(%q) error = %v, want ErrUnsupportedModel", tt.model, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveProvider(%q) error = %v", tt.model, err)
			}
			if got != tt.want {
				t.Errorf("ResolveProvider(%q) = %v, want %v", tt.model, got, tt.want)
			}
		})
	}
}

func TestNew_UnsupportedModel(t *testing.T) {
	if _, err := New("not-a-model"); !errors.Is(err, ErrUnsupportedModel) {
		t.Errorf("New() error = %v, want ErrUnsupportedModel", err)
	}
}

// fakeBackend implements Backend without WebSearcher.
type fakeBackend struct {
	generated string
}

func (f *fakeBackend) Generate(ctx context.Context, model, message string) (string, float64, error) {
	return f.generated, 0.01, nil
}

func (f *fakeBackend) StructuredOutputs(ctx context.Context, model, message string, schema Schema) (map[string]any, float64, error) {
	return nil, 0.01, nil
}

func (f *fakeBackend) TextEmbedding(ctx context.Context, message, embeddingModel string) ([]float64, error) {
	return []float64{0.1, 0.2}, nil
}

func TestFacade_WebSearchUnsupportedBackend(t *testing.T) {
	f, err := New("gemini-2.5-flash", WithBackend(&fakeBackend{}))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, _, err = f.WebSearch(context.Background(), "query")
	if !errors.Is(err, ErrNoWebSearch) {
		t.Errorf("WebSearch() error = %v, want ErrNoWebSearch", err)
	}
}

func TestFacade_GenerateReturnsCost(t *testing.T) {
	f, err := New("gpt-4o-mini-2024-07-18", WithBackend(&fakeBackend{generated: "hello"}))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	text, cost, err := f.Generate(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if text != "hello" {
		t.Errorf("Generate() text = %q", text)
	}
	if cost != 0.01 {
		t.Errorf("Generate() cost = %v, want 0.01", cost)
	}
}

func TestOpenAIBackend_StructuredOutputs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		json.NewDecoder(r.Body).Decode(&req)
		if req["response_format"] == nil {
			t.Error("request is missing response_format")
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": `{"item_1":"alpha","item_2":"beta"}`}},
			},
			"usage": map[string]any{"prompt_tokens": 100, "completion_tokens": 10},
		})
	}))
	defer srv.Close()

	b, err := NewOpenAIBackendURL("test-key", srv.URL)
	if err != nil {
		t.Fatalf("NewOpenAIBackendURL() error = %v", err)
	}

	schema := ItemSchema(2)
	obj, cost, err := b.StructuredOutputs(context.Background(), "gpt-4o-mini-2024-07-18", "msg", schema)
	if err != nil {
		t.Fatalf("StructuredOutputs() error = %v", err)
	}
	if obj["item_1"] != "alpha" || obj["item_2"] != "beta" {
		t.Errorf("StructuredOutputs() = %v", obj)
	}
	if cost <= 0 {
		t.Errorf("cost = %v, want > 0", cost)
	}
}

func TestOpenAIBackend_StructuredOutputsEmptyContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{},
			"usage":   map[string]any{"prompt_tokens": 5, "completion_tokens": 0},
		})
	}))
	defer srv.Close()

	b, err := NewOpenAIBackendURL("test-key", srv.URL)
	if err != nil {
		t.Fatalf("NewOpenAIBackendURL() error = %v", err)
	}

	obj, _, err := b.StructuredOutputs(context.Background(), "gpt-4o-mini-2024-07-18", "msg", ItemSchema(1))
	if err != nil {
		t.Fatalf("StructuredOutputs() error = %v", err)
	}
	if obj != nil {
		t.Errorf("StructuredOutputs() = %v, want nil for empty content", obj)
	}
}

func TestGeminiBackend_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-goog-api-key"); got != "g-key" {
			t.Errorf("x-goog-api-key = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{{"text": "answer"}}}},
			},
			"usageMetadata": map[string]any{"promptTokenCount": 10, "candidatesTokenCount": 5},
		})
	}))
	defer srv.Close()

	b, err := NewGeminiBackendURL("g-key", srv.URL)
	if err != nil {
		t.Fatalf("NewGeminiBackendURL() error = %v", err)
	}

	text, cost, err := b.Generate(context.Background(), "gemini-2.5-flash", "question")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if text != "answer" {
		t.Errorf("Generate() = %q, want %q", text, "answer")
	}
	if cost <= 0 {
		t.Errorf("cost = %v, want > 0", cost)
	}
}

func TestNewBackend_RequiresAPIKey(t *testing.T) {
	if _, err := NewOpenAIBackendURL("", "http://x"); err == nil {
		t.Error("NewOpenAIBackendURL(\"\") should fail")
	}
	if _, err := NewGeminiBackendURL("", "http://x"); err == nil {
		t.Error("NewGeminiBackendURL(\"\") should fail")
	}
}

func TestCallCost(t *testing.T) {
	got := callCost("gpt-4o-mini-2024-07-18", 1_000_000, 1_000_000)
	want := 0.15 + 0.60
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("callCost() = %v, want %v", got, want)
	}

	if callCost("unknown", 100, 100) != 0 {
		t.Error("unknown model should cost zero")
	}
}
