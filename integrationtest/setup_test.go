package integrationtest

import (
	"context"
	"testing"

	"github.com/wkumagai/TradeGraph-sub001/llm"
	"github.com/wkumagai/TradeGraph-sub001/prompt"
)

const testModel = "o3-mini-2025-01-31"

// routedBackend dispatches model calls to test-provided functions,
// letting one backend answer differently per prompt.
type routedBackend struct {
	generate   func(message string) (string, float64, error)
	structured func(message string, schema llm.Schema) (map[string]any, float64, error)
	calls      int
}

func (b *routedBackend) Generate(ctx context.Context, model, message string) (string, float64, error) {
	b.calls++
	return b.generate(message)
}

func (b *routedBackend) StructuredOutputs(ctx context.Context, model, message string, schema llm.Schema) (map[string]any, float64, error) {
	b.calls++
	return b.structured(message, schema)
}

func (b *routedBackend) TextEmbedding(ctx context.Context, message, embeddingModel string) ([]float64, error) {
	b.calls++
	return nil, nil
}

// newFacade binds the routed backend to a known model so provider
// resolution succeeds without credentials.
func newFacade(t *testing.T, backend llm.Backend) *llm.Facade {
	t.Helper()

	f, err := llm.New(testModel, llm.WithBackend(backend))
	if err != nil {
		t.Fatalf("llm.New: %v", err)
	}
	return f
}

func newLoader(t *testing.T) *prompt.Loader {
	t.Helper()
	return prompt.NewLoader(t.TempDir())
}
