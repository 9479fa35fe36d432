// Package llm provides the single entry point for model calls: a facade
// bound at construction to exactly one provider backend, exposing
// free-text generation, schema-validated structured output, text
// embedding and web search. Every call is wrapped by the shared retry
// policy and accrues a cost alongside its payload; aggregating cost is
// the caller's responsibility.
package llm

import (
	"context"
	"fmt"
	"os"

	"github.com/wkumagai/TradeGraph-sub001/retry"
)

// Backend is a concrete provider client. Implementations return the
// payload plus the USD cost of the call.
type Backend interface {
	Generate(ctx context.Context, model, message string) (string, float64, error)
	StructuredOutputs(ctx context.Context, model, message string, schema Schema) (map[string]any, float64, error)
	TextEmbedding(ctx context.Context, message, embeddingModel string) ([]float64, error)
}

// WebSearcher is implemented by backends with search capability.
type WebSearcher interface {
	WebSearch(ctx context.Context, model, message string) (string, float64, error)
}

// Facade resolves a model name to one provider backend at construction;
// the binding is immutable for the facade's lifetime.
type Facade struct {
	model    string
	provider Provider
	backend  Backend
	policy   retry.Policy
}

// Option configures a Facade.
type Option func(*Facade)

// WithBackend overrides the provider backend (used in tests).
func WithBackend(b Backend) Option {
	return func(f *Facade) { f.backend = b }
}

// WithPolicy overrides the retry policy.
func WithPolicy(p retry.Policy) Option {
	return func(f *Facade) { f.policy = p }
}

// New creates a facade for the given model, resolving it to a provider
// backend via the static model tables. Unknown models fail with
// ErrUnsupportedModel.
func New(model string, opts ...Option) (*Facade, error) {
	provider, err := ResolveProvider(model)
	if err != nil {
		return nil, err
	}

	f := &Facade{model: model, provider: provider}
	for _, opt := range opts {
		opt(f)
	}

	if f.backend == nil {
		switch provider {
		case ProviderOpenAI:
			f.backend, err = NewOpenAIBackend(os.Getenv("OPENAI_API_KEY"))
		case ProviderGemini:
			f.backend, err = NewGeminiBackend(os.Getenv("GEMINI_API_KEY"))
		}
		if err != nil {
			return nil, err
		}
	}

	return f, nil
}

// Model returns the bound model name.
func (f *Facade) Model() string {
	return f.model
}

// Provider returns the resolved provider tag.
func (f *Facade) Provider() Provider {
	return f.provider
}

// Generate performs a free-form completion, returning the text and the
// call cost.
func (f *Facade) Generate(ctx context.Context, message string) (string, float64, error) {
	var text string
	var cost float64
	err := f.policy.Do(ctx, "llm.generate", func() error {
		var err error
		text, cost, err = f.backend.Generate(ctx, f.model, message)
		return err
	})
	return text, cost, err
}

// StructuredOutputs requests a response conforming to schema. When the
// provider returns no usable content the parsed value is nil with a nil
// error; callers must treat a nil value as a hard failure rather than
// substituting empty data downstream.
func (f *Facade) StructuredOutputs(ctx context.Context, message string, schema Schema) (map[string]any, float64, error) {
	var obj map[string]any
	var cost float64
	err := f.policy.Do(ctx, "llm.structured_outputs", func() error {
		var err error
		obj, cost, err = f.backend.StructuredOutputs(ctx, f.model, message, schema)
		return err
	})
	return obj, cost, err
}

// TextEmbedding embeds the message with the given embedding model
// (DefaultEmbeddingModel when empty). A nil vector with a nil error
// means the provider returned no embedding.
func (f *Facade) TextEmbedding(ctx context.Context, message, embeddingModel string) ([]float64, error) {
	if embeddingModel == "" {
		embeddingModel = DefaultEmbeddingModel
	}
	var vec []float64
	err := f.policy.Do(ctx, "llm.text_embedding", func() error {
		var err error
		vec, err = f.backend.TextEmbedding(ctx, message, embeddingModel)
		return err
	})
	return vec, err
}

// WebSearch performs a model-grounded web search. It fails with
// ErrNoWebSearch when the bound backend lacks search capability.
func (f *Facade) WebSearch(ctx context.Context, message string) (string, float64, error) {
	ws, ok := f.backend.(WebSearcher)
	if !ok {
		return "", 0, fmt.Errorf("%w for model %q", ErrNoWebSearch, f.model)
	}

	var text string
	var cost float64
	err := f.policy.Do(ctx, "llm.web_search", func() error {
		var err error
		text, cost, err = ws.WebSearch(ctx, f.model, message)
		return err
	})
	return text, cost, err
}
