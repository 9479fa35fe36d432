package llm

import (
	"errors"
	"fmt"
)

// Provider identifies the backend serving a model. The tag is resolved
// once, at facade construction, from the model name.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
)

// Facade errors.
var (
	// ErrUnsupportedModel indicates the model name matches no known provider.
	ErrUnsupportedModel = errors.New("unsupported model")

	// ErrNoContent indicates the provider answered successfully but
	// returned no usable content. Call sites treat this as fatal; an
	// empty-but-successful response does not improve on retry.
	ErrNoContent = errors.New("no usable content in model response")

	// ErrNoWebSearch indicates the bound backend lacks search capability.
	ErrNoWebSearch = errors.New("web search not supported")
)

// DefaultEmbeddingModel is used when no embedding model is specified.
const DefaultEmbeddingModel = "gemini-embedding-001"

// providerModels is the resolution table mapping known model names to
// provider tags.
var providerModels = map[Provider][]string{
	ProviderOpenAI: {
		"o3-2025-04-16",
		"o3-mini-2025-01-31",
		"o1-2024-12-17",
		"gpt-4o-2024-11-20",
		"gpt-4o-mini-2024-07-18",
		"gpt-4.1-2025-04-14",
		"gpt-4.1-mini-2025-04-14",
	},
	ProviderGemini: {
		"gemini-2.5-pro",
		"gemini-2.5-flash",
		"gemini-2.5-flash-lite-preview-06-17",
		"gemini-2.0-flash-001",
		"gemini-2.0-flash-lite-001",
		"gemini-embedding-001",
	},
}

// ResolveProvider maps a model name to its provider tag. Unknown models
// fail with ErrUnsupportedModel.
func ResolveProvider(model string) (Provider, error) {
	for provider, models := range providerModels {
		for _, m := range models {
			if m == model {
				return provider, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedModel, model)
}

// modelPricing holds per-token USD costs.
type modelPricing struct {
	input  float64 // per input token
	output float64 // per output token
}

// pricing tables, USD per token.
var pricing = map[string]modelPricing{
	"o3-2025-04-16":                       {input: 2.00 / 1e6, output: 8.00 / 1e6},
	"o3-mini-2025-01-31":                  {input: 1.10 / 1e6, output: 4.40 / 1e6},
	"o1-2024-12-17":                       {input: 15.00 / 1e6, output: 60.00 / 1e6},
	"gpt-4o-2024-11-20":                   {input: 2.50 / 1e6, output: 10.00 / 1e6},
	"gpt-4o-mini-2024-07-18":              {input: 0.15 / 1e6, output: 0.60 / 1e6},
	"gpt-4.1-2025-04-14":                  {input: 2.00 / 1e6, output: 8.00 / 1e6},
	"gpt-4.1-mini-2025-04-14":             {input: 0.40 / 1e6, output: 1.60 / 1e6},
	"gemini-2.5-pro":                      {input: 1.25 / 1e6, output: 10.00 / 1e6},
	"gemini-2.5-flash":                    {input: 0.30 / 1e6, output: 2.50 / 1e6},
	"gemini-2.5-flash-lite-preview-06-17": {input: 0.10 / 1e6, output: 0.40 / 1e6},
	"gemini-2.0-flash-001":                {input: 0.10 / 1e6, output: 0.40 / 1e6},
	"gemini-2.0-flash-lite-001":           {input: 0.075 / 1e6, output: 0.30 / 1e6},
}

// callCost computes the USD cost of a call from token usage. Unknown
// models cost zero rather than failing the call.
func callCost(model string, inputTokens, outputTokens int) float64 {
	p, ok := pricing[model]
	if !ok {
		return 0
	}
	return p.input*float64(inputTokens) + p.output*float64(outputTokens)
}
