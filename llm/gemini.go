package llm

import (
	"context"
	"fmt"

	devhttp "github.com/wkumagai/TradeGraph-sub001/http"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiBackend calls the Gemini REST API. It has no web search
// capability, so the facade rejects WebSearch for Gemini models.
type GeminiBackend struct {
	client *devhttp.Client
}

// NewGeminiBackend creates a Gemini backend authenticated with apiKey.
func NewGeminiBackend(apiKey string) (*GeminiBackend, error) {
	return NewGeminiBackendURL(apiKey, defaultGeminiBaseURL)
}

// NewGeminiBackendURL creates a Gemini backend against a custom base URL
// (used in tests).
func NewGeminiBackendURL(apiKey, baseURL string) (*GeminiBackend, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}
	return &GeminiBackend{
		client: devhttp.NewClient(devhttp.Config{
			BaseURL:     baseURL,
			ServiceName: "gemini",
			DefaultHeaders: map[string]string{
				"x-goog-api-key": apiKey,
			},
		}),
	}, nil
}

type geminiContent struct {
	Parts []struct {
		Text string `json:"text"`
	} `json:"parts"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

func geminiParts(message string) map[string]any {
	return map[string]any{
		"parts": []map[string]any{{"text": message}},
	}
}

func (b *GeminiBackend) generateContent(ctx context.Context, model string, body map[string]any) (*generateContentResponse, error) {
	path := fmt.Sprintf("/models/%s:generateContent", model)
	resp, err := b.client.Post(ctx, path, &devhttp.RequestOptions{Body: body})
	if err != nil {
		return nil, err
	}
	if err := devhttp.CheckStatus("gemini", path, resp); err != nil {
		return nil, err
	}

	var out generateContentResponse
	if err := devhttp.DecodeJSON(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *generateContentResponse) text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var text string
	for _, part := range r.Candidates[0].Content.Parts {
		text += part.Text
	}
	return text
}

// Generate implements Backend.
func (b *GeminiBackend) Generate(ctx context.Context, model, message string) (string, float64, error) {
	out, err := b.generateContent(ctx, model, map[string]any{
		"contents": []map[string]any{geminiParts(message)},
	})
	if err != nil {
		return "", 0, err
	}

	cost := callCost(model, out.UsageMetadata.PromptTokenCount, out.UsageMetadata.CandidatesTokenCount)
	return out.text(), cost, nil
}

// StructuredOutputs implements Backend. The schema is passed as a
// response schema with a JSON response MIME type; Gemini's schema
// dialect has no additionalProperties, so only type, properties and
// required are sent.
func (b *GeminiBackend) StructuredOutputs(ctx context.Context, model, message string, schema Schema) (map[string]any, float64, error) {
	js := schema.JSONSchema()
	delete(js, "additionalProperties")

	out, err := b.generateContent(ctx, model, map[string]any{
		"contents": []map[string]any{geminiParts(message)},
		"generationConfig": map[string]any{
			"responseMimeType": "application/json",
			"responseSchema":   js,
		},
	})
	if err != nil {
		return nil, 0, err
	}

	cost := callCost(model, out.UsageMetadata.PromptTokenCount, out.UsageMetadata.CandidatesTokenCount)
	text := out.text()
	if text == "" {
		return nil, cost, nil
	}

	obj, err := schema.Decode(text)
	if err != nil {
		return nil, cost, err
	}
	return obj, cost, nil
}

type embedContentResponse struct {
	Embedding struct {
		Values []float64 `json:"values"`
	} `json:"embedding"`
}

// TextEmbedding implements Backend.
func (b *GeminiBackend) TextEmbedding(ctx context.Context, message, embeddingModel string) ([]float64, error) {
	path := fmt.Sprintf("/models/%s:embedContent", embeddingModel)
	resp, err := b.client.Post(ctx, path, &devhttp.RequestOptions{
		Body: map[string]any{"content": geminiParts(message)},
	})
	if err != nil {
		return nil, err
	}
	if err := devhttp.CheckStatus("gemini", path, resp); err != nil {
		return nil, err
	}

	var out embedContentResponse
	if err := devhttp.DecodeJSON(resp, &out); err != nil {
		return nil, err
	}
	if len(out.Embedding.Values) == 0 {
		return nil, nil
	}
	return out.Embedding.Values, nil
}
