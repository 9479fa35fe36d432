package llm

import (
	"context"
	"fmt"

	devhttp "github.com/wkumagai/TradeGraph-sub001/http"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAIBackend calls the OpenAI REST API.
type OpenAIBackend struct {
	client *devhttp.Client
}

// NewOpenAIBackend creates an OpenAI backend authenticated with apiKey.
func NewOpenAIBackend(apiKey string) (*OpenAIBackend, error) {
	return NewOpenAIBackendURL(apiKey, defaultOpenAIBaseURL)
}

// NewOpenAIBackendURL creates an OpenAI backend against a custom base
// URL (used in tests).
func NewOpenAIBackendURL(apiKey, baseURL string) (*OpenAIBackend, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}
	return &OpenAIBackend{
		client: devhttp.NewClient(devhttp.Config{
			BaseURL:     baseURL,
			ServiceName: "openai",
			DefaultHeaders: map[string]string{
				"Authorization": "Bearer " + apiKey,
			},
		}),
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat map[string]any `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func (b *OpenAIBackend) chat(ctx context.Context, req chatRequest) (*chatResponse, error) {
	resp, err := b.client.Post(ctx, "/chat/completions", &devhttp.RequestOptions{Body: req})
	if err != nil {
		return nil, err
	}
	if err := devhttp.CheckStatus("openai", "/chat/completions", resp); err != nil {
		return nil, err
	}

	var out chatResponse
	if err := devhttp.DecodeJSON(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Generate implements Backend.
func (b *OpenAIBackend) Generate(ctx context.Context, model, message string) (string, float64, error) {
	out, err := b.chat(ctx, chatRequest{
		Model:    model,
		Messages: []chatMessage{{Role: "user", Content: message}},
	})
	if err != nil {
		return "", 0, err
	}

	cost := callCost(model, out.Usage.PromptTokens, out.Usage.CompletionTokens)
	if len(out.Choices) == 0 {
		return "", cost, nil
	}
	return out.Choices[0].Message.Content, cost, nil
}

// StructuredOutputs implements Backend. A successful response with no
// content yields a nil object, which call sites treat as fatal.
func (b *OpenAIBackend) StructuredOutputs(ctx context.Context, model, message string, schema Schema) (map[string]any, float64, error) {
	out, err := b.chat(ctx, chatRequest{
		Model:    model,
		Messages: []chatMessage{{Role: "user", Content: message}},
		ResponseFormat: map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   schema.Name,
				"strict": true,
				"schema": schema.JSONSchema(),
			},
		},
	})
	if err != nil {
		return nil, 0, err
	}

	cost := callCost(model, out.Usage.PromptTokens, out.Usage.CompletionTokens)
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return nil, cost, nil
	}

	obj, err := schema.Decode(out.Choices[0].Message.Content)
	if err != nil {
		return nil, cost, err
	}
	return obj, cost, nil
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

// TextEmbedding implements Backend.
func (b *OpenAIBackend) TextEmbedding(ctx context.Context, message, embeddingModel string) ([]float64, error) {
	resp, err := b.client.Post(ctx, "/embeddings", &devhttp.RequestOptions{
		Body: map[string]any{"model": embeddingModel, "input": message},
	})
	if err != nil {
		return nil, err
	}
	if err := devhttp.CheckStatus("openai", "/embeddings", resp); err != nil {
		return nil, err
	}

	var out embeddingResponse
	if err := devhttp.DecodeJSON(resp, &out); err != nil {
		return nil, err
	}
	if len(out.Data) == 0 {
		return nil, nil
	}
	return out.Data[0].Embedding, nil
}

type responsesResponse struct {
	Output []struct {
		Type    string `json:"type"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// WebSearch implements WebSearcher via the Responses API with the web
// search tool enabled.
func (b *OpenAIBackend) WebSearch(ctx context.Context, model, message string) (string, float64, error) {
	resp, err := b.client.Post(ctx, "/responses", &devhttp.RequestOptions{
		Body: map[string]any{
			"model": model,
			"tools": []map[string]any{{"type": "web_search_preview"}},
			"input": message,
		},
	})
	if err != nil {
		return "", 0, err
	}
	if err := devhttp.CheckStatus("openai", "/responses", resp); err != nil {
		return "", 0, err
	}

	var out responsesResponse
	if err := devhttp.DecodeJSON(resp, &out); err != nil {
		return "", 0, err
	}

	cost := callCost(model, out.Usage.InputTokens, out.Usage.OutputTokens)
	for _, item := range out.Output {
		if item.Type != "message" {
			continue
		}
		for _, c := range item.Content {
			if c.Type == "output_text" {
				return c.Text, cost, nil
			}
		}
	}
	return "", cost, nil
}
