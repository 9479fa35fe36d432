// Package qdrant is a minimal client for the Qdrant vector store REST
// API: collection creation, point upsert, nearest-neighbor query, and
// point retrieval.
package qdrant

import (
	"context"
	"fmt"
	"time"

	devhttp "github.com/wkumagai/TradeGraph-sub001/http"
	"github.com/wkumagai/TradeGraph-sub001/retry"
)

// Distance metrics supported for collections.
const (
	DistanceCosine    = "Cosine"
	DistanceEuclidean = "Euclid"
	DistanceDot       = "Dot"
)

const (
	defaultTimeout = 15 * time.Second
	upsertTimeout  = 10 * time.Minute
)

// Client talks to a Qdrant instance.
type Client struct {
	http   *devhttp.Client
	policy retry.Policy
}

// NewClient creates a client for the Qdrant instance at baseURL,
// authenticated with apiKey.
func NewClient(apiKey, baseURL string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("qdrant API key is required")
	}
	return &Client{
		http: devhttp.NewClient(devhttp.Config{
			BaseURL:     baseURL,
			ServiceName: "qdrant",
			DefaultHeaders: map[string]string{
				"Authorization": "Bearer " + apiKey,
			},
			Timeout: defaultTimeout,
		}),
	}, nil
}

// Point is one stored vector with its payload.
type Point struct {
	ID      any            `json:"id"`
	Vector  []float64      `json:"vector,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
}

// ScoredPoint is a query hit.
type ScoredPoint struct {
	ID      any            `json:"id"`
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
}

// CreateCollection creates a collection holding vectors of the given
// size. Creating an existing collection with the same parameters is a
// no-op on the server side.
func (c *Client) CreateCollection(ctx context.Context, name string, vectorSize int, distance string) error {
	if distance == "" {
		distance = DistanceCosine
	}
	body := map[string]any{
		"vectors": map[string]any{"size": vectorSize, "distance": distance},
	}

	return c.policy.Do(ctx, "qdrant.create_collection", func() error {
		path := "/collections/" + name
		resp, err := c.http.Put(ctx, path, &devhttp.RequestOptions{Body: body, Timeout: time.Minute})
		if err != nil {
			return err
		}
		if err := devhttp.CheckStatus("qdrant", path, resp); err != nil {
			return err
		}
		return devhttp.Discard(resp)
	})
}

// Upsert inserts or replaces points in the collection.
func (c *Client) Upsert(ctx context.Context, collection string, points []Point) error {
	body := map[string]any{"points": points}

	return c.policy.Do(ctx, "qdrant.upsert", func() error {
		path := "/collections/" + collection + "/points"
		resp, err := c.http.Put(ctx, path, &devhttp.RequestOptions{Body: body, Timeout: upsertTimeout})
		if err != nil {
			return err
		}
		if err := devhttp.CheckStatus("qdrant", path, resp); err != nil {
			return err
		}
		return devhttp.Discard(resp)
	})
}

// Query returns the limit points nearest to vector, with payloads.
func (c *Client) Query(ctx context.Context, collection string, vector []float64, limit int) ([]ScoredPoint, error) {
	if limit <= 0 {
		limit = 10
	}
	body := map[string]any{
		"query":        map[string]any{"nearest": vector},
		"limit":        limit,
		"with_payload": true,
	}

	return retry.Value(ctx, c.policy, "qdrant.query", func() ([]ScoredPoint, error) {
		path := "/collections/" + collection + "/points/query"
		resp, err := c.http.Post(ctx, path, &devhttp.RequestOptions{Body: body})
		if err != nil {
			return nil, err
		}
		if err := devhttp.CheckStatus("qdrant", path, resp); err != nil {
			return nil, err
		}
		var out struct {
			Result struct {
				Points []ScoredPoint `json:"points"`
			} `json:"result"`
		}
		if err := devhttp.DecodeJSON(resp, &out); err != nil {
			return nil, err
		}
		return out.Result.Points, nil
	})
}

// GetPoint retrieves a single point by id.
func (c *Client) GetPoint(ctx context.Context, collection string, id any) (*Point, error) {
	return retry.Value(ctx, c.policy, "qdrant.get_point", func() (*Point, error) {
		path := fmt.Sprintf("/collections/%s/points/%v", collection, id)
		resp, err := c.http.Get(ctx, path, nil)
		if err != nil {
			return nil, err
		}
		if err := devhttp.CheckStatus("qdrant", path, resp); err != nil {
			return nil, err
		}
		var out struct {
			Result Point `json:"result"`
		}
		if err := devhttp.DecodeJSON(resp, &out); err != nil {
			return nil, err
		}
		return &out.Result, nil
	})
}
