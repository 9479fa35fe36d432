package tradegraph

import (
	"context"
	"fmt"
	"time"

	"github.com/wkumagai/TradeGraph-sub001/qdrant"
)

// Embedder produces text embeddings. *llm.Facade satisfies it.
type Embedder interface {
	TextEmbedding(ctx context.Context, message, embeddingModel string) ([]float64, error)
}

// VectorStore holds method embeddings. *qdrant.Client satisfies it.
type VectorStore interface {
	Upsert(ctx context.Context, collection string, points []qdrant.Point) error
	Query(ctx context.Context, collection string, vector []float64, limit int) ([]qdrant.ScoredPoint, error)
}

// SimilarMethodsNode embeds the finalized method and looks up the
// nearest previously stored methods, giving later runs a record of what
// has already been tried.
//
// Prerequisites: state["method"]
// Updates: state["similar_methods"]
func SimilarMethodsNode(embedder Embedder, store VectorStore, collection, embeddingModel string, limit int) NodeFunc {
	return func(ctx context.Context, state State) (State, error) {
		method, ok := state.String("method")
		if !ok {
			return nil, fmt.Errorf("similar methods: %w: method", ErrMissingStateKey)
		}

		vector, err := embedder.TextEmbedding(ctx, method, embeddingModel)
		if err != nil {
			return nil, fmt.Errorf("similar methods: %w", err)
		}

		hits, err := store.Query(ctx, collection, vector, limit)
		if err != nil {
			return nil, fmt.Errorf("similar methods: %w", err)
		}

		similar := make([]string, 0, len(hits))
		for _, hit := range hits {
			if m, ok := hit.Payload["method"].(string); ok && m != "" {
				similar = append(similar, m)
			}
		}
		state["similar_methods"] = similar
		return state, nil
	}
}

// IndexMethodNode embeds the finalized method and upserts it into the
// vector store so future runs can detect rediscoveries.
//
// Prerequisites: state["method"]
// Updates: state["method_point_id"]
func IndexMethodNode(embedder Embedder, store VectorStore, collection, embeddingModel string) NodeFunc {
	return func(ctx context.Context, state State) (State, error) {
		method, ok := state.String("method")
		if !ok {
			return nil, fmt.Errorf("index method: %w: method", ErrMissingStateKey)
		}

		vector, err := embedder.TextEmbedding(ctx, method, embeddingModel)
		if err != nil {
			return nil, fmt.Errorf("index method: %w", err)
		}

		// Qdrant point ids must be unsigned integers or UUIDs.
		id := uint64(time.Now().UnixNano())
		payload := map[string]any{"method": method}
		if topic, ok := state.String("research_topic"); ok {
			payload["research_topic"] = topic
		}

		err = store.Upsert(ctx, collection, []qdrant.Point{{ID: id, Vector: vector, Payload: payload}})
		if err != nil {
			return nil, fmt.Errorf("index method: %w", err)
		}

		state["method_point_id"] = id
		return state, nil
	}
}
