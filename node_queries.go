package tradegraph

import (
	"context"
	"fmt"

	"github.com/wkumagai/TradeGraph-sub001/llm"
	"github.com/wkumagai/TradeGraph-sub001/prompt"
)

// StructuredGenerator produces schema-validated structured output.
// *llm.Facade satisfies it.
type StructuredGenerator interface {
	StructuredOutputs(ctx context.Context, message string, schema llm.Schema) (map[string]any, float64, error)
}

// addCost accumulates a call's USD cost into the run total.
func addCost(state State, cost float64) {
	total, _ := state.Float(TotalCostKey)
	state[TotalCostKey] = total + cost
}

// GenerateQueriesNode produces n concise search queries for the
// research topic.
//
// Prerequisites: state["research_topic"]
// Updates: state["queries"], state["total_cost"]
func GenerateQueriesNode(gen StructuredGenerator, loader *prompt.Loader, n int) NodeFunc {
	return func(ctx context.Context, state State) (State, error) {
		topic, ok := state.String("research_topic")
		if !ok {
			return nil, fmt.Errorf("generate queries: %w: research_topic", ErrMissingStateKey)
		}

		message, err := loader.LoadWithVars("generate-queries", map[string]any{
			"ResearchTopic": topic,
			"NumQueries":    n,
		})
		if err != nil {
			return nil, fmt.Errorf("generate queries: %w", err)
		}

		schema := llm.ItemSchema(n)
		obj, cost, err := gen.StructuredOutputs(ctx, message, schema)
		if err != nil {
			return nil, fmt.Errorf("generate queries: %w", err)
		}
		addCost(state, cost)

		// An empty-but-successful response cannot be retried into a
		// useful one and must never flow downstream as empty data.
		if obj == nil {
			return nil, fmt.Errorf("generate queries: %w", llm.ErrNoContent)
		}
		if err := schema.Validate(obj); err != nil {
			return nil, fmt.Errorf("generate queries: %w", err)
		}

		state["queries"] = schema.Items(obj)
		return state, nil
	}
}
