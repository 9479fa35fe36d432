package tradegraph

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Subgraph wraps a compiled graph with an explicit state contract: the
// keys it requires before running and the keys it guarantees once done.
// Contracts are checked at the boundary, so a violation names the
// subgraph and key instead of surfacing as a nil panic deep inside a
// node.
type Subgraph struct {
	name     string
	graph    *CompiledGraph
	inputs   []string
	optional []string
	outputs  []string
}

// SubgraphOption configures a Subgraph.
type SubgraphOption func(*Subgraph)

// WithInputs declares the state keys the subgraph requires. Run fails
// before executing any node when one is absent.
func WithInputs(keys ...string) SubgraphOption {
	return func(s *Subgraph) { s.inputs = append(s.inputs, keys...) }
}

// WithOptionalInputs declares state keys the subgraph consumes when
// present. They are copied into the nodes' view but their absence is
// not an error.
func WithOptionalInputs(keys ...string) SubgraphOption {
	return func(s *Subgraph) { s.optional = append(s.optional, keys...) }
}

// WithOutputs declares the state keys the subgraph guarantees. Run
// fails when the finished graph did not produce one.
func WithOutputs(keys ...string) SubgraphOption {
	return func(s *Subgraph) { s.outputs = append(s.outputs, keys...) }
}

// NewSubgraph binds a compiled graph to a name and state contract.
func NewSubgraph(name string, graph *CompiledGraph, opts ...SubgraphOption) *Subgraph {
	s := &Subgraph{name: name, graph: graph}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the subgraph's name, used as the workflow key in the
// timing log and as the SubgraphNameKey value of results.
func (s *Subgraph) Name() string { return s.name }

// Run checks the input contract, executes the graph on a restricted
// view of the incoming state, checks the output contract, and returns
// the incoming state merged with the graph's results. The total
// wall-clock time of the run is recorded under the SubgraphTotalNode
// pseudo-node. The incoming state's keys are not rewritten, though the
// timing log it carries accumulates entries across subgraph runs.
func (s *Subgraph) Run(ctx context.Context, state State) (State, error) {
	for _, key := range s.inputs {
		if _, ok := state[key]; !ok {
			return nil, &MissingKeyError{Subgraph: s.name, Key: key}
		}
	}

	// Nodes see only the declared inputs plus the running timing log
	// and cost counter, so an undeclared dependency fails here rather
	// than in production.
	scoped := make(State, len(s.inputs)+len(s.optional)+2)
	for _, key := range s.inputs {
		scoped[key] = state[key]
	}
	for _, key := range s.optional {
		if v, ok := state[key]; ok {
			scoped[key] = v
		}
	}
	if log, ok := state[ExecutionTimeKey]; ok {
		scoped[ExecutionTimeKey] = log
	}
	if cost, ok := state[TotalCostKey]; ok {
		scoped[TotalCostKey] = cost
	}

	slog.Info("subgraph start", "subgraph", s.name)
	start := time.Now()

	result, err := s.graph.Run(ctx, scoped)
	if err != nil {
		return nil, fmt.Errorf("subgraph %q: %w", s.name, err)
	}

	for _, key := range s.outputs {
		if _, ok := result[key]; !ok {
			return nil, &MissingKeyError{Subgraph: s.name, Key: key, Output: true}
		}
	}

	merged := Merge(state, result)
	RecordDuration(merged, s.name, SubgraphTotalNode, roundSeconds(time.Since(start)))
	merged[SubgraphNameKey] = s.name

	slog.Info("subgraph end", "subgraph", s.name, "seconds", time.Since(start).Seconds())
	return merged, nil
}
