package tradegraph

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/wkumagai/TradeGraph-sub001/retry"
)

// NodeFunc is a single step within a subgraph: it reads and mutates the
// shared state and returns the updated state. Returning a nil state
// means the input state (mutated in place) carries forward.
type NodeFunc func(ctx context.Context, state State) (State, error)

// WithTiming wraps a node so its wall-clock duration is appended to
// state[ExecutionTimeKey][workflow][node]. The duration is recorded only
// when the node succeeds; a failing node's error is returned unchanged
// with no timing entry. Exceptions are never swallowed.
func WithTiming(workflow, node string, fn NodeFunc) NodeFunc {
	return func(ctx context.Context, state State) (State, error) {
		slog.Info("node start", "workflow", workflow, "node", node)
		start := time.Now()

		result, err := fn(ctx, state)
		if err != nil {
			slog.Error("node failed", "workflow", workflow, "node", node, "error", err)
			return result, err
		}

		seconds := roundSeconds(time.Since(start))
		if result == nil {
			result = state
		}
		RecordDuration(result, workflow, node, seconds)

		slog.Info("node end", "workflow", workflow, "node", node, "seconds", seconds)
		return result, nil
	}
}

// WithRetry wraps a node with the given retry policy. Most nodes rely on
// their outbound clients' own retry wrapping instead; this is for nodes
// whose whole body is safe to re-run.
func WithRetry(node string, p retry.Policy, fn NodeFunc) NodeFunc {
	return func(ctx context.Context, state State) (State, error) {
		var result State
		err := p.Do(ctx, "node "+node, func() error {
			var err error
			result, err = fn(ctx, state)
			return err
		})
		return result, err
	}
}

// roundSeconds reports a duration in seconds at 0.1 ms resolution, the
// precision kept in the timing log.
func roundSeconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*10000) / 10000
}
