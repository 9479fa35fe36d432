package tradegraph

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// Well-known state keys.
const (
	// ExecutionTimeKey holds the per-run timing log: a mapping from
	// workflow name to node name to an ordered sequence of durations
	// in seconds. Append-only during a run.
	ExecutionTimeKey = "execution_time"

	// SubgraphNameKey records the last subgraph that produced the state.
	SubgraphNameKey = "subgraph_name"

	// SubgraphTotalNode is the pseudo-node under which a subgraph's
	// total wall-clock time is recorded.
	SubgraphTotalNode = "__subgraph_total__"

	// TotalCostKey accumulates the USD cost of every model call made
	// during the run.
	TotalCostKey = "total_cost"
)

// State is the mutable key-value context threaded through a subgraph
// run. There is no fixed global schema; each subgraph declares the keys
// it requires and the keys it guarantees. A State is exclusively owned
// by the running subgraph invocation and is not safe for concurrent use.
type State map[string]any

// Clone returns a shallow copy.
func (s State) Clone() State {
	out := make(State, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// String returns the value for key as a string.
func (s State) String(key string) (string, bool) {
	v, ok := s[key].(string)
	return v, ok
}

// Int returns the value for key as an int, converting a float64 that
// round-tripped through JSON.
func (s State) Int(key string) (int, bool) {
	switch v := s[key].(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	}
	return 0, false
}

// Float returns the value for key as a float64.
func (s State) Float(key string) (float64, bool) {
	switch v := s[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

// Bool returns the value for key as a bool.
func (s State) Bool(key string) (bool, bool) {
	v, ok := s[key].(bool)
	return v, ok
}

// Strings returns the value for key as a string slice, converting an
// []any that round-tripped through JSON.
func (s State) Strings(key string) ([]string, bool) {
	switch v := s[key].(type) {
	case []string:
		return v, true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, str)
		}
		return out, true
	}
	return nil, false
}

// Merge combines a persisted state with freshly produced results: a
// shallow copy of old (nil is treated as empty) with new's keys written
// over it. Neither argument is mutated.
func Merge(old, new State) State {
	merged := make(State, len(old)+len(new))
	for k, v := range old {
		merged[k] = v
	}
	for k, v := range new {
		merged[k] = v
	}
	return merged
}

// RecordDuration appends seconds to the timing log under (workflow,
// node), creating intermediate mappings on first use.
func RecordDuration(s State, workflow, node string, seconds float64) {
	log, ok := s[ExecutionTimeKey].(map[string]map[string][]float64)
	if !ok {
		log = make(map[string]map[string][]float64)
		s[ExecutionTimeKey] = log
	}
	nodes, ok := log[workflow]
	if !ok {
		nodes = make(map[string][]float64)
		log[workflow] = nodes
	}
	nodes[node] = append(nodes[node], seconds)
}

// Durations returns the recorded durations for (workflow, node). An
// absent log is equivalent to an empty one.
func Durations(s State, workflow, node string) []float64 {
	log, ok := s[ExecutionTimeKey].(map[string]map[string][]float64)
	if !ok {
		return nil
	}
	return log[workflow][node]
}

// NewRunID generates a run identifier of the form
// "<flow>-<timestamp>-<random>".
func NewRunID(flow string) string {
	suffix, err := nanoid.Generate("abcdefghijklmnopqrstuvwxyz0123456789", 8)
	if err != nil {
		// nanoid only fails when the entropy source does; fall back to
		// the same source directly.
		b := make([]byte, 4)
		rand.Read(b)
		suffix = hex.EncodeToString(b)
	}
	return fmt.Sprintf("%s-%s-%s", flow, time.Now().UTC().Format("20060102-150405"), suffix)
}
