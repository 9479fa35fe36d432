package tradegraph

import (
	"context"
	"fmt"

	"github.com/wkumagai/TradeGraph-sub001/github"
)

// HistoryStore persists the cumulative research history. *github.Client
// satisfies it.
type HistoryStore interface {
	LoadHistory(ctx context.Context, branch string) (github.History, error)
	UpdateHistory(ctx context.Context, branch, subgraph string, updates github.History) (github.History, error)
}

// DownloadHistoryNode loads the persisted research history from the
// repository branch into the state.
//
// Updates: state["research_history"]
func DownloadHistoryNode(store HistoryStore, branch string) NodeFunc {
	return func(ctx context.Context, state State) (State, error) {
		h, err := store.LoadHistory(ctx, branch)
		if err != nil {
			return nil, fmt.Errorf("download history: %w", err)
		}
		state["research_history"] = map[string]any(h)
		return state, nil
	}
}

// UploadHistoryNode performs the read-merge-write cycle: the named
// state keys are overlaid onto the persisted history and committed
// under the subgraph's marker.
//
// Prerequisites: each key in keys present in state
// Updates: state["research_history"]
func UploadHistoryNode(store HistoryStore, branch, subgraph string, keys ...string) NodeFunc {
	return func(ctx context.Context, state State) (State, error) {
		updates := make(github.History, len(keys))
		for _, key := range keys {
			v, ok := state[key]
			if !ok {
				return nil, fmt.Errorf("upload history: %w: %s", ErrMissingStateKey, key)
			}
			updates[key] = v
		}

		merged, err := store.UpdateHistory(ctx, branch, subgraph, updates)
		if err != nil {
			return nil, fmt.Errorf("upload history: %w", err)
		}
		state["research_history"] = map[string]any(merged)
		return state, nil
	}
}
