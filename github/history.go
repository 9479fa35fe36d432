package github

import (
	"context"
	"encoding/json"
	"fmt"
)

// HistoryPath is the fixed repository path of the cumulative research
// history document.
const HistoryPath = ".research/research_history.json"

// History is the persisted research state: a JSON object keyed by state
// name, updated read-merge-write.
type History map[string]any

// LoadHistory reads the history document from branch. A missing file or
// empty content yields an empty history so a fresh branch starts clean.
func (c *Client) LoadHistory(ctx context.Context, branch string) (History, error) {
	content, exists, err := c.GetFile(ctx, HistoryPath, branch)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	if !exists || content == "" {
		return History{}, nil
	}

	var h History
	if err := json.Unmarshal([]byte(content), &h); err != nil {
		return nil, fmt.Errorf("load history: parse %s: %w", HistoryPath, err)
	}
	return h, nil
}

// SaveHistory commits the history document to branch. The subgraph
// marker is embedded in the commit message so FindCommitByMarker can
// locate this update later.
func (c *Client) SaveHistory(ctx context.Context, branch, subgraph string, h History) error {
	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return fmt.Errorf("save history: encode: %w", err)
	}

	message := fmt.Sprintf("Update research history %s", CommitMarker(subgraph))
	if err := c.CommitFile(ctx, HistoryPath, branch, message, data); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}

// MergeHistory overlays updates onto h, key by key. Nested values are
// replaced, not deep-merged. A nil h is treated as empty; neither
// argument is mutated.
func MergeHistory(h, updates History) History {
	merged := make(History, len(h)+len(updates))
	for k, v := range h {
		merged[k] = v
	}
	for k, v := range updates {
		merged[k] = v
	}
	return merged
}

// UpdateHistory performs the read-merge-write cycle: load the current
// history from branch, overlay updates, and commit the result under the
// subgraph's marker.
func (c *Client) UpdateHistory(ctx context.Context, branch, subgraph string, updates History) (History, error) {
	current, err := c.LoadHistory(ctx, branch)
	if err != nil {
		return nil, err
	}
	merged := MergeHistory(current, updates)
	if err := c.SaveHistory(ctx, branch, subgraph, merged); err != nil {
		return nil, err
	}
	return merged, nil
}
