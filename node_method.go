package tradegraph

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kaptinlin/jsonrepair"

	"github.com/wkumagai/TradeGraph-sub001/prompt"
)

// GenerateMethodNode creates or refines the candidate method. On the
// first iteration it generates from the base method; once refinement
// feedback exists it refines the previous method instead.
//
// Prerequisites: state["base_method"]
// Updates: state["method"], state["iteration_count"],
// state["generation_history"], state["total_cost"]
func GenerateMethodNode(gen TextGenerator, loader *prompt.Loader) NodeFunc {
	return func(ctx context.Context, state State) (State, error) {
		base, ok := state.String("base_method")
		if !ok {
			return nil, fmt.Errorf("generate method: %w: base_method", ErrMissingStateKey)
		}
		iteration, _ := state.Int("iteration_count")
		previous, _ := state.String("method")
		feedback, _ := state.String("refinement_feedback")

		message, err := loader.LoadWithVars("generate-method", map[string]any{
			"BaseMethod":     base,
			"PreviousMethod": previous,
			"Feedback":       feedback,
			"Iteration":      iteration + 1,
		})
		if err != nil {
			return nil, fmt.Errorf("generate method: %w", err)
		}

		method, cost, err := gen.Generate(ctx, message)
		if err != nil {
			return nil, fmt.Errorf("generate method: %w", err)
		}
		addCost(state, cost)

		history, _ := state.Strings("generation_history")
		state["generation_history"] = append(history, method)
		state["method"] = method
		state["iteration_count"] = iteration + 1
		return state, nil
	}
}

// noveltyResult is the JSON shape the verification prompt requests.
type noveltyResult struct {
	IsNovel     bool    `json:"is_novel"`
	Confidence  float64 `json:"confidence"`
	Explanation string  `json:"explanation"`
}

// VerifyNoveltyNode assesses whether the candidate method is genuinely
// novel against the base method and related papers.
//
// Prerequisites: state["method"], state["base_method"]
// Updates: state["is_novel"], state["confidence_score"],
// state["verification_explanation"], state["total_cost"]
func VerifyNoveltyNode(gen TextGenerator, loader *prompt.Loader) NodeFunc {
	return func(ctx context.Context, state State) (State, error) {
		method, ok := state.String("method")
		if !ok {
			return nil, fmt.Errorf("verify novelty: %w: method", ErrMissingStateKey)
		}
		base, _ := state.String("base_method")

		related := state["related_papers"]
		if related == nil {
			related = []any{}
		}
		message, err := loader.LoadWithVars("novelty-verification", map[string]any{
			"Method":        method,
			"BaseMethod":    base,
			"RelatedPapers": related,
		})
		if err != nil {
			return nil, fmt.Errorf("verify novelty: %w", err)
		}

		raw, cost, err := gen.Generate(ctx, message)
		if err != nil {
			return nil, fmt.Errorf("verify novelty: %w", err)
		}
		addCost(state, cost)

		result, err := parseNoveltyResult(raw)
		if err != nil {
			return nil, fmt.Errorf("verify novelty: %w", err)
		}

		state["is_novel"] = result.IsNovel
		state["confidence_score"] = result.Confidence
		state["verification_explanation"] = result.Explanation
		return state, nil
	}
}

func parseNoveltyResult(raw string) (noveltyResult, error) {
	var result noveltyResult
	data := []byte(raw)
	if !json.Valid(data) {
		repaired, err := jsonrepair.JSONRepair(raw)
		if err != nil {
			return result, fmt.Errorf("repair verification response: %w", err)
		}
		data = []byte(repaired)
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return result, fmt.Errorf("parse verification response: %w", err)
	}
	return result, nil
}

// RefinementFeedbackNode turns a failed novelty assessment into
// actionable feedback for the next generation iteration.
//
// Prerequisites: state["method"]
// Updates: state["refinement_feedback"], state["feedback_history"],
// state["total_cost"]
func RefinementFeedbackNode(gen TextGenerator, loader *prompt.Loader) NodeFunc {
	return func(ctx context.Context, state State) (State, error) {
		method, ok := state.String("method")
		if !ok {
			return nil, fmt.Errorf("refinement feedback: %w: method", ErrMissingStateKey)
		}
		iteration, _ := state.Int("iteration_count")
		novel, _ := state.Bool("is_novel")
		confidence, _ := state.Float("confidence_score")
		explanation, _ := state.String("verification_explanation")

		message, err := loader.LoadWithVars("refinement-feedback", map[string]any{
			"Method":      method,
			"Iteration":   iteration,
			"Novel":       novel,
			"Confidence":  confidence,
			"Explanation": explanation,
		})
		if err != nil {
			return nil, fmt.Errorf("refinement feedback: %w", err)
		}

		feedback, cost, err := gen.Generate(ctx, message)
		if err != nil {
			return nil, fmt.Errorf("refinement feedback: %w", err)
		}
		addCost(state, cost)

		history, _ := state.Strings("feedback_history")
		state["feedback_history"] = append(history, feedback)
		state["refinement_feedback"] = feedback
		return state, nil
	}
}
