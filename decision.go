package tradegraph

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// Outcomes of the iterative-loop decision.
const (
	OutcomeContinue = "continue"
	OutcomeFinalize = "finalize"
)

// TextGenerator produces free-form text from a prompt. *llm.Facade
// satisfies it.
type TextGenerator interface {
	Generate(ctx context.Context, message string) (string, float64, error)
}

// DecisionInput carries the signals the decision weighs after a
// generation iteration.
type DecisionInput struct {
	Iteration   int
	Novel       bool
	Confidence  float64
	Explanation string

	// Histories give the model context when the hard constraints do
	// not settle the decision.
	GenerationHistory []string
	FeedbackHistory   []string
}

// Decider chooses between continuing an iterative generation loop and
// finalizing it. Two hard constraints are checked first; only when
// neither applies is the model consulted, and a failed model call is
// absorbed into a deterministic fallback rather than propagated.
type Decider struct {
	MaxIterations    int
	NoveltyThreshold float64

	// Client performs the model-driven decision. A nil client is
	// treated as a failed call, so the fallback ladder applies.
	Client TextGenerator

	// Prompt renders the decision prompt from the input. Defaults to
	// DecisionPrompt.
	Prompt func(DecisionInput) string
}

// decisionResponse is the JSON shape the model is asked to produce.
type decisionResponse struct {
	Reasoning string `json:"reasoning"`
	Decision  string `json:"decision"`
}

// Decide applies the transition rule in strict precedence order:
//
//  1. Iteration at or past MaxIterations: finalize.
//  2. Novel with Confidence at or above NoveltyThreshold: finalize.
//  3. Otherwise ask the model; on any failure, finalize when novel,
//     continue while iterations remain, finalize otherwise.
func (d *Decider) Decide(ctx context.Context, in DecisionInput) string {
	if in.Iteration >= d.MaxIterations {
		slog.Info("decision: max iterations reached", "iteration", in.Iteration, "max", d.MaxIterations)
		return OutcomeFinalize
	}
	if in.Novel && in.Confidence >= d.NoveltyThreshold {
		slog.Info("decision: novel with high confidence", "confidence", in.Confidence, "threshold", d.NoveltyThreshold)
		return OutcomeFinalize
	}

	outcome, err := d.ask(ctx, in)
	if err == nil {
		return outcome
	}
	slog.Warn("decision call failed, using fallback", "error", err)

	if in.Novel {
		return OutcomeFinalize
	}
	if in.Iteration < d.MaxIterations-1 {
		return OutcomeContinue
	}
	return OutcomeFinalize
}

func (d *Decider) ask(ctx context.Context, in DecisionInput) (string, error) {
	if d.Client == nil {
		return "", fmt.Errorf("no decision client configured")
	}
	render := d.Prompt
	if render == nil {
		render = DecisionPrompt
	}

	raw, _, err := d.Client.Generate(ctx, render(in))
	if err != nil {
		return "", err
	}

	var resp decisionResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return "", fmt.Errorf("parsing decision response: %w", err)
	}
	switch resp.Decision {
	case OutcomeContinue, OutcomeFinalize:
		slog.Info("decision from model", "decision", resp.Decision, "reasoning", resp.Reasoning)
		return resp.Decision, nil
	}
	return "", fmt.Errorf("unrecognized decision %q", resp.Decision)
}

// Router adapts the decider to a conditional edge: the returned Router
// reads the decision signals from well-known state keys.
//
// Keys: "iteration_count", "is_novel", "confidence_score",
// "verification_explanation", "generation_history", "feedback_history".
func (d *Decider) Router() Router {
	return func(ctx context.Context, state State) (string, error) {
		in := DecisionInput{}
		in.Iteration, _ = state.Int("iteration_count")
		in.Novel, _ = state.Bool("is_novel")
		in.Confidence, _ = state.Float("confidence_score")
		in.Explanation, _ = state.String("verification_explanation")
		in.GenerationHistory, _ = state.Strings("generation_history")
		in.FeedbackHistory, _ = state.Strings("feedback_history")
		return d.Decide(ctx, in), nil
	}
}
