package tradegraph

import (
	"bytes"
	"text/template"
)

// decisionTemplate asks the model for a continue/finalize call when the
// hard constraints leave the decision open. The response must be the
// JSON object decisionResponse decodes.
var decisionTemplate = template.Must(template.New("decision").Parse(`# Autonomous Research Decision

You decide whether to continue refining a generated method or finalize it.

## Current Situation
- Iteration: {{.Iteration}}
- Method is novel: {{.Novel}}
- Confidence score: {{.Confidence}}

## Verification Results
{{.Explanation}}

## Iteration History
{{range .GenerationHistory}}---
{{.}}
{{end}}
## Previous Feedback Applied
{{range .FeedbackHistory}}---
{{.}}
{{end}}
## Decision
Continue only if clear improvement opportunities remain; finalize when the
method is sufficiently novel or further iteration shows diminishing returns.

Respond with JSON only:
{"decision": "continue" or "finalize", "reasoning": "explanation of the decision"}
`))

// DecisionPrompt renders the default model prompt for Decider.
func DecisionPrompt(in DecisionInput) string {
	var buf bytes.Buffer
	// The template only references DecisionInput fields, so execution
	// cannot fail.
	_ = decisionTemplate.Execute(&buf, in)
	return buf.String()
}
