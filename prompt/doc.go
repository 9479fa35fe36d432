// Package prompt provides prompt template loading and rendering.
//
// Prompts are plain text/template files. Defaults are embedded in the
// binary; a project can override any prompt by placing a file of the
// same name under .tradegraph/prompts/ or prompts/ in its directory.
//
// Example usage:
//
//	loader := prompt.NewLoader(projectDir)
//	msg, err := loader.LoadWithVars("generate-queries", map[string]any{
//	    "ResearchTopic": topic,
//	    "NumQueries":    5,
//	})
package prompt
