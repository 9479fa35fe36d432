package config

import (
	"fmt"
	"os"
	"strings"
)

// Requirement names an integration whose credentials must be present
// before the pipeline starts.
type Requirement int

const (
	// RequireLLM needs an OpenAI or Gemini key; either satisfies it.
	RequireLLM Requirement = iota
	// RequireGitHub needs a personal access token.
	RequireGitHub
	// RequireQdrant needs the vector store key.
	RequireQdrant
)

// MissingKey describes one absent credential.
type MissingKey struct {
	Name string // human-readable name
	Env  string // environment variable(s)
	URL  string // where to obtain it
}

// MissingKeysError aggregates every absent credential into a single
// human-readable message, raised once before any work begins.
type MissingKeysError struct {
	Keys []MissingKey
}

func (e *MissingKeysError) Error() string {
	var b strings.Builder
	b.WriteString("the following API keys are not set:")
	for _, k := range e.Keys {
		fmt.Fprintf(&b, "\n- %s (environment variable: %s)\n  Get it here: %s", k.Name, k.Env, k.URL)
	}
	return b.String()
}

// Check verifies that every credential the listed requirements need is
// present, reporting all missing keys at once rather than failing on
// the first.
func Check(reqs ...Requirement) error {
	var missing []MissingKey

	for _, req := range reqs {
		switch req {
		case RequireLLM:
			if os.Getenv("OPENAI_API_KEY") == "" && os.Getenv("GEMINI_API_KEY") == "" {
				missing = append(missing, MissingKey{
					Name: "OpenAI API Key or Gemini API Key",
					Env:  "OPENAI_API_KEY or GEMINI_API_KEY",
					URL: "OpenAI: https://platform.openai.com/settings/organization/api-keys\n" +
						"  Gemini: https://aistudio.google.com/apikey",
				})
			}
		case RequireGitHub:
			if os.Getenv("GITHUB_PERSONAL_ACCESS_TOKEN") == "" {
				missing = append(missing, MissingKey{
					Name: "GitHub Personal Access Token",
					Env:  "GITHUB_PERSONAL_ACCESS_TOKEN",
					URL:  "https://docs.github.com/en/authentication/keeping-your-account-and-data-secure/managing-your-personal-access-tokens",
				})
			}
		case RequireQdrant:
			if os.Getenv("QDRANT_API_KEY") == "" {
				missing = append(missing, MissingKey{
					Name: "Qdrant API Key",
					Env:  "QDRANT_API_KEY",
					URL:  "https://cloud.qdrant.io/",
				})
			}
		}
	}

	if len(missing) > 0 {
		return &MissingKeysError{Keys: missing}
	}
	return nil
}
