// Package config loads pipeline configuration from a YAML file, a .env
// file, and the process environment, and gates startup on the API keys
// the requested integrations need.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults applied when the config file leaves a field unset.
const (
	DefaultModel            = "o3-mini-2025-01-31"
	DefaultEmbeddingModel   = "gemini-embedding-001"
	DefaultBranch           = "main"
	DefaultMaxIterations    = 3
	DefaultNoveltyThreshold = 0.8
	DefaultMaxRelatedPapers = 5
	DefaultQdrantCollection = "methods"
)

// Config is the pipeline configuration.
type Config struct {
	// Model is the LLM used for generation and decision making.
	Model string `yaml:"model"`

	// EmbeddingModel is the model used for text embeddings.
	EmbeddingModel string `yaml:"embedding_model"`

	// GitHubOwner and GitHubRepo name the repository that stores the
	// research history and experiment artifacts.
	GitHubOwner string `yaml:"github_owner"`
	GitHubRepo  string `yaml:"github_repo"`

	// Branch is the branch research history is committed to.
	Branch string `yaml:"branch"`

	// QdrantURL is the vector store endpoint.
	QdrantURL string `yaml:"qdrant_url"`

	// QdrantCollection is the collection holding method embeddings.
	QdrantCollection string `yaml:"qdrant_collection"`

	// PaperIndexURLs are the static conference paper-index documents
	// fetched during retrieval.
	PaperIndexURLs []string `yaml:"paper_index_urls"`

	// Venues restrict web search for paper titles to named venues.
	Venues []string `yaml:"venues"`

	// MaxRelatedPapers caps how many papers are summarized per run.
	MaxRelatedPapers int `yaml:"max_related_papers"`

	// MaxIterations bounds the iterative method-generation loop.
	MaxIterations int `yaml:"max_iterations"`

	// NoveltyThreshold is the confidence above which a novel method
	// finalizes without consulting the model.
	NoveltyThreshold float64 `yaml:"novelty_threshold"`
}

func (c *Config) applyDefaults() {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.EmbeddingModel == "" {
		c.EmbeddingModel = DefaultEmbeddingModel
	}
	if c.Branch == "" {
		c.Branch = DefaultBranch
	}
	if c.MaxIterations <= 0 {
		c.MaxIterations = DefaultMaxIterations
	}
	if c.MaxRelatedPapers <= 0 {
		c.MaxRelatedPapers = DefaultMaxRelatedPapers
	}
	if c.QdrantCollection == "" {
		c.QdrantCollection = DefaultQdrantCollection
	}
	if c.NoveltyThreshold <= 0 {
		c.NoveltyThreshold = DefaultNoveltyThreshold
	}
}

// applyEnv overlays environment variables over file values.
func (c *Config) applyEnv() {
	if v := os.Getenv("TRADEGRAPH_MODEL"); v != "" {
		c.Model = v
	}
	if v := os.Getenv("TRADEGRAPH_GITHUB_OWNER"); v != "" {
		c.GitHubOwner = v
	}
	if v := os.Getenv("TRADEGRAPH_GITHUB_REPO"); v != "" {
		c.GitHubRepo = v
	}
	if v := os.Getenv("TRADEGRAPH_BRANCH"); v != "" {
		c.Branch = v
	}
	if v := os.Getenv("QDRANT_URL"); v != "" {
		c.QdrantURL = v
	}
	if v := os.Getenv("TRADEGRAPH_MAX_ITERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxIterations = n
		}
	}
}

// Load reads configuration: .env (when present) into the environment,
// then the YAML file at path (when non-empty), then environment
// overrides, then defaults. A missing .env is not an error.
func Load(path string) (*Config, error) {
	// Populates os.Environ for both config overrides and the API keys
	// checked by Check.
	_ = godotenv.Load()

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}
