package services

import (
	"fmt"
	"os"

	tradegraph "github.com/wkumagai/TradeGraph-sub001"
	"github.com/wkumagai/TradeGraph-sub001/arxiv"
	"github.com/wkumagai/TradeGraph-sub001/config"
	"github.com/wkumagai/TradeGraph-sub001/github"
	"github.com/wkumagai/TradeGraph-sub001/llm"
	"github.com/wkumagai/TradeGraph-sub001/openalex"
	"github.com/wkumagai/TradeGraph-sub001/papers"
	"github.com/wkumagai/TradeGraph-sub001/prompt"
	"github.com/wkumagai/TradeGraph-sub001/qdrant"
	"github.com/wkumagai/TradeGraph-sub001/scholar"
)

// Services wraps all pipeline clients for convenient initialization.
// Optional integrations are nil when their configuration is absent.
type Services struct {
	Config   *config.Config
	LLM      *llm.Facade
	GitHub   *github.Client // nil unless GitHubOwner and GitHubRepo are set
	Qdrant   *qdrant.Client // nil unless QdrantURL is set
	Arxiv    *arxiv.Client
	Scholar  *scholar.Client
	OpenAlex *openalex.Client
	Fetcher  *papers.Fetcher
	Prompts  *prompt.Loader
}

// New builds Services from the configuration. All missing API keys are
// reported together before any client is constructed.
func New(cfg *config.Config) (*Services, error) {
	reqs := []config.Requirement{config.RequireLLM}
	if cfg.GitHubOwner != "" && cfg.GitHubRepo != "" {
		reqs = append(reqs, config.RequireGitHub)
	}
	if cfg.QdrantURL != "" {
		reqs = append(reqs, config.RequireQdrant)
	}
	if err := config.Check(reqs...); err != nil {
		return nil, err
	}

	s := &Services{
		Config:   cfg,
		Arxiv:    arxiv.NewClient(),
		Scholar:  scholar.NewClient(os.Getenv("SEMANTIC_SCHOLAR_API_KEY")),
		OpenAlex: openalex.NewClient(os.Getenv("OPENALEX_API_KEY")),
		Fetcher:  papers.NewFetcher(),
		Prompts:  prompt.NewLoader("."),
	}

	facade, err := llm.New(cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("llm client: %w", err)
	}
	s.LLM = facade

	if cfg.GitHubOwner != "" && cfg.GitHubRepo != "" {
		gh, err := github.NewClient(os.Getenv("GITHUB_PERSONAL_ACCESS_TOKEN"), cfg.GitHubOwner, cfg.GitHubRepo)
		if err != nil {
			return nil, fmt.Errorf("github client: %w", err)
		}
		s.GitHub = gh
	}

	if cfg.QdrantURL != "" {
		qc, err := qdrant.NewClient(os.Getenv("QDRANT_API_KEY"), cfg.QdrantURL)
		if err != nil {
			return nil, fmt.Errorf("qdrant client: %w", err)
		}
		s.Qdrant = qc
	}

	return s, nil
}

// Retrieve builds the retrieval subgraph from the configured clients.
func (s *Services) Retrieve() (*tradegraph.Subgraph, error) {
	return tradegraph.NewRetrieveSubgraph(tradegraph.RetrieveDeps{
		Generator: s.LLM,
		Prompts:   s.Prompts,
		Fetcher:   s.Fetcher,
		IndexURLs: s.Config.PaperIndexURLs,
		Searcher:  s.LLM,
		Venues:    s.Config.Venues,
	})
}

// Summarize builds the paper-summary subgraph.
func (s *Services) Summarize() (*tradegraph.Subgraph, error) {
	return tradegraph.NewSummarizeSubgraph(tradegraph.SummarizeDeps{
		Arxiv:     s.Arxiv,
		Scholar:   s.Scholar,
		Generator: s.LLM,
		Prompts:   s.Prompts,
		MaxPapers: s.Config.MaxRelatedPapers,
	})
}

// CreateMethod builds the iterative method-creation subgraph.
func (s *Services) CreateMethod() (*tradegraph.Subgraph, error) {
	return tradegraph.NewCreateMethodSubgraph(tradegraph.CreateMethodDeps{
		Generator:        s.LLM,
		Prompts:          s.Prompts,
		MaxIterations:    s.Config.MaxIterations,
		NoveltyThreshold: s.Config.NoveltyThreshold,
	})
}

// IndexMethod builds the vector-store subgraph recording the finalized
// method. The Qdrant integration must be configured.
func (s *Services) IndexMethod() (*tradegraph.Subgraph, error) {
	if s.Qdrant == nil {
		return nil, fmt.Errorf("index method: qdrant integration is not configured")
	}
	return tradegraph.NewIndexMethodSubgraph(tradegraph.IndexDeps{
		Embedder:       s.LLM,
		Store:          s.Qdrant,
		Collection:     s.Config.QdrantCollection,
		EmbeddingModel: s.Config.EmbeddingModel,
	})
}

// HistoryUpload builds the persistence subgraph committing the named
// state keys under forSubgraph's marker. The GitHub integration must be
// configured.
func (s *Services) HistoryUpload(forSubgraph string, keys ...string) (*tradegraph.Subgraph, error) {
	if s.GitHub == nil {
		return nil, fmt.Errorf("history upload: github integration is not configured")
	}
	return tradegraph.NewHistoryUploadSubgraph(s.GitHub, s.Config.Branch, forSubgraph, keys...), nil
}
