package tradegraph

import (
	"github.com/wkumagai/TradeGraph-sub001/arxiv"
	"github.com/wkumagai/TradeGraph-sub001/papers"
	"github.com/wkumagai/TradeGraph-sub001/prompt"
	"github.com/wkumagai/TradeGraph-sub001/scholar"
)

// RetrieveDeps are the collaborators of the retrieval subgraph. The
// Searcher is optional; when set, a web-search pass extends the titles
// collected from the static indexes.
type RetrieveDeps struct {
	Generator  StructuredGenerator
	Prompts    *prompt.Loader
	Fetcher    *papers.Fetcher
	IndexURLs  []string
	NumQueries int

	Searcher      Searcher
	Venues        []string
	MaxWebResults int
}

// NewRetrieveSubgraph builds the retrieval subgraph: generate search
// queries for the research topic, then collect matching paper titles
// from the static indexes and, optionally, web search.
func NewRetrieveSubgraph(deps RetrieveDeps) (*Subgraph, error) {
	const name = "retrieve"

	n := deps.NumQueries
	if n <= 0 {
		n = 5
	}

	b := NewGraph().
		AddNode("generate_queries",
			WithTiming(name, "generate_queries", GenerateQueriesNode(deps.Generator, deps.Prompts, n))).
		AddNode("fetch_titles",
			WithTiming(name, "fetch_titles", FetchTitlesNode(deps.Fetcher, deps.IndexURLs))).
		AddEdge("generate_queries", "fetch_titles").
		SetEntry("generate_queries")

	if deps.Searcher != nil {
		b = b.AddNode("web_search_titles",
			WithTiming(name, "web_search_titles", WebSearchTitlesNode(deps.Searcher, deps.Prompts, deps.Venues, deps.MaxWebResults))).
			AddEdge("fetch_titles", "web_search_titles").
			AddEdge("web_search_titles", End)
	} else {
		b = b.AddEdge("fetch_titles", End)
	}

	g, err := b.Compile()
	if err != nil {
		return nil, err
	}

	return NewSubgraph(name, g,
		WithInputs("research_topic"),
		WithOutputs("queries", "paper_titles")), nil
}

// SummarizeDeps are the collaborators of the paper-summary subgraph.
type SummarizeDeps struct {
	Arxiv     *arxiv.Client
	Scholar   *scholar.Client
	Generator TextGenerator
	Prompts   *prompt.Loader
	MaxPapers int
}

// NewSummarizeSubgraph builds the subgraph that resolves collected
// titles to papers and summarizes them for novelty verification.
func NewSummarizeSubgraph(deps SummarizeDeps) (*Subgraph, error) {
	const name = "summarize"

	g, err := NewGraph().
		AddNode("related_papers",
			WithTiming(name, "related_papers", RelatedPapersNode(deps.Arxiv, deps.Scholar, deps.Generator, deps.Prompts, deps.MaxPapers))).
		AddEdge("related_papers", End).
		SetEntry("related_papers").
		Compile()
	if err != nil {
		return nil, err
	}

	return NewSubgraph(name, g,
		WithInputs("paper_titles"),
		WithOutputs("related_papers")), nil
}

// CreateMethodDeps are the collaborators of the method-creation loop.
type CreateMethodDeps struct {
	Generator        TextGenerator
	Prompts          *prompt.Loader
	MaxIterations    int
	NoveltyThreshold float64
}

// NewCreateMethodSubgraph builds the iterative method-creation loop:
// generate a candidate method, verify its novelty, then either refine
// and loop or finalize. The continue/finalize choice follows the
// decision ladder in Decider.
func NewCreateMethodSubgraph(deps CreateMethodDeps) (*Subgraph, error) {
	const name = "create_method"

	decider := &Decider{
		MaxIterations:    deps.MaxIterations,
		NoveltyThreshold: deps.NoveltyThreshold,
		Client:           deps.Generator,
	}

	g, err := NewGraph().
		AddNode("generate_method",
			WithTiming(name, "generate_method", GenerateMethodNode(deps.Generator, deps.Prompts))).
		AddNode("verify_novelty",
			WithTiming(name, "verify_novelty", VerifyNoveltyNode(deps.Generator, deps.Prompts))).
		AddNode("refine_feedback",
			WithTiming(name, "refine_feedback", RefinementFeedbackNode(deps.Generator, deps.Prompts))).
		AddEdge("generate_method", "verify_novelty").
		AddConditional("verify_novelty", decider.Router(), map[string]string{
			OutcomeContinue: "refine_feedback",
			OutcomeFinalize: End,
		}).
		AddEdge("refine_feedback", "generate_method").
		SetEntry("generate_method").
		Compile()
	if err != nil {
		return nil, err
	}

	return NewSubgraph(name, g,
		WithInputs("base_method"),
		WithOptionalInputs("related_papers"),
		WithOutputs("method", "is_novel")), nil
}

// IndexDeps are the collaborators of the method-index subgraph.
type IndexDeps struct {
	Embedder       Embedder
	Store          VectorStore
	Collection     string
	EmbeddingModel string
	MaxSimilar     int
}

// NewIndexMethodSubgraph builds the subgraph that records the finalized
// method in the vector store: look up the nearest stored methods first,
// then upsert the new one.
func NewIndexMethodSubgraph(deps IndexDeps) (*Subgraph, error) {
	const name = "index_method"

	limit := deps.MaxSimilar
	if limit <= 0 {
		limit = 5
	}

	g, err := NewGraph().
		AddNode("similar_methods",
			WithTiming(name, "similar_methods", SimilarMethodsNode(deps.Embedder, deps.Store, deps.Collection, deps.EmbeddingModel, limit))).
		AddNode("index_method",
			WithTiming(name, "index_method", IndexMethodNode(deps.Embedder, deps.Store, deps.Collection, deps.EmbeddingModel))).
		AddEdge("similar_methods", "index_method").
		AddEdge("index_method", End).
		SetEntry("similar_methods").
		Compile()
	if err != nil {
		return nil, err
	}

	return NewSubgraph(name, g,
		WithInputs("method"),
		WithOptionalInputs("research_topic"),
		WithOutputs("similar_methods", "method_point_id")), nil
}

// NewHistoryUploadSubgraph builds the persistence subgraph: overlay the
// named state keys onto the stored research history and commit the
// merged document under forSubgraph's commit marker.
func NewHistoryUploadSubgraph(store HistoryStore, branch, forSubgraph string, keys ...string) *Subgraph {
	const name = "history_upload"

	g, err := NewGraph().
		AddNode("upload_history",
			WithTiming(name, "upload_history", UploadHistoryNode(store, branch, forSubgraph, keys...))).
		AddEdge("upload_history", End).
		SetEntry("upload_history").
		Compile()
	if err != nil {
		// The graph above is static; a compile failure is a programming
		// error.
		panic(err)
	}

	return NewSubgraph(name, g,
		WithInputs(keys...),
		WithOutputs("research_history"))
}
