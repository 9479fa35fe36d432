// Package tradegraph provides the workflow execution core for an
// automated research pipeline: LLM-driven subgraphs that generate
// research queries, fetch and filter papers, iterate on method creation,
// and persist results to source control.
//
// The package is organized into subpackages by domain:
//
//   - http: shared HTTP client base, response parser, API error types
//   - retry: shared retry policy with typed retryable/fatal classification
//   - llm: provider facade (generation, structured output, embedding, search)
//   - github: GitHub REST surface and research-history persistence
//   - arxiv, scholar, openalex: academic metadata clients
//   - qdrant: vector store client
//   - papers: concurrent paper-index fetching
//   - config: environment loading and API-key gating
//   - prompt: prompt template loading
//   - services: dependency injection for node implementations
//
// The root package holds the graph model itself: State, NodeFunc and its
// wrappers, Graph/Subgraph composition, and the conditional decision
// node used by iterative generation loops.
//
// # Quick Start
//
//	g, err := tradegraph.NewGraph().
//		AddNode("generate_queries", queriesNode).
//		AddNode("fetch_titles", titlesNode).
//		AddEdge("generate_queries", "fetch_titles").
//		AddEdge("fetch_titles", tradegraph.End).
//		SetEntry("generate_queries").
//		Compile()
//
//	sub := tradegraph.NewSubgraph("retrieve", g,
//		tradegraph.WithInputs("research_topic"),
//		tradegraph.WithOutputs("queries", "paper_titles"))
//
//	state, err := sub.Run(ctx, tradegraph.State{"research_topic": topic})
package tradegraph
