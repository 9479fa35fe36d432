// Package services wires configuration into the concrete clients the
// pipeline nodes depend on.
//
// Core types:
//   - Services: collection of all pipeline clients
//   - New: builds Services from a config.Config, gated on API keys
//
// Subgraph constructors:
//   - Retrieve: query generation and paper-title retrieval
//   - CreateMethod: iterative method generation and novelty verification
//   - HistoryUpload: research-history persistence to GitHub
//
// Example usage:
//
//	cfg, _ := config.Load("tradegraph.yaml")
//	svc, err := services.New(cfg)
//	if err != nil {
//	    // missing API keys are reported together, with help URLs
//	}
//	sub, _ := svc.Retrieve()
//	state, err := sub.Run(ctx, tradegraph.State{"research_topic": topic})
package services
