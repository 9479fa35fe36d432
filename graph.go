package tradegraph

import (
	"context"
	"fmt"
)

// End is the terminal edge target. Routing a node to End finishes the
// run.
const End = "__end__"

// defaultMaxSteps bounds a single run. A conditional loop that never
// routes to End trips this rather than spinning forever.
const defaultMaxSteps = 200

// edge routes a node to its successor. A plain edge has an empty
// routes map; a conditional edge maps decision outcomes to successors.
type edge struct {
	next   string
	routes map[string]string
}

// Router picks an outcome from the state after its node runs. The
// outcome selects the successor from the routes configured with
// AddConditional.
type Router func(ctx context.Context, state State) (string, error)

// Graph accumulates nodes and edges. Construction errors are deferred
// and surfaced by Compile so call sites can chain builder calls.
type Graph struct {
	nodes   map[string]NodeFunc
	order   []string
	edges   map[string]edge
	routers map[string]Router
	entry   string
	err     error
}

// NewGraph returns an empty graph builder.
func NewGraph() *Graph {
	return &Graph{
		nodes:   make(map[string]NodeFunc),
		edges:   make(map[string]edge),
		routers: make(map[string]Router),
	}
}

func (g *Graph) fail(err error) *Graph {
	if g.err == nil {
		g.err = err
	}
	return g
}

// AddNode registers a named node. Names must be unique within the
// graph.
func (g *Graph) AddNode(name string, fn NodeFunc) *Graph {
	if g.err != nil {
		return g
	}
	if name == "" || name == End {
		return g.fail(fmt.Errorf("invalid node name %q", name))
	}
	if _, ok := g.nodes[name]; ok {
		return g.fail(fmt.Errorf("%w: %q", ErrDuplicateNode, name))
	}
	g.nodes[name] = fn
	g.order = append(g.order, name)
	return g
}

// AddEdge routes from unconditionally to to. to may be End.
func (g *Graph) AddEdge(from, to string) *Graph {
	if g.err != nil {
		return g
	}
	g.edges[from] = edge{next: to}
	return g
}

// AddConditional routes from through router: after from runs, router
// picks an outcome and the matching entry in routes names the
// successor. Outcomes may route to End.
func (g *Graph) AddConditional(from string, router Router, routes map[string]string) *Graph {
	if g.err != nil {
		return g
	}
	copied := make(map[string]string, len(routes))
	for outcome, to := range routes {
		copied[outcome] = to
	}
	g.edges[from] = edge{routes: copied}
	g.routers[from] = router
	return g
}

// SetEntry names the node a run starts from.
func (g *Graph) SetEntry(name string) *Graph {
	if g.err != nil {
		return g
	}
	g.entry = name
	return g
}

// Compile validates the graph and freezes it for execution: the entry
// must be set, every edge endpoint must exist, and every node must have
// a successor.
func (g *Graph) Compile() (*CompiledGraph, error) {
	if g.err != nil {
		return nil, g.err
	}
	if g.entry == "" {
		return nil, ErrNoEntryNode
	}
	if _, ok := g.nodes[g.entry]; !ok {
		return nil, fmt.Errorf("%w: entry %q", ErrUnknownNode, g.entry)
	}
	for from, e := range g.edges {
		if _, ok := g.nodes[from]; !ok {
			return nil, fmt.Errorf("%w: edge from %q", ErrUnknownNode, from)
		}
		targets := []string{e.next}
		if e.routes != nil {
			targets = targets[:0]
			for _, to := range e.routes {
				targets = append(targets, to)
			}
		}
		for _, to := range targets {
			if to == End {
				continue
			}
			if _, ok := g.nodes[to]; !ok {
				return nil, fmt.Errorf("%w: edge %q -> %q", ErrUnknownNode, from, to)
			}
		}
	}
	for _, name := range g.order {
		if _, ok := g.edges[name]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrNoSuccessor, name)
		}
	}
	return &CompiledGraph{
		nodes:    g.nodes,
		edges:    g.edges,
		routers:  g.routers,
		entry:    g.entry,
		maxSteps: defaultMaxSteps,
	}, nil
}

// CompiledGraph is a validated, immutable graph ready to run. It is
// safe for concurrent use; each Run owns its own state.
type CompiledGraph struct {
	nodes    map[string]NodeFunc
	edges    map[string]edge
	routers  map[string]Router
	entry    string
	maxSteps int
}

// Run executes the graph from its entry node, threading state through
// each node until a route reaches End. The input state is not mutated;
// the final state is returned. The first node error aborts the run.
func (cg *CompiledGraph) Run(ctx context.Context, state State) (State, error) {
	current := cg.entry
	s := state.Clone()

	for step := 0; ; step++ {
		if step >= cg.maxSteps {
			return s, fmt.Errorf("%w: %d steps at node %q", ErrStepLimit, cg.maxSteps, current)
		}
		if err := ctx.Err(); err != nil {
			return s, err
		}

		next, err := cg.nodes[current](ctx, s)
		if err != nil {
			return s, fmt.Errorf("node %q: %w", current, err)
		}
		if next != nil {
			s = next
		}

		e := cg.edges[current]
		to := e.next
		if router, ok := cg.routers[current]; ok {
			outcome, err := router(ctx, s)
			if err != nil {
				return s, fmt.Errorf("routing after %q: %w", current, err)
			}
			to, ok = e.routes[outcome]
			if !ok {
				return s, fmt.Errorf("%w: %q after node %q", ErrUnknownOutcome, outcome, current)
			}
		}
		if to == End {
			return s, nil
		}
		current = to
	}
}
