package tradegraph

import (
	"context"
	"errors"
	"testing"
)

func appendNode(key, value string) NodeFunc {
	return func(ctx context.Context, state State) (State, error) {
		order, _ := state.Strings("order")
		state["order"] = append(order, value)
		state[key] = value
		return state, nil
	}
}

func TestGraph_RunLinearChain(t *testing.T) {
	g, err := NewGraph().
		AddNode("first", appendNode("a", "first")).
		AddNode("second", appendNode("b", "second")).
		AddNode("third", appendNode("c", "third")).
		AddEdge("first", "second").
		AddEdge("second", "third").
		AddEdge("third", End).
		SetEntry("first").
		Compile()
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	state, err := g.Run(context.Background(), State{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	order, _ := state.Strings("order")
	if len(order) != 3 || order[0] != "first" || order[1] != "second" || order[2] != "third" {
		t.Errorf("execution order = %v", order)
	}
}

func TestGraph_RunDoesNotMutateInput(t *testing.T) {
	g, err := NewGraph().
		AddNode("only", appendNode("k", "v")).
		AddEdge("only", End).
		SetEntry("only").
		Compile()
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	in := State{"seed": 1}
	if _, err := g.Run(context.Background(), in); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if _, ok := in["k"]; ok {
		t.Error("Run() mutated the input state")
	}
}

func TestGraph_NodeErrorAborts(t *testing.T) {
	wantErr := errors.New("node failed")
	ran := false
	g, err := NewGraph().
		AddNode("fails", func(ctx context.Context, state State) (State, error) {
			return nil, wantErr
		}).
		AddNode("after", func(ctx context.Context, state State) (State, error) {
			ran = true
			return state, nil
		}).
		AddEdge("fails", "after").
		AddEdge("after", End).
		SetEntry("fails").
		Compile()
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	_, err = g.Run(context.Background(), State{})
	if !errors.Is(err, wantErr) {
		t.Fatalf("Run() error = %v, want %v", err, wantErr)
	}
	if ran {
		t.Error("successor ran after a failing node")
	}
}

func TestGraph_Conditional(t *testing.T) {
	router := func(ctx context.Context, state State) (string, error) {
		n, _ := state.Int("n")
		if n >= 3 {
			return OutcomeFinalize, nil
		}
		return OutcomeContinue, nil
	}

	g, err := NewGraph().
		AddNode("step", func(ctx context.Context, state State) (State, error) {
			n, _ := state.Int("n")
			state["n"] = n + 1
			return state, nil
		}).
		AddNode("finish", appendNode("finished", "yes")).
		AddConditional("step", router, map[string]string{
			OutcomeContinue: "step",
			OutcomeFinalize: "finish",
		}).
		AddEdge("finish", End).
		SetEntry("step").
		Compile()
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	state, err := g.Run(context.Background(), State{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if n, _ := state.Int("n"); n != 3 {
		t.Errorf("n = %d, want 3", n)
	}
	if state["finished"] != "yes" {
		t.Error("finish node did not run")
	}
}

func TestGraph_UnknownOutcome(t *testing.T) {
	g, err := NewGraph().
		AddNode("step", appendNode("k", "v")).
		AddConditional("step",
			func(ctx context.Context, state State) (string, error) { return "sideways", nil },
			map[string]string{OutcomeFinalize: End}).
		SetEntry("step").
		Compile()
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	_, err = g.Run(context.Background(), State{})
	if !errors.Is(err, ErrUnknownOutcome) {
		t.Errorf("Run() error = %v, want ErrUnknownOutcome", err)
	}
}

func TestGraph_StepLimit(t *testing.T) {
	g, err := NewGraph().
		AddNode("loop", appendNode("k", "v")).
		AddEdge("loop", "loop").
		SetEntry("loop").
		Compile()
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	_, err = g.Run(context.Background(), State{})
	if !errors.Is(err, ErrStepLimit) {
		t.Errorf("Run() error = %v, want ErrStepLimit", err)
	}
}

func TestGraph_RunHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g, err := NewGraph().
		AddNode("step", appendNode("k", "v")).
		AddEdge("step", End).
		SetEntry("step").
		Compile()
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	if _, err := g.Run(ctx, State{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func TestGraph_CompileErrors(t *testing.T) {
	noop := func(ctx context.Context, state State) (State, error) { return state, nil }

	tests := []struct {
		name  string
		graph *Graph
		want  error
	}{
		{
			name:  "no entry",
			graph: NewGraph().AddNode("a", noop).AddEdge("a", End),
			want:  ErrNoEntryNode,
		},
		{
			name:  "unknown entry",
			graph: NewGraph().AddNode("a", noop).AddEdge("a", End).SetEntry("missing"),
			want:  ErrUnknownNode,
		},
		{
			name:  "duplicate node",
			graph: NewGraph().AddNode("a", noop).AddNode("a", noop),
			want:  ErrDuplicateNode,
		},
		{
			name:  "edge to unknown node",
			graph: NewGraph().AddNode("a", noop).AddEdge("a", "ghost").SetEntry("a"),
			want:  ErrUnknownNode,
		},
		{
			name:  "node without successor",
			graph: NewGraph().AddNode("a", noop).AddNode("b", noop).AddEdge("a", "b").SetEntry("a"),
			want:  ErrNoSuccessor,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.graph.Compile(); !errors.Is(err, tt.want) {
				t.Errorf("Compile() error = %v, want %v", err, tt.want)
			}
		})
	}
}
