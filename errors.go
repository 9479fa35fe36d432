package tradegraph

import (
	"errors"
	"fmt"
)

// Graph construction and execution errors.
var (
	// ErrNoEntryNode indicates the graph has no entry point set.
	ErrNoEntryNode = errors.New("graph has no entry node")

	// ErrUnknownNode indicates an edge or entry references a node that
	// was never added.
	ErrUnknownNode = errors.New("unknown node")

	// ErrDuplicateNode indicates a node name was added twice.
	ErrDuplicateNode = errors.New("duplicate node")

	// ErrNoSuccessor indicates a node has no outgoing edge and is not
	// the terminal.
	ErrNoSuccessor = errors.New("node has no outgoing edge")

	// ErrStepLimit indicates a run exceeded the step limit, usually a
	// conditional loop that never finalizes.
	ErrStepLimit = errors.New("graph step limit exceeded")

	// ErrUnknownOutcome indicates a conditional decision returned an
	// outcome with no configured route.
	ErrUnknownOutcome = errors.New("unknown decision outcome")
)

// State contract errors.
var (
	// ErrMissingStateKey indicates a required input key is absent from
	// the supplied state.
	ErrMissingStateKey = errors.New("missing required state key")

	// ErrMissingOutputKey indicates a subgraph finished without
	// producing a key its output contract guarantees.
	ErrMissingOutputKey = errors.New("missing guaranteed output key")
)

// MissingKeyError reports a state-contract violation, naming the
// subgraph and the key.
type MissingKeyError struct {
	Subgraph string
	Key      string
	Output   bool // true when an output guarantee was violated
}

func (e *MissingKeyError) Error() string {
	if e.Output {
		return fmt.Sprintf("subgraph %q did not produce guaranteed output key %q", e.Subgraph, e.Key)
	}
	return fmt.Sprintf("subgraph %q requires state key %q", e.Subgraph, e.Key)
}

func (e *MissingKeyError) Unwrap() error {
	if e.Output {
		return ErrMissingOutputKey
	}
	return ErrMissingStateKey
}
