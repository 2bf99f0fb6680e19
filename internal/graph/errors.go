package graph

import (
	"errors"
	"fmt"
)

var (
	// ErrDanglingEdge is returned when an edge references a node that is not in the graph.
	ErrDanglingEdge = errors.New("edge references missing node")

	// ErrDuplicateID is returned when a bulk replace contains the same id twice.
	ErrDuplicateID = errors.New("duplicate id")
)

// EdgeError provides detail about an edge rejected by the model.
type EdgeError struct {
	EdgeID  string
	Missing string
}

// Error returns a human-readable description of the rejected edge.
func (e *EdgeError) Error() string {
	return fmt.Sprintf("edge %q references missing node %q", e.EdgeID, e.Missing)
}

// Unwrap returns the base error for errors.Is compatibility.
func (e *EdgeError) Unwrap() error {
	return ErrDanglingEdge
}
