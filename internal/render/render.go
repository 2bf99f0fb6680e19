// Package render defines the rendering engine contract the reconciler drives.
// It ships a text tree writer, an in-memory store that backs the HTTP graph
// endpoint, and Tee to drive several engines together.
package render

import "github.com/aixgo-dev/agentviz/internal/graph"

// Data is a node/edge collection handed to an engine.
type Data struct {
	Nodes []graph.Node `json:"nodes"`
	Edges []graph.Edge `json:"edges"`
}

// Options are passed through to the engine untouched (layout, physics,
// interaction settings).
type Options map[string]any

// Engine creates views. A view is created once per session and then updated
// in place, so pan/zoom/layout state held by the engine survives refreshes.
type Engine interface {
	Create(data Data, opts Options) (View, error)
}

// View is a live rendering bound to one dataset.
type View interface {
	// SetData replaces the dataset in place.
	SetData(data Data) error

	// UpdateEdge applies a style to one edge.
	UpdateEdge(id string, style graph.EdgeStyle) error
}
