// Package graph provides the in-memory node/edge model of the orchestration
// graph: the orchestrator, its agents and the tools each agent owns.
package graph

import (
	"fmt"
	"sync"
)

// Node is a vertex of the orchestration graph.
type Node struct {
	ID    string    `json:"id"`
	Kind  Kind      `json:"kind"`
	Label string    `json:"label"`
	Style NodeStyle `json:"style"`
}

// NewNode creates a node whose style is derived from its kind.
func NewNode(id string, kind Kind, label string) Node {
	return Node{
		ID:    id,
		Kind:  kind,
		Label: label,
		Style: StyleFor(kind, id),
	}
}

// Edge connects two nodes. Transient, when set, overrides Baseline.
type Edge struct {
	ID        string     `json:"id"`
	From      string     `json:"from"`
	To        string     `json:"to"`
	Baseline  EdgeStyle  `json:"baseline"`
	Transient *EdgeStyle `json:"transient,omitempty"`
}

// Effective returns the style currently in force for the edge.
func (e Edge) Effective() EdgeStyle {
	if e.Transient != nil {
		return *e.Transient
	}
	return e.Baseline
}

func (e Edge) clone() Edge {
	if e.Transient != nil {
		t := *e.Transient
		e.Transient = &t
	}
	return e
}

// Model is the node/edge collection bound to a rendering engine. It keeps
// insertion order so repeated reads of an unchanged model are identical.
// All methods are safe for concurrent use; each one is a single discrete step.
type Model struct {
	mu        sync.RWMutex
	nodes     map[string]Node
	nodeOrder []string
	edges     map[string]Edge
	edgeOrder []string
}

// NewModel creates an empty model.
func NewModel() *Model {
	return &Model{
		nodes: make(map[string]Node),
		edges: make(map[string]Edge),
	}
}

// UpsertNode inserts or replaces a node by id.
func (m *Model) UpsertNode(n Node) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.nodes[n.ID]; !exists {
		m.nodeOrder = append(m.nodeOrder, n.ID)
	}
	m.nodes[n.ID] = n
}

// UpsertEdge inserts or replaces an edge by id. Both endpoints must already
// be present.
func (m *Model) UpsertEdge(e Edge) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := checkEndpoints(e, m.nodes); err != nil {
		return err
	}
	if _, exists := m.edges[e.ID]; !exists {
		m.edgeOrder = append(m.edgeOrder, e.ID)
	}
	m.edges[e.ID] = e.clone()
	return nil
}

// ReplaceAll swaps the full node and edge collections. Nothing is changed if
// the new collections are inconsistent.
func (m *Model) ReplaceAll(nodes []Node, edges []Edge) error {
	nodeMap := make(map[string]Node, len(nodes))
	nodeOrder := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if _, dup := nodeMap[n.ID]; dup {
			return fmt.Errorf("%w: node %q", ErrDuplicateID, n.ID)
		}
		nodeMap[n.ID] = n
		nodeOrder = append(nodeOrder, n.ID)
	}

	edgeMap := make(map[string]Edge, len(edges))
	edgeOrder := make([]string, 0, len(edges))
	for _, e := range edges {
		if _, dup := edgeMap[e.ID]; dup {
			return fmt.Errorf("%w: edge %q", ErrDuplicateID, e.ID)
		}
		if err := checkEndpoints(e, nodeMap); err != nil {
			return err
		}
		edgeMap[e.ID] = e.clone()
		edgeOrder = append(edgeOrder, e.ID)
	}

	m.mu.Lock()
	m.nodes, m.nodeOrder = nodeMap, nodeOrder
	m.edges, m.edgeOrder = edgeMap, edgeOrder
	m.mu.Unlock()
	return nil
}

// UpdateEdgeStyle sets the transient style of an existing edge; nil restores
// the baseline. It reports whether the edge exists. A missing edge is not an
// error: emphasis timers routinely outlive the edges they target.
func (m *Model) UpdateEdgeStyle(id string, style *EdgeStyle) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.edges[id]
	if !ok {
		return false
	}
	if style == nil {
		e.Transient = nil
	} else {
		s := *style
		e.Transient = &s
	}
	m.edges[id] = e
	return true
}

// Node returns the node with the given id.
func (m *Model) Node(id string) (Node, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.nodes[id]
	return n, ok
}

// Edge returns a copy of the edge with the given id.
func (m *Model) Edge(id string) (Edge, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.edges[id]
	if !ok {
		return Edge{}, false
	}
	return e.clone(), true
}

// Nodes returns a copy of all nodes in insertion order.
func (m *Model) Nodes() []Node {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Node, 0, len(m.nodeOrder))
	for _, id := range m.nodeOrder {
		out = append(out, m.nodes[id])
	}
	return out
}

// Edges returns a copy of all edges in insertion order.
func (m *Model) Edges() []Edge {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Edge, 0, len(m.edgeOrder))
	for _, id := range m.edgeOrder {
		out = append(out, m.edges[id].clone())
	}
	return out
}

// Len returns the number of nodes and edges.
func (m *Model) Len() (nodes, edges int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.nodes), len(m.edges)
}

func checkEndpoints(e Edge, nodes map[string]Node) error {
	if _, ok := nodes[e.From]; !ok {
		return &EdgeError{EdgeID: e.ID, Missing: e.From}
	}
	if _, ok := nodes[e.To]; !ok {
		return &EdgeError{EdgeID: e.ID, Missing: e.To}
	}
	return nil
}
