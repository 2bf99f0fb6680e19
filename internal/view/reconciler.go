// Package view turns aggregated snapshots into the live graph model and keeps
// the rendering engine's view in step with it.
package view

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"go.opentelemetry.io/otel/attribute"

	"github.com/aixgo-dev/agentviz/internal/graph"
	"github.com/aixgo-dev/agentviz/internal/observability"
	"github.com/aixgo-dev/agentviz/internal/render"
	"github.com/aixgo-dev/agentviz/internal/snapshot"
	metrics "github.com/aixgo-dev/agentviz/pkg/observability"
)

// ErrStaleSnapshot is returned when a snapshot older than the last applied one
// arrives; the graph is left untouched.
var ErrStaleSnapshot = errors.New("stale snapshot")

// Reconciler owns the graph model and the engine's view. The view is created
// on the first successful reconcile and reused afterwards.
type Reconciler struct {
	mu           sync.Mutex
	model        *graph.Model
	engine       render.Engine
	opts         render.Options
	view         render.View
	orchestrator graph.Node
	lastSeq      uint64
}

// NewReconciler creates a reconciler over an empty model. The orchestrator
// node is created here, once.
func NewReconciler(engine render.Engine, opts render.Options) *Reconciler {
	model := graph.NewModel()
	orchestrator := graph.NewNode(graph.OrchestratorID, graph.KindOrchestrator, "Orchestrator")
	model.UpsertNode(orchestrator)

	return &Reconciler{
		model:        model,
		engine:       engine,
		opts:         opts,
		orchestrator: orchestrator,
	}
}

// Reconcile replaces the graph with the contents of snap, then pushes the new
// dataset to the view (creating it on first use).
func (r *Reconciler) Reconcile(ctx context.Context, snap *snapshot.Snapshot) error {
	_, span := observability.StartSpan(ctx, "view.reconcile",
		attribute.Int64("seq", int64(snap.Seq)),
		attribute.Int("agents", len(snap.Agents)))

	err := r.reconcile(snap)
	observability.EndSpan(span, err)
	return err
}

func (r *Reconciler) reconcile(snap *snapshot.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if snap.Seq < r.lastSeq {
		return fmt.Errorf("%w: seq %d, already applied %d", ErrStaleSnapshot, snap.Seq, r.lastSeq)
	}

	nodes, edges := Build(r.orchestrator, snap)
	r.carryTransient(edges)
	if err := r.model.ReplaceAll(nodes, edges); err != nil {
		return fmt.Errorf("replacing graph: %w", err)
	}
	r.lastSeq = snap.Seq
	metrics.SetGraphSize(len(nodes), len(edges))

	data := render.Data{Nodes: r.model.Nodes(), Edges: r.model.Edges()}
	if r.view == nil {
		v, err := r.engine.Create(data, r.opts)
		if err != nil {
			return fmt.Errorf("creating view: %w", err)
		}
		r.view = v
		return nil
	}
	if err := r.view.SetData(data); err != nil {
		return fmt.Errorf("updating view: %w", err)
	}
	return nil
}

// carryTransient keeps the transient style of edges that survive the
// replace, so an emphasis in progress outlasts a refresh. Its pending revert
// still clears it.
func (r *Reconciler) carryTransient(edges []graph.Edge) {
	for i := range edges {
		prev, ok := r.model.Edge(edges[i].ID)
		if !ok || prev.Transient == nil {
			continue
		}
		t := *prev.Transient
		edges[i].Transient = &t
	}
}

// Build lays out the nodes and edges for a snapshot: the orchestrator, then
// per agent (in snapshot order) the agent node, its orchestrator edge, and
// each tool node with its agent edge. Ids depend only on agent id and tool
// index, so an unchanged snapshot always builds identical collections.
func Build(orchestrator graph.Node, snap *snapshot.Snapshot) ([]graph.Node, []graph.Edge) {
	nodes := []graph.Node{orchestrator}
	var edges []graph.Edge

	for _, agent := range snap.Agents {
		nodes = append(nodes, graph.NewNode(agent.ID, graph.KindAgent, agent.Name))
		edges = append(edges, graph.Edge{
			ID:       graph.AgentEdgeID(agent.ID),
			From:     orchestrator.ID,
			To:       agent.ID,
			Baseline: graph.AgentEdgeStyle(),
		})

		for i, tool := range agent.Tools {
			toolID := graph.ToolNodeID(agent.ID, i)
			nodes = append(nodes, graph.NewNode(toolID, graph.KindTool, tool))
			edges = append(edges, graph.Edge{
				ID:       graph.ToolEdgeID(agent.ID, toolID),
				From:     agent.ID,
				To:       toolID,
				Baseline: graph.ToolEdgeStyle(),
			})
		}
	}
	return nodes, edges
}

// UpdateEdgeStyle sets (or, with nil, clears) the transient style of an edge
// and forwards the effective style to the view. It reports whether the edge
// exists; a missing edge changes nothing.
func (r *Reconciler) UpdateEdgeStyle(id string, style *graph.EdgeStyle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.model.UpdateEdgeStyle(id, style) {
		return false
	}
	if r.view == nil {
		return true
	}
	edge, _ := r.model.Edge(id)
	if err := r.view.UpdateEdge(id, edge.Effective()); err != nil {
		log.Printf("[Reconciler] view update for edge %s failed: %v", id, err)
	}
	return true
}

// Data returns the current node/edge collection.
func (r *Reconciler) Data() render.Data {
	return render.Data{Nodes: r.model.Nodes(), Edges: r.model.Edges()}
}

// Model exposes the underlying graph model for reads.
func (r *Reconciler) Model() *graph.Model {
	return r.model
}

// HasView reports whether the engine view has been created.
func (r *Reconciler) HasView() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.view != nil
}
