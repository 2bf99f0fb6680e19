// Package agentviz is a live view of a multi-agent orchestration backend: it
// keeps a graph of the orchestrator, its agents and their tools in step with
// the backend, highlights agents as they finish work, and records the
// communication transcript.
package agentviz

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/aixgo-dev/agentviz/internal/emphasis"
	"github.com/aixgo-dev/agentviz/internal/events"
	"github.com/aixgo-dev/agentviz/internal/graph"
	"github.com/aixgo-dev/agentviz/internal/render"
	"github.com/aixgo-dev/agentviz/internal/snapshot"
	"github.com/aixgo-dev/agentviz/internal/transcript"
	"github.com/aixgo-dev/agentviz/internal/view"
	"github.com/aixgo-dev/agentviz/pkg/config"
)

// ErrNoSource is returned by New when Options.Source is nil.
var ErrNoSource = errors.New("agentviz: no agent source")

// Options are the collaborators of a Viewer. Only Source is required.
type Options struct {
	Source     snapshot.Source
	Engine     render.Engine     // default: in-memory store
	Subscriber events.Subscriber // default: no event stream
	Transcript *transcript.Log   // default: log sized from config, no sink
	Clock      emphasis.Clock    // default: real clock
}

// Viewer ties the aggregator, reconciler, emphasis controller and event
// consumer together.
type Viewer struct {
	cfg        *config.Config
	aggregator *snapshot.Aggregator
	reconciler *view.Reconciler
	emphasis   *emphasis.Controller
	transcript *transcript.Log
	subscriber events.Subscriber
	router     *events.Router
	refreshes  sync.WaitGroup
}

// New creates a Viewer. A nil cfg uses config defaults.
func New(cfg *config.Config, opts Options) (*Viewer, error) {
	if opts.Source == nil {
		return nil, ErrNoSource
	}
	if cfg == nil {
		cfg = config.Default()
	}
	if opts.Engine == nil {
		opts.Engine = render.NewStoreEngine()
	}
	if opts.Subscriber == nil {
		opts.Subscriber = events.NoopSubscriber{}
	}
	if opts.Transcript == nil {
		opts.Transcript = transcript.New(cfg.Transcript.MaxEntries, nil)
	}

	layout := cfg.Layout
	if layout == nil {
		layout = config.DefaultLayout()
	}
	reconciler := view.NewReconciler(opts.Engine, render.Options(layout))

	v := &Viewer{
		cfg: cfg,
		aggregator: snapshot.NewAggregator(opts.Source, snapshot.Config{
			MaxConcurrent: cfg.Aggregation.MaxConcurrentDetails,
		}),
		reconciler: reconciler,
		emphasis: emphasis.NewController(reconciler, emphasis.Config{
			Delay: cfg.Emphasis.Delay,
			Style: graph.EdgeStyle{Color: cfg.Emphasis.Color, Width: cfg.Emphasis.Width},
		}, opts.Clock),
		transcript: opts.Transcript,
		subscriber: opts.Subscriber,
		router:     events.NewRouter(),
	}
	v.registerHandlers()
	return v, nil
}

// FetchAndRenderAgents aggregates a fresh snapshot and reconciles it into
// the graph. On aggregation failure the graph is left as it was and the
// error is returned. A snapshot overtaken by a newer one is dropped.
func (v *Viewer) FetchAndRenderAgents(ctx context.Context) error {
	snap, err := v.aggregator.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetching agents: %w", err)
	}
	if err := v.reconciler.Reconcile(ctx, snap); err != nil {
		if errors.Is(err, view.ErrStaleSnapshot) {
			log.Printf("[Viewer] dropping superseded snapshot: %v", err)
			return nil
		}
		return fmt.Errorf("rendering agents: %w", err)
	}
	log.Printf("[Viewer] rendered %d agents", len(snap.Agents))
	return nil
}

// OnAgentTaskCompleted emphasizes the edge from the orchestrator to the
// agent. It reports whether the agent is in the graph.
func (v *Viewer) OnAgentTaskCompleted(agentID string) bool {
	return v.emphasis.Trigger(graph.AgentEdgeID(agentID))
}

// Run subscribes to the event stream and handles events until ctx ends or
// the stream closes. Pending emphasis reverts are cancelled on return, and
// Run waits for background refreshes to finish.
func (v *Viewer) Run(ctx context.Context) error {
	ch, cancel, err := v.subscriber.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribing to events: %w", err)
	}
	defer v.refreshes.Wait()
	defer cancel()
	defer v.emphasis.Stop()

	if spec := v.cfg.Refresh.Schedule; spec != "" {
		c := cron.New()
		if _, err := c.AddFunc(spec, func() {
			if err := v.FetchAndRenderAgents(ctx); err != nil {
				log.Printf("[Viewer] scheduled refresh failed: %v", err)
			}
		}); err != nil {
			return fmt.Errorf("scheduling refresh %q: %w", spec, err)
		}
		c.Start()
		defer c.Stop()
	}

	err = events.NewConsumer(v.router).Run(ctx, ch)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// HandleEvent routes a single event as if it had arrived on the stream.
func (v *Viewer) HandleEvent(ctx context.Context, ev events.Event) error {
	return v.router.Handle(ctx, ev)
}

// Data returns the current graph contents.
func (v *Viewer) Data() render.Data {
	return v.reconciler.Data()
}

// Transcript returns the communication log.
func (v *Viewer) Transcript() *transcript.Log {
	return v.transcript
}

// Emphasis returns the edge emphasis controller.
func (v *Viewer) Emphasis() *emphasis.Controller {
	return v.emphasis
}

// Routes returns the HTTP handlers the viewer serves itself.
func (v *Viewer) Routes() map[string]http.Handler {
	return map[string]http.Handler{
		"/transcript": v.transcript,
	}
}
