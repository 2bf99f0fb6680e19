// Package emphasis applies short-lived highlight styles to graph edges and
// reverts them once a quiet period has passed.
package emphasis

import (
	"log"
	"sync"
	"time"

	"github.com/aixgo-dev/agentviz/internal/graph"
	metrics "github.com/aixgo-dev/agentviz/pkg/observability"
)

// DefaultDelay is how long an edge stays emphasized after its last trigger.
const DefaultDelay = time.Second

// Styler mutates the transient style of an edge. A nil style restores the
// baseline. It reports whether the edge exists.
type Styler interface {
	UpdateEdgeStyle(id string, style *graph.EdgeStyle) bool
}

// Config controls the emphasis look and timing.
type Config struct {
	Delay time.Duration
	Style graph.EdgeStyle
}

type pendingRevert struct {
	timer Timer
	gen   uint64
}

// Controller tracks one pending revert per edge. A new trigger on an edge
// replaces its pending revert, so the edge reverts only after Delay has
// elapsed since the most recent trigger.
type Controller struct {
	styler Styler
	delay  time.Duration
	style  graph.EdgeStyle
	clock  Clock

	mu      sync.Mutex
	pending map[string]pendingRevert
	gen     uint64
	stopped bool
}

// NewController creates a controller. A nil clock uses the real clock.
func NewController(styler Styler, cfg Config, clock Clock) *Controller {
	if clock == nil {
		clock = RealClock()
	}
	if cfg.Delay <= 0 {
		cfg.Delay = DefaultDelay
	}
	return &Controller{
		styler:  styler,
		delay:   cfg.Delay,
		style:   cfg.Style,
		clock:   clock,
		pending: make(map[string]pendingRevert),
	}
}

// Trigger emphasizes the edge and (re)starts its revert timer. It reports
// whether the edge exists; triggers on unknown edges change nothing.
func (c *Controller) Trigger(edgeID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return false
	}

	prev, hadPending := c.pending[edgeID]
	if hadPending {
		prev.timer.Stop()
		delete(c.pending, edgeID)
	}

	style := c.style
	if !c.styler.UpdateEdgeStyle(edgeID, &style) {
		log.Printf("[Emphasis] edge %s not in graph, ignoring trigger", edgeID)
		metrics.RecordEmphasis("missing")
		return false
	}

	c.gen++
	gen := c.gen
	c.pending[edgeID] = pendingRevert{
		timer: c.clock.AfterFunc(c.delay, func() { c.revert(edgeID, gen) }),
		gen:   gen,
	}

	if hadPending {
		metrics.RecordEmphasis("retrigger")
	} else {
		metrics.RecordEmphasis("apply")
	}
	return true
}

func (c *Controller) revert(edgeID string, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.pending[edgeID]
	if !ok || p.gen != gen {
		// superseded by a later trigger
		return
	}
	delete(c.pending, edgeID)

	if c.styler.UpdateEdgeStyle(edgeID, nil) {
		metrics.RecordEmphasis("revert")
	} else {
		metrics.RecordEmphasis("revert_missing")
	}
}

// Pending returns how many edges are waiting to revert.
func (c *Controller) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// IsEmphasized reports whether the edge has a revert scheduled.
func (c *Controller) IsEmphasized(edgeID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.pending[edgeID]
	return ok
}

// Stop cancels every pending revert and rejects further triggers. Edges that
// were emphasized keep their current style.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, p := range c.pending {
		p.timer.Stop()
		delete(c.pending, id)
	}
	c.stopped = true
}
