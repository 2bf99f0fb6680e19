package events

import (
	"context"
	"log"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/aixgo-dev/agentviz/internal/observability"
	metrics "github.com/aixgo-dev/agentviz/pkg/observability"
)

// Handler processes one event.
type Handler func(ctx context.Context, ev Event) error

// Router maps event kinds to handlers. Register every handler before the
// router is handed to a Consumer.
type Router struct {
	handlers map[string]Handler
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{handlers: make(map[string]Handler)}
}

// On registers h for kind, replacing any previous handler.
func (r *Router) On(kind string, h Handler) {
	r.handlers[kind] = h
}

// Kinds lists the registered kinds, sorted.
func (r *Router) Kinds() []string {
	kinds := make([]string, 0, len(r.handlers))
	for k := range r.handlers {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Handle dispatches ev. Unknown kinds are logged and ignored.
func (r *Router) Handle(ctx context.Context, ev Event) error {
	h, ok := r.handlers[ev.Kind]
	if !ok {
		log.Printf("[Events] ignoring unknown event kind %q", ev.Kind)
		metrics.RecordEvent("unknown")
		return nil
	}
	metrics.RecordEvent(ev.Kind)
	return h(ctx, ev)
}

// Consumer drains an event channel through a Router, one event at a time.
type Consumer struct {
	router *Router
}

// NewConsumer creates a consumer for router.
func NewConsumer(router *Router) *Consumer {
	return &Consumer{router: router}
}

// Run handles events in delivery order until the channel closes or ctx ends.
// Handler errors are logged and never stop the loop.
func (c *Consumer) Run(ctx context.Context, events <-chan Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			c.handle(ctx, ev)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, ev Event) {
	start := time.Now()
	spanCtx, span := observability.StartSpan(ctx, "events.handle", attribute.String("event.kind", ev.Kind))
	err := c.router.Handle(spanCtx, ev)
	observability.EndSpan(span, err)

	if err != nil {
		log.Printf("[Events] %s handler failed after %v: %v", ev.Kind, time.Since(start), err)
	}
}
