package snapshot

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/aixgo-dev/agentviz/internal/observability"
	metrics "github.com/aixgo-dev/agentviz/pkg/observability"
)

// Config configures an Aggregator
type Config struct {
	// MaxConcurrent bounds the number of in-flight detail lookups (0 = unlimited)
	MaxConcurrent int
}

// Aggregator fetches the roster and fans out detail lookups in parallel.
type Aggregator struct {
	source Source
	config Config
	seq    atomic.Uint64
	now    func() time.Time
}

// NewAggregator creates an aggregator reading from source.
func NewAggregator(source Source, config Config) *Aggregator {
	return &Aggregator{
		source: source,
		config: config,
		now:    time.Now,
	}
}

// Fetch produces one snapshot. It returns only after every detail lookup has
// settled. A roster failure aborts the aggregation; a detail failure only
// degrades that agent to its fallback name and an empty tool list.
func (a *Aggregator) Fetch(ctx context.Context) (*Snapshot, error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "snapshot.fetch")

	snap, err := a.fetch(ctx)
	if err != nil {
		metrics.RecordSnapshot("error", time.Since(start))
		observability.EndSpan(span, err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("agents", len(snap.Agents)), attribute.Int64("seq", int64(snap.Seq)))
	metrics.RecordSnapshot("ok", time.Since(start))
	observability.EndSpan(span, nil)
	return snap, nil
}

func (a *Aggregator) fetch(ctx context.Context) (*Snapshot, error) {
	seq := a.seq.Add(1)

	roster, err := a.source.Roster(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRosterFetch, err)
	}

	// Each lookup owns one slot, so the join keeps roster order no matter
	// which lookup finishes first.
	agents := make([]Agent, len(roster))

	var g errgroup.Group
	if a.config.MaxConcurrent > 0 {
		g.SetLimit(a.config.MaxConcurrent)
	}
	for i, entry := range roster {
		g.Go(func() error {
			agents[i] = a.resolve(ctx, entry)
			return nil
		})
	}
	_ = g.Wait()

	return &Snapshot{
		Seq:     seq,
		Agents:  agents,
		TakenAt: a.now(),
	}, nil
}

func (a *Aggregator) resolve(ctx context.Context, entry RosterEntry) Agent {
	ctx, span := observability.StartSpan(ctx, "snapshot.detail", attribute.String("agent.id", entry.ID))

	agent := Agent{
		ID:    entry.ID,
		Name:  FallbackName(entry.ID),
		Tools: []string{},
	}

	detail, err := a.source.AgentDetail(ctx, entry.ID)
	if err != nil {
		log.Printf("[Aggregator] detail fetch for %s failed, using roster data: %v", entry.ID, err)
		metrics.RecordDetailFailure()
		observability.EndSpan(span, err)
		return agent
	}

	if detail.Name != nil && *detail.Name != "" {
		agent.Name = *detail.Name
	}
	if len(detail.Tools) > 0 {
		agent.Tools = append([]string(nil), detail.Tools...)
	}
	observability.EndSpan(span, nil)
	return agent
}
