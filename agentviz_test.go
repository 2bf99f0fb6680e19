package agentviz

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aixgo-dev/agentviz/internal/emphasis"
	"github.com/aixgo-dev/agentviz/internal/events"
	"github.com/aixgo-dev/agentviz/internal/render"
	"github.com/aixgo-dev/agentviz/internal/snapshot"
	"github.com/aixgo-dev/agentviz/internal/transcript"
	"github.com/aixgo-dev/agentviz/pkg/config"
)

type fakeSource struct {
	mu        sync.Mutex
	roster    []snapshot.RosterEntry
	details   map[string]snapshot.Detail
	rosterErr error

	// gate, when set, holds every roster call until closed
	gate chan struct{}
}

func (f *fakeSource) Roster(ctx context.Context) ([]snapshot.RosterEntry, error) {
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.roster, f.rosterErr
}

func (f *fakeSource) AgentDetail(ctx context.Context, id string) (snapshot.Detail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.details[id]
	if !ok {
		return snapshot.Detail{}, errors.New("not found")
	}
	return d, nil
}

func (f *fakeSource) set(roster []snapshot.RosterEntry, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roster, f.rosterErr = roster, err
}

func strp(s string) *string { return &s }

// chanSubscriber hands out a channel the test writes to.
type chanSubscriber struct {
	ch chan events.Event
}

func (s *chanSubscriber) Subscribe(ctx context.Context) (<-chan events.Event, func(), error) {
	return s.ch, func() {}, nil
}

type fixture struct {
	viewer *Viewer
	source *fakeSource
	store  *render.StoreEngine
	clock  *emphasis.ManualClock
}

func newFixture(t *testing.T, sub events.Subscriber) *fixture {
	t.Helper()
	source := &fakeSource{
		roster: []snapshot.RosterEntry{{ID: "alpha-123456789"}, {ID: "beta"}},
		details: map[string]snapshot.Detail{
			"alpha-123456789": {Name: strp("Researcher"), Tools: []string{"search", "browse"}},
		},
	}
	store := render.NewStoreEngine()
	clock := emphasis.NewManualClock()

	v, err := New(config.Default(), Options{
		Source:     source,
		Engine:     store,
		Subscriber: sub,
		Transcript: transcript.New(50, nil),
		Clock:      clock,
	})
	require.NoError(t, err)
	return &fixture{viewer: v, source: source, store: store, clock: clock}
}

func edgeByID(data render.Data, id string) (found bool, emphasized bool) {
	for _, e := range data.Edges {
		if e.ID == id {
			return true, e.Transient != nil
		}
	}
	return false, false
}

func TestNewRequiresSource(t *testing.T) {
	_, err := New(nil, Options{})
	assert.ErrorIs(t, err, ErrNoSource)
}

func TestFetchAndRenderAgents(t *testing.T) {
	f := newFixture(t, nil)

	require.NoError(t, f.viewer.FetchAndRenderAgents(context.Background()))

	data := f.store.Current()
	var labels []string
	for _, n := range data.Nodes {
		labels = append(labels, n.Label)
	}
	assert.Equal(t, []string{"Orchestrator", "Researcher", "search", "browse", "Agent beta"}, labels)
	assert.Len(t, data.Edges, 4)
	assert.Equal(t, config.DefaultLayout(), map[string]any(f.store.Options()))
}

func TestFetchAndRenderAgentsRosterFailure(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	require.NoError(t, f.viewer.FetchAndRenderAgents(ctx))
	before := f.viewer.Data()

	f.source.set(nil, errors.New("backend down"))
	err := f.viewer.FetchAndRenderAgents(ctx)

	assert.ErrorIs(t, err, snapshot.ErrRosterFetch)
	assert.Equal(t, before, f.viewer.Data())
}

func TestTranscriptHandlers(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	require.NoError(t, f.viewer.HandleEvent(ctx, events.Event{Kind: events.KindUserRequest, Data: []byte(`{"request":"plan a trip"}`)}))
	require.NoError(t, f.viewer.HandleEvent(ctx, events.Event{Kind: events.KindExecutionPlan, Data: []byte(`{"plan":"**Execution Plan:**"}`)}))
	require.NoError(t, f.viewer.HandleEvent(ctx, events.Event{Kind: events.KindTaskCompleted, Data: []byte(`{"task":"find flights","agent_id":"beta","response":"3 found"}`)}))
	require.NoError(t, f.viewer.HandleEvent(ctx, events.Event{Kind: events.KindFinalAnswer, Data: []byte(`{"response":"<p>booked</p>"}`)}))
	require.NoError(t, f.viewer.HandleEvent(ctx, events.Event{Kind: "agent_response", Data: []byte(`{}`)}))

	entries := f.viewer.Transcript().Entries()
	require.Len(t, entries, 6)

	type line struct {
		dir  transcript.Direction
		text string
		html bool
	}
	var got []line
	for _, e := range entries {
		got = append(got, line{e.Direction, e.Text, e.HTML})
	}
	assert.Equal(t, []line{
		{transcript.To, "User Request: plan a trip", false},
		{transcript.To, "**Execution Plan:**", false},
		{transcript.From, `Task "find flights" completed by beta:`, false},
		{transcript.From, "3 found", false},
		{transcript.From, "Final Answer:", false},
		{transcript.From, "<p>booked</p>", true},
	}, got)
}

func TestMalformedPayload(t *testing.T) {
	f := newFixture(t, nil)
	err := f.viewer.HandleEvent(context.Background(), events.Event{Kind: events.KindUserRequest, Data: []byte(`{"request":`)})
	assert.Error(t, err)
	assert.Equal(t, 0, f.viewer.Transcript().Len())
}

func TestTaskCompletedEmphasis(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	require.NoError(t, f.viewer.FetchAndRenderAgents(ctx))

	task := events.Event{Kind: events.KindTaskCompleted, Data: []byte(`{"task":"t","agent_id":"beta","response":"r"}`)}
	require.NoError(t, f.viewer.HandleEvent(ctx, task))

	_, hot := edgeByID(f.store.Current(), "edge-beta")
	assert.True(t, hot)

	f.clock.Advance(500 * time.Millisecond)
	require.NoError(t, f.viewer.HandleEvent(ctx, task))
	f.clock.Advance(900 * time.Millisecond)
	_, hot = edgeByID(f.store.Current(), "edge-beta")
	assert.True(t, hot, "second trigger keeps the edge emphasized")

	f.clock.Advance(100 * time.Millisecond)
	_, hot = edgeByID(f.store.Current(), "edge-beta")
	assert.False(t, hot)
}

func TestEmphasisSurvivesRefresh(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	require.NoError(t, f.viewer.FetchAndRenderAgents(ctx))

	require.True(t, f.viewer.OnAgentTaskCompleted("beta"))
	f.clock.Advance(400 * time.Millisecond)
	require.NoError(t, f.viewer.FetchAndRenderAgents(ctx))

	_, hot := edgeByID(f.store.Current(), "edge-beta")
	assert.True(t, hot, "refresh keeps a live emphasis")
	assert.True(t, f.viewer.Emphasis().IsEmphasized("edge-beta"))

	f.clock.Advance(600 * time.Millisecond)
	_, hot = edgeByID(f.store.Current(), "edge-beta")
	assert.False(t, hot)

	require.NoError(t, f.viewer.FetchAndRenderAgents(ctx))
	_, hot = edgeByID(f.store.Current(), "edge-beta")
	assert.False(t, hot)
}

func TestEmphasisRevertAfterAgentRemoved(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	require.NoError(t, f.viewer.FetchAndRenderAgents(ctx))

	require.True(t, f.viewer.OnAgentTaskCompleted("beta"))
	f.source.set([]snapshot.RosterEntry{{ID: "alpha-123456789"}}, nil)
	require.NoError(t, f.viewer.FetchAndRenderAgents(ctx))

	assert.NotPanics(t, func() { f.clock.Advance(2 * time.Second) })
	found, _ := edgeByID(f.store.Current(), "edge-beta")
	assert.False(t, found)
	_, ok := f.viewer.reconciler.Model().Edge("edge-beta")
	assert.False(t, ok)
}

func TestOnAgentTaskCompletedUnknownAgent(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.viewer.FetchAndRenderAgents(context.Background()))
	assert.False(t, f.viewer.OnAgentTaskCompleted("ghost"))
	assert.Equal(t, 0, f.viewer.Emphasis().Pending())
}

func TestRunConsumesStream(t *testing.T) {
	sub := &chanSubscriber{ch: make(chan events.Event, 4)}
	f := newFixture(t, sub)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.viewer.Run(ctx) }()

	sub.ch <- events.Event{Kind: events.KindConnect}
	sub.ch <- events.Event{Kind: events.KindUserRequest, Data: []byte(`{"request":"hi"}`)}

	assert.Eventually(t, func() bool {
		return len(f.store.Current().Nodes) == 5 && f.viewer.Transcript().Len() == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
}

func TestConnectRefreshDoesNotBlockStream(t *testing.T) {
	sub := &chanSubscriber{ch: make(chan events.Event, 4)}
	f := newFixture(t, sub)
	f.source.gate = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.viewer.Run(ctx) }()

	sub.ch <- events.Event{Kind: events.KindConnect}
	sub.ch <- events.Event{Kind: events.KindUserRequest, Data: []byte(`{"request":"hi"}`)}

	assert.Eventually(t, func() bool {
		return f.viewer.Transcript().Len() == 1
	}, 2*time.Second, 10*time.Millisecond, "stream events are handled while the refresh is pending")
	created, _ := f.store.Stats()
	assert.Equal(t, 0, created)

	close(f.source.gate)
	assert.Eventually(t, func() bool {
		return len(f.store.Current().Nodes) == 5
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
}

func TestRunWaitsForCancelledRefresh(t *testing.T) {
	sub := &chanSubscriber{ch: make(chan events.Event, 1)}
	f := newFixture(t, sub)
	f.source.gate = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.viewer.Run(ctx) }()

	sub.ch <- events.Event{Kind: events.KindConnect}
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after the refresh was cancelled")
	}
	created, _ := f.store.Stats()
	assert.Equal(t, 0, created)
}

func TestRunWithoutTransportLoadsOnce(t *testing.T) {
	f := newFixture(t, events.NoopSubscriber{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.viewer.Run(ctx) }()

	assert.Eventually(t, func() bool {
		created, _ := f.store.Stats()
		return created == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

func TestRunRejectsBadSchedule(t *testing.T) {
	source := &fakeSource{}
	cfg := config.Default()
	cfg.Refresh.Schedule = "not a schedule"
	v, err := New(cfg, Options{Source: source})
	require.NoError(t, err)

	err = v.Run(context.Background())
	assert.Error(t, err)
}

func TestRoutes(t *testing.T) {
	f := newFixture(t, nil)
	routes := f.viewer.Routes()
	assert.Contains(t, routes, "/transcript")
}
