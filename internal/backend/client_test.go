package backend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aixgo-dev/agentviz/internal/snapshot"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /agents", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"a1","name":"Researcher"},{"id":"a2","name":"Coder"}]`))
	})
	mux.HandleFunc("GET /agent/{id}", func(w http.ResponseWriter, r *http.Request) {
		switch r.PathValue("id") {
		case "a1":
			_, _ = w.Write([]byte(`{"id":"a1","name":"Researcher","context":"search things","tools":["web_search"]}`))
		case "a2":
			_, _ = w.Write([]byte(`{"id":"a2","context":""}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"Agent not found"}`))
		}
	})
	mux.HandleFunc("GET /tools", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"name":"calculator","description":"Does math"}]`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Roster(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient(Config{BaseURL: srv.URL + "/"})

	entries, err := c.Roster(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []snapshot.RosterEntry{
		{ID: "a1", Name: "Researcher"},
		{ID: "a2", Name: "Coder"},
	}, entries)
	assert.Equal(t, srv.URL, c.BaseURL())
}

func TestClient_AgentDetail(t *testing.T) {
	c := NewClient(Config{BaseURL: newTestServer(t).URL})

	detail, err := c.AgentDetail(context.Background(), "a1")
	require.NoError(t, err)
	require.NotNil(t, detail.Name)
	assert.Equal(t, "Researcher", *detail.Name)
	assert.Equal(t, []string{"web_search"}, detail.Tools)

	detail, err = c.AgentDetail(context.Background(), "a2")
	require.NoError(t, err)
	assert.Nil(t, detail.Name)
	assert.Nil(t, detail.Tools)
}

func TestClient_AgentDetail_NotFound(t *testing.T) {
	c := NewClient(Config{BaseURL: newTestServer(t).URL})

	_, err := c.AgentDetail(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Equal(t, "Agent not found", statusErr.Message)
}

func TestClient_Tools(t *testing.T) {
	c := NewClient(Config{BaseURL: newTestServer(t).URL})

	tools, err := c.Tools(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Tool{{Name: "calculator", Description: "Does math"}}, tools)
}

func TestClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewClient(Config{BaseURL: srv.URL}).Ping(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "boom")
}

func TestClient_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	_, err := NewClient(Config{BaseURL: srv.URL}).Roster(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding response")
}

func TestClient_RateLimitHonorsContext(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient(Config{BaseURL: srv.URL, RequestsPerSecond: 0.001, Burst: 1})

	require.NoError(t, c.Ping(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := c.Ping(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
}

func TestClient_AsSnapshotSource(t *testing.T) {
	c := NewClient(Config{BaseURL: newTestServer(t).URL})

	snap, err := snapshot.NewAggregator(c, snapshot.Config{}).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Agents, 2)
	assert.Equal(t, snapshot.Agent{ID: "a1", Name: "Researcher", Tools: []string{"web_search"}}, snap.Agents[0])
	assert.Equal(t, snapshot.Agent{ID: "a2", Name: "Agent a2", Tools: []string{}}, snap.Agents[1])
}
