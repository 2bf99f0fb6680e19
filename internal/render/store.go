package render

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/aixgo-dev/agentviz/internal/graph"
)

// StoreEngine keeps the latest rendered dataset in memory.
type StoreEngine struct {
	mu      sync.RWMutex
	data    Data
	opts    Options
	created int
	updates int
}

// NewStoreEngine creates an empty store.
func NewStoreEngine() *StoreEngine {
	return &StoreEngine{}
}

// Create implements Engine.
func (s *StoreEngine) Create(data Data, opts Options) (View, error) {
	s.mu.Lock()
	s.created++
	s.opts = opts
	s.mu.Unlock()

	v := &storeView{store: s}
	if err := v.SetData(data); err != nil {
		return nil, err
	}
	return v, nil
}

// Current returns a copy of the latest dataset.
func (s *StoreEngine) Current() Data {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyData(s.data)
}

// Options returns the options the view was created with.
func (s *StoreEngine) Options() Options {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.opts
}

// Stats reports how many views were created and how many dataset
// replacements were applied.
func (s *StoreEngine) Stats() (created, updates int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.created, s.updates
}

// ServeHTTP writes the current dataset as JSON.
func (s *StoreEngine) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.Current())
}

type storeView struct {
	store *StoreEngine
}

func (v *storeView) SetData(data Data) error {
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	v.store.data = copyData(data)
	v.store.updates++
	return nil
}

func (v *storeView) UpdateEdge(id string, style graph.EdgeStyle) error {
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	for i := range v.store.data.Edges {
		e := &v.store.data.Edges[i]
		if e.ID != id {
			continue
		}
		if style == e.Baseline {
			e.Transient = nil
		} else {
			s := style
			e.Transient = &s
		}
		return nil
	}
	return nil
}

func copyData(d Data) Data {
	out := Data{
		Nodes: append([]graph.Node{}, d.Nodes...),
		Edges: make([]graph.Edge, len(d.Edges)),
	}
	for i, e := range d.Edges {
		if e.Transient != nil {
			t := *e.Transient
			e.Transient = &t
		}
		out.Edges[i] = e
	}
	return out
}
