package render

import (
	"errors"

	"github.com/aixgo-dev/agentviz/internal/graph"
)

// Tee is an Engine that forwards to several engines at once, e.g. a terminal
// tree and the in-memory store behind the HTTP endpoint.
type Tee []Engine

// Create implements Engine. It fails if any engine fails to create its view.
func (t Tee) Create(data Data, opts Options) (View, error) {
	views := make(teeView, 0, len(t))
	for _, e := range t {
		v, err := e.Create(data, opts)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

type teeView []View

func (t teeView) SetData(data Data) error {
	var errs []error
	for _, v := range t {
		errs = append(errs, v.SetData(data))
	}
	return errors.Join(errs...)
}

func (t teeView) UpdateEdge(id string, style graph.EdgeStyle) error {
	var errs []error
	for _, v := range t {
		errs = append(errs, v.UpdateEdge(id, style))
	}
	return errors.Join(errs...)
}
