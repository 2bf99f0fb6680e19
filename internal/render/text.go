package render

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/aixgo-dev/agentviz/internal/graph"
)

// TextEngine renders the graph as an indented tree on a writer.
type TextEngine struct {
	w io.Writer
}

// NewTextEngine creates a text engine writing to w.
func NewTextEngine(w io.Writer) *TextEngine {
	return &TextEngine{w: w}
}

// Create implements Engine.
func (e *TextEngine) Create(data Data, _ Options) (View, error) {
	v := &textView{w: e.w}
	if err := v.SetData(data); err != nil {
		return nil, err
	}
	return v, nil
}

type textView struct {
	mu sync.Mutex
	w  io.Writer
}

func (v *textView) SetData(data Data) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, err := io.WriteString(v.w, FormatTree(data))
	return err
}

func (v *textView) UpdateEdge(id string, style graph.EdgeStyle) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, err := fmt.Fprintf(v.w, "~ %s color=%s width=%d\n", id, style.Color, style.Width)
	return err
}

// FormatTree renders data as orchestrator -> agents -> tools, following edges
// from each node in edge order.
func FormatTree(data Data) string {
	labels := make(map[string]string, len(data.Nodes))
	kinds := make(map[string]graph.Kind, len(data.Nodes))
	for _, n := range data.Nodes {
		labels[n.ID] = n.Label
		kinds[n.ID] = n.Kind
	}
	children := make(map[string][]string)
	for _, e := range data.Edges {
		children[e.From] = append(children[e.From], e.To)
	}

	var b strings.Builder
	var walk func(id string, depth int)
	walk = func(id string, depth int) {
		fmt.Fprintf(&b, "%s%s %s (%s)\n", strings.Repeat("  ", depth), marker(kinds[id]), labels[id], id)
		for _, child := range children[id] {
			walk(child, depth+1)
		}
	}
	for _, n := range data.Nodes {
		if n.Kind == graph.KindOrchestrator {
			walk(n.ID, 0)
		}
	}
	return b.String()
}

func marker(k graph.Kind) string {
	switch k {
	case graph.KindOrchestrator:
		return "◆"
	case graph.KindTool:
		return "⬡"
	default:
		return "●"
	}
}
