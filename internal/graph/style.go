package graph

import "fmt"

// Kind identifies what a node represents.
type Kind string

const (
	KindOrchestrator Kind = "orchestrator"
	KindAgent        Kind = "agent"
	KindTool         Kind = "tool"
)

// NodeStyle is the visual bundle of a node. It is determined entirely by the
// node kind (and, for the avatar image, the node id).
type NodeStyle struct {
	Shape      string `json:"shape"`
	Border     string `json:"border"`
	Background string `json:"background"`
	Image      string `json:"image,omitempty"`
	FontSize   int    `json:"font_size,omitempty"`
	FontColor  string `json:"font_color,omitempty"`
}

// EdgeStyle is the visual bundle of an edge.
type EdgeStyle struct {
	Color  string `json:"color"`
	Width  int    `json:"width"`
	Dashes bool   `json:"dashes,omitempty"`
}

const (
	colorOrchestrator = "#e74c3c"
	colorAgent        = "#3498db"
	colorTool         = "#2ecc71"
	colorBackground   = "#ffffff"

	defaultEdgeWidth = 2
)

// StyleFor returns the node style for a kind.
func StyleFor(kind Kind, id string) NodeStyle {
	switch kind {
	case KindOrchestrator:
		return NodeStyle{
			Shape:      "circularImage",
			Border:     colorOrchestrator,
			Background: colorBackground,
			Image:      avatarURL(id, 80),
			FontSize:   18,
			FontColor:  colorOrchestrator,
		}
	case KindTool:
		return NodeStyle{
			Shape:      "hexagon",
			Border:     colorTool,
			Background: colorBackground,
			FontSize:   12,
			FontColor:  colorTool,
		}
	default:
		return NodeStyle{
			Shape:      "circularImage",
			Border:     colorAgent,
			Background: colorBackground,
			Image:      avatarURL(id, 50),
		}
	}
}

// AgentEdgeStyle is the baseline style of orchestrator -> agent edges.
func AgentEdgeStyle() EdgeStyle {
	return EdgeStyle{Color: colorAgent, Width: defaultEdgeWidth}
}

// ToolEdgeStyle is the baseline style of agent -> tool edges.
func ToolEdgeStyle() EdgeStyle {
	return EdgeStyle{Color: colorTool, Width: defaultEdgeWidth, Dashes: true}
}

func avatarURL(id string, size int) string {
	return fmt.Sprintf("https://robohash.org/%s?size=%dx%d", id, size, size)
}
