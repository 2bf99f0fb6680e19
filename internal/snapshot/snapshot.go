// Package snapshot aggregates the agent roster and per-agent details into one
// consistent, ordered view of the orchestration backend.
package snapshot

import (
	"context"
	"time"
)

// RosterEntry is one element of the backend's ordered agent list.
type RosterEntry struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Detail is the per-agent record returned by a detail lookup. Both fields are
// optional on the wire.
type Detail struct {
	Name  *string  `json:"name,omitempty"`
	Tools []string `json:"tools,omitempty"`
}

// Source is the backend the aggregator pulls from.
type Source interface {
	Roster(ctx context.Context) ([]RosterEntry, error)
	AgentDetail(ctx context.Context, id string) (Detail, error)
}

// Agent is the joined roster entry and detail record.
type Agent struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Tools []string `json:"tools"`
}

// Snapshot is the full ordered set of agents at one point in time. Seq grows
// monotonically per Aggregator so consumers can discard superseded snapshots.
type Snapshot struct {
	Seq     uint64    `json:"seq"`
	Agents  []Agent   `json:"agents"`
	TakenAt time.Time `json:"taken_at"`
}

// FallbackName is the label used when an agent has no usable name.
func FallbackName(id string) string {
	r := []rune(id)
	if len(r) > 8 {
		r = r[:8]
	}
	return "Agent " + string(r)
}
