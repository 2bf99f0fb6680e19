// Package events receives the orchestrator's pushed event stream and routes
// each event to its handler.
package events

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Event kinds pushed by the orchestrator.
const (
	KindUserRequest   = "user_request"
	KindExecutionPlan = "execution_plan"
	KindTaskCompleted = "task_completed"
	KindFinalAnswer   = "final_answer"

	// KindConnect is raised by a subscriber each time its transport
	// (re)connects. It carries no payload.
	KindConnect = "connect"
)

// ErrUnknownTransport is returned for an unsupported transport name.
var ErrUnknownTransport = errors.New("unknown event transport")

// Event is one pushed message. On the websocket transport it is framed as
// {"event": "<kind>", "data": {...}}.
type Event struct {
	Kind string          `json:"event"`
	Data json.RawMessage `json:"data,omitempty"`
}

type UserRequest struct {
	Request string `json:"request"`
}

type ExecutionPlan struct {
	Plan string `json:"plan"`
}

type TaskCompleted struct {
	Task     string `json:"task"`
	AgentID  string `json:"agent_id"`
	Response string `json:"response"`
}

type FinalAnswer struct {
	Response string `json:"response"`
}

// Decode unmarshals the event payload into T.
func Decode[T any](ev Event) (T, error) {
	var v T
	if len(ev.Data) == 0 {
		return v, fmt.Errorf("decoding %s: empty payload", ev.Kind)
	}
	if err := json.Unmarshal(ev.Data, &v); err != nil {
		return v, fmt.Errorf("decoding %s: %w", ev.Kind, err)
	}
	return v, nil
}
