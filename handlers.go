package agentviz

import (
	"context"
	"fmt"
	"log"

	"github.com/aixgo-dev/agentviz/internal/events"
	"github.com/aixgo-dev/agentviz/internal/transcript"
)

func (v *Viewer) registerHandlers() {
	v.router.On(events.KindConnect, v.onConnect)
	v.router.On(events.KindUserRequest, v.onUserRequest)
	v.router.On(events.KindExecutionPlan, v.onExecutionPlan)
	v.router.On(events.KindTaskCompleted, v.onTaskCompleted)
	v.router.On(events.KindFinalAnswer, v.onFinalAnswer)
}

// onConnect refreshes in the background so stream events keep flowing while
// the backend is slow. Overlapping refreshes are ordered by snapshot Seq.
func (v *Viewer) onConnect(ctx context.Context, _ events.Event) error {
	v.refreshes.Add(1)
	go func() {
		defer v.refreshes.Done()
		if err := v.FetchAndRenderAgents(ctx); err != nil {
			log.Printf("[Viewer] refresh on connect failed: %v", err)
		}
	}()
	return nil
}

func (v *Viewer) onUserRequest(_ context.Context, ev events.Event) error {
	p, err := events.Decode[events.UserRequest](ev)
	if err != nil {
		return err
	}
	v.transcript.Append(transcript.To, "User Request: "+p.Request, false)
	return nil
}

func (v *Viewer) onExecutionPlan(_ context.Context, ev events.Event) error {
	p, err := events.Decode[events.ExecutionPlan](ev)
	if err != nil {
		return err
	}
	v.transcript.Append(transcript.To, p.Plan, false)
	return nil
}

func (v *Viewer) onTaskCompleted(_ context.Context, ev events.Event) error {
	p, err := events.Decode[events.TaskCompleted](ev)
	if err != nil {
		return err
	}
	v.transcript.Append(transcript.From, fmt.Sprintf("Task \"%s\" completed by %s:", p.Task, p.AgentID), false)
	v.transcript.Append(transcript.From, p.Response, false)
	v.OnAgentTaskCompleted(p.AgentID)
	return nil
}

func (v *Viewer) onFinalAnswer(_ context.Context, ev events.Event) error {
	p, err := events.Decode[events.FinalAnswer](ev)
	if err != nil {
		return err
	}
	v.transcript.Append(transcript.From, "Final Answer:", false)
	v.transcript.Append(transcript.From, p.Response, true)
	return nil
}
