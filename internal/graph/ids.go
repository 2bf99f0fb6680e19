package graph

import "fmt"

// OrchestratorID is the id of the single coordinating node.
const OrchestratorID = "orchestrator"

// AgentEdgeID returns the id of the orchestrator -> agent edge.
func AgentEdgeID(agentID string) string {
	return "edge-" + agentID
}

// ToolNodeID returns the id of the index-th tool owned by an agent. Tools are
// keyed by position so identical tool names on different agents stay distinct.
func ToolNodeID(agentID string, index int) string {
	return fmt.Sprintf("%s-tool-%d", agentID, index)
}

// ToolEdgeID returns the id of the agent -> tool edge.
func ToolEdgeID(agentID, toolNodeID string) string {
	return fmt.Sprintf("edge-%s-%s", agentID, toolNodeID)
}
