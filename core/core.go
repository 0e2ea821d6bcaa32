package core

// Role identifies the author of a conversation message.
type Role string

// Message role options.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Valid reports whether the role is one of the four known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant, RoleTool:
		return true
	}
	return false
}

// ToolChoice controls whether the model may, must or must not emit tool calls.
type ToolChoice string

// Tool choice options. The dispatcher depends on exactly these three semantics.
const (
	ToolChoiceNone     ToolChoice = "none"
	ToolChoiceAuto     ToolChoice = "auto"
	ToolChoiceRequired ToolChoice = "required"
)

// AgentState describes the lifecycle state of an agent.
//
// IDLE is the only state from which a run may start. RUNNING covers the
// stepping loop. FINISHED and ERROR are terminal until the agent is reset.
type AgentState string

// Agent execution states.
const (
	StateIdle     AgentState = "IDLE"
	StateRunning  AgentState = "RUNNING"
	StateFinished AgentState = "FINISHED"
	StateError    AgentState = "ERROR"
)

// Valid reports whether the state is one of the four known states.
func (s AgentState) Valid() bool {
	switch s {
	case StateIdle, StateRunning, StateFinished, StateError:
		return true
	}
	return false
}
