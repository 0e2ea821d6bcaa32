// Package prompt centralizes the instruction texts handed to models. Keeping
// them in one place makes the agent behaviors auditable and easy to tune.
package prompt

import "fmt"

// ToolCallSystem is the default system prompt for tool-calling agents.
const ToolCallSystem = "You are an agent that can execute tool calls"

// ToolCallNextStep nudges a tool-calling agent toward terminating cleanly.
const ToolCallNextStep = "If you want to stop interaction, use `terminate` tool/function call."

// PlanningSystem is the system prompt for agents that own a plan.
const PlanningSystem = `You are an expert Planning Agent tasked with solving problems efficiently through structured plans.
Your job is:
1. Analyze requests to understand the task scope
2. Create a clear, actionable plan that makes meaningful progress with the ` + "`planning`" + ` tool
3. Execute steps using available tools as needed
4. Track progress and adapt plans when necessary
5. Use ` + "`terminate`" + ` to conclude immediately when the task is complete

Available tools will vary by task but may include:
- ` + "`planning`" + `: Create, update, and track plans (commands: create, update, mark_step, etc.)
- ` + "`terminate`" + `: End the task when complete
Break tasks into logical steps with clear outcomes. Avoid excessive detail or sub-steps.
Think about dependencies and verification methods.
Know when to conclude - don't continue thinking once objectives are met.`

// PlanningNextStep asks a planning agent to pick its next action.
const PlanningNextStep = `Based on the current state, what's your next action?
Choose the most efficient path forward:
1. Is the plan sufficient, or does it need refinement?
2. Can you execute the next step immediately?
3. Is the task complete? If so, use ` + "`terminate`" + ` right away.

Be concise in your reasoning, then select the appropriate tool or action.`

// PlanCreationSystem instructs the model while drafting the initial plan for
// a flow run.
const PlanCreationSystem = "You are a planning assistant. Create a concise, actionable plan with clear steps. " +
	"Focus on key milestones rather than detailed sub-steps. " +
	"Optimize for clarity and efficiency."

// PlanCreationRequest formats the user message asking for an initial plan.
func PlanCreationRequest(request string) string {
	return fmt.Sprintf("Create a reasonable plan with clear steps to accomplish the task: %s", request)
}

// StepExecution formats the prompt handed to an executor agent for one plan
// step. planStatus is the rendered plan text.
func StepExecution(planStatus string, stepIndex int, stepText string) string {
	return fmt.Sprintf(`CURRENT PLAN STATUS:
%s

YOUR CURRENT TASK:
You are now working on step %d: "%s"

Please execute this step using the appropriate tools. When you're done, provide a summary of what you accomplished.`,
		planStatus, stepIndex, stepText)
}

// FinalizeSystem instructs the model while summarizing a finished plan.
const FinalizeSystem = "You are a planning assistant. Your task is to summarize the completed plan."

// FinalizeRequest formats the user message asking for a completion summary.
func FinalizeRequest(planText string) string {
	return fmt.Sprintf("The plan has been completed. Here is the final plan status:\n\n%s\n\nPlease provide a summary of what was accomplished and any final thoughts.", planText)
}

// FinalizeAgentFallback formats the summary request routed through the
// primary agent when the direct model call fails.
func FinalizeAgentFallback(planText string) string {
	return fmt.Sprintf(`The plan has been completed. Here is the final plan status:

%s

Please provide a summary of what was accomplished and any final thoughts.`, planText)
}

// StuckCorrection is injected when an agent repeats itself; it steers the
// model off the loop.
const StuckCorrection = "You seem to be stuck in a loop. Please try a different approach."
