package tool

import (
	"context"
	"fmt"
)

// TerminateName is the registered name of the termination tool. Agents treat
// it as a special tool: executing it flips the agent into the finished state.
const TerminateName = "terminate"

const terminateDescription = "Terminate the interaction when the request is met OR " +
	"if the assistant cannot proceed further with the task. " +
	"When you have finished all the tasks, call this tool to end the work."

// Terminate signals the end of an agent run. It produces a confirmation
// message carrying the final status; the loop shutdown itself is handled by
// the agent's special-tool hook, not by this tool.
type Terminate struct{}

// NewTerminate constructs the termination tool.
func NewTerminate() *Terminate { return &Terminate{} }

// Name implements Tool.
func (t *Terminate) Name() string { return TerminateName }

// Description implements Tool.
func (t *Terminate) Description() string { return terminateDescription }

// Parameters implements Tool.
func (t *Terminate) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"status": map[string]any{
				"type":        "string",
				"description": "The finish status of the interaction.",
				"enum":        []string{"success", "failure"},
			},
		},
		"required": []string{"status"},
	}
}

// Execute confirms completion with the supplied status.
func (t *Terminate) Execute(ctx context.Context, args map[string]any) (Result, error) {
	status, _ := args["status"].(string)
	return Result{Output: fmt.Sprintf("The interaction has been completed with status: %s", status)}, nil
}
