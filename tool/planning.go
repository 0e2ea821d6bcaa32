package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/taskmesh/taskmesh/plan"
)

// PlanningName is the registered name of the plan management tool.
const PlanningName = "planning"

const planningDescription = "A planning tool that allows the agent to create and manage plans " +
	"for solving complex tasks. The tool provides functionality for creating plans, " +
	"updating plan steps, and tracking progress."

// Planning exposes the shared plan store to the model as a single
// command-dispatching tool. Commands mirror the store's operations: create,
// update, list, get, set_active, mark_step and delete.
type Planning struct {
	store *plan.Store
}

// NewPlanning wraps a plan store as a tool. A nil store gets a fresh one.
func NewPlanning(store *plan.Store) *Planning {
	if store == nil {
		store = plan.NewStore()
	}
	return &Planning{store: store}
}

// Store returns the underlying plan store, shared with flow orchestrators.
func (t *Planning) Store() *plan.Store { return t.store }

// Name implements Tool.
func (t *Planning) Name() string { return PlanningName }

// Description implements Tool.
func (t *Planning) Description() string { return planningDescription }

// Parameters implements Tool.
func (t *Planning) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"command": map[string]any{
				"type": "string",
				"description": "The command to execute. Available commands: create, update, list, " +
					"get, set_active, mark_step, delete.",
				"enum": []string{"create", "update", "list", "get", "set_active", "mark_step", "delete"},
			},
			"plan_id": map[string]any{
				"type": "string",
				"description": "Unique identifier for the plan. Required for create, update, " +
					"set_active, and delete commands. Optional for get and mark_step " +
					"(uses active plan if not specified).",
			},
			"title": map[string]any{
				"type":        "string",
				"description": "Title for the plan. Required for create command, optional for update command.",
			},
			"steps": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "List of plan steps. Required for create command, optional for update command.",
			},
			"step_index": map[string]any{
				"type":        "integer",
				"description": "Index of the step to update (0-based). Required for mark_step command.",
			},
			"step_status": map[string]any{
				"type":        "string",
				"description": "Status to set for a step. Used with mark_step command.",
				"enum":        []string{"not_started", "in_progress", "completed", "blocked"},
			},
			"step_notes": map[string]any{
				"type":        "string",
				"description": "Additional notes for a step. Optional for mark_step command.",
			},
		},
		"required": []string{"command"},
	}
}

// Execute dispatches the requested command against the plan store. Store
// errors surface as tool-level failures so the model can observe and correct
// them.
func (t *Planning) Execute(ctx context.Context, args map[string]any) (Result, error) {
	command, _ := args["command"].(string)

	switch command {
	case "create":
		return t.create(args)
	case "update":
		return t.update(args)
	case "list":
		return t.list()
	case "get":
		return t.get(args)
	case "set_active":
		return t.setActive(args)
	case "mark_step":
		return t.markStep(args)
	case "delete":
		return t.delete(args)
	default:
		return Result{}, NewToolError(PlanningName,
			fmt.Sprintf("unrecognized command: %s. Allowed commands are: create, update, list, get, set_active, mark_step, delete", command),
			"VALIDATION_ERROR")
	}
}

func (t *Planning) create(args map[string]any) (Result, error) {
	id, _ := args["plan_id"].(string)
	title, _ := args["title"].(string)
	steps, err := stringSlice(args["steps"])
	if err != nil {
		return Result{}, NewToolError(PlanningName,
			"parameter `steps` must be a non-empty list of strings for command: create",
			"VALIDATION_ERROR")
	}

	p, err := t.store.Create(id, title, steps)
	if err != nil {
		return Result{}, NewToolError(PlanningName, err.Error(), "VALIDATION_ERROR")
	}
	return Result{Output: fmt.Sprintf("Plan created successfully with ID: %s\n\n%s", p.ID, p.Render())}, nil
}

func (t *Planning) update(args map[string]any) (Result, error) {
	id, _ := args["plan_id"].(string)
	title, _ := args["title"].(string)

	var steps []string
	if raw, ok := args["steps"]; ok && raw != nil {
		var err error
		steps, err = stringSlice(raw)
		if err != nil {
			return Result{}, NewToolError(PlanningName,
				"parameter `steps` must be a list of strings for command: update",
				"VALIDATION_ERROR")
		}
	}

	p, err := t.store.Update(id, title, steps)
	if err != nil {
		return Result{}, NewToolError(PlanningName, err.Error(), "VALIDATION_ERROR")
	}
	return Result{Output: fmt.Sprintf("Plan updated successfully: %s\n\n%s", p.ID, p.Render())}, nil
}

func (t *Planning) list() (Result, error) {
	plans := t.store.List()
	if len(plans) == 0 {
		return Result{Output: "No plans available. Create a plan with the 'create' command."}, nil
	}

	var b strings.Builder
	b.WriteString("Available plans:\n")
	activeID := t.store.ActiveID()
	for _, p := range plans {
		marker := ""
		if p.ID == activeID {
			marker = " (active)"
		}
		fmt.Fprintf(&b, "• %s%s: %s - %d/%d steps completed\n",
			p.ID, marker, p.Title, p.CompletedSteps(), len(p.Steps))
	}
	return Result{Output: b.String()}, nil
}

func (t *Planning) get(args map[string]any) (Result, error) {
	id, _ := args["plan_id"].(string)
	p, err := t.store.Get(id)
	if err != nil {
		return Result{}, NewToolError(PlanningName, err.Error(), "VALIDATION_ERROR")
	}
	return Result{Output: p.Render()}, nil
}

func (t *Planning) setActive(args map[string]any) (Result, error) {
	id, _ := args["plan_id"].(string)
	if err := t.store.SetActive(id); err != nil {
		return Result{}, NewToolError(PlanningName, err.Error(), "VALIDATION_ERROR")
	}
	return Result{Output: fmt.Sprintf("Plan '%s' is now active.", id)}, nil
}

func (t *Planning) markStep(args map[string]any) (Result, error) {
	id, _ := args["plan_id"].(string)

	stepIndex, ok := intArg(args["step_index"])
	if !ok {
		return Result{}, NewToolError(PlanningName,
			"parameter `step_index` is required for command: mark_step",
			"VALIDATION_ERROR")
	}

	status, _ := args["step_status"].(string)
	notes, _ := args["step_notes"].(string)

	p, err := t.store.MarkStep(id, stepIndex, plan.Status(status), notes)
	if err != nil {
		return Result{}, NewToolError(PlanningName, err.Error(), "VALIDATION_ERROR")
	}
	return Result{Output: fmt.Sprintf("Updated step %d in plan '%s'\n\n%s", stepIndex, p.ID, p.Render())}, nil
}

func (t *Planning) delete(args map[string]any) (Result, error) {
	id, _ := args["plan_id"].(string)
	if err := t.store.Delete(id); err != nil {
		return Result{}, NewToolError(PlanningName, err.Error(), "VALIDATION_ERROR")
	}
	return Result{Output: fmt.Sprintf("Plan '%s' deleted successfully.", id)}, nil
}

// stringSlice coerces a JSON-decoded array into []string. Both []string and
// []any with string elements are accepted.
func stringSlice(raw any) ([]string, error) {
	switch v := raw.(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("element %v is not a string", item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("value %v is not a string list", raw)
	}
}

// intArg coerces a JSON-decoded number into an int. JSON decoding yields
// float64 for numeric literals.
func intArg(raw any) (int, bool) {
	switch v := raw.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v == float64(int(v)) {
			return int(v), true
		}
		return 0, false
	default:
		return 0, false
	}
}
