package agent

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/taskmesh/taskmesh/core"
	"github.com/taskmesh/taskmesh/model"
	"github.com/taskmesh/taskmesh/plan"
	"github.com/taskmesh/taskmesh/prompt"
	"github.com/taskmesh/taskmesh/tool"
)

// PlanningOptions configures a PlanningAgent on top of the base agent options.
type PlanningOptions struct {
	Options

	// Store shares a plan store with other components; nil creates a
	// private one.
	Store *plan.Store
	// PlanID overrides the generated active plan id.
	PlanID string
}

// stepExecution associates one tool call with the plan step it advances.
type stepExecution struct {
	StepIndex int
	ToolName  string
	Status    string // pending -> completed
	Result    string
}

// PlanningAgent is a tool-calling agent that owns a plan: it drafts the plan
// up front, injects the live plan status into every thinking phase, and marks
// plan steps completed as the associated tool calls succeed.
type PlanningAgent struct {
	*ToolCallAgent

	planning     *tool.Planning
	activePlanID string

	// tracker maps tool call ids to the plan step they execute.
	tracker          map[string]*stepExecution
	currentStepIndex int
}

// NewPlanningAgent constructs a planning agent around the given model.
func NewPlanningAgent(m model.Model, optFns ...func(o *PlanningOptions)) *PlanningAgent {
	opts := PlanningOptions{
		Options: Options{
			Name:           "planning",
			Description:    "an agent that creates and manages plans to solve tasks",
			SystemPrompt:   prompt.PlanningSystem,
			NextStepPrompt: prompt.PlanningNextStep,
			ToolChoice:     core.ToolChoiceAuto,
			MaxSteps:       20,
			SpecialTools:   []string{tool.TerminateName},
		},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	planning := tool.NewPlanning(opts.Store)
	if opts.Tools == nil {
		opts.Tools = []tool.Tool{planning, tool.NewTerminate()}
	} else {
		opts.Tools = append([]tool.Tool{planning}, opts.Tools...)
	}

	planID := opts.PlanID
	if planID == "" {
		planID = fmt.Sprintf("plan_%s", uuid.NewString()[:8])
	}

	a := &PlanningAgent{
		ToolCallAgent:    NewToolCallAgent(m, func(o *Options) { *o = opts.Options }),
		planning:         planning,
		activePlanID:     planID,
		tracker:          make(map[string]*stepExecution),
		currentStepIndex: -1,
	}
	a.bind(a)
	return a
}

// ActivePlanID returns the id of the plan this agent drives.
func (a *PlanningAgent) ActivePlanID() string { return a.activePlanID }

// Store returns the plan store backing the agent's planning tool.
func (a *PlanningAgent) Store() *plan.Store { return a.planning.Store() }

// Run drafts the initial plan from the request, then enters the standard
// agent loop.
func (a *PlanningAgent) Run(ctx context.Context, request string) (string, error) {
	if request != "" {
		if err := a.createInitialPlan(ctx, request); err != nil {
			return "", err
		}
	}
	return a.BaseAgent.Run(ctx, "")
}

// Step implements Stepper with the plan-aware decide/act cycle.
func (a *PlanningAgent) Step(ctx context.Context) (string, error) {
	return runThinkAct(ctx, a)
}

// Think prefixes the next-step prompt with the live plan status, locates the
// step being worked on and then defers to the standard thinking phase. A tool
// call that is neither plan management nor terminal gets tracked against the
// located step.
func (a *PlanningAgent) Think(ctx context.Context) (bool, error) {
	nextPrompt := a.nextStepPrompt
	if a.activePlanID != "" {
		nextPrompt = fmt.Sprintf("CURRENT PLAN STATUS:\n%s\n\n%s", a.planText(ctx), a.nextStepPrompt)
	}

	a.currentStepIndex = a.locateCurrentStep(ctx)

	shouldAct, err := a.thinkWith(ctx, nextPrompt)
	if err != nil || !shouldAct {
		return shouldAct, err
	}

	if len(a.toolCalls) > 0 {
		latest := a.toolCalls[0]
		name := latest.Function.Name
		if name != tool.PlanningName && !a.isSpecialTool(name) && a.currentStepIndex >= 0 {
			a.tracker[latest.ID] = &stepExecution{
				StepIndex: a.currentStepIndex,
				ToolName:  name,
				Status:    "pending",
			}
		}
	}

	return shouldAct, nil
}

// Act executes the selected tool calls and, when the leading call was tracked
// against a plan step, marks that step completed.
func (a *PlanningAgent) Act(ctx context.Context) (string, error) {
	result, err := a.ToolCallAgent.Act(ctx)
	if err != nil {
		return "", err
	}

	if len(a.toolCalls) > 0 {
		latest := a.toolCalls[0]
		if entry, ok := a.tracker[latest.ID]; ok {
			entry.Status = "completed"
			entry.Result = result

			name := latest.Function.Name
			if name != tool.PlanningName && !a.isSpecialTool(name) {
				a.completeTrackedStep(ctx, latest.ID)
			}
		}
	}

	return result, nil
}

// planText fetches the rendered form of the active plan through the planning
// tool so errors surface the same way the model would see them.
func (a *PlanningAgent) planText(ctx context.Context) string {
	if a.activePlanID == "" {
		return "No active plan. Please create a plan first."
	}
	result, err := a.tools.Execute(ctx, tool.PlanningName, map[string]any{
		"command": "get",
		"plan_id": a.activePlanID,
	})
	if err != nil {
		a.logger.Warn("failed to fetch plan", "agent", a.name, "error", err.Error())
		return "No active plan. Please create a plan first."
	}
	return result.String()
}

// locateCurrentStep parses the rendered plan for the first step still marked
// not_started or in_progress, flips it to in_progress and returns its index.
// It returns -1 when no step needs work. The step index is read off the
// rendered line itself so note lines cannot skew the count.
func (a *PlanningAgent) locateCurrentStep(ctx context.Context) int {
	if a.activePlanID == "" {
		return -1
	}

	lines := strings.Split(a.planText(ctx), "\n")
	inSteps := false
	for _, line := range lines {
		if strings.TrimSpace(line) == "Steps:" {
			inSteps = true
			continue
		}
		if !inSteps {
			continue
		}
		if !strings.Contains(line, "[ ]") && !strings.Contains(line, "[→]") {
			continue
		}

		dot := strings.Index(line, ".")
		if dot <= 0 {
			continue
		}
		index, err := strconv.Atoi(strings.TrimSpace(line[:dot]))
		if err != nil {
			continue
		}

		if _, err := a.tools.Execute(ctx, tool.PlanningName, map[string]any{
			"command":     "mark_step",
			"plan_id":     a.activePlanID,
			"step_index":  index,
			"step_status": string(plan.StatusInProgress),
		}); err != nil {
			a.logger.Warn("error marking step as in_progress", "agent", a.name, "error", err.Error())
		}
		return index
	}

	return -1
}

// completeTrackedStep marks the plan step tied to the tool call as completed.
func (a *PlanningAgent) completeTrackedStep(ctx context.Context, toolCallID string) {
	if a.activePlanID == "" {
		return
	}
	entry, ok := a.tracker[toolCallID]
	if !ok {
		a.logger.Warn("no step tracking found for tool call", "agent", a.name, "tool_call_id", toolCallID)
		return
	}
	if entry.Status != "completed" {
		a.logger.Warn("tool call has not completed successfully", "agent", a.name, "tool_call_id", toolCallID)
		return
	}

	result, err := a.tools.Execute(ctx, tool.PlanningName, map[string]any{
		"command":     "mark_step",
		"plan_id":     a.activePlanID,
		"step_index":  entry.StepIndex,
		"step_status": string(plan.StatusCompleted),
	})
	if err != nil || result.Error != "" {
		a.logger.Warn("failed to update plan status", "agent", a.name, "step_index", entry.StepIndex)
		return
	}
	a.logger.Info("marked step as completed", "agent", a.name, "plan_id", a.activePlanID, "step_index", entry.StepIndex)
}

// createInitialPlan asks the model to draft the plan for the request in
// required tool-choice mode, then executes the resulting planning call.
func (a *PlanningAgent) createInitialPlan(ctx context.Context, request string) error {
	a.logger.Info("creating initial plan", "agent", a.name, "plan_id", a.activePlanID)

	userMsg := core.UserMessage(
		fmt.Sprintf("Analyze the request and create a plan with ID %s: %s", a.activePlanID, request))
	a.mem.Add(userMsg)

	resp, err := a.model.AskTool(ctx, model.Request{
		Messages:   []core.Message{userMsg},
		SystemMsgs: []core.Message{core.SystemMessage(a.systemPrompt)},
		Tools:      a.tools.ToParams(),
		ToolChoice: core.ToolChoiceRequired,
	})
	if err != nil {
		return fmt.Errorf("initial plan request: %w", err)
	}

	a.mem.Add(core.FromToolCalls(resp.Content, resp.ToolCalls))

	planCreated := false
	for _, call := range resp.ToolCalls {
		if call.Function.Name != tool.PlanningName {
			continue
		}
		observation := a.ExecuteTool(ctx, call)
		a.logger.Info("executed planning tool", "agent", a.name, "result", observation)
		a.mem.Add(core.ToolMessage(observation, call.Function.Name, call.ID))
		planCreated = true
		break
	}

	if !planCreated {
		a.logger.Warn("no plan created from initial request", "agent", a.name)
		a.mem.Add(core.AssistantMessage("Error: Parameter `plan_id` is required for command: create"))
	}

	return nil
}
