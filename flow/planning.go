package flow

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/taskmesh/taskmesh/core"
	"github.com/taskmesh/taskmesh/logging"
	"github.com/taskmesh/taskmesh/model"
	"github.com/taskmesh/taskmesh/plan"
	"github.com/taskmesh/taskmesh/prompt"
	"github.com/taskmesh/taskmesh/tool"
)

// stepTypePattern extracts an executor routing tag like "[SEARCH]" from a
// step's text.
var stepTypePattern = regexp.MustCompile(`\[([A-Z_]+)\]`)

// PlanningOptions configures a PlanningFlow.
type PlanningOptions struct {
	// PrimaryKey names the agent that drafts summaries and serves as the
	// executor of last resort. Defaults to the only agent when exactly one
	// is registered.
	PrimaryKey string
	// ExecutorKeys orders the fallback executor lookup. Defaults to all
	// agent keys sorted.
	ExecutorKeys []string
	// PlanID overrides the generated plan id.
	PlanID string
	// Store shares a plan store with agents; nil creates a private one.
	Store *plan.Store

	Logger logging.Logger
}

// stepInfo carries the text and optional routing tag of the step under
// execution.
type stepInfo struct {
	Text string
	Type string
}

// PlanningFlow drives a task end to end: it drafts a plan with the model,
// walks the plan step by step handing each one to the best-matching executor
// agent, and closes with a model-written summary.
type PlanningFlow struct {
	model        model.Model
	agents       map[string]Executor
	primaryKey   string
	executorKeys []string

	planning     *tool.Planning
	activePlanID string

	currentStepIndex int

	logger logging.Logger
}

// NewPlanningFlow constructs a planning flow over the given executor agents.
func NewPlanningFlow(m model.Model, agents map[string]Executor, optFns ...func(o *PlanningOptions)) (*PlanningFlow, error) {
	opts := PlanningOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	if len(agents) == 0 {
		return nil, fmt.Errorf("no agents provided")
	}

	if opts.PrimaryKey == "" {
		if len(agents) != 1 {
			return nil, fmt.Errorf("primary agent key is required with multiple agents")
		}
		for key := range agents {
			opts.PrimaryKey = key
		}
	}
	if _, ok := agents[opts.PrimaryKey]; !ok {
		return nil, fmt.Errorf("primary agent %q not registered", opts.PrimaryKey)
	}

	if opts.ExecutorKeys == nil {
		for key := range agents {
			opts.ExecutorKeys = append(opts.ExecutorKeys, key)
		}
		sort.Strings(opts.ExecutorKeys)
	}

	planID := opts.PlanID
	if planID == "" {
		planID = fmt.Sprintf("plan_%d", time.Now().Unix())
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.NoOpLogger{}
	}

	return &PlanningFlow{
		model:            m,
		agents:           agents,
		primaryKey:       opts.PrimaryKey,
		executorKeys:     opts.ExecutorKeys,
		planning:         tool.NewPlanning(opts.Store),
		activePlanID:     planID,
		currentStepIndex: -1,
		logger:           logger,
	}, nil
}

// ActivePlanID returns the id of the plan this flow drives.
func (f *PlanningFlow) ActivePlanID() string { return f.activePlanID }

// Store returns the plan store backing the flow.
func (f *PlanningFlow) Store() *plan.Store { return f.planning.Store() }

// PrimaryAgent returns the flow's primary executor.
func (f *PlanningFlow) PrimaryAgent() Executor { return f.agents[f.primaryKey] }

// executorFor picks the agent for a step: a routing tag that names a
// registered agent wins, then the configured executor order, then the
// primary agent.
func (f *PlanningFlow) executorFor(stepType string) Executor {
	if stepType != "" {
		if agent, ok := f.agents[stepType]; ok {
			return agent
		}
	}
	for _, key := range f.executorKeys {
		if agent, ok := f.agents[key]; ok {
			return agent
		}
	}
	return f.agents[f.primaryKey]
}

// Execute runs the full flow for one input: plan creation, step-by-step
// execution and finalization. An executor that finishes (via a terminal
// tool) stops the walk early.
func (f *PlanningFlow) Execute(ctx context.Context, input string) (string, error) {
	if input != "" {
		if err := f.createInitialPlan(ctx, input); err != nil {
			return "", err
		}
		if !f.Store().Has(f.activePlanID) {
			f.logger.Error("plan creation failed", "plan_id", f.activePlanID)
			return "", fmt.Errorf("failed to create plan for: %s", input)
		}
	}

	var result strings.Builder
	for {
		index, info := f.currentStepInfo()
		f.currentStepIndex = index

		if index < 0 {
			summary, err := f.finalize(ctx)
			if err != nil {
				return "", err
			}
			result.WriteString(summary)
			break
		}

		executor := f.executorFor(info.Type)
		stepResult := f.executeStep(ctx, executor, index, info)
		result.WriteString(stepResult)
		result.WriteString("\n")

		if executor.State() == core.StateFinished {
			break
		}
	}

	return result.String(), nil
}

// createInitialPlan asks the model to draft a plan using the planning tool in
// required tool-choice mode. When the model fails to produce a usable
// planning call, a minimal default plan is created instead so execution can
// proceed.
func (f *PlanningFlow) createInitialPlan(ctx context.Context, request string) error {
	f.logger.Info("creating initial plan", "plan_id", f.activePlanID)

	resp, err := f.model.AskTool(ctx, model.Request{
		Messages:   []core.Message{core.UserMessage(prompt.PlanCreationRequest(request))},
		SystemMsgs: []core.Message{core.SystemMessage(prompt.PlanCreationSystem)},
		Tools:      tool.NewCollection(f.planning).ToParams(),
		ToolChoice: core.ToolChoiceRequired,
	})
	if err != nil {
		return fmt.Errorf("plan creation request: %w", err)
	}

	for _, call := range resp.ToolCalls {
		if call.Function.Name != tool.PlanningName {
			continue
		}

		var args map[string]any
		if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
			f.logger.Error("failed to parse tool arguments", "arguments", call.Function.Arguments)
			continue
		}

		// The flow owns the plan id; whatever the model picked is overridden.
		args["plan_id"] = f.activePlanID

		result, err := f.planning.Execute(ctx, args)
		if err != nil {
			f.logger.Warn("planning tool rejected the drafted plan", "error", err.Error())
			continue
		}
		f.logger.Info("plan creation result", "result", result.String())
		return nil
	}

	f.logger.Warn("creating default plan")

	title := request
	if len(title) > 50 {
		title = title[:50] + "..."
	}
	_, err = f.planning.Execute(ctx, map[string]any{
		"command": "create",
		"plan_id": f.activePlanID,
		"title":   fmt.Sprintf("Plan for: %s", title),
		"steps":   []string{"Analyze request", "Execute task", "Verify results"},
	})
	return err
}

// currentStepInfo locates the first step still requiring work, marks it
// in_progress and returns its index plus parsed routing info. Index -1 means
// the plan has no actionable steps left.
func (f *PlanningFlow) currentStepInfo() (int, stepInfo) {
	p, err := f.Store().Get(f.activePlanID)
	if err != nil {
		f.logger.Error("plan not found", "plan_id", f.activePlanID)
		return -1, stepInfo{}
	}

	for i, status := range p.StepStatuses {
		if !status.Active() {
			continue
		}

		info := stepInfo{Text: p.Steps[i]}
		if match := stepTypePattern.FindStringSubmatch(p.Steps[i]); match != nil {
			info.Type = strings.ToLower(match[1])
		}

		if _, err := f.Store().MarkStep(f.activePlanID, i, plan.StatusInProgress, ""); err != nil {
			f.logger.Warn("error marking step as in_progress", "error", err.Error())
		}
		return i, info
	}

	return -1, stepInfo{}
}

// executeStep hands one plan step to the executor with the full plan status
// as context. The step is marked completed regardless of the executor
// outcome; an executor error becomes the step's recorded result so the walk
// can continue.
func (f *PlanningFlow) executeStep(ctx context.Context, executor Executor, index int, info stepInfo) string {
	stepText := info.Text
	if stepText == "" {
		stepText = fmt.Sprintf("Step %d", index)
	}

	stepPrompt := prompt.StepExecution(f.planText(), index, stepText)

	stepResult, err := executor.Run(ctx, stepPrompt)
	if err != nil {
		f.logger.Error("error executing step", "step_index", index, "error", err.Error())
		stepResult = fmt.Sprintf("Error executing step %d: %v", index, err)
	}

	if _, err := f.Store().MarkStep(f.activePlanID, index, plan.StatusCompleted, ""); err != nil {
		f.logger.Warn("failed to mark step as completed", "step_index", index, "error", err.Error())
	}

	return stepResult
}

// planText renders the current plan, falling back to a raw store dump if the
// lookup fails.
func (f *PlanningFlow) planText() string {
	p, err := f.Store().Get(f.activePlanID)
	if err != nil {
		f.logger.Error("failed to fetch plan", "plan_id", f.activePlanID, "error", err.Error())
		return fmt.Sprintf("Error: plan with ID %s not found", f.activePlanID)
	}
	return p.Render()
}

// finalize produces the completion summary, asking the model directly and
// falling back to the primary agent when that fails.
func (f *PlanningFlow) finalize(ctx context.Context) (string, error) {
	planText := f.planText()

	response, err := f.model.Ask(ctx,
		[]core.Message{core.UserMessage(prompt.FinalizeRequest(planText))},
		[]core.Message{core.SystemMessage(prompt.FinalizeSystem)},
	)
	if err == nil {
		return fmt.Sprintf("Plan completed:\n\n%s", response), nil
	}
	f.logger.Error("error finalizing plan with model", "error", err.Error())

	summary, err := f.PrimaryAgent().Run(ctx, prompt.FinalizeAgentFallback(planText))
	if err != nil {
		f.logger.Error("error finalizing plan with agent", "error", err.Error())
		return "Plan completed. Error generating summary.", nil
	}
	return fmt.Sprintf("Plan completed:\n\n%s", summary), nil
}
