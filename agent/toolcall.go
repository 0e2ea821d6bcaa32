package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/taskmesh/taskmesh/core"
	"github.com/taskmesh/taskmesh/logging"
	"github.com/taskmesh/taskmesh/memory"
	"github.com/taskmesh/taskmesh/model"
	"github.com/taskmesh/taskmesh/prompt"
	"github.com/taskmesh/taskmesh/tool"
)

// ErrToolCallsRequired is returned by Act when the agent runs in required
// tool-choice mode but the model produced no tool calls.
var ErrToolCallsRequired = errors.New("Tool calls required but none provided")

// Options configures a ToolCallAgent.
type Options struct {
	Name           string
	Description    string
	SystemPrompt   string
	NextStepPrompt string

	// Tools replaces the default toolset (create_chat_completion, terminate).
	Tools []tool.Tool
	// SpecialTools lists tool names whose execution finishes the agent.
	SpecialTools []string
	// ShouldFinish overrides the finish decision for special tools. The
	// default always finishes.
	ShouldFinish func(name string, result tool.Result) bool

	ToolChoice core.ToolChoice
	MaxSteps   int
	// MaxObserve truncates tool observations to this many bytes. Zero keeps
	// them whole.
	MaxObserve int

	MemoryCapacity     int
	DuplicateThreshold int

	Logger logging.Logger
}

// ToolCallAgent is the workhorse agent: each step it asks the model what to
// do given the registered tool schemas, then executes the returned tool calls
// in order and feeds the observations back into memory.
type ToolCallAgent struct {
	*BaseAgent

	tools        *tool.Collection
	toolChoice   core.ToolChoice
	specialTools []string
	shouldFinish func(name string, result tool.Result) bool
	maxObserve   int

	// toolCalls holds the calls selected by the latest Think.
	toolCalls []core.ToolCall
}

// NewToolCallAgent constructs a tool-calling agent around the given model.
func NewToolCallAgent(m model.Model, optFns ...func(o *Options)) *ToolCallAgent {
	opts := Options{
		Name:           "toolcall",
		Description:    "an agent that can execute tool calls",
		SystemPrompt:   prompt.ToolCallSystem,
		NextStepPrompt: prompt.ToolCallNextStep,
		ToolChoice:     core.ToolChoiceAuto,
		MaxSteps:       30,
		SpecialTools:   []string{tool.TerminateName},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Tools == nil {
		opts.Tools = []tool.Tool{tool.NewChatCompletion(), tool.NewTerminate()}
	}

	a := &ToolCallAgent{
		BaseAgent:    newBaseAgent(m, opts.Name, opts.Description),
		tools:        tool.NewCollection(opts.Tools...),
		toolChoice:   opts.ToolChoice,
		specialTools: opts.SpecialTools,
		shouldFinish: opts.ShouldFinish,
		maxObserve:   opts.MaxObserve,
	}
	a.applyOptions(&opts)
	a.bind(a)
	return a
}

func (a *ToolCallAgent) applyOptions(opts *Options) {
	a.systemPrompt = opts.SystemPrompt
	a.nextStepPrompt = opts.NextStepPrompt
	if opts.MaxSteps > 0 {
		a.maxSteps = opts.MaxSteps
	}
	if opts.DuplicateThreshold > 0 {
		a.duplicateThreshold = opts.DuplicateThreshold
	}
	if opts.MemoryCapacity > 0 {
		a.mem = memory.New(opts.MemoryCapacity)
	}
	if opts.Logger != nil {
		a.logger = opts.Logger
	}
}

// Tools returns the agent's tool collection.
func (a *ToolCallAgent) Tools() *tool.Collection { return a.tools }

// Step implements Stepper with one decide/act cycle.
func (a *ToolCallAgent) Step(ctx context.Context) (string, error) {
	return runThinkAct(ctx, a)
}

// Think asks the model for the next move and records the resulting assistant
// turn. It reports whether Act should run.
func (a *ToolCallAgent) Think(ctx context.Context) (bool, error) {
	return a.thinkWith(ctx, a.nextStepPrompt)
}

// thinkWith runs the thinking phase with an explicit next-step prompt,
// letting subclasses inject plan context without mutating agent fields.
func (a *ToolCallAgent) thinkWith(ctx context.Context, nextStepPrompt string) (bool, error) {
	if nextStepPrompt != "" {
		a.mem.Add(core.UserMessage(nextStepPrompt))
	}

	var systemMsgs []core.Message
	if a.systemPrompt != "" {
		systemMsgs = []core.Message{core.SystemMessage(a.systemPrompt)}
	}

	resp, err := a.model.AskTool(ctx, model.Request{
		Messages:   a.mem.Messages(),
		SystemMsgs: systemMsgs,
		Tools:      a.tools.ToParams(),
		ToolChoice: a.toolChoice,
	})
	if err != nil {
		return false, fmt.Errorf("model request: %w", err)
	}

	a.toolCalls = resp.ToolCalls

	a.logger.Info("agent thoughts", "agent", a.name, "content", resp.Content)
	a.logger.Info("tools selected", "agent", a.name, "count", len(resp.ToolCalls), "tools", toolNames(resp.ToolCalls))

	if a.toolChoice == core.ToolChoiceNone {
		if len(resp.ToolCalls) > 0 {
			a.logger.Warn("agent tried to use tools when they were not available", "agent", a.name)
			a.toolCalls = nil
		}
		if resp.Content != "" {
			a.mem.Add(core.AssistantMessage(resp.Content))
			return true, nil
		}
		return false, nil
	}

	if len(a.toolCalls) > 0 {
		a.mem.Add(core.FromToolCalls(resp.Content, a.toolCalls))
	} else {
		a.mem.Add(core.AssistantMessage(resp.Content))
	}

	if a.toolChoice == core.ToolChoiceRequired && len(a.toolCalls) == 0 {
		return true, nil // Act surfaces the violation
	}

	if a.toolChoice == core.ToolChoiceAuto && len(a.toolCalls) == 0 {
		return resp.Content != "", nil
	}

	return len(a.toolCalls) > 0, nil
}

// Act executes the tool calls selected by the last Think, in the order the
// model returned them, appending each observation to memory.
func (a *ToolCallAgent) Act(ctx context.Context) (string, error) {
	if len(a.toolCalls) == 0 {
		if a.toolChoice == core.ToolChoiceRequired {
			return "", ErrToolCallsRequired
		}
		if last, ok := a.mem.Last(); ok && last.Content != "" {
			return last.Content, nil
		}
		return "No content or commands to execute", nil
	}

	var results []string
	for _, call := range a.toolCalls {
		observation := a.ExecuteTool(ctx, call)

		if a.maxObserve > 0 && len(observation) > a.maxObserve {
			observation = observation[:a.maxObserve]
		}

		a.logger.Info("tool completed", "agent", a.name, "tool", call.Function.Name, "result", observation)

		a.mem.Add(core.ToolMessage(observation, call.Function.Name, call.ID))
		results = append(results, observation)
	}

	return strings.Join(results, "\n\n"), nil
}

// ExecuteTool runs a single tool call and formats the observation for the
// model. Failures become observations rather than Go errors so the model can
// see and correct them.
func (a *ToolCallAgent) ExecuteTool(ctx context.Context, call core.ToolCall) string {
	if call.Function.Name == "" {
		return "Error: Invalid command format"
	}

	name := call.Function.Name
	if !a.tools.Has(name) {
		return fmt.Sprintf("Error: Unknown tool '%s'", name)
	}

	rawArgs := call.Function.Arguments
	if rawArgs == "" {
		rawArgs = "{}"
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		a.logger.Error("invalid tool arguments", "agent", a.name, "tool", name, "arguments", call.Function.Arguments)
		return fmt.Sprintf("Error: Error parsing arguments for %s: Invalid JSON format", name)
	}

	a.logger.Info("activating tool", "agent", a.name, "tool", name)
	result, err := a.tools.Execute(ctx, name, args)
	if err != nil {
		a.logger.Error("tool failed", "agent", a.name, "tool", name, "error", err.Error())
		return fmt.Sprintf("Error: Tool '%s' encountered a problem: %v", name, err)
	}

	observation := fmt.Sprintf("Cmd `%s` completed with no output", name)
	if !result.IsZero() {
		observation = fmt.Sprintf("Observed output of cmd `%s` executed:\n%s", name, result.String())
	}

	a.handleSpecialTool(name, result)

	return observation
}

// handleSpecialTool finishes the agent when a terminal tool ran successfully.
func (a *ToolCallAgent) handleSpecialTool(name string, result tool.Result) {
	if !a.isSpecialTool(name) {
		return
	}
	if a.shouldFinish != nil && !a.shouldFinish(name, result) {
		return
	}
	a.logger.Info("special tool has completed the task", "agent", a.name, "tool", name)
	a.state = core.StateFinished
}

func (a *ToolCallAgent) isSpecialTool(name string) bool {
	for _, special := range a.specialTools {
		if strings.EqualFold(special, name) {
			return true
		}
	}
	return false
}

func toolNames(calls []core.ToolCall) []string {
	names := make([]string, len(calls))
	for i, call := range calls {
		names[i] = call.Function.Name
	}
	return names
}
