package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskmesh/taskmesh/core"
	"github.com/taskmesh/taskmesh/model"
	"github.com/taskmesh/taskmesh/prompt"
	"github.com/taskmesh/taskmesh/tool"
)

func TestToolCallAgent_TerminateFinishes(t *testing.T) {
	m := model.NewMockModel()
	m.EnqueueToolCall("terminate", `{"status": "success"}`)

	a := NewToolCallAgent(m, func(o *Options) { o.MaxSteps = 5 })

	result, err := a.Run(context.Background(), "do the thing")
	require.NoError(t, err)
	assert.Contains(t, result, "Step 1:")
	assert.Contains(t, result, "The interaction has been completed with status: success")
	assert.Equal(t, core.StateFinished, a.State())

	// A finished agent refuses to run until reset.
	_, err = a.Run(context.Background(), "again")
	var stateErr *StateError
	require.True(t, errors.As(err, &stateErr))
	assert.Equal(t, core.StateFinished, stateErr.State)

	a.Reset()
	assert.Equal(t, core.StateIdle, a.State())
	assert.Equal(t, 0, a.CurrentStep())
}

func TestToolCallAgent_MaxStepsResets(t *testing.T) {
	m := model.NewMockModel() // default responses never terminate

	a := NewToolCallAgent(m, func(o *Options) { o.MaxSteps = 3 })

	result, err := a.Run(context.Background(), "keep going")
	require.NoError(t, err)
	assert.Contains(t, result, "Step 1:")
	assert.Contains(t, result, "Step 3:")
	assert.Contains(t, result, "Terminated: Reached max steps (3)")
	assert.Equal(t, core.StateIdle, a.State())
	assert.Equal(t, 0, a.CurrentStep())

	// The reset leaves the agent runnable.
	_, err = a.Run(context.Background(), "")
	require.NoError(t, err)
}

func TestToolCallAgent_RequiredWithoutToolCalls(t *testing.T) {
	m := model.NewMockModel()
	m.EnqueueResponse(model.Response{Content: "just some thoughts"})

	a := NewToolCallAgent(m, func(o *Options) { o.ToolChoice = core.ToolChoiceRequired })

	_, err := a.Run(context.Background(), "must use tools")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrToolCallsRequired))
	assert.Equal(t, core.StateError, a.State())
}

func TestToolCallAgent_NoneModeIgnoresToolCalls(t *testing.T) {
	m := model.NewMockModel()
	m.EnqueueResponse(model.Response{
		Content: "thinking out loud",
		ToolCalls: []core.ToolCall{{
			ID: "call_1", Type: "function",
			Function: core.Function{Name: "terminate", Arguments: `{"status":"success"}`},
		}},
	})
	m.EnqueueResponse(model.Response{}) // nothing at all

	a := NewToolCallAgent(m, func(o *Options) {
		o.ToolChoice = core.ToolChoiceNone
		o.MaxSteps = 2
	})

	result, err := a.Run(context.Background(), "chat only")
	require.NoError(t, err)
	assert.Contains(t, result, "Step 1: thinking out loud")
	assert.Contains(t, result, "Step 2: Thinking complete - no action needed")

	for _, msg := range a.Memory().Messages() {
		assert.NotEqual(t, core.RoleTool, msg.Role, "none mode must not execute tools")
	}
}

func TestToolCallAgent_UnknownToolObservation(t *testing.T) {
	m := model.NewMockModel()
	m.EnqueueToolCall("frobnicate", `{}`)
	m.EnqueueToolCall("terminate", `{"status": "failure"}`)

	a := NewToolCallAgent(m)

	result, err := a.Run(context.Background(), "use a tool I don't have")
	require.NoError(t, err)
	assert.Contains(t, result, "Error: Unknown tool 'frobnicate'")
	assert.Equal(t, core.StateFinished, a.State())
}

func TestToolCallAgent_ExecuteTool(t *testing.T) {
	a := NewToolCallAgent(model.NewMockModel())
	ctx := context.Background()

	obs := a.ExecuteTool(ctx, core.ToolCall{})
	assert.Equal(t, "Error: Invalid command format", obs)

	obs = a.ExecuteTool(ctx, core.ToolCall{
		ID: "call_1", Type: "function",
		Function: core.Function{Name: "terminate", Arguments: `{bad json`},
	})
	assert.Equal(t, "Error: Error parsing arguments for terminate: Invalid JSON format", obs)

	obs = a.ExecuteTool(ctx, core.ToolCall{
		ID: "call_2", Type: "function",
		Function: core.Function{Name: "create_chat_completion", Arguments: `{"response":"hi"}`},
	})
	assert.Equal(t, "Observed output of cmd `create_chat_completion` executed:\nhi", obs)
}

func TestToolCallAgent_SpecialToolCaseInsensitive(t *testing.T) {
	m := model.NewMockModel()
	m.EnqueueToolCall("terminate", `{"status": "success"}`)

	a := NewToolCallAgent(m, func(o *Options) {
		o.SpecialTools = []string{"TERMINATE"}
	})
	_, err := a.Run(context.Background(), "finish up")
	require.NoError(t, err)
	assert.Equal(t, core.StateFinished, a.State())
}

func TestToolCallAgent_ShouldFinishOverride(t *testing.T) {
	m := model.NewMockModel()
	m.EnqueueToolCall("terminate", `{"status": "failure"}`)
	m.EnqueueToolCall("terminate", `{"status": "success"}`)

	a := NewToolCallAgent(m, func(o *Options) {
		o.ShouldFinish = func(name string, result tool.Result) bool {
			return strings.Contains(result.Output, "success")
		}
	})

	result, err := a.Run(context.Background(), "first failure is not final")
	require.NoError(t, err)
	assert.Contains(t, result, "Step 2:")
	assert.Equal(t, core.StateFinished, a.State())
}

func TestToolCallAgent_MaxObserveTruncates(t *testing.T) {
	m := model.NewMockModel()
	m.EnqueueToolCall("create_chat_completion", `{"response":"a very long response that should be cut"}`)
	m.EnqueueToolCall("terminate", `{"status": "success"}`)

	a := NewToolCallAgent(m, func(o *Options) { o.MaxObserve = 10 })

	result, err := a.Run(context.Background(), "truncate me")
	require.NoError(t, err)
	assert.Contains(t, result, "Step 1: Observed o")
}

func TestBaseAgent_StuckDetection(t *testing.T) {
	a := NewToolCallAgent(model.NewMockModel())

	assert.False(t, a.isStuck(), "empty memory is not stuck")

	a.Memory().Add(core.AssistantMessage("same thing"))
	a.Memory().Add(core.AssistantMessage("same thing"))
	assert.True(t, a.isStuck())

	a.Memory().Clear()
	a.Memory().Add(core.AssistantMessage(""))
	a.Memory().Add(core.AssistantMessage(""))
	assert.False(t, a.isStuck(), "empty content does not count as repetition")

	a.Memory().Clear()
	a.Memory().Add(core.AssistantMessage("one"))
	a.Memory().Add(core.AssistantMessage("two"))
	assert.False(t, a.isStuck())
}

func TestBaseAgent_StuckInjectsCorrection(t *testing.T) {
	m := model.NewMockModel()
	m.EnqueueResponse(model.Response{Content: "loop"})

	a := NewToolCallAgent(m, func(o *Options) {
		o.NextStepPrompt = "loop"
		o.MaxSteps = 1
	})

	_, err := a.Run(context.Background(), "start")
	require.NoError(t, err)

	found := false
	for _, msg := range a.Memory().Messages() {
		if msg.Role == core.RoleSystem && msg.Content == prompt.StuckCorrection {
			found = true
		}
	}
	assert.True(t, found, "repeated content should inject the corrective system message")
}

func TestToolCallAgent_EmptyRun(t *testing.T) {
	a := NewToolCallAgent(model.NewMockModel())
	a.maxSteps = 0

	result, err := a.Run(context.Background(), "")
	require.NoError(t, err)
	assert.Contains(t, result, "Terminated: Reached max steps (0)")
}
