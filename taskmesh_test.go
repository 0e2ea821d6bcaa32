package taskmesh

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskmesh/taskmesh/agent"
	"github.com/taskmesh/taskmesh/core"
	"github.com/taskmesh/taskmesh/flow"
	"github.com/taskmesh/taskmesh/model"
	"github.com/taskmesh/taskmesh/plan"
)

type scriptedExecutor struct {
	result string
	runs   int
}

func (s *scriptedExecutor) Run(ctx context.Context, request string) (string, error) {
	s.runs++
	return s.result, nil
}

func (s *scriptedExecutor) State() core.AgentState { return core.StateIdle }

func TestRunAgent(t *testing.T) {
	m := model.NewMockModel()
	m.EnqueueToolCall("terminate", `{"status":"success"}`)

	tm := New(m)
	result, err := tm.RunAgent(context.Background(), "say hello and stop")
	require.NoError(t, err)
	assert.Contains(t, result, "The interaction has been completed with status: success")
}

func TestRunPlanningAgent_SharesStore(t *testing.T) {
	m := model.NewMockModel()
	m.EnqueueToolCall("planning",
		`{"command":"create","plan_id":"plan_shared","title":"T","steps":["a"]}`)
	m.EnqueueToolCall("terminate", `{"status":"success"}`)

	tm := New(m)
	_, err := tm.RunPlanningAgent(context.Background(), "one step task")
	require.NoError(t, err)

	assert.True(t, tm.Store().Has("plan_shared"), "planning agents write to the shared store")
}

func TestRunFlow(t *testing.T) {
	m := model.NewMockModel()
	m.EnqueueToolCall("planning",
		`{"command":"create","plan_id":"ignored","title":"Flow plan","steps":["only step"]}`)

	exec := &scriptedExecutor{result: "step handled"}

	tm := New(m)
	result, err := tm.RunFlow(context.Background(), "do the thing",
		map[string]flow.Executor{"primary": exec})
	require.NoError(t, err)

	assert.Equal(t, 1, exec.runs)
	assert.Contains(t, result, "step handled")
	assert.Contains(t, result, "Plan completed:")

	plans := tm.Store().List()
	require.Len(t, plans, 1)
	for _, status := range plans[0].StepStatuses {
		assert.Equal(t, plan.StatusCompleted, status)
	}
}

func TestNewAgent_ConfigDefaults(t *testing.T) {
	tm := New(model.NewMockModel())
	a := tm.NewAgent()
	assert.Equal(t, 30, a.MaxSteps())

	b := tm.NewAgent(func(o *agent.Options) { o.MaxSteps = 3 })
	assert.Equal(t, 3, b.MaxSteps())
}
