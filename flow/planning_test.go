package flow

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskmesh/taskmesh/core"
	"github.com/taskmesh/taskmesh/model"
	"github.com/taskmesh/taskmesh/plan"
)

// fakeExecutor records the prompts it receives and plays back scripted
// results.
type fakeExecutor struct {
	state        core.AgentState
	result       string
	err          error
	finishAfter  int // finish after this many runs; 0 means never
	runs         []string
}

func newFakeExecutor(result string) *fakeExecutor {
	return &fakeExecutor{state: core.StateIdle, result: result}
}

func (f *fakeExecutor) Run(ctx context.Context, request string) (string, error) {
	f.runs = append(f.runs, request)
	if f.err != nil {
		return "", f.err
	}
	if f.finishAfter > 0 && len(f.runs) >= f.finishAfter {
		f.state = core.StateFinished
	}
	return f.result, nil
}

func (f *fakeExecutor) State() core.AgentState { return f.state }

func TestPlanningFlow_CompletedPlanFinalizesOnce(t *testing.T) {
	store := plan.NewStore()
	_, err := store.Create("plan_done", "T", []string{"a", "b"})
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err = store.MarkStep("plan_done", i, plan.StatusCompleted, "")
		require.NoError(t, err)
	}

	exec := newFakeExecutor("should not run")
	f, err := NewPlanningFlow(model.NewMockModel(), map[string]Executor{"primary": exec},
		func(o *PlanningOptions) {
			o.Store = store
			o.PlanID = "plan_done"
		})
	require.NoError(t, err)

	result, err := f.Execute(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "Plan completed:\n\nmock summary", result)
	assert.Empty(t, exec.runs, "a finished plan must not execute any step")
}

func TestPlanningFlow_DefaultPlanFallback(t *testing.T) {
	m := model.NewMockModel()
	// Required mode yields no planning call, forcing the default plan.
	m.EnqueueResponse(model.Response{Content: "I refuse to plan"})

	exec := newFakeExecutor("ok")
	f, err := NewPlanningFlow(m, map[string]Executor{"primary": exec})
	require.NoError(t, err)

	result, err := f.Execute(context.Background(), "summarize the quarterly report")
	require.NoError(t, err)

	p, err := f.Store().Get(f.ActivePlanID())
	require.NoError(t, err)
	assert.Equal(t, "Plan for: summarize the quarterly report", p.Title)
	assert.Equal(t, []string{"Analyze request", "Execute task", "Verify results"}, p.Steps)
	for _, status := range p.StepStatuses {
		assert.Equal(t, plan.StatusCompleted, status)
	}

	assert.Len(t, exec.runs, 3)
	assert.Equal(t, "ok\nok\nok\nPlan completed:\n\nmock summary", result)
}

func TestPlanningFlow_ModelDraftedPlan(t *testing.T) {
	m := model.NewMockModel()
	// The model picks its own plan id; the flow overrides it.
	m.EnqueueToolCall("planning",
		`{"command":"create","plan_id":"whatever","title":"Drafted","steps":["only step"]}`)

	exec := newFakeExecutor("done")
	f, err := NewPlanningFlow(m, map[string]Executor{"primary": exec},
		func(o *PlanningOptions) { o.PlanID = "plan_flow" })
	require.NoError(t, err)

	result, err := f.Execute(context.Background(), "one thing")
	require.NoError(t, err)

	p, err := f.Store().Get("plan_flow")
	require.NoError(t, err)
	assert.Equal(t, "Drafted", p.Title)
	assert.Contains(t, result, "done\n")
	assert.Contains(t, result, "Plan completed:")

	// Step prompts carry the plan status and the step text.
	require.Len(t, exec.runs, 1)
	assert.Contains(t, exec.runs[0], "CURRENT PLAN STATUS:")
	assert.Contains(t, exec.runs[0], `You are now working on step 0: "only step"`)
}

func TestPlanningFlow_ExecutorSelectionByTag(t *testing.T) {
	store := plan.NewStore()
	_, err := store.Create("plan_tags", "T", []string{"[SEARCH] find the docs", "write them up"})
	require.NoError(t, err)

	primary := newFakeExecutor("primary did it")
	search := newFakeExecutor("search did it")

	f, err := NewPlanningFlow(model.NewMockModel(),
		map[string]Executor{"primary": primary, "search": search},
		func(o *PlanningOptions) {
			o.Store = store
			o.PlanID = "plan_tags"
			o.PrimaryKey = "primary"
			o.ExecutorKeys = []string{"primary"}
		})
	require.NoError(t, err)

	result, err := f.Execute(context.Background(), "")
	require.NoError(t, err)

	assert.Len(t, search.runs, 1, "tagged step routes to the matching agent")
	assert.Len(t, primary.runs, 1, "untagged step falls back to executor order")
	assert.True(t, strings.HasPrefix(result, "search did it\nprimary did it\n"))
}

func TestPlanningFlow_FinishedExecutorStopsEarly(t *testing.T) {
	store := plan.NewStore()
	_, err := store.Create("plan_early", "T", []string{"a", "b", "c"})
	require.NoError(t, err)

	exec := newFakeExecutor("stopped")
	exec.finishAfter = 1

	f, err := NewPlanningFlow(model.NewMockModel(), map[string]Executor{"primary": exec},
		func(o *PlanningOptions) {
			o.Store = store
			o.PlanID = "plan_early"
		})
	require.NoError(t, err)

	result, err := f.Execute(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, "stopped\n", result, "no finalize after an early stop")
	assert.Len(t, exec.runs, 1)

	p, err := store.Get("plan_early")
	require.NoError(t, err)
	assert.Equal(t, plan.StatusCompleted, p.StepStatuses[0])
	assert.Equal(t, plan.StatusNotStarted, p.StepStatuses[1])
}

func TestPlanningFlow_ExecutorErrorStillCompletesStep(t *testing.T) {
	store := plan.NewStore()
	_, err := store.Create("plan_err", "T", []string{"only"})
	require.NoError(t, err)

	exec := newFakeExecutor("")
	exec.err = errors.New("boom")

	f, err := NewPlanningFlow(model.NewMockModel(), map[string]Executor{"primary": exec},
		func(o *PlanningOptions) {
			o.Store = store
			o.PlanID = "plan_err"
		})
	require.NoError(t, err)

	result, err := f.Execute(context.Background(), "")
	require.NoError(t, err)
	assert.Contains(t, result, "Error executing step 0: boom")
	assert.Contains(t, result, "Plan completed:")

	p, err := store.Get("plan_err")
	require.NoError(t, err)
	assert.Equal(t, plan.StatusCompleted, p.StepStatuses[0], "a failed step still advances the walk")
}

func TestPlanningFlow_PlanCreationFailure(t *testing.T) {
	m := model.NewMockModel()
	m.Fail(errors.New("api down"))

	f, err := NewPlanningFlow(m, map[string]Executor{"primary": newFakeExecutor("x")})
	require.NoError(t, err)

	_, err = f.Execute(context.Background(), "anything")
	require.Error(t, err)
}

func TestPlanningFlow_ConstructorValidation(t *testing.T) {
	m := model.NewMockModel()

	_, err := NewPlanningFlow(m, nil)
	assert.Error(t, err, "no agents")

	agents := map[string]Executor{"a": newFakeExecutor("x"), "b": newFakeExecutor("y")}
	_, err = NewPlanningFlow(m, agents)
	assert.Error(t, err, "ambiguous primary")

	_, err = NewPlanningFlow(m, agents, func(o *PlanningOptions) { o.PrimaryKey = "missing" })
	assert.Error(t, err)

	f, err := NewPlanningFlow(m, agents, func(o *PlanningOptions) { o.PrimaryKey = "a" })
	require.NoError(t, err)
	assert.Equal(t, agents["a"], f.PrimaryAgent())
}

func TestFlowFactory(t *testing.T) {
	m := model.NewMockModel()
	agents := map[string]Executor{"primary": newFakeExecutor("x")}

	f, err := New(TypePlanning, m, agents)
	require.NoError(t, err)
	assert.NotNil(t, f)

	_, err = New(Type("unknown"), m, agents)
	assert.Error(t, err)
}
