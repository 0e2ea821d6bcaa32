package tool

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollection_ExecuteUnknownTool(t *testing.T) {
	c := NewCollection(NewTerminate())

	result, err := c.Execute(context.Background(), "foo", nil)
	require.NoError(t, err)
	assert.Equal(t, "Error: Unknown tool 'foo'", result.String())
}

func TestCollection_ExecuteToolErrorBecomesFailureResult(t *testing.T) {
	failing := NewFunctionTool("boom", "always fails", nil,
		func(ctx context.Context, args map[string]any) (Result, error) {
			return Result{}, errors.New("kaput")
		})
	c := NewCollection(failing)

	result, err := c.Execute(context.Background(), "boom", nil)
	require.NoError(t, err, "tool-level failures are observations, not Go errors")
	assert.Equal(t, "kaput", result.Error)
	assert.Equal(t, "Error: kaput", result.String())
}

func TestCollection_OrderAndLookup(t *testing.T) {
	c := NewCollection(NewChatCompletion(), NewTerminate())
	assert.Equal(t, []string{"create_chat_completion", "terminate"}, c.Names())
	assert.True(t, c.Has("terminate"))
	assert.False(t, c.Has("missing"))

	params := c.ToParams()
	require.Len(t, params, 2)
	assert.Equal(t, "function", params[0].Type)
	assert.Equal(t, "create_chat_completion", params[0].Function.Name)
	assert.NotEmpty(t, params[1].Function.Description)
}

func TestResult_String(t *testing.T) {
	assert.Equal(t, "hello", Result{Output: "hello"}.String())
	assert.Equal(t, "Error: bad", Result{Output: "hello", Error: "bad"}.String())
	assert.True(t, Result{}.IsZero())
}

func TestResult_Combine(t *testing.T) {
	a := Result{Output: "first", System: "sys"}
	b := Result{Output: "second", Base64Image: "img=="}

	combined, err := a.Combine(b)
	require.NoError(t, err)
	assert.Equal(t, "firstsecond", combined.Output)
	assert.Equal(t, "sys", combined.System)
	assert.Equal(t, "img==", combined.Base64Image)

	_, err = Result{Base64Image: "a"}.Combine(Result{Base64Image: "b"})
	assert.Error(t, err)
}

func TestTerminate_Execute(t *testing.T) {
	term := NewTerminate()
	result, err := term.Execute(context.Background(), map[string]any{"status": "success"})
	require.NoError(t, err)
	assert.Equal(t, "The interaction has been completed with status: success", result.Output)
}

func TestChatCompletion_Execute(t *testing.T) {
	cc := NewChatCompletion()
	result, err := cc.Execute(context.Background(), map[string]any{"response": "final answer"})
	require.NoError(t, err)
	assert.Equal(t, "final answer", result.Output)
}

func TestFunctionTool_Validation(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "number"},
			"b": map[string]any{"type": "number"},
		},
		"required": []string{"a", "b"},
	}
	sum := NewFunctionTool("calculate_sum", "Calculate the sum of two numbers", schema,
		func(ctx context.Context, args map[string]any) (Result, error) {
			total := args["a"].(float64) + args["b"].(float64)
			return Result{Output: fmt.Sprintf("%v", total)}, nil
		})

	result, err := sum.Execute(context.Background(), map[string]any{"a": 1.0, "b": 2.0})
	require.NoError(t, err)
	assert.Equal(t, "3", result.Output)

	_, err = sum.Execute(context.Background(), map[string]any{"a": 1.0})
	var toolErr *ToolError
	require.True(t, errors.As(err, &toolErr))
	assert.Equal(t, "VALIDATION_ERROR", toolErr.Code)
	assert.Equal(t, "calculate_sum", toolErr.Tool)
}

func TestFunctionTool_ExecutionErrorCode(t *testing.T) {
	failing := NewFunctionTool("fail", "fails", nil,
		func(ctx context.Context, args map[string]any) (Result, error) {
			return Result{}, errors.New("downstream unavailable")
		})

	_, err := failing.Execute(context.Background(), nil)
	var toolErr *ToolError
	require.True(t, errors.As(err, &toolErr))
	assert.Equal(t, "EXECUTION_ERROR", toolErr.Code)

	custom := NewFunctionTool("custom", "custom code", nil,
		func(ctx context.Context, args map[string]any) (Result, error) {
			return Result{}, NewToolError("custom", "nope", "RATE_LIMITED")
		})
	_, err = custom.Execute(context.Background(), nil)
	require.True(t, errors.As(err, &toolErr))
	assert.Equal(t, "RATE_LIMITED", toolErr.Code)
}

func TestPlanning_CreateGetAndList(t *testing.T) {
	p := NewPlanning(nil)
	ctx := context.Background()

	result, err := p.Execute(ctx, map[string]any{
		"command": "create",
		"plan_id": "plan_1",
		"title":   "Ship feature",
		"steps":   []any{"design", "implement", "verify"},
	})
	require.NoError(t, err)
	assert.Contains(t, result.Output, "Plan created successfully with ID: plan_1")
	assert.Contains(t, result.Output, "Progress: 0/3 steps completed")

	result, err = p.Execute(ctx, map[string]any{"command": "get"})
	require.NoError(t, err)
	assert.Contains(t, result.Output, "Plan: plan_1 - Ship feature")

	result, err = p.Execute(ctx, map[string]any{"command": "list"})
	require.NoError(t, err)
	assert.Contains(t, result.Output, "plan_1 (active): Ship feature - 0/3 steps completed")
}

func TestPlanning_ListEmpty(t *testing.T) {
	p := NewPlanning(nil)
	result, err := p.Execute(context.Background(), map[string]any{"command": "list"})
	require.NoError(t, err)
	assert.Equal(t, "No plans available. Create a plan with the 'create' command.", result.Output)
}

func TestPlanning_MarkStepFloatIndex(t *testing.T) {
	p := NewPlanning(nil)
	ctx := context.Background()

	_, err := p.Execute(ctx, map[string]any{
		"command": "create",
		"plan_id": "plan_1",
		"title":   "T",
		"steps":   []any{"a", "b"},
	})
	require.NoError(t, err)

	// JSON decoding hands numbers over as float64.
	result, err := p.Execute(ctx, map[string]any{
		"command":     "mark_step",
		"step_index":  float64(0),
		"step_status": "completed",
	})
	require.NoError(t, err)
	assert.Contains(t, result.Output, "Updated step 0 in plan 'plan_1'")
	assert.Contains(t, result.Output, "Progress: 1/2 steps completed")
}

func TestPlanning_Errors(t *testing.T) {
	p := NewPlanning(nil)
	ctx := context.Background()

	var toolErr *ToolError

	_, err := p.Execute(ctx, map[string]any{"command": "frobnicate"})
	require.True(t, errors.As(err, &toolErr))
	assert.Contains(t, toolErr.Message, "unrecognized command")

	_, err = p.Execute(ctx, map[string]any{"command": "create", "plan_id": "p1", "title": "T"})
	require.True(t, errors.As(err, &toolErr))

	_, err = p.Execute(ctx, map[string]any{"command": "get", "plan_id": "missing"})
	require.True(t, errors.As(err, &toolErr))
	assert.Contains(t, toolErr.Message, "no plan found with ID: missing")

	_, err = p.Execute(ctx, map[string]any{
		"command":     "mark_step",
		"step_status": "completed",
	})
	require.True(t, errors.As(err, &toolErr))
	assert.Contains(t, toolErr.Message, "step_index")
}

func TestPlanning_DeleteAndSetActive(t *testing.T) {
	p := NewPlanning(nil)
	ctx := context.Background()

	for _, id := range []string{"p1", "p2"} {
		_, err := p.Execute(ctx, map[string]any{
			"command": "create", "plan_id": id, "title": "T", "steps": []any{"a"},
		})
		require.NoError(t, err)
	}

	result, err := p.Execute(ctx, map[string]any{"command": "set_active", "plan_id": "p1"})
	require.NoError(t, err)
	assert.Equal(t, "Plan 'p1' is now active.", result.Output)

	result, err = p.Execute(ctx, map[string]any{"command": "delete", "plan_id": "p1"})
	require.NoError(t, err)
	assert.Equal(t, "Plan 'p1' deleted successfully.", result.Output)

	var toolErr *ToolError
	_, err = p.Execute(ctx, map[string]any{"command": "get"})
	require.True(t, errors.As(err, &toolErr), "deleting the active plan clears the pointer")
}
