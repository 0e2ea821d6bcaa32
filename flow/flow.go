// Package flow orchestrates multi-agent executions. A flow owns the overall
// task decomposition and delegates individual plan steps to executor agents.
package flow

import (
	"context"
	"fmt"

	"github.com/taskmesh/taskmesh/core"
	"github.com/taskmesh/taskmesh/model"
)

// Executor is the agent surface a flow drives: one bounded run per plan step,
// plus the lifecycle state used to detect early termination.
type Executor interface {
	Run(ctx context.Context, request string) (string, error)
	State() core.AgentState
}

// Flow executes a complete task from a single input.
type Flow interface {
	Execute(ctx context.Context, input string) (string, error)
}

// Type selects a flow implementation.
type Type string

// Known flow types.
const (
	TypePlanning Type = "planning"
)

// New constructs a flow of the given type.
func New(t Type, m model.Model, agents map[string]Executor, optFns ...func(o *PlanningOptions)) (Flow, error) {
	switch t {
	case TypePlanning:
		return NewPlanningFlow(m, agents, optFns...)
	default:
		return nil, fmt.Errorf("unknown flow type: %s", t)
	}
}
