// Package taskmesh provides a high-level façade over the agent loop, tool
// dispatch, plan store and flow orchestration packages. Most applications
// interact with this package by:
//  1. Creating a TaskMesh via New() around a model (openai, anthropic or mock)
//  2. Running single agents (RunAgent, RunPlanningAgent) for bounded tasks
//  3. Running a planning flow (RunFlow) when a task needs decomposition
//     across several executor agents
//
// The façade wires defaults from an optional Config; all defaults are safe
// for local development and testing.
package taskmesh

import (
	"context"

	"github.com/taskmesh/taskmesh/agent"
	"github.com/taskmesh/taskmesh/config"
	"github.com/taskmesh/taskmesh/flow"
	"github.com/taskmesh/taskmesh/logging"
	"github.com/taskmesh/taskmesh/model"
	"github.com/taskmesh/taskmesh/plan"
	"github.com/taskmesh/taskmesh/tool"
)

// Options configures the TaskMesh instance.
type Options struct {
	// Config provides loop bounds and memory sizing; nil uses defaults.
	Config *config.Config

	// Tools replaces the default toolset handed to agents created by this
	// façade.
	Tools []tool.Tool

	// Store shares one plan store across all planning agents and flows
	// created here. Nil creates a fresh store.
	Store *plan.Store

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// TaskMesh is the high-level façade aggregating a model, a shared plan store
// and the agent/flow constructors.
type TaskMesh struct {
	model  model.Model
	opts   Options
	store  *plan.Store
	logger logging.Logger
}

// New creates a TaskMesh around the given model with optional overrides.
func New(m model.Model, optFns ...func(o *Options)) *TaskMesh {
	opts := Options{
		Config: config.Default(),
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Config == nil {
		opts.Config = config.Default()
	}

	store := opts.Store
	if store == nil {
		store = plan.NewStore()
	}

	return &TaskMesh{
		model:  m,
		opts:   opts,
		store:  store,
		logger: opts.Logger,
	}
}

// Store returns the shared plan store.
func (tm *TaskMesh) Store() *plan.Store { return tm.store }

// NewAgent constructs a tool-calling agent wired with the façade's defaults.
func (tm *TaskMesh) NewAgent(optFns ...func(o *agent.Options)) *agent.ToolCallAgent {
	fns := append([]func(o *agent.Options){tm.agentDefaults}, optFns...)
	return agent.NewToolCallAgent(tm.model, fns...)
}

// NewPlanningAgent constructs a planning agent sharing the façade's plan
// store.
func (tm *TaskMesh) NewPlanningAgent(optFns ...func(o *agent.PlanningOptions)) *agent.PlanningAgent {
	fns := append([]func(o *agent.PlanningOptions){func(o *agent.PlanningOptions) {
		tm.agentDefaults(&o.Options)
		o.Store = tm.store
	}}, optFns...)
	return agent.NewPlanningAgent(tm.model, fns...)
}

// RunAgent executes one bounded tool-calling agent run for the request.
func (tm *TaskMesh) RunAgent(ctx context.Context, request string) (string, error) {
	return tm.NewAgent().Run(ctx, request)
}

// RunPlanningAgent drafts a plan for the request and executes it with a
// single planning agent.
func (tm *TaskMesh) RunPlanningAgent(ctx context.Context, request string) (string, error) {
	return tm.NewPlanningAgent().Run(ctx, request)
}

// RunFlow decomposes the request into a plan and walks it step by step across
// the given executor agents. With a nil agents map a default tool-calling
// agent serves as the sole executor.
func (tm *TaskMesh) RunFlow(ctx context.Context, request string, agents map[string]flow.Executor, optFns ...func(o *flow.PlanningOptions)) (string, error) {
	if agents == nil {
		agents = map[string]flow.Executor{"default": tm.NewAgent()}
	}

	fns := append([]func(o *flow.PlanningOptions){func(o *flow.PlanningOptions) {
		o.Store = tm.store
		o.Logger = tm.logger
	}}, optFns...)

	f, err := flow.New(flow.TypePlanning, tm.model, agents, fns...)
	if err != nil {
		return "", err
	}
	return f.Execute(ctx, request)
}

func (tm *TaskMesh) agentDefaults(o *agent.Options) {
	cfg := tm.opts.Config
	o.MaxSteps = cfg.Agent.MaxSteps
	o.DuplicateThreshold = cfg.Agent.DuplicateThreshold
	o.MemoryCapacity = cfg.Agent.MemoryCapacity
	o.Logger = tm.logger
	if tm.opts.Tools != nil {
		o.Tools = tm.opts.Tools
	}
}
