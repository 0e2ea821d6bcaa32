// Package agent implements the bounded decide/act execution loop: agents
// alternate between a thinking phase that asks the model for the next move
// and an acting phase that dispatches the resulting tool calls, until a
// terminal tool fires or the step budget runs out.
package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/taskmesh/taskmesh/core"
	"github.com/taskmesh/taskmesh/logging"
	"github.com/taskmesh/taskmesh/memory"
	"github.com/taskmesh/taskmesh/model"
	"github.com/taskmesh/taskmesh/prompt"
)

// Default loop parameters.
const (
	DefaultMaxSteps           = 10
	DefaultDuplicateThreshold = 2
)

// StateError reports an operation attempted from an incompatible agent state.
type StateError struct {
	Op    string
	State core.AgentState
}

// Error implements the error interface.
func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s agent from state: %s", e.Op, e.State)
}

// Stepper executes one decide/act cycle and returns a textual account of it.
// BaseAgent drives the loop; concrete agents supply the stepping behavior.
type Stepper interface {
	Step(ctx context.Context) (string, error)
}

// BaseAgent owns the shared loop machinery: state transitions, the step
// budget, conversation memory and stuck detection. Concrete agents embed it
// and register themselves as the Stepper.
type BaseAgent struct {
	name        string
	description string

	systemPrompt   string
	nextStepPrompt string

	state              core.AgentState
	currentStep        int
	maxSteps           int
	duplicateThreshold int

	mem    *memory.Memory
	model  model.Model
	logger logging.Logger

	stepper Stepper
}

func newBaseAgent(m model.Model, name, description string) *BaseAgent {
	return &BaseAgent{
		name:               name,
		description:        description,
		state:              core.StateIdle,
		maxSteps:           DefaultMaxSteps,
		duplicateThreshold: DefaultDuplicateThreshold,
		mem:                memory.New(0),
		model:              m,
		logger:             logging.NoOpLogger{},
	}
}

// bind registers the concrete agent as the loop's stepper.
func (a *BaseAgent) bind(s Stepper) { a.stepper = s }

// Run executes the agent loop until the agent finishes, errors, or exhausts
// its step budget. A non-empty request is recorded as a user message before
// the first step. Run only starts from the idle state.
//
// On a step error the agent parks in the error state and the error is
// returned. Reaching the step budget resets the agent to idle with a zeroed
// step counter so it can be run again; finishing via a terminal tool leaves
// the agent in the finished state until Reset.
func (a *BaseAgent) Run(ctx context.Context, request string) (string, error) {
	if a.state != core.StateIdle {
		return "", &StateError{Op: "run", State: a.state}
	}

	if request != "" {
		a.mem.Add(core.UserMessage(request))
	}

	previous := a.state
	a.state = core.StateRunning

	var results []string
	for a.currentStep < a.maxSteps && a.state != core.StateFinished {
		a.currentStep++
		a.logger.Info("executing step", "agent", a.name, "step", a.currentStep, "max_steps", a.maxSteps)

		stepResult, err := a.stepper.Step(ctx)
		if err != nil {
			a.state = core.StateError
			return "", fmt.Errorf("step %d: %w", a.currentStep, err)
		}

		if a.isStuck() {
			a.handleStuck()
		}

		results = append(results, fmt.Sprintf("Step %d: %s", a.currentStep, stepResult))
	}

	if a.currentStep >= a.maxSteps {
		a.currentStep = 0
		a.state = core.StateIdle
		results = append(results, fmt.Sprintf("Terminated: Reached max steps (%d)", a.maxSteps))
	}

	// A terminal tool parks the agent in finished; everything else reverts.
	if a.state == core.StateRunning {
		a.state = previous
	}

	if len(results) == 0 {
		return "No steps executed", nil
	}
	return strings.Join(results, "\n"), nil
}

// Reset returns the agent to the idle state with a zeroed step counter.
// Conversation memory is kept; call Memory().Clear() to drop it too.
func (a *BaseAgent) Reset() {
	a.state = core.StateIdle
	a.currentStep = 0
}

// isStuck reports whether the trailing messages all repeat the same
// non-empty content, which indicates the model is looping.
func (a *BaseAgent) isStuck() bool {
	if a.mem.Len() < a.duplicateThreshold {
		return false
	}
	recent := a.mem.Recent(a.duplicateThreshold)
	first := recent[0].Content
	if first == "" {
		return false
	}
	for _, msg := range recent[1:] {
		if msg.Content != first {
			return false
		}
	}
	return true
}

// handleStuck injects a corrective system message to steer the model off the
// repeated pattern.
func (a *BaseAgent) handleStuck() {
	a.logger.Warn("agent appears to be stuck in a loop, adding prompt to change strategy", "agent", a.name)
	a.mem.Add(core.SystemMessage(prompt.StuckCorrection))
}

// Name returns the agent's identifier.
func (a *BaseAgent) Name() string { return a.name }

// Description returns the agent's human-readable description.
func (a *BaseAgent) Description() string { return a.description }

// State returns the agent's current lifecycle state.
func (a *BaseAgent) State() core.AgentState { return a.state }

// CurrentStep returns the 1-based index of the step being executed, or the
// count of steps executed so far between runs.
func (a *BaseAgent) CurrentStep() int { return a.currentStep }

// MaxSteps returns the step budget for one run.
func (a *BaseAgent) MaxSteps() int { return a.maxSteps }

// Memory returns the agent's conversation memory.
func (a *BaseAgent) Memory() *memory.Memory { return a.mem }
