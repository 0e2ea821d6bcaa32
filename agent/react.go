package agent

import "context"

// thinkActor is the decide/act pair every concrete agent implements. Think
// consults the model and reports whether an action is needed; Act carries the
// chosen tool calls out.
type thinkActor interface {
	Think(ctx context.Context) (bool, error)
	Act(ctx context.Context) (string, error)
}

// runThinkAct executes one full decide/act cycle against the given agent.
func runThinkAct(ctx context.Context, ta thinkActor) (string, error) {
	shouldAct, err := ta.Think(ctx)
	if err != nil {
		return "", err
	}
	if !shouldAct {
		return "Thinking complete - no action needed", nil
	}
	return ta.Act(ctx)
}
