package plan

import (
	"fmt"
	"strings"
)

// Status describes the progress of a single plan step.
type Status string

// Step status values.
const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusBlocked    Status = "blocked"
)

// Valid reports whether the status is one of the four known values.
func (s Status) Valid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusCompleted, StatusBlocked:
		return true
	}
	return false
}

// Active reports whether a step with this status still needs work.
func (s Status) Active() bool {
	return s == StatusNotStarted || s == StatusInProgress
}

// Marker returns the rendered checkbox for this status. The marker glyphs
// are a wire contract with the step locators; do not change them without
// updating every consumer of the rendered form.
func (s Status) Marker() string {
	switch s {
	case StatusNotStarted:
		return "[ ]"
	case StatusInProgress:
		return "[→]"
	case StatusCompleted:
		return "[✓]"
	case StatusBlocked:
		return "[!]"
	}
	return "[-]"
}

// Plan is a named, ordered list of steps with per-step status and notes.
// StepStatuses and StepNotes always have the same length as Steps.
type Plan struct {
	ID           string   `json:"plan_id"`
	Title        string   `json:"title"`
	Steps        []string `json:"steps"`
	StepStatuses []Status `json:"step_statuses"`
	StepNotes    []string `json:"step_notes"`
}

// Clone returns a deep copy so callers cannot mutate store-internal state.
func (p *Plan) Clone() *Plan {
	c := &Plan{ID: p.ID, Title: p.Title}
	c.Steps = append([]string(nil), p.Steps...)
	c.StepStatuses = append([]Status(nil), p.StepStatuses...)
	c.StepNotes = append([]string(nil), p.StepNotes...)
	return c
}

// CompletedSteps counts steps whose status is completed.
func (p *Plan) CompletedSteps() int {
	n := 0
	for _, s := range p.StepStatuses {
		if s == StatusCompleted {
			n++
		}
	}
	return n
}

// Render produces the deterministic text form of the plan:
//
//	Plan: <id> - <title>
//
//	Steps:
//	0. [ ] first step
//	   Notes: optional note
//	...
//
//	Progress: completed/total steps completed
//
// Step locators scan from the "Steps:" anchor line; the line layout and the
// status markers are part of the contract.
func (p *Plan) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Plan: %s - %s\n", p.ID, p.Title)
	b.WriteString("\nSteps:\n")
	for i, step := range p.Steps {
		fmt.Fprintf(&b, "%d. %s %s\n", i, p.StepStatuses[i].Marker(), step)
		if p.StepNotes[i] != "" {
			fmt.Fprintf(&b, "   Notes: %s\n", p.StepNotes[i])
		}
	}
	fmt.Fprintf(&b, "\nProgress: %d/%d steps completed", p.CompletedSteps(), len(p.Steps))
	return b.String()
}
