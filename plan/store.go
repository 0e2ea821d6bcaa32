package plan

import (
	"fmt"
	"sync"
)

// NotFoundError reports a lookup for a plan id the store does not hold.
type NotFoundError struct {
	ID string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no plan found with ID: %s", e.ID)
}

// Store is a volatile, keyed registry of plans with an optional active plan
// pointer. It preserves creation order for deterministic listings. The map
// is safe for concurrent lookups; mutation of one plan id must stay
// single-writer (see package doc).
type Store struct {
	mu       sync.RWMutex
	plans    map[string]*Plan
	order    []string
	activeID string
}

// NewStore constructs an empty plan store.
func NewStore() *Store {
	return &Store{plans: make(map[string]*Plan)}
}

// Create registers a new plan, initializes every step to not_started and
// makes the plan active. It fails when the id is empty or already taken,
// the title is empty, or steps is empty.
func (s *Store) Create(id, title string, steps []string) (*Plan, error) {
	if id == "" {
		return nil, fmt.Errorf("parameter `plan_id` is required for command: create")
	}
	if title == "" {
		return nil, fmt.Errorf("parameter `title` is required for command: create")
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("parameter `steps` must be a non-empty list of strings for command: create")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.plans[id]; exists {
		return nil, fmt.Errorf("a plan with ID '%s' already exists. Use 'update' to modify existing plans", id)
	}

	p := &Plan{
		ID:           id,
		Title:        title,
		Steps:        append([]string(nil), steps...),
		StepStatuses: make([]Status, len(steps)),
		StepNotes:    make([]string, len(steps)),
	}
	for i := range p.StepStatuses {
		p.StepStatuses[i] = StatusNotStarted
	}
	s.plans[id] = p
	s.order = append(s.order, id)
	s.activeID = id
	return p.Clone(), nil
}

// Update replaces the title and/or steps of an existing plan. Steps whose
// text is unchanged at the same index keep their status and notes; all other
// positions reset to not_started with empty notes. Empty title / nil steps
// leave the respective field untouched.
func (s *Store) Update(id, title string, steps []string) (*Plan, error) {
	if id == "" {
		return nil, fmt.Errorf("parameter `plan_id` is required for command: update")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p, exists := s.plans[id]
	if !exists {
		return nil, &NotFoundError{ID: id}
	}

	if title != "" {
		p.Title = title
	}

	if steps != nil {
		newStatuses := make([]Status, len(steps))
		newNotes := make([]string, len(steps))
		for i, step := range steps {
			if i < len(p.Steps) && step == p.Steps[i] {
				newStatuses[i] = p.StepStatuses[i]
				newNotes[i] = p.StepNotes[i]
			} else {
				newStatuses[i] = StatusNotStarted
			}
		}
		p.Steps = append([]string(nil), steps...)
		p.StepStatuses = newStatuses
		p.StepNotes = newNotes
	}

	return p.Clone(), nil
}

// Get returns a copy of the plan with the given id, or the active plan when
// id is empty.
func (s *Store) Get(id string) (*Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, err := s.lookupLocked(id)
	if err != nil {
		return nil, err
	}
	return p.Clone(), nil
}

// SetActive marks the plan with the given id as active.
func (s *Store) SetActive(id string) error {
	if id == "" {
		return fmt.Errorf("parameter `plan_id` is required for command: set_active")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.plans[id]; !exists {
		return &NotFoundError{ID: id}
	}
	s.activeID = id
	return nil
}

// Delete removes a plan, clearing the active pointer when it referenced the
// deleted plan.
func (s *Store) Delete(id string) error {
	if id == "" {
		return fmt.Errorf("parameter `plan_id` is required for command: delete")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.plans[id]; !exists {
		return &NotFoundError{ID: id}
	}
	delete(s.plans, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	if s.activeID == id {
		s.activeID = ""
	}
	return nil
}

// MarkStep sets the status (and, when provided, the notes) of one step. An
// empty id targets the active plan. The index must fall inside
// [0, len(steps)) and the status must be one of the known values.
func (s *Store) MarkStep(id string, stepIndex int, status Status, notes string) (*Plan, error) {
	if status == "" {
		return nil, fmt.Errorf("parameter `step_status` is required for command: mark_step")
	}
	if !status.Valid() {
		return nil, fmt.Errorf("invalid step_status: %s", status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.lookupLocked(id)
	if err != nil {
		return nil, err
	}
	if stepIndex < 0 || stepIndex >= len(p.Steps) {
		return nil, fmt.Errorf("invalid step_index: %d. Must be between 0 and %d", stepIndex, len(p.Steps)-1)
	}
	p.StepStatuses[stepIndex] = status
	if notes != "" {
		p.StepNotes[stepIndex] = notes
	}
	return p.Clone(), nil
}

// CurrentStep locates the first step of the plan whose status is
// not_started or in_progress, marks it in_progress and returns its index.
// It returns -1 when every step is terminal. The side effect is idempotent:
// re-querying the same state yields the same index.
func (s *Store) CurrentStep(id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.lookupLocked(id)
	if err != nil {
		return -1, err
	}
	for i, status := range p.StepStatuses {
		if status.Active() {
			p.StepStatuses[i] = StatusInProgress
			return i, nil
		}
	}
	return -1, nil
}

// List returns copies of all plans in creation order.
func (s *Store) List() []*Plan {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Plan, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.plans[id].Clone())
	}
	return out
}

// ActiveID returns the id of the active plan, or "" when none is active.
func (s *Store) ActiveID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeID
}

// Has reports whether a plan with the given id exists.
func (s *Store) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.plans[id]
	return exists
}

// lookupLocked resolves an id (or the active plan for "") to the live plan.
// Caller must hold at least a read lock.
func (s *Store) lookupLocked(id string) (*Plan, error) {
	if id == "" {
		if s.activeID == "" {
			return nil, fmt.Errorf("no active plan. Please specify a plan_id or set an active plan")
		}
		id = s.activeID
	}
	p, exists := s.plans[id]
	if !exists {
		return nil, &NotFoundError{ID: id}
	}
	return p, nil
}
