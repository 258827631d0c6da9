package workflow

import (
	"context"
	"fmt"

	"github.com/expensedesk/expensedesk/internal/domain/entity"
)

// Trigger represents an event that can cause a lifecycle transition.
type Trigger string

const (
	// TriggerAssign routes a pending expense to a designated approver.
	TriggerAssign Trigger = "ASSIGN"
	// TriggerApprove records an approval. Under sequence routing an
	// approval may keep the expense in review for the next approver.
	TriggerApprove Trigger = "APPROVE"
	// TriggerReject records a rejection. Rejection is always terminal.
	TriggerReject Trigger = "REJECT"
)

// String returns the string representation of the trigger.
func (t Trigger) String() string {
	return string(t)
}

// GuardFunc is a function that evaluates whether a transition should be allowed.
type GuardFunc func(ctx context.Context) bool

// transition is a candidate target state with an optional guard.
type transition struct {
	to    entity.Status
	guard GuardFunc
}

// Guards hold the transition guards an approval can take instead of
// completing the expense. Advance keeps a sequence-routed expense in
// review for the next approver; Hold sends the expense back to pending
// when a conditional rule keeps it awaiting further approvals. Nil
// guards disable their branch.
type Guards struct {
	Advance GuardFunc
	Hold    GuardFunc
}

// Machine validates expense lifecycle transitions. It tracks the
// current status and the fixed transition table for the approval
// lifecycle; terminal statuses have no outgoing transitions.
type Machine struct {
	current     entity.Status
	transitions map[entity.Status]map[Trigger][]transition
}

// NewMachine creates a lifecycle machine positioned at the given status.
func NewMachine(current entity.Status, guards Guards) (*Machine, error) {
	if !current.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidState, current)
	}

	m := &Machine{
		current:     current,
		transitions: make(map[entity.Status]map[Trigger][]transition),
	}

	m.permit(entity.StatusPending, TriggerAssign, entity.StatusInReview, nil)
	if guards.Hold != nil {
		m.permit(entity.StatusPending, TriggerApprove, entity.StatusPending, guards.Hold)
	}
	m.permit(entity.StatusPending, TriggerApprove, entity.StatusApproved, nil)
	m.permit(entity.StatusPending, TriggerReject, entity.StatusRejected, nil)

	if guards.Advance != nil {
		m.permit(entity.StatusInReview, TriggerApprove, entity.StatusInReview, guards.Advance)
	}
	if guards.Hold != nil {
		m.permit(entity.StatusInReview, TriggerApprove, entity.StatusPending, guards.Hold)
	}
	m.permit(entity.StatusInReview, TriggerApprove, entity.StatusApproved, nil)
	m.permit(entity.StatusInReview, TriggerReject, entity.StatusRejected, nil)

	return m, nil
}

func (m *Machine) permit(from entity.Status, trigger Trigger, to entity.Status, guard GuardFunc) {
	byTrigger, ok := m.transitions[from]
	if !ok {
		byTrigger = make(map[Trigger][]transition)
		m.transitions[from] = byTrigger
	}
	byTrigger[trigger] = append(byTrigger[trigger], transition{to: to, guard: guard})
}

// State returns the current status.
func (m *Machine) State() entity.Status {
	return m.current
}

// CanFire returns true if the trigger is permitted in the current status.
func (m *Machine) CanFire(trigger Trigger) bool {
	byTrigger, ok := m.transitions[m.current]
	if !ok {
		return false
	}
	return len(byTrigger[trigger]) > 0
}

// Fire attempts the trigger, moving to the first target whose guard
// passes. Guardless transitions always pass.
func (m *Machine) Fire(ctx context.Context, trigger Trigger) error {
	byTrigger, ok := m.transitions[m.current]
	if !ok {
		return fmt.Errorf("%w: cannot fire %s from terminal state %s", ErrInvalidTransition, trigger, m.current)
	}

	candidates := byTrigger[trigger]
	if len(candidates) == 0 {
		return fmt.Errorf("%w: cannot fire %s from state %s", ErrInvalidTransition, trigger, m.current)
	}

	for _, t := range candidates {
		if t.guard == nil || t.guard(ctx) {
			m.current = t.to
			return nil
		}
	}

	return fmt.Errorf("%w: trigger %s from state %s", ErrGuardFailed, trigger, m.current)
}

// PermittedTriggers returns all triggers that can be fired in the current status.
func (m *Machine) PermittedTriggers() []Trigger {
	byTrigger, ok := m.transitions[m.current]
	if !ok {
		return nil
	}
	triggers := make([]Trigger, 0, len(byTrigger))
	for trigger := range byTrigger {
		triggers = append(triggers, trigger)
	}
	return triggers
}
