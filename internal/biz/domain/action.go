package domain

import "fmt"

// Action is what a button asks the portal to do. The value is the keyword
// carried in callback tokens.
type Action string

const (
	ActionCheckIn    Action = "checkin"
	ActionCheckOut   Action = "checkout"
	ActionMarkAbsent Action = "sickleave"

	// ActionDismiss clears the buttons of a status card
	ActionDismiss Action = "none"
	// ActionIgnore is acknowledged and otherwise dropped
	ActionIgnore Action = "ignore"
)

// IsPortalAction reports whether the action maps to a portal call
func (a Action) IsPortalAction() bool {
	switch a {
	case ActionCheckIn, ActionCheckOut, ActionMarkAbsent:
		return true
	}
	return false
}

func (a Action) valid() bool {
	return a.IsPortalAction() || a == ActionDismiss || a == ActionIgnore
}

// ResolveActions returns the legal next actions for a status, in button order.
// An unknown state is a programming error and panics.
func ResolveActions(s PresenceStatus) []Action {
	switch s.State {
	case StateUnknown, StateNotYetArrived:
		return []Action{ActionCheckIn, ActionMarkAbsent}
	case StateCheckedIn:
		return []Action{ActionCheckOut}
	case StateAbsent, StateCheckedOut:
		return nil
	}
	panic(fmt.Sprintf("domain: no action table entry for %v", s.State))
}
