package domain

import "errors"

// ErrPortalCallFailed wraps any failure of a portal action call
var ErrPortalCallFailed = errors.New("portal call failed")

// Button is one clickable action under a status card
type Button struct {
	Action Action
	Token  string
}

// ChildReport is one reply unit of a status request
type ChildReport struct {
	AccountIndex uint
	Account      AccountID
	Child        Child
	PhotoKey     string // platform image key, empty when no photo
	Status       PresenceStatus
	Buttons      []Button
}

// OutcomeKind classifies the result of a button click
type OutcomeKind int

const (
	// OutcomeUnauthorized: unknown user, nothing is sent back
	OutcomeUnauthorized OutcomeKind = iota
	// OutcomeUnknownChoice: invalid or stale token
	OutcomeUnknownChoice
	// OutcomeDismissed: clear the buttons
	OutcomeDismissed
	// OutcomeIgnored: acknowledge only
	OutcomeIgnored
	// OutcomeApplied: portal call succeeded, Status is authoritative
	OutcomeApplied
	// OutcomeFailed: portal call or its response failed
	OutcomeFailed
)

// ActionOutcome is the result of dispatching one callback token
type ActionOutcome struct {
	Kind   OutcomeKind
	Action Action
	Child  Child // Name is empty when the lookup failed
	Status PresenceStatus
	Err    error
}
