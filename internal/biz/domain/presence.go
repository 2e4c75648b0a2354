package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedRecord means the portal returned a presence record missing required fields
	ErrMalformedRecord = errors.New("malformed presence record")
	// ErrUnexpectedRecordShape means a child carried more than one presence record
	ErrUnexpectedRecordShape = errors.New("unexpected presence record shape")
)

// UndefinedRecordID is the identity marker the portal uses for "no record yet"
const UndefinedRecordID = "undefined"

// emptyTimeSentinel is the portal's placeholder for a missing time
const emptyTimeSentinel = "--:--"

// PresenceState identifies which PresenceStatus variant is active
type PresenceState int

const (
	StateUnknown PresenceState = iota
	StateNotYetArrived
	StateCheckedIn
	StateCheckedOut
	StateAbsent
)

func (s PresenceState) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateNotYetArrived:
		return "not_yet_arrived"
	case StateCheckedIn:
		return "checked_in"
	case StateCheckedOut:
		return "checked_out"
	case StateAbsent:
		return "absent"
	}
	return fmt.Sprintf("PresenceState(%d)", int(s))
}

// PresenceStatus is the normalized presence of one child.
// Only the fields belonging to State are set: CheckIn for CheckedIn,
// CheckIn and CheckOut for CheckedOut, Note for Absent.
type PresenceStatus struct {
	State    PresenceState
	CheckIn  string
	CheckOut string
	Note     string
}

// Unknown returns the status of a child without a record for today
func Unknown() PresenceStatus {
	return PresenceStatus{State: StateUnknown}
}

// NotYetArrived returns the status of a child with a record but no check-in
func NotYetArrived() PresenceStatus {
	return PresenceStatus{State: StateNotYetArrived}
}

// CheckedIn returns the status of a child checked in at timeIn
func CheckedIn(timeIn string) PresenceStatus {
	return PresenceStatus{State: StateCheckedIn, CheckIn: timeIn}
}

// CheckedOut returns the status of a child that left at timeOut
func CheckedOut(timeIn, timeOut string) PresenceStatus {
	return PresenceStatus{State: StateCheckedOut, CheckIn: timeIn, CheckOut: timeOut}
}

// Absent returns the status of a child marked absent, note may be empty
func Absent(note string) PresenceStatus {
	return PresenceStatus{State: StateAbsent, Note: note}
}

// RawEntry is one side (in or out) of a portal presence record
type RawEntry struct {
	Time    string
	Fetcher string
}

// RawPresence is a portal presence record as decoded from the wire.
// Pointer fields are nil when the portal omitted them.
type RawPresence struct {
	ID       *string
	IsAbsent *bool
	Notes    string
	HasIn    *bool
	HasOut   *bool
	In       *RawEntry
	Out      *RawEntry
}

// Normalize turns a raw portal record into a PresenceStatus
func Normalize(raw RawPresence) (PresenceStatus, error) {
	if raw.ID != nil && *raw.ID == UndefinedRecordID {
		return Unknown(), nil
	}

	if raw.IsAbsent == nil {
		return PresenceStatus{}, fmt.Errorf("%w: missing isAbsent", ErrMalformedRecord)
	}
	if *raw.IsAbsent {
		return Absent(strings.TrimSpace(raw.Notes)), nil
	}

	if raw.HasIn == nil {
		return PresenceStatus{}, fmt.Errorf("%w: missing hasIn", ErrMalformedRecord)
	}
	if !*raw.HasIn {
		return NotYetArrived(), nil
	}

	timeIn := entryTime(raw.In)
	if timeIn == "" {
		return PresenceStatus{}, fmt.Errorf("%w: hasIn without check-in time", ErrMalformedRecord)
	}

	hasOut := raw.HasOut != nil && *raw.HasOut
	timeOut := entryTime(raw.Out)
	if !hasOut {
		return CheckedIn(timeIn), nil
	}
	if timeOut == "" {
		return PresenceStatus{}, fmt.Errorf("%w: hasOut without check-out time", ErrMalformedRecord)
	}
	return CheckedOut(timeIn, timeOut), nil
}

// NormalizeSingle normalizes the record list of one child, which must
// hold exactly one record
func NormalizeSingle(records []RawPresence) (PresenceStatus, error) {
	switch len(records) {
	case 0:
		return PresenceStatus{}, fmt.Errorf("%w: no presence record", ErrMalformedRecord)
	case 1:
		return Normalize(records[0])
	default:
		return PresenceStatus{}, fmt.Errorf("%w: %d presence records", ErrUnexpectedRecordShape, len(records))
	}
}

// NormalizeTime maps the portal's empty-time sentinel to ""
func NormalizeTime(t string) string {
	t = strings.TrimSpace(t)
	if t == emptyTimeSentinel {
		return ""
	}
	return t
}

func entryTime(e *RawEntry) string {
	if e == nil {
		return ""
	}
	return NormalizeTime(e.Time)
}
