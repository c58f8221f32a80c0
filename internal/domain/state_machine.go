package domain

import "fmt"

// Event an action requested on a reservation
type Event string

const (
	EventConfirm  Event = "confirm"
	EventCancel   Event = "cancel"
	EventCheckIn  Event = "check_in"
	EventCheckOut Event = "check_out"
)

// transitions is the only place that defines which status changes are legal
var transitions = map[Status]map[Event]Status{
	StatusCreated: {
		EventConfirm: StatusConfirmed,
		EventCancel:  StatusCancelled,
	},
	StatusConfirmed: {
		EventCheckIn: StatusCheckedIn,
		EventCancel:  StatusCancelled,
	},
	StatusCheckedIn: {
		EventCheckOut: StatusCheckedOut,
	},
	StatusCheckedOut: {},
	StatusCancelled:  {},
}

// Transition returns the status reached by applying event to current.
// It fails with ErrIllegalTransition when current has no edge for event.
func Transition(current Status, event Event) (Status, error) {
	edges, ok := transitions[current]
	if !ok {
		return current, fmt.Errorf("%w: unknown status %q", ErrIllegalTransition, current)
	}
	next, ok := edges[event]
	if !ok {
		return current, fmt.Errorf("%w: %s from %s", ErrIllegalTransition, event, current)
	}
	return next, nil
}

// CanTransition reports whether event is legal from current
func CanTransition(current Status, event Event) bool {
	_, err := Transition(current, event)
	return err == nil
}

// IsTerminal reports whether no event can leave status
func (s Status) IsTerminal() bool {
	edges, ok := transitions[s]
	return ok && len(edges) == 0
}

// IsValid reports whether s is a known status
func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

var allEvents = []Event{EventConfirm, EventCancel, EventCheckIn, EventCheckOut}

// ValidateChange checks that to is reachable from from by exactly one legal
// event. Stores call it on every write so that no status is ever written
// without going through the transition table.
func ValidateChange(from, to Status) error {
	if from == to {
		return nil
	}
	for _, e := range allEvents {
		if next, err := Transition(from, e); err == nil && next == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s to %s", ErrIllegalTransition, from, to)
}
