package controller

import (
	"errors"
	"fmt"
	"strconv"
)

var ErrInvalidTransition = errors.New("invalid state transition")

// State is the lifecycle of a connection session.
type State int

const (
	// Idle, waiting for the user to ask for a connection.
	StateInitial State = iota
	// Running the connect sequence.
	StateConnecting
	// Notifications are live. Terminal for the session.
	StateConnected
	// The connect sequence failed. Reverts to StateInitial after the cool-down.
	StateError
)

var AllStates = []State{StateInitial, StateConnecting, StateConnected, StateError}

func (s State) String() string {
	switch s {
	case StateInitial:
		return "initial"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateError:
		return "error"
	default:
		return "State(" + strconv.Itoa(int(s)) + ")"
	}
}

type Event int

const (
	EventConnect Event = iota
	EventSucceeded
	EventFailed
	EventCooledDown
)

func (e Event) String() string {
	switch e {
	case EventConnect:
		return "connect"
	case EventSucceeded:
		return "succeeded"
	case EventFailed:
		return "failed"
	case EventCooledDown:
		return "cooled down"
	default:
		return "Event(" + strconv.Itoa(int(e)) + ")"
	}
}

// Next is the transition function of the connection lifecycle.
func Next(s State, e Event) (State, error) {
	switch {
	case s == StateInitial && e == EventConnect:
		return StateConnecting, nil
	case s == StateConnecting && e == EventSucceeded:
		return StateConnected, nil
	case s == StateConnecting && e == EventFailed:
		return StateError, nil
	case s == StateError && e == EventCooledDown:
		return StateInitial, nil
	}

	return s, fmt.Errorf("%w: %v on %v", ErrInvalidTransition, s, e)
}
