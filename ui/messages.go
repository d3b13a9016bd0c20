package ui

import (
	"time"

	"github.com/robertof/go-squegg-meter/controller"
)

// StateMsg carries a controller state transition into the program.
type StateMsg struct {
	Change controller.StateChange
}

// SampleMsg carries a decoded sample into the program.
type SampleMsg struct {
	Update controller.Update
}

// connectDoneMsg is returned once Controller.Connect returns.
type connectDoneMsg struct {
	Err error
}

// frameMsg advances the strength animation by one frame.
type frameMsg time.Time
