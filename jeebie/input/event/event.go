package event

import "github.com/valerio/jeebie-cycle/jeebie/input/action"

// Type represents the type of input event
type Type int

const (
	Press   Type = iota // Button pressed down (debounced)
	Release             // Button released (debounced)
	Hold                // Continuous while pressed (not debounced)
)

// Input is an action reported by a backend.
type Input struct {
	Action action.Action
	Type   Type
}
