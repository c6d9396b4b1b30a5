package input

import (
	"slices"

	"github.com/valerio/jeebie-cycle/jeebie/input/action"
)

// Keymap binds backend key names ("z", "Enter", "F6") to actions. Backends
// translate their own key codes into these names.
type Keymap map[string]action.Action

var defaultBindings = []struct {
	act  action.Action
	keys []string
}{
	{action.GBButtonA, []string{"z"}},
	{action.GBButtonB, []string{"x"}},
	{action.GBButtonStart, []string{"Enter"}},
	{action.GBButtonSelect, []string{"Shift", "Select"}},
	{action.GBDPadUp, []string{"Up", "w"}},
	{action.GBDPadDown, []string{"Down", "s"}},
	{action.GBDPadLeft, []string{"Left", "a"}},
	{action.GBDPadRight, []string{"Right", "d"}},

	{action.EmulatorPauseToggle, []string{"Space", "p", "r"}},
	{action.EmulatorStepFrame, []string{"f", "o"}},
	{action.EmulatorStepInstruction, []string{"n", "i"}},
	{action.EmulatorSaveState, []string{"F6"}},
	{action.EmulatorLoadState, []string{"F7"}},
	{action.EmulatorSnapshot, []string{"F12", "F9"}},
	{action.EmulatorDebugToggle, []string{"F10"}},
	{action.EmulatorDebugUpdate, []string{"F11"}},
	{action.EmulatorQuit, []string{"Escape", "q"}},

	{action.AudioToggleChannel1, []string{"F1"}},
	{action.AudioToggleChannel2, []string{"F2"}},
	{action.AudioToggleChannel3, []string{"F3"}},
	{action.AudioToggleChannel4, []string{"F4"}},
	{action.AudioShowStatus, []string{"F5"}},
	{action.AudioSoloChannel1, []string{"1"}},
	{action.AudioSoloChannel2, []string{"2"}},
	{action.AudioSoloChannel3, []string{"3"}},
	{action.AudioSoloChannel4, []string{"4"}},

	{action.DebugLogLevelIncrease, []string{"+", "="}},
	{action.DebugLogLevelDecrease, []string{"-", "_"}},
}

// DefaultKeymap returns a fresh copy of the built-in bindings.
func DefaultKeymap() Keymap {
	km := make(Keymap)
	for _, b := range defaultBindings {
		for _, k := range b.keys {
			km[k] = b.act
		}
	}
	return km
}

// Lookup returns the action bound to key.
func (km Keymap) Lookup(key string) (action.Action, bool) {
	act, ok := km[key]
	return act, ok
}

// Bind replaces whatever key was bound to.
func (km Keymap) Bind(key string, act action.Action) {
	km[key] = act
}

// KeysFor returns the sorted key names bound to act.
func (km Keymap) KeysFor(act action.Action) []string {
	var keys []string
	for k, a := range km {
		if a == act {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys
}
