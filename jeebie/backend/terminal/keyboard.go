package terminal

import (
	"strconv"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/valerio/jeebie-cycle/jeebie/backend"
	"github.com/valerio/jeebie-cycle/jeebie/input"
	"github.com/valerio/jeebie-cycle/jeebie/input/action"
	"github.com/valerio/jeebie-cycle/jeebie/input/event"
)

// Terminals only report key presses and auto-repeat, never releases. A
// button counts as held while repeats keep arriving within keyTimeout.
const keyTimeout = 100 * time.Millisecond

var specialKeys = map[tcell.Key]string{
	tcell.KeyEnter:  "Enter",
	tcell.KeyUp:     "Up",
	tcell.KeyDown:   "Down",
	tcell.KeyLeft:   "Left",
	tcell.KeyRight:  "Right",
	tcell.KeyEscape: "Escape",
}

// keyName maps a tcell key event to the name used by input.Keymap.
func keyName(ev *tcell.EventKey) (string, bool) {
	switch k := ev.Key(); {
	case k == tcell.KeyRune:
		if ev.Rune() == ' ' {
			return "Space", true
		}
		return string(ev.Rune()), true
	case k >= tcell.KeyF1 && k <= tcell.KeyF12:
		return "F" + strconv.Itoa(int(k-tcell.KeyF1)+1), true
	default:
		name, ok := specialKeys[k]
		return name, ok
	}
}

type keyboard struct {
	keymap   input.Keymap
	lastSeen map[action.Action]time.Time
	down     map[action.Action]bool
}

func newKeyboard(km input.Keymap) *keyboard {
	return &keyboard{
		keymap:   km,
		lastSeen: make(map[action.Action]time.Time),
		down:     make(map[action.Action]bool),
	}
}

// translate returns the action bound to ev, Ctrl-C always quits.
func (k *keyboard) translate(ev *tcell.EventKey) (action.Action, bool) {
	if ev.Key() == tcell.KeyCtrlC {
		return action.EmulatorQuit, true
	}
	name, ok := keyName(ev)
	if !ok {
		return 0, false
	}
	return k.keymap.Lookup(name)
}

// press marks a Game Boy button as seen. Only one d-pad direction is held
// at a time, the terminal cannot tell when the previous one was let go.
func (k *keyboard) press(act action.Action, now time.Time) {
	if isDPad(act) {
		for _, d := range []action.Action{action.GBDPadUp, action.GBDPadDown, action.GBDPadLeft, action.GBDPadRight} {
			if d != act {
				delete(k.lastSeen, d)
			}
		}
	}
	k.lastSeen[act] = now
}

func isDPad(act action.Action) bool {
	switch act {
	case action.GBDPadUp, action.GBDPadDown, action.GBDPadLeft, action.GBDPadRight:
		return true
	}
	return false
}

// events turns the held set into press, hold and release events.
func (k *keyboard) events(now time.Time) []backend.InputEvent {
	var out []backend.InputEvent
	for act, seen := range k.lastSeen {
		if now.Sub(seen) >= keyTimeout {
			delete(k.lastSeen, act)
			continue
		}
		typ := event.Hold
		if !k.down[act] {
			typ = event.Press
			k.down[act] = true
		}
		out = append(out, backend.InputEvent{Action: act, Type: typ})
	}
	for act := range k.down {
		if _, held := k.lastSeen[act]; !held {
			delete(k.down, act)
			out = append(out, backend.InputEvent{Action: act, Type: event.Release})
		}
	}
	return out
}
