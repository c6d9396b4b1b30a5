package input

import (
	"github.com/valerio/jeebie-cycle/jeebie/input/action"
	"github.com/valerio/jeebie-cycle/jeebie/input/event"
)

// GameInput receives the Game Boy buttons.
type GameInput interface {
	HandleAction(act action.Action, pressed bool)
}

// Manager routes backend events: game inputs go to the console, every
// other action to the callbacks registered with On.
type Manager struct {
	handlers map[action.Action]map[event.Type][]func()
	debounce *Handler
	game     GameInput
}

func NewManager(game GameInput) *Manager {
	return &Manager{
		handlers: make(map[action.Action]map[event.Type][]func()),
		debounce: NewHandler(),
		game:     game,
	}
}

// On registers a callback for a specific action and event type
func (m *Manager) On(act action.Action, evt event.Type, callback func()) {
	if m.handlers[act] == nil {
		m.handlers[act] = make(map[event.Type][]func())
	}
	m.handlers[act][evt] = append(m.handlers[act][evt], callback)
}

// Trigger handles the given action and event type.
func (m *Manager) Trigger(act action.Action, evt event.Type) {
	if !m.debounce.ProcessEvent(event.Input{Action: act, Type: evt}) {
		return
	}

	if action.GetInfo(act).Category == action.CategoryGameInput {
		if m.game == nil {
			return
		}
		switch evt {
		case event.Press:
			m.game.HandleAction(act, true)
		case event.Release:
			m.game.HandleAction(act, false)
		}
		return
	}

	for _, callback := range m.handlers[act][evt] {
		callback()
	}
}

// Dispatch triggers every event in order.
func (m *Manager) Dispatch(events []event.Input) {
	for _, e := range events {
		m.Trigger(e.Action, e.Type)
	}
}
