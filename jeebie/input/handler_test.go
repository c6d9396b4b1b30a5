package input

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/valerio/jeebie-cycle/jeebie/input/action"
	"github.com/valerio/jeebie-cycle/jeebie/input/event"
)

// fakeClock lets the tests move time without sleeping.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestHandler() (*Handler, *fakeClock) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	h := NewHandler()
	h.now = clock.now
	return h, clock
}

func TestHandler_Debouncing(t *testing.T) {
	tests := []struct {
		name           string
		action         action.Action
		eventType      event.Type
		timeBetween    time.Duration
		expectDebounce bool
	}{
		{
			name:           "UI action rapid press - should debounce",
			action:         action.EmulatorDebugToggle,
			eventType:      event.Press,
			timeBetween:    100 * time.Millisecond,
			expectDebounce: true,
		},
		{
			name:           "UI action slow press - should not debounce",
			action:         action.EmulatorDebugToggle,
			eventType:      event.Press,
			timeBetween:    400 * time.Millisecond,
			expectDebounce: false,
		},
		{
			name:           "Game Boy button rapid press - should not debounce",
			action:         action.GBButtonA,
			eventType:      event.Press,
			timeBetween:    10 * time.Millisecond,
			expectDebounce: false,
		},
		{
			name:           "UI action release event - should not debounce",
			action:         action.EmulatorDebugToggle,
			eventType:      event.Release,
			timeBetween:    10 * time.Millisecond,
			expectDebounce: false,
		},
		{
			name:           "Hold event type - should not debounce",
			action:         action.EmulatorDebugToggle,
			eventType:      event.Hold,
			timeBetween:    10 * time.Millisecond,
			expectDebounce: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, clock := newTestHandler()
			evt := event.Input{Action: tt.action, Type: tt.eventType}

			assert.True(t, handler.ProcessEvent(evt), "First event should always pass")
			clock.advance(tt.timeBetween)
			assert.Equal(t, !tt.expectDebounce, handler.ProcessEvent(evt))
		})
	}
}

func TestHandler_MultipleActions(t *testing.T) {
	handler, _ := newTestHandler()

	evt1 := event.Input{Action: action.EmulatorDebugToggle, Type: event.Press}
	evt2 := event.Input{Action: action.EmulatorSnapshot, Type: event.Press}

	assert.True(t, handler.ProcessEvent(evt1), "First debug toggle should pass")
	assert.True(t, handler.ProcessEvent(evt2), "Different actions don't interfere")
	assert.False(t, handler.ProcessEvent(evt1), "Rapid debug toggle should be debounced")
	assert.False(t, handler.ProcessEvent(evt2), "Rapid snapshot should be debounced")
}

type recordedInput struct {
	act     action.Action
	pressed bool
}

type gameRecorder struct{ got []recordedInput }

func (g *gameRecorder) HandleAction(act action.Action, pressed bool) {
	g.got = append(g.got, recordedInput{act, pressed})
}

func TestManager(t *testing.T) {
	game := &gameRecorder{}
	m := NewManager(game)
	pauses := 0
	m.On(action.EmulatorPauseToggle, event.Press, func() { pauses++ })

	m.Dispatch([]event.Input{
		{Action: action.GBButtonA, Type: event.Press},
		{Action: action.GBButtonA, Type: event.Hold},
		{Action: action.GBButtonA, Type: event.Release},
		{Action: action.EmulatorPauseToggle, Type: event.Press},
		{Action: action.EmulatorPauseToggle, Type: event.Press},
		{Action: action.EmulatorQuit, Type: event.Press},
	})

	assert.Equal(t, []recordedInput{{action.GBButtonA, true}, {action.GBButtonA, false}}, game.got)
	assert.Equal(t, 1, pauses, "second press is debounced")
}

func TestDefaultKeymap(t *testing.T) {
	km := DefaultKeymap()

	testCases := []struct {
		key  string
		want action.Action
	}{
		{key: "z", want: action.GBButtonA},
		{key: "w", want: action.GBDPadUp},
		{key: "F6", want: action.EmulatorSaveState},
		{key: "Escape", want: action.EmulatorQuit},
		{key: "_", want: action.DebugLogLevelDecrease},
	}
	for _, tC := range testCases {
		t.Run(tC.key, func(t *testing.T) {
			got, ok := km.Lookup(tC.key)
			assert.True(t, ok)
			assert.Equal(t, tC.want, got)
		})
	}

	_, ok := km.Lookup("F8")
	assert.False(t, ok)

	assert.Equal(t, []string{"Escape", "q"}, km.KeysFor(action.EmulatorQuit))

	km.Bind("q", action.EmulatorPauseToggle)
	assert.Equal(t, []string{"Escape"}, km.KeysFor(action.EmulatorQuit))
	assert.NotEqual(t, action.EmulatorPauseToggle, DefaultKeymap()["q"], "copies are independent")
}
