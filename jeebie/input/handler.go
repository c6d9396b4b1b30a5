package input

import (
	"time"

	"github.com/valerio/jeebie-cycle/jeebie/input/action"
	"github.com/valerio/jeebie-cycle/jeebie/input/event"
)

// debounceDuration is the minimum time between two presses of a UI action.
const debounceDuration = 300 * time.Millisecond

// Handler debounces presses of emulator actions. Game inputs pass through
// untouched so rapid button mashing reaches the joypad.
type Handler struct {
	lastActionTime map[action.Action]time.Time
	debounceDelay  time.Duration
	now            func() time.Time
}

func NewHandler() *Handler {
	return &Handler{
		lastActionTime: make(map[action.Action]time.Time),
		debounceDelay:  debounceDuration,
		now:            time.Now,
	}
}

// ProcessEvent reports whether the event should be handled.
func (h *Handler) ProcessEvent(evt event.Input) bool {
	if evt.Type != event.Press || action.GetInfo(evt.Action).Category == action.CategoryGameInput {
		return true
	}

	now := h.now()
	if last, ok := h.lastActionTime[evt.Action]; ok && now.Sub(last) < h.debounceDelay {
		return false
	}
	h.lastActionTime[evt.Action] = now
	return true
}
