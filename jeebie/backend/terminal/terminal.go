package terminal

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/valerio/jeebie-cycle/jeebie/backend"
	"github.com/valerio/jeebie-cycle/jeebie/backend/terminal/render"
	"github.com/valerio/jeebie-cycle/jeebie/debug"
	"github.com/valerio/jeebie-cycle/jeebie/input"
	"github.com/valerio/jeebie-cycle/jeebie/input/action"
	"github.com/valerio/jeebie-cycle/jeebie/input/event"
	"github.com/valerio/jeebie-cycle/jeebie/video"
)

const logCapacity = 200

// Backend draws the frame with half block characters, two pixels per cell,
// next to an optional debug panel and the log tail.
type Backend struct {
	screen    tcell.Screen
	trueColor bool
	config    backend.BackendConfig
	keys      *keyboard
	queued    []backend.InputEvent
	quitting  bool

	logBuffer *render.LogBuffer
	logLevel  *slog.LevelVar
	debugData *debug.CompleteDebugData
}

// New creates a terminal backend. level filters the log panel, it is shared
// with the run loop so the log level actions take effect here.
func New(level *slog.LevelVar) *Backend {
	if level == nil {
		level = new(slog.LevelVar)
	}
	return &Backend{
		logLevel: level,
		keys:     newKeyboard(input.DefaultKeymap()),
	}
}

// NewWithScreen uses an existing screen, tests pass a simulation screen.
func NewWithScreen(screen tcell.Screen, level *slog.LevelVar) *Backend {
	t := New(level)
	t.screen = screen
	return t
}

func (t *Backend) Init(config backend.BackendConfig) error {
	t.config = config

	if t.screen == nil {
		screen, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("failed to initialize terminal: %w", err)
		}
		t.screen = screen
	}
	if err := t.screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize terminal: %w", err)
	}
	t.trueColor = t.screen.Colors() >= 1<<24
	t.screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	t.screen.Clear()

	// anything written to stderr now would corrupt the screen
	t.logBuffer = render.NewLogBuffer(logCapacity)
	slog.SetDefault(slog.New(render.NewLogBufferHandler(t.logBuffer, t.logLevel)))

	slog.Info("Terminal backend initialized", "title", config.Title, "true_color", t.trueColor)
	return nil
}

// Update polls the keyboard, then draws frame unless a quit is pending.
func (t *Backend) Update(frame *video.FrameBuffer) ([]backend.InputEvent, error) {
	now := time.Now()
	for t.screen.HasPendingEvent() {
		switch ev := t.screen.PollEvent().(type) {
		case *tcell.EventKey:
			t.handleKey(ev, now)
		case *tcell.EventResize:
			t.screen.Sync()
		}
	}

	events := append(t.keys.events(now), t.queued...)
	t.queued = nil
	if t.quitting {
		return events, nil
	}

	t.debugData = nil
	if t.config.ShowDebug && t.config.DebugProvider != nil {
		t.debugData = t.config.DebugProvider.ExtractDebugData()
	}
	t.render(frame)
	t.screen.Show()
	return events, nil
}

func (t *Backend) Cleanup() error {
	if t.screen != nil {
		t.screen.Fini()
	}
	return nil
}

func (t *Backend) handleKey(ev *tcell.EventKey, now time.Time) {
	act, ok := t.keys.translate(ev)
	if !ok {
		return
	}
	if action.GetInfo(act).Category == action.CategoryGameInput {
		t.keys.press(act, now)
		return
	}
	if t.handleLocal(act) {
		return
	}
	if act == action.EmulatorQuit {
		t.quitting = true
	}
	slog.Debug("UI event", "action", action.GetInfo(act).Description)
	t.queued = append(t.queued, backend.InputEvent{Action: act, Type: event.Press})
}

// handleLocal runs the actions the terminal owns. It reports whether the
// action was consumed.
func (t *Backend) handleLocal(act action.Action) bool {
	switch act {
	case action.EmulatorDebugToggle:
		t.config.ShowDebug = !t.config.ShowDebug
		slog.Info("Debug display toggled", "enabled", t.config.ShowDebug)
	case action.EmulatorDebugUpdate:
		t.screen.Sync()
	default:
		return false
	}
	return true
}
