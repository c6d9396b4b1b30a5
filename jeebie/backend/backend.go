package backend

import (
	"github.com/valerio/jeebie-cycle/jeebie/debug"
	"github.com/valerio/jeebie-cycle/jeebie/input/event"
	"github.com/valerio/jeebie-cycle/jeebie/video"
)

// InputEvent is an action the backend read from its platform.
type InputEvent = event.Input

// Backend represents a complete emulator platform (rendering + input)
// Backends are responsible for:
// - Rendering frames to their specific output (terminal, files, ...)
// - Translating platform-specific input events to actions
type Backend interface {
	// Init configures the backend. It must be called before Update.
	Init(config BackendConfig) error

	// Update renders the frame and returns the input events collected since
	// the previous call.
	Update(frame *video.FrameBuffer) ([]InputEvent, error)

	// Cleanup resources when shutting down
	Cleanup() error
}

// DebugDataProvider supplies the data shown by debug views.
type DebugDataProvider interface {
	ExtractDebugData() *debug.CompleteDebugData
}

// BackendConfig holds configuration for backends
type BackendConfig struct {
	Title     string
	Scale     int
	ShowDebug bool // Backends may ignore unsupported features

	// DebugProvider is optional, backends without debug views ignore it.
	DebugProvider DebugDataProvider
}
