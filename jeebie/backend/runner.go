package backend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/valerio/jeebie-cycle/jeebie/audio"
	"github.com/valerio/jeebie-cycle/jeebie/debug"
	"github.com/valerio/jeebie-cycle/jeebie/input"
	"github.com/valerio/jeebie-cycle/jeebie/input/action"
	"github.com/valerio/jeebie-cycle/jeebie/input/event"
	"github.com/valerio/jeebie-cycle/jeebie/timing"
	"github.com/valerio/jeebie-cycle/jeebie/video"
)

// Emulator is the part of the console the run loop drives.
type Emulator interface {
	RunUntilFrame() error
	GetCurrentFrame() *video.FrameBuffer
	DrainAudio() []int16
	HandleAction(act action.Action, pressed bool)
}

// forwarded actions are handled by the console itself.
var forwarded = []action.Action{
	action.EmulatorPauseToggle,
	action.EmulatorStepFrame,
	action.EmulatorStepInstruction,
	action.EmulatorSaveState,
	action.EmulatorLoadState,
	action.AudioToggleChannel1,
	action.AudioToggleChannel2,
	action.AudioToggleChannel3,
	action.AudioToggleChannel4,
	action.AudioSoloChannel1,
	action.AudioSoloChannel2,
	action.AudioSoloChannel3,
	action.AudioSoloChannel4,
	action.AudioShowStatus,
}

// Runner owns the frame loop: run a frame, feed the audio sinks, present
// the frame, dispatch input, wait for the next frame.
type Runner struct {
	emu     Emulator
	backend Backend
	limiter timing.Limiter
	input   *input.Manager
	sinks   []audio.Sink
	level   *slog.LevelVar

	quit   bool
	frames uint64
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLimiter sets the frame pacing, no pacing by default.
func WithLimiter(l timing.Limiter) RunnerOption {
	return func(r *Runner) { r.limiter = l }
}

// WithAudioSink adds a destination for the console's samples.
func WithAudioSink(s audio.Sink) RunnerOption {
	return func(r *Runner) { r.sinks = append(r.sinks, s) }
}

// WithLogLevel lets the debug actions change the log level at runtime.
func WithLogLevel(level *slog.LevelVar) RunnerOption {
	return func(r *Runner) { r.level = level }
}

func NewRunner(emu Emulator, b Backend, opts ...RunnerOption) *Runner {
	r := &Runner{
		emu:     emu,
		backend: b,
		limiter: timing.NewNoOpLimiter(),
		input:   input.NewManager(emu),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.input.On(action.EmulatorQuit, event.Press, func() { r.quit = true })
	r.input.On(action.EmulatorSnapshot, event.Press, func() {
		debug.TakeSnapshot(r.emu.GetCurrentFrame())
	})
	for _, act := range forwarded {
		act := act
		r.input.On(act, event.Press, func() { r.emu.HandleAction(act, true) })
	}
	if r.level != nil {
		r.input.On(action.DebugLogLevelIncrease, event.Press, func() { r.shiftLevel(-4) })
		r.input.On(action.DebugLogLevelDecrease, event.Press, func() { r.shiftLevel(4) })
	}
	return r
}

// shiftLevel moves between Debug, Info, Warn and Error.
func (r *Runner) shiftLevel(delta slog.Level) {
	next := min(max(r.level.Level()+delta, slog.LevelDebug), slog.LevelError)
	r.level.Set(next)
	slog.Warn("Log level changed", "level", next)
}

// Input exposes the input manager so callers can bind extra actions.
func (r *Runner) Input() *input.Manager { return r.input }

// Frames returns the number of frames presented.
func (r *Runner) Frames() uint64 { return r.frames }

// Quit stops the loop after the current frame.
func (r *Runner) Quit() { r.quit = true }

// Run loops until a quit action, ctx is cancelled or the emulator fails.
func (r *Runner) Run(ctx context.Context) error {
	r.limiter.Reset()
	for !r.quit {
		if err := ctx.Err(); err != nil {
			slog.Info("Stopping", "reason", context.Cause(ctx))
			return nil
		}

		if err := r.emu.RunUntilFrame(); err != nil {
			return err
		}

		if samples := r.emu.DrainAudio(); len(samples) > 0 {
			for _, s := range r.sinks {
				if err := s.WriteSamples(samples); err != nil {
					slog.Warn("Audio sink failed", "error", err)
				}
			}
		}

		events, err := r.backend.Update(r.emu.GetCurrentFrame())
		if err != nil {
			return fmt.Errorf("backend update: %w", err)
		}
		r.input.Dispatch(events)
		r.frames++

		r.limiter.WaitForNextFrame()
	}
	slog.Debug("Run loop finished", "frames", r.frames)
	return nil
}
