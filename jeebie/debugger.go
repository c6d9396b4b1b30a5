package jeebie

import (
	"log/slog"

	"github.com/valerio/jeebie-cycle/jeebie/addr"
	"github.com/valerio/jeebie-cycle/jeebie/audio"
	"github.com/valerio/jeebie-cycle/jeebie/cpu"
	"github.com/valerio/jeebie-cycle/jeebie/debug"
	"github.com/valerio/jeebie-cycle/jeebie/disasm"
	"github.com/valerio/jeebie-cycle/jeebie/input/action"
	"github.com/valerio/jeebie-cycle/jeebie/memory"
)

const (
	disasmBefore = 8
	disasmAfter  = 16
)

var joypadKeys = map[action.Action]memory.JoypadKey{
	action.GBButtonA:      memory.JoypadA,
	action.GBButtonB:      memory.JoypadB,
	action.GBButtonStart:  memory.JoypadStart,
	action.GBButtonSelect: memory.JoypadSelect,
	action.GBDPadUp:       memory.JoypadUp,
	action.GBDPadDown:     memory.JoypadDown,
	action.GBDPadLeft:     memory.JoypadLeft,
	action.GBDPadRight:    memory.JoypadRight,
}

// CPURegister returns an 8 bit CPU register.
func (c *Console) CPURegister(r cpu.Reg8) uint8 {
	return c.cpu.Register8(r)
}

// PC returns the program counter.
func (c *Console) PC() uint16 {
	return c.cpu.PC()
}

// GetRange reads memory without side effects. The range is clamped to the
// end of the address space.
func (c *Console) GetRange(start uint16, length int) []uint8 {
	return c.bus.GetRange(start, length)
}

// Peek reads one byte without side effects.
func (c *Console) Peek(address uint16) uint8 {
	return c.bus.Peek(address)
}

// Schedule adds a breakpoint and returns its id.
func (c *Console) Schedule(b debug.Breakpoint) int {
	return c.breakpoints.Schedule(b)
}

// RemoveBreakpoint deletes a breakpoint by id.
func (c *Console) RemoveBreakpoint(id int) bool {
	return c.breakpoints.Remove(id)
}

// DisableBreakpoint keeps a breakpoint but stops it from firing.
func (c *Console) DisableBreakpoint(id int) bool {
	return c.breakpoints.Disable(id)
}

// EnableBreakpoint re-arms a disabled breakpoint.
func (c *Console) EnableBreakpoint(id int) bool {
	return c.breakpoints.Enable(id)
}

// Breakpoints returns the scheduled breakpoints.
func (c *Console) Breakpoints() []debug.Breakpoint {
	return c.breakpoints.Breakpoints()
}

// LastHits returns the breakpoints that caused the last pause.
func (c *Console) LastHits() []debug.Breakpoint {
	return c.hits
}

func (c *Console) debuggerState() debug.DebuggerState {
	switch {
	case !c.running:
		return debug.DebuggerStopped
	case c.paused:
		return debug.DebuggerPaused
	}
	return debug.DebuggerRunning
}

// ExtractDebugData collects what the debug views show.
func (c *Console) ExtractDebugData() *debug.CompleteDebugData {
	if c.cpu == nil || c.bus == nil {
		return nil
	}
	ie, iflags := c.bus.Interrupts()
	regs := c.cpu.Registers()

	return &debug.CompleteDebugData{
		OAM: debug.ExtractOAMData(c.bus, int(c.ppu.LY())),
		CPU: &debug.CPUState{
			A: regs.Get8(cpu.A), F: regs.Get8(cpu.F),
			B: regs.Get8(cpu.B), C: regs.Get8(cpu.C),
			D: regs.Get8(cpu.D), E: regs.Get8(cpu.E),
			H: regs.Get8(cpu.H), L: regs.Get8(cpu.L),
			SP:     regs.SP,
			PC:     regs.PC,
			IME:    c.cpu.IME(),
			Halted: c.cpu.Halted(),
			Cycles: c.cpu.Cycles(),
		},
		PPU: &debug.PPUState{
			Mode:   c.ppu.Mode().String(),
			LY:     c.ppu.LY(),
			Frames: c.ppu.Frames(),
		},
		Audio:           debug.ExtractAudioData(c.bus.IO(), c.apu, audio.SampleRate),
		Disassembly:     disasm.DisassembleAround(regs.PC, disasmBefore, disasmAfter, c.bus),
		Breakpoints:     c.breakpoints.Breakpoints(),
		DebuggerState:   c.debuggerState(),
		InterruptEnable: ie,
		InterruptFlags:  iflags,
	}
}

// HandleAction applies an input action. Game Boy buttons follow the
// pressed state, everything else reacts to presses only.
func (c *Console) HandleAction(act action.Action, pressed bool) {
	if key, ok := joypadKeys[act]; ok {
		if pressed {
			c.joypad.Press(key)
		} else {
			c.joypad.Release(key)
		}
		return
	}
	if !pressed {
		return
	}

	switch act {
	case action.EmulatorPauseToggle:
		c.TogglePause()
		slog.Info("Pause toggled", "paused", c.paused)
	case action.EmulatorStepInstruction:
		if err := c.StepInstruction(); err != nil {
			slog.Error("Step failed", "error", err)
		}
	case action.EmulatorStepFrame:
		if err := c.StepFrame(); err != nil {
			slog.Error("Frame step failed", "error", err)
		}
	case action.EmulatorSaveState:
		if err := c.QuickSave(); err != nil {
			slog.Error("Saving state failed", "error", err)
		}
	case action.EmulatorLoadState:
		if err := c.QuickLoad(); err != nil {
			slog.Error("Loading state failed", "error", err)
		}
	case action.AudioToggleChannel1, action.AudioToggleChannel2, action.AudioToggleChannel3, action.AudioToggleChannel4:
		c.apu.ToggleChannel(int(act-action.AudioToggleChannel1) + 1)
	case action.AudioSoloChannel1, action.AudioSoloChannel2, action.AudioSoloChannel3, action.AudioSoloChannel4:
		c.apu.SoloChannel(int(act-action.AudioSoloChannel1) + 1)
	case action.AudioShowStatus:
		ch1, ch2, ch3, ch4 := c.apu.GetChannelStatus()
		slog.Info("Audio channels", "ch1", ch1, "ch2", ch2, "ch3", ch3, "ch4", ch4,
			"nr52", c.bus.Peek(addr.NR52))
	}
}
