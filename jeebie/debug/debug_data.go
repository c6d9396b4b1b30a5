package debug

import (
	"github.com/valerio/jeebie-cycle/jeebie/disasm"
)

// CPUState contains all CPU register information for debugging
type CPUState struct {
	A uint8
	F uint8
	B uint8
	C uint8
	D uint8
	E uint8
	H uint8
	L uint8

	SP     uint16
	PC     uint16
	IME    bool
	Halted bool
	Cycles uint64
}

// PPUState is the part of the PPU shown next to the registers.
type PPUState struct {
	Mode   string
	LY     uint8
	Frames uint64
}

// DebuggerState represents the current debugger state
type DebuggerState int

const (
	DebuggerRunning DebuggerState = iota
	DebuggerPaused
	DebuggerStepInstruction
	DebuggerStepFrame
	// DebuggerStopped means the console hit an unrecoverable error.
	DebuggerStopped
)

func (s DebuggerState) String() string {
	switch s {
	case DebuggerPaused:
		return "PAUSED"
	case DebuggerStepInstruction:
		return "STEP"
	case DebuggerStepFrame:
		return "FRAME"
	case DebuggerStopped:
		return "STOPPED"
	}
	return "RUNNING"
}

// CompleteDebugData contains all debug information needed by debug displays
type CompleteDebugData struct {
	OAM             *OAMData
	CPU             *CPUState
	PPU             *PPUState
	Audio           *AudioData
	Disassembly     []disasm.DisassemblyLine
	Breakpoints     []Breakpoint
	DebuggerState   DebuggerState
	InterruptEnable uint8 // IE register at 0xFFFF
	InterruptFlags  uint8 // IF register at 0xFF0F
}
