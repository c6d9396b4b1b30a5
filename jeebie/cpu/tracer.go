package cpu

import (
	"fmt"
	"log/slog"

	"github.com/valerio/jeebie-cycle/jeebie/disasm"
)

// Tracer receives every decoded instruction. Implementations must not keep
// a reference to regs.
type Tracer interface {
	Trace(pc uint16, opcode uint16, regs Registers)
}

type nopTracer struct{}

func (nopTracer) Trace(uint16, uint16, Registers) {}

// LogTracer writes one debug record per instruction.
type LogTracer struct {
	logger *slog.Logger
}

// NewLogTracer returns a tracer writing to logger. A nil logger follows
// whatever slog.Default() is when each opcode is fetched.
func NewLogTracer(logger *slog.Logger) *LogTracer {
	return &LogTracer{logger: logger}
}

func (t *LogTracer) Trace(pc uint16, opcode uint16, regs Registers) {
	logger := t.logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("exec",
		"pc", fmt.Sprintf("0x%04X", pc),
		"op", disasm.Mnemonic(opcode),
		"af", fmt.Sprintf("%04X", regs.AF),
		"bc", fmt.Sprintf("%04X", regs.BC),
		"de", fmt.Sprintf("%04X", regs.DE),
		"hl", fmt.Sprintf("%04X", regs.HL),
		"sp", fmt.Sprintf("%04X", regs.SP),
	)
}
