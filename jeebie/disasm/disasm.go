package disasm

import (
	"fmt"
	"strings"

	"github.com/valerio/jeebie-cycle/jeebie/bit"
)

// Reader reads memory without side effects.
type Reader interface {
	Peek(address uint16) uint8
}

// DisassemblyLine represents a single disassembled instruction
type DisassemblyLine struct {
	Address     uint16
	Instruction string
	Length      int
}

// DisassembleAt disassembles the instruction at the given program counter
func DisassembleAt(pc uint16, mem Reader) DisassemblyLine {
	opcode := mem.Peek(pc)

	if opcode == 0xCB {
		if pc == 0xFFFF {
			return DisassemblyLine{Address: pc, Instruction: "CB ??", Length: 2}
		}
		return DisassemblyLine{
			Address:     pc,
			Instruction: CBInstructionNames[mem.Peek(pc+1)],
			Length:      2,
		}
	}

	length := InstructionLengths[opcode]
	template := InstructionTemplates[opcode]

	var instruction string
	switch {
	case !strings.Contains(template, "%"):
		instruction = template
	case length == 2:
		instruction = fmt.Sprintf(template, mem.Peek(pc+1))
	default:
		nn := bit.Combine(mem.Peek(pc+2), mem.Peek(pc+1))
		instruction = fmt.Sprintf(template, nn)
	}

	return DisassemblyLine{
		Address:     pc,
		Instruction: instruction,
		Length:      length,
	}
}

// DisassembleRange disassembles multiple instructions starting from the given PC
func DisassembleRange(startPC uint16, count int, mem Reader) []DisassemblyLine {
	lines := make([]DisassemblyLine, 0, count)
	pc := startPC

	for i := 0; i < count; i++ {
		line := DisassembleAt(pc, mem)
		lines = append(lines, line)
		next := pc + uint16(line.Length)
		if next < pc {
			break
		}
		pc = next
	}

	return lines
}

// DisassembleAround disassembles instructions around the given PC.
// Instructions are variable length, so it searches backwards for a start
// address that decodes cleanly into currentPC.
func DisassembleAround(currentPC uint16, beforeCount, afterCount int, mem Reader) []DisassemblyLine {
	for back := beforeCount * 3; back > 0; back-- {
		if int(currentPC) < back {
			continue
		}
		start := currentPC - uint16(back)
		pc := start
		count := 0
		for pc < currentPC {
			pc += uint16(DisassembleAt(pc, mem).Length)
			count++
		}
		if pc == currentPC && count >= beforeCount {
			return DisassembleRange(start, count+1+afterCount, mem)
		}
	}

	return DisassembleRange(currentPC, 1+afterCount, mem)
}

// FormatDisassemblyLine formats a disassembly line for display
func FormatDisassemblyLine(line DisassemblyLine, isCurrentPC bool) string {
	prefix := " "
	if isCurrentPC {
		prefix = ">"
	}

	return fmt.Sprintf("%s0x%04X: %s", prefix, line.Address, line.Instruction)
}
