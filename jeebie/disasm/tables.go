package disasm

import (
	"fmt"
	"strings"
)

// InstructionTemplates holds a printf template per unprefixed opcode. Two
// byte instructions take the immediate byte, three byte ones the word.
var (
	InstructionTemplates [256]string
	InstructionLengths   [256]int
	CBInstructionNames   [256]string
)

var (
	regNames  = [8]string{"B", "C", "D", "E", "H", "L", "(HL)", "A"}
	rpNames   = [4]string{"BC", "DE", "HL", "SP"}
	rp2Names  = [4]string{"BC", "DE", "HL", "AF"}
	condNames = [4]string{"NZ", "Z", "NC", "C"}
	aluNames  = [8]string{"ADD A,", "ADC A,", "SUB ", "SBC A,", "AND ", "XOR ", "OR ", "CP "}
	rotNames  = [8]string{"RLC", "RRC", "RL", "RR", "SLA", "SRA", "SWAP", "SRL"}
)

const (
	imm8  = "$%02X"
	imm16 = "$%04X"
)

func init() {
	for op := 0; op < 256; op++ {
		InstructionTemplates[op], InstructionLengths[op] = describe(uint8(op))
		CBInstructionNames[op] = describeCB(uint8(op))
	}
}

func describeCB(op uint8) string {
	x, y, z := op>>6, (op>>3)&7, op&7
	switch x {
	case 0:
		return rotNames[y] + " " + regNames[z]
	case 1:
		return fmt.Sprintf("BIT %d,%s", y, regNames[z])
	case 2:
		return fmt.Sprintf("RES %d,%s", y, regNames[z])
	}
	return fmt.Sprintf("SET %d,%s", y, regNames[z])
}

func describe(op uint8) (string, int) {
	x, y, z := op>>6, (op>>3)&7, op&7
	p, q := y>>1, y&1

	switch x {
	case 1:
		if op == 0x76 {
			return "HALT", 1
		}
		return "LD " + regNames[y] + "," + regNames[z], 1
	case 2:
		return aluNames[y] + regNames[z], 1
	case 0:
		switch z {
		case 0:
			switch y {
			case 0:
				return "NOP", 1
			case 1:
				return "LD (" + imm16 + "),SP", 3
			case 2:
				return "STOP", 2
			case 3:
				return "JR " + imm8, 2
			}
			return "JR " + condNames[y-4] + "," + imm8, 2
		case 1:
			if q == 0 {
				return "LD " + rpNames[p] + "," + imm16, 3
			}
			return "ADD HL," + rpNames[p], 1
		case 2:
			mem := [4]string{"(BC)", "(DE)", "(HL+)", "(HL-)"}[p]
			if q == 0 {
				return "LD " + mem + ",A", 1
			}
			return "LD A," + mem, 1
		case 3:
			if q == 0 {
				return "INC " + rpNames[p], 1
			}
			return "DEC " + rpNames[p], 1
		case 4:
			return "INC " + regNames[y], 1
		case 5:
			return "DEC " + regNames[y], 1
		case 6:
			return "LD " + regNames[y] + "," + imm8, 2
		}
		return [8]string{"RLCA", "RRCA", "RLA", "RRA", "DAA", "CPL", "SCF", "CCF"}[y], 1
	}

	switch z {
	case 0:
		switch y {
		case 4:
			return "LDH ($FF00+" + imm8 + "),A", 2
		case 5:
			return "ADD SP," + imm8, 2
		case 6:
			return "LDH A,($FF00+" + imm8 + ")", 2
		case 7:
			return "LD HL,SP+" + imm8, 2
		}
		return "RET " + condNames[y], 1
	case 1:
		if q == 0 {
			return "POP " + rp2Names[p], 1
		}
		return [4]string{"RET", "RETI", "JP HL", "LD SP,HL"}[p], 1
	case 2:
		switch y {
		case 4:
			return "LD ($FF00+C),A", 1
		case 5:
			return "LD (" + imm16 + "),A", 3
		case 6:
			return "LD A,($FF00+C)", 1
		case 7:
			return "LD A,(" + imm16 + ")", 3
		}
		return "JP " + condNames[y] + "," + imm16, 3
	case 3:
		switch y {
		case 0:
			return "JP " + imm16, 3
		case 1:
			return "PREFIX CB", 2
		case 6:
			return "DI", 1
		case 7:
			return "EI", 1
		}
	case 4:
		if y < 4 {
			return "CALL " + condNames[y] + "," + imm16, 3
		}
	case 5:
		if q == 0 {
			return "PUSH " + rp2Names[p], 1
		}
		if p == 0 {
			return "CALL " + imm16, 3
		}
	case 6:
		return aluNames[y] + imm8, 2
	case 7:
		return fmt.Sprintf("RST $%02X", y*8), 1
	}
	return fmt.Sprintf("DB $%02X", op), 1
}

var operandNames = strings.NewReplacer(imm16, "nn", imm8, "n")

// Mnemonic returns the instruction name for an opcode with operands shown as
// n/nn. Prefixed opcodes are passed as 0xCBxx.
func Mnemonic(opcode uint16) string {
	if opcode&0xFF00 == 0xCB00 {
		return CBInstructionNames[opcode&0xFF]
	}
	return operandNames.Replace(InstructionTemplates[opcode&0xFF])
}
