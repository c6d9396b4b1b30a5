package cpu

import (
	"fmt"

	"github.com/valerio/jeebie-cycle/jeebie/bit"
)

// Reg8 identifies one of the 8-bit registers.
type Reg8 uint8

const (
	A Reg8 = iota
	F
	B
	C
	D
	E
	H
	L
)

var reg8Names = [...]string{"A", "F", "B", "C", "D", "E", "H", "L"}

func (r Reg8) String() string {
	if int(r) < len(reg8Names) {
		return reg8Names[r]
	}
	return fmt.Sprintf("Reg8(%d)", uint8(r))
}

// Reg16 identifies one of the 16-bit registers or register pairs.
type Reg16 uint8

const (
	AF Reg16 = iota
	BC
	DE
	HL
	SP
	PC
)

var reg16Names = [...]string{"AF", "BC", "DE", "HL", "SP", "PC"}

func (r Reg16) String() string {
	if int(r) < len(reg16Names) {
		return reg16Names[r]
	}
	return fmt.Sprintf("Reg16(%d)", uint8(r))
}

// Flag is one of the 4 possible flags used in the flag register (high part of AF)
type Flag uint8

const (
	zeroFlag      Flag = 0x80
	subFlag       Flag = 0x40
	halfCarryFlag Flag = 0x20
	carryFlag     Flag = 0x10
)

// Registers is the SM83 register file. The four general purpose pairs are
// stored packed, the high byte holds the first register of the pair.
type Registers struct {
	AF uint16
	BC uint16
	DE uint16
	HL uint16
	SP uint16
	PC uint16
}

func (r *Registers) pair(reg Reg8) (*uint16, bool) {
	switch reg {
	case A:
		return &r.AF, true
	case F:
		return &r.AF, false
	case B:
		return &r.BC, true
	case C:
		return &r.BC, false
	case D:
		return &r.DE, true
	case E:
		return &r.DE, false
	case H:
		return &r.HL, true
	case L:
		return &r.HL, false
	}
	panic(fmt.Sprintf("cpu: unknown 8-bit register %d", reg))
}

// Get8 returns an 8-bit register.
func (r *Registers) Get8(reg Reg8) uint8 {
	p, high := r.pair(reg)
	if high {
		return bit.High(*p)
	}
	return bit.Low(*p)
}

// Set8 writes an 8-bit register. Writes to F drop the low nibble.
func (r *Registers) Set8(reg Reg8, value uint8) {
	p, high := r.pair(reg)
	if high {
		*p = bit.Combine(value, bit.Low(*p))
		return
	}
	if reg == F {
		value &= 0xF0
	}
	*p = bit.Combine(bit.High(*p), value)
}

// Get16 returns a 16-bit register.
func (r *Registers) Get16(reg Reg16) uint16 {
	switch reg {
	case AF:
		return r.AF
	case BC:
		return r.BC
	case DE:
		return r.DE
	case HL:
		return r.HL
	case SP:
		return r.SP
	case PC:
		return r.PC
	}
	panic(fmt.Sprintf("cpu: unknown 16-bit register %d", reg))
}

// Set16 writes a 16-bit register. Writes to AF drop the low nibble of F.
func (r *Registers) Set16(reg Reg16, value uint16) {
	switch reg {
	case AF:
		r.AF = value & 0xFFF0
	case BC:
		r.BC = value
	case DE:
		r.DE = value
	case HL:
		r.HL = value
	case SP:
		r.SP = value
	case PC:
		r.PC = value
	default:
		panic(fmt.Sprintf("cpu: unknown 16-bit register %d", reg))
	}
}

func (r *Registers) flag(f Flag) bool {
	return bit.Low(r.AF)&uint8(f) != 0
}

func (r *Registers) setFlag(f Flag, on bool) {
	v := bit.Low(r.AF)
	if on {
		v |= uint8(f)
	} else {
		v &^= uint8(f)
	}
	r.Set8(F, v)
}

// Zero reports the Z flag.
func (r *Registers) Zero() bool { return r.flag(zeroFlag) }

// Sub reports the N flag.
func (r *Registers) Sub() bool { return r.flag(subFlag) }

// HalfCarry reports the H flag.
func (r *Registers) HalfCarry() bool { return r.flag(halfCarryFlag) }

// Carry reports the C flag.
func (r *Registers) Carry() bool { return r.flag(carryFlag) }

func (r *Registers) SetZero(on bool)      { r.setFlag(zeroFlag, on) }
func (r *Registers) SetSub(on bool)       { r.setFlag(subFlag, on) }
func (r *Registers) SetHalfCarry(on bool) { r.setFlag(halfCarryFlag, on) }
func (r *Registers) SetCarry(on bool)     { r.setFlag(carryFlag, on) }

// FlagString returns the flags as "ZNHC" with unset flags shown as '-'.
func (r *Registers) FlagString() string {
	out := []byte("----")
	for i, f := range []Flag{zeroFlag, subFlag, halfCarryFlag, carryFlag} {
		if r.flag(f) {
			out[i] = "ZNHC"[i]
		}
	}
	return string(out)
}
