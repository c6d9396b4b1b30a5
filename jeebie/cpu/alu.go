package cpu

// flags is the unpacked form of F used by the arithmetic helpers.
type flags struct {
	z, n, h, c bool
}

func (f flags) pack() uint8 {
	var v uint8
	if f.z {
		v |= uint8(zeroFlag)
	}
	if f.n {
		v |= uint8(subFlag)
	}
	if f.h {
		v |= uint8(halfCarryFlag)
	}
	if f.c {
		v |= uint8(carryFlag)
	}
	return v
}

func unpackFlags(v uint8) flags {
	return flags{
		z: v&uint8(zeroFlag) != 0,
		n: v&uint8(subFlag) != 0,
		h: v&uint8(halfCarryFlag) != 0,
		c: v&uint8(carryFlag) != 0,
	}
}

// aluOp is an accumulator operation, in opcode order (bits 3-5 of 0x80-0xBF).
type aluOp uint8

const (
	aluAdd aluOp = iota
	aluAdc
	aluSub
	aluSbc
	aluAnd
	aluXor
	aluOr
	aluCp
)

func b2u(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

func add8(a, b uint8, carryIn bool) (uint8, flags) {
	cin := b2u(carryIn)
	sum := uint16(a) + uint16(b) + uint16(cin)
	result := uint8(sum)
	return result, flags{
		z: result == 0,
		h: (a&0x0F)+(b&0x0F)+cin > 0x0F,
		c: sum > 0xFF,
	}
}

func sub8(a, b uint8, carryIn bool) (uint8, flags) {
	cin := b2u(carryIn)
	result := a - b - cin
	return result, flags{
		z: result == 0,
		n: true,
		h: int(a&0x0F)-int(b&0x0F)-int(cin) < 0,
		c: int(a)-int(b)-int(cin) < 0,
	}
}

// alu applies op to the accumulator and returns the new accumulator.
// CP leaves the accumulator untouched.
func alu(op aluOp, a, b uint8, f flags) (uint8, flags) {
	switch op {
	case aluAdd:
		return add8(a, b, false)
	case aluAdc:
		return add8(a, b, f.c)
	case aluSub:
		return sub8(a, b, false)
	case aluSbc:
		return sub8(a, b, f.c)
	case aluAnd:
		r := a & b
		return r, flags{z: r == 0, h: true}
	case aluXor:
		r := a ^ b
		return r, flags{z: r == 0}
	case aluOr:
		r := a | b
		return r, flags{z: r == 0}
	case aluCp:
		_, nf := sub8(a, b, false)
		return a, nf
	}
	return a, f
}

func inc8(v uint8, f flags) (uint8, flags) {
	r := v + 1
	return r, flags{z: r == 0, h: v&0x0F == 0x0F, c: f.c}
}

func dec8(v uint8, f flags) (uint8, flags) {
	r := v - 1
	return r, flags{z: r == 0, n: true, h: v&0x0F == 0x00, c: f.c}
}

// daa adjusts the accumulator to BCD after an addition or subtraction.
func daa(a uint8, f flags) (uint8, flags) {
	carry := f.c
	if !f.n {
		if f.c || a > 0x99 {
			a += 0x60
			carry = true
		}
		if f.h || a&0x0F > 0x09 {
			a += 0x06
		}
	} else {
		if f.c {
			a -= 0x60
		}
		if f.h {
			a -= 0x06
		}
	}
	return a, flags{z: a == 0, n: f.n, c: carry}
}

// addHL computes HL + value. Z is preserved, H and C come from bits 11 and 15.
func addHL(hl, value uint16, f flags) (uint16, flags) {
	sum := uint32(hl) + uint32(value)
	return uint16(sum), flags{
		z: f.z,
		h: (hl&0x0FFF)+(value&0x0FFF) > 0x0FFF,
		c: sum > 0xFFFF,
	}
}

// addSPOffset computes SP + sign extended e for ADD SP,e and LD HL,SP+e.
// H and C are taken from the unsigned addition of the low bytes only.
func addSPOffset(sp uint16, e uint8) (uint16, flags) {
	offset := uint16(int16(int8(e)))
	return sp + offset, flags{
		h: (sp&0x000F)+uint16(e&0x0F) > 0x000F,
		c: (sp&0x00FF)+uint16(e) > 0x00FF,
	}
}

// cbOp is a CB-prefixed operation. The first eight are in opcode order.
type cbOp uint8

const (
	cbRlc cbOp = iota
	cbRrc
	cbRl
	cbRr
	cbSla
	cbSra
	cbSwap
	cbSrl
	cbBit
	cbRes
	cbSet
)

// shift runs a rotate/shift/swap. Z is set from the result.
func shift(op cbOp, v uint8, f flags) (uint8, flags) {
	var r uint8
	var carry bool
	switch op {
	case cbRlc:
		carry = v&0x80 != 0
		r = v<<1 | v>>7
	case cbRrc:
		carry = v&0x01 != 0
		r = v>>1 | v<<7
	case cbRl:
		carry = v&0x80 != 0
		r = v<<1 | b2u(f.c)
	case cbRr:
		carry = v&0x01 != 0
		r = v>>1 | b2u(f.c)<<7
	case cbSla:
		carry = v&0x80 != 0
		r = v << 1
	case cbSra:
		carry = v&0x01 != 0
		r = v>>1 | v&0x80
	case cbSwap:
		r = v<<4 | v>>4
	case cbSrl:
		carry = v&0x01 != 0
		r = v >> 1
	}
	return r, flags{z: r == 0, c: carry}
}

// bitOp runs BIT/RES/SET n. BIT returns the value unchanged.
func bitOp(op cbOp, n uint8, v uint8, f flags) (uint8, flags) {
	mask := uint8(1) << n
	switch op {
	case cbBit:
		return v, flags{z: v&mask == 0, h: true, c: f.c}
	case cbRes:
		return v &^ mask, f
	case cbSet:
		return v | mask, f
	}
	return v, f
}

func cbApply(op cbOp, n uint8, v uint8, f flags) (uint8, flags) {
	if op >= cbBit {
		return bitOp(op, n, v, f)
	}
	return shift(op, v, f)
}
