package cpu

import "github.com/valerio/jeebie-cycle/jeebie/addr"

// operand tables indexed by opcode bit fields
var (
	regTable  = [8]Reg8{B, C, D, E, H, L, 0, A} // index 6 is (HL)
	rpTable   = [4]Reg16{BC, DE, HL, SP}
	rp2Table  = [4]Reg16{BC, DE, HL, AF}
	rotTable  = [8]cbOp{cbRlc, cbRrc, cbRl, cbRr, cbSla, cbSra, cbSwap, cbSrl}
	condTable = [4]condition{condNZ, condZ, condNC, condC}
)

const indirectHL = 6

var (
	baseTable [256]instruction
	cbTable   [256]instruction
	isrTable  [5]instruction
)

func init() {
	for op := 0; op < 256; op++ {
		baseTable[op] = decodeUnprefixed(uint8(op))
		cbTable[op] = decodePrefixed(uint8(op))
	}
	for i, irq := range addr.Interrupts {
		isrTable[i] = instruction{steps: []step{
			{},
			{{kind: opDec16, r16: SP}},
			{{kind: opWriteStack, r16: PC, n: 1}, {kind: opDec16, r16: SP}},
			{{kind: opWriteStack, r16: PC, n: 0}},
			{{kind: opJump, target: irq.Vector()}},
		}}
	}
}

func steps(s ...step) instruction { return instruction{steps: s} }

// readImm16 reads a little endian immediate into the operand cache.
func readImm16() []step {
	return []step{
		{{kind: opReadImm}},
		{{kind: opCache}, {kind: opReadImm}},
	}
}

func decodeUnprefixed(op uint8) instruction {
	x, y, z := op>>6, (op>>3)&7, op&7
	p, q := y>>1, y&1

	switch x {
	case 0:
		return decodeBlock0(y, z, p, q)
	case 1:
		if op == 0x76 {
			return steps(step{{kind: opHalt}})
		}
		switch {
		case z == indirectHL:
			return steps(step{{kind: opRead16, r16: HL}}, step{{kind: opLoad8, r8: regTable[y]}})
		case y == indirectHL:
			return steps(step{}, step{{kind: opWrite16, r16: HL, r8: regTable[z]}})
		}
		return steps(step{{kind: opMove8, r8: regTable[y], src8: regTable[z]}})
	case 2:
		if z == indirectHL {
			return steps(step{{kind: opRead16, r16: HL}}, step{{kind: opALUMem, alu: aluOp(y)}})
		}
		return steps(step{{kind: opALU, alu: aluOp(y), r8: regTable[z]}})
	}
	return decodeBlock3(y, z, p, q)
}

func decodeBlock0(y, z, p, q uint8) instruction {
	switch z {
	case 0:
		switch y {
		case 0:
			return steps(step{})
		case 1: // LD (nn),SP
			s := readImm16()
			return steps(append(s,
				step{{kind: opCache}, {kind: opCacheToWZ}},
				step{{kind: opWriteWZ, r16: SP, n: 0}},
				step{{kind: opWriteWZ, r16: SP, n: 1}},
			)...)
		case 2:
			return steps(step{{kind: opStop}})
		case 3:
			return steps(step{{kind: opReadImm}}, step{{kind: opCache}}, step{{kind: opJumpRel}})
		}
		return steps(
			step{{kind: opReadImm}},
			step{{kind: opCache}, {kind: opCond, cond: condTable[y-4]}},
			step{{kind: opJumpRel}},
		)
	case 1:
		if q == 0 {
			return steps(append(readImm16(), step{{kind: opCache}, {kind: opLoadCache, r16: rpTable[p]}})...)
		}
		return steps(step{{kind: opAddHL, r16: rpTable[p]}}, step{})
	case 2:
		target, delta := BC, int8(0)
		switch p {
		case 1:
			target = DE
		case 2:
			target, delta = HL, 1
		case 3:
			target, delta = HL, -1
		}
		if q == 0 {
			return steps(step{}, step{{kind: opWrite16, r16: target, r8: A, delta: delta}})
		}
		return steps(step{{kind: opRead16, r16: target, delta: delta}}, step{{kind: opLoad8, r8: A}})
	case 3:
		if q == 0 {
			return steps(step{{kind: opInc16, r16: rpTable[p]}}, step{})
		}
		return steps(step{{kind: opDec16, r16: rpTable[p]}}, step{})
	case 4, 5:
		if y == indirectHL {
			modify := opIncCache
			if z == 5 {
				modify = opDecCache
			}
			return steps(
				step{{kind: opRead16, r16: HL}},
				step{{kind: modify}},
				step{{kind: opWriteCacheTo16, r16: HL}},
			)
		}
		if z == 4 {
			return steps(step{{kind: opInc8, r8: regTable[y]}})
		}
		return steps(step{{kind: opDec8, r8: regTable[y]}})
	case 6:
		if y == indirectHL {
			return steps(
				step{{kind: opReadImm}},
				step{{kind: opCache}},
				step{{kind: opWriteCacheTo16, r16: HL}},
			)
		}
		return steps(step{{kind: opReadImm}}, step{{kind: opLoad8, r8: regTable[y]}})
	}
	switch y {
	case 0, 1, 2, 3:
		return steps(step{{kind: opRotA, cb: rotTable[y]}})
	case 4:
		return steps(step{{kind: opDAA}})
	case 5:
		return steps(step{{kind: opCPL}})
	case 6:
		return steps(step{{kind: opSCF}})
	}
	return steps(step{{kind: opCCF}})
}

func decodeBlock3(y, z, p, q uint8) instruction {
	invalid := steps(step{{kind: opInvalid}})

	switch z {
	case 0:
		switch y {
		case 4: // LDH (n),A
			return steps(step{{kind: opReadImm}}, step{{kind: opCache}}, step{{kind: opWriteHighCache, r8: A}})
		case 5: // ADD SP,e
			return steps(step{{kind: opReadImm}}, step{{kind: opCache}}, step{{kind: opAddSP}}, step{})
		case 6: // LDH A,(n)
			return steps(step{{kind: opReadImm}}, step{{kind: opCache}, {kind: opReadHighCache}}, step{{kind: opLoad8, r8: A}})
		case 7: // LD HL,SP+e
			return steps(step{{kind: opReadImm}}, step{{kind: opCache}}, step{{kind: opLoadHLSP}})
		}
		return steps(
			step{},
			step{{kind: opCond, cond: condTable[y]}, {kind: opRead16, r16: SP, delta: 1}},
			step{{kind: opCache}, {kind: opRead16, r16: SP, delta: 1}},
			step{{kind: opCache}},
			step{{kind: opLoadCache, r16: PC}},
		)
	case 1:
		if q == 0 {
			return steps(
				step{{kind: opRead16, r16: SP, delta: 1}},
				step{{kind: opCache}, {kind: opRead16, r16: SP, delta: 1}},
				step{{kind: opCache}, {kind: opLoadCache, r16: rp2Table[p]}},
			)
		}
		switch p {
		case 0, 1:
			ret := []step{
				{{kind: opRead16, r16: SP, delta: 1}},
				{{kind: opCache}, {kind: opRead16, r16: SP, delta: 1}},
				{{kind: opCache}, {kind: opLoadCache, r16: PC}},
				{},
			}
			if p == 1 {
				ret[3] = step{{kind: opEnableIME}}
			}
			return steps(ret...)
		case 2:
			return steps(step{{kind: opMove16, r16: PC, src16: HL}})
		}
		return steps(step{{kind: opMove16, r16: SP, src16: HL}}, step{})
	case 2:
		switch y {
		case 4:
			return steps(step{}, step{{kind: opWriteHighC, r8: A}})
		case 5:
			return steps(append(readImm16(), step{{kind: opCache}}, step{{kind: opWriteCacheAddr, r8: A}})...)
		case 6:
			return steps(step{{kind: opReadHighC}}, step{{kind: opLoad8, r8: A}})
		case 7:
			return steps(append(readImm16(), step{{kind: opCache}, {kind: opReadCacheAddr}}, step{{kind: opLoad8, r8: A}})...)
		}
		return steps(append(readImm16(),
			step{{kind: opCache}, {kind: opCond, cond: condTable[y]}},
			step{{kind: opLoadCache, r16: PC}},
		)...)
	case 3:
		switch y {
		case 0:
			return steps(append(readImm16(), step{{kind: opCache}}, step{{kind: opLoadCache, r16: PC}})...)
		case 1:
			return steps(step{{kind: opPrefix}})
		case 6:
			return steps(step{{kind: opDI}})
		case 7:
			return steps(step{{kind: opEI}})
		}
		return invalid
	case 4:
		if y > 3 {
			return invalid
		}
		return steps(append(readImm16(), call(&microOp{kind: opCond, cond: condTable[y]})...)...)
	case 5:
		if q == 0 {
			return steps(
				step{},
				step{{kind: opDec16, r16: SP}},
				step{{kind: opWriteStack, r16: rp2Table[p], n: 1}, {kind: opDec16, r16: SP}},
				step{{kind: opWriteStack, r16: rp2Table[p], n: 0}},
			)
		}
		if p != 0 {
			return invalid
		}
		return steps(append(readImm16(), call(nil)...)...)
	case 6:
		return steps(step{{kind: opReadImm}}, step{{kind: opALUMem, alu: aluOp(y)}})
	}
	// RST
	return steps(
		step{{kind: opDec16, r16: SP}},
		step{{kind: opWriteStack, r16: PC, n: 1}, {kind: opDec16, r16: SP}},
		step{{kind: opWriteStack, r16: PC, n: 0}},
		step{{kind: opJump, target: uint16(y) * 8}},
	)
}

// call returns the tail of CALL nn and CALL cc,nn after the address bytes are requested.
func call(cond *microOp) []step {
	first := step{{kind: opCache}}
	if cond != nil {
		first = append(first, *cond)
	}
	return []step{
		first,
		{{kind: opDec16, r16: SP}},
		{{kind: opWriteStack, r16: PC, n: 1}, {kind: opDec16, r16: SP}},
		{{kind: opWriteStack, r16: PC, n: 0}, {kind: opLoadCache, r16: PC}},
	}
}

func decodePrefixed(op uint8) instruction {
	x, y, z := op>>6, (op>>3)&7, op&7

	var kind cbOp
	switch x {
	case 0:
		kind = rotTable[y]
	case 1:
		kind = cbBit
	case 2:
		kind = cbRes
	default:
		kind = cbSet
	}

	if z != indirectHL {
		return steps(step{{kind: opCBReg, cb: kind, n: y, r8: regTable[z]}})
	}
	if kind == cbBit {
		return steps(step{{kind: opRead16, r16: HL}}, step{{kind: opCBMem, cb: kind, n: y}})
	}
	return steps(
		step{{kind: opRead16, r16: HL}},
		step{{kind: opCBMem, cb: kind, n: y}},
		step{{kind: opWriteCacheTo16, r16: HL}},
	)
}
