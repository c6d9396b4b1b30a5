package cpu

// opKind tags a micro-op. Each instruction is a fixed list of steps, one
// step per M-cycle, and each step is a short list of micro-ops run in order.
type opKind uint8

const (
	// memory requests, resolved at the end of the cycle
	opReadImm        opKind = iota // read [PC], PC++
	opRead16                       // read [r16], r16 += delta
	opReadHighC                    // read [0xFF00+C]
	opReadHighCache                // read [0xFF00+pop]
	opReadCacheAddr                // read [pop16]
	opWrite16                      // write r8 to [r16], r16 += delta
	opWriteHighC                   // write r8 to [0xFF00+C]
	opWriteHighCache               // write r8 to [0xFF00+pop]
	opWriteCacheAddr               // write r8 to [pop16]
	opWriteCacheTo16               // write pop to [r16]
	opWriteWZ                      // write half n of r16 to [WZ], WZ++
	opWriteStack                   // write half n of r16 to [SP]

	// operand cache
	opCache      // push the resolved read
	opLoad8      // r8 = resolved read
	opLoadCache  // r16 = pop16
	opCacheToWZ  // WZ = pop16
	opIncCache   // push(inc(resolved read))
	opDecCache   // push(dec(resolved read))
	opCBMem      // cb on the resolved read, push the result unless BIT
	opALUMem     // A = alu(A, resolved read)
	opAddSP      // SP = SP + pop
	opLoadHLSP   // HL = SP + pop
	opJumpRel    // PC = PC + pop

	// register only
	opMove8  // r8 = src8
	opMove16 // r16 = src16
	opInc16
	opDec16
	opAddHL
	opInc8
	opDec8
	opALU
	opCBReg
	opRotA
	opDAA
	opCPL
	opSCF
	opCCF

	// control
	opCond // abort the instruction unless cond holds
	opJump // PC = target
	opHalt
	opStop
	opDI
	opEI
	opEnableIME
	opPrefix
	opInvalid
)

type condition uint8

const (
	condNZ condition = iota
	condZ
	condNC
	condC
)

type microOp struct {
	kind   opKind
	r8     Reg8
	src8   Reg8
	r16    Reg16
	src16  Reg16
	delta  int8
	n      uint8
	cond   condition
	alu    aluOp
	cb     cbOp
	target uint16
}

type step []microOp

type instruction struct {
	steps []step
}

func (i *instruction) cycles() int { return len(i.steps) }

// Instruction keys identify a decode table entry in snapshots.
const (
	keyPrefixed uint16 = 0x100
	keyISR      uint16 = 0x200
	keyNone     uint16 = 0xFFFF
)
