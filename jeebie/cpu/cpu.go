package cpu

import (
	"fmt"
	"log/slog"

	"github.com/valerio/jeebie-cycle/jeebie/addr"
	"github.com/valerio/jeebie-cycle/jeebie/bit"
)

// Bus is what the CPU needs from the memory system. Read and Write are only
// used to resolve memory requests at the end of a cycle and to fetch opcodes.
type Bus interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
	// Interrupts returns IE and IF.
	Interrupts() (enabled, requested uint8)
	// AckInterrupt clears the interrupt's bit in IF.
	AckInterrupt(irq addr.Interrupt)
	// Stop handles the STOP instruction. It reports whether a CGB speed
	// switch happened instead of entering low power mode.
	Stop() bool
}

const operandCacheSize = 4

type flagScratch struct {
	loaded bool
	dirty  bool
	f      flags
}

// CPU is a cycle stepped SM83 core. Each call to Cycle advances exactly one
// M-cycle and runs one step of the current instruction.
type CPU struct {
	regs    Registers
	scratch flagScratch

	ime      bool
	imeDelay uint8 // EI takes effect after the following instruction
	halted   bool
	stopped  bool
	haltBug  bool
	prefixed bool

	instr    *instruction
	instrKey uint16
	step     int

	cache    [operandCacheSize]uint8
	cacheLen int
	wz       uint16
	mem      MemStatus

	opcode    uint16
	instrDone bool
	cycles    uint64

	tracer Tracer
}

// Option configures a CPU.
type Option func(*CPU)

// WithTracer installs an opcode trace sink.
func WithTracer(t Tracer) Option {
	return func(c *CPU) {
		if t != nil {
			c.tracer = t
		}
	}
}

// WithRegisters sets the initial register file.
func WithRegisters(r Registers) Option {
	return func(c *CPU) {
		c.regs = r
		c.regs.AF &= 0xFFF0
	}
}

// New returns a CPU with the DMG post boot register values.
func New(opts ...Option) *CPU {
	c := &CPU{
		regs: Registers{
			AF: 0x01B0,
			BC: 0x0013,
			DE: 0x00D8,
			HL: 0x014D,
			SP: 0xFFFE,
			PC: 0x0100,
		},
		instrKey: keyNone,
		tracer:   nopTracer{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Cycle runs one M-cycle. At an instruction boundary it either starts an
// interrupt service routine or fetches and decodes the next opcode, then it
// runs the next step of the current instruction and services the memory
// request that step left behind.
//
// A returned error is a *ProtocolError and leaves the CPU in an undefined state.
func (c *CPU) Cycle(bus Bus) error {
	c.instrDone = false
	c.cycles++

	if c.instr == nil {
		if !c.boundary(bus) {
			return nil
		}
	}

	if err := c.runStep(bus); err != nil {
		c.scratch = flagScratch{}
		return err
	}

	c.mem.resolve(bus)
	c.commitFlags()
	return nil
}

// boundary handles everything that happens between two instructions.
// It returns false when the CPU is halted or stopped and there is nothing to run.
func (c *CPU) boundary(bus Bus) bool {
	if c.prefixed {
		c.fetch(bus)
		return true
	}

	if c.imeDelay > 0 {
		c.imeDelay--
		if c.imeDelay == 0 {
			c.ime = true
		}
	}

	enabled, requested := bus.Interrupts()
	pending := enabled & requested & 0x1F

	if c.stopped {
		if requested&uint8(addr.JoypadInterrupt) == 0 {
			return false
		}
		c.stopped = false
	}

	if c.halted {
		if pending == 0 {
			return false
		}
		c.halted = false
	}

	if c.ime && pending != 0 {
		c.dispatch(bus, pending)
		return true
	}

	c.fetch(bus)
	return true
}

func (c *CPU) dispatch(bus Bus, pending uint8) {
	for i, irq := range addr.Interrupts {
		if pending&uint8(irq) == 0 {
			continue
		}
		c.ime = false
		bus.AckInterrupt(irq)
		c.load(&isrTable[i], keyISR+uint16(i))
		return
	}
}

func (c *CPU) fetch(bus Bus) {
	pc := c.regs.PC
	op := bus.Read(pc)
	if c.haltBug {
		c.haltBug = false
	} else {
		c.regs.PC++
	}

	if c.prefixed {
		c.prefixed = false
		c.opcode = 0xCB00 | uint16(op)
		c.load(&cbTable[op], keyPrefixed|uint16(op))
		c.tracer.Trace(pc-1, c.opcode, c.regs)
		return
	}

	c.opcode = uint16(op)
	c.load(&baseTable[op], uint16(op))
	if op != 0xCB {
		c.tracer.Trace(pc, c.opcode, c.regs)
	}
}

func (c *CPU) load(instr *instruction, key uint16) {
	c.instr = instr
	c.instrKey = key
	c.step = 0
}

func (c *CPU) finish() {
	c.instr = nil
	c.instrKey = keyNone
	c.step = 0
	c.instrDone = !c.prefixed
}

func (c *CPU) abort() {
	c.cacheLen = 0
	c.finish()
}

func (c *CPU) runStep(bus Bus) error {
	for i := range c.instr.steps[c.step] {
		abort, err := c.exec(bus, &c.instr.steps[c.step][i])
		if err != nil {
			return err
		}
		if abort {
			c.abort()
			return nil
		}
	}

	c.step++
	if c.step == len(c.instr.steps) {
		c.finish()
	}
	return nil
}

func (c *CPU) protocolError(op string) error {
	return &ProtocolError{Op: op, State: c.mem.State, PC: c.regs.PC}
}

func (c *CPU) requestRead(address uint16) error {
	if !c.mem.requestRead(address) {
		return c.protocolError("read request")
	}
	return nil
}

func (c *CPU) requestWrite(address uint16, value uint8) error {
	if !c.mem.requestWrite(address, value) {
		return c.protocolError("write request")
	}
	return nil
}

func (c *CPU) take() (uint8, error) {
	v, ok := c.mem.take()
	if !ok {
		return 0, c.protocolError("consume without pending read")
	}
	return v, nil
}

func (c *CPU) push(v uint8) error {
	if c.cacheLen == operandCacheSize {
		return c.protocolError("operand cache overflow")
	}
	c.cache[c.cacheLen] = v
	c.cacheLen++
	return nil
}

func (c *CPU) pop() (uint8, error) {
	if c.cacheLen == 0 {
		return 0, c.protocolError("operand cache underflow")
	}
	c.cacheLen--
	return c.cache[c.cacheLen], nil
}

// pop16 pops a little endian word: the high byte was pushed last.
func (c *CPU) pop16() (uint16, error) {
	high, err := c.pop()
	if err != nil {
		return 0, err
	}
	low, err := c.pop()
	if err != nil {
		return 0, err
	}
	return bit.Combine(high, low), nil
}

func (c *CPU) getFlags() flags {
	if !c.scratch.loaded {
		c.scratch.f = unpackFlags(c.regs.Get8(F))
		c.scratch.loaded = true
	}
	return c.scratch.f
}

func (c *CPU) setFlags(f flags) {
	c.scratch.f = f
	c.scratch.loaded = true
	c.scratch.dirty = true
}

func (c *CPU) commitFlags() {
	if c.scratch.dirty {
		c.regs.Set8(F, c.scratch.f.pack())
	}
	c.scratch = flagScratch{}
}

func (c *CPU) check(cond condition) bool {
	f := c.getFlags()
	switch cond {
	case condNZ:
		return !f.z
	case condZ:
		return f.z
	case condNC:
		return !f.c
	}
	return f.c
}

func half(v uint16, high uint8) uint8 {
	if high != 0 {
		return bit.High(v)
	}
	return bit.Low(v)
}

func offset(v uint16, delta int8) uint16 {
	return v + uint16(int16(delta))
}

// exec runs a single micro-op. It reports true when the instruction must abort.
func (c *CPU) exec(bus Bus, op *microOp) (bool, error) {
	r := &c.regs

	switch op.kind {
	case opReadImm:
		if err := c.requestRead(r.PC); err != nil {
			return false, err
		}
		r.PC++
	case opRead16:
		address := r.Get16(op.r16)
		if err := c.requestRead(address); err != nil {
			return false, err
		}
		if op.delta != 0 {
			r.Set16(op.r16, offset(address, op.delta))
		}
	case opReadHighC:
		return false, c.requestRead(0xFF00 | uint16(r.Get8(C)))
	case opReadHighCache:
		n, err := c.pop()
		if err != nil {
			return false, err
		}
		return false, c.requestRead(0xFF00 | uint16(n))
	case opReadCacheAddr:
		address, err := c.pop16()
		if err != nil {
			return false, err
		}
		return false, c.requestRead(address)

	case opWrite16:
		address := r.Get16(op.r16)
		if err := c.requestWrite(address, r.Get8(op.r8)); err != nil {
			return false, err
		}
		if op.delta != 0 {
			r.Set16(op.r16, offset(address, op.delta))
		}
	case opWriteHighC:
		return false, c.requestWrite(0xFF00|uint16(r.Get8(C)), r.Get8(op.r8))
	case opWriteHighCache:
		n, err := c.pop()
		if err != nil {
			return false, err
		}
		return false, c.requestWrite(0xFF00|uint16(n), r.Get8(op.r8))
	case opWriteCacheAddr:
		address, err := c.pop16()
		if err != nil {
			return false, err
		}
		return false, c.requestWrite(address, r.Get8(op.r8))
	case opWriteCacheTo16:
		v, err := c.pop()
		if err != nil {
			return false, err
		}
		return false, c.requestWrite(r.Get16(op.r16), v)
	case opWriteWZ:
		if err := c.requestWrite(c.wz, half(r.Get16(op.r16), op.n)); err != nil {
			return false, err
		}
		c.wz++
	case opWriteStack:
		return false, c.requestWrite(r.SP, half(r.Get16(op.r16), op.n))

	case opCache:
		v, err := c.take()
		if err != nil {
			return false, err
		}
		return false, c.push(v)
	case opLoad8:
		v, err := c.take()
		if err != nil {
			return false, err
		}
		r.Set8(op.r8, v)
	case opLoadCache:
		v, err := c.pop16()
		if err != nil {
			return false, err
		}
		r.Set16(op.r16, v)
		if op.r16 == AF {
			c.scratch = flagScratch{}
		}
	case opCacheToWZ:
		v, err := c.pop16()
		if err != nil {
			return false, err
		}
		c.wz = v
	case opIncCache, opDecCache:
		v, err := c.take()
		if err != nil {
			return false, err
		}
		var f flags
		if op.kind == opIncCache {
			v, f = inc8(v, c.getFlags())
		} else {
			v, f = dec8(v, c.getFlags())
		}
		c.setFlags(f)
		return false, c.push(v)
	case opCBMem:
		v, err := c.take()
		if err != nil {
			return false, err
		}
		v, f := cbApply(op.cb, op.n, v, c.getFlags())
		c.setFlags(f)
		if op.cb != cbBit {
			return false, c.push(v)
		}
	case opALUMem:
		v, err := c.take()
		if err != nil {
			return false, err
		}
		a, f := alu(op.alu, r.Get8(A), v, c.getFlags())
		r.Set8(A, a)
		c.setFlags(f)
	case opAddSP, opLoadHLSP:
		e, err := c.pop()
		if err != nil {
			return false, err
		}
		v, f := addSPOffset(r.SP, e)
		if op.kind == opAddSP {
			r.SP = v
		} else {
			r.HL = v
		}
		c.setFlags(f)
	case opJumpRel:
		e, err := c.pop()
		if err != nil {
			return false, err
		}
		r.PC += bit.SignExtend(e)

	case opMove8:
		r.Set8(op.r8, r.Get8(op.src8))
	case opMove16:
		r.Set16(op.r16, r.Get16(op.src16))
	case opInc16:
		r.Set16(op.r16, r.Get16(op.r16)+1)
	case opDec16:
		r.Set16(op.r16, r.Get16(op.r16)-1)
	case opAddHL:
		v, f := addHL(r.HL, r.Get16(op.r16), c.getFlags())
		r.HL = v
		c.setFlags(f)
	case opInc8:
		v, f := inc8(r.Get8(op.r8), c.getFlags())
		r.Set8(op.r8, v)
		c.setFlags(f)
	case opDec8:
		v, f := dec8(r.Get8(op.r8), c.getFlags())
		r.Set8(op.r8, v)
		c.setFlags(f)
	case opALU:
		a, f := alu(op.alu, r.Get8(A), r.Get8(op.r8), c.getFlags())
		r.Set8(A, a)
		c.setFlags(f)
	case opCBReg:
		v, f := cbApply(op.cb, op.n, r.Get8(op.r8), c.getFlags())
		if op.cb != cbBit {
			r.Set8(op.r8, v)
		}
		c.setFlags(f)
	case opRotA:
		v, f := shift(op.cb, r.Get8(A), c.getFlags())
		f.z = false
		r.Set8(A, v)
		c.setFlags(f)
	case opDAA:
		v, f := daa(r.Get8(A), c.getFlags())
		r.Set8(A, v)
		c.setFlags(f)
	case opCPL:
		r.Set8(A, ^r.Get8(A))
		f := c.getFlags()
		f.n, f.h = true, true
		c.setFlags(f)
	case opSCF, opCCF:
		f := c.getFlags()
		f.n, f.h = false, false
		f.c = op.kind == opSCF || !f.c
		c.setFlags(f)

	case opCond:
		return !c.check(op.cond), nil
	case opJump:
		r.PC = op.target
	case opHalt:
		enabled, requested := bus.Interrupts()
		if !c.ime && enabled&requested&0x1F != 0 {
			c.haltBug = true
		} else {
			c.halted = true
		}
	case opStop:
		// STOP is followed by a padding byte.
		r.PC++
		if !bus.Stop() {
			c.stopped = true
		}
	case opDI:
		c.ime = false
		c.imeDelay = 0
	case opEI:
		if !c.ime && c.imeDelay == 0 {
			c.imeDelay = 2
		}
	case opEnableIME:
		c.ime = true
		c.imeDelay = 0
	case opPrefix:
		c.prefixed = true
	case opInvalid:
		slog.Warn("invalid opcode, executing as NOP",
			"opcode", fmt.Sprintf("0x%02X", c.opcode),
			"pc", fmt.Sprintf("0x%04X", r.PC-1))
	default:
		return false, fmt.Errorf("cpu: unknown micro-op %d: %w", op.kind, ErrProtocol)
	}
	return false, nil
}

// Registers returns a copy of the register file.
func (c *CPU) Registers() Registers { return c.regs }

// Register8 returns an 8-bit register.
func (c *CPU) Register8(r Reg8) uint8 { return c.regs.Get8(r) }

// Register16 returns a 16-bit register.
func (c *CPU) Register16(r Reg16) uint16 { return c.regs.Get16(r) }

// PC returns the program counter.
func (c *CPU) PC() uint16 { return c.regs.PC }

// IME reports the interrupt master enable flag.
func (c *CPU) IME() bool { return c.ime }

// Halted reports whether the CPU is waiting in HALT or STOP.
func (c *CPU) Halted() bool { return c.halted || c.stopped }

// InstructionDone reports whether the last Cycle completed an instruction
// or an interrupt dispatch.
func (c *CPU) InstructionDone() bool { return c.instrDone }

// Opcode returns the most recently fetched opcode, 0xCBxx for prefixed ones.
func (c *CPU) Opcode() uint16 { return c.opcode }

// Cycles returns the number of M-cycles run since construction.
func (c *CPU) Cycles() uint64 { return c.cycles }

// AtBoundary reports whether no instruction is in flight.
func (c *CPU) AtBoundary() bool { return c.instr == nil && !c.prefixed }
