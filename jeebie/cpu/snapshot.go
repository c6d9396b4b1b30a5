package cpu

import "fmt"

// State is a serializable copy of everything the CPU carries between cycles.
// The in-flight instruction is stored as its decode table key and step index.
type State struct {
	Regs      Registers
	IME       bool
	IMEDelay  uint8
	Halted    bool
	Stopped   bool
	HaltBug   bool
	Prefixed  bool
	Instr     uint16
	Step      int
	Cache     [operandCacheSize]uint8
	CacheLen  int
	WZ        uint16
	Mem       MemStatus
	Opcode    uint16
	InstrDone bool
	Cycles    uint64
}

// Snapshot captures the CPU state.
func (c *CPU) Snapshot() State {
	return State{
		Regs:      c.regs,
		IME:       c.ime,
		IMEDelay:  c.imeDelay,
		Halted:    c.halted,
		Stopped:   c.stopped,
		HaltBug:   c.haltBug,
		Prefixed:  c.prefixed,
		Instr:     c.instrKey,
		Step:      c.step,
		Cache:     c.cache,
		CacheLen:  c.cacheLen,
		WZ:        c.wz,
		Mem:       c.mem,
		Opcode:    c.opcode,
		InstrDone: c.instrDone,
		Cycles:    c.cycles,
	}
}

// Restore loads a snapshot taken with Snapshot.
func (c *CPU) Restore(s State) error {
	instr, err := lookup(s.Instr)
	if err != nil {
		return err
	}
	if instr != nil && (s.Step < 0 || s.Step >= len(instr.steps)) {
		return fmt.Errorf("cpu: step %d out of range for instruction 0x%03X", s.Step, s.Instr)
	}
	if s.CacheLen < 0 || s.CacheLen > operandCacheSize {
		return fmt.Errorf("cpu: invalid operand cache length %d", s.CacheLen)
	}

	c.regs = s.Regs
	c.scratch = flagScratch{}
	c.ime = s.IME
	c.imeDelay = s.IMEDelay
	c.halted = s.Halted
	c.stopped = s.Stopped
	c.haltBug = s.HaltBug
	c.prefixed = s.Prefixed
	c.instr = instr
	c.instrKey = s.Instr
	c.step = s.Step
	c.cache = s.Cache
	c.cacheLen = s.CacheLen
	c.wz = s.WZ
	c.mem = s.Mem
	c.opcode = s.Opcode
	c.instrDone = s.InstrDone
	c.cycles = s.Cycles
	return nil
}

func lookup(key uint16) (*instruction, error) {
	switch {
	case key == keyNone:
		return nil, nil
	case key < keyPrefixed:
		return &baseTable[key], nil
	case key < keyISR:
		return &cbTable[key-keyPrefixed], nil
	case key < keyISR+uint16(len(isrTable)):
		return &isrTable[key-keyISR], nil
	}
	return nil, fmt.Errorf("cpu: unknown instruction key 0x%03X", key)
}
