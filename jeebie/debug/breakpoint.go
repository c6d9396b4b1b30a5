package debug

import (
	"fmt"
	"slices"

	"github.com/valerio/jeebie-cycle/jeebie/cpu"
	"github.com/valerio/jeebie-cycle/jeebie/memory"
)

// Kind selects what a breakpoint watches.
type Kind uint8

const (
	// KindCycles fires after Count ticks.
	KindCycles Kind = iota
	// KindInstructions fires after Count completed instructions.
	KindInstructions
	// KindAddress fires when the next instruction starts at Address.
	KindAddress
	// KindRegister fires when a register matches Value at an instruction boundary.
	KindRegister
	// KindAccess fires on a CPU bus access to Address.
	KindAccess
)

func (k Kind) String() string {
	switch k {
	case KindCycles:
		return "cycles"
	case KindInstructions:
		return "instructions"
	case KindAddress:
		return "address"
	case KindRegister:
		return "register"
	case KindAccess:
		return "access"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// AccessMode filters access breakpoints.
type AccessMode uint8

const (
	AccessAny AccessMode = iota
	AccessRead
	AccessWrite
)

// Breakpoint describes a pause condition.
type Breakpoint struct {
	ID   int
	Kind Kind

	// Count is the number of ticks or instructions for the counting kinds.
	Count uint64
	// Address is the PC for KindAddress and the bus address for KindAccess.
	Address uint16
	// Register and Value are compared as Register16(Register)&Mask == Value&Mask.
	// A zero Mask compares all 16 bits.
	Register cpu.Reg16
	Value    uint16
	Mask     uint16
	Access   AccessMode

	// Once breakpoints are removed after they fire.
	Once    bool
	Enabled bool

	remaining uint64
}

func (b Breakpoint) String() string {
	switch b.Kind {
	case KindCycles, KindInstructions:
		return fmt.Sprintf("#%d %s %d", b.ID, b.Kind, b.Count)
	case KindAddress:
		return fmt.Sprintf("#%d pc=0x%04X", b.ID, b.Address)
	case KindRegister:
		return fmt.Sprintf("#%d %s=0x%04X", b.ID, b.Register, b.Value)
	default:
		return fmt.Sprintf("#%d access 0x%04X", b.ID, b.Address)
	}
}

// Step returns a breakpoint that pauses after one instruction.
func Step() Breakpoint {
	return Breakpoint{Kind: KindInstructions, Count: 1, Once: true, Enabled: true}
}

// RunCycles returns a breakpoint that pauses after n ticks.
func RunCycles(n uint64) Breakpoint {
	return Breakpoint{Kind: KindCycles, Count: n, Once: true, Enabled: true}
}

// AtAddress returns a persistent PC breakpoint.
func AtAddress(pc uint16) Breakpoint {
	return Breakpoint{Kind: KindAddress, Address: pc, Enabled: true}
}

// OnAccess returns a persistent memory watch.
func OnAccess(address uint16, mode AccessMode) Breakpoint {
	return Breakpoint{Kind: KindAccess, Address: address, Access: mode, Enabled: true}
}

// OnRegister returns a persistent register watch.
func OnRegister(r cpu.Reg16, value uint16) Breakpoint {
	return Breakpoint{Kind: KindRegister, Register: r, Value: value, Enabled: true}
}

// View is the console state the evaluator inspects.
type View interface {
	InstructionDone() bool
	Register16(r cpu.Reg16) uint16
	LastAccess() memory.Access
}

// Evaluator checks every scheduled breakpoint once per tick.
type Evaluator struct {
	points  []Breakpoint
	nextID  int
	lastSeq uint64
	hits    []Breakpoint
}

func NewEvaluator() *Evaluator {
	return &Evaluator{nextID: 1}
}

// Schedule adds a breakpoint and returns its id.
func (e *Evaluator) Schedule(b Breakpoint) int {
	b.ID = e.nextID
	e.nextID++
	b.remaining = b.Count
	e.points = append(e.points, b)
	return b.ID
}

func (e *Evaluator) find(id int) int {
	return slices.IndexFunc(e.points, func(b Breakpoint) bool { return b.ID == id })
}

// Remove deletes a breakpoint. It reports whether id was scheduled.
func (e *Evaluator) Remove(id int) bool {
	i := e.find(id)
	if i < 0 {
		return false
	}
	e.points = slices.Delete(e.points, i, i+1)
	return true
}

// Disable keeps a breakpoint scheduled but stops it from firing.
func (e *Evaluator) Disable(id int) bool {
	return e.setEnabled(id, false)
}

// Enable re-arms a disabled breakpoint.
func (e *Evaluator) Enable(id int) bool {
	return e.setEnabled(id, true)
}

func (e *Evaluator) setEnabled(id int, enabled bool) bool {
	i := e.find(id)
	if i < 0 {
		return false
	}
	e.points[i].Enabled = enabled
	return true
}

// Breakpoints returns a copy of the scheduled breakpoints.
func (e *Evaluator) Breakpoints() []Breakpoint {
	return slices.Clone(e.points)
}

// Clear removes every breakpoint.
func (e *Evaluator) Clear() {
	e.points = e.points[:0]
}

// Sync marks the view's last bus access as already seen. Call it after
// the console state is replaced.
func (e *Evaluator) Sync(v View) {
	e.lastSeq = v.LastAccess().Seq
}

// Tick evaluates the breakpoints after one console tick and returns the
// ones that fired. The returned slice is reused by the next call.
func (e *Evaluator) Tick(v View) []Breakpoint {
	e.hits = e.hits[:0]
	if len(e.points) == 0 {
		e.lastSeq = v.LastAccess().Seq
		return nil
	}

	done := v.InstructionDone()
	access := v.LastAccess()
	newAccess := access.Seq != e.lastSeq
	e.lastSeq = access.Seq

	kept := e.points[:0]
	for _, b := range e.points {
		fired := b.Enabled && e.check(&b, v, done, newAccess, access)
		if fired {
			e.hits = append(e.hits, b)
		}
		if fired && b.Once {
			continue
		}
		kept = append(kept, b)
	}
	e.points = kept
	return e.hits
}

func (e *Evaluator) check(b *Breakpoint, v View, done, newAccess bool, access memory.Access) bool {
	switch b.Kind {
	case KindCycles:
		return countdown(b)
	case KindInstructions:
		return done && countdown(b)
	case KindAddress:
		return done && v.Register16(cpu.PC) == b.Address
	case KindRegister:
		mask := b.Mask
		if mask == 0 {
			mask = 0xFFFF
		}
		return done && v.Register16(b.Register)&mask == b.Value&mask
	case KindAccess:
		if !newAccess || access.Address != b.Address {
			return false
		}
		switch b.Access {
		case AccessRead:
			return !access.Write
		case AccessWrite:
			return access.Write
		}
		return true
	}
	return false
}

func countdown(b *Breakpoint) bool {
	if b.remaining > 0 {
		b.remaining--
	}
	if b.remaining > 0 {
		return false
	}
	b.remaining = b.Count
	return true
}
