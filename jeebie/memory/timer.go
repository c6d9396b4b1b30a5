package memory

import (
	"github.com/valerio/jeebie-cycle/jeebie/addr"
	"github.com/valerio/jeebie-cycle/jeebie/bit"
	"github.com/valerio/jeebie-cycle/jeebie/ioreg"
)

// tacLookup maps TAC input clock select (bits 1–0) to the bit position
// of the 16‑bit internal divider (systemCounter) used as the timer’s
// clock source. The timer increments on falling edges of this selected
// bit when the timer is enabled (TAC bit 2 = 1).
//
// Mapping per Pan Docs (DMG):
//
//	00 -> bit 9  (4096 Hz)
//	01 -> bit 3  (262144 Hz)
//	10 -> bit 5  (65536 Hz)
//	11 -> bit 7  (16384 Hz)
var tacLookup = [4]uint16{9, 3, 5, 7}

// clocksPerTick is how far the divider moves in one M-cycle.
const clocksPerTick = 4

// divSeed is the divider value right after the DMG boot ROM hands over.
const divSeed = 0xABCC

// Timer encapsulates the Game Boy timer/DIV/TIMA/TMA/TAC behavior.
// The registers live in the I/O bank; the timer watches their dirty flags.
type Timer struct {
	systemCounter uint16 // Internal 16-bit counter, DIV is upper 8 bits
	lastSignal    bool   // Previous state of (enabled AND selected bit)
	reloadPending bool   // TIMA overflowed last tick, TMA load and IRQ due now

	div, tima, tma, tac *ioreg.Reg
	requestInterrupt    func(addr.Interrupt)
}

// NewTimer creates a timer bound to the bus registers.
func NewTimer(b *Bus) *Timer {
	io := b.IO()
	t := &Timer{
		div:              io.Reg(addr.DIV),
		tima:             io.Reg(addr.TIMA),
		tma:              io.Reg(addr.TMA),
		tac:              io.Reg(addr.TAC),
		requestInterrupt: b.RequestInterrupt,
	}
	t.SetSeed(divSeed)
	return t
}

// SetSeed initializes the internal divider counter and writes DIV accordingly.
func (t *Timer) SetSeed(seed uint16) {
	t.systemCounter = seed
	t.lastSignal = t.signal()
	t.reloadPending = false
	t.div.Set(uint8(seed >> 8))
}

// Counter returns the internal divider.
func (t *Timer) Counter() uint16 { return t.systemCounter }

func (t *Timer) signal() bool {
	tac := t.tac.Get()
	return bit.IsSet(2, tac) && bit.IsSet16(tacLookup[tac&0x03], t.systemCounter)
}

// Tick advances the timer by one M-cycle.
func (t *Timer) Tick() {
	if t.div.TakeDirty() {
		t.systemCounter = 0
	}
	if t.tima.TakeDirty() && t.reloadPending {
		// a TIMA write in the delay window wins over the reload
		t.reloadPending = false
	}
	t.tac.ClearDirty()
	t.tma.ClearDirty()

	if t.reloadPending {
		t.reloadPending = false
		t.tima.Set(t.tma.Get())
		t.requestInterrupt(addr.TimerInterrupt)
	}

	// a DIV reset or TAC change can also produce a falling edge
	t.edge()

	t.systemCounter += clocksPerTick
	t.edge()

	t.div.Set(uint8(t.systemCounter >> 8))
}

func (t *Timer) edge() {
	current := t.signal()
	if t.lastSignal && !current {
		t.incrementTIMA()
	}
	t.lastSignal = current
}

func (t *Timer) incrementTIMA() {
	v := t.tima.Get() + 1
	t.tima.Set(v)
	if v == 0 {
		t.reloadPending = true
	}
}

// TimerState is the serializable timer state.
type TimerState struct {
	SystemCounter uint16
	LastSignal    bool
	ReloadPending bool
}

func (t *Timer) Snapshot() TimerState {
	return TimerState{SystemCounter: t.systemCounter, LastSignal: t.lastSignal, ReloadPending: t.reloadPending}
}

func (t *Timer) Restore(s TimerState) {
	t.systemCounter = s.SystemCounter
	t.lastSignal = s.LastSignal
	t.reloadPending = s.ReloadPending
}
