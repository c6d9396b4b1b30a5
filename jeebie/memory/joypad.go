package memory

import (
	"github.com/valerio/jeebie-cycle/jeebie/addr"
	"github.com/valerio/jeebie-cycle/jeebie/bit"
	"github.com/valerio/jeebie-cycle/jeebie/ioreg"
)

// JoypadKey represents a key on the Gameboy joypad
type JoypadKey uint8

const (
	JoypadRight JoypadKey = iota
	JoypadLeft
	JoypadUp
	JoypadDown
	JoypadA
	JoypadB
	JoypadSelect
	JoypadStart
)

func (k JoypadKey) String() string {
	names := [...]string{"Right", "Left", "Up", "Down", "A", "B", "Select", "Start"}
	if int(k) < len(names) {
		return names[k]
	}
	return "Unknown"
}

// Joypad drives the low nibble of P1 from the key state and the select
// lines the game writes to bits 4 and 5. Keys are active low.
type Joypad struct {
	buttons uint8
	dpad    uint8

	p1               *ioreg.Reg
	requestInterrupt func(addr.Interrupt)
}

// NewJoypad creates a joypad with every key released.
func NewJoypad(b *Bus) *Joypad {
	j := &Joypad{
		buttons:          0x0F,
		dpad:             0x0F,
		p1:               b.IO().Reg(addr.P1),
		requestInterrupt: b.RequestInterrupt,
	}
	j.update()
	return j
}

// Tick refreshes P1 after the game changed the select lines.
func (j *Joypad) Tick() {
	if j.p1.TakeDirty() {
		j.update()
	}
}

func (j *Joypad) update() {
	sel := j.p1.Get() & 0x30
	low := uint8(0x0F)
	if !bit.IsSet(4, sel) {
		low &= j.dpad
	}
	if !bit.IsSet(5, sel) {
		low &= j.buttons
	}
	j.p1.Set(sel | low)
}

func (j *Joypad) keyLine(key JoypadKey) (*uint8, uint8) {
	if key <= JoypadDown {
		return &j.dpad, uint8(key)
	}
	return &j.buttons, uint8(key - JoypadA)
}

// Press updates the joypad state when a key is pressed. A key going from
// released to pressed requests the joypad interrupt.
func (j *Joypad) Press(key JoypadKey) {
	line, index := j.keyLine(key)
	wasReleased := bit.IsSet(index, *line)
	*line = bit.Reset(index, *line)
	j.update()
	if wasReleased {
		j.requestInterrupt(addr.JoypadInterrupt)
	}
}

// Release updates the joypad state when a key is released
func (j *Joypad) Release(key JoypadKey) {
	line, index := j.keyLine(key)
	*line = bit.Set(index, *line)
	j.update()
}

// Pressed reports whether a key is held.
func (j *Joypad) Pressed(key JoypadKey) bool {
	line, index := j.keyLine(key)
	return !bit.IsSet(index, *line)
}

// JoypadState is the serializable key state.
type JoypadState struct {
	Buttons uint8
	Dpad    uint8
}

func (j *Joypad) Snapshot() JoypadState {
	return JoypadState{Buttons: j.buttons, Dpad: j.dpad}
}

func (j *Joypad) Restore(s JoypadState) {
	j.buttons = s.Buttons
	j.dpad = s.Dpad
}
