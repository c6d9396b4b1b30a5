// Package ioreg models the memory mapped I/O registers at 0xFF00-0xFF7F.
//
// Every register carries a read and a write mask derived from its access
// mode. Bits outside the read mask always read back as 1, bits outside the
// write mask are preserved on CPU writes. Devices use Get/Set to bypass the
// masks and observe CPU writes through the dirty flag, which stays set until
// the device clears it.
package ioreg

// Mode describes which bits of a register the CPU can read and write.
type Mode struct {
	ReadMask  uint8
	WriteMask uint8
}

var (
	ReadOnly  = Mode{ReadMask: 0xFF, WriteMask: 0x00}
	WriteOnly = Mode{ReadMask: 0x00, WriteMask: 0xFF}
	ReadWrite = Mode{ReadMask: 0xFF, WriteMask: 0xFF}
	Unused    = Mode{ReadMask: 0x00, WriteMask: 0x00}
)

// Custom returns a per-bit access mode.
func Custom(readMask, writeMask uint8) Mode {
	return Mode{ReadMask: readMask, WriteMask: writeMask}
}

// Reg is a single 8-bit I/O register.
type Reg struct {
	Value     uint8
	ReadMask  uint8
	WriteMask uint8
	IsDirty   bool
}

// NewReg creates a register with the given access mode and initial value.
func NewReg(mode Mode, value uint8) Reg {
	return Reg{Value: value, ReadMask: mode.ReadMask, WriteMask: mode.WriteMask}
}

// Read returns the value as seen by the CPU: unreadable bits read as 1.
func (r *Reg) Read() uint8 {
	return r.Value | ^r.ReadMask
}

// Write stores the writable bits of value and marks the register dirty.
func (r *Reg) Write(value uint8) {
	r.Value = (r.Value &^ r.WriteMask) | (value & r.WriteMask)
	r.IsDirty = true
}

// Get returns the raw stored value, ignoring the read mask.
func (r *Reg) Get() uint8 {
	return r.Value
}

// Set stores a raw value from the device side. It does not touch the dirty flag.
func (r *Reg) Set(value uint8) {
	r.Value = value
}

// SetMode changes the access masks, e.g. when a CGB only register is
// disabled in DMG compatibility mode.
func (r *Reg) SetMode(mode Mode) {
	r.ReadMask = mode.ReadMask
	r.WriteMask = mode.WriteMask
}

// Dirty reports whether the CPU wrote the register since the last clear.
func (r *Reg) Dirty() bool {
	return r.IsDirty
}

// ClearDirty marks the last write as observed.
func (r *Reg) ClearDirty() {
	r.IsDirty = false
}

// TakeDirty returns the dirty flag and clears it.
func (r *Reg) TakeDirty() bool {
	d := r.IsDirty
	r.IsDirty = false
	return d
}
