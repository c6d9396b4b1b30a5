package ioreg

import (
	"github.com/valerio/jeebie-cycle/jeebie/addr"
)

// Size is the number of registers in the I/O region.
const Size = 0x80

// Bank owns every I/O register. Devices hold *Reg accessors into it.
type Bank struct {
	regs [Size]Reg
}

type regInit struct {
	mode  Mode
	value uint8
}

// dmgLayout lists registers that exist on every model, with their post boot values.
// Anything not listed is unused and reads 0xFF.
var dmgLayout = map[uint16]regInit{
	addr.P1:   {Custom(0x3F, 0x30), 0x0F},
	addr.SB:   {ReadWrite, 0x00},
	addr.SC:   {Custom(0x81, 0x81), 0x00},
	addr.DIV:  {ReadWrite, 0xAB},
	addr.TIMA: {ReadWrite, 0x00},
	addr.TMA:  {ReadWrite, 0x00},
	addr.TAC:  {Custom(0x07, 0x07), 0x00},
	addr.IF:   {Custom(0x1F, 0x1F), 0x01},

	addr.NR10: {Custom(0x7F, 0x7F), 0x80},
	addr.NR11: {Custom(0xC0, 0xFF), 0xBF},
	addr.NR12: {ReadWrite, 0xF3},
	addr.NR13: {WriteOnly, 0xFF},
	addr.NR14: {Custom(0x40, 0xC7), 0xBF},
	addr.NR21: {Custom(0xC0, 0xFF), 0x3F},
	addr.NR22: {ReadWrite, 0x00},
	addr.NR23: {WriteOnly, 0xFF},
	addr.NR24: {Custom(0x40, 0xC7), 0xBF},
	addr.NR30: {Custom(0x80, 0x80), 0x7F},
	addr.NR31: {WriteOnly, 0xFF},
	addr.NR32: {Custom(0x60, 0x60), 0x9F},
	addr.NR33: {WriteOnly, 0xFF},
	addr.NR34: {Custom(0x40, 0xC7), 0xBF},
	addr.NR41: {Custom(0x00, 0x3F), 0xFF},
	addr.NR42: {ReadWrite, 0x00},
	addr.NR43: {ReadWrite, 0x00},
	addr.NR44: {Custom(0x40, 0xC0), 0xBF},
	addr.NR50: {ReadWrite, 0x77},
	addr.NR51: {ReadWrite, 0xF3},
	addr.NR52: {Custom(0x8F, 0x80), 0x81},

	addr.LCDC: {ReadWrite, 0x91},
	addr.STAT: {Custom(0x7F, 0x78), 0x05},
	addr.SCY:  {ReadWrite, 0x00},
	addr.SCX:  {ReadWrite, 0x00},
	addr.LY:   {ReadOnly, 0x00},
	addr.LYC:  {ReadWrite, 0x00},
	addr.DMA:  {ReadWrite, 0xFF},
	addr.BGP:  {ReadWrite, 0xFC},
	addr.OBP0: {ReadWrite, 0xFF},
	addr.OBP1: {ReadWrite, 0xFF},
	addr.WY:   {ReadWrite, 0x00},
	addr.WX:   {ReadWrite, 0x00},
}

// cgbLayout adds the CGB only registers.
var cgbLayout = map[uint16]regInit{
	addr.KEY1:  {Custom(0x81, 0x01), 0x00},
	addr.VBK:   {Custom(0x01, 0x01), 0x00},
	addr.HDMA1: {WriteOnly, 0xFF},
	addr.HDMA2: {WriteOnly, 0xFF},
	addr.HDMA3: {WriteOnly, 0xFF},
	addr.HDMA4: {WriteOnly, 0xFF},
	addr.HDMA5: {ReadWrite, 0xFF},
	addr.BCPS:  {Custom(0xBF, 0xBF), 0x00},
	addr.BCPD:  {ReadWrite, 0x00},
	addr.OCPS:  {Custom(0xBF, 0xBF), 0x00},
	addr.OCPD:  {ReadWrite, 0x00},
	addr.OPRI:  {Custom(0x01, 0x01), 0x00},
	addr.SVBK:  {Custom(0x07, 0x07), 0x00},
}

// NewBank creates the register bank for a DMG (cgb=false) or CGB console.
func NewBank(cgb bool) *Bank {
	b := &Bank{}
	for i := range b.regs {
		b.regs[i] = NewReg(Unused, 0xFF)
	}
	for address, init := range dmgLayout {
		b.regs[address-addr.IOStart] = NewReg(init.mode, init.value)
	}
	for a := addr.WaveRAMStart; a <= addr.WaveRAMEnd; a++ {
		b.regs[a-addr.IOStart] = NewReg(ReadWrite, 0x00)
	}
	if cgb {
		for address, init := range cgbLayout {
			b.regs[address-addr.IOStart] = NewReg(init.mode, init.value)
		}
	}
	return b
}

// Contains reports whether the address falls in the I/O region.
func Contains(address uint16) bool {
	return address >= addr.IOStart && address <= addr.IOEnd
}

// Reg returns the register mapped at address. The address must be in the I/O region.
func (b *Bank) Reg(address uint16) *Reg {
	return &b.regs[address-addr.IOStart]
}

// Read performs a CPU read.
func (b *Bank) Read(address uint16) uint8 {
	return b.regs[address-addr.IOStart].Read()
}

// Write performs a CPU write.
func (b *Bank) Write(address uint16, value uint8) {
	b.regs[address-addr.IOStart].Write(value)
}

// RequestInterrupt raises the interrupt's bit in IF.
func (b *Bank) RequestInterrupt(interrupt addr.Interrupt) {
	r := b.Reg(addr.IF)
	r.Set(r.Get() | uint8(interrupt))
}

// Snapshot copies every register, including masks and dirty flags.
func (b *Bank) Snapshot() [Size]Reg {
	return b.regs
}

// Restore replaces every register with a snapshot.
func (b *Bank) Restore(regs [Size]Reg) {
	b.regs = regs
}
