package memory

import (
	"log/slog"

	"github.com/valerio/jeebie-cycle/jeebie/addr"
	"github.com/valerio/jeebie-cycle/jeebie/ioreg"
)

// oamDMALength is the number of bytes (and ticks) an OAM DMA takes.
const oamDMALength = oamSize

// DMA copies 160 bytes from (DMA << 8) into OAM, one byte per tick, holding
// the OAM and VRAM locks for the whole transfer.
type DMA struct {
	bus    *Bus
	reg    *ioreg.Reg
	active bool
	source uint16
	index  uint8
}

func NewDMA(b *Bus) *DMA {
	return &DMA{bus: b, reg: b.IO().Reg(addr.DMA)}
}

// Active reports whether a transfer is in progress.
func (d *DMA) Active() bool { return d.active }

// Tick starts a transfer when the DMA register was written and copies one byte.
func (d *DMA) Tick() {
	if d.reg.TakeDirty() {
		// a write during a transfer restarts it from the new source
		d.source = uint16(d.reg.Get()) << 8
		d.index = 0
		if !d.active {
			d.bus.Lock(RequesterDMA, LockOAM)
			d.bus.Lock(RequesterDMA, LockVRAM)
		}
		d.active = true
		slog.Debug("OAM DMA start", "source", d.source)
	}

	if !d.active {
		return
	}

	value := d.bus.ReadAs(RequesterDMA, d.source+uint16(d.index))
	d.bus.WriteAs(RequesterDMA, addr.OAMStart+uint16(d.index), value)
	d.index++

	if d.index == oamDMALength {
		d.active = false
		d.bus.Unlock(RequesterDMA, LockOAM)
		d.bus.Unlock(RequesterDMA, LockVRAM)
	}
}

// DMAState is the serializable OAM DMA state.
type DMAState struct {
	Active bool
	Source uint16
	Index  uint8
}

func (d *DMA) Snapshot() DMAState {
	return DMAState{Active: d.active, Source: d.source, Index: d.index}
}

func (d *DMA) Restore(s DMAState) {
	d.active = s.Active
	d.source = s.Source
	d.index = s.Index
}

// hdmaBlock is the unit of an HBlank transfer.
const hdmaBlock = 0x10

// hdmaBytesPerTick is how many bytes HDMA moves per M-cycle.
const hdmaBytesPerTick = 2

// HDMAMode is the VRAM DMA transfer mode selected by HDMA5 bit 7.
type HDMAMode uint8

const (
	HDMAGeneral HDMAMode = iota
	HDMAHBlank
)

// HDMA is the CGB VRAM DMA. General transfers copy the whole length back to
// back. HBlank transfers copy one 16 byte block each time the PPU enters
// mode 0, as reported by the STAT mode bits.
type HDMA struct {
	bus *Bus

	src1, src2, dst1, dst2, ctrl, stat, ly *ioreg.Reg

	active bool
	mode   HDMAMode
	source uint16
	dest   uint16
	// remaining counts bytes left in the whole transfer
	remaining uint16
	// blockLeft counts bytes left in the block being copied
	blockLeft uint8
	lastMode  uint8
}

func NewHDMA(b *Bus) *HDMA {
	io := b.IO()
	h := &HDMA{
		bus:  b,
		src1: io.Reg(addr.HDMA1),
		src2: io.Reg(addr.HDMA2),
		dst1: io.Reg(addr.HDMA3),
		dst2: io.Reg(addr.HDMA4),
		ctrl: io.Reg(addr.HDMA5),
		stat: io.Reg(addr.STAT),
		ly:   io.Reg(addr.LY),
	}
	h.lastMode = h.ppuMode()
	return h
}

// Active reports whether a transfer is configured and not finished.
func (h *HDMA) Active() bool { return h.active }

// Mode returns the mode of the current transfer.
func (h *HDMA) Mode() HDMAMode { return h.mode }

// Stalling reports whether a block is being copied. The CPU does not run
// while it is.
func (h *HDMA) Stalling() bool { return h.blockLeft > 0 }

func (h *HDMA) ppuMode() uint8 {
	return h.stat.Get() & 0x03
}

func (h *HDMA) lcdOn() bool {
	return h.bus.IO().Reg(addr.LCDC).Get()&0x80 != 0
}

// Tick handles HDMA5 writes and moves up to hdmaBytesPerTick bytes.
func (h *HDMA) Tick() {
	if !h.bus.CGB() {
		return
	}

	h.src1.ClearDirty()
	h.src2.ClearDirty()
	h.dst1.ClearDirty()
	h.dst2.ClearDirty()
	if h.ctrl.TakeDirty() {
		h.control(h.ctrl.Get())
	}

	mode := h.ppuMode()
	enteredHBlank := mode == 0 && h.lastMode != 0 && h.ly.Get() < 144
	h.lastMode = mode

	if !h.active {
		return
	}
	if h.mode == HDMAHBlank && h.blockLeft == 0 && enteredHBlank {
		h.startBlock()
	}
	h.copy()
}

func (h *HDMA) control(value uint8) {
	if h.active && h.mode == HDMAHBlank && value&0x80 == 0 {
		h.cancel()
		return
	}

	h.source = (uint16(h.src1.Get())<<8 | uint16(h.src2.Get())) & 0xFFF0
	h.dest = addr.VRAMStart | (uint16(h.dst1.Get())<<8|uint16(h.dst2.Get()))&0x1FF0
	h.remaining = (uint16(value&0x7F) + 1) * hdmaBlock
	h.active = true
	h.blockLeft = 0

	if value&0x80 == 0 {
		h.mode = HDMAGeneral
		h.blockLeft = hdmaBlock
		h.bus.Lock(RequesterHDMA, LockVRAM)
	} else {
		h.mode = HDMAHBlank
		// with the LCD off there is no HBlank to wait for
		if !h.lcdOn() || h.ppuMode() == 0 {
			h.startBlock()
		}
	}
	h.ctrl.Set(h.lengthReg())
	slog.Debug("HDMA start", "mode", h.mode, "source", h.source, "dest", h.dest, "length", h.remaining)
}

func (h *HDMA) startBlock() {
	h.blockLeft = hdmaBlock
	h.bus.Lock(RequesterHDMA, LockVRAM)
}

func (h *HDMA) cancel() {
	h.active = false
	h.blockLeft = 0
	h.bus.Unlock(RequesterHDMA, LockVRAM)
	h.ctrl.Set(0x80 | h.lengthReg()&0x7F)
}

// lengthReg is what HDMA5 reads during a transfer: remaining blocks minus one.
func (h *HDMA) lengthReg() uint8 {
	if h.remaining == 0 {
		return 0xFF
	}
	return uint8(h.remaining/hdmaBlock-1) & 0x7F
}

func (h *HDMA) copy() {
	for i := 0; i < hdmaBytesPerTick && h.blockLeft > 0; i++ {
		value := h.bus.ReadAs(RequesterHDMA, h.source)
		h.bus.WriteAs(RequesterHDMA, h.dest, value)
		h.source++
		h.dest = addr.VRAMStart | (h.dest+1)&0x1FFF
		h.remaining--
		h.blockLeft--
	}

	if h.blockLeft > 0 {
		return
	}

	switch {
	case h.remaining == 0:
		h.active = false
		h.bus.Unlock(RequesterHDMA, LockVRAM)
		h.ctrl.Set(0xFF)
	case h.mode == HDMAGeneral:
		h.blockLeft = hdmaBlock
		h.ctrl.Set(h.lengthReg())
	default:
		h.bus.Unlock(RequesterHDMA, LockVRAM)
		h.ctrl.Set(h.lengthReg())
	}
}

// HDMAState is the serializable VRAM DMA state.
type HDMAState struct {
	Active    bool
	Mode      HDMAMode
	Source    uint16
	Dest      uint16
	Remaining uint16
	BlockLeft uint8
	LastMode  uint8
}

func (h *HDMA) Snapshot() HDMAState {
	return HDMAState{
		Active:    h.active,
		Mode:      h.mode,
		Source:    h.source,
		Dest:      h.dest,
		Remaining: h.remaining,
		BlockLeft: h.blockLeft,
		LastMode:  h.lastMode,
	}
}

func (h *HDMA) Restore(s HDMAState) {
	h.active = s.Active
	h.mode = s.Mode
	h.source = s.Source
	h.dest = s.Dest
	h.remaining = s.Remaining
	h.blockLeft = s.BlockLeft
	h.lastMode = s.LastMode
}
