package memory

import (
	"fmt"
	"log/slog"

	"github.com/valerio/jeebie-cycle/jeebie/addr"
	"github.com/valerio/jeebie-cycle/jeebie/bit"
	"github.com/valerio/jeebie-cycle/jeebie/ioreg"
)

type memRegion uint8

const (
	regionROM memRegion = iota
	regionVRAM
	regionExtRAM
	regionWRAM
	regionEcho
	regionOAM
	regionUnused
	regionIO
	regionHRAM
	regionIE
)

// Requester identifies who is accessing the bus. Higher values win lock contention.
type Requester uint8

const (
	RequesterCPU Requester = iota
	RequesterPPU
	RequesterHDMA
	RequesterDMA
)

func (r Requester) String() string {
	switch r {
	case RequesterCPU:
		return "CPU"
	case RequesterPPU:
		return "PPU"
	case RequesterHDMA:
		return "HDMA"
	case RequesterDMA:
		return "DMA"
	}
	return fmt.Sprintf("Requester(%d)", uint8(r))
}

// LockRegion is a memory region that can be claimed by a requester.
type LockRegion uint8

const (
	LockOAM LockRegion = iota
	LockVRAM
	lockRegions
)

// Access is one committed CPU bus operation.
type Access struct {
	Address uint16
	Value   uint8
	Write   bool
	// Seq increases by one on every logged access.
	Seq uint64
}

const (
	vramBankSize = 0x2000
	wramBankSize = 0x1000
	oamSize      = 0xA0
	hramSize     = 0x7F
)

// Bus routes addresses to the cartridge, the RAM blocks and the I/O registers.
// It owns every piece of memory that more than one device touches.
type Bus struct {
	cgb bool
	mbc *MBC

	vram [2][vramBankSize]uint8
	wram [8][wramBankSize]uint8
	oam  [oamSize]uint8
	hram [hramSize]uint8
	ie   uint8

	io        *ioreg.Bank
	regionMap [256]memRegion

	// locks holds a bitmask of requesters per region.
	locks [lockRegions]uint8

	last Access
}

// New creates a bus with no cartridge inserted.
// Equivalent to turning on a Gameboy without a cartridge in.
func New(cgb bool) *Bus {
	b := &Bus{
		cgb: cgb,
		mbc: NewUnplugged(),
		io:  ioreg.NewBank(cgb),
	}
	initRegionMap(b)
	return b
}

// NewWithCartridge creates a bus with the cartridge's controller plugged in.
func NewWithCartridge(cart *Cartridge, cgb bool, clock Clock) *Bus {
	b := New(cgb)
	b.mbc = NewMBCForCartridge(cart, clock)
	return b
}

func initRegionMap(b *Bus) {
	fill := func(from, to int, r memRegion) {
		for i := from; i <= to; i++ {
			b.regionMap[i] = r
		}
	}
	fill(0x00, 0x7F, regionROM)
	fill(0x80, 0x9F, regionVRAM)
	fill(0xA0, 0xBF, regionExtRAM)
	fill(0xC0, 0xDF, regionWRAM)
	fill(0xE0, 0xFD, regionEcho)
	// 0xFE and 0xFF are split further in region()
	b.regionMap[0xFE] = regionOAM
	b.regionMap[0xFF] = regionIO
}

func (b *Bus) region(address uint16) memRegion {
	r := b.regionMap[address>>8]
	switch {
	case r == regionOAM && address > addr.OAMEnd:
		return regionUnused
	case r == regionIO && address == addr.IE:
		return regionIE
	case r == regionIO && address >= addr.HRAMStart:
		return regionHRAM
	}
	return r
}

// CGB reports whether the bus exposes the CGB banked memory.
func (b *Bus) CGB() bool { return b.cgb }

// IO returns the I/O register bank.
func (b *Bus) IO() *ioreg.Bank { return b.io }

// MBC returns the inserted cartridge controller.
func (b *Bus) MBC() *MBC { return b.mbc }

// Lock claims a region for a requester.
func (b *Bus) Lock(r Requester, region LockRegion) {
	b.locks[region] |= 1 << r
}

// Unlock releases a claim made by Lock.
func (b *Bus) Unlock(r Requester, region LockRegion) {
	b.locks[region] &^= 1 << r
}

// Locked reports whether any requester holds a claim on region.
func (b *Bus) Locked(region LockRegion) bool {
	return b.locks[region] != 0
}

// blocked reports whether a higher priority requester holds the region.
func (b *Bus) blocked(r Requester, region LockRegion) bool {
	return b.locks[region]>>(r+1) != 0
}

func (b *Bus) vramBank() int {
	if !b.cgb {
		return 0
	}
	return int(b.io.Reg(addr.VBK).Get() & 0x01)
}

func (b *Bus) wramBank() int {
	if !b.cgb {
		return 1
	}
	n := int(b.io.Reg(addr.SVBK).Get() & 0x07)
	if n == 0 {
		n = 1
	}
	return n
}

func (b *Bus) wramRef(address uint16) *uint8 {
	offset := (address - addr.WRAMStart) & 0x1FFF
	if offset < wramBankSize {
		return &b.wram[0][offset]
	}
	return &b.wram[b.wramBank()][offset-wramBankSize]
}

// read resolves an address without lock checks or logging.
func (b *Bus) read(address uint16) uint8 {
	switch b.region(address) {
	case regionROM, regionExtRAM:
		return b.mbc.Read(address)
	case regionVRAM:
		return b.vram[b.vramBank()][address-addr.VRAMStart]
	case regionWRAM, regionEcho:
		return *b.wramRef(address)
	case regionOAM:
		return b.oam[address-addr.OAMStart]
	case regionIO:
		return b.io.Read(address)
	case regionHRAM:
		return b.hram[address-addr.HRAMStart]
	case regionIE:
		return b.ie
	}
	return 0xFF
}

func (b *Bus) write(address uint16, value uint8) {
	switch b.region(address) {
	case regionROM, regionExtRAM:
		b.mbc.Write(address, value)
	case regionVRAM:
		b.vram[b.vramBank()][address-addr.VRAMStart] = value
	case regionWRAM, regionEcho:
		*b.wramRef(address) = value
	case regionOAM:
		b.oam[address-addr.OAMStart] = value
	case regionIO:
		b.io.Write(address, value)
	case regionHRAM:
		b.hram[address-addr.HRAMStart] = value
	case regionIE:
		b.ie = value
	case regionUnused:
		slog.Debug("write to unusable memory", "addr", fmt.Sprintf("0x%04X", address), "value", fmt.Sprintf("0x%02X", value))
	}
}

func lockRegionOf(r memRegion) (LockRegion, bool) {
	switch r {
	case regionOAM:
		return LockOAM, true
	case regionVRAM:
		return LockVRAM, true
	}
	return 0, false
}

// ReadAs reads on behalf of a requester. Regions claimed by a higher priority
// requester read as 0xFF.
func (b *Bus) ReadAs(r Requester, address uint16) uint8 {
	if lr, ok := lockRegionOf(b.region(address)); ok && b.blocked(r, lr) {
		return 0xFF
	}
	return b.read(address)
}

// WriteAs writes on behalf of a requester. Writes to regions claimed by a
// higher priority requester are dropped.
func (b *Bus) WriteAs(r Requester, address uint16, value uint8) {
	if lr, ok := lockRegionOf(b.region(address)); ok && b.blocked(r, lr) {
		return
	}
	b.write(address, value)
}

// Read is a CPU read. It is recorded in the access log.
func (b *Bus) Read(address uint16) uint8 {
	value := b.ReadAs(RequesterCPU, address)
	b.log(address, value, false)
	return value
}

// Write is a CPU write. It is recorded in the access log.
func (b *Bus) Write(address uint16, value uint8) {
	b.WriteAs(RequesterCPU, address, value)
	b.log(address, value, true)
}

func (b *Bus) log(address uint16, value uint8, write bool) {
	b.last = Access{Address: address, Value: value, Write: write, Seq: b.last.Seq + 1}
}

// LastAccess returns the most recent CPU access. Seq is 0 before the first one.
func (b *Bus) LastAccess() Access {
	return b.last
}

// Peek reads without locks, logging or side effects.
func (b *Bus) Peek(address uint16) uint8 {
	return b.read(address)
}

// GetRange returns up to length bytes starting at start. The range is
// truncated at the end of the address space.
func (b *Bus) GetRange(start uint16, length int) []uint8 {
	if length <= 0 {
		return nil
	}
	if end := int(start) + length; end > 0x10000 {
		length = 0x10000 - int(start)
	}
	out := make([]uint8, length)
	for i := range out {
		out[i] = b.read(start + uint16(i))
	}
	return out
}

// VRAM returns a byte from a specific VRAM bank, offset from 0x8000, as
// seen by the requester.
func (b *Bus) VRAM(r Requester, bank int, offset uint16) uint8 {
	if b.blocked(r, LockVRAM) {
		return 0xFF
	}
	return b.vram[bank&1][offset&0x1FFF]
}

// OAM returns an OAM byte as seen by the requester.
func (b *Bus) OAM(r Requester, offset uint8) uint8 {
	if b.blocked(r, LockOAM) || int(offset) >= oamSize {
		return 0xFF
	}
	return b.oam[offset]
}

// Interrupts returns the IE and IF registers.
func (b *Bus) Interrupts() (enabled, requested uint8) {
	return b.ie, b.io.Reg(addr.IF).Get() & 0x1F
}

// RequestInterrupt raises a bit in IF.
func (b *Bus) RequestInterrupt(irq addr.Interrupt) {
	b.io.RequestInterrupt(irq)
}

// AckInterrupt clears a bit in IF when the CPU dispatches it.
func (b *Bus) AckInterrupt(irq addr.Interrupt) {
	r := b.io.Reg(addr.IF)
	r.Set(r.Get() &^ uint8(irq))
}

// Stop executes the STOP side effects: DIV resets and, on a CGB with a
// speed switch armed in KEY1, the speed toggles. It reports whether the
// switch happened, in which case the CPU keeps running.
func (b *Bus) Stop() bool {
	b.io.Reg(addr.DIV).Write(0)

	if !b.cgb {
		return false
	}
	key1 := b.io.Reg(addr.KEY1)
	if !bit.IsSet(0, key1.Get()) {
		return false
	}
	key1.Set((key1.Get() ^ 0x80) &^ 0x01)
	slog.Debug("speed switch", "double", b.DoubleSpeed())
	return true
}

// DoubleSpeed reports whether the CGB runs in double speed mode.
func (b *Bus) DoubleSpeed() bool {
	return b.cgb && bit.IsSet(7, b.io.Reg(addr.KEY1).Get())
}

// Insert plugs a cartridge in, replacing the current one.
func (b *Bus) Insert(m *MBC) {
	b.mbc = m
}

// Eject unplugs the cartridge. Battery backed state is written to savePath
// first when savePath is not empty.
func (b *Bus) Eject(savePath string, battery bool) error {
	m := b.mbc
	b.mbc = NewUnplugged()
	if m.Kind == Unplugged || !battery || savePath == "" {
		return nil
	}
	return WriteSave(savePath, m)
}

// State is the serializable bus contents.
type State struct {
	VRAM  [2][vramBankSize]uint8
	WRAM  [8][wramBankSize]uint8
	OAM   [oamSize]uint8
	HRAM  [hramSize]uint8
	IE    uint8
	IO    [ioreg.Size]ioreg.Reg
	Locks [lockRegions]uint8
	Last  Access
	MBC   MBCState
}

// Snapshot captures the bus contents.
func (b *Bus) Snapshot() State {
	return State{
		VRAM:  b.vram,
		WRAM:  b.wram,
		OAM:   b.oam,
		HRAM:  b.hram,
		IE:    b.ie,
		IO:    b.io.Snapshot(),
		Locks: b.locks,
		Last:  b.last,
		MBC:   b.mbc.Snapshot(),
	}
}

// Restore loads a snapshot taken on a bus with the same cartridge.
func (b *Bus) Restore(s State) error {
	if err := b.mbc.Restore(s.MBC); err != nil {
		return err
	}
	b.vram = s.VRAM
	b.wram = s.WRAM
	b.oam = s.OAM
	b.hram = s.HRAM
	b.ie = s.IE
	b.io.Restore(s.IO)
	b.locks = s.Locks
	b.last = s.Last
	return nil
}
