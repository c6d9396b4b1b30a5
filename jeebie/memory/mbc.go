package memory

import (
	"fmt"

	"github.com/valerio/jeebie-cycle/jeebie/addr"
)

// MBC is the cartridge bank controller. Kind selects the variant and a single
// switch in Read and Write dispatches on it:
//
//   - Unplugged: no cartridge, everything reads 0xFF.
//   - MBC0: up to 32KB ROM mapped directly, optional 8KB RAM, no banking.
//   - MBC1: up to 2MB ROM and 32KB RAM. A 5 bit bank register plus a 2 bit
//     register that holds either the upper ROM bank bits or the RAM bank,
//     depending on the banking mode written to 0x6000-0x7FFF.
//   - MBC3: up to 2MB ROM (7 bit bank) and 32KB RAM, plus an optional real
//     time clock mapped in place of RAM by selecting banks 0x08-0x0C.
//   - MBC5: up to 8MB ROM (9 bit bank split across 0x2000-0x2FFF and
//     0x3000-0x3FFF) and 128KB RAM.
//
// The switchable ROM window never maps bank 0: selecting it yields bank 1.
type MBC struct {
	Kind MBCKind

	rom []uint8
	ram []uint8

	ramEnabled bool
	// romBank is the low bank register: 5 bits on MBC1, 7 on MBC3, 9 on MBC5.
	romBank uint16
	// bank2 is the MBC1 secondary register, or the RAM/RTC select on MBC3/5.
	bank2 uint8
	// mode is the MBC1 banking mode.
	mode uint8

	rtc *RTC
}

// NewMBC creates a bank controller of the given kind over rom with ramSize
// bytes of external RAM. clock is only used for MBC3 with an RTC and may be nil.
func NewMBC(kind MBCKind, rom []uint8, ramSize int, withRTC bool, clock Clock) *MBC {
	m := &MBC{
		Kind:    kind,
		rom:     rom,
		ram:     make([]uint8, ramSize),
		romBank: 1,
	}
	if kind == MBC3 && withRTC {
		m.rtc = newRTC(clock)
	}
	return m
}

// NewUnplugged returns the controller used when no cartridge is inserted.
func NewUnplugged() *MBC {
	return &MBC{Kind: Unplugged}
}

// NewMBCForCartridge builds the controller described by the cartridge header.
func NewMBCForCartridge(cart *Cartridge, clock Clock) *MBC {
	return NewMBC(cart.Kind(), cart.rom, cart.RAMSize(), cart.HasRTC(), clock)
}

func (m *MBC) romBanks() int {
	n := len(m.rom) / romBankSize
	if n == 0 {
		return 1
	}
	return n
}

func (m *MBC) romByte(bank int, offset uint16) uint8 {
	if len(m.rom) == 0 {
		return 0xFF
	}
	i := (bank%m.romBanks())*romBankSize + int(offset)
	if i >= len(m.rom) {
		return 0xFF
	}
	return m.rom[i]
}

// ROMBank returns the bank currently mapped at 0x4000-0x7FFF.
func (m *MBC) ROMBank() int {
	var bank int
	switch m.Kind {
	case MBC0, Unplugged:
		return 1
	case MBC1:
		// the zero check only looks at the low 5 bits, so 0x20 maps to 0x21
		low := int(m.romBank & 0x1F)
		if low == 0 {
			low = 1
		}
		bank = low | int(m.bank2&0x03)<<5
	case MBC3:
		bank = int(m.romBank & 0x7F)
	case MBC5:
		bank = int(m.romBank & 0x1FF)
	}
	if bank == 0 {
		bank = 1
	}
	return bank % m.romBanks()
}

// lowBank returns the bank mapped at 0x0000-0x3FFF. Only MBC1 in mode 1 moves it.
func (m *MBC) lowBank() int {
	if m.Kind == MBC1 && m.mode == 1 {
		return (int(m.bank2&0x03) << 5) % m.romBanks()
	}
	return 0
}

// RAMBank returns the external RAM bank mapped at 0xA000-0xBFFF.
func (m *MBC) RAMBank() int {
	switch m.Kind {
	case MBC1:
		if m.mode == 1 {
			return int(m.bank2 & 0x03)
		}
		return 0
	case MBC3:
		return int(m.bank2 & 0x03)
	case MBC5:
		return int(m.bank2 & 0x0F)
	}
	return 0
}

func (m *MBC) ramIndex(address uint16) (int, bool) {
	if len(m.ram) == 0 || !m.RAMEnabled() {
		return 0, false
	}
	i := m.RAMBank()*ramBankSize + int(address-addr.ExtRAMStart)
	return i % len(m.ram), true
}

// rtcSelected reports whether the RAM window currently maps an RTC register.
func (m *MBC) rtcSelected() bool {
	return m.Kind == MBC3 && m.rtc != nil && m.bank2 >= 0x08 && m.bank2 <= 0x0C
}

// Read returns the byte at a cartridge address (0x0000-0x7FFF or 0xA000-0xBFFF).
func (m *MBC) Read(address uint16) uint8 {
	if m.Kind == Unplugged {
		return 0xFF
	}

	switch {
	case address < addr.ROMBankStart:
		return m.romByte(m.lowBank(), address)
	case address <= addr.ROMEnd:
		return m.romByte(m.ROMBank(), address-addr.ROMBankStart)
	case address >= addr.ExtRAMStart && address <= addr.ExtRAMEnd:
		if m.rtcSelected() {
			if !m.ramEnabled {
				return 0xFF
			}
			return m.rtc.read(m.bank2 - 0x08)
		}
		i, ok := m.ramIndex(address)
		if !ok {
			return 0xFF
		}
		return m.ram[i]
	}
	return 0xFF
}

// Write handles both bank register writes (0x0000-0x7FFF) and external RAM writes.
func (m *MBC) Write(address uint16, value uint8) {
	switch m.Kind {
	case Unplugged:
		return
	case MBC0:
		// no registers, only the optional RAM
	case MBC1:
		m.writeMBC1(address, value)
	case MBC3:
		m.writeMBC3(address, value)
	case MBC5:
		m.writeMBC5(address, value)
	}

	if address < addr.ExtRAMStart || address > addr.ExtRAMEnd {
		return
	}

	if m.rtcSelected() {
		if m.ramEnabled {
			m.rtc.write(m.bank2-0x08, value)
		}
		return
	}
	if i, ok := m.ramIndex(address); ok {
		m.ram[i] = value
	}
}

func (m *MBC) writeMBC1(address uint16, value uint8) {
	switch {
	case address <= 0x1FFF:
		m.ramEnabled = value == 0x0A
	case address <= 0x3FFF:
		m.romBank = uint16(value & 0x1F)
	case address <= 0x5FFF:
		m.bank2 = value & 0x03
	case address <= 0x7FFF:
		m.mode = value & 0x01
	}
}

func (m *MBC) writeMBC3(address uint16, value uint8) {
	switch {
	case address <= 0x1FFF:
		m.ramEnabled = value == 0x0A
	case address <= 0x3FFF:
		m.romBank = uint16(value & 0x7F)
	case address <= 0x5FFF:
		m.bank2 = value & 0x0F
	case address <= 0x7FFF:
		if m.rtc != nil {
			m.rtc.latch(value)
		}
	}
}

func (m *MBC) writeMBC5(address uint16, value uint8) {
	switch {
	case address <= 0x1FFF:
		m.ramEnabled = value == 0x0A
	case address <= 0x2FFF:
		m.romBank = m.romBank&0x100 | uint16(value)
	case address <= 0x3FFF:
		m.romBank = m.romBank&0xFF | uint16(value&0x01)<<8
	case address <= 0x5FFF:
		m.bank2 = value & 0x0F
	}
}

// RAMEnabled reports whether external RAM accesses currently reach the RAM.
func (m *MBC) RAMEnabled() bool { return m.ramEnabled || m.Kind == MBC0 }

// RAMDump returns a copy of the external RAM.
func (m *MBC) RAMDump() []uint8 {
	out := make([]uint8, len(m.ram))
	copy(out, m.ram)
	return out
}

// RTC returns the real time clock, nil if the cartridge has none.
func (m *MBC) RTC() *RTC { return m.rtc }

// MBCState is the serializable bank controller state. ROM contents are not
// part of it, the cartridge is reloaded from its file.
type MBCState struct {
	Kind       MBCKind
	RAM        []uint8
	RAMEnabled bool
	ROMBank    uint16
	Bank2      uint8
	Mode       uint8
	HasRTC     bool
	RTC        RTCState
}

// Snapshot captures the controller state.
func (m *MBC) Snapshot() MBCState {
	s := MBCState{
		Kind:       m.Kind,
		RAM:        m.RAMDump(),
		RAMEnabled: m.ramEnabled,
		ROMBank:    m.romBank,
		Bank2:      m.bank2,
		Mode:       m.mode,
	}
	if m.rtc != nil {
		s.HasRTC = true
		s.RTC = m.rtc.snapshot()
	}
	return s
}

// Restore loads a snapshot taken from a controller of the same kind and size.
func (m *MBC) Restore(s MBCState) error {
	if s.Kind != m.Kind {
		return fmt.Errorf("memory: savestate controller %v does not match cartridge %v", s.Kind, m.Kind)
	}
	if len(s.RAM) != len(m.ram) {
		return fmt.Errorf("memory: savestate RAM size %d does not match cartridge %d", len(s.RAM), len(m.ram))
	}
	if s.HasRTC != (m.rtc != nil) {
		return fmt.Errorf("memory: savestate RTC presence does not match cartridge")
	}
	copy(m.ram, s.RAM)
	m.ramEnabled = s.RAMEnabled
	m.romBank = s.ROMBank
	m.bank2 = s.Bank2
	m.mode = s.Mode
	if m.rtc != nil {
		m.rtc.restore(s.RTC)
	}
	return nil
}
