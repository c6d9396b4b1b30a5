package memory

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"unicode"

	"github.com/valerio/jeebie-cycle/jeebie/bit"
)

const titleLength = 16

const (
	entryPointAddress     = 0x100
	titleAddress          = 0x134
	cgbFlagAddress        = 0x143
	cartridgeTypeAddress  = 0x147
	romSizeAddress        = 0x148
	ramSizeAddress        = 0x149
	versionNumberAddress  = 0x14C
	headerChecksumAddress = 0x14D
	globalChecksumAddress = 0x14E
	headerEnd             = 0x150
)

const (
	romBankSize = 0x4000
	ramBankSize = 0x2000
)

var (
	// ErrROMTooSmall is returned for images that do not contain a full header.
	ErrROMTooSmall = errors.New("memory: ROM image is smaller than the cartridge header")
	// ErrUnsupportedMBC is returned for cartridge types without a bank controller implementation.
	ErrUnsupportedMBC = errors.New("memory: unsupported cartridge type")
)

// MBCKind selects the bank controller variant.
type MBCKind uint8

const (
	Unplugged MBCKind = iota
	MBC0
	MBC1
	MBC3
	MBC5
)

func (k MBCKind) String() string {
	switch k {
	case Unplugged:
		return "Unplugged"
	case MBC0:
		return "ROM only"
	case MBC1:
		return "MBC1"
	case MBC3:
		return "MBC3"
	case MBC5:
		return "MBC5"
	}
	return fmt.Sprintf("MBCKind(%d)", uint8(k))
}

type cartFeatures struct {
	kind    MBCKind
	ram     bool
	battery bool
	rtc     bool
	rumble  bool
}

// cartTypes maps the cartridge type byte at 0x147 to the controller and its extras.
var cartTypes = map[uint8]cartFeatures{
	0x00: {kind: MBC0},
	0x01: {kind: MBC1},
	0x02: {kind: MBC1, ram: true},
	0x03: {kind: MBC1, ram: true, battery: true},
	0x08: {kind: MBC0, ram: true},
	0x09: {kind: MBC0, ram: true, battery: true},
	0x0F: {kind: MBC3, battery: true, rtc: true},
	0x10: {kind: MBC3, ram: true, battery: true, rtc: true},
	0x11: {kind: MBC3},
	0x12: {kind: MBC3, ram: true},
	0x13: {kind: MBC3, ram: true, battery: true},
	0x19: {kind: MBC5},
	0x1A: {kind: MBC5, ram: true},
	0x1B: {kind: MBC5, ram: true, battery: true},
	0x1C: {kind: MBC5, rumble: true},
	0x1D: {kind: MBC5, ram: true, rumble: true},
	0x1E: {kind: MBC5, ram: true, battery: true, rumble: true},
}

// ramSizes maps the RAM size byte at 0x149 to a size in bytes.
var ramSizes = map[uint8]int{
	0x00: 0,
	0x01: 0x800,
	0x02: 0x2000,
	0x03: 0x8000,
	0x04: 0x20000,
	0x05: 0x10000,
}

// Header is the parsed cartridge header at 0x0100-0x014F.
type Header struct {
	Title          string
	CGBFlag        uint8
	Type           uint8
	ROMSize        uint8
	RAMSize        uint8
	Version        uint8
	HeaderChecksum uint8
	GlobalChecksum uint16
}

// CGB reports whether the cartridge supports CGB features.
func (h Header) CGB() bool { return h.CGBFlag&0x80 != 0 }

// CGBOnly reports whether the cartridge refuses to run on a DMG.
func (h Header) CGBOnly() bool { return h.CGBFlag == 0xC0 }

// ROMBanks is the number of 16KB banks declared by the header.
func (h Header) ROMBanks() int { return 2 << h.ROMSize }

// Cartridge holds a ROM image and what its header says about the hardware.
type Cartridge struct {
	Header
	rom      []uint8
	features cartFeatures
	ramBytes int
}

// ParseHeader reads the header fields of a ROM image.
func ParseHeader(rom []uint8) (Header, error) {
	if len(rom) < headerEnd {
		return Header{}, fmt.Errorf("%w: %d bytes", ErrROMTooSmall, len(rom))
	}

	// CGB titles are 15 bytes with the CGB flag at the end, older ones use all 16.
	titleBytes := rom[titleAddress : titleAddress+titleLength]
	if rom[cgbFlagAddress]&0x80 != 0 {
		titleBytes = titleBytes[:titleLength-1]
	}

	return Header{
		Title:          parseTitle(titleBytes),
		CGBFlag:        rom[cgbFlagAddress],
		Type:           rom[cartridgeTypeAddress],
		ROMSize:        rom[romSizeAddress],
		RAMSize:        rom[ramSizeAddress],
		Version:        rom[versionNumberAddress],
		HeaderChecksum: rom[headerChecksumAddress],
		GlobalChecksum: bit.Combine(rom[globalChecksumAddress], rom[globalChecksumAddress+1]),
	}, nil
}

// HeaderChecksum computes the checksum the boot ROM verifies over 0x134-0x14C.
func HeaderChecksum(rom []uint8) uint8 {
	var x uint8
	for _, b := range rom[titleAddress:headerChecksumAddress] {
		x = x - b - 1
	}
	return x
}

// NewCartridge validates a ROM image and selects its bank controller.
func NewCartridge(rom []uint8) (*Cartridge, error) {
	h, err := ParseHeader(rom)
	if err != nil {
		return nil, err
	}

	features, ok := cartTypes[h.Type]
	if !ok {
		return nil, fmt.Errorf("%w: 0x%02X", ErrUnsupportedMBC, h.Type)
	}

	if sum := HeaderChecksum(rom); sum != h.HeaderChecksum {
		slog.Warn("cartridge header checksum mismatch",
			"title", h.Title,
			"want", fmt.Sprintf("0x%02X", h.HeaderChecksum),
			"got", fmt.Sprintf("0x%02X", sum))
	}

	if want := h.ROMBanks() * romBankSize; len(rom) < want {
		slog.Warn("ROM image smaller than declared", "title", h.Title, "declared", want, "actual", len(rom))
	}

	ramBytes := 0
	if features.ram {
		ramBytes = ramSizes[h.RAMSize]
	}

	data := make([]uint8, len(rom))
	copy(data, rom)

	return &Cartridge{
		Header:   h,
		rom:      data,
		features: features,
		ramBytes: ramBytes,
	}, nil
}

// LoadCartridge reads a ROM file from disk.
func LoadCartridge(path string) (*Cartridge, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("memory: reading ROM: %w", err)
	}
	cart, err := NewCartridge(data)
	if err != nil {
		return nil, fmt.Errorf("memory: loading %s: %w", path, err)
	}
	return cart, nil
}

// Kind returns the bank controller variant.
func (c *Cartridge) Kind() MBCKind { return c.features.kind }

// HasBattery reports whether external RAM (and the RTC) survive power off.
func (c *Cartridge) HasBattery() bool { return c.features.battery }

// HasRTC reports whether the cartridge carries an MBC3 real time clock.
func (c *Cartridge) HasRTC() bool { return c.features.rtc }

// RAMSize returns the external RAM size in bytes.
func (c *Cartridge) RAMSize() int { return c.ramBytes }

// ROM returns the raw ROM image.
func (c *Cartridge) ROM() []uint8 { return c.rom }

// parseTitle drops the NUL padding and replaces bytes that are not
// printable ASCII with '?'.
func parseTitle(raw []byte) string {
	title := make([]rune, 0, len(raw))
	for _, b := range raw {
		r := rune(b)
		switch {
		case r == 0:
			r = ' '
		case r > unicode.MaxASCII || !unicode.IsPrint(r):
			r = '?'
		}
		title = append(title, r)
	}
	return strings.TrimSpace(string(title))
}
