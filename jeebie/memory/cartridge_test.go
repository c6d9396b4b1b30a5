package memory

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func headerROM(title string, cartType, romSize, ramSize, cgb uint8) []uint8 {
	rom := make([]uint8, (2<<romSize)*romBankSize)
	copy(rom[titleAddress:], title)
	rom[cgbFlagAddress] = cgb
	rom[cartridgeTypeAddress] = cartType
	rom[romSizeAddress] = romSize
	rom[ramSizeAddress] = ramSize
	rom[globalChecksumAddress] = 0xBE
	rom[globalChecksumAddress+1] = 0xEF
	rom[headerChecksumAddress] = HeaderChecksum(rom)
	return rom
}

func TestParseHeader(t *testing.T) {
	rom := headerROM("TETRIS", 0x03, 0x02, 0x03, 0x80)
	h, err := ParseHeader(rom)
	require.NoError(t, err)

	assert.Equal(t, "TETRIS", h.Title)
	assert.True(t, h.CGB())
	assert.False(t, h.CGBOnly())
	assert.Equal(t, 8, h.ROMBanks())
	assert.Equal(t, uint16(0xBEEF), h.GlobalChecksum)
	assert.Equal(t, HeaderChecksum(rom), h.HeaderChecksum)
}

func TestNewCartridge(t *testing.T) {
	tests := []struct {
		name     string
		cartType uint8
		ramSize  uint8
		kind     MBCKind
		ram      int
		battery  bool
		rtc      bool
	}{
		{"ROM only", 0x00, 0x00, MBC0, 0, false, false},
		{"MBC1+RAM+BATTERY", 0x03, 0x03, MBC1, 0x8000, true, false},
		{"MBC1 without RAM ignores size", 0x01, 0x03, MBC1, 0, false, false},
		{"MBC3+TIMER+RAM+BATTERY", 0x10, 0x02, MBC3, 0x2000, true, true},
		{"MBC5+RAM", 0x1A, 0x04, MBC5, 0x20000, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cart, err := NewCartridge(headerROM("GAME", tt.cartType, 1, tt.ramSize, 0))
			require.NoError(t, err)
			assert.Equal(t, tt.kind, cart.Kind())
			assert.Equal(t, tt.ram, cart.RAMSize())
			assert.Equal(t, tt.battery, cart.HasBattery())
			assert.Equal(t, tt.rtc, cart.HasRTC())
		})
	}
}

func TestCartridgeErrors(t *testing.T) {
	_, err := NewCartridge(make([]uint8, 0x100))
	assert.ErrorIs(t, err, ErrROMTooSmall)

	_, err = NewCartridge(headerROM("MBC2", 0x05, 0, 0, 0))
	assert.ErrorIs(t, err, ErrUnsupportedMBC)

	_, err = LoadCartridge(filepath.Join(t.TempDir(), "missing.gb"))
	assert.Error(t, err)
}

func TestLoadCartridge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.gb")
	require.NoError(t, os.WriteFile(path, headerROM("FILE", 0x19, 2, 0, 0xC0), 0o644))

	cart, err := LoadCartridge(path)
	require.NoError(t, err)
	assert.Equal(t, "FILE", cart.Title)
	assert.True(t, cart.CGBOnly())
	assert.Equal(t, MBC5, cart.Kind())
}

func TestCleanTitle(t *testing.T) {
	assert.Equal(t, "POKEMON RED", parseTitle([]byte("POKEMON RED\x00\x00\x00\x00\x00")))
	assert.Empty(t, parseTitle(make([]byte, 16)))
	assert.Equal(t, "A?B", parseTitle([]byte{'A', 0x01, 'B'}))
}
