package memory

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bankedROM builds a ROM where the first two bytes of every bank hold the bank number.
func bankedROM(banks int) []uint8 {
	rom := make([]uint8, banks*romBankSize)
	for b := 0; b < banks; b++ {
		rom[b*romBankSize] = uint8(b)
		rom[b*romBankSize+1] = uint8(b >> 8)
	}
	return rom
}

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

func TestMBCBankSwitching(t *testing.T) {
	tests := []struct {
		name   string
		kind   MBCKind
		banks  int
		writes [][2]uint16
		want   int
	}{
		{"MBC1 default bank", MBC1, 8, nil, 1},
		{"MBC1 bank 5", MBC1, 8, [][2]uint16{{0x2000, 5}}, 5},
		{"MBC1 bank 0 remaps to 1", MBC1, 8, [][2]uint16{{0x2000, 0}}, 1},
		{"MBC1 upper bits", MBC1, 128, [][2]uint16{{0x2000, 3}, {0x4000, 1}}, 0x23},
		{"MBC1 0x20 remaps to 0x21", MBC1, 128, [][2]uint16{{0x2000, 0}, {0x4000, 1}}, 0x21},
		{"MBC1 wraps to ROM size", MBC1, 4, [][2]uint16{{0x2000, 6}}, 2},
		{"MBC3 bank 0x45", MBC3, 128, [][2]uint16{{0x2000, 0x45}}, 0x45},
		{"MBC3 bank 0 remaps to 1", MBC3, 128, [][2]uint16{{0x2000, 0}}, 1},
		{"MBC5 bank 0x1FF", MBC5, 512, [][2]uint16{{0x2000, 0xFF}, {0x3000, 1}}, 0x1FF},
		{"MBC5 bank 0x100", MBC5, 512, [][2]uint16{{0x2000, 0x00}, {0x3000, 1}}, 0x100},
		{"MBC5 bank 0 remaps to 1", MBC5, 512, [][2]uint16{{0x2000, 0}}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rom := bankedROM(tt.banks)
			m := NewMBC(tt.kind, rom, 0, false, nil)
			for _, w := range tt.writes {
				m.Write(w[0], uint8(w[1]))
			}

			assert.Equal(t, tt.want, m.ROMBank())
			for _, offset := range []uint16{0, 1, 0x1234, 0x3FFF} {
				want := rom[tt.want*romBankSize+int(offset)]
				assert.Equal(t, want, m.Read(0x4000+offset), "offset 0x%04X", offset)
			}
			// bank 0 window is fixed in the default mode
			assert.Equal(t, uint8(0), m.Read(0x0000))
		})
	}
}

func TestMBC1Mode1(t *testing.T) {
	rom := bankedROM(128)
	m := NewMBC(MBC1, rom, 0x8000, false, nil)

	m.Write(0x4000, 2)
	m.Write(0x6000, 1)

	assert.Equal(t, uint8(0x40), m.Read(0x0000), "low window follows the upper bits")
	assert.Equal(t, 2, m.RAMBank())

	m.Write(0x0000, 0x0A)
	m.Write(0xA010, 0x99)
	assert.Equal(t, uint8(0x99), m.RAMDump()[2*ramBankSize+0x10])

	m.Write(0x6000, 0)
	assert.Equal(t, 0, m.RAMBank())
	assert.Equal(t, uint8(0), m.Read(0x0000))
}

func TestMBCRAMEnable(t *testing.T) {
	for _, kind := range []MBCKind{MBC1, MBC3, MBC5} {
		t.Run(kind.String(), func(t *testing.T) {
			m := NewMBC(kind, bankedROM(4), 0x2000, false, nil)

			m.Write(0xA000, 0x42)
			assert.Equal(t, uint8(0xFF), m.Read(0xA000), "disabled RAM reads open bus")
			assert.Equal(t, uint8(0), m.RAMDump()[0], "disabled RAM drops writes")

			m.Write(0x0000, 0x0A)
			m.Write(0xA000, 0x42)
			assert.Equal(t, uint8(0x42), m.Read(0xA000))

			m.Write(0x0000, 0x00)
			assert.Equal(t, uint8(0xFF), m.Read(0xA000))
		})
	}
}

func TestMBCRAMEnableValue(t *testing.T) {
	tests := []struct {
		name  string
		value uint8
	}{
		{"high nibble set", 0x1A},
		{"upper bits set", 0xFA},
		{"off by one", 0x0B},
		{"zero", 0x00},
	}
	for _, kind := range []MBCKind{MBC1, MBC3, MBC5} {
		for _, tt := range tests {
			t.Run(kind.String()+" "+tt.name, func(t *testing.T) {
				m := NewMBC(kind, bankedROM(4), 0x2000, false, nil)
				m.Write(0x0000, 0x0A)
				m.Write(0x0000, tt.value)

				m.Write(0xA000, 0x55)
				assert.Equal(t, uint8(0xFF), m.Read(0xA000))
				assert.Equal(t, uint8(0), m.RAMDump()[0], "write dropped")
			})
		}
	}
}

func TestMBC5RAMBanks(t *testing.T) {
	m := NewMBC(MBC5, bankedROM(4), 4*ramBankSize, false, nil)
	m.Write(0x0000, 0x0A)

	for bank := 0; bank < 4; bank++ {
		m.Write(0x4000, uint8(bank))
		m.Write(0xA000, uint8(0x10+bank))
	}
	for bank := 0; bank < 4; bank++ {
		m.Write(0x4000, uint8(bank))
		assert.Equal(t, bank, m.RAMBank())
		assert.Equal(t, uint8(0x10+bank), m.Read(0xA000))
	}
}

func TestMBC0(t *testing.T) {
	rom := bankedROM(2)
	rom[0x150] = 0x77
	m := NewMBC(MBC0, rom, 0, false, nil)

	m.Write(0x2000, 5)
	assert.Equal(t, 1, m.ROMBank())
	assert.Equal(t, uint8(0x77), m.Read(0x0150))
	assert.Equal(t, uint8(1), m.Read(0x4000))
	assert.Equal(t, uint8(0xFF), m.Read(0xA000), "no RAM")
}

func TestUnplugged(t *testing.T) {
	m := NewUnplugged()
	m.Write(0x0000, 0x0A)
	assert.Equal(t, uint8(0xFF), m.Read(0x0000))
	assert.Equal(t, uint8(0xFF), m.Read(0xA000))
	assert.Empty(t, m.RAMDump())
}

func TestRTC(t *testing.T) {
	clock := &fixedClock{now: time.Unix(1_000_000, 0)}
	m := NewMBC(MBC3, bankedROM(4), 0x2000, true, clock)
	m.Write(0x0000, 0x0A)

	latch := func() {
		m.Write(0x6000, 0x00)
		m.Write(0x6000, 0x01)
	}
	readReg := func(reg uint8) uint8 {
		m.Write(0x4000, 0x08+reg)
		return m.Read(0xA000)
	}

	t.Run("latched registers only change on latch", func(t *testing.T) {
		clock.now = clock.now.Add(90 * time.Second)
		assert.Equal(t, uint8(0), readReg(rtcSeconds))

		latch()
		assert.Equal(t, uint8(30), readReg(rtcSeconds))
		assert.Equal(t, uint8(1), readReg(rtcMinutes))
	})

	t.Run("latch needs a 0 to 1 transition", func(t *testing.T) {
		clock.now = clock.now.Add(5 * time.Second)
		m.Write(0x6000, 0x01)
		assert.Equal(t, uint8(30), readReg(rtcSeconds))
		m.Write(0x6000, 0x01)
		assert.Equal(t, uint8(30), readReg(rtcSeconds))

		latch()
		assert.Equal(t, uint8(35), readReg(rtcSeconds))
	})

	t.Run("day counter carry", func(t *testing.T) {
		clock.now = clock.now.Add(513 * 24 * time.Hour)
		latch()
		assert.Equal(t, uint8(1), readReg(rtcDaysLow))
		assert.NotZero(t, readReg(rtcDaysHigh)&(1<<rtcCarryBit))
	})

	t.Run("halt stops the clock", func(t *testing.T) {
		m.Write(0x4000, 0x08+rtcDaysHigh)
		m.Write(0xA000, 1<<rtcHaltBit)
		before := m.RTC().Live()
		clock.now = clock.now.Add(time.Hour)
		assert.Equal(t, before, m.RTC().Live())
	})

	t.Run("RAM still reachable", func(t *testing.T) {
		m.Write(0x4000, 0x00)
		m.Write(0xA000, 0x5A)
		assert.Equal(t, uint8(0x5A), m.Read(0xA000))
	})
}

func TestSaveFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file is fresh RAM", func(t *testing.T) {
		m := NewMBC(MBC1, bankedROM(4), 0x2000, false, nil)
		require.NoError(t, LoadSave(filepath.Join(dir, "missing.sav"), m))
		assert.Equal(t, make([]uint8, 0x2000), m.RAMDump())
	})

	t.Run("RAM round trip", func(t *testing.T) {
		path := filepath.Join(dir, "ram.sav")
		m := NewMBC(MBC5, bankedROM(4), 0x8000, false, nil)
		m.Write(0x0000, 0x0A)
		m.Write(0x4000, 0x03)
		m.Write(0xB000, 0xAB)
		require.NoError(t, WriteSave(path, m))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Len(t, data, 0x8000)
		assert.Equal(t, uint8(0xAB), data[3*ramBankSize+0x1000])

		other := NewMBC(MBC5, bankedROM(4), 0x8000, false, nil)
		require.NoError(t, LoadSave(path, other))
		assert.Equal(t, m.RAMDump(), other.RAMDump())
	})

	t.Run("RTC trailer fast forwards", func(t *testing.T) {
		path := filepath.Join(dir, "rtc.sav")
		clock := &fixedClock{now: time.Unix(2_000_000, 0)}
		m := NewMBC(MBC3, bankedROM(4), 0x2000, true, clock)
		m.Write(0x0000, 0x0A)
		m.Write(0x4000, 0x08+rtcMinutes)
		m.Write(0xA000, 10)
		require.NoError(t, WriteSave(path, m))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Len(t, data, 0x2000+rtcSaveSize)

		clock.now = clock.now.Add(5 * time.Minute)
		other := NewMBC(MBC3, bankedROM(4), 0x2000, true, clock)
		require.NoError(t, LoadSave(path, other))
		assert.Equal(t, uint8(15), other.RTC().Live()[rtcMinutes])
	})

	t.Run("short file is an error", func(t *testing.T) {
		path := filepath.Join(dir, "short.sav")
		require.NoError(t, os.WriteFile(path, []uint8{1, 2, 3}, 0o644))
		m := NewMBC(MBC1, bankedROM(4), 0x2000, false, nil)
		assert.Error(t, LoadSave(path, m))
	})
}

func TestMBCSnapshot(t *testing.T) {
	m := NewMBC(MBC1, bankedROM(8), 0x2000, false, nil)
	m.Write(0x0000, 0x0A)
	m.Write(0x2000, 0x05)
	m.Write(0xA123, 0x77)
	s := m.Snapshot()

	other := NewMBC(MBC1, bankedROM(8), 0x2000, false, nil)
	require.NoError(t, other.Restore(s))
	assert.Equal(t, 5, other.ROMBank())
	assert.Equal(t, uint8(0x77), other.Read(0xA123))

	assert.Error(t, NewMBC(MBC5, bankedROM(8), 0x2000, false, nil).Restore(s))
	assert.Error(t, NewMBC(MBC1, bankedROM(8), 0x8000, false, nil).Restore(s))
}
