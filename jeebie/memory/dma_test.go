package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/valerio/jeebie-cycle/jeebie/addr"
)

func TestOAMDMA(t *testing.T) {
	b := New(false)
	dma := NewDMA(b)
	for i := 0; i < oamSize; i++ {
		b.Write(0xC100+uint16(i), uint8(i)^0x5A)
	}

	b.Write(addr.DMA, 0xC1)
	for i := 0; i < oamDMALength-1; i++ {
		dma.Tick()
		assert.True(t, dma.Active(), "tick %d", i)
		assert.True(t, b.Locked(LockOAM))
	}
	assert.Equal(t, uint8(0xFF), b.Read(0xFE00), "CPU blocked during transfer")

	dma.Tick()
	assert.False(t, dma.Active(), "done after exactly 160 ticks")
	assert.False(t, b.Locked(LockOAM))
	assert.False(t, b.Locked(LockVRAM))

	for i := 0; i < oamSize; i++ {
		assert.Equal(t, uint8(i)^0x5A, b.Read(0xFE00+uint16(i)))
	}
}

func TestOAMDMARestart(t *testing.T) {
	b := New(false)
	dma := NewDMA(b)
	b.Write(addr.DMA, 0xC0)
	for i := 0; i < 10; i++ {
		dma.Tick()
	}
	b.Write(addr.DMA, 0xC1)
	for i := 0; i < oamDMALength-1; i++ {
		dma.Tick()
	}
	assert.True(t, dma.Active())
	dma.Tick()
	assert.False(t, dma.Active())
}

func setupHDMA(b *Bus, length uint8) {
	for i := 0; i < 0x100; i++ {
		b.Write(0xC000+uint16(i), uint8(i))
	}
	b.Write(addr.HDMA1, 0xC0)
	b.Write(addr.HDMA2, 0x0F) // low nibble ignored
	b.Write(addr.HDMA3, 0x01)
	b.Write(addr.HDMA4, 0x00)
	b.Write(addr.HDMA5, length)
}

func setMode(b *Bus, mode uint8) {
	stat := b.IO().Reg(addr.STAT)
	stat.Set(stat.Get()&^0x03 | mode)
}

func TestHDMAGeneral(t *testing.T) {
	b := New(true)
	hdma := NewHDMA(b)
	setupHDMA(b, 0x03) // 4 blocks

	for i := 0; i < 31; i++ {
		hdma.Tick()
		assert.True(t, hdma.Active())
		assert.True(t, hdma.Stalling())
	}
	hdma.Tick()
	assert.False(t, hdma.Active())
	assert.False(t, b.Locked(LockVRAM))
	assert.Equal(t, uint8(0xFF), b.Read(addr.HDMA5))

	for i := 0; i < 0x40; i++ {
		assert.Equal(t, uint8(i), b.Peek(0x8100+uint16(i)))
	}
	assert.Equal(t, uint8(0), b.Peek(0x8140))
}

func TestHDMAHBlank(t *testing.T) {
	b := New(true)
	hdma := NewHDMA(b)
	setMode(b, 2)
	hdma.Tick()
	setupHDMA(b, 0x81) // 2 blocks

	for i := 0; i < 5; i++ {
		hdma.Tick()
	}
	assert.True(t, hdma.Active())
	assert.Equal(t, uint8(0), b.Peek(0x8101), "waits for HBlank")

	setMode(b, 0)
	for i := 0; i < 8; i++ {
		hdma.Tick()
	}
	assert.False(t, hdma.Stalling())
	assert.Equal(t, uint8(0x0F), b.Peek(0x810F))
	assert.Equal(t, uint8(0), b.Peek(0x8110))
	assert.Equal(t, uint8(0x00), b.Read(addr.HDMA5), "one block left")

	for i := 0; i < 8; i++ {
		hdma.Tick()
	}
	assert.Equal(t, uint8(0), b.Peek(0x8110), "one block per HBlank")

	setMode(b, 2)
	hdma.Tick()
	setMode(b, 0)
	for i := 0; i < 8; i++ {
		hdma.Tick()
	}
	assert.False(t, hdma.Active())
	assert.Equal(t, uint8(0x1F), b.Peek(0x811F))
	assert.Equal(t, uint8(0xFF), b.Read(addr.HDMA5))
}

func TestHDMACancel(t *testing.T) {
	b := New(true)
	hdma := NewHDMA(b)
	setMode(b, 3)
	hdma.Tick()
	setupHDMA(b, 0x83)
	hdma.Tick()
	assert.True(t, hdma.Active())

	b.Write(addr.HDMA5, 0x00)
	hdma.Tick()
	assert.False(t, hdma.Active())
	assert.Equal(t, uint8(0x83), b.Read(addr.HDMA5))
}

func TestHDMAIgnoredOnDMG(t *testing.T) {
	b := New(false)
	hdma := NewHDMA(b)
	b.Write(addr.HDMA5, 0x00)
	hdma.Tick()
	assert.False(t, hdma.Active())
}
