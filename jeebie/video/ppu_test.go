package video

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/jeebie-cycle/jeebie/addr"
	"github.com/valerio/jeebie-cycle/jeebie/memory"
)

const (
	lcdcDefault = 0x91 // LCD on, 0x8000 tile data, BG on
	lcdcSprites = 0x93
)

// setupPPU returns a PPU with the LCD off so VRAM and OAM can be filled.
func setupPPU(cgb bool) (*memory.Bus, *PPU) {
	b := memory.New(cgb)
	b.Write(addr.LCDC, 0x00)
	b.Write(addr.BGP, 0xE4)
	b.Write(addr.OBP0, 0xE4)
	b.Write(addr.OBP1, 0xE4)
	return b, New(b)
}

// enableLCD turns the LCD on and runs the first dot of line 0.
func enableLCD(b *memory.Bus, p *PPU, lcdc uint8) {
	b.Write(addr.LCDC, lcdc)
	p.Tick()
}

func renderFrame(p *PPU) {
	for !p.FrameReady() {
		p.Tick()
	}
}

func pixelAt(p *PPU, x, y uint) GBColor {
	return GBColor(p.FrameBuffer().GetPixel(x, y))
}

// writeTile fills all 8 rows of a tile with the same bitplanes.
func writeTile(b *memory.Bus, index int, low, high uint8) {
	base := addr.VRAMStart + uint16(index)*16
	for row := uint16(0); row < 8; row++ {
		b.Write(base+row*2, low)
		b.Write(base+row*2+1, high)
	}
}

func writeSprite(b *memory.Bus, index int, x, y int, tile, flags uint8) {
	base := addr.OAMStart + uint16(index*4)
	b.Write(base, uint8(y+spriteYOffset))
	b.Write(base+1, uint8(x+spriteXOffset))
	b.Write(base+2, tile)
	b.Write(base+3, flags)
}

// modeDots samples the mode before every dot of one line.
func modeDots(p *PPU) map[Mode]int {
	counts := map[Mode]int{}
	for i := 0; i < dotsPerLine; i++ {
		counts[p.Mode()]++
		p.Tick()
	}
	return counts
}

func TestLineTiming(t *testing.T) {
	b := memory.New(false)
	p := New(b)
	require.Equal(t, OAMScan, p.Mode())

	counts := modeDots(p)
	assert.Equal(t, oamScanDots, counts[OAMScan])
	assert.Equal(t, 167, counts[Transfer], "no sprites, no scroll")
	assert.Equal(t, dotsPerLine-oamScanDots-167, counts[HBlank])
	assert.Equal(t, uint8(1), p.LY())
	assert.Equal(t, uint8(1), b.Read(addr.LY))
}

func TestTransferLengthens(t *testing.T) {
	measure := func(setup func(b *memory.Bus)) int {
		b, p := setupPPU(false)
		setup(b)
		b.Write(addr.LCDC, lcdcSprites)
		return modeDots(p)[Transfer]
	}

	base := measure(func(*memory.Bus) {})
	scrolled := measure(func(b *memory.Bus) { b.Write(addr.SCX, 3) })
	withSprite := measure(func(b *memory.Bus) { writeSprite(b, 0, 40, 0, 0, 0) })

	assert.Equal(t, base+3, scrolled, "SCX&7 pixels are discarded")
	assert.Equal(t, base+spriteFetchDots, withSprite)
}

func TestFrameTiming(t *testing.T) {
	b, p := setupPPU(false)
	enableLCD(b, p, lcdcDefault)

	for i := 1; i < visibleLines*dotsPerLine-1; i++ {
		p.Tick()
		require.False(t, p.FrameReady(), "dot %d", i)
	}
	p.Tick()
	assert.Equal(t, VBlank, p.Mode())
	assert.Equal(t, uint8(visibleLines), p.LY())
	assert.True(t, p.FrameReady())
	_, requested := b.Interrupts()
	assert.NotZero(t, requested&uint8(addr.VBlankInterrupt))

	for line := visibleLines; line < linesPerFrame-1; line++ {
		for i := 0; i < dotsPerLine; i++ {
			p.Tick()
		}
		assert.Equal(t, VBlank, p.Mode())
		assert.Equal(t, uint8(line+1), b.Read(addr.LY))
	}
	for i := 0; i < dotsPerLine; i++ {
		p.Tick()
	}
	assert.Equal(t, OAMScan, p.Mode())
	assert.Equal(t, uint8(0), p.LY())
	assert.Equal(t, uint64(1), p.Frames())
}

func countInterrupts(b *memory.Bus, p *PPU, irq addr.Interrupt, dots int) int {
	count := 0
	for i := 0; i < dots; i++ {
		p.Tick()
		if _, requested := b.Interrupts(); requested&uint8(irq) != 0 {
			count++
			b.AckInterrupt(irq)
		}
	}
	return count
}

func TestStatInterrupt(t *testing.T) {
	tests := []struct {
		name string
		stat uint8
		lyc  uint8
		want int
	}{
		{"none", 0x00, 0, 0},
		{"hblank", 0x08, 0, visibleLines},
		{"vblank", 0x10, 0, 1},
		{"oam", 0x20, 0, visibleLines},
		{"lyc", 0x40, 10, 1},
		// the line stays high from HBlank into the next OAM scan
		{"hblank and oam", 0x28, 0, visibleLines + 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, p := setupPPU(false)
			b.Write(addr.STAT, tt.stat)
			b.Write(addr.LYC, tt.lyc)
			enableLCD(b, p, lcdcDefault)
			b.AckInterrupt(addr.LCDSTATInterrupt)

			assert.Equal(t, tt.want, countInterrupts(b, p, addr.LCDSTATInterrupt, DotsPerFrame))
		})
	}
}

func TestVBlankOncePerFrame(t *testing.T) {
	b, p := setupPPU(false)
	enableLCD(b, p, lcdcDefault)
	assert.Equal(t, 3, countInterrupts(b, p, addr.VBlankInterrupt, 3*DotsPerFrame))
}

func TestCoincidenceFlag(t *testing.T) {
	b, p := setupPPU(false)
	b.Write(addr.LYC, 5)
	enableLCD(b, p, lcdcDefault)

	for p.LY() != 5 {
		assert.Zero(t, b.Read(addr.STAT)&0x04)
		p.Tick()
	}
	assert.NotZero(t, b.Read(addr.STAT)&0x04)
}

func TestBackgroundRendering(t *testing.T) {
	b, p := setupPPU(false)
	writeTile(b, 1, 0xFF, 0x00) // color 1
	b.Write(addr.TileMap0, 1)
	enableLCD(b, p, lcdcDefault)
	renderFrame(p)

	for y := uint(0); y < 8; y++ {
		for x := uint(0); x < 8; x++ {
			assert.Equal(t, LightGreyColor, pixelAt(p, x, y))
		}
	}
	assert.Equal(t, WhiteColor, pixelAt(p, 8, 0))
	assert.Equal(t, WhiteColor, pixelAt(p, 0, 8))
}

func TestBackgroundScroll(t *testing.T) {
	b, p := setupPPU(false)
	writeTile(b, 1, 0xFF, 0xFF) // color 3
	b.Write(addr.TileMap0+1, 1)
	b.Write(addr.SCX, 3)
	b.Write(addr.SCY, 4)
	enableLCD(b, p, lcdcDefault)
	renderFrame(p)

	assert.Equal(t, WhiteColor, pixelAt(p, 4, 0))
	assert.Equal(t, BlackColor, pixelAt(p, 5, 0))
	assert.Equal(t, BlackColor, pixelAt(p, 12, 3))
	assert.Equal(t, WhiteColor, pixelAt(p, 13, 0))
	assert.Equal(t, WhiteColor, pixelAt(p, 5, 4), "row 8 of the map is empty")
}

func TestSignedTileData(t *testing.T) {
	b, p := setupPPU(false)
	// tile 0x80 in 0x8800 mode lives at 0x8800, tile 0 at 0x9000
	for row := uint16(0); row < 8; row++ {
		b.Write(0x8800+row*2, 0xFF)
		b.Write(0x9000+row*2+1, 0xFF)
	}
	b.Write(addr.TileMap0, 0x80)
	enableLCD(b, p, 0x81)
	renderFrame(p)

	assert.Equal(t, LightGreyColor, pixelAt(p, 0, 0))
	assert.Equal(t, DarkGreyColor, pixelAt(p, 8, 0))
}

func TestSprites(t *testing.T) {
	tests := []struct {
		name   string
		lcdc   uint8
		sprite func(b *memory.Bus)
		check  map[[2]uint]GBColor
	}{
		{
			name:   "drawn",
			lcdc:   lcdcSprites,
			sprite: func(b *memory.Bus) { writeSprite(b, 0, 20, 0, 2, 0) },
			check: map[[2]uint]GBColor{
				{19, 0}: WhiteColor, {20, 0}: BlackColor, {27, 7}: BlackColor, {28, 0}: WhiteColor, {20, 8}: WhiteColor,
			},
		},
		{
			name:   "objects disabled",
			lcdc:   lcdcDefault,
			sprite: func(b *memory.Bus) { writeSprite(b, 0, 20, 0, 2, 0) },
			check:  map[[2]uint]GBColor{{20, 0}: WhiteColor},
		},
		{
			name:   "partially off the left edge",
			lcdc:   lcdcSprites,
			sprite: func(b *memory.Bus) { writeSprite(b, 0, -4, 0, 2, 0) },
			check:  map[[2]uint]GBColor{{0, 0}: BlackColor, {3, 0}: BlackColor, {4, 0}: LightGreyColor},
		},
		{
			name:   "behind non zero background",
			lcdc:   lcdcSprites,
			sprite: func(b *memory.Bus) { writeSprite(b, 0, 4, 0, 2, 0x80) },
			check:  map[[2]uint]GBColor{{4, 0}: LightGreyColor, {7, 0}: LightGreyColor, {8, 0}: BlackColor, {11, 0}: BlackColor},
		},
		{
			name: "lower X wins on DMG",
			lcdc: lcdcSprites,
			sprite: func(b *memory.Bus) {
				writeSprite(b, 0, 40, 0, 2, 0)
				writeSprite(b, 1, 36, 0, 3, 0)
			},
			check: map[[2]uint]GBColor{{36, 0}: DarkGreyColor, {43, 0}: DarkGreyColor, {44, 0}: BlackColor},
		},
		{
			name: "lower OAM index wins on X tie",
			lcdc: lcdcSprites,
			sprite: func(b *memory.Bus) {
				writeSprite(b, 0, 40, 0, 3, 0)
				writeSprite(b, 1, 40, 0, 2, 0)
			},
			check: map[[2]uint]GBColor{{40, 0}: DarkGreyColor},
		},
		{
			name:   "OBP1",
			lcdc:   lcdcSprites,
			sprite: func(b *memory.Bus) { writeSprite(b, 0, 40, 0, 2, 0x10); b.Write(addr.OBP1, 0x00) },
			check:  map[[2]uint]GBColor{{40, 0}: WhiteColor},
		},
		{
			name: "tall sprites ignore bit 0 of the tile",
			lcdc: lcdcSprites | 0x04,
			sprite: func(b *memory.Bus) {
				writeSprite(b, 0, 40, 0, 3, 0)
			},
			check: map[[2]uint]GBColor{{40, 0}: BlackColor, {40, 8}: DarkGreyColor, {40, 16}: WhiteColor},
		},
		{
			name: "ten per line",
			lcdc: lcdcSprites,
			sprite: func(b *memory.Bus) {
				for i := 0; i < 11; i++ {
					writeSprite(b, i, 40+i*8, 0, 2, 0)
				}
			},
			check: map[[2]uint]GBColor{{40, 0}: BlackColor, {119, 0}: BlackColor, {120, 0}: WhiteColor},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, p := setupPPU(false)
			writeTile(b, 1, 0xFF, 0x00) // color 1
			writeTile(b, 2, 0xFF, 0xFF) // color 3
			writeTile(b, 3, 0x00, 0xFF) // color 2
			b.Write(addr.TileMap0, 1)
			tt.sprite(b)
			enableLCD(b, p, tt.lcdc)
			renderFrame(p)

			for pos, want := range tt.check {
				assert.Equal(t, want, pixelAt(p, pos[0], pos[1]), "pixel %v", pos)
			}
		})
	}
}

func TestWindow(t *testing.T) {
	b, p := setupPPU(false)
	writeTile(b, 1, 0xFF, 0x00)
	writeTile(b, 2, 0xFF, 0xFF)
	for i := uint16(0); i < 32*32; i++ {
		b.Write(addr.TileMap1+i, 2)
	}
	b.Write(addr.TileMap1+32, 1) // second window row starts with tile 1
	b.Write(addr.WY, 72)
	b.Write(addr.WX, 7+80)
	enableLCD(b, p, lcdcDefault|0x20|0x40)
	renderFrame(p)

	assert.Equal(t, WhiteColor, pixelAt(p, 100, 71))
	assert.Equal(t, WhiteColor, pixelAt(p, 79, 72))
	assert.Equal(t, BlackColor, pixelAt(p, 80, 72))
	assert.Equal(t, BlackColor, pixelAt(p, 159, 79))
	assert.Equal(t, LightGreyColor, pixelAt(p, 80, 80), "window line counter")
	assert.Equal(t, BlackColor, pixelAt(p, 88, 80))
}

func TestLCDOff(t *testing.T) {
	b, p := setupPPU(false)
	writeTile(b, 0, 0xFF, 0xFF)
	enableLCD(b, p, lcdcDefault)
	renderFrame(p)
	require.Equal(t, BlackColor, pixelAt(p, 0, 0))

	for i := 0; i < 1000; i++ {
		p.Tick()
	}
	b.Write(addr.LCDC, 0x11)
	p.Tick()

	assert.Equal(t, WhiteColor, pixelAt(p, 0, 0))
	assert.Equal(t, uint8(0), b.Read(addr.LY))
	assert.Equal(t, uint8(0), b.Read(addr.STAT)&0x03)
	assert.False(t, b.Locked(memory.LockOAM))
	assert.False(t, b.Locked(memory.LockVRAM))

	for i := 1; i < DotsPerFrame; i++ {
		p.Tick()
	}
	assert.True(t, p.FrameReady(), "blank frames keep the pace")

	enableLCD(b, p, lcdcDefault)
	assert.Equal(t, OAMScan, p.Mode())
	assert.Equal(t, uint8(0), p.LY())
}

func TestMemoryLocks(t *testing.T) {
	b, p := setupPPU(false)
	b.Write(addr.OAMStart, 0x42)
	b.Write(addr.VRAMStart, 0x24)
	enableLCD(b, p, lcdcDefault)

	assert.Equal(t, OAMScan, p.Mode())
	assert.Equal(t, uint8(0xFF), b.Read(addr.OAMStart))
	assert.Equal(t, uint8(0x24), b.Read(addr.VRAMStart))

	for p.Mode() != Transfer {
		p.Tick()
	}
	assert.Equal(t, uint8(0xFF), b.Read(addr.OAMStart))
	assert.Equal(t, uint8(0xFF), b.Read(addr.VRAMStart))
	b.Write(addr.VRAMStart, 0x99)

	for p.Mode() != HBlank {
		p.Tick()
	}
	assert.Equal(t, uint8(0x42), b.Read(addr.OAMStart))
	assert.Equal(t, uint8(0x24), b.Read(addr.VRAMStart), "write during transfer is dropped")
}

func TestCGBPaletteRegisters(t *testing.T) {
	b, p := setupPPU(true)

	b.Write(addr.BCPS, 0x80|0x3E)
	p.Tick()
	b.Write(addr.BCPD, 0x11)
	p.Tick()
	b.Write(addr.BCPD, 0x22)
	p.Tick()
	b.Write(addr.BCPD, 0x33)
	p.Tick()

	assert.Equal(t, uint8(0x11), p.Palettes().BG[0x3E])
	assert.Equal(t, uint8(0x22), p.Palettes().BG[0x3F])
	assert.Equal(t, uint8(0x33), p.Palettes().BG[0x00], "index wraps")

	b.Write(addr.OCPS, 0x02)
	p.Tick()
	b.Write(addr.OCPD, 0x44)
	p.Tick()
	b.Write(addr.OCPD, 0x55)
	p.Tick()
	assert.Equal(t, uint8(0x55), p.Palettes().OBJ[0x02], "no auto increment")
	assert.Equal(t, uint8(0xFF), p.Palettes().OBJ[0x03])
	assert.Equal(t, uint8(0x55), b.Read(addr.OCPD))
}

func writeCGBPalette(b *memory.Bus, p *PPU, sel, data uint16, palette int, colors [4]uint16) {
	b.Write(sel, 0x80|uint8(palette*8))
	p.Tick()
	for _, c := range colors {
		b.Write(data, uint8(c))
		p.Tick()
		b.Write(data, uint8(c>>8))
		p.Tick()
	}
}

func TestCGBRendering(t *testing.T) {
	const (
		red  GBColor = 0xFF0000FF
		blue GBColor = 0x0000FFFF
	)
	b, p := setupPPU(true)
	writeCGBPalette(b, p, addr.OCPS, addr.OCPD, 0, [4]uint16{0, 0, 0x001F, 0x7C00})
	writeCGBPalette(b, p, addr.BCPS, addr.BCPD, 1, [4]uint16{0x7FFF, 0x001F, 0, 0})

	writeTile(b, 2, 0xFF, 0xFF) // color 3
	writeTile(b, 3, 0x00, 0xFF) // color 2

	// tile 1 from VRAM bank 1 through BG palette 1
	b.Write(addr.VBK, 1)
	writeTile(b, 1, 0xFF, 0x00)
	b.Write(addr.TileMap0+2, 0x08|0x01)
	b.Write(addr.VBK, 0)
	b.Write(addr.TileMap0+2, 1)

	writeSprite(b, 0, 40, 0, 2, 0)
	writeSprite(b, 1, 36, 0, 3, 0)
	enableLCD(b, p, lcdcSprites)
	renderFrame(p)

	assert.Equal(t, WhiteColor, pixelAt(p, 0, 0))
	assert.Equal(t, red, pixelAt(p, 16, 0), "bank 1 tile, palette 1")
	assert.Equal(t, red, pixelAt(p, 36, 0))
	assert.Equal(t, blue, pixelAt(p, 40, 0), "lower OAM index wins in CGB mode")
}

func TestSnapshotRoundTrip(t *testing.T) {
	b, p := setupPPU(false)
	writeTile(b, 1, 0x3C, 0x7E)
	for i := uint16(0); i < 32*32; i += 3 {
		b.Write(addr.TileMap0+i, 1)
	}
	writeSprite(b, 0, 30, 50, 1, 0)
	b.Write(addr.SCX, 5)
	enableLCD(b, p, lcdcSprites)
	for i := 0; i < 60*dotsPerLine+200; i++ {
		p.Tick()
	}

	busState := b.Snapshot()
	ppuState := p.Snapshot()

	b2 := memory.New(false)
	require.NoError(t, b2.Restore(busState))
	p2 := New(b2)
	p2.Restore(ppuState)

	renderFrame(p)
	renderFrame(p2)
	assert.Equal(t, p.FrameBuffer().ToSlice(), p2.FrameBuffer().ToSlice())
	assert.Equal(t, p.LY(), p2.LY())
	assert.Equal(t, p.Mode(), p2.Mode())
}
