package video

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTileRowDecode(t *testing.T) {
	row := TileRow{Low: 0x3C, High: 0x7E}
	assert.Equal(t, [8]uint8{0, 2, 3, 3, 3, 3, 2, 0}, row.Decode(false))

	row = TileRow{Low: 0x80, High: 0x01}
	assert.Equal(t, [8]uint8{1, 0, 0, 0, 0, 0, 0, 2}, row.Decode(false))
	assert.Equal(t, [8]uint8{2, 0, 0, 0, 0, 0, 0, 1}, row.Decode(true))
}

func TestFIFO(t *testing.T) {
	var f FIFO
	for i := 0; i < fifoSize; i++ {
		assert.True(t, f.Push(Pixel{Color: uint8(i & 3), OAMIndex: uint8(i)}))
	}
	assert.False(t, f.Push(Pixel{}), "full")

	p, ok := f.Pop()
	assert.True(t, ok)
	assert.Equal(t, uint8(0), p.OAMIndex)
	assert.Equal(t, uint8(5), f.At(4).OAMIndex)

	assert.True(t, f.Push(Pixel{OAMIndex: 99}), "wraps around")
	assert.Equal(t, uint8(99), f.At(fifoSize-1).OAMIndex)

	f.Clear()
	_, ok = f.Pop()
	assert.False(t, ok)
}

func TestPalettes(t *testing.T) {
	tests := []struct {
		name string
		got  GBColor
		want GBColor
	}{
		{"dmg color 0 through 0xE4", dmgShade(0xE4, 0), WhiteColor},
		{"dmg color 3 through 0xE4", dmgShade(0xE4, 3), BlackColor},
		{"dmg inverted", dmgShade(0x1B, 0), BlackColor},
		{"rgb555 white", RGB555(0x7FFF), WhiteColor},
		{"rgb555 black", RGB555(0x0000), BlackColor},
		{"rgb555 red", RGB555(0x001F), 0xFF0000FF},
		{"rgb555 green", RGB555(0x03E0), 0x00FF00FF},
		{"rgb555 mid blue", RGB555(0x10 << 10), 0x000084FF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}

	p := newCGBPalettes()
	p.BG[3*8+2*2] = 0x1F
	p.BG[3*8+2*2+1] = 0x00
	assert.Equal(t, GBColor(0xFF0000FF), p.BGColor(3, 2))
	assert.Equal(t, WhiteColor, p.OBJColor(7, 3))
}

func TestDecodeSprite(t *testing.T) {
	s := DecodeSprite(5, [4]uint8{16, 4, 0x42, 0xF9}, spriteHeightTall)
	assert.Equal(t, 0, s.Y)
	assert.Equal(t, -4, s.X)
	assert.Equal(t, uint8(0x42), s.TileIndex)
	assert.Equal(t, 5, s.OAMIndex)
	assert.True(t, s.BehindBG)
	assert.True(t, s.FlipY)
	assert.True(t, s.FlipX)
	assert.True(t, s.PaletteOBP1)
	assert.Equal(t, 1, s.Bank)
	assert.Equal(t, uint8(1), s.CGBPalette)

	assert.True(t, s.OnLine(0))
	assert.True(t, s.OnLine(15))
	assert.False(t, s.OnLine(16))
	assert.Equal(t, spriteHeightTall, SpriteHeight(0x04))
	assert.Equal(t, spriteHeightNormal, SpriteHeight(0x00))
}

func TestFrameBuffer(t *testing.T) {
	fb := NewFrameBuffer()
	fb.SetPixel(3, 4, BlackColor)
	fb.SetPixel(FramebufferWidth, 0, BlackColor)
	assert.Equal(t, uint32(WhiteColor), fb.GetPixel(3, 4), "not visible before swap")

	fb.Swap()
	assert.Equal(t, uint32(BlackColor), fb.GetPixel(3, 4))
	assert.Len(t, fb.ToSlice(), FramebufferWidth*FramebufferHeight)
}
