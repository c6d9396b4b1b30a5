package video

import (
	"github.com/valerio/jeebie-cycle/jeebie/addr"
	"github.com/valerio/jeebie-cycle/jeebie/bit"
)

const (
	spriteCount        = 40
	maxSpritesPerLine  = 10
	spriteBytes        = 4
	spriteYOffset      = 16
	spriteXOffset      = 8
	spriteHeightNormal = 8
	spriteHeightTall   = 16
)

// Sprite represents a single sprite/object in OAM memory.
// The Game Boy has 40 sprites stored in OAM (Object Attribute Memory) from 0xFE00-0xFE9F.
type Sprite struct {
	Y         int   // screen Y, raw value minus 16
	X         int   // screen X, raw value minus 8, negative when partially off the left edge
	TileIndex uint8 // Tile/pattern number (0-255)
	Flags     uint8 // Attribute flags byte
	OAMIndex  int   // OAM index (0-39)
	Height    int   // Sprite height (8 or 16 pixels, from LCDC bit 2)

	// parsed attribute flags for convenience
	PaletteOBP1 bool  // DMG: false = OBP0, true = OBP1
	FlipX       bool  // horizontally flip the sprite
	FlipY       bool  // vertically flip the sprite
	BehindBG    bool  // true = sprite is behind background (priority flag)
	Bank        int   // CGB: VRAM bank of the tile data
	CGBPalette  uint8 // CGB: object palette 0-7
}

func (s *Sprite) parseFlags() {
	s.PaletteOBP1 = bit.IsSet(4, s.Flags)
	s.FlipX = bit.IsSet(5, s.Flags)
	s.FlipY = bit.IsSet(6, s.Flags)
	s.BehindBG = bit.IsSet(7, s.Flags)
	s.Bank = int(bit.GetBitValue(3, s.Flags))
	s.CGBPalette = s.Flags & 0x07
}

// SpriteHeight returns 8 or 16 depending on LCDC bit 2.
func SpriteHeight(lcdc uint8) int {
	if bit.IsSet(2, lcdc) {
		return spriteHeightTall
	}
	return spriteHeightNormal
}

// DecodeSprite builds a sprite from its 4 OAM bytes.
func DecodeSprite(index int, raw [spriteBytes]uint8, height int) Sprite {
	s := Sprite{
		Y:         int(raw[0]) - spriteYOffset,
		X:         int(raw[1]) - spriteXOffset,
		TileIndex: raw[2],
		Flags:     raw[3],
		OAMIndex:  index,
		Height:    height,
	}
	s.parseFlags()
	return s
}

// OnLine reports whether the sprite covers the scanline.
func (s *Sprite) OnLine(ly int) bool {
	return s.Y <= ly && ly < s.Y+s.Height
}

// Reader reads memory without side effects.
type Reader interface {
	Peek(address uint16) uint8
}

// ReadSprites decodes all 40 OAM entries. Useful for debug tools.
func ReadSprites(r Reader) []Sprite {
	height := SpriteHeight(r.Peek(addr.LCDC))
	result := make([]Sprite, spriteCount)
	for i := 0; i < spriteCount; i++ {
		base := addr.OAMStart + uint16(i*spriteBytes)
		raw := [spriteBytes]uint8{r.Peek(base), r.Peek(base + 1), r.Peek(base + 2), r.Peek(base + 3)}
		result[i] = DecodeSprite(i, raw, height)
	}
	return result
}
