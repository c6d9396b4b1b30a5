package video

import (
	"github.com/valerio/jeebie-cycle/jeebie/ioreg"
)

const paletteRAMSize = 64

// CGBPalettes holds the 8 background and 8 object palettes, 4 RGB555 colors
// each, stored little endian.
type CGBPalettes struct {
	BG  [paletteRAMSize]uint8
	OBJ [paletteRAMSize]uint8
}

func newCGBPalettes() CGBPalettes {
	var p CGBPalettes
	for i := range p.BG {
		p.BG[i] = 0xFF
		p.OBJ[i] = 0xFF
	}
	return p
}

// dmgShade maps a color index through a DMG palette register (BGP/OBP0/OBP1).
func dmgShade(palette, color uint8) GBColor {
	return ByteToColor(palette >> (color * 2))
}

// expand5 widens a 5 bit channel to 8 bits.
func expand5(v uint16) uint32 {
	v &= 0x1F
	return uint32(v<<3 | v>>2)
}

// RGB555 converts a CGB color to 0xRRGGBBAA.
func RGB555(c uint16) GBColor {
	r := expand5(c)
	g := expand5(c >> 5)
	b := expand5(c >> 10)
	return GBColor(r<<24 | g<<16 | b<<8 | 0xFF)
}

func paletteColor(ram *[paletteRAMSize]uint8, palette, color uint8) GBColor {
	i := (int(palette&0x07)*4 + int(color&0x03)) * 2
	return RGB555(uint16(ram[i]) | uint16(ram[i+1])<<8)
}

// BGColor resolves a background color index through palette RAM.
func (p *CGBPalettes) BGColor(palette, color uint8) GBColor {
	return paletteColor(&p.BG, palette, color)
}

// OBJColor resolves a sprite color index through palette RAM.
func (p *CGBPalettes) OBJColor(palette, color uint8) GBColor {
	return paletteColor(&p.OBJ, palette, color)
}

// syncPaletteRegs applies a write to a palette index/data pair. A data
// write stores the byte at the selected index and, with bit 7 of the index
// register set, moves the index forward. The data register always reflects
// the byte at the current index.
func syncPaletteRegs(sel, data *ioreg.Reg, ram *[paletteRAMSize]uint8) {
	selDirty := sel.TakeDirty()
	if data.TakeDirty() {
		idx := sel.Get() & 0x3F
		ram[idx] = data.Get()
		if sel.Get()&0x80 != 0 {
			sel.Set(0x80 | (idx+1)&0x3F)
		}
		selDirty = true
	}
	if selDirty {
		data.Set(ram[sel.Get()&0x3F])
	}
}
