package render

import "github.com/valerio/jeebie-cycle/jeebie/display"

// Shade levels used when the terminal has no true color support.
const (
	ShadeBlack = iota
	ShadeDark
	ShadeLight
	ShadeWhite
)

// PixelToShade maps a pixel to one of four shades by brightness, so CGB
// colors still read on a monochrome palette.
func PixelToShade(pixel uint32) int {
	switch l := display.Luma(pixel); {
	case l < 0x40:
		return ShadeBlack
	case l < 0x80:
		return ShadeDark
	case l < 0xD0:
		return ShadeLight
	default:
		return ShadeWhite
	}
}

// GetHalfBlockChar returns the character drawing two vertically stacked
// pixels: the foreground color paints the upper half.
func GetHalfBlockChar(topShade, bottomShade int) rune {
	if topShade == bottomShade {
		return '█'
	}
	return '▀'
}
