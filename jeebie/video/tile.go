package video

import "github.com/valerio/jeebie-cycle/jeebie/bit"

// TileRow is one 8 pixel row of a tile in 2bpp planar form. Low holds bit 0
// of every pixel's color index and High holds bit 1, bit 7 being the
// leftmost pixel. $3C,$7E decodes to 0 2 3 3 3 3 2 0.
type TileRow struct {
	Low  byte
	High byte
}

// colorAt returns the color index stored in bit b of both planes.
func (t TileRow) colorAt(b uint8) uint8 {
	return bit.GetBitValue(b, t.High)<<1 | bit.GetBitValue(b, t.Low)
}

// Decode returns the 8 color indexes as they appear on screen, left to
// right. flipX mirrors the row, as OAM attribute bit 5 and the CGB
// background attribute do.
func (t TileRow) Decode(flipX bool) [8]uint8 {
	var out [8]uint8
	for i := range out {
		b := uint8(7 - i)
		if flipX {
			b = uint8(i)
		}
		out[i] = t.colorAt(b)
	}
	return out
}
