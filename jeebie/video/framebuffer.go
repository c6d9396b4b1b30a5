package video

const (
	FramebufferWidth  = 160
	FramebufferHeight = 144
)

// GBColor is a 0xRRGGBBAA pixel.
type GBColor uint32

const (
	WhiteColor     GBColor = 0xFFFFFFFF
	LightGreyColor GBColor = 0x989898FF
	DarkGreyColor  GBColor = 0x4C4C4CFF
	BlackColor     GBColor = 0x000000FF
)

// dmgShades maps a palette shade (0-3) to a color.
var dmgShades = [4]GBColor{WhiteColor, LightGreyColor, DarkGreyColor, BlackColor}

// ByteToColor maps a DMG shade index to its color.
func ByteToColor(shade uint8) GBColor {
	return dmgShades[shade&0x03]
}

// FrameBuffer is double buffered: the PPU draws into the back buffer while
// front ends read the last completed frame.
type FrameBuffer struct {
	width  uint
	height uint
	back   []uint32
	front  []uint32
}

// NewFrameBuffer creates a 160x144 frame buffer cleared to white.
func NewFrameBuffer() *FrameBuffer {
	fb := &FrameBuffer{
		width:  FramebufferWidth,
		height: FramebufferHeight,
		back:   make([]uint32, FramebufferWidth*FramebufferHeight),
		front:  make([]uint32, FramebufferWidth*FramebufferHeight),
	}
	fb.Clear(WhiteColor)
	fb.Swap()
	fb.Clear(WhiteColor)
	return fb
}

// GetPixel reads from the last completed frame.
func (fb *FrameBuffer) GetPixel(x, y uint) uint32 {
	return fb.front[y*fb.width+x]
}

// SetPixel writes to the frame being drawn. Out of range writes are ignored.
func (fb *FrameBuffer) SetPixel(x, y uint, color GBColor) {
	if x >= fb.width || y >= fb.height {
		return
	}
	fb.back[y*fb.width+x] = uint32(color)
}

// Clear fills the frame being drawn.
func (fb *FrameBuffer) Clear(color GBColor) {
	for i := range fb.back {
		fb.back[i] = uint32(color)
	}
}

// Swap publishes the frame being drawn.
func (fb *FrameBuffer) Swap() {
	fb.back, fb.front = fb.front, fb.back
}

// ToSlice returns the last completed frame, row major.
func (fb *FrameBuffer) ToSlice() []uint32 {
	return fb.front
}
