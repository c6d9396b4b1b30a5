package video

// Pixel is one entry of a pixel FIFO.
type Pixel struct {
	// Color is the 2 bit color index before palette lookup.
	Color uint8
	// Palette is OBP0/OBP1 (0/1) for DMG sprites, or the CGB palette number.
	Palette uint8
	// Priority is the CGB BG-to-OAM priority attribute for background
	// pixels, and the behind-BG flag for sprite pixels.
	Priority bool
	Sprite   bool
	OAMIndex uint8
}

const fifoSize = 16

// FIFO is a fixed size ring of pixels.
type FIFO struct {
	Pixels [fifoSize]Pixel
	Head   int
	Len    int
}

// Push appends a pixel, reporting false when full.
func (f *FIFO) Push(p Pixel) bool {
	if f.Len == fifoSize {
		return false
	}
	f.Pixels[(f.Head+f.Len)%fifoSize] = p
	f.Len++
	return true
}

// Pop removes the oldest pixel.
func (f *FIFO) Pop() (Pixel, bool) {
	if f.Len == 0 {
		return Pixel{}, false
	}
	p := f.Pixels[f.Head]
	f.Head = (f.Head + 1) % fifoSize
	f.Len--
	return p, true
}

// At returns the i-th oldest pixel. i must be below Len.
func (f *FIFO) At(i int) *Pixel {
	return &f.Pixels[(f.Head+i)%fifoSize]
}

func (f *FIFO) Clear() {
	f.Head = 0
	f.Len = 0
}
