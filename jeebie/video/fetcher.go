package video

import (
	"github.com/valerio/jeebie-cycle/jeebie/bit"
	"github.com/valerio/jeebie-cycle/jeebie/memory"
)

// FetchStep is the state of the background/window pixel fetcher.
type FetchStep uint8

const (
	FetchTile FetchStep = iota
	FetchDataLow
	FetchDataHigh
	FetchSleep
	FetchPush
)

// stepDots is how long each fetcher step takes. Push has no fixed length,
// it waits for room in the FIFO.
var stepDots = [...]int{
	FetchTile:     2,
	FetchDataLow:  2,
	FetchDataHigh: 2,
	FetchSleep:    1,
	FetchPush:     1,
}

// spriteFetchDots is how long the background fetch is suspended to fetch a sprite row.
const spriteFetchDots = 6

// Fetcher produces 8 background or window pixels at a time.
type Fetcher struct {
	Step FetchStep
	Dots int
	// TileX counts tiles fetched on this line (for the window) or since the
	// start of the line (added to SCX/8 for the background).
	TileX  uint8
	Window bool

	TileIndex uint8
	Attrs     uint8
	Low, High uint8
}

// Reset restarts the fetcher at the first tile of the background or window.
func (f *Fetcher) Reset(window bool) {
	*f = Fetcher{Window: window}
}

func (p *PPU) vram(bank int, address uint16) uint8 {
	return p.bus.VRAM(memory.RequesterPPU, bank, address-vramBase)
}

// tileMapAddress returns the map entry the fetcher is about to read.
func (p *PPU) tileMapAddress() uint16 {
	lcdc := p.lcdc.Get()
	f := &p.fetch

	if f.Window {
		base := tileMap0
		if bit.IsSet(lcdcWindowMap, lcdc) {
			base = tileMap1
		}
		return base + uint16(p.windowLine/8)*32 + uint16(f.TileX&31)
	}

	base := tileMap0
	if bit.IsSet(lcdcBGMap, lcdc) {
		base = tileMap1
	}
	y := uint16(p.ly+p.scy.Get()) & 0xFF
	x := uint16(p.scx.Get()/8+f.TileX) & 31
	return base + (y/8)*32 + x
}

// tileRow returns the row inside the tile for the current line.
func (p *PPU) tileRow() uint8 {
	var row uint8
	if p.fetch.Window {
		row = p.windowLine & 7
	} else {
		row = (p.ly + p.scy.Get()) & 7
	}
	if p.cgb && bit.IsSet(6, p.fetch.Attrs) {
		row = 7 - row
	}
	return row
}

// tileDataAddress returns the address of the low bitplane byte for the
// fetched tile, honouring the LCDC addressing mode.
func (p *PPU) tileDataAddress() uint16 {
	row := uint16(p.tileRow()) * 2
	if bit.IsSet(lcdcTileData, p.lcdc.Get()) {
		return vramBase + uint16(p.fetch.TileIndex)*16 + row
	}
	return uint16(int32(signedTileBase) + int32(int8(p.fetch.TileIndex))*16 + int32(row))
}

func (p *PPU) tileBank() int {
	if p.cgb && bit.IsSet(3, p.fetch.Attrs) {
		return 1
	}
	return 0
}

// fetcherDot advances the background fetcher by one dot.
func (p *PPU) fetcherDot() {
	f := &p.fetch

	if f.Step == FetchPush {
		if p.bgFIFO.Len > 8 {
			return
		}
		p.pushTile()
		f.TileX++
		f.Step = FetchTile
		f.Dots = 0
		return
	}

	f.Dots++
	if f.Dots < stepDots[f.Step] {
		return
	}
	f.Dots = 0

	switch f.Step {
	case FetchTile:
		mapAddr := p.tileMapAddress()
		f.TileIndex = p.vram(0, mapAddr)
		f.Attrs = 0
		if p.cgb {
			f.Attrs = p.vram(1, mapAddr)
		}
		f.Step = FetchDataLow
	case FetchDataLow:
		f.Low = p.vram(p.tileBank(), p.tileDataAddress())
		f.Step = FetchDataHigh
	case FetchDataHigh:
		f.High = p.vram(p.tileBank(), p.tileDataAddress()+1)
		f.Step = FetchSleep
	case FetchSleep:
		f.Step = FetchPush
	}
}

func (p *PPU) pushTile() {
	f := &p.fetch
	row := TileRow{Low: f.Low, High: f.High}
	flipX := p.cgb && bit.IsSet(5, f.Attrs)
	for _, color := range row.Decode(flipX) {
		p.bgFIFO.Push(Pixel{
			Color:    color,
			Palette:  f.Attrs & 0x07,
			Priority: p.cgb && bit.IsSet(7, f.Attrs),
		})
	}
}

// nextSprite returns the scanned sprite that should be fetched at the
// current X, or -1. Among candidates the leftmost wins, then the lowest OAM
// index, which is also the order the sprite FIFO gives them priority on DMG.
func (p *PPU) nextSprite() int {
	best := -1
	for i := 0; i < p.spriteCount; i++ {
		s := &p.sprites[i]
		if p.spriteFetched[i] || s.X > p.x {
			continue
		}
		if best < 0 || s.X < p.sprites[best].X {
			best = i
		}
	}
	return best
}

// mergeSprite fetches a sprite row and merges it into the sprite FIFO.
// Transparent sprite pixels never replace anything. An opaque pixel
// replaces a transparent one, and in CGB priority mode also replaces a
// pixel from a sprite with a higher OAM index.
func (p *PPU) mergeSprite(i int) {
	s := &p.sprites[i]

	row := int(p.ly) - s.Y
	if s.FlipY {
		row = s.Height - 1 - row
	}
	tile := s.TileIndex
	if s.Height == spriteHeightTall {
		tile &^= 1
	}
	bank := 0
	if p.cgb {
		bank = s.Bank
	}
	address := vramBase + uint16(tile)*16 + uint16(row)*2
	data := TileRow{Low: p.vram(bank, address), High: p.vram(bank, address+1)}
	colors := data.Decode(s.FlipX)

	palette := s.CGBPalette
	if !p.cgb {
		palette = 0
		if s.PaletteOBP1 {
			palette = 1
		}
	}
	oamOrder := p.cgb && p.opri.Get()&0x01 == 0

	for col, color := range colors {
		sx := s.X + col
		if sx < p.x {
			continue
		}
		slot := sx - p.x
		for p.objFIFO.Len <= slot {
			p.objFIFO.Push(Pixel{Sprite: true, OAMIndex: 0xFF})
		}
		if color == 0 {
			continue
		}
		cur := p.objFIFO.At(slot)
		if cur.Color == 0 || oamOrder && uint8(s.OAMIndex) < cur.OAMIndex {
			*cur = Pixel{
				Color:    color,
				Palette:  palette,
				Priority: s.BehindBG,
				Sprite:   true,
				OAMIndex: uint8(s.OAMIndex),
			}
		}
	}
}
