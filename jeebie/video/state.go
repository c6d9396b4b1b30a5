package video

import "github.com/valerio/jeebie-cycle/jeebie/memory"

// State is the serializable PPU state. Registers live in the I/O bank and
// are saved with the bus.
type State struct {
	Mode  Mode
	Dot   int
	LY    uint8
	LCDOn bool

	Sprites       [maxSpritesPerLine]Sprite
	SpriteCount   int
	SpriteFetched [maxSpritesPerLine]bool

	X          int
	Discard    int
	BGFIFO     FIFO
	OBJFIFO    FIFO
	Fetcher    Fetcher
	SpriteDots int
	SpriteSlot int

	WindowActive bool
	WindowUsed   bool
	WindowLine   uint8
	WYTriggered  bool

	StatLine   bool
	Palettes   CGBPalettes
	Frames     uint64
	FrameReady bool

	Back  []uint32
	Front []uint32
}

func (p *PPU) Snapshot() State {
	return State{
		Mode:          p.mode,
		Dot:           p.dot,
		LY:            p.ly,
		LCDOn:         p.lcdOn,
		Sprites:       p.sprites,
		SpriteCount:   p.spriteCount,
		SpriteFetched: p.spriteFetched,
		X:             p.x,
		Discard:       p.discard,
		BGFIFO:        p.bgFIFO,
		OBJFIFO:       p.objFIFO,
		Fetcher:       p.fetch,
		SpriteDots:    p.spriteDots,
		SpriteSlot:    p.spriteSlot,
		WindowActive:  p.windowActive,
		WindowUsed:    p.windowUsed,
		WindowLine:    p.windowLine,
		WYTriggered:   p.wyTriggered,
		StatLine:      p.statLine,
		Palettes:      p.palettes,
		Frames:        p.frames,
		FrameReady:    p.frameReady,
		Back:          append([]uint32(nil), p.fb.back...),
		Front:         append([]uint32(nil), p.fb.front...),
	}
}

// Restore loads a snapshot. The bus must already hold the matching
// registers; the PPU locks are reasserted from the restored mode.
func (p *PPU) Restore(s State) {
	p.mode = s.Mode
	p.dot = s.Dot
	p.ly = s.LY
	p.lcdOn = s.LCDOn
	p.sprites = s.Sprites
	p.spriteCount = s.SpriteCount
	p.spriteFetched = s.SpriteFetched
	p.x = s.X
	p.discard = s.Discard
	p.bgFIFO = s.BGFIFO
	p.objFIFO = s.OBJFIFO
	p.fetch = s.Fetcher
	p.spriteDots = s.SpriteDots
	p.spriteSlot = s.SpriteSlot
	p.windowActive = s.WindowActive
	p.windowUsed = s.WindowUsed
	p.windowLine = s.WindowLine
	p.wyTriggered = s.WYTriggered
	p.statLine = s.StatLine
	p.palettes = s.Palettes
	p.frames = s.Frames
	copy(p.fb.back, s.Back)
	copy(p.fb.front, s.Front)
	p.frameReady = s.FrameReady
	p.lyReg.Set(p.ly)
	p.refreshStat()

	p.bus.Unlock(memory.RequesterPPU, memory.LockOAM)
	p.bus.Unlock(memory.RequesterPPU, memory.LockVRAM)
	if !p.lcdOn {
		return
	}
	switch p.mode {
	case OAMScan:
		p.bus.Lock(memory.RequesterPPU, memory.LockOAM)
	case Transfer:
		p.bus.Lock(memory.RequesterPPU, memory.LockOAM)
		p.bus.Lock(memory.RequesterPPU, memory.LockVRAM)
	}
}
