package video

import (
	"log/slog"

	"github.com/valerio/jeebie-cycle/jeebie/addr"
	"github.com/valerio/jeebie-cycle/jeebie/bit"
	"github.com/valerio/jeebie-cycle/jeebie/ioreg"
	"github.com/valerio/jeebie-cycle/jeebie/memory"
)

// Mode is the PPU state, as reported in the low bits of STAT.
type Mode uint8

const (
	HBlank Mode = iota
	VBlank
	OAMScan
	Transfer
)

func (m Mode) String() string {
	switch m {
	case HBlank:
		return "HBlank"
	case VBlank:
		return "VBlank"
	case OAMScan:
		return "OAMScan"
	case Transfer:
		return "Transfer"
	}
	return "Unknown"
}

const (
	dotsPerLine   = 456
	oamScanDots   = 80
	visibleLines  = 144
	linesPerFrame = 154
	// DotsPerFrame is the length of a frame, also used while the LCD is off.
	DotsPerFrame = dotsPerLine * linesPerFrame
)

const (
	vramBase       uint16 = addr.VRAMStart
	tileMap0              = addr.TileMap0
	tileMap1              = addr.TileMap1
	signedTileBase        = addr.TileData2
)

// LCDC bits.
const (
	lcdcBGEnable  = 0
	lcdcOBJEnable = 1
	lcdcOBJSize   = 2
	lcdcBGMap     = 3
	lcdcTileData  = 4
	lcdcWindow    = 5
	lcdcWindowMap = 6
	lcdcEnable    = 7
)

// STAT bits.
const (
	statCoincidence = 2
	statHBlankIRQ   = 3
	statVBlankIRQ   = 4
	statOAMIRQ      = 5
	statLYCIRQ      = 6
)

// PPU is a dot stepped picture processor. Tick advances it by one dot.
type PPU struct {
	bus *memory.Bus
	fb  *FrameBuffer
	cgb bool

	lcdc, stat, scy, scx, lyReg, lyc *ioreg.Reg
	bgp, obp0, obp1, wy, wx          *ioreg.Reg
	bcps, bcpd, ocps, ocpd, opri     *ioreg.Reg

	mode  Mode
	dot   int
	ly    uint8
	lcdOn bool

	// OAM scan results for the current line.
	sprites       [maxSpritesPerLine]Sprite
	spriteCount   int
	spriteFetched [maxSpritesPerLine]bool

	// transfer state
	x          int
	discard    int
	bgFIFO     FIFO
	objFIFO    FIFO
	fetch      Fetcher
	spriteDots int
	spriteSlot int

	windowActive bool
	windowUsed   bool
	windowLine   uint8
	wyTriggered  bool

	statLine   bool
	palettes   CGBPalettes
	frameReady bool
	frames     uint64
}

// New creates a PPU attached to the bus. The LCD state is taken from LCDC.
func New(bus *memory.Bus) *PPU {
	io := bus.IO()
	p := &PPU{
		bus:      bus,
		fb:       NewFrameBuffer(),
		cgb:      bus.CGB(),
		lcdc:     io.Reg(addr.LCDC),
		stat:     io.Reg(addr.STAT),
		scy:      io.Reg(addr.SCY),
		scx:      io.Reg(addr.SCX),
		lyReg:    io.Reg(addr.LY),
		lyc:      io.Reg(addr.LYC),
		bgp:      io.Reg(addr.BGP),
		obp0:     io.Reg(addr.OBP0),
		obp1:     io.Reg(addr.OBP1),
		wy:       io.Reg(addr.WY),
		wx:       io.Reg(addr.WX),
		bcps:     io.Reg(addr.BCPS),
		bcpd:     io.Reg(addr.BCPD),
		ocps:     io.Reg(addr.OCPS),
		ocpd:     io.Reg(addr.OCPD),
		opri:     io.Reg(addr.OPRI),
		palettes: newCGBPalettes(),
	}
	p.lcdc.ClearDirty()
	if bit.IsSet(lcdcEnable, p.lcdc.Get()) {
		p.lcdOn = true
		p.ly = 0
		p.lyReg.Set(0)
		p.startLine()
	}
	p.updateStat()
	return p
}

// FrameBuffer returns the double buffered output.
func (p *PPU) FrameBuffer() *FrameBuffer { return p.fb }

// Mode returns the current PPU mode.
func (p *PPU) Mode() Mode { return p.mode }

// LY returns the current scanline.
func (p *PPU) LY() uint8 { return p.ly }

// Frames returns the number of frames completed since power on.
func (p *PPU) Frames() uint64 { return p.frames }

// Palettes exposes CGB palette RAM for debug views.
func (p *PPU) Palettes() *CGBPalettes { return &p.palettes }

// FrameReady reports whether a frame was completed since the last call.
func (p *PPU) FrameReady() bool {
	ready := p.frameReady
	p.frameReady = false
	return ready
}

// Tick advances the PPU by one dot.
func (p *PPU) Tick() {
	p.observe()

	if !p.lcdOn {
		p.offDot()
		return
	}

	switch p.mode {
	case OAMScan:
		if p.dot&1 == 0 {
			p.scanEntry(p.dot >> 1)
		}
		if p.dot == oamScanDots-1 {
			p.enterTransfer()
		}
	case Transfer:
		p.transferDot()
	}

	p.dot++
	if p.dot == dotsPerLine {
		p.nextLine()
	}
	p.updateStat()
}

// observe reacts to CPU writes made since the last dot.
func (p *PPU) observe() {
	if p.lcdc.TakeDirty() {
		on := bit.IsSet(lcdcEnable, p.lcdc.Get())
		switch {
		case on && !p.lcdOn:
			p.turnOn()
		case !on && p.lcdOn:
			p.turnOff()
		}
	}
	if p.cgb {
		syncPaletteRegs(p.bcps, p.bcpd, &p.palettes.BG)
		syncPaletteRegs(p.ocps, p.ocpd, &p.palettes.OBJ)
	}
}

func (p *PPU) turnOn() {
	slog.Debug("LCD on")
	p.lcdOn = true
	p.dot = 0
	p.ly = 0
	p.windowLine = 0
	p.wyTriggered = false
	p.lyReg.Set(0)
	p.startLine()
}

// turnOff resets to line 0 in HBlank and blanks the screen.
func (p *PPU) turnOff() {
	slog.Debug("LCD off", "ly", p.ly)
	p.lcdOn = false
	p.mode = HBlank
	p.dot = 0
	p.ly = 0
	p.lyReg.Set(0)
	p.bus.Unlock(memory.RequesterPPU, memory.LockOAM)
	p.bus.Unlock(memory.RequesterPPU, memory.LockVRAM)
	p.fb.Clear(WhiteColor)
	p.fb.Swap()
	p.fb.Clear(WhiteColor)
	p.statLine = false
	p.updateStat()
}

// offDot keeps frame pacing while the LCD is off: a blank frame is
// reported every DotsPerFrame dots.
func (p *PPU) offDot() {
	p.dot++
	if p.dot >= DotsPerFrame {
		p.dot = 0
		p.frameReady = true
		p.frames++
	}
}

func (p *PPU) startLine() {
	p.mode = OAMScan
	p.dot = 0
	p.spriteCount = 0
	if p.ly == p.wy.Get() {
		p.wyTriggered = true
	}
	p.bus.Lock(memory.RequesterPPU, memory.LockOAM)
}

// scanEntry checks one OAM entry against the current line.
func (p *PPU) scanEntry(index int) {
	if p.spriteCount == maxSpritesPerLine {
		return
	}
	height := SpriteHeight(p.lcdc.Get())
	offset := uint8(index * spriteBytes)
	y := p.bus.OAM(memory.RequesterPPU, offset)
	line := int(p.ly) + spriteYOffset
	if line < int(y) || line >= int(y)+height {
		return
	}
	raw := [spriteBytes]uint8{
		y,
		p.bus.OAM(memory.RequesterPPU, offset+1),
		p.bus.OAM(memory.RequesterPPU, offset+2),
		p.bus.OAM(memory.RequesterPPU, offset+3),
	}
	p.sprites[p.spriteCount] = DecodeSprite(index, raw, height)
	p.spriteCount++
}

func (p *PPU) enterTransfer() {
	p.mode = Transfer
	p.bus.Lock(memory.RequesterPPU, memory.LockVRAM)
	p.x = 0
	p.discard = int(p.scx.Get() & 7)
	p.bgFIFO.Clear()
	p.objFIFO.Clear()
	p.fetch.Reset(false)
	p.spriteDots = 0
	p.windowActive = false
	p.windowUsed = false
	p.spriteFetched = [maxSpritesPerLine]bool{}
}

func (p *PPU) enterHBlank() {
	p.mode = HBlank
	p.bus.Unlock(memory.RequesterPPU, memory.LockOAM)
	p.bus.Unlock(memory.RequesterPPU, memory.LockVRAM)
	if p.windowUsed {
		p.windowLine++
	}
}

func (p *PPU) nextLine() {
	p.dot = 0
	p.ly++

	switch {
	case p.ly == visibleLines:
		p.mode = VBlank
		p.bus.RequestInterrupt(addr.VBlankInterrupt)
		p.fb.Swap()
		p.frameReady = true
		p.frames++
	case p.ly == linesPerFrame:
		p.ly = 0
		p.windowLine = 0
		p.wyTriggered = false
		p.startLine()
	case p.ly < visibleLines:
		p.startLine()
	}
	p.lyReg.Set(p.ly)
}

// transferDot runs one dot of mode 3.
func (p *PPU) transferDot() {
	if p.spriteDots > 0 {
		p.spriteDots--
		if p.spriteDots == 0 {
			p.mergeSprite(p.spriteSlot)
		}
		return
	}

	p.fetcherDot()

	// a sprite at the current X suspends the pixel output until its row
	// has been merged.
	if p.discard == 0 && p.bgFIFO.Len > 0 && bit.IsSet(lcdcOBJEnable, p.lcdc.Get()) {
		if i := p.nextSprite(); i >= 0 {
			p.spriteFetched[i] = true
			p.spriteSlot = i
			p.spriteDots = spriteFetchDots - 1
			return
		}
	}

	p.shiftPixel()
}

// shiftPixel outputs one pixel if the background FIFO has any.
func (p *PPU) shiftPixel() {
	if p.bgFIFO.Len == 0 {
		return
	}

	if !p.windowActive && p.windowTriggered() {
		p.windowActive = true
		p.windowUsed = true
		p.discard = 0
		p.bgFIFO.Clear()
		p.fetch.Reset(true)
		return
	}

	bg, _ := p.bgFIFO.Pop()
	if p.discard > 0 {
		p.discard--
		return
	}
	obj, _ := p.objFIFO.Pop()

	p.fb.SetPixel(uint(p.x), uint(p.ly), p.mix(bg, obj))
	p.x++
	if p.x == FramebufferWidth {
		p.enterHBlank()
	}
}

func (p *PPU) windowTriggered() bool {
	if !bit.IsSet(lcdcWindow, p.lcdc.Get()) || !p.wyTriggered {
		return false
	}
	if !p.cgb && !bit.IsSet(lcdcBGEnable, p.lcdc.Get()) {
		return false
	}
	return p.x+7 >= int(p.wx.Get())
}

// mix resolves the background and sprite pixel at the current position.
func (p *PPU) mix(bg, obj Pixel) GBColor {
	lcdc := p.lcdc.Get()
	bgEnable := bit.IsSet(lcdcBGEnable, lcdc)

	// on DMG, LCDC bit 0 blanks the background to color 0.
	if !p.cgb && !bgEnable {
		bg = Pixel{}
	}

	showObj := obj.Sprite && obj.Color != 0 && bit.IsSet(lcdcOBJEnable, lcdc)
	if showObj && bg.Color != 0 {
		if p.cgb {
			// LCDC bit 0 off on CGB gives sprites priority over everything.
			showObj = !bgEnable || (!bg.Priority && !obj.Priority)
		} else {
			showObj = !obj.Priority
		}
	}

	if showObj {
		if p.cgb {
			return p.palettes.OBJColor(obj.Palette, obj.Color)
		}
		palette := p.obp0.Get()
		if obj.Palette == 1 {
			palette = p.obp1.Get()
		}
		return dmgShade(palette, obj.Color)
	}
	if p.cgb {
		return p.palettes.BGColor(bg.Palette, bg.Color)
	}
	return dmgShade(p.bgp.Get(), bg.Color)
}

// refreshStat writes the mode and coincidence bits into STAT.
func (p *PPU) refreshStat() (stat uint8, coincidence bool) {
	stat = p.stat.Get() & 0x78
	coincidence = p.lcdOn && p.ly == p.lyc.Get()
	stat = bit.SetTo(statCoincidence, stat, coincidence)
	if p.lcdOn {
		stat |= uint8(p.mode)
	}
	p.stat.Set(stat)
	p.stat.ClearDirty()
	return stat, coincidence
}

// updateStat refreshes the STAT mode and coincidence bits and requests the
// STAT interrupt on a rising edge of the combined interrupt line.
func (p *PPU) updateStat() {
	stat, coincidence := p.refreshStat()

	if !p.lcdOn {
		p.statLine = false
		return
	}

	line := (bit.IsSet(statHBlankIRQ, stat) && p.mode == HBlank) ||
		(bit.IsSet(statVBlankIRQ, stat) && p.mode == VBlank) ||
		(bit.IsSet(statOAMIRQ, stat) && p.mode == OAMScan) ||
		(bit.IsSet(statLYCIRQ, stat) && coincidence)

	if line && !p.statLine {
		p.bus.RequestInterrupt(addr.LCDSTATInterrupt)
	}
	p.statLine = line
}
