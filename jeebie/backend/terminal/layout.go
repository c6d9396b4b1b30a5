package terminal

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/valerio/jeebie-cycle/jeebie/backend/terminal/render"
	"github.com/valerio/jeebie-cycle/jeebie/debug"
	"github.com/valerio/jeebie-cycle/jeebie/disasm"
	"github.com/valerio/jeebie-cycle/jeebie/display"
	"github.com/valerio/jeebie-cycle/jeebie/input/action"
	"github.com/valerio/jeebie-cycle/jeebie/video"
)

const (
	width  = video.FramebufferWidth
	height = video.FramebufferHeight

	registerHeight = 12
	disasmHeight   = 9
	minTermWidth   = 80
	minTermHeight  = 24

	dividerX = width + 2
)

var (
	borderStyle  = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	titleStyle   = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	regStyle     = tcell.StyleDefault.Foreground(tcell.ColorBlue)
	codeStyle    = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	currentStyle = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
)

var logStyles = map[slog.Level]tcell.Style{
	slog.LevelDebug: tcell.StyleDefault.Foreground(tcell.ColorGray),
	slog.LevelInfo:  tcell.StyleDefault.Foreground(tcell.ColorBlue),
	slog.LevelWarn:  tcell.StyleDefault.Foreground(tcell.ColorYellow),
	slog.LevelError: tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true),
}

// region is a rectangle of cells, text drawn into it is clipped.
type region struct {
	screen     tcell.Screen
	x, y, w, h int
}

func (r region) text(row int, s string, style tcell.Style) {
	if row < 0 || row >= r.h {
		return
	}
	col := 0
	for _, ch := range s {
		if col >= r.w {
			return
		}
		r.screen.SetContent(r.x+col, r.y+row, ch, nil, style)
		col++
	}
}

// split cuts a titled section of n content rows off the top of r. The
// title sits on a rule above the content.
func (r region) split(title string, n int) (section, rest region) {
	rule := strings.Repeat("─", max(r.w-1, 0))
	r.text(0, rule, borderStyle)
	r.screen.SetContent(r.x-1, r.y, '├', nil, borderStyle)
	region{r.screen, r.x + 1, r.y, r.w - 1, 1}.text(0, " "+title+" ", titleStyle)

	n = min(n, max(r.h-1, 0))
	section = region{r.screen, r.x, r.y + 1, r.w, n}
	rest = region{r.screen, r.x, r.y + 1 + n, r.w, r.h - 1 - n}
	return section, rest
}

func (t *Backend) render(frame *video.FrameBuffer) {
	t.screen.Clear()
	termWidth, termHeight := t.screen.Size()
	if termWidth < minTermWidth || termHeight < minTermHeight {
		msg := fmt.Sprintf("Terminal too small! Need at least %dx%d", minTermWidth, minTermHeight)
		region{t.screen, 0, termHeight / 2, termWidth, 1}.text(0, msg, tcell.StyleDefault.Foreground(tcell.ColorRed))
		return
	}

	title := "Game Boy"
	if t.config.Title != "" {
		title = t.config.Title
	}
	region{t.screen, 1, 0, dividerX - 1, 1}.text(0, " "+title+" ", titleStyle)
	for y := 0; y < termHeight; y++ {
		t.screen.SetContent(dividerX, y, '│', nil, borderStyle)
	}
	t.drawGameBoy(frame)

	bottom := region{t.screen, 0, termHeight - 1, termWidth, 1}
	bottom.text(0, t.helpLine(), borderStyle)

	// the first section starts on row 0, so its rule doubles as the top border
	panel := region{t.screen, dividerX + 1, 0, termWidth - dividerX - 1, termHeight - 1}
	if d := t.debugData; d != nil {
		var regs, code region
		regs, panel = panel.split("CPU Registers", registerHeight)
		t.drawRegisters(regs, d)
		code, panel = panel.split("Disassembly", disasmHeight)
		t.drawDisassembly(code, d)
	}
	logs, _ := panel.split(fmt.Sprintf("Logs [%s] (-/+ filter)", t.logLevel.Level()), panel.h)
	t.drawLogs(logs)
}

func (t *Backend) helpLine() string {
	entries := []struct {
		act   action.Action
		label string
	}{
		{action.EmulatorDebugToggle, "debug"},
		{action.EmulatorPauseToggle, "pause"},
		{action.EmulatorStepInstruction, "step"},
		{action.EmulatorStepFrame, "frame"},
		{action.EmulatorSaveState, "save"},
		{action.EmulatorLoadState, "load"},
		{action.EmulatorSnapshot, "snapshot"},
		{action.EmulatorQuit, "quit"},
	}
	var sb strings.Builder
	for _, e := range entries {
		if keys := t.keys.keymap.KeysFor(e.act); len(keys) > 0 {
			fmt.Fprintf(&sb, " %s=%s", keys[0], e.label)
		}
	}
	return sb.String()
}

func (t *Backend) drawGameBoy(frame *video.FrameBuffer) {
	pixels := frame.ToSlice()
	for y := 0; y < height; y += 2 {
		for x := 0; x < width; x++ {
			top := pixels[y*width+x]
			bottom := uint32(video.WhiteColor)
			if y+1 < height {
				bottom = pixels[(y+1)*width+x]
			}
			char, fg, bg := t.halfBlock(top, bottom)
			t.screen.SetContent(x, y/2+1, char, nil, tcell.StyleDefault.Foreground(fg).Background(bg))
		}
	}
}

var shadeColors = [4]tcell.Color{
	render.ShadeBlack: tcell.ColorBlack,
	render.ShadeDark:  tcell.ColorGray,
	render.ShadeLight: tcell.ColorSilver,
	render.ShadeWhite: tcell.ColorWhite,
}

// halfBlock draws two stacked pixels in one cell. True color terminals get
// the exact colors, others one of four shades.
func (t *Backend) halfBlock(top, bottom uint32) (rune, tcell.Color, tcell.Color) {
	if t.trueColor {
		return '▀', rgb(top), rgb(bottom)
	}
	topShade := render.PixelToShade(top)
	bottomShade := render.PixelToShade(bottom)
	char := render.GetHalfBlockChar(topShade, bottomShade)
	if topShade == bottomShade {
		return char, shadeColors[topShade], tcell.ColorDefault
	}
	return char, shadeColors[topShade], shadeColors[bottomShade]
}

func rgb(pixel uint32) tcell.Color {
	r, g, b, _ := display.Unpack(pixel)
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}

func (t *Backend) drawRegisters(r region, d *debug.CompleteDebugData) {
	cpu := d.CPU
	if cpu == nil {
		return
	}
	ime := "OFF"
	if cpu.IME {
		ime = "ON"
	}
	lines := []string{
		fmt.Sprintf("Status: %s  Breakpoints: %d", d.DebuggerState, len(d.Breakpoints)),
		fmt.Sprintf("A: 0x%02X  F: 0x%02X", cpu.A, cpu.F),
		fmt.Sprintf("B: 0x%02X  C: 0x%02X", cpu.B, cpu.C),
		fmt.Sprintf("D: 0x%02X  E: 0x%02X", cpu.D, cpu.E),
		fmt.Sprintf("H: 0x%02X  L: 0x%02X", cpu.H, cpu.L),
		fmt.Sprintf("SP: 0x%04X  PC: 0x%04X", cpu.SP, cpu.PC),
		fmt.Sprintf("IME: %s  IE: 0x%02X  IF: 0x%02X", ime, d.InterruptEnable, d.InterruptFlags),
		fmt.Sprintf("Pending: %s  Halted: %t", pendingInterrupts(d.InterruptEnable&d.InterruptFlags), cpu.Halted),
		fmt.Sprintf("Cycles: %d", cpu.Cycles),
	}
	if ppu := d.PPU; ppu != nil {
		lines = append(lines, fmt.Sprintf("PPU: %s  LY: %3d  Frame: %d", ppu.Mode, ppu.LY, ppu.Frames))
	}
	if apu := d.Audio; apu != nil {
		lines = append(lines, audioLine(apu))
	}
	if oam := d.OAM; oam != nil {
		lines = append(lines, fmt.Sprintf("Sprites on line: %d", len(oam.GetVisibleSprites())))
	}
	for i, line := range lines {
		r.text(i, line, regStyle)
	}
}

func (t *Backend) drawDisassembly(r region, d *debug.CompleteDebugData) {
	if d.CPU == nil {
		return
	}
	pc := d.CPU.PC
	for i, line := range disassemblyWindow(d.Disassembly, pc, r.h) {
		style := codeStyle
		if line.Address == pc {
			style = currentStyle
		}
		r.text(i, disasm.FormatDisassemblyLine(line, line.Address == pc), style)
	}
}

// disassemblyWindow picks up to n lines centered on pc.
func disassemblyWindow(lines []disasm.DisassemblyLine, pc uint16, n int) []disasm.DisassemblyLine {
	if len(lines) <= n {
		return lines
	}
	center := 0
	for i, line := range lines {
		if line.Address == pc {
			center = i
			break
		}
	}
	start := min(max(center-n/2, 0), len(lines)-n)
	return lines[start : start+n]
}

var interruptNames = [5]string{"VBL", "STAT", "TIM", "SER", "JOY"}

func pendingInterrupts(pending uint8) string {
	var names []string
	for i, name := range interruptNames {
		if pending&(1<<i) != 0 {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ",")
}

func audioLine(apu *debug.AudioData) string {
	if !apu.APUEnabled {
		return "APU: off"
	}
	var sb strings.Builder
	sb.WriteString("APU:")
	for i, ch := range apu.Channels {
		mark := "-"
		if ch.Enabled {
			mark = ch.Note
			if mark == "" {
				mark = "on"
			}
		}
		fmt.Fprintf(&sb, " %d:%s", i+1, mark)
	}
	return sb.String()
}

// drawLogs shows the newest entries at or above the current level.
func (t *Backend) drawLogs(r region) {
	if r.h <= 0 {
		return
	}
	level := t.logLevel.Level()
	row := 0
	for _, entry := range t.logBuffer.GetRecent(r.h * 4) {
		if entry.Level < level {
			continue
		}
		line := render.FormatLogEntry(entry)
		if len(line) > r.w && r.w > 3 {
			line = line[:r.w-3] + "..."
		}
		style, ok := logStyles[entry.Level]
		if !ok {
			style = logStyles[slog.LevelInfo]
		}
		r.text(row, line, style)
		if row++; row >= r.h {
			return
		}
	}
}
