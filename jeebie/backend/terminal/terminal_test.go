package terminal

import (
	"log/slog"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/jeebie-cycle/jeebie/backend"
	"github.com/valerio/jeebie-cycle/jeebie/debug"
	"github.com/valerio/jeebie-cycle/jeebie/disasm"
	"github.com/valerio/jeebie-cycle/jeebie/input"
	"github.com/valerio/jeebie-cycle/jeebie/input/action"
	"github.com/valerio/jeebie-cycle/jeebie/input/event"
	"github.com/valerio/jeebie-cycle/jeebie/video"
)

type staticProvider struct{ data *debug.CompleteDebugData }

func (p staticProvider) ExtractDebugData() *debug.CompleteDebugData { return p.data }

func newSimBackend(t *testing.T, cfg backend.BackendConfig) (*Backend, tcell.SimulationScreen) {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	screen := tcell.NewSimulationScreen("UTF-8")
	b := NewWithScreen(screen, nil)
	require.NoError(t, b.Init(cfg))
	screen.SetSize(200, 80)
	t.Cleanup(func() { b.Cleanup() })
	return b, screen
}

func cellText(screen tcell.SimulationScreen, x, y, n int) string {
	cells, w, _ := screen.GetContents()
	out := make([]rune, 0, n)
	for i := 0; i < n; i++ {
		c := cells[y*w+x+i]
		if len(c.Runes) == 0 {
			out = append(out, ' ')
			continue
		}
		out = append(out, c.Runes[0])
	}
	return string(out)
}

func TestKeysBecomeEvents(t *testing.T) {
	b, screen := newSimBackend(t, backend.BackendConfig{Title: "TEST"})
	frame := video.NewFrameBuffer()

	screen.InjectKey(tcell.KeyRune, 'z', tcell.ModNone)
	screen.InjectKey(tcell.KeyF6, 0, tcell.ModNone)
	events, err := b.Update(frame)
	require.NoError(t, err)
	assert.Contains(t, events, backend.InputEvent{Action: action.GBButtonA, Type: event.Press})
	assert.Contains(t, events, backend.InputEvent{Action: action.EmulatorSaveState, Type: event.Press})

	events, err = b.Update(frame)
	require.NoError(t, err)
	assert.Contains(t, events, backend.InputEvent{Action: action.GBButtonA, Type: event.Hold})

	screen.InjectKey(tcell.KeyEscape, 0, tcell.ModNone)
	events, err = b.Update(frame)
	require.NoError(t, err)
	assert.Contains(t, events, backend.InputEvent{Action: action.EmulatorQuit, Type: event.Press})
}

func TestDebugToggleIsLocal(t *testing.T) {
	b, screen := newSimBackend(t, backend.BackendConfig{})
	screen.InjectKey(tcell.KeyF10, 0, tcell.ModNone)

	events, err := b.Update(video.NewFrameBuffer())
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.True(t, b.config.ShowDebug)
}

func TestRendersDebugPanel(t *testing.T) {
	data := &debug.CompleteDebugData{
		CPU:           &debug.CPUState{A: 0x01, PC: 0x0150},
		PPU:           &debug.PPUState{Mode: "OAMScan", LY: 10},
		DebuggerState: debug.DebuggerPaused,
		Disassembly: []disasm.DisassemblyLine{
			{Address: 0x0150, Instruction: "NOP", Length: 1},
		},
	}
	b, screen := newSimBackend(t, backend.BackendConfig{ShowDebug: true, DebugProvider: staticProvider{data}})

	_, err := b.Update(video.NewFrameBuffer())
	require.NoError(t, err)

	x := width + 3
	assert.Equal(t, "Status: PAUSED", cellText(screen, x, 1, len("Status: PAUSED")))
	want := disasm.FormatDisassemblyLine(data.Disassembly[0], true)
	assert.Equal(t, want, cellText(screen, x, registerHeight+2, len(want)))
}

func TestDisassemblyWindow(t *testing.T) {
	var lines []disasm.DisassemblyLine
	for i := 0; i < 20; i++ {
		lines = append(lines, disasm.DisassemblyLine{Address: uint16(0x100 + i)})
	}

	testCases := []struct {
		desc      string
		pc        uint16
		wantFirst uint16
	}{
		{desc: "centered", pc: 0x10A, wantFirst: 0x106},
		{desc: "clamped at start", pc: 0x101, wantFirst: 0x100},
		{desc: "clamped at end", pc: 0x113, wantFirst: 0x10B},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			got := disassemblyWindow(lines, tC.pc, disasmHeight)
			require.Len(t, got, disasmHeight)
			assert.Equal(t, tC.wantFirst, got[0].Address)
		})
	}
}

func TestPendingInterrupts(t *testing.T) {
	assert.Equal(t, "none", pendingInterrupts(0))
	assert.Equal(t, "VBL,TIM", pendingInterrupts(0x05))
}

func TestKeyName(t *testing.T) {
	testCases := []struct {
		ev   *tcell.EventKey
		want string
	}{
		{ev: tcell.NewEventKey(tcell.KeyRune, 'z', tcell.ModNone), want: "z"},
		{ev: tcell.NewEventKey(tcell.KeyRune, ' ', tcell.ModNone), want: "Space"},
		{ev: tcell.NewEventKey(tcell.KeyF12, 0, tcell.ModNone), want: "F12"},
		{ev: tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone), want: "Enter"},
	}
	for _, tC := range testCases {
		t.Run(tC.want, func(t *testing.T) {
			got, ok := keyName(tC.ev)
			require.True(t, ok)
			assert.Equal(t, tC.want, got)
		})
	}

	_, ok := keyName(tcell.NewEventKey(tcell.KeyTab, 0, tcell.ModNone))
	assert.False(t, ok)
}

func TestKeyboardHoldAndRelease(t *testing.T) {
	k := newKeyboard(input.DefaultKeymap())
	start := time.Now()

	k.press(action.GBDPadUp, start)
	assert.Equal(t, []backend.InputEvent{{Action: action.GBDPadUp, Type: event.Press}}, k.events(start))

	// switching direction drops the old one
	k.press(action.GBDPadLeft, start)
	events := k.events(start.Add(10 * time.Millisecond))
	assert.ElementsMatch(t, []backend.InputEvent{
		{Action: action.GBDPadLeft, Type: event.Press},
		{Action: action.GBDPadUp, Type: event.Release},
	}, events)

	assert.Equal(t, []backend.InputEvent{{Action: action.GBDPadLeft, Type: event.Hold}}, k.events(start.Add(50*time.Millisecond)))
	assert.Equal(t, []backend.InputEvent{{Action: action.GBDPadLeft, Type: event.Release}}, k.events(start.Add(keyTimeout)))
	assert.Empty(t, k.events(start.Add(2*keyTimeout)))
}

func TestCtrlCQuits(t *testing.T) {
	b, screen := newSimBackend(t, backend.BackendConfig{})
	screen.InjectKey(tcell.KeyCtrlC, 0, tcell.ModCtrl)

	events, err := b.Update(video.NewFrameBuffer())
	require.NoError(t, err)
	assert.Equal(t, []backend.InputEvent{{Action: action.EmulatorQuit, Type: event.Press}}, events)
}
