package jeebie

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/valerio/jeebie-cycle/jeebie/audio"
	"github.com/valerio/jeebie-cycle/jeebie/cpu"
	"github.com/valerio/jeebie-cycle/jeebie/debug"
	"github.com/valerio/jeebie-cycle/jeebie/memory"
	"github.com/valerio/jeebie-cycle/jeebie/serial"
	"github.com/valerio/jeebie-cycle/jeebie/video"
)

// ErrStopped is returned by every Tick after the console hit an
// unrecoverable error. The cause is wrapped alongside it.
var ErrStopped = errors.New("console stopped")

// maxStepTicks bounds the debugger step commands, a halted CPU with
// interrupts off never finishes an instruction.
const maxStepTicks = video.DotsPerFrame

// Console is a Game Boy or Game Boy Color. All devices are stepped from a
// single goroutine in a fixed order, one M-cycle per Tick.
type Console struct {
	cfg      Config
	cart     *memory.Cartridge
	cgb      bool
	savePath string

	bus         *memory.Bus
	cpu         *cpu.CPU
	ppu         *video.PPU
	apu         *audio.APU
	timer       *memory.Timer
	dma         *memory.DMA
	hdma        *memory.HDMA
	serial      *serial.LogSink
	joypad      *memory.Joypad
	breakpoints *debug.Evaluator

	running bool
	paused  bool
	stopErr error
	cpuRan  bool
	ticks   uint64
	hits    []debug.Breakpoint

	quickState []byte
}

// New creates a console running the ROM image. Battery saves go to the
// directory set with WithSaveDir, named after the cartridge title.
func New(rom []byte, opts ...Option) (*Console, error) {
	cart, err := memory.NewCartridge(rom)
	if err != nil {
		return nil, err
	}
	cfg := newConfig(opts)

	savePath := ""
	if cfg.SaveDir != "" {
		savePath = filepath.Join(cfg.SaveDir, saveName(cart.Title)+".sav")
	}
	return newConsole(cart, cfg, savePath)
}

// NewWithFile loads a ROM from disk. The battery save sits next to the ROM
// with a .sav extension unless WithSaveDir is given.
func NewWithFile(path string, opts ...Option) (*Console, error) {
	cart, err := memory.LoadCartridge(path)
	if err != nil {
		return nil, err
	}
	cfg := newConfig(opts)
	return newConsole(cart, cfg, savePathFor(path, cfg.SaveDir))
}

// saveName turns a cartridge title into a file name.
func saveName(title string) string {
	if title == "" {
		return "cartridge"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, title)
}

func savePathFor(romPath, saveDir string) string {
	base := strings.TrimSuffix(romPath, filepath.Ext(romPath))
	if saveDir != "" {
		base = filepath.Join(saveDir, filepath.Base(base))
	}
	return base + ".sav"
}

func newConsole(cart *memory.Cartridge, cfg Config, savePath string) (*Console, error) {
	cgb := cfg.resolve(cart.Header)
	bus := memory.NewWithCartridge(cart, cgb, cfg.Clock)

	if cart.HasBattery() && savePath != "" {
		if err := memory.LoadSave(savePath, bus.MBC()); err != nil {
			return nil, err
		}
	}

	cpuOpts := []cpu.Option{cpu.WithRegisters(bootRegisters(cgb))}
	if cfg.Tracer != nil {
		cpuOpts = append(cpuOpts, cpu.WithTracer(cfg.Tracer))
	}

	c := &Console{
		cfg:         cfg,
		cart:        cart,
		cgb:         cgb,
		savePath:    savePath,
		bus:         bus,
		cpu:         cpu.New(cpuOpts...),
		ppu:         video.New(bus),
		apu:         audio.New(bus.IO()),
		timer:       memory.NewTimer(bus),
		dma:         memory.NewDMA(bus),
		hdma:        memory.NewHDMA(bus),
		serial:      serial.NewLogSink(bus.IO(), bus.RequestInterrupt, cfg.Serial...),
		joypad:      memory.NewJoypad(bus),
		breakpoints: debug.NewEvaluator(),
		running:     true,
	}

	slog.Info("Loaded cartridge",
		"title", cart.Title,
		"mbc", cart.Kind(),
		"rom_banks", cart.ROMBanks(),
		"ram", cart.RAMSize(),
		"battery", cart.HasBattery(),
		"cgb", cgb)
	return c, nil
}

// Tick advances the console by one M-cycle. In CGB double speed mode the
// PPU and APU see half as many dots per tick.
//
// Once an error is returned the console is stopped and every later call
// returns the same error.
func (c *Console) Tick() (err error) {
	if !c.running {
		return c.stopErr
	}
	defer func() {
		if r := recover(); r != nil {
			err = c.stop(fmt.Errorf("panic: %v", r))
		}
	}()

	c.timer.Tick()
	c.dma.Tick()
	c.hdma.Tick()

	c.cpuRan = !c.hdma.Stalling()
	if c.cpuRan {
		if err := c.cpu.Cycle(c.bus); err != nil {
			return c.stop(err)
		}
	}

	dots := 4
	if c.bus.DoubleSpeed() {
		dots = 2
	}
	for i := 0; i < dots; i++ {
		c.ppu.Tick()
	}
	c.apu.Tick(dots)
	c.serial.Tick()
	c.joypad.Tick()
	c.ticks++

	if hits := c.breakpoints.Tick(c); len(hits) > 0 {
		c.paused = true
		c.hits = append(c.hits[:0], hits...)
		for _, h := range hits {
			slog.Info("Breakpoint hit", "breakpoint", h.String(), "pc", fmt.Sprintf("0x%04X", c.cpu.PC()))
		}
	}
	return nil
}

func (c *Console) stop(cause error) error {
	c.running = false
	c.stopErr = fmt.Errorf("%w: %w", ErrStopped, cause)
	slog.Error("Console stopped", "error", cause, "pc", fmt.Sprintf("0x%04X", c.cpu.PC()), "ticks", c.ticks)
	return c.stopErr
}

// RunUntilFrame runs until the PPU completes a frame, a breakpoint pauses
// the console or an error stops it. A paused console does not advance.
func (c *Console) RunUntilFrame() error {
	if c.paused {
		return nil
	}
	for i := 0; i < maxStepTicks; i++ {
		if err := c.Tick(); err != nil {
			return err
		}
		if c.ppu.FrameReady() || c.paused {
			return nil
		}
	}
	return nil
}

// StepInstruction runs until the current instruction finishes and pauses.
func (c *Console) StepInstruction() error {
	id := c.breakpoints.Schedule(debug.Step())
	defer c.breakpoints.Remove(id)
	return c.runPaused()
}

// StepCycles runs n ticks and pauses.
func (c *Console) StepCycles(n uint64) error {
	if n == 0 {
		return nil
	}
	id := c.breakpoints.Schedule(debug.RunCycles(n))
	defer c.breakpoints.Remove(id)
	c.paused = false
	for i := uint64(0); i < n; i++ {
		if err := c.Tick(); err != nil {
			return err
		}
		if c.paused {
			break
		}
	}
	c.paused = true
	return nil
}

// StepFrame runs one frame and pauses.
func (c *Console) StepFrame() error {
	c.paused = false
	err := c.RunUntilFrame()
	c.paused = true
	return err
}

func (c *Console) runPaused() error {
	c.paused = false
	for i := 0; i < maxStepTicks; i++ {
		if err := c.Tick(); err != nil {
			return err
		}
		if c.paused {
			return nil
		}
	}
	c.paused = true
	return nil
}

// Pause stops RunUntilFrame from advancing.
func (c *Console) Pause() { c.paused = true }

// Resume clears a pause, including one caused by a breakpoint.
func (c *Console) Resume() { c.paused = false }

// TogglePause flips the pause state.
func (c *Console) TogglePause() { c.paused = !c.paused }

// Paused reports whether the console waits for the debugger.
func (c *Console) Paused() bool { return c.paused }

// Running is false once the console hit an unrecoverable error.
func (c *Console) Running() bool { return c.running }

// Err returns the error that stopped the console, if any.
func (c *Console) Err() error { return c.stopErr }

// Ticks returns the number of M-cycles run so far.
func (c *Console) Ticks() uint64 { return c.ticks }

// CGB reports whether the console runs as a Game Boy Color.
func (c *Console) CGB() bool { return c.cgb }

// Cartridge returns the inserted cartridge.
func (c *Console) Cartridge() *memory.Cartridge { return c.cart }

// SavePath is where Eject writes battery backed RAM.
func (c *Console) SavePath() string { return c.savePath }

// GetCurrentFrame returns the last completed frame.
func (c *Console) GetCurrentFrame() *video.FrameBuffer {
	return c.ppu.FrameBuffer()
}

// DrainAudio returns the stereo samples produced since the last call.
func (c *Console) DrainAudio() []int16 {
	return c.apu.Drain()
}

// SerialOutput returns every byte sent over the link port.
func (c *Console) SerialOutput() []byte {
	return c.serial.Output()
}

// Eject removes the cartridge, writing battery backed RAM and clock first.
func (c *Console) Eject() error {
	if err := c.bus.Eject(c.savePath, c.cart.HasBattery()); err != nil {
		return fmt.Errorf("ejecting cartridge: %w", err)
	}
	return nil
}

// InstructionDone reports whether the CPU finished an instruction during
// the last tick.
func (c *Console) InstructionDone() bool {
	return c.cpuRan && c.cpu.InstructionDone()
}

// Register16 returns a CPU register pair.
func (c *Console) Register16(r cpu.Reg16) uint16 {
	return c.cpu.Register16(r)
}

// LastAccess returns the most recent CPU bus access.
func (c *Console) LastAccess() memory.Access {
	return c.bus.LastAccess()
}

var _ debug.View = (*Console)(nil)
