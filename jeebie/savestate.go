package jeebie

import (
	"bufio"
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/valerio/jeebie-cycle/jeebie/audio"
	"github.com/valerio/jeebie-cycle/jeebie/cpu"
	"github.com/valerio/jeebie-cycle/jeebie/memory"
	"github.com/valerio/jeebie-cycle/jeebie/serial"
	"github.com/valerio/jeebie-cycle/jeebie/video"
)

const stateVersion = 1

var (
	// ErrStateMismatch means a savestate belongs to another cartridge or model.
	ErrStateMismatch = errors.New("savestate does not match the running cartridge")
	// ErrNoState is returned by QuickLoad before anything was saved.
	ErrNoState = errors.New("no savestate")
)

// state is everything needed to resume execution bit for bit.
type state struct {
	Version        int
	Title          string
	GlobalChecksum uint16
	CGB            bool

	CPU    cpu.State
	Bus    memory.State
	PPU    video.State
	APU    audio.State
	Timer  memory.TimerState
	DMA    memory.DMAState
	HDMA   memory.HDMAState
	Joypad memory.JoypadState
	Serial serial.State

	Running bool
	CPURan  bool
	Ticks   uint64
}

func (c *Console) snapshot() state {
	return state{
		Version:        stateVersion,
		Title:          c.cart.Title,
		GlobalChecksum: c.cart.GlobalChecksum,
		CGB:            c.cgb,
		CPU:            c.cpu.Snapshot(),
		Bus:            c.bus.Snapshot(),
		PPU:            c.ppu.Snapshot(),
		APU:            c.apu.Snapshot(),
		Timer:          c.timer.Snapshot(),
		DMA:            c.dma.Snapshot(),
		HDMA:           c.hdma.Snapshot(),
		Joypad:         c.joypad.Snapshot(),
		Serial:         c.serial.Snapshot(),
		Running:        c.running,
		CPURan:         c.cpuRan,
		Ticks:          c.ticks,
	}
}

func (c *Console) restore(s state) error {
	if s.Version != stateVersion {
		return fmt.Errorf("savestate version %d, want %d", s.Version, stateVersion)
	}
	if s.Title != c.cart.Title || s.GlobalChecksum != c.cart.GlobalChecksum || s.CGB != c.cgb {
		return fmt.Errorf("%w: state is for %q (cgb=%t)", ErrStateMismatch, s.Title, s.CGB)
	}
	if err := c.cpu.Restore(s.CPU); err != nil {
		return err
	}
	if err := c.bus.Restore(s.Bus); err != nil {
		return err
	}
	c.ppu.Restore(s.PPU)
	c.apu.Restore(s.APU)
	c.timer.Restore(s.Timer)
	c.dma.Restore(s.DMA)
	c.hdma.Restore(s.HDMA)
	c.joypad.Restore(s.Joypad)
	c.serial.Restore(s.Serial)

	c.running = s.Running
	if c.running {
		c.stopErr = nil
	}
	c.cpuRan = s.CPURan
	c.ticks = s.Ticks
	c.breakpoints.Sync(c)
	return nil
}

// SaveState writes the whole machine state to w.
func (c *Console) SaveState(w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(c.snapshot()); err != nil {
		return fmt.Errorf("encoding savestate: %w", err)
	}
	return nil
}

// LoadState replaces the machine state with one written by SaveState. On
// error the console may be left partially restored.
func (c *Console) LoadState(r io.Reader) error {
	var s state
	if err := gob.NewDecoder(r).Decode(&s); err != nil {
		return fmt.Errorf("decoding savestate: %w", err)
	}
	return c.restore(s)
}

// SaveStateFile writes a savestate to path.
func (c *Console) SaveStateFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating savestate: %w", err)
	}
	w := bufio.NewWriter(f)
	if err := c.SaveState(w); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("writing savestate: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing savestate: %w", err)
	}
	slog.Info("Saved state", "path", path, "ticks", c.ticks)
	return nil
}

// LoadStateFile loads a savestate from path.
func (c *Console) LoadStateFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening savestate: %w", err)
	}
	defer f.Close()

	if err := c.LoadState(bufio.NewReader(f)); err != nil {
		return err
	}
	slog.Info("Loaded state", "path", path, "ticks", c.ticks)
	return nil
}

// StatePath is the quick save slot on disk, next to the battery save.
// It is empty when the console has no save location.
func (c *Console) StatePath() string {
	if c.savePath == "" {
		return ""
	}
	return strings.TrimSuffix(c.savePath, ".sav") + ".state"
}

// QuickSave stores the state in memory and, when possible, on disk.
func (c *Console) QuickSave() error {
	var buf bytes.Buffer
	if err := c.SaveState(&buf); err != nil {
		return err
	}
	c.quickState = buf.Bytes()
	if path := c.StatePath(); path != "" {
		return c.SaveStateFile(path)
	}
	slog.Info("Saved state", "ticks", c.ticks)
	return nil
}

// QuickLoad restores the last QuickSave, falling back to the file slot.
func (c *Console) QuickLoad() error {
	if c.quickState != nil {
		return c.LoadState(bytes.NewReader(c.quickState))
	}
	path := c.StatePath()
	if path == "" {
		return ErrNoState
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return ErrNoState
	}
	return c.LoadStateFile(path)
}
