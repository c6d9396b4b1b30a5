package jeebie

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/valerio/jeebie-cycle/jeebie/cpu"
	"github.com/valerio/jeebie-cycle/jeebie/memory"
	"github.com/valerio/jeebie-cycle/jeebie/serial"
)

// Model selects the hardware being emulated.
type Model int

const (
	// ModelAuto picks CGB when the cartridge header asks for it.
	ModelAuto Model = iota
	ModelDMG
	ModelCGB
)

func (m Model) String() string {
	switch m {
	case ModelDMG:
		return "dmg"
	case ModelCGB:
		return "cgb"
	}
	return "auto"
}

// ParseModel parses the names accepted by the command line.
func ParseModel(s string) (Model, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return ModelAuto, nil
	case "dmg", "gb":
		return ModelDMG, nil
	case "cgb", "gbc":
		return ModelCGB, nil
	}
	return ModelAuto, fmt.Errorf("unknown model %q", s)
}

// Config holds the console settings.
type Config struct {
	Model   Model
	SaveDir string
	Tracer  cpu.Tracer
	Clock   memory.Clock
	Serial  []serial.LogSinkOption
}

// Option configures a Console.
type Option func(*Config)

// WithModel forces the emulated hardware.
func WithModel(m Model) Option {
	return func(c *Config) { c.Model = m }
}

// WithSaveDir stores battery saves in dir instead of next to the ROM.
func WithSaveDir(dir string) Option {
	return func(c *Config) { c.SaveDir = dir }
}

// WithTracer installs a CPU opcode tracer.
func WithTracer(t cpu.Tracer) Option {
	return func(c *Config) { c.Tracer = t }
}

// WithClock sets the wall clock used by the cartridge RTC.
func WithClock(clock memory.Clock) Option {
	return func(c *Config) { c.Clock = clock }
}

// WithSerial passes options to the serial port.
func WithSerial(opts ...serial.LogSinkOption) Option {
	return func(c *Config) { c.Serial = append(c.Serial, opts...) }
}

func newConfig(opts []Option) Config {
	cfg := Config{Clock: memory.SystemClock}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// resolve decides between DMG and CGB for the cartridge.
func (c Config) resolve(h memory.Header) bool {
	switch c.Model {
	case ModelDMG:
		if h.CGBOnly() {
			slog.Warn("cartridge is CGB only, running it on DMG anyway", "title", h.Title)
		}
		return false
	case ModelCGB:
		return true
	}
	return h.CGB()
}

// bootRegisters returns the register file the boot ROM leaves behind.
func bootRegisters(cgb bool) cpu.Registers {
	if cgb {
		return cpu.Registers{AF: 0x1180, BC: 0x0000, DE: 0xFF56, HL: 0x000D, SP: 0xFFFE, PC: 0x0100}
	}
	return cpu.Registers{AF: 0x01B0, BC: 0x0013, DE: 0x00D8, HL: 0x014D, SP: 0xFFFE, PC: 0x0100}
}
