package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli"
	"golang.org/x/term"

	"github.com/valerio/jeebie-cycle/jeebie"
	"github.com/valerio/jeebie-cycle/jeebie/audio/player"
	"github.com/valerio/jeebie-cycle/jeebie/audio/wavrec"
	"github.com/valerio/jeebie-cycle/jeebie/backend"
	"github.com/valerio/jeebie-cycle/jeebie/backend/headless"
	"github.com/valerio/jeebie-cycle/jeebie/backend/terminal"
	"github.com/valerio/jeebie-cycle/jeebie/cpu"
	"github.com/valerio/jeebie-cycle/jeebie/debug"
	"github.com/valerio/jeebie-cycle/jeebie/statsview"
	"github.com/valerio/jeebie-cycle/jeebie/timing"
)

func main() {
	app := cli.NewApp()
	app.Name = "Jeebie"
	app.Description = "A cycle accurate Game Boy and Game Boy Color emulator"
	app.Usage = "jeebie [options] <ROM file>"
	app.Version = "2.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "rom",
			Usage: "Path to the ROM file",
		},
		cli.StringFlag{
			Name:  "model",
			Usage: "Hardware to emulate: auto, dmg or cgb",
			Value: "auto",
		},
		cli.BoolFlag{
			Name:  "headless",
			Usage: "Run the emulator without a graphical interface",
		},
		cli.IntFlag{
			Name:  "frames",
			Usage: "Number of frames to run in headless mode (required for headless)",
		},
		cli.IntFlag{
			Name:  "snapshot-interval",
			Usage: "Save frame snapshots every N frames in headless mode (0 = disabled)",
		},
		cli.StringFlag{
			Name:  "snapshot-dir",
			Usage: "Directory to save frame snapshots (default: temp directory)",
		},
		cli.StringFlag{
			Name:  "save-dir",
			Usage: "Directory for battery saves and savestates (default: next to the ROM)",
		},
		cli.StringFlag{
			Name:  "load-state",
			Usage: "Savestate file to restore before running",
		},
		cli.StringFlag{
			Name:  "save-state",
			Usage: "Savestate file to write on exit",
		},
		cli.StringSliceFlag{
			Name:  "break",
			Usage: "Pause when PC reaches this hex address (repeatable)",
		},
		cli.BoolFlag{
			Name:  "paused",
			Usage: "Start with emulation paused",
		},
		cli.BoolFlag{
			Name:  "audio",
			Usage: "Play sound (needs a build with -tags oto)",
		},
		cli.StringFlag{
			Name:  "record-wav",
			Usage: "Record the audio output to a WAV file",
		},
		cli.BoolFlag{
			Name:  "trace",
			Usage: "Log every executed instruction at debug level",
		},
		cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn or error",
			Value: "info",
		},
		cli.StringFlag{
			Name:  "limiter",
			Usage: "Frame pacing: adaptive, ticker or none (default: none when headless)",
		},
		cli.StringFlag{
			Name:  "statsview",
			Usage: "Serve runtime charts on this address (needs a build with -tags statsview)",
		},
	}
	app.Action = runEmulator

	if err := app.Run(os.Args); err != nil {
		slog.Error("Error running emulator", "error", err)
		os.Exit(1)
	}
}

func runEmulator(c *cli.Context) error {
	level := new(slog.LevelVar)
	if err := level.UnmarshalText([]byte(c.String("log-level"))); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	romPath := c.String("rom")
	if romPath == "" {
		if c.NArg() == 0 {
			cli.ShowAppHelp(c)
			return errors.New("no ROM path provided")
		}
		romPath = c.Args().First()
	}

	headlessMode := c.Bool("headless")
	if !headlessMode && !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("stdout is not a terminal, use --headless")
	}

	model, err := jeebie.ParseModel(c.String("model"))
	if err != nil {
		return err
	}
	opts := []jeebie.Option{
		jeebie.WithModel(model),
		jeebie.WithSaveDir(c.String("save-dir")),
	}
	if c.Bool("trace") {
		opts = append(opts, jeebie.WithTracer(cpu.NewLogTracer(nil)))
	}

	emu, err := jeebie.NewWithFile(romPath, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if err := emu.Eject(); err != nil {
			slog.Error("Failed to write battery save", "error", err)
		}
	}()

	if path := c.String("load-state"); path != "" {
		if err := emu.LoadStateFile(path); err != nil {
			return err
		}
	}
	for _, s := range c.StringSlice("break") {
		pc, err := parseAddress(s)
		if err != nil {
			return err
		}
		emu.Schedule(debug.AtAddress(pc))
	}
	if c.Bool("paused") {
		emu.Pause()
	}

	if addr := c.String("statsview"); addr != "" {
		statsview.Launch(addr)
	}

	var runnerOpts []backend.RunnerOption
	limiterName := c.String("limiter")
	if limiterName == "" && headlessMode {
		limiterName = "none"
	}
	limiter, err := timing.New(limiterName)
	if err != nil {
		return err
	}
	if t, ok := limiter.(*timing.TickerLimiter); ok {
		defer t.Stop()
	}
	runnerOpts = append(runnerOpts, backend.WithLimiter(limiter), backend.WithLogLevel(level))

	if path := c.String("record-wav"); path != "" {
		rec, err := wavrec.New(path)
		if err != nil {
			return err
		}
		defer func() {
			if err := rec.Close(); err != nil {
				slog.Error("Failed to finish WAV recording", "path", path, "error", err)
			}
		}()
		runnerOpts = append(runnerOpts, backend.WithAudioSink(rec))
	}
	if c.Bool("audio") {
		p, err := player.New(50 * time.Millisecond)
		switch {
		case errors.Is(err, player.ErrUnavailable):
			slog.Warn("Audio output not compiled in, running silent")
		case err != nil:
			return err
		default:
			defer p.Close()
			runnerOpts = append(runnerOpts, backend.WithAudioSink(p))
		}
	}

	var b backend.Backend
	if headlessMode {
		frames := c.Int("frames")
		if frames <= 0 {
			return errors.New("headless mode requires --frames option with a positive value")
		}
		snapshots, err := headless.CreateSnapshotConfig(c.Int("snapshot-interval"), c.String("snapshot-dir"), romPath)
		if err != nil {
			return err
		}
		b = headless.New(frames, snapshots)
	} else {
		b = terminal.New(level)
	}

	if err := b.Init(backend.BackendConfig{
		Title:         emu.Cartridge().Title,
		Scale:         1,
		ShowDebug:     !headlessMode,
		DebugProvider: emu,
	}); err != nil {
		return err
	}
	defer func() {
		if err := b.Cleanup(); err != nil {
			slog.Error("Backend cleanup failed", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := backend.NewRunner(emu, b, runnerOpts...)
	runErr := runner.Run(ctx)
	slog.Info("Emulation finished", "frames", runner.Frames(), "ticks", emu.Ticks())

	if path := c.String("save-state"); path != "" {
		if err := emu.SaveStateFile(path); err != nil {
			return errors.Join(runErr, err)
		}
	}
	return runErr
}

// parseAddress accepts 0x0150, $0150 or 0150.
func parseAddress(s string) (uint16, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(strings.ToLower(s), "0x"), "$")
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid breakpoint address %q: %w", s, err)
	}
	return uint16(v), nil
}
