package headless

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/valerio/jeebie-cycle/jeebie/backend"
	"github.com/valerio/jeebie-cycle/jeebie/debug"
	"github.com/valerio/jeebie-cycle/jeebie/input/action"
	"github.com/valerio/jeebie-cycle/jeebie/input/event"
	"github.com/valerio/jeebie-cycle/jeebie/video"
)

const progressEvery = 60

// Backend runs a fixed number of frames without any output besides logs
// and optional PNG snapshots. It asks the run loop to quit when the budget
// is spent.
type Backend struct {
	config    backend.BackendConfig
	frames    int
	budget    int
	snapshots SnapshotConfig
	saved     []string
	digest    string
}

// SnapshotConfig controls periodic PNG snapshots.
type SnapshotConfig struct {
	Enabled   bool
	Interval  int    // frames between snapshots
	Directory string
	ROMName   string // file name prefix
}

func New(maxFrames int, snapshots SnapshotConfig) *Backend {
	return &Backend{budget: maxFrames, snapshots: snapshots}
}

func (h *Backend) Init(config backend.BackendConfig) error {
	if h.budget <= 0 {
		return fmt.Errorf("headless: frame count must be positive, got %d", h.budget)
	}
	h.config = config
	slog.Info("Running headless",
		"title", config.Title,
		"frames", h.budget,
		"snapshot_interval", h.snapshots.Interval,
		"snapshot_dir", h.snapshots.Directory)
	return nil
}

func (h *Backend) Update(frame *video.FrameBuffer) ([]backend.InputEvent, error) {
	h.frames++
	due := h.snapshots.Enabled && h.frames%h.snapshots.Interval == 0
	if due {
		h.snapshot(frame)
	}
	if h.frames%progressEvery == 0 {
		slog.Debug("Frame progress", "completed", h.frames, "total", h.budget)
	}
	if h.frames < h.budget {
		return nil, nil
	}

	// the last frame is always kept
	if h.snapshots.Enabled && !due {
		h.snapshot(frame)
	}
	h.digest = Digest(frame)
	slog.Info("Headless run completed", "frames", h.frames, "digest", h.digest, "snapshots", len(h.saved))
	return []backend.InputEvent{{Action: action.EmulatorQuit, Type: event.Press}}, nil
}

func (h *Backend) Cleanup() error {
	return nil
}

// Snapshots returns the paths of the PNG files written so far.
func (h *Backend) Snapshots() []string {
	return h.saved
}

// FinalDigest is the Digest of the last frame, empty until the budget is
// spent.
func (h *Backend) FinalDigest() string {
	return h.digest
}

// Digest hashes the frame's pixels. Two runs of the same ROM for the same
// number of frames produce the same digest.
func Digest(frame *video.FrameBuffer) string {
	sum := md5.New()
	buf := make([]byte, 4)
	for _, px := range frame.ToSlice() {
		buf[0], buf[1], buf[2], buf[3] = byte(px>>24), byte(px>>16), byte(px>>8), byte(px)
		sum.Write(buf)
	}
	return hex.EncodeToString(sum.Sum(nil))
}

// CreateSnapshotConfig builds the snapshot settings from command line
// values. An empty directory means a fresh temporary one.
func CreateSnapshotConfig(interval int, directory, romPath string) (SnapshotConfig, error) {
	if interval <= 0 {
		return SnapshotConfig{}, nil
	}

	var err error
	if directory == "" {
		directory, err = os.MkdirTemp("", "jeebie-snapshots-*")
	} else {
		err = os.MkdirAll(directory, 0o755)
	}
	if err != nil {
		return SnapshotConfig{}, fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	name := filepath.Base(romPath)
	return SnapshotConfig{
		Enabled:   true,
		Interval:  interval,
		Directory: directory,
		ROMName:   strings.TrimSuffix(name, filepath.Ext(name)),
	}, nil
}

func (h *Backend) snapshot(frame *video.FrameBuffer) {
	base := fmt.Sprintf("%s_frame_%d", h.snapshots.ROMName, h.frames)
	path, err := debug.SaveFramePNGToDir(frame, base, h.snapshots.Directory)
	if err != nil {
		slog.Error("Failed to save PNG snapshot", "frame", h.frames, "error", err)
		return
	}
	h.saved = append(h.saved, path)
}
