package headless_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/jeebie-cycle/jeebie/backend"
	"github.com/valerio/jeebie-cycle/jeebie/backend/headless"
	"github.com/valerio/jeebie-cycle/jeebie/input/action"
	"github.com/valerio/jeebie-cycle/jeebie/input/event"
	"github.com/valerio/jeebie-cycle/jeebie/video"
)

func TestHeadlessBackend(t *testing.T) {
	t.Run("normal operation", func(t *testing.T) {
		h := headless.New(3, headless.SnapshotConfig{})
		require.NoError(t, h.Init(backend.BackendConfig{Title: "Test"}))

		frame := video.NewFrameBuffer()
		for i := 0; i < 3; i++ {
			events, err := h.Update(frame)
			require.NoError(t, err)

			if i < 2 {
				assert.Empty(t, events)
			} else {
				require.Len(t, events, 1)
				assert.Equal(t, action.EmulatorQuit, events[0].Action)
				assert.Equal(t, event.Press, events[0].Type)
			}
		}
		assert.NoError(t, h.Cleanup())
	})

	t.Run("rejects an empty frame budget", func(t *testing.T) {
		h := headless.New(0, headless.SnapshotConfig{})
		assert.Error(t, h.Init(backend.BackendConfig{}))
	})
}

func TestHeadlessSnapshots(t *testing.T) {
	dir := t.TempDir()
	cfg, err := headless.CreateSnapshotConfig(2, dir, filepath.Join("roms", "tetris.gb"))
	require.NoError(t, err)
	assert.Equal(t, "tetris", cfg.ROMName)
	assert.True(t, cfg.Enabled)

	h := headless.New(5, cfg)
	require.NoError(t, h.Init(backend.BackendConfig{Title: "Test"}))

	frame := video.NewFrameBuffer()
	for i := 0; i < 5; i++ {
		_, err := h.Update(frame)
		require.NoError(t, err)
	}

	// frames 2 and 4, plus the final frame
	require.Len(t, h.Snapshots(), 3)
	for _, path := range h.Snapshots() {
		assert.Equal(t, dir, filepath.Dir(path))
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
}

func TestCreateSnapshotConfigDisabled(t *testing.T) {
	cfg, err := headless.CreateSnapshotConfig(0, "", "game.gb")
	require.NoError(t, err)
	assert.False(t, cfg.Enabled)
	assert.Empty(t, cfg.Directory)
}

func TestHeadlessImplementsBackend(t *testing.T) {
	var _ backend.Backend = (*headless.Backend)(nil)
}

func TestDigest(t *testing.T) {
	a := video.NewFrameBuffer()
	b := video.NewFrameBuffer()
	assert.Equal(t, headless.Digest(a), headless.Digest(b))
	assert.Len(t, headless.Digest(a), 32)

	b.SetPixel(10, 10, video.BlackColor)
	b.Swap()
	assert.NotEqual(t, headless.Digest(a), headless.Digest(b))

	h := headless.New(1, headless.SnapshotConfig{})
	require.NoError(t, h.Init(backend.BackendConfig{}))
	assert.Empty(t, h.FinalDigest())
	_, err := h.Update(b)
	require.NoError(t, err)
	assert.Equal(t, headless.Digest(b), h.FinalDigest())
}
