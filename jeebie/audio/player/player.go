//go:build oto

package player

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/valerio/jeebie-cycle/jeebie/audio"
)

// Player implements audio.Sink on top of oto.
type Player struct {
	ctx    *oto.Context
	player *oto.Player
	buf    *ring
}

var _ audio.Sink = (*Player)(nil)

// New opens the default audio device. latency bounds how much audio is
// buffered ahead of the driver.
func New(latency time.Duration) (*Player, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   audio.SampleRate,
		ChannelCount: 2,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   latency,
	})
	if err != nil {
		return nil, fmt.Errorf("player: %w", err)
	}
	<-ready

	p := &Player{
		ctx: ctx,
		buf: newRing(int(latency.Seconds()*audio.SampleRate)*2*4 + 2),
	}
	p.player = ctx.NewPlayer(p)
	p.player.Play()
	slog.Info("Audio output started", "rate", audio.SampleRate, "latency", latency)
	return p, nil
}

// Read implements io.Reader for the oto player.
func (p *Player) Read(b []byte) (int, error) {
	return p.buf.readBytes(b), nil
}

// WriteSamples queues interleaved stereo samples for playback.
func (p *Player) WriteSamples(samples []int16) error {
	p.buf.write(samples)
	return nil
}

func (p *Player) Close() error {
	return p.player.Close()
}
