//go:build !oto

package player

import (
	"time"

	"github.com/valerio/jeebie-cycle/jeebie/audio"
)

// Player is a placeholder used when audio output is not compiled in.
type Player struct{}

var _ audio.Sink = (*Player)(nil)

func New(time.Duration) (*Player, error) {
	return nil, ErrUnavailable
}

func (p *Player) WriteSamples([]int16) error { return nil }

func (p *Player) Close() error { return nil }
