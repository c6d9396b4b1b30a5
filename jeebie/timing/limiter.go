package timing

import (
	"fmt"
	"time"

	"github.com/valerio/jeebie-cycle/jeebie/video"
)

// Limiter controls frame rate timing for emulation.
type Limiter interface {
	// WaitForNextFrame blocks until it's time for the next frame.
	// Returns immediately if timing is behind schedule.
	WaitForNextFrame()

	// Reset resets the timing state, useful after pauses.
	Reset()
}

// NewNoOpLimiter returns a limiter that doesn't limit (for headless mode).
func NewNoOpLimiter() Limiter {
	return &noOpLimiter{}
}

type noOpLimiter struct{}

func (n *noOpLimiter) WaitForNextFrame() {}
func (n *noOpLimiter) Reset()            {}

// New returns the limiter with the given name: adaptive, ticker or none.
func New(name string) (Limiter, error) {
	switch name {
	case "", "adaptive":
		return NewAdaptiveLimiter(), nil
	case "ticker":
		return NewTickerLimiter(), nil
	case "none", "off":
		return NewNoOpLimiter(), nil
	}
	return nil, fmt.Errorf("unknown frame limiter %q", name)
}

// DotFrequency is the dot clock, CGB double speed does not change it.
const DotFrequency = 4194304

// TargetFPS calculates the exact Game Boy frame rate.
func TargetFPS() float64 {
	return float64(DotFrequency) / float64(video.DotsPerFrame)
}

// FrameDuration returns the target duration of a single frame.
func FrameDuration() time.Duration {
	return time.Duration(float64(time.Second) / TargetFPS())
}
