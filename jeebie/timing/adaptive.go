package timing

import (
	"log/slog"
	"time"
)

const (
	spinThreshold = 2 * time.Millisecond
	resyncAfter   = 5 * time.Millisecond
	reportEvery   = 60
)

// AdaptiveLimiter sleeps for most of the frame and spins for the last
// stretch. When the emulator falls behind by more than resyncAfter the
// schedule restarts from now instead of trying to catch up.
type AdaptiveLimiter struct {
	target   time.Duration
	next     time.Time
	frames   int64
	late     int64
	windowAt time.Time
}

func NewAdaptiveLimiter() *AdaptiveLimiter {
	now := time.Now()
	return &AdaptiveLimiter{
		target:   FrameDuration(),
		next:     now,
		windowAt: now,
	}
}

func (a *AdaptiveLimiter) WaitForNextFrame() {
	now := time.Now()
	wait := a.next.Sub(now)

	switch {
	case wait >= spinThreshold:
		time.Sleep(wait - time.Millisecond)
		spinUntil(a.next)
	case wait > 0:
		spinUntil(a.next)
	case wait < -resyncAfter:
		a.next = now
		a.late++
	}

	a.next = a.next.Add(a.target)
	a.frames++

	if a.frames%reportEvery == 0 {
		now = time.Now()
		fps := float64(reportEvery) / now.Sub(a.windowAt).Seconds()
		a.windowAt = now
		if drift := now.Sub(a.next.Add(-a.target)); drift.Abs() > 10*time.Millisecond {
			a.next = a.next.Add(drift / 10)
			slog.Debug("Frame timing drift", "drift_ms", drift.Milliseconds(), "fps", fps, "late", a.late)
		}
	}
}

// Late returns how many frames missed their deadline badly enough to
// restart the schedule.
func (a *AdaptiveLimiter) Late() int64 { return a.late }

func (a *AdaptiveLimiter) Reset() {
	now := time.Now()
	a.next = now
	a.windowAt = now
	a.frames = 0
	a.late = 0
}

func spinUntil(deadline time.Time) {
	for time.Now().Before(deadline) {
	}
}
