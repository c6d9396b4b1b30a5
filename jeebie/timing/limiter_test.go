package timing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameDuration(t *testing.T) {
	assert.InDelta(t, 59.7275, TargetFPS(), 0.001)
	assert.InDelta(t, float64(16742706*time.Nanosecond), float64(FrameDuration()), float64(time.Microsecond))
}

func TestNew(t *testing.T) {
	testCases := []struct {
		name string
		want any
	}{
		{name: "", want: &AdaptiveLimiter{}},
		{name: "adaptive", want: &AdaptiveLimiter{}},
		{name: "ticker", want: &TickerLimiter{}},
		{name: "none", want: &noOpLimiter{}},
	}
	for _, tC := range testCases {
		t.Run(tC.name, func(t *testing.T) {
			l, err := New(tC.name)
			require.NoError(t, err)
			assert.IsType(t, tC.want, l)
			if tl, ok := l.(*TickerLimiter); ok {
				tl.Stop()
			}
		})
	}

	_, err := New("turbo")
	assert.Error(t, err)
}

func TestAdaptiveLimiterPaces(t *testing.T) {
	start := time.Now()
	l := NewAdaptiveLimiter()
	for i := 0; i < 3; i++ {
		l.WaitForNextFrame()
	}
	// the first frame is due immediately
	assert.GreaterOrEqual(t, time.Since(start), 2*FrameDuration())
}

func TestAdaptiveLimiterResyncs(t *testing.T) {
	l := NewAdaptiveLimiter()
	l.next = time.Now().Add(-time.Second)
	start := time.Now()
	l.WaitForNextFrame()
	assert.Less(t, time.Since(start), FrameDuration(), "a late frame does not wait")
	assert.Equal(t, int64(1), l.Late())

	l.Reset()
	assert.Zero(t, l.Late())
}
