package memory

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/valerio/jeebie-cycle/jeebie/addr"
)

func newTestTimer(tac uint8) (*Bus, *Timer) {
	b := New(false)
	t := NewTimer(b)
	b.Write(addr.TAC, tac)
	t.SetSeed(0)
	return b, t
}

func timerRequested(b *Bus) bool {
	_, iflag := b.Interrupts()
	return iflag&uint8(addr.TimerInterrupt) != 0
}

func TestTimerFrequencies(t *testing.T) {
	tests := []struct {
		tac   uint8
		ticks int // M-cycles per TIMA increment
	}{
		{0x04, 256},
		{0x05, 4},
		{0x06, 16},
		{0x07, 64},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("TAC %02X", tt.tac), func(t *testing.T) {
			b, timer := newTestTimer(tt.tac)
			for i := 0; i < tt.ticks*3; i++ {
				timer.Tick()
			}
			assert.Equal(t, uint8(3), b.Read(addr.TIMA))
		})
	}
}

func TestTimerDisabled(t *testing.T) {
	b, timer := newTestTimer(0x01)
	for i := 0; i < 1000; i++ {
		timer.Tick()
	}
	assert.Equal(t, uint8(0), b.Read(addr.TIMA))
}

func TestDIV(t *testing.T) {
	b, timer := newTestTimer(0x00)
	for i := 0; i < 64; i++ {
		timer.Tick()
	}
	assert.Equal(t, uint8(1), b.Read(addr.DIV))

	b.Write(addr.DIV, 0x55)
	timer.Tick()
	assert.Equal(t, uint8(0), b.Read(addr.DIV))
	assert.Equal(t, uint16(4), timer.Counter())
}

func TestTimerOverflow(t *testing.T) {
	setup := func() (*Bus, *Timer) {
		b, timer := newTestTimer(0x05)
		b.Write(addr.TMA, 0x42)
		b.Write(addr.TIMA, 0xFF)
		b.AckInterrupt(addr.TimerInterrupt)
		for i := 0; i < 4; i++ {
			timer.Tick()
		}
		return b, timer
	}

	t.Run("reload is delayed by one tick", func(t *testing.T) {
		b, timer := setup()
		assert.Equal(t, uint8(0x00), b.Read(addr.TIMA))
		assert.False(t, timerRequested(b))

		timer.Tick()
		assert.Equal(t, uint8(0x42), b.Read(addr.TIMA))
		assert.True(t, timerRequested(b))
	})

	t.Run("TIMA write cancels the reload", func(t *testing.T) {
		b, timer := setup()
		b.Write(addr.TIMA, 0x10)

		timer.Tick()
		assert.Equal(t, uint8(0x10), b.Read(addr.TIMA))
		assert.False(t, timerRequested(b))
	})
}

func TestTimerSnapshot(t *testing.T) {
	_, timer := newTestTimer(0x05)
	for i := 0; i < 10; i++ {
		timer.Tick()
	}
	s := timer.Snapshot()
	timer.Tick()
	timer.Restore(s)
	assert.Equal(t, s, timer.Snapshot())
}
