package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/valerio/jeebie-cycle/jeebie/addr"
)

func TestJoypad(t *testing.T) {
	tests := []struct {
		name   string
		sel    uint8
		press  []JoypadKey
		expect uint8
	}{
		{"nothing selected", 0x30, []JoypadKey{JoypadA, JoypadDown}, 0xFF},
		{"dpad selected", 0x20, []JoypadKey{JoypadDown, JoypadA}, 0xE7},
		{"buttons selected", 0x10, []JoypadKey{JoypadDown, JoypadA}, 0xDE},
		{"both selected", 0x00, []JoypadKey{JoypadRight, JoypadStart}, 0xC6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New(false)
			j := NewJoypad(b)
			for _, k := range tt.press {
				j.Press(k)
			}
			b.Write(addr.P1, tt.sel)
			j.Tick()
			assert.Equal(t, tt.expect, b.Read(addr.P1))
		})
	}
}

func TestJoypadInterrupt(t *testing.T) {
	b := New(false)
	j := NewJoypad(b)
	requested := func() bool {
		_, iflag := b.Interrupts()
		return iflag&uint8(addr.JoypadInterrupt) != 0
	}

	j.Press(JoypadStart)
	assert.True(t, requested())
	assert.True(t, j.Pressed(JoypadStart))

	b.AckInterrupt(addr.JoypadInterrupt)
	j.Press(JoypadStart)
	assert.False(t, requested(), "holding a key does not retrigger")

	j.Release(JoypadStart)
	assert.False(t, j.Pressed(JoypadStart))
	assert.False(t, requested())
}
