package player

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRing(t *testing.T) {
	r := newRing(4)
	r.write([]int16{1, 2, 3})
	assert.Equal(t, 3, r.len())

	r.write([]int16{4, 5})
	assert.Equal(t, 4, r.len(), "oldest sample dropped")

	out := make([]byte, 12)
	assert.Equal(t, 12, r.readBytes(out))

	var got []int16
	for i := 0; i < len(out); i += 2 {
		got = append(got, int16(binary.LittleEndian.Uint16(out[i:])))
	}
	assert.Equal(t, []int16{2, 3, 4, 5, 0, 0}, got, "padded with silence")
	assert.Zero(t, r.len())
}

func TestRingNegativeSamples(t *testing.T) {
	r := newRing(2)
	r.write([]int16{-2})
	out := make([]byte, 2)
	r.readBytes(out)
	assert.Equal(t, []byte{0xFE, 0xFF}, out)
}
