// Package player streams APU samples to the sound card. Playback needs the
// `oto` build tag; without it New returns ErrUnavailable.
package player

import (
	"encoding/binary"
	"errors"
	"sync"
)

// ErrUnavailable is returned when the binary was built without audio output.
var ErrUnavailable = errors.New("audio output not available (build with -tags oto)")

// ring is a bounded FIFO of int16 samples shared between the emulation
// goroutine (writer) and the audio driver (reader). Writes drop the oldest
// samples when full, reads pad with silence when empty.
type ring struct {
	mu   sync.Mutex
	data []int16
	head int
	size int
}

func newRing(capacity int) *ring {
	return &ring{data: make([]int16, capacity)}
}

func (r *ring) write(samples []int16) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range samples {
		if r.size == len(r.data) {
			r.head = (r.head + 1) % len(r.data)
			r.size--
		}
		r.data[(r.head+r.size)%len(r.data)] = s
		r.size++
	}
}

// readBytes fills p with little endian samples.
func (r *ring) readBytes(p []byte) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(p) / 2
	for i := 0; i < n; i++ {
		var s int16
		if r.size > 0 {
			s = r.data[r.head]
			r.head = (r.head + 1) % len(r.data)
			r.size--
		}
		binary.LittleEndian.PutUint16(p[i*2:], uint16(s))
	}
	return n * 2
}

func (r *ring) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}
