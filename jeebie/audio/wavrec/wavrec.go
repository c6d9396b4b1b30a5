// Package wavrec records the APU output to a 16 bit stereo WAV file.
// Samples are streamed to disk as they arrive; the header is finalized on Close.
package wavrec

import (
	"fmt"
	"log/slog"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/valerio/jeebie-cycle/jeebie/audio"
)

const (
	bitDepth   = 16
	channels   = 2
	pcmFormat  = 1
	bufferSize = 4096
)

// Recorder implements audio.Sink.
type Recorder struct {
	path    string
	file    *os.File
	enc     *wav.Encoder
	buf     *goaudio.IntBuffer
	samples int
}

var _ audio.Sink = (*Recorder)(nil)

// New creates the WAV file at path.
func New(path string) (*Recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("wavrec: %w", err)
	}

	slog.Info("Recording audio", "path", path)
	return &Recorder{
		path: path,
		file: f,
		enc:  wav.NewEncoder(f, audio.SampleRate, bitDepth, channels, pcmFormat),
		buf: &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: channels, SampleRate: audio.SampleRate},
			Data:           make([]int, 0, bufferSize),
			SourceBitDepth: bitDepth,
		},
	}, nil
}

// WriteSamples appends interleaved stereo samples.
func (r *Recorder) WriteSamples(samples []int16) error {
	if len(samples) == 0 {
		return nil
	}
	r.buf.Data = r.buf.Data[:0]
	for _, s := range samples {
		r.buf.Data = append(r.buf.Data, int(s))
	}
	if err := r.enc.Write(r.buf); err != nil {
		return fmt.Errorf("wavrec: %w", err)
	}
	r.samples += len(samples)
	return nil
}

// Close finalizes the WAV header and closes the file.
func (r *Recorder) Close() (rerr error) {
	defer func() {
		if err := r.file.Close(); err != nil && rerr == nil {
			rerr = fmt.Errorf("wavrec: %w", err)
		}
	}()

	if err := r.enc.Close(); err != nil {
		return fmt.Errorf("wavrec: %w", err)
	}
	slog.Info("Audio recording written", "path", r.path, "frames", r.samples/channels)
	return nil
}
