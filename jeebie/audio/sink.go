package audio

// Sink consumes interleaved stereo samples at SampleRate.
type Sink interface {
	WriteSamples(samples []int16) error
}
