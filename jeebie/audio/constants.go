package audio

// Timing constants
// Reference: https://gbdev.io/pandocs/Audio_details.html
const (
	// ClockRate is the number of t-cycles per second at normal speed.
	ClockRate = 4194304

	// SampleRate is the output rate of the mixer, in stereo frames per second.
	SampleRate = 44100

	// cyclesPerStep is the number of CPU cycles per frame sequencer tick.
	// The frame sequencer runs at 512 Hz: 4194304 Hz / 512 Hz = 8192 t-cycles
	cyclesPerStep = 8192
)

// Channel constants
const (
	// waveRAMSize is the size of wave pattern RAM in bytes (16 bytes = 32 nibbles)
	waveRAMSize = 16

	pulseLength = 64
	waveLength  = 256

	lfsrInitialValue = 0x7FFF

	triggerBit       = 7
	lengthEnableBit  = 6
	envelopeUpBit    = 3
	sweepNegateBit   = 3
	waveDACBit       = 7
	noiseWidthBit    = 3
	powerBit         = 7
	maxPeriod        = 2047
	maxVolume        = 15
	sweepDefaultPace = 8
)

// Buffer constants
const (
	// maxBufferSize bounds the sample buffer when nobody drains it
	// (about half a second of stereo samples).
	maxBufferSize = SampleRate
	// bufferRetainSize is what is kept when the buffer overflows.
	bufferRetainSize = SampleRate / 4
)

// dutyPatterns holds the 8 step waveforms for duty 12.5%, 25%, 50% and 75%.
var dutyPatterns = [4]uint8{
	0b00000001,
	0b10000001,
	0b10000111,
	0b01111110,
}

// noiseDivisors maps NR43 bits 0-2 to the noise timer divisor.
var noiseDivisors = [8]int{8, 16, 32, 48, 64, 80, 96, 112}

// waveVolumeShift maps NR32 bits 5-6 to the right shift applied to wave samples.
var waveVolumeShift = [4]uint8{4, 0, 1, 2}
