package audio

// Channel holds the state shared by all four sound channels. Fields that
// only apply to some channels are left at zero by the others.
type Channel struct {
	Enabled    bool
	DACEnabled bool

	// Length counter
	Length        uint16
	LengthEnabled bool

	// Envelope (ch1, ch2, ch4)
	Volume        uint8
	EnvelopePace  uint8
	EnvelopeTimer uint8
	EnvelopeUp    bool

	// Frequency timer, counts t-cycles down to the next waveform step.
	Timer int

	// Pulse channels (ch1, ch2)
	DutyStep uint8

	// Wave channel (ch3)
	WavePosition uint8
	WaveSample   uint8
}

// clockLength is run at 256 Hz.
func (c *Channel) clockLength() {
	if !c.LengthEnabled || c.Length == 0 {
		return
	}
	c.Length--
	if c.Length == 0 {
		c.Enabled = false
	}
}

// clockEnvelope is run at 64 Hz.
func (c *Channel) clockEnvelope() {
	if c.EnvelopePace == 0 {
		return
	}
	if c.EnvelopeTimer > 0 {
		c.EnvelopeTimer--
	}
	if c.EnvelopeTimer != 0 {
		return
	}
	c.EnvelopeTimer = c.EnvelopePace
	switch {
	case c.EnvelopeUp && c.Volume < maxVolume:
		c.Volume++
	case !c.EnvelopeUp && c.Volume > 0:
		c.Volume--
	}
}

// loadEnvelope reads an NRx2 value on trigger.
func (c *Channel) loadEnvelope(nrx2 uint8) {
	c.Volume = nrx2 >> 4
	c.EnvelopeUp = nrx2&(1<<envelopeUpBit) != 0
	c.EnvelopePace = nrx2 & 0x07
	c.EnvelopeTimer = c.EnvelopePace
}

// trigger restarts the channel, reloading an expired length counter.
func (c *Channel) trigger(maxLength uint16) {
	c.Enabled = c.DACEnabled
	if c.Length == 0 {
		c.Length = maxLength
	}
}

// dac converts a 4 bit digital output to an analog level in [-1, 1].
// A disabled DAC outputs silence.
func (c *Channel) dac(digital uint8) float32 {
	if !c.DACEnabled {
		return 0
	}
	return float32(digital)/7.5 - 1
}

func pulsePeriod(period uint16) int {
	return int(2048-period) * 4
}

func wavePeriod(period uint16) int {
	return int(2048-period) * 2
}

func noisePeriod(nr43 uint8) int {
	return noiseDivisors[nr43&0x07] << (nr43 >> 4)
}

// stepLFSR advances the noise shift register once.
func stepLFSR(lfsr uint16, short bool) uint16 {
	feedback := (lfsr ^ lfsr>>1) & 1
	lfsr = lfsr>>1 | feedback<<14
	if short {
		lfsr = lfsr&^(1<<6) | feedback<<6
	}
	return lfsr
}
