package audio

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/valerio/jeebie-cycle/jeebie/addr"
	"github.com/valerio/jeebie-cycle/jeebie/bit"
	"github.com/valerio/jeebie-cycle/jeebie/ioreg"
)

const (
	ch1 = iota
	ch2
	ch3
	ch4
)

// APU implements the Game Boy's Audio Processing Unit
// Reference: https://gbdev.io/pandocs/Audio.html
//
// Registers live in the I/O bank. CPU writes are picked up through the
// dirty flags at the start of every Tick, so the APU never needs a write hook.
type APU struct {
	nr10, nr11, nr12, nr13, nr14 *ioreg.Reg
	nr21, nr22, nr23, nr24       *ioreg.Reg
	nr30, nr31, nr32, nr33, nr34 *ioreg.Reg
	nr41, nr42, nr43, nr44       *ioreg.Reg
	nr50, nr51, nr52             *ioreg.Reg
	wave                         [waveRAMSize]*ioreg.Reg

	power bool
	ch    [4]Channel

	// Frame sequencer state
	// Runs at 512 Hz, advances every cyclesPerStep (8192) CPU cycles
	frameStep   int
	frameCycles int

	// Channel 1 sweep unit
	sweepTimer   uint8
	sweepShadow  uint16
	sweepEnabled bool

	// Channel 4 linear feedback shift register
	lfsr uint16

	// sampleAcc accumulates cycles*SampleRate, a sample is produced every
	// ClockRate units so the output rate is exact.
	sampleAcc int

	// sampleBufferMu protects the sample buffer, which is drained from the
	// audio output goroutine.
	sampleBufferMu sync.Mutex
	sampleBuffer   []int16

	// muted is a bitmask of channels muted from the debugger, set from the UI goroutine.
	muted atomic.Uint32
}

// New creates an APU bound to the audio registers of the bank.
func New(io *ioreg.Bank) *APU {
	a := &APU{
		nr10: io.Reg(addr.NR10), nr11: io.Reg(addr.NR11), nr12: io.Reg(addr.NR12), nr13: io.Reg(addr.NR13), nr14: io.Reg(addr.NR14),
		nr21: io.Reg(addr.NR21), nr22: io.Reg(addr.NR22), nr23: io.Reg(addr.NR23), nr24: io.Reg(addr.NR24),
		nr30: io.Reg(addr.NR30), nr31: io.Reg(addr.NR31), nr32: io.Reg(addr.NR32), nr33: io.Reg(addr.NR33), nr34: io.Reg(addr.NR34),
		nr41: io.Reg(addr.NR41), nr42: io.Reg(addr.NR42), nr43: io.Reg(addr.NR43), nr44: io.Reg(addr.NR44),
		nr50: io.Reg(addr.NR50), nr51: io.Reg(addr.NR51), nr52: io.Reg(addr.NR52),
		lfsr:         lfsrInitialValue,
		sampleBuffer: make([]int16, 0, maxBufferSize),
	}
	for i := range a.wave {
		a.wave[i] = io.Reg(addr.WaveRAMStart + uint16(i))
	}

	// pick up the post boot register state
	status := a.nr52.Get()
	a.power = bit.IsSet(powerBit, status)
	a.ch[ch1].DACEnabled = a.nr12.Get()&0xF8 != 0
	a.ch[ch2].DACEnabled = a.nr22.Get()&0xF8 != 0
	a.ch[ch3].DACEnabled = bit.IsSet(waveDACBit, a.nr30.Get())
	a.ch[ch4].DACEnabled = a.nr42.Get()&0xF8 != 0
	for i := range a.ch {
		a.ch[i].Enabled = a.ch[i].DACEnabled && bit.IsSet(uint8(i), status)
	}
	for _, r := range a.registers() {
		r.ClearDirty()
	}
	a.refreshStatus()
	return a
}

func (a *APU) registers() []*ioreg.Reg {
	return []*ioreg.Reg{
		a.nr10, a.nr11, a.nr12, a.nr13, a.nr14,
		a.nr21, a.nr22, a.nr23, a.nr24,
		a.nr30, a.nr31, a.nr32, a.nr33, a.nr34,
		a.nr41, a.nr42, a.nr43, a.nr44,
		a.nr50, a.nr51,
	}
}

// Tick advances the APU by the given number of t-cycles.
func (a *APU) Tick(cycles int) {
	a.observe()

	if a.power {
		a.frameCycles += cycles
		for a.frameCycles >= cyclesPerStep {
			a.frameCycles -= cyclesPerStep
			a.updateFrameSequencer()
		}
		a.clockChannels(cycles)
	}

	a.sampleAcc += cycles * SampleRate
	for a.sampleAcc >= ClockRate {
		a.sampleAcc -= ClockRate
		a.generateSample()
	}

	a.refreshStatus()
}

// observe applies CPU writes made since the last tick.
func (a *APU) observe() {
	if a.nr52.TakeDirty() {
		on := bit.IsSet(powerBit, a.nr52.Get())
		switch {
		case on && !a.power:
			a.powerOn()
		case !on && a.power:
			a.powerOff()
		}
	}

	// wave RAM is always accessible and read directly when playing
	for _, r := range a.wave {
		r.ClearDirty()
	}

	if !a.power {
		// registers are read only while powered off
		for _, r := range a.registers() {
			if r.TakeDirty() {
				r.Set(0)
			}
		}
		return
	}

	a.nr10.ClearDirty()
	a.nr13.ClearDirty()
	a.nr23.ClearDirty()
	a.nr32.ClearDirty()
	a.nr33.ClearDirty()
	a.nr43.ClearDirty()
	a.nr50.ClearDirty()
	a.nr51.ClearDirty()

	if a.nr11.TakeDirty() {
		a.ch[ch1].Length = pulseLength - uint16(a.nr11.Get()&0x3F)
	}
	if a.nr21.TakeDirty() {
		a.ch[ch2].Length = pulseLength - uint16(a.nr21.Get()&0x3F)
	}
	if a.nr31.TakeDirty() {
		a.ch[ch3].Length = waveLength - uint16(a.nr31.Get())
	}
	if a.nr41.TakeDirty() {
		a.ch[ch4].Length = pulseLength - uint16(a.nr41.Get()&0x3F)
	}

	if a.nr12.TakeDirty() {
		a.setDAC(ch1, a.nr12.Get()&0xF8 != 0)
	}
	if a.nr22.TakeDirty() {
		a.setDAC(ch2, a.nr22.Get()&0xF8 != 0)
	}
	if a.nr30.TakeDirty() {
		a.setDAC(ch3, bit.IsSet(waveDACBit, a.nr30.Get()))
	}
	if a.nr42.TakeDirty() {
		a.setDAC(ch4, a.nr42.Get()&0xF8 != 0)
	}

	if a.nr14.TakeDirty() {
		a.control(ch1, a.nr14.Get())
	}
	if a.nr24.TakeDirty() {
		a.control(ch2, a.nr24.Get())
	}
	if a.nr34.TakeDirty() {
		a.control(ch3, a.nr34.Get())
	}
	if a.nr44.TakeDirty() {
		a.control(ch4, a.nr44.Get())
	}
}

func (a *APU) setDAC(ch int, on bool) {
	a.ch[ch].DACEnabled = on
	if !on {
		a.ch[ch].Enabled = false
	}
}

// control handles a write to NRx4.
func (a *APU) control(ch int, value uint8) {
	c := &a.ch[ch]
	c.LengthEnabled = bit.IsSet(lengthEnableBit, value)
	if !bit.IsSet(triggerBit, value) {
		return
	}

	switch ch {
	case ch1:
		c.trigger(pulseLength)
		c.loadEnvelope(a.nr12.Get())
		c.Timer = pulsePeriod(a.period(ch1))
		a.triggerSweep()
	case ch2:
		c.trigger(pulseLength)
		c.loadEnvelope(a.nr22.Get())
		c.Timer = pulsePeriod(a.period(ch2))
	case ch3:
		c.trigger(waveLength)
		c.Timer = wavePeriod(a.period(ch3))
		c.WavePosition = 0
	case ch4:
		c.trigger(pulseLength)
		c.loadEnvelope(a.nr42.Get())
		c.Timer = noisePeriod(a.nr43.Get())
		a.lfsr = lfsrInitialValue
	}
}

// period returns the 11 bit period of channels 1-3.
func (a *APU) period(ch int) uint16 {
	var lo, hi *ioreg.Reg
	switch ch {
	case ch1:
		lo, hi = a.nr13, a.nr14
	case ch2:
		lo, hi = a.nr23, a.nr24
	default:
		lo, hi = a.nr33, a.nr34
	}
	return uint16(hi.Get()&0x07)<<8 | uint16(lo.Get())
}

func (a *APU) powerOn() {
	slog.Debug("APU power on")
	a.power = true
	a.frameStep = 0
	a.frameCycles = 0
}

// powerOff clears every register except wave RAM and stops all channels.
func (a *APU) powerOff() {
	slog.Debug("APU power off")
	a.power = false
	for _, r := range a.registers() {
		r.Set(0)
		r.ClearDirty()
	}
	a.ch = [4]Channel{}
	a.sweepEnabled = false
}

// updateFrameSequencer advances the frame sequencer which controls
// sweep, length counter, and envelope timing
// The frame sequencer has 8 steps (0-7) and runs at 512 Hz
// Frame sequencer step actions:
//
//	Step   Length  Sweep  Envelope
//	0      Clock   -      -
//	1      -       -      -
//	2      Clock   Clock  -
//	3      -       -      -
//	4      Clock   -      -
//	5      -       -      -
//	6      Clock   Clock  -
//	7      -       -      Clock
//
// Reference: https://gbdev.io/pandocs/Audio_details.html#frame-sequencer
func (a *APU) updateFrameSequencer() {
	switch a.frameStep {
	case 0, 4:
		a.updateLengthCounters() // 256 Hz (every 2 steps)
	case 2, 6:
		a.updateLengthCounters() // 256 Hz
		a.updateSweep()          // 128 Hz (every 4 steps)
	case 7:
		a.updateEnvelopes() // 64 Hz (every 8 steps)
	}
	a.frameStep = (a.frameStep + 1) & 7
}

func (a *APU) updateLengthCounters() {
	for i := range a.ch {
		a.ch[i].clockLength()
	}
}

func (a *APU) updateEnvelopes() {
	// Only channels 1, 2 and 4 have envelopes
	for _, i := range []int{ch1, ch2, ch4} {
		a.ch[i].clockEnvelope()
	}
}

func (a *APU) sweepPace() uint8  { return (a.nr10.Get() >> 4) & 0x07 }
func (a *APU) sweepShift() uint8 { return a.nr10.Get() & 0x07 }

func (a *APU) triggerSweep() {
	a.sweepShadow = a.period(ch1)
	a.sweepTimer = a.sweepPace()
	if a.sweepTimer == 0 {
		a.sweepTimer = sweepDefaultPace
	}
	a.sweepEnabled = a.sweepPace() != 0 || a.sweepShift() != 0
	if a.sweepShift() != 0 && a.nextSweepPeriod() > maxPeriod {
		a.ch[ch1].Enabled = false
	}
}

func (a *APU) nextSweepPeriod() uint16 {
	delta := a.sweepShadow >> a.sweepShift()
	if bit.IsSet(sweepNegateBit, a.nr10.Get()) {
		return a.sweepShadow - delta
	}
	return a.sweepShadow + delta
}

func (a *APU) updateSweep() {
	if a.sweepTimer > 0 {
		a.sweepTimer--
	}
	if a.sweepTimer != 0 {
		return
	}
	a.sweepTimer = a.sweepPace()
	if a.sweepTimer == 0 {
		a.sweepTimer = sweepDefaultPace
	}
	if !a.sweepEnabled || a.sweepPace() == 0 {
		return
	}

	next := a.nextSweepPeriod()
	if next > maxPeriod {
		a.ch[ch1].Enabled = false
		return
	}
	if a.sweepShift() == 0 {
		return
	}
	a.sweepShadow = next
	a.nr13.Set(uint8(next))
	a.nr14.Set(a.nr14.Get()&^0x07 | uint8(next>>8)&0x07)
	if a.nextSweepPeriod() > maxPeriod {
		a.ch[ch1].Enabled = false
	}
}

// clockChannels runs the frequency timers of all channels.
func (a *APU) clockChannels(cycles int) {
	for _, i := range []int{ch1, ch2} {
		c := &a.ch[i]
		c.Timer -= cycles
		for c.Timer <= 0 {
			c.Timer += pulsePeriod(a.period(i))
			c.DutyStep = (c.DutyStep + 1) & 7
		}
	}

	c := &a.ch[ch3]
	c.Timer -= cycles
	for c.Timer <= 0 {
		c.Timer += wavePeriod(a.period(ch3))
		c.WavePosition = (c.WavePosition + 1) & 31
		sample := a.wave[c.WavePosition/2].Get()
		if c.WavePosition&1 == 0 {
			sample >>= 4
		}
		c.WaveSample = sample & 0x0F
	}

	c = &a.ch[ch4]
	c.Timer -= cycles
	for c.Timer <= 0 {
		c.Timer += noisePeriod(a.nr43.Get())
		a.lfsr = stepLFSR(a.lfsr, bit.IsSet(noiseWidthBit, a.nr43.Get()))
	}
}

// digital returns the 4 bit output of a channel.
func (a *APU) digital(ch int) uint8 {
	c := &a.ch[ch]
	switch ch {
	case ch1, ch2:
		nrx1 := a.nr11
		if ch == ch2 {
			nrx1 = a.nr21
		}
		pattern := dutyPatterns[nrx1.Get()>>6]
		if (pattern>>(7-c.DutyStep))&1 == 1 {
			return c.Volume
		}
		return 0
	case ch3:
		return c.WaveSample >> waveVolumeShift[(a.nr32.Get()>>5)&0x03]
	default:
		if a.lfsr&1 == 0 {
			return c.Volume
		}
		return 0
	}
}

// mix returns the stereo output for the current channel state.
func (a *APU) mix() (left, right int16) {
	if !a.power {
		return 0, 0
	}

	muted := a.muted.Load()
	panning := a.nr51.Get()
	var l, r float32
	for i := range a.ch {
		if !a.ch[i].Enabled || muted&(1<<i) != 0 {
			continue
		}
		v := a.ch[i].dac(a.digital(i))
		if bit.IsSet(uint8(i+4), panning) {
			l += v
		}
		if bit.IsSet(uint8(i), panning) {
			r += v
		}
	}

	master := a.nr50.Get()
	l *= float32((master>>4)&0x07+1) / 8
	r *= float32(master&0x07+1) / 8
	return int16(l / 4 * 32767), int16(r / 4 * 32767)
}

func (a *APU) generateSample() {
	left, right := a.mix()

	a.sampleBufferMu.Lock()
	a.sampleBuffer = append(a.sampleBuffer, left, right)
	if len(a.sampleBuffer) > maxBufferSize {
		a.sampleBuffer = append(a.sampleBuffer[:0], a.sampleBuffer[len(a.sampleBuffer)-bufferRetainSize:]...)
	}
	a.sampleBufferMu.Unlock()
}

// refreshStatus mirrors power and channel activity into NR52.
func (a *APU) refreshStatus() {
	var status uint8
	if a.power {
		status = 1 << powerBit
	}
	for i := range a.ch {
		status = bit.SetTo(uint8(i), status, a.ch[i].Enabled)
	}
	a.nr52.Set(status)
}

// Drain returns every buffered sample.
func (a *APU) Drain() []int16 {
	a.sampleBufferMu.Lock()
	defer a.sampleBufferMu.Unlock()

	samples := make([]int16, len(a.sampleBuffer))
	copy(samples, a.sampleBuffer)
	a.sampleBuffer = a.sampleBuffer[:0]
	return samples
}

// MuteChannel mutes or unmutes a specific audio channel for debugging
func (a *APU) MuteChannel(channel int, muted bool) {
	if channel < 1 || channel > 4 {
		return
	}
	for {
		old := a.muted.Load()
		next := old &^ (1 << (channel - 1))
		if muted {
			next |= 1 << (channel - 1)
		}
		if a.muted.CompareAndSwap(old, next) {
			return
		}
	}
}

// ToggleChannel toggles muting for a specific channel
func (a *APU) ToggleChannel(channel int) {
	if channel < 1 || channel > 4 {
		return
	}
	a.MuteChannel(channel, a.muted.Load()&(1<<(channel-1)) == 0)
}

// SoloChannel mutes all channels except the specified one
func (a *APU) SoloChannel(channel int) {
	if channel < 1 || channel > 4 {
		return
	}
	a.muted.Store(0x0F &^ (1 << (channel - 1)))
}

// UnmuteAll unmutes all channels
func (a *APU) UnmuteAll() {
	a.muted.Store(0)
}

// GetChannelStatus reports which channels are playing and not muted.
func (a *APU) GetChannelStatus() (ch1On, ch2On, ch3On, ch4On bool) {
	muted := a.muted.Load()
	on := func(i int) bool { return a.ch[i].Enabled && muted&(1<<i) == 0 }
	return on(ch1), on(ch2), on(ch3), on(ch4)
}

// GetChannelVolumes returns the current envelope volume of each channel.
// Channel 3 reports its output level code.
func (a *APU) GetChannelVolumes() (v1, v2, v3, v4 uint8) {
	return a.ch[ch1].Volume, a.ch[ch2].Volume, (a.nr32.Get() >> 5) & 0x03, a.ch[ch4].Volume
}
