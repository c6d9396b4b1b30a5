package debug

import (
	"math"

	"github.com/valerio/jeebie-cycle/jeebie/addr"
	"github.com/valerio/jeebie-cycle/jeebie/ioreg"
)

type ChannelStatus struct {
	Enabled   bool
	Frequency float64
	Volume    uint8
	DutyCycle uint8
	Note      string
}

type AudioData struct {
	APUEnabled   bool
	MasterVolume struct {
		Left  uint8
		Right uint8
	}
	Channels   [4]ChannelStatus
	SampleRate int
}

// VolumeProvider interface for getting actual channel volumes
type VolumeProvider interface {
	GetChannelVolumes() (ch1, ch2, ch3, ch4 uint8)
}

// ExtractAudioData decodes the sound registers. Raw register values are used
// since the period registers are write only from the CPU side.
func ExtractAudioData(io *ioreg.Bank, volumes VolumeProvider, sampleRate int) *AudioData {
	get := func(a uint16) uint8 { return io.Reg(a).Get() }

	data := &AudioData{SampleRate: sampleRate}
	nr52 := get(addr.NR52)
	data.APUEnabled = nr52&0x80 != 0

	nr50 := get(addr.NR50)
	data.MasterVolume.Left = (nr50 >> 4) & 0x07
	data.MasterVolume.Right = nr50 & 0x07

	for i := range data.Channels {
		data.Channels[i].Enabled = nr52&(1<<i) != 0
	}

	pulse := func(ch *ChannelStatus, nrx1, nrx2, nrx3, nrx4 uint16) {
		period := uint16(get(nrx4)&0x07)<<8 | uint16(get(nrx3))
		ch.Frequency = 131072.0 / float64(2048-period)
		ch.Volume = get(nrx2) >> 4
		ch.DutyCycle = get(nrx1) >> 6
		ch.Note = frequencyToNote(ch.Frequency)
	}
	pulse(&data.Channels[0], addr.NR11, addr.NR12, addr.NR13, addr.NR14)
	pulse(&data.Channels[1], addr.NR21, addr.NR22, addr.NR23, addr.NR24)

	wave := &data.Channels[2]
	period := uint16(get(addr.NR34)&0x07)<<8 | uint16(get(addr.NR33))
	wave.Frequency = 65536.0 / float64(2048-period)
	wave.Volume = [4]uint8{0, 15, 7, 3}[(get(addr.NR32)>>5)&0x03]
	wave.Note = frequencyToNote(wave.Frequency)

	noise := &data.Channels[3]
	nr43 := get(addr.NR43)
	divisor := float64(nr43 & 0x07)
	if divisor == 0 {
		divisor = 0.5
	}
	noise.Frequency = 524288.0 / divisor / float64(uint(2)<<(nr43>>4))
	noise.Volume = get(addr.NR42) >> 4
	noise.Note = "Noise"

	if volumes != nil {
		v1, v2, v3, v4 := volumes.GetChannelVolumes()
		data.Channels[0].Volume = v1
		data.Channels[1].Volume = v2
		data.Channels[2].Volume = v3
		data.Channels[3].Volume = v4
	}
	return data
}

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

func frequencyToNote(freq float64) string {
	if freq < 20 || freq > 20000 {
		return "--"
	}

	// MIDI note number, A4 = 69 = 440 Hz
	midi := int(math.Round(69 + 12*math.Log2(freq/440)))
	octave := midi/12 - 1
	if octave < 0 || octave > 9 {
		return "--"
	}
	return noteNames[midi%12] + string(rune('0'+octave))
}
