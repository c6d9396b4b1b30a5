package audio

// State is the serializable APU state. Registers and wave RAM are saved
// with the I/O bank, buffered samples are not saved.
type State struct {
	Power        bool
	Channels     [4]Channel
	FrameStep    int
	FrameCycles  int
	SweepTimer   uint8
	SweepShadow  uint16
	SweepEnabled bool
	LFSR         uint16
	SampleAcc    int
}

func (a *APU) Snapshot() State {
	return State{
		Power:        a.power,
		Channels:     a.ch,
		FrameStep:    a.frameStep,
		FrameCycles:  a.frameCycles,
		SweepTimer:   a.sweepTimer,
		SweepShadow:  a.sweepShadow,
		SweepEnabled: a.sweepEnabled,
		LFSR:         a.lfsr,
		SampleAcc:    a.sampleAcc,
	}
}

func (a *APU) Restore(s State) {
	a.power = s.Power
	a.ch = s.Channels
	a.frameStep = s.FrameStep
	a.frameCycles = s.FrameCycles
	a.sweepTimer = s.SweepTimer
	a.sweepShadow = s.SweepShadow
	a.sweepEnabled = s.SweepEnabled
	a.lfsr = s.LFSR
	a.sampleAcc = s.SampleAcc
	a.Drain()
}
