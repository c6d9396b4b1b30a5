package memory

import (
	"time"
)

// Clock supplies wall time to the RTC. Tests replace it with a fixed clock.
type Clock interface {
	Now() time.Time
}

type systemClockFunc func() time.Time

func (s systemClockFunc) Now() time.Time {
	return s()
}

// SystemClock is the wall clock.
var SystemClock Clock = systemClockFunc(time.Now)

// RTC register indices, selected by writing 0x08-0x0C to the RAM bank register.
const (
	rtcSeconds = iota
	rtcMinutes
	rtcHours
	rtcDaysLow
	rtcDaysHigh
	rtcRegisters
)

const (
	rtcHaltBit  = 6
	rtcCarryBit = 7
	rtcMaxDays  = 512
)

// rtcMasks are the bits that exist in each register.
var rtcMasks = [rtcRegisters]uint8{0x3F, 0x3F, 0x1F, 0xFF, 0xC1}

// RTC is the MBC3 real time clock. It keeps live counters that advance with
// wall time and a latched copy the game reads. The latch copies live into
// latched only on a 0 then 1 write sequence to 0x6000-0x7FFF.
type RTC struct {
	live    [rtcRegisters]uint8
	latched [rtcRegisters]uint8
	// last value written to the latch window
	latchArm uint8
	// unix seconds the live registers were last brought up to date
	synced int64
	clock  Clock
}

func newRTC(clock Clock) *RTC {
	if clock == nil {
		clock = SystemClock
	}
	return &RTC{
		latchArm: 0xFF,
		synced:   clock.Now().Unix(),
		clock:    clock,
	}
}

func (r *RTC) halted() bool {
	return r.live[rtcDaysHigh]&(1<<rtcHaltBit) != 0
}

func (r *RTC) days() int {
	return int(r.live[rtcDaysLow]) | int(r.live[rtcDaysHigh]&1)<<8
}

// advance moves the live counters forward by the given number of seconds.
func (r *RTC) advance(seconds int64) {
	if seconds <= 0 || r.halted() {
		return
	}

	total := int64(r.live[rtcSeconds]) +
		int64(r.live[rtcMinutes])*60 +
		int64(r.live[rtcHours])*3600 +
		int64(r.days())*86400 +
		seconds

	days := total / 86400
	total %= 86400

	r.live[rtcSeconds] = uint8(total % 60)
	r.live[rtcMinutes] = uint8(total / 60 % 60)
	r.live[rtcHours] = uint8(total / 3600)

	high := r.live[rtcDaysHigh] &^ 0x01
	if days >= rtcMaxDays {
		high |= 1 << rtcCarryBit
		days %= rtcMaxDays
	}
	r.live[rtcDaysLow] = uint8(days)
	r.live[rtcDaysHigh] = high | uint8(days>>8)&0x01
}

// sync brings the live counters up to the current wall time.
func (r *RTC) sync() {
	now := r.clock.Now().Unix()
	r.advance(now - r.synced)
	r.synced = now
}

// latch handles a write to the latch window.
func (r *RTC) latch(value uint8) {
	if r.latchArm == 0x00 && value == 0x01 {
		r.sync()
		r.latched = r.live
	}
	r.latchArm = value
}

func (r *RTC) read(reg uint8) uint8 {
	return r.latched[reg]
}

// write sets a live register. The halt bit stops the clock, so sync before
// changing it to account for the time that already passed.
func (r *RTC) write(reg, value uint8) {
	r.sync()
	r.live[reg] = value & rtcMasks[reg]
	r.latched[reg] = r.live[reg]
}

// Live returns the current counters, brought up to date.
func (r *RTC) Live() [5]uint8 {
	r.sync()
	return r.live
}

// Latched returns the registers visible to the game.
func (r *RTC) Latched() [5]uint8 {
	return r.latched
}

// RTCState is the serializable state of the clock.
type RTCState struct {
	Live     [5]uint8
	Latched  [5]uint8
	LatchArm uint8
	Synced   int64
}

func (r *RTC) snapshot() RTCState {
	return RTCState{Live: r.live, Latched: r.latched, LatchArm: r.latchArm, Synced: r.synced}
}

func (r *RTC) restore(s RTCState) {
	r.live = s.Live
	r.latched = s.Latched
	r.latchArm = s.LatchArm
	r.synced = s.Synced
}
