package cpu

import (
	"errors"
	"fmt"
)

// ErrProtocol is wrapped by every bus handshake violation. These indicate a
// broken micro-op sequence and end the emulation session.
var ErrProtocol = errors.New("cpu: memory protocol violation")

// ProtocolError describes an illegal MemStatus transition or operand cache misuse.
type ProtocolError struct {
	Op    string
	State MemState
	PC    uint16
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("cpu: %s in state %s (pc=0x%04X)", e.Op, e.State, e.PC)
}

func (e *ProtocolError) Unwrap() error { return ErrProtocol }

// MemState is the tag of a MemStatus.
type MemState uint8

const (
	MemIdle MemState = iota
	MemReqRead
	MemRead
	MemReqWrite
	MemWrite
	MemReady
)

var memStateNames = [...]string{"Idle", "ReqRead", "Read", "ReqWrite", "Write", "Ready"}

func (s MemState) String() string {
	if int(s) < len(memStateNames) {
		return memStateNames[s]
	}
	return fmt.Sprintf("MemState(%d)", uint8(s))
}

// MemStatus is the request/response cell between the CPU and the bus.
// Addr is meaningful for ReqRead, ReqWrite and Write, Value for Read and
// ReqWrite.
type MemStatus struct {
	State MemState
	Addr  uint16
	Value uint8
}

func (m *MemStatus) canRequest() bool {
	return m.State == MemIdle || m.State == MemReady || m.State == MemRead
}

func (m *MemStatus) requestRead(address uint16) bool {
	if !m.canRequest() {
		return false
	}
	*m = MemStatus{State: MemReqRead, Addr: address}
	return true
}

func (m *MemStatus) requestWrite(address uint16, value uint8) bool {
	if !m.canRequest() {
		return false
	}
	*m = MemStatus{State: MemReqWrite, Addr: address, Value: value}
	return true
}

// take consumes a resolved read.
func (m *MemStatus) take() (uint8, bool) {
	if m.State != MemRead {
		return 0, false
	}
	v := m.Value
	*m = MemStatus{State: MemIdle}
	return v, true
}

// resolve services a pending request against the bus: ReqRead becomes Read,
// ReqWrite goes through Write to Ready once the byte is stored.
func (m *MemStatus) resolve(bus Bus) {
	switch m.State {
	case MemReqRead:
		*m = MemStatus{State: MemRead, Addr: m.Addr, Value: bus.Read(m.Addr)}
	case MemReqWrite:
		m.State = MemWrite
		bus.Write(m.Addr, m.Value)
		m.State = MemReady
	}
}
