package serial

import (
	"log/slog"

	"github.com/valerio/jeebie-cycle/jeebie/addr"
	"github.com/valerio/jeebie-cycle/jeebie/bit"
	"github.com/valerio/jeebie-cycle/jeebie/ioreg"
)

// transferTicks is how long an internally clocked byte takes: 8 bits at 8192 Hz.
const transferTicks = 1024

// LogSink implements a serial device with nothing plugged into the link port.
// Outgoing bytes are logged as text, which is handy for test roms that
// report through serial.
type LogSink struct {
	sb, sc           *ioreg.Reg
	requestInterrupt func(addr.Interrupt)
	logger           *slog.Logger

	active    bool
	countdown int

	// settings
	immediate bool
	defaultRX uint8 // shifted in from the disconnected remote side

	line []byte
	sent []byte
}

type LogSinkOption func(*LogSink)

// WithImmediateTransfer completes transfers on the tick they start.
func WithImmediateTransfer() LogSinkOption { return func(s *LogSink) { s.immediate = true } }

// WithLogger sets the logger used for the serial output lines.
func WithLogger(l *slog.Logger) LogSinkOption { return func(s *LogSink) { s.logger = l } }

// NewLogSink creates a serial device bound to SB/SC in io. irq should request
// the serial interrupt.
func NewLogSink(io *ioreg.Bank, irq func(addr.Interrupt), opts ...LogSinkOption) *LogSink {
	s := &LogSink{
		sb:               io.Reg(addr.SB),
		sc:               io.Reg(addr.SC),
		requestInterrupt: irq,
		defaultRX:        0xFF,
		logger:           slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.sb.ClearDirty()
	s.sc.ClearDirty()
	return s
}

// Tick advances the port by one M-cycle.
func (s *LogSink) Tick() {
	s.sb.ClearDirty()
	if s.sc.TakeDirty() {
		s.maybeStartTransfer()
	}
	if !s.active {
		return
	}
	s.countdown--
	if s.countdown <= 0 {
		s.completeTransfer()
	}
}

// Output returns every byte sent so far.
func (s *LogSink) Output() []byte { return s.sent }

func (s *LogSink) maybeStartTransfer() {
	if s.active {
		return
	}
	// bit 7 starts the transfer, bit 0 selects the internal clock. With an
	// external clock and no partner the transfer never completes.
	sc := s.sc.Get()
	if !bit.IsSet(7, sc) || !bit.IsSet(0, sc) {
		return
	}

	b := s.sb.Get()
	s.sent = append(s.sent, b)
	if b == 0 || b == '\n' || b == '\r' {
		s.flush()
	} else {
		s.line = append(s.line, b)
	}

	s.active = true
	s.countdown = transferTicks
	if s.immediate {
		s.countdown = 1
	}
}

func (s *LogSink) flush() {
	if len(s.line) > 0 {
		s.logger.Info("serial", "line", string(s.line))
		s.line = s.line[:0]
	}
}

func (s *LogSink) completeTransfer() {
	s.sb.Set(s.defaultRX)
	s.sc.Set(bit.Reset(7, s.sc.Get()))
	s.active = false
	s.countdown = 0
	if s.requestInterrupt != nil {
		s.requestInterrupt(addr.SerialInterrupt)
	}
}

// State is the serializable part of the port.
type State struct {
	Active    bool
	Countdown int
	Line      []byte
	Sent      []byte
}

func (s *LogSink) Snapshot() State {
	return State{
		Active:    s.active,
		Countdown: s.countdown,
		Line:      append([]byte(nil), s.line...),
		Sent:      append([]byte(nil), s.sent...),
	}
}

func (s *LogSink) Restore(st State) {
	s.active = st.Active
	s.countdown = st.Countdown
	s.line = append(s.line[:0], st.Line...)
	s.sent = append(s.sent[:0], st.Sent...)
}
