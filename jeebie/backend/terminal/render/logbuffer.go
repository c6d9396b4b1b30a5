package render

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// LogEntry is one record kept for the log panel.
type LogEntry struct {
	Time    time.Time
	Level   slog.Level
	Message string
	Source  string
}

// LogBuffer keeps the last N entries. It is written from any goroutine that
// logs and read by the render loop.
type LogBuffer struct {
	mu      sync.RWMutex
	entries []LogEntry
	next    int
	full    bool
}

func NewLogBuffer(size int) *LogBuffer {
	return &LogBuffer{entries: make([]LogEntry, size)}
}

// Add stores entry, overwriting the oldest once the buffer is full.
func (lb *LogBuffer) Add(entry LogEntry) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	lb.entries[lb.next] = entry
	lb.next++
	if lb.next == len(lb.entries) {
		lb.next = 0
		lb.full = true
	}
}

func (lb *LogBuffer) len() int {
	if lb.full {
		return len(lb.entries)
	}
	return lb.next
}

// GetRecent returns up to maxCount entries, newest first. Zero means all.
func (lb *LogBuffer) GetRecent(maxCount int) []LogEntry {
	lb.mu.RLock()
	defer lb.mu.RUnlock()

	n := lb.len()
	if maxCount > 0 {
		n = min(n, maxCount)
	}
	if n == 0 {
		return nil
	}

	out := make([]LogEntry, n)
	i := lb.next
	for k := range out {
		i = (i - 1 + len(lb.entries)) % len(lb.entries)
		out[k] = lb.entries[i]
	}
	return out
}

func (lb *LogBuffer) Clear() {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	lb.next = 0
	lb.full = false
}

// LogBufferHandler is a slog.Handler that flattens each record into a
// single line and stores it in a LogBuffer.
type LogBufferHandler struct {
	buffer *LogBuffer
	level  slog.Leveler
	prefix string // attributes from WithAttrs, already formatted
	group  string
}

// NewLogBufferHandler writes to buffer. Passing a *slog.LevelVar lets the
// level change while running.
func NewLogBufferHandler(buffer *LogBuffer, level slog.Leveler) *LogBufferHandler {
	return &LogBufferHandler{
		buffer: buffer,
		level:  level,
	}
}

func (h *LogBufferHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *LogBufferHandler) Handle(_ context.Context, record slog.Record) error {
	var sb strings.Builder
	sb.WriteString(record.Message)
	sb.WriteString(h.prefix)
	record.Attrs(func(a slog.Attr) bool {
		h.appendAttr(&sb, a)
		return true
	})

	h.buffer.Add(LogEntry{
		Time:    record.Time,
		Level:   record.Level,
		Message: sb.String(),
		Source:  h.group,
	})
	return nil
}

func (h *LogBufferHandler) appendAttr(sb *strings.Builder, a slog.Attr) {
	key := a.Key
	if h.group != "" {
		key = h.group + "." + key
	}
	fmt.Fprintf(sb, " %s=%v", key, a.Value)
}

// WithAttrs returns a handler that adds attrs to every record.
func (h *LogBufferHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	var sb strings.Builder
	sb.WriteString(h.prefix)
	for _, a := range attrs {
		h.appendAttr(&sb, a)
	}
	next.prefix = sb.String()
	return &next
}

// WithGroup returns a handler that qualifies later attribute keys.
func (h *LogBufferHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	if h.group != "" {
		name = h.group + "." + name
	}
	next.group = name
	return &next
}

var levelLabels = map[slog.Level]string{
	slog.LevelDebug: "DBG",
	slog.LevelInfo:  "INF",
	slog.LevelWarn:  "WRN",
	slog.LevelError: "ERR",
}

// FormatLogEntry renders entry as "15:04:05 [INF] message".
func FormatLogEntry(entry LogEntry) string {
	label, ok := levelLabels[entry.Level]
	if !ok {
		label = "???"
	}
	return fmt.Sprintf("%s [%s] %s", entry.Time.Format(time.TimeOnly), label, entry.Message)
}
