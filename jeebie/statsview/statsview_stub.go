//go:build !statsview

package statsview

import "log/slog"

const DefaultAddress = "localhost:12600"

// Launch logs that the stats server is not compiled in.
func Launch(string) {
	slog.Warn("Stats server not available, rebuild with -tags statsview")
}

func Available() bool {
	return false
}
