//go:build statsview

package statsview

import (
	"log/slog"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
)

// DefaultAddress is where the charts are served when no address is given.
const DefaultAddress = "localhost:12600"

const path = "/debug/statsview"

// Launch starts the stats server on a new goroutine.
func Launch(addr string) {
	if addr == "" {
		addr = DefaultAddress
	}
	viewer.SetConfiguration(viewer.WithAddr(addr))
	mgr := statsview.New()
	go mgr.Start()
	slog.Info("Stats server started", "url", "http://"+addr+path)
}

// Available reports whether the stats server was compiled in.
func Available() bool {
	return true
}
