// Package statsview serves live runtime charts (heap, goroutines, GC
// pauses) while the emulator runs. The server is only compiled in with the
// statsview build tag, otherwise Available reports false and Launch logs
// that it is missing.
package statsview
