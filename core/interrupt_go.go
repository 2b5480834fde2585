//go:build !tinygo

package core

import "sync"

// State stands in for interrupt.State on hosted builds
type State uintptr

// Hosted timer drivers call back from ordinary goroutines and the shared tick
// cell is atomic, so masking is a no-op. Sections may nest.
func disableInterrupts() State {
	return 0
}

func restoreInterrupts(State) {}

// traceMu serializes the trace ring between node, link and ticker goroutines
var traceMu sync.Mutex

func lockTrace() State {
	traceMu.Lock()
	return 0
}

func unlockTrace(State) {
	traceMu.Unlock()
}
