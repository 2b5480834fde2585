//go:build tinygo

package core

import "runtime/interrupt"

// disableInterrupts masks interrupts around a section shared with the
// timer handler and returns the state to restore
func disableInterrupts() interrupt.State {
	return interrupt.Disable()
}

func restoreInterrupts(state interrupt.State) {
	interrupt.Restore(state)
}

// The trace ring is only shared with interrupt handlers on the target
func lockTrace() interrupt.State {
	return interrupt.Disable()
}

func unlockTrace(state interrupt.State) {
	interrupt.Restore(state)
}
