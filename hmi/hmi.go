// Package hmi implements the keypad/display node: it collects passwords,
// drives the menu and mirrors the control node's door timing on the display.
package hmi

import (
	"context"
	"time"
)

// Display is the 16x2 character LCD
type Display interface {
	Clear()
	MoveCursor(row, col uint8)
	WriteChar(c byte)
	WriteStringAt(row, col uint8, s string)
}

// Keypad returns one key code per press, blocking until a key is pressed
type Keypad interface {
	ReadKey(ctx context.Context) (byte, error)
}

// Key codes
const (
	KeyOpenDoor   = '+'
	KeyChangePass = '-'
	KeyConfirm    = 13
)

// Short busy-waits that do not use the hardware timer
const (
	EntrySettle   = 100 * time.Millisecond  // before the first key of a password
	KeyDebounce   = 250 * time.Millisecond  // after every key
	OpcodeGap     = 10 * time.Millisecond   // between the verify opcode and its payload
	MismatchPause = 1000 * time.Millisecond // after a length mismatch
)

// MaxTrials is the number of verification attempts before lockout
const MaxTrials = 3

// LockWaits is how many 15s delays make up the lockout period
const LockWaits = 4

// CountdownFrom is the first value of the door-closing countdown
const CountdownFrom = 3

// State is the position of the node in its main cycle
type State uint8

const (
	StateIdle State = iota
	StateMainMenu
	StateAwaitingKeypress
	StateVerifying
	StateOpenDoor
	StateChangePassword
	StateSetPassword
	StateLocked
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateMainMenu:
		return "main-menu"
	case StateAwaitingKeypress:
		return "awaiting-keypress"
	case StateVerifying:
		return "verifying"
	case StateOpenDoor:
		return "open-door"
	case StateChangePassword:
		return "change-password"
	case StateSetPassword:
		return "set-password"
	case StateLocked:
		return "locked"
	}
	return "unknown"
}

// TrialCounter counts verification attempts in one cycle, never beyond MaxTrials
type TrialCounter struct {
	used int
}

// Reset starts a new cycle
func (c *TrialCounter) Reset() {
	c.used = 0
}

// Next records an attempt and reports false once all trials are used
func (c *TrialCounter) Next() bool {
	if c.used >= MaxTrials {
		return false
	}
	c.used++
	return true
}

// Used returns the attempts made in this cycle
func (c *TrialCounter) Used() int {
	return c.used
}

// Exhausted reports whether no attempt is left
func (c *TrialCounter) Exhausted() bool {
	return c.used >= MaxTrials
}
