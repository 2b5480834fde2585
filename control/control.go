// Package control implements the actuator node: it owns the stored password
// and performs the gate and alarm sequences on request.
package control

import (
	"context"

	"doorlock/core"
)

// BaseAddress is where the password bytes start in the EEPROM
const BaseAddress uint16 = 0x0311

// PasswordStore is the byte-addressed non-volatile memory
type PasswordStore interface {
	WriteBytes(ctx context.Context, base uint16, data []byte) (int, error)
	ReadBytes(ctx context.Context, base uint16, n int) ([]byte, error)
}

// Actuator is the door motor
type Actuator interface {
	Forward() error
	Reverse() error
	Stop() error
}

// Alarm is the buzzer
type Alarm interface {
	On() error
	Off() error
}

// LockWaits is how many 15s delays the alarm sounds for
const LockWaits = 4

// Event names a completed operation for observers
type Event uint8

const (
	EventPasswordSet Event = iota + 1
	EventVerified
	EventRejected
	EventGateOpening
	EventGateHeld
	EventGateClosing
	EventGateClosed
	EventAlarmOn
	EventAlarmOff
	EventStorageError
)

func (e Event) String() string {
	switch e {
	case EventPasswordSet:
		return "password-set"
	case EventVerified:
		return "verified"
	case EventRejected:
		return "rejected"
	case EventGateOpening:
		return "gate-opening"
	case EventGateHeld:
		return "gate-held"
	case EventGateClosing:
		return "gate-closing"
	case EventGateClosed:
		return "gate-closed"
	case EventAlarmOn:
		return "alarm-on"
	case EventAlarmOff:
		return "alarm-off"
	case EventStorageError:
		return "storage-error"
	}
	return "event(" + core.Itoa(int(e)) + ")"
}
