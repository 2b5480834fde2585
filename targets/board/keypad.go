//go:build rp2040

package board

import (
	"context"
	"machine"
	"time"

	"doorlock/core"

	"tinygo.org/x/drivers/keypad4x4"
)

// keyMap is the calculator-style 4x4 keypad, indexed row*4+col.
// The ON key is the confirm key.
var keyMap = [16]byte{
	'7', '8', '9', '%',
	'4', '5', '6', '*',
	'1', '2', '3', '-',
	13, '0', '=', '+',
}

const keyPoll = 10 * time.Millisecond

// Keypad implements hmi.Keypad on a scanned 4x4 matrix
type Keypad struct {
	dev keypad4x4.Device
}

// NewKeypad configures rows r1..r4 as outputs and columns c1..c4 as inputs
func NewKeypad(r1, r2, r3, r4, c1, c2, c3, c4 machine.Pin) *Keypad {
	dev := keypad4x4.NewDevice(r4, r3, r2, r1, c4, c3, c2, c1)
	dev.Configure()
	return &Keypad{dev: dev}
}

// ReadKey polls until a key is down; debounce is left to the caller
func (k *Keypad) ReadKey(ctx context.Context) (byte, error) {
	for {
		if key := k.dev.GetKey(); key != keypad4x4.NoKeyPressed && int(key) < len(keyMap) {
			return keyMap[key], nil
		}
		if err := core.Sleep(ctx, keyPoll); err != nil {
			return 0, err
		}
	}
}
