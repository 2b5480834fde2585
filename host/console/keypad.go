package console

import (
	"bufio"
	"context"
	"io"

	"doorlock/core"
	"doorlock/hmi"
)

// Keypad turns terminal input into key presses. Every byte is one key;
// a line ending is the confirm key.
type Keypad struct {
	keys chan byte
	err  error
	done chan struct{}
}

// NewKeypad starts reading r in the background
func NewKeypad(r io.Reader) *Keypad {
	k := &Keypad{
		keys: make(chan byte, 64),
		done: make(chan struct{}),
	}
	go k.readLoop(bufio.NewReader(r))
	return k
}

func (k *Keypad) readLoop(r *bufio.Reader) {
	defer close(k.done)
	lastCR := false
	for {
		c, err := r.ReadByte()
		if err != nil {
			k.err = err
			return
		}
		switch c {
		case '\r':
			lastCR = true
			c = hmi.KeyConfirm
		case '\n':
			if lastCR {
				lastCR = false
				continue
			}
			c = hmi.KeyConfirm
		default:
			lastCR = false
		}
		k.keys <- c
	}
}

// ReadKey implements hmi.Keypad. After the input ends, queued keys are
// still returned, then the read error.
func (k *Keypad) ReadKey(ctx context.Context) (byte, error) {
	select {
	case c := <-k.keys:
		return c, nil
	default:
	}
	select {
	case c := <-k.keys:
		return c, nil
	case <-k.done:
		select {
		case c := <-k.keys:
			return c, nil
		default:
		}
		return 0, k.err
	case <-ctx.Done():
		return 0, core.ContextError("keypad", ctx.Err())
	}
}
