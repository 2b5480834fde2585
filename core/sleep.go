package core

import (
	"context"
	"time"
)

// SleepFunc performs a short fixed wait that does not need the hardware timer
// (key debounce, EEPROM write cycle). It returns early when ctx ends.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep waits for d using the runtime timer
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ContextError("sleep", ctx.Err())
	}
}

// NoSleep returns immediately unless ctx has already ended
func NoSleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return ContextError("sleep", err)
	}
	return nil
}
