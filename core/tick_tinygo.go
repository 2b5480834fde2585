//go:build tinygo

package core

import (
	"context"
	"runtime"
)

// signal is a no-op: channel operations are not allowed in interrupt context
func (c *TickCounter) signal() {}

// suspend yields to other goroutines; the caller re-checks the counter
func (c *TickCounter) suspend(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	runtime.Gosched()
	return nil
}
