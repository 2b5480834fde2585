//go:build !tinygo

package core

import "context"

// signal wakes a suspended consumer without blocking the producer
func (c *TickCounter) signal() {
	select {
	case c.notify <- struct{}{}:
	default:
	}
}

// suspend parks the consumer until the next increment or the context ends
func (c *TickCounter) suspend(ctx context.Context) error {
	select {
	case <-c.notify:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
