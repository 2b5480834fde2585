package core

import (
	"context"
	"sync/atomic"
)

// TickCounter is the single cell shared between the timer interrupt and the
// main context. The interrupt side may only Increment; the main side may only
// Load and Take (read-then-reset).
type TickCounter struct {
	value  uint32 // atomic
	notify chan struct{}
}

// NewTickCounter creates a counter with its wakeup signal
func NewTickCounter() *TickCounter {
	return &TickCounter{notify: make(chan struct{}, 1)}
}

// Increment is the producer operation, safe from interrupt context
func (c *TickCounter) Increment() {
	atomic.AddUint32(&c.value, 1)
	c.signal()
}

// Load returns the current count without consuming it
func (c *TickCounter) Load() uint32 {
	return atomic.LoadUint32(&c.value)
}

// Take returns the current count and resets it to zero
func (c *TickCounter) Take() uint32 {
	return atomic.SwapUint32(&c.value, 0)
}

// WaitFor suspends until the count reaches n, then consumes it.
// idle, when set, runs before each suspension so a virtual clock can advance.
func (c *TickCounter) WaitFor(ctx context.Context, n uint32, idle func()) error {
	for c.Load() < n {
		if idle != nil {
			idle()
			if c.Load() >= n {
				break
			}
		}
		if err := c.suspend(ctx); err != nil {
			return err
		}
	}
	c.Take()
	return nil
}
