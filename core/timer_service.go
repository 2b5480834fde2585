package core

import (
	"context"
	"sync/atomic"
)

// slotHandler wraps a callback so it can live in an atomic.Value
type slotHandler struct {
	fn func()
}

// Timer owns one hardware timer and its callback table.
// Each Timer has its own table; registering a slot replaces the previous handler.
type Timer struct {
	driver TimerDriver
	slots  [NumEventSources]atomic.Value
	ticks  *TickCounter
}

// NewTimer creates the service on top of a platform driver
func NewTimer(driver TimerDriver) *Timer {
	return &Timer{
		driver: driver,
		ticks:  NewTickCounter(),
	}
}

// SetCallback installs h for the event source, replacing any previous handler
func (t *Timer) SetCallback(src EventSource, h func()) {
	if src >= NumEventSources {
		return
	}
	t.slots[src].Store(slotHandler{fn: h})
}

// Callback returns the handler installed for src, or nil
func (t *Timer) Callback(src EventSource) func() {
	if src >= NumEventSources {
		return nil
	}
	h, _ := t.slots[src].Load().(slotHandler)
	return h.fn
}

// Configure programs the period and arms the timer
func (t *Timer) Configure(cfg TimerConfig) error {
	RecordTrace(EvtTimerArm, uint8(cfg.Source()), uint32(cfg.CompareValue), uint32(cfg.Prescaler))
	return t.driver.Arm(cfg, t.dispatch)
}

// Stop disables the timer; installed handlers stay in place
func (t *Timer) Stop() {
	t.driver.Disarm()
}

// Ticks exposes the shared counter (tests and diagnostics)
func (t *Timer) Ticks() *TickCounter {
	return t.ticks
}

// dispatch is the interrupt entry point handed to the driver
func (t *Timer) dispatch(src EventSource) {
	RecordTrace(EvtTimerFire, uint8(src), 0, 0)
	if h := t.Callback(src); h != nil {
		h()
	}
}

// Delay blocks until the delay's tick threshold is reached on its period.
// The counter is reset and the timer stopped on return, including on timeout.
func (t *Timer) Delay(ctx context.Context, d Delay) error {
	cfg := d.Config()
	want := d.Ticks()

	t.SetCallback(cfg.Source(), t.ticks.Increment)
	t.ticks.Take()
	if err := t.Configure(cfg); err != nil {
		return err
	}

	var idle func()
	if i, ok := t.driver.(Idler); ok {
		idle = i.Idle
	}
	err := t.ticks.WaitFor(ctx, want, idle)
	t.Stop()
	t.ticks.Take()

	if err != nil {
		return ContextError("timer delay "+d.String(), err)
	}
	RecordTrace(EvtDelayDone, uint8(d), want, 0)
	return nil
}
