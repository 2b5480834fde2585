//go:build !tinygo

package core

import (
	"sync"
	"time"
)

// WallTimer is a hosted TimerDriver backed by time.Ticker.
// Scale > 1 shortens every period for fast simulation.
type WallTimer struct {
	Scale float64

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewWallTimer creates a hosted timer with the given speed-up factor
func NewWallTimer(scale float64) *WallTimer {
	if scale <= 0 {
		scale = 1
	}
	return &WallTimer{Scale: scale}
}

// Arm implements TimerDriver
func (w *WallTimer) Arm(cfg TimerConfig, fire func(EventSource)) error {
	w.Disarm()

	period := time.Duration(float64(cfg.Period(CPUFrequency)) / w.Scale)
	if period <= 0 {
		period = time.Microsecond
	}
	src := cfg.Source()

	w.mu.Lock()
	stop := make(chan struct{})
	done := make(chan struct{})
	w.stop, w.done = stop, done
	w.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				fire(src)
			}
		}
	}()
	return nil
}

// Disarm implements TimerDriver and waits for the ticker goroutine to exit
func (w *WallTimer) Disarm() {
	w.mu.Lock()
	stop, done := w.stop, w.done
	w.stop, w.done = nil, nil
	w.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
}
