package core

import "sync"

// VirtualTimer is a TimerDriver on a virtual clock measured in prescaled
// timer counts. Tests move time with Advance; in auto mode the clock jumps to
// the next event whenever the consumer is about to wait.
type VirtualTimer struct {
	mu      sync.Mutex
	sched   Scheduler
	event   ScheduledEvent
	cfg     TimerConfig
	fire    func(EventSource)
	armed   bool
	auto    bool
	pending []EventSource

	arms  []TimerConfig
	fires []uint32 // events fired per arm
}

// NewVirtualTimer creates a stopped virtual timer. auto selects on-demand advancing.
func NewVirtualTimer(auto bool) *VirtualTimer {
	v := &VirtualTimer{auto: auto}
	v.event.Handler = v.onEvent
	return v
}

// Arm implements TimerDriver
func (v *VirtualTimer) Arm(cfg TimerConfig, fire func(EventSource)) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.armed {
		v.sched.Cancel(&v.event)
	}
	v.cfg = cfg
	v.fire = fire
	v.armed = true
	v.arms = append(v.arms, cfg)
	v.fires = append(v.fires, 0)
	v.event.WakeTime = v.sched.Now() + cfg.FirstCounts()
	v.sched.Schedule(&v.event)
	return nil
}

// Disarm implements TimerDriver
func (v *VirtualTimer) Disarm() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.armed {
		v.sched.Cancel(&v.event)
		v.armed = false
	}
}

// Idle implements Idler: in auto mode jump straight to the next event
func (v *VirtualTimer) Idle() {
	if !v.auto {
		return
	}
	v.mu.Lock()
	next, ok := v.sched.Peek()
	v.mu.Unlock()
	if ok {
		v.advanceTo(next)
	}
}

// Advance moves the virtual clock forward by counts, firing due events
func (v *VirtualTimer) Advance(counts uint32) {
	v.mu.Lock()
	target := v.sched.Now() + counts
	v.mu.Unlock()
	v.advanceTo(target)
}

// AdvancePeriods moves the clock by n full periods of the armed config
func (v *VirtualTimer) AdvancePeriods(n uint32) {
	v.mu.Lock()
	counts := v.cfg.Counts() * n
	v.mu.Unlock()
	v.Advance(counts)
}

// advanceTo dispatches under the lock and calls fire after releasing it,
// so handlers may re-enter the driver (Disarm from a callback)
func (v *VirtualTimer) advanceTo(target uint32) {
	v.mu.Lock()
	v.sched.Dispatch(target)
	pending := v.pending
	v.pending = nil
	fire := v.fire
	v.mu.Unlock()

	for _, src := range pending {
		if fire != nil {
			fire(src)
		}
	}
}

// onEvent runs inside Dispatch with v.mu held
func (v *VirtualTimer) onEvent(e *ScheduledEvent) uint8 {
	v.pending = append(v.pending, v.cfg.Source())
	v.fires[len(v.fires)-1]++
	e.WakeTime += v.cfg.Counts()
	return SF_RESCHEDULE
}

// Now returns the virtual clock in prescaled counts
func (v *VirtualTimer) Now() uint32 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.sched.Now()
}

// Armed reports whether the timer is currently counting
func (v *VirtualTimer) Armed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.armed
}

// Arms returns every configuration the timer was armed with, in order
func (v *VirtualTimer) Arms() []TimerConfig {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]TimerConfig(nil), v.arms...)
}

// FiresPerArm returns how many events fired during each arming
func (v *VirtualTimer) FiresPerArm() []uint32 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]uint32(nil), v.fires...)
}
