//go:build rp2040

package board

import (
	"device/rp"
	"runtime/interrupt"
	"runtime/volatile"
	"time"
	"unsafe"

	"doorlock/core"
)

// RP2040 timer peripheral, alarm 1 (alarm 0 belongs to the runtime)
const (
	timerBase     = 0x40054000
	timerALARM1   = timerBase + 0x14
	timerARMED    = timerBase + 0x20
	timerTIMERAWL = timerBase + 0x28
	timerINTR     = timerBase + 0x34
	timerINTE     = timerBase + 0x38

	alarmBit = 1 << 1
)

var (
	alarmReg = (*volatile.Register32)(unsafe.Pointer(uintptr(timerALARM1)))
	armedReg = (*volatile.Register32)(unsafe.Pointer(uintptr(timerARMED)))
	rawLReg  = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))
	intrReg  = (*volatile.Register32)(unsafe.Pointer(uintptr(timerINTR)))
	inteReg  = (*volatile.Register32)(unsafe.Pointer(uintptr(timerINTE)))
)

// AlarmTimer implements core.TimerDriver on the 1 MHz system timer.
// Only one instance may exist.
type AlarmTimer struct {
	periodUS uint32
	next     uint32
	src      core.EventSource
	fire     func(core.EventSource)
	armed    volatile.Register8
}

var alarm *AlarmTimer

// NewAlarmTimer installs the alarm interrupt handler
func NewAlarmTimer() *AlarmTimer {
	alarm = &AlarmTimer{}
	intr := interrupt.New(rp.IRQ_TIMER_IRQ_1, handleAlarm)
	intr.Enable()
	return alarm
}

func handleAlarm(interrupt.Interrupt) {
	intrReg.Set(alarmBit)
	t := alarm
	if t == nil || t.armed.Get() == 0 {
		return
	}
	t.next += t.periodUS
	alarmReg.Set(t.next)
	t.fire(t.src)
}

// Arm implements core.TimerDriver
func (t *AlarmTimer) Arm(cfg core.TimerConfig, fire func(core.EventSource)) error {
	t.Disarm()

	period := cfg.Period(core.CPUFrequency) / time.Microsecond
	if period <= 0 {
		period = 1
	}

	state := interrupt.Disable()
	t.periodUS = uint32(period)
	t.src = cfg.Source()
	t.fire = fire
	t.armed.Set(1)
	t.next = rawLReg.Get() + t.periodUS
	inteReg.SetBits(alarmBit)
	alarmReg.Set(t.next)
	interrupt.Restore(state)
	return nil
}

// Disarm implements core.TimerDriver
func (t *AlarmTimer) Disarm() {
	state := interrupt.Disable()
	t.armed.Set(0)
	inteReg.ClearBits(alarmBit)
	armedReg.Set(alarmBit)
	intrReg.Set(alarmBit)
	interrupt.Restore(state)
}
