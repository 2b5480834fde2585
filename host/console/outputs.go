package console

import (
	"sync"

	"github.com/golang/glog"
)

// MotorState is the drive direction of the gate motor
type MotorState uint8

const (
	MotorStopped MotorState = iota
	MotorForward
	MotorReverse
)

func (s MotorState) String() string {
	switch s {
	case MotorForward:
		return "forward"
	case MotorReverse:
		return "reverse"
	}
	return "stopped"
}

// Motor logs gate motor commands
type Motor struct {
	mu    sync.Mutex
	state MotorState
}

func (m *Motor) set(s MotorState) error {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
	glog.Infof("motor %s", s)
	return nil
}

// Forward implements control.Actuator
func (m *Motor) Forward() error { return m.set(MotorForward) }

// Reverse implements control.Actuator
func (m *Motor) Reverse() error { return m.set(MotorReverse) }

// Stop implements control.Actuator
func (m *Motor) Stop() error { return m.set(MotorStopped) }

// State returns the last commanded direction
func (m *Motor) State() MotorState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Buzzer logs alarm commands
type Buzzer struct {
	mu sync.Mutex
	on bool
}

func (b *Buzzer) set(on bool) error {
	b.mu.Lock()
	b.on = on
	b.mu.Unlock()
	if on {
		glog.Warning("alarm on")
	} else {
		glog.Info("alarm off")
	}
	return nil
}

// On implements control.Alarm
func (b *Buzzer) On() error { return b.set(true) }

// Off implements control.Alarm
func (b *Buzzer) Off() error { return b.set(false) }

// Sounding reports whether the alarm is on
func (b *Buzzer) Sounding() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.on
}
