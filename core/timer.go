package core

import (
	"context"
	"time"
)

// CPUFrequency is the clock feeding the timer prescaler on both nodes
const CPUFrequency = 8000000 // 8MHz

// Prescaler selects the timer clock divider
type Prescaler uint8

const (
	NoClock Prescaler = iota
	Div1
	Div8
	Div64
	Div256
	Div1024
	ExtFalling
	ExtRising
)

// Divider returns the numeric clock divisor, 0 for stopped or external clocks
func (p Prescaler) Divider() uint32 {
	switch p {
	case Div1:
		return 1
	case Div8:
		return 8
	case Div64:
		return 64
	case Div256:
		return 256
	case Div1024:
		return 1024
	}
	return 0
}

// TimerMode selects which hardware event ends a period
type TimerMode uint8

const (
	ModeNormal  TimerMode = iota // Overflow at 0xFFFF
	ModeCompare                  // Clear timer on compare match
)

// EventSource indexes the per-timer callback table
type EventSource uint8

const (
	EventOverflow EventSource = iota
	EventCompareA
	EventCompareB
	EventCapture

	NumEventSources = 4
)

// TimerConfig programs one countdown/compare period
type TimerConfig struct {
	InitialCount uint16
	CompareValue uint16 // Used in ModeCompare only
	Prescaler    Prescaler
	Mode         TimerMode
}

// Precomputed periods at CPUFrequency with the 1024 prescaler
var (
	Period1s     = TimerConfig{InitialCount: 0, CompareValue: 7813, Prescaler: Div1024, Mode: ModeCompare}
	Period3s     = TimerConfig{InitialCount: 0, CompareValue: 23436, Prescaler: Div1024, Mode: ModeCompare}
	Period7500ms = TimerConfig{InitialCount: 0, CompareValue: 58594, Prescaler: Div1024, Mode: ModeCompare}
)

// Source returns the event that fires at the end of each period
func (c TimerConfig) Source() EventSource {
	if c.Mode == ModeCompare {
		return EventCompareA
	}
	return EventOverflow
}

// Counts returns the number of prescaled counts in a full period.
// The first period after arming starts from InitialCount; see FirstCounts.
func (c TimerConfig) Counts() uint32 {
	if c.Mode == ModeCompare {
		return uint32(c.CompareValue) + 1
	}
	return 1 << 16
}

// FirstCounts returns the counts between arming and the first event
func (c TimerConfig) FirstCounts() uint32 {
	if c.Mode == ModeCompare {
		if c.InitialCount > c.CompareValue {
			// Counter runs past the threshold and wraps before matching
			return (1 << 16) - uint32(c.InitialCount) + uint32(c.CompareValue) + 1
		}
		return uint32(c.CompareValue) - uint32(c.InitialCount) + 1
	}
	return (1 << 16) - uint32(c.InitialCount)
}

// Period converts a full period into wall time for the given CPU clock
func (c TimerConfig) Period(cpuHz uint32) time.Duration {
	div := c.Prescaler.Divider()
	if div == 0 || cpuHz == 0 {
		return 0
	}
	return time.Duration(uint64(c.Counts()) * uint64(div) * uint64(time.Second) / uint64(cpuHz))
}

// Delay names one of the fixed blocking waits used by both nodes
type Delay uint8

const (
	Delay1s Delay = iota
	Delay3s
	Delay15s
)

// Config returns the timer period the delay counts
func (d Delay) Config() TimerConfig {
	switch d {
	case Delay1s:
		return Period1s
	case Delay3s:
		return Period3s
	default:
		return Period7500ms
	}
}

// Ticks returns how many period events make up the delay
func (d Delay) Ticks() uint32 {
	if d == Delay15s {
		return 2
	}
	return 1
}

func (d Delay) String() string {
	switch d {
	case Delay1s:
		return "1s"
	case Delay3s:
		return "3s"
	case Delay15s:
		return "15s"
	}
	return "delay(" + Itoa(int(d)) + ")"
}

// TimerDriver is the abstract hardware timer that the Timer service programs.
// Platform-specific implementations call fire from interrupt context.
type TimerDriver interface {
	// Arm programs the period and starts counting; fire runs on every event
	Arm(cfg TimerConfig, fire func(EventSource)) error

	// Disarm stops the timer; pending events are dropped
	Disarm()
}

// Idler is implemented by drivers that can make progress when the consumer
// is about to suspend (virtual clocks advancing on demand)
type Idler interface {
	Idle()
}

// Delayer is the blocking-delay service consumed by the application state machines
type Delayer interface {
	Delay(ctx context.Context, d Delay) error
}
