package hmi

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doorlock/control"
	"doorlock/core"
	"doorlock/protocol"
)

type nopActuator struct{}

func (nopActuator) Forward() error { return nil }
func (nopActuator) Reverse() error { return nil }
func (nopActuator) Stop() error    { return nil }
func (nopActuator) On() error      { return nil }
func (nopActuator) Off() error     { return nil }

// Both nodes over an in-memory link with the simulated EEPROM
func TestSystemScenarios(t *testing.T) {
	tests := []struct {
		name   string
		script string
		events []control.Event
	}{
		{
			name:   "set then open",
			script: "1234\r1234\r+1234\r",
			events: []control.Event{
				control.EventPasswordSet, control.EventVerified,
				control.EventGateOpening, control.EventGateHeld, control.EventGateClosing, control.EventGateClosed,
			},
		},
		{
			name:   "wrong then right",
			script: "1234\r1234\r+9999\r1234\r",
			events: []control.Event{
				control.EventPasswordSet, control.EventRejected, control.EventVerified,
				control.EventGateOpening, control.EventGateHeld, control.EventGateClosing, control.EventGateClosed,
			},
		},
		{
			name:   "lockout",
			script: "1234\r1234\r-9999\r9999\r9999\r",
			events: []control.Event{
				control.EventPasswordSet, control.EventRejected, control.EventRejected, control.EventRejected,
				control.EventAlarmOn, control.EventAlarmOff,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			a, b := protocol.Pipe()
			events := make(chan control.Event, 32)
			ctl := control.New(control.Config{
				Link:     protocol.NewLink(b),
				Store:    core.NewEEPROM(core.NewSimBus(), core.NoSleep),
				Actuator: nopActuator{},
				Alarm:    nopActuator{},
				Timer:    core.NewTimer(core.NewVirtualTimer(true)),
				OnEvent:  func(e control.Event) { events <- e },
			})
			done := make(chan error, 1)
			go func() { done <- ctl.Run(ctx) }()

			node := New(Config{
				Display: &recordingDisplay{},
				Keypad:  keys(tt.script),
				Link:    protocol.NewLink(a),
				Timer:   core.NewTimer(core.NewVirtualTimer(true)),
				Sleep:   core.NoSleep,
			})
			err := node.Run(ctx)
			assert.ErrorIs(t, err, errNoMoreKeys)

			a.Close()
			assert.ErrorIs(t, <-done, protocol.ErrClosed)
			close(events)

			var got []control.Event
			for e := range events {
				got = append(got, e)
			}
			require.Equal(t, tt.events, got)
		})
	}
}
