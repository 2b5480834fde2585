package remote

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"doorlock/control"
	"doorlock/core"
	"doorlock/protocol"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopActuator struct{}

func (nopActuator) Forward() error { return nil }
func (nopActuator) Reverse() error { return nil }
func (nopActuator) Stop() error    { return nil }

type nopAlarm struct{}

func (nopAlarm) On() error  { return nil }
func (nopAlarm) Off() error { return nil }

type harness struct {
	client *Client
	bus    *core.SimBus
	hostCh *protocol.PipeEnd

	mu     sync.Mutex
	events []control.Event

	done chan error
}

func newHarness(t *testing.T) *harness {
	hostEnd, nodeEnd := protocol.Pipe()
	h := &harness{
		bus:    core.NewSimBus(),
		hostCh: hostEnd,
		done:   make(chan error, 1),
	}
	h.client = New(protocol.NewLink(hostEnd), core.NoSleep)
	node := control.New(control.Config{
		Link:     protocol.NewLink(nodeEnd),
		Store:    core.NewEEPROM(h.bus, core.NoSleep),
		Actuator: nopActuator{},
		Alarm:    nopAlarm{},
		Timer:    core.NewTimer(core.NewVirtualTimer(true)),
		OnEvent: func(e control.Event) {
			h.mu.Lock()
			h.events = append(h.events, e)
			h.mu.Unlock()
		},
	})
	go func() { h.done <- node.Run(context.Background()) }()
	t.Cleanup(func() { nodeEnd.Close() })
	return h
}

// finish closes the host end and waits for the node to drain it
func (h *harness) finish(t *testing.T) []control.Event {
	h.hostCh.Close()
	select {
	case err := <-h.done:
		assert.True(t, errors.Is(err, protocol.ErrClosed), "node stopped with %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("control node did not stop")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]control.Event(nil), h.events...)
}

func TestSetAndVerify(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.client.SetPassword(ctx, "4321"))
	ok, err := h.client.Verify(ctx, "4321")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.client.Verify(ctx, "1234")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, []control.Event{
		control.EventPasswordSet, control.EventVerified, control.EventRejected,
	}, h.finish(t))
	assert.Equal(t, byte('4'), h.bus.Peek(control.BaseAddress))
}

func TestOpenGateAndLock(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.client.OpenGate(ctx))
	require.NoError(t, h.client.LockSystem(ctx))

	assert.Equal(t, []control.Event{
		control.EventGateOpening, control.EventGateHeld, control.EventGateClosing, control.EventGateClosed,
		control.EventAlarmOn, control.EventAlarmOff,
	}, h.finish(t))
}

func TestUnknownOpcodeIgnored(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.client.Raw(ctx, 'x'))
	require.NoError(t, h.client.SetPassword(ctx, "9"))
	assert.Equal(t, []control.Event{control.EventPasswordSet}, h.finish(t))
}

func TestPayloadRejectedLocally(t *testing.T) {
	a, _ := protocol.Pipe()
	c := New(protocol.NewLink(a), core.NoSleep)
	err := c.SetPassword(context.Background(), "0123456789")
	assert.True(t, errors.Is(err, protocol.ErrPayloadTooLong))
}

func TestVerifyTimesOut(t *testing.T) {
	a, _ := protocol.Pipe()
	c := New(protocol.NewLink(a), core.NoSleep)
	c.Timeout = 20 * time.Millisecond
	_, err := c.Verify(context.Background(), "1")
	require.Error(t, err)
	assert.True(t, core.IsTimeout(err))
}
