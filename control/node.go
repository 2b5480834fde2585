package control

import (
	"context"
	"errors"

	"doorlock/core"
	"doorlock/protocol"
)

// Config wires a Node to its peripherals
type Config struct {
	Link     *protocol.Link
	Store    PasswordStore
	Actuator Actuator
	Alarm    Alarm
	Timer    core.Delayer

	// OnEvent, when set, is called after each step of an operation
	OnEvent func(Event)
}

// Node is the control application. The password length lives in memory
// only: after a restart it is zero until the next SetPassword.
type Node struct {
	link     *protocol.Link
	store    PasswordStore
	actuator Actuator
	alarm    Alarm
	timer    core.Delayer
	notify   func(Event)

	registry *Registry
	passLen  int
}

// New creates a node with the four opcodes registered
func New(cfg Config) *Node {
	n := &Node{
		link:     cfg.Link,
		store:    cfg.Store,
		actuator: cfg.Actuator,
		alarm:    cfg.Alarm,
		timer:    cfg.Timer,
		notify:   cfg.OnEvent,
		registry: NewRegistry(),
	}
	n.registry.Register(protocol.SetPassword, "set_password", n.setPassword)
	n.registry.Register(protocol.VerifyPassword, "verify_password", n.verifyPassword)
	n.registry.Register(protocol.OpenGate, "open_gate", n.OpenGate)
	n.registry.Register(protocol.LockSystem, "lock_system", n.LockSystem)
	return n
}

// Registry exposes the opcode table
func (n *Node) Registry() *Registry {
	return n.registry
}

// PasswordLength returns the recorded length of the stored password
func (n *Node) PasswordLength() int {
	return n.passLen
}

func (n *Node) emit(e Event) {
	core.Logf("control", e.String())
	if n.notify != nil {
		n.notify(e)
	}
}

// Step receives one opcode and runs it. Unknown opcodes are logged and
// skipped; the returned error is reserved for link and actuator failures.
func (n *Node) Step(ctx context.Context) error {
	op, err := n.link.ReceiveOpcode(ctx)
	if err != nil {
		return err
	}
	err = n.registry.Dispatch(ctx, op)
	if errors.Is(err, protocol.ErrUnknownOpcode) {
		core.Logf("control", "ignoring", err.Error())
		return nil
	}
	return err
}

// Run serves opcodes until ctx ends or the link fails
func (n *Node) Run(ctx context.Context) error {
	for {
		if err := n.Step(ctx); err != nil {
			return err
		}
	}
}

// SetPassword stores pass at BaseAddress and records its length
func (n *Node) SetPassword(ctx context.Context, pass []byte) error {
	written, err := n.store.WriteBytes(ctx, BaseAddress, pass)
	n.passLen = written
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		// The length still counts every byte attempted
		core.Logf("control", "store failed:", err.Error())
		n.emit(EventStorageError)
		return nil
	}
	n.emit(EventPasswordSet)
	return nil
}

// Verify compares pass against the stored password. A length difference or
// any storage error is a mismatch.
func (n *Node) Verify(ctx context.Context, pass []byte) (protocol.Response, error) {
	if len(pass) != n.passLen {
		n.emit(EventRejected)
		return protocol.NoMatch, nil
	}
	stored, err := n.store.ReadBytes(ctx, BaseAddress, n.passLen)
	if err != nil {
		if ctx.Err() != nil {
			return protocol.NoMatch, err
		}
		core.Logf("control", "load failed:", err.Error())
		n.emit(EventStorageError)
		n.emit(EventRejected)
		return protocol.NoMatch, nil
	}
	if !protocol.Matched(pass, stored, n.passLen) {
		n.emit(EventRejected)
		return protocol.NoMatch, nil
	}
	n.emit(EventVerified)
	return protocol.Match, nil
}

func (n *Node) setPassword(ctx context.Context) error {
	pass, err := n.link.ReceiveString(ctx)
	if err != nil {
		return n.payloadError(err)
	}
	return n.SetPassword(ctx, pass)
}

func (n *Node) verifyPassword(ctx context.Context) error {
	pass, err := n.link.ReceiveString(ctx)
	if err != nil {
		if err = n.payloadError(err); err != nil {
			return err
		}
		// An oversize payload can never match; the peer still waits for an answer
		return n.link.SendResponse(ctx, protocol.NoMatch)
	}
	resp, err := n.Verify(ctx, pass)
	if err != nil {
		return err
	}
	return n.link.SendResponse(ctx, resp)
}

// payloadError swallows an oversize payload (the stream is already realigned)
func (n *Node) payloadError(err error) error {
	if errors.Is(err, protocol.ErrPayloadTooLong) {
		core.Logf("control", "dropping oversize payload")
		return nil
	}
	return err
}

// OpenGate runs the motor forward, holds, then reverses
func (n *Node) OpenGate(ctx context.Context) error {
	if err := n.actuator.Forward(); err != nil {
		return err
	}
	n.emit(EventGateOpening)
	if err := n.timer.Delay(ctx, core.Delay15s); err != nil {
		n.actuator.Stop()
		return err
	}

	if err := n.actuator.Stop(); err != nil {
		return err
	}
	n.emit(EventGateHeld)
	if err := n.timer.Delay(ctx, core.Delay3s); err != nil {
		return err
	}

	if err := n.actuator.Reverse(); err != nil {
		return err
	}
	n.emit(EventGateClosing)
	if err := n.timer.Delay(ctx, core.Delay15s); err != nil {
		n.actuator.Stop()
		return err
	}

	if err := n.actuator.Stop(); err != nil {
		return err
	}
	n.emit(EventGateClosed)
	return nil
}

// LockSystem sounds the alarm for the lockout period
func (n *Node) LockSystem(ctx context.Context) error {
	if err := n.alarm.On(); err != nil {
		return err
	}
	n.emit(EventAlarmOn)
	for i := 0; i < LockWaits; i++ {
		if err := n.timer.Delay(ctx, core.Delay15s); err != nil {
			n.alarm.Off()
			return err
		}
	}
	if err := n.alarm.Off(); err != nil {
		return err
	}
	n.emit(EventAlarmOff)
	return nil
}
