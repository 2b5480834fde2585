// Package remote drives a Control node from a host, standing in for the HMI node
package remote

import (
	"context"
	"fmt"
	"time"

	"doorlock/core"
	"doorlock/protocol"
)

// OpcodeGap is the pause the HMI leaves between the verify opcode and its payload
const OpcodeGap = 10 * time.Millisecond

// Client issues Control-node commands over a Link
type Client struct {
	link  *protocol.Link
	sleep core.SleepFunc

	// Timeout bounds each command; zero leaves only the caller's context
	Timeout time.Duration
}

// New creates a client. sleep paces the verify opcode gap; nil uses core.Sleep.
func New(link *protocol.Link, sleep core.SleepFunc) *Client {
	if sleep == nil {
		sleep = core.Sleep
	}
	return &Client{link: link, sleep: sleep}
}

func (c *Client) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.Timeout > 0 {
		return context.WithTimeout(ctx, c.Timeout)
	}
	return context.WithCancel(ctx)
}

// SetPassword stores pass on the Control node
func (c *Client) SetPassword(ctx context.Context, pass string) error {
	ctx, cancel := c.bounded(ctx)
	defer cancel()
	if err := c.link.SendOpcode(ctx, protocol.SetPassword); err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	if err := c.link.SendString(ctx, []byte(pass)); err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	return nil
}

// Verify asks whether pass matches the stored password
func (c *Client) Verify(ctx context.Context, pass string) (bool, error) {
	ctx, cancel := c.bounded(ctx)
	defer cancel()
	if err := c.link.SendOpcode(ctx, protocol.VerifyPassword); err != nil {
		return false, fmt.Errorf("verify: %w", err)
	}
	if err := c.sleep(ctx, OpcodeGap); err != nil {
		return false, fmt.Errorf("verify: %w", err)
	}
	if err := c.link.SendString(ctx, []byte(pass)); err != nil {
		return false, fmt.Errorf("verify: %w", err)
	}
	resp, err := c.link.ReceiveResponse(ctx)
	if err != nil {
		return false, fmt.Errorf("verify: %w", err)
	}
	return resp == protocol.Match, nil
}

// OpenGate starts the gate cycle. The Control node does not acknowledge it;
// the call returns once the opcode is sent.
func (c *Client) OpenGate(ctx context.Context) error {
	return c.send(ctx, protocol.OpenGate, "open gate")
}

// LockSystem starts the alarm lockout
func (c *Client) LockSystem(ctx context.Context) error {
	return c.send(ctx, protocol.LockSystem, "lock system")
}

// Raw sends an arbitrary opcode byte
func (c *Client) Raw(ctx context.Context, b byte) error {
	return c.send(ctx, protocol.Opcode(b), "raw "+protocol.Opcode(b).String())
}

func (c *Client) send(ctx context.Context, op protocol.Opcode, what string) error {
	ctx, cancel := c.bounded(ctx)
	defer cancel()
	if err := c.link.SendOpcode(ctx, op); err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	return nil
}
