// Package node connects the host to a door lock node over a serial port
package node

import (
	"fmt"
	"time"

	"doorlock/host/serial"
	"doorlock/protocol"
)

// Opener opens a serial port; serial.Open in production
type Opener func(cfg *serial.Config) (serial.Port, error)

// Conn is a serial connection to one node
type Conn struct {
	port    serial.Port
	channel *protocol.StreamChannel
	link    *protocol.Link

	connected bool

	// Settle is the pause after opening, for boards that reset on connect
	Settle time.Duration
	open   Opener
}

// NewConn creates a connection (not yet connected)
func NewConn() *Conn {
	return &Conn{
		Settle: 100 * time.Millisecond,
		open:   serial.Open,
	}
}

// Connect opens device with the node UART defaults
func (c *Conn) Connect(device string) error {
	return c.ConnectWithConfig(serial.DefaultConfig(device), 0)
}

// ConnectWithConfig opens the port and starts the line reader.
// byteTimeout bounds each protocol byte; zero disables it.
func (c *Conn) ConnectWithConfig(cfg *serial.Config, byteTimeout time.Duration) error {
	if c.connected {
		return fmt.Errorf("already connected")
	}
	port, err := c.open(cfg)
	if err != nil {
		return fmt.Errorf("failed to open serial port: %w", err)
	}

	c.port = port
	c.channel = protocol.NewStreamChannel(port)
	c.link = protocol.NewLink(c.channel)
	c.link.ByteTimeout = byteTimeout
	c.connected = true

	// Give the node time to come out of reset
	time.Sleep(c.Settle)

	// Anything received during reset is noise
	c.channel.Discard()
	return nil
}

// Link returns the protocol endpoint; nil before Connect
func (c *Conn) Link() *protocol.Link {
	return c.link
}

// Connected reports whether the port is open
func (c *Conn) Connected() bool {
	return c.connected
}

// Flush drops any unread input and returns how many bytes were dropped
func (c *Conn) Flush() (int, error) {
	if !c.connected {
		return 0, fmt.Errorf("not connected")
	}
	n := c.channel.Discard()
	if err := c.port.Flush(); err != nil {
		return n, fmt.Errorf("flush: %w", err)
	}
	return n, nil
}

// Close closes the connection
func (c *Conn) Close() error {
	if !c.connected {
		return nil
	}
	c.connected = false
	return c.channel.Close()
}
