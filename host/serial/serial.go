// Package serial opens the UART link between a host and a node
package serial

import (
	"fmt"
	"io"
)

// Port represents a serial port interface
// This abstraction allows for different implementations:
// - Native serial (github.com/tarm/serial)
// - go.bug.st/serial, which also enumerates ports
// - Mock serial (for testing)
type Port interface {
	io.ReadWriteCloser

	// Flush discards any buffered data
	Flush() error
}

// Backend names a serial implementation
type Backend string

const (
	BackendTarm  Backend = "tarm"
	BackendBugst Backend = "bugst"
)

// Parity mirrors the UART frame setting
type Parity string

const (
	ParityNone Parity = "none"
	ParityEven Parity = "even"
	ParityOdd  Parity = "odd"
)

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyUSB0", "COM3")
	Device string

	Baud     int
	DataBits int
	Parity   Parity
	StopBits int

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int

	Backend Backend
}

// DefaultConfig returns the node UART settings: 9600 baud, 8 data bits,
// no parity, one stop bit
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        9600,
		DataBits:    8,
		Parity:      ParityNone,
		StopBits:    1,
		ReadTimeout: 100,
		Backend:     BackendTarm,
	}
}

// Validate checks the frame settings
func (c *Config) Validate() error {
	if c.Device == "" {
		return fmt.Errorf("serial device is required")
	}
	if c.Baud <= 0 {
		return fmt.Errorf("invalid baud rate %d", c.Baud)
	}
	if c.DataBits < 5 || c.DataBits > 8 {
		return fmt.Errorf("invalid data bits %d", c.DataBits)
	}
	switch c.Parity {
	case ParityNone, ParityEven, ParityOdd:
	default:
		return fmt.Errorf("invalid parity %q", c.Parity)
	}
	if c.StopBits != 1 && c.StopBits != 2 {
		return fmt.Errorf("invalid stop bits %d", c.StopBits)
	}
	switch c.Backend {
	case "", BackendTarm, BackendBugst:
	default:
		return fmt.Errorf("unknown serial backend %q", c.Backend)
	}
	return nil
}

// Open opens the port with the configured backend
func Open(cfg *Config) (Port, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Backend == BackendBugst {
		return openBugst(cfg)
	}
	return openTarm(cfg)
}
