//go:build rp2040

// Package board holds the RP2040 drivers shared by both node images
package board

import (
	"context"
	"machine"
	"runtime"

	"doorlock/core"
)

// UART is the inter-node link on a hardware UART
type UART struct {
	uart *machine.UART
}

// NewUART configures uart for 9600 baud, 8 data bits, no parity, 1 stop bit
func NewUART(uart *machine.UART, tx, rx machine.Pin) (*UART, error) {
	if err := uart.Configure(machine.UARTConfig{BaudRate: 9600, TX: tx, RX: rx}); err != nil {
		return nil, err
	}
	if err := uart.SetFormat(8, 1, machine.ParityNone); err != nil {
		return nil, err
	}
	return &UART{uart: uart}, nil
}

// ReadByte implements protocol.ByteChannel
func (u *UART) ReadByte(ctx context.Context) (byte, error) {
	for u.uart.Buffered() == 0 {
		if err := ctx.Err(); err != nil {
			return 0, core.ContextError("uart read", err)
		}
		runtime.Gosched()
	}
	return u.uart.ReadByte()
}

// WriteByte implements protocol.ByteChannel
func (u *UART) WriteByte(ctx context.Context, b byte) error {
	if err := ctx.Err(); err != nil {
		return core.ContextError("uart write", err)
	}
	return u.uart.WriteByte(b)
}
