// Package protocol implements the byte-level link between the keypad node and
// the control node: single-byte opcodes, terminator-delimited password strings
// and single-byte verify responses. There is no framing, length field or
// checksum; exactly one exchange is in flight at a time.
package protocol

import (
	"context"
	"errors"
)

// Opcode selects the operation the control node performs next
type Opcode byte

const (
	SetPassword    Opcode = '0'
	VerifyPassword Opcode = '1'
	OpenGate       Opcode = '2'
	LockSystem     Opcode = '3'
)

func (op Opcode) String() string {
	switch op {
	case SetPassword:
		return "SetPassword"
	case VerifyPassword:
		return "VerifyPassword"
	case OpenGate:
		return "OpenGate"
	case LockSystem:
		return "LockSystem"
	}
	return "Opcode(" + string([]byte{hexDigit(byte(op) >> 4), hexDigit(byte(op) & 0x0F)}) + ")"
}

// Valid reports whether op is one of the four defined opcodes
func (op Opcode) Valid() bool {
	return op >= SetPassword && op <= LockSystem
}

// Response is the single byte answering VerifyPassword
type Response byte

const (
	NoMatch Response = '0'
	Match   Response = '1'
)

func (r Response) String() string {
	switch r {
	case Match:
		return "match"
	case NoMatch:
		return "no-match"
	}
	return "response(" + string([]byte{hexDigit(byte(r) >> 4), hexDigit(byte(r) & 0x0F)}) + ")"
}

const (
	// Terminator ends every payload string on the wire
	Terminator = 0x00

	// MaxPasswordLen is the largest payload a node accepts (10-byte buffer incl. terminator)
	MaxPasswordLen = 9

	// ConfirmKey is the keypad code that ends password entry; it never goes on the wire
	ConfirmKey = 13

	// UARTBufferSize matches the depth of a hardware UART buffer
	UARTBufferSize = 64
)

var (
	// ErrPayloadTooLong is returned when a string exceeds MaxPasswordLen content bytes
	ErrPayloadTooLong = errors.New("payload too long")

	// ErrEmbeddedTerminator is returned by SendString when the payload contains
	// the terminator byte, which would truncate it at the receiver
	ErrEmbeddedTerminator = errors.New("payload contains terminator byte")

	// ErrUnknownOpcode is returned by dispatchers for bytes outside the opcode set
	ErrUnknownOpcode = errors.New("unknown opcode")

	// ErrClosed is returned by channels whose peer has gone away
	ErrClosed = errors.New("channel closed")
)

// ByteChannel is the ordered, error-free byte stream between the two nodes.
// WriteByte blocks until the byte is accepted for transmission; ReadByte
// blocks until one arrives. Both end with a timeout error when ctx does.
type ByteChannel interface {
	WriteByte(ctx context.Context, b byte) error
	ReadByte(ctx context.Context) (byte, error)
}

func hexDigit(n byte) byte {
	return "0123456789ABCDEF"[n&0x0F]
}

// Matched reports whether the first n bytes of a and b are equal.
// Inputs shorter than n never match.
func Matched(a, b []byte, n int) bool {
	if n > len(a) || n > len(b) {
		return false
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
