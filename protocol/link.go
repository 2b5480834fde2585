package protocol

import (
	"bytes"
	"context"
	"time"

	"doorlock/core"
)

// Link runs the opcode protocol over a ByteChannel
type Link struct {
	ch ByteChannel

	// ByteTimeout bounds each single byte transfer on top of the caller's
	// context; zero leaves only the caller's deadline
	ByteTimeout time.Duration
}

// NewLink creates a protocol endpoint
func NewLink(ch ByteChannel) *Link {
	return &Link{ch: ch}
}

// Channel returns the underlying byte channel
func (l *Link) Channel() ByteChannel {
	return l.ch
}

func (l *Link) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	if l.ByteTimeout > 0 {
		return context.WithTimeout(ctx, l.ByteTimeout)
	}
	return ctx, func() {}
}

func (l *Link) writeByte(ctx context.Context, b byte) error {
	bctx, cancel := l.bounded(ctx)
	defer cancel()
	if err := l.ch.WriteByte(bctx, b); err != nil {
		return &Error{Op: "send", Err: err}
	}
	return nil
}

func (l *Link) readByte(ctx context.Context) (byte, error) {
	bctx, cancel := l.bounded(ctx)
	defer cancel()
	b, err := l.ch.ReadByte(bctx)
	if err != nil {
		return 0, &Error{Op: "receive", Err: err}
	}
	return b, nil
}

// Error wraps a channel failure with the transfer direction. Timeouts stay
// matchable with core.IsTimeout through Unwrap.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return "link " + e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// SendOpcode transmits one opcode byte
func (l *Link) SendOpcode(ctx context.Context, op Opcode) error {
	core.RecordTrace(core.EvtLinkOpcode, byte(op), 0, 0)
	return l.writeByte(ctx, byte(op))
}

// ReceiveOpcode blocks for the next opcode byte. Bytes outside the opcode set
// are returned as-is; the dispatcher decides what to do with them.
func (l *Link) ReceiveOpcode(ctx context.Context) (Opcode, error) {
	b, err := l.readByte(ctx)
	if err != nil {
		return 0, err
	}
	core.RecordTrace(core.EvtLinkOpcode, b, 1, 0)
	return Opcode(b), nil
}

// SendString transmits the payload followed by the terminator
func (l *Link) SendString(ctx context.Context, s []byte) error {
	if len(s) > MaxPasswordLen {
		return ErrPayloadTooLong
	}
	if bytes.IndexByte(s, Terminator) >= 0 {
		return ErrEmbeddedTerminator
	}
	for _, b := range s {
		if err := l.writeByte(ctx, b); err != nil {
			return err
		}
	}
	return l.writeByte(ctx, Terminator)
}

// ReceiveString reads bytes up to the terminator and returns the content.
// An oversize payload is still drained to its terminator so the stream stays
// aligned, then reported as ErrPayloadTooLong.
func (l *Link) ReceiveString(ctx context.Context) ([]byte, error) {
	buf := make([]byte, 0, MaxPasswordLen)
	overflow := false
	for {
		b, err := l.readByte(ctx)
		if err != nil {
			return buf, err
		}
		if b == Terminator {
			break
		}
		if len(buf) == MaxPasswordLen {
			overflow = true
			continue
		}
		buf = append(buf, b)
	}
	if overflow {
		return buf, ErrPayloadTooLong
	}
	return buf, nil
}

// SendResponse transmits the verify outcome
func (l *Link) SendResponse(ctx context.Context, r Response) error {
	return l.writeByte(ctx, byte(r))
}

// ReceiveResponse blocks for the verify outcome byte
func (l *Link) ReceiveResponse(ctx context.Context) (Response, error) {
	b, err := l.readByte(ctx)
	if err != nil {
		return NoMatch, err
	}
	return Response(b), nil
}
