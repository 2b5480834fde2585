package protocol

import (
	"context"
	"sync"

	"doorlock/core"
)

// fifoQueue is one direction of a Pipe: a UART-sized ring with wakeups for
// the blocked reader and writer
type fifoQueue struct {
	mu       sync.Mutex
	fifo     *FifoBuffer
	closed   bool
	readable chan struct{}
	writable chan struct{}
}

func newFifoQueue(size int) *fifoQueue {
	return &fifoQueue{
		fifo:     NewFifoBuffer(size + 1),
		readable: make(chan struct{}, 1),
		writable: make(chan struct{}, 1),
	}
}

func wake(c chan struct{}) {
	select {
	case c <- struct{}{}:
	default:
	}
}

func (q *fifoQueue) push(ctx context.Context, b byte) error {
	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return ErrClosed
		}
		ok := q.fifo.Push(b)
		q.mu.Unlock()
		if ok {
			wake(q.readable)
			return nil
		}

		select {
		case <-q.writable:
		case <-ctx.Done():
			return core.ContextError("pipe write", ctx.Err())
		}
	}
}

func (q *fifoQueue) shift(ctx context.Context) (byte, error) {
	for {
		q.mu.Lock()
		b, ok := q.fifo.Shift()
		closed := q.closed
		q.mu.Unlock()
		if ok {
			wake(q.writable)
			return b, nil
		}
		if closed {
			return 0, ErrClosed
		}

		select {
		case <-q.readable:
		case <-ctx.Done():
			return 0, core.ContextError("pipe read", ctx.Err())
		}
	}
}

func (q *fifoQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	wake(q.readable)
	wake(q.writable)
}

// PipeEnd is one endpoint of an in-memory link
type PipeEnd struct {
	in, out *fifoQueue
}

// Pipe returns two connected endpoints. Each direction buffers
// UARTBufferSize bytes; a writer blocks while its direction is full.
func Pipe() (*PipeEnd, *PipeEnd) {
	ab := newFifoQueue(UARTBufferSize)
	ba := newFifoQueue(UARTBufferSize)
	return &PipeEnd{in: ba, out: ab}, &PipeEnd{in: ab, out: ba}
}

// WriteByte implements ByteChannel
func (p *PipeEnd) WriteByte(ctx context.Context, b byte) error {
	return p.out.push(ctx, b)
}

// ReadByte implements ByteChannel. Bytes already buffered are still
// delivered after the peer closes.
func (p *PipeEnd) ReadByte(ctx context.Context) (byte, error) {
	return p.in.shift(ctx)
}

// Buffered returns the number of bytes waiting to be read
func (p *PipeEnd) Buffered() int {
	p.in.mu.Lock()
	defer p.in.mu.Unlock()
	return p.in.fifo.Available()
}

// Close shuts both directions
func (p *PipeEnd) Close() error {
	p.out.close()
	p.in.close()
	return nil
}
