package protocol

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"time"

	"doorlock/core"
)

// StreamChannel adapts a serial port (any io.ReadWriteCloser) to ByteChannel.
// A background reader moves incoming bytes into a FIFO; ReadByte waits on it.
// The port should be opened with a read timeout so Close can stop the reader.
type StreamChannel struct {
	port io.ReadWriteCloser

	mu       sync.Mutex
	input    *FifoBuffer
	err      error
	readable chan struct{}

	writeMutex sync.Mutex

	stopChan chan struct{}
	doneChan chan struct{}
}

// NewStreamChannel starts the reader on port
func NewStreamChannel(port io.ReadWriteCloser) *StreamChannel {
	s := &StreamChannel{
		port:     port,
		input:    NewFifoBuffer(512),
		readable: make(chan struct{}, 1),
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
	go s.readLoop()
	return s
}

// readLoop continuously reads from the port into the input buffer
func (s *StreamChannel) readLoop() {
	defer close(s.doneChan)

	buffer := make([]byte, 64)
	for {
		select {
		case <-s.stopChan:
			return
		default:
		}

		n, err := s.port.Read(buffer)
		if n > 0 {
			s.mu.Lock()
			stored := s.input.Write(buffer[:n])
			s.mu.Unlock()
			if stored < n {
				core.Logf("stream", "input overrun, dropped", core.Itoa(n-stored))
			}
			wake(s.readable)
		}
		if err != nil {
			select {
			case <-s.stopChan:
				return
			default:
			}
			if errors.Is(err, os.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
				s.fail(ErrClosed)
				return
			}
			if !transientReadError(err) {
				core.Logf("stream", "read failed:", err.Error())
				s.fail(err)
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// transientReadError reports whether a port read error only means no data
// arrived in time. A serial read timeout surfaces as io.EOF.
func transientReadError(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}

func (s *StreamChannel) fail(err error) {
	s.mu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.mu.Unlock()
	wake(s.readable)
}

// ReadByte implements ByteChannel
func (s *StreamChannel) ReadByte(ctx context.Context) (byte, error) {
	for {
		s.mu.Lock()
		b, ok := s.input.Shift()
		err := s.err
		s.mu.Unlock()
		if ok {
			return b, nil
		}
		if err != nil {
			return 0, err
		}

		select {
		case <-s.readable:
		case <-ctx.Done():
			return 0, core.ContextError("serial read", ctx.Err())
		}
	}
}

// WriteByte implements ByteChannel. The port write itself is not cancellable;
// ctx is checked before it starts.
func (s *StreamChannel) WriteByte(ctx context.Context, b byte) error {
	if err := ctx.Err(); err != nil {
		return core.ContextError("serial write", err)
	}
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()

	_, err := s.port.Write([]byte{b})
	return err
}

// Close stops the reader and closes the port
func (s *StreamChannel) Close() error {
	close(s.stopChan)
	err := s.port.Close()
	<-s.doneChan
	return err
}

// Discard drops every byte received but not yet read
func (s *StreamChannel) Discard() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.input.Available()
	s.input.Reset()
	return n
}
