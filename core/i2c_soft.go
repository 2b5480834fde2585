package core

import (
	"context"
	"runtime"
	"time"
)

// BusLine is one open-drain line of the two-wire bus
type BusLine interface {
	Low() error
	Release() error
	Get() (bool, error)
}

// SoftBus is a bit-banged two-wire master. It synthesizes the same status
// codes as a hardware controller from the ACK bits it observes, so the
// storage protocol runs unchanged on boards without a byte-level controller.
type SoftBus struct {
	scl, sda   BusLine
	halfPeriod time.Duration
	delay      func(time.Duration)
	status     BusStatus
	started    bool
	selecting  bool
}

// NewSoftBus creates a master on the given lines at frequencyHz.
// delay performs the half-period waits; nil uses a busy-wait on the runtime clock.
func NewSoftBus(scl, sda BusLine, frequencyHz uint32, delay func(time.Duration)) *SoftBus {
	if frequencyHz == 0 {
		frequencyHz = 400000
	}
	if delay == nil {
		delay = spinDelay
	}
	return &SoftBus{
		scl:        scl,
		sda:        sda,
		halfPeriod: time.Second / time.Duration(2*frequencyHz),
		delay:      delay,
		status:     StatusIdle,
	}
}

// SetFrequency changes the bit rate for subsequent transfers
func (b *SoftBus) SetFrequency(hz uint32) error {
	if hz == 0 || hz > 1000000 {
		return ErrBusProtocol
	}
	b.halfPeriod = time.Second / time.Duration(2*hz)
	return nil
}

// HalfPeriod returns the current half bit time
func (b *SoftBus) HalfPeriod() time.Duration {
	return b.halfPeriod
}

// spinDelay busy-waits; time.Sleep granularity is far coarser than a bus bit
func spinDelay(d time.Duration) {
	if d <= 0 {
		return
	}
	end := time.Now().Add(d)
	for time.Now().Before(end) {
	}
}

// releaseSCL lets the clock rise and waits while a slave stretches it
func (b *SoftBus) releaseSCL(ctx context.Context) error {
	if err := b.scl.Release(); err != nil {
		return err
	}
	for {
		high, err := b.scl.Get()
		if err != nil {
			return err
		}
		if high {
			return nil
		}
		if err := ctx.Err(); err != nil {
			RecordTrace(EvtBusTimeout, uint8(b.status), 0, 0)
			return ContextError("bus clock stretch", err)
		}
		runtime.Gosched()
	}
}

func (b *SoftBus) setSDA(high bool) error {
	if high {
		return b.sda.Release()
	}
	return b.sda.Low()
}

// Start implements BusMaster
func (b *SoftBus) Start(ctx context.Context) error {
	repeated := b.started
	if repeated {
		// Bring both lines high again without creating a stop
		if err := b.sda.Release(); err != nil {
			return err
		}
		b.delay(b.halfPeriod)
		if err := b.releaseSCL(ctx); err != nil {
			return err
		}
		b.delay(b.halfPeriod)
	} else {
		high, err := b.sda.Get()
		if err != nil {
			return err
		}
		if !high {
			// Another device holds the data line
			b.status = StatusArbitrationLost
			return nil
		}
	}

	if err := b.sda.Low(); err != nil {
		return err
	}
	b.delay(b.halfPeriod)
	if err := b.scl.Low(); err != nil {
		return err
	}

	b.started = true
	b.selecting = true
	if repeated {
		b.status = StatusRepeatedStart
	} else {
		b.status = StatusStart
	}
	return nil
}

// Stop implements BusMaster. The final release is not checked for completion.
func (b *SoftBus) Stop() error {
	if err := b.sda.Low(); err != nil {
		return err
	}
	b.delay(b.halfPeriod)
	if err := b.scl.Release(); err != nil {
		return err
	}
	b.delay(b.halfPeriod)
	if err := b.sda.Release(); err != nil {
		return err
	}
	b.started = false
	b.selecting = false
	b.status = StatusIdle
	return nil
}

// clockBit emits one bit and returns the level sampled while SCL is high
func (b *SoftBus) clockBit(ctx context.Context, high bool) (bool, error) {
	if err := b.setSDA(high); err != nil {
		return false, err
	}
	b.delay(b.halfPeriod)
	if err := b.releaseSCL(ctx); err != nil {
		return false, err
	}
	level, err := b.sda.Get()
	if err != nil {
		return false, err
	}
	b.delay(b.halfPeriod)
	if err := b.scl.Low(); err != nil {
		return false, err
	}
	return level, nil
}

// WriteByte implements BusMaster
func (b *SoftBus) WriteByte(ctx context.Context, v byte) error {
	for bit := 7; bit >= 0; bit-- {
		if _, err := b.clockBit(ctx, v&(1<<uint(bit)) != 0); err != nil {
			return err
		}
	}
	// Release the data line for the slave's ACK
	level, err := b.clockBit(ctx, true)
	if err != nil {
		return err
	}
	acked := !level

	if b.selecting {
		b.selecting = false
		read := v&0x01 != 0
		switch {
		case read && acked:
			b.status = StatusSelectReadAck
		case read:
			b.status = StatusSelectReadNack
		case acked:
			b.status = StatusSelectWriteAck
		default:
			b.status = StatusSelectWriteNack
		}
		return nil
	}
	if acked {
		b.status = StatusDataSentAck
	} else {
		b.status = StatusDataSentNack
	}
	return nil
}

// ReadByte implements BusMaster
func (b *SoftBus) ReadByte(ctx context.Context, ack bool) (byte, error) {
	var v byte
	for bit := 0; bit < 8; bit++ {
		level, err := b.clockBit(ctx, true)
		if err != nil {
			return 0, err
		}
		v <<= 1
		if level {
			v |= 1
		}
	}
	if _, err := b.clockBit(ctx, !ack); err != nil {
		return 0, err
	}
	if err := b.sda.Release(); err != nil {
		return 0, err
	}
	if ack {
		b.status = StatusDataReceivedAck
	} else {
		b.status = StatusDataReceivedNack
	}
	return v, nil
}

// Status implements BusMaster
func (b *SoftBus) Status() BusStatus {
	return b.status
}
