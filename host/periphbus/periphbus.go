// Package periphbus exposes a core.BusMaster as a periph.io I2C bus, so
// periph device drivers and i2c.Dev handles can address the EEPROM through
// the same byte-level master the Control node uses.
package periphbus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"doorlock/core"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
)

// DefaultSpeed is the bus rate the storage protocol is specified for
const DefaultSpeed = 400 * physic.KiloHertz

// frequencySetter is implemented by masters whose bit rate can change
type frequencySetter interface {
	SetFrequency(hz uint32) error
}

// Bus adapts a BusMaster to i2c.BusCloser
type Bus struct {
	mu     sync.Mutex
	name   string
	master core.BusMaster
	speed  physic.Frequency

	// Timeout bounds a whole transaction; zero disables it
	Timeout time.Duration
}

var _ i2c.BusCloser = (*Bus)(nil)

// New wraps master under name
func New(name string, master core.BusMaster) *Bus {
	return &Bus{
		name:    name,
		master:  master,
		speed:   DefaultSpeed,
		Timeout: 100 * time.Millisecond,
	}
}

// String implements conn.Resource
func (b *Bus) String() string {
	return b.name
}

// Close releases the bus lines
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.master.Stop()
}

// Speed returns the last accepted bus rate
func (b *Bus) Speed() physic.Frequency {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.speed
}

// SetSpeed implements i2c.Bus
func (b *Bus) SetSpeed(f physic.Frequency) error {
	if f <= 0 || f > physic.MegaHertz {
		return fmt.Errorf("periphbus: invalid speed %s", f)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if fs, ok := b.master.(frequencySetter); ok {
		if err := fs.SetFrequency(uint32(f / physic.Hertz)); err != nil {
			return fmt.Errorf("periphbus: set speed %s: %w", f, err)
		}
	}
	b.speed = f
	return nil
}

// Tx implements i2c.Bus: an optional write phase, an optional read phase
// behind a repeated start, then stop. addr is the 7-bit device address.
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	if addr > 0x7F {
		return fmt.Errorf("periphbus: invalid address 0x%X", addr)
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	ctx := context.Background()
	if b.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.Timeout)
		defer cancel()
	}

	err := b.tx(ctx, byte(addr), w, r)
	if err != nil {
		// A stop is the only way to hand a stuck transaction back
		b.master.Stop()
		return fmt.Errorf("periphbus: tx 0x%02X: %w", addr, err)
	}
	return b.master.Stop()
}

func (b *Bus) tx(ctx context.Context, addr byte, w, r []byte) error {
	started := false
	if len(w) > 0 || len(r) == 0 {
		if err := b.start(ctx, started); err != nil {
			return err
		}
		started = true
		if err := b.write(ctx, addr<<1, core.StatusSelectWriteAck); err != nil {
			return err
		}
		for _, c := range w {
			if err := b.write(ctx, c, core.StatusDataSentAck); err != nil {
				return err
			}
		}
	}
	if len(r) == 0 {
		return nil
	}

	if err := b.start(ctx, started); err != nil {
		return err
	}
	if err := b.write(ctx, addr<<1|1, core.StatusSelectReadAck); err != nil {
		return err
	}
	for i := range r {
		last := i == len(r)-1
		v, err := b.master.ReadByte(ctx, !last)
		if err != nil {
			return err
		}
		want := core.StatusDataReceivedAck
		if last {
			want = core.StatusDataReceivedNack
		}
		if err := b.expect("read", want); err != nil {
			return err
		}
		r[i] = v
	}
	return nil
}

func (b *Bus) start(ctx context.Context, repeated bool) error {
	if err := b.master.Start(ctx); err != nil {
		return err
	}
	if repeated {
		return b.expect("repeated start", core.StatusRepeatedStart)
	}
	return b.expect("start", core.StatusStart)
}

func (b *Bus) write(ctx context.Context, c byte, want core.BusStatus) error {
	if err := b.master.WriteByte(ctx, c); err != nil {
		return err
	}
	return b.expect("write", want)
}

func (b *Bus) expect(step string, want core.BusStatus) error {
	if got := b.master.Status(); got != want {
		return fmt.Errorf("%s: expected %s, got %s: %w", step, want, got, core.ErrBusProtocol)
	}
	return nil
}

// Register makes the bus reachable through i2creg.Open(name)
func Register(b *Bus) error {
	return i2creg.Register(b.name, nil, -1, func() (i2c.BusCloser, error) {
		return b, nil
	})
}
