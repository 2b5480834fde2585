package core

import (
	"context"
	"errors"
	"io"
	"sync"
)

// SimOpKind identifies one primitive on the simulated bus
type SimOpKind uint8

const (
	SimStart SimOpKind = iota
	SimStop
	SimWrite
	SimRead
)

// SimOp is one logged bus primitive and the status it produced
type SimOp struct {
	Kind   SimOpKind
	Data   byte
	Ack    bool
	Status BusStatus
}

type simPhase uint8

const (
	phaseIdle simPhase = iota
	phaseSelect
	phaseWordAddress
	phaseWriteData
	phaseReadData
)

// simFault replaces the outcome of one future operation
type simFault struct {
	after  int
	status BusStatus
	stall  bool
}

// SimEEPROMSize is the capacity of the simulated 24C16-style device
const SimEEPROMSize = 2048

const simPageSize = 16

// SimBus is an in-memory two-wire bus master with one 24C16-style EEPROM
// attached at device code 0xA0. Block bits A10..A8 travel in the select byte.
type SimBus struct {
	mu      sync.Mutex
	mem     [SimEEPROMSize]byte
	status  BusStatus
	inTx    bool
	phase   simPhase
	block   uint16
	pointer uint16
	ops     []SimOp
	faults  []simFault
}

// NewSimBus creates a bus with an erased (0xFF) EEPROM
func NewSimBus() *SimBus {
	b := &SimBus{status: StatusIdle}
	for i := range b.mem {
		b.mem[i] = 0xFF
	}
	return b
}

// FailAfter makes the operation n steps from now (0 = next) report status
// without touching the device
func (b *SimBus) FailAfter(n int, status BusStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.faults = append(b.faults, simFault{after: n, status: status})
}

// StallAfter makes the operation n steps from now never complete
func (b *SimBus) StallAfter(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.faults = append(b.faults, simFault{after: n, stall: true})
}

// takeFault consumes the fault scheduled for the current operation, if any.
// Must be called with b.mu held.
func (b *SimBus) takeFault() (simFault, bool) {
	var hit simFault
	found := false
	kept := b.faults[:0]
	for _, f := range b.faults {
		if f.after == 0 && !found {
			hit, found = f, true
			continue
		}
		f.after--
		kept = append(kept, f)
	}
	b.faults = kept
	return hit, found
}

// begin applies any scheduled fault; the returned bool reports whether the
// operation should proceed normally
func (b *SimBus) begin(ctx context.Context, kind SimOpKind, data byte, ack bool) (bool, error) {
	b.mu.Lock()
	f, ok := b.takeFault()
	if !ok {
		b.mu.Unlock()
		return true, nil
	}
	if f.stall {
		b.mu.Unlock()
		if ctx == nil {
			return false, nil
		}
		<-ctx.Done()
		RecordTrace(EvtBusTimeout, uint8(kind), 0, 0)
		return false, ContextError("bus", ctx.Err())
	}
	b.status = f.status
	b.ops = append(b.ops, SimOp{Kind: kind, Data: data, Ack: ack, Status: f.status})
	b.mu.Unlock()
	return false, nil
}

func (b *SimBus) log(kind SimOpKind, data byte, ack bool) {
	b.ops = append(b.ops, SimOp{Kind: kind, Data: data, Ack: ack, Status: b.status})
}

// Start implements BusMaster
func (b *SimBus) Start(ctx context.Context) error {
	if proceed, err := b.begin(ctx, SimStart, 0, false); !proceed {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.inTx {
		b.status = StatusRepeatedStart
	} else {
		b.status = StatusStart
	}
	b.inTx = true
	b.phase = phaseSelect
	b.log(SimStart, 0, false)
	return nil
}

// Stop implements BusMaster
func (b *SimBus) Stop() error {
	if proceed, err := b.begin(nil, SimStop, 0, false); !proceed {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.inTx = false
	b.phase = phaseIdle
	b.status = StatusIdle
	b.log(SimStop, 0, false)
	return nil
}

// WriteByte implements BusMaster
func (b *SimBus) WriteByte(ctx context.Context, data byte) error {
	if proceed, err := b.begin(ctx, SimWrite, data, false); !proceed {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.phase {
	case phaseSelect:
		read := data&0x01 != 0
		if data&0xF0 != 0xA0 {
			// Nobody answers at this device code
			if read {
				b.status = StatusSelectReadNack
			} else {
				b.status = StatusSelectWriteNack
			}
			b.phase = phaseIdle
			break
		}
		b.block = uint16(data>>1) & 0x07
		if read {
			b.status = StatusSelectReadAck
			b.phase = phaseReadData
		} else {
			b.status = StatusSelectWriteAck
			b.phase = phaseWordAddress
		}
	case phaseWordAddress:
		b.pointer = b.block<<8 | uint16(data)
		b.status = StatusDataSentAck
		b.phase = phaseWriteData
	case phaseWriteData:
		b.mem[b.pointer] = data
		// Page writes roll over within the 16-byte page
		b.pointer = (b.pointer &^ (simPageSize - 1)) | ((b.pointer + 1) & (simPageSize - 1))
		b.status = StatusDataSentAck
	default:
		b.status = StatusIdle
	}
	b.log(SimWrite, data, false)
	return nil
}

// ReadByte implements BusMaster
func (b *SimBus) ReadByte(ctx context.Context, ack bool) (byte, error) {
	if proceed, err := b.begin(ctx, SimRead, 0, ack); !proceed {
		return 0xFF, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.phase != phaseReadData {
		b.status = StatusIdle
		b.log(SimRead, 0xFF, ack)
		return 0xFF, nil
	}
	v := b.mem[b.pointer]
	b.pointer = (b.pointer + 1) % SimEEPROMSize
	if ack {
		b.status = StatusDataReceivedAck
	} else {
		b.status = StatusDataReceivedNack
	}
	b.log(SimRead, v, ack)
	return v, nil
}

// Status implements BusMaster
func (b *SimBus) Status() BusStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

// Ops returns the operation log
func (b *SimBus) Ops() []SimOp {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]SimOp(nil), b.ops...)
}

// ResetOps clears the operation log
func (b *SimBus) ResetOps() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ops = nil
}

// Peek reads device memory directly (bypassing the bus)
func (b *SimBus) Peek(addr uint16) byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mem[addr%SimEEPROMSize]
}

// Poke writes device memory directly (bypassing the bus)
func (b *SimBus) Poke(addr uint16, v byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mem[addr%SimEEPROMSize] = v
}

// LoadImage fills the device from a raw SimEEPROMSize-byte image
func (b *SimBus) LoadImage(r io.Reader) error {
	var img [SimEEPROMSize]byte
	if _, err := io.ReadFull(r, img[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return errors.New("eeprom image must be exactly " + Itoa(SimEEPROMSize) + " bytes")
		}
		return err
	}
	b.mu.Lock()
	b.mem = img
	b.mu.Unlock()
	return nil
}

// SaveImage writes the raw device contents
func (b *SimBus) SaveImage(w io.Writer) error {
	b.mu.Lock()
	img := b.mem
	b.mu.Unlock()
	_, err := w.Write(img[:])
	return err
}
