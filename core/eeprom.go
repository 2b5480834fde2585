package core

import (
	"context"
	"time"
)

const (
	// EEPROMDeviceCode is the fixed 4-bit device type in the select byte
	EEPROMDeviceCode = 0xA0

	// EEPROMSize is the addressable range (11-bit word address)
	EEPROMSize = 2048

	// WriteCycle is the settle time between consecutive byte writes
	WriteCycle = 10 * time.Millisecond
)

// BusError reports the storage step whose status did not match.
// It matches ErrBusProtocol with errors.Is.
type BusError struct {
	Op       string // "write" or "read"
	Step     string // protocol step that failed
	Address  uint16
	Expected BusStatus
	Got      BusStatus
}

func (e *BusError) Error() string {
	return "eeprom " + e.Op + " " + Hex16(e.Address) + ": " + e.Step +
		" expected " + e.Expected.String() + ", got " + e.Got.String()
}

func (e *BusError) Is(target error) bool {
	return target == ErrBusProtocol
}

// SelectByte packs address bits A10..A8 into the device-select byte
func SelectByte(addr uint16, read bool) byte {
	b := byte(EEPROMDeviceCode | ((addr & 0x0700) >> 7))
	if read {
		b |= 0x01
	}
	return b
}

// EEPROM implements single-byte access to an external two-wire store
type EEPROM struct {
	bus   BusMaster
	sleep SleepFunc

	// BusTimeout bounds each individual bus primitive; zero disables it
	BusTimeout time.Duration
}

// NewEEPROM creates the storage protocol over a bus master
func NewEEPROM(bus BusMaster, sleep SleepFunc) *EEPROM {
	if sleep == nil {
		sleep = Sleep
	}
	return &EEPROM{bus: bus, sleep: sleep}
}

// stepper runs the bus primitives of one storage operation, each under its
// own deadline, and checks the status after every step
type stepper struct {
	e    *EEPROM
	ctx  context.Context
	op   string
	addr uint16
}

func (s *stepper) check(step string, expected BusStatus) error {
	got := s.e.bus.Status()
	RecordTrace(EvtBusStatus, uint8(got), uint32(expected), uint32(s.addr))
	if got != expected {
		return &BusError{Op: s.op, Step: step, Address: s.addr, Expected: expected, Got: got}
	}
	return nil
}

func (s *stepper) bounded() (context.Context, context.CancelFunc) {
	if s.e.BusTimeout > 0 {
		return context.WithTimeout(s.ctx, s.e.BusTimeout)
	}
	return context.WithCancel(s.ctx)
}

func (s *stepper) start(step string, expected BusStatus) error {
	ctx, cancel := s.bounded()
	defer cancel()
	if err := s.e.bus.Start(ctx); err != nil {
		return s.fault(step, err)
	}
	return s.check(step, expected)
}

func (s *stepper) write(step string, b byte, expected BusStatus) error {
	ctx, cancel := s.bounded()
	defer cancel()
	if err := s.e.bus.WriteByte(ctx, b); err != nil {
		return s.fault(step, err)
	}
	return s.check(step, expected)
}

func (s *stepper) readNack(step string, expected BusStatus) (byte, error) {
	ctx, cancel := s.bounded()
	defer cancel()
	v, err := s.e.bus.ReadByte(ctx, false)
	if err != nil {
		return 0, s.fault(step, err)
	}
	return v, s.check(step, expected)
}

func (s *stepper) fault(step string, err error) error {
	if IsTimeout(err) {
		RecordTrace(EvtBusTimeout, 0, uint32(s.addr), 0)
	}
	return &opError{op: "eeprom " + s.op + " " + Hex16(s.addr) + ": " + step, cause: err}
}

// WriteByte stores one byte. Any status mismatch aborts at that step; steps
// already executed are not rolled back and no stop condition is sent.
func (e *EEPROM) WriteByte(ctx context.Context, addr uint16, data byte) error {
	s := &stepper{e: e, ctx: ctx, op: "write", addr: addr}

	if err := s.start("start", StatusStart); err != nil {
		return e.failed(err)
	}
	if err := s.write("select", SelectByte(addr, false), StatusSelectWriteAck); err != nil {
		return e.failed(err)
	}
	if err := s.write("address", byte(addr), StatusDataSentAck); err != nil {
		return e.failed(err)
	}
	if err := s.write("data", data, StatusDataSentAck); err != nil {
		return e.failed(err)
	}
	if err := e.bus.Stop(); err != nil {
		return e.failed(err)
	}
	RecordTrace(EvtStoreResult, data, uint32(addr), 0)
	return nil
}

// ReadByte loads one byte using a repeated start and a NACKed single-byte read
func (e *EEPROM) ReadByte(ctx context.Context, addr uint16) (byte, error) {
	s := &stepper{e: e, ctx: ctx, op: "read", addr: addr}

	if err := s.start("start", StatusStart); err != nil {
		return 0, e.failed(err)
	}
	if err := s.write("select", SelectByte(addr, false), StatusSelectWriteAck); err != nil {
		return 0, e.failed(err)
	}
	if err := s.write("address", byte(addr), StatusDataSentAck); err != nil {
		return 0, e.failed(err)
	}
	if err := s.start("repeated start", StatusRepeatedStart); err != nil {
		return 0, e.failed(err)
	}
	if err := s.write("select read", SelectByte(addr, true), StatusSelectReadAck); err != nil {
		return 0, e.failed(err)
	}
	v, err := s.readNack("data", StatusDataReceivedNack)
	if err != nil {
		return 0, e.failed(err)
	}
	if err := e.bus.Stop(); err != nil {
		return 0, e.failed(err)
	}
	RecordTrace(EvtStoreResult, v, uint32(addr), 0)
	return v, nil
}

func (e *EEPROM) failed(err error) error {
	RecordTrace(EvtStoreResult, 0, 0, 1)
	Logf("eeprom", err.Error())
	if debugEnabled {
		DumpTrace()
	}
	return err
}

// WriteBytes stores data from base, waiting one write cycle after each byte.
// It returns the number of bytes attempted and the first error; later bytes
// are still attempted after a failed one.
func (e *EEPROM) WriteBytes(ctx context.Context, base uint16, data []byte) (int, error) {
	var first error
	n := 0
	for i, b := range data {
		if err := e.WriteByte(ctx, base+uint16(i), b); err != nil && first == nil {
			first = err
		}
		n++
		if err := e.sleep(ctx, WriteCycle); err != nil {
			return n, err
		}
	}
	return n, first
}

// ReadBytes loads n bytes from base, waiting one write cycle between reads
func (e *EEPROM) ReadBytes(ctx context.Context, base uint16, n int) ([]byte, error) {
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		v, err := e.ReadByte(ctx, base+uint16(i))
		if err != nil {
			return out[:i], err
		}
		out[i] = v
		if err := e.sleep(ctx, WriteCycle); err != nil {
			return out[:i+1], err
		}
	}
	return out, nil
}
