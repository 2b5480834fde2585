package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

// wire models the two pulled-up bus lines shared by the master and one
// EEPROM-like slave that reacts to clock edges
type wire struct {
	masterSCL, masterSDA bool // true = driving low
	slaveSDA             bool
	stretch              bool // slave holds SCL low

	scl, sda bool // resolved levels

	slave *fakeEEPROM
}

func newWire() *wire {
	w := &wire{scl: true, sda: true}
	w.slave = &fakeEEPROM{w: w, state: slaveIdle}
	for i := range w.slave.mem {
		w.slave.mem[i] = 0xFF
	}
	return w
}

func (w *wire) resolve() {
	scl := !(w.masterSCL || w.stretch)
	sda := !(w.masterSDA || w.slaveSDA)
	oldSCL, oldSDA := w.scl, w.sda
	w.scl, w.sda = scl, sda

	switch {
	case oldSCL && scl && oldSDA && !sda:
		w.slave.start()
	case oldSCL && scl && !oldSDA && sda:
		w.slave.stop()
	case !oldSCL && scl:
		w.slave.rising(sda)
	case oldSCL && !scl:
		w.slave.falling()
	}
	// Slave drive changes happen while SCL is low
	w.sda = !(w.masterSDA || w.slaveSDA)
}

type wireLine struct {
	w     *wire
	clock bool
}

func (l *wireLine) Low() error {
	if l.clock {
		l.w.masterSCL = true
	} else {
		l.w.masterSDA = true
	}
	l.w.resolve()
	return nil
}

func (l *wireLine) Release() error {
	if l.clock {
		l.w.masterSCL = false
	} else {
		l.w.masterSDA = false
	}
	l.w.resolve()
	return nil
}

func (l *wireLine) Get() (bool, error) {
	if l.clock {
		return l.w.scl, nil
	}
	return l.w.sda, nil
}

type slaveState uint8

const (
	slaveIdle slaveState = iota
	slaveSelect
	slaveWordAddress
	slaveWriteData
	slaveRead
	slaveIgnore
)

type fakeEEPROM struct {
	w         *wire
	mem       [2048]byte
	state     slaveState
	transmit  bool
	skipFall  bool
	bit       int
	shift     byte
	current   byte
	masterAck bool
	block     uint16
	pointer   uint16
}

func (s *fakeEEPROM) start() {
	s.state = slaveSelect
	s.transmit = false
	s.skipFall = true
	s.bit = 0
	s.shift = 0
	s.w.slaveSDA = false
}

func (s *fakeEEPROM) stop() {
	s.state = slaveIdle
	s.transmit = false
	s.w.slaveSDA = false
}

func (s *fakeEEPROM) rising(sda bool) {
	if s.state == slaveIdle || s.state == slaveIgnore {
		return
	}
	if s.transmit {
		if s.bit == 8 {
			s.masterAck = !sda
		}
		return
	}
	if s.bit < 8 {
		s.shift <<= 1
		if sda {
			s.shift |= 1
		}
	}
}

func (s *fakeEEPROM) falling() {
	if s.skipFall {
		s.skipFall = false
		return
	}
	if s.state == slaveIdle || s.state == slaveIgnore {
		return
	}
	s.bit++

	if s.transmit {
		switch {
		case s.bit < 8:
			s.drive(s.current&(0x80>>uint(s.bit)) != 0)
		case s.bit == 8:
			s.w.slaveSDA = false
		default:
			s.bit = 0
			if !s.masterAck {
				s.state = slaveIgnore
				s.transmit = false
				return
			}
			s.load()
		}
		return
	}

	switch s.bit {
	case 8:
		s.w.slaveSDA = s.receive(s.shift)
	case 9:
		s.w.slaveSDA = false
		s.bit = 0
		s.shift = 0
		if s.state == slaveRead {
			s.transmit = true
			s.load()
		}
	}
}

func (s *fakeEEPROM) drive(high bool) {
	s.w.slaveSDA = !high
}

func (s *fakeEEPROM) load() {
	s.current = s.mem[s.pointer]
	s.pointer = (s.pointer + 1) % 2048
	s.drive(s.current&0x80 != 0)
}

// receive handles a complete byte and reports whether to ACK it
func (s *fakeEEPROM) receive(b byte) bool {
	switch s.state {
	case slaveSelect:
		if b&0xF0 != 0xA0 {
			s.state = slaveIgnore
			return false
		}
		s.block = uint16(b>>1) & 0x07
		if b&0x01 != 0 {
			s.state = slaveRead
		} else {
			s.state = slaveWordAddress
		}
		return true
	case slaveWordAddress:
		s.pointer = s.block<<8 | uint16(b)
		s.state = slaveWriteData
		return true
	case slaveWriteData:
		s.mem[s.pointer] = b
		s.pointer = (s.pointer + 1) % 2048
		return true
	}
	return false
}

func newTestSoftBus() (*SoftBus, *wire) {
	w := newWire()
	bus := NewSoftBus(&wireLine{w: w, clock: true}, &wireLine{w: w}, 0, func(time.Duration) {})
	return bus, w
}

func TestSoftBusHalfPeriod(t *testing.T) {
	bus := NewSoftBus(&wireLine{w: newWire(), clock: true}, &wireLine{w: newWire()}, 0, nil)
	if bus.halfPeriod != 1250*time.Nanosecond {
		t.Errorf("Expected 1.25us half period at 400kHz, got %v", bus.halfPeriod)
	}
	if bus.Status() != StatusIdle {
		t.Errorf("Expected IDLE, got %s", bus.Status())
	}
}

func TestSoftBusSetFrequency(t *testing.T) {
	bus, _ := newTestSoftBus()
	if err := bus.SetFrequency(100000); err != nil {
		t.Fatalf("SetFrequency failed: %v", err)
	}
	if bus.HalfPeriod() != 5*time.Microsecond {
		t.Errorf("Expected 5us half period at 100kHz, got %v", bus.HalfPeriod())
	}
	if err := bus.SetFrequency(0); err == nil {
		t.Error("Expected error for 0 Hz")
	}
}

func TestSoftBusStatuses(t *testing.T) {
	bus, _ := newTestSoftBus()
	ctx := context.Background()

	bus.Start(ctx)
	if bus.Status() != StatusStart {
		t.Fatalf("Expected START, got %s", bus.Status())
	}
	bus.WriteByte(ctx, 0xA6)
	if bus.Status() != StatusSelectWriteAck {
		t.Fatalf("Expected SLA_W_ACK, got %s", bus.Status())
	}
	bus.WriteByte(ctx, 0x11)
	if bus.Status() != StatusDataSentAck {
		t.Fatalf("Expected MT_DATA_ACK, got %s", bus.Status())
	}
	bus.Start(ctx)
	if bus.Status() != StatusRepeatedStart {
		t.Fatalf("Expected REP_START, got %s", bus.Status())
	}
	bus.WriteByte(ctx, 0xA7)
	if bus.Status() != StatusSelectReadAck {
		t.Fatalf("Expected SLA_R_ACK, got %s", bus.Status())
	}
	bus.ReadByte(ctx, false)
	if bus.Status() != StatusDataReceivedNack {
		t.Fatalf("Expected MR_DATA_NACK, got %s", bus.Status())
	}
	bus.Stop()
	if bus.Status() != StatusIdle {
		t.Fatalf("Expected IDLE, got %s", bus.Status())
	}
}

func TestSoftBusNoDevice(t *testing.T) {
	bus, _ := newTestSoftBus()
	ctx := context.Background()

	bus.Start(ctx)
	bus.WriteByte(ctx, 0x50)
	if bus.Status() != StatusSelectWriteNack {
		t.Errorf("Expected SLA_W_NACK, got %s", bus.Status())
	}
	bus.Stop()
}

func TestSoftBusEEPROMRoundTrip(t *testing.T) {
	bus, w := newTestSoftBus()
	e := NewEEPROM(bus, NoSleep)
	ctx := context.Background()

	data := []byte("4321")
	if _, err := e.WriteBytes(ctx, 0x0311, data); err != nil {
		t.Fatalf("WriteBytes failed: %v", err)
	}
	for i, b := range data {
		if w.slave.mem[0x0311+i] != b {
			t.Errorf("Byte %d: expected %q in slave, got %q", i, b, w.slave.mem[0x0311+i])
		}
	}

	got, err := e.ReadBytes(ctx, 0x0311, len(data))
	if err != nil {
		t.Fatalf("ReadBytes failed: %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("Expected %q, got %q", data, got)
	}
}

func TestSoftBusSequentialReadAck(t *testing.T) {
	bus, w := newTestSoftBus()
	ctx := context.Background()
	w.slave.mem[0x20] = 0x5A
	w.slave.mem[0x21] = 0xC3

	bus.Start(ctx)
	bus.WriteByte(ctx, SelectByte(0x20, false))
	bus.WriteByte(ctx, 0x20)
	bus.Start(ctx)
	bus.WriteByte(ctx, SelectByte(0x20, true))
	first, _ := bus.ReadByte(ctx, true)
	if bus.Status() != StatusDataReceivedAck {
		t.Errorf("Expected MR_DATA_ACK, got %s", bus.Status())
	}
	second, _ := bus.ReadByte(ctx, false)
	bus.Stop()

	if first != 0x5A || second != 0xC3 {
		t.Errorf("Expected 0x5A 0xC3, got %#x %#x", first, second)
	}
}

func TestSoftBusClockStretchTimeout(t *testing.T) {
	bus, w := newTestSoftBus()
	bus.Start(context.Background())
	w.stretch = true

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	err := bus.WriteByte(ctx, 0xA0)
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("Expected ErrTimeout while the clock is held, got %v", err)
	}
}

func TestSoftBusHeldDataLine(t *testing.T) {
	bus, w := newTestSoftBus()
	w.slaveSDA = true
	w.sda = false

	bus.Start(context.Background())
	if bus.Status() != StatusArbitrationLost {
		t.Errorf("Expected ARB_LOST with SDA held, got %s", bus.Status())
	}
}
