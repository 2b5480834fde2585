package core

import (
	"bytes"
	"context"
	"testing"
)

func TestSimBusWrongDeviceNacks(t *testing.T) {
	bus := NewSimBus()
	ctx := context.Background()

	bus.Start(ctx)
	bus.WriteByte(ctx, 0x50)
	if bus.Status() != StatusSelectWriteNack {
		t.Errorf("Expected SLA_W_NACK, got %s", bus.Status())
	}

	bus.Start(ctx)
	if bus.Status() != StatusRepeatedStart {
		t.Errorf("Expected REP_START inside a transaction, got %s", bus.Status())
	}
	bus.WriteByte(ctx, 0x51)
	if bus.Status() != StatusSelectReadNack {
		t.Errorf("Expected SLA_R_NACK, got %s", bus.Status())
	}
	bus.Stop()
	if bus.Status() != StatusIdle {
		t.Errorf("Expected IDLE after stop, got %s", bus.Status())
	}
}

func TestSimBusPageRollover(t *testing.T) {
	bus := NewSimBus()
	ctx := context.Background()

	bus.Start(ctx)
	bus.WriteByte(ctx, SelectByte(0x01E, false))
	bus.WriteByte(ctx, 0x1E)
	for _, b := range []byte{1, 2, 3} {
		bus.WriteByte(ctx, b)
	}
	bus.Stop()

	if bus.Peek(0x01E) != 1 || bus.Peek(0x01F) != 2 {
		t.Errorf("Unexpected page contents %#x %#x", bus.Peek(0x01E), bus.Peek(0x01F))
	}
	if bus.Peek(0x010) != 3 {
		t.Errorf("Expected write to wrap to page start, got %#x", bus.Peek(0x010))
	}
	if bus.Peek(0x020) != 0xFF {
		t.Errorf("Expected next page untouched, got %#x", bus.Peek(0x020))
	}
}

func TestSimBusSequentialRead(t *testing.T) {
	bus := NewSimBus()
	ctx := context.Background()
	bus.Poke(0x7FF, 'a')
	bus.Poke(0x000, 'b')

	bus.Start(ctx)
	bus.WriteByte(ctx, SelectByte(0x7FF, false))
	bus.WriteByte(ctx, 0xFF)
	bus.Start(ctx)
	bus.WriteByte(ctx, SelectByte(0x7FF, true))
	first, _ := bus.ReadByte(ctx, true)
	second, _ := bus.ReadByte(ctx, false)
	bus.Stop()

	if first != 'a' || second != 'b' {
		t.Errorf("Expected read to wrap at the end of memory, got %q %q", first, second)
	}
}

func TestSimBusReadOutsideTransaction(t *testing.T) {
	bus := NewSimBus()
	v, err := bus.ReadByte(context.Background(), false)
	if err != nil {
		t.Fatalf("ReadByte failed: %v", err)
	}
	if v != 0xFF || bus.Status() != StatusIdle {
		t.Errorf("Expected 0xFF with IDLE, got %#x %s", v, bus.Status())
	}
}

func TestSimBusImage(t *testing.T) {
	bus := NewSimBus()
	bus.Poke(0x0311, '7')

	var buf bytes.Buffer
	if err := bus.SaveImage(&buf); err != nil {
		t.Fatalf("SaveImage failed: %v", err)
	}
	if buf.Len() != SimEEPROMSize {
		t.Fatalf("Expected %d byte image, got %d", SimEEPROMSize, buf.Len())
	}

	restored := NewSimBus()
	if err := restored.LoadImage(&buf); err != nil {
		t.Fatalf("LoadImage failed: %v", err)
	}
	if restored.Peek(0x0311) != '7' {
		t.Errorf("Expected restored byte, got %#x", restored.Peek(0x0311))
	}

	if err := restored.LoadImage(bytes.NewReader(make([]byte, 100))); err == nil {
		t.Error("Expected short image to be rejected")
	}
}
