package core

import "testing"

// MockGPIODriver is a test implementation of GPIODriver
type MockGPIODriver struct {
	outputs map[GPIOPin]bool
	levels  map[GPIOPin]bool
	calls   []string
}

func NewMockGPIODriver() *MockGPIODriver {
	return &MockGPIODriver{
		outputs: make(map[GPIOPin]bool),
		levels:  make(map[GPIOPin]bool),
	}
}

func (m *MockGPIODriver) ConfigureOutput(pin GPIOPin) error {
	m.outputs[pin] = true
	m.calls = append(m.calls, "output")
	return nil
}

func (m *MockGPIODriver) ConfigureInputPullUp(pin GPIOPin) error {
	m.outputs[pin] = false
	m.levels[pin] = true
	m.calls = append(m.calls, "pullup")
	return nil
}

func (m *MockGPIODriver) SetPin(pin GPIOPin, value bool) error {
	m.levels[pin] = value
	m.calls = append(m.calls, "set")
	return nil
}

func (m *MockGPIODriver) GetPin(pin GPIOPin) (bool, error) {
	return m.levels[pin], nil
}

func TestOpenDrainLineStartsReleased(t *testing.T) {
	gpio := NewMockGPIODriver()
	line, err := NewOpenDrainLine(gpio, 4)
	if err != nil {
		t.Fatalf("NewOpenDrainLine failed: %v", err)
	}

	if gpio.outputs[4] {
		t.Error("Expected pin configured as input")
	}
	high, _ := line.Get()
	if !high {
		t.Error("Expected released line to read high")
	}
}

func TestOpenDrainLineLowRelease(t *testing.T) {
	gpio := NewMockGPIODriver()
	line, _ := NewOpenDrainLine(gpio, 5)
	gpio.calls = nil

	line.Low()
	if !gpio.outputs[5] {
		t.Error("Expected pin switched to output")
	}
	if high, _ := line.Get(); high {
		t.Error("Expected line low")
	}
	// Output must be enabled before the level is written
	if len(gpio.calls) != 2 || gpio.calls[0] != "output" || gpio.calls[1] != "set" {
		t.Errorf("Unexpected call order %v", gpio.calls)
	}

	line.Release()
	if gpio.outputs[5] {
		t.Error("Expected pin back to input")
	}
	if high, _ := line.Get(); !high {
		t.Error("Expected pull-up to bring line high")
	}
}
