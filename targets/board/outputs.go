//go:build rp2040

package board

import (
	"machine"

	"tinygo.org/x/drivers/buzzer"
	"tinygo.org/x/drivers/l293x"
)

// Motor implements control.Actuator on an L293 H-bridge channel
type Motor struct {
	dev l293x.Device
}

// NewMotor drives in1/in2 with enable held high
func NewMotor(in1, in2, enable machine.Pin) *Motor {
	dev := l293x.New(in1, in2, enable)
	dev.Configure()
	return &Motor{dev: dev}
}

func (m *Motor) Forward() error {
	m.dev.Forward()
	return nil
}

func (m *Motor) Reverse() error {
	m.dev.Backward()
	return nil
}

func (m *Motor) Stop() error {
	m.dev.Stop()
	return nil
}

// Buzzer implements control.Alarm on an active buzzer
type Buzzer struct {
	dev buzzer.Device
}

func NewBuzzer(pin machine.Pin) *Buzzer {
	pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	return &Buzzer{dev: buzzer.New(pin)}
}

func (b *Buzzer) On() error {
	return b.dev.On()
}

func (b *Buzzer) Off() error {
	return b.dev.Off()
}
