//go:build rp2040

package board

import (
	"machine"

	"doorlock/core"
)

// GPIODriver implements core.GPIODriver on the RP2040 pins.
// Every call reprograms the pin so open-drain lines can switch direction.
type GPIODriver struct{}

func (GPIODriver) ConfigureOutput(pin core.GPIOPin) error {
	machine.Pin(pin).Configure(machine.PinConfig{Mode: machine.PinOutput})
	return nil
}

func (GPIODriver) ConfigureInputPullUp(pin core.GPIOPin) error {
	machine.Pin(pin).Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	return nil
}

func (GPIODriver) SetPin(pin core.GPIOPin, value bool) error {
	machine.Pin(pin).Set(value)
	return nil
}

func (GPIODriver) GetPin(pin core.GPIOPin) (bool, error) {
	return machine.Pin(pin).Get(), nil
}

// NewSoftBus puts a bit-banged two-wire master on scl and sda
func NewSoftBus(scl, sda machine.Pin, frequencyHz uint32) (*core.SoftBus, error) {
	var gpio GPIODriver
	sclLine, err := core.NewOpenDrainLine(gpio, core.GPIOPin(scl))
	if err != nil {
		return nil, err
	}
	sdaLine, err := core.NewOpenDrainLine(gpio, core.GPIOPin(sda))
	if err != nil {
		return nil, err
	}
	return core.NewSoftBus(sclLine, sdaLine, frequencyHz, nil), nil
}
