package core

// GPIOPin identifies a hardware GPIO pin number
type GPIOPin uint32

// GPIODriver is the abstract GPIO interface that core code uses.
// Platform-specific implementations handle actual hardware control.
type GPIODriver interface {
	// ConfigureOutput configures a pin as a digital output
	ConfigureOutput(pin GPIOPin) error

	// ConfigureInputPullUp configures a pin as a digital input with pull-up resistor
	ConfigureInputPullUp(pin GPIOPin) error

	// SetPin sets the pin to high (true) or low (false)
	SetPin(pin GPIOPin, value bool) error

	// GetPin reads the current pin state
	GetPin(pin GPIOPin) (bool, error)
}

// OpenDrainLine emulates an open-drain bus line on a push-pull GPIO:
// driving low switches the pin to an output at 0, releasing switches it back
// to a pulled-up input so the line floats high unless another device holds it.
type OpenDrainLine struct {
	gpio GPIODriver
	pin  GPIOPin
}

// NewOpenDrainLine creates a released line
func NewOpenDrainLine(gpio GPIODriver, pin GPIOPin) (*OpenDrainLine, error) {
	l := &OpenDrainLine{gpio: gpio, pin: pin}
	if err := l.Release(); err != nil {
		return nil, err
	}
	return l, nil
}

// Low drives the line to 0
func (l *OpenDrainLine) Low() error {
	if err := l.gpio.ConfigureOutput(l.pin); err != nil {
		return err
	}
	return l.gpio.SetPin(l.pin, false)
}

// Release lets the pull-up take the line high
func (l *OpenDrainLine) Release() error {
	return l.gpio.ConfigureInputPullUp(l.pin)
}

// Get samples the line level
func (l *OpenDrainLine) Get() (bool, error) {
	return l.gpio.GetPin(l.pin)
}
