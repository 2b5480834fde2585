//go:build rp2040

package board

import (
	"machine"

	"tinygo.org/x/drivers/hd44780"
)

// LCD implements hmi.Display on an HD44780 16x2 module in 4-bit mode
type LCD struct {
	dev hd44780.Device
}

// NewLCD configures the display on d4..d7, enable and register select.
// RW is tied to ground.
func NewLCD(d4, d5, d6, d7, e, rs machine.Pin) (*LCD, error) {
	dev, err := hd44780.NewGPIO4Bit([]machine.Pin{d4, d5, d6, d7}, e, rs, machine.NoPin)
	if err != nil {
		return nil, err
	}
	if err := dev.Configure(hd44780.Config{Width: 16, Height: 2}); err != nil {
		return nil, err
	}
	return &LCD{dev: dev}, nil
}

func (l *LCD) Clear() {
	l.dev.ClearDisplay()
}

func (l *LCD) MoveCursor(row, col uint8) {
	l.dev.SetCursor(col, row)
}

func (l *LCD) WriteChar(c byte) {
	l.dev.Write([]byte{c})
	l.dev.Display()
}

func (l *LCD) WriteStringAt(row, col uint8, s string) {
	l.dev.SetCursor(col, row)
	l.dev.Write([]byte(s))
	l.dev.Display()
}
