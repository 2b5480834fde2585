//go:build rp2040

// HMI node image: keypad, 16x2 LCD and the UART link to the Control node
package main

import (
	"context"
	"machine"
	"time"

	"doorlock/core"
	"doorlock/hmi"
	"doorlock/protocol"
	"doorlock/targets/board"
)

func main() {
	// USB CDC console
	core.SetDebugWriter(func(msg string) { println(msg) })

	uart, err := board.NewUART(machine.UART0, machine.UART0_TX_PIN, machine.UART0_RX_PIN)
	if err != nil {
		halt()
	}
	lcd, err := board.NewLCD(machine.GP12, machine.GP13, machine.GP14, machine.GP15, machine.GP11, machine.GP10)
	if err != nil {
		halt()
	}
	keypad := board.NewKeypad(
		machine.GP2, machine.GP3, machine.GP4, machine.GP5,
		machine.GP6, machine.GP7, machine.GP8, machine.GP9,
	)

	node := hmi.New(hmi.Config{
		Display: lcd,
		Keypad:  keypad,
		Link:    protocol.NewLink(uart),
		Timer:   core.NewTimer(board.NewAlarmTimer()),
		Sleep:   core.Sleep,
	})

	for {
		if err := node.Run(context.Background()); err != nil {
			core.Logf("hmi", "run:", err.Error())
			lcd.Clear()
			lcd.WriteStringAt(0, 0, "LINK ERROR")
			time.Sleep(time.Second)
		}
	}
}

// halt blinks the on-board LED forever
func halt() {
	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})
	for {
		led.Set(!led.Get())
		time.Sleep(100 * time.Millisecond)
	}
}
