//go:build rp2040

// Control node image: gate motor, buzzer, two-wire EEPROM and the UART link
// to the HMI node
package main

import (
	"context"
	"machine"
	"time"

	"doorlock/control"
	"doorlock/core"
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
	bus, err := board.NewSoftBus(machine.GP5, machine.GP4, 400000)
	if err != nil {
		halt()
	}
	eeprom := core.NewEEPROM(bus, core.Sleep)
	eeprom.BusTimeout = 10 * time.Millisecond

	node := control.New(control.Config{
		Link:     protocol.NewLink(uart),
		Store:    eeprom,
		Actuator: board.NewMotor(machine.GP16, machine.GP17, machine.GP18),
		Alarm:    board.NewBuzzer(machine.GP19),
		Timer:    core.NewTimer(board.NewAlarmTimer()),
		OnEvent: func(e control.Event) {
			if e == control.EventStorageError {
				core.DumpTrace()
			}
		},
	})
	core.DebugPrintln(node.Registry().Dictionary())

	for {
		if err := node.Run(context.Background()); err != nil {
			core.Logf("control", "run:", err.Error())
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
