package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"doorlock/control"
	"doorlock/core"
	"doorlock/hmi"
	"doorlock/host/config"
	"doorlock/host/console"
	"doorlock/host/node"
	"doorlock/host/periphbus"
	"doorlock/host/serial"
	"doorlock/host/telemetry"
	"doorlock/protocol"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
)

// hooks fans node notifications out to the log and telemetry
type hooks struct {
	pub   *telemetry.Publisher
	store *store
}

func (h *hooks) stateChanged(from, to hmi.State) {
	glog.V(1).Infof("hmi %s -> %s", from, to)
	if h.pub != nil {
		h.pub.HMIState(from, to)
	}
}

func (h *hooks) event(e control.Event) {
	glog.Infof("control %s", e)
	if h.pub != nil {
		h.pub.ControlEvent(e)
	}
	if e == control.EventPasswordSet && h.store != nil {
		h.store.save()
	}
}

// scaledSleep shortens the HMI busy-waits by the clock speed-up factor
func scaledSleep(scale float64) core.SleepFunc {
	return func(ctx context.Context, d time.Duration) error {
		return core.Sleep(ctx, time.Duration(float64(d)/scale))
	}
}

func newHMI(cfg *config.Config, link *protocol.Link, h *hooks) *hmi.Node {
	return hmi.New(hmi.Config{
		Display:       console.NewLCD(os.Stdout),
		Keypad:        console.NewKeypad(os.Stdin),
		Link:          link,
		Timer:         core.NewTimer(core.NewWallTimer(cfg.Timing.Scale)),
		Sleep:         scaledSleep(cfg.Timing.Scale),
		OnStateChange: h.stateChanged,
	})
}

func newControl(cfg *config.Config, link *protocol.Link, s *store, h *hooks) *control.Node {
	h.store = s
	eeprom := core.NewEEPROM(s.bus, scaledSleep(cfg.Timing.Scale))
	eeprom.BusTimeout = cfg.Bus.Timeout
	return control.New(control.Config{
		Link:     link,
		Store:    eeprom,
		Actuator: &console.Motor{},
		Alarm:    &console.Buzzer{},
		Timer:    core.NewTimer(core.NewWallTimer(cfg.Timing.Scale)),
		OnEvent:  h.event,
	})
}

func connect(cfg *config.Config) (*node.Conn, error) {
	sc := serial.DefaultConfig(cfg.Serial.Device)
	sc.Baud = cfg.Serial.Baud
	sc.Backend = serial.Backend(cfg.Serial.Backend)
	sc.ReadTimeout = int(cfg.Serial.ReadTimeout / time.Millisecond)

	conn := node.NewConn()
	if err := conn.ConnectWithConfig(sc, cfg.Link.ByteTimeout); err != nil {
		return nil, err
	}
	glog.Infof("connected to %s at %d baud", sc.Device, sc.Baud)
	return conn, nil
}

// store is the simulated EEPROM, persisted to an image file when configured
type store struct {
	bus  *core.SimBus
	path string
}

func openStore(cfg *config.Config) (*store, error) {
	s := &store{bus: core.NewSimBus(), path: cfg.Bus.Image}
	if s.path == "" {
		return s, nil
	}
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		glog.Infof("eeprom image %s not found, starting blank", s.path)
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := s.bus.LoadImage(f); err != nil {
		return nil, fmt.Errorf("load %s: %w", s.path, err)
	}
	return s, nil
}

func (s *store) save() {
	if s.path == "" {
		return
	}
	f, err := os.Create(s.path)
	if err != nil {
		glog.Errorf("save eeprom image: %v", err)
		return
	}
	defer f.Close()
	if err := s.bus.SaveImage(f); err != nil {
		glog.Errorf("save eeprom image: %v", err)
	}
}

// dumpImage reads the password area through the periph bus registry
func dumpImage(cfg *config.Config, w io.Writer, name string) error {
	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	b := periphbus.New(name, s.bus)
	b.Timeout = cfg.Bus.Timeout
	if err := periphbus.Register(b); err != nil {
		return err
	}
	bus, err := i2creg.Open(name)
	if err != nil {
		return err
	}
	defer bus.Close()

	addr := uint16(control.BaseAddress)
	dev := &i2c.Dev{Addr: uint16(core.SelectByte(addr, false) >> 1), Bus: bus}
	buf := make([]byte, protocol.MaxPasswordLen)
	if err := dev.Tx([]byte{byte(addr)}, buf); err != nil {
		return err
	}
	fmt.Fprintf(w, "%s %s: % X\n", bus, core.Hex16(addr), buf)
	return nil
}
