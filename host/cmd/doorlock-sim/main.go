// doorlock-sim runs the HMI node, the Control node, or both, on a host.
// In "both" mode the nodes share an in-memory link; otherwise the selected
// node talks to the real peer over a serial port.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"doorlock/core"
	"doorlock/host/config"
	"doorlock/host/serial"
	"doorlock/host/telemetry"
	"doorlock/protocol"

	"github.com/golang/glog"
)

var (
	configPath = flag.String("config", "", "YAML configuration file")
	mode       = flag.String("mode", "both", "Nodes to run: both, hmi or control")
	device     = flag.String("device", "", "Serial device path (overrides config)")
	backend    = flag.String("backend", "", "Serial backend: tarm or bugst (overrides config)")
	scale      = flag.Float64("scale", 0, "Clock speed-up factor (overrides config)")
	image      = flag.String("image", "", "EEPROM image file (overrides config)")
	listPorts  = flag.Bool("list", false, "List serial ports and exit")
	dump       = flag.Bool("dump", false, "Print the stored password area of the EEPROM image and exit")
	trace      = flag.Bool("trace", false, "Route node debug output to the log")
)

func main() {
	flag.Parse()
	defer glog.Flush()

	if err := run(); err != nil && !errors.Is(err, context.Canceled) {
		glog.Errorf("doorlock-sim: %v", err)
		glog.Flush()
		os.Exit(1)
	}
}

func run() error {
	if *listPorts {
		ports, err := serial.List()
		if err != nil {
			return err
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if *dump {
		return dumpImage(cfg, os.Stdout, "eeprom")
	}

	core.SetDebugWriter(func(msg string) {
		glog.V(1).Info(msg)
	})
	core.SetDebugEnabled(*trace)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	h := &hooks{}
	if cfg.Telemetry.Broker != "" {
		pub, closeFn, err := telemetry.Dial(cfg.Telemetry.Broker, cfg.Telemetry.ClientID, cfg.Telemetry.Topic)
		if err != nil {
			return fmt.Errorf("telemetry: %w", err)
		}
		defer closeFn()
		h.pub = pub
	}

	switch *mode {
	case "both":
		return runBoth(ctx, cfg, h)
	case "hmi":
		return runHMI(ctx, cfg, h)
	case "control":
		return runControl(ctx, cfg, h)
	}
	return fmt.Errorf("unknown mode %q", *mode)
}

func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return nil, err
		}
	}
	if *device != "" {
		cfg.Serial.Device = *device
	}
	if *backend != "" {
		cfg.Serial.Backend = *backend
	}
	if *scale != 0 {
		cfg.Timing.Scale = *scale
	}
	if *image != "" {
		cfg.Bus.Image = *image
	}
	return cfg, cfg.Validate()
}

// runBoth connects the two nodes over an in-memory link
func runBoth(ctx context.Context, cfg *config.Config, h *hooks) error {
	hmiEnd, controlEnd := protocol.Pipe()

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.save()

	controlLink := protocol.NewLink(controlEnd)
	controlLink.ByteTimeout = cfg.Link.ByteTimeout
	ctrl := newControl(cfg, controlLink, store, h)
	glog.Infof("control opcodes:\n%s", ctrl.Registry().Dictionary())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- ctrl.Run(ctx) }()

	hmiLink := protocol.NewLink(hmiEnd)
	hmiLink.ByteTimeout = cfg.Link.ByteTimeout
	err = newHMI(cfg, hmiLink, h).Run(ctx)

	hmiEnd.Close()
	cancel()
	if cerr := <-done; err == nil && !errors.Is(cerr, protocol.ErrClosed) {
		err = cerr
	}
	return err
}

// runHMI drives a remote Control node over the serial port
func runHMI(ctx context.Context, cfg *config.Config, h *hooks) error {
	conn, err := connect(cfg)
	if err != nil {
		return err
	}
	defer conn.Close()
	return newHMI(cfg, conn.Link(), h).Run(ctx)
}

// runControl serves a remote HMI node over the serial port
func runControl(ctx context.Context, cfg *config.Config, h *hooks) error {
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.save()

	conn, err := connect(cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	ctrl := newControl(cfg, conn.Link(), store, h)
	glog.Infof("control opcodes:\n%s", ctrl.Registry().Dictionary())
	return ctrl.Run(ctx)
}
