// linkctl is an interactive console that stands in for the HMI node and
// drives a Control node over a serial port.
package main

import (
	"flag"

	"doorlock/host/config"

	"github.com/golang/glog"
)

var (
	configPath = flag.String("config", "", "YAML configuration file")
	device     = flag.String("device", "", "Serial device to connect at start")
	evalOnly   = flag.Bool("e", false, "Run the command given as arguments and exit")
)

func main() {
	flag.Parse()
	defer glog.Flush()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			glog.Exitf("config: %v", err)
		}
	}

	s := NewShell(cfg)
	if *device != "" {
		if err := s.Connect(*device); err != nil {
			glog.Exitf("connect %s: %v", *device, err)
		}
		defer s.Disconnect()
	}
	s.Run(*evalOnly, flag.Args()...)
}
