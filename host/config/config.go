// Package config loads the host tool settings from YAML
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the doorlock host configuration
type Config struct {
	Serial    SerialConfig    `yaml:"serial"`
	Link      LinkConfig      `yaml:"link"`
	Bus       BusConfig       `yaml:"bus"`
	Timing    TimingConfig    `yaml:"timing"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// SerialConfig is the UART between the nodes
type SerialConfig struct {
	Device      string        `yaml:"device"`
	Baud        int           `yaml:"baud"`
	Backend     string        `yaml:"backend"` // tarm | bugst
	ReadTimeout time.Duration `yaml:"read_timeout"`
}

// LinkConfig bounds the opcode protocol
type LinkConfig struct {
	// ByteTimeout bounds each byte transfer; zero waits forever
	ByteTimeout time.Duration `yaml:"byte_timeout"`
	// OperationTimeout bounds one remote command including the gate cycle
	OperationTimeout time.Duration `yaml:"operation_timeout"`
}

// BusConfig is the EEPROM side of the Control node
type BusConfig struct {
	Timeout time.Duration `yaml:"timeout"`
	Image   string        `yaml:"image"` // file holding the simulated EEPROM array
}

// TimingConfig speeds up the simulated clock
type TimingConfig struct {
	// Scale divides every timer period and busy-wait; 100 runs a 15s wait in 150ms
	Scale float64 `yaml:"scale"`
}

// TelemetryConfig is the optional MQTT event feed
type TelemetryConfig struct {
	Broker   string `yaml:"broker"` // empty disables telemetry
	ClientID string `yaml:"client_id"`
	Topic    string `yaml:"topic"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Device:      "/dev/ttyUSB0",
			Baud:        9600,
			Backend:     "tarm",
			ReadTimeout: 100 * time.Millisecond,
		},
		Link: LinkConfig{
			ByteTimeout:      0,
			OperationTimeout: 60 * time.Second,
		},
		Bus: BusConfig{
			Timeout: 50 * time.Millisecond,
			Image:   "",
		},
		Timing: TimingConfig{
			Scale: 1,
		},
		Telemetry: TelemetryConfig{
			Topic: "doorlock",
		},
	}
}

// Load reads a YAML file and fills unset fields from Default
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML bytes, applies defaults and validates
func Parse(data []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&c)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func applyDefaults(c *Config) {
	d := Default()
	if c.Serial.Device == "" {
		c.Serial.Device = d.Serial.Device
	}
	if c.Serial.Baud == 0 {
		c.Serial.Baud = d.Serial.Baud
	}
	if c.Serial.Backend == "" {
		c.Serial.Backend = d.Serial.Backend
	}
	if c.Serial.ReadTimeout == 0 {
		c.Serial.ReadTimeout = d.Serial.ReadTimeout
	}
	if c.Link.OperationTimeout == 0 {
		c.Link.OperationTimeout = d.Link.OperationTimeout
	}
	if c.Bus.Timeout == 0 {
		c.Bus.Timeout = d.Bus.Timeout
	}
	if c.Timing.Scale == 0 {
		c.Timing.Scale = d.Timing.Scale
	}
	if c.Telemetry.Topic == "" {
		c.Telemetry.Topic = d.Telemetry.Topic
	}
}

// Validate rejects values the nodes cannot run with
func (c *Config) Validate() error {
	if c.Serial.Baud < 0 {
		return fmt.Errorf("serial.baud: invalid value %d", c.Serial.Baud)
	}
	switch c.Serial.Backend {
	case "tarm", "bugst":
	default:
		return fmt.Errorf("serial.backend: unknown backend %q", c.Serial.Backend)
	}
	if c.Serial.ReadTimeout < 0 {
		return fmt.Errorf("serial.read_timeout: must not be negative")
	}
	if c.Link.ByteTimeout < 0 || c.Link.OperationTimeout < 0 {
		return fmt.Errorf("link: timeouts must not be negative")
	}
	if c.Bus.Timeout < 0 {
		return fmt.Errorf("bus.timeout: must not be negative")
	}
	if c.Timing.Scale <= 0 {
		return fmt.Errorf("timing.scale: must be positive, got %v", c.Timing.Scale)
	}
	return nil
}
