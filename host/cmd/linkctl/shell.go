package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"doorlock/host/config"
	"doorlock/host/node"
	"doorlock/host/remote"
	"doorlock/host/serial"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"
)

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

// Shell holds the console and the current node connection
type Shell struct {
	Shell  *ishell.Shell
	Config *config.Config

	conn   *node.Conn
	client *remote.Client
}

var commands = []*ishell.Cmd{
	&PortsCmd,
	&ConnectCmd,
	&DisconnectCmd,
	&SetCmd,
	&VerifyCmd,
	&OpenCmd,
	&LockCmd,
	&RawCmd,
	&FlushCmd,
}

// NewShell creates the console
func NewShell(cfg *config.Config) *Shell {
	s := &Shell{
		Shell:  ishell.New(),
		Config: cfg,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// Connect opens device with the configured serial settings
func (s *Shell) Connect(device string) error {
	sc := serial.DefaultConfig(device)
	sc.Baud = s.Config.Serial.Baud
	sc.Backend = serial.Backend(s.Config.Serial.Backend)
	sc.ReadTimeout = int(s.Config.Serial.ReadTimeout / time.Millisecond)

	conn := node.NewConn()
	if err := conn.ConnectWithConfig(sc, s.Config.Link.ByteTimeout); err != nil {
		return err
	}
	s.Disconnect()
	s.conn = conn
	s.client = remote.New(conn.Link(), nil)
	s.client.Timeout = s.Config.Link.OperationTimeout
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", device))
	glog.V(1).Infof("connected to %s", device)
	return nil
}

// Disconnect closes the current connection
func (s *Shell) Disconnect() {
	if s.conn != nil {
		s.conn.Close()
		s.conn, s.client = nil, nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

// Run processes args once, or runs the interactive loop
func (s *Shell) Run(evalOnly bool, args ...string) {
	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			glog.Exit(err)
		}
		return
	}
	if evalOnly {
		glog.Exit("command expected")
	}
	s.Shell.Run()
}

// MustBeConnected wraps command func requires a connection
func MustBeConnected(fn func(c *ishell.Context, client *remote.Client)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		s := ShellFrom(c)
		if s.client == nil {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c, s.client)
	}
}

// parseByte accepts a single character, a decimal number or 0x-prefixed hex
func parseByte(arg string) (byte, error) {
	if len(arg) == 1 {
		return arg[0], nil
	}
	v, err := strconv.ParseUint(arg, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid byte %q", arg)
	}
	return byte(v), nil
}

func oneArg(c *ishell.Context, what string) (string, bool) {
	if len(c.Args) != 1 {
		c.Err(fmt.Errorf("usage: %s %s", c.Cmd.Name, what))
		return "", false
	}
	return c.Args[0], true
}

var (
	// PortsCmd lists serial ports.
	PortsCmd = ishell.Cmd{
		Name:    "ports",
		Aliases: []string{"list", "l"},
		Help:    "list serial ports",
		Func: func(c *ishell.Context) {
			ports, err := serial.List()
			if err != nil {
				c.Err(err)
				return
			}
			if len(ports) == 0 {
				c.Println("No serial ports found")
				return
			}
			c.Println(strings.Join(ports, "\n"))
		},
	}

	// ConnectCmd opens a serial port.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "DEVICE",
		Func: func(c *ishell.Context) {
			device, ok := oneArg(c, "DEVICE")
			if !ok {
				return
			}
			if err := ShellFrom(c).Connect(device); err != nil {
				c.Err(err)
				return
			}
			c.Println("OK")
		},
	}

	// DisconnectCmd closes the serial port.
	DisconnectCmd = ishell.Cmd{
		Name: "disconnect",
		Help: "close the connection",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}

	// SetCmd stores a password.
	SetCmd = ishell.Cmd{
		Name: "set",
		Help: "PASSWORD",
		Func: MustBeConnected(func(c *ishell.Context, client *remote.Client) {
			pass, ok := oneArg(c, "PASSWORD")
			if !ok {
				return
			}
			if err := client.SetPassword(context.Background(), pass); err != nil {
				c.Err(err)
				return
			}
			c.Println("OK")
		}),
	}

	// VerifyCmd checks a password.
	VerifyCmd = ishell.Cmd{
		Name:    "verify",
		Aliases: []string{"v"},
		Help:    "PASSWORD",
		Func: MustBeConnected(func(c *ishell.Context, client *remote.Client) {
			pass, ok := oneArg(c, "PASSWORD")
			if !ok {
				return
			}
			matched, err := client.Verify(context.Background(), pass)
			if err != nil {
				c.Err(err)
				return
			}
			if matched {
				c.Println("MATCH")
			} else {
				c.Println("NO MATCH")
			}
		}),
	}

	// OpenCmd starts the gate cycle.
	OpenCmd = ishell.Cmd{
		Name: "open",
		Help: "run the gate cycle",
		Func: MustBeConnected(func(c *ishell.Context, client *remote.Client) {
			if err := client.OpenGate(context.Background()); err != nil {
				c.Err(err)
				return
			}
			c.Println("OK")
		}),
	}

	// LockCmd starts the alarm lockout.
	LockCmd = ishell.Cmd{
		Name: "lock",
		Help: "sound the alarm lockout",
		Func: MustBeConnected(func(c *ishell.Context, client *remote.Client) {
			if err := client.LockSystem(context.Background()); err != nil {
				c.Err(err)
				return
			}
			c.Println("OK")
		}),
	}

	// RawCmd sends any opcode byte.
	RawCmd = ishell.Cmd{
		Name: "raw",
		Help: "BYTE (char, decimal or 0x hex)",
		Func: MustBeConnected(func(c *ishell.Context, client *remote.Client) {
			arg, ok := oneArg(c, "BYTE")
			if !ok {
				return
			}
			b, err := parseByte(arg)
			if err != nil {
				c.Err(err)
				return
			}
			if err := client.Raw(context.Background(), b); err != nil {
				c.Err(err)
				return
			}
			c.Println("OK")
		}),
	}

	// FlushCmd drops unread input.
	FlushCmd = ishell.Cmd{
		Name: "flush",
		Help: "discard unread input",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			if s.conn == nil {
				c.Err(fmt.Errorf("not connected"))
				return
			}
			n, err := s.conn.Flush()
			if err != nil {
				c.Err(err)
				return
			}
			c.Printf("dropped %d bytes\n", n)
		},
	}
)
