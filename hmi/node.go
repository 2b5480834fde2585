package hmi

import (
	"context"

	"doorlock/core"
	"doorlock/protocol"
)

// Config wires a Node to its peripherals
type Config struct {
	Display Display
	Keypad  Keypad
	Link    *protocol.Link
	Timer   core.Delayer
	Sleep   core.SleepFunc // nil uses core.Sleep

	// OnStateChange, when set, is called on every transition
	OnStateChange func(from, to State)
}

// Node is the keypad/display application
type Node struct {
	display Display
	keypad  Keypad
	link    *protocol.Link
	timer   core.Delayer
	sleep   core.SleepFunc
	notify  func(from, to State)

	state  State
	trials TrialCounter
}

// New creates a node in StateIdle
func New(cfg Config) *Node {
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = core.Sleep
	}
	return &Node{
		display: cfg.Display,
		keypad:  cfg.Keypad,
		link:    cfg.Link,
		timer:   cfg.Timer,
		sleep:   sleep,
		notify:  cfg.OnStateChange,
	}
}

// State returns the current state
func (n *Node) State() State {
	return n.state
}

// Trials returns the attempts used in the current cycle
func (n *Node) Trials() int {
	return n.trials.Used()
}

func (n *Node) setState(s State) {
	if s == n.state {
		return
	}
	from := n.state
	n.state = s
	core.Logf("hmi", from.String(), "->", s.String())
	if n.notify != nil {
		n.notify(from, s)
	}
}

// Start runs the first-boot provisioning: a password must be set before the
// menu is offered
func (n *Node) Start(ctx context.Context) error {
	n.setState(StateSetPassword)
	return n.setPassword(ctx)
}

// Run provisions the password and then cycles the main menu until ctx ends
// or a peripheral fails
func (n *Node) Run(ctx context.Context) error {
	if err := n.Start(ctx); err != nil {
		return err
	}
	for {
		if err := n.Step(ctx); err != nil {
			return err
		}
	}
}

// Step runs one main-menu cycle: pick an action, verify, then act or lock out
func (n *Node) Step(ctx context.Context) error {
	n.setState(StateMainMenu)
	n.display.Clear()
	n.display.WriteStringAt(0, 0, " + : Open Door")
	n.display.WriteStringAt(1, 0, " - : Change Pass")

	n.setState(StateAwaitingKeypress)
	key, err := n.awaitAction(ctx)
	if err != nil {
		return err
	}

	n.setState(StateVerifying)
	ok, err := n.verifyTrials(ctx)
	if err != nil {
		return err
	}
	if !ok {
		n.setState(StateLocked)
		return n.lockSystem(ctx)
	}

	if key == KeyOpenDoor {
		n.setState(StateOpenDoor)
		return n.openDoor(ctx)
	}
	n.setState(StateChangePassword)
	return n.setPassword(ctx)
}

// awaitAction ignores every key except the two menu choices
func (n *Node) awaitAction(ctx context.Context) (byte, error) {
	for {
		key, err := n.keypad.ReadKey(ctx)
		if err != nil {
			return 0, err
		}
		if key == KeyOpenDoor || key == KeyChangePass {
			return key, nil
		}
	}
}

// readPassword collects keys up to the confirm key, echoing '*' for each.
// Keys past MaxPasswordLen are debounced but dropped.
func (n *Node) readPassword(ctx context.Context) ([]byte, error) {
	if err := n.sleep(ctx, EntrySettle); err != nil {
		return nil, err
	}

	pass := make([]byte, 0, protocol.MaxPasswordLen)
	for {
		key, err := n.keypad.ReadKey(ctx)
		if err != nil {
			return nil, err
		}
		if key != KeyConfirm && len(pass) < protocol.MaxPasswordLen {
			pass = append(pass, key)
			n.display.WriteChar('*')
		}
		if err := n.sleep(ctx, KeyDebounce); err != nil {
			return nil, err
		}
		if key == KeyConfirm {
			return pass, nil
		}
	}
}

func (n *Node) showError() {
	n.display.Clear()
	n.display.WriteStringAt(0, 0, "Error!! ")
	n.display.WriteStringAt(1, 0, "NOT MATCHED")
}

// setPassword repeats the enter/re-enter dialogue until both entries agree,
// then sends the password to the control node
func (n *Node) setPassword(ctx context.Context) error {
	for {
		n.display.Clear()
		n.display.WriteStringAt(0, 0, "Plz enter pass: ")
		n.display.MoveCursor(1, 0)
		first, err := n.readPassword(ctx)
		if err != nil {
			return err
		}

		n.display.WriteStringAt(0, 0, "Plz re-enter the")
		n.display.WriteStringAt(1, 0, "same pass: ")
		second, err := n.readPassword(ctx)
		if err != nil {
			return err
		}

		if len(first) != len(second) {
			n.showError()
			if err := n.sleep(ctx, MismatchPause); err != nil {
				return err
			}
			continue
		}

		matched := protocol.Matched(first, second, len(first))
		n.display.Clear()
		if matched {
			n.display.WriteStringAt(0, 0, "Pass set")
			n.display.WriteStringAt(1, 0, "Successfully")
			if err := n.link.SendOpcode(ctx, protocol.SetPassword); err != nil {
				return err
			}
			if err := n.link.SendString(ctx, first); err != nil {
				return err
			}
		} else {
			n.display.WriteStringAt(0, 0, "Error!! ")
			n.display.WriteStringAt(1, 0, "NOT MATCHED")
		}
		if err := n.timer.Delay(ctx, core.Delay1s); err != nil {
			return err
		}
		if matched {
			return nil
		}
	}
}

// verify runs one trial and returns the control node's answer
func (n *Node) verify(ctx context.Context) (protocol.Response, error) {
	n.display.Clear()
	n.display.WriteStringAt(0, 0, "Plz enter pass:")
	n.display.MoveCursor(1, 0)
	pass, err := n.readPassword(ctx)
	if err != nil {
		return protocol.NoMatch, err
	}

	if err := n.link.SendOpcode(ctx, protocol.VerifyPassword); err != nil {
		return protocol.NoMatch, err
	}
	if err := n.sleep(ctx, OpcodeGap); err != nil {
		return protocol.NoMatch, err
	}
	if err := n.link.SendString(ctx, pass); err != nil {
		return protocol.NoMatch, err
	}
	return n.link.ReceiveResponse(ctx)
}

// verifyTrials allows up to MaxTrials attempts and reports whether one matched
func (n *Node) verifyTrials(ctx context.Context) (bool, error) {
	n.trials.Reset()
	for n.trials.Next() {
		resp, err := n.verify(ctx)
		if err != nil {
			return false, err
		}

		n.display.Clear()
		if resp == protocol.Match {
			n.display.WriteStringAt(0, 0, "ACCESS GRANTED")
			return true, n.timer.Delay(ctx, core.Delay1s)
		}
		n.display.WriteStringAt(0, 0, "ACCESS DENIED")
		if err := n.timer.Delay(ctx, core.Delay1s); err != nil {
			return false, err
		}
	}
	return false, nil
}

// openDoor mirrors the control node's gate sequence on the display
func (n *Node) openDoor(ctx context.Context) error {
	if err := n.link.SendOpcode(ctx, protocol.OpenGate); err != nil {
		return err
	}
	n.display.Clear()
	n.display.WriteStringAt(0, 0, "Door is Unlocking")
	if err := n.timer.Delay(ctx, core.Delay15s); err != nil {
		return err
	}

	n.display.Clear()
	n.display.WriteStringAt(0, 0, "Door locks in")
	n.display.WriteStringAt(1, 8, core.Itoa(CountdownFrom))
	for count := CountdownFrom - 1; count >= 0; count-- {
		if err := n.timer.Delay(ctx, core.Delay1s); err != nil {
			return err
		}
		n.display.MoveCursor(1, 8)
		for _, c := range []byte(core.Itoa(count)) {
			n.display.WriteChar(c)
		}
	}

	n.display.Clear()
	n.display.WriteStringAt(0, 0, "Door is locking  ")
	return n.timer.Delay(ctx, core.Delay15s)
}

// lockSystem tells the control node to sound the alarm and sits out the lockout
func (n *Node) lockSystem(ctx context.Context) error {
	if err := n.link.SendOpcode(ctx, protocol.LockSystem); err != nil {
		return err
	}
	n.display.Clear()
	n.display.WriteStringAt(0, 0, "MAX TRIALS USED")
	n.display.WriteStringAt(1, 0, "SYSTEM IS LOCKED")
	for i := 0; i < LockWaits; i++ {
		if err := n.timer.Delay(ctx, core.Delay15s); err != nil {
			return err
		}
	}
	return nil
}
