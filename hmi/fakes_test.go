package hmi

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"doorlock/core"
	"doorlock/protocol"
)

var errNoMoreKeys = errors.New("no more keys")

// scriptedKeypad replays keys; '\r' in the script is the confirm key
type scriptedKeypad struct {
	keys []byte
}

func keys(script string) *scriptedKeypad {
	return &scriptedKeypad{keys: []byte(script)}
}

func (k *scriptedKeypad) ReadKey(ctx context.Context) (byte, error) {
	if len(k.keys) == 0 {
		return 0, errNoMoreKeys
	}
	key := k.keys[0]
	k.keys = k.keys[1:]
	if key == '\r' {
		key = KeyConfirm
	}
	return key, nil
}

// recordingDisplay logs every call in a compact form
type recordingDisplay struct {
	calls []string
}

func (d *recordingDisplay) Clear() {
	d.calls = append(d.calls, "clear")
}

func (d *recordingDisplay) MoveCursor(row, col uint8) {
	d.calls = append(d.calls, "cursor "+core.Itoa(int(row))+","+core.Itoa(int(col)))
}

func (d *recordingDisplay) WriteChar(c byte) {
	d.calls = append(d.calls, "char "+string([]byte{c}))
}

func (d *recordingDisplay) WriteStringAt(row, col uint8, s string) {
	d.calls = append(d.calls, "text "+core.Itoa(int(row))+","+core.Itoa(int(col))+" "+s)
}

func (d *recordingDisplay) shown(text string) bool {
	for _, c := range d.calls {
		if strings.HasPrefix(c, "text ") && strings.HasSuffix(c, " "+text) {
			return true
		}
	}
	return false
}

func (d *recordingDisplay) count(call string) int {
	n := 0
	for _, c := range d.calls {
		if c == call {
			n++
		}
	}
	return n
}

type recordingDelayer struct {
	delays []core.Delay
}

func (r *recordingDelayer) Delay(ctx context.Context, d core.Delay) error {
	r.delays = append(r.delays, d)
	return ctx.Err()
}

type recordingSleeper struct {
	sleeps []time.Duration
}

func (r *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	r.sleeps = append(r.sleeps, d)
	return nil
}

func (r *recordingSleeper) count(d time.Duration) int {
	n := 0
	for _, s := range r.sleeps {
		if s == d {
			n++
		}
	}
	return n
}

// fakeControl answers verify requests from a script and records everything
type fakeControl struct {
	link    *protocol.Link
	answers []protocol.Response

	mu       sync.Mutex
	ops      []protocol.Opcode
	payloads []string
	done     chan struct{}
}

func (f *fakeControl) run(ctx context.Context) {
	defer close(f.done)
	for {
		op, err := f.link.ReceiveOpcode(ctx)
		if err != nil {
			return
		}
		f.mu.Lock()
		f.ops = append(f.ops, op)
		f.mu.Unlock()

		switch op {
		case protocol.SetPassword, protocol.VerifyPassword:
			s, err := f.link.ReceiveString(ctx)
			if err != nil {
				return
			}
			f.mu.Lock()
			f.payloads = append(f.payloads, string(s))
			f.mu.Unlock()
			if op == protocol.VerifyPassword {
				resp := protocol.NoMatch
				if len(f.answers) > 0 {
					resp, f.answers = f.answers[0], f.answers[1:]
				}
				if err := f.link.SendResponse(ctx, resp); err != nil {
					return
				}
			}
		}
	}
}

func (f *fakeControl) count(op protocol.Opcode) int {
	n := 0
	for _, o := range f.ops {
		if o == op {
			n++
		}
	}
	return n
}

type harness struct {
	node    *Node
	display *recordingDisplay
	timer   *recordingDelayer
	sleeper *recordingSleeper
	peer    *fakeControl
	end     *protocol.PipeEnd
	states  []State
}

func newHarness(script string, answers ...protocol.Response) *harness {
	a, b := protocol.Pipe()
	h := &harness{
		display: &recordingDisplay{},
		timer:   &recordingDelayer{},
		sleeper: &recordingSleeper{},
		end:     a,
		peer: &fakeControl{
			link:    protocol.NewLink(b),
			answers: answers,
			done:    make(chan struct{}),
		},
	}
	h.node = New(Config{
		Display: h.display,
		Keypad:  keys(script),
		Link:    protocol.NewLink(a),
		Timer:   h.timer,
		Sleep:   h.sleeper.Sleep,
		OnStateChange: func(from, to State) {
			h.states = append(h.states, to)
		},
	})
	go h.peer.run(context.Background())
	return h
}

// finish closes the link and waits until the peer consumed everything sent
func (h *harness) finish() {
	h.end.Close()
	<-h.peer.done
}
