package control

import (
	"context"
	"sync"

	"doorlock/protocol"
)

// Handler runs one opcode; it reads any payload from the link itself
type Handler func(ctx context.Context) error

// Command is one registered opcode
type Command struct {
	Opcode  protocol.Opcode
	Name    string
	Handler Handler
}

// Registry maps opcodes to their handlers
type Registry struct {
	mu       sync.RWMutex
	commands map[protocol.Opcode]*Command
	order    []protocol.Opcode
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[protocol.Opcode]*Command),
	}
}

// Register installs the handler for op, replacing an earlier one
func (r *Registry) Register(op protocol.Opcode, name string, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.commands[op]; !exists {
		r.order = append(r.order, op)
	}
	r.commands[op] = &Command{Opcode: op, Name: name, Handler: handler}
}

// Lookup retrieves the command for op
func (r *Registry) Lookup(op protocol.Opcode) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[op]
	return cmd, ok
}

// Count returns the number of registered opcodes
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}

// Dispatch calls the handler registered for op
func (r *Registry) Dispatch(ctx context.Context, op protocol.Opcode) error {
	cmd, ok := r.Lookup(op)
	if !ok {
		return &UnknownOpcodeError{Opcode: op}
	}
	return cmd.Handler(ctx)
}

// Dictionary lists the registered opcodes in registration order, one per line
func (r *Registry) Dictionary() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	dict := ""
	for _, op := range r.order {
		dict += string([]byte{byte(op)}) + " " + r.commands[op].Name + "\n"
	}
	return dict
}

// UnknownOpcodeError matches protocol.ErrUnknownOpcode
type UnknownOpcodeError struct {
	Opcode protocol.Opcode
}

func (e *UnknownOpcodeError) Error() string {
	return "unknown opcode " + e.Opcode.String()
}

func (e *UnknownOpcodeError) Is(target error) bool {
	return target == protocol.ErrUnknownOpcode
}
