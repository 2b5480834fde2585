package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// TraceEvent captures a timer or bus event for post-mortem analysis
type TraceEvent struct {
	EventType uint8  // Event type code
	Source    uint8  // Event source, bus status or opcode depending on type
	Value1    uint32 // Context-dependent value
	Value2    uint32 // Context-dependent value
}

// Event type codes
const (
	EvtTimerArm    = 1 // Timer armed (Value1 = compare value, Value2 = prescaler)
	EvtTimerFire   = 2 // Timer event dispatched to its slot
	EvtDelayDone   = 3 // Delay completed (Value1 = ticks waited)
	EvtBusStatus   = 4 // Bus status observed (Source = status, Value1 = expected)
	EvtBusTimeout  = 5 // Bus operation hit its deadline
	EvtLinkOpcode  = 6 // Opcode sent or received
	EvtStoreResult = 7 // Storage operation result (Value1 = address, Value2 = 0 ok / 1 error)
)

const (
	TraceRingSize = 32 // Keep last 32 events for post-mortem
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false

	// Trace ring buffer (non-blocking, for post-mortem)
	traceRing     [TraceRingSize]TraceEvent
	traceRingHead uint8
	traceEnabled  bool = true
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, glog, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// Logf joins the parts into a single line tagged with the subsystem name.
// It avoids fmt so it stays cheap on the firmware path.
func Logf(tag string, parts ...string) {
	if !debugEnabled || debugPrintln == nil {
		return
	}
	line := "[" + tag + "]"
	for _, p := range parts {
		line += " " + p
	}
	debugPrintln(line)
}

// RecordTrace captures an event in the ring buffer
func RecordTrace(eventType, source uint8, value1, value2 uint32) {
	if !traceEnabled {
		return
	}
	state := lockTrace()
	idx := traceRingHead
	traceRing[idx] = TraceEvent{
		EventType: eventType,
		Source:    source,
		Value1:    value1,
		Value2:    value2,
	}
	traceRingHead = (idx + 1) % TraceRingSize
	unlockTrace(state)
}

// TraceSnapshot returns the recorded events from oldest to newest
func TraceSnapshot() []TraceEvent {
	state := lockTrace()
	defer unlockTrace(state)

	events := make([]TraceEvent, 0, TraceRingSize)
	start := traceRingHead
	for i := uint8(0); i < TraceRingSize; i++ {
		evt := traceRing[(start+i)%TraceRingSize]
		if evt.EventType == 0 {
			continue // Empty slot
		}
		events = append(events, evt)
	}
	return events
}

// DumpTrace outputs the trace ring (called after a bus error)
func DumpTrace() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[TRACE] === Trace Ring Dump ===")
	for _, evt := range TraceSnapshot() {
		var name string
		switch evt.EventType {
		case EvtTimerArm:
			name = "TIMER_ARM"
		case EvtTimerFire:
			name = "TIMER_FIRE"
		case EvtDelayDone:
			name = "DELAY_DONE"
		case EvtBusStatus:
			name = "BUS_STATUS"
		case EvtBusTimeout:
			name = "BUS_TIMEOUT!"
		case EvtLinkOpcode:
			name = "LINK_OPCODE"
		case EvtStoreResult:
			name = "STORE"
		default:
			name = "UNKNOWN"
		}

		debugPrintln("[TRACE] " + name +
			" src=" + Hex8(evt.Source) +
			" v1=" + utoa(evt.Value1) +
			" v2=" + utoa(evt.Value2))
	}
	debugPrintln("[TRACE] === End Dump ===")
}

// ClearTrace clears the trace buffer
func ClearTrace() {
	state := lockTrace()
	for i := range traceRing {
		traceRing[i] = TraceEvent{}
	}
	traceRingHead = 0
	unlockTrace(state)
}
