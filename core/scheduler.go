package core

// ScheduledEvent represents an entry on a virtual clock
type ScheduledEvent struct {
	WakeTime uint32
	Handler  func(*ScheduledEvent) uint8
	Next     *ScheduledEvent
}

const (
	SF_DONE       = 0
	SF_RESCHEDULE = 1
)

// Scheduler is a sorted event list driven by an explicit clock value.
// Handlers that return SF_RESCHEDULE must have moved their WakeTime forward.
type Scheduler struct {
	list *ScheduledEvent
	now  uint32
}

// Now returns the clock value of the last dispatch
func (s *Scheduler) Now() uint32 {
	return s.now
}

// Schedule adds an event to the list
func (s *Scheduler) Schedule(e *ScheduledEvent) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	s.insert(e)
}

// Cancel removes an event if present
func (s *Scheduler) Cancel(e *ScheduledEvent) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	if s.list == e {
		s.list = e.Next
		e.Next = nil
		return
	}
	for cur := s.list; cur != nil; cur = cur.Next {
		if cur.Next == e {
			cur.Next = e.Next
			e.Next = nil
			return
		}
	}
}

// Peek returns the WakeTime of the earliest event
func (s *Scheduler) Peek() (uint32, bool) {
	if s.list == nil {
		return 0, false
	}
	return s.list.WakeTime, true
}

// insert inserts an event in sorted order by WakeTime
func (s *Scheduler) insert(e *ScheduledEvent) {
	if s.list == nil || e.WakeTime < s.list.WakeTime {
		e.Next = s.list
		s.list = e
		return
	}

	current := s.list
	for current.Next != nil && current.Next.WakeTime <= e.WakeTime {
		current = current.Next
	}

	e.Next = current.Next
	current.Next = e
}

// Dispatch moves the clock to now and runs every due event in WakeTime order
func (s *Scheduler) Dispatch(now uint32) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	for s.list != nil && s.list.WakeTime <= now {
		event := s.list
		s.list = event.Next
		event.Next = nil
		s.now = event.WakeTime

		if event.Handler(event) == SF_RESCHEDULE {
			s.insert(event)
		}
	}
	s.now = now
}
