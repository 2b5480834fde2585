package core

import "testing"

func TestSchedulerDispatchOrder(t *testing.T) {
	var s Scheduler
	var order []uint32

	record := func(e *ScheduledEvent) uint8 {
		order = append(order, e.WakeTime)
		return SF_DONE
	}

	late := &ScheduledEvent{WakeTime: 300, Handler: record}
	early := &ScheduledEvent{WakeTime: 100, Handler: record}
	mid := &ScheduledEvent{WakeTime: 200, Handler: record}
	s.Schedule(late)
	s.Schedule(early)
	s.Schedule(mid)

	if next, ok := s.Peek(); !ok || next != 100 {
		t.Errorf("Expected earliest event at 100, got %d (ok=%v)", next, ok)
	}

	s.Dispatch(250)
	if len(order) != 2 || order[0] != 100 || order[1] != 200 {
		t.Errorf("Expected [100 200], got %v", order)
	}
	if s.Now() != 250 {
		t.Errorf("Expected clock at 250, got %d", s.Now())
	}

	s.Dispatch(300)
	if len(order) != 3 || order[2] != 300 {
		t.Errorf("Expected third event at 300, got %v", order)
	}
	if _, ok := s.Peek(); ok {
		t.Error("Expected empty list")
	}
}

func TestSchedulerReschedule(t *testing.T) {
	var s Scheduler
	count := 0

	periodic := &ScheduledEvent{WakeTime: 10}
	periodic.Handler = func(e *ScheduledEvent) uint8 {
		count++
		e.WakeTime += 10
		return SF_RESCHEDULE
	}
	s.Schedule(periodic)

	s.Dispatch(45)
	if count != 4 {
		t.Errorf("Expected 4 events by 45, got %d", count)
	}
	if next, _ := s.Peek(); next != 50 {
		t.Errorf("Expected next event at 50, got %d", next)
	}
}

func TestSchedulerCancel(t *testing.T) {
	var s Scheduler
	fired := false

	a := &ScheduledEvent{WakeTime: 5, Handler: func(*ScheduledEvent) uint8 { return SF_DONE }}
	b := &ScheduledEvent{WakeTime: 10, Handler: func(*ScheduledEvent) uint8 { fired = true; return SF_DONE }}
	s.Schedule(a)
	s.Schedule(b)

	s.Cancel(b)
	s.Cancel(b) // not present
	s.Dispatch(20)
	if fired {
		t.Error("Canceled event fired")
	}
}

func TestVirtualTimerAdvance(t *testing.T) {
	vt := NewVirtualTimer(false)
	var fired []EventSource

	cfg := TimerConfig{CompareValue: 99, Prescaler: Div8, Mode: ModeCompare}
	if err := vt.Arm(cfg, func(src EventSource) { fired = append(fired, src) }); err != nil {
		t.Fatalf("Arm failed: %v", err)
	}

	vt.Advance(99)
	if len(fired) != 0 {
		t.Fatalf("Fired before the compare match: %v", fired)
	}
	vt.Advance(1)
	if len(fired) != 1 || fired[0] != EventCompareA {
		t.Fatalf("Expected one compare event, got %v", fired)
	}

	vt.AdvancePeriods(3)
	if len(fired) != 4 {
		t.Errorf("Expected 4 events, got %d", len(fired))
	}

	vt.Disarm()
	vt.AdvancePeriods(5)
	if len(fired) != 4 {
		t.Errorf("Expected no events after disarm, got %d", len(fired))
	}

	arms := vt.Arms()
	if len(arms) != 1 || arms[0] != cfg {
		t.Errorf("Expected one recorded arm, got %v", arms)
	}
	if fires := vt.FiresPerArm(); fires[0] != 4 {
		t.Errorf("Expected 4 fires recorded, got %d", fires[0])
	}
}

func TestVirtualTimerDisarmFromCallback(t *testing.T) {
	vt := NewVirtualTimer(false)
	count := 0

	cfg := TimerConfig{CompareValue: 9, Prescaler: Div1, Mode: ModeCompare}
	vt.Arm(cfg, func(EventSource) {
		count++
		vt.Disarm()
	})

	vt.Advance(10)
	vt.Advance(100)
	if count != 1 {
		t.Errorf("Expected a single event, got %d", count)
	}
}
