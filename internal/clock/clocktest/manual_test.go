package clocktest

import (
	"testing"
	"time"
)

func TestManualRunsDueCallbacksInOrder(t *testing.T) {
	m := NewManual()
	var order []int
	m.AfterFunc(2*time.Second, func() { order = append(order, 2) })
	m.AfterFunc(time.Second, func() { order = append(order, 1) })
	stopped := m.AfterFunc(time.Second, func() { order = append(order, 99) })
	if !stopped.Stop() || stopped.Stop() {
		t.Fatalf("Stop should succeed exactly once")
	}
	if m.Pending() != 2 {
		t.Fatalf("expected 2 pending, got %d", m.Pending())
	}
	if n := m.Advance(999 * time.Millisecond); n != 0 {
		t.Fatalf("nothing is due yet, fired %d", n)
	}
	if n := m.Advance(2 * time.Second); n != 2 {
		t.Fatalf("expected 2 callbacks, fired %d", n)
	}
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("unexpected order %v", order)
	}
}

func TestRunAllFollowsRescheduledWork(t *testing.T) {
	m := NewManual()
	calls := 0
	var tick func()
	tick = func() {
		calls++
		if calls < 3 {
			m.AfterFunc(time.Second, tick)
		}
	}
	m.AfterFunc(time.Second, tick)
	if n := m.RunAll(); n != 3 || calls != 3 {
		t.Fatalf("RunAll fired %d, calls %d", n, calls)
	}
}
