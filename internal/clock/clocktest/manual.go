// Package clocktest provides a manually advanced scheduler for tests.
package clocktest

import (
	"sort"
	"sync"
	"time"

	"github.com/park285/Cheese-chess-coach/internal/clock"
)

// Manual queues callbacks until Advance moves its clock past them.
type Manual struct {
	mu    sync.Mutex
	now   time.Duration
	seq   int
	tasks []*task
}

type task struct {
	m       *Manual
	at      time.Duration
	seq     int
	fn      func()
	stopped bool
	fired   bool
}

func NewManual() *Manual { return &Manual{} }

func (m *Manual) AfterFunc(d time.Duration, f func()) clock.Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t := &task{m: m, at: m.now + d, seq: m.seq, fn: f}
	m.tasks = append(m.tasks, t)
	return t
}

func (t *task) Stop() bool {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Pending counts callbacks that are neither fired nor stopped.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.tasks {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// Advance moves the clock forward and runs due callbacks in order on the
// caller's goroutine.
func (m *Manual) Advance(d time.Duration) int {
	m.mu.Lock()
	m.now += d
	due := make([]*task, 0)
	rest := m.tasks[:0]
	for _, t := range m.tasks {
		switch {
		case t.stopped || t.fired:
		case t.at <= m.now:
			t.fired = true
			due = append(due, t)
		default:
			rest = append(rest, t)
		}
	}
	m.tasks = rest
	m.mu.Unlock()

	sort.Slice(due, func(i, j int) bool {
		if due[i].at != due[j].at {
			return due[i].at < due[j].at
		}
		return due[i].seq < due[j].seq
	})
	for _, t := range due {
		t.fn()
	}
	return len(due)
}

// RunAll fires everything queued, including callbacks scheduled while running.
func (m *Manual) RunAll() int {
	total := 0
	for {
		m.mu.Lock()
		var latest time.Duration
		for _, t := range m.tasks {
			if !t.stopped && !t.fired && t.at > latest {
				latest = t.at
			}
		}
		step := latest - m.now
		if step < 0 {
			step = 0
		}
		m.mu.Unlock()
		n := m.Advance(step)
		if n == 0 {
			return total
		}
		total += n
	}
}
