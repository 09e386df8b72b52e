package clock

import "time"

type Timer interface {
	Stop() bool
}

// Scheduler runs deferred work.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type system struct{}

func (system) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// System schedules on the wall clock with time.AfterFunc.
func System() Scheduler { return system{} }
