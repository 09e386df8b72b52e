package session

import "github.com/park285/Cheese-chess-coach/internal/clock"

type (
	Timer     = clock.Timer
	Scheduler = clock.Scheduler
)

func SystemScheduler() Scheduler { return clock.System() }
