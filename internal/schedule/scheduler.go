package schedule

import "time"

// CancelFunc stops a pending timer. It reports false if the timer already fired
// or was cancelled.
type CancelFunc func() bool

type Clock interface {
	Now() time.Time
}

type Scheduler interface {
	Clock
	// ScheduleOnce runs fn once at deadline. fn may run on another goroutine.
	ScheduleOnce(deadline time.Time, fn func()) CancelFunc
}

// Real is the wall-clock scheduler backed by time.AfterFunc.
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

func (r Real) ScheduleOnce(deadline time.Time, fn func()) CancelFunc {
	t := time.AfterFunc(time.Until(deadline), fn)
	return t.Stop
}
