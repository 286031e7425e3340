package schedule

import (
	"sort"
	"sync"
	"time"
)

// Manual is a scheduler whose clock only moves when told to. Due callbacks run
// synchronously inside Advance and Set, in deadline order.
type Manual struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*manualTimer
}

type manualTimer struct {
	seq      int
	deadline time.Time
	fn       func()
	stopped  bool
}

func NewManual(now time.Time) *Manual {
	return &Manual{now: now}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) ScheduleOnce(deadline time.Time, fn func()) CancelFunc {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	t := &manualTimer{seq: m.seq, deadline: deadline, fn: fn}
	m.timers = append(m.timers, t)

	return func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		if t.stopped {
			return false
		}
		t.stopped = true
		return true
	}
}

// Pending counts timers that have neither fired nor been cancelled.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

func (m *Manual) Advance(d time.Duration) {
	m.Set(m.Now().Add(d))
}

func (m *Manual) Set(now time.Time) {
	m.mu.Lock()
	m.now = now
	var due []*manualTimer
	for _, t := range m.timers {
		if !t.stopped && !t.deadline.After(now) {
			t.stopped = true
			due = append(due, t)
		}
	}
	m.compact()
	m.mu.Unlock()

	sort.Slice(due, func(i, j int) bool {
		if due[i].deadline.Equal(due[j].deadline) {
			return due[i].seq < due[j].seq
		}
		return due[i].deadline.Before(due[j].deadline)
	})
	for _, t := range due {
		t.fn()
	}
}

func (m *Manual) compact() {
	live := m.timers[:0]
	for _, t := range m.timers {
		if !t.stopped {
			live = append(live, t)
		}
	}
	m.timers = live
}
