package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManual_FiresInDeadlineOrder(t *testing.T) {
	start := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	m := NewManual(start)

	var fired []string
	m.ScheduleOnce(start.Add(2*time.Minute), func() { fired = append(fired, "second") })
	m.ScheduleOnce(start.Add(time.Minute), func() { fired = append(fired, "first") })
	m.ScheduleOnce(start.Add(time.Hour), func() { fired = append(fired, "later") })

	m.Advance(5 * time.Minute)

	assert.Equal(t, []string{"first", "second"}, fired)
	assert.Equal(t, 1, m.Pending())
	assert.Equal(t, start.Add(5*time.Minute), m.Now())
}

func TestManual_Cancel(t *testing.T) {
	start := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	m := NewManual(start)

	fired := false
	cancel := m.ScheduleOnce(start.Add(time.Minute), func() { fired = true })

	assert.True(t, cancel())
	assert.False(t, cancel())

	m.Advance(time.Hour)
	assert.False(t, fired)
	assert.Equal(t, 0, m.Pending())
}

func TestManual_FiresOnlyOnce(t *testing.T) {
	start := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	m := NewManual(start)

	count := 0
	cancel := m.ScheduleOnce(start.Add(time.Minute), func() { count++ })

	m.Advance(time.Minute)
	m.Advance(time.Minute)

	assert.Equal(t, 1, count)
	assert.False(t, cancel(), "cancelling a fired timer reports false")
}

func TestManual_CallbackMaySchedule(t *testing.T) {
	start := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	m := NewManual(start)

	chained := false
	m.ScheduleOnce(start.Add(time.Minute), func() {
		m.ScheduleOnce(m.Now().Add(time.Minute), func() { chained = true })
	})

	m.Advance(time.Minute)
	assert.False(t, chained)
	m.Advance(time.Minute)
	assert.True(t, chained)
}

func TestReal_Cancel(t *testing.T) {
	var r Real
	done := make(chan struct{})
	cancel := r.ScheduleOnce(time.Now().Add(time.Hour), func() { close(done) })
	assert.True(t, cancel())

	fired := make(chan struct{})
	r.ScheduleOnce(time.Now(), func() { close(fired) })
	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}
}

// Manual runs fn inside Set on the caller's goroutine; Real runs it from the
// timer goroutine.
func TestScheduleOnce_CallbackGoroutine(t *testing.T) {
	m := NewManual(time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC))

	tests := []struct {
		name    string
		s       Scheduler
		advance func()
		sync    bool
	}{
		{name: "manual", s: m, advance: func() { m.Advance(time.Minute) }, sync: true},
		{name: "real", s: Real{}, advance: func() {}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fired := make(chan struct{})
			tt.s.ScheduleOnce(tt.s.Now().Add(time.Millisecond), func() { close(fired) })
			tt.advance()

			if tt.sync {
				select {
				case <-fired:
				default:
					t.Fatal("manual scheduler must fire before Advance returns")
				}
				return
			}
			select {
			case <-fired:
			case <-time.After(2 * time.Second):
				t.Fatal("timer did not fire")
			}
		})
	}
}
