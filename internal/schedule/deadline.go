package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/AdamBeresnev/tourney/internal/utils"
)

// Labels accepted as "right away" by ResolveDeadline.
var immediateLabels = map[string]struct{}{
	"":         {},
	"now":      {},
	"agora":    {},
	"imediato": {},
}

// ResolveDeadline turns an "HH:MM" time of day into an instant on now's calendar
// day, in now's location. A nil result means "immediately": either an immediate
// label was given or the instant is not strictly after now.
func ResolveDeadline(timeOfDay string, now time.Time) (*time.Time, error) {
	label := strings.ToLower(strings.TrimSpace(timeOfDay))
	if _, ok := immediateLabels[label]; ok {
		return nil, nil
	}

	hours, minutes, ok := strings.Cut(label, ":")
	if !ok {
		return nil, fmt.Errorf("invalid time of day %q: expected HH:MM", timeOfDay)
	}
	h, ok := parseDigits(hours, 1, 2)
	if !ok || h > 23 {
		return nil, fmt.Errorf("invalid hour in %q", timeOfDay)
	}
	m, ok := parseDigits(minutes, 2, 2)
	if !ok || m > 59 {
		return nil, fmt.Errorf("invalid minute in %q", timeOfDay)
	}

	deadline := time.Date(now.Year(), now.Month(), now.Day(), h, m, 0, 0, now.Location())
	if !deadline.After(now) {
		return nil, nil
	}
	return utils.Ptr(deadline), nil
}

// parseDigits accepts only ASCII digits, between minLen and maxLen of them.
func parseDigits(s string, minLen, maxLen int) (int, bool) {
	if len(s) < minLen || len(s) > maxLen {
		return 0, false
	}
	n := 0
	for _, c := range []byte(s) {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

// MinutesUntil rounds the remaining time up to whole minutes.
func MinutesUntil(deadline, now time.Time) int {
	remaining := deadline.Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int((remaining + time.Minute - 1) / time.Minute)
}
