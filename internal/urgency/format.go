package urgency

import (
	"fmt"
	"time"

	"github.com/imkarma/planner/internal/store"
)

// Class is the single date label a task carries at a given instant.
type Class string

const (
	ClassOverdue  Class = "overdue"
	ClassToday    Class = "today"
	ClassTomorrow Class = "tomorrow"
	ClassUpcoming Class = "upcoming"
	ClassSomeday  Class = "someday"
)

// Classify labels a task by its due instant, or its scheduled instant when
// it has no due date. Exactly one class applies.
func Classify(t store.Task, now time.Time) Class {
	if IsOverdue(t, now) {
		return ClassOverdue
	}
	at, ok := DueInstant(t)
	if !ok {
		at, ok = ScheduledInstant(t)
	}
	switch {
	case !ok:
		return ClassSomeday
	case sameDay(at, now):
		return ClassToday
	case isTomorrow(at, now):
		return ClassTomorrow
	case at.After(now) && at.Sub(now) < upcomingWindow:
		return ClassUpcoming
	default:
		return ClassSomeday
	}
}

// FormatRelative renders at relative to now: "5m ago", "3h ago", "2d ago",
// or "in 5m", "in 3h", "in 2d".
func FormatRelative(at, now time.Time) string {
	d := at.Sub(now)
	past := d < 0
	if past {
		d = -d
	}

	minutes := int64(d / time.Minute)
	var s string
	switch {
	case minutes < 60:
		s = fmt.Sprintf("%dm", minutes)
	case minutes < 1440:
		s = fmt.Sprintf("%dh", minutes/60)
	default:
		s = fmt.Sprintf("%dd", minutes/1440)
	}

	if past {
		return s + " ago"
	}
	return "in " + s
}
