// Package urgency classifies and orders tasks by how soon they need
// attention. Everything here is a pure function of the tasks and the
// evaluation instant; the evaluator's "today" is the calendar day of now in
// now.Location().
package urgency

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/imkarma/planner/internal/store"
)

// upcomingWindow is how far ahead a due date still counts as upcoming.
const upcomingWindow = 7 * 24 * time.Hour

var (
	zoneMu    sync.Mutex
	zoneCache = map[string]*time.Location{}
)

func loadZone(name string) (*time.Location, error) {
	zoneMu.Lock()
	defer zoneMu.Unlock()
	if loc, ok := zoneCache[name]; ok {
		return loc, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, err
	}
	zoneCache[name] = loc
	return loc, nil
}

// ResolveInstant combines a local date (YYYY-MM-DD) and optional local clock
// time (HH:mm, midnight when empty) in the named IANA zone. Zone rules,
// including DST, come from the tz database.
func ResolveInstant(date, clock, zone string) (time.Time, error) {
	loc, err := loadZone(zone)
	if err != nil {
		return time.Time{}, fmt.Errorf("load zone %q: %w", zone, err)
	}
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", date, err)
	}
	hour, min := 0, 0
	if clock != "" {
		c, err := time.Parse("15:04", clock)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse time %q: %w", clock, err)
		}
		hour, min = c.Hour(), c.Minute()
	}
	return time.Date(d.Year(), d.Month(), d.Day(), hour, min, 0, 0, loc), nil
}

func effective(date, clock *string, zone string) (time.Time, bool) {
	if date == nil {
		return time.Time{}, false
	}
	c := ""
	if clock != nil {
		c = *clock
	}
	at, err := ResolveInstant(*date, c, zone)
	if err != nil {
		return time.Time{}, false
	}
	return at, true
}

// DueInstant resolves the task's due date in its own time zone.
func DueInstant(t store.Task) (time.Time, bool) {
	return effective(t.DueDate, t.DueTime, t.TimeZone)
}

// ScheduledInstant resolves the task's scheduled date in its own time zone.
func ScheduledInstant(t store.Task) (time.Time, bool) {
	return effective(t.ScheduledDate, t.ScheduledTime, t.TimeZone)
}

// IsOverdue reports whether an incomplete task's due instant has passed.
func IsOverdue(t store.Task, now time.Time) bool {
	if t.Completed {
		return false
	}
	due, ok := DueInstant(t)
	return ok && due.Before(now)
}

func priorityMultiplier(p store.Priority) float64 {
	switch p {
	case store.PriorityHigh:
		return 0.5
	case store.PriorityLow:
		return 1.5
	default:
		return 1.0
	}
}

func kindMultiplier(k store.Kind) float64 {
	if k == store.KindLife {
		return 1.1
	}
	return 0.9
}

// Score ranks a task; lower is more urgent. Completed tasks and tasks with
// no due date score +Inf. Overdue tasks score their (negative) minutes
// until due with no weighting.
func Score(t store.Task, now time.Time) float64 {
	if t.Completed {
		return math.Inf(1)
	}
	due, ok := DueInstant(t)
	if !ok {
		return math.Inf(1)
	}
	minutes := due.Sub(now).Minutes()
	if minutes < 0 {
		return minutes
	}
	return minutes * priorityMultiplier(t.Priority) * kindMultiplier(t.Kind)
}

// sameDay reports whether a falls on the calendar day of now, in now's zone.
func sameDay(a, now time.Time) bool {
	a = a.In(now.Location())
	y1, m1, d1 := a.Date()
	y2, m2, d2 := now.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

func isTomorrow(a, now time.Time) bool {
	return sameDay(a, now.AddDate(0, 0, 1))
}
