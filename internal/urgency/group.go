package urgency

import (
	"sort"
	"time"

	"github.com/imkarma/planner/internal/store"
)

// Bucket is one of the four board columns.
type Bucket string

const (
	BucketUrgent   Bucket = "urgent"
	BucketToday    Bucket = "today"
	BucketUpcoming Bucket = "upcoming"
	BucketSomeday  Bucket = "someday"
)

// Buckets lists the board columns in display order.
var Buckets = []Bucket{BucketUrgent, BucketToday, BucketUpcoming, BucketSomeday}

// Groups holds incomplete tasks partitioned into buckets.
type Groups struct {
	Urgent   []store.Task
	Today    []store.Task
	Upcoming []store.Task
	Someday  []store.Task
}

// Get returns the tasks in bucket b.
func (g Groups) Get(b Bucket) []store.Task {
	switch b {
	case BucketUrgent:
		return g.Urgent
	case BucketToday:
		return g.Today
	case BucketUpcoming:
		return g.Upcoming
	default:
		return g.Someday
	}
}

// Len is the number of tasks across all buckets.
func (g Groups) Len() int {
	return len(g.Urgent) + len(g.Today) + len(g.Upcoming) + len(g.Someday)
}

// BucketOf places an incomplete task. Tests run in order and the first
// match wins, so an overdue task scheduled for today is urgent.
func BucketOf(t store.Task, now time.Time) Bucket {
	due, hasDue := DueInstant(t)
	if hasDue && (due.Before(now) || sameDay(due, now)) {
		return BucketUrgent
	}
	if at, ok := ScheduledInstant(t); ok && sameDay(at, now) {
		return BucketToday
	}
	if hasDue && due.Sub(now) < upcomingWindow {
		return BucketUpcoming
	}
	return BucketSomeday
}

// Group partitions incomplete tasks into buckets. Urgent, today and
// upcoming are ordered by Score; someday by manual order.
func Group(tasks []store.Task, now time.Time) Groups {
	var g Groups
	for _, t := range tasks {
		if t.Completed {
			continue
		}
		switch BucketOf(t, now) {
		case BucketUrgent:
			g.Urgent = append(g.Urgent, t)
		case BucketToday:
			g.Today = append(g.Today, t)
		case BucketUpcoming:
			g.Upcoming = append(g.Upcoming, t)
		default:
			g.Someday = append(g.Someday, t)
		}
	}

	byScore(g.Urgent, now)
	byScore(g.Today, now)
	byScore(g.Upcoming, now)
	sort.SliceStable(g.Someday, func(i, j int) bool {
		return g.Someday[i].Order < g.Someday[j].Order
	})
	return g
}

func byScore(tasks []store.Task, now time.Time) {
	scores := make(map[string]float64, len(tasks))
	for _, t := range tasks {
		scores[t.ID] = Score(t, now)
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		si, sj := scores[tasks[i].ID], scores[tasks[j].ID]
		if si != sj {
			return si < sj
		}
		return tasks[i].Order < tasks[j].Order
	})
}
