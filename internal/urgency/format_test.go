package urgency

import (
	"testing"
	"time"

	"github.com/imkarma/planner/internal/store"
)

func TestFormatRelative(t *testing.T) {
	tests := []struct {
		offset time.Duration
		want   string
	}{
		{0, "in 0m"},
		{30 * time.Second, "in 0m"},
		{59 * time.Minute, "in 59m"},
		{60 * time.Minute, "in 1h"},
		{119 * time.Minute, "in 1h"},
		{1439 * time.Minute, "in 23h"},
		{1440 * time.Minute, "in 1d"},
		{3*24*time.Hour + 5*time.Hour, "in 3d"},
		{-5 * time.Minute, "5m ago"},
		{-90 * time.Minute, "1h ago"},
		{-48 * time.Hour, "2d ago"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := FormatRelative(noonUTC.Add(tt.offset), noonUTC); got != tt.want {
				t.Errorf("offset %v: got %q, want %q", tt.offset, got, tt.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	done := due(task("done", 1), "2026-10-17", "")
	done.Completed = true

	tests := []struct {
		name string
		task store.Task
		want Class
	}{
		{"overdue", due(task("a", 1), "2026-10-18", "11:00"), ClassOverdue},
		{"today", due(task("a", 1), "2026-10-18", "18:00"), ClassToday},
		{"tomorrow", due(task("a", 1), "2026-10-19", ""), ClassTomorrow},
		{"upcoming", due(task("a", 1), "2026-10-22", ""), ClassUpcoming},
		{"far", due(task("a", 1), "2026-11-22", ""), ClassSomeday},
		{"scheduled tomorrow", scheduled(task("a", 1), "2026-10-19", "09:00"), ClassTomorrow},
		{"no dates", task("a", 1), ClassSomeday},
		{"completed in the past", done, ClassSomeday},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.task, noonUTC); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}
