package planner

import (
	"time"

	"github.com/imkarma/planner/internal/store"
)

// Field is one optional slot in a Patch. The zero Field leaves the task
// untouched; Set(v) overwrites it. For nullable fields Set(nil) clears.
type Field[T any] struct {
	set   bool
	value T
}

// Set returns a Field that overwrites the target with v.
func Set[T any](v T) Field[T] {
	return Field[T]{set: true, value: v}
}

// IsSet reports whether the field carries a value.
func (f Field[T]) IsSet() bool { return f.set }

// Value returns the carried value.
func (f Field[T]) Value() T { return f.value }

func (f Field[T]) apply(dst *T) {
	if f.set {
		*dst = f.value
	}
}

// Patch lists the mutable task fields. ID, CreatedAt and TimeZone are fixed
// at creation and cannot be patched.
type Patch struct {
	Title            Field[string]
	Kind             Field[store.Kind]
	Subject          Field[*string]
	Notes            Field[*string]
	DueDate          Field[*string]
	DueTime          Field[*string]
	ScheduledDate    Field[*string]
	ScheduledTime    Field[*string]
	EstimatedMinutes Field[*int]
	Priority         Field[store.Priority]
	PomodoroCount    Field[int]
	Completed        Field[bool]
	CompletedAt      Field[*time.Time]
	Order            Field[int]
}

func (p Patch) apply(t *store.Task) {
	p.Title.apply(&t.Title)
	p.Kind.apply(&t.Kind)
	p.Subject.apply(&t.Subject)
	p.Notes.apply(&t.Notes)
	p.DueDate.apply(&t.DueDate)
	p.DueTime.apply(&t.DueTime)
	p.ScheduledDate.apply(&t.ScheduledDate)
	p.ScheduledTime.apply(&t.ScheduledTime)
	p.EstimatedMinutes.apply(&t.EstimatedMinutes)
	p.Priority.apply(&t.Priority)
	p.PomodoroCount.apply(&t.PomodoroCount)
	p.Completed.apply(&t.Completed)
	p.CompletedAt.apply(&t.CompletedAt)
	p.Order.apply(&t.Order)
}

// String returns a pointer to s, for nullable patch fields.
func String(s string) *string { return &s }

// Int returns a pointer to n, for nullable patch fields.
func Int(n int) *int { return &n }
