// Package undo keeps a bounded history of task mutations and replays their
// inverses newest first. Replaying does not record anything, so repeated
// undos walk straight back through history.
package undo

import (
	"context"
	"fmt"

	"github.com/imkarma/planner/internal/store"
)

// DefaultCapacity is the number of records kept before the oldest is evicted.
const DefaultCapacity = 50

// Op is the kind of mutation a record reverses.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Record describes one mutation. Task is the task after create/update or the
// removed task for delete; Previous is set only for update.
type Record struct {
	Op       Op
	Task     store.Task
	Previous *store.Task
}

// Reverter applies inverse effects to storage and the live collection.
type Reverter interface {
	RemoveTask(ctx context.Context, id string) error
	RestoreTask(ctx context.Context, t store.Task) error
}

// History is a ring buffer of records. When full, a push overwrites the
// oldest record.
type History struct {
	records []Record
	head    int // index of the oldest record
	size    int
}

// NewHistory creates a history holding at most capacity records.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &History{records: make([]Record, capacity)}
}

// Cap returns the maximum number of records.
func (h *History) Cap() int { return len(h.records) }

// Len returns the number of records held.
func (h *History) Len() int { return h.size }

// CanUndo reports whether there is anything to undo.
func (h *History) CanUndo() bool { return h.size > 0 }

// Push records a mutation, evicting the oldest record when full.
func (h *History) Push(r Record) {
	r = cloneRecord(r)
	if h.size < len(h.records) {
		h.records[(h.head+h.size)%len(h.records)] = r
		h.size++
		return
	}
	h.records[h.head] = r
	h.head = (h.head + 1) % len(h.records)
}

// Peek returns the newest record without removing it.
func (h *History) Peek() (Record, bool) {
	if h.size == 0 {
		return Record{}, false
	}
	return h.records[h.newest()], true
}

// Pop removes and returns the newest record.
func (h *History) Pop() (Record, bool) {
	r, ok := h.Peek()
	if !ok {
		return Record{}, false
	}
	h.records[h.newest()] = Record{}
	h.size--
	return r, true
}

// Reset drops every record.
func (h *History) Reset() {
	for i := range h.records {
		h.records[i] = Record{}
	}
	h.head, h.size = 0, 0
}

func (h *History) newest() int {
	return (h.head + h.size - 1) % len(h.records)
}

// Undo reverses the newest record through rv. The record is only dropped
// once the inverse succeeds, so a failed undo can be retried. It returns
// the reversed record and false when the history was empty.
func (h *History) Undo(ctx context.Context, rv Reverter) (Record, bool, error) {
	r, ok := h.Peek()
	if !ok {
		return Record{}, false, nil
	}
	if err := Apply(ctx, r, rv); err != nil {
		return r, true, err
	}
	h.Pop()
	return r, true, nil
}

// Apply performs the structural inverse of r.
func Apply(ctx context.Context, r Record, rv Reverter) error {
	switch r.Op {
	case OpCreate:
		return rv.RemoveTask(ctx, r.Task.ID)
	case OpUpdate:
		if r.Previous == nil {
			return fmt.Errorf("update record for %s has no previous snapshot", r.Task.ID)
		}
		return rv.RestoreTask(ctx, *r.Previous)
	case OpDelete:
		return rv.RestoreTask(ctx, r.Task)
	default:
		return fmt.Errorf("unknown undo op %q", r.Op)
	}
}

func cloneRecord(r Record) Record {
	r.Task = r.Task.Clone()
	if r.Previous != nil {
		p := r.Previous.Clone()
		r.Previous = &p
	}
	return r
}
