package undo

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/imkarma/planner/internal/store"
)

// fakeReverter records the inverse calls it receives.
type fakeReverter struct {
	removed  []string
	restored []store.Task
	err      error
}

func (f *fakeReverter) RemoveTask(ctx context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	f.removed = append(f.removed, id)
	return nil
}

func (f *fakeReverter) RestoreTask(ctx context.Context, t store.Task) error {
	if f.err != nil {
		return f.err
	}
	f.restored = append(f.restored, t)
	return nil
}

func rec(op Op, id string) Record {
	return Record{Op: op, Task: store.Task{ID: id, Title: id}}
}

func TestHistory_Empty(t *testing.T) {
	h := NewHistory(3)
	if h.CanUndo() {
		t.Error("new history should not be undoable")
	}
	if _, ok := h.Pop(); ok {
		t.Error("pop on empty history should report false")
	}

	rv := &fakeReverter{}
	_, ok, err := h.Undo(context.Background(), rv)
	if ok || err != nil {
		t.Errorf("undo on empty history: ok=%v err=%v", ok, err)
	}
	if len(rv.removed)+len(rv.restored) != 0 {
		t.Error("empty undo must not touch the reverter")
	}
}

func TestHistory_LIFO(t *testing.T) {
	h := NewHistory(5)
	h.Push(rec(OpCreate, "a"))
	h.Push(rec(OpCreate, "b"))
	h.Push(rec(OpCreate, "c"))

	for _, want := range []string{"c", "b", "a"} {
		r, ok := h.Pop()
		if !ok || r.Task.ID != want {
			t.Fatalf("expected %s, got %+v (ok=%v)", want, r, ok)
		}
	}
	if h.CanUndo() {
		t.Error("expected history drained")
	}
}

func TestHistory_EvictsOldest(t *testing.T) {
	h := NewHistory(DefaultCapacity)
	for i := 0; i < DefaultCapacity+1; i++ {
		h.Push(rec(OpCreate, fmt.Sprintf("t%d", i)))
	}
	if h.Len() != DefaultCapacity {
		t.Fatalf("expected %d records, got %d", DefaultCapacity, h.Len())
	}

	var last Record
	n := 0
	for h.CanUndo() {
		last, _ = h.Pop()
		n++
	}
	if n != DefaultCapacity {
		t.Errorf("expected %d pops, got %d", DefaultCapacity, n)
	}
	if last.Task.ID != "t1" {
		t.Errorf("expected oldest surviving record t1, got %s", last.Task.ID)
	}
}

func TestHistory_WrapAroundThenPushAgain(t *testing.T) {
	h := NewHistory(2)
	h.Push(rec(OpCreate, "a"))
	h.Push(rec(OpCreate, "b"))
	h.Push(rec(OpCreate, "c")) // evicts a
	h.Pop()                    // c
	h.Push(rec(OpCreate, "d"))

	r1, _ := h.Pop()
	r2, _ := h.Pop()
	if r1.Task.ID != "d" || r2.Task.ID != "b" {
		t.Errorf("expected d then b, got %s then %s", r1.Task.ID, r2.Task.ID)
	}
}

func TestHistory_PushSnapshotsTask(t *testing.T) {
	h := NewHistory(2)
	title := "original"
	task := store.Task{ID: "a", Subject: &title}
	h.Push(Record{Op: OpDelete, Task: task})

	title = "mutated"
	r, _ := h.Peek()
	if *r.Task.Subject != "original" {
		t.Errorf("record aliases caller memory: got %q", *r.Task.Subject)
	}
}

func TestApply(t *testing.T) {
	prev := store.Task{ID: "a", Title: "before"}
	tests := []struct {
		name         string
		record       Record
		wantRemoved  string
		wantRestored string
	}{
		{"create removes", rec(OpCreate, "a"), "a", ""},
		{"update restores previous", Record{Op: OpUpdate, Task: store.Task{ID: "a", Title: "after"}, Previous: &prev}, "", "before"},
		{"delete restores task", Record{Op: OpDelete, Task: store.Task{ID: "a", Title: "gone"}}, "", "gone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rv := &fakeReverter{}
			if err := Apply(context.Background(), tt.record, rv); err != nil {
				t.Fatalf("Apply: %v", err)
			}
			if tt.wantRemoved != "" && (len(rv.removed) != 1 || rv.removed[0] != tt.wantRemoved) {
				t.Errorf("expected removal of %s, got %v", tt.wantRemoved, rv.removed)
			}
			if tt.wantRestored != "" && (len(rv.restored) != 1 || rv.restored[0].Title != tt.wantRestored) {
				t.Errorf("expected restore of %q, got %+v", tt.wantRestored, rv.restored)
			}
		})
	}
}

func TestApply_Invalid(t *testing.T) {
	rv := &fakeReverter{}
	if err := Apply(context.Background(), Record{Op: OpUpdate, Task: store.Task{ID: "a"}}, rv); err == nil {
		t.Error("expected error for update without previous")
	}
	if err := Apply(context.Background(), Record{Op: "rename"}, rv); err == nil {
		t.Error("expected error for unknown op")
	}
}

func TestUndo_KeepsRecordOnFailure(t *testing.T) {
	h := NewHistory(3)
	h.Push(rec(OpCreate, "a"))

	rv := &fakeReverter{err: errors.New("disk full")}
	_, ok, err := h.Undo(context.Background(), rv)
	if !ok || err == nil {
		t.Fatalf("expected failed undo, got ok=%v err=%v", ok, err)
	}
	if h.Len() != 1 {
		t.Errorf("failed undo must keep the record, len=%d", h.Len())
	}

	rv.err = nil
	r, ok, err := h.Undo(context.Background(), rv)
	if !ok || err != nil || r.Task.ID != "a" {
		t.Fatalf("retry: r=%+v ok=%v err=%v", r, ok, err)
	}
	if h.CanUndo() {
		t.Error("expected history empty after successful retry")
	}
}
