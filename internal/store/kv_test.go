package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestKV_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "planner.kv.json")

	kv, err := NewKV(path)
	if err != nil {
		t.Fatalf("NewKV: %v", err)
	}
	want := sampleTask("a", 1)
	if err := kv.PutTask(ctx, want, testMeta()); err != nil {
		t.Fatalf("PutTask: %v", err)
	}

	reopened, err := NewKV(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	tasks, err := reopened.LoadTasks(ctx)
	if err != nil {
		t.Fatalf("LoadTasks: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	assertTaskEqual(t, want, tasks[0])

	m, ok, err := reopened.LoadMetadata(ctx)
	if err != nil || !ok {
		t.Fatalf("LoadMetadata: ok=%v err=%v", ok, err)
	}
	if m.SchemaVersion != SchemaVersion {
		t.Errorf("expected schema version %d, got %d", SchemaVersion, m.SchemaVersion)
	}
}

func TestKV_MemoryOnly(t *testing.T) {
	ctx := context.Background()
	kv, err := NewKV("")
	if err != nil {
		t.Fatalf("NewKV: %v", err)
	}

	kv.PutTask(ctx, sampleTask("a", 1), testMeta())
	kv.PutTask(ctx, sampleTask("b", 2), testMeta())
	kv.PutTask(ctx, sampleTask("a", 3), testMeta())

	tasks, _ := kv.LoadTasks(ctx)
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks after upsert, got %d", len(tasks))
	}
	if tasks[0].ID != "a" || tasks[0].Order != 3 {
		t.Errorf("expected a to be updated in place, got %+v", tasks[0])
	}

	kv.RemoveTask(ctx, "a", testMeta())
	kv.RemoveTask(ctx, "missing", testMeta())
	tasks, _ = kv.LoadTasks(ctx)
	if len(tasks) != 1 || tasks[0].ID != "b" {
		t.Fatalf("expected only b, got %+v", tasks)
	}

	if err := kv.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	tasks, _ = kv.LoadTasks(ctx)
	if len(tasks) != 0 {
		t.Errorf("expected empty after clear, got %d", len(tasks))
	}
	if _, ok, _ := kv.LoadMetadata(ctx); ok {
		t.Error("expected metadata cleared")
	}
}

func TestKV_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "planner.kv.json")
	os.WriteFile(path, []byte("{not json"), 0644)

	if _, err := NewKV(path); err == nil {
		t.Fatal("expected error for corrupt kv file")
	}
}

func TestKV_ReplaceKeepsStateOnWriteFailure(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "planner.kv.json")

	kv, _ := NewKV(path)
	kv.PutTask(ctx, sampleTask("keep", 1), testMeta())

	// Swap the directory for a regular file so the next write cannot land.
	os.RemoveAll(filepath.Join(dir, "sub"))
	os.WriteFile(filepath.Join(dir, "sub"), []byte("x"), 0644)

	err := kv.Replace(ctx, Snapshot{Tasks: []Task{sampleTask("new", 1)}, Metadata: testMeta()})
	if err == nil {
		t.Fatal("expected replace to fail")
	}
	tasks, _ := kv.LoadTasks(ctx)
	if len(tasks) != 1 || tasks[0].ID != "keep" {
		t.Fatalf("expected in-memory state unchanged, got %+v", tasks)
	}
}
