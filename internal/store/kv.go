package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	kvTasksKey    = "tasks"
	kvMetadataKey = "metadata"
)

// KV is the fallback engine: a flat string map where each value is a JSON
// document, flushed to a single file after every write. With an empty path
// the map lives in memory only.
type KV struct {
	path string

	mu     sync.Mutex
	values map[string]string
}

// OpenKV returns an Opener for the key/value file at path.
func OpenKV(path string) Opener {
	return func(ctx context.Context) (Engine, error) {
		return NewKV(path)
	}
}

// NewKV loads the key/value file at path, creating nothing until the first
// write.
func NewKV(path string) (*KV, error) {
	kv := &KV{path: path, values: map[string]string{}}
	if path == "" {
		return kv, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return kv, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read kv file: %w", err)
	}
	if len(data) == 0 {
		return kv, nil
	}
	if err := json.Unmarshal(data, &kv.values); err != nil {
		return nil, fmt.Errorf("parse kv file: %w", err)
	}
	return kv, nil
}

// Name implements Engine.
func (kv *KV) Name() string { return "kv" }

// Close implements Engine.
func (kv *KV) Close() error { return nil }

// LoadTasks implements Engine.
func (kv *KV) LoadTasks(ctx context.Context) ([]Task, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	return kv.tasks()
}

// LoadMetadata implements Engine.
func (kv *KV) LoadMetadata(ctx context.Context) (Metadata, bool, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	raw, ok := kv.values[kvMetadataKey]
	if !ok {
		return Metadata{}, false, nil
	}
	var m Metadata
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return Metadata{}, false, fmt.Errorf("decode metadata: %w", err)
	}
	return m, true, nil
}

// PutTask implements Engine.
func (kv *KV) PutTask(ctx context.Context, t Task, meta Metadata) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	tasks, err := kv.tasks()
	if err != nil {
		return err
	}
	replaced := false
	for i := range tasks {
		if tasks[i].ID == t.ID {
			tasks[i] = t
			replaced = true
			break
		}
	}
	if !replaced {
		tasks = append(tasks, t)
	}
	return kv.write(tasks, &meta)
}

// RemoveTask implements Engine.
func (kv *KV) RemoveTask(ctx context.Context, id string, meta Metadata) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	tasks, err := kv.tasks()
	if err != nil {
		return err
	}
	kept := tasks[:0]
	for _, t := range tasks {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	return kv.write(kept, &meta)
}

// Replace implements Engine. The new map is built aside and only swapped in
// once the file write succeeds.
func (kv *KV) Replace(ctx context.Context, snap Snapshot) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	return kv.write(snap.Tasks, &snap.Metadata)
}

// Clear implements Engine.
func (kv *KV) Clear(ctx context.Context) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	return kv.commit(map[string]string{})
}

func (kv *KV) tasks() ([]Task, error) {
	raw, ok := kv.values[kvTasksKey]
	if !ok {
		return nil, nil
	}
	var tasks []Task
	if err := json.Unmarshal([]byte(raw), &tasks); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}
	return tasks, nil
}

func (kv *KV) write(tasks []Task, meta *Metadata) error {
	if tasks == nil {
		tasks = []Task{}
	}
	taskData, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("encode tasks: %w", err)
	}
	metaData, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	next := make(map[string]string, len(kv.values))
	for k, v := range kv.values {
		next[k] = v
	}
	next[kvTasksKey] = string(taskData)
	next[kvMetadataKey] = string(metaData)
	return kv.commit(next)
}

// commit persists next and only then makes it the live map.
func (kv *KV) commit(next map[string]string) error {
	if kv.path != "" {
		data, err := json.MarshalIndent(next, "", "  ")
		if err != nil {
			return fmt.Errorf("encode kv file: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(kv.path), 0755); err != nil {
			return fmt.Errorf("create kv dir: %w", err)
		}
		tmp := kv.path + ".tmp"
		if err := os.WriteFile(tmp, data, 0644); err != nil {
			return fmt.Errorf("write kv file: %w", err)
		}
		if err := os.Rename(tmp, kv.path); err != nil {
			os.Remove(tmp)
			return fmt.Errorf("replace kv file: %w", err)
		}
	}
	kv.values = next
	return nil
}
