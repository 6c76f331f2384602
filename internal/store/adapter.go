// Package store persists planner tasks. An Adapter picks a durable engine
// once at startup (SQLite, else the key/value fallback) and sticks with it.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrNotInitialized is returned when the adapter is used before Initialize.
var ErrNotInitialized = errors.New("store not initialized")

// Engine is one storage backend. Every write that touches the task
// collection also rewrites the metadata record it is given.
type Engine interface {
	Name() string
	LoadTasks(ctx context.Context) ([]Task, error)
	LoadMetadata(ctx context.Context) (Metadata, bool, error)
	PutTask(ctx context.Context, t Task, meta Metadata) error
	RemoveTask(ctx context.Context, id string, meta Metadata) error
	// Replace swaps the whole collection and metadata for snap, all or nothing.
	Replace(ctx context.Context, snap Snapshot) error
	Clear(ctx context.Context) error
	Close() error
}

// Opener opens an engine. A nil Opener means the engine is unavailable.
type Opener func(ctx context.Context) (Engine, error)

// AdapterConfig wires an Adapter.
type AdapterConfig struct {
	Primary  Opener
	Fallback Opener
	Logger   *slog.Logger
	Now      func() time.Time
}

// Adapter is the durable store used by the planner.
type Adapter struct {
	primary  Opener
	fallback Opener
	logger   *slog.Logger
	now      func() time.Time

	engine Engine
}

// NewAdapter creates an adapter. Nothing is opened until Initialize.
func NewAdapter(cfg AdapterConfig) *Adapter {
	a := &Adapter{
		primary:  cfg.Primary,
		fallback: cfg.Fallback,
		logger:   cfg.Logger,
		now:      cfg.Now,
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	if a.now == nil {
		a.now = time.Now
	}
	return a
}

// Initialize selects the primary engine, or the fallback if the primary is
// missing or fails to open. The choice is kept for the adapter's lifetime.
func (a *Adapter) Initialize(ctx context.Context) error {
	if a.engine != nil {
		return nil
	}

	if a.primary != nil {
		eng, err := a.primary(ctx)
		if err == nil {
			a.engine = eng
			a.logger.Debug("storage engine selected", "engine", eng.Name())
			return nil
		}
		a.logger.Debug("primary storage unavailable, using fallback", "err", err)
	}

	if a.fallback == nil {
		return errors.New("no storage engine available")
	}
	eng, err := a.fallback(ctx)
	if err != nil {
		return fmt.Errorf("open fallback storage: %w", err)
	}
	a.engine = eng
	a.logger.Debug("storage engine selected", "engine", eng.Name())
	return nil
}

// Engine returns the name of the selected engine, or "" before Initialize.
func (a *Adapter) Engine() string {
	if a.engine == nil {
		return ""
	}
	return a.engine.Name()
}

// GetAll returns every persisted task. Order is engine-defined.
func (a *Adapter) GetAll(ctx context.Context) ([]Task, error) {
	if a.engine == nil {
		return nil, ErrNotInitialized
	}
	tasks, err := a.engine.LoadTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	return tasks, nil
}

// Save upserts a task by id.
func (a *Adapter) Save(ctx context.Context, t Task) error {
	if a.engine == nil {
		return ErrNotInitialized
	}
	if err := a.engine.PutTask(ctx, t, a.stamp()); err != nil {
		return fmt.Errorf("save task %s: %w", t.ID, err)
	}
	return nil
}

// Delete removes a task by id. Deleting an absent id is not an error.
func (a *Adapter) Delete(ctx context.Context, id string) error {
	if a.engine == nil {
		return ErrNotInitialized
	}
	if err := a.engine.RemoveTask(ctx, id, a.stamp()); err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	return nil
}

// ExportAll returns the full collection and metadata.
func (a *Adapter) ExportAll(ctx context.Context) (Snapshot, error) {
	if a.engine == nil {
		return Snapshot{}, ErrNotInitialized
	}
	tasks, err := a.engine.LoadTasks(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("export tasks: %w", err)
	}
	meta, ok, err := a.engine.LoadMetadata(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("export metadata: %w", err)
	}
	if !ok {
		meta = a.stamp()
	}
	if tasks == nil {
		tasks = []Task{}
	}
	return Snapshot{Tasks: tasks, Metadata: meta}, nil
}

// ImportAll replaces everything with snap. The snapshot is validated first;
// a malformed one is rejected before any state is touched.
func (a *Adapter) ImportAll(ctx context.Context, snap Snapshot) error {
	if a.engine == nil {
		return ErrNotInitialized
	}
	if err := Validate(snap); err != nil {
		return err
	}
	if err := a.engine.Replace(ctx, snap); err != nil {
		return fmt.Errorf("import snapshot: %w", err)
	}
	return nil
}

// ClearAll empties the task collection and the metadata record.
func (a *Adapter) ClearAll(ctx context.Context) error {
	if a.engine == nil {
		return ErrNotInitialized
	}
	if err := a.engine.Clear(ctx); err != nil {
		return fmt.Errorf("clear storage: %w", err)
	}
	return nil
}

// Close releases the selected engine.
func (a *Adapter) Close() error {
	if a.engine == nil {
		return nil
	}
	return a.engine.Close()
}

func (a *Adapter) stamp() Metadata {
	return Metadata{
		SchemaVersion: SchemaVersion,
		LastModified:  a.now().UTC().Truncate(time.Millisecond),
	}
}
