// Package planner owns the live task collection. Every mutation is written
// to storage first; only when the write succeeds are the in-memory
// collection and undo history updated.
package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/imkarma/planner/internal/store"
	"github.com/imkarma/planner/internal/undo"
	"github.com/imkarma/planner/internal/urgency"
)

// PlaceholderTitle replaces an empty title.
const PlaceholderTitle = "Untitled task"

// ErrInvalidField is returned when a patch carries a value the task model
// cannot hold.
var ErrInvalidField = errors.New("invalid field")

// Storage is the durable store the planner writes through.
type Storage interface {
	Initialize(ctx context.Context) error
	GetAll(ctx context.Context) ([]store.Task, error)
	Save(ctx context.Context, t store.Task) error
	Delete(ctx context.Context, id string) error
	ExportAll(ctx context.Context) (store.Snapshot, error)
	ImportAll(ctx context.Context, snap store.Snapshot) error
	ClearAll(ctx context.Context) error
}

// Config holds everything needed to build a Planner.
type Config struct {
	Storage      Storage
	Logger       *slog.Logger
	Now          func() time.Time
	NewID        func() string
	TimeZone     string     // zone stamped on new tasks; empty means EnvZone()
	DefaultKind  store.Kind // empty means homework
	UndoCapacity int        // zero means undo.DefaultCapacity
}

// Planner is the authoritative in-memory task collection.
type Planner struct {
	storage     Storage
	logger      *slog.Logger
	now         func() time.Time
	newID       func() string
	zone        string
	defaultKind store.Kind

	// mu serializes mutations across their storage write, so concurrent
	// callers observe last-write-wins in lock order.
	mu      sync.RWMutex
	tasks   []store.Task
	loading bool
	history *undo.History
}

// New creates a planner. Call Initialize before use.
func New(cfg Config) *Planner {
	p := &Planner{
		storage:     cfg.Storage,
		logger:      cfg.Logger,
		now:         cfg.Now,
		newID:       cfg.NewID,
		zone:        cfg.TimeZone,
		defaultKind: cfg.DefaultKind,
		loading:     true,
		history:     undo.NewHistory(cfg.UndoCapacity),
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.newID == nil {
		p.newID = uuid.NewString
	}
	if p.zone == "" {
		p.zone = EnvZone()
	}
	if p.defaultKind == "" {
		p.defaultKind = store.KindHomework
	}
	return p
}

// Initialize opens storage and loads the persisted collection.
func (p *Planner) Initialize(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.storage.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}
	if err := p.reload(ctx); err != nil {
		return err
	}
	p.loading = false
	p.logger.Debug("planner loaded", "tasks", len(p.tasks))
	return nil
}

func (p *Planner) reload(ctx context.Context) error {
	tasks, err := p.storage.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}
	// Persisted order is engine-defined; present a stable one.
	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].Order != tasks[j].Order {
			return tasks[i].Order < tasks[j].Order
		}
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})
	p.tasks = tasks
	return nil
}

// Loading reports whether Initialize has not yet completed.
func (p *Planner) Loading() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.loading
}

// Zone is the IANA zone stamped on new tasks.
func (p *Planner) Zone() string { return p.zone }

// Now returns the current instant in the planner's zone, the natural
// evaluator for Groups.
func (p *Planner) Now() time.Time {
	now := p.now()
	if loc, err := time.LoadLocation(p.zone); err == nil {
		return now.In(loc)
	}
	return now
}

// Tasks returns a copy of the live collection.
func (p *Planner) Tasks() []store.Task {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]store.Task, len(p.tasks))
	for i, t := range p.tasks {
		out[i] = t.Clone()
	}
	return out
}

// Get returns a copy of the task with id, or false.
func (p *Planner) Get(id string) (store.Task, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if i := p.index(id); i >= 0 {
		return p.tasks[i].Clone(), true
	}
	return store.Task{}, false
}

// Groups buckets the live collection as of now.
func (p *Planner) Groups(now time.Time) urgency.Groups {
	return urgency.Group(p.Tasks(), now)
}

// CanUndo reports whether Undo has anything to reverse.
func (p *Planner) CanUndo() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.history.CanUndo()
}

// Create fills defaults, applies patch, persists the task and returns it.
func (p *Planner) Create(ctx context.Context, patch Patch) (*store.Task, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.timestamp()
	t := store.Task{
		ID:        p.newID(),
		Title:     PlaceholderTitle,
		Kind:      p.defaultKind,
		CreatedAt: now,
		UpdatedAt: now,
		TimeZone:  p.zone,
		Order:     p.nextOrder(),
	}
	patch.apply(&t)
	if err := normalize(&t, now); err != nil {
		return nil, err
	}
	t = t.Clone()

	if err := p.storage.Save(ctx, t); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	p.tasks = append(p.tasks, t)
	p.history.Push(undo.Record{Op: undo.OpCreate, Task: t})
	p.logger.Debug("task created", "id", t.ID, "title", t.Title)

	out := t.Clone()
	return &out, nil
}

// Update merges patch onto the task with id. It returns (nil, nil) when no
// such task exists.
func (p *Planner) Update(ctx context.Context, id string, patch Patch) (*store.Task, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.update(ctx, id, func(store.Task) Patch { return patch })
}

// ToggleCompletion flips the completed flag, stamping or clearing
// completedAt. It returns (nil, nil) when no such task exists.
func (p *Planner) ToggleCompletion(ctx context.Context, id string) (*store.Task, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.update(ctx, id, func(cur store.Task) Patch {
		if cur.Completed {
			return Patch{Completed: Set(false), CompletedAt: Set[*time.Time](nil)}
		}
		now := p.timestamp()
		return Patch{Completed: Set(true), CompletedAt: Set(&now)}
	})
}

// IncrementPomodoroCount records one finished work session on the task.
// It returns (nil, nil) when no such task exists.
func (p *Planner) IncrementPomodoroCount(ctx context.Context, id string) (*store.Task, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.update(ctx, id, func(cur store.Task) Patch {
		return Patch{PomodoroCount: Set(cur.PomodoroCount + 1)}
	})
}

// update builds its patch from the current snapshot while the lock is held.
func (p *Planner) update(ctx context.Context, id string, build func(store.Task) Patch) (*store.Task, error) {
	i := p.index(id)
	if i < 0 {
		return nil, nil
	}

	prev := p.tasks[i].Clone()
	next := prev.Clone()
	build(prev).apply(&next)
	now := p.timestamp()
	next.UpdatedAt = now
	if err := normalize(&next, now); err != nil {
		return nil, err
	}
	next = next.Clone()

	if err := p.storage.Save(ctx, next); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	p.tasks[i] = next
	p.history.Push(undo.Record{Op: undo.OpUpdate, Task: next, Previous: &prev})
	p.logger.Debug("task updated", "id", id)

	out := next.Clone()
	return &out, nil
}

// Delete removes the task with id. Deleting an absent id does nothing.
func (p *Planner) Delete(ctx context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	i := p.index(id)
	if i < 0 {
		return nil
	}
	removed := p.tasks[i]

	if err := p.storage.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	p.tasks = append(p.tasks[:i], p.tasks[i+1:]...)
	p.history.Push(undo.Record{Op: undo.OpDelete, Task: removed})
	p.logger.Debug("task deleted", "id", id)
	return nil
}

// Undo reverses the most recent mutation. It reports false when there was
// nothing to undo. Undo itself is not recorded.
func (p *Planner) Undo(ctx context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	r, ok, err := p.history.Undo(ctx, reverter{p})
	if err != nil {
		return true, fmt.Errorf("undo %s: %w", r.Op, err)
	}
	if ok {
		p.logger.Debug("undo", "op", r.Op, "id", r.Task.ID)
	}
	return ok, nil
}

// Export returns the persisted collection as a backup snapshot.
func (p *Planner) Export(ctx context.Context) (store.Snapshot, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.storage.ExportAll(ctx)
}

// Import replaces all state with snap. Undo history is dropped since it
// describes the replaced collection.
func (p *Planner) Import(ctx context.Context, snap store.Snapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.storage.ImportAll(ctx, snap); err != nil {
		return err
	}
	p.history.Reset()
	return p.reload(ctx)
}

// Clear deletes every task and drops undo history.
func (p *Planner) Clear(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.storage.ClearAll(ctx); err != nil {
		return err
	}
	p.tasks = nil
	p.history.Reset()
	return nil
}

func (p *Planner) index(id string) int {
	for i := range p.tasks {
		if p.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (p *Planner) nextOrder() int {
	highest := 0
	for _, t := range p.tasks {
		if t.Order > highest {
			highest = t.Order
		}
	}
	return highest + 1
}

// timestamp is now at the millisecond precision of ISO-8601 stamps.
func (p *Planner) timestamp() time.Time {
	return p.now().UTC().Truncate(time.Millisecond)
}

// reverter applies undo inverses while the planner lock is already held.
type reverter struct{ p *Planner }

func (r reverter) RemoveTask(ctx context.Context, id string) error {
	if err := r.p.storage.Delete(ctx, id); err != nil {
		return err
	}
	if i := r.p.index(id); i >= 0 {
		r.p.tasks = append(r.p.tasks[:i], r.p.tasks[i+1:]...)
	}
	return nil
}

// RestoreTask writes t back by id, appending it if it is not live.
func (r reverter) RestoreTask(ctx context.Context, t store.Task) error {
	if err := r.p.storage.Save(ctx, t); err != nil {
		return err
	}
	if i := r.p.index(t.ID); i >= 0 {
		r.p.tasks[i] = t
	} else {
		r.p.tasks = append(r.p.tasks, t)
	}
	return nil
}

// normalize fills the title placeholder, keeps completed and completedAt in
// step, and rejects values the model cannot hold.
func normalize(t *store.Task, now time.Time) error {
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		t.Title = PlaceholderTitle
	}

	if t.Completed && t.CompletedAt == nil {
		t.CompletedAt = &now
	}
	if !t.Completed {
		t.CompletedAt = nil
	}

	switch {
	case !t.Kind.Valid():
		return fmt.Errorf("%w: kind %q", ErrInvalidField, t.Kind)
	case !t.Priority.Valid():
		return fmt.Errorf("%w: priority %q", ErrInvalidField, t.Priority)
	case t.EstimatedMinutes != nil && *t.EstimatedMinutes <= 0:
		return fmt.Errorf("%w: estimatedMinutes must be positive", ErrInvalidField)
	case t.PomodoroCount < 0:
		return fmt.Errorf("%w: pomodoroCount must not be negative", ErrInvalidField)
	}
	for _, d := range []*string{t.DueDate, t.ScheduledDate} {
		if d != nil && !store.ValidDate(*d) {
			return fmt.Errorf("%w: date %q is not YYYY-MM-DD", ErrInvalidField, *d)
		}
	}
	for _, c := range []*string{t.DueTime, t.ScheduledTime} {
		if c != nil && !store.ValidClock(*c) {
			return fmt.Errorf("%w: time %q is not HH:mm", ErrInvalidField, *c)
		}
	}
	for _, s := range []**string{&t.Subject, &t.Notes} {
		if *s != nil && strings.TrimSpace(**s) == "" {
			*s = nil
		}
	}
	return nil
}
