// Package pomodoro runs the work/break cycle for a single task. The timer is
// driven by the caller's clock: nothing here sleeps or spawns goroutines.
package pomodoro

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotRunning is returned when a phase operation is used on a stopped timer.
var ErrNotRunning = errors.New("pomodoro not running")

// Phase is one leg of the cycle.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseWork       Phase = "work"
	PhaseShortBreak Phase = "short break"
	PhaseLongBreak  Phase = "long break"
)

// Config sets the phase lengths.
type Config struct {
	Work           time.Duration
	ShortBreak     time.Duration
	LongBreak      time.Duration
	LongBreakEvery int // work phases per long break
}

// DefaultConfig is the classic 25/5/15 cycle with a long break every fourth
// work phase.
func DefaultConfig() Config {
	return Config{
		Work:           25 * time.Minute,
		ShortBreak:     5 * time.Minute,
		LongBreak:      15 * time.Minute,
		LongBreakEvery: 4,
	}
}

// Validate rejects non-positive lengths.
func (c Config) Validate() error {
	switch {
	case c.Work <= 0:
		return fmt.Errorf("work length must be positive, got %s", c.Work)
	case c.ShortBreak <= 0:
		return fmt.Errorf("short break length must be positive, got %s", c.ShortBreak)
	case c.LongBreak <= 0:
		return fmt.Errorf("long break length must be positive, got %s", c.LongBreak)
	case c.LongBreakEvery <= 0:
		return fmt.Errorf("long break interval must be positive, got %d", c.LongBreakEvery)
	}
	return nil
}

// Completed describes a phase that just ended.
type Completed struct {
	TaskID  string
	Phase   Phase
	Next    Phase
	At      time.Time
	Skipped bool
}

// CountsAsPomodoro reports whether the ended phase was a full work session,
// which the caller should record on the task.
func (c Completed) CountsAsPomodoro() bool {
	return c.Phase == PhaseWork && !c.Skipped
}

// Timer tracks the current phase for one task.
type Timer struct {
	cfg Config

	taskID   string
	phase    Phase
	startsAt time.Time
	endsAt   time.Time
	worked   int
}

// New creates a stopped timer. Invalid lengths fall back to the defaults.
func New(cfg Config) *Timer {
	if cfg.Validate() != nil {
		cfg = DefaultConfig()
	}
	return &Timer{cfg: cfg, phase: PhaseIdle}
}

// Start begins a work phase for taskID, resetting any previous cycle.
func (t *Timer) Start(taskID string, now time.Time) {
	t.taskID = taskID
	t.worked = 0
	t.enter(PhaseWork, now)
}

// Stop abandons the cycle. The running phase is not reported.
func (t *Timer) Stop() {
	t.taskID = ""
	t.phase = PhaseIdle
	t.worked = 0
	t.startsAt = time.Time{}
	t.endsAt = time.Time{}
}

// Running reports whether a cycle is in progress.
func (t *Timer) Running() bool { return t.phase != PhaseIdle }

func (t *Timer) Phase() Phase { return t.phase }

func (t *Timer) TaskID() string { return t.taskID }

// Worked counts the work phases completed since Start.
func (t *Timer) Worked() int { return t.worked }

func (t *Timer) Config() Config { return t.cfg }

// Remaining is the time left in the current phase, never negative.
func (t *Timer) Remaining(now time.Time) time.Duration {
	if !t.Running() {
		return 0
	}
	if d := t.endsAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

// Progress is the elapsed fraction of the current phase in [0, 1].
func (t *Timer) Progress(now time.Time) float64 {
	if !t.Running() {
		return 0
	}
	total := t.endsAt.Sub(t.startsAt)
	done := now.Sub(t.startsAt)
	switch {
	case done <= 0:
		return 0
	case done >= total:
		return 1
	}
	return float64(done) / float64(total)
}

// Advance ends the current phase if its time is up and enters the next one.
// The next phase starts when the previous one was due to end, so a late call
// does not stretch the cycle. At most one phase ends per call.
func (t *Timer) Advance(now time.Time) (Completed, bool) {
	if !t.Running() || now.Before(t.endsAt) {
		return Completed{}, false
	}
	return t.finish(t.endsAt, false), true
}

// Skip ends the current phase immediately. A skipped work phase does not
// count towards the long break.
func (t *Timer) Skip(now time.Time) (Completed, error) {
	if !t.Running() {
		return Completed{}, ErrNotRunning
	}
	return t.finish(now, true), nil
}

func (t *Timer) finish(at time.Time, skipped bool) Completed {
	ended := t.phase
	next := PhaseWork
	if ended == PhaseWork {
		if !skipped {
			t.worked++
		}
		next = PhaseShortBreak
		if t.worked > 0 && t.worked%t.cfg.LongBreakEvery == 0 && !skipped {
			next = PhaseLongBreak
		}
	}
	t.enter(next, at)
	return Completed{TaskID: t.taskID, Phase: ended, Next: next, At: at, Skipped: skipped}
}

func (t *Timer) enter(p Phase, at time.Time) {
	t.phase = p
	t.startsAt = at
	t.endsAt = at.Add(t.length(p))
}

func (t *Timer) length(p Phase) time.Duration {
	switch p {
	case PhaseShortBreak:
		return t.cfg.ShortBreak
	case PhaseLongBreak:
		return t.cfg.LongBreak
	default:
		return t.cfg.Work
	}
}
