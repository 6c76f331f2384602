package pomodoro

import (
	"errors"
	"testing"
	"time"
)

var start = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

func shortConfig() Config {
	return Config{
		Work:           10 * time.Minute,
		ShortBreak:     2 * time.Minute,
		LongBreak:      5 * time.Minute,
		LongBreakEvery: 2,
	}
}

func TestNew_InvalidConfigUsesDefaults(t *testing.T) {
	tm := New(Config{Work: -time.Minute})
	if tm.Config() != DefaultConfig() {
		t.Errorf("expected defaults, got %+v", tm.Config())
	}
	if tm.Running() || tm.Phase() != PhaseIdle {
		t.Error("new timer should be idle")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"defaults", DefaultConfig(), true},
		{"zero work", Config{ShortBreak: 1, LongBreak: 1, LongBreakEvery: 1}, false},
		{"zero short", Config{Work: 1, LongBreak: 1, LongBreakEvery: 1}, false},
		{"zero long", Config{Work: 1, ShortBreak: 1, LongBreakEvery: 1}, false},
		{"zero every", Config{Work: 1, ShortBreak: 1, LongBreak: 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err == nil) != tt.ok {
				t.Errorf("Validate() = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestTimer_Remaining(t *testing.T) {
	tm := New(shortConfig())
	if got := tm.Remaining(start); got != 0 {
		t.Errorf("idle remaining = %s", got)
	}

	tm.Start("task-1", start)
	if got := tm.Remaining(start.Add(3 * time.Minute)); got != 7*time.Minute {
		t.Errorf("expected 7m left, got %s", got)
	}
	if got := tm.Remaining(start.Add(time.Hour)); got != 0 {
		t.Errorf("remaining must not go negative, got %s", got)
	}
	if got := tm.Progress(start.Add(5 * time.Minute)); got != 0.5 {
		t.Errorf("expected progress 0.5, got %v", got)
	}
}

func TestTimer_Cycle(t *testing.T) {
	tm := New(shortConfig())
	tm.Start("task-1", start)

	if _, ok := tm.Advance(start.Add(9 * time.Minute)); ok {
		t.Fatal("work phase ended early")
	}

	// work -> short -> work -> long -> work
	want := []struct {
		ended Phase
		next  Phase
		at    time.Duration
	}{
		{PhaseWork, PhaseShortBreak, 10 * time.Minute},
		{PhaseShortBreak, PhaseWork, 12 * time.Minute},
		{PhaseWork, PhaseLongBreak, 22 * time.Minute},
		{PhaseLongBreak, PhaseWork, 27 * time.Minute},
	}
	for i, w := range want {
		ev, ok := tm.Advance(start.Add(w.at))
		if !ok {
			t.Fatalf("step %d: expected phase end", i)
		}
		if ev.Phase != w.ended || ev.Next != w.next || ev.TaskID != "task-1" {
			t.Errorf("step %d: got %+v", i, ev)
		}
		if !ev.At.Equal(start.Add(w.at)) {
			t.Errorf("step %d: ended at %v", i, ev.At)
		}
	}
	if tm.Worked() != 2 {
		t.Errorf("expected 2 work phases, got %d", tm.Worked())
	}
}

func TestTimer_LateAdvanceKeepsSchedule(t *testing.T) {
	tm := New(shortConfig())
	tm.Start("task-1", start)

	// Called well after both the work phase and the break should have ended.
	late := start.Add(13 * time.Minute)
	first, ok := tm.Advance(late)
	if !ok || first.Phase != PhaseWork {
		t.Fatalf("expected work end, got %+v", first)
	}
	second, ok := tm.Advance(late)
	if !ok || second.Phase != PhaseShortBreak {
		t.Fatalf("expected break end, got %+v", second)
	}
	if got := tm.Remaining(late); got != 9*time.Minute {
		t.Errorf("expected next work to end at +22m, remaining %s", got)
	}
}

func TestTimer_Skip(t *testing.T) {
	tm := New(shortConfig())
	if _, err := tm.Skip(start); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("expected ErrNotRunning, got %v", err)
	}

	tm.Start("task-1", start)
	ev, err := tm.Skip(start.Add(time.Minute))
	if err != nil {
		t.Fatalf("Skip: %v", err)
	}
	if ev.CountsAsPomodoro() {
		t.Error("skipped work must not count")
	}
	if tm.Worked() != 0 || tm.Phase() != PhaseShortBreak {
		t.Errorf("expected short break with 0 worked, got %s/%d", tm.Phase(), tm.Worked())
	}
	if got := tm.Remaining(start.Add(time.Minute)); got != 2*time.Minute {
		t.Errorf("break should start at skip time, remaining %s", got)
	}
}

func TestTimer_CountsAsPomodoro(t *testing.T) {
	tm := New(shortConfig())
	tm.Start("task-1", start)
	ev, _ := tm.Advance(start.Add(10 * time.Minute))
	if !ev.CountsAsPomodoro() {
		t.Error("finished work should count")
	}
	ev, _ = tm.Advance(start.Add(12 * time.Minute))
	if ev.CountsAsPomodoro() {
		t.Error("breaks never count")
	}
}

func TestTimer_StopAndRestart(t *testing.T) {
	tm := New(shortConfig())
	tm.Start("task-1", start)
	tm.Advance(start.Add(10 * time.Minute))
	tm.Stop()

	if tm.Running() || tm.TaskID() != "" {
		t.Error("expected stopped timer")
	}
	if _, ok := tm.Advance(start.Add(time.Hour)); ok {
		t.Error("stopped timer must not advance")
	}

	tm.Start("task-2", start.Add(time.Hour))
	if tm.Worked() != 0 || tm.Phase() != PhaseWork || tm.TaskID() != "task-2" {
		t.Errorf("restart should reset the cycle: %s/%d/%s", tm.Phase(), tm.Worked(), tm.TaskID())
	}
}
