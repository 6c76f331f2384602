package tui

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/imkarma/planner/internal/planner"
	"github.com/imkarma/planner/internal/pomodoro"
	"github.com/imkarma/planner/internal/store"
)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

// testPlanner returns an initialized planner over in-memory storage. The
// clock reads 12:00 on Sunday 2026-10-18 in UTC.
func testPlanner(t *testing.T) (*planner.Planner, *clock) {
	t.Helper()
	c := &clock{t: time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)}
	n := 0
	p := planner.New(planner.Config{
		Storage:  store.NewAdapter(store.AdapterConfig{Fallback: store.OpenKV(""), Now: c.Now}),
		Now:      c.Now,
		NewID:    func() string { n++; return fmt.Sprintf("task-%d", n) },
		TimeZone: "UTC",
	})
	if err := p.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return p, c
}

func testModel(t *testing.T, p *planner.Planner, c *clock) Model {
	t.Helper()
	cfg := pomodoro.Config{Work: 25 * time.Minute, ShortBreak: 5 * time.Minute, LongBreak: 15 * time.Minute, LongBreakEvery: 4}
	return New(p, Options{Pomodoro: cfg, Now: c.Now})
}

func keyMsg(key string) tea.KeyMsg {
	switch key {
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+z":
		return tea.KeyMsg{Type: tea.KeyCtrlZ}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
}

func press(m Model, keys ...string) Model {
	for _, k := range keys {
		next, cmd := m.Update(keyMsg(k))
		m = drain(next.(Model), cmd)
	}
	return m
}

// drain runs cmd and feeds planner results back into the model. Commands
// that block (cursor blink, ticks) are abandoned.
func drain(m Model, cmd tea.Cmd) Model {
	if cmd == nil {
		return m
	}
	switch msg := runCmd(cmd).(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			m = drain(m, c)
		}
	case mutationDoneMsg, tasksLoadedMsg:
		next, c := m.Update(msg)
		m = drain(next.(Model), c)
	}
	return m
}

func runCmd(cmd tea.Cmd) tea.Msg {
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

func mustCreate(t *testing.T, p *planner.Planner, patch planner.Patch) store.Task {
	t.Helper()
	task, err := p.Create(context.Background(), patch)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return *task
}

func TestNew_ColumnsFollowBuckets(t *testing.T) {
	p, c := testPlanner(t)
	mustCreate(t, p, planner.Patch{Title: planner.Set("overdue"), DueDate: planner.Set(planner.String("2026-10-17"))})
	mustCreate(t, p, planner.Patch{Title: planner.Set("planned"), ScheduledDate: planner.Set(planner.String("2026-10-18"))})
	mustCreate(t, p, planner.Patch{Title: planner.Set("soon"), DueDate: planner.Set(planner.String("2026-10-20"))})
	mustCreate(t, p, planner.Patch{Title: planner.Set("whenever")})

	m := testModel(t, p, c)
	for i, want := range []string{"overdue", "planned", "soon", "whenever"} {
		if len(m.columns[i]) != 1 || m.columns[i][0].Title != want {
			t.Errorf("column %s: expected [%s], got %+v", columnLabels[i], want, m.columns[i])
		}
	}
	if !m.canUndo {
		t.Error("creates should be undoable")
	}
}

func TestBoard_Navigation(t *testing.T) {
	p, c := testPlanner(t)
	mustCreate(t, p, planner.Patch{Title: planner.Set("a")})
	mustCreate(t, p, planner.Patch{Title: planner.Set("b")})
	m := testModel(t, p, c)

	m = press(m, "l", "l", "l") // someday column
	if m.cursorCol != 3 {
		t.Fatalf("expected column 3, got %d", m.cursorCol)
	}
	m = press(m, "j", "j", "j")
	if m.cursorRow != 1 {
		t.Errorf("cursor should clamp to last row, got %d", m.cursorRow)
	}
	m = press(m, "l")
	if m.cursorCol != 0 || m.cursorRow != 0 {
		t.Errorf("expected wrap to empty urgent column, got %d/%d", m.cursorCol, m.cursorRow)
	}
}

func TestBoard_CreateFromPopup(t *testing.T) {
	p, c := testPlanner(t)
	m := testModel(t, p, c)

	m = press(m, "n")
	if m.popup != popupCreate {
		t.Fatal("expected create popup")
	}
	m = press(m, "Essay draft", "tab", "tomorrow 9am", "enter")

	if m.popup != popupNone {
		t.Error("popup should close after create")
	}
	tasks := p.Tasks()
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	got := tasks[0]
	if got.Title != "Essay draft" || got.DueDate == nil || *got.DueDate != "2026-10-19" || *got.DueTime != "09:00" {
		t.Errorf("unexpected task %+v", got)
	}
	if len(m.columns[2]) != 1 {
		t.Errorf("due tomorrow should be upcoming, got columns %+v", m.columns)
	}
	if !strings.HasPrefix(m.statusMsg, "Created") {
		t.Errorf("status = %q", m.statusMsg)
	}
}

func TestBoard_CreateRejectsBadDue(t *testing.T) {
	p, c := testPlanner(t)
	m := testModel(t, p, c)

	m = press(m, "n", "x", "tab", "someday", "enter")
	if m.popup != popupCreate {
		t.Error("popup should stay open on bad input")
	}
	if len(p.Tasks()) != 0 {
		t.Error("nothing should be created")
	}
	m = press(m, "esc")
	if m.popup != popupNone {
		t.Error("esc should close popup")
	}
}

func TestBoard_ToggleAndUndo(t *testing.T) {
	p, c := testPlanner(t)
	task := mustCreate(t, p, planner.Patch{Title: planner.Set("laundry"), Kind: planner.Set(store.KindLife)})
	m := testModel(t, p, c)
	m = press(m, "l", "l", "l")

	m = press(m, " ")
	if live, _ := p.Get(task.ID); !live.Completed {
		t.Fatal("space should complete the task")
	}
	if len(m.columns[3]) != 0 {
		t.Error("completed task should leave the board")
	}

	m = press(m, "u")
	if live, _ := p.Get(task.ID); live.Completed {
		t.Error("undo should reopen the task")
	}
	if len(m.columns[3]) != 1 {
		t.Error("reopened task should return to the board")
	}
}

func TestBoard_DeleteAndUndo(t *testing.T) {
	p, c := testPlanner(t)
	task := mustCreate(t, p, planner.Patch{Title: planner.Set("old")})
	m := testModel(t, p, c)
	m = press(m, "h") // someday via wraparound

	m = press(m, "d")
	if _, ok := p.Get(task.ID); ok {
		t.Fatal("d should delete the task")
	}
	m = press(m, "ctrl+z")
	if _, ok := p.Get(task.ID); !ok {
		t.Error("ctrl+z should restore the task")
	}
	if len(m.columns[3]) != 1 {
		t.Error("restored task should return to the board")
	}
}

func TestBoard_UndoDisabledWithoutHistory(t *testing.T) {
	p, c := testPlanner(t)
	m := testModel(t, p, c)

	m = press(m, "u")
	if m.statusMsg != "Nothing to undo" {
		t.Errorf("status = %q", m.statusMsg)
	}
	if !strings.Contains(m.View(), "u undo") {
		t.Error("footer should still list the undo key")
	}
}

func TestPomodoro_CountsFinishedWork(t *testing.T) {
	p, c := testPlanner(t)
	task := mustCreate(t, p, planner.Patch{Title: planner.Set("read")})
	m := testModel(t, p, c)
	m = press(m, "h")

	m = press(m, "p")
	if m.screen != screenPomodoro || m.timer.TaskID() != task.ID {
		t.Fatalf("expected pomodoro on %s, got screen %d task %q", task.ID, m.screen, m.timer.TaskID())
	}

	c.t = c.t.Add(25 * time.Minute)
	m = drain(m, m.advancePomodoro())
	live, _ := p.Get(task.ID)
	if live.PomodoroCount != 1 {
		t.Errorf("expected 1 pomodoro, got %d", live.PomodoroCount)
	}
	if m.timer.Phase() != pomodoro.PhaseShortBreak {
		t.Errorf("expected short break, got %s", m.timer.Phase())
	}

	// Breaks do not count.
	c.t = c.t.Add(5 * time.Minute)
	m = drain(m, m.advancePomodoro())
	live, _ = p.Get(task.ID)
	if live.PomodoroCount != 1 {
		t.Errorf("break should not count, got %d", live.PomodoroCount)
	}

	m = press(m, "x")
	if m.screen != screenBoard || m.timer.Running() {
		t.Error("x should stop the timer and return to the board")
	}
}

func TestPomodoro_SkipDoesNotCount(t *testing.T) {
	p, c := testPlanner(t)
	task := mustCreate(t, p, planner.Patch{Title: planner.Set("read")})
	m := New(p, Options{Now: c.Now, StartPomodoro: task.ID})
	if m.screen != screenPomodoro {
		t.Fatal("StartPomodoro should open the timer screen")
	}

	m = press(m, "s")
	if m.timer.Phase() != pomodoro.PhaseShortBreak {
		t.Errorf("expected break after skip, got %s", m.timer.Phase())
	}
	if live, _ := p.Get(task.ID); live.PomodoroCount != 0 {
		t.Errorf("skipped work should not count, got %d", live.PomodoroCount)
	}
}

func TestView_Screens(t *testing.T) {
	p, c := testPlanner(t)
	mustCreate(t, p, planner.Patch{Title: planner.Set("visible"), Notes: planner.Set(planner.String("some notes"))})
	m := testModel(t, p, c)
	m.width, m.height = 140, 40
	m = press(m, "h")

	if v := m.View(); !strings.Contains(v, "visible") || !strings.Contains(v, "SOMEDAY") {
		t.Error("board should show the task and bucket labels")
	}

	m = press(m, "enter")
	if v := m.View(); !strings.Contains(v, "some notes") {
		t.Error("detail should show notes")
	}

	m = press(m, "p")
	if v := m.View(); !strings.Contains(v, "WORK") {
		t.Error("pomodoro view should show the phase")
	}
}

func TestBigClock(t *testing.T) {
	out := bigClock(25 * time.Minute)
	lines := strings.Split(out, "\n")
	if len(lines) != 5 {
		t.Fatalf("expected 5 lines, got %d", len(lines))
	}
	// "25:00" is five glyphs of width 3 plus separators.
	if got := len([]rune(lines[0])); got != 20 {
		t.Errorf("expected width 20, got %d", got)
	}
}
