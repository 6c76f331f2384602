package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/imkarma/planner/internal/planner"
	"github.com/imkarma/planner/internal/pomodoro"
	"github.com/imkarma/planner/internal/store"
	"github.com/imkarma/planner/internal/urgency"
)

// screen represents which screen the TUI is showing.
type screen int

const (
	screenBoard    screen = iota // Bucket board (main)
	screenDetail                 // Task detail panel
	screenPomodoro               // Work/break timer
)

// popup is an input dialog drawn over the current screen.
type popup int

const (
	popupNone popup = iota
	popupCreate
)

const numColumns = 4

var columnBuckets = [numColumns]urgency.Bucket{
	urgency.BucketUrgent,
	urgency.BucketToday,
	urgency.BucketUpcoming,
	urgency.BucketSomeday,
}

var columnLabels = [numColumns]string{
	"URGENT",
	"TODAY",
	"UPCOMING",
	"SOMEDAY",
}

// Options tunes a Model. The zero value is usable.
type Options struct {
	Pomodoro pomodoro.Config
	// Now drives the pomodoro timer; defaults to time.Now.
	Now func() time.Time
	// StartPomodoro opens the timer screen on this task id.
	StartPomodoro string
}

// Model is the top-level bubbletea model.
type Model struct {
	planner *planner.Planner
	timer   *pomodoro.Timer
	now     func() time.Time
	width   int
	height  int

	screen screen
	popup  popup

	// Board state.
	columns   [numColumns][]store.Task
	cursorCol int
	cursorRow int
	canUndo   bool

	// Task shown on the detail screen.
	detailID string

	// Create dialog inputs.
	titleInput   textinput.Model
	dueInput     textinput.Model
	inputFocused int // 0=title, 1=due

	spinner spinner.Model

	statusMsg  string
	statusTime time.Time
	quitting   bool
}

// New creates a new TUI model over an initialized planner.
func New(p *planner.Planner, opts Options) Model {
	ti := textinput.New()
	ti.Placeholder = "Task title..."
	ti.CharLimit = 120
	ti.Width = 50

	di := textinput.New()
	di.Placeholder = "Due (optional): fri 7pm, tomorrow, 2026-11-02..."
	di.CharLimit = 40
	di.Width = 50

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	if opts.Now == nil {
		opts.Now = time.Now
	}

	m := Model{
		planner:    p,
		timer:      pomodoro.New(opts.Pomodoro),
		now:        opts.Now,
		screen:     screenBoard,
		titleInput: ti,
		dueInput:   di,
		spinner:    sp,
	}
	if opts.StartPomodoro != "" {
		m.timer.Start(opts.StartPomodoro, m.now())
		m.screen = screenPomodoro
	}
	m.applyGroups(p.Groups(p.Now()), p.CanUndo())
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadTasks(), tickCmd(), m.spinner.Tick)
}

type tasksLoadedMsg struct {
	groups  urgency.Groups
	canUndo bool
}

// mutationDoneMsg reports a finished planner write.
type mutationDoneMsg struct {
	status string
	err    error
}

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) loadTasks() tea.Cmd {
	return func() tea.Msg {
		return tasksLoadedMsg{
			groups:  m.planner.Groups(m.planner.Now()),
			canUndo: m.planner.CanUndo(),
		}
	}
}

// mutate runs fn off the event loop and reports its status line.
func (m Model) mutate(fn func(ctx context.Context) (string, error)) tea.Cmd {
	return func() tea.Msg {
		status, err := fn(context.Background())
		return mutationDoneMsg{status: status, err: err}
	}
}

func (m *Model) applyGroups(g urgency.Groups, canUndo bool) {
	for i, b := range columnBuckets {
		m.columns[i] = g.Get(b)
	}
	m.canUndo = canUndo
	m.clampCursor()
}

func (m *Model) clampCursor() {
	if m.cursorCol < 0 {
		m.cursorCol = 0
	}
	if m.cursorCol >= numColumns {
		m.cursorCol = numColumns - 1
	}
	col := m.columns[m.cursorCol]
	if m.cursorRow >= len(col) {
		m.cursorRow = len(col) - 1
	}
	if m.cursorRow < 0 {
		m.cursorRow = 0
	}
}

func (m Model) selectedTask() (store.Task, bool) {
	col := m.columns[m.cursorCol]
	if m.cursorRow < len(col) {
		return col[m.cursorRow], true
	}
	return store.Task{}, false
}

func (m *Model) setStatus(s string) {
	m.statusMsg = s
	m.statusTime = m.now()
}
