package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/imkarma/planner/internal/parser"
	"github.com/imkarma/planner/internal/planner"
)

const statusTTL = 5 * time.Second

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// If popup is active, handle popup keys first.
		if m.popup != popupNone {
			return m.handlePopupKey(msg)
		}
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tasksLoadedMsg:
		m.applyGroups(msg.groups, msg.canUndo)
		return m, nil

	case mutationDoneMsg:
		if msg.err != nil {
			m.setStatus("Error: " + msg.err.Error())
		} else if msg.status != "" {
			m.setStatus(msg.status)
		}
		return m, m.loadTasks()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tickMsg:
		cmds := []tea.Cmd{tickCmd()}
		if m.statusMsg != "" && m.now().Sub(m.statusTime) > statusTTL {
			m.statusMsg = ""
		}
		if m.timer.Running() {
			cmds = append(cmds, m.advancePomodoro())
		}
		// Relative labels and buckets move with the clock.
		cmds = append(cmds, m.loadTasks())
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "esc":
		return m.goBack()
	}

	switch m.screen {
	case screenBoard:
		return m.handleBoardKey(msg)
	case screenDetail:
		return m.handleDetailKey(msg)
	case screenPomodoro:
		return m.handlePomodoroKey(msg)
	}

	return m, nil
}

func (m Model) goBack() (tea.Model, tea.Cmd) {
	switch m.screen {
	case screenDetail:
		m.screen = screenBoard
		m.detailID = ""
	case screenPomodoro:
		m.timer.Stop()
		m.screen = screenBoard
		m.setStatus("Pomodoro stopped")
	}
	return m, m.loadTasks()
}

// --- Board screen keys ---

func (m Model) handleBoardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	// Navigation.
	case "j", "down":
		m.cursorRow++
		m.clampCursor()
	case "k", "up":
		m.cursorRow--
		m.clampCursor()
	case "l", "right", "tab":
		m.cursorCol = (m.cursorCol + 1) % numColumns
		m.clampCursor()
	case "h", "left", "shift+tab":
		m.cursorCol = (m.cursorCol + numColumns - 1) % numColumns
		m.clampCursor()

	case "enter":
		if t, ok := m.selectedTask(); ok {
			m.detailID = t.ID
			m.screen = screenDetail
		}

	case "n":
		m.popup = popupCreate
		m.inputFocused = 0
		m.titleInput.SetValue("")
		m.dueInput.SetValue("")
		m.dueInput.Blur()
		m.titleInput.Focus()
		return m, textinput.Blink

	case " ", "x":
		return m, m.toggleSelected()

	case "d", "delete":
		t, ok := m.selectedTask()
		if !ok {
			return m, nil
		}
		return m, m.mutate(func(ctx context.Context) (string, error) {
			if err := m.planner.Delete(ctx, t.ID); err != nil {
				return "", err
			}
			return fmt.Sprintf("Deleted %q (u to undo)", t.Title), nil
		})

	case "u", "ctrl+z":
		return m.undo()

	case "p":
		t, ok := m.selectedTask()
		if !ok {
			return m, nil
		}
		m.timer.Start(t.ID, m.now())
		m.screen = screenPomodoro
		m.setStatus("Focus: " + t.Title)

	case "r":
		return m, m.loadTasks()
	}
	return m, nil
}

func (m Model) toggleSelected() tea.Cmd {
	t, ok := m.selectedTask()
	if !ok {
		return nil
	}
	return m.mutate(func(ctx context.Context) (string, error) {
		updated, err := m.planner.ToggleCompletion(ctx, t.ID)
		if err != nil || updated == nil {
			return "", err
		}
		if updated.Completed {
			return fmt.Sprintf("Done: %s", updated.Title), nil
		}
		return fmt.Sprintf("Reopened: %s", updated.Title), nil
	})
}

func (m Model) undo() (tea.Model, tea.Cmd) {
	if !m.canUndo {
		m.setStatus("Nothing to undo")
		return m, nil
	}
	return m, m.mutate(func(ctx context.Context) (string, error) {
		ok, err := m.planner.Undo(ctx)
		if err != nil {
			return "", err
		}
		if !ok {
			return "Nothing to undo", nil
		}
		return "Undone", nil
	})
}

// --- Detail screen keys ---

func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case " ", "x":
		id := m.detailID
		return m, m.mutate(func(ctx context.Context) (string, error) {
			_, err := m.planner.ToggleCompletion(ctx, id)
			return "Toggled", err
		})
	case "u", "ctrl+z":
		return m.undo()
	case "p":
		m.timer.Start(m.detailID, m.now())
		m.screen = screenPomodoro
	}
	return m, nil
}

// --- Pomodoro screen keys ---

func (m Model) handlePomodoroKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "s":
		ev, err := m.timer.Skip(m.now())
		if err != nil {
			m.setStatus("Error: " + err.Error())
			return m, nil
		}
		m.setStatus(fmt.Sprintf("Skipped %s, now %s", ev.Phase, ev.Next))
	case "x":
		return m.goBack()
	}
	return m, nil
}

// advancePomodoro ends every phase whose time is up and records finished
// work sessions on the task.
func (m Model) advancePomodoro() tea.Cmd {
	var cmds []tea.Cmd
	now := m.now()
	for {
		ev, ok := m.timer.Advance(now)
		if !ok {
			break
		}
		if !ev.CountsAsPomodoro() {
			continue
		}
		id := ev.TaskID
		next := ev.Next
		cmds = append(cmds, m.mutate(func(ctx context.Context) (string, error) {
			t, err := m.planner.IncrementPomodoroCount(ctx, id)
			if err != nil || t == nil {
				return "", err
			}
			return fmt.Sprintf("Pomodoro #%d done on %q. Time for a %s.", t.PomodoroCount, t.Title, next), nil
		}))
	}
	return tea.Batch(cmds...)
}

// --- Popup keys ---

func (m Model) handlePopupKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.popup = popupNone
		m.titleInput.Blur()
		m.dueInput.Blur()
		return m, nil

	case "tab", "shift+tab":
		return m.switchInput()

	case "enter":
		if m.inputFocused == 0 {
			return m.switchInput()
		}
		return m.submitCreate()
	}

	var cmd tea.Cmd
	if m.inputFocused == 0 {
		m.titleInput, cmd = m.titleInput.Update(msg)
	} else {
		m.dueInput, cmd = m.dueInput.Update(msg)
	}
	return m, cmd
}

func (m Model) switchInput() (tea.Model, tea.Cmd) {
	if m.inputFocused == 0 {
		m.titleInput.Blur()
		m.dueInput.Focus()
		m.inputFocused = 1
	} else {
		m.dueInput.Blur()
		m.titleInput.Focus()
		m.inputFocused = 0
	}
	return m, textinput.Blink
}

func (m Model) submitCreate() (tea.Model, tea.Cmd) {
	date, clock, err := parser.ParseDue(m.dueInput.Value(), m.planner.Now())
	if err != nil {
		m.setStatus("Error: " + err.Error())
		return m, nil
	}

	patch := planner.Patch{Title: planner.Set(m.titleInput.Value())}
	if date != nil {
		patch.DueDate = planner.Set(date)
		patch.DueTime = planner.Set(clock)
	}

	m.popup = popupNone
	m.titleInput.Blur()
	m.dueInput.Blur()
	return m, m.mutate(func(ctx context.Context) (string, error) {
		t, err := m.planner.Create(ctx, patch)
		if err != nil {
			return "", err
		}
		return "Created: " + t.Title, nil
	})
}
