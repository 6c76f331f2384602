package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/imkarma/planner/internal/pomodoro"
	"github.com/imkarma/planner/internal/store"
	"github.com/imkarma/planner/internal/urgency"
)

// --- Color palette ---
var (
	clrSubtle    = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#666666"}
	clrHighlight = lipgloss.AdaptiveColor{Light: "#0F766E", Dark: "#2DD4BF"}
	clrGreen     = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	clrYellow    = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#F59E0B"}
	clrRed       = lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"}
	clrBlue      = lipgloss.AdaptiveColor{Light: "#1D4ED8", Dark: "#60A5FA"}
	clrCyan      = lipgloss.AdaptiveColor{Light: "#0E7490", Dark: "#22D3EE"}
	clrMagenta   = lipgloss.AdaptiveColor{Light: "#A21CAF", Dark: "#E879F9"}
	clrDim       = lipgloss.AdaptiveColor{Light: "#999999", Dark: "#555555"}
)

var columnColors = [numColumns]lipgloss.AdaptiveColor{clrRed, clrYellow, clrBlue, clrSubtle}

// --- Styles ---
var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(clrHighlight)
	dimStyle   = lipgloss.NewStyle().Foreground(clrDim)

	columnStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(clrSubtle).
			Padding(0, 1)

	columnSelectedStyle = columnStyle.BorderForeground(clrHighlight)

	popupStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(clrHighlight).
			Padding(1, 2).
			Width(60)

	statusStyle = lipgloss.NewStyle().Foreground(clrGreen).Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(clrRed).Bold(true)

	footerKeyStyle  = lipgloss.NewStyle().Bold(true).Foreground(clrHighlight)
	footerDescStyle = lipgloss.NewStyle().Foreground(clrSubtle)
	footerOffStyle  = lipgloss.NewStyle().Foreground(clrDim).Strikethrough(true)
)

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string

	switch m.screen {
	case screenBoard:
		content = m.viewBoard()
	case screenDetail:
		content = m.viewDetail()
	case screenPomodoro:
		content = m.viewPomodoro()
	}

	// Overlay popup if active.
	if m.popup != popupNone {
		content = m.overlayPopup(content)
	}

	return content
}

// ════════════════════════════════════════════════
// BOARD VIEW: four urgency buckets
// ════════════════════════════════════════════════

func (m Model) viewBoard() string {
	var b strings.Builder
	now := m.planner.Now()

	open := 0
	for _, col := range m.columns {
		open += len(col)
	}
	header := titleStyle.Render("planner")
	header += dimStyle.Render(fmt.Sprintf(" · %d open · %s", open, now.Format("Mon Jan 2 15:04")))
	b.WriteString(header + "\n\n")

	if m.planner.Loading() {
		b.WriteString(m.spinner.View() + dimStyle.Render(" Loading tasks..."))
		return b.String()
	}

	colWidth := 30
	if m.width > 0 {
		colWidth = (m.width - numColumns*4) / numColumns
		if colWidth < 20 {
			colWidth = 20
		}
	}
	height := 0
	if m.height > 0 {
		height = m.height - 9
	}

	var cols []string
	for i := range m.columns {
		cols = append(cols, m.renderColumn(i, colWidth, height, now))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cols...))
	b.WriteString("\n")

	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.boardFooter())

	return b.String()
}

func (m Model) renderColumn(idx, width, height int, now time.Time) string {
	var b strings.Builder
	tasks := m.columns[idx]

	label := lipgloss.NewStyle().Bold(true).Foreground(columnColors[idx]).Render(columnLabels[idx])
	b.WriteString(label + dimStyle.Render(fmt.Sprintf(" (%d)", len(tasks))) + "\n")

	if len(tasks) == 0 {
		b.WriteString(dimStyle.Render("nothing here"))
	}
	for row, t := range tasks {
		selected := idx == m.cursorCol && row == m.cursorRow
		b.WriteString(m.renderTaskLine(t, selected, width, now))
	}

	style := columnStyle
	if idx == m.cursorCol {
		style = columnSelectedStyle
	}
	style = style.Width(width)
	if height > 0 {
		style = style.Height(height)
	}
	return style.Render(b.String())
}

func (m Model) renderTaskLine(t store.Task, selected bool, width int, now time.Time) string {
	cursor := "  "
	titleSt := lipgloss.NewStyle()
	if selected {
		cursor = footerKeyStyle.Render("▸ ")
		titleSt = titleSt.Bold(true).Foreground(clrHighlight)
	}

	title := truncate(t.Title, width-4)
	line := cursor + priorityMark(t.Priority) + titleSt.Render(title) + "\n"

	var meta []string
	if label := timingLabel(t, now); label != "" {
		meta = append(meta, lipgloss.NewStyle().Foreground(classColor(urgency.Classify(t, now))).Render(label))
	}
	if t.Subject != nil {
		meta = append(meta, dimStyle.Render(truncate(*t.Subject, 12)))
	}
	if t.Kind == store.KindLife {
		meta = append(meta, lipgloss.NewStyle().Foreground(clrMagenta).Render("life"))
	}
	if t.PomodoroCount > 0 {
		meta = append(meta, dimStyle.Render(fmt.Sprintf("🍅%d", t.PomodoroCount)))
	}
	if len(meta) > 0 {
		line += "    " + strings.Join(meta, dimStyle.Render(" · ")) + "\n"
	}
	return line
}

func (m Model) boardFooter() string {
	keys := []struct{ key, desc string }{
		{"↑↓←→", "navigate"},
		{"enter", "details"},
		{"n", "new"},
		{"space", "done"},
		{"d", "delete"},
		{"p", "pomodoro"},
	}
	footer := renderFooter(keys)
	undo := footerKeyStyle.Render("u") + " " + footerDescStyle.Render("undo")
	if !m.canUndo {
		undo = footerOffStyle.Render("u undo")
	}
	return footer + "  " + undo + "  " + footerKeyStyle.Render("q") + " " + footerDescStyle.Render("quit")
}

// ════════════════════════════════════════════════
// DETAIL VIEW
// ════════════════════════════════════════════════

func (m Model) viewDetail() string {
	var b strings.Builder

	t, ok := m.planner.Get(m.detailID)
	if !ok {
		b.WriteString(dimStyle.Render("Task no longer exists.") + "\n\n")
		b.WriteString(renderFooter([]struct{ key, desc string }{{"esc", "back"}}))
		return b.String()
	}
	now := m.planner.Now()

	b.WriteString(titleStyle.Render(t.Title) + "\n")
	b.WriteString(dimStyle.Render(t.ID) + "\n\n")

	row := func(label, value string) {
		b.WriteString(fmt.Sprintf("  %-11s %s\n", label+":", value))
	}
	status := "open"
	if t.Completed && t.CompletedAt != nil {
		status = lipgloss.NewStyle().Foreground(clrGreen).Render("done " + urgency.FormatRelative(*t.CompletedAt, now))
	}
	row("Status", status)
	row("Kind", string(t.Kind))
	row("Bucket", string(urgency.BucketOf(t, now)))
	if t.Priority != store.PriorityNone {
		row("Priority", priorityMark(t.Priority)+string(t.Priority))
	}
	if t.Subject != nil {
		row("Subject", *t.Subject)
	}
	if t.DueDate != nil {
		row("Due", *t.DueDate+" "+valueOr(t.DueTime, "00:00"))
	}
	if t.ScheduledDate != nil {
		row("Planned", *t.ScheduledDate+" "+valueOr(t.ScheduledTime, "00:00"))
	}
	if label := timingLabel(t, now); label != "" {
		row("When", lipgloss.NewStyle().Foreground(classColor(urgency.Classify(t, now))).Render(label))
	}
	if t.EstimatedMinutes != nil {
		row("Estimate", fmt.Sprintf("%d min", *t.EstimatedMinutes))
	}
	row("Pomodoros", fmt.Sprintf("%d", t.PomodoroCount))
	row("Zone", t.TimeZone)
	if t.Notes != nil {
		b.WriteString("\n" + lipgloss.NewStyle().Width(72).Render(*t.Notes) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(renderFooter([]struct{ key, desc string }{
		{"space", "toggle done"},
		{"p", "pomodoro"},
		{"u", "undo"},
		{"esc", "back"},
	}))
	return b.String()
}

// ════════════════════════════════════════════════
// POMODORO VIEW
// ════════════════════════════════════════════════

func (m Model) viewPomodoro() string {
	var parts []string
	now := m.now()

	phase := m.timer.Phase()
	phaseColor := clrRed
	switch phase {
	case pomodoro.PhaseShortBreak, pomodoro.PhaseLongBreak:
		phaseColor = clrGreen
	}
	header := lipgloss.NewStyle().Bold(true).Foreground(phaseColor).
		Render(fmt.Sprintf("%s %s", m.spinner.View(), strings.ToUpper(string(phase))))
	parts = append(parts, header)

	if t, ok := m.planner.Get(m.timer.TaskID()); ok {
		parts = append(parts, lipgloss.NewStyle().Bold(true).Render(t.Title))
		parts = append(parts, dimStyle.Render(fmt.Sprintf("%d pomodoros on this task", t.PomodoroCount)))
	}

	parts = append(parts, lipgloss.NewStyle().Foreground(phaseColor).Bold(true).Render(bigClock(m.timer.Remaining(now))))
	parts = append(parts, progressBar(m.timer.Progress(now), 40, phaseColor))

	cfg := m.timer.Config()
	untilLong := cfg.LongBreakEvery - m.timer.Worked()%cfg.LongBreakEvery
	parts = append(parts, dimStyle.Render(fmt.Sprintf("%d done this run · long break in %d", m.timer.Worked(), untilLong)))

	content := strings.Join(parts, "\n\n")
	footer := m.statusLine() + "\n" + renderFooter([]struct{ key, desc string }{
		{"s", "skip phase"},
		{"x/esc", "stop"},
		{"q", "quit"},
	})

	if m.width > 0 && m.height > 0 {
		body := lipgloss.Place(m.width, m.height-2, lipgloss.Center, lipgloss.Center,
			lipgloss.NewStyle().Align(lipgloss.Center).Render(content))
		return body + "\n" + footer
	}
	return content + "\n\n" + footer
}

var bigDigits = map[rune][5]string{
	'0': {"███", "█ █", "█ █", "█ █", "███"},
	'1': {" █ ", "██ ", " █ ", " █ ", "███"},
	'2': {"███", "  █", "███", "█  ", "███"},
	'3': {"███", "  █", "███", "  █", "███"},
	'4': {"█ █", "█ █", "███", "  █", "  █"},
	'5': {"███", "█  ", "███", "  █", "███"},
	'6': {"███", "█  ", "███", "█ █", "███"},
	'7': {"███", "  █", "  █", "  █", "  █"},
	'8': {"███", "█ █", "███", "█ █", "███"},
	'9': {"███", "█ █", "███", "  █", "███"},
	':': {"   ", " █ ", "   ", " █ ", "   "},
}

// bigClock renders mm:ss in block digits.
func bigClock(d time.Duration) string {
	d = d.Round(time.Second)
	text := fmt.Sprintf("%02d:%02d", int(d.Minutes()), int(d.Seconds())%60)

	var lines [5]strings.Builder
	for _, r := range text {
		for i, seg := range bigDigits[r] {
			lines[i].WriteString(seg + " ")
		}
	}
	out := make([]string, len(lines))
	for i := range lines {
		out[i] = lines[i].String()
	}
	return strings.Join(out, "\n")
}

func progressBar(frac float64, width int, color lipgloss.AdaptiveColor) string {
	filled := int(frac * float64(width))
	return lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", filled)) +
		dimStyle.Render(strings.Repeat("░", width-filled))
}

// ════════════════════════════════════════════════
// POPUPS
// ════════════════════════════════════════════════

func (m Model) overlayPopup(bg string) string {
	var popup string

	switch m.popup {
	case popupCreate:
		popup = m.viewCreatePopup()
	default:
		return bg
	}

	// Place popup in center of screen.
	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height,
			lipgloss.Center, lipgloss.Center,
			popup,
			lipgloss.WithWhitespaceChars(" "),
		)
	}

	return popup
}

func (m Model) viewCreatePopup() string {
	var b strings.Builder

	title := lipgloss.NewStyle().Bold(true).Foreground(clrHighlight).Render("New Task")
	b.WriteString(title + "\n\n")

	b.WriteString("Title:\n")
	b.WriteString(m.titleInput.View() + "\n\n")

	b.WriteString("Due:\n")
	b.WriteString(m.dueInput.View() + "\n\n")

	if m.statusMsg != "" && strings.HasPrefix(m.statusMsg, "Error") {
		b.WriteString(errorStyle.Render(m.statusMsg) + "\n\n")
	}

	b.WriteString(footerDescStyle.Render("enter next/create • tab switch • esc cancel"))

	return m.popupBoxStyle().Render(b.String())
}

func (m Model) popupBoxStyle() lipgloss.Style {
	w := 60
	if m.width > 0 {
		w = m.width - 12
		if w < 42 {
			w = 42
		}
		if w > 84 {
			w = 84
		}
	}
	return popupStyle.Width(w)
}

// ════════════════════════════════════════════════
// SHARED HELPERS
// ════════════════════════════════════════════════

func (m Model) statusLine() string {
	if m.statusMsg == "" {
		return ""
	}
	if strings.HasPrefix(m.statusMsg, "Error") {
		return errorStyle.Render("  " + m.statusMsg)
	}
	return statusStyle.Render("  " + m.statusMsg)
}

func renderFooter(keys []struct{ key, desc string }) string {
	var parts []string
	for _, k := range keys {
		key := footerKeyStyle.Render(k.key)
		desc := footerDescStyle.Render(k.desc)
		parts = append(parts, key+" "+desc)
	}
	return "  " + strings.Join(parts, "  ")
}

// timingLabel describes the due instant, else the scheduled instant.
func timingLabel(t store.Task, now time.Time) string {
	if due, ok := urgency.DueInstant(t); ok {
		return "due " + urgency.FormatRelative(due, now)
	}
	if at, ok := urgency.ScheduledInstant(t); ok {
		return "planned " + urgency.FormatRelative(at, now)
	}
	return ""
}

func classColor(c urgency.Class) lipgloss.AdaptiveColor {
	switch c {
	case urgency.ClassOverdue:
		return clrRed
	case urgency.ClassToday:
		return clrYellow
	case urgency.ClassTomorrow:
		return clrCyan
	case urgency.ClassUpcoming:
		return clrBlue
	default:
		return clrSubtle
	}
}

func priorityMark(p store.Priority) string {
	switch p {
	case store.PriorityHigh:
		return lipgloss.NewStyle().Foreground(clrRed).Bold(true).Render("!!! ")
	case store.PriorityMedium:
		return lipgloss.NewStyle().Foreground(clrYellow).Render("!! ")
	case store.PriorityLow:
		return dimStyle.Render("! ")
	default:
		return ""
	}
}

func valueOr(s *string, def string) string {
	if s == nil {
		return def
	}
	return *s
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:max(maxLen, 0)])
	}
	return string(r[:maxLen-3]) + "..."
}
