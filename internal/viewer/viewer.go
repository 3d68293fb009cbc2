// Package viewer implements the recorded sample browser TUI with time
// scrubbing, day navigation and a sparkline window ending at the cursor.
package viewer

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/luki/simtemp/internal/chart"
	"github.com/luki/simtemp/internal/errors"
	"github.com/luki/simtemp/internal/history"
	"github.com/luki/simtemp/internal/store"
)

// skip is how many samples H/L move the cursor.
const skip = 60

// Run browses the recordings in dir, starting at day (or the most recent
// day when empty), until the user quits or ctx is cancelled.
func Run(ctx context.Context, dir, day string, threshold float64, opts ...tea.ProgramOption) error {
	days, err := store.ListDays(dir)
	if err != nil {
		return errors.WrapWithContext(errors.ErrCodeIO, "cannot list recordings", err,
			map[string]any{"dir": dir})
	}
	if len(days) == 0 {
		return errors.NewWithContext(errors.ErrCodeInvalidRequest, "no recordings found",
			map[string]any{"dir": dir})
	}

	m := New(dir, days, threshold)
	if day != "" {
		if !m.selectDay(day) {
			return errors.NewWithContext(errors.ErrCodeInvalidRequest, "no recording for day",
				map[string]any{"day": day})
		}
	}

	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	_, err = tea.NewProgram(m, opts...).Run()
	if stderrors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// ── Color palette ────────────────────────────────────────────────────

var (
	colorTitleBg  = lipgloss.Color("17")
	colorTitleFg  = lipgloss.Color("51")
	colorBorder   = lipgloss.Color("62")
	colorLabel    = lipgloss.Color("252")
	colorDim      = lipgloss.Color("240")
	colorFooterBg = lipgloss.Color("235")
	colorAccent   = lipgloss.Color("214")
	colorCrit     = lipgloss.Color("196")
)

// ── Model ────────────────────────────────────────────────────────────

// Model is the BubbleTea model for the recording browser.
type Model struct {
	dir       string
	days      []string // newest first
	dayIdx    int
	records   []store.Record
	points    []history.Point
	stats     history.Stats
	threshold float64 // °C
	cursor    int
	width     int
	height    int
	err       error
}

// New creates a model showing the first of days.
func New(dir string, days []string, threshold float64) Model {
	m := Model{dir: dir, days: days, threshold: threshold}
	if len(days) > 0 {
		m.loadDay()
	}
	return m
}

func (m *Model) selectDay(day string) bool {
	for i, d := range m.days {
		if d == day {
			m.dayIdx = i
			m.loadDay()
			return true
		}
	}
	return false
}

func (m *Model) loadDay() {
	records, err := store.LoadDay(m.dir, m.days[m.dayIdx])
	m.records, m.points, m.stats, m.err = nil, nil, history.Stats{}, err
	if err != nil {
		return
	}

	buf := history.NewBuffer(max(len(records), 1), nil)
	for _, r := range records {
		buf.Push(history.Point{Temp: r.Sample().Celsius(), Time: r.Time, Alert: r.Alert})
	}
	m.records = records
	m.points = buf.LastNPoints(len(records))
	m.stats = buf.Stats()
	m.cursor = max(len(m.points)-1, 0)
}

// Cursor returns the record under the cursor.
func (m Model) Cursor() (store.Record, bool) {
	if m.cursor < 0 || m.cursor >= len(m.records) {
		return store.Record{}, false
	}
	return m.records[m.cursor], true
}

// Day returns the day being shown.
func (m Model) Day() string {
	if len(m.days) == 0 {
		return ""
	}
	return m.days[m.dayIdx]
}

// ── Init / Update ────────────────────────────────────────────────────

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		last := len(m.points) - 1
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit

		case "left", "h":
			m.cursor = max(m.cursor-1, 0)
		case "right", "l":
			m.cursor = max(min(m.cursor+1, last), 0)
		case "shift+left", "H":
			m.cursor = max(m.cursor-skip, 0)
		case "shift+right", "L":
			m.cursor = max(min(m.cursor+skip, last), 0)
		case "home":
			m.cursor = 0
		case "end":
			m.cursor = max(last, 0)
		case "n":
			m.cursor = m.nextAlert()

		case "[":
			if m.dayIdx < len(m.days)-1 {
				m.dayIdx++
				m.loadDay()
			}
		case "]":
			if m.dayIdx > 0 {
				m.dayIdx--
				m.loadDay()
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	return m, nil
}

// nextAlert returns the index of the first alert after the cursor,
// wrapping around, or the cursor itself when the day has no alerts.
func (m Model) nextAlert() int {
	n := len(m.points)
	for i := 1; i <= n; i++ {
		j := (m.cursor + i) % n
		if m.points[j].Alert {
			return j
		}
	}
	return m.cursor
}

// ── View ─────────────────────────────────────────────────────────────

func (m Model) View() string {
	if m.width == 0 {
		return "  Loading..."
	}

	contentWidth := max(m.width-2, 40)

	sections := []string{m.renderTitle(contentWidth)}

	if m.err != nil {
		sections = append(sections, lipgloss.NewStyle().
			Foreground(colorCrit).
			Bold(true).
			Padding(0, 1).
			Render(fmt.Sprintf("ERROR: %v", m.err)))
	}

	if len(m.points) == 0 {
		sections = append(sections, lipgloss.NewStyle().
			Foreground(colorDim).
			Padding(2, 0).
			Align(lipgloss.Center).
			Width(contentWidth).
			Render("No data for this day."))
	} else {
		sections = append(sections, m.renderCursorInfo(contentWidth), m.renderPanel(contentWidth))
	}

	sections = append(sections, m.renderFooter(contentWidth))

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	if m.height > 0 {
		if lines := strings.Split(content, "\n"); len(lines) > m.height {
			content = strings.Join(lines[:m.height], "\n")
		}
	}
	return content
}

func (m Model) renderTitle(width int) string {
	logo := lipgloss.NewStyle().
		Bold(true).
		Foreground(colorTitleFg).
		Render("SIMTEMP RECORDINGS")

	right := lipgloss.NewStyle().Foreground(colorAccent).Bold(true).Render(m.Day()) +
		lipgloss.NewStyle().Foreground(colorDim).Render(fmt.Sprintf("  [ %d/%d ]", m.dayIdx+1, len(m.days)))

	if len(m.points) > 0 {
		right += lipgloss.NewStyle().
			Foreground(colorDim).
			Render(fmt.Sprintf("  %s - %s  (%d samples)",
				m.stats.First.Format("15:04:05"), m.stats.Last.Format("15:04:05"), m.stats.Count))
	}

	gap := max(width-lipgloss.Width(logo)-lipgloss.Width(right)-4, 1)

	return lipgloss.NewStyle().
		Background(colorTitleBg).
		Width(width).
		Padding(0, 1).
		Render(logo + strings.Repeat(" ", gap) + right)
}

func (m Model) renderCursorInfo(width int) string {
	rec, ok := m.Cursor()
	if !ok {
		return ""
	}

	ts := lipgloss.NewStyle().
		Foreground(colorAccent).
		Bold(true).
		Render(rec.Time.Format("15:04:05.000"))

	pos := lipgloss.NewStyle().
		Foreground(colorDim).
		Render(fmt.Sprintf("  %d/%d", m.cursor+1, len(m.points)))

	return lipgloss.NewStyle().
		Padding(0, 1).
		Render("  " + ts + pos + "  " + m.renderScrubber(max(width-36, 10)))
}

// renderScrubber draws the cursor position over the day with a tick at
// every hour change and alert samples marked.
func (m Model) renderScrubber(width int) string {
	n := len(m.points)
	if n == 0 || width <= 0 {
		return ""
	}

	pos := 0
	if n > 1 {
		pos = m.cursor * (width - 1) / (n - 1)
	}
	pos = min(pos, width-1)

	dimS := lipgloss.NewStyle().Foreground(lipgloss.Color("237"))
	curS := lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	tickS := lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	alertS := lipgloss.NewStyle().Foreground(colorCrit)

	var sb strings.Builder
	for i := 0; i < width; i++ {
		if i == pos {
			sb.WriteString(curS.Render("◆"))
			continue
		}
		idx := 0
		if n > 1 && width > 1 {
			idx = i * (n - 1) / (width - 1)
		}
		switch {
		case m.points[idx].Alert:
			sb.WriteString(alertS.Render("─"))
		case idx > 0 && m.points[idx].Time.Hour() != m.points[idx-1].Time.Hour():
			sb.WriteString(tickS.Render("│"))
		default:
			sb.WriteString(dimS.Render("─"))
		}
	}
	return sb.String()
}

func (m Model) renderPanel(totalWidth int) string {
	rec, ok := m.Cursor()
	if !ok {
		return ""
	}
	cur := m.points[m.cursor]

	innerWidth := max(totalWidth-4, 30)
	chartWidth := min(max(innerWidth-40, 15), 140)

	dimS := lipgloss.NewStyle().Foreground(colorDim)
	valS := lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	labelS := lipgloss.NewStyle().Foreground(colorLabel).Bold(true).Width(12)

	var rows []string

	tempLine := labelS.Render("temperature") + " " + chart.RenderTempValue(cur.Temp, m.threshold)
	if rec.Alert {
		tempLine += "  " + lipgloss.NewStyle().Foreground(colorCrit).Bold(true).Render("ALERT")
	}
	rows = append(rows, tempLine)
	rows = append(rows, labelS.Render("timestamp")+" "+valS.Render(fmt.Sprintf("%d ns", rec.TimestampNs))+
		dimS.Render(fmt.Sprintf("  flags 0x%x", rec.Flags)))

	sep := lipgloss.NewStyle().Foreground(lipgloss.Color("237")).Render(strings.Repeat("─", innerWidth))
	rows = append(rows, sep)

	start := max(m.cursor+1-chartWidth, 0)
	window := m.points[start : m.cursor+1]
	lo, hi := chart.Range(m.points, m.threshold)

	frameL := lipgloss.NewStyle().Foreground(colorBorder).Render("▕")
	frameR := lipgloss.NewStyle().Foreground(colorBorder).Render("▏")
	rows = append(rows, frameL+chart.RenderSparklinePoints(window, chartWidth, lo, hi, m.threshold)+frameR)
	if timeline := chart.RenderTimeline(window, chartWidth); strings.TrimSpace(timeline) != "" {
		rows = append(rows, " "+timeline)
	}
	rows = append(rows, " "+chart.RenderThresholdScale(cur.Temp, lo, hi, m.threshold, chartWidth))

	rows = append(rows, sep)
	rows = append(rows, dimS.Render("avg ")+valS.Render(fmt.Sprintf("%6.2f", m.stats.Avg))+
		dimS.Render("  lo ")+valS.Render(fmt.Sprintf("%6.2f", m.stats.Min))+
		dimS.Render("  pk ")+valS.Render(fmt.Sprintf("%6.2f", m.stats.Peak))+
		dimS.Render("  alerts ")+valS.Render(fmt.Sprintf("%d", m.stats.Alerts))+
		dimS.Render("  threshold ")+valS.Render(fmt.Sprintf("%.2f°C", m.threshold)))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1).
		Width(totalWidth).
		Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m Model) renderFooter(width int) string {
	dimS := lipgloss.NewStyle().Foreground(colorDim)
	keyS := lipgloss.NewStyle().Foreground(colorLabel)

	keys := dimS.Render("q") + keyS.Render(":quit") +
		dimS.Render("  h/l") + keyS.Render(":scrub") +
		dimS.Render("  H/L") + keyS.Render(fmt.Sprintf(":skip %d", skip)) +
		dimS.Render("  home/end") + keyS.Render(":jump") +
		dimS.Render("  n") + keyS.Render(":next alert") +
		dimS.Render("  [/]") + keyS.Render(":day")

	return lipgloss.NewStyle().
		Background(colorFooterBg).
		Width(width).
		Padding(0, 1).
		Render(keys)
}
