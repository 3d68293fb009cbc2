// Package dashboard implements the full-screen live view using BubbleTea,
// with a threshold-colored sparkline, knob values and session statistics.
package dashboard

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/luki/simtemp/internal/chart"
	"github.com/luki/simtemp/internal/defaults"
	"github.com/luki/simtemp/internal/history"
	"github.com/luki/simtemp/internal/knob"
	"github.com/luki/simtemp/internal/sample"
)

const (
	knobInterval = 1 * time.Second
	// thresholdStep is the +/- key adjustment in millidegrees.
	thresholdStep = 1000
)

// ── Messages ─────────────────────────────────────────────────────────

type tickMsg time.Time

type sampleMsg sample.Sample

type warnMsg string

type knobsMsg struct {
	snap   knob.Snapshot
	status string
	err    error
}

// ── Model ────────────────────────────────────────────────────────────

// Model is the BubbleTea model for the dashboard.
type Model struct {
	events    <-chan tea.Msg
	port      knob.Port
	clock     sample.Clock
	history   *history.Buffer
	knobs     knob.Snapshot
	last      sample.Sample
	lastAt    time.Time
	haveLast  bool
	status    string
	err       error
	recordDir string
	width     int
	height    int
	startTime time.Time
	paused    bool
}

// New creates the initial model. events carries sampleMsg and warnMsg
// values from the stream monitor.
func New(events <-chan tea.Msg, port knob.Port, clock sample.Clock, recordDir string) Model {
	if clock == nil {
		clock = sample.SystemClock{}
	}
	return Model{
		events:    events,
		port:      port,
		clock:     clock,
		history:   history.NewBuffer(defaults.HistorySize, clock),
		recordDir: recordDir,
		startTime: time.Now(),
	}
}

// History returns the buffer fed by the dashboard.
func (m Model) History() *history.Buffer {
	return m.history
}

// ── Commands ─────────────────────────────────────────────────────────

func tickCmd() tea.Cmd {
	return tea.Tick(knobInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitForEvent(events <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-events
		if !ok {
			return nil
		}
		return msg
	}
}

func readKnobs(port knob.Port, status string) tea.Cmd {
	return func() tea.Msg {
		return knobsMsg{snap: knob.ReadAll(port), status: status}
	}
}

func cycleMode(port knob.Port) tea.Cmd {
	return func() tea.Msg {
		v, err := port.Read(knob.KnobMode)
		if err != nil {
			return knobsMsg{snap: knob.ReadAll(port), err: err}
		}
		mode, err := knob.ParseMode(v)
		if err != nil {
			mode = knob.ModeRamp
		}
		next := mode.Next()
		if err := knob.WriteInt(port, knob.KnobMode, int(next)); err != nil {
			return knobsMsg{snap: knob.ReadAll(port), err: err}
		}
		return knobsMsg{snap: knob.ReadAll(port), status: "Mode changed to " + next.String()}
	}
}

func adjustThreshold(port knob.Port, delta int) tea.Cmd {
	return func() tea.Msg {
		v, err := port.Read(knob.KnobThreshold)
		if err != nil {
			return knobsMsg{snap: knob.ReadAll(port), err: err}
		}
		cur, err := strconv.Atoi(v)
		if err != nil {
			return knobsMsg{snap: knob.ReadAll(port), err: err}
		}
		if err := knob.WriteInt(port, knob.KnobThreshold, cur+delta); err != nil {
			return knobsMsg{snap: knob.ReadAll(port), err: err}
		}
		return knobsMsg{
			snap:   knob.ReadAll(port),
			status: "Threshold set to " + sample.FormatCelsius(int32(cur+delta)) + "°C",
		}
	}
}

// ── Init / Update ────────────────────────────────────────────────────

func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForEvent(m.events), readKnobs(m.port, ""), tickCmd())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ", "p":
			m.paused = !m.paused
		case "m":
			return m, cycleMode(m.port)
		case "+", "=":
			return m, adjustThreshold(m.port, thresholdStep)
		case "-", "_":
			return m, adjustThreshold(m.port, -thresholdStep)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		if m.paused {
			return m, tickCmd()
		}
		return m, tea.Batch(readKnobs(m.port, ""), tickCmd())

	case sampleMsg:
		if !m.paused {
			s := sample.Sample(msg)
			m.last = s
			m.lastAt = sample.WallTime(m.clock, s.TimestampNs)
			m.haveLast = true
			m.history.Observe(s)
		}
		return m, waitForEvent(m.events)

	case warnMsg:
		m.err = fmt.Errorf("%s", string(msg))
		return m, waitForEvent(m.events)

	case knobsMsg:
		m.knobs = msg.snap
		if msg.err != nil {
			m.err = fmt.Errorf("knob update failed (%d): %w", knob.Errno(msg.err), msg.err)
		} else if msg.status != "" {
			m.status = msg.status
			m.err = nil
		}
	}

	return m, nil
}

// threshold returns the current threshold in °C, falling back to the
// highest value seen when the knob is unreadable.
func (m Model) threshold() float64 {
	if v, err := strconv.Atoi(m.knobs.Threshold); err == nil && m.knobs.Errs[knob.KnobThreshold] == nil {
		return float64(v) / 1000
	}
	return m.history.Stats().Peak
}

// ── Color palette ────────────────────────────────────────────────────

var (
	colorTitleBg  = lipgloss.Color("17")
	colorTitleFg  = lipgloss.Color("51")
	colorBorder   = lipgloss.Color("62")
	colorLabel    = lipgloss.Color("252")
	colorDim      = lipgloss.Color("240")
	colorFooterBg = lipgloss.Color("235")
	colorOk       = lipgloss.Color("78")
	colorWarn     = lipgloss.Color("220")
	colorHigh     = lipgloss.Color("208")
	colorCrit     = lipgloss.Color("196")
)

// ── View ─────────────────────────────────────────────────────────────

func (m Model) View() string {
	if m.width == 0 {
		return "  Initializing..."
	}

	contentWidth := max(m.width-2, 40)

	var sections []string
	sections = append(sections, m.renderTitleBar(contentWidth))

	if m.err != nil {
		errBox := lipgloss.NewStyle().
			Foreground(colorCrit).
			Bold(true).
			Width(contentWidth).
			Padding(0, 1).
			Render(fmt.Sprintf(" ERROR: %v", m.err))
		sections = append(sections, errBox)
	} else if m.status != "" {
		sections = append(sections, lipgloss.NewStyle().
			Foreground(colorOk).
			Width(contentWidth).
			Padding(0, 1).
			Render(" "+m.status))
	}

	if !m.haveLast {
		waiting := lipgloss.NewStyle().
			Foreground(colorDim).
			Width(contentWidth).
			Align(lipgloss.Center).
			Padding(2, 0).
			Render("Waiting for samples...")
		sections = append(sections, waiting)
	} else {
		sections = append(sections, m.renderPanel(contentWidth))
	}

	sections = append(sections, m.renderFooter(contentWidth))

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	lines := strings.Split(content, "\n")
	if m.height > 0 && len(lines) > m.height {
		lines = lines[:m.height]
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderTitleBar(width int) string {
	logo := lipgloss.NewStyle().
		Bold(true).
		Foreground(colorTitleFg).
		Render("SIMTEMP MONITOR")

	dim := lipgloss.NewStyle().Foreground(colorDim)
	statusParts := []string{dim.Render("up " + fmtDuration(time.Since(m.startTime)))}

	if m.haveLast {
		statusParts = append(statusParts, dim.Render(m.lastAt.Local().Format("15:04:05.000")))
	}

	if m.paused {
		statusParts = append(statusParts, lipgloss.NewStyle().
			Foreground(colorCrit).
			Bold(true).
			Render("PAUSED"))
	}

	if m.recordDir != "" {
		rec := lipgloss.NewStyle().Foreground(colorCrit).Render("REC") + dim.Render(" "+m.recordDir)
		statusParts = append(statusParts, rec)
	}

	sep := dim.Render(" │ ")
	right := strings.Join(statusParts, sep)

	gap := max(width-lipgloss.Width(logo)-lipgloss.Width(right)-4, 1)

	return lipgloss.NewStyle().
		Background(colorTitleBg).
		Width(width).
		Padding(0, 1).
		Render(logo + strings.Repeat(" ", gap) + right)
}

func (m Model) renderPanel(totalWidth int) string {
	innerWidth := max(totalWidth-4, 30)
	chartWidth := min(max(innerWidth-50, 15), 140)

	dimS := lipgloss.NewStyle().Foreground(colorDim)
	valS := lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	labelS := lipgloss.NewStyle().Foreground(colorLabel).Width(14)
	frameL := lipgloss.NewStyle().Foreground(colorBorder).Render("▕")
	frameR := lipgloss.NewStyle().Foreground(colorBorder).Render("▏")

	threshold := m.threshold()
	temp := m.last.Celsius()

	alert := lipgloss.NewStyle().Foreground(colorOk).Render("ok")
	if m.last.Alert() {
		alert = lipgloss.NewStyle().Foreground(colorCrit).Bold(true).Render("ALERT")
	}
	if !m.last.Fresh() {
		alert += "  " + dimS.Render("stale")
	}

	var rows []string
	rows = append(rows, labelS.Render("Temperature")+" "+chart.RenderTempValue(temp, threshold)+"  "+alert)

	pts := m.history.LastNPoints(chartWidth)
	lo, hi := chart.Range(pts, threshold)
	spark := chart.RenderSparklinePoints(pts, chartWidth, lo, hi, threshold)
	rows = append(rows, labelS.Render("History")+" "+frameL+spark+frameR)
	if timeline := chart.RenderTimeline(pts, chartWidth); strings.TrimSpace(timeline) != "" {
		rows = append(rows, strings.Repeat(" ", 16)+timeline)
	}
	rows = append(rows, labelS.Render("Scale")+" "+chart.RenderThresholdScale(temp, lo, hi, threshold, chartWidth))

	st := m.history.Stats()
	stats := dimS.Render("avg ") + valS.Render(fmt.Sprintf("%6.2f", st.Avg)) +
		dimS.Render("  lo ") + valS.Render(fmt.Sprintf("%6.2f", st.Min)) +
		dimS.Render("  pk ") + valS.Render(fmt.Sprintf("%6.2f", st.Peak)) +
		dimS.Render("  n ") + valS.Render(strconv.Itoa(st.Count)) +
		dimS.Render("  alerts ") + lipgloss.NewStyle().Foreground(colorWarn).Render(strconv.Itoa(st.Alerts))
	rows = append(rows, labelS.Render("Session")+" "+stats)

	rows = append(rows, labelS.Render("Configuration")+" "+m.renderKnobs())

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1).
		Width(totalWidth).
		Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m Model) renderKnobs() string {
	dimS := lipgloss.NewStyle().Foreground(colorDim)
	valS := lipgloss.NewStyle().Foreground(lipgloss.Color("250"))

	mode := m.knobs.Mode
	if md, err := knob.ParseMode(mode); err == nil && m.knobs.Errs[knob.KnobMode] == nil {
		mode = md.String()
	}
	return dimS.Render("sampling ") + valS.Render(m.knobs.Sampling+"ms") +
		dimS.Render("  threshold ") + lipgloss.NewStyle().Foreground(colorCrit).Render(m.knobs.Threshold+"mC") +
		dimS.Render("  mode ") + valS.Render(mode)
}

func (m Model) renderFooter(width int) string {
	okS := lipgloss.NewStyle().Foreground(colorOk).Render("██")
	warnS := lipgloss.NewStyle().Foreground(colorWarn).Render("██")
	highS := lipgloss.NewStyle().Foreground(colorHigh).Render("██")
	critS := lipgloss.NewStyle().Foreground(colorCrit).Render("██")
	tickS := lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Render("│")

	dimS := lipgloss.NewStyle().Foreground(colorDim)
	keyS := lipgloss.NewStyle().Foreground(colorLabel)
	legend := okS + dimS.Render(" ok ") +
		warnS + dimS.Render(" warm ") +
		highS + dimS.Render(" near ") +
		critS + dimS.Render(" alert ") +
		tickS + dimS.Render(" 1min")

	keys := dimS.Render("q") + keyS.Render(":quit") +
		dimS.Render("  p") + keyS.Render(":pause") +
		dimS.Render("  m") + keyS.Render(":mode") +
		dimS.Render("  +/-") + keyS.Render(":threshold")

	gap := max(width-lipgloss.Width(legend)-lipgloss.Width(keys)-4, 1)

	return lipgloss.NewStyle().
		Background(colorFooterBg).
		Width(width).
		Padding(0, 1).
		Render(legend + strings.Repeat(" ", gap) + keys)
}

func fmtDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}
