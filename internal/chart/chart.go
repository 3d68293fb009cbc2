// Package chart provides sparkline rendering colored against the alert
// threshold, with minute tick marks, timeline labels and a threshold scale.
package chart

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/luki/simtemp/internal/history"
)

var sparkBlocks = []rune{'\u2581', '\u2582', '\u2583', '\u2584', '\u2585', '\u2586', '\u2587', '\u2588'}

// warmBand is how far below the threshold a value turns orange, in °C.
const warmBand = 2.0

// TempColor returns the color for a temperature given the alert threshold.
func TempColor(v, threshold float64) lipgloss.Color {
	switch {
	case v > threshold:
		return lipgloss.Color("196") // red
	case v >= threshold-warmBand:
		return lipgloss.Color("208") // orange
	case v >= threshold*0.85:
		return lipgloss.Color("220") // yellow
	default:
		return lipgloss.Color("78") // soft green
	}
}

// Range returns a display range covering points and the threshold with a
// little headroom on both sides.
func Range(points []history.Point, threshold float64) (lo, hi float64) {
	lo, hi = threshold, threshold
	for _, p := range points {
		lo = math.Min(lo, p.Temp)
		hi = math.Max(hi, p.Temp)
	}
	pad := math.Max((hi-lo)*0.1, 1)
	return lo - pad, hi + pad
}

// RenderSparkline renders a sparkline from bare values (no timestamp ticks).
func RenderSparkline(values []float64, width int, rangeMin, rangeMax, threshold float64) string {
	if width <= 0 {
		return ""
	}
	pts := make([]history.Point, len(values))
	for i, v := range values {
		pts[i] = history.Point{Temp: v, Alert: v > threshold}
	}
	return RenderSparklinePoints(pts, width, rangeMin, rangeMax, threshold)
}

// RenderSparklinePoints renders a sparkline with minute tick marks on the
// timeline. Points carrying the alert bit are drawn bold.
func RenderSparklinePoints(points []history.Point, width int, rangeMin, rangeMax, threshold float64) string {
	if width <= 0 {
		return ""
	}

	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("236"))
	if len(points) == 0 {
		return dim.Render(strings.Repeat("\u254C", width))
	}

	if len(points) > width {
		points = points[len(points)-width:]
	}

	padLen := width - len(points)
	span := rangeMax - rangeMin
	if span <= 0 {
		span = 1
	}

	var sb strings.Builder
	for i := 0; i < padLen; i++ {
		sb.WriteString(dim.Render("\u254C"))
	}

	tickStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("239"))

	for i, p := range points {
		norm := (p.Temp - rangeMin) / span
		norm = math.Max(0, math.Min(1, norm))
		idx := min(int(norm*7), 7)

		if isMinuteTick(points, i) {
			sb.WriteString(tickStyle.Render("\u2502"))
			continue
		}
		style := lipgloss.NewStyle().Foreground(TempColor(p.Temp, threshold))
		if p.Alert {
			style = style.Bold(true)
		}
		sb.WriteString(style.Render(string(sparkBlocks[idx])))
	}

	return sb.String()
}

func isMinuteTick(points []history.Point, i int) bool {
	p := points[i]
	if p.Time.IsZero() {
		return false
	}
	if p.Time.Second() == 0 && p.Time.Nanosecond() == 0 {
		return true
	}
	return i > 0 && !points[i-1].Time.IsZero() && p.Time.Minute() != points[i-1].Time.Minute()
}

// RenderTimeline renders the time labels under the sparkline, showing
// HH:MM at each minute tick position.
func RenderTimeline(points []history.Point, width int) string {
	if len(points) == 0 || width <= 0 {
		return ""
	}

	if len(points) > width {
		points = points[len(points)-width:]
	}

	padLen := width - len(points)

	line := make([]rune, width)
	for i := range line {
		line[i] = ' '
	}

	tickStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("239"))

	type tick struct {
		pos   int
		label string
	}
	var ticks []tick

	for i, p := range points {
		if p.Time.IsZero() {
			continue
		}
		if isMinuteTick(points, i) {
			pos := padLen + i
			label := p.Time.Format("15:04")
			ticks = append(ticks, tick{pos: pos, label: label})
		}
	}

	lastEnd := -1
	for _, t := range ticks {
		start := t.pos - 2
		if start < 0 {
			start = 0
		}
		end := start + len(t.label)
		if end > width {
			continue
		}
		if start <= lastEnd+1 {
			continue
		}
		for j, ch := range t.label {
			line[start+j] = ch
		}
		lastEnd = end
	}

	result := string(line)
	return tickStyle.Render(result)
}

// RenderThresholdScale renders a scale bar with the threshold marker and
// the current position.
func RenderThresholdScale(current, rangeMin, rangeMax, threshold float64, width int) string {
	if width <= 0 {
		return ""
	}

	span := rangeMax - rangeMin
	if span <= 0 {
		span = 1
	}
	pos := func(v float64) int {
		return min(max(int(float64(width-1)*(v-rangeMin)/span), 0), width-1)
	}
	threshPos := -1
	if threshold >= rangeMin && threshold <= rangeMax {
		threshPos = pos(threshold)
	}
	curPos := pos(current)

	var sb strings.Builder
	for i := 0; i < width; i++ {
		switch i {
		case curPos:
			style := lipgloss.NewStyle().Foreground(TempColor(current, threshold)).Bold(true)
			sb.WriteString(style.Render("\u25C6"))
		case threshPos:
			sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("\u25AA"))
		default:
			sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("236")).Render("\u00B7"))
		}
	}

	return sb.String()
}

// RenderTempValue renders the temperature value with color coding.
func RenderTempValue(temp, threshold float64) string {
	s := fmt.Sprintf("%6.2f\u00B0C", temp)
	style := lipgloss.NewStyle().Foreground(TempColor(temp, threshold))
	if temp > threshold {
		style = style.Bold(true)
	}
	return style.Render(s)
}
