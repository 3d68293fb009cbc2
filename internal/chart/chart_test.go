package chart

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/luki/simtemp/internal/history"
)

func TestSparkline(t *testing.T) {
	values := []float64{25, 26, 27, 30, 35, 40, 45, 46, 47}
	result := RenderSparkline(values, 20, 20, 50, 45)
	if len(result) == 0 {
		t.Error("sparkline should not be empty")
	}
	t.Logf("Sparkline: %s", result)
}

func TestSparklineMinuteTicks(t *testing.T) {
	base := time.Date(2026, 2, 21, 14, 0, 59, 0, time.UTC)
	var pts []history.Point
	for i := 0; i < 20; i++ {
		pts = append(pts, history.Point{
			Temp: float64(25 + i%5),
			Time: base.Add(time.Duration(i) * 100 * time.Millisecond),
		})
	}

	result := RenderSparklinePoints(pts, 20, 20, 35, 45)
	if strings.Count(result, "│") != 1 {
		t.Errorf("expected exactly one minute tick mark in %q", result)
	}

	labels := RenderTimeline(pts, 20)
	if !strings.Contains(labels, "14:01") {
		t.Errorf("expected 14:01 label, got %q", labels)
	}
}

func TestTempColor(t *testing.T) {
	tests := []struct {
		temp float64
		want lipgloss.Color
	}{
		{46, "196"},
		{45, "208"},
		{43.5, "208"},
		{39, "220"},
		{25, "78"},
	}
	for _, tt := range tests {
		if got := TempColor(tt.temp, 45); got != tt.want {
			t.Errorf("TempColor(%v): got %s, want %s", tt.temp, got, tt.want)
		}
	}
}

func TestRangeIncludesThreshold(t *testing.T) {
	pts := []history.Point{{Temp: 25}, {Temp: 27}}
	lo, hi := Range(pts, 45)
	if lo >= 25 || hi <= 45 {
		t.Errorf("Range: got [%v, %v], want it to cover 25..45", lo, hi)
	}
}

func TestThresholdScaleWidth(t *testing.T) {
	scale := RenderThresholdScale(30, 20, 50, 45, 30)
	if n := lipgloss.Width(scale); n != 30 {
		t.Errorf("scale width: got %d, want 30", n)
	}
}
