package viewer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luki/simtemp/internal/errors"
	"github.com/luki/simtemp/internal/knob"
	"github.com/luki/simtemp/internal/simdev"
	"github.com/luki/simtemp/internal/store"
)

// record writes n ramp samples crossing 25.2°C from the third one on.
func record(t *testing.T, n int) string {
	t.Helper()
	dir := t.TempDir()
	dev := simdev.NewVirtual(simdev.WithKnobs(100, 25200, knob.ModeRamp))
	defer dev.Close()

	rec, err := store.NewRecorder(dir, dev)
	require.NoError(t, err)
	for range n {
		_, err := dev.Wait()
		require.NoError(t, err)
		s, err := dev.ReadSample()
		require.NoError(t, err)
		require.NoError(t, rec.Write(s))
	}
	require.NoError(t, rec.Close())
	return dir
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewStartsAtLastSample(t *testing.T) {
	dir := record(t, 5)
	m := New(dir, []string{"2026-01-01"}, 25.2)

	require.NoError(t, m.err)
	assert.Equal(t, "2026-01-01", m.Day())
	rec, ok := m.Cursor()
	require.True(t, ok)
	assert.Equal(t, int32(25500), rec.TempMilliC)
	assert.True(t, rec.Alert)
	assert.Equal(t, 3, m.stats.Alerts)
}

func TestScrubbing(t *testing.T) {
	m := New(record(t, 5), []string{"2026-01-01"}, 25.2)

	m = update(t, m, key("h"))
	assert.Equal(t, 3, m.cursor)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyHome})
	assert.Equal(t, 0, m.cursor)
	m = update(t, m, key("h"))
	assert.Equal(t, 0, m.cursor)
	m = update(t, m, key("n"))
	assert.Equal(t, 2, m.cursor)
	m = update(t, m, key("L"))
	assert.Equal(t, 4, m.cursor)
	m = update(t, m, key("n"))
	assert.Equal(t, 2, m.cursor, "next alert wraps around")
}

func TestDayNavigation(t *testing.T) {
	dir := record(t, 3)
	raw, err := os.ReadFile(filepath.Join(dir, "2026-01-01.csv"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2025-12-31.csv"), raw[:len(raw)/2], 0o644))

	days, err := store.ListDays(dir)
	require.NoError(t, err)
	m := New(dir, days, 25.2)
	assert.Equal(t, "2026-01-01", m.Day())

	m = update(t, m, key("["))
	assert.Equal(t, "2025-12-31", m.Day())
	m = update(t, m, key("["))
	assert.Equal(t, "2025-12-31", m.Day())
	m = update(t, m, key("]"))
	assert.Equal(t, "2026-01-01", m.Day())
	assert.Equal(t, 2, m.cursor)
}

func TestView(t *testing.T) {
	m := New(record(t, 5), []string{"2026-01-01"}, 25.2)
	assert.Equal(t, "  Loading...", m.View())

	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	view := m.View()
	assert.Contains(t, view, "SIMTEMP RECORDINGS")
	assert.Contains(t, view, "2026-01-01")
	assert.Contains(t, view, "(5 samples)")
	assert.Contains(t, view, "ALERT")
	assert.Contains(t, view, "25.50°C")

	empty := New(t.TempDir(), []string{"2026-01-02"}, 25.2)
	empty = update(t, empty, tea.WindowSizeMsg{Width: 120, Height: 40})
	assert.Contains(t, empty.View(), "No data for this day.")
}

func TestRunRejectsMissingData(t *testing.T) {
	err := Run(context.Background(), t.TempDir(), "", 45)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidRequest))

	err = Run(context.Background(), record(t, 1), "2020-01-01", 45)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidRequest))
}
