package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luki/simtemp/internal/errors"
	"github.com/luki/simtemp/internal/history"
	"github.com/luki/simtemp/internal/simdev"
	"github.com/luki/simtemp/internal/store"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	return runWith(t, strings.NewReader(stdin), args...)
}

func runWith(t *testing.T, stdin io.Reader, args ...string) (string, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var out bytes.Buffer
	app := NewApp(stdin, &out)
	err := app.Run(ctx, append([]string{name}, args...))
	return out.String(), err
}

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "simtemp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	return path
}

const fastChecks = `
checks:
  reader_delay: 1ms
  writer_delay: 1ms
`

func TestConfigShowSimulated(t *testing.T) {
	out, err := run(t, "", "--simulate", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Current Configuration:")
	assert.Contains(t, out, "sampling_mc = 100")
	assert.Contains(t, out, "threshold_mc = 45000")
	assert.Contains(t, out, "mode = 2 (RAMP)")
}

func TestConfigSet(t *testing.T) {
	out, err := run(t, "", "--simulate", "config", "set", "mode", "noisy")
	require.NoError(t, err)
	assert.Equal(t, "mode = 1 (NOISY)\n", out)

	out, err = run(t, "", "--simulate", "config", "set", "threshold_mc", "42000")
	require.NoError(t, err)
	assert.Equal(t, "threshold_mc = 42000\n", out)
}

func TestConfigSetRejects(t *testing.T) {
	_, err := run(t, "", "--simulate", "config", "set", "mod", "1")
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidRequest))

	_, err = run(t, "", "--simulate", "config", "set", "mode", "hot")
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidRequest))

	_, err = run(t, "", "--simulate", "config", "set", "mode")
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidRequest))

	out, err := run(t, "", "--simulate", "config", "set", "sampling_mc", "fast")
	require.Error(t, err)
	assert.Equal(t, "could not write fast to sampling_mc: -22\n", out)
}

func TestTestSimulatedPasses(t *testing.T) {
	cfg := writeConfig(t, fastChecks)
	out, err := run(t, "", "--simulate", "--config", cfg, "test")
	require.NoError(t, err, out)

	for _, line := range []string{
		"T1: PASSED",
		"T2: PASSED",
		"T3: PASSED",
		"T4: PASSED",
		"T5: PASSED",
	} {
		assert.Contains(t, out, line)
	}
	assert.Contains(t, out, "Test 1:")
}

func TestTestReportsFailure(t *testing.T) {
	cfg := writeConfig(t, fastChecks+`
  cadence_min: 50
  cadence_max: 60
`)
	out, err := run(t, "", "--simulate", "--config", cfg, "test")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInternal))
	assert.Contains(t, out, "T2: NOT PASSED")
	assert.Contains(t, out, "T1: PASSED")
}

func TestMonitorExitCommand(t *testing.T) {
	out, err := run(t, "show\nexit\n", "--simulate")
	require.NoError(t, err)
	assert.Contains(t, out, "Current Configuration:")
	assert.Contains(t, out, "Listening for samples and commands...")
	assert.Contains(t, out, "Stopping...")
	assert.NotContains(t, out, "Enter a command")
}

func TestMonitorRecords(t *testing.T) {
	dir := t.TempDir()
	pr, pw := io.Pipe()
	go func() {
		time.Sleep(350 * time.Millisecond)
		_, _ = io.WriteString(pw, "exit\n")
		pw.Close()
	}()
	out, err := runWith(t, pr, "--simulate", "--record", dir, "monitor")
	require.NoError(t, err)
	assert.Contains(t, out, "Session: ")
	assert.Contains(t, out, "Trend:   ")

	days, err := store.ListDays(dir)
	require.NoError(t, err)
	assert.Len(t, days, 1)
}

func recordDay(t *testing.T, n int) string {
	t.Helper()
	dir := t.TempDir()
	dev := simdev.NewVirtual()
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

func TestHistorySummary(t *testing.T) {
	dir := recordDay(t, 5)

	out, err := run(t, "", "history", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "2026-01-01: 5 samples, 0 alerts")
	assert.Contains(t, out, "peak 25.50°C")

	out, err = run(t, "", "history", "--dir", dir, "--list")
	require.NoError(t, err)
	assert.Equal(t, "2026-01-01\n", out)
}

func TestHistoryErrors(t *testing.T) {
	_, err := run(t, "", "history", "--dir", t.TempDir())
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidRequest))

	_, err = run(t, "", "history", "--dir", filepath.Join(t.TempDir(), "missing"))
	assert.True(t, errors.IsCode(err, errors.ErrCodeIO))

	dir := recordDay(t, 1)
	_, err = run(t, "", "history", "--dir", dir, "--day", "yesterday")
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidRequest))
}

func TestWriteStatsTrend(t *testing.T) {
	hist := history.NewBuffer(100, nil)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range 70 {
		temp := 25 + float64(i)/10
		hist.Push(history.Point{Temp: temp, Time: start.Add(time.Duration(i) * 100 * time.Millisecond), Alert: temp > 30})
	}

	var out bytes.Buffer
	writeStats(&out, hist, 30)
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "Session: 70 samples, 19 alerts"), lines[0])
	trend := strings.TrimPrefix(lines[1], "Trend:   ")
	assert.Equal(t, trendWidth, utf8.RuneCountInString(trend))

	out.Reset()
	writeStats(&out, history.NewBuffer(10, nil), 30)
	assert.Equal(t, "No samples received.\n", out.String())
}
