package dashboard

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luki/simtemp/internal/knob"
	"github.com/luki/simtemp/internal/sample"
	"github.com/luki/simtemp/internal/simdev"
)

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestSampleUpdatesView(t *testing.T) {
	dev := simdev.NewVirtual()
	defer dev.Close()

	m := New(make(chan tea.Msg), dev, dev, "")
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	assert.Contains(t, m.View(), "Waiting for samples")

	m, _ = update(t, m, knobsMsg{snap: knob.ReadAll(dev)})
	m, cmd := update(t, m, sampleMsg(sample.Sample{TimestampNs: 2e9, TempMilliC: 46100, Flags: sample.FlagThresholdCrossed}))
	assert.NotNil(t, cmd)

	view := m.View()
	assert.Contains(t, view, "46.10°C")
	assert.Contains(t, view, "ALERT")
	assert.Contains(t, view, "RAMP")
	assert.Equal(t, 1, m.History().Stats().Alerts)
	assert.Contains(t, view, "stale")

	m, _ = update(t, m, sampleMsg(sample.Sample{TimestampNs: 3e9, TempMilliC: 25000, Flags: sample.FlagNewSample}))
	assert.NotContains(t, m.View(), "stale")
}

func TestPauseDropsSamples(t *testing.T) {
	dev := simdev.NewVirtual()
	defer dev.Close()

	m := New(make(chan tea.Msg), dev, dev, "")
	m, _ = update(t, m, key("p"))
	m, _ = update(t, m, sampleMsg(sample.Sample{TimestampNs: 1, TempMilliC: 25000}))
	assert.Equal(t, 0, m.History().Len())

	m, _ = update(t, m, key("p"))
	m, _ = update(t, m, sampleMsg(sample.Sample{TimestampNs: 2, TempMilliC: 25000}))
	assert.Equal(t, 1, m.History().Len())
}

func TestModeKeyCyclesMode(t *testing.T) {
	dev := simdev.NewVirtual()
	defer dev.Close()

	m := New(make(chan tea.Msg), dev, dev, "")
	_, cmd := update(t, m, key("m"))
	require.NotNil(t, cmd)

	msg := cmd()
	km, ok := msg.(knobsMsg)
	require.True(t, ok)
	assert.Equal(t, "0", km.snap.Mode)
	assert.Equal(t, "Mode changed to NORMAL", km.status)

	m, _ = update(t, m, km)
	assert.Equal(t, "0", m.knobs.Mode)
}

func TestThresholdKeys(t *testing.T) {
	dev := simdev.NewVirtual()
	defer dev.Close()

	m := New(make(chan tea.Msg), dev, dev, "")
	_, cmd := update(t, m, key("+"))
	cmd()
	_, cmd = update(t, m, key("+"))
	cmd()
	_, cmd = update(t, m, key("-"))
	cmd()

	v, err := dev.Read(knob.KnobThreshold)
	require.NoError(t, err)
	assert.Equal(t, "46000", v)
}

func TestQuit(t *testing.T) {
	m := New(make(chan tea.Msg), simdev.NewVirtual(), nil, "")
	_, cmd := update(t, m, key("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestFeedStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan tea.Msg)
	f := feed{ctx: ctx, events: events}

	done := make(chan struct{})
	go func() {
		f.Sample(sample.Sample{})
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("feed blocked after cancellation")
	}
}
