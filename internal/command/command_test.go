package command

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luki/simtemp/internal/knob"
	"github.com/luki/simtemp/internal/sample"
)

type recordingSink struct {
	mu      sync.Mutex
	lines   []string
	warns   []string
	prompts int
}

func (r *recordingSink) Sample(sample.Sample) {}

func (r *recordingSink) Line(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, s)
}

func (r *recordingSink) Warn(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warns = append(r.warns, s)
}

func (r *recordingSink) Prompt(string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prompts++
}

type memPort struct {
	mu     sync.Mutex
	values map[knob.Knob]string
	writes []string
}

func newMemPort() *memPort {
	return &memPort{values: map[knob.Knob]string{
		knob.KnobSampling:  "100",
		knob.KnobThreshold: "45000",
		knob.KnobMode:      "2",
	}}
}

func (p *memPort) Read(k knob.Knob) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.values[k]
	if !ok {
		return "", knob.ConfigError(k, "read", knob.EINVAL, nil)
	}
	return v, nil
}

func (p *memPort) Write(k knob.Knob, v string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !k.Known() {
		return knob.ConfigError(k, "write", knob.EINVAL, nil)
	}
	p.values[k] = v
	p.writes = append(p.writes, string(k)+"="+v)
	return nil
}

func TestParse(t *testing.T) {
	tests := []struct {
		line string
		want Command
	}{
		{"exit", Command{Kind: Exit}},
		{"  EXIT ", Command{Kind: Exit}},
		{"", Command{Kind: Empty}},
		{"show", Command{Kind: Show}},
		{"Help", Command{Kind: Help}},
		{"write sampling_mc 250", Command{Kind: Write, Knob: knob.KnobSampling, Value: "250"}},
		{"WRITE Threshold_MC 0", Command{Kind: Write, Knob: knob.KnobThreshold, Value: "0"}},
		{"write mode 1", Command{Kind: Write, Knob: knob.KnobMode, Value: "1"}},
		{"read mode", Command{Kind: Read, Knob: knob.KnobMode}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.line))
		})
	}
}

func TestParseRejects(t *testing.T) {
	for _, line := range []string{
		"write sampling_mc -5",
		"write sampling_mc abc",
		"write foo 1",
		"write mode",
		"read",
		"read foo",
		"exit now",
		"hello",
	} {
		t.Run(line, func(t *testing.T) {
			cmd := Parse(line)
			assert.Equal(t, Unrecognized, cmd.Kind)
			assert.NotEmpty(t, cmd.Reason)
		})
	}
}

func TestApplyWriteMode(t *testing.T) {
	port := newMemPort()
	sink := &recordingSink{}
	l := &Loop{Port: port, Sink: sink}

	assert.False(t, l.Apply(Parse("write mode 0")))
	assert.Equal(t, []string{"mode=0"}, port.writes)
	assert.Equal(t, []string{"mode = 0", "Mode changed"}, sink.lines)
}

func TestApplyShowAndRead(t *testing.T) {
	sink := &recordingSink{}
	l := &Loop{Port: newMemPort(), Sink: sink}

	l.Apply(Parse("show"))
	l.Apply(Parse("read mode"))
	assert.Equal(t, []string{
		"sampling_mc = 100",
		"threshold_mc = 45000",
		"mode = 2 (RAMP)",
		"mode = 2 (RAMP)",
	}, sink.lines)
}

func TestApplyUnrecognizedWarns(t *testing.T) {
	port := newMemPort()
	sink := &recordingSink{}
	l := &Loop{Port: port, Sink: sink}

	assert.False(t, l.Apply(Parse("write sampling_mc -1")))
	require.Len(t, sink.warns, 1)
	assert.Contains(t, sink.warns[0], "help")
	assert.Empty(t, port.writes)
}

func TestRunStopsOnExit(t *testing.T) {
	port := newMemPort()
	sink := &recordingSink{}
	l := &Loop{
		In:     strings.NewReader("write sampling_mc 5\nexit\nwrite sampling_mc 7\n"),
		Port:   port,
		Sink:   sink,
		Prompt: DefaultPrompt,
	}

	require.NoError(t, l.Run(context.Background()))
	assert.Equal(t, []string{"sampling_mc=5"}, port.writes)
	assert.Equal(t, 2, sink.prompts)
}

func TestRunStopsOnEOF(t *testing.T) {
	l := &Loop{In: strings.NewReader("show\n"), Port: newMemPort(), Sink: &recordingSink{}}
	require.NoError(t, l.Run(context.Background()))
}

func TestRunStopsOnCancel(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	l := &Loop{In: r, Port: newMemPort(), Sink: &recordingSink{}}

	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run ignored cancellation")
	}
}
