// Package render owns the terminal. The stream monitor and the command
// loop submit render requests to one Terminal, whose goroutine is the only
// writer of the output stream, so sample lines and prompts never interleave
// mid-sequence.
package render

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"

	"github.com/luki/simtemp/internal/sample"
)

// Sink accepts render requests from concurrent producers.
type Sink interface {
	// Sample renders one decoded sample above the prompt line.
	Sample(s sample.Sample)
	// Line renders a plain message above the prompt line.
	Line(msg string)
	// Warn renders a highlighted warning above the prompt line.
	Warn(msg string)
	// Prompt writes msg at the cursor without a newline.
	Prompt(msg string)
}

// VT100 index / reverse index: move one row keeping the column, scrolling
// when the cursor sits on the bottom row.
const (
	index        = "\x1bD"
	reverseIndex = "\x1bM"
)

// queueSize bounds pending requests; producers block when it is full.
const queueSize = 256

type kind int

const (
	kindInsert kind = iota
	kindPrompt
)

type request struct {
	kind kind
	text string
}

// Terminal serializes all output to one writer.
type Terminal struct {
	out     io.Writer
	inPlace bool
	clock   sample.Clock

	alertStyle lipgloss.Style
	warnStyle  lipgloss.Style

	requests chan request
	quit     chan struct{}
	done     chan struct{}
	once     sync.Once
}

// Option configures a Terminal.
type Option func(*Terminal)

// WithInPlace selects insert-above rendering (for interactive terminals)
// instead of plain appended lines.
func WithInPlace(inPlace bool) Option {
	return func(t *Terminal) { t.inPlace = inPlace }
}

// WithClock overrides the clock used to place sample timestamps.
func WithClock(c sample.Clock) Option {
	return func(t *Terminal) { t.clock = c }
}

// WithColor enables or disables ANSI colors.
func WithColor(enabled bool) Option {
	return func(t *Terminal) {
		r := lipgloss.NewRenderer(t.out)
		if !enabled {
			r.SetColorProfile(termenv.Ascii)
		}
		t.alertStyle = r.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
		t.warnStyle = r.NewStyle().Foreground(lipgloss.Color("220"))
	}
}

// IsTerminal reports whether f is an interactive terminal.
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// NewTerminal starts the rendering goroutine. Close must be called to
// flush pending requests and stop it.
func NewTerminal(out io.Writer, opts ...Option) *Terminal {
	t := &Terminal{
		out:      out,
		clock:    sample.SystemClock{},
		requests: make(chan request, queueSize),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	WithColor(false)(t)
	for _, opt := range opts {
		opt(t)
	}
	go t.loop()
	return t
}

func (t *Terminal) loop() {
	defer close(t.done)
	for {
		select {
		case r := <-t.requests:
			t.write(r)
		case <-t.quit:
			for {
				select {
				case r := <-t.requests:
					t.write(r)
				default:
					return
				}
			}
		}
	}
}

func (t *Terminal) write(r request) {
	switch {
	case r.kind == kindPrompt:
		io.WriteString(t.out, r.text)
	case t.inPlace:
		// Make room below the prompt first so the insert never pushes the
		// prompt off the bottom row, then insert above it and return to
		// the same column.
		var b strings.Builder
		b.WriteString(index)
		b.WriteString(reverseIndex)
		b.WriteString(ansi.SaveCursor)
		b.WriteString(ansi.InsertLine(1))
		b.WriteString("\r")
		b.WriteString(r.text)
		b.WriteString(ansi.RestoreCursor)
		b.WriteString(index)
		io.WriteString(t.out, b.String())
	default:
		io.WriteString(t.out, r.text+"\n")
	}
}

func (t *Terminal) submit(r request) {
	select {
	case t.requests <- r:
	case <-t.done:
	}
}

// Sample renders s as "<ISO-8601>, Temp: <C>°C, Alert: <0|1>".
func (t *Terminal) Sample(s sample.Sample) {
	line := FormatSample(t.clock, s)
	if s.Alert() {
		line = t.alertStyle.Render(line)
	}
	t.submit(request{kind: kindInsert, text: line})
}

// Line renders msg above the prompt.
func (t *Terminal) Line(msg string) {
	t.submit(request{kind: kindInsert, text: msg})
}

// Warn renders a warning above the prompt.
func (t *Terminal) Warn(msg string) {
	t.submit(request{kind: kindInsert, text: t.warnStyle.Render("Warning: " + msg)})
}

// Prompt writes msg at the cursor.
func (t *Terminal) Prompt(msg string) {
	t.submit(request{kind: kindPrompt, text: msg})
}

// Close flushes queued requests and stops the rendering goroutine.
func (t *Terminal) Close() {
	t.once.Do(func() { close(t.quit) })
	<-t.done
}

// FormatSample renders the sample line contract.
func FormatSample(c sample.Clock, s sample.Sample) string {
	return fmt.Sprintf("%s, Temp: %s°C, Alert: %d",
		sample.WallClock(c, s.TimestampNs),
		sample.FormatCelsius(s.TempMilliC),
		s.AlertBit())
}
