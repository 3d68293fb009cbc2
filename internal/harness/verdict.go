package harness

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Verdict is the immutable outcome of one check.
type Verdict struct {
	Name    string // T1..T5
	Title   string
	Passed  bool
	Count   int    // samples counted, for counting checks
	Detail  string // what was observed
	Err     error
	Elapsed time.Duration
}

// Result is "PASSED" or "NOT PASSED".
func (v Verdict) Result() string {
	if v.Passed {
		return "PASSED"
	}
	return "NOT PASSED"
}

// Report is the ordered set of verdicts from one run.
type Report struct {
	ID       string
	Started  time.Time
	Verdicts []Verdict
	// RestoreErr is the first error writing the original knob values back.
	RestoreErr error
}

// Passed reports whether every check passed.
func (r Report) Passed() bool {
	if len(r.Verdicts) == 0 {
		return false
	}
	for _, v := range r.Verdicts {
		if !v.Passed {
			return false
		}
	}
	return true
}

// Failed returns the names of the checks that did not pass.
func (r Report) Failed() []string {
	var names []string
	for _, v := range r.Verdicts {
		if !v.Passed {
			names = append(names, v.Name)
		}
	}
	return names
}

// WriteSummary writes one "Tn: PASSED|NOT PASSED" line per check. With
// color disabled the output is plain text.
func (r Report) WriteSummary(w io.Writer, color bool) error {
	renderer := lipgloss.NewRenderer(w)
	if !color {
		renderer.SetColorProfile(termenv.Ascii)
	}
	pass := renderer.NewStyle().Foreground(lipgloss.Color("78")).Bold(true)
	fail := renderer.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)

	var sb strings.Builder
	for _, v := range r.Verdicts {
		style := fail
		if v.Passed {
			style = pass
		}
		fmt.Fprintf(&sb, "%s: %s\n", v.Name, style.Render(v.Result()))
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
