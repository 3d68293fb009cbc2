// Package knob reads and writes the simtemp driver's configuration knobs.
// Every call goes to the live driver; nothing is cached.
package knob

import (
	"fmt"
	"strconv"
	"strings"
)

// Knob names one configuration value exposed by the driver.
type Knob string

const (
	KnobSampling  Knob = "sampling_mc"
	KnobThreshold Knob = "threshold_mc"
	KnobMode      Knob = "mode"
)

// All lists the knobs in display order.
var All = []Knob{KnobSampling, KnobThreshold, KnobMode}

var knobFiles = map[Knob]string{
	KnobSampling:  "simtemp_sampling",
	KnobThreshold: "simtemp_threshold",
	KnobMode:      "simtemp_mode",
}

// File returns the attribute file name backing k. Unknown knobs map to
// their own name so a bad knob reaches the driver and is rejected there.
func (k Knob) File() string {
	if f, ok := knobFiles[k]; ok {
		return f
	}
	return string(k)
}

// Known reports whether k is one of the three driver knobs.
func (k Knob) Known() bool {
	_, ok := knobFiles[k]
	return ok
}

// Parse resolves a case-insensitive knob name.
func Parse(name string) (Knob, bool) {
	k := Knob(strings.ToLower(strings.TrimSpace(name)))
	return k, k.Known()
}

// Mode is the driver's temperature simulation mode.
type Mode int

const (
	ModeNormal Mode = 0
	ModeNoisy  Mode = 1
	ModeRamp   Mode = 2
)

func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "NORMAL"
	case ModeNoisy:
		return "NOISY"
	case ModeRamp:
		return "RAMP"
	default:
		return fmt.Sprintf("MODE(%d)", int(m))
	}
}

// Next cycles NORMAL -> NOISY -> RAMP -> NORMAL.
func (m Mode) Next() Mode {
	return (m + 1) % 3
}

// ParseMode accepts a mode name or its integer value.
func ParseMode(s string) (Mode, error) {
	s = strings.TrimSpace(s)
	switch strings.ToUpper(s) {
	case "NORMAL":
		return ModeNormal, nil
	case "NOISY":
		return ModeNoisy, nil
	case "RAMP":
		return ModeRamp, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 || v > 2 {
		return 0, fmt.Errorf("unknown mode %q", s)
	}
	return Mode(v), nil
}
