// Package command parses and runs the interactive commands accepted while
// a monitoring session streams samples.
package command

import (
	"fmt"
	"strings"

	"github.com/luki/simtemp/internal/knob"
)

// Kind classifies a parsed input line.
type Kind int

const (
	Unrecognized Kind = iota
	Empty
	Exit
	Write
	Read
	Show
	Help
)

func (k Kind) String() string {
	switch k {
	case Empty:
		return "empty"
	case Exit:
		return "exit"
	case Write:
		return "write"
	case Read:
		return "read"
	case Show:
		return "show"
	case Help:
		return "help"
	default:
		return "unrecognized"
	}
}

// Command is one typed input line.
type Command struct {
	Kind   Kind
	Knob   knob.Knob // Write, Read
	Value  string    // Write: decimal digits only
	Reason string    // Unrecognized
}

// Usage lists the accepted grammar.
var Usage = []string{
	"write <sampling_mc|threshold_mc|mode> <value>   set a knob (value: non-negative integer)",
	"read <sampling_mc|threshold_mc|mode>            print a knob",
	"show                                            print all knobs",
	"help                                            print this help",
	"exit                                            stop monitoring",
}

// Parse reads one line. Keywords and knob names are case-insensitive.
//
//	line  = "exit" | "show" | "help" | write | read
//	write = "write" knob digits
//	read  = "read" knob
func Parse(line string) Command {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return Command{Kind: Empty}
	}

	switch fields[0] {
	case "exit":
		if len(fields) == 1 {
			return Command{Kind: Exit}
		}
	case "show":
		if len(fields) == 1 {
			return Command{Kind: Show}
		}
	case "help":
		if len(fields) == 1 {
			return Command{Kind: Help}
		}
	case "write":
		if len(fields) != 3 {
			return unrecognized("usage: write <knob> <value>")
		}
		k, ok := knob.Parse(fields[1])
		if !ok {
			return unrecognized(fmt.Sprintf("unknown knob %q", fields[1]))
		}
		if !isDigits(fields[2]) {
			return unrecognized(fmt.Sprintf("value %q is not a non-negative integer", fields[2]))
		}
		return Command{Kind: Write, Knob: k, Value: fields[2]}
	case "read":
		if len(fields) != 2 {
			return unrecognized("usage: read <knob>")
		}
		k, ok := knob.Parse(fields[1])
		if !ok {
			return unrecognized(fmt.Sprintf("unknown knob %q", fields[1]))
		}
		return Command{Kind: Read, Knob: k}
	}
	return unrecognized(fmt.Sprintf("unknown command %q", strings.TrimSpace(line)))
}

func unrecognized(reason string) Command {
	return Command{Kind: Unrecognized, Reason: reason}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
