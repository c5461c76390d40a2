// Copyright 2024 The src-pro-gpu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import "github.com/cpmech/gosl/io"

// Logger receives solver messages. Implementations are injected at model
// construction; the solver never writes to a process-wide singleton.
type Logger interface {
	LogDebug(msg string)
	LogInfo(msg string)
	LogWarning(msg string)
	LogError(msg string, kind ErrorKind, site, hint string)
}

// ProfileFlag marks the two ends of a profiled section
type ProfileFlag int

const (
	ProfileStart ProfileFlag = iota
	ProfileEnd
)

// Profiler receives timing sections. Implementations may be no-ops.
type Profiler interface {
	Profile(tag string, flag ProfileFlag)
}

// PrintLogger writes messages to stdout. Debug messages are only written
// when Verbose is set.
type PrintLogger struct {
	Verbose bool
}

// LogDebug prints a debug message when verbose
func (o *PrintLogger) LogDebug(msg string) {
	if o.Verbose {
		io.Pf("debug: %s\n", msg)
	}
}

// LogInfo prints an informational message
func (o *PrintLogger) LogInfo(msg string) {
	io.Pf("%s\n", msg)
}

// LogWarning prints a warning message
func (o *PrintLogger) LogWarning(msg string) {
	io.Pforan("warning: %s\n", msg)
}

// LogError prints an error message with its classification and context
func (o *PrintLogger) LogError(msg string, kind ErrorKind, site, hint string) {
	io.PfRed("error (%s): %s\n", kind.String(), msg)
	if site != "" {
		io.PfRed("  at:   %s\n", site)
	}
	if hint != "" {
		io.PfRed("  hint: %s\n", hint)
	}
}

// NopLogger discards all messages
type NopLogger struct{}

func (o *NopLogger) LogDebug(msg string)                                  {}
func (o *NopLogger) LogInfo(msg string)                                   {}
func (o *NopLogger) LogWarning(msg string)                                {}
func (o *NopLogger) LogError(msg string, kind ErrorKind, site, hint string) {}

// NopProfiler discards all sections
type NopProfiler struct{}

func (o *NopProfiler) Profile(tag string, flag ProfileFlag) {}
