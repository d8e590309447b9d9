// Copyright 2025 Antti Kivi
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package iostreams defines the IO stream utilities for the orchestrator's
// user-facing output. Most importantly, it defines the global instance that
// should be used for the "print" task output and for diagnostics, and it
// guarantees that writes from concurrent plugin and task goroutines are
// line-atomic (see the save/print task concurrency rules).
package iostreams

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// defaultWidth is used when the width of the output terminal cannot be
// determined, e.g. when output is redirected to a file.
const defaultWidth = 80

// Streams is the global IO streams instance for the program. It must be
// initialized before use.
var Streams *IOStreams //nolint:gochecknoglobals // global IO instance

// IOStreams is the type of the global output object used by the task runner
// and the diagnostic event stream. By default, it locks on the global
// standard input and output streams' mutual exclusion lock before writing. If
// the writing operations using this type return an error, it is stored within
// the struct rather than propagated, matching the "best-effort" nature of
// user-facing output.
type IOStreams struct {
	out       io.Writer
	errOut    io.Writer
	buf       *bufio.Writer
	errs      []error
	quiet     bool
	errStyle  lipgloss.Style
	warnStyle lipgloss.Style
}

// New returns a new IOStreams for the given settings.
func New(quiet bool, colors ColorMode) *IOStreams {
	var colorsEnabled bool

	switch colors {
	case ColorAlways:
		colorsEnabled = true
	case ColorNever:
		colorsEnabled = false
	case ColorAuto:
		colorsEnabled = term.IsTerminal(int(os.Stdout.Fd()))
	default:
		panic(fmt.Sprintf("invalid IOStreams color mode: %v", colors))
	}

	renderer := lipgloss.NewRenderer(os.Stdout)
	renderer.SetColorProfile(lipgloss.ANSI)

	if !colorsEnabled {
		renderer.SetColorProfile(0)
	}

	s := &IOStreams{ //nolint:exhaustruct // buf is set later
		errs:      nil,
		out:       NewLockedWriter(os.Stdout),
		errOut:    NewLockedWriter(os.Stderr),
		quiet:     quiet,
		errStyle:  renderer.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		warnStyle: renderer.NewStyle().Foreground(lipgloss.Color("3")),
	}

	s.buf = bufio.NewWriter(s.out)

	return s
}

// Err returns the errors that s has encountered. [errors.Join] is called on
// the errors before returning them.
func (s *IOStreams) Err() error {
	return errors.Join(s.errs...)
}

// Flush flushes the underlying buffer.
func (s *IOStreams) Flush() error {
	if err := s.buf.Flush(); err != nil {
		return fmt.Errorf("failed to flush the output buffer: %w", err)
	}

	return nil
}

// Errorf formats according to a format specifier and writes to the standard
// error output of s in the error style. It stores possible write errors
// within s rather than returning them, as diagnostic output must never fail a
// batch.
func (s *IOStreams) Errorf(format string, a ...any) {
	msg := s.errStyle.Render(fmt.Sprintf(format, a...))
	if _, err := fmt.Fprintln(s.errOut, msg); err != nil {
		s.errs = append(s.errs, err)
	}
}

// Warnf formats according to a format specifier and writes to the standard
// error output of s in the warning style.
func (s *IOStreams) Warnf(format string, a ...any) {
	msg := s.warnStyle.Render(fmt.Sprintf(format, a...))
	if _, err := fmt.Fprintln(s.errOut, msg); err != nil {
		s.errs = append(s.errs, err)
	}
}

// Print writes the rendered text of a "print" task to the standard output of
// s. Task output bypasses the quiet flag: it is explicit, user-requested
// output, unlike diagnostic logging.
func (s *IOStreams) Print(a string) {
	if _, err := fmt.Fprintln(s.out, a); err != nil {
		s.errs = append(s.errs, err)
	}
}

// BufPrintf formats according to a format specifier and writes to the
// standard output buffer of s. It stores possible errors within s.
func (s *IOStreams) BufPrintf(format string, a ...any) {
	if s.quiet {
		return
	}

	if _, err := fmt.Fprintf(s.buf, format, a...); err != nil {
		s.errs = append(s.errs, err)
	}
}

// Errorf formats according to a format specifier and writes to the standard
// error output of [Streams] in the error style. It stores possible errors
// within [Streams].
func Errorf(format string, a ...any) {
	if Streams == nil {
		panic("tried to call nil Streams")
	}

	Streams.Errorf(format, a...)
}

// Print writes the rendered text of a "print" task to the standard output of
// [Streams].
func Print(a string) {
	if Streams == nil {
		panic("tried to call nil Streams")
	}

	Streams.Print(a)
}

// Width returns the width of the output terminal, or [defaultWidth] if it
// cannot be determined, e.g. because output is redirected.
func Width() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return defaultWidth
	}

	return w
}
