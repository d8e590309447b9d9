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

// Package logs defines the logging level type shared between the
// configuration layer and the [log/slog]-based logging setup. It extends
// [slog.Level] with a Trace level below Debug, matching the four diagnostic
// levels the orchestrator's event stream must emit (§6.6: DEBUG, INFO, WARN,
// ERROR) plus an internal trace tier used for development builds.
package logs

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// errInvalidLevel is returned when a string cannot be parsed into a [Level].
var errInvalidLevel = errors.New("invalid log level")

// Level is the logging level used throughout the program. It is a thin
// wrapper around [slog.Level] that adds a Trace tier and textual (de)coding
// for use in configuration files and environment variables.
type Level slog.Level //nolint:recvcheck // needs different receiver types

// The logging levels supported by the program.
const (
	LevelTrace Level = Level(slog.LevelDebug - 4)
	LevelDebug Level = Level(slog.LevelDebug)
	LevelInfo  Level = Level(slog.LevelInfo)
	LevelWarn  Level = Level(slog.LevelWarn)
	LevelError Level = Level(slog.LevelError)
)

// Level returns l as a [slog.Level].
func (l Level) Level() slog.Level {
	return slog.Level(l)
}

// String returns the textual representation of l.
func (l Level) String() string {
	switch {
	case l <= LevelTrace:
		return "TRACE"
	case l < LevelInfo:
		return "DEBUG"
	case l < LevelWarn:
		return "INFO"
	case l < LevelError:
		return "WARN"
	default:
		return "ERROR"
	}
}

// Set parses s and assigns the matching level to l. It implements
// [pflag.Value] so the level can be used directly as a command-line flag.
func (l *Level) Set(s string) error {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		*l = LevelTrace
	case "DEBUG":
		*l = LevelDebug
	case "INFO", "":
		*l = LevelInfo
	case "WARN", "WARNING":
		*l = LevelWarn
	case "ERROR":
		*l = LevelError
	default:
		return fmt.Errorf("%w: %q", errInvalidLevel, s)
	}

	return nil
}

// Type returns the type name of l for use in command-line help text.
func (*Level) Type() string {
	return "level"
}

// MarshalText encodes l in its textual form.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(l.String())), nil
}

// UnmarshalText assigns the value from the given textual representation to l.
func (l *Level) UnmarshalText(data []byte) error {
	if err := l.Set(string(data)); err != nil {
		return fmt.Errorf("failed to set level: %w", err)
	}

	return nil
}
