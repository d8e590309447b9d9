// Copyright 2025 The Reginald Authors
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

// Package cli defines the command-line interface of the orchestrator: flag
// parsing, configuration bootstrap, and the exit-code taxonomy of §6.5.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/mediaforge-dev/mediaforge/internal/config"
	"github.com/mediaforge-dev/mediaforge/internal/fspath"
	"github.com/mediaforge-dev/mediaforge/internal/iostreams"
	"github.com/mediaforge-dev/mediaforge/internal/logging"
	"github.com/mediaforge-dev/mediaforge/internal/logs"
	"github.com/mediaforge-dev/mediaforge/internal/panichandler"
	"github.com/mediaforge-dev/mediaforge/internal/version"
)

// Program-related constants.
const (
	ProgramName = "MediaForge"
	Name        = "mediaforge"
)

// Exit codes, per §6.5.
const (
	ExitSuccess      = 0
	ExitMatchFailed  = 1
	ExitStartupError = 2
	ExitRuntimeFault = 3
)

// An ExitError associates an exit code with the error causing the program to
// terminate.
type ExitError struct {
	Code int
	err  error
}

// NewExitError wraps err with the exit code the program should return for it.
func NewExitError(code int, err error) *ExitError {
	return &ExitError{Code: code, err: err}
}

func (e *ExitError) Error() string {
	return e.err.Error()
}

// Unwrap returns the wrapped error so [errors.Is] and [errors.As] work
// through an ExitError.
func (e *ExitError) Unwrap() error {
	return e.err
}

// Flags is the parsed command-line flag surface (§6.5's minimum).
type Flags struct {
	ConfigPath string
	DryRun     bool
	Debug      bool
	Hardlink   bool
}

// NewFlagSet builds the root flag set.
func NewFlagSet() (*pflag.FlagSet, *Flags) {
	fs := pflag.NewFlagSet(ProgramName, pflag.ContinueOnError)
	f := &Flags{} //nolint:exhaustruct // filled in by fs.Parse

	fs.StringVarP(&f.ConfigPath, "config", "c", "", "use `path` as the configuration file instead of resolving it from the standard locations")
	fs.BoolVar(&f.DryRun, "dry-run", false, "override options.dry_run")
	fs.BoolVar(&f.Debug, "debug", false, "override options.debug")
	fs.BoolVar(&f.Hardlink, "hardlink", false, "override options.hardlink")

	return fs, f
}

// Bootstrap parses the command line, installs the signal-driven cancellation
// context, and loads the configuration. run in cmd/mediaforge invokes this before wiring the
// registry, loader, planner, pipeline, and assembler.
func Bootstrap(args []string) (context.Context, context.CancelFunc, *config.Config, error) {
	if err := logging.InitBootstrap(); err != nil {
		return nil, nil, nil, &ExitError{Code: ExitStartupError, err: fmt.Errorf("bootstrap logging: %w", err)}
	}

	ctx, cancel := context.WithCancel(context.Background())
	panichandler.SetCancel(cancel)

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	handlePanic := panichandler.WithStackTrace()

	go func() {
		defer handlePanic()
		<-sigc
		cancel()
	}()

	fs, flags := NewFlagSet()
	if err := fs.Parse(args); err != nil {
		cancel()

		return nil, nil, nil, &ExitError{Code: ExitStartupError, err: fmt.Errorf("parse flags: %w", err)}
	}

	wd, err := os.Getwd()
	if err != nil {
		cancel()

		return nil, nil, nil, &ExitError{Code: ExitStartupError, err: fmt.Errorf("get working directory: %w", err)}
	}

	cfgPath, err := config.Resolve(fspath.Path(wd), flags.ConfigPath)
	if err != nil {
		cancel()

		return nil, nil, nil, &ExitError{Code: ExitStartupError, err: fmt.Errorf("resolve config: %w", err)}
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		cancel()

		return nil, nil, nil, &ExitError{Code: ExitStartupError, err: fmt.Errorf("load config: %w", err)}
	}

	applyFlagOverrides(cfg, flags)

	colorMode := iostreams.ColorAuto
	if cfg.Options.Debug {
		colorMode = iostreams.ColorAlways
		cfg.Log.Enabled = true

		if cfg.Log.Level > logs.LevelDebug {
			cfg.Log.Level = logs.LevelDebug
		}
	}

	iostreams.Streams = iostreams.New(false, colorMode)

	if err := logging.Init(cfg.Log); err != nil {
		cancel()

		return nil, nil, nil, &ExitError{Code: ExitStartupError, err: fmt.Errorf("init logging: %w", err)}
	}

	logging.InfoContext(ctx, "starting run", "version", version.Version(), "revision", version.Revision())

	return ctx, cancel, cfg, nil
}

func applyFlagOverrides(cfg *config.Config, flags *Flags) {
	if flags.DryRun {
		cfg.Options.DryRun = true
	}

	if flags.Debug {
		cfg.Options.Debug = true
	}

	if flags.Hardlink {
		cfg.Options.Hardlink = true
	}
}
